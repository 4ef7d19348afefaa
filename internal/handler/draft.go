package handler

import (
	"net/http"

	"github.com/cleberrangel/caregiver-fit-api/internal/middleware"
	"github.com/cleberrangel/caregiver-fit-api/internal/model"
	"github.com/cleberrangel/caregiver-fit-api/internal/service"
	"github.com/gin-gonic/gin"
)

// DraftHandler manipula os rascunhos do formulário
type DraftHandler struct {
	drafts *service.DraftService
}

// NewDraftHandler cria o handler de rascunhos
func NewDraftHandler(drafts *service.DraftService) *DraftHandler {
	return &DraftHandler{drafts: drafts}
}

type taskToggleRequest struct {
	Name string `json:"name" binding:"required"`
}

type taskAdjustRequest struct {
	Name  string  `json:"name" binding:"required"`
	Delta float64 `json:"delta"`
}

type interestToggleRequest struct {
	Label string `json:"label" binding:"required"`
}

// Create inicia um rascunho vazio
func (h *DraftHandler) Create(c *gin.Context) {
	c.JSON(http.StatusCreated, model.Response{Success: true, Data: h.drafts.Create()})
}

// Get retorna o rascunho
func (h *DraftHandler) Get(c *gin.Context) {
	d, err := h.drafts.Get(c.Param("id"))
	respondDraft(c, d, err)
}

// ToggleTask marca ou desmarca uma tarefa do catálogo
func (h *DraftHandler) ToggleTask(c *gin.Context) {
	var req taskToggleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "payload inválido", err)
		return
	}

	d, err := h.drafts.ToggleTask(c.Param("id"), middleware.SanitizeName(req.Name))
	respondDraft(c, d, err)
}

// AdjustHours soma delta às horas de uma tarefa marcada
func (h *DraftHandler) AdjustHours(c *gin.Context) {
	var req taskAdjustRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "payload inválido", err)
		return
	}

	d, err := h.drafts.AdjustHours(c.Param("id"), middleware.SanitizeName(req.Name), req.Delta)
	respondDraft(c, d, err)
}

// ToggleInterest marca ou desmarca uma área de interesse
func (h *DraftHandler) ToggleInterest(c *gin.Context) {
	var req interestToggleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "payload inválido", err)
		return
	}

	d, err := h.drafts.ToggleInterest(c.Param("id"), middleware.SanitizeName(req.Label))
	respondDraft(c, d, err)
}

// Delete descarta o rascunho
func (h *DraftHandler) Delete(c *gin.Context) {
	h.drafts.Delete(c.Param("id"))
	c.Status(http.StatusNoContent)
}

func respondDraft(c *gin.Context, d *service.Draft, err error) {
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, model.Response{Success: true, Data: d})
}
