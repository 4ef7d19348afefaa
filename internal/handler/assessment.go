package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/cleberrangel/caregiver-fit-api/internal/logger"
	"github.com/cleberrangel/caregiver-fit-api/internal/middleware"
	"github.com/cleberrangel/caregiver-fit-api/internal/model"
	"github.com/cleberrangel/caregiver-fit-api/internal/service"
	"github.com/cleberrangel/caregiver-fit-api/internal/websocket"
	"github.com/gin-gonic/gin"
)

// AssessmentHandler manipula requisições de avaliação
type AssessmentHandler struct {
	svc    *service.AssessmentService
	wsPath string
}

// NewAssessmentHandler cria o handler. wsPath é a rota de inscrição do websocket.
func NewAssessmentHandler(svc *service.AssessmentService, wsPath string) *AssessmentHandler {
	return &AssessmentHandler{svc: svc, wsPath: wsPath}
}

// CreateResponse é a resposta da criação em modo assíncrono
type CreateResponse struct {
	Assessment *model.Assessment `json:"assessment"`
	WSURL      string            `json:"ws_url"`
}

func (h *AssessmentHandler) bind(c *gin.Context) (model.AssessmentRequest, bool) {
	var req model.AssessmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "payload inválido", err)
		return req, false
	}

	middleware.SanitizeAssessmentRequest(&req)

	if req.Sync != nil && !validSyncURL(*req.Sync) {
		badRequest(c, "webhook_url inválida", nil)
		return req, false
	}
	return req, true
}

func validSyncURL(cfg model.SyncConfig) bool {
	if cfg.Mode == model.SyncModeNotion {
		return true
	}
	return middleware.ValidateWebhookURL(cfg.WebhookURL)
}

// Score calcula apenas o relatório do motor, sem LLM e sem persistência
// @Summary      Pontua um formulário
// @Tags         assessments
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body model.AssessmentRequest true "Formulário"
// @Success      200 {object} model.Response
// @Failure      400 {object} model.ErrorResponse
// @Router       /api/v1/assessments/score [post]
func (h *AssessmentHandler) Score(c *gin.Context) {
	req, ok := h.bind(c)
	if !ok {
		return
	}

	report, err := h.svc.Score(c.Request.Context(), req)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, model.Response{Success: true, Data: report})
}

// Create pontua, analisa e guarda uma avaliação
// @Summary      Cria uma avaliação
// @Description  Com async=true responde 202 e o andamento vai pelo websocket
// @Tags         assessments
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body model.AssessmentRequest true "Formulário"
// @Success      201 {object} model.Response
// @Success      202 {object} model.Response
// @Failure      400 {object} model.ErrorResponse
// @Failure      429 {object} model.ErrorResponse
// @Failure      503 {object} model.ErrorResponse
// @Router       /api/v1/assessments [post]
func (h *AssessmentHandler) Create(c *gin.Context) {
	req, ok := h.bind(c)
	if !ok {
		return
	}

	log := logger.FromGin(c)
	log.Info().
		Int("tasks", len(req.Tasks)).
		Float64("period_total", req.PeriodTotal).
		Bool("async", req.Async).
		Bool("sync", req.Sync != nil).
		Msg("Criando avaliação")

	a, err := h.svc.Create(c.Request.Context(), req)
	if err != nil {
		if a != nil {
			log.Warn().Str("assessment_id", a.ID).Msg("Avaliação guardada com falha na análise")
		}
		handleError(c, err)
		return
	}

	if req.Async {
		c.JSON(http.StatusAccepted, model.Response{
			Success: true,
			Data: CreateResponse{
				Assessment: a,
				WSURL:      websocket.BuildWebSocketURL(h.wsPath, a.ID),
			},
		})
		return
	}

	c.JSON(http.StatusCreated, model.Response{Success: true, Data: a})
}

// List retorna o histórico recente
func (h *AssessmentHandler) List(c *gin.Context) {
	items, err := h.svc.List(c.Request.Context())
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, model.Response{
		Success: true,
		Data:    items,
		Meta:    &model.Meta{Total: len(items)},
	})
}

// Get retorna uma avaliação completa
func (h *AssessmentHandler) Get(c *gin.Context) {
	a, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, model.Response{Success: true, Data: a})
}

// Summary retorna o resumo em Markdown
func (h *AssessmentHandler) Summary(c *gin.Context) {
	md, err := h.svc.Summary(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}

	c.Data(http.StatusOK, "text/markdown; charset=utf-8", []byte(md))
}

// Export devolve o relatório XLSX
// @Summary      Exporta uma avaliação
// @Tags         assessments
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security     BearerAuth
// @Param        id path string true "ID da avaliação"
// @Success      200 {file} binary
// @Failure      404 {object} model.ErrorResponse
// @Router       /api/v1/assessments/{id}/export [get]
func (h *AssessmentHandler) Export(c *gin.Context) {
	buf, filename, err := h.svc.Export(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	c.Header("Content-Length", strconv.Itoa(buf.Len()))
	c.Data(http.StatusOK, service.XLSXMime, buf.Bytes())
}

// Sync envia uma avaliação guardada para o webhook ou para o Notion
func (h *AssessmentHandler) Sync(c *gin.Context) {
	var cfg model.SyncConfig
	if err := c.ShouldBindJSON(&cfg); err != nil {
		badRequest(c, "payload inválido", err)
		return
	}

	middleware.SanitizeSyncConfig(&cfg)
	if !validSyncURL(cfg) {
		badRequest(c, "webhook_url inválida", nil)
		return
	}

	a, err := h.svc.SyncNow(c.Request.Context(), c.Param("id"), cfg)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, model.Response{Success: true, Data: a})
}
