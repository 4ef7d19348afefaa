package handler

import (
	"net/http"

	"github.com/cleberrangel/caregiver-fit-api/internal/catalog"
	"github.com/cleberrangel/caregiver-fit-api/internal/model"
	"github.com/gin-gonic/gin"
)

// CatalogHandler expõe o catálogo de tarefas, quadrantes e interesses
type CatalogHandler struct {
	cat *catalog.Catalog
}

// NewCatalogHandler cria o handler do catálogo
func NewCatalogHandler(cat *catalog.Catalog) *CatalogHandler {
	return &CatalogHandler{cat: cat}
}

// Get retorna o catálogo usado para montar o formulário
func (h *CatalogHandler) Get(c *gin.Context) {
	c.JSON(http.StatusOK, model.Response{
		Success: true,
		Data:    h.cat,
		Meta:    &model.Meta{Total: len(h.cat.Tasks)},
	})
}
