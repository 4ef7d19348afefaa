package handler

import (
	"errors"
	"net/http"

	"github.com/cleberrangel/caregiver-fit-api/internal/logger"
	"github.com/cleberrangel/caregiver-fit-api/internal/model"
	"github.com/cleberrangel/caregiver-fit-api/internal/scoring"
	"github.com/gin-gonic/gin"
)

// handleError trata erros e retorna resposta apropriada
func handleError(c *gin.Context, err error) {
	status, message, details := http.StatusInternalServerError, "erro interno", err.Error()

	switch {
	case errors.Is(err, model.ErrNoTasks),
		errors.Is(err, model.ErrInvalidInput),
		errors.Is(err, scoring.ErrUnknownTask),
		errors.Is(err, model.ErrInvalidSyncConfig):
		status, message = http.StatusBadRequest, "requisição inválida"
	case errors.Is(err, model.ErrNotFound):
		status, message = http.StatusNotFound, "não encontrado"
	case errors.Is(err, model.ErrMissingAPIKey):
		status, message = http.StatusServiceUnavailable, "análise indisponível"
		details = "configure GEMINI_API_KEY ou use /api/v1/assessments/score"
	case errors.Is(err, model.ErrQuotaExhausted):
		status, message = http.StatusTooManyRequests, "cota do Gemini esgotada"
		details = "aguarde alguns minutos e tente novamente"
	case errors.Is(err, model.ErrInvalidAPIKey),
		errors.Is(err, model.ErrEmptyResponse),
		errors.Is(err, model.ErrInvalidResponse):
		status, message = http.StatusBadGateway, "falha na análise"
	case errors.Is(err, model.ErrSyncFailed):
		status, message = http.StatusBadGateway, "falha na sincronização"
	case errors.Is(err, model.ErrTimeout):
		status, message = http.StatusGatewayTimeout, "timeout na requisição"
	}

	log := logger.FromGin(c)
	if status >= http.StatusInternalServerError {
		log.Error().Err(err).Int("status", status).Msg("Erro na requisição")
	} else {
		log.Warn().Err(err).Int("status", status).Msg("Requisição recusada")
	}

	c.JSON(status, model.ErrorResponse{
		Success: false,
		Error:   message,
		Details: details,
	})
}

// badRequest responde 400 para payload que nem chegou ao serviço
func badRequest(c *gin.Context, message string, err error) {
	resp := model.ErrorResponse{Success: false, Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	c.JSON(http.StatusBadRequest, resp)
}
