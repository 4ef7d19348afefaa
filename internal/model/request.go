package model

import (
	"strings"

	"github.com/cleberrangel/caregiver-fit-api/internal/scoring"
)

// Modos de sincronização externa
const (
	SyncModeWebhook = "webhook"
	SyncModeNotion  = "notion"
)

// SyncConfig são os dados de destino informados a cada requisição
type SyncConfig struct {
	WebhookURL string `json:"webhook_url,omitempty"`
	APIKey     string `json:"api_key,omitempty"`
	DatabaseID string `json:"database_id,omitempty"`
	Mode       string `json:"mode"`
}

// Validate confere os campos exigidos pelo modo
func (s SyncConfig) Validate() error {
	switch s.Mode {
	case SyncModeWebhook, "":
		if strings.TrimSpace(s.WebhookURL) == "" {
			return ErrInvalidSyncConfig
		}
	case SyncModeNotion:
		if s.APIKey == "" || s.DatabaseID == "" {
			return ErrInvalidSyncConfig
		}
	default:
		return ErrInvalidSyncConfig
	}
	return nil
}

// AssessmentRequest é o formulário enviado pelo cuidador
type AssessmentRequest struct {
	Tasks          []scoring.SelectedTask `json:"tasks"`
	OtherTasks     string                 `json:"other_tasks"`
	PeriodTotal    float64                `json:"period_total"`
	Interests      []string               `json:"interests"`
	OtherInterests string                 `json:"other_interests"`
	Sync           *SyncConfig            `json:"sync,omitempty"`
	Async          bool                   `json:"async,omitempty"`
}

// Response representa a resposta padrão da API
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Meta    *Meta       `json:"meta,omitempty"`
	Errors  []string    `json:"errors,omitempty"`
}

// Meta contém metadados da resposta
type Meta struct {
	Total int `json:"total,omitempty"`
}

// ErrorResponse representa uma resposta de erro
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}
