package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cleberrangel/caregiver-fit-api/internal/logger"
	"github.com/cleberrangel/caregiver-fit-api/internal/model"
)

// DefaultSyncTimeout limita cada envio externo
const DefaultSyncTimeout = 30 * time.Second

// SyncService envia avaliações para um webhook genérico ou para o Notion
type SyncService struct {
	httpClient *http.Client
	excel      *ExcelGenerator
	notionURL  string
}

// NewSyncService cria um novo serviço de sincronização
func NewSyncService() *SyncService {
	return &SyncService{
		httpClient: &http.Client{Timeout: DefaultSyncTimeout},
		excel:      NewExcelGenerator(),
		notionURL:  NotionPagesURL,
	}
}

// WithNotionURL troca o endpoint do Notion (usado em testes)
func (s *SyncService) WithNotionURL(u string) *SyncService {
	s.notionURL = u
	return s
}

// Sync envia a avaliação conforme o modo configurado
func (s *SyncService) Sync(ctx context.Context, cfg model.SyncConfig, a *model.Assessment) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	var err error
	switch cfg.Mode {
	case model.SyncModeNotion:
		err = s.sendNotion(ctx, cfg, a)
	default:
		err = s.SendSuccess(ctx, cfg, a)
	}
	if err != nil {
		return fmt.Errorf("%w: %v", model.ErrSyncFailed, err)
	}
	return nil
}

// SendSuccess envia o resumo, a avaliação e o XLSX em base64 para o webhook
func (s *SyncService) SendSuccess(ctx context.Context, cfg model.SyncConfig, a *model.Assessment) error {
	payload := model.WebhookPayload{
		Success:      true,
		AssessmentID: a.ID,
		Summary:      BuildSummary(a),
		Assessment:   a,
	}

	if a.Report != nil {
		buf, err := s.excel.Generate(a)
		if err != nil {
			return fmt.Errorf("gerar excel: %w", err)
		}
		payload.FileName = s.excel.FileName(a)
		payload.FileMime = XLSXMime
		payload.FileBase64 = base64.StdEncoding.EncodeToString(buf.Bytes())
	}

	return s.send(ctx, cfg, payload)
}

// SendError avisa o webhook de que a avaliação falhou
func (s *SyncService) SendError(ctx context.Context, cfg model.SyncConfig, assessmentID string, err error) error {
	payload := model.WebhookPayload{
		Success:      false,
		AssessmentID: assessmentID,
		Error:        err.Error(),
	}

	return s.send(ctx, cfg, payload)
}

func (s *SyncService) send(ctx context.Context, cfg model.SyncConfig, payload model.WebhookPayload) error {
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, cfg.WebhookURL, bytes.NewReader(jsonData))
	if err != nil {
		return fmt.Errorf("criar request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+cfg.APIKey)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("enviar webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("webhook retornou status %d: %s", resp.StatusCode, string(respBody))
	}

	logger.Get(ctx).Info().
		Str("url", cfg.WebhookURL).
		Int("status", resp.StatusCode).
		Int("size_bytes", len(jsonData)).
		Msg("Webhook enviado com sucesso")

	return nil
}
