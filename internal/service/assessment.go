package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/cleberrangel/caregiver-fit-api/internal/catalog"
	"github.com/cleberrangel/caregiver-fit-api/internal/client"
	"github.com/cleberrangel/caregiver-fit-api/internal/logger"
	"github.com/cleberrangel/caregiver-fit-api/internal/metrics"
	"github.com/cleberrangel/caregiver-fit-api/internal/model"
	"github.com/cleberrangel/caregiver-fit-api/internal/repository"
	"github.com/cleberrangel/caregiver-fit-api/internal/scoring"
	"github.com/cleberrangel/caregiver-fit-api/internal/websocket"
	"github.com/google/uuid"
)

// Analyzer pede ao LLM as notas e sugestões de uma avaliação
type Analyzer interface {
	Analyze(ctx context.Context, req client.AnalysisRequest) (*model.Analysis, error)
}

// Syncer envia uma avaliação para um destino externo
type Syncer interface {
	Sync(ctx context.Context, cfg model.SyncConfig, a *model.Assessment) error
}

// Notifier publica o andamento de uma avaliação
type Notifier interface {
	SendStatus(assessmentID string, update websocket.StatusUpdate)
}

// AnalysisTimeout limita a análise em segundo plano, somando todos os modelos
const AnalysisTimeout = 5 * time.Minute

// AssessmentService orquestra motor, análise, persistência e sincronização
type AssessmentService struct {
	cat      *catalog.Catalog
	store    repository.AssessmentStore
	analyzer Analyzer
	syncer   Syncer
	notifier Notifier
	excel    *ExcelGenerator

	maxRecords int
	now        func() time.Time
	wg         sync.WaitGroup
}

// NewAssessmentService cria o serviço. analyzer pode ser nil quando não há
// chave do Gemini; nesse caso só a pontuação do motor fica disponível.
func NewAssessmentService(cat *catalog.Catalog, store repository.AssessmentStore, analyzer Analyzer, syncer Syncer, notifier Notifier) *AssessmentService {
	return &AssessmentService{
		cat:        cat,
		store:      store,
		analyzer:   analyzer,
		syncer:     syncer,
		notifier:   notifier,
		excel:      NewExcelGenerator(),
		maxRecords: repository.MaxRecords,
		now:        time.Now,
	}
}

// Catalog retorna o catálogo em uso
func (s *AssessmentService) Catalog() *catalog.Catalog {
	return s.cat
}

// Validate confere o formulário na borda e normaliza o período
func (s *AssessmentService) Validate(req *model.AssessmentRequest) error {
	if len(req.Tasks) == 0 {
		return model.ErrNoTasks
	}

	for _, t := range req.Tasks {
		if t.Hours < 0 || math.IsNaN(t.Hours) || math.IsInf(t.Hours, 0) {
			return fmt.Errorf("%w: horas inválidas para %q", model.ErrInvalidInput, t.Name)
		}
		if t.Hours > scoring.MaxHours {
			return fmt.Errorf("%w: %q acima de %d horas", model.ErrInvalidInput, t.Name, scoring.MaxHours)
		}
	}

	if math.IsNaN(req.PeriodTotal) || math.IsInf(req.PeriodTotal, 0) || req.PeriodTotal > scoring.MaxHours {
		return fmt.Errorf("%w: período inválido", model.ErrInvalidInput)
	}
	if req.PeriodTotal < 0 {
		req.PeriodTotal = 0
	}

	if req.Sync != nil {
		if err := req.Sync.Validate(); err != nil {
			return err
		}
	}

	return nil
}

// Score executa apenas o motor, sem LLM e sem persistir
func (s *AssessmentService) Score(ctx context.Context, req model.AssessmentRequest) (*scoring.Report, error) {
	if err := s.Validate(&req); err != nil {
		return nil, err
	}

	report, err := s.evaluate(ctx, req)
	logger.AuditAssessment(ctx, logger.AuditActionAssessmentScore, "", err, map[string]interface{}{
		"tasks": len(req.Tasks),
	})
	return report, err
}

func (s *AssessmentService) evaluate(ctx context.Context, req model.AssessmentRequest) (*scoring.Report, error) {
	report, err := scoring.Evaluate(s.cat, scoring.Input{
		Tasks:       req.Tasks,
		OtherTasks:  req.OtherTasks,
		PeriodTotal: req.PeriodTotal,
	})
	if err != nil {
		if errors.Is(err, scoring.ErrUnknownTask) {
			metrics.Get().IncrementRejected()
		}
		return nil, err
	}

	metrics.Get().IncrementScored()
	logger.Get(ctx).Debug().
		Int("composite", report.Composite).
		Float64("tracked_hours", report.TrackedHours).
		Float64("idle_hours", report.IdleHours).
		Msg("Relatório do motor calculado")

	return report, nil
}

// Create pontua, analisa com o LLM e guarda a avaliação. Com req.Async a
// análise roda em segundo plano e o andamento vai pelo websocket.
func (s *AssessmentService) Create(ctx context.Context, req model.AssessmentRequest) (*model.Assessment, error) {
	if err := s.Validate(&req); err != nil {
		return nil, err
	}
	if s.analyzer == nil {
		return nil, model.ErrMissingAPIKey
	}

	report, err := s.evaluate(ctx, req)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	a := &model.Assessment{
		ID:        uuid.New().String(),
		Status:    model.StatusAnalyzing,
		CreatedAt: now,
		UpdatedAt: now,
		Input: model.AssessmentInput{
			Tasks:          req.Tasks,
			OtherTasks:     req.OtherTasks,
			PeriodTotal:    req.PeriodTotal,
			Interests:      req.Interests,
			OtherInterests: req.OtherInterests,
		},
		Report: report,
	}
	if req.Sync != nil {
		a.SyncStatus = model.SyncPending
	}

	ctx = logger.WithAssessmentID(ctx, a.ID)
	if err := s.store.Create(ctx, a); err != nil {
		return nil, fmt.Errorf("salvar avaliação: %w", err)
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.cleanupIfNeeded(logger.Detach(ctx))
	}()

	if req.Async {
		out := a.Clone()
		bg := logger.Detach(ctx)
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			bg, cancel := context.WithTimeout(bg, AnalysisTimeout)
			defer cancel()
			if err := s.analyze(bg, a); err == nil && req.Sync != nil {
				s.runSync(bg, *req.Sync, a)
			}
		}()

		logger.Get(ctx).Info().Msg("Avaliação criada, análise em segundo plano")
		return out, nil
	}

	if err := s.analyze(ctx, a); err != nil {
		return a, err
	}

	if req.Sync != nil {
		bg := logger.Detach(ctx)
		cfg := *req.Sync
		snapshot := a.Clone()
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.runSync(bg, cfg, snapshot)
		}()
	}

	return a, nil
}

// analyze chama o LLM, completa a avaliação e grava o resultado
func (s *AssessmentService) analyze(ctx context.Context, a *model.Assessment) error {
	log := logger.Get(ctx)
	s.notify(a.ID, websocket.StageAnalyzing, "分析中", nil)

	start := time.Now()
	analysis, err := s.analyzer.Analyze(ctx, client.AnalysisRequest{
		Tasks:          a.Input.Tasks,
		OtherTasks:     a.Input.OtherTasks,
		Interests:      a.Input.Interests,
		OtherInterests: a.Input.OtherInterests,
	})
	metrics.Get().IncrementAnalysis(err == nil, time.Since(start).Milliseconds())

	a.UpdatedAt = s.now().UTC()
	if err != nil {
		log.Error().Err(err).Msg("Análise do LLM falhou")
		a.Status = model.StatusFailed
		a.Error = err.Error()
		if a.SyncStatus == model.SyncPending {
			a.SyncStatus = ""
		}
	} else {
		a.Status = model.StatusCompleted
		a.Analysis = analysis
		a.Radar = scoring.RadarData(s.cat, analysis.Scores.Map())
		a.Assistance = AssistanceLines(analysis.AIAssistance)
	}

	logger.AuditAssessment(ctx, logger.AuditActionAnalysis, a.ID, err, map[string]interface{}{
		"duration_ms": time.Since(start).Milliseconds(),
	})
	metrics.Get().IncrementAssessment(err == nil)

	if uerr := s.store.Update(ctx, a); uerr != nil {
		log.Error().Err(uerr).Msg("Erro ao gravar resultado da análise")
		if err == nil {
			err = fmt.Errorf("salvar análise: %w", uerr)
		}
	}

	logger.AuditAssessment(ctx, logger.AuditActionAssessmentCreate, a.ID, err, map[string]interface{}{
		"composite": a.Report.Composite,
		"status":    a.Status,
	})

	if err != nil {
		s.notify(a.ID, websocket.StageFailed, err.Error(), nil)
		return err
	}

	s.notify(a.ID, websocket.StageCompleted, "分析完成", a.Clone())
	return nil
}

// runSync sincroniza em segundo plano; falhas só mudam o sync_status
func (s *AssessmentService) runSync(ctx context.Context, cfg model.SyncConfig, a *model.Assessment) {
	if err := s.syncAndRecord(ctx, cfg, a); err != nil {
		logger.Get(ctx).Warn().Err(err).Msg("Sincronização em segundo plano falhou")
	}
}

// SyncNow sincroniza uma avaliação guardada e espera o resultado
func (s *AssessmentService) SyncNow(ctx context.Context, id string, cfg model.SyncConfig) (*model.Assessment, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	a, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if a.Status == model.StatusAnalyzing {
		return nil, fmt.Errorf("%w: avaliação ainda em análise", model.ErrInvalidInput)
	}

	ctx = logger.WithAssessmentID(ctx, id)
	err = s.syncAndRecord(ctx, cfg, a)
	return a, err
}

func (s *AssessmentService) syncAndRecord(ctx context.Context, cfg model.SyncConfig, a *model.Assessment) error {
	if s.syncer == nil {
		return fmt.Errorf("%w: sincronização não configurada", model.ErrSyncFailed)
	}

	s.notify(a.ID, websocket.StageSyncStarted, cfg.Mode, nil)

	err := s.syncer.Sync(ctx, cfg, a)
	metrics.Get().IncrementSync(err == nil)
	logger.AuditAssessment(ctx, logger.AuditActionAssessmentSync, a.ID, err, map[string]interface{}{
		"mode": cfg.Mode,
	})

	a.SyncStatus = model.SyncDone
	if err != nil {
		a.SyncStatus = model.SyncFailed
	}
	a.UpdatedAt = s.now().UTC()

	if uerr := s.store.Update(ctx, a); uerr != nil {
		logger.Get(ctx).Error().Err(uerr).Msg("Erro ao gravar status da sincronização")
	}

	if err != nil {
		s.notify(a.ID, websocket.StageSyncFailed, err.Error(), nil)
		return err
	}

	s.notify(a.ID, websocket.StageSynced, cfg.Mode, nil)
	return nil
}

// Get retorna uma avaliação guardada
func (s *AssessmentService) Get(ctx context.Context, id string) (*model.Assessment, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("%w: id inválido", model.ErrInvalidInput)
	}
	return s.store.Get(ctx, id)
}

// List retorna as avaliações mais recentes
func (s *AssessmentService) List(ctx context.Context) ([]model.AssessmentSummary, error) {
	return s.store.List(ctx, repository.HistoryLimit)
}

// Summary retorna o resumo em Markdown
func (s *AssessmentService) Summary(ctx context.Context, id string) (string, error) {
	a, err := s.Get(ctx, id)
	if err != nil {
		return "", err
	}
	return BuildSummary(a), nil
}

// Export gera o XLSX de uma avaliação e devolve o nome do arquivo
func (s *AssessmentService) Export(ctx context.Context, id string) (*bytes.Buffer, string, error) {
	a, err := s.Get(ctx, id)
	if err != nil {
		return nil, "", err
	}

	buf, err := s.excel.Generate(a)
	metrics.Get().IncrementExport(err == nil)
	logger.AuditAssessment(ctx, logger.AuditActionAssessmentExport, id, err, nil)
	if err != nil {
		return nil, "", fmt.Errorf("gerar excel: %w", err)
	}

	return buf, s.excel.FileName(a), nil
}

// Wait espera as tarefas em segundo plano terminarem
func (s *AssessmentService) Wait() {
	s.wg.Wait()
}

func (s *AssessmentService) notify(id, stage, message string, data interface{}) {
	if s.notifier == nil {
		return
	}
	s.notifier.SendStatus(id, websocket.StatusUpdate{Stage: stage, Message: message, Data: data})
}

// cleanupIfNeeded mantém no máximo maxRecords avaliações
func (s *AssessmentService) cleanupIfNeeded(ctx context.Context) {
	log := logger.Get(ctx)

	count, err := s.store.Count(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("Erro ao contar avaliações")
		return
	}
	if count <= s.maxRecords {
		return
	}

	removed, err := s.store.Cleanup(ctx, s.maxRecords)
	if err != nil {
		log.Error().Err(err).Msg("Erro ao limpar avaliações antigas")
		return
	}
	log.Info().Int64("removed", removed).Int("max", s.maxRecords).Msg("Avaliações antigas removidas")
}
