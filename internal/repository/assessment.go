package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/cleberrangel/caregiver-fit-api/internal/logger"
	"github.com/cleberrangel/caregiver-fit-api/internal/model"
)

// HistoryLimit é o número de avaliações retornadas no histórico
const HistoryLimit = 50

// MaxRecords é o número de avaliações mantidas após a limpeza
const MaxRecords = 1000

// AssessmentStore persiste avaliações
type AssessmentStore interface {
	Create(ctx context.Context, a *model.Assessment) error
	Update(ctx context.Context, a *model.Assessment) error
	Get(ctx context.Context, id string) (*model.Assessment, error)
	List(ctx context.Context, limit int) ([]model.AssessmentSummary, error)
	Count(ctx context.Context) (int, error)
	Cleanup(ctx context.Context, keep int) (int64, error)
}

// AssessmentRepository guarda avaliações no PostgreSQL. O documento completo
// vai em JSONB; as colunas soltas servem ao histórico e aos índices.
type AssessmentRepository struct {
	db *sql.DB
}

// NewAssessmentRepository cria um novo repositório de avaliações
func NewAssessmentRepository(db *sql.DB) *AssessmentRepository {
	return &AssessmentRepository{db: db}
}

// Create insere uma avaliação
func (r *AssessmentRepository) Create(ctx context.Context, a *model.Assessment) error {
	doc, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("serializar avaliação: %w", err)
	}

	s := a.Summary()
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO assessments (id, status, composite_score, placement_x, placement_y,
			tracked_hours, period_total, document, sync_status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, a.ID, a.Status, s.Composite, s.X, s.Y, s.TrackedHours, s.PeriodTotal, doc,
		nullString(a.SyncStatus), a.CreatedAt, a.UpdatedAt)
	if err != nil {
		logger.Get(ctx).Error().Err(err).Str("assessment_id", a.ID).Msg("Erro ao inserir avaliação")
		return fmt.Errorf("inserir avaliação: %w", err)
	}
	return nil
}

// Update regrava o documento e as colunas derivadas
func (r *AssessmentRepository) Update(ctx context.Context, a *model.Assessment) error {
	doc, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("serializar avaliação: %w", err)
	}

	s := a.Summary()
	result, err := r.db.ExecContext(ctx, `
		UPDATE assessments
		SET status = $2, composite_score = $3, placement_x = $4, placement_y = $5,
			tracked_hours = $6, period_total = $7, document = $8, sync_status = $9, updated_at = $10
		WHERE id = $1
	`, a.ID, a.Status, s.Composite, s.X, s.Y, s.TrackedHours, s.PeriodTotal, doc,
		nullString(a.SyncStatus), a.UpdatedAt)
	if err != nil {
		return fmt.Errorf("atualizar avaliação: %w", err)
	}

	if n, _ := result.RowsAffected(); n == 0 {
		return model.ErrNotFound
	}
	return nil
}

// Get busca uma avaliação pelo ID
func (r *AssessmentRepository) Get(ctx context.Context, id string) (*model.Assessment, error) {
	var doc []byte
	err := r.db.QueryRowContext(ctx, "SELECT document FROM assessments WHERE id = $1", id).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("buscar avaliação: %w", err)
	}

	var a model.Assessment
	if err := json.Unmarshal(doc, &a); err != nil {
		return nil, fmt.Errorf("deserializar avaliação: %w", err)
	}
	return &a, nil
}

// List retorna as avaliações mais recentes
func (r *AssessmentRepository) List(ctx context.Context, limit int) ([]model.AssessmentSummary, error) {
	if limit <= 0 || limit > HistoryLimit {
		limit = HistoryLimit
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, status, composite_score, placement_x, placement_y, tracked_hours, period_total, created_at
		FROM assessments
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("listar avaliações: %w", err)
	}
	defer rows.Close()

	list := []model.AssessmentSummary{}
	for rows.Next() {
		var s model.AssessmentSummary
		if err := rows.Scan(&s.ID, &s.Status, &s.Composite, &s.X, &s.Y,
			&s.TrackedHours, &s.PeriodTotal, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("escanear avaliação: %w", err)
		}
		list = append(list, s)
	}
	return list, rows.Err()
}

// Count retorna o total de avaliações
func (r *AssessmentRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM assessments").Scan(&n); err != nil {
		return 0, fmt.Errorf("contar avaliações: %w", err)
	}
	return n, nil
}

// Cleanup remove avaliações antigas mantendo as keep mais recentes
func (r *AssessmentRepository) Cleanup(ctx context.Context, keep int) (int64, error) {
	result, err := r.db.ExecContext(ctx, `
		DELETE FROM assessments
		WHERE id NOT IN (
			SELECT id FROM assessments
			ORDER BY created_at DESC
			LIMIT $1
		)
	`, keep)
	if err != nil {
		return 0, fmt.Errorf("limpar avaliações antigas: %w", err)
	}

	n, _ := result.RowsAffected()
	logger.Get(ctx).Info().Int64("rows_deleted", n).Msg("Avaliações antigas removidas")
	return n, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
