package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/cleberrangel/caregiver-fit-api/internal/model"
)

// MemoryStore guarda avaliações em memória quando não há banco configurado.
// Cada leitura devolve uma cópia independente.
type MemoryStore struct {
	mu    sync.RWMutex
	items map[string][]byte
	order []string
}

// NewMemoryStore cria um store vazio
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: make(map[string][]byte)}
}

// Create insere uma avaliação
func (m *MemoryStore) Create(_ context.Context, a *model.Assessment) error {
	doc, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("serializar avaliação: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.items[a.ID]; exists {
		return fmt.Errorf("avaliação %s já existe", a.ID)
	}
	m.items[a.ID] = doc
	m.order = append(m.order, a.ID)
	return nil
}

// Update substitui uma avaliação existente
func (m *MemoryStore) Update(_ context.Context, a *model.Assessment) error {
	doc, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("serializar avaliação: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.items[a.ID]; !exists {
		return model.ErrNotFound
	}
	m.items[a.ID] = doc
	return nil
}

// Get busca uma avaliação pelo ID
func (m *MemoryStore) Get(_ context.Context, id string) (*model.Assessment, error) {
	m.mu.RLock()
	doc, ok := m.items[id]
	m.mu.RUnlock()

	if !ok {
		return nil, model.ErrNotFound
	}

	var a model.Assessment
	if err := json.Unmarshal(doc, &a); err != nil {
		return nil, fmt.Errorf("deserializar avaliação: %w", err)
	}
	return &a, nil
}

// List retorna as avaliações mais recentes primeiro
func (m *MemoryStore) List(ctx context.Context, limit int) ([]model.AssessmentSummary, error) {
	if limit <= 0 || limit > HistoryLimit {
		limit = HistoryLimit
	}

	m.mu.RLock()
	ids := make([]string, len(m.order))
	copy(ids, m.order)
	m.mu.RUnlock()

	list := make([]model.AssessmentSummary, 0, limit)
	for i := len(ids) - 1; i >= 0 && len(list) < limit; i-- {
		a, err := m.Get(ctx, ids[i])
		if err != nil {
			continue
		}
		list = append(list, a.Summary())
	}

	sort.SliceStable(list, func(i, j int) bool {
		return list[i].CreatedAt.After(list[j].CreatedAt)
	})
	return list, nil
}

// Count retorna o total de avaliações
func (m *MemoryStore) Count(_ context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.items), nil
}

// Cleanup mantém apenas as keep avaliações mais recentes (ordem de inserção)
func (m *MemoryStore) Cleanup(_ context.Context, keep int) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if keep < 0 {
		keep = 0
	}
	if len(m.order) <= keep {
		return 0, nil
	}

	drop := m.order[:len(m.order)-keep]
	for _, id := range drop {
		delete(m.items, id)
	}
	m.order = append([]string(nil), m.order[len(m.order)-keep:]...)
	return int64(len(drop)), nil
}
