package service

import (
	"fmt"
	"time"

	"github.com/cleberrangel/caregiver-fit-api/internal/cache"
	"github.com/cleberrangel/caregiver-fit-api/internal/catalog"
	"github.com/cleberrangel/caregiver-fit-api/internal/metrics"
	"github.com/cleberrangel/caregiver-fit-api/internal/model"
	"github.com/cleberrangel/caregiver-fit-api/internal/scoring"
	"github.com/google/uuid"
)

// DefaultDraftTTL é o tempo que um rascunho sem uso fica guardado
const DefaultDraftTTL = 30 * time.Minute

const draftPrefix = "draft:"

// Draft é a visão de um rascunho de formulário
type Draft struct {
	ID        string                 `json:"id"`
	Tasks     []scoring.SelectedTask `json:"tasks"`
	Interests []string               `json:"interests"`
}

// DraftService guarda seleções de formulário em andamento, com expiração
type DraftService struct {
	cat    *catalog.Catalog
	drafts *cache.Cache[*scoring.Selection]
}

// NewDraftService cria o serviço de rascunhos
func NewDraftService(cat *catalog.Catalog, ttl time.Duration) *DraftService {
	if ttl <= 0 {
		ttl = DefaultDraftTTL
	}

	drafts := cache.New[*scoring.Selection](ttl)
	drafts.OnLookup(metrics.Get().IncrementCache)

	return &DraftService{cat: cat, drafts: drafts}
}

// Stop encerra a limpeza periódica do cache
func (s *DraftService) Stop() {
	s.drafts.Stop()
}

// Create inicia um rascunho vazio
func (s *DraftService) Create() *Draft {
	id := uuid.New().String()
	sel := scoring.NewSelection(s.cat)
	s.drafts.Set(draftPrefix+id, sel)
	return view(id, sel)
}

// Get retorna o rascunho
func (s *DraftService) Get(id string) (*Draft, error) {
	sel, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	return view(id, sel), nil
}

// ToggleTask marca ou desmarca uma tarefa do catálogo
func (s *DraftService) ToggleTask(id, name string) (*Draft, error) {
	sel, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	if _, ok := s.cat.Lookup(name); !ok {
		return nil, fmt.Errorf("%w: %s", scoring.ErrUnknownTask, name)
	}

	sel.Toggle(name)
	return view(id, sel), nil
}

// AdjustHours soma delta às horas de uma tarefa marcada
func (s *DraftService) AdjustHours(id, name string, delta float64) (*Draft, error) {
	sel, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	if _, ok := sel.Adjust(name, delta); !ok {
		return nil, fmt.Errorf("%w: tarefa %s não está marcada", model.ErrNotFound, name)
	}
	return view(id, sel), nil
}

// ToggleInterest marca ou desmarca uma área de interesse do catálogo
func (s *DraftService) ToggleInterest(id, label string) (*Draft, error) {
	sel, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	if !s.cat.IsKnownInterest(label) {
		return nil, fmt.Errorf("%w: interesse desconhecido %s", model.ErrInvalidInput, label)
	}

	sel.ToggleInterest(label)
	return view(id, sel), nil
}

// Delete descarta o rascunho
func (s *DraftService) Delete(id string) {
	s.drafts.Delete(draftPrefix + id)
}

// lookup busca o rascunho e renova a expiração
func (s *DraftService) lookup(id string) (*scoring.Selection, error) {
	sel, ok := s.drafts.Get(draftPrefix + id)
	if !ok {
		return nil, fmt.Errorf("%w: rascunho %s", model.ErrNotFound, id)
	}
	s.drafts.Touch(draftPrefix + id)
	return sel, nil
}

func view(id string, sel *scoring.Selection) *Draft {
	return &Draft{ID: id, Tasks: sel.Tasks(), Interests: sel.Interests()}
}
