package scoring

import (
	"fmt"
	"math"

	"github.com/cleberrangel/caregiver-fit-api/internal/catalog"
)

// displayOrder é a ordem de exibição dos quadrantes pelo peso: Q1, Q2, Q3, Q4
var displayOrder = []int{4, 3, 1, 2}

const (
	// weightCatchAll recebe o tempo ocioso e as tarefas "misc" (Q3)
	weightCatchAll = 1
	// weightFreeText recebe todas as tarefas de texto livre (Q4)
	weightFreeText = 2
)

// MaxHours é o teto de horas por tarefa e por período (um mês de 31 dias).
// Acima disso a entrada é rejeitada na borda e limitada aqui.
const MaxHours = 24 * 31

// Classification é o resultado da classificação por quadrante
type Classification struct {
	Buckets      []Bucket       `json:"buckets"`
	Composite    int            `json:"composite_score"`
	PeriodTotal  float64        `json:"period_total"`
	TrackedHours float64        `json:"tracked_hours"`
	IdleHours    float64        `json:"idle_hours"`
	Excluded     []SelectedTask `json:"excluded,omitempty"`
}

// Bucket retorna o quadrante pelo ID (q1..q4)
func (c *Classification) Bucket(id string) *Bucket {
	for i := range c.Buckets {
		if c.Buckets[i].ID == id {
			return &c.Buckets[i]
		}
	}
	return nil
}

// Hours retorna o total de horas de um quadrante pelo ID
func (c *Classification) Hours(id string) float64 {
	if b := c.Bucket(id); b != nil {
		return b.Hours
	}
	return 0
}

// Classify distribui tarefas selecionadas e de texto livre pelos quatro quadrantes,
// soma as horas, adiciona o tempo ocioso ao Q3 e calcula os pontos.
//
// O único erro possível é ErrUnknownTask, quando o catálogo usa a política "reject".
func Classify(cat *catalog.Catalog, tasks []SelectedTask, free []FreeTextEntry, periodTotal float64) (*Classification, error) {
	periodTotal = nonNegative(periodTotal)

	byWeight := make(map[int]*Bucket, 4)
	buckets := make([]Bucket, len(displayOrder))
	for i, w := range displayOrder {
		q, _ := cat.QuadrantFor(w)
		buckets[i] = Bucket{
			ID:     catalog.QuadrantID(w),
			Label:  q.Label,
			Weight: w,
			Tasks:  []BucketTask{},
		}
		byWeight[w] = &buckets[i]
	}

	result := &Classification{PeriodTotal: periodTotal}

	for _, t := range tasks {
		hours := nonNegative(t.Hours)

		opt, ok := cat.Lookup(t.Name)
		if !ok {
			switch cat.UnmatchedPolicy {
			case catalog.PolicyExclude:
				result.Excluded = append(result.Excluded, SelectedTask{Name: t.Name, Hours: hours})
				continue
			case catalog.PolicyMisc:
				byWeight[weightCatchAll].add(t.Name, hours, SourceUnmatched)
				result.TrackedHours += hours
				continue
			default:
				return nil, fmt.Errorf("%w: %q", ErrUnknownTask, t.Name)
			}
		}

		byWeight[opt.Weight].add(opt.Name, hours, SourceCatalog)
		result.TrackedHours += hours
	}

	for _, e := range free {
		hours := nonNegative(e.Hours)
		byWeight[weightFreeText].add(e.Name, hours, SourceFreeText)
		result.TrackedHours += hours
	}

	// Tempo não contabilizado vai para Q3, só nas horas (nunca na lista de tarefas)
	result.IdleHours = math.Max(0, periodTotal-result.TrackedHours)
	byWeight[weightCatchAll].Hours += result.IdleHours

	for i := range buckets {
		buckets[i].Points = bucketPoints(buckets[i].Hours, buckets[i].Weight)
		result.Composite += buckets[i].Points
	}
	result.Buckets = buckets

	return result, nil
}

// add anexa uma tarefa ao quadrante
func (b *Bucket) add(name string, hours float64, source string) {
	b.Tasks = append(b.Tasks, BucketTask{Name: name, Hours: hours, Source: source})
	b.Hours += hours
}

// bucketPoints arredonda apenas no total do quadrante, nunca por tarefa
func bucketPoints(hours float64, weight int) int {
	p := math.Round(hours * PointsMultiplier * float64(weight))
	if math.IsNaN(p) || math.IsInf(p, 0) || math.Abs(p) > math.MaxInt32 {
		return 0
	}
	return int(p)
}

// nonNegative trata valores ausentes ou degenerados como zero e limita a MaxHours
func nonNegative(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return math.Min(v, MaxHours)
}
