// Package scoring contém o motor de contabilização de horas e pontuação por quadrante.
//
// Todas as funções são puras: recebem valores em memória, não fazem I/O e podem
// ser chamadas repetidamente com o mesmo resultado.
package scoring

import "errors"

// PointsMultiplier é a constante fixa de escala dos pontos (horas × 2 × peso).
// Alterar este valor quebra a comparabilidade entre relatórios.
const PointsMultiplier = 2

// ErrUnknownTask indica uma tarefa fora do catálogo com a política "reject"
var ErrUnknownTask = errors.New("tarefa não encontrada no catálogo")

// Origens de uma tarefa dentro de um quadrante
const (
	SourceCatalog   = "catalog"
	SourceFreeText  = "free_text"
	SourceUnmatched = "unmatched"
)

// SelectedTask é uma tarefa do catálogo marcada pelo cuidador, com horas
type SelectedTask struct {
	Name  string  `json:"name"`
	Hours float64 `json:"hours"`
}

// FreeTextEntry é uma tarefa extraída do texto livre "outras tarefas"
type FreeTextEntry struct {
	Name  string  `json:"name"`
	Hours float64 `json:"hours"`
}

// BucketTask é uma tarefa atribuída a um quadrante
type BucketTask struct {
	Name   string  `json:"name"`
	Hours  float64 `json:"hours"`
	Source string  `json:"source"`
}

// Bucket é um dos quatro quadrantes com suas horas e pontos
type Bucket struct {
	ID     string       `json:"id"`
	Label  string       `json:"label"`
	Weight int          `json:"weight"`
	Tasks  []BucketTask `json:"tasks"`
	Hours  float64      `json:"hours"`
	Points int          `json:"points"`
}

// Coordinate é a posição normalizada (x, y em [-100, 100]) na matriz de estilo de trabalho
type Coordinate struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// PieSlice é um registro pronto para gráfico de pizza
type PieSlice struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// RadarPoint é um eixo do gráfico radar de competências
type RadarPoint struct {
	Key      string  `json:"key"`
	Subject  string  `json:"subject"`
	Value    float64 `json:"value"`
	FullMark float64 `json:"full_mark"`
}
