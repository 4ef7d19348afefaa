package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultCatalog []byte

// UnmatchedPolicy define o que fazer com uma tarefa selecionada que não existe no catálogo
type UnmatchedPolicy string

const (
	// PolicyReject rejeita a avaliação na validação de entrada
	PolicyReject UnmatchedPolicy = "reject"
	// PolicyExclude descarta a tarefa (as horas dela acabam no tempo ocioso)
	PolicyExclude UnmatchedPolicy = "exclude"
	// PolicyMisc coloca a tarefa no quadrante de menor peso (Q3)
	PolicyMisc UnmatchedPolicy = "misc"
)

// Valid indica se a política é conhecida
func (p UnmatchedPolicy) Valid() bool {
	switch p {
	case PolicyReject, PolicyExclude, PolicyMisc:
		return true
	}
	return false
}

// ErrInvalidCatalog indica um catálogo inconsistente
var ErrInvalidCatalog = errors.New("catálogo inválido")

// TaskOption é uma entrada do catálogo de tarefas
type TaskOption struct {
	ID     string `yaml:"id" json:"id"`
	Name   string `yaml:"name" json:"name"`
	Weight int    `yaml:"weight" json:"weight"`
}

// Quadrant descreve um dos quatro quadrantes da matriz
type Quadrant struct {
	ID     string `yaml:"id" json:"id"`
	Label  string `yaml:"label" json:"label"`
	Weight int    `yaml:"weight" json:"weight"`
}

// RadarCategory é um eixo do gráfico radar de competências
type RadarCategory struct {
	Key   string `yaml:"key" json:"key"`
	Label string `yaml:"label" json:"label"`
}

// Interest é uma opção de área de interesse
type Interest struct {
	ID    string `yaml:"id" json:"id"`
	Label string `yaml:"label" json:"label"`
}

// Catalog é a configuração estática carregada uma única vez na inicialização.
// Nunca é alterada em tempo de execução.
type Catalog struct {
	UnmatchedPolicy UnmatchedPolicy `yaml:"unmatched_policy" json:"unmatched_policy"`
	IdleLabel       string          `yaml:"idle_label" json:"idle_label"`
	FreeTextLabel   string          `yaml:"free_text_label" json:"free_text_label"`
	DefaultHours    float64         `yaml:"default_hours" json:"default_hours"`
	HourStep        float64         `yaml:"hour_step" json:"hour_step"`
	Quadrants       []Quadrant      `yaml:"quadrants" json:"quadrants"`
	Tasks           []TaskOption    `yaml:"tasks" json:"tasks"`
	Radar           []RadarCategory `yaml:"radar" json:"radar"`
	Interests       []Interest      `yaml:"interests" json:"interests"`

	byName     map[string]TaskOption
	byWeight   map[int]Quadrant
	interestOK map[string]bool
}

// Default retorna o catálogo embutido no binário
func Default() (*Catalog, error) {
	return Parse(defaultCatalog)
}

// Load carrega o catálogo de um arquivo YAML; caminho vazio usa o catálogo embutido
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("ler catálogo %s: %w", path, err)
	}

	return Parse(data)
}

// Parse decodifica e valida um catálogo em YAML
func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("decodificar catálogo: %w", err)
	}

	if err := c.init(); err != nil {
		return nil, err
	}

	return &c, nil
}

// init valida o catálogo e monta os índices de busca
func (c *Catalog) init() error {
	if c.UnmatchedPolicy == "" {
		return fmt.Errorf("%w: unmatched_policy é obrigatória", ErrInvalidCatalog)
	}
	if !c.UnmatchedPolicy.Valid() {
		return fmt.Errorf("%w: unmatched_policy desconhecida %q", ErrInvalidCatalog, c.UnmatchedPolicy)
	}

	// Defaults
	if c.DefaultHours <= 0 {
		c.DefaultHours = 0.5
	}
	if c.HourStep <= 0 {
		c.HourStep = 0.5
	}
	if strings.TrimSpace(c.IdleLabel) == "" {
		c.IdleLabel = "雜務/閒置時間"
	}
	if strings.TrimSpace(c.FreeTextLabel) == "" {
		c.FreeTextLabel = "其他任務"
	}

	if len(c.Quadrants) != 4 {
		return fmt.Errorf("%w: esperados 4 quadrantes, recebidos %d", ErrInvalidCatalog, len(c.Quadrants))
	}

	c.byWeight = make(map[int]Quadrant, 4)
	for _, q := range c.Quadrants {
		if !validWeight(q.Weight) {
			return fmt.Errorf("%w: quadrante %s com peso %d", ErrInvalidCatalog, q.ID, q.Weight)
		}
		if q.ID != quadrantIDByWeight[q.Weight] {
			return fmt.Errorf("%w: quadrante de peso %d deve ser %s, recebido %s",
				ErrInvalidCatalog, q.Weight, quadrantIDByWeight[q.Weight], q.ID)
		}
		if _, dup := c.byWeight[q.Weight]; dup {
			return fmt.Errorf("%w: peso %d repetido nos quadrantes", ErrInvalidCatalog, q.Weight)
		}
		c.byWeight[q.Weight] = q
	}

	c.byName = make(map[string]TaskOption, len(c.Tasks))
	for _, t := range c.Tasks {
		if strings.TrimSpace(t.Name) == "" {
			return fmt.Errorf("%w: tarefa %q sem nome", ErrInvalidCatalog, t.ID)
		}
		if !validWeight(t.Weight) {
			return fmt.Errorf("%w: tarefa %q com peso %d", ErrInvalidCatalog, t.Name, t.Weight)
		}
		if _, dup := c.byName[t.Name]; dup {
			return fmt.Errorf("%w: tarefa %q duplicada", ErrInvalidCatalog, t.Name)
		}
		c.byName[t.Name] = t
	}

	c.interestOK = make(map[string]bool, len(c.Interests))
	for _, i := range c.Interests {
		c.interestOK[i.Label] = true
	}

	return nil
}

// quadrantIDByWeight é a convenção fixa (não sequencial) de nomes dos quadrantes
var quadrantIDByWeight = map[int]string{4: "q1", 3: "q2", 2: "q4", 1: "q3"}

// QuadrantID retorna o identificador do quadrante de um peso (4→q1, 3→q2, 2→q4, 1→q3)
func QuadrantID(weight int) string {
	return quadrantIDByWeight[weight]
}

func validWeight(w int) bool {
	return w >= 1 && w <= 4
}

// Lookup busca uma tarefa pelo nome exato
func (c *Catalog) Lookup(name string) (TaskOption, bool) {
	t, ok := c.byName[name]
	return t, ok
}

// QuadrantFor retorna o quadrante associado a um peso
func (c *Catalog) QuadrantFor(weight int) (Quadrant, bool) {
	q, ok := c.byWeight[weight]
	return q, ok
}

// IsKnownInterest indica se o rótulo pertence às opções de interesse
func (c *Catalog) IsKnownInterest(label string) bool {
	return c.interestOK[label]
}

// WithPolicy retorna uma cópia do catálogo com outra política para tarefas desconhecidas
func (c *Catalog) WithPolicy(p UnmatchedPolicy) (*Catalog, error) {
	if !p.Valid() {
		return nil, fmt.Errorf("%w: unmatched_policy desconhecida %q", ErrInvalidCatalog, p)
	}
	cp := *c
	cp.UnmatchedPolicy = p
	return &cp, nil
}
