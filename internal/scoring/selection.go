package scoring

import (
	"math"
	"sync"

	"github.com/cleberrangel/caregiver-fit-api/internal/catalog"
)

// Selection é o estado de rascunho do formulário: tarefas marcadas com horas
// e áreas de interesse. Seguro para uso concorrente.
type Selection struct {
	mu           sync.Mutex
	defaultHours float64
	minHours     float64
	tasks        []SelectedTask
	interests    []string
}

// NewSelection cria uma seleção vazia com as horas padrão do catálogo
func NewSelection(cat *catalog.Catalog) *Selection {
	return &Selection{
		defaultHours: cat.DefaultHours,
		minHours:     cat.HourStep,
	}
}

// Toggle marca a tarefa com as horas padrão ou desmarca se já estiver marcada.
// Retorna true se a tarefa ficou marcada.
func (s *Selection) Toggle(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, t := range s.tasks {
		if t.Name == name {
			s.tasks = append(s.tasks[:i], s.tasks[i+1:]...)
			return false
		}
	}

	s.tasks = append(s.tasks, SelectedTask{Name: name, Hours: s.defaultHours})
	return true
}

// Adjust soma delta às horas da tarefa, com piso em minHours e teto em MaxHours.
// Retorna as novas horas e false se a tarefa não estiver marcada.
func (s *Selection) Adjust(name string, delta float64) (float64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.tasks {
		if s.tasks[i].Name == name {
			s.tasks[i].Hours = math.Min(MaxHours, math.Max(s.minHours, s.tasks[i].Hours+delta))
			return s.tasks[i].Hours, true
		}
	}
	return 0, false
}

// Tasks retorna uma cópia das tarefas na ordem de seleção
func (s *Selection) Tasks() []SelectedTask {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]SelectedTask, len(s.tasks))
	copy(out, s.tasks)
	return out
}

// ToggleInterest marca ou desmarca uma área de interesse
func (s *Selection) ToggleInterest(label string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, l := range s.interests {
		if l == label {
			s.interests = append(s.interests[:i], s.interests[i+1:]...)
			return false
		}
	}

	s.interests = append(s.interests, label)
	return true
}

// Interests retorna uma cópia das áreas de interesse marcadas
func (s *Selection) Interests() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]string, len(s.interests))
	copy(out, s.interests)
	return out
}
