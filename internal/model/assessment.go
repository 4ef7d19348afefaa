package model

import (
	"encoding/json"
	"time"

	"github.com/cleberrangel/caregiver-fit-api/internal/scoring"
)

// Status de uma avaliação
const (
	StatusAnalyzing = "analyzing"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Status da sincronização externa
const (
	SyncPending = "pending"
	SyncDone    = "synced"
	SyncFailed  = "failed"
)

// Scores são as cinco notas (0-100) devolvidas pelo modelo
type Scores struct {
	Emotional float64 `json:"emotional"`
	Medical   float64 `json:"medical"`
	Admin     float64 `json:"admin"`
	Living    float64 `json:"living"`
	Activity  float64 `json:"activity"`
}

// Map converte as notas para o formato usado pelo radar
func (s Scores) Map() map[string]float64 {
	return map[string]float64{
		"emotional": s.Emotional,
		"medical":   s.Medical,
		"admin":     s.Admin,
		"living":    s.Living,
		"activity":  s.Activity,
	}
}

// Analysis é a resposta estruturada do Gemini
type Analysis struct {
	Scores            Scores   `json:"scores"`
	SuitabilityAdvice string   `json:"suitabilityAdvice"`
	AIAssistance      string   `json:"aiAssistance"`
	Tags              []string `json:"tags,omitempty"`
	Model             string   `json:"model,omitempty"`
}

// AssessmentInput é o formulário persistido (sem credenciais de sincronização)
type AssessmentInput struct {
	Tasks          []scoring.SelectedTask `json:"tasks"`
	OtherTasks     string                 `json:"other_tasks"`
	PeriodTotal    float64                `json:"period_total"`
	Interests      []string               `json:"interests"`
	OtherInterests string                 `json:"other_interests"`
}

// Assessment é uma avaliação completa: entrada, relatório do motor e análise
type Assessment struct {
	ID         string               `json:"id"`
	Status     string               `json:"status"`
	CreatedAt  time.Time            `json:"created_at"`
	UpdatedAt  time.Time            `json:"updated_at"`
	Input      AssessmentInput      `json:"input"`
	Report     *scoring.Report      `json:"report"`
	Analysis   *Analysis            `json:"analysis,omitempty"`
	Radar      []scoring.RadarPoint `json:"radar,omitempty"`
	Assistance []AssistanceLine     `json:"assistance,omitempty"`
	SyncStatus string               `json:"sync_status,omitempty"`
	Error      string               `json:"error,omitempty"`
}

// Clone devolve uma cópia profunda, segura para uso em outra goroutine
func (a *Assessment) Clone() *Assessment {
	data, err := json.Marshal(a)
	if err != nil {
		cp := *a
		return &cp
	}
	var out Assessment
	if err := json.Unmarshal(data, &out); err != nil {
		cp := *a
		return &cp
	}
	return &out
}

// AssistanceLine é uma linha da sugestão de uso de IA, já classificada
type AssistanceLine struct {
	Text     string `json:"text"`
	ListItem bool   `json:"list_item"`
}

// AssessmentSummary é a linha resumida do histórico
type AssessmentSummary struct {
	ID           string    `json:"id"`
	Status       string    `json:"status"`
	Composite    int       `json:"composite_score"`
	X            float64   `json:"x"`
	Y            float64   `json:"y"`
	TrackedHours float64   `json:"tracked_hours"`
	PeriodTotal  float64   `json:"period_total"`
	CreatedAt    time.Time `json:"created_at"`
}

// Summary gera a linha de histórico da avaliação
func (a *Assessment) Summary() AssessmentSummary {
	s := AssessmentSummary{
		ID:          a.ID,
		Status:      a.Status,
		CreatedAt:   a.CreatedAt,
		PeriodTotal: a.Input.PeriodTotal,
	}
	if a.Report != nil {
		s.Composite = a.Report.Composite
		s.X = a.Report.Placement.X
		s.Y = a.Report.Placement.Y
		s.TrackedHours = a.Report.TrackedHours
	}
	return s
}

// WebhookPayload é o corpo enviado no modo webhook
type WebhookPayload struct {
	Success      bool        `json:"success"`
	Error        string      `json:"error,omitempty"`
	AssessmentID string      `json:"assessment_id,omitempty"`
	Summary      string      `json:"summary,omitempty"`
	Assessment   *Assessment `json:"assessment,omitempty"`
	FileName     string      `json:"file_name,omitempty"`
	FileMime     string      `json:"file_mime,omitempty"`
	FileBase64   string      `json:"file_base64,omitempty"`
}
