package scoring

import "github.com/cleberrangel/caregiver-fit-api/internal/catalog"

// RadarFullMark é o valor máximo de cada eixo do radar
const RadarFullMark = 100

// Input é o estado do formulário já validado na borda
type Input struct {
	Tasks       []SelectedTask
	OtherTasks  string
	PeriodTotal float64
}

// Report reúne todos os registros prontos para gráficos e tabelas
type Report struct {
	Buckets      []Bucket        `json:"buckets"`
	Composite    int             `json:"composite_score"`
	Placement    Coordinate      `json:"placement"`
	Pie          []PieSlice      `json:"pie"`
	FreeText     []FreeTextEntry `json:"free_text"`
	PeriodTotal  float64         `json:"period_total"`
	TrackedHours float64         `json:"tracked_hours"`
	IdleHours    float64         `json:"idle_hours"`
	Excluded     []SelectedTask  `json:"excluded,omitempty"`
}

// Evaluate executa extrator → classificador → mapeador
func Evaluate(cat *catalog.Catalog, in Input) (*Report, error) {
	extraction := NewExtractor(cat.FreeTextLabel).Extract(in.OtherTasks)

	cls, err := Classify(cat, in.Tasks, extraction.Entries, in.PeriodTotal)
	if err != nil {
		return nil, err
	}

	return &Report{
		Buckets:      cls.Buckets,
		Composite:    cls.Composite,
		Placement:    PlaceClassification(cls),
		Pie:          pieSlices(cat, in.Tasks, extraction.Entries, cls),
		FreeText:     extraction.Entries,
		PeriodTotal:  cls.PeriodTotal,
		TrackedHours: cls.TrackedHours,
		IdleHours:    cls.IdleHours,
		Excluded:     cls.Excluded,
	}, nil
}

// pieSlices monta a lista {nome, horas}: tarefas selecionadas, texto livre e,
// quando houver, um registro sintético de tempo ocioso
func pieSlices(cat *catalog.Catalog, tasks []SelectedTask, free []FreeTextEntry, cls *Classification) []PieSlice {
	excluded := make(map[string]bool, len(cls.Excluded))
	for _, t := range cls.Excluded {
		excluded[t.Name] = true
	}

	slices := make([]PieSlice, 0, len(tasks)+len(free)+1)
	for _, t := range tasks {
		if excluded[t.Name] {
			continue
		}
		if h := nonNegative(t.Hours); h > 0 {
			slices = append(slices, PieSlice{Name: t.Name, Value: h})
		}
	}
	for _, e := range free {
		if h := nonNegative(e.Hours); h > 0 {
			slices = append(slices, PieSlice{Name: e.Name, Value: h})
		}
	}
	if cls.IdleHours > 0 {
		slices = append(slices, PieSlice{Name: cat.IdleLabel, Value: cls.IdleHours})
	}

	return slices
}

// RadarData converte as cinco notas do LLM em eixos do radar, na ordem do catálogo.
// As notas não são validadas; categoria ausente vale 0.
func RadarData(cat *catalog.Catalog, scores map[string]float64) []RadarPoint {
	points := make([]RadarPoint, 0, len(cat.Radar))
	for _, rc := range cat.Radar {
		points = append(points, RadarPoint{
			Key:      rc.Key,
			Subject:  rc.Label,
			Value:    scores[rc.Key],
			FullMark: RadarFullMark,
		})
	}
	return points
}
