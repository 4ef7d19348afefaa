package catalog

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultCatalog(t *testing.T) {
	cat, err := Default()
	if err != nil {
		t.Fatalf("Default: %v", err)
	}

	if len(cat.Tasks) != 21 {
		t.Errorf("tarefas = %d, want 21", len(cat.Tasks))
	}
	if cat.UnmatchedPolicy != PolicyReject {
		t.Errorf("política = %s, want reject", cat.UnmatchedPolicy)
	}
	if cat.DefaultHours != 0.5 || cat.HourStep != 0.5 {
		t.Errorf("horas padrão/passo = %v/%v, want 0.5/0.5", cat.DefaultHours, cat.HourStep)
	}

	perWeight := map[int]int{}
	for _, task := range cat.Tasks {
		perWeight[task.Weight]++
	}
	want := map[int]int{4: 8, 3: 5, 2: 3, 1: 5}
	for w, n := range want {
		if perWeight[w] != n {
			t.Errorf("peso %d: %d tarefas, want %d", w, perWeight[w], n)
		}
	}

	opt, ok := cat.Lookup("陪伴就醫")
	if !ok || opt.Weight != 4 {
		t.Errorf("Lookup(陪伴就醫) = %+v/%v", opt, ok)
	}

	if len(cat.Radar) != 5 || cat.Radar[0].Key != "emotional" {
		t.Errorf("radar = %+v", cat.Radar)
	}
	if !cat.IsKnownInterest("高齡體智能與運動") {
		t.Error("interesse padrão não reconhecido")
	}
}

func TestQuadrantIDConvention(t *testing.T) {
	want := map[int]string{4: "q1", 3: "q2", 2: "q4", 1: "q3"}
	for w, id := range want {
		if got := QuadrantID(w); got != id {
			t.Errorf("QuadrantID(%d) = %s, want %s", w, got, id)
		}
	}
}

func TestParseRejectsInvalidCatalogs(t *testing.T) {
	base, err := os.ReadFile("default.yaml")
	if err != nil {
		t.Fatalf("ler default.yaml: %v", err)
	}

	tests := []struct {
		name    string
		mutate  func(string) string
		wantMsg string
	}{
		{
			name:    "sem política",
			mutate:  func(s string) string { return strings.Replace(s, "unmatched_policy: reject", "", 1) },
			wantMsg: "unmatched_policy",
		},
		{
			name:    "política desconhecida",
			mutate:  func(s string) string { return strings.Replace(s, "unmatched_policy: reject", "unmatched_policy: guess", 1) },
			wantMsg: "desconhecida",
		},
		{
			name:    "peso fora da faixa",
			mutate:  func(s string) string { return strings.Replace(s, "name: 交通接送\n    weight: 4", "name: 交通接送\n    weight: 5", 1) },
			wantMsg: "peso 5",
		},
		{
			name:    "tarefa duplicada",
			mutate:  func(s string) string { return strings.Replace(s, "name: 房務打掃", "name: 個案服務紀錄", 1) },
			wantMsg: "duplicada",
		},
		{
			name:    "quadrante fora da convenção",
			mutate:  func(s string) string { return strings.Replace(s, "id: q4\n    label: 第四象限", "id: q3\n    label: 第四象限", 1) },
			wantMsg: "deve ser q4",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.mutate(string(base))))
			if !errors.Is(err, ErrInvalidCatalog) {
				t.Fatalf("err = %v, want ErrInvalidCatalog", err)
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("err = %q, want conter %q", err, tt.wantMsg)
			}
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	content := `
unmatched_policy: misc
quadrants:
  - {id: q1, label: A, weight: 4}
  - {id: q2, label: B, weight: 3}
  - {id: q4, label: D, weight: 2}
  - {id: q3, label: C, weight: 1}
tasks:
  - {id: a, name: Alpha, weight: 4}
  - {id: b, name: Beta, weight: 1}
`
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("escrever arquivo: %v", err)
	}

	cat, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cat.UnmatchedPolicy != PolicyMisc || len(cat.Tasks) != 2 {
		t.Errorf("catálogo carregado = %+v", cat)
	}
	// Defaults aplicados
	if cat.DefaultHours != 0.5 || cat.IdleLabel == "" || cat.FreeTextLabel == "" {
		t.Errorf("defaults não aplicados: %+v", cat)
	}
	if q, ok := cat.QuadrantFor(1); !ok || q.Label != "C" {
		t.Errorf("QuadrantFor(1) = %+v/%v", q, ok)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "nao-existe.yaml")); err == nil {
		t.Error("Load de arquivo inexistente deveria falhar")
	}
}

func TestWithPolicy(t *testing.T) {
	cat, err := Default()
	if err != nil {
		t.Fatalf("Default: %v", err)
	}

	misc, err := cat.WithPolicy(PolicyMisc)
	if err != nil {
		t.Fatalf("WithPolicy: %v", err)
	}
	if misc.UnmatchedPolicy != PolicyMisc || cat.UnmatchedPolicy != PolicyReject {
		t.Error("WithPolicy deveria devolver cópia sem alterar o original")
	}
	if _, ok := misc.Lookup("房務打掃"); !ok {
		t.Error("cópia perdeu o índice de tarefas")
	}

	if _, err := cat.WithPolicy("nope"); !errors.Is(err, ErrInvalidCatalog) {
		t.Errorf("err = %v, want ErrInvalidCatalog", err)
	}
}
