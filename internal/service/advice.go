package service

import (
	"regexp"
	"strings"

	"github.com/cleberrangel/caregiver-fit-api/internal/model"
)

var (
	bulletPrefix   = regexp.MustCompile(`^[-*]\s*`)
	numberedPrefix = regexp.MustCompile(`^\d+\.\s*`)
)

// Paragraphs divide a sugestão em parágrafos não vazios
func Paragraphs(text string) []string {
	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		if l = strings.TrimSpace(l); l != "" {
			out = append(out, l)
		}
	}
	return out
}

// AssistanceLines classifica cada linha como item de lista ou título,
// removendo o marcador da lista
func AssistanceLines(text string) []model.AssistanceLine {
	lines := Paragraphs(text)
	out := make([]model.AssistanceLine, 0, len(lines))
	for _, l := range lines {
		switch {
		case bulletPrefix.MatchString(l):
			out = append(out, model.AssistanceLine{Text: bulletPrefix.ReplaceAllString(l, ""), ListItem: true})
		case numberedPrefix.MatchString(l):
			out = append(out, model.AssistanceLine{Text: numberedPrefix.ReplaceAllString(l, ""), ListItem: true})
		default:
			out = append(out, model.AssistanceLine{Text: l})
		}
	}
	return out
}
