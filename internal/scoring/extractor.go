package scoring

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// hourPattern reconhece "rótulo [separador] número [espaço] unidade".
// O rótulo não atravessa delimitadores de lista; a unidade aceita variantes
// de "hora" em chinês e em inglês. As unidades em inglês exigem fronteira de
// palavra ("2 hospital" não conta); \b é ASCII, então "2h陪伴" ainda casa.
var hourPattern = regexp.MustCompile(
	`([^,，;；、。\n\r]*?)[\s:：,，]*(\d+(?:\.\d+)?)\s*(小時|小时|時|时|(?i:(?:hours?|hrs?|h)\b))`,
)

// Extraction é o resultado da extração de horas do texto livre
type Extraction struct {
	Entries []FreeTextEntry `json:"entries"`
	Total   float64         `json:"total"`
}

// Extractor extrai pares (rótulo, horas) de texto livre
type Extractor struct {
	fallbackLabel string
}

// NewExtractor cria um extrator; fallbackLabel nomeia entradas sem rótulo
func NewExtractor(fallbackLabel string) *Extractor {
	if fallbackLabel == "" {
		fallbackLabel = "其他任務"
	}
	return &Extractor{fallbackLabel: fallbackLabel}
}

// Extract varre o texto e retorna as entradas na ordem em que aparecem.
// Nunca falha: texto sem padrão reconhecível retorna lista vazia e total 0.
// Rótulos repetidos geram entradas separadas, somadas individualmente.
// Número precedido diretamente de '-' é ignorado, nunca vira horas positivas.
func (e *Extractor) Extract(text string) Extraction {
	result := Extraction{Entries: []FreeTextEntry{}}
	if strings.TrimSpace(text) == "" {
		return result
	}

	lastLabel := ""
	for _, loc := range hourPattern.FindAllStringSubmatchIndex(text, -1) {
		// Sinal de menos colado ao número ("-2h", "2-3h") não é uma quantidade válida
		if negated(text[:loc[4]]) {
			continue
		}

		hours, err := strconv.ParseFloat(text[loc[4]:loc[5]], 64)
		if err != nil {
			continue
		}

		// Número sem rótulo próprio herda o rótulo anterior ("陪伴 1h, 2h")
		label := cleanLabel(text[loc[2]:loc[3]])
		if label == "" {
			label = lastLabel
		}
		if label == "" {
			label = e.fallbackLabel
		}
		lastLabel = label

		result.Entries = append(result.Entries, FreeTextEntry{Name: label, Hours: hours})
		result.Total += hours
	}

	return result
}

// ExtractHours é um atalho com o rótulo padrão
func ExtractHours(text string) Extraction {
	return NewExtractor("").Extract(text)
}

// negated indica se o texto antes do número termina em sinal de menos
func negated(before string) bool {
	r, _ := utf8.DecodeLastRuneInString(before)
	return r == '-' || r == '−' || r == '－'
}

// cleanLabel remove espaços e pontuação delimitadora das pontas do rótulo
func cleanLabel(s string) string {
	return strings.TrimFunc(s, func(r rune) bool {
		return unicode.IsSpace(r) || unicode.IsPunct(r)
	})
}
