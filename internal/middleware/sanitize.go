package middleware

import (
	"html"
	"net/url"
	"regexp"
	"strings"
	"unicode"

	"github.com/cleberrangel/caregiver-fit-api/internal/model"
)

// Limites de tamanho dos campos do formulário, em caracteres
const (
	MaxFreeTextLength = 2000
	MaxNameLength     = 255
	MaxListLength     = 100
)

// SanitizeConfig configura a sanitização de strings
type SanitizeConfig struct {
	MaxStringLength int // em runas
	AllowHTML       bool
	KeepNewlines    bool
}

// DefaultSanitizeConfig retorna a configuração padrão
func DefaultSanitizeConfig() SanitizeConfig {
	return SanitizeConfig{
		MaxStringLength: 10000,
		AllowHTML:       false,
	}
}

// SanitizeString remove bytes nulos e caracteres de controle, apara espaços,
// escapa HTML se não permitido e trunca pelo número de runas
func SanitizeString(input string, config SanitizeConfig) string {
	input = strings.ReplaceAll(input, "\x00", "")
	input = removeControlChars(input, config.KeepNewlines)
	input = strings.TrimSpace(input)

	if !config.AllowHTML {
		input = html.EscapeString(input)
	}

	if config.MaxStringLength > 0 {
		if r := []rune(input); len(r) > config.MaxStringLength {
			input = strings.TrimSpace(string(r[:config.MaxStringLength]))
		}
	}

	return input
}

// SanitizeFreeText limpa os campos de texto livre. Quebras de linha e
// pontuação são mantidas porque o extrator de horas depende delas.
func SanitizeFreeText(input string) string {
	return SanitizeString(input, SanitizeConfig{
		MaxStringLength: MaxFreeTextLength,
		AllowHTML:       true,
		KeepNewlines:    true,
	})
}

// SanitizeName limpa nomes de tarefas e áreas de interesse
func SanitizeName(name string) string {
	return SanitizeString(name, SanitizeConfig{
		MaxStringLength: MaxNameLength,
		AllowHTML:       true,
	})
}

// SanitizeAssessmentRequest aplica a limpeza a todos os campos do formulário.
// Nomes vazios depois da limpeza são descartados e listas são limitadas.
func SanitizeAssessmentRequest(req *model.AssessmentRequest) {
	req.OtherTasks = SanitizeFreeText(req.OtherTasks)
	req.OtherInterests = SanitizeFreeText(req.OtherInterests)

	tasks := req.Tasks[:0]
	for _, t := range req.Tasks {
		t.Name = SanitizeName(t.Name)
		if t.Name == "" {
			continue
		}
		tasks = append(tasks, t)
		if len(tasks) == MaxListLength {
			break
		}
	}
	req.Tasks = tasks

	interests := req.Interests[:0]
	for _, i := range req.Interests {
		if i = SanitizeName(i); i != "" {
			interests = append(interests, i)
		}
		if len(interests) == MaxListLength {
			break
		}
	}
	req.Interests = interests

	if req.Sync != nil {
		SanitizeSyncConfig(req.Sync)
	}
}

// SanitizeSyncConfig limpa os dados de destino da sincronização
func SanitizeSyncConfig(cfg *model.SyncConfig) {
	cfg.WebhookURL = strings.TrimSpace(cfg.WebhookURL)
	cfg.APIKey = SanitizeToken(cfg.APIKey)
	cfg.DatabaseID = SanitizeID(cfg.DatabaseID)
	cfg.Mode = strings.ToLower(strings.TrimSpace(cfg.Mode))
}

// ValidateWebhookURL aceita apenas URLs http(s) absolutas
func ValidateWebhookURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// SanitizeToken limpa tokens de integração
func SanitizeToken(token string) string {
	token = strings.ReplaceAll(token, "\x00", "")
	token = removeControlChars(token, false)
	return strings.TrimSpace(token)
}

var (
	invalidIDChars = regexp.MustCompile(`[^a-zA-Z0-9_-]`)
	validID        = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
)

// SanitizeID remove tudo que não for alfanumérico, hífen ou sublinhado
func SanitizeID(id string) string {
	id = strings.TrimSpace(strings.ReplaceAll(id, "\x00", ""))
	return invalidIDChars.ReplaceAllString(id, "")
}

// ValidateID confere o formato de um ID
func ValidateID(id string) bool {
	return id != "" && validID.MatchString(id)
}

func removeControlChars(s string, keepNewlines bool) string {
	var result strings.Builder
	for _, r := range s {
		if r == '\n' && keepNewlines {
			result.WriteRune(r)
			continue
		}
		if r == '\t' || r == '\r' || r == '\n' {
			result.WriteRune(' ')
			continue
		}
		if !unicode.IsControl(r) {
			result.WriteRune(r)
		}
	}
	return result.String()
}
