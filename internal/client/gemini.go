package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cleberrangel/caregiver-fit-api/internal/logger"
	"github.com/cleberrangel/caregiver-fit-api/internal/metrics"
	"github.com/cleberrangel/caregiver-fit-api/internal/model"
	"github.com/cleberrangel/caregiver-fit-api/internal/scoring"
	"golang.org/x/time/rate"
)

const (
	// DefaultTimeout limita cada chamada a um modelo
	DefaultTimeout = 90 * time.Second

	// DefaultRequestsPerMinute limite conservador para a cota gratuita do Gemini
	DefaultRequestsPerMinute = 10
)

// Generator executa uma chamada de geração em um modelo específico e devolve o texto
type Generator interface {
	Generate(ctx context.Context, modelName, prompt string) (string, error)
}

// AnalysisRequest é o material enviado ao modelo
type AnalysisRequest struct {
	Tasks          []scoring.SelectedTask
	OtherTasks     string
	Interests      []string
	OtherInterests string
}

// Gemini consulta a sequência de modelos com fallback e limite de taxa
type Gemini struct {
	gen     Generator
	models  []string
	limiter *rate.Limiter
	timeout time.Duration
}

// NewGemini cria o cliente com um Generator já configurado
func NewGemini(gen Generator, models []string, rpm int) *Gemini {
	if rpm <= 0 {
		rpm = DefaultRequestsPerMinute
	}
	return &Gemini{
		gen:     gen,
		models:  models,
		limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(rpm)), 1),
		timeout: DefaultTimeout,
	}
}

// NewGeminiFromAPIKey cria o cliente usando o SDK genai
func NewGeminiFromAPIKey(ctx context.Context, apiKey string, models []string, rpm int) (*Gemini, error) {
	if strings.TrimSpace(apiKey) == "" || apiKey == "undefined" {
		return nil, model.ErrMissingAPIKey
	}

	gen, err := NewGenAIGenerator(ctx, apiKey)
	if err != nil {
		return nil, err
	}

	return NewGemini(gen, models, rpm), nil
}

// Models retorna a sequência de fallback configurada
func (g *Gemini) Models() []string {
	return append([]string(nil), g.models...)
}

// Analyze tenta cada modelo em ordem. Erros de cota, limite, modelo inexistente
// ou permissão passam para o próximo modelo; chave inválida interrompe na hora.
func (g *Gemini) Analyze(ctx context.Context, req AnalysisRequest) (*model.Analysis, error) {
	log := logger.Get(ctx)
	prompt := BuildPrompt(req)

	var lastErr error
	for i, name := range g.models {
		if err := g.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}

		log.Info().Str("model", name).Int("attempt", i+1).Msg("Chamando modelo Gemini")

		text, err := g.call(ctx, name, prompt)
		if err != nil {
			kind := classifyError(err)
			switch kind {
			case errInvalidKey:
				return nil, fmt.Errorf("%w: %v", model.ErrInvalidAPIKey, err)
			case errRetryable:
				log.Warn().Str("model", name).Err(err).Msg("Modelo indisponível, tentando o próximo")
				metrics.Get().IncrementFallback()
				lastErr = err
				continue
			case errTimeout:
				return nil, fmt.Errorf("%w: modelo %s: %v", model.ErrTimeout, name, err)
			default:
				return nil, fmt.Errorf("modelo %s: %w", name, err)
			}
		}

		analysis, err := ParseAnalysis(text)
		if err != nil {
			return nil, fmt.Errorf("modelo %s: %w", name, err)
		}
		analysis.Model = name

		log.Info().Str("model", name).Msg("Análise recebida")
		return analysis, nil
	}

	if lastErr == nil {
		return nil, fmt.Errorf("%w: nenhum modelo configurado", model.ErrQuotaExhausted)
	}
	return nil, fmt.Errorf("%w: %v", model.ErrQuotaExhausted, lastErr)
}

func (g *Gemini) call(ctx context.Context, name, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	text, err := g.gen.Generate(ctx, name, prompt)
	if err != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return "", fmt.Errorf("%w: %v", context.DeadlineExceeded, err)
	}
	return text, err
}

// ParseAnalysis decodifica o JSON devolvido pelo modelo
func ParseAnalysis(text string) (*model.Analysis, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, model.ErrEmptyResponse
	}

	// Alguns modelos ainda envolvem o JSON em bloco de código
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")

	var a model.Analysis
	if err := json.Unmarshal([]byte(strings.TrimSpace(text)), &a); err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrInvalidResponse, err)
	}
	return &a, nil
}

type errorKind int

const (
	errFatal errorKind = iota
	errRetryable
	errInvalidKey
	errTimeout
)

// classifyError segue as mensagens devolvidas pela API do Gemini
func classifyError(err error) errorKind {
	if errors.Is(err, context.DeadlineExceeded) {
		return errTimeout
	}

	msg := err.Error()
	if strings.Contains(msg, "API key not valid") {
		return errInvalidKey
	}

	lower := strings.ToLower(msg)
	switch {
	case strings.Contains(msg, "429"),
		strings.Contains(lower, "quota"),
		strings.Contains(lower, "limit"),
		strings.Contains(lower, "not found"),
		strings.Contains(lower, "permission denied"):
		return errRetryable
	}
	return errFatal
}

// BuildPrompt monta o prompt com as tarefas, horas e interesses do cuidador
func BuildPrompt(req AnalysisRequest) string {
	tasks := make([]string, 0, len(req.Tasks))
	for _, t := range req.Tasks {
		tasks = append(tasks, fmt.Sprintf("%s (%s小時)", t.Name, formatHours(t.Hours)))
	}

	var b strings.Builder
	b.WriteString("你是一位資深的人力管理主管，正在評估一位「照顧管家」的人才適性。\n")
	b.WriteString("以下是該人才的填寫資訊：\n\n")
	fmt.Fprintf(&b, "1. 執行過的任務與時數：%s\n", strings.Join(tasks, ", "))
	fmt.Fprintf(&b, "2. 其他任務補充：%s\n", orNone(req.OtherTasks))
	fmt.Fprintf(&b, "3. 特別感興趣的領域：%s\n", strings.Join(req.Interests, ", "))
	fmt.Fprintf(&b, "4. 其他興趣補充：%s\n\n", orNone(req.OtherInterests))
	b.WriteString(`任務指令：
1. 基於以上資訊，為五個適性維度評分（0-100分）：
   - 情感支持與社交 (emotional)
   - 醫藥安全監測 (medical)
   - 行政管理效能 (admin)
   - 生活支援實務 (living)
   - 活動策劃引導 (activity)
2. 生成「個人適性建議」(suitabilityAdvice)：
   - 請以「照顧管家」身分為核心。
   - 應側重說明該管家展現出的核心能力價值。
   - 必須包含具體的「自我成長方向」建議。
3. 生成「AI 可以怎麼協助你」(aiAssistance)：
   - 必須以「列表 (List)」方式呈現。
   - 推薦具體的 AI 工具名稱。
4. 可選：以 tags 列出 3 到 5 個能力標籤。

請以 JSON 格式回覆。`)

	return b.String()
}

func orNone(s string) string {
	if strings.TrimSpace(s) == "" {
		return "無"
	}
	return s
}

func formatHours(h float64) string {
	return strings.TrimSuffix(strings.TrimRight(fmt.Sprintf("%.2f", h), "0"), ".")
}
