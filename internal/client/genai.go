package client

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// GenAIGenerator chama a API do Gemini pelo SDK oficial com resposta em JSON
type GenAIGenerator struct {
	client *genai.Client
	config *genai.GenerateContentConfig
}

// NewGenAIGenerator cria o generator com o schema da análise
func NewGenAIGenerator(ctx context.Context, apiKey string) (*GenAIGenerator, error) {
	c, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("criar cliente genai: %w", err)
	}

	return &GenAIGenerator{
		client: c,
		config: &genai.GenerateContentConfig{
			ResponseMIMEType: "application/json",
			ResponseSchema:   AnalysisSchema(),
		},
	}, nil
}

// Generate executa a geração e devolve o texto da resposta
func (g *GenAIGenerator) Generate(ctx context.Context, modelName, prompt string) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, modelName, genai.Text(prompt), g.config)
	if err != nil {
		return "", err
	}
	return resp.Text(), nil
}

var scoreKeys = []string{"emotional", "medical", "admin", "living", "activity"}

// AnalysisSchema descreve o JSON esperado do modelo
func AnalysisSchema() *genai.Schema {
	scoreProps := make(map[string]*genai.Schema, len(scoreKeys))
	for _, k := range scoreKeys {
		scoreProps[k] = &genai.Schema{Type: genai.TypeNumber}
	}

	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"scores": {
				Type:             genai.TypeObject,
				Properties:       scoreProps,
				Required:         scoreKeys,
				PropertyOrdering: scoreKeys,
			},
			"suitabilityAdvice": {Type: genai.TypeString},
			"aiAssistance":      {Type: genai.TypeString},
			"tags": {
				Type:  genai.TypeArray,
				Items: &genai.Schema{Type: genai.TypeString},
			},
		},
		Required:         []string{"scores", "suitabilityAdvice", "aiAssistance"},
		PropertyOrdering: []string{"scores", "suitabilityAdvice", "aiAssistance", "tags"},
	}
}
