package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/cleberrangel/caregiver-fit-api/internal/logger"
	"github.com/cleberrangel/caregiver-fit-api/internal/model"
)

const (
	// NotionPagesURL cria páginas dentro de um database
	NotionPagesURL = "https://api.notion.com/v1/pages"
	// NotionVersion é a versão da API enviada no header Notion-Version
	NotionVersion = "2022-06-28"

	// Limites da API: texto por bloco e blocos por requisição
	notionMaxText   = 2000
	notionMaxBlocks = 100
)

type notionText struct {
	Type string `json:"type"`
	Text struct {
		Content string `json:"content"`
	} `json:"text"`
}

type notionBlock struct {
	Object    string `json:"object"`
	Type      string `json:"type"`
	Paragraph struct {
		RichText []notionText `json:"rich_text"`
	} `json:"paragraph"`
}

type notionPage struct {
	Parent struct {
		DatabaseID string `json:"database_id"`
	} `json:"parent"`
	Properties map[string]interface{} `json:"properties"`
	Children   []notionBlock          `json:"children"`
}

func richText(s string) []notionText {
	t := notionText{Type: "text"}
	t.Text.Content = s
	return []notionText{t}
}

// buildNotionPage monta a página: título, nota composta, status e o resumo em parágrafos
func buildNotionPage(databaseID string, a *model.Assessment) notionPage {
	var p notionPage
	p.Parent.DatabaseID = databaseID

	title := "照顧管家適性評估 " + a.CreatedAt.Format("2006-01-02 15:04")
	p.Properties = map[string]interface{}{
		"Name":   map[string]interface{}{"title": richText(title)},
		"Status": map[string]interface{}{"rich_text": richText(a.Status)},
	}
	if a.Report != nil {
		p.Properties["Composite"] = map[string]interface{}{"number": a.Report.Composite}
	}

	for _, chunk := range notionChunks(BuildSummary(a)) {
		if len(p.Children) == notionMaxBlocks {
			break
		}
		b := notionBlock{Object: "block", Type: "paragraph"}
		b.Paragraph.RichText = richText(chunk)
		p.Children = append(p.Children, b)
	}
	return p
}

// notionChunks quebra o texto em linhas não vazias de até notionMaxText caracteres
func notionChunks(text string) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		for line != "" {
			if utf8.RuneCountInString(line) <= notionMaxText {
				out = append(out, line)
				break
			}
			r := []rune(line)
			out = append(out, string(r[:notionMaxText]))
			line = string(r[notionMaxText:])
		}
	}
	return out
}

func (s *SyncService) sendNotion(ctx context.Context, cfg model.SyncConfig, a *model.Assessment) error {
	body, err := json.Marshal(buildNotionPage(cfg.DatabaseID, a))
	if err != nil {
		return fmt.Errorf("marshal página: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.notionURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("criar request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+cfg.APIKey)
	req.Header.Set("Notion-Version", NotionVersion)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("enviar para notion: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("notion retornou status %d: %s", resp.StatusCode, string(respBody))
	}

	logger.Get(ctx).Info().
		Str("database_id", cfg.DatabaseID).
		Int("status", resp.StatusCode).
		Msg("Página criada no Notion")

	return nil
}
