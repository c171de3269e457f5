package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"newsposter/internal/config"
	"newsposter/internal/domain"
	"newsposter/internal/ports"
)

const contentPrefixCap = 1000

const systemPromptTemplate = `You are a professional news summarizer and creative content generator.

Your task is to create:
1. A compelling social post summarizing the article (max %d characters including emojis)
2. An English image generation prompt

Guidelines for the post:
- Keep it concise and engaging
- Include 1-2 relevant emojis
- Do NOT include the URL in the post text (it will be added separately)
- Count characters carefully

Guidelines for the image prompt:
- Describe a creative, eye-catching visual concept related to the article
- Be specific and vivid, focus on visual elements, colors, composition
- Keep it in English`

// Generator implements ports.ContentGenerator against OpenAI-compatible chat
// completion APIs using a strict JSON schema response format.
type Generator struct {
	endpoint   string
	model      string
	apiKey     string
	budget     int
	httpClient *http.Client
	logger     *slog.Logger
}

var _ ports.ContentGenerator = (*Generator)(nil)

// NewGenerator builds a client from configuration.
func NewGenerator(cfg config.LLMConfig, log *slog.Logger) *Generator {
	return &Generator{
		endpoint: cfg.Endpoint,
		model:    cfg.Model,
		apiKey:   cfg.APIKey,
		budget:   domain.PostTextBudget,
		httpClient: &http.Client{
			Timeout: 20 * time.Second,
		},
		logger: log,
	}
}

type chatRequest struct {
	Model          string         `json:"model"`
	Messages       []chatMessage  `json:"messages"`
	ResponseFormat responseFormat `json:"response_format"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type       string     `json:"type"`
	JSONSchema jsonSchema `json:"json_schema"`
}

type jsonSchema struct {
	Name   string         `json:"name"`
	Strict bool           `json:"strict"`
	Schema map[string]any `json:"schema"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

type generatedPayload struct {
	PostText    string `json:"postText"`
	ImagePrompt string `json:"imagePrompt"`
}

// Generate requests a structured post body and image concept for the article.
// Any failure returns a nil result; the caller substitutes the deterministic
// fallback instead of aborting the run.
func (g *Generator) Generate(ctx context.Context, article domain.Article) (*domain.GeneratedContent, error) {
	if g.apiKey == "" || g.endpoint == "" || g.model == "" {
		return nil, fmt.Errorf("generator misconfigured")
	}

	body, err := json.Marshal(chatRequest{
		Model: g.model,
		Messages: []chatMessage{
			{Role: "system", Content: fmt.Sprintf(systemPromptTemplate, g.budget)},
			{Role: "user", Content: g.userPrompt(article)},
		},
		ResponseFormat: responseFormat{
			Type: "json_schema",
			JSONSchema: jsonSchema{
				Name:   "content_generation",
				Strict: true,
				Schema: map[string]any{
					"type": "object",
					"properties": map[string]any{
						"postText": map[string]any{
							"type":        "string",
							"description": fmt.Sprintf("Post summary (max %d characters)", g.budget),
						},
						"imagePrompt": map[string]any{
							"type":        "string",
							"description": "Image generation prompt in English",
						},
					},
					"required":             []string{"postText", "imagePrompt"},
					"additionalProperties": false,
				},
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal generation payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+g.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("generation request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("generation error %s: %s", resp.Status, strings.TrimSpace(string(payload)))
	}

	var chat chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chat); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if len(chat.Choices) == 0 || chat.Choices[0].Message.Content == "" {
		return nil, fmt.Errorf("empty generation response")
	}

	var parsed generatedPayload
	if err := json.Unmarshal([]byte(chat.Choices[0].Message.Content), &parsed); err != nil {
		return nil, fmt.Errorf("parse structured content: %w", err)
	}
	if parsed.PostText == "" || parsed.ImagePrompt == "" {
		return nil, fmt.Errorf("structured content missing fields")
	}

	if got := domain.PostLength(parsed.PostText); got > g.budget {
		if g.logger != nil {
			g.logger.Warn("post text over budget, truncating", "length", got, "budget", g.budget)
		}
		parsed.PostText = domain.TruncateRunes(parsed.PostText, g.budget)
	}

	return &domain.GeneratedContent{
		PostText:    parsed.PostText,
		ImagePrompt: parsed.ImagePrompt,
	}, nil
}

func (g *Generator) userPrompt(article domain.Article) string {
	content := article.Content
	if runes := []rune(content); len(runes) > contentPrefixCap {
		content = string(runes[:contentPrefixCap])
	}

	return fmt.Sprintf("Article Title: %s\n\nArticle Content: %s\n\nGenerate the post summary and the image prompt.", article.Title, content)
}
