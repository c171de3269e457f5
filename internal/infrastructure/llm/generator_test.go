package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"unicode/utf8"

	"newsposter/internal/config"
	"newsposter/internal/domain"
)

func newTestGenerator(endpoint string) *Generator {
	return NewGenerator(config.LLMConfig{
		Endpoint: endpoint,
		Model:    "test-model",
		APIKey:   "test-key",
	}, nil)
}

func chatBody(content string) string {
	payload := map[string]any{
		"choices": []map[string]any{
			{"message": map[string]any{"content": content}},
		},
	}
	raw, _ := json.Marshal(payload)
	return string(raw)
}

func TestGenerateSuccess(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.ResponseFormat.Type != "json_schema" {
			t.Errorf("expected json_schema response format, got %s", req.ResponseFormat.Type)
		}
		if !req.ResponseFormat.JSONSchema.Strict {
			t.Error("expected strict schema")
		}
		if len(req.Messages) != 2 || req.Messages[0].Role != "system" || req.Messages[1].Role != "user" {
			t.Errorf("unexpected messages: %+v", req.Messages)
		}

		inner, _ := json.Marshal(generatedPayload{
			PostText:    "Markets rallied today \U0001F4C8",
			ImagePrompt: "a rising stock chart over a city skyline",
		})
		_, _ = w.Write([]byte(chatBody(string(inner))))
	}))
	defer server.Close()

	gen := newTestGenerator(server.URL)

	content, err := gen.Generate(context.Background(), domain.Article{
		Title:   "Markets rally",
		Content: "Stocks rose sharply on upbeat economic data.",
	})
	if err != nil {
		t.Fatalf("Generate error: %v", err)
	}

	if content.PostText != "Markets rallied today \U0001F4C8" {
		t.Fatalf("unexpected post text: %q", content.PostText)
	}
	if content.ImagePrompt == "" {
		t.Fatal("expected image prompt")
	}
}

func TestGenerateTruncatesOverBudget(t *testing.T) {
	t.Parallel()

	over := strings.Repeat("好", 200)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		inner, _ := json.Marshal(generatedPayload{PostText: over, ImagePrompt: "prompt"})
		_, _ = w.Write([]byte(chatBody(string(inner))))
	}))
	defer server.Close()

	gen := newTestGenerator(server.URL)

	content, err := gen.Generate(context.Background(), domain.Article{Title: "t", Content: "c"})
	if err != nil {
		t.Fatalf("Generate error: %v", err)
	}

	if got := utf8.RuneCountInString(content.PostText); got != domain.PostTextBudget {
		t.Fatalf("expected %d characters, got %d", domain.PostTextBudget, got)
	}
	if !utf8.ValidString(content.PostText) {
		t.Fatal("truncated post text is not valid UTF-8")
	}
	for _, r := range content.PostText {
		if r != '好' {
			t.Fatalf("truncation split a character: %q", r)
		}
	}
}

func TestGenerateMalformedStructuredContent(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(chatBody("this is not json")))
	}))
	defer server.Close()

	gen := newTestGenerator(server.URL)

	if _, err := gen.Generate(context.Background(), domain.Article{Title: "t"}); err == nil {
		t.Fatal("expected error for malformed structured content")
	}
}

func TestGenerateMissingFields(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(chatBody(`{"postText": "body only"}`)))
	}))
	defer server.Close()

	gen := newTestGenerator(server.URL)

	if _, err := gen.Generate(context.Background(), domain.Article{Title: "t"}); err == nil {
		t.Fatal("expected error for missing fields")
	}
}

func TestGenerateEmptyChoices(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices": []}`))
	}))
	defer server.Close()

	gen := newTestGenerator(server.URL)

	if _, err := gen.Generate(context.Background(), domain.Article{Title: "t"}); err == nil {
		t.Fatal("expected error for empty choices")
	}
}

func TestGenerateProviderError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer server.Close()

	gen := newTestGenerator(server.URL)

	_, err := gen.Generate(context.Background(), domain.Article{Title: "t"})
	if err == nil {
		t.Fatal("expected error for provider failure")
	}
	if !strings.Contains(err.Error(), "429") {
		t.Fatalf("expected status in error, got %v", err)
	}
}

func TestUserPromptCapsContent(t *testing.T) {
	t.Parallel()

	gen := newTestGenerator("https://example.test")
	long := strings.Repeat("x", 3000)
	prompt := gen.userPrompt(domain.Article{Title: "Title", Content: long})

	if strings.Contains(prompt, long) {
		t.Fatal("content prefix not capped")
	}
	if !strings.Contains(prompt, strings.Repeat("x", contentPrefixCap)) {
		t.Fatal("capped content prefix missing")
	}
	if !strings.Contains(prompt, fmt.Sprintf("Article Title: %s", "Title")) {
		t.Fatal("title missing from prompt")
	}
}
