package imagegen

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
	"newsposter/internal/ports"
)

// styleSuffix is appended to every prompt to keep rendered images visually
// consistent across runs.
const styleSuffix = ". Manga illustration style, comic book art, anime aesthetic, bold black outlines, vibrant colors, dynamic composition, dramatic lighting, professional manga art, high quality illustration."

// Renderer implements ports.ImageRenderer against an image-generation API.
type Renderer struct {
	endpoint   string
	model      string
	apiKey     string
	httpClient *http.Client
	logger     *slog.Logger
}

var _ ports.ImageRenderer = (*Renderer)(nil)

// NewRenderer builds a client from configuration.
func NewRenderer(cfg config.ImageConfig, log *slog.Logger) *Renderer {
	return &Renderer{
		endpoint: cfg.Endpoint,
		model:    cfg.Model,
		apiKey:   cfg.APIKey,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		logger: log,
	}
}

type imageRequest struct {
	Model  string `json:"model,omitempty"`
	Prompt string `json:"prompt"`
	N      int    `json:"n"`
	Size   string `json:"size"`
}

type imageResponse struct {
	Data []struct {
		URL string `json:"url"`
	} `json:"data"`
}

// Render generates an image for the prompt and returns its URL. Any failure
// returns an empty URL with the error; callers proceed without media.
func (r *Renderer) Render(ctx context.Context, prompt string) (string, error) {
	if r.apiKey == "" || r.endpoint == "" {
		return "", fmt.Errorf("image renderer misconfigured")
	}

	body, err := json.Marshal(imageRequest{
		Model:  r.model,
		Prompt: prompt + styleSuffix,
		N:      1,
		Size:   "1024x1024",
	})
	if err != nil {
		return "", fmt.Errorf("marshal image payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+r.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("image request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("image error %s: %s", resp.Status, strings.TrimSpace(string(payload)))
	}

	var parsed imageResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decode image response: %w", err)
	}
	if len(parsed.Data) == 0 || parsed.Data[0].URL == "" {
		return "", fmt.Errorf("image response missing url")
	}

	if r.logger != nil {
		r.logger.Debug("image rendered", "url", parsed.Data[0].URL)
	}
	return parsed.Data[0].URL, nil
}
