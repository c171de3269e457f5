package twitter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/dghubble/oauth1"

	"newsposter/internal/config"
	"newsposter/internal/domain"
	"newsposter/internal/ports"
)

const (
	mediaUploadPath = "/1.1/media/upload.json"
	createPostPath  = "/2/tweets"
	identityPath    = "/2/users/me"

	requestTimeout = 15 * time.Second
)

// Client talks to the posting platform. Every call is signed with OAuth1
// using the per-profile credential bundle, so no client state is shared
// between profiles.
type Client struct {
	apiBaseURL    string
	uploadBaseURL string
}

var _ ports.PostingClient = (*Client)(nil)

// NewClient wires the platform endpoints from configuration.
func NewClient(cfg config.TwitterConfig) *Client {
	return &Client{
		apiBaseURL:    strings.TrimSuffix(cfg.APIBaseURL, "/"),
		uploadBaseURL: strings.TrimSuffix(cfg.UploadBaseURL, "/"),
	}
}

func (c *Client) signedClient(ctx context.Context, creds domain.Credentials) *http.Client {
	oauthConfig := oauth1.NewConfig(creds.APIKey, creds.APISecret)
	token := oauth1.NewToken(creds.AccessToken, creds.AccessTokenSecret)
	client := oauthConfig.Client(ctx, token)
	client.Timeout = requestTimeout
	return client
}

type mediaUploadResponse struct {
	MediaIDString string `json:"media_id_string"`
}

// UploadMedia pushes image bytes to the platform media endpoint and returns
// the opaque media handle used to attach the image to a post.
func (c *Client) UploadMedia(ctx context.Context, creds domain.Credentials, data []byte, mimeType string) (string, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("media", "media")
	if err != nil {
		return "", fmt.Errorf("create form file: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return "", fmt.Errorf("write media bytes: %w", err)
	}
	if mimeType != "" {
		if err := writer.WriteField("media_type", mimeType); err != nil {
			return "", fmt.Errorf("write media type: %w", err)
		}
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.uploadBaseURL+mediaUploadPath, &body)
	if err != nil {
		return "", fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	var parsed mediaUploadResponse
	if err := c.do(ctx, creds, req, &parsed); err != nil {
		return "", fmt.Errorf("upload media: %w", err)
	}
	if parsed.MediaIDString == "" {
		return "", fmt.Errorf("upload media: response missing media id")
	}

	return parsed.MediaIDString, nil
}

type createPostRequest struct {
	Text  string     `json:"text"`
	Media *postMedia `json:"media,omitempty"`
}

type postMedia struct {
	MediaIDs []string `json:"media_ids"`
}

type createPostResponse struct {
	Data struct {
		ID string `json:"id"`
	} `json:"data"`
}

// CreatePost submits the composed text, optionally attaching an uploaded
// media handle, and returns the platform post identifier.
func (c *Client) CreatePost(ctx context.Context, creds domain.Credentials, text, mediaID string) (string, error) {
	payload := createPostRequest{Text: text}
	if mediaID != "" {
		payload.Media = &postMedia{MediaIDs: []string{mediaID}}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal post payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiBaseURL+createPostPath, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	var parsed createPostResponse
	if err := c.do(ctx, creds, req, &parsed); err != nil {
		return "", fmt.Errorf("create post: %w", err)
	}
	if parsed.Data.ID == "" {
		return "", fmt.Errorf("create post: response missing post id")
	}

	return parsed.Data.ID, nil
}

type identityResponse struct {
	Data struct {
		Username string `json:"username"`
	} `json:"data"`
}

// VerifyCredentials performs a lightweight identity check and returns the
// account handle without publishing anything.
func (c *Client) VerifyCredentials(ctx context.Context, creds domain.Credentials) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apiBaseURL+identityPath, nil)
	if err != nil {
		return "", fmt.Errorf("new request: %w", err)
	}

	var parsed identityResponse
	if err := c.do(ctx, creds, req, &parsed); err != nil {
		return "", fmt.Errorf("verify credentials: %w", err)
	}
	if parsed.Data.Username == "" {
		return "", fmt.Errorf("verify credentials: response missing username")
	}

	return parsed.Data.Username, nil
}

func (c *Client) do(ctx context.Context, creds domain.Credentials, req *http.Request, v any) error {
	resp, err := c.signedClient(ctx, creds).Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("platform error %s: %s", resp.Status, strings.TrimSpace(string(payload)))
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	return nil
}
