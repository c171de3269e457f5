package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"newsposter/internal/domain"
	"newsposter/internal/ports"
)

// ErrPostTooLong means the composed post exceeds the platform character limit
// and was never submitted.
var ErrPostTooLong = errors.New("composed post exceeds platform limit")

const defaultImageMIME = "image/png"

// Publisher submits one post to the posting platform and records the outcome.
// Media failures degrade to a text-only post; only submission itself is fatal.
type Publisher struct {
	client ports.PostingClient
	log    ports.PostLogStore
	http   *http.Client
	logger *slog.Logger
}

func NewPublisher(client ports.PostingClient, log ports.PostLogStore, httpClient *http.Client, logger *slog.Logger) *Publisher {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Publisher{client: client, log: log, http: httpClient, logger: logger}
}

// Publish composes text+URL, optionally attaches the rendered image, submits
// the post with the profile's credentials and appends an audit record. The
// stored PostText is the body without the source URL.
func (p *Publisher) Publish(ctx context.Context, cfg domain.PostingConfig, article domain.Article, text, imageURL string) (*domain.PostResult, error) {
	composed := domain.ComposePost(text, article.URL)
	if n := domain.PostLength(composed); n > domain.PlatformPostLimit {
		return nil, fmt.Errorf("%w: %d characters", ErrPostTooLong, n)
	}

	mediaID := ""
	if imageURL != "" {
		id, err := p.uploadImage(ctx, cfg.Credentials, imageURL)
		if err != nil {
			p.logger.Warn("media upload failed, posting text only",
				"configId", cfg.ID, "error", err)
		} else {
			mediaID = id
		}
	}

	postID, err := p.client.CreatePost(ctx, cfg.Credentials, composed, mediaID)
	if err != nil {
		return nil, fmt.Errorf("create post: %w", err)
	}

	record := domain.PostedRecord{
		ConfigID:    cfg.ID,
		PostText:    text,
		ImageURL:    imageURL,
		SourceURL:   article.URL,
		SourceTitle: article.Title,
		SourceMedia: article.Source,
		PostedAt:    time.Now().UTC(),
	}
	if mediaID == "" {
		record.ImageURL = ""
	}

	stored, err := p.log.Create(ctx, record)
	if err != nil {
		// The post is already live; losing the audit row must not fail the run.
		p.logger.Error("failed to record published post",
			"configId", cfg.ID, "postId", postID, "error", err)
		stored = &record
	}

	return &domain.PostResult{PostID: postID, Record: *stored}, nil
}

func (p *Publisher) uploadImage(ctx context.Context, creds domain.Credentials, imageURL string) (string, error) {
	data, mimeType, err := p.fetchImage(ctx, imageURL)
	if err != nil {
		return "", err
	}
	return p.client.UploadMedia(ctx, creds, data, mimeType)
}

func (p *Publisher) fetchImage(ctx context.Context, imageURL string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("build image request: %w", err)
	}

	resp, err := p.http.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("fetch image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("fetch image: unexpected status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("read image body: %w", err)
	}

	mimeType := resp.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = defaultImageMIME
	}

	return data, mimeType, nil
}
