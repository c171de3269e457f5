package ports

import (
	"context"
	"time"

	"newsposter/internal/domain"
)

// ArticleSource discovers one candidate article per pipeline run.
type ArticleSource interface {
	FetchArticle(ctx context.Context) (*domain.Article, error)
}

// ContentGenerator turns an article into a post body and an image concept.
// A nil result with an error means the caller must substitute the
// deterministic fallback instead of aborting the run.
type ContentGenerator interface {
	Generate(ctx context.Context, article domain.Article) (*domain.GeneratedContent, error)
}

// ImageRenderer turns an image concept into a rendered image URL. Failure
// means "proceed without an image", never "abort the run".
type ImageRenderer interface {
	Render(ctx context.Context, prompt string) (string, error)
}

// PostingClient is the transport to the posting platform. Every call is
// authenticated with the supplied per-profile credentials.
type PostingClient interface {
	UploadMedia(ctx context.Context, creds domain.Credentials, data []byte, mimeType string) (string, error)
	CreatePost(ctx context.Context, creds domain.Credentials, text, mediaID string) (string, error)
	VerifyCredentials(ctx context.Context, creds domain.Credentials) (string, error)
}

// ConfigStore is the read-only view of posting profiles available to the
// pipeline.
type ConfigStore interface {
	ListActive(ctx context.Context) ([]domain.PostingConfig, error)
	Get(ctx context.Context, id int64) (*domain.PostingConfig, error)
}

// PostLogStore appends audit records for published posts. Create returns the
// stored record with its assigned identifier.
type PostLogStore interface {
	Create(ctx context.Context, record domain.PostedRecord) (*domain.PostedRecord, error)
	ListByConfig(ctx context.Context, configID int64, limit, offset int) ([]domain.PostedRecord, error)
	CountByConfig(ctx context.Context, configID int64) (int, error)
}

// Scheduler controls when pipeline cycles execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
