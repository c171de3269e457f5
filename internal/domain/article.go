package domain

import "time"

// Article is one news story discovered by the source layer. It is scoped to a
// single pipeline run and never persisted on its own.
type Article struct {
	Title   string
	URL     string
	Content string
	Source  string
}

// GeneratedContent is the post body plus the visual concept derived from an
// article. Consumed once by the image renderer and the publisher.
type GeneratedContent struct {
	PostText    string
	ImagePrompt string
}

// Credentials bundles the four opaque secrets needed to act on behalf of one
// posting account. Constructed by the config store and passed by value.
type Credentials struct {
	APIKey            string
	APISecret         string
	AccessToken       string
	AccessTokenSecret string
}

// PostingConfig is a single posting profile. The pipeline only reads it; all
// mutations go through the admin surface.
type PostingConfig struct {
	ID                      int64
	UserID                  int64
	Credentials             Credentials
	IsActive                bool
	ScheduleIntervalMinutes int
	CreatedAt               time.Time
	UpdatedAt               time.Time
}

// PostedRecord is the append-only audit entry written after a successful
// submission. PostText holds the original body without the source URL.
// ImageURL is empty when the post went out without media.
type PostedRecord struct {
	ID          int64
	ConfigID    int64
	PostText    string
	ImageURL    string
	SourceURL   string
	SourceTitle string
	SourceMedia string
	PostedAt    time.Time
}

// PostResult is returned by a successful publish.
type PostResult struct {
	PostID string
	Record PostedRecord
}
