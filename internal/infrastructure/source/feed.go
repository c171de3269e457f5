package source

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/mmcdole/gofeed"
)

const feedItemLimit = 10

// FeedStrategy discovers candidates from a structured RSS/Atom feed. Feed
// entries already carry body text, so Extract is a no-op beyond capping.
type FeedStrategy struct {
	feedURL string
	parser  *gofeed.Parser
}

// NewFeedStrategy builds a strategy for one feed endpoint.
func NewFeedStrategy(feedURL string) *FeedStrategy {
	parser := gofeed.NewParser()
	parser.Client = &http.Client{Timeout: 15 * time.Second}
	parser.UserAgent = userAgent
	return &FeedStrategy{feedURL: feedURL, parser: parser}
}

// Discover maps the first feed entries to candidates, dropping noise entries
// and de-duplicating by link.
func (f *FeedStrategy) Discover(ctx context.Context) ([]Candidate, error) {
	feed, err := f.parser.ParseURLWithContext(f.feedURL, ctx)
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}

	seen := map[string]struct{}{}
	candidates := make([]Candidate, 0, feedItemLimit)
	for _, item := range feed.Items {
		if len(candidates) >= feedItemLimit {
			break
		}

		summary := item.Content
		if summary == "" {
			summary = item.Description
		}

		candidate := Candidate{
			Title:   capRunes(item.Title, titleCap),
			URL:     item.Link,
			Summary: capRunes(summary, contentCap),
		}
		if !validCandidate(candidate) {
			continue
		}
		if _, ok := seen[candidate.URL]; ok {
			continue
		}
		seen[candidate.URL] = struct{}{}
		candidates = append(candidates, candidate)
	}

	return candidates, nil
}

// Extract returns the feed-provided body text; no second fetch is needed.
func (f *FeedStrategy) Extract(_ context.Context, c Candidate) (string, error) {
	return c.Summary, nil
}
