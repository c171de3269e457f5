package source

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"net/url"
	"time"

	"newsposter/internal/config"
	"newsposter/internal/domain"
	"newsposter/internal/ports"
)

const (
	titleCap      = 300
	contentCap    = 2000
	minTitleLen   = 6
	minURLLen     = 12
	minContentLen = 40

	userAgent = "NewsPoster/1.0"
)

// Candidate is a title+URL pair discovered from an origin listing, prior to
// full-content extraction. Summary carries feed-provided body text when the
// origin is a structured feed.
type Candidate struct {
	Title   string
	URL     string
	Summary string
}

// Strategy discovers candidates from one origin and extracts full content for
// a chosen candidate.
type Strategy interface {
	Discover(ctx context.Context) ([]Candidate, error)
	Extract(ctx context.Context, c Candidate) (string, error)
}

// Origin is a named news origin bound to its extraction strategy.
type Origin struct {
	Name     string
	Strategy Strategy
}

// BuildOrigins maps origin configuration onto concrete strategies.
func BuildOrigins(cfgs []config.OriginConfig) ([]Origin, error) {
	origins := make([]Origin, 0, len(cfgs))
	for _, c := range cfgs {
		switch {
		case c.Feed != "":
			origins = append(origins, Origin{Name: c.Name, Strategy: NewFeedStrategy(c.Feed)})
		case c.Page != "":
			strategy, err := NewScrapeStrategy(c.Page, c.LinkSelectors, c.ContentSelectors)
			if err != nil {
				return nil, fmt.Errorf("origin %s: %w", c.Name, err)
			}
			origins = append(origins, Origin{Name: c.Name, Strategy: strategy})
		default:
			return nil, fmt.Errorf("origin %s: neither feed nor page configured", c.Name)
		}
	}
	return origins, nil
}

// RandomSource implements ports.ArticleSource by drawing from a rotating set
// of origins with bounded retries.
type RandomSource struct {
	origins     []Origin
	maxAttempts int
	retryDelay  time.Duration
	offline     bool
	rand        *rand.Rand
	logger      *slog.Logger
}

var _ ports.ArticleSource = (*RandomSource)(nil)

// NewRandomSource wires origins with retry policy. When offline is set,
// exhausted retries degrade to the offline article pool instead of failing.
func NewRandomSource(origins []Origin, maxAttempts int, retryDelay time.Duration, offline bool, rng *rand.Rand, log *slog.Logger) *RandomSource {
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &RandomSource{
		origins:     origins,
		maxAttempts: maxAttempts,
		retryDelay:  retryDelay,
		offline:     offline,
		rand:        rng,
		logger:      log,
	}
}

// FetchArticle picks an origin at random, discovers candidates, picks one at
// random and extracts its content. Each failed attempt counts against the
// bounded retry budget.
func (s *RandomSource) FetchArticle(ctx context.Context) (*domain.Article, error) {
	if len(s.origins) == 0 {
		return nil, fmt.Errorf("no origins configured")
	}

	var lastErr error
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		origin := s.origins[s.rand.Intn(len(s.origins))]
		s.debug("discovery attempt", "attempt", attempt, "origin", origin.Name)

		article, err := s.tryOrigin(ctx, origin)
		if err == nil {
			s.debug("selected article", "origin", origin.Name, "title", article.Title)
			return article, nil
		}

		lastErr = err
		s.warn("attempt failed", "attempt", attempt, "origin", origin.Name, "error", err)

		if attempt < s.maxAttempts {
			select {
			case <-time.After(s.retryDelay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}

	if s.offline {
		article := offlineArticle(s.rand)
		s.warn("all attempts exhausted, serving offline article", "title", article.Title)
		return article, nil
	}

	return nil, fmt.Errorf("all %d discovery attempts failed: %w", s.maxAttempts, lastErr)
}

func (s *RandomSource) tryOrigin(ctx context.Context, origin Origin) (*domain.Article, error) {
	candidates, err := origin.Strategy.Discover(ctx)
	if err != nil {
		return nil, fmt.Errorf("discover: %w", err)
	}
	if len(candidates) == 0 {
		return nil, fmt.Errorf("no candidates found")
	}

	candidate := candidates[s.rand.Intn(len(candidates))]

	content, err := origin.Strategy.Extract(ctx, candidate)
	if err != nil {
		return nil, fmt.Errorf("extract %s: %w", candidate.URL, err)
	}

	return &domain.Article{
		Title:   capRunes(candidate.Title, titleCap),
		URL:     candidate.URL,
		Content: capRunes(content, contentCap),
		Source:  origin.Name,
	}, nil
}

func (s *RandomSource) debug(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}

func (s *RandomSource) warn(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Warn(msg, args...)
	}
}

// validCandidate rejects noise: too-short titles, malformed or non-http URLs.
func validCandidate(c Candidate) bool {
	if len([]rune(c.Title)) < minTitleLen {
		return false
	}
	if len(c.URL) < minURLLen {
		return false
	}
	parsed, err := url.Parse(c.URL)
	if err != nil {
		return false
	}
	return parsed.Scheme == "http" || parsed.Scheme == "https"
}

func capRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) > n {
		return string(runes[:n])
	}
	return s
}
