package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"newsposter/internal/domain"
	"newsposter/internal/ports"
)

// Pipeline runs the full fetch → generate → render → publish sequence for one
// posting profile. Each profile is serialized with its own lock so a manual
// trigger cannot overlap a scheduled run for the same profile.
type Pipeline struct {
	source    ports.ArticleSource
	generator ports.ContentGenerator
	renderer  ports.ImageRenderer
	publisher *Publisher
	logger    *slog.Logger

	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

func NewPipeline(source ports.ArticleSource, generator ports.ContentGenerator, renderer ports.ImageRenderer, publisher *Publisher, logger *slog.Logger) *Pipeline {
	return &Pipeline{
		source:    source,
		generator: generator,
		renderer:  renderer,
		publisher: publisher,
		logger:    logger,
		locks:     map[int64]*sync.Mutex{},
	}
}

// Run executes one posting cycle for the given profile.
func (p *Pipeline) Run(ctx context.Context, cfg domain.PostingConfig) (*domain.PostResult, error) {
	lock := p.configLock(cfg.ID)
	lock.Lock()
	defer lock.Unlock()

	article, err := p.source.FetchArticle(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch article: %w", err)
	}
	p.logger.Info("article selected",
		"configId", cfg.ID, "source", article.Source, "title", article.Title)

	content := p.generateContent(ctx, cfg.ID, *article)

	imageURL := ""
	if content.ImagePrompt != "" {
		url, err := p.renderer.Render(ctx, content.ImagePrompt)
		if err != nil {
			p.logger.Warn("image rendering failed, continuing without image",
				"configId", cfg.ID, "error", err)
		} else {
			imageURL = url
		}
	}

	result, err := p.publisher.Publish(ctx, cfg, *article, content.PostText, imageURL)
	if err != nil {
		return nil, fmt.Errorf("publish: %w", err)
	}

	p.logger.Info("post published",
		"configId", cfg.ID, "postId", result.PostID, "withImage", imageURL != "")
	return result, nil
}

// generateContent never fails: when the generator errors out it substitutes
// the deterministic fallback body and a generic image concept.
func (p *Pipeline) generateContent(ctx context.Context, configID int64, article domain.Article) domain.GeneratedContent {
	content, err := p.generator.Generate(ctx, article)
	if err == nil && content != nil {
		return *content
	}

	p.logger.Warn("content generation failed, using fallback",
		"configId", configID, "error", err)
	return domain.GeneratedContent{
		PostText:    domain.FallbackPost(article.Title, domain.PostTextBudget),
		ImagePrompt: "A professional news illustration about: " + article.Title,
	}
}

func (p *Pipeline) configLock(id int64) *sync.Mutex {
	p.mu.Lock()
	defer p.mu.Unlock()
	lock, ok := p.locks[id]
	if !ok {
		lock = &sync.Mutex{}
		p.locks[id] = lock
	}
	return lock
}
