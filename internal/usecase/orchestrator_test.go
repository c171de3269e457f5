package usecase

import (
	"context"
	"errors"
	"testing"

	"newsposter/internal/domain"
)

type stubConfigStore struct {
	active  []domain.PostingConfig
	listErr error
	byID    map[int64]domain.PostingConfig
}

func (s *stubConfigStore) ListActive(context.Context) ([]domain.PostingConfig, error) {
	return s.active, s.listErr
}

func (s *stubConfigStore) Get(_ context.Context, id int64) (*domain.PostingConfig, error) {
	cfg, ok := s.byID[id]
	if !ok {
		return nil, errors.New("not found")
	}
	return &cfg, nil
}

type stubSource struct {
	article *domain.Article
	err     error
}

func (s *stubSource) FetchArticle(context.Context) (*domain.Article, error) {
	return s.article, s.err
}

type stubGenerator struct {
	content *domain.GeneratedContent
	err     error
}

func (s *stubGenerator) Generate(context.Context, domain.Article) (*domain.GeneratedContent, error) {
	return s.content, s.err
}

type stubRenderer struct {
	url string
	err error
}

func (s *stubRenderer) Render(context.Context, string) (string, error) {
	return s.url, s.err
}

func newTestPipeline(source *stubSource, gen *stubGenerator, render *stubRenderer, client *stubPostingClient, log *stubPostLog) *Pipeline {
	pub := NewPublisher(client, log, nil, discardLogger())
	return NewPipeline(source, gen, render, pub, discardLogger())
}

func TestRunCycleProcessesAllActiveConfigs(t *testing.T) {
	store := &stubConfigStore{active: []domain.PostingConfig{{ID: 1}, {ID: 2}, {ID: 3}}}
	client := &stubPostingClient{createdID: "id"}
	log := &stubPostLog{}
	article := testArticle()
	pipeline := newTestPipeline(
		&stubSource{article: &article},
		&stubGenerator{content: &domain.GeneratedContent{PostText: "body", ImagePrompt: ""}},
		&stubRenderer{},
		client, log,
	)

	orch := NewOrchestrator(store, pipeline, 0, discardLogger())
	orch.RunCycle(context.Background())

	if len(log.created) != 3 {
		t.Fatalf("posted %d times, want 3", len(log.created))
	}
	for i, rec := range log.created {
		if rec.ConfigID != int64(i+1) {
			t.Errorf("record %d for config %d, want sequential order", i, rec.ConfigID)
		}
	}
}

func TestRunCycleContinuesPastFailure(t *testing.T) {
	store := &stubConfigStore{active: []domain.PostingConfig{{ID: 1}, {ID: 2}}}
	client := &stubPostingClient{createErr: errors.New("rate limited")}
	log := &stubPostLog{}
	article := testArticle()
	pipeline := newTestPipeline(
		&stubSource{article: &article},
		&stubGenerator{content: &domain.GeneratedContent{PostText: "body"}},
		&stubRenderer{},
		client, log,
	)

	orch := NewOrchestrator(store, pipeline, 0, discardLogger())
	orch.RunCycle(context.Background())

	if client.createCalls != 2 {
		t.Errorf("CreatePost called %d times, want 2 (failure must not stop the cycle)", client.createCalls)
	}
}

func TestRunConfigIgnoresActiveFlag(t *testing.T) {
	store := &stubConfigStore{byID: map[int64]domain.PostingConfig{
		9: {ID: 9, IsActive: false},
	}}
	client := &stubPostingClient{createdID: "47"}
	log := &stubPostLog{}
	article := testArticle()
	pipeline := newTestPipeline(
		&stubSource{article: &article},
		&stubGenerator{content: &domain.GeneratedContent{PostText: "body"}},
		&stubRenderer{},
		client, log,
	)

	orch := NewOrchestrator(store, pipeline, 0, discardLogger())
	res, err := orch.RunConfig(context.Background(), 9)
	if err != nil {
		t.Fatalf("RunConfig: %v", err)
	}
	if res.PostID != "47" {
		t.Errorf("PostID = %q, want 47", res.PostID)
	}
}

func TestPipelineFallsBackWhenGenerationFails(t *testing.T) {
	client := &stubPostingClient{createdID: "id"}
	log := &stubPostLog{}
	article := testArticle()
	pipeline := newTestPipeline(
		&stubSource{article: &article},
		&stubGenerator{err: errors.New("provider overloaded")},
		&stubRenderer{err: errors.New("no image either")},
		client, log,
	)

	res, err := pipeline.Run(context.Background(), domain.PostingConfig{ID: 1})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	want := domain.FallbackPost(article.Title, domain.PostTextBudget)
	if res.Record.PostText != want {
		t.Errorf("PostText = %q, want fallback %q", res.Record.PostText, want)
	}
	if res.Record.ImageURL != "" {
		t.Errorf("ImageURL = %q, want empty after render failure", res.Record.ImageURL)
	}
}

func TestPipelineFetchFailureAborts(t *testing.T) {
	client := &stubPostingClient{createdID: "id"}
	log := &stubPostLog{}
	pipeline := newTestPipeline(
		&stubSource{err: errors.New("all origins down")},
		&stubGenerator{content: &domain.GeneratedContent{PostText: "body"}},
		&stubRenderer{},
		client, log,
	)

	if _, err := pipeline.Run(context.Background(), domain.PostingConfig{ID: 1}); err == nil {
		t.Fatal("expected fetch error to abort the run")
	}
	if client.createCalls != 0 {
		t.Errorf("CreatePost called %d times after fetch failure, want 0", client.createCalls)
	}
}
