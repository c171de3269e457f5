package source

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// ScrapeStrategy discovers candidates from an HTML listing page. Link
// selectors are tried in order until one yields candidates; content selectors
// are tried the same way on the article page, falling back to whole-page text.
type ScrapeStrategy struct {
	pageURL          string
	base             *url.URL
	linkSelectors    []string
	contentSelectors []string
	client           *http.Client
}

// NewScrapeStrategy parses the listing URL so relative candidate links can be
// resolved against it.
func NewScrapeStrategy(pageURL string, linkSelectors, contentSelectors []string) (*ScrapeStrategy, error) {
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("invalid page url %s: %w", pageURL, err)
	}

	return &ScrapeStrategy{
		pageURL:          pageURL,
		base:             base,
		linkSelectors:    linkSelectors,
		contentSelectors: contentSelectors,
		client:           &http.Client{Timeout: 15 * time.Second},
	}, nil
}

// Discover fetches the listing and applies the link-selector cascade,
// stopping at the first selector that yields at least one valid candidate.
func (s *ScrapeStrategy) Discover(ctx context.Context) ([]Candidate, error) {
	doc, err := s.fetchDocument(ctx, s.pageURL)
	if err != nil {
		return nil, err
	}

	for _, selector := range s.linkSelectors {
		candidates := s.collectCandidates(doc, selector)
		if len(candidates) > 0 {
			return candidates, nil
		}
	}

	return nil, nil
}

func (s *ScrapeStrategy) collectCandidates(doc *goquery.Document, selector string) []Candidate {
	seen := map[string]struct{}{}
	var candidates []Candidate

	doc.Find(selector).Each(func(_ int, sel *goquery.Selection) {
		href, ok := sel.Attr("href")
		if !ok {
			// Selector matched a container; try the first anchor inside it.
			anchor := sel.Find("a[href]").First()
			href, ok = anchor.Attr("href")
			if !ok {
				return
			}
		}

		resolved := s.resolveURL(href)
		if resolved == "" {
			return
		}

		candidate := Candidate{
			Title: strings.Join(strings.Fields(sel.Text()), " "),
			URL:   resolved,
		}
		if !validCandidate(candidate) {
			return
		}
		if _, dup := seen[resolved]; dup {
			return
		}
		seen[resolved] = struct{}{}
		candidates = append(candidates, candidate)
	})

	return candidates
}

// Extract fetches the article page and applies the content-selector cascade;
// when no selector yields enough text, the whole page body is used.
func (s *ScrapeStrategy) Extract(ctx context.Context, c Candidate) (string, error) {
	doc, err := s.fetchDocument(ctx, c.URL)
	if err != nil {
		return "", err
	}

	for _, selector := range s.contentSelectors {
		text := collapseWhitespace(doc.Find(selector).First().Text())
		if len([]rune(text)) >= minContentLen {
			return capRunes(text, contentCap), nil
		}
	}

	text := collapseWhitespace(doc.Find("body").Text())
	if len([]rune(text)) >= minContentLen {
		return capRunes(text, contentCap), nil
	}

	return "", fmt.Errorf("extracted content too short")
}

func (s *ScrapeStrategy) resolveURL(href string) string {
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return ""
	}
	return s.base.ResolveReference(ref).String()
}

func (s *ScrapeStrategy) fetchDocument(ctx context.Context, pageURL string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request document: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("listing returned %s", resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}

	return doc, nil
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
