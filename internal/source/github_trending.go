package source

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"newsbrief/internal/models"
)

// TypeGithubTrending identifies the trending-repository listing source.
const TypeGithubTrending = "github_trending"

// githubTrendingCap bounds results even when the page repeats entries.
const githubTrendingCap = 25

type githubTrendingConfig struct {
	Language string `json:"language"`
	Since    string `json:"since" validate:"omitempty,oneof=daily weekly monthly"`
	Limit    int    `json:"limit" validate:"omitempty,min=1,max=25"`
}

// GithubTrendingAdapter scrapes the rendered trending listing page,
// deduplicating repeated entries within the page.
type GithubTrendingAdapter struct {
	client     *Client
	excerptLen int
}

// NewGithubTrendingAdapter wires the shared HTTP client.
func NewGithubTrendingAdapter(client *Client, excerptLen int) *GithubTrendingAdapter {
	return &GithubTrendingAdapter{client: client, excerptLen: excerptLen}
}

func (a *GithubTrendingAdapter) Type() string { return TypeGithubTrending }

func (a *GithubTrendingAdapter) Fetch(ctx context.Context, src models.SourceDescriptor) ([]models.FetchedItem, error) {
	cfg := githubTrendingConfig{Since: "daily", Limit: githubTrendingCap}
	if err := decodeConfig(src, &cfg); err != nil {
		return nil, err
	}
	if cfg.Limit <= 0 || cfg.Limit > githubTrendingCap {
		cfg.Limit = githubTrendingCap
	}

	url := "https://github.com/trending"
	if cfg.Language != "" {
		url += "/" + cfg.Language
	}
	url += "?since=" + cfg.Since

	body, err := a.client.GetBytes(ctx, url, map[string]string{"Accept": "text/html"})
	if err != nil {
		return nil, &FetchError{Source: src.Name, Err: err}
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, &FetchError{Source: src.Name, Err: fmt.Errorf("parse trending page: %w", err)}
	}

	seen := make(map[string]struct{})
	items := make([]models.FetchedItem, 0, cfg.Limit)

	doc.Find("article.Box-row").EachWithBreak(func(_ int, row *goquery.Selection) bool {
		href, ok := row.Find("h2 a").Attr("href")
		if !ok {
			return true
		}
		href = strings.TrimSpace(href)
		if _, dup := seen[href]; dup {
			return true
		}
		seen[href] = struct{}{}

		repo := strings.TrimPrefix(href, "/")
		repo = strings.Join(strings.Fields(repo), "")

		desc := strings.TrimSpace(row.Find("p").First().Text())
		stars := strings.TrimSpace(row.Find(`a[href$="/stargazers"]`).First().Text())
		stars = strings.Join(strings.Fields(stars), "")
		if stars != "" {
			if desc != "" {
				desc += " · "
			}
			desc += stars + " stars"
		}

		items = append(items, models.FetchedItem{
			Title:       repo,
			URL:         "https://github.com" + href,
			Description: excerpt(desc, a.excerptLen),
		})
		return len(items) < cfg.Limit
	})

	return items, nil
}
