package ai

import (
	"bytes"
	"context"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/sync/errgroup"

	"newsbrief/internal/logger"
	"newsbrief/internal/models"
)

// PageFetcher fetches an article page with bounded size and timeout.
type PageFetcher interface {
	GetBytes(ctx context.Context, url string, headers map[string]string) ([]byte, error)
}

// deepPageTextCap bounds the extracted article text fed into the
// summarization prompt.
const deepPageTextCap = 4000

// DeepSummarizer optionally enriches item descriptions before synthesis by
// fetching each article page and summarizing it. Page fetches run fully
// parallel with per-article failure isolation; summarization calls are
// issued sequentially to respect the model provider's rate limits.
type DeepSummarizer struct {
	llm             Completer
	pages           PageFetcher
	summaryMaxChars int
}

// NewDeepSummarizer wires the model client and page fetcher.
func NewDeepSummarizer(llm Completer, pages PageFetcher, summaryMaxChars int) *DeepSummarizer {
	if summaryMaxChars <= 0 {
		summaryMaxChars = 200
	}
	return &DeepSummarizer{llm: llm, pages: pages, summaryMaxChars: summaryMaxChars}
}

// Enrich returns the items with descriptions replaced by article summaries
// where both the page fetch and the summarization call succeeded. Failures
// leave the original description in place.
func (d *DeepSummarizer) Enrich(ctx context.Context, items []models.FetchedItem) []models.FetchedItem {
	texts := make([]string, len(items))

	var g errgroup.Group
	for i := range items {
		i := i
		g.Go(func() error {
			body, err := d.pages.GetBytes(ctx, items[i].URL, map[string]string{"Accept": "text/html"})
			if err != nil {
				logger.Debug().Err(err).Str("url", items[i].URL).Msg("deep fetch failed, keeping original description")
				return nil
			}
			texts[i] = extractPageText(body)
			return nil
		})
	}
	g.Wait()

	enriched := make([]models.FetchedItem, len(items))
	copy(enriched, items)
	for i := range enriched {
		if texts[i] == "" || ctx.Err() != nil {
			continue
		}
		prompt := BuildSummaryPrompt(enriched[i], texts[i], d.summaryMaxChars)
		summary, err := d.llm.Complete(ctx, []Message{{Role: "user", Content: prompt}}, 0)
		if err != nil {
			logger.Debug().Err(err).Str("url", enriched[i].URL).Msg("deep summary failed, keeping original description")
			continue
		}
		if summary = strings.TrimSpace(summary); summary != "" {
			enriched[i].Description = truncateRunes(summary, d.summaryMaxChars)
		}
	}
	return enriched
}

// extractPageText pulls readable paragraph text from an HTML page.
func extractPageText(body []byte) string {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return ""
	}
	doc.Find("script, style, nav, header, footer").Remove()

	var parts []string
	doc.Find("p").Each(func(_ int, p *goquery.Selection) {
		if text := strings.TrimSpace(p.Text()); text != "" {
			parts = append(parts, text)
		}
	})
	text := strings.Join(parts, "\n")
	if text == "" {
		text = strings.TrimSpace(doc.Find("body").Text())
	}
	return truncateRunes(strings.Join(strings.Fields(text), " "), deepPageTextCap)
}
