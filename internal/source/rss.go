package source

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"newsbrief/internal/models"
)

// TypeRSS identifies syndication feed sources (RSS and Atom).
const TypeRSS = "rss"

type rssConfig struct {
	URL   string `json:"url" validate:"required,url"`
	Limit int    `json:"limit" validate:"omitempty,min=1,max=100"`
}

// RSSAdapter fetches syndication feeds. Parsing is tolerant: when the feed
// is not well-formed XML, entries are recovered block by block so one
// malformed field never drops the whole feed.
type RSSAdapter struct {
	client     *Client
	excerptLen int
	parser     *gofeed.Parser
}

// NewRSSAdapter wires the shared HTTP client.
func NewRSSAdapter(client *Client, excerptLen int) *RSSAdapter {
	return &RSSAdapter{client: client, excerptLen: excerptLen, parser: gofeed.NewParser()}
}

func (a *RSSAdapter) Type() string { return TypeRSS }

func (a *RSSAdapter) Fetch(ctx context.Context, src models.SourceDescriptor) ([]models.FetchedItem, error) {
	var cfg rssConfig
	if err := decodeConfig(src, &cfg); err != nil {
		return nil, err
	}

	body, err := a.client.GetBytes(ctx, cfg.URL, map[string]string{
		"Accept": "application/rss+xml, application/atom+xml, application/xml, text/xml, */*",
	})
	if err != nil {
		return nil, &FetchError{Source: src.Name, Err: err}
	}

	items := a.parseStrict(string(body))
	if items == nil {
		items = parseLoose(string(body), a.excerptLen)
	}

	if cfg.Limit > 0 && len(items) > cfg.Limit {
		items = items[:cfg.Limit]
	}
	return items, nil
}

func (a *RSSAdapter) parseStrict(body string) []models.FetchedItem {
	feed, err := a.parser.ParseString(body)
	if err != nil || feed == nil {
		return nil
	}

	items := make([]models.FetchedItem, 0, len(feed.Items))
	for _, entry := range feed.Items {
		if entry == nil || entry.Link == "" {
			continue
		}
		desc := entry.Description
		if desc == "" {
			desc = entry.Content
		}
		item := models.FetchedItem{
			Title:       cleanHTML(entry.Title),
			URL:         strings.TrimSpace(entry.Link),
			Description: excerpt(cleanHTML(desc), a.excerptLen),
			PublishedAt: entry.PublishedParsed,
		}
		if item.PublishedAt == nil {
			item.PublishedAt = entry.UpdatedParsed
		}
		if entry.Author != nil {
			item.Author = entry.Author.Name
		}
		items = append(items, item)
	}
	return items
}

// Block-level fallback extraction for feeds that are not valid XML. Each
// field is pulled independently; a broken field leaves the rest of the entry
// intact.
var (
	rssItemBlockRe = regexp.MustCompile(`(?is)<(item|entry)[\s>].*?</(?:item|entry)>`)
	rssTitleRe     = regexp.MustCompile(`(?is)<title[^>]*>(.*?)</title>`)
	rssLinkRe      = regexp.MustCompile(`(?is)<link[^>]*>(.*?)</link>`)
	rssLinkHrefRe  = regexp.MustCompile(`(?is)<link[^>]*href="([^"]+)"`)
	rssDescRe      = regexp.MustCompile(`(?is)<(?:description|summary|content(?::encoded)?)[^>]*>(.*?)</(?:description|summary|content(?::encoded)?)>`)
	rssDateRe      = regexp.MustCompile(`(?is)<(?:pubDate|published|updated|dc:date)[^>]*>(.*?)</(?:pubDate|published|updated|dc:date)>`)
	rssAuthorRe    = regexp.MustCompile(`(?is)<(?:dc:creator|author)[^>]*>(.*?)</(?:dc:creator|author)>`)
	cdataRe        = regexp.MustCompile(`(?is)<!\[CDATA\[(.*?)\]\]>`)
)

func parseLoose(body string, excerptLen int) []models.FetchedItem {
	blocks := rssItemBlockRe.FindAllString(body, -1)
	items := make([]models.FetchedItem, 0, len(blocks))

	for _, block := range blocks {
		link := firstMatch(rssLinkRe, block)
		if link == "" {
			link = firstMatch(rssLinkHrefRe, block)
		}
		if link == "" {
			continue
		}

		item := models.FetchedItem{
			Title:       cleanHTML(stripCDATA(firstMatch(rssTitleRe, block))),
			URL:         strings.TrimSpace(stripCDATA(link)),
			Description: excerpt(cleanHTML(stripCDATA(firstMatch(rssDescRe, block))), excerptLen),
			Author:      cleanHTML(stripCDATA(firstMatch(rssAuthorRe, block))),
		}
		if raw := strings.TrimSpace(firstMatch(rssDateRe, block)); raw != "" {
			item.PublishedAt = parseFeedTime(raw)
		}
		items = append(items, item)
	}
	return items
}

func firstMatch(re *regexp.Regexp, s string) string {
	m := re.FindStringSubmatch(s)
	if len(m) < 2 {
		return ""
	}
	return m[1]
}

func stripCDATA(s string) string {
	if m := cdataRe.FindStringSubmatch(s); len(m) == 2 {
		return m[1]
	}
	return s
}

// parseFeedTime tries the publish date layouts seen in the wild. Returns nil
// when nothing matches; staleness filtering treats that as "keep".
func parseFeedTime(raw string) *time.Time {
	layouts := []string{
		time.RFC1123Z,
		time.RFC1123,
		time.RFC3339,
		"2006-01-02T15:04:05Z0700",
		"Mon, 2 Jan 2006 15:04:05 -0700",
		"2006-01-02 15:04:05",
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return &t
		}
	}
	return nil
}
