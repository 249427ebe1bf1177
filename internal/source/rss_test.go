package source

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"newsbrief/internal/models"
)

const validRSS = `<?xml version="1.0"?>
<rss version="2.0">
<channel>
<title>Test Feed</title>
<item>
<title>First &amp; foremost</title>
<link>https://example.com/first</link>
<description><![CDATA[<p>Some <b>rich</b> description.</p>]]></description>
<pubDate>Mon, 09 Mar 2026 10:00:00 +0000</pubDate>
</item>
<item>
<title>Second story</title>
<link>https://example.com/second</link>
<description>Plain description</description>
</item>
</channel>
</rss>`

// Broken XML: unclosed tag in the first entry, valid second entry.
const brokenRSS = `<rss><channel>
<item>
<title>Broken <entry</title>
<link>https://example.com/broken</link>
<description>still usable</description>
<pubDate>Mon, 09 Mar 2026 10:00:00 +0000</pubDate>
</item>
<item>
<title><![CDATA[Recovered story]]></title>
<link>https://example.com/recovered</link>
<description><![CDATA[also fine]]></description>
</item>
</channel></rss>`

func feedServer(t *testing.T, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func rssSource(url string, limit int) models.SourceDescriptor {
	cfg, _ := json.Marshal(map[string]any{"url": url, "limit": limit})
	return models.SourceDescriptor{Name: "test feed", Type: TypeRSS, Config: cfg}
}

func TestRSSAdapterStrictParse(t *testing.T) {
	srv := feedServer(t, validRSS)
	adapter := NewRSSAdapter(NewClient(5*time.Second, 1<<20, ""), 400)

	items, err := adapter.Fetch(context.Background(), rssSource(srv.URL, 0))
	require.NoError(t, err)
	require.Len(t, items, 2)

	assert.Equal(t, "First & foremost", items[0].Title)
	assert.Equal(t, "https://example.com/first", items[0].URL)
	assert.Equal(t, "Some rich description.", items[0].Description)
	require.NotNil(t, items[0].PublishedAt)
	assert.Equal(t, 2026, items[0].PublishedAt.Year())

	assert.Equal(t, "Second story", items[1].Title)
	assert.Nil(t, items[1].PublishedAt)
}

func TestRSSAdapterLimit(t *testing.T) {
	srv := feedServer(t, validRSS)
	adapter := NewRSSAdapter(NewClient(5*time.Second, 1<<20, ""), 400)

	items, err := adapter.Fetch(context.Background(), rssSource(srv.URL, 1))
	require.NoError(t, err)
	assert.Len(t, items, 1)
}

func TestRSSAdapterLooseFallback(t *testing.T) {
	items := parseLoose(brokenRSS, 400)
	require.Len(t, items, 2)
	assert.Equal(t, "https://example.com/broken", items[0].URL)
	assert.Equal(t, "still usable", items[0].Description)
	require.NotNil(t, items[0].PublishedAt)
	assert.Equal(t, "Recovered story", items[1].Title)
	assert.Equal(t, "also fine", items[1].Description)
}

func TestRSSAdapterFetchErrorWrapped(t *testing.T) {
	srv := feedServer(t, "")
	srv.Close()
	adapter := NewRSSAdapter(NewClient(time.Second, 1<<20, ""), 400)

	_, err := adapter.Fetch(context.Background(), rssSource(srv.URL, 0))
	var fetchErr *FetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, "test feed", fetchErr.Source)
}

func TestRSSAdapterConfigValidation(t *testing.T) {
	adapter := NewRSSAdapter(NewClient(time.Second, 1<<20, ""), 400)

	tests := []struct {
		name   string
		config string
	}{
		{"missing url", `{}`},
		{"not a url", `{"url":"not a url"}`},
		{"limit out of range", `{"url":"https://example.com/feed","limit":500}`},
		{"malformed json", `{"url":`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := models.SourceDescriptor{Name: "bad", Type: TypeRSS, Config: json.RawMessage(tt.config)}
			_, err := adapter.Fetch(context.Background(), src)
			var cfgErr *ConfigError
			require.ErrorAs(t, err, &cfgErr)
			assert.Equal(t, "bad", cfgErr.Source)
		})
	}
}

func TestParseFeedTime(t *testing.T) {
	for _, raw := range []string{
		"Mon, 09 Mar 2026 10:00:00 +0000",
		"Mon, 9 Mar 2026 10:00:00 +0000",
		"2026-03-09T10:00:00Z",
		"2026-03-09 10:00:00",
	} {
		parsed := parseFeedTime(raw)
		require.NotNil(t, parsed, "layout %q", raw)
		assert.Equal(t, 9, parsed.Day())
	}
	assert.Nil(t, parseFeedTime("next tuesday"))
}

func TestCleanHTML(t *testing.T) {
	assert.Equal(t, "Hello world & more", cleanHTML("<p>Hello   <b>world</b></p> &amp; more"))
	assert.Equal(t, "", cleanHTML("<br/>"))
}

func TestExcerpt(t *testing.T) {
	assert.Equal(t, "short", excerpt("short", 10))
	assert.Equal(t, "exactlyten", excerpt("exactlyten", 10))
	assert.Equal(t, "toolongfor…", excerpt("toolongforthis", 10))
	assert.Equal(t, "unbounded", excerpt("unbounded", 0))
}
