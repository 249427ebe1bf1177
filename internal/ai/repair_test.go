package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const wellFormed = `[{"title":"A story","url":"https://example.com/a","summary":"Short note.","category":"hot","source":"rss"}]`

func TestParseItemsWellFormed(t *testing.T) {
	items, ok := ParseItems(wellFormed)
	require.True(t, ok)
	require.Len(t, items, 1)
	assert.Equal(t, "A story", items[0].Title)
	assert.Equal(t, "https://example.com/a", items[0].URL)
	assert.Equal(t, "hot", items[0].Category)
}

func TestParseItemsCodeFence(t *testing.T) {
	fenced := "```json\n" + wellFormed + "\n```"
	items, ok := ParseItems(fenced)
	require.True(t, ok)
	assert.Len(t, items, 1)

	bare := "```\n" + wellFormed + "\n```"
	items, ok = ParseItems(bare)
	require.True(t, ok)
	assert.Len(t, items, 1)
}

func TestParseItemsSurroundingProse(t *testing.T) {
	wrapped := "Here is the digest you asked for:\n" + wellFormed + "\nLet me know if you need anything else."
	items, ok := ParseItems(wrapped)
	require.True(t, ok)
	assert.Len(t, items, 1)
}

func TestParseItemsSingleObject(t *testing.T) {
	obj := `{"title":"Only one","url":"https://example.com/one","summary":"note","category":"normal","source":"rss"}`
	items, ok := ParseItems(obj)
	require.True(t, ok)
	require.Len(t, items, 1)
	assert.Equal(t, "Only one", items[0].Title)
}

func TestParseItemsUnescapedQuotesInSummary(t *testing.T) {
	raw := `[{"title":"Quote story","url":"https://example.com/q","summary":"He said "hello" and left.","category":"normal","source":"rss"}]`
	items, ok := ParseItems(raw)
	require.True(t, ok)
	require.Len(t, items, 1)
	assert.Equal(t, `He said "hello" and left.`, items[0].Summary)
}

func TestParseItemsCurlyQuotesInValidJSONPassThrough(t *testing.T) {
	raw := `[{"title":"Curly","url":"https://example.com/c","summary":"She said “fine” today.","category":"normal","source":"rss"}]`
	items, ok := ParseItems(raw)
	require.True(t, ok)
	require.Len(t, items, 1)
	// Valid JSON is parsed as-is; the quote repair never touches it.
	assert.Equal(t, "She said “fine” today.", items[0].Summary)
}

func TestParseItemsCurlyAndBareQuotesRepaired(t *testing.T) {
	raw := `[{"title":"Curly","url":"https://example.com/c","summary":"She said “fine” and "left".","category":"normal","source":"rss"}]`
	items, ok := ParseItems(raw)
	require.True(t, ok)
	require.Len(t, items, 1)
	assert.Equal(t, `She said "fine" and "left".`, items[0].Summary)
}

func TestParseItemsDropsIncompleteEntries(t *testing.T) {
	raw := `[
		{"title":"Complete","url":"https://example.com/a","summary":"ok","category":"hot","source":"rss"},
		{"title":"","url":"https://example.com/b","summary":"missing title","category":"normal","source":"rss"},
		{"title":"No summary","url":"https://example.com/c","summary":"","category":"normal","source":"rss"}
	]`
	items, ok := ParseItems(raw)
	require.True(t, ok)
	require.Len(t, items, 1)
	assert.Equal(t, "Complete", items[0].Title)
}

func TestParseItemsUnparseable(t *testing.T) {
	for _, raw := range []string{
		"",
		"I could not produce a digest today, sorry.",
		"[not json at all",
	} {
		_, ok := ParseItems(raw)
		assert.False(t, ok, "input %q", raw)
	}
}

func TestRepairQuotesLeavesWellFormedAlone(t *testing.T) {
	assert.Equal(t, wellFormed, RepairQuotes(wellFormed))
}

func TestRepairQuotesKeepsExistingEscapes(t *testing.T) {
	raw := `[{"title":"T","url":"https://example.com/a","summary":"already \"escaped\" here","category":"normal","source":"rss"}]`
	assert.Equal(t, raw, RepairQuotes(raw))
}

func TestTrimToOuterArrayIgnoresBracketsInStrings(t *testing.T) {
	raw := `prefix [{"title":"has ] bracket","url":"https://example.com/a","summary":"x","category":"normal","source":"rss"}] suffix`
	got, ok := trimToOuterArray(raw)
	require.True(t, ok)
	assert.Equal(t, `[{"title":"has ] bracket","url":"https://example.com/a","summary":"x","category":"normal","source":"rss"}]`, got)
}
