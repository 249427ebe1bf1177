package ai

import (
	"fmt"
	"strings"

	"newsbrief/internal/models"
)

// PromptLimits caps what the prompt asks the model to emit. The synthesizer
// re-enforces every limit locally; the prompt just makes compliance likely.
type PromptLimits struct {
	MaxItems        int
	MaxTop          int
	SummaryMaxChars int
}

const digestPromptHeader = `You are the editor of a technology news digest. From the input items below,
select and rank the most newsworthy stories, merge items covering the same
underlying event, and summarize each selected story.

Respond with ONLY a JSON array. Each element must be an object with exactly
these string fields: "title", "url", "summary", "category", "source".

Rules:
1. At most %d items total, ordered most to least important.
2. At most %d items may have category %q; every other item uses category %q.
3. "summary" must be at most %d characters.
4. "url" must be copied verbatim from an input item. Never invent, shorten or
   rewrite a URL.
5. "source" is the source label of the input item the story came from.
6. Inside JSON string values, write any embedded quotation mark as \" — never
   a bare " character.

Input items:
`

// BuildDigestPrompt renders the synthesis request for one batch.
func BuildDigestPrompt(items []models.FetchedItem, limits PromptLimits) string {
	var b strings.Builder
	fmt.Fprintf(&b, digestPromptHeader,
		limits.MaxItems, limits.MaxTop, models.CategoryTop, models.CategoryGeneral,
		limits.SummaryMaxChars)

	for i, item := range items {
		fmt.Fprintf(&b, "%d. [%s] %s\n   url: %s\n", i+1, item.SourceName, sanitizePromptText(item.Title), item.URL)
		if item.Description != "" {
			fmt.Fprintf(&b, "   note: %s\n", sanitizePromptText(item.Description))
		}
	}
	return b.String()
}

// BuildSummaryPrompt renders the deep-mode per-article summarization request.
func BuildSummaryPrompt(item models.FetchedItem, pageText string, maxChars int) string {
	return fmt.Sprintf(
		"Summarize the following article in at most %d characters. Respond with the summary text only.\n\nTitle: %s\n\n%s",
		maxChars, sanitizePromptText(item.Title), sanitizePromptText(pageText))
}

func sanitizePromptText(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "\t", " ")
	return strings.TrimSpace(s)
}
