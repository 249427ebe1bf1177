package pipeline

import (
	"fmt"
	"strings"

	"newsbrief/internal/ai"
	"newsbrief/internal/models"
)

// RenderMarkdown turns a synthesis result into the digest document persisted
// with the run. Degraded results carry the raw model text as the body.
func RenderMarkdown(digestType models.DigestType, result *ai.Result) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s digest\n\n", digestType)

	if result.Degraded {
		b.WriteString(strings.TrimSpace(result.RawText))
		b.WriteString("\n")
		return b.String()
	}

	for _, item := range result.Items {
		marker := ""
		if item.Category == models.CategoryTop {
			marker = "🔥 "
		}
		fmt.Fprintf(&b, "## %s[%s](%s)\n\n%s\n\n*%s*\n\n", marker, item.Title, item.URL, item.Summary, item.Source)
	}
	return b.String()
}
