package ai

import (
	"context"
	"fmt"
	"unicode/utf8"

	"newsbrief/internal/dedup"
	"newsbrief/internal/logger"
	"newsbrief/internal/models"
)

// Options tunes the synthesizer.
type Options struct {
	MaxItems        int
	MaxTop          int
	SummaryMaxChars int
	MaxTokens       int
	// StrictURLs drops synthesized items whose URL does not trace back to
	// the input set.
	StrictURLs bool
	Thresholds dedup.Thresholds
}

// Result is one synthesis outcome. When Degraded is set, no structured items
// could be recovered and RawText carries the unstructured digest body.
type Result struct {
	Items    []models.SynthItem
	RawText  string
	Degraded bool
}

// Synthesizer turns a filtered item batch into a ranked, categorized digest
// with one model call, recovering from malformed output where possible.
type Synthesizer struct {
	llm  Completer
	opts Options
}

// NewSynthesizer wires a model client.
func NewSynthesizer(llm Completer, opts Options) *Synthesizer {
	if opts.MaxItems <= 0 {
		opts.MaxItems = 12
	}
	if opts.MaxTop <= 0 {
		opts.MaxTop = 4
	}
	if opts.SummaryMaxChars <= 0 {
		opts.SummaryMaxChars = 140
	}
	return &Synthesizer{llm: llm, opts: opts}
}

// Synthesize calls the model once and parses its output through the repair
// cascade. A model failure is a run-level error; unparseable output with any
// text at all degrades to a raw-text digest instead.
func (s *Synthesizer) Synthesize(ctx context.Context, items []models.FetchedItem) (*Result, error) {
	prompt := BuildDigestPrompt(items, PromptLimits{
		MaxItems:        s.opts.MaxItems,
		MaxTop:          s.opts.MaxTop,
		SummaryMaxChars: s.opts.SummaryMaxChars,
	})

	raw, err := s.llm.Complete(ctx, []Message{{Role: "user", Content: prompt}}, s.opts.MaxTokens)
	if err != nil {
		return nil, fmt.Errorf("synthesis call failed: %w", err)
	}

	parsed, ok := ParseItems(raw)
	if !ok {
		logger.Warn().Int("raw_len", len(raw)).Msg("model output unparseable after repair cascade, degrading to raw text")
		return &Result{RawText: raw, Degraded: true}, nil
	}

	cleaned := s.sanitize(parsed, items)
	if len(cleaned) == 0 {
		logger.Warn().Msg("no synthesized item survived validation, degrading to raw text")
		return &Result{RawText: raw, Degraded: true}, nil
	}
	return &Result{Items: cleaned, RawText: raw}, nil
}

// sanitize enforces the output contract regardless of what the model
// actually returned: URL verification, category normalization, length caps,
// the high-priority cap and post-synthesis dedup.
func (s *Synthesizer) sanitize(parsed []models.SynthItem, inputs []models.FetchedItem) []models.SynthItem {
	inputURLs := make(map[string]struct{}, len(inputs))
	for _, in := range inputs {
		inputURLs[dedup.NormalizeURL(in.URL)] = struct{}{}
	}

	kept := make([]models.SynthItem, 0, len(parsed))
	for _, item := range parsed {
		if s.opts.StrictURLs {
			if _, ok := inputURLs[dedup.NormalizeURL(item.URL)]; !ok {
				logger.Warn().Str("url", item.URL).Msg("dropping synthesized item with fabricated url")
				continue
			}
		}
		if item.Category != models.CategoryTop {
			item.Category = models.CategoryGeneral
		}
		item.Title = truncateRunes(item.Title, 120)
		item.Summary = truncateRunes(item.Summary, s.opts.SummaryMaxChars)
		kept = append(kept, item)
	}

	kept = s.dedupSynthesized(kept)

	if len(kept) > s.opts.MaxItems {
		kept = kept[:s.opts.MaxItems]
	}

	// Reclassify overflow beyond the high-priority cap instead of dropping.
	top := 0
	for i := range kept {
		if kept[i].Category != models.CategoryTop {
			continue
		}
		top++
		if top > s.opts.MaxTop {
			kept[i].Category = models.CategoryGeneral
		}
	}
	return kept
}

// dedupSynthesized re-applies URL and fuzzy-title dedup: the model may still
// emit two items describing the same event from different input articles.
// On collision the high-priority item wins; otherwise first seen.
func (s *Synthesizer) dedupSynthesized(items []models.SynthItem) []models.SynthItem {
	var kept []models.SynthItem
	byURL := make(map[string]int)

	replaceIfHotter := func(at int, item models.SynthItem) {
		if item.Category == models.CategoryTop && kept[at].Category != models.CategoryTop {
			kept[at] = item
		}
	}

	for _, item := range items {
		normURL := dedup.NormalizeURL(item.URL)
		if at, dup := byURL[normURL]; dup {
			replaceIfHotter(at, item)
			continue
		}

		collided := false
		for at := range kept {
			if dedup.SimilarWith(item.Title, kept[at].Title, s.opts.Thresholds) {
				replaceIfHotter(at, item)
				collided = true
				break
			}
		}
		if collided {
			continue
		}

		byURL[normURL] = len(kept)
		kept = append(kept, item)
	}
	return kept
}

func truncateRunes(s string, max int) string {
	if max <= 0 || utf8.RuneCountInString(s) <= max {
		return s
	}
	rs := []rune(s)
	return string(rs[:max-1]) + "…"
}
