package dedup

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Thresholds tunes the fuzzy title matcher. The defaults were chosen against
// real digest batches; false positives and negatives are expected.
type Thresholds struct {
	// MinEntityLen is the minimum length of a contiguous alphabetic run to
	// count as a named-entity token.
	MinEntityLen int
	// ShortTitleLen is the normalized rune length below which a single shared
	// entity token is enough to call two titles similar.
	ShortTitleLen int
	// BigramJaccard is the character-bigram overlap above which two titles
	// are considered similar.
	BigramJaccard float64
}

// DefaultThresholds returns the tuning used by the pipeline.
func DefaultThresholds() Thresholds {
	return Thresholds{
		MinEntityLen:  4,
		ShortTitleLen: 30,
		BigramJaccard: 0.35,
	}
}

// Similar reports whether two titles likely describe the same story, using
// DefaultThresholds. The relation is symmetric.
func Similar(a, b string) bool {
	return SimilarWith(a, b, DefaultThresholds())
}

// SimilarWith is Similar with explicit thresholds.
func SimilarWith(a, b string, th Thresholds) bool {
	na, nb := NormalizeTitle(a), NormalizeTitle(b)
	if na == "" || nb == "" {
		return false
	}
	if na == nb {
		return true
	}
	if strings.Contains(na, nb) || strings.Contains(nb, na) {
		return true
	}

	entA, numA := tokenize(a, th.MinEntityLen)
	entB, numB := tokenize(b, th.MinEntityLen)
	sharedEntity := intersects(entA, entB)
	if sharedEntity && intersects(numA, numB) {
		return true
	}
	if sharedEntity &&
		utf8.RuneCountInString(na) < th.ShortTitleLen &&
		utf8.RuneCountInString(nb) < th.ShortTitleLen {
		return true
	}

	return bigramJaccard(na, nb) > th.BigramJaccard
}

// tokenize splits a title into entity tokens (contiguous alphabetic runs of
// at least minEntity runes, lowercased) and numeric tokens.
func tokenize(title string, minEntity int) (entities, numbers map[string]struct{}) {
	entities = make(map[string]struct{})
	numbers = make(map[string]struct{})

	var run []rune
	flush := func(numeric bool) {
		if len(run) == 0 {
			return
		}
		tok := strings.ToLower(string(run))
		if numeric {
			numbers[tok] = struct{}{}
		} else if len(run) >= minEntity {
			entities[tok] = struct{}{}
		}
		run = run[:0]
	}

	var numericRun bool
	for _, r := range title {
		switch {
		case unicode.IsLetter(r):
			if numericRun {
				flush(true)
			}
			numericRun = false
			run = append(run, r)
		case unicode.IsDigit(r):
			if !numericRun {
				flush(false)
			}
			numericRun = true
			run = append(run, r)
		default:
			flush(numericRun)
			numericRun = false
		}
	}
	flush(numericRun)
	return entities, numbers
}

func intersects(a, b map[string]struct{}) bool {
	if len(a) > len(b) {
		a, b = b, a
	}
	for k := range a {
		if _, ok := b[k]; ok {
			return true
		}
	}
	return false
}

func bigrams(s string) map[string]struct{} {
	rs := []rune(s)
	set := make(map[string]struct{}, len(rs))
	for i := 0; i+1 < len(rs); i++ {
		set[string(rs[i:i+2])] = struct{}{}
	}
	return set
}

func bigramJaccard(a, b string) float64 {
	ba, bb := bigrams(a), bigrams(b)
	if len(ba) == 0 || len(bb) == 0 {
		return 0
	}
	inter := 0
	for k := range ba {
		if _, ok := bb[k]; ok {
			inter++
		}
	}
	union := len(ba) + len(bb) - inter
	return float64(inter) / float64(union)
}
