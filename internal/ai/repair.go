package ai

import (
	"encoding/json"
	"strings"

	"newsbrief/internal/models"
)

// The model intermittently wraps its JSON in prose or code fences, or emits
// string values containing literal unescaped quotes. ParseItems runs an
// ordered list of pure candidate transforms, each tried as-is and after a
// quote-repair pass, and the first candidate yielding at least one valid
// item wins.

// transform derives one parse candidate from the raw response. ok=false
// means the transform does not apply to this input.
type transform func(string) (string, bool)

// candidateTransforms, in escalation order.
var candidateTransforms = []transform{
	asIs,
	stripCodeFence,
	trimToOuterArray,
	trimToBrackets,
	wrapSingleObject,
}

func asIs(s string) (string, bool) {
	return strings.TrimSpace(s), true
}

// stripCodeFence removes a surrounding ``` or ```json fence.
func stripCodeFence(s string) (string, bool) {
	t := strings.TrimSpace(s)
	if !strings.HasPrefix(t, "```") {
		return "", false
	}
	t = strings.TrimPrefix(t, "```json")
	t = strings.TrimPrefix(t, "```")
	t = strings.TrimSuffix(strings.TrimSpace(t), "```")
	return strings.TrimSpace(t), true
}

// trimToOuterArray drops leading/trailing prose around the outermost
// bracket-balanced [...] block.
func trimToOuterArray(s string) (string, bool) {
	start := strings.IndexByte(s, '[')
	if start < 0 {
		return "", false
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '[':
			depth++
		case ']':
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}

// trimToBrackets is the maximally aggressive trim: first '[' to last ']'.
func trimToBrackets(s string) (string, bool) {
	start := strings.IndexByte(s, '[')
	end := strings.LastIndexByte(s, ']')
	if start < 0 || end <= start {
		return "", false
	}
	return s[start : end+1], true
}

// wrapSingleObject rescues a response that is one JSON object instead of an
// array.
func wrapSingleObject(s string) (string, bool) {
	t := strings.TrimSpace(s)
	if fenced, ok := stripCodeFence(t); ok {
		t = fenced
	}
	if !strings.HasPrefix(t, "{") || !strings.HasSuffix(t, "}") {
		return "", false
	}
	return "[" + t + "]", true
}

// quoteReplacer maps full-width and curly double quotes to escaped straight
// quotes. Applied only in the repair pass so well-formed output is untouched.
var quoteReplacer = strings.NewReplacer(
	"“", `\"`, // “
	"”", `\"`, // ”
	"„", `\"`, // „
	"‟", `\"`, // ‟
	"＂", `\"`, // ＂
)

// knownFields are the item fields whose string values the quote repair is
// allowed to touch. Restricting the repair to these avoids corrupting
// well-formed JSON elsewhere.
var knownFields = map[string]struct{}{
	"title": {}, "url": {}, "summary": {}, "category": {}, "source": {},
}

// RepairQuotes maps exotic quote characters to escaped straight quotes and
// escapes bare embedded quotes inside known field values.
func RepairQuotes(s string) string {
	return repairFieldQuotes(quoteReplacer.Replace(s))
}

// repairFieldQuotes walks `"field": "value"` occurrences of the known fields
// and escapes unescaped quotes inside each value. The end of a value is the
// first unescaped quote followed (after spaces) by a ',' '}' or ']'.
func repairFieldQuotes(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	i := 0
	for i < len(s) {
		keyStart, valueStart, field := nextFieldValue(s, i)
		if keyStart < 0 {
			b.WriteString(s[i:])
			break
		}
		if _, known := knownFields[field]; !known {
			b.WriteString(s[i:valueStart])
			i = valueStart
			continue
		}

		valueEnd := findValueEnd(s, valueStart)
		if valueEnd < 0 {
			b.WriteString(s[i:])
			break
		}

		b.WriteString(s[i:valueStart])
		b.WriteString(escapeBareQuotes(s[valueStart:valueEnd]))
		b.WriteByte('"')
		i = valueEnd + 1
	}
	return b.String()
}

// nextFieldValue locates the next `"field"` key followed by `: "`, returning
// the key position, the index of the first value character, and the field
// name. Returns keyStart < 0 when no more keys exist.
func nextFieldValue(s string, from int) (keyStart, valueStart int, field string) {
	for i := from; i < len(s); i++ {
		if s[i] != '"' {
			continue
		}
		keyEnd := strings.IndexByte(s[i+1:], '"')
		if keyEnd < 0 {
			return -1, 0, ""
		}
		keyEnd += i + 1
		name := s[i+1 : keyEnd]

		j := keyEnd + 1
		for j < len(s) && (s[j] == ' ' || s[j] == '\t' || s[j] == '\n' || s[j] == '\r') {
			j++
		}
		if j >= len(s) || s[j] != ':' {
			continue
		}
		j++
		for j < len(s) && (s[j] == ' ' || s[j] == '\t' || s[j] == '\n' || s[j] == '\r') {
			j++
		}
		if j >= len(s) || s[j] != '"' {
			continue
		}
		return i, j + 1, name
	}
	return -1, 0, ""
}

// findValueEnd returns the index of the quote terminating the value that
// starts at `from`, or -1.
func findValueEnd(s string, from int) int {
	for i := from; i < len(s); i++ {
		switch s[i] {
		case '\\':
			i++
		case '"':
			j := i + 1
			for j < len(s) && (s[j] == ' ' || s[j] == '\t' || s[j] == '\n' || s[j] == '\r') {
				j++
			}
			if j >= len(s) || s[j] == ',' || s[j] == '}' || s[j] == ']' {
				return i
			}
		}
	}
	return -1
}

func escapeBareQuotes(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 4)
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) {
			b.WriteByte(s[i])
			b.WriteByte(s[i+1])
			i++
			continue
		}
		if s[i] == '"' {
			b.WriteString(`\"`)
			continue
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

// ParseItems runs the repair cascade over raw model output. It returns the
// first candidate's valid items (non-empty title, url and summary), or
// ok=false when nothing parses.
func ParseItems(raw string) ([]models.SynthItem, bool) {
	for _, t := range candidateTransforms {
		cand, applies := t(raw)
		if !applies || cand == "" {
			continue
		}
		for _, text := range []string{cand, RepairQuotes(cand)} {
			var parsed []models.SynthItem
			if err := json.Unmarshal([]byte(text), &parsed); err != nil {
				continue
			}
			valid := parsed[:0:0]
			for _, item := range parsed {
				if item.Title != "" && item.URL != "" && item.Summary != "" {
					valid = append(valid, item)
				}
			}
			if len(valid) > 0 {
				return valid, true
			}
		}
	}
	return nil, false
}
