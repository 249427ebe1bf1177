package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// DigestType identifies the cadence that produced a digest run.
type DigestType string

const (
	DigestMorning DigestType = "morning"
	DigestEvening DigestType = "evening"
	DigestWeekly  DigestType = "weekly"
)

// ParseDigestType validates a raw digest type string.
func ParseDigestType(s string) (DigestType, error) {
	switch DigestType(s) {
	case DigestMorning, DigestEvening, DigestWeekly:
		return DigestType(s), nil
	}
	return "", fmt.Errorf("unknown digest type %q", s)
}

// Digest is one persisted synthesis result: the rendered markdown body plus
// the structured metadata blob handed back by the synthesizer.
type Digest struct {
	ID        int64      `json:"id"`
	Type      DigestType `json:"type"`
	Content   string     `json:"content"`
	Metadata  string     `json:"metadata"`
	CreatedAt time.Time  `json:"created_at"`
}

// PushRecord is the only state that survives across runs. It is created by
// the distribution stage and mutated only by insert and bulk pruning.
type PushRecord struct {
	URLHash    string     `json:"url_hash"`
	TitleHash  string     `json:"title_hash"`
	Title      string     `json:"title"`
	URL        string     `json:"url"`
	DigestType DigestType `json:"digest_type"`
	PushedAt   time.Time  `json:"pushed_at"`
}

// SourceDescriptor is the source registry's record of one upstream source.
// Config is opaque here; the matching adapter decodes and validates it.
type SourceDescriptor struct {
	ID     int64           `json:"id"`
	Name   string          `json:"name"`
	Type   string          `json:"type"`
	Config json.RawMessage `json:"config"`
}
