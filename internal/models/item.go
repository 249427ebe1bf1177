package models

import "time"

// Categories assigned by the synthesizer. CategoryTop is the capped
// high-priority bucket; everything else collapses into CategoryGeneral.
const (
	CategoryTop     = "hot"
	CategoryGeneral = "normal"
)

// FetchedItem is one normalized entry produced by a source adapter.
// It has no persistent identity and lives only within a single pipeline run.
type FetchedItem struct {
	Title       string     `json:"title"`
	URL         string     `json:"url"`
	Description string     `json:"description"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
	Author      string     `json:"author,omitempty"`
	SourceName  string     `json:"source_name"`
	SourceType  string     `json:"source_type"`
}

// SynthItem is one entry of the language-model synthesized digest.
// Its URL must trace back to a FetchedItem of the same run.
type SynthItem struct {
	Title    string `json:"title"`
	URL      string `json:"url"`
	Summary  string `json:"summary"`
	Category string `json:"category"`
	Source   string `json:"source"`
}
