package models

// RunOptions parameterizes one pipeline execution.
type RunOptions struct {
	DigestType DigestType `json:"digest_type"`
	DeepMode   bool       `json:"deep_mode"`
}

// RunSummary is the structured outcome handed back to the invoking shell.
type RunSummary struct {
	ItemsFetched     int      `json:"items_fetched"`
	ItemsAfterDedup  int      `json:"items_after_dedup"`
	ItemsSynthesized int      `json:"items_synthesized"`
	ItemsPushed      int      `json:"items_pushed"`
	Degraded         bool     `json:"degraded,omitempty"`
	Errors           []string `json:"errors,omitempty"`
}
