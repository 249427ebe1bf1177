package source

import "fmt"

// FetchError is a network, parse or rate-limit failure of one source. The
// orchestrator isolates it: the source contributes zero items and the run
// continues.
type FetchError struct {
	Source string
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.Source, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// ConfigError is a malformed or invalid adapter config for one source. Same
// isolation policy as FetchError.
type ConfigError struct {
	Source string
	Err    error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config for %s: %v", e.Source, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }
