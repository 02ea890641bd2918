package domain

import "fmt"

// ConfigurationError reports invalid pipeline parameters. Fatal, not retried.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string { return "configuration: " + e.Reason }

// IndexUnavailableError reports a missing index or an unreachable index or
// embedding endpoint. The durable store write preceding an index build is
// unaffected; callers may retry after backoff.
type IndexUnavailableError struct {
	Name string
	Err  error
}

func (e *IndexUnavailableError) Error() string {
	return fmt.Sprintf("index %q unavailable: %v", e.Name, e.Err)
}

func (e *IndexUnavailableError) Unwrap() error { return e.Err }

// GenerationError reports a failed or empty completion. ContextPresent
// distinguishes "no grounding found" failures from plain generation failures.
type GenerationError struct {
	Question       string
	ContextPresent bool
	Err            error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generating answer for %q (context present: %t): %v", e.Question, e.ContextPresent, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }
