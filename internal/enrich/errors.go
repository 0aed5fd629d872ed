package enrich

import "errors"

// ErrorKind classifies a round failure.
type ErrorKind string

const (
	// KindSourceUnavailable covers network failures, timeouts, and error
	// statuses from an external source.
	KindSourceUnavailable ErrorKind = "source_unavailable"
	// KindParseFailure means the source responded but the extractor could
	// not make sense of the content.
	KindParseFailure ErrorKind = "parse_failure"
)

// RoundError records a non-fatal failure from one enrichment round.
type RoundError struct {
	Round   int       `json:"round"`
	Source  string    `json:"source"`
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
}

// ParseFailureError marks an error as a parse failure so the orchestrator
// records it with the right kind. Anything else from a source is treated
// as the source being unavailable.
type ParseFailureError struct {
	Err error
}

func (e *ParseFailureError) Error() string { return e.Err.Error() }
func (e *ParseFailureError) Unwrap() error { return e.Err }

func classify(round int, source string, err error) RoundError {
	kind := KindSourceUnavailable
	var pf *ParseFailureError
	if errors.As(err, &pf) {
		kind = KindParseFailure
	}
	return RoundError{
		Round:   round,
		Source:  source,
		Kind:    kind,
		Message: err.Error(),
	}
}
