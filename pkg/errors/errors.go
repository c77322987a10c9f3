// Package errors defines the error vocabulary of the resolution engine.
// Per-row failures carry one of a fixed set of reasons so that batch reports
// can count and list them separately; the two fatal kinds (namespace
// collision, incomplete merge) indicate data-corruption risk and must stop
// the affected unit of work rather than being recorded and skipped.
package errors

import (
	"errors"
	"fmt"
)

// New returns an error that formats as the given text.
// It's an alias for the standard library errors.New for convenience.
var New = errors.New

// Is reports whether any error in err's tree matches target.
var Is = errors.Is

// As finds the first error in err's tree that matches target.
var As = errors.As

// Per-row failure kinds. These are recovered locally: the row is recorded
// as failed with its reason and the batch continues.
var (
	// ErrEmptyInput indicates a required field was missing or blank.
	ErrEmptyInput = errors.New("empty input")

	// ErrParseFailure indicates a fixture string matched none of the
	// recognized shapes.
	ErrParseFailure = errors.New("unparseable fixture string")

	// ErrInvalidDate indicates a date field was present but unparsable.
	ErrInvalidDate = errors.New("invalid date")

	// ErrNoCandidatesOnDate indicates zero stored records exist for the
	// target date.
	ErrNoCandidatesOnDate = errors.New("no candidates on date")

	// ErrTooManyCandidates indicates the candidate set exceeded the
	// configured bound; fuzzy matching was refused, not attempted.
	ErrTooManyCandidates = errors.New("too many candidates")

	// ErrBelowThreshold indicates fuzzy matching ran but no candidate
	// reached the similarity threshold.
	ErrBelowThreshold = errors.New("below similarity threshold")

	// ErrNotFound indicates a requested record was not found in either
	// namespace.
	ErrNotFound = errors.New("not found")
)

// Fatal kinds. The responsible unit of work must be aborted and surfaced
// to the operator.
var (
	// ErrNamespaceCollision indicates an allocation or decode produced an
	// ambiguous or duplicate canonical ID.
	ErrNamespaceCollision = errors.New("namespace collision")

	// ErrMergeIncomplete indicates a duplicate-group repoint did not move
	// every dependent reference before deletion was attempted.
	ErrMergeIncomplete = errors.New("merge incomplete")
)

// Reason strings for batch reporting. Stable identifiers, not prose.
const (
	ReasonEmptyInput        = "empty_input"
	ReasonParseFailure      = "parse_failure"
	ReasonInvalidDate       = "invalid_date"
	ReasonNoCandidates      = "no_candidates_on_date"
	ReasonTooManyCandidates = "too_many_candidates"
	ReasonBelowThreshold    = "below_threshold"
	ReasonNotFound          = "not_found"
	ReasonCollision         = "namespace_collision"
	ReasonMergeIncomplete   = "merge_incomplete"
	ReasonUnknown           = "unknown"
)

// Reason maps any error to its enumerable reason string. Unrecognized
// errors map to ReasonUnknown so that report consumers never see free text
// where a reason is expected.
func Reason(err error) string {
	switch {
	case errors.Is(err, ErrEmptyInput):
		return ReasonEmptyInput
	case errors.Is(err, ErrParseFailure):
		return ReasonParseFailure
	case errors.Is(err, ErrInvalidDate):
		return ReasonInvalidDate
	case errors.Is(err, ErrNoCandidatesOnDate):
		return ReasonNoCandidates
	case errors.Is(err, ErrTooManyCandidates):
		return ReasonTooManyCandidates
	case errors.Is(err, ErrBelowThreshold):
		return ReasonBelowThreshold
	case errors.Is(err, ErrNamespaceCollision):
		return ReasonCollision
	case errors.Is(err, ErrMergeIncomplete):
		return ReasonMergeIncomplete
	case errors.Is(err, ErrNotFound):
		return ReasonNotFound
	default:
		return ReasonUnknown
	}
}

// IsFatal reports whether err is one of the kinds that must abort the
// responsible unit of work rather than being recorded per row.
func IsFatal(err error) bool {
	return errors.Is(err, ErrNamespaceCollision) || errors.Is(err, ErrMergeIncomplete)
}

// ResolutionError records why a single input failed to resolve. It wraps
// one of the per-row sentinels so errors.Is keeps working through it.
type ResolutionError struct {
	Kind  string // "player", "fixture", "scout"
	Input string // the search text as received
	Err   error  // the sentinel (possibly wrapped)
}

// Error implements the error interface.
func (e *ResolutionError) Error() string {
	if e.Input != "" {
		return fmt.Sprintf("resolve %s %q: %v", e.Kind, e.Input, e.Err)
	}
	return fmt.Sprintf("resolve %s: %v", e.Kind, e.Err)
}

// Unwrap implements errors.Unwrap.
func (e *ResolutionError) Unwrap() error {
	return e.Err
}

// WrapResolution wraps an error with the entity kind and input that failed.
func WrapResolution(kind, input string, err error) error {
	if err == nil {
		return nil
	}
	return &ResolutionError{Kind: kind, Input: input, Err: err}
}

// CollisionError reports a canonical-ID invariant violation. Always fatal.
type CollisionError struct {
	Kind    string // entity kind
	LocalID int64  // the ambiguous namespace-local integer
	Detail  string
}

// Error implements the error interface.
func (e *CollisionError) Error() string {
	return fmt.Sprintf("namespace collision on %s id %d: %s", e.Kind, e.LocalID, e.Detail)
}

// Is implements errors.Is support.
func (e *CollisionError) Is(target error) bool {
	return target == ErrNamespaceCollision
}

// MergeError reports a failed duplicate-group merge. The group must be left
// untouched when this is returned.
type MergeError struct {
	Survivor string // canonical ID of the intended survivor
	Losers   []string
	Expected int // dependent references that had to move
	Moved    int
	Err      error
}

// Error implements the error interface.
func (e *MergeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("merge into %s: %v", e.Survivor, e.Err)
	}
	return fmt.Sprintf("merge into %s: moved %d of %d dependent references", e.Survivor, e.Moved, e.Expected)
}

// Unwrap implements errors.Unwrap.
func (e *MergeError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support.
func (e *MergeError) Is(target error) bool {
	return target == ErrMergeIncomplete
}

// NotFoundError reports a record missing from both namespaces.
type NotFoundError struct {
	Kind string
	ID   int64
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s with id %d not found in either namespace", e.Kind, e.ID)
}

// Is implements errors.Is support.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// Helper predicates for the common checks.

// IsNotFound checks if an error is a not found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsTooManyCandidates checks if an error is a candidate-cap refusal.
func IsTooManyCandidates(err error) bool {
	return errors.Is(err, ErrTooManyCandidates)
}

// IsBelowThreshold checks if an error is a fuzzy miss.
func IsBelowThreshold(err error) bool {
	return errors.Is(err, ErrBelowThreshold)
}
