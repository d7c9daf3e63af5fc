package challenge

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound             = errors.New("challenge not found")
	ErrInvalidRequest       = errors.New("invalid request")
	ErrInvalidTransition    = errors.New("invalid status transition")
	ErrAppealNotEligible    = errors.New("challenge not eligible for appeal")
	ErrAppealAlreadyDecided = errors.New("appeal already decided")
	ErrAppealNotFound       = errors.New("no appeal filed")
	ErrPersistenceConflict  = errors.New("challenge was modified concurrently")
	ErrDownstreamDegraded   = errors.New("side effect failed after commit")

	// Details of ErrAppealNotEligible.
	ErrAlreadyAppealed   = errors.New("challenge already appealed")
	ErrNotAccepted       = errors.New("challenge not accepted")
	ErrChallengeNotFound = errors.New("no matching challenge")
	ErrNotContentOwner   = errors.New("appellant does not own the content")

	// Details of ErrInvalidRequest.
	ErrMissingTarget   = errors.New("missing target id")
	ErrMissingUser     = errors.New("missing user id")
	ErrMissingReason   = errors.New("missing challenge reason")
	ErrMissingMessage  = errors.New("missing appeal message")
	ErrInvalidDecision = errors.New("invalid decision")
)

// IsRetryable reports whether the same operation may succeed if simply repeated.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrPersistenceConflict)
}

func invalidRequest(detail error) error {
	return fmt.Errorf("%w: %w", ErrInvalidRequest, detail)
}

func notEligible(detail error) error {
	return fmt.Errorf("%w: %w", ErrAppealNotEligible, detail)
}

// SideEffectError describes a post-commit effect that failed. It matches ErrDownstreamDegraded.
type SideEffectError struct {
	Effect  string `json:"effect"`
	UserID  int64  `json:"user_id,omitempty"`
	Message string `json:"message"`
	cause   error
}

func (e SideEffectError) Error() string {
	if e.UserID > 0 {
		return fmt.Sprintf("%s (user %d): %s", e.Effect, e.UserID, e.Message)
	}

	return fmt.Sprintf("%s: %s", e.Effect, e.Message)
}

func (e SideEffectError) Unwrap() []error {
	return []error{ErrDownstreamDegraded, e.cause}
}
