package draft

import (
	"errors"
	"fmt"
)

var (
	// ErrRange is returned for offsets or lengths outside the draft text.
	ErrRange = errors.New("range out of bounds")
	// ErrOverlapConflict means an annotation was inserted over another one.
	// Mutations always clear conflicts first, so seeing it is a bug.
	ErrOverlapConflict = errors.New("annotation overlaps an existing annotation")
	// ErrStaleSuggestion is returned when the suggested token changed before
	// the suggestion was accepted.
	ErrStaleSuggestion = errors.New("suggestion no longer matches the draft text")
	// ErrSuggestionCanceled completes lookups superseded by a newer mutation.
	ErrSuggestionCanceled = errors.New("suggestion lookup superseded")
	// ErrPublishFailure matches every error returned by PublishSink.
	ErrPublishFailure = errors.New("publish failed")
	// ErrEmptyDraft is returned when sending a draft with no text and no attachments.
	ErrEmptyDraft = errors.New("draft is empty")
)

// PublishError wraps the error returned by the publish sink verbatim.
type PublishError struct {
	Err error
}

func (e *PublishError) Error() string {
	return fmt.Sprintf("%v: %v", ErrPublishFailure, e.Err)
}

func (e *PublishError) Unwrap() []error {
	return []error{ErrPublishFailure, e.Err}
}

func rangeError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrRange, fmt.Sprintf(format, args...))
}
