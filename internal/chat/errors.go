package chat

import (
	"context"
	"errors"
	"fmt"

	"github.com/omriShneor/planit/internal/llm"
)

// Stage is a step of the extraction pipeline
type Stage string

const (
	StageReceived      Stage = "received"
	StageExtracting    Stage = "extracting"
	StageSanitizing    Stage = "sanitizing"
	StageNormalizing   Stage = "normalizing"
	StageMaterializing Stage = "materializing"
	StageCompleted     Stage = "completed"
)

var (
	ErrEmptyMessage              = errors.New("message is required")
	ErrConfiguration             = errors.New("event extraction is not configured")
	ErrServiceUnreachable        = errors.New("extraction service unreachable")
	ErrUnauthorized              = errors.New("extraction service rejected credentials")
	ErrMalformedProviderResponse = errors.New("extraction service returned no completion")
	ErrExtractionFailed          = errors.New("extraction request failed")
	ErrInvalidModelOutput        = errors.New("model output is not valid JSON")
	ErrInvalidCandidate          = errors.New("candidate is not an event object")
	ErrInvalidEventDate          = errors.New("candidate has an invalid date")
	ErrNoEventsExtracted         = errors.New("no events could be extracted")
	ErrEventCreationFailed       = errors.New("no event could be created")
)

// Error is a pipeline failure tagged with the stage it happened in.
type Error struct {
	Stage Stage
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("chat pipeline failed while %s: %v", e.Stage, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func fail(stage Stage, err error) *Error {
	return &Error{Stage: stage, Err: err}
}

// classifyExtractError maps an extractor failure onto the pipeline taxonomy,
// keeping the original error in the chain.
func classifyExtractError(err error) error {
	switch {
	case errors.Is(err, llm.ErrNotConfigured):
		return fmt.Errorf("%w: %w", ErrConfiguration, err)
	case errors.Is(err, llm.ErrUnauthorized):
		return fmt.Errorf("%w: %w", ErrUnauthorized, err)
	case errors.Is(err, llm.ErrServiceUnreachable),
		errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: %w", ErrServiceUnreachable, err)
	case errors.Is(err, llm.ErrMalformedResponse):
		return fmt.Errorf("%w: %w", ErrMalformedProviderResponse, err)
	default:
		return fmt.Errorf("%w: %w", ErrExtractionFailed, err)
	}
}
