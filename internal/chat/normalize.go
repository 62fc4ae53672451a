package chat

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/omriShneor/planit/internal/timeutil"
)

const (
	untitledEvent   = "Untitled event"
	defaultDuration = time.Hour
)

// CandidateEvent is an event proposed by the model that passed validation.
// StartTime/EndTime are RFC3339 in the offset the user stated.
type CandidateEvent struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	StartTime   string    `json:"startTime"`
	EndTime     string    `json:"endTime"`
	Start       time.Time `json:"-"`
	End         time.Time `json:"-"`
}

// Rejection records a model element that was dropped.
type Rejection struct {
	Index int    `json:"index"`
	Title string `json:"title,omitempty"`
	Err   error  `json:"-"`
}

func (r Rejection) Error() string {
	return fmt.Sprintf("event %d (%q): %v", r.Index, r.Title, r.Err)
}

func (r Rejection) Unwrap() error {
	return r.Err
}

// modelEvent is one element of the model's output. Values are decoded loosely
// so that a single bad field rejects only its element.
type modelEvent struct {
	Title          any `json:"title"`
	Description    any `json:"description"`
	StartTime      any `json:"startTime"`
	EndTime        any `json:"endTime"`
	StartTimeSnake any `json:"start_time"`
	EndTimeSnake   any `json:"end_time"`
}

// Normalize parses sanitized model output into validated candidates.
//
// A bare object is treated as a one-element list and null as an empty one.
// Elements with a missing or unparseable start, an unparseable end, or an end
// not after the start are rejected individually; the rest continue. Offset-less
// times are read in loc.
func Normalize(sanitized, message string, loc *time.Location) ([]CandidateEvent, []Rejection, error) {
	elements, err := decodeElements(sanitized)
	if err != nil {
		return nil, nil, err
	}

	candidates := make([]CandidateEvent, 0, len(elements))
	var rejections []Rejection

	for i, raw := range elements {
		candidate, err := normalizeElement(raw, message, loc)
		if err != nil {
			rejections = append(rejections, Rejection{Index: i, Title: candidate.Title, Err: err})
			continue
		}
		candidates = append(candidates, candidate)
	}

	return candidates, rejections, nil
}

func decodeElements(sanitized string) ([]json.RawMessage, error) {
	trimmed := bytes.TrimSpace([]byte(sanitized))
	if !json.Valid(trimmed) {
		return nil, ErrInvalidModelOutput
	}

	switch {
	case len(trimmed) > 0 && trimmed[0] == '[':
		var elements []json.RawMessage
		if err := json.Unmarshal(trimmed, &elements); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidModelOutput, err)
		}
		return elements, nil
	case len(trimmed) > 0 && trimmed[0] == '{':
		return []json.RawMessage{trimmed}, nil
	case bytes.Equal(trimmed, []byte("null")):
		return nil, nil
	default:
		return nil, fmt.Errorf("%w: expected an array or object", ErrInvalidModelOutput)
	}
}

func normalizeElement(raw json.RawMessage, message string, loc *time.Location) (CandidateEvent, error) {
	var candidate CandidateEvent

	var ev modelEvent
	if err := json.Unmarshal(raw, &ev); err != nil {
		return candidate, ErrInvalidCandidate
	}

	title, _ := stringValue(ev.Title)
	candidate.Title = strings.TrimSpace(title)
	if candidate.Title == "" {
		candidate.Title = untitledEvent
	}

	description, _ := stringValue(ev.Description)
	candidate.Description = strings.TrimSpace(description)
	if candidate.Description == "" {
		candidate.Description = strings.TrimSpace(message)
	}

	startValue, ok := stringValue(firstPresent(ev.StartTime, ev.StartTimeSnake))
	if !ok || strings.TrimSpace(startValue) == "" {
		return candidate, fmt.Errorf("%w: missing start time", ErrInvalidEventDate)
	}
	start, err := timeutil.ParseDateTime(startValue, loc)
	if err != nil {
		return candidate, fmt.Errorf("%w: start %q", ErrInvalidEventDate, startValue)
	}

	end := start.Add(defaultDuration)
	endValue, ok := stringValue(firstPresent(ev.EndTime, ev.EndTimeSnake))
	if !ok {
		return candidate, fmt.Errorf("%w: end is not a string", ErrInvalidEventDate)
	}
	if strings.TrimSpace(endValue) != "" {
		end, err = timeutil.ParseDateTime(endValue, loc)
		if err != nil {
			return candidate, fmt.Errorf("%w: end %q", ErrInvalidEventDate, endValue)
		}
	}
	if !end.After(start) {
		return candidate, fmt.Errorf("%w: end %s is not after start %s", ErrInvalidEventDate,
			timeutil.FormatStated(end), timeutil.FormatStated(start))
	}

	candidate.Start = start
	candidate.End = end
	candidate.StartTime = timeutil.FormatStated(start)
	candidate.EndTime = timeutil.FormatStated(end)
	return candidate, nil
}

// stringValue returns v as a string. A nil value is an empty string; any other
// non-string type is reported as not ok.
func stringValue(v any) (string, bool) {
	switch s := v.(type) {
	case nil:
		return "", true
	case string:
		return s, true
	default:
		return "", false
	}
}

func firstPresent(values ...any) any {
	for _, v := range values {
		if v != nil {
			return v
		}
	}
	return nil
}
