package ical

import (
	"fmt"
	"time"

	"github.com/teambition/rrule-go"

	"github.com/omriShneor/planit/internal/database"
)

// MaxOccurrences caps how many events a single template application may create.
const MaxOccurrences = 100

// Occurrence is one concrete instance of a template.
type Occurrence struct {
	Start time.Time
	End   time.Time
}

// ExpandTemplate returns up to count occurrences of tpl starting at start.
// A template without an RRULE yields exactly one occurrence. The start's
// location is kept on every occurrence.
func ExpandTemplate(tpl *database.Template, start time.Time, count int) ([]Occurrence, error) {
	if count <= 0 {
		count = 1
	}
	if count > MaxOccurrences {
		count = MaxOccurrences
	}
	duration := tpl.Duration()

	if tpl.RRule == "" {
		return []Occurrence{{Start: start, End: start.Add(duration)}}, nil
	}

	r, err := rrule.StrToRRule(tpl.RRule)
	if err != nil {
		return nil, fmt.Errorf("invalid recurrence rule %q: %w", tpl.RRule, err)
	}
	r.DTStart(start)

	out := make([]Occurrence, 0, count)
	next := r.Iterator()
	for len(out) < count {
		occStart, ok := next()
		if !ok {
			break
		}
		out = append(out, Occurrence{Start: occStart, End: occStart.Add(duration)})
	}

	return out, nil
}

// ValidateRRule reports whether rule parses.
func ValidateRRule(rule string) error {
	if rule == "" {
		return nil
	}
	if _, err := rrule.StrToRRule(rule); err != nil {
		return fmt.Errorf("invalid recurrence rule %q: %w", rule, err)
	}
	return nil
}
