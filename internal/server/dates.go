package server

import (
	"time"

	"github.com/omriShneor/planit/internal/timeutil"
)

// parseDay accepts a full date-time or a bare date, which lands at 09:00 in loc.
func parseDay(value string, loc *time.Location) (time.Time, error) {
	if t, err := timeutil.ParseDateTime(value, loc); err == nil {
		return t, nil
	}
	return timeutil.ParseDateWithDefaultTime(value, loc, 9, 0)
}
