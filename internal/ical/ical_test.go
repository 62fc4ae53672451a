package ical

import (
	"strings"
	"testing"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/omriShneor/planit/internal/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExportCalendar(t *testing.T) {
	now := time.Date(2025, 1, 10, 8, 0, 0, 0, time.UTC)
	loc := time.FixedZone("", 2*3600)
	cal := &database.Calendar{ID: 1, Name: "Family"}
	events := []*database.Event{
		{
			ID: 7, CalendarID: 1, Title: "Dinner", Description: "at grandma's",
			StartTime: time.Date(2025, 1, 12, 19, 0, 0, 0, loc),
			EndTime:   time.Date(2025, 1, 12, 21, 0, 0, 0, loc),
			CreatedAt: now, UpdatedAt: now,
		},
		{
			ID: 8, CalendarID: 1, Title: "Brunch",
			StartTime: time.Date(2025, 1, 13, 10, 0, 0, 0, time.UTC),
			EndTime:   time.Date(2025, 1, 13, 11, 0, 0, 0, time.UTC),
			CreatedAt: now, UpdatedAt: now,
		},
	}

	out := ExportCalendar(cal, events)
	assert.True(t, strings.HasPrefix(out, "BEGIN:VCALENDAR"))
	assert.Contains(t, out, "X-WR-CALNAME:Family")
	assert.Contains(t, out, "UID:event-7@planit")

	parsed, err := ics.ParseCalendar(strings.NewReader(out))
	require.NoError(t, err)
	require.Len(t, parsed.Events(), 2)

	start, err := parsed.Events()[0].GetStartAt()
	require.NoError(t, err)
	assert.True(t, start.Equal(events[0].StartTime), "instant is preserved")
	assert.Equal(t, "Dinner", parsed.Events()[0].GetProperty(ics.ComponentPropertySummary).Value)
}

func TestParseEvents(t *testing.T) {
	data := strings.Join([]string{
		"BEGIN:VCALENDAR",
		"VERSION:2.0",
		"PRODID:-//test//EN",
		"BEGIN:VEVENT",
		"UID:a",
		"DTSTART:20250301T090000Z",
		"DTEND:20250301T100000Z",
		"SUMMARY:Standup",
		"END:VEVENT",
		"BEGIN:VEVENT",
		"UID:b",
		"DTSTART:20250302T090000Z",
		"END:VEVENT",
		"BEGIN:VEVENT",
		"UID:c",
		"SUMMARY:No start",
		"END:VEVENT",
		"END:VCALENDAR",
		"",
	}, "\r\n")

	events, skipped, err := ParseEvents(strings.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 1, skipped)
	require.Len(t, events, 2)

	assert.Equal(t, "Standup", events[0].Title)
	assert.Equal(t, time.Hour, events[0].End.Sub(events[0].Start))
	assert.Equal(t, "Untitled event", events[1].Title)
	assert.Equal(t, time.Hour, events[1].End.Sub(events[1].Start), "missing DTEND defaults to one hour")
}

func TestExpandTemplate(t *testing.T) {
	loc := time.FixedZone("", -5*3600)
	start := time.Date(2025, 6, 6, 18, 0, 0, 0, loc) // a Friday

	tests := []struct {
		name      string
		tpl       *database.Template
		count     int
		wantCount int
		wantGap   time.Duration
	}{
		{
			name:      "no rule gives one occurrence",
			tpl:       &database.Template{DurationMinutes: 90},
			count:     5,
			wantCount: 1,
		},
		{
			name:      "weekly",
			tpl:       &database.Template{DurationMinutes: 60, RRule: "FREQ=WEEKLY"},
			count:     4,
			wantCount: 4,
			wantGap:   7 * 24 * time.Hour,
		},
		{
			name:      "rule count stops early",
			tpl:       &database.Template{DurationMinutes: 30, RRule: "FREQ=DAILY;COUNT=3"},
			count:     10,
			wantCount: 3,
			wantGap:   24 * time.Hour,
		},
		{
			name:      "capped",
			tpl:       &database.Template{DurationMinutes: 15, RRule: "FREQ=DAILY"},
			count:     1000,
			wantCount: MaxOccurrences,
			wantGap:   24 * time.Hour,
		},
		{
			name:      "zero count means one",
			tpl:       &database.Template{DurationMinutes: 60, RRule: "FREQ=DAILY"},
			wantCount: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			occ, err := ExpandTemplate(tt.tpl, start, tt.count)
			require.NoError(t, err)
			require.Len(t, occ, tt.wantCount)

			assert.True(t, occ[0].Start.Equal(start))
			assert.Equal(t, tt.tpl.Duration(), occ[0].End.Sub(occ[0].Start))
			_, offset := occ[0].Start.Zone()
			assert.Equal(t, -5*3600, offset, "stated offset kept")
			if tt.wantGap > 0 && len(occ) > 1 {
				assert.Equal(t, tt.wantGap, occ[1].Start.Sub(occ[0].Start))
			}
		})
	}
}

func TestExpandTemplateInvalidRule(t *testing.T) {
	_, err := ExpandTemplate(&database.Template{DurationMinutes: 60, RRule: "FREQ=SOMETIMES"}, time.Now(), 2)
	assert.Error(t, err)
	assert.Error(t, ValidateRRule("FREQ=SOMETIMES"))
	assert.NoError(t, ValidateRRule(""))
	assert.NoError(t, ValidateRRule("FREQ=MONTHLY;BYMONTHDAY=1"))
}
