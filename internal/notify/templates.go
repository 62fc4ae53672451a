package notify

import (
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/omriShneor/planit/internal/database"
)

// EventSummary is one line of an "events added" email
type EventSummary struct {
	Title string
	Start time.Time
	End   time.Time
}

const emailLayout = `
<!DOCTYPE html>
<html>
<head>
  <meta charset="utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
</head>
<body style="font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, 'Helvetica Neue', Arial, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px; background-color: #f5f5f5;">
  <div style="background-color: white; border-radius: 8px; padding: 24px; box-shadow: 0 2px 4px rgba(0,0,0,0.1);">
    <h2 style="margin: 0 0 16px 0; color: #333;">%s</h2>
    %s
    <a href="%s" style="display: inline-block; background: #3174ad; color: white; padding: 12px 24px; text-decoration: none; border-radius: 6px; margin-top: 16px; font-weight: 500;">
      %s
    </a>
    <hr style="margin-top: 32px; border: none; border-top: 1px solid #eee;">
    <p style="color: #999; font-size: 12px; margin-top: 16px;">Planit</p>
  </div>
</body>
</html>`

func renderEmail(heading, body, link, linkLabel string) string {
	return fmt.Sprintf(emailLayout, html.EscapeString(heading), body, link, linkLabel)
}

// formatRange renders a start/end pair, collapsing the end to a clock time on the same day.
func formatRange(start, end time.Time) string {
	s := start.Format("Monday, January 2, 2006 at 3:04 PM")
	if end.IsZero() {
		return s
	}
	if start.Format("2006-01-02") == end.Format("2006-01-02") {
		return s + " - " + end.Format("3:04 PM")
	}
	return s + " - " + end.Format("Monday, January 2, 2006 at 3:04 PM")
}

// EventsAddedMessage renders the summary sent after chat created events.
func EventsAddedMessage(events []EventSummary, appURL string) Message {
	var rows strings.Builder
	for _, e := range events {
		fmt.Fprintf(&rows,
			`<div style="background: #f8f9fa; padding: 12px 16px; border-radius: 8px; margin: 8px 0; border-left: 4px solid #3174ad;"><strong>%s</strong><br><span style="color: #555;">%s</span></div>`,
			html.EscapeString(e.Title), formatRange(e.Start, e.End))
	}

	subject := fmt.Sprintf("%d events added to your calendar", len(events))
	if len(events) == 1 {
		subject = fmt.Sprintf("Added to your calendar: %s", events[0].Title)
	}

	return Message{
		Subject: subject,
		HTML:    renderEmail(subject, rows.String(), appURL+"/calendar", "Open Calendar"),
	}
}

// PlanReminderMessage renders the reminder for an upcoming celebration.
func PlanReminderMessage(plan *database.CelebrationPlan, appURL string) Message {
	var body strings.Builder
	fmt.Fprintf(&body, `<p style="margin: 8px 0;"><strong>Date:</strong> %s</p>`, plan.PlanDate.Format("Monday, January 2, 2006"))
	if plan.Celebrant != "" {
		fmt.Fprintf(&body, `<p style="margin: 8px 0;"><strong>Celebrating:</strong> %s</p>`, html.EscapeString(plan.Celebrant))
	}
	if plan.BudgetCents > 0 {
		fmt.Fprintf(&body, `<p style="margin: 8px 0;"><strong>Saved:</strong> %s of %s</p>`,
			formatCents(plan.SavedCents), formatCents(plan.BudgetCents))
	}
	if plan.Notes != "" {
		fmt.Fprintf(&body, `<p style="margin: 16px 0; color: #666;">%s</p>`, html.EscapeString(plan.Notes))
	}

	subject := fmt.Sprintf("Coming up: %s", plan.Title)
	return Message{
		Subject: subject,
		HTML:    renderEmail(subject, body.String(), fmt.Sprintf("%s/plans/%d", appURL, plan.ID), "View Plan"),
	}
}

func formatCents(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}
