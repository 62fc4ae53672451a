package database

import (
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// CelebrationPlan is a planned celebration (birthday, anniversary, party)
// with a budget tracked against savings transactions.
type CelebrationPlan struct {
	ID          int64      `json:"id"`
	UserID      int64      `json:"user_id"`
	GroupID     *int64     `json:"group_id,omitempty"`
	Title       string     `json:"title"`
	Celebrant   string     `json:"celebrant"`
	PlanDate    time.Time  `json:"plan_date"`
	BudgetCents int64      `json:"budget_cents"`
	Notes       string     `json:"notes"`
	SavedCents  int64      `json:"saved_cents"`
	RemindedAt  *time.Time `json:"reminded_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// PlanUpdate carries the fields of a partial plan update.
type PlanUpdate struct {
	Title       *string
	Celebrant   *string
	PlanDate    *time.Time
	BudgetCents *int64
	Notes       *string
}

const planSelect = `
	SELECT p.id, p.user_id, p.group_id, p.title, p.celebrant, p.plan_date, p.budget_cents, p.notes,
		COALESCE((
			SELECT SUM(CASE t.kind WHEN 'deposit' THEN t.amount_cents ELSE -t.amount_cents END)
			FROM transactions t WHERE t.plan_id = p.id
		), 0),
		p.reminded_at, p.created_at, p.updated_at
	FROM celebration_plans p`

// planAccess restricts p to plans the user owns or shares through a group.
const planAccess = `(p.user_id = ? OR p.group_id IN (SELECT group_id FROM group_members WHERE user_id = ?))`

func scanPlan(row rowScanner) (*CelebrationPlan, error) {
	var p CelebrationPlan
	var groupID sql.NullInt64
	var remindedAt sql.NullTime
	if err := row.Scan(
		&p.ID, &p.UserID, &groupID, &p.Title, &p.Celebrant, &p.PlanDate, &p.BudgetCents, &p.Notes,
		&p.SavedCents, &remindedAt, &p.CreatedAt, &p.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if groupID.Valid {
		p.GroupID = &groupID.Int64
	}
	if remindedAt.Valid {
		p.RemindedAt = &remindedAt.Time
	}
	return &p, nil
}

// CreatePlan inserts a celebration plan. A group plan requires the user to be a member.
func (d *DB) CreatePlan(plan *CelebrationPlan) (*CelebrationPlan, error) {
	plan.Title = strings.TrimSpace(plan.Title)
	if plan.Title == "" {
		return nil, invalidf("plan title is required")
	}
	if plan.PlanDate.IsZero() {
		return nil, invalidf("plan date is required")
	}
	if plan.BudgetCents < 0 {
		return nil, invalidf("budget cannot be negative")
	}
	if plan.GroupID != nil {
		member, err := d.IsGroupMember(plan.UserID, *plan.GroupID)
		if err != nil {
			return nil, err
		}
		if !member {
			return nil, fmt.Errorf("group: %w", ErrNotFound)
		}
	}

	result, err := d.Exec(`
		INSERT INTO celebration_plans (user_id, group_id, title, celebrant, plan_date, budget_cents, notes)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, plan.UserID, plan.GroupID, plan.Title, plan.Celebrant, plan.PlanDate, plan.BudgetCents, plan.Notes)
	if err != nil {
		return nil, fmt.Errorf("failed to create plan: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get plan id: %w", err)
	}

	plan.ID = id
	plan.CreatedAt = time.Now()
	plan.UpdatedAt = plan.CreatedAt
	return plan, nil
}

// GetPlanForUser returns a plan (with its saved total) visible to userID.
func (d *DB) GetPlanForUser(userID, id int64) (*CelebrationPlan, error) {
	row := d.QueryRow(planSelect+` WHERE p.id = ? AND `+planAccess, id, userID, userID)
	plan, err := scanPlan(row)
	if err != nil {
		return nil, notFound(err, "plan")
	}
	return plan, nil
}

// ListPlansForUser lists visible plans ordered by date.
func (d *DB) ListPlansForUser(userID int64) ([]*CelebrationPlan, error) {
	rows, err := d.Query(planSelect+` WHERE `+planAccess+` ORDER BY julianday(p.plan_date), p.id`, userID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list plans: %w", err)
	}
	defer rows.Close()
	return collectPlans(rows)
}

// ListPlansDueForReminder returns plans dated within [now, now+lead) that have not been reminded.
func (d *DB) ListPlansDueForReminder(now time.Time, lead time.Duration) ([]*CelebrationPlan, error) {
	rows, err := d.Query(planSelect+`
		WHERE p.reminded_at IS NULL
			AND julianday(p.plan_date) >= julianday(?)
			AND julianday(p.plan_date) < julianday(?)
		ORDER BY julianday(p.plan_date), p.id
	`, now, now.Add(lead))
	if err != nil {
		return nil, fmt.Errorf("failed to list due plans: %w", err)
	}
	defer rows.Close()
	return collectPlans(rows)
}

func collectPlans(rows *sql.Rows) ([]*CelebrationPlan, error) {
	plans := make([]*CelebrationPlan, 0)
	for rows.Next() {
		plan, err := scanPlan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan plan: %w", err)
		}
		plans = append(plans, plan)
	}
	return plans, rows.Err()
}

// UpdatePlanForUser applies a partial update to a plan the user owns.
func (d *DB) UpdatePlanForUser(userID, id int64, update PlanUpdate) (*CelebrationPlan, error) {
	plan, err := d.GetPlanForUser(userID, id)
	if err != nil {
		return nil, err
	}
	if plan.UserID != userID {
		return nil, fmt.Errorf("plan: %w", ErrNotFound)
	}

	if update.Title != nil {
		plan.Title = strings.TrimSpace(*update.Title)
	}
	if update.Celebrant != nil {
		plan.Celebrant = *update.Celebrant
	}
	if update.PlanDate != nil {
		plan.PlanDate = *update.PlanDate
	}
	if update.BudgetCents != nil {
		plan.BudgetCents = *update.BudgetCents
	}
	if update.Notes != nil {
		plan.Notes = *update.Notes
	}
	if plan.Title == "" {
		return nil, invalidf("plan title is required")
	}
	if plan.BudgetCents < 0 {
		return nil, invalidf("budget cannot be negative")
	}

	// A moved date deserves a fresh reminder.
	_, err = d.Exec(`
		UPDATE celebration_plans
		SET title = ?, celebrant = ?, plan_date = ?, budget_cents = ?, notes = ?,
			reminded_at = CASE WHEN ? THEN NULL ELSE reminded_at END,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, plan.Title, plan.Celebrant, plan.PlanDate, plan.BudgetCents, plan.Notes, update.PlanDate != nil, id)
	if err != nil {
		return nil, fmt.Errorf("failed to update plan: %w", err)
	}
	if update.PlanDate != nil {
		plan.RemindedAt = nil
	}

	plan.UpdatedAt = time.Now()
	return plan, nil
}

// MarkPlanReminded records that a reminder was sent.
func (d *DB) MarkPlanReminded(id int64, at time.Time) error {
	result, err := d.Exec(`UPDATE celebration_plans SET reminded_at = ? WHERE id = ?`, at, id)
	if err != nil {
		return fmt.Errorf("failed to mark plan reminded: %w", err)
	}
	return checkAffected(result, "plan")
}

// DeletePlanForUser deletes a plan the user owns.
func (d *DB) DeletePlanForUser(userID, id int64) error {
	result, err := d.Exec(`DELETE FROM celebration_plans WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete plan: %w", err)
	}
	return checkAffected(result, "plan")
}
