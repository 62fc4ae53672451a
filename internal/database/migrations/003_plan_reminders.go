package migrations

import (
	"database/sql"
)

func init() {
	Register(Migration{
		Version: 3,
		Name:    "plan_reminders",
		Up:      planReminders,
	})
}

func planReminders(db *sql.DB) error {
	if err := AddColumnIfNotExists(db, "celebration_plans", "reminded_at", "DATETIME"); err != nil {
		return err
	}
	_, err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_celebration_plans_date ON celebration_plans(plan_date)`)
	return err
}
