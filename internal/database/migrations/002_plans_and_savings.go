package migrations

import (
	"database/sql"
)

func init() {
	Register(Migration{
		Version: 2,
		Name:    "plans_templates_savings",
		Up:      plansTemplatesSavings,
	})
}

func plansTemplatesSavings(db *sql.DB) error {
	return execAll(db, []string{
		`CREATE TABLE IF NOT EXISTS celebration_plans (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id INTEGER NOT NULL,
			group_id INTEGER,
			title TEXT NOT NULL,
			celebrant TEXT NOT NULL DEFAULT '',
			plan_date DATETIME NOT NULL,
			budget_cents INTEGER NOT NULL DEFAULT 0 CHECK(budget_cents >= 0),
			notes TEXT NOT NULL DEFAULT '',
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY(user_id) REFERENCES users(id) ON DELETE CASCADE,
			FOREIGN KEY(group_id) REFERENCES user_groups(id) ON DELETE SET NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_celebration_plans_user ON celebration_plans(user_id)`,

		`CREATE TABLE IF NOT EXISTS transactions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id INTEGER NOT NULL,
			plan_id INTEGER,
			kind TEXT NOT NULL CHECK(kind IN ('deposit', 'withdrawal')),
			amount_cents INTEGER NOT NULL CHECK(amount_cents > 0),
			note TEXT NOT NULL DEFAULT '',
			occurred_at DATETIME NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY(user_id) REFERENCES users(id) ON DELETE CASCADE,
			FOREIGN KEY(plan_id) REFERENCES celebration_plans(id) ON DELETE SET NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_transactions_user ON transactions(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_transactions_plan ON transactions(plan_id)`,

		`CREATE TABLE IF NOT EXISTS templates (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id INTEGER NOT NULL,
			name TEXT NOT NULL,
			title TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			duration_minutes INTEGER NOT NULL DEFAULT 60 CHECK(duration_minutes > 0),
			rrule TEXT NOT NULL DEFAULT '',
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY(user_id) REFERENCES users(id) ON DELETE CASCADE
		)`,
		`CREATE INDEX IF NOT EXISTS idx_templates_user ON templates(user_id)`,
	})
}
