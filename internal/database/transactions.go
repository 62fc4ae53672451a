package database

import (
	"database/sql"
	"fmt"
	"time"
)

// TransactionKind is the direction of a savings transaction
type TransactionKind string

const (
	TransactionDeposit    TransactionKind = "deposit"
	TransactionWithdrawal TransactionKind = "withdrawal"
)

// Transaction is an entry in a user's savings tracker
type Transaction struct {
	ID          int64           `json:"id"`
	UserID      int64           `json:"user_id"`
	PlanID      *int64          `json:"plan_id,omitempty"`
	Kind        TransactionKind `json:"kind"`
	AmountCents int64           `json:"amount_cents"`
	Note        string          `json:"note"`
	OccurredAt  time.Time       `json:"occurred_at"`
	CreatedAt   time.Time       `json:"created_at"`
}

// SavingsSummary aggregates a user's transactions
type SavingsSummary struct {
	DepositsCents    int64 `json:"deposits_cents"`
	WithdrawalsCents int64 `json:"withdrawals_cents"`
	BalanceCents     int64 `json:"balance_cents"`
	Count            int   `json:"count"`
}

// CreateTransaction records a deposit or withdrawal.
// A plan id must refer to a plan visible to the user.
func (d *DB) CreateTransaction(tx *Transaction) (*Transaction, error) {
	if tx.Kind != TransactionDeposit && tx.Kind != TransactionWithdrawal {
		return nil, invalidf("invalid transaction kind %q", tx.Kind)
	}
	if tx.AmountCents <= 0 {
		return nil, invalidf("amount must be positive")
	}
	if tx.OccurredAt.IsZero() {
		tx.OccurredAt = time.Now().UTC()
	}
	if tx.PlanID != nil {
		if _, err := d.GetPlanForUser(tx.UserID, *tx.PlanID); err != nil {
			return nil, err
		}
	}

	result, err := d.Exec(`
		INSERT INTO transactions (user_id, plan_id, kind, amount_cents, note, occurred_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, tx.UserID, tx.PlanID, tx.Kind, tx.AmountCents, tx.Note, tx.OccurredAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create transaction: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction id: %w", err)
	}

	tx.ID = id
	tx.CreatedAt = time.Now()
	return tx, nil
}

// ListTransactions lists the user's transactions, newest first, optionally for one plan.
func (d *DB) ListTransactions(userID int64, planID *int64) ([]*Transaction, error) {
	query := `
		SELECT id, user_id, plan_id, kind, amount_cents, note, occurred_at, created_at
		FROM transactions
		WHERE user_id = ?`
	args := []any{userID}
	if planID != nil {
		query += ` AND plan_id = ?`
		args = append(args, *planID)
	}
	query += ` ORDER BY julianday(occurred_at) DESC, id DESC`

	rows, err := d.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	txs := make([]*Transaction, 0)
	for rows.Next() {
		var t Transaction
		var plan sql.NullInt64
		if err := rows.Scan(&t.ID, &t.UserID, &plan, &t.Kind, &t.AmountCents, &t.Note, &t.OccurredAt, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		if plan.Valid {
			t.PlanID = &plan.Int64
		}
		txs = append(txs, &t)
	}
	return txs, rows.Err()
}

// GetSavingsSummary totals the user's deposits and withdrawals.
func (d *DB) GetSavingsSummary(userID int64) (*SavingsSummary, error) {
	var s SavingsSummary
	err := d.QueryRow(`
		SELECT
			COALESCE(SUM(CASE kind WHEN 'deposit' THEN amount_cents ELSE 0 END), 0),
			COALESCE(SUM(CASE kind WHEN 'withdrawal' THEN amount_cents ELSE 0 END), 0),
			COUNT(*)
		FROM transactions
		WHERE user_id = ?
	`, userID).Scan(&s.DepositsCents, &s.WithdrawalsCents, &s.Count)
	if err != nil {
		return nil, fmt.Errorf("failed to get savings summary: %w", err)
	}
	s.BalanceCents = s.DepositsCents - s.WithdrawalsCents
	return &s, nil
}

// DeleteTransaction deletes one of the user's transactions.
func (d *DB) DeleteTransaction(userID, id int64) error {
	result, err := d.Exec(`DELETE FROM transactions WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete transaction: %w", err)
	}
	return checkAffected(result, "transaction")
}
