package database

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testTime() time.Time {
	return time.Date(2025, 5, 20, 18, 0, 0, 0, time.UTC)
}

func TestCreatePlan(t *testing.T) {
	db := NewTestDB(t)
	user := CreateTestUser(t, db)

	plan, err := db.CreatePlan(&CelebrationPlan{
		UserID:      user.ID,
		Title:       "Mom's 60th",
		Celebrant:   "Mom",
		PlanDate:    testTime(),
		BudgetCents: 50000,
	})
	require.NoError(t, err)
	assert.NotZero(t, plan.ID)

	_, err = db.CreatePlan(&CelebrationPlan{UserID: user.ID, Title: "No date"})
	assert.Error(t, err)

	_, err = db.CreatePlan(&CelebrationPlan{UserID: user.ID, Title: "Neg", PlanDate: testTime(), BudgetCents: -1})
	assert.Error(t, err)

	_, err = db.CreatePlan(&CelebrationPlan{UserID: user.ID, Title: "Group", PlanDate: testTime(), GroupID: Int64Ptr(999)})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPlanSavedTotal(t *testing.T) {
	db := NewTestDB(t)
	user := CreateTestUser(t, db)

	plan, err := db.CreatePlan(&CelebrationPlan{UserID: user.ID, Title: "Wedding gift", PlanDate: testTime(), BudgetCents: 30000})
	require.NoError(t, err)

	for _, tx := range []*Transaction{
		{UserID: user.ID, PlanID: &plan.ID, Kind: TransactionDeposit, AmountCents: 10000},
		{UserID: user.ID, PlanID: &plan.ID, Kind: TransactionDeposit, AmountCents: 5000},
		{UserID: user.ID, PlanID: &plan.ID, Kind: TransactionWithdrawal, AmountCents: 2500},
		{UserID: user.ID, Kind: TransactionDeposit, AmountCents: 999},
	} {
		_, err := db.CreateTransaction(tx)
		require.NoError(t, err)
	}

	got, err := db.GetPlanForUser(user.ID, plan.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(12500), got.SavedCents)

	summary, err := db.GetSavingsSummary(user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(15999), summary.DepositsCents)
	assert.Equal(t, int64(2500), summary.WithdrawalsCents)
	assert.Equal(t, int64(13499), summary.BalanceCents)
	assert.Equal(t, 4, summary.Count)

	planTxs, err := db.ListTransactions(user.ID, &plan.ID)
	require.NoError(t, err)
	assert.Len(t, planTxs, 3)
}

func TestGroupPlanVisibility(t *testing.T) {
	db := NewTestDB(t)
	owner := CreateTestUser(t, db)
	member := CreateTestUser(t, db)
	outsider := CreateTestUser(t, db)

	group, err := db.CreateGroup(owner.ID, "Siblings", "")
	require.NoError(t, err)
	_, err = db.JoinGroupByInviteCode(member.ID, group.InviteCode)
	require.NoError(t, err)

	plan, err := db.CreatePlan(&CelebrationPlan{UserID: owner.ID, GroupID: &group.ID, Title: "Dad's party", PlanDate: testTime()})
	require.NoError(t, err)

	plans, err := db.ListPlansForUser(member.ID)
	require.NoError(t, err)
	require.Len(t, plans, 1)
	assert.Equal(t, plan.ID, plans[0].ID)

	// Members can contribute but not edit
	_, err = db.CreateTransaction(&Transaction{UserID: member.ID, PlanID: &plan.ID, Kind: TransactionDeposit, AmountCents: 100})
	require.NoError(t, err)
	_, err = db.UpdatePlanForUser(member.ID, plan.ID, PlanUpdate{Title: StringPtr("Mine")})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = db.GetPlanForUser(outsider.ID, plan.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = db.CreateTransaction(&Transaction{UserID: outsider.ID, PlanID: &plan.ID, Kind: TransactionDeposit, AmountCents: 100})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPlansDueForReminder(t *testing.T) {
	db := NewTestDB(t)
	user := CreateTestUser(t, db)
	now := time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)

	soon, err := db.CreatePlan(&CelebrationPlan{UserID: user.ID, Title: "Soon", PlanDate: now.Add(3 * 24 * time.Hour)})
	require.NoError(t, err)
	_, err = db.CreatePlan(&CelebrationPlan{UserID: user.ID, Title: "Later", PlanDate: now.Add(30 * 24 * time.Hour)})
	require.NoError(t, err)
	_, err = db.CreatePlan(&CelebrationPlan{UserID: user.ID, Title: "Past", PlanDate: now.Add(-24 * time.Hour)})
	require.NoError(t, err)

	due, err := db.ListPlansDueForReminder(now, 7*24*time.Hour)
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, soon.ID, due[0].ID)

	require.NoError(t, db.MarkPlanReminded(soon.ID, now))
	due, err = db.ListPlansDueForReminder(now, 7*24*time.Hour)
	require.NoError(t, err)
	assert.Empty(t, due)

	// Moving the date re-arms the reminder
	moved := now.Add(5 * 24 * time.Hour)
	updated, err := db.UpdatePlanForUser(user.ID, soon.ID, PlanUpdate{PlanDate: &moved})
	require.NoError(t, err)
	assert.Nil(t, updated.RemindedAt)

	due, err = db.ListPlansDueForReminder(now, 7*24*time.Hour)
	require.NoError(t, err)
	assert.Len(t, due, 1)
}

func TestTransactionValidation(t *testing.T) {
	db := NewTestDB(t)
	user := CreateTestUser(t, db)

	tests := []struct {
		name string
		tx   *Transaction
	}{
		{"zero amount", &Transaction{UserID: user.ID, Kind: TransactionDeposit}},
		{"negative amount", &Transaction{UserID: user.ID, Kind: TransactionDeposit, AmountCents: -5}},
		{"unknown kind", &Transaction{UserID: user.ID, Kind: "refund", AmountCents: 5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := db.CreateTransaction(tt.tx)
			assert.Error(t, err)
		})
	}

	tx, err := db.CreateTransaction(&Transaction{UserID: user.ID, Kind: TransactionWithdrawal, AmountCents: 42})
	require.NoError(t, err)
	assert.False(t, tx.OccurredAt.IsZero())

	require.NoError(t, db.DeleteTransaction(user.ID, tx.ID))
	assert.ErrorIs(t, db.DeleteTransaction(user.ID, tx.ID), ErrNotFound)
}

func TestDeletePlanKeepsTransactions(t *testing.T) {
	db := NewTestDB(t)
	user := CreateTestUser(t, db)

	plan, err := db.CreatePlan(&CelebrationPlan{UserID: user.ID, Title: "Cancelled", PlanDate: testTime()})
	require.NoError(t, err)
	_, err = db.CreateTransaction(&Transaction{UserID: user.ID, PlanID: &plan.ID, Kind: TransactionDeposit, AmountCents: 700})
	require.NoError(t, err)

	require.NoError(t, db.DeletePlanForUser(user.ID, plan.ID))

	txs, err := db.ListTransactions(user.ID, nil)
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Nil(t, txs[0].PlanID)
}
