package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"borewell/internal/models"
	"borewell/internal/repositories"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLedger_TransactionRollsBackOnError(t *testing.T) {
	ctx := context.Background()
	repo := NewStore().Ledger()
	require.NoError(t, repo.CreateAccount(ctx, &models.WalletAccount{PartyType: models.PartyVendor, PartyID: 1}))

	boom := errors.New("boom")
	err := repo.ExecuteInTransaction(ctx, func(tx repositories.LedgerRepository) error {
		account, err := tx.GetAccountForUpdate(ctx, models.Vendor(1))
		require.NoError(t, err)
		account.Balance = 500
		require.NoError(t, tx.UpdateAccount(ctx, account, account.Version))
		require.NoError(t, tx.CreateEntry(ctx, &models.LedgerEntry{PartyType: models.PartyVendor, PartyID: 1}))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	account, err := repo.GetAccount(ctx, models.Vendor(1))
	require.NoError(t, err)
	assert.Equal(t, 0.0, account.Balance)
	assert.Equal(t, int64(0), account.Version)

	entries, total, err := repo.ListEntries(ctx, models.Vendor(1), repositories.EntryFilter{})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, entries)
}

func TestLedger_UpdateAccountChecksVersion(t *testing.T) {
	ctx := context.Background()
	repo := NewStore().Ledger()
	account := &models.WalletAccount{PartyType: models.PartyUser, PartyID: 9}
	require.NoError(t, repo.CreateAccount(ctx, account))

	account.Balance = 10
	require.NoError(t, repo.UpdateAccount(ctx, account, 0))
	assert.Equal(t, int64(1), account.Version)

	account.Balance = 20
	assert.ErrorIs(t, repo.UpdateAccount(ctx, account, 0), repositories.ErrVersionConflict)
}

func TestStore_FailNextIsConsumedOnce(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	repo := store.Ledger()
	boom := errors.New("disk full")
	store.FailNext(OpCreateEntry, boom)

	assert.ErrorIs(t, repo.CreateEntry(ctx, &models.LedgerEntry{}), boom)
	assert.NoError(t, repo.CreateEntry(ctx, &models.LedgerEntry{}))
}

func TestRetryJobs_ClaimDueMarksRunning(t *testing.T) {
	ctx := context.Background()
	repo := NewStore().RetryJobs()
	now := time.Now()
	require.NoError(t, repo.Create(ctx, &models.RetryJob{LedgerEntryID: 1, Status: models.RetryQueued, NextRunAt: now.Add(-time.Minute)}))
	require.NoError(t, repo.Create(ctx, &models.RetryJob{LedgerEntryID: 2, Status: models.RetryQueued, NextRunAt: now.Add(time.Hour)}))

	claimed, err := repo.ClaimDue(ctx, now, now.Add(-time.Hour), 10)
	require.NoError(t, err)
	require.Len(t, claimed, 1)
	assert.Equal(t, uint(1), claimed[0].LedgerEntryID)
	assert.Equal(t, models.RetryRunning, claimed[0].Status)

	again, err := repo.ClaimDue(ctx, now, now.Add(-time.Hour), 10)
	require.NoError(t, err)
	assert.Empty(t, again)
}

func TestLedger_FindWithdrawalEntry(t *testing.T) {
	ctx := context.Background()
	repo := NewStore().Ledger()
	require.NoError(t, repo.CreateEntry(ctx, &models.LedgerEntry{
		Type:     models.TxWithdrawalProcessed,
		Status:   models.EntrySuccess,
		Metadata: models.WithdrawalMetadata(models.TxWithdrawalProcessed, models.WithdrawalMeta{WithdrawalID: 4}),
	}))

	found, err := repo.FindWithdrawalEntry(ctx, 4, models.TxWithdrawalProcessed, models.EntrySuccess)
	require.NoError(t, err)
	require.NotNil(t, found)

	missing, err := repo.FindWithdrawalEntry(ctx, 5, models.TxWithdrawalProcessed, models.EntrySuccess)
	require.NoError(t, err)
	assert.Nil(t, missing)
}
