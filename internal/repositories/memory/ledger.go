package memory

import (
	"context"
	"sort"

	apperr "borewell/internal/errors"
	"borewell/internal/models"
	"borewell/internal/repositories"
	"borewell/internal/utils"
)

// LedgerRepository is the in-memory repositories.LedgerRepository.
type LedgerRepository struct {
	s    *Store
	inTx bool
}

var _ repositories.LedgerRepository = (*LedgerRepository)(nil)

func (r *LedgerRepository) ExecuteInTransaction(ctx context.Context, fn func(repositories.LedgerRepository) error) error {
	if r.inTx {
		return fn(r)
	}
	s := r.s
	s.ledgerMu.Lock()
	defer s.ledgerMu.Unlock()

	accounts, entries := copyMap(s.accounts), copyMap(s.entries)
	nextAccount, nextEntry := s.nextAccountID, s.nextEntryID

	if err := fn(&LedgerRepository{s: s, inTx: true}); err != nil {
		s.accounts, s.entries = accounts, entries
		s.nextAccountID, s.nextEntryID = nextAccount, nextEntry
		return err
	}
	return nil
}

func (r *LedgerRepository) CreateAccount(ctx context.Context, account *models.WalletAccount) error {
	defer unlocker(&r.s.ledgerMu, r.inTx)()
	if err := r.s.fault(OpCreateAccount); err != nil {
		return err
	}
	party := account.Party()
	if existing, ok := r.s.accounts[party]; ok {
		*account = existing
		return nil
	}
	r.s.nextAccountID++
	now := r.s.now()
	account.ID = r.s.nextAccountID
	account.CreatedAt, account.UpdatedAt = now, now
	r.s.accounts[party] = *account
	return nil
}

func (r *LedgerRepository) GetAccount(ctx context.Context, party models.PartyRef) (*models.WalletAccount, error) {
	defer unlocker(&r.s.ledgerMu, r.inTx)()
	account, ok := r.s.accounts[party]
	if !ok {
		return nil, apperr.ErrWalletNotFound.WithMessage("wallet not found for %s", party)
	}
	return &account, nil
}

func (r *LedgerRepository) GetAccountForUpdate(ctx context.Context, party models.PartyRef) (*models.WalletAccount, error) {
	return r.GetAccount(ctx, party)
}

func (r *LedgerRepository) UpdateAccount(ctx context.Context, account *models.WalletAccount, expectedVersion int64) error {
	defer unlocker(&r.s.ledgerMu, r.inTx)()
	if err := r.s.fault(OpUpdateAccount); err != nil {
		return err
	}
	stored, ok := r.s.accounts[account.Party()]
	if !ok {
		return apperr.ErrWalletNotFound
	}
	if stored.Version != expectedVersion {
		return repositories.ErrVersionConflict
	}
	stored.Balance = account.Balance
	stored.TotalCredited = account.TotalCredited
	stored.TotalDeducted = account.TotalDeducted
	stored.Version = expectedVersion + 1
	stored.UpdatedAt = r.s.now()
	r.s.accounts[account.Party()] = stored
	account.Version = stored.Version
	return nil
}

func (r *LedgerRepository) ListAccounts(ctx context.Context) ([]models.WalletAccount, error) {
	defer unlocker(&r.s.ledgerMu, r.inTx)()
	list := make([]models.WalletAccount, 0, len(r.s.accounts))
	for _, a := range r.s.accounts {
		list = append(list, a)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return list, nil
}

func (r *LedgerRepository) CreateEntry(ctx context.Context, entry *models.LedgerEntry) error {
	defer unlocker(&r.s.ledgerMu, r.inTx)()
	if err := r.s.fault(OpCreateEntry); err != nil {
		return err
	}
	r.s.nextEntryID++
	now := r.s.now()
	entry.ID = r.s.nextEntryID
	entry.CreatedAt, entry.UpdatedAt = now, now
	r.s.entries[entry.ID] = *entry
	return nil
}

func (r *LedgerRepository) GetEntry(ctx context.Context, id uint) (*models.LedgerEntry, error) {
	defer unlocker(&r.s.ledgerMu, r.inTx)()
	entry, ok := r.s.entries[id]
	if !ok {
		return nil, apperr.ErrEntryNotFound.WithMessage("ledger entry %d not found", id)
	}
	return &entry, nil
}

func (r *LedgerRepository) GetEntryForUpdate(ctx context.Context, id uint) (*models.LedgerEntry, error) {
	return r.GetEntry(ctx, id)
}

func (r *LedgerRepository) UpdateEntryRetryCount(ctx context.Context, id uint, retryCount int) error {
	defer unlocker(&r.s.ledgerMu, r.inTx)()
	if err := r.s.fault(OpUpdateEntry); err != nil {
		return err
	}
	entry, ok := r.s.entries[id]
	if !ok {
		return apperr.ErrEntryNotFound.WithMessage("ledger entry %d not found", id)
	}
	entry.RetryCount = retryCount
	entry.UpdatedAt = r.s.now()
	r.s.entries[id] = entry
	return nil
}

func (r *LedgerRepository) ListEntries(ctx context.Context, party models.PartyRef, filter repositories.EntryFilter) ([]models.LedgerEntry, int64, error) {
	defer unlocker(&r.s.ledgerMu, r.inTx)()
	var list []models.LedgerEntry
	for _, e := range r.s.entries {
		if e.Party() != party {
			continue
		}
		if filter.Type != "" && e.Type != filter.Type {
			continue
		}
		if filter.Status != "" && e.Status != filter.Status {
			continue
		}
		if filter.BookingID != nil && (e.BookingID == nil || *e.BookingID != *filter.BookingID) {
			continue
		}
		list = append(list, e)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID > list[j].ID })
	return page(list, filter.Offset, filter.Limit), int64(len(list)), nil
}

func (r *LedgerRepository) SumSuccessful(ctx context.Context, party models.PartyRef, types []models.TransactionType) (float64, error) {
	defer unlocker(&r.s.ledgerMu, r.inTx)()
	wanted := make(map[models.TransactionType]bool, len(types))
	for _, t := range types {
		wanted[t] = true
	}
	var amounts []float64
	for _, e := range r.s.entries {
		if e.Party() == party && e.Status == models.EntrySuccess && wanted[e.Type] {
			amounts = append(amounts, e.Amount)
		}
	}
	return utils.SumMoney(amounts...), nil
}

func (r *LedgerRepository) FindSuccessfulRetry(ctx context.Context, failedID uint) (*models.LedgerEntry, error) {
	defer unlocker(&r.s.ledgerMu, r.inTx)()
	for _, e := range r.s.entries {
		if e.RetryOf != nil && *e.RetryOf == failedID && e.Status == models.EntrySuccess {
			return &e, nil
		}
	}
	return nil, nil
}

func (r *LedgerRepository) FindWithdrawalEntry(ctx context.Context, withdrawalID uint, txType models.TransactionType, status models.EntryStatus) (*models.LedgerEntry, error) {
	defer unlocker(&r.s.ledgerMu, r.inTx)()
	var found *models.LedgerEntry
	for _, e := range r.s.entries {
		if e.Type != txType || e.Status != status {
			continue
		}
		if id, ok := e.Metadata.WithdrawalID(); !ok || id != withdrawalID {
			continue
		}
		if found == nil || e.ID > found.ID {
			e := e
			found = &e
		}
	}
	return found, nil
}
