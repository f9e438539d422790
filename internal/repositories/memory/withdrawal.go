package memory

import (
	"context"
	"sort"

	apperr "borewell/internal/errors"
	"borewell/internal/models"
	"borewell/internal/repositories"
)

// WithdrawalRepository is the in-memory repositories.WithdrawalRepository.
type WithdrawalRepository struct {
	s    *Store
	inTx bool
}

var _ repositories.WithdrawalRepository = (*WithdrawalRepository)(nil)

func (r *WithdrawalRepository) ExecuteInTransaction(ctx context.Context, fn func(repositories.WithdrawalRepository) error) error {
	if r.inTx {
		return fn(r)
	}
	s := r.s
	s.withdrawalMu.Lock()
	defer s.withdrawalMu.Unlock()

	snapshot, nextID := copyMap(s.withdrawals), s.nextWithdrawalID
	if err := fn(&WithdrawalRepository{s: s, inTx: true}); err != nil {
		s.withdrawals, s.nextWithdrawalID = snapshot, nextID
		return err
	}
	return nil
}

func (r *WithdrawalRepository) Create(ctx context.Context, w *models.WithdrawalRequest) error {
	defer unlocker(&r.s.withdrawalMu, r.inTx)()
	if err := r.s.fault(OpCreateWithdrawal); err != nil {
		return err
	}
	r.s.nextWithdrawalID++
	now := r.s.now()
	w.ID = r.s.nextWithdrawalID
	w.CreatedAt, w.UpdatedAt = now, now
	r.s.withdrawals[w.ID] = *w
	return nil
}

func (r *WithdrawalRepository) GetByID(ctx context.Context, id uint) (*models.WithdrawalRequest, error) {
	defer unlocker(&r.s.withdrawalMu, r.inTx)()
	w, ok := r.s.withdrawals[id]
	if !ok {
		return nil, apperr.ErrWithdrawalNotFound.WithMessage("withdrawal request %d not found", id)
	}
	return &w, nil
}

func (r *WithdrawalRepository) GetForUpdate(ctx context.Context, id uint) (*models.WithdrawalRequest, error) {
	return r.GetByID(ctx, id)
}

func (r *WithdrawalRepository) Update(ctx context.Context, w *models.WithdrawalRequest) error {
	defer unlocker(&r.s.withdrawalMu, r.inTx)()
	if err := r.s.fault(OpUpdateWithdrawal); err != nil {
		return err
	}
	if _, ok := r.s.withdrawals[w.ID]; !ok {
		return apperr.ErrWithdrawalNotFound.WithMessage("withdrawal request %d not found", w.ID)
	}
	w.UpdatedAt = r.s.now()
	r.s.withdrawals[w.ID] = *w
	return nil
}

func (r *WithdrawalRepository) List(ctx context.Context, filter repositories.WithdrawalFilter) ([]models.WithdrawalRequest, int64, error) {
	defer unlocker(&r.s.withdrawalMu, r.inTx)()
	var list []models.WithdrawalRequest
	for _, w := range r.s.withdrawals {
		if filter.Party != nil && w.Party() != *filter.Party {
			continue
		}
		if filter.Status != "" && w.Status != filter.Status {
			continue
		}
		list = append(list, w)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID > list[j].ID })
	return page(list, filter.Offset, filter.Limit), int64(len(list)), nil
}
