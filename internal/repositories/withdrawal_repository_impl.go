package repositories

import (
	"context"
	"errors"
	"fmt"

	apperr "borewell/internal/errors"
	"borewell/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type withdrawalRepository struct {
	db *gorm.DB
}

func NewWithdrawalRepository(db *gorm.DB) WithdrawalRepository {
	return &withdrawalRepository{db: db}
}

func (r *withdrawalRepository) ExecuteInTransaction(ctx context.Context, fn func(WithdrawalRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&withdrawalRepository{db: tx})
	})
}

func (r *withdrawalRepository) Create(ctx context.Context, w *models.WithdrawalRequest) error {
	if err := r.db.WithContext(ctx).Create(w).Error; err != nil {
		return fmt.Errorf("failed to create withdrawal request: %w", err)
	}
	return nil
}

func (r *withdrawalRepository) GetByID(ctx context.Context, id uint) (*models.WithdrawalRequest, error) {
	return r.find(r.db.WithContext(ctx), id)
}

func (r *withdrawalRepository) GetForUpdate(ctx context.Context, id uint) (*models.WithdrawalRequest, error) {
	return r.find(r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), id)
}

func (r *withdrawalRepository) find(db *gorm.DB, id uint) (*models.WithdrawalRequest, error) {
	var w models.WithdrawalRequest
	if err := db.First(&w, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrWithdrawalNotFound.WithMessage("withdrawal request %d not found", id)
		}
		return nil, fmt.Errorf("failed to get withdrawal request: %w", err)
	}
	return &w, nil
}

func (r *withdrawalRepository) Update(ctx context.Context, w *models.WithdrawalRequest) error {
	if err := r.db.WithContext(ctx).Save(w).Error; err != nil {
		return fmt.Errorf("failed to update withdrawal request: %w", err)
	}
	return nil
}

func (r *withdrawalRepository) List(ctx context.Context, filter WithdrawalFilter) ([]models.WithdrawalRequest, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.WithdrawalRequest{})
	if filter.Party != nil {
		query = query.Where("party_type = ? AND party_id = ?", filter.Party.Type, filter.Party.ID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count withdrawal requests: %w", err)
	}

	var list []models.WithdrawalRequest
	query = query.Order("requested_at DESC").Offset(filter.Offset)
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	if err := query.Find(&list).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list withdrawal requests: %w", err)
	}
	return list, total, nil
}
