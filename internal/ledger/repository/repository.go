package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/tair/stock-ledger/internal/ledger/domain"
)

// GormLedgerStore is the PostgreSQL ledger store. Conditional writes are
// expressed as UPDATE ... WHERE id = ? AND version = ?; zero affected rows
// means another writer committed first.
type GormLedgerStore struct {
	db *gorm.DB
}

func NewGormLedgerStore(db *gorm.DB) *GormLedgerStore {
	return &GormLedgerStore{db: db}
}

func (s *GormLedgerStore) AutoMigrate() error {
	return s.db.AutoMigrate(&domain.Item{}, &domain.Department{}, &domain.Transaction{})
}

func (s *GormLedgerStore) FindItemByID(ctx context.Context, id uint) (*domain.Item, error) {
	var item domain.Item
	err := s.db.WithContext(ctx).First(&item, id).Error
	if err != nil {
		return nil, translate(err)
	}
	return &item, nil
}

func (s *GormLedgerStore) FindItemByCode(ctx context.Context, code string) (*domain.Item, error) {
	var item domain.Item
	err := s.db.WithContext(ctx).Where("code = ?", code).First(&item).Error
	if err != nil {
		return nil, translate(err)
	}
	return &item, nil
}

func (s *GormLedgerStore) UpdateItem(ctx context.Context, item *domain.Item, expectedVersion int64) error {
	res := s.db.WithContext(ctx).Model(&domain.Item{}).
		Where("id = ? AND version = ?", item.ID, expectedVersion).
		Updates(map[string]interface{}{
			"current_stock": item.CurrentStock,
			"updated_at":    item.UpdatedAt,
			"version":       expectedVersion + 1,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrVersionConflict
	}
	item.Version = expectedVersion + 1
	return nil
}

func (s *GormLedgerStore) AppendTransaction(ctx context.Context, tx *domain.Transaction) error {
	return s.db.WithContext(ctx).Create(tx).Error
}

func (s *GormLedgerStore) FindTransactionByID(ctx context.Context, id uint) (*domain.Transaction, error) {
	var tx domain.Transaction
	err := s.db.WithContext(ctx).First(&tx, id).Error
	if err != nil {
		return nil, translate(err)
	}
	return &tx, nil
}

func (s *GormLedgerStore) UpdateTransaction(ctx context.Context, tx *domain.Transaction, expectedVersion int64) error {
	res := s.db.WithContext(ctx).Model(&domain.Transaction{}).
		Where("id = ? AND version = ?", tx.ID, expectedVersion).
		Updates(map[string]interface{}{
			"is_cancelled": tx.IsCancelled,
			"cancelled_at": tx.CancelledAt,
			"cancelled_by": tx.CancelledBy,
			"updated_at":   tx.UpdatedAt,
			"version":      expectedVersion + 1,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrVersionConflict
	}
	tx.Version = expectedVersion + 1
	return nil
}

func (s *GormLedgerStore) LatestActiveIssue(ctx context.Context) (*domain.Transaction, error) {
	var tx domain.Transaction
	err := s.db.WithContext(ctx).
		Where("type = ? AND is_cancelled = ?", domain.TransactionIssue, false).
		Order("processed_at DESC").
		Order("id DESC").
		First(&tx).Error
	if err != nil {
		return nil, translate(err)
	}
	return &tx, nil
}

func (s *GormLedgerStore) ListTransactions(ctx context.Context, limit, offset int) ([]domain.Transaction, error) {
	if limit <= 0 {
		limit = 10
	}
	var txs []domain.Transaction
	err := s.db.WithContext(ctx).
		Order("processed_at DESC").
		Order("id DESC").
		Limit(limit).Offset(offset).
		Find(&txs).Error
	return txs, err
}

func (s *GormLedgerStore) FindDepartmentByID(ctx context.Context, id uint) (*domain.Department, error) {
	var dept domain.Department
	err := s.db.WithContext(ctx).First(&dept, id).Error
	if err != nil {
		return nil, translate(err)
	}
	return &dept, nil
}

func (s *GormLedgerStore) ListActiveDepartments(ctx context.Context) ([]domain.Department, error) {
	var depts []domain.Department
	err := s.db.WithContext(ctx).Where("is_active = ?", true).Order("code").Find(&depts).Error
	return depts, err
}

func translate(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.ErrNotFound
	}
	return err
}
