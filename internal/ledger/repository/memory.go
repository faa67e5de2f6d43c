package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/tair/stock-ledger/internal/ledger/domain"
)

// MemoryLedgerStore is an in-memory LedgerStore with the same version-token
// semantics as the PostgreSQL store. It backs unit tests and local runs
// without a database.
type MemoryLedgerStore struct {
	mu     sync.Mutex
	items  map[uint]domain.Item
	depts  map[uint]domain.Department
	txs    map[uint]domain.Transaction
	nextTx uint
}

func NewMemoryLedgerStore() *MemoryLedgerStore {
	return &MemoryLedgerStore{
		items:  make(map[uint]domain.Item),
		depts:  make(map[uint]domain.Department),
		txs:    make(map[uint]domain.Transaction),
		nextTx: 1,
	}
}

// SeedItem inserts or replaces an item
func (s *MemoryLedgerStore) SeedItem(item domain.Item) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if item.CreatedAt.IsZero() {
		item.CreatedAt = time.Now()
		item.UpdatedAt = item.CreatedAt
	}
	s.items[item.ID] = item
}

// RemoveItem deletes an item outright
func (s *MemoryLedgerStore) RemoveItem(id uint) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, id)
}

// SeedDepartment inserts or replaces a department
func (s *MemoryLedgerStore) SeedDepartment(dept domain.Department) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.depts[dept.ID] = dept
}

func (s *MemoryLedgerStore) FindItemByID(ctx context.Context, id uint) (*domain.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.items[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	copied := item
	return &copied, nil
}

func (s *MemoryLedgerStore) FindItemByCode(ctx context.Context, code string) (*domain.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, item := range s.items {
		if item.Code == code {
			copied := item
			return &copied, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (s *MemoryLedgerStore) UpdateItem(ctx context.Context, item *domain.Item, expectedVersion int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.items[item.ID]
	if !ok {
		return domain.ErrNotFound
	}
	if stored.Version != expectedVersion {
		return domain.ErrVersionConflict
	}
	stored.CurrentStock = item.CurrentStock
	stored.UpdatedAt = item.UpdatedAt
	stored.Version = expectedVersion + 1
	s.items[item.ID] = stored
	item.Version = stored.Version
	return nil
}

func (s *MemoryLedgerStore) AppendTransaction(ctx context.Context, tx *domain.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	tx.ID = s.nextTx
	s.nextTx++
	s.txs[tx.ID] = *tx
	return nil
}

func (s *MemoryLedgerStore) FindTransactionByID(ctx context.Context, id uint) (*domain.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tx, ok := s.txs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	copied := tx
	return &copied, nil
}

func (s *MemoryLedgerStore) UpdateTransaction(ctx context.Context, tx *domain.Transaction, expectedVersion int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.txs[tx.ID]
	if !ok {
		return domain.ErrNotFound
	}
	if stored.Version != expectedVersion {
		return domain.ErrVersionConflict
	}
	stored.IsCancelled = tx.IsCancelled
	stored.CancelledAt = tx.CancelledAt
	stored.CancelledBy = tx.CancelledBy
	stored.UpdatedAt = tx.UpdatedAt
	stored.Version = expectedVersion + 1
	s.txs[tx.ID] = stored
	tx.Version = stored.Version
	return nil
}

func (s *MemoryLedgerStore) LatestActiveIssue(ctx context.Context) (*domain.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var latest *domain.Transaction
	for id := range s.txs {
		tx := s.txs[id]
		if tx.Type != domain.TransactionIssue || tx.IsCancelled {
			continue
		}
		if latest == nil || tx.ProcessedAt.After(latest.ProcessedAt) ||
			(tx.ProcessedAt.Equal(latest.ProcessedAt) && tx.ID > latest.ID) {
			copied := tx
			latest = &copied
		}
	}
	if latest == nil {
		return nil, domain.ErrNotFound
	}
	return latest, nil
}

func (s *MemoryLedgerStore) ListTransactions(ctx context.Context, limit, offset int) ([]domain.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if limit <= 0 {
		limit = 10
	}
	all := make([]domain.Transaction, 0, len(s.txs))
	for id := range s.txs {
		all = append(all, s.txs[id])
	}
	sort.Slice(all, func(i, j int) bool {
		if !all[i].ProcessedAt.Equal(all[j].ProcessedAt) {
			return all[i].ProcessedAt.After(all[j].ProcessedAt)
		}
		return all[i].ID > all[j].ID
	})
	if offset >= len(all) {
		return nil, nil
	}
	all = all[offset:]
	if len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

func (s *MemoryLedgerStore) FindDepartmentByID(ctx context.Context, id uint) (*domain.Department, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	dept, ok := s.depts[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	copied := dept
	return &copied, nil
}

func (s *MemoryLedgerStore) ListActiveDepartments(ctx context.Context) ([]domain.Department, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var depts []domain.Department
	for id := range s.depts {
		if s.depts[id].IsActive {
			depts = append(depts, s.depts[id])
		}
	}
	sort.Slice(depts, func(i, j int) bool { return depts[i].Code < depts[j].Code })
	return depts, nil
}
