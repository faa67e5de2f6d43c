package domain

import "context"

// LedgerStore defines the contract for durable ledger data access.
// Conditional updates are guarded by the record's version token: the write
// succeeds only when the stored version still equals expectedVersion, and the
// committed version is bumped by one. A lost race surfaces ErrVersionConflict.
// Missing records surface ErrNotFound.
type LedgerStore interface {
	// Items
	FindItemByID(ctx context.Context, id uint) (*Item, error)
	FindItemByCode(ctx context.Context, code string) (*Item, error)
	UpdateItem(ctx context.Context, item *Item, expectedVersion int64) error

	// Transactions (append-only except the cancellation flag transition)
	AppendTransaction(ctx context.Context, tx *Transaction) error
	FindTransactionByID(ctx context.Context, id uint) (*Transaction, error)
	UpdateTransaction(ctx context.Context, tx *Transaction, expectedVersion int64) error
	LatestActiveIssue(ctx context.Context) (*Transaction, error)
	ListTransactions(ctx context.Context, limit, offset int) ([]Transaction, error)

	// Departments (referential data)
	FindDepartmentByID(ctx context.Context, id uint) (*Department, error)
	ListActiveDepartments(ctx context.Context) ([]Department, error)
}
