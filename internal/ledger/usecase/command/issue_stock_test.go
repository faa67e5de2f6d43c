package command

import (
	"context"
	"errors"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tair/stock-ledger/internal/ledger/domain"
	"github.com/tair/stock-ledger/internal/ledger/engine"
	"github.com/tair/stock-ledger/internal/ledger/repository"
	"github.com/tair/stock-ledger/pkg/logger"
)

func TestMain(m *testing.M) {
	logger.Init("command-test", false)
	logger.SetLevel("error")
	os.Exit(m.Run())
}

func noSleep(ctx context.Context, d time.Duration) error { return nil }

type fixture struct {
	store    *repository.MemoryLedgerStore
	issue    *IssueStockHandler
	cancel   *CancelLastHandler
	mutator  *engine.StockMutator
	recorder *engine.TransactionRecorder
}

func seededStore(stock int) *repository.MemoryLedgerStore {
	store := repository.NewMemoryLedgerStore()
	store.SeedItem(domain.Item{
		ID:           42,
		Code:         "ITEM042",
		Name:         "Ballpoint pen",
		Unit:         "pcs",
		CurrentStock: stock,
		MinimumStock: 5,
		IsActive:     true,
	})
	store.SeedDepartment(domain.Department{ID: 1, Code: "ENG", Name: "Engineering", IsActive: true})
	return store
}

func newFixture(stock int) *fixture {
	store := seededStore(stock)
	return newFixtureWithStore(store, store)
}

// newFixtureWithStore lets tests wrap the store seen by the handlers while
// keeping direct access to the inner memory store
func newFixtureWithStore(store domain.LedgerStore, inner *repository.MemoryLedgerStore) *fixture {
	mutator := engine.NewStockMutator(store, engine.RetryPolicy{MaxAttempts: 50, BaseDelay: 0}).
		WithSleeper(noSleep)
	recorder := engine.NewTransactionRecorder(store)
	return &fixture{
		store:    inner,
		issue:    NewIssueStockHandler(store, mutator, recorder),
		cancel:   NewCancelLastHandler(store, mutator, recorder),
		mutator:  mutator,
		recorder: recorder,
	}
}

func issueCmd(qty int) IssueStockCommand {
	return IssueStockCommand{
		ItemID:       42,
		DepartmentID: 1,
		Quantity:     qty,
		ProcessedBy:  "alice",
		Remarks:      "desk restock",
	}
}

func TestIssue_Success(t *testing.T) {
	f := newFixture(10)

	outcome := f.issue.Handle(context.Background(), issueCmd(7))
	require.True(t, outcome.Success, outcome.Message)
	require.NotNil(t, outcome.Transaction)

	tx := outcome.Transaction
	assert.Equal(t, domain.TransactionIssue, tx.Type)
	assert.Equal(t, 7, tx.Quantity)
	assert.Equal(t, 10, tx.BeforeStock)
	assert.Equal(t, 3, tx.AfterStock)
	assert.Equal(t, "alice", tx.ProcessedBy)

	item, _ := f.store.FindItemByID(context.Background(), 42)
	assert.Equal(t, 3, item.CurrentStock)
}

func TestIssue_InsufficientAfterPartialDrain(t *testing.T) {
	f := newFixture(10)

	outcome := f.issue.Handle(context.Background(), issueCmd(7))
	require.True(t, outcome.Success)

	outcome = f.issue.Handle(context.Background(), issueCmd(5))
	require.False(t, outcome.Success)
	assert.Equal(t, domain.CodeInsufficientStock, outcome.ErrorCode)
	assert.Contains(t, outcome.Message, "3")

	item, _ := f.store.FindItemByID(context.Background(), 42)
	assert.Equal(t, 3, item.CurrentStock)
}

func TestIssue_ValidationBeforeStorage(t *testing.T) {
	for _, qty := range []int{0, 10000, -3} {
		f := newFixture(10)

		outcome := f.issue.Handle(context.Background(), issueCmd(qty))
		require.False(t, outcome.Success)
		assert.Equal(t, domain.CodeValidationError, outcome.ErrorCode)

		item, _ := f.store.FindItemByID(context.Background(), 42)
		assert.Equal(t, 10, item.CurrentStock)
		assert.Equal(t, int64(0), item.Version)

		txs, _ := f.store.ListTransactions(context.Background(), 10, 0)
		assert.Empty(t, txs)
	}
}

func TestIssue_MissingActor(t *testing.T) {
	f := newFixture(10)
	cmd := issueCmd(1)
	cmd.ProcessedBy = ""

	outcome := f.issue.Handle(context.Background(), cmd)
	assert.Equal(t, domain.CodeValidationError, outcome.ErrorCode)
}

func TestIssue_ItemNotFound(t *testing.T) {
	f := newFixture(10)
	cmd := issueCmd(1)
	cmd.ItemID = 99

	outcome := f.issue.Handle(context.Background(), cmd)
	require.False(t, outcome.Success)
	assert.Equal(t, domain.CodeItemNotFound, outcome.ErrorCode)
}

func TestIssue_InactiveItem(t *testing.T) {
	f := newFixture(10)
	f.store.SeedItem(domain.Item{ID: 43, Code: "ITEM043", CurrentStock: 10, IsActive: false})
	cmd := issueCmd(1)
	cmd.ItemID = 43

	outcome := f.issue.Handle(context.Background(), cmd)
	assert.Equal(t, domain.CodeItemNotFound, outcome.ErrorCode)
}

func TestIssue_UnknownDepartment(t *testing.T) {
	f := newFixture(10)
	cmd := issueCmd(1)
	cmd.DepartmentID = 9

	outcome := f.issue.Handle(context.Background(), cmd)
	assert.Equal(t, domain.CodeValidationError, outcome.ErrorCode)
}

// appendFailingStore lets the counter commit but refuses the ledger append
type appendFailingStore struct {
	domain.LedgerStore
}

func (s *appendFailingStore) AppendTransaction(ctx context.Context, tx *domain.Transaction) error {
	return errors.New("disk full")
}

func TestIssue_CompensatesWhenAppendFails(t *testing.T) {
	inner := seededStore(10)
	f := newFixtureWithStore(&appendFailingStore{LedgerStore: inner}, inner)

	outcome := f.issue.Handle(context.Background(), issueCmd(4))
	require.False(t, outcome.Success)
	assert.Equal(t, domain.CodeSystemError, outcome.ErrorCode)

	// The decrement was rolled back
	item, _ := inner.FindItemByID(context.Background(), 42)
	assert.Equal(t, 10, item.CurrentStock)
}

func TestIssue_Concurrent(t *testing.T) {
	const initialStock = 10
	const perCall = 3
	const callers = 10

	f := newFixture(initialStock)

	var successCount atomic.Int32
	var insufficientCount atomic.Int32
	var wg sync.WaitGroup

	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			outcome := f.issue.Handle(context.Background(), issueCmd(perCall))
			if outcome.Success {
				successCount.Add(1)
			} else if outcome.ErrorCode == domain.CodeInsufficientStock {
				insufficientCount.Add(1)
			} else {
				t.Errorf("unexpected outcome: %+v", outcome)
			}
		}()
	}
	wg.Wait()

	// floor(10/3) = 3 successes, final stock 10 - 3*3 = 1
	assert.Equal(t, int32(initialStock/perCall), successCount.Load())
	assert.Equal(t, int32(callers-initialStock/perCall), insufficientCount.Load())

	item, _ := f.store.FindItemByID(context.Background(), 42)
	assert.Equal(t, initialStock%perCall, item.CurrentStock)

	// The ledger agrees with the counter
	txs, _ := f.store.ListTransactions(context.Background(), callers, 0)
	issued := 0
	for _, tx := range txs {
		issued += tx.Quantity
	}
	assert.Equal(t, initialStock-item.CurrentStock, issued)
}
