package command

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tair/stock-ledger/internal/ledger/domain"
)

func TestCancelLast_RoundTrip(t *testing.T) {
	f := newFixture(10)
	ctx := context.Background()

	issued := f.issue.Handle(ctx, issueCmd(7))
	require.True(t, issued.Success)

	outcome := f.cancel.Handle(ctx, CancelLastCommand{CancelledBy: "bob"})
	require.True(t, outcome.Success, outcome.Message)
	require.NotNil(t, outcome.Transaction)

	tx := outcome.Transaction
	assert.Equal(t, issued.Transaction.ID, tx.ID)
	assert.True(t, tx.IsCancelled)
	assert.Equal(t, "bob", tx.CancelledBy)
	require.NotNil(t, tx.CancelledAt)

	item, _ := f.store.FindItemByID(ctx, 42)
	assert.Equal(t, 10, item.CurrentStock)
}

func TestCancelLast_EmptyLedger(t *testing.T) {
	f := newFixture(10)

	outcome := f.cancel.Handle(context.Background(), CancelLastCommand{CancelledBy: "bob"})
	require.False(t, outcome.Success)
	assert.Equal(t, domain.CodeNoTransaction, outcome.ErrorCode)
}

func TestCancelLast_SecondCallFindsNothing(t *testing.T) {
	f := newFixture(10)
	ctx := context.Background()

	require.True(t, f.issue.Handle(ctx, issueCmd(4)).Success)
	require.True(t, f.cancel.Handle(ctx, CancelLastCommand{CancelledBy: "bob"}).Success)

	// Cancelled transactions are not cancellable again; stock is never
	// restored twice.
	outcome := f.cancel.Handle(ctx, CancelLastCommand{CancelledBy: "bob"})
	require.False(t, outcome.Success)
	assert.Equal(t, domain.CodeNoTransaction, outcome.ErrorCode)

	item, _ := f.store.FindItemByID(ctx, 42)
	assert.Equal(t, 10, item.CurrentStock)
}

func TestCancelLast_PicksMostRecentActive(t *testing.T) {
	f := newFixture(20)
	ctx := context.Background()

	first := f.issue.Handle(ctx, issueCmd(3))
	second := f.issue.Handle(ctx, issueCmd(5))
	require.True(t, first.Success)
	require.True(t, second.Success)

	outcome := f.cancel.Handle(ctx, CancelLastCommand{CancelledBy: "bob"})
	require.True(t, outcome.Success)
	assert.Equal(t, second.Transaction.ID, outcome.Transaction.ID)

	item, _ := f.store.FindItemByID(ctx, 42)
	assert.Equal(t, 20-3, item.CurrentStock)

	// The next cancel walks back to the older issue.
	outcome = f.cancel.Handle(ctx, CancelLastCommand{CancelledBy: "bob"})
	require.True(t, outcome.Success)
	assert.Equal(t, first.Transaction.ID, outcome.Transaction.ID)

	item, _ = f.store.FindItemByID(ctx, 42)
	assert.Equal(t, 20, item.CurrentStock)
}

func TestCancelLast_RequiresActor(t *testing.T) {
	f := newFixture(10)

	outcome := f.cancel.Handle(context.Background(), CancelLastCommand{CancelledBy: "  "})
	assert.Equal(t, domain.CodeValidationError, outcome.ErrorCode)
}

func TestCancelLast_ItemGone(t *testing.T) {
	f := newFixture(10)
	ctx := context.Background()

	issued := f.issue.Handle(ctx, issueCmd(2))
	require.True(t, issued.Success)
	f.store.RemoveItem(42)

	outcome := f.cancel.Handle(ctx, CancelLastCommand{CancelledBy: "bob"})
	require.True(t, outcome.Success)
	assert.True(t, outcome.Transaction.IsCancelled)
}

// staleLatestStore hands out a copy of the latest issue that another
// canceller has already flagged in the inner store, forcing the flag race
// to be lost.
type staleLatestStore struct {
	domain.LedgerStore
	stale *domain.Transaction
}

func (s *staleLatestStore) LatestActiveIssue(ctx context.Context) (*domain.Transaction, error) {
	if s.stale != nil {
		cp := *s.stale
		return &cp, nil
	}
	return s.LedgerStore.LatestActiveIssue(ctx)
}

func TestCancelLast_LosesFlagRace(t *testing.T) {
	inner := seededStore(10)
	wrapped := &staleLatestStore{LedgerStore: inner}
	f := newFixtureWithStore(wrapped, inner)
	ctx := context.Background()

	issued := f.issue.Handle(ctx, issueCmd(6))
	require.True(t, issued.Success)

	// The racing canceller already won: flag flipped, stock restored.
	winner := f.cancel.Handle(ctx, CancelLastCommand{CancelledBy: "carol"})
	require.True(t, winner.Success)
	wrapped.stale = issued.Transaction

	outcome := f.cancel.Handle(ctx, CancelLastCommand{CancelledBy: "bob"})
	require.False(t, outcome.Success)
	assert.Equal(t, domain.CodeCancelFailed, outcome.ErrorCode)

	// The loser rolled its reversal back; the stock is restored exactly once.
	item, _ := inner.FindItemByID(ctx, 42)
	assert.Equal(t, 10, item.CurrentStock)

	tx, _ := inner.FindTransactionByID(ctx, issued.Transaction.ID)
	assert.Equal(t, "carol", tx.CancelledBy)
}
