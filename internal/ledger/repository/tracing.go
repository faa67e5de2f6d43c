package repository

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/tair/stock-ledger/internal/ledger/domain"
)

var tracer = otel.Tracer("ledger-store")

// TracingLedgerStore wraps a LedgerStore with OpenTelemetry spans
type TracingLedgerStore struct {
	inner domain.LedgerStore
}

func NewTracingLedgerStore(inner domain.LedgerStore) *TracingLedgerStore {
	return &TracingLedgerStore{inner: inner}
}

func (s *TracingLedgerStore) FindItemByID(ctx context.Context, id uint) (*domain.Item, error) {
	ctx, span := tracer.Start(ctx, "store.FindItemByID",
		trace.WithAttributes(attribute.Int("item.id", int(id))),
	)
	defer span.End()

	item, err := s.inner.FindItemByID(ctx, id)
	if err != nil {
		recordError(span, err)
		return nil, err
	}
	span.SetAttributes(
		attribute.String("item.code", item.Code),
		attribute.Int("item.current_stock", item.CurrentStock),
		attribute.Int64("item.version", item.Version),
	)
	return item, nil
}

func (s *TracingLedgerStore) FindItemByCode(ctx context.Context, code string) (*domain.Item, error) {
	ctx, span := tracer.Start(ctx, "store.FindItemByCode",
		trace.WithAttributes(attribute.String("item.code", code)),
	)
	defer span.End()

	item, err := s.inner.FindItemByCode(ctx, code)
	if err != nil {
		recordError(span, err)
		return nil, err
	}
	span.SetAttributes(attribute.Int("item.id", int(item.ID)))
	return item, nil
}

func (s *TracingLedgerStore) UpdateItem(ctx context.Context, item *domain.Item, expectedVersion int64) error {
	ctx, span := tracer.Start(ctx, "store.UpdateItem",
		trace.WithAttributes(
			attribute.Int("item.id", int(item.ID)),
			attribute.Int("item.current_stock", item.CurrentStock),
			attribute.Int64("item.expected_version", expectedVersion),
		),
	)
	defer span.End()

	if err := s.inner.UpdateItem(ctx, item, expectedVersion); err != nil {
		recordError(span, err)
		return err
	}
	return nil
}

func (s *TracingLedgerStore) AppendTransaction(ctx context.Context, tx *domain.Transaction) error {
	ctx, span := tracer.Start(ctx, "store.AppendTransaction",
		trace.WithAttributes(
			attribute.Int("transaction.item_id", int(tx.ItemID)),
			attribute.String("transaction.type", string(tx.Type)),
			attribute.Int("transaction.quantity", tx.Quantity),
		),
	)
	defer span.End()

	if err := s.inner.AppendTransaction(ctx, tx); err != nil {
		recordError(span, err)
		return err
	}
	span.SetAttributes(attribute.Int("transaction.id", int(tx.ID)))
	return nil
}

func (s *TracingLedgerStore) FindTransactionByID(ctx context.Context, id uint) (*domain.Transaction, error) {
	ctx, span := tracer.Start(ctx, "store.FindTransactionByID",
		trace.WithAttributes(attribute.Int("transaction.id", int(id))),
	)
	defer span.End()

	tx, err := s.inner.FindTransactionByID(ctx, id)
	if err != nil {
		recordError(span, err)
		return nil, err
	}
	return tx, nil
}

func (s *TracingLedgerStore) UpdateTransaction(ctx context.Context, tx *domain.Transaction, expectedVersion int64) error {
	ctx, span := tracer.Start(ctx, "store.UpdateTransaction",
		trace.WithAttributes(
			attribute.Int("transaction.id", int(tx.ID)),
			attribute.Bool("transaction.is_cancelled", tx.IsCancelled),
			attribute.Int64("transaction.expected_version", expectedVersion),
		),
	)
	defer span.End()

	if err := s.inner.UpdateTransaction(ctx, tx, expectedVersion); err != nil {
		recordError(span, err)
		return err
	}
	return nil
}

func (s *TracingLedgerStore) LatestActiveIssue(ctx context.Context) (*domain.Transaction, error) {
	ctx, span := tracer.Start(ctx, "store.LatestActiveIssue")
	defer span.End()

	tx, err := s.inner.LatestActiveIssue(ctx)
	if err != nil {
		recordError(span, err)
		return nil, err
	}
	span.SetAttributes(attribute.Int("transaction.id", int(tx.ID)))
	return tx, nil
}

func (s *TracingLedgerStore) ListTransactions(ctx context.Context, limit, offset int) ([]domain.Transaction, error) {
	ctx, span := tracer.Start(ctx, "store.ListTransactions",
		trace.WithAttributes(
			attribute.Int("query.limit", limit),
			attribute.Int("query.offset", offset),
		),
	)
	defer span.End()

	txs, err := s.inner.ListTransactions(ctx, limit, offset)
	if err != nil {
		recordError(span, err)
		return nil, err
	}
	span.SetAttributes(attribute.Int("result.count", len(txs)))
	return txs, nil
}

func (s *TracingLedgerStore) FindDepartmentByID(ctx context.Context, id uint) (*domain.Department, error) {
	ctx, span := tracer.Start(ctx, "store.FindDepartmentByID",
		trace.WithAttributes(attribute.Int("department.id", int(id))),
	)
	defer span.End()

	dept, err := s.inner.FindDepartmentByID(ctx, id)
	if err != nil {
		recordError(span, err)
		return nil, err
	}
	return dept, nil
}

func (s *TracingLedgerStore) ListActiveDepartments(ctx context.Context) ([]domain.Department, error) {
	ctx, span := tracer.Start(ctx, "store.ListActiveDepartments")
	defer span.End()

	depts, err := s.inner.ListActiveDepartments(ctx)
	if err != nil {
		recordError(span, err)
		return nil, err
	}
	span.SetAttributes(attribute.Int("result.count", len(depts)))
	return depts, nil
}

func recordError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
