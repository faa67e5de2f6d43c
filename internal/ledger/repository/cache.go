package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tair/stock-ledger/internal/ledger/domain"
	"github.com/tair/stock-ledger/pkg/logger"
)

const itemCacheTTL = 30 * time.Second

// CachedLedgerStore layers a Redis read-through cache over item lookups by
// code, the hot path behind barcode scans. Stock levels read through the
// cache are advisory only; the authoritative check stays in the conditional
// write, so a stale hit is harmless. Cache entries are dropped on every
// committed stock change.
type CachedLedgerStore struct {
	domain.LedgerStore
	rdb *redis.Client
}

func NewCachedLedgerStore(inner domain.LedgerStore, rdb *redis.Client) *CachedLedgerStore {
	return &CachedLedgerStore{LedgerStore: inner, rdb: rdb}
}

func itemCodeKey(code string) string {
	return fmt.Sprintf("ledger:item:code:%s", code)
}

func (s *CachedLedgerStore) FindItemByCode(ctx context.Context, code string) (*domain.Item, error) {
	key := itemCodeKey(code)

	cached, err := s.rdb.Get(ctx, key).Result()
	if err == nil {
		var item domain.Item
		if err := json.Unmarshal([]byte(cached), &item); err == nil {
			return &item, nil
		}
		// corrupt entry, fall through to the store
		s.rdb.Del(ctx, key)
	} else if err != redis.Nil {
		logger.Warn(ctx).Err(err).Str("key", key).Msg("Item cache read failed")
	}

	item, err := s.LedgerStore.FindItemByCode(ctx, code)
	if err != nil {
		return nil, err
	}

	if payload, err := json.Marshal(item); err == nil {
		if err := s.rdb.Set(ctx, key, payload, itemCacheTTL).Err(); err != nil {
			logger.Warn(ctx).Err(err).Str("key", key).Msg("Item cache write failed")
		}
	}
	return item, nil
}

func (s *CachedLedgerStore) UpdateItem(ctx context.Context, item *domain.Item, expectedVersion int64) error {
	if err := s.LedgerStore.UpdateItem(ctx, item, expectedVersion); err != nil {
		return err
	}
	if err := s.rdb.Del(ctx, itemCodeKey(item.Code)).Err(); err != nil {
		logger.Warn(ctx).Err(err).Str("code", item.Code).Msg("Item cache invalidation failed")
	}
	return nil
}
