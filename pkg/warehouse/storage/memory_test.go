package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nemonet1337/zaikoAuditGo/pkg/warehouse"
)

func newStock(componentID, locationID, quantity int64) *warehouse.Stock {
	return &warehouse.Stock{
		ComponentID: componentID,
		LocationID:  locationID,
		Quantity:    quantity,
		Version:     1,
		UpdatedAt:   time.Now(),
		UpdatedBy:   "tester",
	}
}

// TestMemoryStorage_OptimisticLock は楽観ロックの版数チェックテスト
func TestMemoryStorage_OptimisticLock(t *testing.T) {
	store := NewMemoryStorage()
	ctx := context.Background()

	stock := newStock(1, 1, 10)
	require.NoError(t, store.CreateStock(ctx, stock))

	// 正しい版数遷移 (1→2) は成功する
	current, err := store.GetStock(ctx, 1, 1)
	require.NoError(t, err)
	current.Quantity = 20
	current.Version++
	require.NoError(t, store.UpdateStock(ctx, current))

	// 古い版数からの更新は拒否される
	stale := newStock(1, 1, 99)
	stale.Version = 2 // ストア上は既に2なので、2への更新は版数1からのみ
	err = store.UpdateStock(ctx, stale)
	assert.ErrorIs(t, err, warehouse.ErrVersionMismatch)

	// 残高は成功した更新のまま
	reloaded, err := store.GetStock(ctx, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(20), reloaded.Quantity)
	assert.Equal(t, int64(2), reloaded.Version)
}

// TestMemoryStorage_TransactionRollback はエラー時の巻き戻しテスト
func TestMemoryStorage_TransactionRollback(t *testing.T) {
	store := NewMemoryStorage()
	ctx := context.Background()

	require.NoError(t, store.CreateStock(ctx, newStock(1, 1, 10)))

	boom := errors.New("boom")
	err := store.InTransaction(ctx, func(tx warehouse.Storage) error {
		stock, err := tx.GetStockForUpdate(ctx, 1, 1)
		require.NoError(t, err)
		stock.Quantity = 99
		stock.Version++
		require.NoError(t, tx.UpdateStock(ctx, stock))

		entry := &warehouse.LedgerEntry{
			ID:          warehouse.NewEntryID(),
			Action:      warehouse.ActionAdjust,
			EntityType:  "stock",
			PerformedBy: "tester",
			CreatedAt:   time.Now(),
		}
		require.NoError(t, tx.CreateLedgerEntry(ctx, entry))

		return boom
	})
	assert.ErrorIs(t, err, boom)

	// 在庫・台帳とも変更前の状態に戻る
	stock, err := store.GetStock(ctx, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(10), stock.Quantity)

	entries, err := store.ListLedger(ctx, warehouse.LedgerFilter{})
	require.NoError(t, err)
	assert.Empty(t, entries)
}

// TestMemoryStorage_NestedTransaction はネストした呼び出しの再利用テスト
func TestMemoryStorage_NestedTransaction(t *testing.T) {
	store := NewMemoryStorage()
	ctx := context.Background()

	err := store.InTransaction(ctx, func(tx warehouse.Storage) error {
		// 内側のInTransactionは同一トランザクションを使い回す
		return tx.InTransaction(ctx, func(inner warehouse.Storage) error {
			return inner.CreateStock(ctx, newStock(1, 1, 5))
		})
	})
	require.NoError(t, err)

	stock, err := store.GetStock(ctx, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(5), stock.Quantity)
}

// TestMemoryStorage_LedgerPagination は台帳の並び順とページングのテスト
func TestMemoryStorage_LedgerPagination(t *testing.T) {
	store := NewMemoryStorage()
	ctx := context.Background()

	componentID := int64(1)
	for i := int64(0); i < 5; i++ {
		before := i * 10
		after := before + 10
		entry := &warehouse.LedgerEntry{
			ID:             warehouse.NewEntryID(),
			Action:         warehouse.ActionReceipt,
			EntityType:     "receipt",
			ComponentID:    &componentID,
			QuantityBefore: &before,
			QuantityAfter:  &after,
			PerformedBy:    "tester",
			CreatedAt:      time.Now(),
		}
		require.NoError(t, store.CreateLedgerEntry(ctx, entry))
	}

	// 新しい順で返る
	entries, err := store.ListLedger(ctx, warehouse.LedgerFilter{Limit: 2})
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, int64(50), *entries[0].QuantityAfter)
	assert.Equal(t, int64(40), *entries[1].QuantityAfter)

	// オフセットで続きを取得
	entries, err = store.ListLedger(ctx, warehouse.LedgerFilter{Limit: 2, Offset: 2})
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, int64(30), *entries[0].QuantityAfter)

	// 範囲外オフセットは空
	entries, err = store.ListLedger(ctx, warehouse.LedgerFilter{Offset: 10})
	require.NoError(t, err)
	assert.Empty(t, entries)
}

// TestMemoryStorage_DuplicateStock は在庫行の重複作成拒否テスト
func TestMemoryStorage_DuplicateStock(t *testing.T) {
	store := NewMemoryStorage()
	ctx := context.Background()

	require.NoError(t, store.CreateStock(ctx, newStock(1, 1, 10)))

	err := store.CreateStock(ctx, newStock(1, 1, 20))
	assert.Error(t, err)
}

// TestMemoryStorage_GetStockNotFound は未登録在庫の取得テスト
func TestMemoryStorage_GetStockNotFound(t *testing.T) {
	store := NewMemoryStorage()
	ctx := context.Background()

	_, err := store.GetStock(ctx, 1, 1)
	assert.ErrorIs(t, err, warehouse.ErrStockNotFound)

	_, err = store.GetStockForUpdate(ctx, 1, 1)
	assert.ErrorIs(t, err, warehouse.ErrStockNotFound)
}
