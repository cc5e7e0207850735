package warehouse

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Mutation describes a single signed stock change to apply atomically
// 単一の在庫変更（符号付き差分）を表現
type Mutation struct {
	ComponentID int64      // 部品ID
	LocationID  int64      // ロケーションID
	Delta       int64      // 符号付き差分（受入は正、払出は負）
	Action      ActionType // 台帳に記録するアクション種別
	EntityType  string     // 参照エンティティタイプ（receipt, issue など）
	EntityID    *int64     // 参照エンティティID
	Description string     // 台帳の説明文
	PerformedBy string     // 実行者
}

// maxMutationRetries bounds retries on transient lock conflicts
// 一時的なロック競合時の最大再試行回数
const maxMutationRetries = 3

// retryBackoff is the base delay between mutation retries
const retryBackoff = 20 * time.Millisecond

// applyMutation applies a single mutation against tx, which must already be
// inside a transaction. It creates the stock row on first receipt, rejects
// any change that would drive the balance below zero, and appends exactly
// one ledger entry per applied change. The returned entry is the one it
// wrote. Zero-delta mutations pass through and are still recorded.
// 在庫変更を適用し、監査台帳に1行追記する（トランザクション内で呼ぶこと）
func applyMutation(ctx context.Context, tx Storage, mut Mutation) (*LedgerEntry, error) {
	if mut.ComponentID <= 0 {
		return nil, NewValidationError("component_id", "部品IDが指定されていません", fmt.Sprintf("%d", mut.ComponentID))
	}
	if mut.LocationID <= 0 {
		return nil, NewValidationError("location_id", "ロケーションIDが指定されていません", fmt.Sprintf("%d", mut.LocationID))
	}

	// 在庫行をロック付きで取得（存在しない場合は残高0として扱う）
	stock, err := tx.GetStockForUpdate(ctx, mut.ComponentID, mut.LocationID)
	if err != nil && err != ErrStockNotFound {
		return nil, NewStorageError("get_stock_for_update", "在庫取得に失敗しました", err)
	}

	before := int64(0)
	if stock != nil {
		before = stock.Quantity
	}
	after := before + mut.Delta

	// 残高が負になる変更は拒否する（残高・台帳は変更されない）
	if after < 0 {
		return nil, NewInsufficientStockError(mut.ComponentID, mut.LocationID, before, -mut.Delta)
	}

	now := time.Now()
	if stock == nil {
		stock = &Stock{
			ComponentID: mut.ComponentID,
			LocationID:  mut.LocationID,
			Quantity:    after,
			Reserved:    0,
			Version:     1,
			UpdatedAt:   now,
			UpdatedBy:   mut.PerformedBy,
		}
		stock.CalculateAvailable()

		if err := tx.CreateStock(ctx, stock); err != nil {
			return nil, NewStorageError("create_stock", "在庫作成に失敗しました", err)
		}
	} else {
		stock.Quantity = after
		stock.Version++
		stock.UpdatedAt = now
		stock.UpdatedBy = mut.PerformedBy
		stock.CalculateAvailable()

		if err := tx.UpdateStock(ctx, stock); err != nil {
			return nil, NewStorageError("update_stock", "在庫更新に失敗しました", err)
		}
	}

	// 台帳追記（変更1件につき必ず1行）
	entry := &LedgerEntry{
		ID:             NewEntryID(),
		Action:         mut.Action,
		EntityType:     mut.EntityType,
		EntityID:       mut.EntityID,
		ComponentID:    &mut.ComponentID,
		LocationID:     &mut.LocationID,
		QuantityBefore: &before,
		QuantityAfter:  &after,
		Description:    mut.Description,
		PerformedBy:    mut.PerformedBy,
		CreatedAt:      now,
	}

	if err := tx.CreateLedgerEntry(ctx, entry); err != nil {
		return nil, NewStorageError("create_ledger_entry", "台帳追記に失敗しました", err)
	}

	return entry, nil
}

// ApplyMutation applies one mutation in its own transaction with bounded
// retry on transient conflicts, then fires events and low stock checks
// 単一の在庫変更を独立トランザクションで適用
func (m *Manager) ApplyMutation(ctx context.Context, mut Mutation) (*LedgerEntry, error) {
	var entry *LedgerEntry

	err := m.withRetry(ctx, func() error {
		return m.storage.InTransaction(ctx, func(tx Storage) error {
			var txErr error
			entry, txErr = applyMutation(ctx, tx, mut)
			return txErr
		})
	})
	if err != nil {
		return nil, err
	}

	m.afterMutation(ctx, mut, entry)
	return entry, nil
}

// withRetry runs fn, retrying a bounded number of times when it fails with
// a transient concurrency conflict
// 一時的な競合時に限って再試行
func (m *Manager) withRetry(ctx context.Context, fn func() error) error {
	var err error
	for attempt := 0; attempt <= maxMutationRetries; attempt++ {
		if attempt > 0 {
			m.logger.Warn("競合のため再試行します",
				zap.Int("attempt", attempt),
				zap.Error(err),
			)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(retryBackoff * time.Duration(attempt)):
			}
		}

		err = fn()
		if err == nil || !IsConcurrencyConflict(err) {
			return err
		}
	}
	return err
}

// afterMutation publishes events and checks the low stock threshold once
// the mutation has committed
// コミット後のイベント発行と低在庫チェック
func (m *Manager) afterMutation(ctx context.Context, mut Mutation, entry *LedgerEntry) {
	if entry == nil || entry.QuantityBefore == nil || entry.QuantityAfter == nil {
		return
	}

	if m.publisher != nil {
		event := StockChangedEvent{
			ComponentID: mut.ComponentID,
			LocationID:  mut.LocationID,
			OldQuantity: *entry.QuantityBefore,
			NewQuantity: *entry.QuantityAfter,
			Action:      mut.Action,
			EntryID:     entry.ID,
			Timestamp:   entry.CreatedAt,
			PerformedBy: mut.PerformedBy,
		}
		if err := m.publisher.PublishStockChanged(ctx, event); err != nil {
			m.logger.Error("イベント発行に失敗しました", zap.Error(err))
		}
	}

	// 払出・調整で残高が減った場合のみ低在庫を確認
	if *entry.QuantityAfter < *entry.QuantityBefore {
		m.checkLowStock(ctx, mut.ComponentID, mut.LocationID, *entry.QuantityAfter)
	}

	m.logger.Info("在庫変更完了",
		zap.Int64("component_id", mut.ComponentID),
		zap.Int64("location_id", mut.LocationID),
		zap.Int64("before", *entry.QuantityBefore),
		zap.Int64("after", *entry.QuantityAfter),
		zap.String("action", string(mut.Action)),
		zap.String("entry_id", entry.ID),
	)
}

// checkLowStock creates an alert when the balance falls to or below the
// component's min stock threshold
// 部品の最小在庫を下回った場合にアラートを作成
func (m *Manager) checkLowStock(ctx context.Context, componentID, locationID, currentQty int64) {
	component, err := m.storage.GetComponent(ctx, componentID)
	if err != nil {
		m.logger.Error("部品取得に失敗しました", zap.Int64("component_id", componentID), zap.Error(err))
		return
	}

	if component.MinStock <= 0 || currentQty > component.MinStock {
		return
	}

	alert := &StockAlert{
		ID:          NewAlertID(),
		ComponentID: componentID,
		LocationID:  locationID,
		CurrentQty:  currentQty,
		Threshold:   component.MinStock,
		Message: fmt.Sprintf("部品 %s のロケーション %d での在庫が低下しています (現在: %d, 閾値: %d)",
			component.PartNumber, locationID, currentQty, component.MinStock),
		IsActive:  true,
		CreatedAt: time.Now(),
	}

	if err := m.storage.CreateAlert(ctx, alert); err != nil {
		m.logger.Error("アラート作成に失敗しました", zap.Error(err))
		return
	}

	if m.publisher != nil {
		event := LowStockAlertEvent{
			ComponentID: componentID,
			LocationID:  locationID,
			CurrentQty:  currentQty,
			Threshold:   component.MinStock,
			Timestamp:   time.Now(),
		}
		if err := m.publisher.PublishLowStockAlert(ctx, event); err != nil {
			m.logger.Error("低在庫アラートイベント発行に失敗しました", zap.Error(err))
		}
	}
}
