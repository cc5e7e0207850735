package warehouse

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Manager implements the WarehouseManager interface
// WarehouseManagerインターフェースの実装
type Manager struct {
	storage   Storage        // ストレージ層
	publisher EventPublisher // イベント発行者
	logger    *zap.Logger    // ログ
	config    *Config        // 設定
}

// すべてのインターフェースを実装することを明示
var (
	_ WarehouseManager = (*Manager)(nil)
	_ CatalogManager   = (*Manager)(nil)
)

// Config holds configuration for the warehouse manager
// 倉庫マネージャーの設定を保持
type Config struct {
	DefaultLocationCode string `yaml:"default_location_code"` // ロケーション未指定行の割当先コード
	MovementReportLimit int    `yaml:"movement_report_limit"` // 移動レポートの最大行数
	LedgerPageLimit     int    `yaml:"ledger_page_limit"`     // 台帳照会のデフォルトページサイズ
}

// NewManager creates a new warehouse manager
// 新しい倉庫マネージャーを作成
func NewManager(storage Storage, publisher EventPublisher, logger *zap.Logger, config *Config) *Manager {
	if config == nil {
		config = &Config{
			DefaultLocationCode: "MAIN",
			MovementReportLimit: 500,
			LedgerPageLimit:     100,
		}
	}
	if config.MovementReportLimit <= 0 {
		config.MovementReportLimit = 500
	}
	if config.LedgerPageLimit <= 0 {
		config.LedgerPageLimit = 100
	}

	return &Manager{
		storage:   storage,
		publisher: publisher,
		logger:    logger,
		config:    config,
	}
}

// AdjustStock sets the balance of a component at a location to an absolute
// quantity, recording the computed delta in the ledger. Requires a reason.
// 在庫残高を指定数量に補正し、差分を台帳に記録
func (m *Manager) AdjustStock(ctx context.Context, componentID, locationID, newQuantity int64, reason, performedBy string) error {
	if newQuantity < 0 {
		return NewValidationError("quantity", "負の在庫は許可されていません", fmt.Sprintf("%d", newQuantity))
	}
	if reason == "" {
		return NewValidationError("reason", "補正理由が指定されていません", "")
	}

	// 部品とロケーションの存在確認
	if err := m.validateComponentAndLocation(ctx, componentID, locationID); err != nil {
		return err
	}

	var entry *LedgerEntry
	mut := Mutation{
		ComponentID: componentID,
		LocationID:  locationID,
		Action:      ActionAdjust,
		EntityType:  "stock",
		Description: reason,
		PerformedBy: performedBy,
	}

	err := m.withRetry(ctx, func() error {
		return m.storage.InTransaction(ctx, func(tx Storage) error {
			// 差分はロック下の現在残高から算出する
			before := int64(0)
			stock, err := tx.GetStockForUpdate(ctx, componentID, locationID)
			if err != nil && err != ErrStockNotFound {
				return NewStorageError("get_stock_for_update", "在庫取得に失敗しました", err)
			}
			if stock != nil {
				before = stock.Quantity
			}

			mut.Delta = newQuantity - before
			entry, err = applyMutation(ctx, tx, mut)
			return err
		})
	})
	if err != nil {
		return err
	}

	m.afterMutation(ctx, mut, entry)
	return nil
}

// GetStock gets current stock for a component at a location
// 指定ロケーションの部品在庫を取得
func (m *Manager) GetStock(ctx context.Context, componentID, locationID int64) (*Stock, error) {
	return m.storage.GetStock(ctx, componentID, locationID)
}

// GetTotalStock gets total stock across all locations for a component
// 部品の全ロケーション合計在庫を取得
func (m *Manager) GetTotalStock(ctx context.Context, componentID int64) (int64, error) {
	// 部品の存在確認
	if _, err := m.storage.GetComponent(ctx, componentID); err != nil {
		if err == ErrComponentNotFound {
			return 0, ErrComponentNotFound
		}
		return 0, NewStorageError("get_component", "部品取得に失敗しました", err)
	}

	stocks, err := m.storage.ListStockByComponent(ctx, componentID)
	if err != nil {
		m.logger.Error("合計在庫数取得に失敗しました", zap.Int64("component_id", componentID), zap.Error(err))
		return 0, fmt.Errorf("合計在庫数取得に失敗しました: %w", err)
	}

	var total int64
	for _, s := range stocks {
		total += s.Quantity
	}
	return total, nil
}

// GetStockByLocation gets all stock at a specific location
// 指定ロケーションのすべての在庫を取得
func (m *Manager) GetStockByLocation(ctx context.Context, locationID int64) ([]Stock, error) {
	if _, err := m.storage.GetLocation(ctx, locationID); err != nil {
		if err == ErrLocationNotFound {
			return nil, ErrLocationNotFound
		}
		return nil, NewStorageError("get_location", "ロケーション取得に失敗しました", err)
	}
	return m.storage.ListStockByLocation(ctx, locationID)
}

// ListLedger returns audit ledger entries matching the filter, newest first
// フィルタに一致する監査台帳エントリを新しい順で取得
func (m *Manager) ListLedger(ctx context.Context, filter LedgerFilter) ([]LedgerEntry, error) {
	if filter.From != nil && filter.To != nil && filter.From.After(*filter.To) {
		return nil, NewValidationError("date_range", "開始日が終了日より後になっています",
			fmt.Sprintf("%s > %s", filter.From.Format("2006-01-02"), filter.To.Format("2006-01-02")))
	}
	if filter.Limit <= 0 {
		filter.Limit = m.config.LedgerPageLimit
	}

	entries, err := m.storage.ListLedger(ctx, filter)
	if err != nil {
		m.logger.Error("台帳照会に失敗しました", zap.Error(err))
		return nil, fmt.Errorf("台帳照会に失敗しました: %w", err)
	}

	return entries, nil
}

// GetAlerts gets active alerts for a location
// ロケーションのアクティブアラートを取得
func (m *Manager) GetAlerts(ctx context.Context, locationID int64) ([]StockAlert, error) {
	return m.storage.GetActiveAlerts(ctx, locationID)
}

// ResolveAlert resolves an alert
// アラートを解決
func (m *Manager) ResolveAlert(ctx context.Context, alertID string) error {
	if alertID == "" {
		return NewValidationError("alert_id", "アラートIDが指定されていません", "")
	}
	return m.storage.ResolveAlert(ctx, alertID)
}

// ヘルパーメソッド

// validateComponentAndLocation validates that component and location exist
// 部品とロケーションの存在を確認
func (m *Manager) validateComponentAndLocation(ctx context.Context, componentID, locationID int64) error {
	// 部品の存在確認
	if _, err := m.storage.GetComponent(ctx, componentID); err != nil {
		if err == ErrComponentNotFound {
			return ErrComponentNotFound
		}
		return NewStorageError("get_component", "部品取得に失敗しました", err)
	}

	// ロケーションの存在確認
	if _, err := m.storage.GetLocation(ctx, locationID); err != nil {
		if err == ErrLocationNotFound {
			return ErrLocationNotFound
		}
		return NewStorageError("get_location", "ロケーション取得に失敗しました", err)
	}

	return nil
}

// resolveLineLocation resolves the location for a document line, falling
// back to the configured default location when the line has none
// 伝票行のロケーションを解決（未指定はデフォルトロケーション）
func (m *Manager) resolveLineLocation(ctx context.Context, tx Storage, locationID *int64) (int64, error) {
	if locationID != nil {
		if _, err := tx.GetLocation(ctx, *locationID); err != nil {
			if err == ErrLocationNotFound {
				return 0, ErrLocationNotFound
			}
			return 0, NewStorageError("get_location", "ロケーション取得に失敗しました", err)
		}
		return *locationID, nil
	}

	location, err := tx.GetLocationByCode(ctx, m.config.DefaultLocationCode)
	if err != nil {
		if err == ErrLocationNotFound {
			return 0, NewValidationError("location_id",
				"デフォルトロケーションが存在しません", m.config.DefaultLocationCode)
		}
		return 0, NewStorageError("get_location_by_code", "ロケーション取得に失敗しました", err)
	}
	return location.ID, nil
}

// now is split out so document timestamps stay consistent within one call
func (m *Manager) now() time.Time {
	return time.Now()
}
