package warehouse

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// StockReportOptions controls the stock report scope
// 在庫レポートの対象範囲
type StockReportOptions struct {
	LocationID   *int64 `json:"location_id,omitempty"`    // 特定ロケーションのみ
	BelowMinOnly bool   `json:"below_min_only,omitempty"` // 最小在庫を下回る部品のみ
}

// StockReportRow is one component's aggregated position
// 部品ごとの在庫集計行
type StockReportRow struct {
	ComponentID   int64               `json:"component_id"`
	PartNumber    string              `json:"part_number"`
	Name          string              `json:"name"`
	Unit          string              `json:"unit"`
	TotalQuantity int64               `json:"total_quantity"`
	MinStock      int64               `json:"min_stock"`
	BelowMin      bool                `json:"below_min"`
	PriceRub      decimal.NullDecimal `json:"price_rub"`
	TotalValue    decimal.NullDecimal `json:"total_value"` // 単価×合計数量
}

// StockReport aggregates current balances per component
// 在庫レポート（部品別集計）
type StockReport struct {
	GeneratedAt   time.Time        `json:"generated_at"`
	Rows          []StockReportRow `json:"rows"`
	TotalValue    decimal.Decimal  `json:"total_value"`     // 単価既知の部品の評価額合計
	BelowMinCount int              `json:"below_min_count"` // 最小在庫を下回る部品数
}

// MovementReportOptions controls the movement report scope
// 移動レポートの対象範囲
type MovementReportOptions struct {
	ComponentID *int64     `json:"component_id,omitempty"`
	From        *time.Time `json:"from,omitempty"`
	To          *time.Time `json:"to,omitempty"`
	Limit       int        `json:"limit,omitempty"`
}

// MovementRow is one quantity-bearing ledger entry with its signed delta
// 数量変更1件の移動行
type MovementRow struct {
	EntryID     string     `json:"entry_id"`
	Action      ActionType `json:"action"`
	ComponentID int64      `json:"component_id"`
	LocationID  int64      `json:"location_id"`
	Before      int64      `json:"before"`
	After       int64      `json:"after"`
	Delta       int64      `json:"delta"`
	Description string     `json:"description"`
	PerformedBy string     `json:"performed_by"`
	CreatedAt   time.Time  `json:"created_at"`
}

// MovementReport lists recent stock movements, newest first
// 移動レポート（新しい順）
type MovementReport struct {
	GeneratedAt time.Time     `json:"generated_at"`
	Rows        []MovementRow `json:"rows"`
	Truncated   bool          `json:"truncated"` // 上限で打ち切られた場合true
}

// StockReport builds the per-component stock position report
// 部品別在庫レポートを作成
func (m *Manager) StockReport(ctx context.Context, opts StockReportOptions) (*StockReport, error) {
	var (
		stocks []Stock
		err    error
	)
	if opts.LocationID != nil {
		stocks, err = m.storage.ListStockByLocation(ctx, *opts.LocationID)
	} else {
		stocks, err = m.storage.ListStock(ctx)
	}
	if err != nil {
		m.logger.Error("在庫一覧取得に失敗しました", zap.Error(err))
		return nil, NewStorageError("list_stock", "在庫一覧取得に失敗しました", err)
	}

	// 部品ごとに合算
	totals := make(map[int64]int64)
	order := make([]int64, 0, len(stocks))
	for _, s := range stocks {
		if _, seen := totals[s.ComponentID]; !seen {
			order = append(order, s.ComponentID)
		}
		totals[s.ComponentID] += s.Quantity
	}

	report := &StockReport{
		GeneratedAt: time.Now(),
		Rows:        make([]StockReportRow, 0, len(order)),
		TotalValue:  decimal.Zero,
	}

	for _, componentID := range order {
		component, err := m.storage.GetComponent(ctx, componentID)
		if err != nil {
			return nil, NewStorageError("get_component", "部品取得に失敗しました", err)
		}

		row := StockReportRow{
			ComponentID:   componentID,
			PartNumber:    component.PartNumber,
			Name:          component.Name,
			Unit:          component.Unit,
			TotalQuantity: totals[componentID],
			MinStock:      component.MinStock,
			BelowMin:      component.MinStock > 0 && totals[componentID] < component.MinStock,
			PriceRub:      component.PriceRub,
		}
		if component.PriceRub.Valid {
			value := component.PriceRub.Decimal.Mul(decimal.NewFromInt(totals[componentID]))
			row.TotalValue = decimal.NewNullDecimal(value)
			report.TotalValue = report.TotalValue.Add(value)
		}

		if opts.BelowMinOnly && !row.BelowMin {
			continue
		}
		if row.BelowMin {
			report.BelowMinCount++
		}
		report.Rows = append(report.Rows, row)
	}

	m.logger.Info("在庫レポート作成完了",
		zap.Int("rows", len(report.Rows)),
		zap.Int("below_min", report.BelowMinCount),
	)
	return report, nil
}

// MovementReport lists quantity-bearing ledger entries, newest first,
// capped by the configured limit
// 数量変更の移動レポートを作成（新しい順、上限あり）
func (m *Manager) MovementReport(ctx context.Context, opts MovementReportOptions) (*MovementReport, error) {
	limit := opts.Limit
	if limit <= 0 || limit > m.config.MovementReportLimit {
		limit = m.config.MovementReportLimit
	}

	filter := LedgerFilter{
		ComponentID: opts.ComponentID,
		Actions:     QuantityActions,
		From:        opts.From,
		To:          opts.To,
		Limit:       limit + 1, // 打ち切り検出のため1件多く取得
	}

	entries, err := m.storage.ListLedger(ctx, filter)
	if err != nil {
		m.logger.Error("移動レポート作成に失敗しました", zap.Error(err))
		return nil, NewStorageError("list_ledger", "台帳照会に失敗しました", err)
	}

	report := &MovementReport{
		GeneratedAt: time.Now(),
		Rows:        make([]MovementRow, 0, len(entries)),
	}
	if len(entries) > limit {
		report.Truncated = true
		entries = entries[:limit]
	}

	for _, e := range entries {
		if e.ComponentID == nil || e.LocationID == nil || e.QuantityBefore == nil || e.QuantityAfter == nil {
			continue
		}
		report.Rows = append(report.Rows, MovementRow{
			EntryID:     e.ID,
			Action:      e.Action,
			ComponentID: *e.ComponentID,
			LocationID:  *e.LocationID,
			Before:      *e.QuantityBefore,
			After:       *e.QuantityAfter,
			Delta:       *e.QuantityAfter - *e.QuantityBefore,
			Description: e.Description,
			PerformedBy: e.PerformedBy,
			CreatedAt:   e.CreatedAt,
		})
	}

	m.logger.Info("移動レポート作成完了",
		zap.Int("rows", len(report.Rows)),
		zap.Bool("truncated", report.Truncated),
	)
	return report, nil
}
