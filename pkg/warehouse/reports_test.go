package warehouse_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/nemonet1337/zaikoAuditGo/pkg/warehouse"
	"github.com/nemonet1337/zaikoAuditGo/pkg/warehouse/storage"
)

// TestStockReport は在庫レポート集計のテスト
func TestStockReport(t *testing.T) {
	manager, _, component, location := newTestManager(t)
	ctx := context.Background()

	// 単価付きで最小在庫50の部品を追加
	expensive := &warehouse.Component{
		PartNumber: "AD797",
		Name:       "オペアンプ",
		Unit:       "pcs",
		MinStock:   50,
		PriceRub:   decimal.NewNullDecimal(decimal.NewFromFloat(120.50)),
	}
	require.NoError(t, manager.CreateComponent(ctx, expensive, "tester"))

	confirmReceipt(t, manager, component, location, "RCP-001", 100)

	receipt := &warehouse.Receipt{
		Number:    "RCP-002",
		CreatedBy: "tester",
		Items: []warehouse.ReceiptItem{
			{ComponentID: expensive.ID, LocationID: &location.ID, Quantity: 20},
		},
	}
	require.NoError(t, manager.CreateReceipt(ctx, receipt))
	require.NoError(t, manager.ConfirmReceipt(ctx, receipt.ID, "tester"))

	report, err := manager.StockReport(ctx, warehouse.StockReportOptions{})
	require.NoError(t, err)
	require.Len(t, report.Rows, 2)

	// 最小在庫50に対し残高20の部品が下限割れとして数えられる
	assert.Equal(t, 1, report.BelowMinCount)
	for _, row := range report.Rows {
		if row.ComponentID == expensive.ID {
			assert.True(t, row.BelowMin)
			assert.Equal(t, int64(20), row.TotalQuantity)
			// 評価額 = 120.50 × 20
			require.True(t, row.TotalValue.Valid)
			assert.True(t, row.TotalValue.Decimal.Equal(decimal.NewFromFloat(2410)))
		} else {
			assert.False(t, row.BelowMin)
		}
	}
	assert.True(t, report.TotalValue.Equal(decimal.NewFromFloat(2410)))
}

// TestStockReportBelowMinOnly は下限割れ部品のみの絞り込みテスト
func TestStockReportBelowMinOnly(t *testing.T) {
	manager, _, component, location := newTestManager(t)
	ctx := context.Background()

	low := &warehouse.Component{
		PartNumber: "LM358",
		Name:       "オペアンプ",
		Unit:       "pcs",
		MinStock:   100,
	}
	require.NoError(t, manager.CreateComponent(ctx, low, "tester"))

	confirmReceipt(t, manager, component, location, "RCP-001", 500)

	receipt := &warehouse.Receipt{
		Number:    "RCP-002",
		CreatedBy: "tester",
		Items: []warehouse.ReceiptItem{
			{ComponentID: low.ID, LocationID: &location.ID, Quantity: 30},
		},
	}
	require.NoError(t, manager.CreateReceipt(ctx, receipt))
	require.NoError(t, manager.ConfirmReceipt(ctx, receipt.ID, "tester"))

	report, err := manager.StockReport(ctx, warehouse.StockReportOptions{BelowMinOnly: true})
	require.NoError(t, err)
	require.Len(t, report.Rows, 1)
	assert.Equal(t, low.ID, report.Rows[0].ComponentID)
	assert.True(t, report.Rows[0].BelowMin)
}

// TestMovementReport は移動レポートの並び順と内容のテスト
func TestMovementReport(t *testing.T) {
	manager, _, component, location := newTestManager(t)
	ctx := context.Background()

	confirmReceipt(t, manager, component, location, "RCP-001", 10)
	require.NoError(t, manager.AdjustStock(ctx, component.ID, location.ID, 8, "破損除却", "tester"))

	report, err := manager.MovementReport(ctx, warehouse.MovementReportOptions{
		ComponentID: &component.ID,
	})
	require.NoError(t, err)
	require.Len(t, report.Rows, 2)
	assert.False(t, report.Truncated)

	// 新しい順: 補正が先頭、受入が次
	assert.Equal(t, warehouse.ActionAdjust, report.Rows[0].Action)
	assert.Equal(t, int64(-2), report.Rows[0].Delta)
	assert.Equal(t, warehouse.ActionReceipt, report.Rows[1].Action)
	assert.Equal(t, int64(10), report.Rows[1].Delta)
}

// TestMovementReportTruncation は移動レポートの上限打ち切りテスト
func TestMovementReportTruncation(t *testing.T) {
	store := storage.NewMemoryStorage()
	manager := warehouse.NewManager(store, nil, zap.NewNop(), &warehouse.Config{
		DefaultLocationCode: "MAIN",
		MovementReportLimit: 2,
		LedgerPageLimit:     100,
	})
	ctx := context.Background()

	location := &warehouse.StorageLocation{Code: "MAIN"}
	require.NoError(t, manager.CreateLocation(ctx, location, "tester"))
	component := &warehouse.Component{PartNumber: "R-0805-10K", Name: "抵抗", Unit: "pcs"}
	require.NoError(t, manager.CreateComponent(ctx, component, "tester"))

	// 上限2に対して3件の数量変更を記録する
	for _, qty := range []int64{10, 20, 30} {
		require.NoError(t, manager.AdjustStock(ctx, component.ID, location.ID, qty,
			"初期在庫登録", "tester"))
	}

	report, err := manager.MovementReport(ctx, warehouse.MovementReportOptions{})
	require.NoError(t, err)
	assert.True(t, report.Truncated)
	assert.Len(t, report.Rows, 2)

	// 最新の2件のみが含まれる
	assert.Equal(t, int64(30), report.Rows[0].After)
	assert.Equal(t, int64(20), report.Rows[1].After)
}

// TestStockReportByLocation はロケーション指定レポートのテスト
func TestStockReportByLocation(t *testing.T) {
	manager, _, component, location := newTestManager(t)
	ctx := context.Background()

	second := &warehouse.StorageLocation{Code: "SUB", Rack: "B2"}
	require.NoError(t, manager.CreateLocation(ctx, second, "tester"))

	confirmReceipt(t, manager, component, location, "RCP-001", 40)

	receipt := &warehouse.Receipt{
		Number:    "RCP-002",
		CreatedBy: "tester",
		Items: []warehouse.ReceiptItem{
			{ComponentID: component.ID, LocationID: &second.ID, Quantity: 15},
		},
	}
	require.NoError(t, manager.CreateReceipt(ctx, receipt))
	require.NoError(t, manager.ConfirmReceipt(ctx, receipt.ID, "tester"))

	// 全体では55、SUBのみでは15
	total, err := manager.GetTotalStock(ctx, component.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(55), total)

	report, err := manager.StockReport(ctx, warehouse.StockReportOptions{LocationID: &second.ID})
	require.NoError(t, err)
	require.Len(t, report.Rows, 1)
	assert.Equal(t, int64(15), report.Rows[0].TotalQuantity)
}
