package warehouse_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/nemonet1337/zaikoAuditGo/pkg/warehouse"
	"github.com/nemonet1337/zaikoAuditGo/pkg/warehouse/storage"
)

// capturePublisher はテスト用のイベント記録パブリッシャー
type capturePublisher struct {
	stockChanged []warehouse.StockChangedEvent
	lowStock     []warehouse.LowStockAlertEvent
	confirmed    []warehouse.DocumentConfirmedEvent
}

func (p *capturePublisher) PublishStockChanged(ctx context.Context, event warehouse.StockChangedEvent) error {
	p.stockChanged = append(p.stockChanged, event)
	return nil
}

func (p *capturePublisher) PublishLowStockAlert(ctx context.Context, event warehouse.LowStockAlertEvent) error {
	p.lowStock = append(p.lowStock, event)
	return nil
}

func (p *capturePublisher) PublishDocumentConfirmed(ctx context.Context, event warehouse.DocumentConfirmedEvent) error {
	p.confirmed = append(p.confirmed, event)
	return nil
}

// newTestManager はインメモリストレージでマネージャーと基本マスタを準備
func newTestManager(t *testing.T) (*warehouse.Manager, *capturePublisher, *warehouse.Component, *warehouse.StorageLocation) {
	t.Helper()

	store := storage.NewMemoryStorage()
	publisher := &capturePublisher{}
	manager := warehouse.NewManager(store, publisher, zap.NewNop(), nil)
	ctx := context.Background()

	location := &warehouse.StorageLocation{Code: "MAIN", Rack: "A1"}
	require.NoError(t, manager.CreateLocation(ctx, location, "tester"))

	component := &warehouse.Component{
		PartNumber: "STM32F103",
		Name:       "テスト部品",
		Unit:       "pcs",
	}
	require.NoError(t, manager.CreateComponent(ctx, component, "tester"))

	return manager, publisher, component, location
}

// confirmReceipt は指定数量の受入伝票を作成して確定
func confirmReceipt(t *testing.T, manager *warehouse.Manager, component *warehouse.Component, location *warehouse.StorageLocation, number string, quantity int64) {
	t.Helper()
	ctx := context.Background()

	receipt := &warehouse.Receipt{
		Number:    number,
		CreatedBy: "tester",
		Items: []warehouse.ReceiptItem{
			{ComponentID: component.ID, LocationID: &location.ID, Quantity: quantity},
		},
	}
	require.NoError(t, manager.CreateReceipt(ctx, receipt))
	require.NoError(t, manager.ConfirmReceipt(ctx, receipt.ID, "tester"))
}

// TestReceiptWorkflow は受入伝票による入庫のテスト
func TestReceiptWorkflow(t *testing.T) {
	manager, publisher, component, location := newTestManager(t)
	ctx := context.Background()

	receipt := &warehouse.Receipt{
		Number:        "RCP-001",
		InvoiceNumber: "INV-100",
		CreatedBy:     "tester",
		Items: []warehouse.ReceiptItem{
			{ComponentID: component.ID, LocationID: &location.ID, Quantity: 10},
		},
	}
	require.NoError(t, manager.CreateReceipt(ctx, receipt))
	assert.Equal(t, warehouse.StatusDraft, receipt.Status)

	// 下書きの時点では在庫は存在しない
	_, err := manager.GetStock(ctx, component.ID, location.ID)
	assert.ErrorIs(t, err, warehouse.ErrStockNotFound)

	require.NoError(t, manager.ConfirmReceipt(ctx, receipt.ID, "tester"))

	// 残高0から10になり、台帳に受入1行が記録される
	stock, err := manager.GetStock(ctx, component.ID, location.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(10), stock.Quantity)

	action := warehouse.ActionReceipt
	entries, err := manager.ListLedger(ctx, warehouse.LedgerFilter{
		ComponentID: &component.ID,
		Action:      &action,
	})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, int64(0), *entries[0].QuantityBefore)
	assert.Equal(t, int64(10), *entries[0].QuantityAfter)
	assert.Equal(t, "receipt", entries[0].EntityType)

	// 伝票は確定済みになる
	confirmed, err := manager.GetReceipt(ctx, receipt.ID)
	require.NoError(t, err)
	assert.Equal(t, warehouse.StatusConfirmed, confirmed.Status)
	assert.NotNil(t, confirmed.ReceivedAt)

	// イベントが発行される
	require.Len(t, publisher.stockChanged, 1)
	assert.Equal(t, int64(10), publisher.stockChanged[0].NewQuantity)
	require.Len(t, publisher.confirmed, 1)
	assert.Equal(t, "receipt", publisher.confirmed[0].DocumentType)
}

// TestReceiptDoubleConfirm は確定済み伝票の再確定拒否テスト
func TestReceiptDoubleConfirm(t *testing.T) {
	manager, _, component, location := newTestManager(t)
	ctx := context.Background()

	confirmReceipt(t, manager, component, location, "RCP-001", 10)

	receipts, err := manager.ListReceipts(ctx, 0, 10)
	require.NoError(t, err)
	require.Len(t, receipts, 1)

	// 再確定は拒否され、残高は変化しない
	err = manager.ConfirmReceipt(ctx, receipts[0].ID, "tester")
	assert.ErrorIs(t, err, warehouse.ErrDocumentProcessed)

	stock, err := manager.GetStock(ctx, component.ID, location.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(10), stock.Quantity)
}

// TestIssueWorkflow は払出伝票による出庫のテスト
func TestIssueWorkflow(t *testing.T) {
	manager, _, component, location := newTestManager(t)
	ctx := context.Background()

	confirmReceipt(t, manager, component, location, "RCP-001", 10)

	issue := &warehouse.Issue{
		Number:     "ISS-001",
		Department: "開発部",
		CreatedBy:  "tester",
		Items: []warehouse.IssueItem{
			{ComponentID: component.ID, LocationID: &location.ID, Quantity: 4},
		},
	}
	require.NoError(t, manager.CreateIssue(ctx, issue))
	require.NoError(t, manager.ConfirmIssue(ctx, issue.ID, "tester"))

	stock, err := manager.GetStock(ctx, component.ID, location.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(6), stock.Quantity)

	action := warehouse.ActionIssue
	entries, err := manager.ListLedger(ctx, warehouse.LedgerFilter{Action: &action})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.NotNil(t, entries[0].Delta())
	assert.Equal(t, int64(-4), *entries[0].Delta())
}

// TestIssueInsufficientStock は在庫不足時の伝票全体拒否テスト
func TestIssueInsufficientStock(t *testing.T) {
	manager, _, component, location := newTestManager(t)
	ctx := context.Background()

	confirmReceipt(t, manager, component, location, "RCP-001", 10)

	// 在庫10に対して15の払出は伝票全体が失敗する
	issue := &warehouse.Issue{
		Number:     "ISS-001",
		Department: "開発部",
		CreatedBy:  "tester",
		Items: []warehouse.IssueItem{
			{ComponentID: component.ID, LocationID: &location.ID, Quantity: 15},
		},
	}
	require.NoError(t, manager.CreateIssue(ctx, issue))

	err := manager.ConfirmIssue(ctx, issue.ID, "tester")
	assert.ErrorIs(t, err, warehouse.ErrInsufficientStock)

	var insufficientErr *warehouse.InsufficientStockError
	require.ErrorAs(t, err, &insufficientErr)
	assert.Equal(t, int64(10), insufficientErr.Available)
	assert.Equal(t, int64(15), insufficientErr.Requested)

	// 残高は変化せず、伝票は下書きのまま
	stock, err := manager.GetStock(ctx, component.ID, location.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(10), stock.Quantity)

	reloaded, err := manager.GetIssue(ctx, issue.ID)
	require.NoError(t, err)
	assert.Equal(t, warehouse.StatusDraft, reloaded.Status)

	// 払出の台帳エントリは一切記録されない
	action := warehouse.ActionIssue
	entries, err := manager.ListLedger(ctx, warehouse.LedgerFilter{Action: &action})
	require.NoError(t, err)
	assert.Empty(t, entries)
}

// TestIssuePartialFailureRollsBack は複数行伝票の途中失敗で全行が戻るテスト
func TestIssuePartialFailureRollsBack(t *testing.T) {
	manager, _, component, location := newTestManager(t)
	ctx := context.Background()

	confirmReceipt(t, manager, component, location, "RCP-001", 10)

	// 1行目は成立するが2行目が在庫不足になる伝票
	issue := &warehouse.Issue{
		Number:     "ISS-001",
		Department: "製造部",
		CreatedBy:  "tester",
		Items: []warehouse.IssueItem{
			{ComponentID: component.ID, LocationID: &location.ID, Quantity: 5},
			{ComponentID: component.ID, LocationID: &location.ID, Quantity: 8},
		},
	}
	require.NoError(t, manager.CreateIssue(ctx, issue))

	err := manager.ConfirmIssue(ctx, issue.ID, "tester")
	assert.ErrorIs(t, err, warehouse.ErrInsufficientStock)

	// 1行目の引き落としも巻き戻る
	stock, err := manager.GetStock(ctx, component.ID, location.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(10), stock.Quantity)
}

// TestStocktakeDiscrepancy は棚卸差異補正のテスト
func TestStocktakeDiscrepancy(t *testing.T) {
	manager, _, component, location := newTestManager(t)
	ctx := context.Background()

	confirmReceipt(t, manager, component, location, "RCP-001", 10)

	// 帳簿10に対して実数7を数えた棚卸
	stocktake := &warehouse.Stocktake{
		Number:    "STK-001",
		CreatedBy: "tester",
		Items: []warehouse.StocktakeItem{
			{ComponentID: component.ID, LocationID: &location.ID, ActualQuantity: 7},
		},
	}
	require.NoError(t, manager.CreateStocktake(ctx, stocktake))
	require.NoError(t, manager.ConfirmStocktake(ctx, stocktake.ID, "tester"))

	// 差異-3が記録され、残高は実数に一致する
	confirmed, err := manager.GetStocktake(ctx, stocktake.ID)
	require.NoError(t, err)
	require.Len(t, confirmed.Items, 1)
	assert.Equal(t, int64(10), confirmed.Items[0].ExpectedQuantity)
	assert.Equal(t, int64(7), confirmed.Items[0].ActualQuantity)
	assert.Equal(t, int64(-3), confirmed.Items[0].Discrepancy)

	stock, err := manager.GetStock(ctx, component.ID, location.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(7), stock.Quantity)

	action := warehouse.ActionStocktake
	entries, err := manager.ListLedger(ctx, warehouse.LedgerFilter{Action: &action})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, int64(10), *entries[0].QuantityBefore)
	assert.Equal(t, int64(7), *entries[0].QuantityAfter)
}

// TestStocktakeZeroDiscrepancy は差異なし行が台帳に触れないテスト
func TestStocktakeZeroDiscrepancy(t *testing.T) {
	manager, _, component, location := newTestManager(t)
	ctx := context.Background()

	confirmReceipt(t, manager, component, location, "RCP-001", 10)

	// 実数が帳簿と一致する棚卸
	stocktake := &warehouse.Stocktake{
		Number:    "STK-001",
		CreatedBy: "tester",
		Items: []warehouse.StocktakeItem{
			{ComponentID: component.ID, LocationID: &location.ID, ActualQuantity: 10},
		},
	}
	require.NoError(t, manager.CreateStocktake(ctx, stocktake))
	require.NoError(t, manager.ConfirmStocktake(ctx, stocktake.ID, "tester"))

	// 結果は保存されるが補正エントリは記録されない
	confirmed, err := manager.GetStocktake(ctx, stocktake.ID)
	require.NoError(t, err)
	assert.Equal(t, warehouse.StatusConfirmed, confirmed.Status)
	assert.Equal(t, int64(10), confirmed.Items[0].ExpectedQuantity)
	assert.Equal(t, int64(0), confirmed.Items[0].Discrepancy)

	action := warehouse.ActionStocktake
	entries, err := manager.ListLedger(ctx, warehouse.LedgerFilter{Action: &action})
	require.NoError(t, err)
	assert.Empty(t, entries)

	stock, err := manager.GetStock(ctx, component.ID, location.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(10), stock.Quantity)
}

// TestStocktakeUnknownStock は未登録在庫を残高0として扱う棚卸テスト
func TestStocktakeUnknownStock(t *testing.T) {
	manager, _, component, location := newTestManager(t)
	ctx := context.Background()

	// 在庫行が存在しない部品の棚卸: 帳簿0、実数5
	stocktake := &warehouse.Stocktake{
		Number:    "STK-001",
		CreatedBy: "tester",
		Items: []warehouse.StocktakeItem{
			{ComponentID: component.ID, LocationID: &location.ID, ActualQuantity: 5},
		},
	}
	require.NoError(t, manager.CreateStocktake(ctx, stocktake))
	require.NoError(t, manager.ConfirmStocktake(ctx, stocktake.ID, "tester"))

	confirmed, err := manager.GetStocktake(ctx, stocktake.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), confirmed.Items[0].ExpectedQuantity)
	assert.Equal(t, int64(5), confirmed.Items[0].Discrepancy)

	stock, err := manager.GetStock(ctx, component.ID, location.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(5), stock.Quantity)
}

// TestCancelDraftOnly は取消が下書き限定であることのテスト
func TestCancelDraftOnly(t *testing.T) {
	manager, _, component, location := newTestManager(t)
	ctx := context.Background()

	// 下書きの取消は成功する
	receipt := &warehouse.Receipt{
		Number:    "RCP-001",
		CreatedBy: "tester",
		Items: []warehouse.ReceiptItem{
			{ComponentID: component.ID, LocationID: &location.ID, Quantity: 10},
		},
	}
	require.NoError(t, manager.CreateReceipt(ctx, receipt))
	require.NoError(t, manager.CancelReceipt(ctx, receipt.ID, "tester"))

	cancelled, err := manager.GetReceipt(ctx, receipt.ID)
	require.NoError(t, err)
	assert.Equal(t, warehouse.StatusCancelled, cancelled.Status)
	// 取消しただけの伝票に受入日時は付かない
	assert.Nil(t, cancelled.ReceivedAt)

	// 取消済み伝票は確定できない
	err = manager.ConfirmReceipt(ctx, receipt.ID, "tester")
	assert.ErrorIs(t, err, warehouse.ErrDocumentProcessed)

	// 取消済み伝票は再取消もできない
	err = manager.CancelReceipt(ctx, receipt.ID, "tester")
	assert.ErrorIs(t, err, warehouse.ErrDocumentProcessed)

	// 取消は在庫に触れない
	_, err = manager.GetStock(ctx, component.ID, location.ID)
	assert.ErrorIs(t, err, warehouse.ErrStockNotFound)
}

// TestCancelConfirmedDocument は確定済み伝票の取消拒否テスト
func TestCancelConfirmedDocument(t *testing.T) {
	manager, _, component, location := newTestManager(t)
	ctx := context.Background()

	confirmReceipt(t, manager, component, location, "RCP-001", 10)

	receipts, err := manager.ListReceipts(ctx, 0, 10)
	require.NoError(t, err)
	require.Len(t, receipts, 1)

	err = manager.CancelReceipt(ctx, receipts[0].ID, "tester")
	assert.ErrorIs(t, err, warehouse.ErrDocumentProcessed)
}

// TestDefaultLocationResolution はロケーション未指定行のデフォルト割当テスト
func TestDefaultLocationResolution(t *testing.T) {
	manager, _, component, location := newTestManager(t)
	ctx := context.Background()

	// ロケーション未指定の行はMAINに割り当てられる
	receipt := &warehouse.Receipt{
		Number:    "RCP-001",
		CreatedBy: "tester",
		Items: []warehouse.ReceiptItem{
			{ComponentID: component.ID, Quantity: 10},
		},
	}
	require.NoError(t, manager.CreateReceipt(ctx, receipt))
	require.NoError(t, manager.ConfirmReceipt(ctx, receipt.ID, "tester"))

	stock, err := manager.GetStock(ctx, component.ID, location.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(10), stock.Quantity)
}

// TestDuplicateDocumentNumber は伝票番号の重複拒否テスト
func TestDuplicateDocumentNumber(t *testing.T) {
	manager, _, component, location := newTestManager(t)
	ctx := context.Background()

	first := &warehouse.Receipt{
		Number:    "RCP-001",
		CreatedBy: "tester",
		Items: []warehouse.ReceiptItem{
			{ComponentID: component.ID, LocationID: &location.ID, Quantity: 5},
		},
	}
	require.NoError(t, manager.CreateReceipt(ctx, first))

	duplicate := &warehouse.Receipt{
		Number:    "RCP-001",
		CreatedBy: "tester",
		Items: []warehouse.ReceiptItem{
			{ComponentID: component.ID, LocationID: &location.ID, Quantity: 5},
		},
	}
	err := manager.CreateReceipt(ctx, duplicate)
	assert.ErrorIs(t, err, warehouse.ErrDuplicateDocument)
}

// TestBalanceEqualsLedgerDeltas は残高が適用済み差分の合計と一致するテスト
func TestBalanceEqualsLedgerDeltas(t *testing.T) {
	manager, _, component, location := newTestManager(t)
	ctx := context.Background()

	// 受入20 → 払出5 → 補正12 → 棚卸実数9
	confirmReceipt(t, manager, component, location, "RCP-001", 20)

	issue := &warehouse.Issue{
		Number:     "ISS-001",
		Department: "開発部",
		CreatedBy:  "tester",
		Items: []warehouse.IssueItem{
			{ComponentID: component.ID, LocationID: &location.ID, Quantity: 5},
		},
	}
	require.NoError(t, manager.CreateIssue(ctx, issue))
	require.NoError(t, manager.ConfirmIssue(ctx, issue.ID, "tester"))

	require.NoError(t, manager.AdjustStock(ctx, component.ID, location.ID, 12, "破損除却", "tester"))

	stocktake := &warehouse.Stocktake{
		Number:    "STK-001",
		CreatedBy: "tester",
		Items: []warehouse.StocktakeItem{
			{ComponentID: component.ID, LocationID: &location.ID, ActualQuantity: 9},
		},
	}
	require.NoError(t, manager.CreateStocktake(ctx, stocktake))
	require.NoError(t, manager.ConfirmStocktake(ctx, stocktake.ID, "tester"))

	stock, err := manager.GetStock(ctx, component.ID, location.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(9), stock.Quantity)

	// 数量変更エントリの差分合計が残高と一致する
	entries, err := manager.ListLedger(ctx, warehouse.LedgerFilter{
		ComponentID: &component.ID,
		Actions:     warehouse.QuantityActions,
	})
	require.NoError(t, err)
	require.Len(t, entries, 4)

	var sum int64
	for _, entry := range entries {
		require.NotNil(t, entry.Delta())
		sum += *entry.Delta()
	}
	assert.Equal(t, stock.Quantity, sum)
}

// TestConcurrentIssueConfirms は同一在庫を奪い合う払出確定の同時実行テスト
func TestConcurrentIssueConfirms(t *testing.T) {
	manager, _, component, location := newTestManager(t)
	ctx := context.Background()

	// 残高10に対して7の払出を2伝票同時に確定: 成立するのは1件だけ
	confirmReceipt(t, manager, component, location, "RCP-001", 10)

	first := &warehouse.Issue{
		Number:     "ISS-001",
		Department: "開発部",
		CreatedBy:  "tester",
		Items: []warehouse.IssueItem{
			{ComponentID: component.ID, LocationID: &location.ID, Quantity: 7},
		},
	}
	second := &warehouse.Issue{
		Number:     "ISS-002",
		Department: "製造部",
		CreatedBy:  "tester",
		Items: []warehouse.IssueItem{
			{ComponentID: component.ID, LocationID: &location.ID, Quantity: 7},
		},
	}
	require.NoError(t, manager.CreateIssue(ctx, first))
	require.NoError(t, manager.CreateIssue(ctx, second))

	results := make(chan error, 2)
	for _, id := range []int64{first.ID, second.ID} {
		go func(issueID int64) {
			results <- manager.ConfirmIssue(ctx, issueID, "tester")
		}(id)
	}
	errs := []error{<-results, <-results}

	var succeeded, rejected int
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, warehouse.ErrInsufficientStock)
		var insufficientErr *warehouse.InsufficientStockError
		require.ErrorAs(t, err, &insufficientErr)
		assert.Equal(t, int64(3), insufficientErr.Available)
		assert.Equal(t, int64(7), insufficientErr.Requested)
		rejected++
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, rejected)

	// 残高は成立した1件分だけ減る
	stock, err := manager.GetStock(ctx, component.ID, location.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), stock.Quantity)

	action := warehouse.ActionIssue
	entries, err := manager.ListLedger(ctx, warehouse.LedgerFilter{Action: &action})
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

// TestIssueToUnknownComponent は未登録部品の伝票作成拒否テスト
func TestIssueToUnknownComponent(t *testing.T) {
	manager, _, _, location := newTestManager(t)
	ctx := context.Background()

	issue := &warehouse.Issue{
		Number:     "ISS-001",
		Department: "開発部",
		CreatedBy:  "tester",
		Items: []warehouse.IssueItem{
			{ComponentID: 9999, LocationID: &location.ID, Quantity: 1},
		},
	}
	err := manager.CreateIssue(ctx, issue)
	assert.ErrorIs(t, err, warehouse.ErrComponentNotFound)
}
