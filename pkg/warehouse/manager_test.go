package warehouse

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

// MockStorage はテスト用のStorageモック
type MockStorage struct {
	mock.Mock
}

// InTransaction runs the callback against the mock itself
func (m *MockStorage) InTransaction(ctx context.Context, fn func(tx Storage) error) error {
	args := m.Called(ctx)
	if err := args.Error(0); err != nil {
		return err
	}
	return fn(m)
}

func (m *MockStorage) CreateStock(ctx context.Context, stock *Stock) error {
	args := m.Called(ctx, stock)
	return args.Error(0)
}

func (m *MockStorage) UpdateStock(ctx context.Context, stock *Stock) error {
	args := m.Called(ctx, stock)
	return args.Error(0)
}

func (m *MockStorage) GetStock(ctx context.Context, componentID, locationID int64) (*Stock, error) {
	args := m.Called(ctx, componentID, locationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Stock), args.Error(1)
}

func (m *MockStorage) GetStockForUpdate(ctx context.Context, componentID, locationID int64) (*Stock, error) {
	args := m.Called(ctx, componentID, locationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Stock), args.Error(1)
}

func (m *MockStorage) ListStockByComponent(ctx context.Context, componentID int64) ([]Stock, error) {
	args := m.Called(ctx, componentID)
	return args.Get(0).([]Stock), args.Error(1)
}

func (m *MockStorage) ListStockByLocation(ctx context.Context, locationID int64) ([]Stock, error) {
	args := m.Called(ctx, locationID)
	return args.Get(0).([]Stock), args.Error(1)
}

func (m *MockStorage) ListStock(ctx context.Context) ([]Stock, error) {
	args := m.Called(ctx)
	return args.Get(0).([]Stock), args.Error(1)
}

func (m *MockStorage) CreateLedgerEntry(ctx context.Context, entry *LedgerEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockStorage) ListLedger(ctx context.Context, filter LedgerFilter) ([]LedgerEntry, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]LedgerEntry), args.Error(1)
}

func (m *MockStorage) CreateComponent(ctx context.Context, component *Component) error {
	args := m.Called(ctx, component)
	return args.Error(0)
}

func (m *MockStorage) GetComponent(ctx context.Context, componentID int64) (*Component, error) {
	args := m.Called(ctx, componentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Component), args.Error(1)
}

func (m *MockStorage) GetComponentByPartNumber(ctx context.Context, partNumber string) (*Component, error) {
	args := m.Called(ctx, partNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Component), args.Error(1)
}

func (m *MockStorage) UpdateComponent(ctx context.Context, component *Component) error {
	args := m.Called(ctx, component)
	return args.Error(0)
}

func (m *MockStorage) ListComponents(ctx context.Context, filter ComponentFilter, offset, limit int) ([]Component, error) {
	args := m.Called(ctx, filter, offset, limit)
	return args.Get(0).([]Component), args.Error(1)
}

func (m *MockStorage) CreateCategory(ctx context.Context, category *ComponentCategory) error {
	args := m.Called(ctx, category)
	return args.Error(0)
}

func (m *MockStorage) GetCategory(ctx context.Context, categoryID int64) (*ComponentCategory, error) {
	args := m.Called(ctx, categoryID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ComponentCategory), args.Error(1)
}

func (m *MockStorage) DeleteCategory(ctx context.Context, categoryID int64) error {
	args := m.Called(ctx, categoryID)
	return args.Error(0)
}

func (m *MockStorage) ListCategories(ctx context.Context) ([]ComponentCategory, error) {
	args := m.Called(ctx)
	return args.Get(0).([]ComponentCategory), args.Error(1)
}

func (m *MockStorage) CreateManufacturer(ctx context.Context, manufacturer *Manufacturer) error {
	args := m.Called(ctx, manufacturer)
	return args.Error(0)
}

func (m *MockStorage) ListManufacturers(ctx context.Context) ([]Manufacturer, error) {
	args := m.Called(ctx)
	return args.Get(0).([]Manufacturer), args.Error(1)
}

func (m *MockStorage) CreateSupplier(ctx context.Context, supplier *Supplier) error {
	args := m.Called(ctx, supplier)
	return args.Error(0)
}

func (m *MockStorage) GetSupplier(ctx context.Context, supplierID int64) (*Supplier, error) {
	args := m.Called(ctx, supplierID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Supplier), args.Error(1)
}

func (m *MockStorage) UpdateSupplier(ctx context.Context, supplier *Supplier) error {
	args := m.Called(ctx, supplier)
	return args.Error(0)
}

func (m *MockStorage) ListSuppliers(ctx context.Context) ([]Supplier, error) {
	args := m.Called(ctx)
	return args.Get(0).([]Supplier), args.Error(1)
}

func (m *MockStorage) CreateLocation(ctx context.Context, location *StorageLocation) error {
	args := m.Called(ctx, location)
	return args.Error(0)
}

func (m *MockStorage) GetLocation(ctx context.Context, locationID int64) (*StorageLocation, error) {
	args := m.Called(ctx, locationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*StorageLocation), args.Error(1)
}

func (m *MockStorage) GetLocationByCode(ctx context.Context, code string) (*StorageLocation, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*StorageLocation), args.Error(1)
}

func (m *MockStorage) ListLocations(ctx context.Context) ([]StorageLocation, error) {
	args := m.Called(ctx)
	return args.Get(0).([]StorageLocation), args.Error(1)
}

func (m *MockStorage) CreateReceipt(ctx context.Context, receipt *Receipt) error {
	args := m.Called(ctx, receipt)
	return args.Error(0)
}

func (m *MockStorage) GetReceipt(ctx context.Context, receiptID int64) (*Receipt, error) {
	args := m.Called(ctx, receiptID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Receipt), args.Error(1)
}

func (m *MockStorage) UpdateReceiptStatus(ctx context.Context, receiptID int64, status DocumentStatus, processedAt time.Time) error {
	args := m.Called(ctx, receiptID, status, processedAt)
	return args.Error(0)
}

func (m *MockStorage) ListReceipts(ctx context.Context, offset, limit int) ([]Receipt, error) {
	args := m.Called(ctx, offset, limit)
	return args.Get(0).([]Receipt), args.Error(1)
}

func (m *MockStorage) CreateIssue(ctx context.Context, issue *Issue) error {
	args := m.Called(ctx, issue)
	return args.Error(0)
}

func (m *MockStorage) GetIssue(ctx context.Context, issueID int64) (*Issue, error) {
	args := m.Called(ctx, issueID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Issue), args.Error(1)
}

func (m *MockStorage) UpdateIssueStatus(ctx context.Context, issueID int64, status DocumentStatus, processedAt time.Time) error {
	args := m.Called(ctx, issueID, status, processedAt)
	return args.Error(0)
}

func (m *MockStorage) ListIssues(ctx context.Context, offset, limit int) ([]Issue, error) {
	args := m.Called(ctx, offset, limit)
	return args.Get(0).([]Issue), args.Error(1)
}

func (m *MockStorage) CreateStocktake(ctx context.Context, stocktake *Stocktake) error {
	args := m.Called(ctx, stocktake)
	return args.Error(0)
}

func (m *MockStorage) GetStocktake(ctx context.Context, stocktakeID int64) (*Stocktake, error) {
	args := m.Called(ctx, stocktakeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Stocktake), args.Error(1)
}

func (m *MockStorage) UpdateStocktakeStatus(ctx context.Context, stocktakeID int64, status DocumentStatus, processedAt time.Time) error {
	args := m.Called(ctx, stocktakeID, status, processedAt)
	return args.Error(0)
}

func (m *MockStorage) UpdateStocktakeItem(ctx context.Context, item *StocktakeItem) error {
	args := m.Called(ctx, item)
	return args.Error(0)
}

func (m *MockStorage) ListStocktakes(ctx context.Context, offset, limit int) ([]Stocktake, error) {
	args := m.Called(ctx, offset, limit)
	return args.Get(0).([]Stocktake), args.Error(1)
}

func (m *MockStorage) CreateAlert(ctx context.Context, alert *StockAlert) error {
	args := m.Called(ctx, alert)
	return args.Error(0)
}

func (m *MockStorage) GetActiveAlerts(ctx context.Context, locationID int64) ([]StockAlert, error) {
	args := m.Called(ctx, locationID)
	return args.Get(0).([]StockAlert), args.Error(1)
}

func (m *MockStorage) ResolveAlert(ctx context.Context, alertID string) error {
	args := m.Called(ctx, alertID)
	return args.Error(0)
}

func (m *MockStorage) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockStorage) Close() error {
	args := m.Called()
	return args.Error(0)
}

// TestManager_AdjustStock は在庫補正機能のテスト
func TestManager_AdjustStock(t *testing.T) {
	mockStorage := new(MockStorage)
	logger := zap.NewNop()

	manager := NewManager(mockStorage, nil, logger, nil)
	ctx := context.Background()

	// テスト用のサンプルデータ
	component := &Component{
		ID:         1,
		PartNumber: "TEST-PART",
		Name:       "テスト部品",
	}
	location := &StorageLocation{
		ID:   2,
		Code: "TEST-LOC",
	}
	stock := &Stock{
		ID:          10,
		ComponentID: 1,
		LocationID:  2,
		Quantity:    50,
		Version:     3,
	}

	// モックの期待値設定
	mockStorage.On("GetComponent", ctx, int64(1)).Return(component, nil)
	mockStorage.On("GetLocation", ctx, int64(2)).Return(location, nil)
	mockStorage.On("InTransaction", ctx).Return(nil)
	mockStorage.On("GetStockForUpdate", ctx, int64(1), int64(2)).Return(stock, nil)
	mockStorage.On("UpdateStock", ctx, mock.AnythingOfType("*warehouse.Stock")).Return(nil)
	mockStorage.On("CreateLedgerEntry", ctx, mock.AnythingOfType("*warehouse.LedgerEntry")).Return(nil)

	// テスト実行 - 残高50を80に補正
	err := manager.AdjustStock(ctx, 1, 2, 80, "棚卸差異の補正", "tester")

	// アサーション
	assert.NoError(t, err)
	assert.Equal(t, int64(80), stock.Quantity)
	assert.Equal(t, int64(4), stock.Version)
	mockStorage.AssertExpectations(t)
}

// TestManager_AdjustStockValidation は在庫補正の入力検証テスト
func TestManager_AdjustStockValidation(t *testing.T) {
	mockStorage := new(MockStorage)
	logger := zap.NewNop()

	manager := NewManager(mockStorage, nil, logger, nil)
	ctx := context.Background()

	// 負の数量は拒否される
	err := manager.AdjustStock(ctx, 1, 2, -10, "理由", "tester")
	var validationErr *ValidationError
	assert.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "quantity", validationErr.Field)

	// 理由なしも拒否される
	err = manager.AdjustStock(ctx, 1, 2, 10, "", "tester")
	assert.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "reason", validationErr.Field)

	// ストレージには一切到達しない
	mockStorage.AssertExpectations(t)
}

// TestManager_AdjustStockLowStockAlert は補正による低在庫アラートのテスト
func TestManager_AdjustStockLowStockAlert(t *testing.T) {
	mockStorage := new(MockStorage)
	logger := zap.NewNop()

	manager := NewManager(mockStorage, nil, logger, nil)
	ctx := context.Background()

	// 最小在庫10の部品を残高100から5に補正する
	component := &Component{
		ID:         1,
		PartNumber: "TEST-PART",
		Name:       "テスト部品",
		MinStock:   10,
	}
	location := &StorageLocation{
		ID:   2,
		Code: "TEST-LOC",
	}
	stock := &Stock{
		ID:          10,
		ComponentID: 1,
		LocationID:  2,
		Quantity:    100,
		Version:     1,
	}

	mockStorage.On("GetComponent", ctx, int64(1)).Return(component, nil)
	mockStorage.On("GetLocation", ctx, int64(2)).Return(location, nil)
	mockStorage.On("InTransaction", ctx).Return(nil)
	mockStorage.On("GetStockForUpdate", ctx, int64(1), int64(2)).Return(stock, nil)
	mockStorage.On("UpdateStock", ctx, mock.AnythingOfType("*warehouse.Stock")).Return(nil)
	mockStorage.On("CreateLedgerEntry", ctx, mock.AnythingOfType("*warehouse.LedgerEntry")).Return(nil)
	mockStorage.On("CreateAlert", ctx, mock.AnythingOfType("*warehouse.StockAlert")).Return(nil)

	err := manager.AdjustStock(ctx, 1, 2, 5, "紛失分を除却", "tester")

	assert.NoError(t, err)
	mockStorage.AssertExpectations(t)
	mockStorage.AssertCalled(t, "CreateAlert", ctx, mock.AnythingOfType("*warehouse.StockAlert"))
}

// TestManager_GetTotalStock は合計在庫取得のテスト
func TestManager_GetTotalStock(t *testing.T) {
	mockStorage := new(MockStorage)
	logger := zap.NewNop()

	manager := NewManager(mockStorage, nil, logger, nil)
	ctx := context.Background()

	component := &Component{ID: 1, PartNumber: "TEST-PART"}
	stocks := []Stock{
		{ComponentID: 1, LocationID: 1, Quantity: 30},
		{ComponentID: 1, LocationID: 2, Quantity: 45},
	}

	mockStorage.On("GetComponent", ctx, int64(1)).Return(component, nil)
	mockStorage.On("ListStockByComponent", ctx, int64(1)).Return(stocks, nil)

	total, err := manager.GetTotalStock(ctx, 1)

	assert.NoError(t, err)
	assert.Equal(t, int64(75), total)
	mockStorage.AssertExpectations(t)
}

// TestManager_ListLedgerDateRange は台帳照会の日付範囲検証テスト
func TestManager_ListLedgerDateRange(t *testing.T) {
	mockStorage := new(MockStorage)
	logger := zap.NewNop()

	manager := NewManager(mockStorage, nil, logger, nil)
	ctx := context.Background()

	from := time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 8, 10, 0, 0, 0, 0, time.UTC)

	// 開始日が終了日より後の場合はエラー
	_, err := manager.ListLedger(ctx, LedgerFilter{From: &from, To: &to})
	var validationErr *ValidationError
	assert.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "date_range", validationErr.Field)
	mockStorage.AssertExpectations(t)
}

// TestManager_ListLedgerDefaultLimit は台帳照会のデフォルトページサイズテスト
func TestManager_ListLedgerDefaultLimit(t *testing.T) {
	mockStorage := new(MockStorage)
	logger := zap.NewNop()

	manager := NewManager(mockStorage, nil, logger, &Config{LedgerPageLimit: 25})
	ctx := context.Background()

	// Limit未指定時は設定値が適用される
	expected := LedgerFilter{Limit: 25}
	mockStorage.On("ListLedger", ctx, expected).Return([]LedgerEntry{}, nil)

	_, err := manager.ListLedger(ctx, LedgerFilter{})

	assert.NoError(t, err)
	mockStorage.AssertExpectations(t)
}

// TestManager_RetryOnConflict は競合時の再試行テスト
func TestManager_RetryOnConflict(t *testing.T) {
	mockStorage := new(MockStorage)
	logger := zap.NewNop()

	manager := NewManager(mockStorage, nil, logger, nil)
	ctx := context.Background()

	calls := 0
	err := manager.withRetry(ctx, func() error {
		calls++
		if calls < 3 {
			return ErrVersionMismatch
		}
		return nil
	})

	assert.NoError(t, err)
	assert.Equal(t, 3, calls)
}

// TestManager_RetryExhausted は再試行上限超過のテスト
func TestManager_RetryExhausted(t *testing.T) {
	mockStorage := new(MockStorage)
	logger := zap.NewNop()

	manager := NewManager(mockStorage, nil, logger, nil)
	ctx := context.Background()

	calls := 0
	err := manager.withRetry(ctx, func() error {
		calls++
		return NewConcurrencyError("update_stock", "stock", "デッドロックを検出しました")
	})

	assert.Error(t, err)
	assert.True(t, IsConcurrencyConflict(err))
	assert.Equal(t, maxMutationRetries+1, calls)
}

// TestManager_RetryStopsOnPermanentError は恒久エラーで再試行しないテスト
func TestManager_RetryStopsOnPermanentError(t *testing.T) {
	mockStorage := new(MockStorage)
	logger := zap.NewNop()

	manager := NewManager(mockStorage, nil, logger, nil)
	ctx := context.Background()

	calls := 0
	err := manager.withRetry(ctx, func() error {
		calls++
		return ErrInsufficientStock
	})

	assert.Error(t, err)
	assert.Equal(t, 1, calls)
}

// TestManager_ResolveAlertValidation はアラート解決の入力検証テスト
func TestManager_ResolveAlertValidation(t *testing.T) {
	mockStorage := new(MockStorage)
	logger := zap.NewNop()

	manager := NewManager(mockStorage, nil, logger, nil)
	ctx := context.Background()

	err := manager.ResolveAlert(ctx, "")
	var validationErr *ValidationError
	assert.ErrorAs(t, err, &validationErr)
	mockStorage.AssertExpectations(t)
}

// ベンチマークテスト
func BenchmarkManager_AdjustStock(b *testing.B) {
	mockStorage := new(MockStorage)
	logger := zap.NewNop()

	manager := NewManager(mockStorage, nil, logger, nil)
	ctx := context.Background()

	component := &Component{ID: 1, PartNumber: "BENCH-PART"}
	location := &StorageLocation{ID: 2, Code: "BENCH-LOC"}
	stock := &Stock{ComponentID: 1, LocationID: 2, Quantity: 100, Version: 1}

	mockStorage.On("GetComponent", ctx, int64(1)).Return(component, nil)
	mockStorage.On("GetLocation", ctx, int64(2)).Return(location, nil)
	mockStorage.On("InTransaction", ctx).Return(nil)
	mockStorage.On("GetStockForUpdate", ctx, int64(1), int64(2)).Return(stock, nil)
	mockStorage.On("UpdateStock", ctx, mock.AnythingOfType("*warehouse.Stock")).Return(nil)
	mockStorage.On("CreateLedgerEntry", ctx, mock.AnythingOfType("*warehouse.LedgerEntry")).Return(nil)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		manager.AdjustStock(ctx, 1, 2, int64(i%1000), "benchmark", "bench")
	}
}
