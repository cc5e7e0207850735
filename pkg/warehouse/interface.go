package warehouse

import (
	"context"
	"time"
)

// WarehouseManager defines the core interface for warehouse operations
// 倉庫操作のコアインターフェースを定義
type WarehouseManager interface {
	// 在庫変更 - Stock mutation
	AdjustStock(ctx context.Context, componentID, locationID, newQuantity int64, reason, performedBy string) error

	// 在庫照会 - Stock inquiry
	GetStock(ctx context.Context, componentID, locationID int64) (*Stock, error)
	GetTotalStock(ctx context.Context, componentID int64) (int64, error)
	GetStockByLocation(ctx context.Context, locationID int64) ([]Stock, error)

	// 受入伝票 - Receipt documents
	CreateReceipt(ctx context.Context, receipt *Receipt) error
	GetReceipt(ctx context.Context, receiptID int64) (*Receipt, error)
	ListReceipts(ctx context.Context, offset, limit int) ([]Receipt, error)
	ConfirmReceipt(ctx context.Context, receiptID int64, performedBy string) error
	CancelReceipt(ctx context.Context, receiptID int64, performedBy string) error

	// 払出伝票 - Issue documents
	CreateIssue(ctx context.Context, issue *Issue) error
	GetIssue(ctx context.Context, issueID int64) (*Issue, error)
	ListIssues(ctx context.Context, offset, limit int) ([]Issue, error)
	ConfirmIssue(ctx context.Context, issueID int64, performedBy string) error
	CancelIssue(ctx context.Context, issueID int64, performedBy string) error

	// 棚卸伝票 - Stocktake documents
	CreateStocktake(ctx context.Context, stocktake *Stocktake) error
	GetStocktake(ctx context.Context, stocktakeID int64) (*Stocktake, error)
	ListStocktakes(ctx context.Context, offset, limit int) ([]Stocktake, error)
	ConfirmStocktake(ctx context.Context, stocktakeID int64, performedBy string) error
	CancelStocktake(ctx context.Context, stocktakeID int64, performedBy string) error

	// 監査台帳 - Audit ledger
	ListLedger(ctx context.Context, filter LedgerFilter) ([]LedgerEntry, error)

	// レポート - Reports
	StockReport(ctx context.Context, opts StockReportOptions) (*StockReport, error)
	MovementReport(ctx context.Context, opts MovementReportOptions) (*MovementReport, error)

	// アラート管理 - Alert management
	GetAlerts(ctx context.Context, locationID int64) ([]StockAlert, error)
	ResolveAlert(ctx context.Context, alertID string) error
}

// CatalogManager defines interface for reference data management
// マスタデータ管理のインターフェースを定義
type CatalogManager interface {
	// 部品 - Components
	CreateComponent(ctx context.Context, component *Component, performedBy string) error
	GetComponent(ctx context.Context, componentID int64) (*Component, error)
	UpdateComponent(ctx context.Context, component *Component, performedBy string) error
	DeleteComponent(ctx context.Context, componentID int64, performedBy string) error
	ListComponents(ctx context.Context, filter ComponentFilter, offset, limit int) ([]Component, error)

	// カテゴリ - Categories
	CreateCategory(ctx context.Context, category *ComponentCategory, performedBy string) error
	DeleteCategory(ctx context.Context, categoryID int64, performedBy string) error
	ListCategories(ctx context.Context) ([]ComponentCategory, error)

	// メーカー - Manufacturers
	CreateManufacturer(ctx context.Context, manufacturer *Manufacturer, performedBy string) error
	ListManufacturers(ctx context.Context) ([]Manufacturer, error)

	// 仕入先 - Suppliers
	CreateSupplier(ctx context.Context, supplier *Supplier, performedBy string) error
	GetSupplier(ctx context.Context, supplierID int64) (*Supplier, error)
	UpdateSupplier(ctx context.Context, supplier *Supplier, performedBy string) error
	DeleteSupplier(ctx context.Context, supplierID int64, performedBy string) error
	ListSuppliers(ctx context.Context) ([]Supplier, error)

	// 保管ロケーション - Storage locations
	CreateLocation(ctx context.Context, location *StorageLocation, performedBy string) error
	GetLocation(ctx context.Context, locationID int64) (*StorageLocation, error)
	ListLocations(ctx context.Context) ([]StorageLocation, error)
}

// Storage defines the interface for data persistence layer
// データ永続化層のインターフェースを定義
type Storage interface {
	// Transaction management. The callback receives a Storage whose
	// operations run inside a single transaction; returning an error
	// rolls everything back.
	InTransaction(ctx context.Context, fn func(tx Storage) error) error

	// Stock operations
	CreateStock(ctx context.Context, stock *Stock) error
	UpdateStock(ctx context.Context, stock *Stock) error
	GetStock(ctx context.Context, componentID, locationID int64) (*Stock, error)
	// GetStockForUpdate locks the row until the enclosing transaction ends
	GetStockForUpdate(ctx context.Context, componentID, locationID int64) (*Stock, error)
	ListStockByComponent(ctx context.Context, componentID int64) ([]Stock, error)
	ListStockByLocation(ctx context.Context, locationID int64) ([]Stock, error)
	ListStock(ctx context.Context) ([]Stock, error)

	// Ledger operations (append only)
	CreateLedgerEntry(ctx context.Context, entry *LedgerEntry) error
	ListLedger(ctx context.Context, filter LedgerFilter) ([]LedgerEntry, error)

	// Component management
	CreateComponent(ctx context.Context, component *Component) error
	GetComponent(ctx context.Context, componentID int64) (*Component, error)
	GetComponentByPartNumber(ctx context.Context, partNumber string) (*Component, error)
	UpdateComponent(ctx context.Context, component *Component) error
	ListComponents(ctx context.Context, filter ComponentFilter, offset, limit int) ([]Component, error)

	// Category management
	CreateCategory(ctx context.Context, category *ComponentCategory) error
	GetCategory(ctx context.Context, categoryID int64) (*ComponentCategory, error)
	// DeleteCategory removes a category; categories still referenced by
	// components are rejected with ErrCategoryInUse
	DeleteCategory(ctx context.Context, categoryID int64) error
	ListCategories(ctx context.Context) ([]ComponentCategory, error)

	// Manufacturer management
	CreateManufacturer(ctx context.Context, manufacturer *Manufacturer) error
	ListManufacturers(ctx context.Context) ([]Manufacturer, error)

	// Supplier management
	CreateSupplier(ctx context.Context, supplier *Supplier) error
	GetSupplier(ctx context.Context, supplierID int64) (*Supplier, error)
	UpdateSupplier(ctx context.Context, supplier *Supplier) error
	ListSuppliers(ctx context.Context) ([]Supplier, error)

	// Location management
	CreateLocation(ctx context.Context, location *StorageLocation) error
	GetLocation(ctx context.Context, locationID int64) (*StorageLocation, error)
	GetLocationByCode(ctx context.Context, code string) (*StorageLocation, error)
	ListLocations(ctx context.Context) ([]StorageLocation, error)

	// Receipt documents
	CreateReceipt(ctx context.Context, receipt *Receipt) error
	GetReceipt(ctx context.Context, receiptID int64) (*Receipt, error)
	UpdateReceiptStatus(ctx context.Context, receiptID int64, status DocumentStatus, processedAt time.Time) error
	ListReceipts(ctx context.Context, offset, limit int) ([]Receipt, error)

	// Issue documents
	CreateIssue(ctx context.Context, issue *Issue) error
	GetIssue(ctx context.Context, issueID int64) (*Issue, error)
	UpdateIssueStatus(ctx context.Context, issueID int64, status DocumentStatus, processedAt time.Time) error
	ListIssues(ctx context.Context, offset, limit int) ([]Issue, error)

	// Stocktake documents
	CreateStocktake(ctx context.Context, stocktake *Stocktake) error
	GetStocktake(ctx context.Context, stocktakeID int64) (*Stocktake, error)
	UpdateStocktakeStatus(ctx context.Context, stocktakeID int64, status DocumentStatus, processedAt time.Time) error
	UpdateStocktakeItem(ctx context.Context, item *StocktakeItem) error
	ListStocktakes(ctx context.Context, offset, limit int) ([]Stocktake, error)

	// Alert management
	CreateAlert(ctx context.Context, alert *StockAlert) error
	GetActiveAlerts(ctx context.Context, locationID int64) ([]StockAlert, error)
	ResolveAlert(ctx context.Context, alertID string) error

	// Health check
	Ping(ctx context.Context) error
	Close() error
}

// EventPublisher defines interface for publishing warehouse events
// 倉庫イベント発行のインターフェースを定義
type EventPublisher interface {
	PublishStockChanged(ctx context.Context, event StockChangedEvent) error
	PublishLowStockAlert(ctx context.Context, event LowStockAlertEvent) error
	PublishDocumentConfirmed(ctx context.Context, event DocumentConfirmedEvent) error
}

// Events for warehouse operations
// 倉庫操作のイベント定義

// StockChangedEvent represents a stock level change
// 在庫レベル変更イベントを表現
type StockChangedEvent struct {
	ComponentID int64      `json:"component_id"`
	LocationID  int64      `json:"location_id"`
	OldQuantity int64      `json:"old_quantity"`
	NewQuantity int64      `json:"new_quantity"`
	Action      ActionType `json:"action"`
	EntryID     string     `json:"entry_id"`
	Timestamp   time.Time  `json:"timestamp"`
	PerformedBy string     `json:"performed_by"`
}

// LowStockAlertEvent represents a low stock alert
// 低在庫アラートイベントを表現
type LowStockAlertEvent struct {
	ComponentID int64     `json:"component_id"`
	LocationID  int64     `json:"location_id"`
	CurrentQty  int64     `json:"current_qty"`
	Threshold   int64     `json:"threshold"`
	Timestamp   time.Time `json:"timestamp"`
}

// DocumentConfirmedEvent represents a confirmed document
// 伝票確定イベントを表現
type DocumentConfirmedEvent struct {
	DocumentType string    `json:"document_type"`
	DocumentID   int64     `json:"document_id"`
	Number       string    `json:"number"`
	LineCount    int       `json:"line_count"`
	Timestamp    time.Time `json:"timestamp"`
	PerformedBy  string    `json:"performed_by"`
}
