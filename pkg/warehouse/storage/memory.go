package storage

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/nemonet1337/zaikoAuditGo/pkg/warehouse"
)

// MemoryStorage implements the Storage interface in memory. Intended for
// tests and examples; a single mutex serializes everything, so row locks
// degenerate to whole-store locks and FOR UPDATE semantics hold trivially.
// メモリ上のStorage実装（テスト・サンプル用）
type MemoryStorage struct {
	mu   sync.Mutex
	inTx bool // トランザクション中はロック取得済み
	data *memoryData
}

var _ warehouse.Storage = (*MemoryStorage)(nil)

type memoryData struct {
	stocks        map[stockKey]*warehouse.Stock
	ledger        []warehouse.LedgerEntry
	components    map[int64]*warehouse.Component
	categories    map[int64]*warehouse.ComponentCategory
	manufacturers map[int64]*warehouse.Manufacturer
	suppliers     map[int64]*warehouse.Supplier
	locations     map[int64]*warehouse.StorageLocation
	receipts      map[int64]*warehouse.Receipt
	issues        map[int64]*warehouse.Issue
	stocktakes    map[int64]*warehouse.Stocktake
	alerts        map[string]*warehouse.StockAlert

	nextStockID     int64
	nextComponentID int64
	nextCategoryID  int64
	nextMakerID     int64
	nextSupplierID  int64
	nextLocationID  int64
	nextReceiptID   int64
	nextIssueID     int64
	nextStocktakeID int64
	nextItemID      int64
}

type stockKey struct {
	componentID int64
	locationID  int64
}

// NewMemoryStorage creates an empty in-memory storage
// 空のメモリストレージを作成
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		data: &memoryData{
			stocks:        make(map[stockKey]*warehouse.Stock),
			components:    make(map[int64]*warehouse.Component),
			categories:    make(map[int64]*warehouse.ComponentCategory),
			manufacturers: make(map[int64]*warehouse.Manufacturer),
			suppliers:     make(map[int64]*warehouse.Supplier),
			locations:     make(map[int64]*warehouse.StorageLocation),
			receipts:      make(map[int64]*warehouse.Receipt),
			issues:        make(map[int64]*warehouse.Issue),
			stocktakes:    make(map[int64]*warehouse.Stocktake),
			alerts:        make(map[string]*warehouse.StockAlert),
		},
	}
}

// InTransaction runs fn under the store lock with snapshot rollback.
// Nested calls reuse the same transaction.
// スナップショットロールバック付きでfnを実行
func (s *MemoryStorage) InTransaction(ctx context.Context, fn func(tx warehouse.Storage) error) error {
	if s.inTx {
		return fn(s)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.data.clone()
	tx := &MemoryStorage{inTx: true, data: s.data}

	if err := fn(tx); err != nil {
		// ロールバック: スナップショットを復元
		s.data = snapshot
		return err
	}
	return nil
}

func (s *MemoryStorage) lock() func() {
	if s.inTx {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

func (d *memoryData) clone() *memoryData {
	c := &memoryData{
		stocks:          make(map[stockKey]*warehouse.Stock, len(d.stocks)),
		ledger:          make([]warehouse.LedgerEntry, len(d.ledger)),
		components:      make(map[int64]*warehouse.Component, len(d.components)),
		categories:      make(map[int64]*warehouse.ComponentCategory, len(d.categories)),
		manufacturers:   make(map[int64]*warehouse.Manufacturer, len(d.manufacturers)),
		suppliers:       make(map[int64]*warehouse.Supplier, len(d.suppliers)),
		locations:       make(map[int64]*warehouse.StorageLocation, len(d.locations)),
		receipts:        make(map[int64]*warehouse.Receipt, len(d.receipts)),
		issues:          make(map[int64]*warehouse.Issue, len(d.issues)),
		stocktakes:      make(map[int64]*warehouse.Stocktake, len(d.stocktakes)),
		alerts:          make(map[string]*warehouse.StockAlert, len(d.alerts)),
		nextStockID:     d.nextStockID,
		nextComponentID: d.nextComponentID,
		nextCategoryID:  d.nextCategoryID,
		nextMakerID:     d.nextMakerID,
		nextSupplierID:  d.nextSupplierID,
		nextLocationID:  d.nextLocationID,
		nextReceiptID:   d.nextReceiptID,
		nextIssueID:     d.nextIssueID,
		nextStocktakeID: d.nextStocktakeID,
		nextItemID:      d.nextItemID,
	}
	copy(c.ledger, d.ledger)
	for k, v := range d.stocks {
		cp := *v
		c.stocks[k] = &cp
	}
	for k, v := range d.components {
		cp := *v
		c.components[k] = &cp
	}
	for k, v := range d.categories {
		cp := *v
		c.categories[k] = &cp
	}
	for k, v := range d.manufacturers {
		cp := *v
		c.manufacturers[k] = &cp
	}
	for k, v := range d.suppliers {
		cp := *v
		c.suppliers[k] = &cp
	}
	for k, v := range d.locations {
		cp := *v
		c.locations[k] = &cp
	}
	for k, v := range d.receipts {
		cp := *v
		cp.Items = append([]warehouse.ReceiptItem(nil), v.Items...)
		c.receipts[k] = &cp
	}
	for k, v := range d.issues {
		cp := *v
		cp.Items = append([]warehouse.IssueItem(nil), v.Items...)
		c.issues[k] = &cp
	}
	for k, v := range d.stocktakes {
		cp := *v
		cp.Items = append([]warehouse.StocktakeItem(nil), v.Items...)
		c.stocktakes[k] = &cp
	}
	for k, v := range d.alerts {
		cp := *v
		c.alerts[k] = &cp
	}
	return c
}

// CreateStock creates a new stock record
func (s *MemoryStorage) CreateStock(ctx context.Context, stock *warehouse.Stock) error {
	defer s.lock()()

	key := stockKey{stock.ComponentID, stock.LocationID}
	if _, exists := s.data.stocks[key]; exists {
		return warehouse.NewStorageError("create_stock", "在庫記録は既に存在します", nil)
	}

	s.data.nextStockID++
	stock.ID = s.data.nextStockID
	cp := *stock
	s.data.stocks[key] = &cp
	return nil
}

// UpdateStock updates an existing stock record with version checking
func (s *MemoryStorage) UpdateStock(ctx context.Context, stock *warehouse.Stock) error {
	defer s.lock()()

	key := stockKey{stock.ComponentID, stock.LocationID}
	current, exists := s.data.stocks[key]
	if !exists {
		return warehouse.ErrStockNotFound
	}
	if current.Version != stock.Version-1 {
		return warehouse.ErrVersionMismatch
	}

	cp := *stock
	s.data.stocks[key] = &cp
	return nil
}

// GetStock retrieves stock for a component at a location
func (s *MemoryStorage) GetStock(ctx context.Context, componentID, locationID int64) (*warehouse.Stock, error) {
	defer s.lock()()

	stock, exists := s.data.stocks[stockKey{componentID, locationID}]
	if !exists {
		return nil, warehouse.ErrStockNotFound
	}
	cp := *stock
	return &cp, nil
}

// GetStockForUpdate behaves like GetStock; the store lock already
// serializes writers
func (s *MemoryStorage) GetStockForUpdate(ctx context.Context, componentID, locationID int64) (*warehouse.Stock, error) {
	return s.GetStock(ctx, componentID, locationID)
}

// ListStockByComponent retrieves all stock rows for a component
func (s *MemoryStorage) ListStockByComponent(ctx context.Context, componentID int64) ([]warehouse.Stock, error) {
	defer s.lock()()

	var stocks []warehouse.Stock
	for _, stock := range s.data.stocks {
		if stock.ComponentID == componentID {
			stocks = append(stocks, *stock)
		}
	}
	sort.Slice(stocks, func(i, j int) bool { return stocks[i].LocationID < stocks[j].LocationID })
	return stocks, nil
}

// ListStockByLocation retrieves all stock at a location
func (s *MemoryStorage) ListStockByLocation(ctx context.Context, locationID int64) ([]warehouse.Stock, error) {
	defer s.lock()()

	var stocks []warehouse.Stock
	for _, stock := range s.data.stocks {
		if stock.LocationID == locationID {
			stocks = append(stocks, *stock)
		}
	}
	sort.Slice(stocks, func(i, j int) bool { return stocks[i].ComponentID < stocks[j].ComponentID })
	return stocks, nil
}

// ListStock retrieves all stock rows
func (s *MemoryStorage) ListStock(ctx context.Context) ([]warehouse.Stock, error) {
	defer s.lock()()

	var stocks []warehouse.Stock
	for _, stock := range s.data.stocks {
		stocks = append(stocks, *stock)
	}
	sort.Slice(stocks, func(i, j int) bool {
		if stocks[i].ComponentID != stocks[j].ComponentID {
			return stocks[i].ComponentID < stocks[j].ComponentID
		}
		return stocks[i].LocationID < stocks[j].LocationID
	})
	return stocks, nil
}

// CreateLedgerEntry appends a ledger entry
func (s *MemoryStorage) CreateLedgerEntry(ctx context.Context, entry *warehouse.LedgerEntry) error {
	defer s.lock()()

	s.data.ledger = append(s.data.ledger, *entry)
	return nil
}

// ListLedger retrieves ledger entries matching the filter, newest first
func (s *MemoryStorage) ListLedger(ctx context.Context, filter warehouse.LedgerFilter) ([]warehouse.LedgerEntry, error) {
	defer s.lock()()

	var entries []warehouse.LedgerEntry
	for _, entry := range s.data.ledger {
		if filter.ComponentID != nil {
			if entry.ComponentID == nil || *entry.ComponentID != *filter.ComponentID {
				continue
			}
		}
		if filter.Action != nil && entry.Action != *filter.Action {
			continue
		}
		if len(filter.Actions) > 0 && !containsAction(filter.Actions, entry.Action) {
			continue
		}
		if filter.From != nil && entry.CreatedAt.Before(*filter.From) {
			continue
		}
		if filter.To != nil && entry.CreatedAt.After(*filter.To) {
			continue
		}
		entries = append(entries, entry)
	}

	// 新しい順（追記順の逆）
	for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
		entries[i], entries[j] = entries[j], entries[i]
	}

	if filter.Offset > 0 {
		if filter.Offset >= len(entries) {
			return nil, nil
		}
		entries = entries[filter.Offset:]
	}
	if filter.Limit > 0 && len(entries) > filter.Limit {
		entries = entries[:filter.Limit]
	}
	return entries, nil
}

func containsAction(actions []warehouse.ActionType, action warehouse.ActionType) bool {
	for _, a := range actions {
		if a == action {
			return true
		}
	}
	return false
}

// CreateComponent creates a new component
func (s *MemoryStorage) CreateComponent(ctx context.Context, component *warehouse.Component) error {
	defer s.lock()()

	for _, existing := range s.data.components {
		if existing.PartNumber == component.PartNumber {
			return warehouse.ErrDuplicateComponent
		}
	}

	s.data.nextComponentID++
	component.ID = s.data.nextComponentID
	cp := *component
	s.data.components[component.ID] = &cp
	return nil
}

// GetComponent retrieves a component by ID
func (s *MemoryStorage) GetComponent(ctx context.Context, componentID int64) (*warehouse.Component, error) {
	defer s.lock()()

	component, exists := s.data.components[componentID]
	if !exists {
		return nil, warehouse.ErrComponentNotFound
	}
	cp := *component
	return &cp, nil
}

// GetComponentByPartNumber retrieves a component by part number
func (s *MemoryStorage) GetComponentByPartNumber(ctx context.Context, partNumber string) (*warehouse.Component, error) {
	defer s.lock()()

	for _, component := range s.data.components {
		if component.PartNumber == partNumber {
			cp := *component
			return &cp, nil
		}
	}
	return nil, warehouse.ErrComponentNotFound
}

// UpdateComponent updates an existing component
func (s *MemoryStorage) UpdateComponent(ctx context.Context, component *warehouse.Component) error {
	defer s.lock()()

	if _, exists := s.data.components[component.ID]; !exists {
		return warehouse.ErrComponentNotFound
	}
	for _, existing := range s.data.components {
		if existing.ID != component.ID && existing.PartNumber == component.PartNumber {
			return warehouse.ErrDuplicateComponent
		}
	}

	cp := *component
	s.data.components[component.ID] = &cp
	return nil
}

// ListComponents retrieves components matching a filter
func (s *MemoryStorage) ListComponents(ctx context.Context, filter warehouse.ComponentFilter, offset, limit int) ([]warehouse.Component, error) {
	defer s.lock()()

	var components []warehouse.Component
	for _, component := range s.data.components {
		if filter.CategoryID != nil {
			if component.CategoryID == nil || *component.CategoryID != *filter.CategoryID {
				continue
			}
		}
		if filter.ManufacturerID != nil {
			if component.ManufacturerID == nil || *component.ManufacturerID != *filter.ManufacturerID {
				continue
			}
		}
		if filter.Search != "" {
			q := strings.ToLower(filter.Search)
			if !strings.Contains(strings.ToLower(component.PartNumber), q) &&
				!strings.Contains(strings.ToLower(component.Name), q) &&
				!strings.Contains(strings.ToLower(component.Description), q) {
				continue
			}
		}
		if filter.ActiveOnly && !component.IsActive {
			continue
		}
		components = append(components, *component)
	}

	sort.Slice(components, func(i, j int) bool { return components[i].PartNumber < components[j].PartNumber })

	if offset > 0 {
		if offset >= len(components) {
			return nil, nil
		}
		components = components[offset:]
	}
	if limit > 0 && len(components) > limit {
		components = components[:limit]
	}
	return components, nil
}

// CreateCategory creates a new category
func (s *MemoryStorage) CreateCategory(ctx context.Context, category *warehouse.ComponentCategory) error {
	defer s.lock()()

	s.data.nextCategoryID++
	category.ID = s.data.nextCategoryID
	cp := *category
	s.data.categories[category.ID] = &cp
	return nil
}

// GetCategory retrieves a category by ID
func (s *MemoryStorage) GetCategory(ctx context.Context, categoryID int64) (*warehouse.ComponentCategory, error) {
	defer s.lock()()

	category, exists := s.data.categories[categoryID]
	if !exists {
		return nil, warehouse.ErrCategoryNotFound
	}
	cp := *category
	return &cp, nil
}

// DeleteCategory removes a category unless a component still references it
func (s *MemoryStorage) DeleteCategory(ctx context.Context, categoryID int64) error {
	defer s.lock()()

	if _, exists := s.data.categories[categoryID]; !exists {
		return warehouse.ErrCategoryNotFound
	}
	for _, component := range s.data.components {
		if component.CategoryID != nil && *component.CategoryID == categoryID {
			return warehouse.ErrCategoryInUse
		}
	}
	delete(s.data.categories, categoryID)
	return nil
}

// ListCategories retrieves all categories
func (s *MemoryStorage) ListCategories(ctx context.Context) ([]warehouse.ComponentCategory, error) {
	defer s.lock()()

	var categories []warehouse.ComponentCategory
	for _, category := range s.data.categories {
		categories = append(categories, *category)
	}
	sort.Slice(categories, func(i, j int) bool { return categories[i].Name < categories[j].Name })
	return categories, nil
}

// CreateManufacturer creates a new manufacturer
func (s *MemoryStorage) CreateManufacturer(ctx context.Context, manufacturer *warehouse.Manufacturer) error {
	defer s.lock()()

	s.data.nextMakerID++
	manufacturer.ID = s.data.nextMakerID
	cp := *manufacturer
	s.data.manufacturers[manufacturer.ID] = &cp
	return nil
}

// ListManufacturers retrieves all manufacturers
func (s *MemoryStorage) ListManufacturers(ctx context.Context) ([]warehouse.Manufacturer, error) {
	defer s.lock()()

	var manufacturers []warehouse.Manufacturer
	for _, m := range s.data.manufacturers {
		manufacturers = append(manufacturers, *m)
	}
	sort.Slice(manufacturers, func(i, j int) bool { return manufacturers[i].Name < manufacturers[j].Name })
	return manufacturers, nil
}

// CreateSupplier creates a new supplier
func (s *MemoryStorage) CreateSupplier(ctx context.Context, supplier *warehouse.Supplier) error {
	defer s.lock()()

	s.data.nextSupplierID++
	supplier.ID = s.data.nextSupplierID
	cp := *supplier
	s.data.suppliers[supplier.ID] = &cp
	return nil
}

// GetSupplier retrieves a supplier by ID
func (s *MemoryStorage) GetSupplier(ctx context.Context, supplierID int64) (*warehouse.Supplier, error) {
	defer s.lock()()

	supplier, exists := s.data.suppliers[supplierID]
	if !exists {
		return nil, warehouse.ErrSupplierNotFound
	}
	cp := *supplier
	return &cp, nil
}

// UpdateSupplier replaces a supplier record
func (s *MemoryStorage) UpdateSupplier(ctx context.Context, supplier *warehouse.Supplier) error {
	defer s.lock()()

	if _, exists := s.data.suppliers[supplier.ID]; !exists {
		return warehouse.ErrSupplierNotFound
	}
	cp := *supplier
	s.data.suppliers[supplier.ID] = &cp
	return nil
}

// ListSuppliers retrieves all suppliers
func (s *MemoryStorage) ListSuppliers(ctx context.Context) ([]warehouse.Supplier, error) {
	defer s.lock()()

	var suppliers []warehouse.Supplier
	for _, supplier := range s.data.suppliers {
		suppliers = append(suppliers, *supplier)
	}
	sort.Slice(suppliers, func(i, j int) bool { return suppliers[i].Name < suppliers[j].Name })
	return suppliers, nil
}

// CreateLocation creates a new storage location
func (s *MemoryStorage) CreateLocation(ctx context.Context, location *warehouse.StorageLocation) error {
	defer s.lock()()

	for _, existing := range s.data.locations {
		if existing.Code == location.Code {
			return warehouse.ErrDuplicateLocation
		}
	}

	s.data.nextLocationID++
	location.ID = s.data.nextLocationID
	cp := *location
	s.data.locations[location.ID] = &cp
	return nil
}

// GetLocation retrieves a storage location by ID
func (s *MemoryStorage) GetLocation(ctx context.Context, locationID int64) (*warehouse.StorageLocation, error) {
	defer s.lock()()

	location, exists := s.data.locations[locationID]
	if !exists {
		return nil, warehouse.ErrLocationNotFound
	}
	cp := *location
	return &cp, nil
}

// GetLocationByCode retrieves a storage location by code
func (s *MemoryStorage) GetLocationByCode(ctx context.Context, code string) (*warehouse.StorageLocation, error) {
	defer s.lock()()

	for _, location := range s.data.locations {
		if location.Code == code {
			cp := *location
			return &cp, nil
		}
	}
	return nil, warehouse.ErrLocationNotFound
}

// ListLocations retrieves all storage locations
func (s *MemoryStorage) ListLocations(ctx context.Context) ([]warehouse.StorageLocation, error) {
	defer s.lock()()

	var locations []warehouse.StorageLocation
	for _, location := range s.data.locations {
		locations = append(locations, *location)
	}
	sort.Slice(locations, func(i, j int) bool { return locations[i].Code < locations[j].Code })
	return locations, nil
}

// CreateReceipt creates a receipt document with its lines
func (s *MemoryStorage) CreateReceipt(ctx context.Context, receipt *warehouse.Receipt) error {
	defer s.lock()()

	for _, existing := range s.data.receipts {
		if existing.Number == receipt.Number {
			return warehouse.ErrDuplicateDocument
		}
	}

	s.data.nextReceiptID++
	receipt.ID = s.data.nextReceiptID
	for i := range receipt.Items {
		s.data.nextItemID++
		receipt.Items[i].ID = s.data.nextItemID
		receipt.Items[i].ReceiptID = receipt.ID
	}

	cp := *receipt
	cp.Items = append([]warehouse.ReceiptItem(nil), receipt.Items...)
	s.data.receipts[receipt.ID] = &cp
	return nil
}

// GetReceipt retrieves a receipt document with its lines
func (s *MemoryStorage) GetReceipt(ctx context.Context, receiptID int64) (*warehouse.Receipt, error) {
	defer s.lock()()

	receipt, exists := s.data.receipts[receiptID]
	if !exists {
		return nil, warehouse.ErrDocumentNotFound
	}
	cp := *receipt
	cp.Items = append([]warehouse.ReceiptItem(nil), receipt.Items...)
	return &cp, nil
}

// UpdateReceiptStatus transitions a receipt document's status
func (s *MemoryStorage) UpdateReceiptStatus(ctx context.Context, receiptID int64, status warehouse.DocumentStatus, processedAt time.Time) error {
	defer s.lock()()

	receipt, exists := s.data.receipts[receiptID]
	if !exists {
		return warehouse.ErrDocumentNotFound
	}
	receipt.Status = status
	if status == warehouse.StatusConfirmed {
		receipt.ReceivedAt = &processedAt
	}
	receipt.UpdatedAt = processedAt
	return nil
}

// ListReceipts retrieves receipt documents, newest first
func (s *MemoryStorage) ListReceipts(ctx context.Context, offset, limit int) ([]warehouse.Receipt, error) {
	defer s.lock()()

	var receipts []warehouse.Receipt
	for _, receipt := range s.data.receipts {
		cp := *receipt
		cp.Items = append([]warehouse.ReceiptItem(nil), receipt.Items...)
		receipts = append(receipts, cp)
	}
	sort.Slice(receipts, func(i, j int) bool { return receipts[i].ID > receipts[j].ID })
	return paginateReceipts(receipts, offset, limit), nil
}

func paginateReceipts(receipts []warehouse.Receipt, offset, limit int) []warehouse.Receipt {
	if offset > 0 {
		if offset >= len(receipts) {
			return nil
		}
		receipts = receipts[offset:]
	}
	if limit > 0 && len(receipts) > limit {
		receipts = receipts[:limit]
	}
	return receipts
}

// CreateIssue creates an issue document with its lines
func (s *MemoryStorage) CreateIssue(ctx context.Context, issue *warehouse.Issue) error {
	defer s.lock()()

	for _, existing := range s.data.issues {
		if existing.Number == issue.Number {
			return warehouse.ErrDuplicateDocument
		}
	}

	s.data.nextIssueID++
	issue.ID = s.data.nextIssueID
	for i := range issue.Items {
		s.data.nextItemID++
		issue.Items[i].ID = s.data.nextItemID
		issue.Items[i].IssueID = issue.ID
	}

	cp := *issue
	cp.Items = append([]warehouse.IssueItem(nil), issue.Items...)
	s.data.issues[issue.ID] = &cp
	return nil
}

// GetIssue retrieves an issue document with its lines
func (s *MemoryStorage) GetIssue(ctx context.Context, issueID int64) (*warehouse.Issue, error) {
	defer s.lock()()

	issue, exists := s.data.issues[issueID]
	if !exists {
		return nil, warehouse.ErrDocumentNotFound
	}
	cp := *issue
	cp.Items = append([]warehouse.IssueItem(nil), issue.Items...)
	return &cp, nil
}

// UpdateIssueStatus transitions an issue document's status
func (s *MemoryStorage) UpdateIssueStatus(ctx context.Context, issueID int64, status warehouse.DocumentStatus, processedAt time.Time) error {
	defer s.lock()()

	issue, exists := s.data.issues[issueID]
	if !exists {
		return warehouse.ErrDocumentNotFound
	}
	issue.Status = status
	if status == warehouse.StatusConfirmed {
		issue.IssuedAt = &processedAt
	}
	issue.UpdatedAt = processedAt
	return nil
}

// ListIssues retrieves issue documents, newest first
func (s *MemoryStorage) ListIssues(ctx context.Context, offset, limit int) ([]warehouse.Issue, error) {
	defer s.lock()()

	var issues []warehouse.Issue
	for _, issue := range s.data.issues {
		cp := *issue
		cp.Items = append([]warehouse.IssueItem(nil), issue.Items...)
		issues = append(issues, cp)
	}
	sort.Slice(issues, func(i, j int) bool { return issues[i].ID > issues[j].ID })

	if offset > 0 {
		if offset >= len(issues) {
			return nil, nil
		}
		issues = issues[offset:]
	}
	if limit > 0 && len(issues) > limit {
		issues = issues[:limit]
	}
	return issues, nil
}

// CreateStocktake creates a stocktake document with its lines
func (s *MemoryStorage) CreateStocktake(ctx context.Context, stocktake *warehouse.Stocktake) error {
	defer s.lock()()

	for _, existing := range s.data.stocktakes {
		if existing.Number == stocktake.Number {
			return warehouse.ErrDuplicateDocument
		}
	}

	s.data.nextStocktakeID++
	stocktake.ID = s.data.nextStocktakeID
	for i := range stocktake.Items {
		s.data.nextItemID++
		stocktake.Items[i].ID = s.data.nextItemID
		stocktake.Items[i].StocktakeID = stocktake.ID
	}

	cp := *stocktake
	cp.Items = append([]warehouse.StocktakeItem(nil), stocktake.Items...)
	s.data.stocktakes[stocktake.ID] = &cp
	return nil
}

// GetStocktake retrieves a stocktake document with its lines
func (s *MemoryStorage) GetStocktake(ctx context.Context, stocktakeID int64) (*warehouse.Stocktake, error) {
	defer s.lock()()

	stocktake, exists := s.data.stocktakes[stocktakeID]
	if !exists {
		return nil, warehouse.ErrDocumentNotFound
	}
	cp := *stocktake
	cp.Items = append([]warehouse.StocktakeItem(nil), stocktake.Items...)
	return &cp, nil
}

// UpdateStocktakeStatus transitions a stocktake document's status
func (s *MemoryStorage) UpdateStocktakeStatus(ctx context.Context, stocktakeID int64, status warehouse.DocumentStatus, processedAt time.Time) error {
	defer s.lock()()

	stocktake, exists := s.data.stocktakes[stocktakeID]
	if !exists {
		return warehouse.ErrDocumentNotFound
	}
	stocktake.Status = status
	if status == warehouse.StatusConfirmed {
		stocktake.FinishedAt = &processedAt
	}
	stocktake.UpdatedAt = processedAt
	return nil
}

// UpdateStocktakeItem stores the counted result of one stocktake line
func (s *MemoryStorage) UpdateStocktakeItem(ctx context.Context, item *warehouse.StocktakeItem) error {
	defer s.lock()()

	stocktake, exists := s.data.stocktakes[item.StocktakeID]
	if !exists {
		return warehouse.ErrDocumentNotFound
	}
	for i := range stocktake.Items {
		if stocktake.Items[i].ID == item.ID {
			stocktake.Items[i] = *item
			return nil
		}
	}
	return warehouse.ErrDocumentNotFound
}

// ListStocktakes retrieves stocktake documents, newest first
func (s *MemoryStorage) ListStocktakes(ctx context.Context, offset, limit int) ([]warehouse.Stocktake, error) {
	defer s.lock()()

	var stocktakes []warehouse.Stocktake
	for _, stocktake := range s.data.stocktakes {
		cp := *stocktake
		cp.Items = append([]warehouse.StocktakeItem(nil), stocktake.Items...)
		stocktakes = append(stocktakes, cp)
	}
	sort.Slice(stocktakes, func(i, j int) bool { return stocktakes[i].ID > stocktakes[j].ID })

	if offset > 0 {
		if offset >= len(stocktakes) {
			return nil, nil
		}
		stocktakes = stocktakes[offset:]
	}
	if limit > 0 && len(stocktakes) > limit {
		stocktakes = stocktakes[:limit]
	}
	return stocktakes, nil
}

// CreateAlert creates a new stock alert
func (s *MemoryStorage) CreateAlert(ctx context.Context, alert *warehouse.StockAlert) error {
	defer s.lock()()

	cp := *alert
	s.data.alerts[alert.ID] = &cp
	return nil
}

// GetActiveAlerts retrieves active alerts for a location
func (s *MemoryStorage) GetActiveAlerts(ctx context.Context, locationID int64) ([]warehouse.StockAlert, error) {
	defer s.lock()()

	var alerts []warehouse.StockAlert
	for _, alert := range s.data.alerts {
		if alert.LocationID == locationID && alert.IsActive {
			alerts = append(alerts, *alert)
		}
	}
	sort.Slice(alerts, func(i, j int) bool { return alerts[i].CreatedAt.After(alerts[j].CreatedAt) })
	return alerts, nil
}

// ResolveAlert resolves an alert by setting it inactive
func (s *MemoryStorage) ResolveAlert(ctx context.Context, alertID string) error {
	defer s.lock()()

	alert, exists := s.data.alerts[alertID]
	if !exists {
		return warehouse.ErrAlertNotFound
	}
	now := time.Now()
	alert.IsActive = false
	alert.ResolvedAt = &now
	return nil
}

// Ping is a no-op for the in-memory store
func (s *MemoryStorage) Ping(ctx context.Context) error {
	return nil
}

// Close is a no-op for the in-memory store
func (s *MemoryStorage) Close() error {
	return nil
}
