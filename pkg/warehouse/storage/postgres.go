package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/nemonet1337/zaikoAuditGo/pkg/warehouse"
)

// querier is satisfied by both *sql.DB and *sql.Tx
type querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// PostgreSQLStorage implements the Storage interface using PostgreSQL
// PostgreSQLを使用したStorageインターフェースの実装
type PostgreSQLStorage struct {
	db     *sql.DB
	q      querier // トランザクション内では*sql.Tx、それ以外は*sql.DB
	logger *zap.Logger
}

var _ warehouse.Storage = (*PostgreSQLStorage)(nil)

// NewPostgreSQLStorage creates a new PostgreSQL storage instance
// 新しいPostgreSQLストレージインスタンスを作成
func NewPostgreSQLStorage(dsn string, logger *zap.Logger) (*PostgreSQLStorage, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("データベース接続に失敗しました: %w", err)
	}

	// 接続テスト
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("データベースpingに失敗しました: %w", err)
	}

	// 接続プール設定
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(5 * time.Minute)

	storage := &PostgreSQLStorage{
		db:     db,
		q:      db,
		logger: logger,
	}

	return storage, nil
}

// InTransaction runs fn inside a single database transaction. Nested calls
// reuse the enclosing transaction. Serialization failures and deadlocks are
// surfaced as ConcurrencyError so callers can retry.
// 関数を単一トランザクション内で実行
func (s *PostgreSQLStorage) InTransaction(ctx context.Context, fn func(tx warehouse.Storage) error) error {
	// 既にトランザクション内ならそのまま実行
	if _, ok := s.q.(*sql.Tx); ok {
		return fn(s)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("トランザクション開始に失敗しました: %w", err)
	}

	txStorage := &PostgreSQLStorage{
		db:     s.db,
		q:      tx,
		logger: s.logger,
	}

	if err := fn(txStorage); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && rbErr != sql.ErrTxDone {
			s.logger.Error("ロールバックに失敗しました", zap.Error(rbErr))
		}
		return mapConflict("transaction", err)
	}

	if err := tx.Commit(); err != nil {
		return mapConflict("commit", err)
	}

	return nil
}

// mapConflict converts serialization failures and deadlocks into
// ConcurrencyError
// シリアライズ失敗・デッドロックをConcurrencyErrorに変換
func mapConflict(operation string, err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		// 40001: serialization_failure, 40P01: deadlock_detected
		if pqErr.Code == "40001" || pqErr.Code == "40P01" {
			return warehouse.NewConcurrencyError(operation, "stock", pqErr.Message)
		}
	}
	return err
}

// CreateStock creates a new stock record
// 新しい在庫記録を作成
func (s *PostgreSQLStorage) CreateStock(ctx context.Context, stock *warehouse.Stock) error {
	query := `
		INSERT INTO stocks (component_id, location_id, quantity, reserved, available, version, updated_at, updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`

	err := s.q.QueryRowContext(ctx, query,
		stock.ComponentID,
		stock.LocationID,
		stock.Quantity,
		stock.Reserved,
		stock.Available,
		stock.Version,
		stock.UpdatedAt,
		stock.UpdatedBy,
	).Scan(&stock.ID)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return fmt.Errorf("在庫記録は既に存在します")
		}
		return fmt.Errorf("在庫記録作成に失敗しました: %w", err)
	}

	return nil
}

// UpdateStock updates an existing stock record with optimistic locking
// 既存の在庫記録を楽観的ロック付きで更新
func (s *PostgreSQLStorage) UpdateStock(ctx context.Context, stock *warehouse.Stock) error {
	query := `
		UPDATE stocks
		SET quantity = $3, reserved = $4, available = $5, version = $6, updated_at = $7, updated_by = $8
		WHERE component_id = $1 AND location_id = $2 AND version = $9`

	result, err := s.q.ExecContext(ctx, query,
		stock.ComponentID,
		stock.LocationID,
		stock.Quantity,
		stock.Reserved,
		stock.Available,
		stock.Version,
		stock.UpdatedAt,
		stock.UpdatedBy,
		stock.Version-1, // 楽観的ロックのための前バージョン
	)

	if err != nil {
		return fmt.Errorf("在庫記録更新に失敗しました: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("更新行数の取得に失敗しました: %w", err)
	}

	if rowsAffected == 0 {
		return warehouse.ErrVersionMismatch
	}

	return nil
}

// GetStock retrieves stock information for a component at a location
// 指定ロケーションの部品在庫情報を取得
func (s *PostgreSQLStorage) GetStock(ctx context.Context, componentID, locationID int64) (*warehouse.Stock, error) {
	return s.getStock(ctx, componentID, locationID, false)
}

// GetStockForUpdate retrieves stock with a row lock held until the
// enclosing transaction ends
// 行ロック付きで在庫情報を取得
func (s *PostgreSQLStorage) GetStockForUpdate(ctx context.Context, componentID, locationID int64) (*warehouse.Stock, error) {
	return s.getStock(ctx, componentID, locationID, true)
}

func (s *PostgreSQLStorage) getStock(ctx context.Context, componentID, locationID int64, forUpdate bool) (*warehouse.Stock, error) {
	query := `
		SELECT id, component_id, location_id, quantity, reserved, available, version, updated_at, updated_by
		FROM stocks
		WHERE component_id = $1 AND location_id = $2`
	if forUpdate {
		query += " FOR UPDATE"
	}

	stock := &warehouse.Stock{}
	err := s.q.QueryRowContext(ctx, query, componentID, locationID).Scan(
		&stock.ID,
		&stock.ComponentID,
		&stock.LocationID,
		&stock.Quantity,
		&stock.Reserved,
		&stock.Available,
		&stock.Version,
		&stock.UpdatedAt,
		&stock.UpdatedBy,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, warehouse.ErrStockNotFound
		}
		return nil, mapConflict("get_stock", fmt.Errorf("在庫取得に失敗しました: %w", err))
	}

	return stock, nil
}

const stockColumns = `id, component_id, location_id, quantity, reserved, available, version, updated_at, updated_by`

func scanStocks(rows *sql.Rows) ([]warehouse.Stock, error) {
	var stocks []warehouse.Stock
	for rows.Next() {
		var stock warehouse.Stock
		err := rows.Scan(
			&stock.ID,
			&stock.ComponentID,
			&stock.LocationID,
			&stock.Quantity,
			&stock.Reserved,
			&stock.Available,
			&stock.Version,
			&stock.UpdatedAt,
			&stock.UpdatedBy,
		)
		if err != nil {
			return nil, fmt.Errorf("在庫スキャンに失敗しました: %w", err)
		}
		stocks = append(stocks, stock)
	}
	return stocks, rows.Err()
}

// ListStockByComponent retrieves all stock rows for a component
// 部品の全在庫行を取得
func (s *PostgreSQLStorage) ListStockByComponent(ctx context.Context, componentID int64) ([]warehouse.Stock, error) {
	query := `SELECT ` + stockColumns + ` FROM stocks WHERE component_id = $1 ORDER BY location_id`

	rows, err := s.q.QueryContext(ctx, query, componentID)
	if err != nil {
		return nil, fmt.Errorf("部品在庫取得に失敗しました: %w", err)
	}
	defer rows.Close()

	return scanStocks(rows)
}

// ListStockByLocation retrieves all stock at a specific location
// 指定ロケーションのすべての在庫を取得
func (s *PostgreSQLStorage) ListStockByLocation(ctx context.Context, locationID int64) ([]warehouse.Stock, error) {
	query := `SELECT ` + stockColumns + ` FROM stocks WHERE location_id = $1 ORDER BY component_id`

	rows, err := s.q.QueryContext(ctx, query, locationID)
	if err != nil {
		return nil, fmt.Errorf("ロケーション在庫取得に失敗しました: %w", err)
	}
	defer rows.Close()

	return scanStocks(rows)
}

// ListStock retrieves all stock rows
// すべての在庫行を取得
func (s *PostgreSQLStorage) ListStock(ctx context.Context) ([]warehouse.Stock, error) {
	query := `SELECT ` + stockColumns + ` FROM stocks ORDER BY component_id, location_id`

	rows, err := s.q.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("在庫一覧取得に失敗しました: %w", err)
	}
	defer rows.Close()

	return scanStocks(rows)
}

// CreateLedgerEntry appends a ledger entry. The ledger is append only;
// there is no update or delete.
// 台帳エントリを追記
func (s *PostgreSQLStorage) CreateLedgerEntry(ctx context.Context, entry *warehouse.LedgerEntry) error {
	var payloadJSON []byte
	if entry.Payload != nil {
		var err error
		payloadJSON, err = json.Marshal(entry.Payload)
		if err != nil {
			return fmt.Errorf("ペイロードのJSON変換に失敗しました: %w", err)
		}
	}

	query := `
		INSERT INTO ledger_entries (id, action, entity_type, entity_id, component_id, location_id, quantity_before, quantity_after, description, payload, performed_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	_, err := s.q.ExecContext(ctx, query,
		entry.ID,
		entry.Action,
		entry.EntityType,
		entry.EntityID,
		entry.ComponentID,
		entry.LocationID,
		entry.QuantityBefore,
		entry.QuantityAfter,
		entry.Description,
		payloadJSON,
		entry.PerformedBy,
		entry.CreatedAt,
	)

	if err != nil {
		return fmt.Errorf("台帳エントリ追記に失敗しました: %w", err)
	}

	return nil
}

// ListLedger retrieves ledger entries matching the filter, newest first
// フィルタに一致する台帳エントリを新しい順で取得
func (s *PostgreSQLStorage) ListLedger(ctx context.Context, filter warehouse.LedgerFilter) ([]warehouse.LedgerEntry, error) {
	query := `
		SELECT id, action, entity_type, entity_id, component_id, location_id, quantity_before, quantity_after, description, payload, performed_by, created_at
		FROM ledger_entries
		WHERE 1=1`
	args := []interface{}{}
	n := 0

	next := func(v interface{}) string {
		n++
		args = append(args, v)
		return fmt.Sprintf("$%d", n)
	}

	if filter.ComponentID != nil {
		query += " AND component_id = " + next(*filter.ComponentID)
	}
	if filter.Action != nil {
		query += " AND action = " + next(string(*filter.Action))
	}
	if len(filter.Actions) > 0 {
		query += " AND action = ANY(" + next(pq.Array(actionStrings(filter.Actions))) + ")"
	}
	if filter.From != nil {
		query += " AND created_at >= " + next(*filter.From)
	}
	if filter.To != nil {
		query += " AND created_at <= " + next(*filter.To)
	}

	query += " ORDER BY created_at DESC, id DESC"
	if filter.Limit > 0 {
		query += " LIMIT " + next(filter.Limit)
	}
	if filter.Offset > 0 {
		query += " OFFSET " + next(filter.Offset)
	}

	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("台帳照会に失敗しました: %w", err)
	}
	defer rows.Close()

	var entries []warehouse.LedgerEntry
	for rows.Next() {
		var entry warehouse.LedgerEntry
		var payloadJSON []byte

		err := rows.Scan(
			&entry.ID,
			&entry.Action,
			&entry.EntityType,
			&entry.EntityID,
			&entry.ComponentID,
			&entry.LocationID,
			&entry.QuantityBefore,
			&entry.QuantityAfter,
			&entry.Description,
			&payloadJSON,
			&entry.PerformedBy,
			&entry.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("台帳スキャンに失敗しました: %w", err)
		}

		// ペイロードのデシリアライズ
		if len(payloadJSON) > 0 {
			entry.Payload = &warehouse.ChangeSet{}
			if err := json.Unmarshal(payloadJSON, entry.Payload); err != nil {
				s.logger.Warn("ペイロードのパースに失敗しました", zap.Error(err))
				entry.Payload = nil
			}
		}

		entries = append(entries, entry)
	}

	return entries, rows.Err()
}

func actionStrings(actions []warehouse.ActionType) []string {
	out := make([]string, len(actions))
	for i, a := range actions {
		out[i] = string(a)
	}
	return out
}

// CreateComponent creates a new component
// 新しい部品を作成
func (s *PostgreSQLStorage) CreateComponent(ctx context.Context, component *warehouse.Component) error {
	query := `
		INSERT INTO components (part_number, name, category_id, manufacturer_id, description, unit, package, min_stock, price_rub, datasheet_url, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id`

	err := s.q.QueryRowContext(ctx, query,
		component.PartNumber,
		component.Name,
		component.CategoryID,
		component.ManufacturerID,
		component.Description,
		component.Unit,
		component.Package,
		component.MinStock,
		component.PriceRub,
		component.DatasheetURL,
		component.IsActive,
		component.CreatedAt,
		component.UpdatedAt,
	).Scan(&component.ID)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return warehouse.ErrDuplicateComponent
		}
		return fmt.Errorf("部品作成に失敗しました: %w", err)
	}

	return nil
}

const componentColumns = `id, part_number, name, category_id, manufacturer_id, description, unit, package, min_stock, price_rub, datasheet_url, is_active, created_at, updated_at`

func scanComponent(row *sql.Row) (*warehouse.Component, error) {
	component := &warehouse.Component{}
	err := row.Scan(
		&component.ID,
		&component.PartNumber,
		&component.Name,
		&component.CategoryID,
		&component.ManufacturerID,
		&component.Description,
		&component.Unit,
		&component.Package,
		&component.MinStock,
		&component.PriceRub,
		&component.DatasheetURL,
		&component.IsActive,
		&component.CreatedAt,
		&component.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, warehouse.ErrComponentNotFound
		}
		return nil, fmt.Errorf("部品取得に失敗しました: %w", err)
	}
	return component, nil
}

// GetComponent retrieves a component by ID
// IDで部品を取得
func (s *PostgreSQLStorage) GetComponent(ctx context.Context, componentID int64) (*warehouse.Component, error) {
	query := `SELECT ` + componentColumns + ` FROM components WHERE id = $1`
	return scanComponent(s.q.QueryRowContext(ctx, query, componentID))
}

// GetComponentByPartNumber retrieves a component by part number
// 型番で部品を取得
func (s *PostgreSQLStorage) GetComponentByPartNumber(ctx context.Context, partNumber string) (*warehouse.Component, error) {
	query := `SELECT ` + componentColumns + ` FROM components WHERE part_number = $1`
	return scanComponent(s.q.QueryRowContext(ctx, query, partNumber))
}

// UpdateComponent updates an existing component
// 既存の部品を更新
func (s *PostgreSQLStorage) UpdateComponent(ctx context.Context, component *warehouse.Component) error {
	query := `
		UPDATE components
		SET part_number = $2, name = $3, category_id = $4, manufacturer_id = $5, description = $6, unit = $7, package = $8, min_stock = $9, price_rub = $10, datasheet_url = $11, is_active = $12, updated_at = $13
		WHERE id = $1`

	result, err := s.q.ExecContext(ctx, query,
		component.ID,
		component.PartNumber,
		component.Name,
		component.CategoryID,
		component.ManufacturerID,
		component.Description,
		component.Unit,
		component.Package,
		component.MinStock,
		component.PriceRub,
		component.DatasheetURL,
		component.IsActive,
		component.UpdatedAt,
	)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return warehouse.ErrDuplicateComponent
		}
		return fmt.Errorf("部品更新に失敗しました: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("更新行数の取得に失敗しました: %w", err)
	}

	if rowsAffected == 0 {
		return warehouse.ErrComponentNotFound
	}

	return nil
}

// ListComponents retrieves components matching a filter with pagination
// フィルタとページネーション付きで部品一覧を取得
func (s *PostgreSQLStorage) ListComponents(ctx context.Context, filter warehouse.ComponentFilter, offset, limit int) ([]warehouse.Component, error) {
	query := `SELECT ` + componentColumns + ` FROM components WHERE 1=1`
	args := []interface{}{}
	n := 0

	next := func(v interface{}) string {
		n++
		args = append(args, v)
		return fmt.Sprintf("$%d", n)
	}

	if filter.CategoryID != nil {
		query += " AND category_id = " + next(*filter.CategoryID)
	}
	if filter.ManufacturerID != nil {
		query += " AND manufacturer_id = " + next(*filter.ManufacturerID)
	}
	if filter.Search != "" {
		p := next("%" + filter.Search + "%")
		query += " AND (part_number ILIKE " + p + " OR name ILIKE " + p + " OR description ILIKE " + p + ")"
	}
	if filter.ActiveOnly {
		query += " AND is_active = true"
	}

	query += " ORDER BY part_number OFFSET " + next(offset) + " LIMIT " + next(limit)

	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("部品一覧取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var components []warehouse.Component
	for rows.Next() {
		var component warehouse.Component
		err := rows.Scan(
			&component.ID,
			&component.PartNumber,
			&component.Name,
			&component.CategoryID,
			&component.ManufacturerID,
			&component.Description,
			&component.Unit,
			&component.Package,
			&component.MinStock,
			&component.PriceRub,
			&component.DatasheetURL,
			&component.IsActive,
			&component.CreatedAt,
			&component.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("部品スキャンに失敗しました: %w", err)
		}
		components = append(components, component)
	}

	return components, rows.Err()
}

// CreateCategory creates a new component category
// 新しいカテゴリを作成
func (s *PostgreSQLStorage) CreateCategory(ctx context.Context, category *warehouse.ComponentCategory) error {
	query := `
		INSERT INTO component_categories (name, code, description, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id`

	err := s.q.QueryRowContext(ctx, query,
		category.Name,
		category.Code,
		category.Description,
		category.CreatedAt,
	).Scan(&category.ID)

	if err != nil {
		return fmt.Errorf("カテゴリ作成に失敗しました: %w", err)
	}

	return nil
}

// GetCategory retrieves a category by ID
// IDでカテゴリを取得
func (s *PostgreSQLStorage) GetCategory(ctx context.Context, categoryID int64) (*warehouse.ComponentCategory, error) {
	query := `SELECT id, name, code, description, created_at FROM component_categories WHERE id = $1`

	category := &warehouse.ComponentCategory{}
	err := s.q.QueryRowContext(ctx, query, categoryID).Scan(
		&category.ID,
		&category.Name,
		&category.Code,
		&category.Description,
		&category.CreatedAt,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, warehouse.ErrCategoryNotFound
		}
		return nil, fmt.Errorf("カテゴリ取得に失敗しました: %w", err)
	}

	return category, nil
}

// DeleteCategory removes a category unless a component still references it
// カテゴリを削除（部品から参照されている場合は拒否）
func (s *PostgreSQLStorage) DeleteCategory(ctx context.Context, categoryID int64) error {
	query := `DELETE FROM component_categories WHERE id = $1`

	result, err := s.q.ExecContext(ctx, query, categoryID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23503" {
			return warehouse.ErrCategoryInUse
		}
		return fmt.Errorf("カテゴリ削除に失敗しました: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("削除行数の取得に失敗しました: %w", err)
	}
	if rowsAffected == 0 {
		return warehouse.ErrCategoryNotFound
	}

	return nil
}

// ListCategories retrieves all categories
// すべてのカテゴリを取得
func (s *PostgreSQLStorage) ListCategories(ctx context.Context) ([]warehouse.ComponentCategory, error) {
	query := `SELECT id, name, code, description, created_at FROM component_categories ORDER BY name`

	rows, err := s.q.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("カテゴリ一覧取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var categories []warehouse.ComponentCategory
	for rows.Next() {
		var category warehouse.ComponentCategory
		err := rows.Scan(&category.ID, &category.Name, &category.Code, &category.Description, &category.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("カテゴリスキャンに失敗しました: %w", err)
		}
		categories = append(categories, category)
	}

	return categories, rows.Err()
}

// CreateManufacturer creates a new manufacturer
// 新しいメーカーを作成
func (s *PostgreSQLStorage) CreateManufacturer(ctx context.Context, manufacturer *warehouse.Manufacturer) error {
	query := `
		INSERT INTO manufacturers (name, country, website, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id`

	err := s.q.QueryRowContext(ctx, query,
		manufacturer.Name,
		manufacturer.Country,
		manufacturer.Website,
		manufacturer.CreatedAt,
	).Scan(&manufacturer.ID)

	if err != nil {
		return fmt.Errorf("メーカー作成に失敗しました: %w", err)
	}

	return nil
}

// ListManufacturers retrieves all manufacturers
// すべてのメーカーを取得
func (s *PostgreSQLStorage) ListManufacturers(ctx context.Context) ([]warehouse.Manufacturer, error) {
	query := `SELECT id, name, country, website, created_at FROM manufacturers ORDER BY name`

	rows, err := s.q.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("メーカー一覧取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var manufacturers []warehouse.Manufacturer
	for rows.Next() {
		var m warehouse.Manufacturer
		err := rows.Scan(&m.ID, &m.Name, &m.Country, &m.Website, &m.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("メーカースキャンに失敗しました: %w", err)
		}
		manufacturers = append(manufacturers, m)
	}

	return manufacturers, rows.Err()
}

// CreateSupplier creates a new supplier
// 新しい仕入先を作成
func (s *PostgreSQLStorage) CreateSupplier(ctx context.Context, supplier *warehouse.Supplier) error {
	query := `
		INSERT INTO suppliers (name, contact_name, phone, email, address, inn, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`

	err := s.q.QueryRowContext(ctx, query,
		supplier.Name,
		supplier.ContactName,
		supplier.Phone,
		supplier.Email,
		supplier.Address,
		supplier.INN,
		supplier.IsActive,
		supplier.CreatedAt,
	).Scan(&supplier.ID)

	if err != nil {
		return fmt.Errorf("仕入先作成に失敗しました: %w", err)
	}

	return nil
}

// GetSupplier retrieves a supplier by ID
// IDで仕入先を取得
func (s *PostgreSQLStorage) GetSupplier(ctx context.Context, supplierID int64) (*warehouse.Supplier, error) {
	query := `SELECT id, name, contact_name, phone, email, address, inn, is_active, created_at FROM suppliers WHERE id = $1`

	supplier := &warehouse.Supplier{}
	err := s.q.QueryRowContext(ctx, query, supplierID).Scan(
		&supplier.ID,
		&supplier.Name,
		&supplier.ContactName,
		&supplier.Phone,
		&supplier.Email,
		&supplier.Address,
		&supplier.INN,
		&supplier.IsActive,
		&supplier.CreatedAt,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, warehouse.ErrSupplierNotFound
		}
		return nil, fmt.Errorf("仕入先取得に失敗しました: %w", err)
	}

	return supplier, nil
}

// UpdateSupplier replaces a supplier record
// 仕入先レコードを更新
func (s *PostgreSQLStorage) UpdateSupplier(ctx context.Context, supplier *warehouse.Supplier) error {
	query := `
		UPDATE suppliers
		SET name = $2, contact_name = $3, phone = $4, email = $5, address = $6, inn = $7, is_active = $8
		WHERE id = $1`

	result, err := s.q.ExecContext(ctx, query,
		supplier.ID,
		supplier.Name,
		supplier.ContactName,
		supplier.Phone,
		supplier.Email,
		supplier.Address,
		supplier.INN,
		supplier.IsActive,
	)
	if err != nil {
		return fmt.Errorf("仕入先更新に失敗しました: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("更新行数の取得に失敗しました: %w", err)
	}
	if rowsAffected == 0 {
		return warehouse.ErrSupplierNotFound
	}

	return nil
}

// ListSuppliers retrieves all suppliers
// すべての仕入先を取得
func (s *PostgreSQLStorage) ListSuppliers(ctx context.Context) ([]warehouse.Supplier, error) {
	query := `SELECT id, name, contact_name, phone, email, address, inn, is_active, created_at FROM suppliers ORDER BY name`

	rows, err := s.q.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("仕入先一覧取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var suppliers []warehouse.Supplier
	for rows.Next() {
		var supplier warehouse.Supplier
		err := rows.Scan(
			&supplier.ID,
			&supplier.Name,
			&supplier.ContactName,
			&supplier.Phone,
			&supplier.Email,
			&supplier.Address,
			&supplier.INN,
			&supplier.IsActive,
			&supplier.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("仕入先スキャンに失敗しました: %w", err)
		}
		suppliers = append(suppliers, supplier)
	}

	return suppliers, rows.Err()
}

// CreateLocation creates a new storage location
// 新しい保管ロケーションを作成
func (s *PostgreSQLStorage) CreateLocation(ctx context.Context, location *warehouse.StorageLocation) error {
	query := `
		INSERT INTO storage_locations (code, rack, shelf, cell, description, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`

	err := s.q.QueryRowContext(ctx, query,
		location.Code,
		location.Rack,
		location.Shelf,
		location.Cell,
		location.Description,
		location.IsActive,
		location.CreatedAt,
	).Scan(&location.ID)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return warehouse.ErrDuplicateLocation
		}
		return fmt.Errorf("保管ロケーション作成に失敗しました: %w", err)
	}

	return nil
}

const locationColumns = `id, code, rack, shelf, cell, description, is_active, created_at`

func scanLocation(row *sql.Row) (*warehouse.StorageLocation, error) {
	location := &warehouse.StorageLocation{}
	err := row.Scan(
		&location.ID,
		&location.Code,
		&location.Rack,
		&location.Shelf,
		&location.Cell,
		&location.Description,
		&location.IsActive,
		&location.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, warehouse.ErrLocationNotFound
		}
		return nil, fmt.Errorf("保管ロケーション取得に失敗しました: %w", err)
	}
	return location, nil
}

// GetLocation retrieves a storage location by ID
// IDで保管ロケーションを取得
func (s *PostgreSQLStorage) GetLocation(ctx context.Context, locationID int64) (*warehouse.StorageLocation, error) {
	query := `SELECT ` + locationColumns + ` FROM storage_locations WHERE id = $1`
	return scanLocation(s.q.QueryRowContext(ctx, query, locationID))
}

// GetLocationByCode retrieves a storage location by its code
// コードで保管ロケーションを取得
func (s *PostgreSQLStorage) GetLocationByCode(ctx context.Context, code string) (*warehouse.StorageLocation, error) {
	query := `SELECT ` + locationColumns + ` FROM storage_locations WHERE code = $1`
	return scanLocation(s.q.QueryRowContext(ctx, query, code))
}

// ListLocations retrieves all storage locations
// すべての保管ロケーションを取得
func (s *PostgreSQLStorage) ListLocations(ctx context.Context) ([]warehouse.StorageLocation, error) {
	query := `SELECT ` + locationColumns + ` FROM storage_locations ORDER BY code`

	rows, err := s.q.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("保管ロケーション一覧取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var locations []warehouse.StorageLocation
	for rows.Next() {
		var location warehouse.StorageLocation
		err := rows.Scan(
			&location.ID,
			&location.Code,
			&location.Rack,
			&location.Shelf,
			&location.Cell,
			&location.Description,
			&location.IsActive,
			&location.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("保管ロケーションスキャンに失敗しました: %w", err)
		}
		locations = append(locations, location)
	}

	return locations, rows.Err()
}

// CreateReceipt creates a receipt document with its lines
// 受入伝票とその行を作成
func (s *PostgreSQLStorage) CreateReceipt(ctx context.Context, receipt *warehouse.Receipt) error {
	query := `
		INSERT INTO receipts (number, supplier_id, status, invoice_number, notes, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`

	err := s.q.QueryRowContext(ctx, query,
		receipt.Number,
		receipt.SupplierID,
		receipt.Status,
		receipt.InvoiceNumber,
		receipt.Notes,
		receipt.CreatedBy,
		receipt.CreatedAt,
		receipt.UpdatedAt,
	).Scan(&receipt.ID)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return warehouse.ErrDuplicateDocument
		}
		return fmt.Errorf("受入伝票作成に失敗しました: %w", err)
	}

	for i := range receipt.Items {
		item := &receipt.Items[i]
		item.ReceiptID = receipt.ID

		err := s.q.QueryRowContext(ctx, `
			INSERT INTO receipt_items (receipt_id, component_id, location_id, quantity, price_rub)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id`,
			item.ReceiptID, item.ComponentID, item.LocationID, item.Quantity, item.PriceRub,
		).Scan(&item.ID)
		if err != nil {
			return fmt.Errorf("受入伝票行作成に失敗しました: %w", err)
		}
	}

	return nil
}

// GetReceipt retrieves a receipt document with its lines
// 受入伝票とその行を取得
func (s *PostgreSQLStorage) GetReceipt(ctx context.Context, receiptID int64) (*warehouse.Receipt, error) {
	query := `
		SELECT id, number, supplier_id, status, received_at, invoice_number, notes, created_by, created_at, updated_at
		FROM receipts
		WHERE id = $1`

	receipt := &warehouse.Receipt{}
	err := s.q.QueryRowContext(ctx, query, receiptID).Scan(
		&receipt.ID,
		&receipt.Number,
		&receipt.SupplierID,
		&receipt.Status,
		&receipt.ReceivedAt,
		&receipt.InvoiceNumber,
		&receipt.Notes,
		&receipt.CreatedBy,
		&receipt.CreatedAt,
		&receipt.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, warehouse.ErrDocumentNotFound
		}
		return nil, fmt.Errorf("受入伝票取得に失敗しました: %w", err)
	}

	rows, err := s.q.QueryContext(ctx, `
		SELECT id, receipt_id, component_id, location_id, quantity, price_rub
		FROM receipt_items
		WHERE receipt_id = $1
		ORDER BY id`, receiptID)
	if err != nil {
		return nil, fmt.Errorf("受入伝票行取得に失敗しました: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item warehouse.ReceiptItem
		err := rows.Scan(&item.ID, &item.ReceiptID, &item.ComponentID, &item.LocationID, &item.Quantity, &item.PriceRub)
		if err != nil {
			return nil, fmt.Errorf("受入伝票行スキャンに失敗しました: %w", err)
		}
		receipt.Items = append(receipt.Items, item)
	}

	return receipt, rows.Err()
}

// UpdateReceiptStatus transitions a receipt document's status
// 受入伝票の状態を遷移
func (s *PostgreSQLStorage) UpdateReceiptStatus(ctx context.Context, receiptID int64, status warehouse.DocumentStatus, processedAt time.Time) error {
	// received_at is only stamped on confirmation; a cancelled receipt keeps it NULL
	query := `
		UPDATE receipts
		SET status = $2,
		    received_at = CASE WHEN $2 = 'confirmed' THEN $3 ELSE received_at END,
		    updated_at = $3
		WHERE id = $1`

	result, err := s.q.ExecContext(ctx, query, receiptID, status, processedAt)
	if err != nil {
		return fmt.Errorf("受入伝票状態更新に失敗しました: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("更新行数の取得に失敗しました: %w", err)
	}
	if rowsAffected == 0 {
		return warehouse.ErrDocumentNotFound
	}

	return nil
}

// ListReceipts retrieves receipt documents with pagination, newest first
// ページネーション付きで受入伝票一覧を取得
func (s *PostgreSQLStorage) ListReceipts(ctx context.Context, offset, limit int) ([]warehouse.Receipt, error) {
	query := `
		SELECT id, number, supplier_id, status, received_at, invoice_number, notes, created_by, created_at, updated_at
		FROM receipts
		ORDER BY created_at DESC, id DESC
		OFFSET $1 LIMIT $2`

	rows, err := s.q.QueryContext(ctx, query, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("受入伝票一覧取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var receipts []warehouse.Receipt
	for rows.Next() {
		var receipt warehouse.Receipt
		err := rows.Scan(
			&receipt.ID,
			&receipt.Number,
			&receipt.SupplierID,
			&receipt.Status,
			&receipt.ReceivedAt,
			&receipt.InvoiceNumber,
			&receipt.Notes,
			&receipt.CreatedBy,
			&receipt.CreatedAt,
			&receipt.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("受入伝票スキャンに失敗しました: %w", err)
		}
		receipts = append(receipts, receipt)
	}

	return receipts, rows.Err()
}

// CreateIssue creates an issue document with its lines
// 払出伝票とその行を作成
func (s *PostgreSQLStorage) CreateIssue(ctx context.Context, issue *warehouse.Issue) error {
	query := `
		INSERT INTO issues (number, department, requester, status, purpose, notes, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id`

	err := s.q.QueryRowContext(ctx, query,
		issue.Number,
		issue.Department,
		issue.Requester,
		issue.Status,
		issue.Purpose,
		issue.Notes,
		issue.CreatedBy,
		issue.CreatedAt,
		issue.UpdatedAt,
	).Scan(&issue.ID)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return warehouse.ErrDuplicateDocument
		}
		return fmt.Errorf("払出伝票作成に失敗しました: %w", err)
	}

	for i := range issue.Items {
		item := &issue.Items[i]
		item.IssueID = issue.ID

		err := s.q.QueryRowContext(ctx, `
			INSERT INTO issue_items (issue_id, component_id, location_id, quantity)
			VALUES ($1, $2, $3, $4)
			RETURNING id`,
			item.IssueID, item.ComponentID, item.LocationID, item.Quantity,
		).Scan(&item.ID)
		if err != nil {
			return fmt.Errorf("払出伝票行作成に失敗しました: %w", err)
		}
	}

	return nil
}

// GetIssue retrieves an issue document with its lines
// 払出伝票とその行を取得
func (s *PostgreSQLStorage) GetIssue(ctx context.Context, issueID int64) (*warehouse.Issue, error) {
	query := `
		SELECT id, number, department, requester, status, issued_at, purpose, notes, created_by, created_at, updated_at
		FROM issues
		WHERE id = $1`

	issue := &warehouse.Issue{}
	err := s.q.QueryRowContext(ctx, query, issueID).Scan(
		&issue.ID,
		&issue.Number,
		&issue.Department,
		&issue.Requester,
		&issue.Status,
		&issue.IssuedAt,
		&issue.Purpose,
		&issue.Notes,
		&issue.CreatedBy,
		&issue.CreatedAt,
		&issue.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, warehouse.ErrDocumentNotFound
		}
		return nil, fmt.Errorf("払出伝票取得に失敗しました: %w", err)
	}

	rows, err := s.q.QueryContext(ctx, `
		SELECT id, issue_id, component_id, location_id, quantity
		FROM issue_items
		WHERE issue_id = $1
		ORDER BY id`, issueID)
	if err != nil {
		return nil, fmt.Errorf("払出伝票行取得に失敗しました: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item warehouse.IssueItem
		err := rows.Scan(&item.ID, &item.IssueID, &item.ComponentID, &item.LocationID, &item.Quantity)
		if err != nil {
			return nil, fmt.Errorf("払出伝票行スキャンに失敗しました: %w", err)
		}
		issue.Items = append(issue.Items, item)
	}

	return issue, rows.Err()
}

// UpdateIssueStatus transitions an issue document's status
// 払出伝票の状態を遷移
func (s *PostgreSQLStorage) UpdateIssueStatus(ctx context.Context, issueID int64, status warehouse.DocumentStatus, processedAt time.Time) error {
	query := `
		UPDATE issues
		SET status = $2,
		    issued_at = CASE WHEN $2 = 'confirmed' THEN $3 ELSE issued_at END,
		    updated_at = $3
		WHERE id = $1`

	result, err := s.q.ExecContext(ctx, query, issueID, status, processedAt)
	if err != nil {
		return fmt.Errorf("払出伝票状態更新に失敗しました: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("更新行数の取得に失敗しました: %w", err)
	}
	if rowsAffected == 0 {
		return warehouse.ErrDocumentNotFound
	}

	return nil
}

// ListIssues retrieves issue documents with pagination, newest first
// ページネーション付きで払出伝票一覧を取得
func (s *PostgreSQLStorage) ListIssues(ctx context.Context, offset, limit int) ([]warehouse.Issue, error) {
	query := `
		SELECT id, number, department, requester, status, issued_at, purpose, notes, created_by, created_at, updated_at
		FROM issues
		ORDER BY created_at DESC, id DESC
		OFFSET $1 LIMIT $2`

	rows, err := s.q.QueryContext(ctx, query, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("払出伝票一覧取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var issues []warehouse.Issue
	for rows.Next() {
		var issue warehouse.Issue
		err := rows.Scan(
			&issue.ID,
			&issue.Number,
			&issue.Department,
			&issue.Requester,
			&issue.Status,
			&issue.IssuedAt,
			&issue.Purpose,
			&issue.Notes,
			&issue.CreatedBy,
			&issue.CreatedAt,
			&issue.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("払出伝票スキャンに失敗しました: %w", err)
		}
		issues = append(issues, issue)
	}

	return issues, rows.Err()
}

// CreateStocktake creates a stocktake document with its lines
// 棚卸伝票とその行を作成
func (s *PostgreSQLStorage) CreateStocktake(ctx context.Context, stocktake *warehouse.Stocktake) error {
	query := `
		INSERT INTO stocktakes (number, status, notes, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`

	err := s.q.QueryRowContext(ctx, query,
		stocktake.Number,
		stocktake.Status,
		stocktake.Notes,
		stocktake.CreatedBy,
		stocktake.CreatedAt,
		stocktake.UpdatedAt,
	).Scan(&stocktake.ID)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return warehouse.ErrDuplicateDocument
		}
		return fmt.Errorf("棚卸伝票作成に失敗しました: %w", err)
	}

	for i := range stocktake.Items {
		item := &stocktake.Items[i]
		item.StocktakeID = stocktake.ID

		err := s.q.QueryRowContext(ctx, `
			INSERT INTO stocktake_items (stocktake_id, component_id, location_id, expected_quantity, actual_quantity, discrepancy)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id`,
			item.StocktakeID, item.ComponentID, item.LocationID, item.ExpectedQuantity, item.ActualQuantity, item.Discrepancy,
		).Scan(&item.ID)
		if err != nil {
			return fmt.Errorf("棚卸伝票行作成に失敗しました: %w", err)
		}
	}

	return nil
}

// GetStocktake retrieves a stocktake document with its lines
// 棚卸伝票とその行を取得
func (s *PostgreSQLStorage) GetStocktake(ctx context.Context, stocktakeID int64) (*warehouse.Stocktake, error) {
	query := `
		SELECT id, number, status, finished_at, notes, created_by, created_at, updated_at
		FROM stocktakes
		WHERE id = $1`

	stocktake := &warehouse.Stocktake{}
	err := s.q.QueryRowContext(ctx, query, stocktakeID).Scan(
		&stocktake.ID,
		&stocktake.Number,
		&stocktake.Status,
		&stocktake.FinishedAt,
		&stocktake.Notes,
		&stocktake.CreatedBy,
		&stocktake.CreatedAt,
		&stocktake.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, warehouse.ErrDocumentNotFound
		}
		return nil, fmt.Errorf("棚卸伝票取得に失敗しました: %w", err)
	}

	rows, err := s.q.QueryContext(ctx, `
		SELECT id, stocktake_id, component_id, location_id, expected_quantity, actual_quantity, discrepancy
		FROM stocktake_items
		WHERE stocktake_id = $1
		ORDER BY id`, stocktakeID)
	if err != nil {
		return nil, fmt.Errorf("棚卸伝票行取得に失敗しました: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item warehouse.StocktakeItem
		err := rows.Scan(&item.ID, &item.StocktakeID, &item.ComponentID, &item.LocationID, &item.ExpectedQuantity, &item.ActualQuantity, &item.Discrepancy)
		if err != nil {
			return nil, fmt.Errorf("棚卸伝票行スキャンに失敗しました: %w", err)
		}
		stocktake.Items = append(stocktake.Items, item)
	}

	return stocktake, rows.Err()
}

// UpdateStocktakeStatus transitions a stocktake document's status
// 棚卸伝票の状態を遷移
func (s *PostgreSQLStorage) UpdateStocktakeStatus(ctx context.Context, stocktakeID int64, status warehouse.DocumentStatus, processedAt time.Time) error {
	query := `
		UPDATE stocktakes
		SET status = $2,
		    finished_at = CASE WHEN $2 = 'confirmed' THEN $3 ELSE finished_at END,
		    updated_at = $3
		WHERE id = $1`

	result, err := s.q.ExecContext(ctx, query, stocktakeID, status, processedAt)
	if err != nil {
		return fmt.Errorf("棚卸伝票状態更新に失敗しました: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("更新行数の取得に失敗しました: %w", err)
	}
	if rowsAffected == 0 {
		return warehouse.ErrDocumentNotFound
	}

	return nil
}

// UpdateStocktakeItem stores the counted result of one stocktake line
// 棚卸行の結果を保存
func (s *PostgreSQLStorage) UpdateStocktakeItem(ctx context.Context, item *warehouse.StocktakeItem) error {
	query := `
		UPDATE stocktake_items
		SET expected_quantity = $2, actual_quantity = $3, discrepancy = $4
		WHERE id = $1`

	result, err := s.q.ExecContext(ctx, query, item.ID, item.ExpectedQuantity, item.ActualQuantity, item.Discrepancy)
	if err != nil {
		return fmt.Errorf("棚卸行更新に失敗しました: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("更新行数の取得に失敗しました: %w", err)
	}
	if rowsAffected == 0 {
		return warehouse.ErrDocumentNotFound
	}

	return nil
}

// ListStocktakes retrieves stocktake documents with pagination, newest first
// ページネーション付きで棚卸伝票一覧を取得
func (s *PostgreSQLStorage) ListStocktakes(ctx context.Context, offset, limit int) ([]warehouse.Stocktake, error) {
	query := `
		SELECT id, number, status, finished_at, notes, created_by, created_at, updated_at
		FROM stocktakes
		ORDER BY created_at DESC, id DESC
		OFFSET $1 LIMIT $2`

	rows, err := s.q.QueryContext(ctx, query, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("棚卸伝票一覧取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var stocktakes []warehouse.Stocktake
	for rows.Next() {
		var stocktake warehouse.Stocktake
		err := rows.Scan(
			&stocktake.ID,
			&stocktake.Number,
			&stocktake.Status,
			&stocktake.FinishedAt,
			&stocktake.Notes,
			&stocktake.CreatedBy,
			&stocktake.CreatedAt,
			&stocktake.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("棚卸伝票スキャンに失敗しました: %w", err)
		}
		stocktakes = append(stocktakes, stocktake)
	}

	return stocktakes, rows.Err()
}

// CreateAlert creates a new stock alert
// 新しい在庫アラートを作成
func (s *PostgreSQLStorage) CreateAlert(ctx context.Context, alert *warehouse.StockAlert) error {
	query := `
		INSERT INTO stock_alerts (id, component_id, location_id, current_qty, threshold, message, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := s.q.ExecContext(ctx, query,
		alert.ID,
		alert.ComponentID,
		alert.LocationID,
		alert.CurrentQty,
		alert.Threshold,
		alert.Message,
		alert.IsActive,
		alert.CreatedAt,
	)

	if err != nil {
		return fmt.Errorf("アラート作成に失敗しました: %w", err)
	}

	return nil
}

// GetActiveAlerts retrieves active alerts for a location
// ロケーションのアクティブアラートを取得
func (s *PostgreSQLStorage) GetActiveAlerts(ctx context.Context, locationID int64) ([]warehouse.StockAlert, error) {
	query := `
		SELECT id, component_id, location_id, current_qty, threshold, message, is_active, created_at, resolved_at
		FROM stock_alerts
		WHERE location_id = $1 AND is_active = true
		ORDER BY created_at DESC`

	rows, err := s.q.QueryContext(ctx, query, locationID)
	if err != nil {
		return nil, fmt.Errorf("アラート取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var alerts []warehouse.StockAlert
	for rows.Next() {
		var alert warehouse.StockAlert
		err := rows.Scan(
			&alert.ID,
			&alert.ComponentID,
			&alert.LocationID,
			&alert.CurrentQty,
			&alert.Threshold,
			&alert.Message,
			&alert.IsActive,
			&alert.CreatedAt,
			&alert.ResolvedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("アラートスキャンに失敗しました: %w", err)
		}
		alerts = append(alerts, alert)
	}

	return alerts, rows.Err()
}

// ResolveAlert resolves an alert by setting it inactive
// アラートを非アクティブにして解決
func (s *PostgreSQLStorage) ResolveAlert(ctx context.Context, alertID string) error {
	now := time.Now()
	query := `
		UPDATE stock_alerts
		SET is_active = false, resolved_at = $2
		WHERE id = $1`

	result, err := s.q.ExecContext(ctx, query, alertID, now)
	if err != nil {
		return fmt.Errorf("アラート解決に失敗しました: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("更新行数の取得に失敗しました: %w", err)
	}

	if rowsAffected == 0 {
		return warehouse.ErrAlertNotFound
	}

	return nil
}

// Ping checks database connectivity
// データベース接続をチェック
func (s *PostgreSQLStorage) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection
// データベース接続を閉じる
func (s *PostgreSQLStorage) Close() error {
	return s.db.Close()
}
