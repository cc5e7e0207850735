// Package warehouse provides audit and stock-keeping functionality for
// radio-electronic components across storage locations
// 電子部品倉庫の監査・在庫管理機能を提供
package warehouse

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ComponentCategory groups components (capacitors, resistors, ICs, ...)
// 部品カテゴリ（コンデンサ、抵抗、ICなど）を表現
type ComponentCategory struct {
	ID          int64     `json:"id" db:"id"`                   // カテゴリID
	Name        string    `json:"name" db:"name"`               // カテゴリ名
	Code        string    `json:"code" db:"code"`               // 英字コード
	Description string    `json:"description" db:"description"` // 説明
	CreatedAt   time.Time `json:"created_at" db:"created_at"`   // 作成日時
}

// Manufacturer represents a component manufacturer
// 部品メーカーを表現
type Manufacturer struct {
	ID        int64     `json:"id" db:"id"`                 // メーカーID
	Name      string    `json:"name" db:"name"`             // メーカー名
	Country   string    `json:"country" db:"country"`       // 国
	Website   string    `json:"website" db:"website"`       // ウェブサイト
	CreatedAt time.Time `json:"created_at" db:"created_at"` // 作成日時
}

// Supplier represents a parts supplier
// 仕入先を表現
type Supplier struct {
	ID          int64     `json:"id" db:"id"`                   // 仕入先ID
	Name        string    `json:"name" db:"name"`               // 仕入先名
	ContactName string    `json:"contact_name" db:"contact_name"` // 担当者名
	Phone       string    `json:"phone" db:"phone"`             // 電話番号
	Email       string    `json:"email" db:"email"`             // メールアドレス
	Address     string    `json:"address" db:"address"`         // 住所
	INN         string    `json:"inn" db:"inn"`                 // 納税者番号
	IsActive    bool      `json:"is_active" db:"is_active"`     // アクティブ状態
	CreatedAt   time.Time `json:"created_at" db:"created_at"`   // 作成日時
}

// StorageLocation represents a rack / shelf / cell in the warehouse
// 倉庫内の保管場所（棚・段・セル）を表現
type StorageLocation struct {
	ID          int64     `json:"id" db:"id"`                   // ロケーションID
	Code        string    `json:"code" db:"code"`               // セルコード（例: A1-03）
	Rack        string    `json:"rack" db:"rack"`               // 棚
	Shelf       int       `json:"shelf" db:"shelf"`             // 段
	Cell        int       `json:"cell" db:"cell"`               // セル
	Description string    `json:"description" db:"description"` // 説明
	IsActive    bool      `json:"is_active" db:"is_active"`     // アクティブ状態
	CreatedAt   time.Time `json:"created_at" db:"created_at"`   // 作成日時
}

// Component represents a stocked radio-electronic component
// 管理対象の電子部品を表現
type Component struct {
	ID             int64               `json:"id" db:"id"`                         // 部品ID
	PartNumber     string              `json:"part_number" db:"part_number"`       // 型番（一意）
	Name           string              `json:"name" db:"name"`                     // 名称
	CategoryID     *int64              `json:"category_id" db:"category_id"`       // カテゴリID（任意）
	ManufacturerID *int64              `json:"manufacturer_id" db:"manufacturer_id"` // メーカーID（任意）
	Description    string              `json:"description" db:"description"`       // 説明・特性
	Unit           string              `json:"unit" db:"unit"`                     // 単位（既定: шт.）
	Package        string              `json:"package" db:"package"`               // パッケージ（SMD 0402, DIP-8, ...）
	MinStock       int64               `json:"min_stock" db:"min_stock"`           // 最低在庫数
	PriceRub       decimal.NullDecimal `json:"price_rub" db:"price_rub"`           // 単価（ルーブル、任意）
	DatasheetURL   string              `json:"datasheet_url" db:"datasheet_url"`   // データシートURL
	IsActive       bool                `json:"is_active" db:"is_active"`           // アクティブ状態
	CreatedAt      time.Time           `json:"created_at" db:"created_at"`         // 作成日時
	UpdatedAt      time.Time           `json:"updated_at" db:"updated_at"`         // 更新日時
}

// Stock represents the current balance of one component at one location.
// Exactly one row exists per (component, location) pair; it is created on
// first movement and never deleted — a zero quantity is a valid state.
// 1つの部品×1つのロケーションの現在残高を表現
type Stock struct {
	ID          int64     `json:"id" db:"id"`                     // 在庫行ID
	ComponentID int64     `json:"component_id" db:"component_id"` // 部品ID
	LocationID  int64     `json:"location_id" db:"location_id"`   // ロケーションID
	Quantity    int64     `json:"quantity" db:"quantity"`         // 現在数量
	Reserved    int64     `json:"reserved" db:"reserved"`         // 予約済み数量
	Available   int64     `json:"available" db:"available"`       // 利用可能数量
	Version     int64     `json:"version" db:"version"`           // 楽観的ロック用バージョン
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`     // 最終更新日時
	UpdatedBy   string    `json:"updated_by" db:"updated_by"`     // 更新者
}

// CalculateAvailable recomputes the available quantity (total - reserved)
// 利用可能数量を再計算（総数量 - 予約済み数量）
func (s *Stock) CalculateAvailable() {
	s.Available = s.Quantity - s.Reserved
}

// ActionType defines the kind of change recorded in the ledger
// 台帳に記録される変更種別を定義
type ActionType string

const (
	ActionCreate    ActionType = "create"    // 参照データ作成
	ActionUpdate    ActionType = "update"    // 参照データ更新
	ActionDelete    ActionType = "delete"    // 参照データ無効化
	ActionReceipt   ActionType = "receipt"   // 入庫
	ActionIssue     ActionType = "issue"     // 出庫
	ActionAdjust    ActionType = "adjust"    // 手動調整
	ActionStocktake ActionType = "stocktake" // 棚卸
)

// QuantityActions are the action types that move stock and therefore carry
// quantity_before / quantity_after on their ledger entries
// 数量を変動させるアクション種別
var QuantityActions = []ActionType{ActionReceipt, ActionIssue, ActionAdjust, ActionStocktake}

// ChangeSet is the typed payload attached to catalog-change ledger entries.
// Quantity changes never carry a payload; before/after columns cover them.
// カタログ変更の台帳エントリに添付される型付きペイロード
type ChangeSet struct {
	Entity string            `json:"entity"`           // 変更対象エンティティ
	Fields map[string]string `json:"fields,omitempty"` // フィールド名→新しい値
}

// LedgerEntry is one immutable record in the audit ledger. Entries are only
// ever appended; there is no update or delete path anywhere in the system.
// 監査台帳の不変レコードを表現
type LedgerEntry struct {
	ID             string     `json:"id" db:"id"`                           // エントリID（UUID）
	Action         ActionType `json:"action" db:"action"`                   // アクション種別
	EntityType     string     `json:"entity_type" db:"entity_type"`         // エンティティ種別（stock, component, ...）
	EntityID       *int64     `json:"entity_id" db:"entity_id"`             // 変更対象レコードID
	ComponentID    *int64     `json:"component_id" db:"component_id"`       // 部品ID（任意）
	LocationID     *int64     `json:"location_id" db:"location_id"`         // ロケーションID（任意）
	QuantityBefore *int64     `json:"quantity_before" db:"quantity_before"` // 変更前数量
	QuantityAfter  *int64     `json:"quantity_after" db:"quantity_after"`   // 変更後数量
	Description    string     `json:"description" db:"description"`         // 変更内容の説明
	Payload        *ChangeSet `json:"payload,omitempty" db:"payload"`       // 型付きペイロード（任意）
	PerformedBy    string     `json:"performed_by" db:"performed_by"`       // 実行者
	CreatedAt      time.Time  `json:"created_at" db:"created_at"`           // 記録日時
}

// Delta returns quantity_after - quantity_before, or nil for entries that do
// not carry quantities (catalog changes)
// 数量差分を返す（数量を持たないエントリはnil）
func (e *LedgerEntry) Delta() *int64 {
	if e.QuantityBefore == nil || e.QuantityAfter == nil {
		return nil
	}
	d := *e.QuantityAfter - *e.QuantityBefore
	return &d
}

// DocumentStatus defines the lifecycle state shared by all documents
// 伝票の共通ライフサイクル状態を定義
type DocumentStatus string

const (
	StatusDraft     DocumentStatus = "draft"     // 下書き
	StatusConfirmed DocumentStatus = "confirmed" // 確定（終端）
	StatusCancelled DocumentStatus = "cancelled" // 取消（終端）
)

// Receipt is an inbound document: confirming it increases stock
// 入庫伝票を表現（確定で在庫が増加）
type Receipt struct {
	ID            int64          `json:"id" db:"id"`                         // 伝票ID
	Number        string         `json:"number" db:"number"`                 // 伝票番号（一意）
	SupplierID    *int64         `json:"supplier_id" db:"supplier_id"`       // 仕入先ID（任意）
	Status        DocumentStatus `json:"status" db:"status"`                 // 状態
	ReceivedAt    *time.Time     `json:"received_at" db:"received_at"`       // 受入日時（確定時に設定）
	InvoiceNumber string         `json:"invoice_number" db:"invoice_number"` // 仕入先請求書番号
	Notes         string         `json:"notes" db:"notes"`                   // 備考
	CreatedBy     string         `json:"created_by" db:"created_by"`         // 作成者
	CreatedAt     time.Time      `json:"created_at" db:"created_at"`         // 作成日時
	UpdatedAt     time.Time      `json:"updated_at" db:"updated_at"`         // 更新日時
	Items         []ReceiptItem  `json:"items"`                              // 明細行
}

// ReceiptItem is one line of a receipt
// 入庫伝票の明細行を表現
type ReceiptItem struct {
	ID          int64               `json:"id" db:"id"`                     // 明細ID
	ReceiptID   int64               `json:"receipt_id" db:"receipt_id"`     // 伝票ID
	ComponentID int64               `json:"component_id" db:"component_id"` // 部品ID
	LocationID  *int64              `json:"location_id" db:"location_id"`   // ロケーションID（省略時は既定ロケーション）
	Quantity    int64               `json:"quantity" db:"quantity"`         // 数量
	PriceRub    decimal.NullDecimal `json:"price_rub" db:"price_rub"`       // 伝票上の単価（任意）
}

// Issue is an outbound document: confirming it decreases stock and may be
// rejected with insufficient stock
// 出庫伝票を表現（確定で在庫が減少、在庫不足で拒否されうる）
type Issue struct {
	ID         int64          `json:"id" db:"id"`                 // 伝票ID
	Number     string         `json:"number" db:"number"`         // 伝票番号（一意）
	Department string         `json:"department" db:"department"` // 部署・プロジェクト
	Requester  string         `json:"requester" db:"requester"`   // 申請者
	Status     DocumentStatus `json:"status" db:"status"`         // 状態
	IssuedAt   *time.Time     `json:"issued_at" db:"issued_at"`   // 出庫日時（確定時に設定）
	Purpose    string         `json:"purpose" db:"purpose"`       // 目的・用途
	Notes      string         `json:"notes" db:"notes"`           // 備考
	CreatedBy  string         `json:"created_by" db:"created_by"` // 作成者
	CreatedAt  time.Time      `json:"created_at" db:"created_at"` // 作成日時
	UpdatedAt  time.Time      `json:"updated_at" db:"updated_at"` // 更新日時
	Items      []IssueItem    `json:"items"`                      // 明細行
}

// IssueItem is one line of an issue
// 出庫伝票の明細行を表現
type IssueItem struct {
	ID          int64  `json:"id" db:"id"`                     // 明細ID
	IssueID     int64  `json:"issue_id" db:"issue_id"`         // 伝票ID
	ComponentID int64  `json:"component_id" db:"component_id"` // 部品ID
	LocationID  *int64 `json:"location_id" db:"location_id"`   // ロケーションID（省略時は既定ロケーション）
	Quantity    int64  `json:"quantity" db:"quantity"`         // 数量
}

// Stocktake is a physical count document: confirming it snapshots the
// expected balance per line, stores the discrepancy, and adjusts stock to
// the counted quantity where the two differ
// 棚卸伝票を表現（確定で帳簿残高と実数の差異を記録・補正）
type Stocktake struct {
	ID         int64           `json:"id" db:"id"`                 // 伝票ID
	Number     string          `json:"number" db:"number"`         // 伝票番号（一意）
	Status     DocumentStatus  `json:"status" db:"status"`         // 状態
	FinishedAt *time.Time      `json:"finished_at" db:"finished_at"` // 完了日時（確定時に設定）
	Notes      string          `json:"notes" db:"notes"`           // 備考
	CreatedBy  string          `json:"created_by" db:"created_by"` // 作成者
	CreatedAt  time.Time       `json:"created_at" db:"created_at"` // 作成日時
	UpdatedAt  time.Time       `json:"updated_at" db:"updated_at"` // 更新日時
	Items      []StocktakeItem `json:"items"`                      // 明細行
}

// StocktakeItem is one counted line. ExpectedQuantity and Discrepancy are
// snapshots taken at confirmation time and are never recomputed afterwards.
// 棚卸伝票の明細行を表現（expected/discrepancyは確定時のスナップショット）
type StocktakeItem struct {
	ID               int64  `json:"id" db:"id"`                             // 明細ID
	StocktakeID      int64  `json:"stocktake_id" db:"stocktake_id"`         // 伝票ID
	ComponentID      int64  `json:"component_id" db:"component_id"`         // 部品ID
	LocationID       *int64 `json:"location_id" db:"location_id"`           // ロケーションID（省略時は既定ロケーション）
	ExpectedQuantity int64  `json:"expected_quantity" db:"expected_quantity"` // 帳簿残高（確定時点）
	ActualQuantity   int64  `json:"actual_quantity" db:"actual_quantity"`   // 実地棚卸数量
	Discrepancy      int64  `json:"discrepancy" db:"discrepancy"`           // 差異（実数 - 帳簿）
}

// StockAlert represents a low-stock alert raised against a component's
// minimum-stock threshold
// 部品の最低在庫数に対する低在庫アラートを表現
type StockAlert struct {
	ID          string     `json:"id" db:"id"`                     // アラートID（UUID）
	ComponentID int64      `json:"component_id" db:"component_id"` // 部品ID
	LocationID  int64      `json:"location_id" db:"location_id"`   // ロケーションID
	CurrentQty  int64      `json:"current_qty" db:"current_qty"`   // 現在数量
	Threshold   int64      `json:"threshold" db:"threshold"`       // 閾値（部品の最低在庫数）
	Message     string     `json:"message" db:"message"`           // メッセージ
	IsActive    bool       `json:"is_active" db:"is_active"`       // アクティブ状態
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`     // 作成日時
	ResolvedAt  *time.Time `json:"resolved_at" db:"resolved_at"`   // 解決日時
}

// LedgerFilter selects ledger entries for listing and reports
// 台帳エントリの抽出条件
type LedgerFilter struct {
	ComponentID *int64       `json:"component_id,omitempty"` // 部品IDで絞り込み
	Action      *ActionType  `json:"action,omitempty"`       // アクション種別で絞り込み
	Actions     []ActionType `json:"actions,omitempty"`      // 複数アクション種別で絞り込み
	From        *time.Time   `json:"from,omitempty"`         // 期間の開始
	To          *time.Time   `json:"to,omitempty"`           // 期間の終了
	Limit       int          `json:"limit"`                  // 取得件数上限
	Offset      int          `json:"offset"`                 // オフセット
}

// ComponentFilter selects components for catalog listing
// 部品一覧の抽出条件
type ComponentFilter struct {
	CategoryID     *int64 `json:"category_id,omitempty"`     // カテゴリで絞り込み
	ManufacturerID *int64 `json:"manufacturer_id,omitempty"` // メーカーで絞り込み
	Search         string `json:"search,omitempty"`          // 型番・名称の部分一致
	ActiveOnly     bool   `json:"active_only"`               // アクティブのみ
}

// NewEntryID generates a new ledger entry ID
// 新しい台帳エントリIDを生成
func NewEntryID() string {
	return uuid.New().String()
}

// NewAlertID generates a new alert ID
// 新しいアラートIDを生成
func NewAlertID() string {
	return uuid.New().String()
}
