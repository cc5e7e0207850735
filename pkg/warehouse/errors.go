package warehouse

import (
	"errors"
	"fmt"
)

// Common warehouse errors
// 共通の倉庫エラー定義

var (
	// ErrComponentNotFound is returned when a component doesn't exist
	// 部品が存在しない場合のエラー
	ErrComponentNotFound = errors.New("部品が見つかりません")

	// ErrLocationNotFound is returned when a storage location doesn't exist
	// 保管ロケーションが存在しない場合のエラー
	ErrLocationNotFound = errors.New("保管ロケーションが見つかりません")

	// ErrStockNotFound is returned when a stock row doesn't exist
	// 在庫行が存在しない場合のエラー
	ErrStockNotFound = errors.New("在庫行が見つかりません")

	// ErrDocumentNotFound is returned when a document doesn't exist
	// 伝票が存在しない場合のエラー
	ErrDocumentNotFound = errors.New("伝票が見つかりません")

	// ErrCategoryNotFound is returned when a category doesn't exist
	// カテゴリが存在しない場合のエラー
	ErrCategoryNotFound = errors.New("カテゴリが見つかりません")

	// ErrSupplierNotFound is returned when a supplier doesn't exist
	// 仕入先が存在しない場合のエラー
	ErrSupplierNotFound = errors.New("仕入先が見つかりません")

	// ErrAlertNotFound is returned when an alert doesn't exist
	// アラートが存在しない場合のエラー
	ErrAlertNotFound = errors.New("アラートが見つかりません")

	// ErrInsufficientStock is returned when a change would drive a balance
	// below zero. Match with errors.Is; the concrete value is an
	// *InsufficientStockError carrying available/requested context.
	// 在庫不足の場合のエラー
	ErrInsufficientStock = errors.New("在庫が不足しています")

	// ErrDocumentProcessed is returned when confirm or cancel is attempted
	// on a document that has already left the draft state
	// 処理済み伝票への操作エラー
	ErrDocumentProcessed = errors.New("伝票は既に処理されています")

	// ErrVersionMismatch is returned when optimistic locking fails
	// 楽観的ロック失敗時のエラー
	ErrVersionMismatch = errors.New("バージョンが一致しません。他のユーザーによって更新されています")

	// ErrDuplicateComponent is returned when a part number already exists
	// 型番が既に存在する場合のエラー
	ErrDuplicateComponent = errors.New("部品は既に存在します")

	// ErrDuplicateLocation is returned when a location code already exists
	// ロケーションコードが既に存在する場合のエラー
	ErrDuplicateLocation = errors.New("保管ロケーションは既に存在します")

	// ErrDuplicateDocument is returned when a document number already exists
	// 伝票番号が既に存在する場合のエラー
	ErrDuplicateDocument = errors.New("伝票番号は既に存在します")

	// ErrCategoryInUse is returned when deleting a category that components
	// still reference
	// 部品から参照されているカテゴリの削除エラー
	ErrCategoryInUse = errors.New("カテゴリは部品から参照されています")
)

// InsufficientStockError reports the exact shortage that caused a mutation
// to be rejected. The balance and ledger are left untouched.
// 在庫不足の詳細（利用可能数量と要求数量）を保持
type InsufficientStockError struct {
	ComponentID int64 `json:"component_id"` // 部品ID
	LocationID  int64 `json:"location_id"`  // ロケーションID
	Available   int64 `json:"available"`    // 利用可能数量
	Requested   int64 `json:"requested"`    // 要求数量
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("在庫が不足しています: 利用可能 %d, 要求 %d (部品ID: %d, ロケーションID: %d)",
		e.Available, e.Requested, e.ComponentID, e.LocationID)
}

// Is makes errors.Is(err, ErrInsufficientStock) match
func (e *InsufficientStockError) Is(target error) bool {
	return target == ErrInsufficientStock
}

// ValidationError represents a validation error with details
// 詳細付きバリデーションエラーを表現
type ValidationError struct {
	Field   string `json:"field"`   // エラーフィールド
	Message string `json:"message"` // エラーメッセージ
	Value   string `json:"value"`   // 無効な値
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("バリデーションエラー [%s]: %s (値: %s)", e.Field, e.Message, e.Value)
}

// ConcurrencyError represents a transient lock or transaction conflict on a
// stock row. The engine retries these internally a bounded number of times
// before surfacing one.
// 同時実行関連のエラーを表現
type ConcurrencyError struct {
	Operation string `json:"operation"` // 操作名
	Resource  string `json:"resource"`  // リソース
	Message   string `json:"message"`   // エラーメッセージ
}

func (e *ConcurrencyError) Error() string {
	return fmt.Sprintf("同時実行エラー [%s:%s]: %s", e.Operation, e.Resource, e.Message)
}

// StorageError represents a storage layer error
// ストレージ層のエラーを表現
type StorageError struct {
	Operation string `json:"operation"` // 操作名
	Message   string `json:"message"`   // エラーメッセージ
	Cause     error  `json:"cause"`     // 原因エラー
}

func (e *StorageError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("ストレージエラー [%s]: %s (原因: %v)", e.Operation, e.Message, e.Cause)
	}
	return fmt.Sprintf("ストレージエラー [%s]: %s", e.Operation, e.Message)
}

func (e *StorageError) Unwrap() error {
	return e.Cause
}

// NewInsufficientStockError creates a new insufficient stock error
// 新しい在庫不足エラーを作成
func NewInsufficientStockError(componentID, locationID, available, requested int64) *InsufficientStockError {
	return &InsufficientStockError{
		ComponentID: componentID,
		LocationID:  locationID,
		Available:   available,
		Requested:   requested,
	}
}

// NewValidationError creates a new validation error
// 新しいバリデーションエラーを作成
func NewValidationError(field, message, value string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
		Value:   value,
	}
}

// NewConcurrencyError creates a new concurrency error
// 新しい同時実行エラーを作成
func NewConcurrencyError(operation, resource, message string) *ConcurrencyError {
	return &ConcurrencyError{
		Operation: operation,
		Resource:  resource,
		Message:   message,
	}
}

// NewStorageError creates a new storage error
// 新しいストレージエラーを作成
func NewStorageError(operation, message string, cause error) *StorageError {
	return &StorageError{
		Operation: operation,
		Message:   message,
		Cause:     cause,
	}
}

// IsConcurrencyConflict reports whether err is a transient conflict worth
// retrying (version mismatch or a ConcurrencyError from the storage layer)
// 再試行可能な一時的競合かを判定
func IsConcurrencyConflict(err error) bool {
	if errors.Is(err, ErrVersionMismatch) {
		return true
	}
	var ce *ConcurrencyError
	return errors.As(err, &ce)
}
