package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/nemonet1337/zaikoAuditGo/pkg/warehouse"
)

// Handlers holds HTTP handlers for the warehouse API
// 倉庫API用のHTTPハンドラーを保持
type Handlers struct {
	manager *warehouse.Manager
	storage warehouse.Storage
	logger  *zap.Logger
}

// NewHandlers creates new HTTP handlers
// 新しいHTTPハンドラーを作成
func NewHandlers(manager *warehouse.Manager, storage warehouse.Storage, logger *zap.Logger) *Handlers {
	return &Handlers{
		manager: manager,
		storage: storage,
		logger:  logger,
	}
}

// APIResponse represents standard API response format
// 標準的なAPIレスポンス形式を表現
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// AdjustStockRequest represents request to adjust stock
// 在庫補正リクエストを表現
type AdjustStockRequest struct {
	ComponentID int64  `json:"component_id"`
	LocationID  int64  `json:"location_id"`
	NewQuantity int64  `json:"new_quantity"`
	Reason      string `json:"reason"`
	PerformedBy string `json:"performed_by"`
}

// HealthCheck handles health check requests
// ヘルスチェックリクエストを処理
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	status := "healthy"
	code := http.StatusOK
	if err := h.storage.Ping(r.Context()); err != nil {
		status = "unhealthy"
		code = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(APIResponse{
		Success: code == http.StatusOK,
		Data: map[string]interface{}{
			"status":    status,
			"timestamp": time.Now(),
			"service":   "zaikoAuditGo",
		},
	})
}

// AdjustStock handles manual stock adjustment requests
// 在庫補正リクエストを処理
func (h *Handlers) AdjustStock(w http.ResponseWriter, r *http.Request) {
	var req AdjustStockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.sendError(w, http.StatusBadRequest, "無効なリクエスト形式です")
		return
	}

	if err := h.manager.AdjustStock(r.Context(), req.ComponentID, req.LocationID, req.NewQuantity, req.Reason, performedBy(req.PerformedBy)); err != nil {
		h.sendFailure(w, err)
		return
	}

	h.sendSuccess(w, map[string]string{
		"message": "在庫補正が完了しました",
	})
}

// GetStock handles get stock requests
// 在庫照会リクエストを処理
func (h *Handlers) GetStock(w http.ResponseWriter, r *http.Request) {
	componentID, ok := h.pathID(w, r, "componentId")
	if !ok {
		return
	}
	locationID, ok := h.pathID(w, r, "locationId")
	if !ok {
		return
	}

	stock, err := h.manager.GetStock(r.Context(), componentID, locationID)
	if err != nil {
		h.sendFailure(w, err)
		return
	}

	h.sendSuccess(w, stock)
}

// GetTotalStock handles total stock requests
// 合計在庫照会リクエストを処理
func (h *Handlers) GetTotalStock(w http.ResponseWriter, r *http.Request) {
	componentID, ok := h.pathID(w, r, "componentId")
	if !ok {
		return
	}

	total, err := h.manager.GetTotalStock(r.Context(), componentID)
	if err != nil {
		h.sendFailure(w, err)
		return
	}

	h.sendSuccess(w, map[string]int64{
		"component_id": componentID,
		"total_stock":  total,
	})
}

// GetStockByLocation handles location stock requests
// ロケーション在庫照会リクエストを処理
func (h *Handlers) GetStockByLocation(w http.ResponseWriter, r *http.Request) {
	locationID, ok := h.pathID(w, r, "locationId")
	if !ok {
		return
	}

	stocks, err := h.manager.GetStockByLocation(r.Context(), locationID)
	if err != nil {
		h.sendFailure(w, err)
		return
	}

	h.sendSuccess(w, stocks)
}

// ListLedger handles audit ledger queries
// 監査台帳照会リクエストを処理
func (h *Handlers) ListLedger(w http.ResponseWriter, r *http.Request) {
	filter := warehouse.LedgerFilter{}
	q := r.URL.Query()

	if v := q.Get("component_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			h.sendError(w, http.StatusBadRequest, "無効な部品IDです")
			return
		}
		filter.ComponentID = &id
	}
	if v := q.Get("action"); v != "" {
		action := warehouse.ActionType(v)
		if err := warehouse.ValidateAction(action); err != nil {
			h.sendError(w, http.StatusBadRequest, "無効なアクション種別です")
			return
		}
		filter.Action = &action
	}
	if v := q.Get("from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			h.sendError(w, http.StatusBadRequest, "無効な開始日時です")
			return
		}
		filter.From = &t
	}
	if v := q.Get("to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			h.sendError(w, http.StatusBadRequest, "無効な終了日時です")
			return
		}
		filter.To = &t
	}
	filter.Limit = queryInt(q.Get("limit"), 0)
	filter.Offset = queryInt(q.Get("offset"), 0)

	entries, err := h.manager.ListLedger(r.Context(), filter)
	if err != nil {
		h.sendFailure(w, err)
		return
	}

	h.sendSuccess(w, entries)
}

// StockReport handles stock report requests
// 在庫レポートリクエストを処理
func (h *Handlers) StockReport(w http.ResponseWriter, r *http.Request) {
	opts := warehouse.StockReportOptions{}
	q := r.URL.Query()

	if v := q.Get("location_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			h.sendError(w, http.StatusBadRequest, "無効なロケーションIDです")
			return
		}
		opts.LocationID = &id
	}
	opts.BelowMinOnly = q.Get("below_min") == "true"

	report, err := h.manager.StockReport(r.Context(), opts)
	if err != nil {
		h.sendFailure(w, err)
		return
	}

	h.sendSuccess(w, report)
}

// MovementReport handles movement report requests
// 移動レポートリクエストを処理
func (h *Handlers) MovementReport(w http.ResponseWriter, r *http.Request) {
	opts := warehouse.MovementReportOptions{}
	q := r.URL.Query()

	if v := q.Get("component_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			h.sendError(w, http.StatusBadRequest, "無効な部品IDです")
			return
		}
		opts.ComponentID = &id
	}
	if v := q.Get("from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			h.sendError(w, http.StatusBadRequest, "無効な開始日時です")
			return
		}
		opts.From = &t
	}
	if v := q.Get("to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			h.sendError(w, http.StatusBadRequest, "無効な終了日時です")
			return
		}
		opts.To = &t
	}
	opts.Limit = queryInt(q.Get("limit"), 0)

	report, err := h.manager.MovementReport(r.Context(), opts)
	if err != nil {
		h.sendFailure(w, err)
		return
	}

	h.sendSuccess(w, report)
}

// 受入伝票ハンドラー

// CreateReceipt handles receipt creation requests
// 受入伝票作成リクエストを処理
func (h *Handlers) CreateReceipt(w http.ResponseWriter, r *http.Request) {
	var receipt warehouse.Receipt
	if err := json.NewDecoder(r.Body).Decode(&receipt); err != nil {
		h.sendError(w, http.StatusBadRequest, "無効なリクエスト形式です")
		return
	}
	receipt.CreatedBy = performedBy(receipt.CreatedBy)

	if err := h.manager.CreateReceipt(r.Context(), &receipt); err != nil {
		h.sendFailure(w, err)
		return
	}

	h.sendCreated(w, &receipt)
}

// GetReceipt handles receipt retrieval requests
// 受入伝票取得リクエストを処理
func (h *Handlers) GetReceipt(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	receipt, err := h.manager.GetReceipt(r.Context(), id)
	if err != nil {
		h.sendFailure(w, err)
		return
	}

	h.sendSuccess(w, receipt)
}

// ListReceipts handles receipt list requests
// 受入伝票一覧リクエストを処理
func (h *Handlers) ListReceipts(w http.ResponseWriter, r *http.Request) {
	offset, limit := pagination(r)
	receipts, err := h.manager.ListReceipts(r.Context(), offset, limit)
	if err != nil {
		h.sendFailure(w, err)
		return
	}

	h.sendSuccess(w, receipts)
}

// ConfirmReceipt handles receipt confirmation requests
// 受入伝票確定リクエストを処理
func (h *Handlers) ConfirmReceipt(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	if err := h.manager.ConfirmReceipt(r.Context(), id, requestUser(r)); err != nil {
		h.sendFailure(w, err)
		return
	}

	h.sendSuccess(w, map[string]string{
		"message": "受入伝票を確定しました",
	})
}

// CancelReceipt handles receipt cancellation requests
// 受入伝票取消リクエストを処理
func (h *Handlers) CancelReceipt(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	if err := h.manager.CancelReceipt(r.Context(), id, requestUser(r)); err != nil {
		h.sendFailure(w, err)
		return
	}

	h.sendSuccess(w, map[string]string{
		"message": "受入伝票を取消しました",
	})
}

// 払出伝票ハンドラー

// CreateIssue handles issue creation requests
// 払出伝票作成リクエストを処理
func (h *Handlers) CreateIssue(w http.ResponseWriter, r *http.Request) {
	var issue warehouse.Issue
	if err := json.NewDecoder(r.Body).Decode(&issue); err != nil {
		h.sendError(w, http.StatusBadRequest, "無効なリクエスト形式です")
		return
	}
	issue.CreatedBy = performedBy(issue.CreatedBy)

	if err := h.manager.CreateIssue(r.Context(), &issue); err != nil {
		h.sendFailure(w, err)
		return
	}

	h.sendCreated(w, &issue)
}

// GetIssue handles issue retrieval requests
// 払出伝票取得リクエストを処理
func (h *Handlers) GetIssue(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	issue, err := h.manager.GetIssue(r.Context(), id)
	if err != nil {
		h.sendFailure(w, err)
		return
	}

	h.sendSuccess(w, issue)
}

// ListIssues handles issue list requests
// 払出伝票一覧リクエストを処理
func (h *Handlers) ListIssues(w http.ResponseWriter, r *http.Request) {
	offset, limit := pagination(r)
	issues, err := h.manager.ListIssues(r.Context(), offset, limit)
	if err != nil {
		h.sendFailure(w, err)
		return
	}

	h.sendSuccess(w, issues)
}

// ConfirmIssue handles issue confirmation requests
// 払出伝票確定リクエストを処理
func (h *Handlers) ConfirmIssue(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	if err := h.manager.ConfirmIssue(r.Context(), id, requestUser(r)); err != nil {
		h.sendFailure(w, err)
		return
	}

	h.sendSuccess(w, map[string]string{
		"message": "払出伝票を確定しました",
	})
}

// CancelIssue handles issue cancellation requests
// 払出伝票取消リクエストを処理
func (h *Handlers) CancelIssue(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	if err := h.manager.CancelIssue(r.Context(), id, requestUser(r)); err != nil {
		h.sendFailure(w, err)
		return
	}

	h.sendSuccess(w, map[string]string{
		"message": "払出伝票を取消しました",
	})
}

// 棚卸伝票ハンドラー

// CreateStocktake handles stocktake creation requests
// 棚卸伝票作成リクエストを処理
func (h *Handlers) CreateStocktake(w http.ResponseWriter, r *http.Request) {
	var stocktake warehouse.Stocktake
	if err := json.NewDecoder(r.Body).Decode(&stocktake); err != nil {
		h.sendError(w, http.StatusBadRequest, "無効なリクエスト形式です")
		return
	}
	stocktake.CreatedBy = performedBy(stocktake.CreatedBy)

	if err := h.manager.CreateStocktake(r.Context(), &stocktake); err != nil {
		h.sendFailure(w, err)
		return
	}

	h.sendCreated(w, &stocktake)
}

// GetStocktake handles stocktake retrieval requests
// 棚卸伝票取得リクエストを処理
func (h *Handlers) GetStocktake(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	stocktake, err := h.manager.GetStocktake(r.Context(), id)
	if err != nil {
		h.sendFailure(w, err)
		return
	}

	h.sendSuccess(w, stocktake)
}

// ListStocktakes handles stocktake list requests
// 棚卸伝票一覧リクエストを処理
func (h *Handlers) ListStocktakes(w http.ResponseWriter, r *http.Request) {
	offset, limit := pagination(r)
	stocktakes, err := h.manager.ListStocktakes(r.Context(), offset, limit)
	if err != nil {
		h.sendFailure(w, err)
		return
	}

	h.sendSuccess(w, stocktakes)
}

// ConfirmStocktake handles stocktake confirmation requests
// 棚卸伝票確定リクエストを処理
func (h *Handlers) ConfirmStocktake(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	if err := h.manager.ConfirmStocktake(r.Context(), id, requestUser(r)); err != nil {
		h.sendFailure(w, err)
		return
	}

	// 確定後の差異結果を返す
	stocktake, err := h.manager.GetStocktake(r.Context(), id)
	if err != nil {
		h.sendFailure(w, err)
		return
	}

	h.sendSuccess(w, stocktake)
}

// CancelStocktake handles stocktake cancellation requests
// 棚卸伝票取消リクエストを処理
func (h *Handlers) CancelStocktake(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	if err := h.manager.CancelStocktake(r.Context(), id, requestUser(r)); err != nil {
		h.sendFailure(w, err)
		return
	}

	h.sendSuccess(w, map[string]string{
		"message": "棚卸伝票を取消しました",
	})
}

// マスタデータハンドラー

// CreateComponent handles component creation requests
// 部品作成リクエストを処理
func (h *Handlers) CreateComponent(w http.ResponseWriter, r *http.Request) {
	var component warehouse.Component
	if err := json.NewDecoder(r.Body).Decode(&component); err != nil {
		h.sendError(w, http.StatusBadRequest, "無効なリクエスト形式です")
		return
	}

	if err := h.manager.CreateComponent(r.Context(), &component, requestUser(r)); err != nil {
		h.sendFailure(w, err)
		return
	}

	h.sendCreated(w, &component)
}

// GetComponent handles component retrieval requests
// 部品取得リクエストを処理
func (h *Handlers) GetComponent(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	component, err := h.manager.GetComponent(r.Context(), id)
	if err != nil {
		h.sendFailure(w, err)
		return
	}

	h.sendSuccess(w, component)
}

// UpdateComponent handles component update requests
// 部品更新リクエストを処理
func (h *Handlers) UpdateComponent(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	var component warehouse.Component
	if err := json.NewDecoder(r.Body).Decode(&component); err != nil {
		h.sendError(w, http.StatusBadRequest, "無効なリクエスト形式です")
		return
	}
	component.ID = id

	if err := h.manager.UpdateComponent(r.Context(), &component, requestUser(r)); err != nil {
		h.sendFailure(w, err)
		return
	}

	h.sendSuccess(w, &component)
}

// DeleteComponent handles component deactivation requests
// 部品無効化リクエストを処理
func (h *Handlers) DeleteComponent(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	if err := h.manager.DeleteComponent(r.Context(), id, requestUser(r)); err != nil {
		h.sendFailure(w, err)
		return
	}

	h.sendSuccess(w, map[string]string{
		"message": "部品を無効化しました",
	})
}

// ListComponents handles component list requests
// 部品一覧リクエストを処理
func (h *Handlers) ListComponents(w http.ResponseWriter, r *http.Request) {
	filter := warehouse.ComponentFilter{}
	q := r.URL.Query()

	if v := q.Get("category_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			h.sendError(w, http.StatusBadRequest, "無効なカテゴリIDです")
			return
		}
		filter.CategoryID = &id
	}
	if v := q.Get("manufacturer_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			h.sendError(w, http.StatusBadRequest, "無効なメーカーIDです")
			return
		}
		filter.ManufacturerID = &id
	}
	filter.Search = q.Get("search")
	filter.ActiveOnly = q.Get("active") == "true"

	offset, limit := pagination(r)
	components, err := h.manager.ListComponents(r.Context(), filter, offset, limit)
	if err != nil {
		h.sendFailure(w, err)
		return
	}

	h.sendSuccess(w, components)
}

// CreateCategory handles category creation requests
// カテゴリ作成リクエストを処理
func (h *Handlers) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var category warehouse.ComponentCategory
	if err := json.NewDecoder(r.Body).Decode(&category); err != nil {
		h.sendError(w, http.StatusBadRequest, "無効なリクエスト形式です")
		return
	}

	if err := h.manager.CreateCategory(r.Context(), &category, requestUser(r)); err != nil {
		h.sendFailure(w, err)
		return
	}

	h.sendCreated(w, &category)
}

// DeleteCategory handles category deletion requests
// カテゴリ削除リクエストを処理
func (h *Handlers) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	if err := h.manager.DeleteCategory(r.Context(), id, requestUser(r)); err != nil {
		h.sendFailure(w, err)
		return
	}

	h.sendSuccess(w, map[string]string{
		"message": "カテゴリを削除しました",
	})
}

// ListCategories handles category list requests
// カテゴリ一覧リクエストを処理
func (h *Handlers) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.manager.ListCategories(r.Context())
	if err != nil {
		h.sendFailure(w, err)
		return
	}

	h.sendSuccess(w, categories)
}

// CreateManufacturer handles manufacturer creation requests
// メーカー作成リクエストを処理
func (h *Handlers) CreateManufacturer(w http.ResponseWriter, r *http.Request) {
	var manufacturer warehouse.Manufacturer
	if err := json.NewDecoder(r.Body).Decode(&manufacturer); err != nil {
		h.sendError(w, http.StatusBadRequest, "無効なリクエスト形式です")
		return
	}

	if err := h.manager.CreateManufacturer(r.Context(), &manufacturer, requestUser(r)); err != nil {
		h.sendFailure(w, err)
		return
	}

	h.sendCreated(w, &manufacturer)
}

// ListManufacturers handles manufacturer list requests
// メーカー一覧リクエストを処理
func (h *Handlers) ListManufacturers(w http.ResponseWriter, r *http.Request) {
	manufacturers, err := h.manager.ListManufacturers(r.Context())
	if err != nil {
		h.sendFailure(w, err)
		return
	}

	h.sendSuccess(w, manufacturers)
}

// CreateSupplier handles supplier creation requests
// 仕入先作成リクエストを処理
func (h *Handlers) CreateSupplier(w http.ResponseWriter, r *http.Request) {
	var supplier warehouse.Supplier
	if err := json.NewDecoder(r.Body).Decode(&supplier); err != nil {
		h.sendError(w, http.StatusBadRequest, "無効なリクエスト形式です")
		return
	}

	if err := h.manager.CreateSupplier(r.Context(), &supplier, requestUser(r)); err != nil {
		h.sendFailure(w, err)
		return
	}

	h.sendCreated(w, &supplier)
}

// GetSupplier handles single supplier requests
// 仕入先取得リクエストを処理
func (h *Handlers) GetSupplier(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	supplier, err := h.manager.GetSupplier(r.Context(), id)
	if err != nil {
		h.sendFailure(w, err)
		return
	}

	h.sendSuccess(w, supplier)
}

// UpdateSupplier handles supplier update requests
// 仕入先更新リクエストを処理
func (h *Handlers) UpdateSupplier(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	var supplier warehouse.Supplier
	if err := json.NewDecoder(r.Body).Decode(&supplier); err != nil {
		h.sendError(w, http.StatusBadRequest, "無効なリクエスト形式です")
		return
	}
	supplier.ID = id

	if err := h.manager.UpdateSupplier(r.Context(), &supplier, requestUser(r)); err != nil {
		h.sendFailure(w, err)
		return
	}

	h.sendSuccess(w, &supplier)
}

// DeleteSupplier handles supplier deactivation requests
// 仕入先無効化リクエストを処理
func (h *Handlers) DeleteSupplier(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	if err := h.manager.DeleteSupplier(r.Context(), id, requestUser(r)); err != nil {
		h.sendFailure(w, err)
		return
	}

	h.sendSuccess(w, map[string]string{
		"message": "仕入先を無効化しました",
	})
}

// ListSuppliers handles supplier list requests
// 仕入先一覧リクエストを処理
func (h *Handlers) ListSuppliers(w http.ResponseWriter, r *http.Request) {
	suppliers, err := h.manager.ListSuppliers(r.Context())
	if err != nil {
		h.sendFailure(w, err)
		return
	}

	h.sendSuccess(w, suppliers)
}

// CreateLocation handles storage location creation requests
// 保管ロケーション作成リクエストを処理
func (h *Handlers) CreateLocation(w http.ResponseWriter, r *http.Request) {
	var location warehouse.StorageLocation
	if err := json.NewDecoder(r.Body).Decode(&location); err != nil {
		h.sendError(w, http.StatusBadRequest, "無効なリクエスト形式です")
		return
	}

	if err := h.manager.CreateLocation(r.Context(), &location, requestUser(r)); err != nil {
		h.sendFailure(w, err)
		return
	}

	h.sendCreated(w, &location)
}

// GetLocation handles storage location retrieval requests
// 保管ロケーション取得リクエストを処理
func (h *Handlers) GetLocation(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	location, err := h.manager.GetLocation(r.Context(), id)
	if err != nil {
		h.sendFailure(w, err)
		return
	}

	h.sendSuccess(w, location)
}

// ListLocations handles storage location list requests
// 保管ロケーション一覧リクエストを処理
func (h *Handlers) ListLocations(w http.ResponseWriter, r *http.Request) {
	locations, err := h.manager.ListLocations(r.Context())
	if err != nil {
		h.sendFailure(w, err)
		return
	}

	h.sendSuccess(w, locations)
}

// GetAlerts handles alert list requests
// アラート一覧リクエストを処理
func (h *Handlers) GetAlerts(w http.ResponseWriter, r *http.Request) {
	locationID, ok := h.pathID(w, r, "locationId")
	if !ok {
		return
	}

	alerts, err := h.manager.GetAlerts(r.Context(), locationID)
	if err != nil {
		h.sendFailure(w, err)
		return
	}

	h.sendSuccess(w, alerts)
}

// ResolveAlert handles alert resolution requests
// アラート解決リクエストを処理
func (h *Handlers) ResolveAlert(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	if err := h.manager.ResolveAlert(r.Context(), vars["alertId"]); err != nil {
		h.sendFailure(w, err)
		return
	}

	h.sendSuccess(w, map[string]string{
		"message": "アラートを解決しました",
	})
}

// ヘルパー

// pathID parses an int64 path variable
// パス変数をint64として解析
func (h *Handlers) pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	vars := mux.Vars(r)
	id, err := strconv.ParseInt(vars[name], 10, 64)
	if err != nil || id <= 0 {
		h.sendError(w, http.StatusBadRequest, "無効なIDです")
		return 0, false
	}
	return id, true
}

// pagination reads offset/limit query parameters
func pagination(r *http.Request) (offset, limit int) {
	q := r.URL.Query()
	return queryInt(q.Get("offset"), 0), queryInt(q.Get("limit"), 50)
}

func queryInt(value string, fallback int) int {
	if value == "" {
		return fallback
	}
	n, err := strconv.Atoi(value)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}

// requestUser extracts the acting user from the request headers
// リクエストヘッダーから実行者を取得
func requestUser(r *http.Request) string {
	return performedBy(r.Header.Get("X-User"))
}

func performedBy(user string) string {
	if user == "" {
		return "api_user"
	}
	return user
}

// statusForError maps domain errors to HTTP status codes
// ドメインエラーをHTTPステータスコードに変換
func statusForError(err error) int {
	switch {
	case errors.Is(err, warehouse.ErrComponentNotFound),
		errors.Is(err, warehouse.ErrLocationNotFound),
		errors.Is(err, warehouse.ErrStockNotFound),
		errors.Is(err, warehouse.ErrDocumentNotFound),
		errors.Is(err, warehouse.ErrCategoryNotFound),
		errors.Is(err, warehouse.ErrSupplierNotFound),
		errors.Is(err, warehouse.ErrAlertNotFound):
		return http.StatusNotFound
	case errors.Is(err, warehouse.ErrInsufficientStock):
		return http.StatusBadRequest
	case errors.Is(err, warehouse.ErrDocumentProcessed),
		errors.Is(err, warehouse.ErrVersionMismatch),
		errors.Is(err, warehouse.ErrDuplicateComponent),
		errors.Is(err, warehouse.ErrDuplicateLocation),
		errors.Is(err, warehouse.ErrDuplicateDocument),
		errors.Is(err, warehouse.ErrCategoryInUse):
		return http.StatusConflict
	}

	var validationErr *warehouse.ValidationError
	if errors.As(err, &validationErr) {
		return http.StatusBadRequest
	}
	var concurrencyErr *warehouse.ConcurrencyError
	if errors.As(err, &concurrencyErr) {
		return http.StatusConflict
	}

	return http.StatusInternalServerError
}

// sendFailure sends an error response with the mapped status code
// エラー内容に応じたステータスコードで応答
func (h *Handlers) sendFailure(w http.ResponseWriter, err error) {
	status := statusForError(err)
	if status == http.StatusInternalServerError {
		h.logger.Error("リクエスト処理に失敗しました", zap.Error(err))
	}
	h.sendError(w, status, err.Error())
}

// sendSuccess sends a successful API response
// 成功レスポンスを送信
func (h *Handlers) sendSuccess(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(APIResponse{
		Success: true,
		Data:    data,
	})
}

// sendCreated sends a 201 response with the created resource
// 作成済みリソースを201で送信
func (h *Handlers) sendCreated(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(APIResponse{
		Success: true,
		Data:    data,
	})
}

// sendError sends an error API response
// エラーレスポンスを送信
func (h *Handlers) sendError(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(APIResponse{
		Success: false,
		Error:   message,
	})
}
