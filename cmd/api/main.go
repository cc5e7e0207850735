package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/nemonet1337/zaikoAuditGo/internal/config"
	"github.com/nemonet1337/zaikoAuditGo/pkg/warehouse"
	"github.com/nemonet1337/zaikoAuditGo/pkg/warehouse/storage"
)

func main() {
	// ローカル開発用に.envを読み込み（無ければ無視）
	_ = godotenv.Load()

	// 設定読み込み
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("設定読み込みに失敗しました:", err)
	}

	// ログ設定
	logger, err := newLogger(cfg.Logging)
	if err != nil {
		log.Fatal("ログ初期化に失敗しました:", err)
	}
	defer logger.Sync()

	// データベース接続
	store, err := storage.NewPostgreSQLStorage(cfg.DSN(), logger)
	if err != nil {
		logger.Fatal("データベース接続に失敗しました", zap.Error(err))
	}
	defer store.Close()

	// 倉庫マネージャー初期化
	warehouseConfig := &warehouse.Config{
		DefaultLocationCode: cfg.Warehouse.DefaultLocationCode,
		MovementReportLimit: cfg.Warehouse.MovementReportLimit,
		LedgerPageLimit:     cfg.Warehouse.LedgerPageLimit,
	}

	manager := warehouse.NewManager(store, nil, logger, warehouseConfig)

	// HTTPハンドラー設定
	handlers := NewHandlers(manager, store, logger)
	router := setupRouter(handlers, cfg.API)

	// HTTPサーバー設定
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.API.Port),
		Handler:      router,
		ReadTimeout:  cfg.API.ReadTimeout,
		WriteTimeout: cfg.API.WriteTimeout,
		IdleTimeout:  cfg.API.IdleTimeout,
	}

	// グレースフルシャットダウン設定
	go func() {
		logger.Info("倉庫監査APIサーバーを開始します", zap.Int("port", cfg.API.Port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("サーバー開始に失敗しました", zap.Error(err))
		}
	}()

	// シャットダウンシグナル待機
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("サーバーをシャットダウンしています...")

	// グレースフルシャットダウン
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("サーバーシャットダウンに失敗しました", zap.Error(err))
	}

	logger.Info("サーバーが正常に停止しました")
}

// newLogger builds the zap logger per the logging config
// ログ設定に従ってzapロガーを構築
func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	if cfg.Format == "console" {
		return zap.NewDevelopment()
	}
	zapCfg := zap.NewProductionConfig()
	if err := zapCfg.Level.UnmarshalText([]byte(cfg.Level)); err != nil {
		return nil, err
	}
	return zapCfg.Build()
}

// setupRouter sets up HTTP routes
// HTTPルートを設定
func setupRouter(handlers *Handlers, apiCfg config.APIConfig) *mux.Router {
	router := mux.NewRouter()

	// ヘルスチェック
	router.HandleFunc("/health", handlers.HealthCheck).Methods("GET")
	if apiCfg.EnableMetrics {
		router.Handle("/metrics", promhttp.Handler()).Methods("GET")
	}

	// API v1ルート
	api := router.PathPrefix("/api/v1").Subrouter()

	// 在庫照会・補正
	api.HandleFunc("/stocks/adjust", handlers.AdjustStock).Methods("POST")
	api.HandleFunc("/stocks/component/{componentId}/total", handlers.GetTotalStock).Methods("GET")
	api.HandleFunc("/stocks/location/{locationId}", handlers.GetStockByLocation).Methods("GET")
	api.HandleFunc("/stocks/{componentId}/{locationId}", handlers.GetStock).Methods("GET")

	// 監査台帳
	api.HandleFunc("/ledger", handlers.ListLedger).Methods("GET")

	// レポート
	api.HandleFunc("/reports/stock", handlers.StockReport).Methods("GET")
	api.HandleFunc("/reports/movements", handlers.MovementReport).Methods("GET")

	// 受入伝票
	api.HandleFunc("/receipts", handlers.CreateReceipt).Methods("POST")
	api.HandleFunc("/receipts", handlers.ListReceipts).Methods("GET")
	api.HandleFunc("/receipts/{id}", handlers.GetReceipt).Methods("GET")
	api.HandleFunc("/receipts/{id}/confirm", handlers.ConfirmReceipt).Methods("POST")
	api.HandleFunc("/receipts/{id}/cancel", handlers.CancelReceipt).Methods("POST")

	// 払出伝票
	api.HandleFunc("/issues", handlers.CreateIssue).Methods("POST")
	api.HandleFunc("/issues", handlers.ListIssues).Methods("GET")
	api.HandleFunc("/issues/{id}", handlers.GetIssue).Methods("GET")
	api.HandleFunc("/issues/{id}/confirm", handlers.ConfirmIssue).Methods("POST")
	api.HandleFunc("/issues/{id}/cancel", handlers.CancelIssue).Methods("POST")

	// 棚卸伝票
	api.HandleFunc("/stocktakes", handlers.CreateStocktake).Methods("POST")
	api.HandleFunc("/stocktakes", handlers.ListStocktakes).Methods("GET")
	api.HandleFunc("/stocktakes/{id}", handlers.GetStocktake).Methods("GET")
	api.HandleFunc("/stocktakes/{id}/confirm", handlers.ConfirmStocktake).Methods("POST")
	api.HandleFunc("/stocktakes/{id}/cancel", handlers.CancelStocktake).Methods("POST")

	// マスタデータ: 部品
	api.HandleFunc("/components", handlers.CreateComponent).Methods("POST")
	api.HandleFunc("/components", handlers.ListComponents).Methods("GET")
	api.HandleFunc("/components/{id}", handlers.GetComponent).Methods("GET")
	api.HandleFunc("/components/{id}", handlers.UpdateComponent).Methods("PUT")
	api.HandleFunc("/components/{id}", handlers.DeleteComponent).Methods("DELETE")

	// マスタデータ: カテゴリ・メーカー・仕入先
	api.HandleFunc("/categories", handlers.CreateCategory).Methods("POST")
	api.HandleFunc("/categories", handlers.ListCategories).Methods("GET")
	api.HandleFunc("/categories/{id}", handlers.DeleteCategory).Methods("DELETE")
	api.HandleFunc("/manufacturers", handlers.CreateManufacturer).Methods("POST")
	api.HandleFunc("/manufacturers", handlers.ListManufacturers).Methods("GET")
	api.HandleFunc("/suppliers", handlers.CreateSupplier).Methods("POST")
	api.HandleFunc("/suppliers", handlers.ListSuppliers).Methods("GET")
	api.HandleFunc("/suppliers/{id}", handlers.GetSupplier).Methods("GET")
	api.HandleFunc("/suppliers/{id}", handlers.UpdateSupplier).Methods("PUT")
	api.HandleFunc("/suppliers/{id}", handlers.DeleteSupplier).Methods("DELETE")

	// マスタデータ: 保管ロケーション
	api.HandleFunc("/locations", handlers.CreateLocation).Methods("POST")
	api.HandleFunc("/locations", handlers.ListLocations).Methods("GET")
	api.HandleFunc("/locations/{id}", handlers.GetLocation).Methods("GET")

	// アラート
	api.HandleFunc("/alerts/location/{locationId}", handlers.GetAlerts).Methods("GET")
	api.HandleFunc("/alerts/{alertId}/resolve", handlers.ResolveAlert).Methods("POST")

	// CORS設定（開発用）
	if apiCfg.EnableCORS {
		router.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Access-Control-Allow-Origin", "*")
				w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

				if r.Method == "OPTIONS" {
					w.WriteHeader(http.StatusOK)
					return
				}

				next.ServeHTTP(w, r)
			})
		})
	}

	// ログ・メトリクス
	router.Use(loggingMiddleware(handlers.logger))
	if apiCfg.EnableMetrics {
		router.Use(metricsMiddleware)
	}

	return router
}

// loggingMiddleware logs HTTP requests
// HTTPリクエストをログ出力するミドルウェア
func loggingMiddleware(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// リクエスト処理
			next.ServeHTTP(w, r)

			// ログ出力
			logger.Info("HTTPリクエスト",
				zap.String("method", r.Method),
				zap.String("url", r.URL.Path),
				zap.String("remote_addr", r.RemoteAddr),
				zap.Duration("duration", time.Since(start)),
			)
		})
	}
}
