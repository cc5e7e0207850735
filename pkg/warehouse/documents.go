package warehouse

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// 伝票ワークフロー: 下書きで作成し、確定で在庫へ反映、取消で破棄する。
// 確定は全行と状態遷移を単一トランザクションで行い、1行でも失敗すれば
// 伝票全体が下書きのまま残る。

// CreateReceipt creates a receipt document in draft status
// 受入伝票を下書きとして作成
func (m *Manager) CreateReceipt(ctx context.Context, receipt *Receipt) error {
	if err := ValidateReceipt(receipt); err != nil {
		return err
	}

	if receipt.SupplierID != nil {
		if _, err := m.storage.GetSupplier(ctx, *receipt.SupplierID); err != nil {
			if err == ErrSupplierNotFound {
				return ErrSupplierNotFound
			}
			return NewStorageError("get_supplier", "仕入先取得に失敗しました", err)
		}
	}
	for _, item := range receipt.Items {
		if err := m.validateLine(ctx, item.ComponentID, item.LocationID); err != nil {
			return err
		}
	}

	now := m.now()
	receipt.Status = StatusDraft
	receipt.CreatedAt = now
	receipt.UpdatedAt = now

	err := m.storage.InTransaction(ctx, func(tx Storage) error {
		if err := tx.CreateReceipt(ctx, receipt); err != nil {
			return NewStorageError("create_receipt", "受入伝票作成に失敗しました", err)
		}
		return m.auditDocument(ctx, tx, ActionCreate, "receipt", receipt.ID,
			fmt.Sprintf("受入伝票 %s を作成しました", receipt.Number), receipt.CreatedBy,
			&ChangeSet{Entity: "receipt", Fields: map[string]string{
				"number": receipt.Number,
				"status": string(StatusDraft),
				"lines":  fmt.Sprintf("%d", len(receipt.Items)),
			}})
	})
	if err != nil {
		return err
	}

	m.logger.Info("受入伝票作成完了",
		zap.Int64("receipt_id", receipt.ID),
		zap.String("number", receipt.Number),
		zap.Int("lines", len(receipt.Items)),
	)
	return nil
}

// GetReceipt gets a receipt document with its lines
// 受入伝票を取得
func (m *Manager) GetReceipt(ctx context.Context, receiptID int64) (*Receipt, error) {
	return m.storage.GetReceipt(ctx, receiptID)
}

// ListReceipts lists receipt documents, newest first
// 受入伝票の一覧を取得
func (m *Manager) ListReceipts(ctx context.Context, offset, limit int) ([]Receipt, error) {
	if limit <= 0 {
		limit = 50
	}
	return m.storage.ListReceipts(ctx, offset, limit)
}

// ConfirmReceipt applies all lines of a draft receipt to stock and marks it
// confirmed. All lines and the status transition commit atomically.
// 受入伝票を確定し、全行を在庫へ反映
func (m *Manager) ConfirmReceipt(ctx context.Context, receiptID int64, performedBy string) error {
	var (
		receipt *Receipt
		muts    []Mutation
		entries []*LedgerEntry
	)

	err := m.withRetry(ctx, func() error {
		muts = muts[:0]
		entries = entries[:0]
		return m.storage.InTransaction(ctx, func(tx Storage) error {
			var err error
			receipt, err = tx.GetReceipt(ctx, receiptID)
			if err != nil {
				return err
			}
			if receipt.Status != StatusDraft {
				return ErrDocumentProcessed
			}

			for _, item := range receipt.Items {
				locationID, err := m.resolveLineLocation(ctx, tx, item.LocationID)
				if err != nil {
					return err
				}

				mut := Mutation{
					ComponentID: item.ComponentID,
					LocationID:  locationID,
					Delta:       item.Quantity,
					Action:      ActionReceipt,
					EntityType:  "receipt",
					EntityID:    &receipt.ID,
					Description: fmt.Sprintf("受入伝票 %s による入庫", receipt.Number),
					PerformedBy: performedBy,
				}
				entry, err := applyMutation(ctx, tx, mut)
				if err != nil {
					return err
				}
				muts = append(muts, mut)
				entries = append(entries, entry)
			}

			return tx.UpdateReceiptStatus(ctx, receiptID, StatusConfirmed, m.now())
		})
	})
	if err != nil {
		return err
	}

	for i := range muts {
		m.afterMutation(ctx, muts[i], entries[i])
	}
	m.publishConfirmed(ctx, "receipt", receipt.ID, receipt.Number, len(receipt.Items), performedBy)

	m.logger.Info("受入伝票確定完了",
		zap.Int64("receipt_id", receiptID),
		zap.String("number", receipt.Number),
		zap.Int("lines", len(receipt.Items)),
	)
	return nil
}

// CancelReceipt cancels a draft receipt without touching stock
// 下書きの受入伝票を取消
func (m *Manager) CancelReceipt(ctx context.Context, receiptID int64, performedBy string) error {
	return m.cancelDocument(ctx, "receipt", receiptID, performedBy,
		func(tx Storage) (DocumentStatus, string, error) {
			receipt, err := tx.GetReceipt(ctx, receiptID)
			if err != nil {
				return "", "", err
			}
			return receipt.Status, receipt.Number, nil
		},
		func(tx Storage) error {
			return tx.UpdateReceiptStatus(ctx, receiptID, StatusCancelled, m.now())
		})
}

// CreateIssue creates an issue document in draft status
// 払出伝票を下書きとして作成
func (m *Manager) CreateIssue(ctx context.Context, issue *Issue) error {
	if err := ValidateIssue(issue); err != nil {
		return err
	}

	for _, item := range issue.Items {
		if err := m.validateLine(ctx, item.ComponentID, item.LocationID); err != nil {
			return err
		}
	}

	now := m.now()
	issue.Status = StatusDraft
	issue.CreatedAt = now
	issue.UpdatedAt = now

	err := m.storage.InTransaction(ctx, func(tx Storage) error {
		if err := tx.CreateIssue(ctx, issue); err != nil {
			return NewStorageError("create_issue", "払出伝票作成に失敗しました", err)
		}
		return m.auditDocument(ctx, tx, ActionCreate, "issue", issue.ID,
			fmt.Sprintf("払出伝票 %s を作成しました", issue.Number), issue.CreatedBy,
			&ChangeSet{Entity: "issue", Fields: map[string]string{
				"number":     issue.Number,
				"status":     string(StatusDraft),
				"department": issue.Department,
				"lines":      fmt.Sprintf("%d", len(issue.Items)),
			}})
	})
	if err != nil {
		return err
	}

	m.logger.Info("払出伝票作成完了",
		zap.Int64("issue_id", issue.ID),
		zap.String("number", issue.Number),
		zap.Int("lines", len(issue.Items)),
	)
	return nil
}

// GetIssue gets an issue document with its lines
// 払出伝票を取得
func (m *Manager) GetIssue(ctx context.Context, issueID int64) (*Issue, error) {
	return m.storage.GetIssue(ctx, issueID)
}

// ListIssues lists issue documents, newest first
// 払出伝票の一覧を取得
func (m *Manager) ListIssues(ctx context.Context, offset, limit int) ([]Issue, error) {
	if limit <= 0 {
		limit = 50
	}
	return m.storage.ListIssues(ctx, offset, limit)
}

// ConfirmIssue applies all lines of a draft issue to stock and marks it
// confirmed. Insufficient stock on any line aborts the whole document and
// leaves every balance untouched.
// 払出伝票を確定し、全行を在庫から引き落とし
func (m *Manager) ConfirmIssue(ctx context.Context, issueID int64, performedBy string) error {
	var (
		issue   *Issue
		muts    []Mutation
		entries []*LedgerEntry
	)

	err := m.withRetry(ctx, func() error {
		muts = muts[:0]
		entries = entries[:0]
		return m.storage.InTransaction(ctx, func(tx Storage) error {
			var err error
			issue, err = tx.GetIssue(ctx, issueID)
			if err != nil {
				return err
			}
			if issue.Status != StatusDraft {
				return ErrDocumentProcessed
			}

			for _, item := range issue.Items {
				locationID, err := m.resolveLineLocation(ctx, tx, item.LocationID)
				if err != nil {
					return err
				}

				mut := Mutation{
					ComponentID: item.ComponentID,
					LocationID:  locationID,
					Delta:       -item.Quantity,
					Action:      ActionIssue,
					EntityType:  "issue",
					EntityID:    &issue.ID,
					Description: fmt.Sprintf("払出伝票 %s による出庫 (%s)", issue.Number, issue.Department),
					PerformedBy: performedBy,
				}
				entry, err := applyMutation(ctx, tx, mut)
				if err != nil {
					return err
				}
				muts = append(muts, mut)
				entries = append(entries, entry)
			}

			return tx.UpdateIssueStatus(ctx, issueID, StatusConfirmed, m.now())
		})
	})
	if err != nil {
		return err
	}

	for i := range muts {
		m.afterMutation(ctx, muts[i], entries[i])
	}
	m.publishConfirmed(ctx, "issue", issue.ID, issue.Number, len(issue.Items), performedBy)

	m.logger.Info("払出伝票確定完了",
		zap.Int64("issue_id", issueID),
		zap.String("number", issue.Number),
		zap.Int("lines", len(issue.Items)),
	)
	return nil
}

// CancelIssue cancels a draft issue without touching stock
// 下書きの払出伝票を取消
func (m *Manager) CancelIssue(ctx context.Context, issueID int64, performedBy string) error {
	return m.cancelDocument(ctx, "issue", issueID, performedBy,
		func(tx Storage) (DocumentStatus, string, error) {
			issue, err := tx.GetIssue(ctx, issueID)
			if err != nil {
				return "", "", err
			}
			return issue.Status, issue.Number, nil
		},
		func(tx Storage) error {
			return tx.UpdateIssueStatus(ctx, issueID, StatusCancelled, m.now())
		})
}

// CreateStocktake creates a stocktake document in draft status. Lines carry
// the counted quantities; book balances are captured at confirm time.
// 棚卸伝票を下書きとして作成（実数のみ保持、帳簿残高は確定時に取得）
func (m *Manager) CreateStocktake(ctx context.Context, stocktake *Stocktake) error {
	if err := ValidateStocktake(stocktake); err != nil {
		return err
	}

	for _, item := range stocktake.Items {
		if err := m.validateLine(ctx, item.ComponentID, item.LocationID); err != nil {
			return err
		}
	}

	now := m.now()
	stocktake.Status = StatusDraft
	stocktake.CreatedAt = now
	stocktake.UpdatedAt = now

	err := m.storage.InTransaction(ctx, func(tx Storage) error {
		if err := tx.CreateStocktake(ctx, stocktake); err != nil {
			return NewStorageError("create_stocktake", "棚卸伝票作成に失敗しました", err)
		}
		return m.auditDocument(ctx, tx, ActionCreate, "stocktake", stocktake.ID,
			fmt.Sprintf("棚卸伝票 %s を作成しました", stocktake.Number), stocktake.CreatedBy,
			&ChangeSet{Entity: "stocktake", Fields: map[string]string{
				"number": stocktake.Number,
				"status": string(StatusDraft),
				"lines":  fmt.Sprintf("%d", len(stocktake.Items)),
			}})
	})
	if err != nil {
		return err
	}

	m.logger.Info("棚卸伝票作成完了",
		zap.Int64("stocktake_id", stocktake.ID),
		zap.String("number", stocktake.Number),
		zap.Int("lines", len(stocktake.Items)),
	)
	return nil
}

// GetStocktake gets a stocktake document with its lines
// 棚卸伝票を取得
func (m *Manager) GetStocktake(ctx context.Context, stocktakeID int64) (*Stocktake, error) {
	return m.storage.GetStocktake(ctx, stocktakeID)
}

// ListStocktakes lists stocktake documents, newest first
// 棚卸伝票の一覧を取得
func (m *Manager) ListStocktakes(ctx context.Context, offset, limit int) ([]Stocktake, error) {
	if limit <= 0 {
		limit = 50
	}
	return m.storage.ListStocktakes(ctx, offset, limit)
}

// ConfirmStocktake captures book balances under lock, records expected,
// actual and discrepancy on every line, and corrects stock only where the
// discrepancy is non zero. Lines with zero discrepancy produce no ledger
// entry but keep their recorded result.
// 棚卸伝票を確定し、差異分のみ在庫を補正
func (m *Manager) ConfirmStocktake(ctx context.Context, stocktakeID int64, performedBy string) error {
	var (
		stocktake *Stocktake
		muts      []Mutation
		entries   []*LedgerEntry
	)

	err := m.withRetry(ctx, func() error {
		muts = muts[:0]
		entries = entries[:0]
		return m.storage.InTransaction(ctx, func(tx Storage) error {
			var err error
			stocktake, err = tx.GetStocktake(ctx, stocktakeID)
			if err != nil {
				return err
			}
			if stocktake.Status != StatusDraft {
				return ErrDocumentProcessed
			}

			for i := range stocktake.Items {
				item := &stocktake.Items[i]
				locationID, err := m.resolveLineLocation(ctx, tx, item.LocationID)
				if err != nil {
					return err
				}

				// 帳簿残高をロック下で取得（未登録は残高0）
				expected := int64(0)
				stock, err := tx.GetStockForUpdate(ctx, item.ComponentID, locationID)
				if err != nil && err != ErrStockNotFound {
					return NewStorageError("get_stock_for_update", "在庫取得に失敗しました", err)
				}
				if stock != nil {
					expected = stock.Quantity
				}

				item.ExpectedQuantity = expected
				item.Discrepancy = item.ActualQuantity - expected
				if err := tx.UpdateStocktakeItem(ctx, item); err != nil {
					return NewStorageError("update_stocktake_item", "棚卸行の更新に失敗しました", err)
				}

				// 差異なしの行は在庫・台帳に触れない
				if item.Discrepancy == 0 {
					continue
				}

				mut := Mutation{
					ComponentID: item.ComponentID,
					LocationID:  locationID,
					Delta:       item.Discrepancy,
					Action:      ActionStocktake,
					EntityType:  "stocktake",
					EntityID:    &stocktake.ID,
					Description: fmt.Sprintf("棚卸伝票 %s による補正 (帳簿: %d, 実数: %d)",
						stocktake.Number, expected, item.ActualQuantity),
					PerformedBy: performedBy,
				}
				entry, err := applyMutation(ctx, tx, mut)
				if err != nil {
					return err
				}
				muts = append(muts, mut)
				entries = append(entries, entry)
			}

			return tx.UpdateStocktakeStatus(ctx, stocktakeID, StatusConfirmed, m.now())
		})
	})
	if err != nil {
		return err
	}

	for i := range muts {
		m.afterMutation(ctx, muts[i], entries[i])
	}
	m.publishConfirmed(ctx, "stocktake", stocktake.ID, stocktake.Number, len(stocktake.Items), performedBy)

	m.logger.Info("棚卸伝票確定完了",
		zap.Int64("stocktake_id", stocktakeID),
		zap.String("number", stocktake.Number),
		zap.Int("lines", len(stocktake.Items)),
		zap.Int("corrections", len(muts)),
	)
	return nil
}

// CancelStocktake cancels a draft stocktake without touching stock
// 下書きの棚卸伝票を取消
func (m *Manager) CancelStocktake(ctx context.Context, stocktakeID int64, performedBy string) error {
	return m.cancelDocument(ctx, "stocktake", stocktakeID, performedBy,
		func(tx Storage) (DocumentStatus, string, error) {
			stocktake, err := tx.GetStocktake(ctx, stocktakeID)
			if err != nil {
				return "", "", err
			}
			return stocktake.Status, stocktake.Number, nil
		},
		func(tx Storage) error {
			return tx.UpdateStocktakeStatus(ctx, stocktakeID, StatusCancelled, m.now())
		})
}

// ヘルパーメソッド

// validateLine validates the component and optional location of a document line
// 伝票行の部品と任意ロケーションを確認
func (m *Manager) validateLine(ctx context.Context, componentID int64, locationID *int64) error {
	if _, err := m.storage.GetComponent(ctx, componentID); err != nil {
		if err == ErrComponentNotFound {
			return ErrComponentNotFound
		}
		return NewStorageError("get_component", "部品取得に失敗しました", err)
	}
	if locationID != nil {
		if _, err := m.storage.GetLocation(ctx, *locationID); err != nil {
			if err == ErrLocationNotFound {
				return ErrLocationNotFound
			}
			return NewStorageError("get_location", "ロケーション取得に失敗しました", err)
		}
	}
	return nil
}

// cancelDocument performs the shared draft-only cancel transition
// 下書き限定の取消遷移を共通処理
func (m *Manager) cancelDocument(ctx context.Context, docType string, docID int64, performedBy string,
	load func(tx Storage) (DocumentStatus, string, error),
	update func(tx Storage) error) error {

	var number string
	err := m.storage.InTransaction(ctx, func(tx Storage) error {
		status, n, err := load(tx)
		if err != nil {
			return err
		}
		number = n
		if status != StatusDraft {
			return ErrDocumentProcessed
		}
		if err := update(tx); err != nil {
			return err
		}
		return m.auditDocument(ctx, tx, ActionUpdate, docType, docID,
			fmt.Sprintf("伝票 %s を取消しました", number), performedBy,
			&ChangeSet{Entity: docType, Fields: map[string]string{
				"status": string(StatusCancelled),
			}})
	})
	if err != nil {
		return err
	}

	m.logger.Info("伝票取消完了",
		zap.String("document_type", docType),
		zap.Int64("document_id", docID),
		zap.String("number", number),
	)
	return nil
}

// auditDocument appends a non-quantity ledger entry for a document event
// 伝票イベントの台帳エントリを追記（数量変更なし）
func (m *Manager) auditDocument(ctx context.Context, tx Storage, action ActionType, entityType string, entityID int64, description, performedBy string, payload *ChangeSet) error {
	entry := &LedgerEntry{
		ID:          NewEntryID(),
		Action:      action,
		EntityType:  entityType,
		EntityID:    &entityID,
		Description: description,
		Payload:     payload,
		PerformedBy: performedBy,
		CreatedAt:   time.Now(),
	}
	if err := tx.CreateLedgerEntry(ctx, entry); err != nil {
		return NewStorageError("create_ledger_entry", "台帳追記に失敗しました", err)
	}
	return nil
}

// publishConfirmed fires the document confirmed event
// 伝票確定イベントを発行
func (m *Manager) publishConfirmed(ctx context.Context, docType string, docID int64, number string, lines int, performedBy string) {
	if m.publisher == nil {
		return
	}
	event := DocumentConfirmedEvent{
		DocumentType: docType,
		DocumentID:   docID,
		Number:       number,
		LineCount:    lines,
		Timestamp:    time.Now(),
		PerformedBy:  performedBy,
	}
	if err := m.publisher.PublishDocumentConfirmed(ctx, event); err != nil {
		m.logger.Error("伝票確定イベント発行に失敗しました", zap.Error(err))
	}
}
