package warehouse

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// マスタデータ管理: 部品・カテゴリ・メーカー・仕入先・保管ロケーション。
// 作成・更新・削除はすべて監査台帳に記録される。

// CreateComponent creates a component and audits the creation
// 部品を作成し、台帳に記録
func (m *Manager) CreateComponent(ctx context.Context, component *Component, performedBy string) error {
	if err := ValidateComponent(component); err != nil {
		return err
	}

	if component.CategoryID != nil {
		if _, err := m.storage.GetCategory(ctx, *component.CategoryID); err != nil {
			if err == ErrCategoryNotFound {
				return ErrCategoryNotFound
			}
			return NewStorageError("get_category", "カテゴリ取得に失敗しました", err)
		}
	}

	component.IsActive = true
	now := m.now()
	component.CreatedAt = now
	component.UpdatedAt = now

	err := m.storage.InTransaction(ctx, func(tx Storage) error {
		if err := tx.CreateComponent(ctx, component); err != nil {
			return err
		}
		return m.auditDocument(ctx, tx, ActionCreate, "component", component.ID,
			fmt.Sprintf("部品 %s を登録しました", component.PartNumber), performedBy,
			&ChangeSet{Entity: "component", Fields: map[string]string{
				"part_number": component.PartNumber,
				"name":        component.Name,
				"unit":        component.Unit,
			}})
	})
	if err != nil {
		return err
	}

	m.logger.Info("部品登録完了",
		zap.Int64("component_id", component.ID),
		zap.String("part_number", component.PartNumber),
	)
	return nil
}

// GetComponent gets a component by ID
// 部品を取得
func (m *Manager) GetComponent(ctx context.Context, componentID int64) (*Component, error) {
	return m.storage.GetComponent(ctx, componentID)
}

// UpdateComponent updates a component and audits the changed fields
// 部品を更新し、変更内容を台帳に記録
func (m *Manager) UpdateComponent(ctx context.Context, component *Component, performedBy string) error {
	if err := ValidateComponent(component); err != nil {
		return err
	}

	current, err := m.storage.GetComponent(ctx, component.ID)
	if err != nil {
		if err == ErrComponentNotFound {
			return ErrComponentNotFound
		}
		return NewStorageError("get_component", "部品取得に失敗しました", err)
	}

	changes := componentChanges(current, component)
	component.CreatedAt = current.CreatedAt
	component.UpdatedAt = m.now()

	err = m.storage.InTransaction(ctx, func(tx Storage) error {
		if err := tx.UpdateComponent(ctx, component); err != nil {
			return err
		}
		return m.auditDocument(ctx, tx, ActionUpdate, "component", component.ID,
			fmt.Sprintf("部品 %s を更新しました", component.PartNumber), performedBy,
			&ChangeSet{Entity: "component", Fields: changes})
	})
	if err != nil {
		return err
	}

	m.logger.Info("部品更新完了",
		zap.Int64("component_id", component.ID),
		zap.String("part_number", component.PartNumber),
		zap.Int("changed_fields", len(changes)),
	)
	return nil
}

// DeleteComponent deactivates a component. Rows are kept so the ledger and
// documents stay resolvable.
// 部品を無効化（台帳参照を保つため物理削除はしない）
func (m *Manager) DeleteComponent(ctx context.Context, componentID int64, performedBy string) error {
	component, err := m.storage.GetComponent(ctx, componentID)
	if err != nil {
		if err == ErrComponentNotFound {
			return ErrComponentNotFound
		}
		return NewStorageError("get_component", "部品取得に失敗しました", err)
	}

	component.IsActive = false
	component.UpdatedAt = m.now()

	err = m.storage.InTransaction(ctx, func(tx Storage) error {
		if err := tx.UpdateComponent(ctx, component); err != nil {
			return err
		}
		return m.auditDocument(ctx, tx, ActionDelete, "component", componentID,
			fmt.Sprintf("部品 %s を無効化しました", component.PartNumber), performedBy,
			&ChangeSet{Entity: "component", Fields: map[string]string{
				"is_active": "false",
			}})
	})
	if err != nil {
		return err
	}

	m.logger.Info("部品無効化完了",
		zap.Int64("component_id", componentID),
		zap.String("part_number", component.PartNumber),
	)
	return nil
}

// ListComponents lists components matching the filter
// フィルタに一致する部品の一覧を取得
func (m *Manager) ListComponents(ctx context.Context, filter ComponentFilter, offset, limit int) ([]Component, error) {
	if limit <= 0 {
		limit = 50
	}
	return m.storage.ListComponents(ctx, filter, offset, limit)
}

// CreateCategory creates a component category
// カテゴリを作成
func (m *Manager) CreateCategory(ctx context.Context, category *ComponentCategory, performedBy string) error {
	if category.Name == "" {
		return NewValidationError("name", "カテゴリ名が指定されていません", "")
	}
	category.CreatedAt = m.now()

	err := m.storage.InTransaction(ctx, func(tx Storage) error {
		if err := tx.CreateCategory(ctx, category); err != nil {
			return err
		}
		return m.auditDocument(ctx, tx, ActionCreate, "category", category.ID,
			fmt.Sprintf("カテゴリ %s を登録しました", category.Name), performedBy,
			&ChangeSet{Entity: "category", Fields: map[string]string{
				"name": category.Name,
				"code": category.Code,
			}})
	})
	if err != nil {
		return err
	}

	m.logger.Info("カテゴリ登録完了", zap.Int64("category_id", category.ID), zap.String("name", category.Name))
	return nil
}

// DeleteCategory removes a category. Categories referenced by components
// cannot be removed; the suppliers' soft-delete model does not apply here
// because nothing historical points at an unused category.
// カテゴリを削除（部品から参照されている場合は拒否）
func (m *Manager) DeleteCategory(ctx context.Context, categoryID int64, performedBy string) error {
	category, err := m.storage.GetCategory(ctx, categoryID)
	if err != nil {
		if err == ErrCategoryNotFound {
			return ErrCategoryNotFound
		}
		return NewStorageError("get_category", "カテゴリ取得に失敗しました", err)
	}

	err = m.storage.InTransaction(ctx, func(tx Storage) error {
		if err := tx.DeleteCategory(ctx, categoryID); err != nil {
			return err
		}
		return m.auditDocument(ctx, tx, ActionDelete, "category", categoryID,
			fmt.Sprintf("カテゴリ %s を削除しました", category.Name), performedBy,
			&ChangeSet{Entity: "category", Fields: map[string]string{
				"name": category.Name,
			}})
	})
	if err != nil {
		return err
	}

	m.logger.Info("カテゴリ削除完了", zap.Int64("category_id", categoryID), zap.String("name", category.Name))
	return nil
}

// ListCategories lists all categories
// カテゴリの一覧を取得
func (m *Manager) ListCategories(ctx context.Context) ([]ComponentCategory, error) {
	return m.storage.ListCategories(ctx)
}

// CreateManufacturer creates a manufacturer
// メーカーを作成
func (m *Manager) CreateManufacturer(ctx context.Context, manufacturer *Manufacturer, performedBy string) error {
	if manufacturer.Name == "" {
		return NewValidationError("name", "メーカー名が指定されていません", "")
	}
	manufacturer.CreatedAt = m.now()

	err := m.storage.InTransaction(ctx, func(tx Storage) error {
		if err := tx.CreateManufacturer(ctx, manufacturer); err != nil {
			return err
		}
		return m.auditDocument(ctx, tx, ActionCreate, "manufacturer", manufacturer.ID,
			fmt.Sprintf("メーカー %s を登録しました", manufacturer.Name), performedBy,
			&ChangeSet{Entity: "manufacturer", Fields: map[string]string{
				"name":    manufacturer.Name,
				"country": manufacturer.Country,
			}})
	})
	if err != nil {
		return err
	}

	m.logger.Info("メーカー登録完了", zap.Int64("manufacturer_id", manufacturer.ID), zap.String("name", manufacturer.Name))
	return nil
}

// ListManufacturers lists all manufacturers
// メーカーの一覧を取得
func (m *Manager) ListManufacturers(ctx context.Context) ([]Manufacturer, error) {
	return m.storage.ListManufacturers(ctx)
}

// CreateSupplier creates a supplier
// 仕入先を作成
func (m *Manager) CreateSupplier(ctx context.Context, supplier *Supplier, performedBy string) error {
	if supplier.Name == "" {
		return NewValidationError("name", "仕入先名が指定されていません", "")
	}
	supplier.IsActive = true
	supplier.CreatedAt = m.now()

	err := m.storage.InTransaction(ctx, func(tx Storage) error {
		if err := tx.CreateSupplier(ctx, supplier); err != nil {
			return err
		}
		return m.auditDocument(ctx, tx, ActionCreate, "supplier", supplier.ID,
			fmt.Sprintf("仕入先 %s を登録しました", supplier.Name), performedBy,
			&ChangeSet{Entity: "supplier", Fields: map[string]string{
				"name": supplier.Name,
				"inn":  supplier.INN,
			}})
	})
	if err != nil {
		return err
	}

	m.logger.Info("仕入先登録完了", zap.Int64("supplier_id", supplier.ID), zap.String("name", supplier.Name))
	return nil
}

// GetSupplier gets a supplier by ID
// 仕入先を取得
func (m *Manager) GetSupplier(ctx context.Context, supplierID int64) (*Supplier, error) {
	return m.storage.GetSupplier(ctx, supplierID)
}

// UpdateSupplier updates a supplier and audits the changed fields
// 仕入先を更新し、変更内容を台帳に記録
func (m *Manager) UpdateSupplier(ctx context.Context, supplier *Supplier, performedBy string) error {
	if supplier.Name == "" {
		return NewValidationError("name", "仕入先名が指定されていません", "")
	}

	current, err := m.storage.GetSupplier(ctx, supplier.ID)
	if err != nil {
		if err == ErrSupplierNotFound {
			return ErrSupplierNotFound
		}
		return NewStorageError("get_supplier", "仕入先取得に失敗しました", err)
	}

	changes := supplierChanges(current, supplier)
	supplier.CreatedAt = current.CreatedAt

	err = m.storage.InTransaction(ctx, func(tx Storage) error {
		if err := tx.UpdateSupplier(ctx, supplier); err != nil {
			return err
		}
		return m.auditDocument(ctx, tx, ActionUpdate, "supplier", supplier.ID,
			fmt.Sprintf("仕入先 %s を更新しました", supplier.Name), performedBy,
			&ChangeSet{Entity: "supplier", Fields: changes})
	})
	if err != nil {
		return err
	}

	m.logger.Info("仕入先更新完了",
		zap.Int64("supplier_id", supplier.ID),
		zap.String("name", supplier.Name),
		zap.Int("changed_fields", len(changes)),
	)
	return nil
}

// DeleteSupplier deactivates a supplier. Rows are kept so past receipts stay
// resolvable.
// 仕入先を無効化（受入伝票の参照を保つため物理削除はしない）
func (m *Manager) DeleteSupplier(ctx context.Context, supplierID int64, performedBy string) error {
	supplier, err := m.storage.GetSupplier(ctx, supplierID)
	if err != nil {
		if err == ErrSupplierNotFound {
			return ErrSupplierNotFound
		}
		return NewStorageError("get_supplier", "仕入先取得に失敗しました", err)
	}

	supplier.IsActive = false

	err = m.storage.InTransaction(ctx, func(tx Storage) error {
		if err := tx.UpdateSupplier(ctx, supplier); err != nil {
			return err
		}
		return m.auditDocument(ctx, tx, ActionDelete, "supplier", supplierID,
			fmt.Sprintf("仕入先 %s を無効化しました", supplier.Name), performedBy,
			&ChangeSet{Entity: "supplier", Fields: map[string]string{
				"is_active": "false",
			}})
	})
	if err != nil {
		return err
	}

	m.logger.Info("仕入先無効化完了", zap.Int64("supplier_id", supplierID), zap.String("name", supplier.Name))
	return nil
}

// ListSuppliers lists all suppliers
// 仕入先の一覧を取得
func (m *Manager) ListSuppliers(ctx context.Context) ([]Supplier, error) {
	return m.storage.ListSuppliers(ctx)
}

// CreateLocation creates a storage location
// 保管ロケーションを作成
func (m *Manager) CreateLocation(ctx context.Context, location *StorageLocation, performedBy string) error {
	if err := ValidateLocation(location); err != nil {
		return err
	}
	location.IsActive = true
	location.CreatedAt = m.now()

	err := m.storage.InTransaction(ctx, func(tx Storage) error {
		if err := tx.CreateLocation(ctx, location); err != nil {
			return err
		}
		return m.auditDocument(ctx, tx, ActionCreate, "location", location.ID,
			fmt.Sprintf("保管ロケーション %s を登録しました", location.Code), performedBy,
			&ChangeSet{Entity: "location", Fields: map[string]string{
				"code": location.Code,
				"rack": location.Rack,
			}})
	})
	if err != nil {
		return err
	}

	m.logger.Info("保管ロケーション登録完了", zap.Int64("location_id", location.ID), zap.String("code", location.Code))
	return nil
}

// GetLocation gets a storage location by ID
// 保管ロケーションを取得
func (m *Manager) GetLocation(ctx context.Context, locationID int64) (*StorageLocation, error) {
	return m.storage.GetLocation(ctx, locationID)
}

// ListLocations lists all storage locations
// 保管ロケーションの一覧を取得
func (m *Manager) ListLocations(ctx context.Context) ([]StorageLocation, error) {
	return m.storage.ListLocations(ctx)
}

// supplierChanges collects changed fields between two supplier versions
// 仕入先の変更フィールドを収集
func supplierChanges(old, new *Supplier) map[string]string {
	changes := make(map[string]string)
	if old.Name != new.Name {
		changes["name"] = new.Name
	}
	if old.ContactName != new.ContactName {
		changes["contact_name"] = new.ContactName
	}
	if old.Phone != new.Phone {
		changes["phone"] = new.Phone
	}
	if old.Email != new.Email {
		changes["email"] = new.Email
	}
	if old.Address != new.Address {
		changes["address"] = new.Address
	}
	if old.INN != new.INN {
		changes["inn"] = new.INN
	}
	if old.IsActive != new.IsActive {
		changes["is_active"] = fmt.Sprintf("%t", new.IsActive)
	}
	return changes
}

// componentChanges collects changed fields between two component versions
// 部品の変更フィールドを収集
func componentChanges(old, new *Component) map[string]string {
	changes := make(map[string]string)
	if old.Name != new.Name {
		changes["name"] = new.Name
	}
	if old.PartNumber != new.PartNumber {
		changes["part_number"] = new.PartNumber
	}
	if old.Unit != new.Unit {
		changes["unit"] = new.Unit
	}
	if old.Package != new.Package {
		changes["package"] = new.Package
	}
	if old.MinStock != new.MinStock {
		changes["min_stock"] = fmt.Sprintf("%d", new.MinStock)
	}
	if old.PriceRub.Valid != new.PriceRub.Valid ||
		(new.PriceRub.Valid && !old.PriceRub.Decimal.Equal(new.PriceRub.Decimal)) {
		if new.PriceRub.Valid {
			changes["price_rub"] = new.PriceRub.Decimal.String()
		} else {
			changes["price_rub"] = ""
		}
	}
	if old.Description != new.Description {
		changes["description"] = new.Description
	}
	if old.DatasheetURL != new.DatasheetURL {
		changes["datasheet_url"] = new.DatasheetURL
	}
	if old.IsActive != new.IsActive {
		changes["is_active"] = fmt.Sprintf("%t", new.IsActive)
	}
	return changes
}
