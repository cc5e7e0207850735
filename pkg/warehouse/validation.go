package warehouse

import (
	"fmt"
	"regexp"
	"strings"
)

// ValidatePartNumber 型番の形式をバリデーション
func ValidatePartNumber(partNumber string) error {
	if partNumber == "" {
		return NewValidationError("part_number", "型番が空です", partNumber)
	}
	if len(partNumber) > 255 {
		return NewValidationError("part_number", "型番が長すぎます", partNumber)
	}
	// 英数字、ハイフン、アンダースコア、ドット、スラッシュのみ許可
	validPattern := regexp.MustCompile(`^[a-zA-Z0-9_./-]+$`)
	if !validPattern.MatchString(partNumber) {
		return NewValidationError("part_number", "型番に無効な文字が含まれています", partNumber)
	}
	return nil
}

// ValidateComponentName 部品名をバリデーション
func ValidateComponentName(name string) error {
	if strings.TrimSpace(name) == "" {
		return NewValidationError("name", "部品名が空です", name)
	}
	if len(name) > 500 {
		return NewValidationError("name", "部品名が長すぎます", name)
	}
	return nil
}

// ValidateLocationCode ロケーションコードの形式をバリデーション
func ValidateLocationCode(code string) error {
	if code == "" {
		return NewValidationError("code", "ロケーションコードが空です", code)
	}
	if len(code) > 255 {
		return NewValidationError("code", "ロケーションコードが長すぎます", code)
	}
	// 英数字、ハイフン、アンダースコアのみ許可
	validPattern := regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
	if !validPattern.MatchString(code) {
		return NewValidationError("code", "ロケーションコードに無効な文字が含まれています", code)
	}
	return nil
}

// ValidateLineQuantity 伝票行の数量をバリデーション
func ValidateLineQuantity(quantity int64) error {
	if quantity <= 0 {
		return NewValidationError("quantity", "数量は正の値である必要があります", fmt.Sprintf("%d", quantity))
	}
	if quantity > 999999999 {
		return NewValidationError("quantity", "数量が有効範囲を超えています", fmt.Sprintf("%d", quantity))
	}
	return nil
}

// ValidateActualQuantity 棚卸実数をバリデーション
func ValidateActualQuantity(quantity int64) error {
	if quantity < 0 {
		return NewValidationError("actual_quantity", "実数は0以上である必要があります", fmt.Sprintf("%d", quantity))
	}
	if quantity > 999999999 {
		return NewValidationError("actual_quantity", "実数が有効範囲を超えています", fmt.Sprintf("%d", quantity))
	}
	return nil
}

// ValidateDocumentNumber 伝票番号の形式をバリデーション
func ValidateDocumentNumber(number string) error {
	if number == "" {
		return NewValidationError("number", "伝票番号が空です", number)
	}
	if len(number) > 100 {
		return NewValidationError("number", "伝票番号が長すぎます", number)
	}
	return nil
}

// ValidateMinStock 最小在庫をバリデーション
func ValidateMinStock(minStock int64) error {
	if minStock < 0 {
		return NewValidationError("min_stock", "最小在庫は0以上である必要があります", fmt.Sprintf("%d", minStock))
	}
	return nil
}

// ValidateUnit 単位をバリデーション
func ValidateUnit(unit string) error {
	if unit == "" {
		return NewValidationError("unit", "単位が空です", unit)
	}
	if len(unit) > 20 {
		return NewValidationError("unit", "単位が長すぎます", unit)
	}
	return nil
}

// ValidateComponent 部品全体をバリデーション
func ValidateComponent(component *Component) error {
	if component == nil {
		return NewValidationError("component", "部品が指定されていません", "nil")
	}

	if err := ValidatePartNumber(component.PartNumber); err != nil {
		return err
	}
	if err := ValidateComponentName(component.Name); err != nil {
		return err
	}
	if err := ValidateUnit(component.Unit); err != nil {
		return err
	}
	if err := ValidateMinStock(component.MinStock); err != nil {
		return err
	}
	if component.PriceRub.Valid && component.PriceRub.Decimal.IsNegative() {
		return NewValidationError("price_rub", "単価は0以上である必要があります", component.PriceRub.Decimal.String())
	}

	return nil
}

// ValidateLocation 保管ロケーション全体をバリデーション
func ValidateLocation(location *StorageLocation) error {
	if location == nil {
		return NewValidationError("location", "ロケーションが指定されていません", "nil")
	}

	if err := ValidateLocationCode(location.Code); err != nil {
		return err
	}
	if location.Shelf < 0 {
		return NewValidationError("shelf", "棚番号は0以上である必要があります", fmt.Sprintf("%d", location.Shelf))
	}
	if location.Cell < 0 {
		return NewValidationError("cell", "セル番号は0以上である必要があります", fmt.Sprintf("%d", location.Cell))
	}

	return nil
}

// ValidateReceipt 受入伝票全体をバリデーション
func ValidateReceipt(receipt *Receipt) error {
	if receipt == nil {
		return NewValidationError("receipt", "受入伝票が指定されていません", "nil")
	}

	if err := ValidateDocumentNumber(receipt.Number); err != nil {
		return err
	}
	if len(receipt.Items) == 0 {
		return NewValidationError("items", "伝票行が1行もありません", "")
	}
	for i, item := range receipt.Items {
		if err := ValidateLineQuantity(item.Quantity); err != nil {
			return NewValidationError(fmt.Sprintf("items[%d].quantity", i), "数量は正の値である必要があります", fmt.Sprintf("%d", item.Quantity))
		}
		if item.PriceRub.Valid && item.PriceRub.Decimal.IsNegative() {
			return NewValidationError(fmt.Sprintf("items[%d].price_rub", i), "単価は0以上である必要があります", item.PriceRub.Decimal.String())
		}
	}

	return nil
}

// ValidateIssue 払出伝票全体をバリデーション
func ValidateIssue(issue *Issue) error {
	if issue == nil {
		return NewValidationError("issue", "払出伝票が指定されていません", "nil")
	}

	if err := ValidateDocumentNumber(issue.Number); err != nil {
		return err
	}
	if strings.TrimSpace(issue.Department) == "" {
		return NewValidationError("department", "払出先部門が空です", issue.Department)
	}
	if len(issue.Items) == 0 {
		return NewValidationError("items", "伝票行が1行もありません", "")
	}
	for i, item := range issue.Items {
		if err := ValidateLineQuantity(item.Quantity); err != nil {
			return NewValidationError(fmt.Sprintf("items[%d].quantity", i), "数量は正の値である必要があります", fmt.Sprintf("%d", item.Quantity))
		}
	}

	return nil
}

// ValidateStocktake 棚卸伝票全体をバリデーション
func ValidateStocktake(stocktake *Stocktake) error {
	if stocktake == nil {
		return NewValidationError("stocktake", "棚卸伝票が指定されていません", "nil")
	}

	if err := ValidateDocumentNumber(stocktake.Number); err != nil {
		return err
	}
	if len(stocktake.Items) == 0 {
		return NewValidationError("items", "伝票行が1行もありません", "")
	}
	for i, item := range stocktake.Items {
		if err := ValidateActualQuantity(item.ActualQuantity); err != nil {
			return NewValidationError(fmt.Sprintf("items[%d].actual_quantity", i), "実数は0以上である必要があります", fmt.Sprintf("%d", item.ActualQuantity))
		}
	}

	return nil
}

// ValidateAction アクション種別をバリデーション
func ValidateAction(action ActionType) error {
	validActions := map[ActionType]bool{
		ActionCreate:    true,
		ActionUpdate:    true,
		ActionDelete:    true,
		ActionReceipt:   true,
		ActionIssue:     true,
		ActionAdjust:    true,
		ActionStocktake: true,
	}

	if !validActions[action] {
		return NewValidationError("action", "無効なアクション種別です", string(action))
	}
	return nil
}
