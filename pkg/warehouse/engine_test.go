package warehouse

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// TestApplyMutation_CreatesStockOnFirstReceipt は初回入庫での在庫行作成テスト
func TestApplyMutation_CreatesStockOnFirstReceipt(t *testing.T) {
	mockStorage := new(MockStorage)
	ctx := context.Background()

	mockStorage.On("GetStockForUpdate", ctx, int64(1), int64(2)).Return(nil, ErrStockNotFound)
	mockStorage.On("CreateStock", ctx, mock.AnythingOfType("*warehouse.Stock")).Return(nil)
	mockStorage.On("CreateLedgerEntry", ctx, mock.AnythingOfType("*warehouse.LedgerEntry")).Return(nil)

	entry, err := applyMutation(ctx, mockStorage, Mutation{
		ComponentID: 1,
		LocationID:  2,
		Delta:       5,
		Action:      ActionReceipt,
		EntityType:  "receipt",
		PerformedBy: "tester",
	})

	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, int64(0), *entry.QuantityBefore)
	assert.Equal(t, int64(5), *entry.QuantityAfter)
	assert.NotEmpty(t, entry.ID)
	mockStorage.AssertExpectations(t)
}

// TestApplyMutation_RejectsNegativeBalance は残高不足の拒否テスト
func TestApplyMutation_RejectsNegativeBalance(t *testing.T) {
	mockStorage := new(MockStorage)
	ctx := context.Background()

	stock := &Stock{ComponentID: 1, LocationID: 2, Quantity: 3, Version: 1}
	mockStorage.On("GetStockForUpdate", ctx, int64(1), int64(2)).Return(stock, nil)

	entry, err := applyMutation(ctx, mockStorage, Mutation{
		ComponentID: 1,
		LocationID:  2,
		Delta:       -5,
		Action:      ActionIssue,
		EntityType:  "issue",
		PerformedBy: "tester",
	})

	assert.Nil(t, entry)
	assert.ErrorIs(t, err, ErrInsufficientStock)

	var insufficientErr *InsufficientStockError
	require.ErrorAs(t, err, &insufficientErr)
	assert.Equal(t, int64(3), insufficientErr.Available)
	assert.Equal(t, int64(5), insufficientErr.Requested)

	// 在庫・台帳とも書き込みは発生しない
	mockStorage.AssertNotCalled(t, "UpdateStock", mock.Anything, mock.Anything)
	mockStorage.AssertNotCalled(t, "CreateLedgerEntry", mock.Anything, mock.Anything)
}

// TestApplyMutation_ZeroDelta は差分ゼロでも台帳に記録されるテスト
func TestApplyMutation_ZeroDelta(t *testing.T) {
	mockStorage := new(MockStorage)
	ctx := context.Background()

	stock := &Stock{ComponentID: 1, LocationID: 2, Quantity: 7, Version: 1}
	mockStorage.On("GetStockForUpdate", ctx, int64(1), int64(2)).Return(stock, nil)
	mockStorage.On("UpdateStock", ctx, mock.AnythingOfType("*warehouse.Stock")).Return(nil)
	mockStorage.On("CreateLedgerEntry", ctx, mock.AnythingOfType("*warehouse.LedgerEntry")).Return(nil)

	entry, err := applyMutation(ctx, mockStorage, Mutation{
		ComponentID: 1,
		LocationID:  2,
		Delta:       0,
		Action:      ActionAdjust,
		EntityType:  "stock",
		Description: "数量変更なしの補正",
		PerformedBy: "tester",
	})

	require.NoError(t, err)
	assert.Equal(t, int64(7), *entry.QuantityBefore)
	assert.Equal(t, int64(7), *entry.QuantityAfter)
	mockStorage.AssertExpectations(t)
}

// TestApplyMutation_InvalidIDs はID検証のテスト
func TestApplyMutation_InvalidIDs(t *testing.T) {
	mockStorage := new(MockStorage)
	ctx := context.Background()

	_, err := applyMutation(ctx, mockStorage, Mutation{ComponentID: 0, LocationID: 1, Delta: 1})
	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "component_id", validationErr.Field)

	_, err = applyMutation(ctx, mockStorage, Mutation{ComponentID: 1, LocationID: 0, Delta: 1})
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "location_id", validationErr.Field)

	mockStorage.AssertExpectations(t)
}

// TestApplyMutation_VersionIncrement は更新時の版数加算テスト
func TestApplyMutation_VersionIncrement(t *testing.T) {
	mockStorage := new(MockStorage)
	ctx := context.Background()

	stock := &Stock{ComponentID: 1, LocationID: 2, Quantity: 10, Version: 4}
	mockStorage.On("GetStockForUpdate", ctx, int64(1), int64(2)).Return(stock, nil)
	mockStorage.On("UpdateStock", ctx, mock.AnythingOfType("*warehouse.Stock")).Return(nil)
	mockStorage.On("CreateLedgerEntry", ctx, mock.AnythingOfType("*warehouse.LedgerEntry")).Return(nil)

	_, err := applyMutation(ctx, mockStorage, Mutation{
		ComponentID: 1,
		LocationID:  2,
		Delta:       5,
		Action:      ActionReceipt,
		EntityType:  "receipt",
		PerformedBy: "tester",
	})

	require.NoError(t, err)
	assert.Equal(t, int64(15), stock.Quantity)
	assert.Equal(t, int64(5), stock.Version)
	assert.Equal(t, int64(15), stock.Available)
	mockStorage.AssertExpectations(t)
}
