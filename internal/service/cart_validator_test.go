package service

import (
	"math"
	"strings"
	"testing"

	"github.com/Mythsoul/Eshop/internal/domain"
	"github.com/Mythsoul/Eshop/internal/dto"
	"github.com/Mythsoul/Eshop/pkg/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func snapshotProduct(name string, stock int64) domain.Product {
	return domain.Product{ID: primitive.NewObjectID(), Name: name, Price: 100, Stock: stock}
}

func TestMergeOrderItems(t *testing.T) {
	merged, err := MergeOrderItems([]dto.OrderItem{
		{ProductID: "b", Quantity: 1},
		{ProductID: "a", Quantity: 2},
		{ProductID: "b", Quantity: 3},
	})

	require.NoError(t, err)
	assert.Equal(t, []dto.OrderItem{
		{ProductID: "b", Quantity: 4},
		{ProductID: "a", Quantity: 2},
	}, merged)
}

func TestMergeOrderItems_RejectsQuantityOverflow(t *testing.T) {
	id := primitive.NewObjectID().Hex()

	tests := []struct {
		name  string
		items []dto.OrderItem
	}{
		{
			name:  "two max quantities",
			items: []dto.OrderItem{{ProductID: id, Quantity: math.MaxInt64}, {ProductID: id, Quantity: math.MaxInt64}},
		},
		{
			name: "wraps then grows back",
			items: []dto.OrderItem{
				{ProductID: id, Quantity: math.MaxInt64},
				{ProductID: id, Quantity: math.MaxInt64},
				{ProductID: id, Quantity: 3},
			},
		},
		{
			name:  "one past max",
			items: []dto.OrderItem{{ProductID: id, Quantity: math.MaxInt64}, {ProductID: id, Quantity: 1}},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			merged, err := MergeOrderItems(tc.items)

			assert.ErrorIs(t, err, errs.ErrInvalidQuantity)
			assert.Nil(t, merged)
		})
	}

	merged, err := MergeOrderItems([]dto.OrderItem{{ProductID: id, Quantity: math.MaxInt64 - 1}, {ProductID: id, Quantity: 1}})
	require.NoError(t, err)
	assert.Equal(t, []dto.OrderItem{{ProductID: id, Quantity: math.MaxInt64}}, merged)
}

func TestMergeOrderItems_CanonicalizesProductIDs(t *testing.T) {
	id := primitive.NewObjectID().Hex()

	merged, err := MergeOrderItems([]dto.OrderItem{
		{ProductID: strings.ToUpper(id), Quantity: 1},
		{ProductID: id, Quantity: 2},
		{ProductID: "Not-An-ID", Quantity: 1},
	})

	require.NoError(t, err)
	assert.Equal(t, []dto.OrderItem{
		{ProductID: id, Quantity: 3},
		{ProductID: "Not-An-ID", Quantity: 1},
	}, merged)
}

func TestValidateCart_UppercaseIDMatchesSnapshot(t *testing.T) {
	a := snapshotProduct("A", 5)

	result := ValidateCart([]dto.OrderItem{{ProductID: strings.ToUpper(a.ID.Hex()), Quantity: 2}}, []domain.Product{a})

	require.NoError(t, result.Err())
	assert.Empty(t, result.MissingProductIDs)
	require.Len(t, result.Lines, 1)
	assert.Equal(t, a, result.Lines[0].Product)
}

func TestValidateCart_AcceptsAndBindsAuthoritativeRecords(t *testing.T) {
	a := snapshotProduct("A", 5)
	b := snapshotProduct("B", 1)

	result := ValidateCart([]dto.OrderItem{
		{ProductID: a.ID.Hex(), Quantity: 5},
		{ProductID: b.ID.Hex(), Quantity: 1},
	}, []domain.Product{b, a})

	require.NoError(t, result.Err())
	require.Len(t, result.Lines, 2)
	assert.Equal(t, a, result.Lines[0].Product)
	assert.Equal(t, int64(5), result.Lines[0].Quantity)
	assert.Equal(t, b, result.Lines[1].Product)
}

func TestValidateCart_Shortages(t *testing.T) {
	a := snapshotProduct("A", 5)
	b := snapshotProduct("B", 0)

	result := ValidateCart([]dto.OrderItem{
		{ProductID: a.ID.Hex(), Quantity: 6},
		{ProductID: b.ID.Hex(), Quantity: 1},
	}, []domain.Product{a, b})

	assert.Empty(t, result.Lines)
	assert.Equal(t, []errs.StockShortage{
		{Name: "A", Available: 5, Requested: 6},
		{Name: "B", Available: 0, Requested: 1},
	}, result.Shortages)

	var insufficient *errs.InsufficientStockError
	assert.ErrorAs(t, result.Err(), &insufficient)
}

func TestValidateCart_MissingWins(t *testing.T) {
	a := snapshotProduct("A", 1)
	ghost := primitive.NewObjectID().Hex()

	tests := []struct {
		name  string
		items []dto.OrderItem
	}{
		{name: "missing after shortage", items: []dto.OrderItem{{ProductID: a.ID.Hex(), Quantity: 9}, {ProductID: ghost, Quantity: 1}}},
		{name: "missing before shortage", items: []dto.OrderItem{{ProductID: ghost, Quantity: 1}, {ProductID: a.ID.Hex(), Quantity: 9}}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			result := ValidateCart(tc.items, []domain.Product{a})

			assert.Equal(t, []string{ghost}, result.MissingProductIDs)
			assert.Empty(t, result.Shortages)
			assert.Empty(t, result.Lines)

			var missing *errs.MissingProductsError
			require.ErrorAs(t, result.Err(), &missing)
			assert.Equal(t, []string{ghost}, missing.ProductIDs)
		})
	}
}

func TestValidateCart_EmptySnapshot(t *testing.T) {
	result := ValidateCart([]dto.OrderItem{{ProductID: "x", Quantity: 1}, {ProductID: "y", Quantity: 1}}, nil)

	assert.Equal(t, []string{"x", "y"}, result.MissingProductIDs)
}
