package service

import (
	"math"

	"github.com/Mythsoul/Eshop/internal/domain"
	"github.com/Mythsoul/Eshop/internal/dto"
	"github.com/Mythsoul/Eshop/pkg/errs"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CartLine is a requested line bound to the authoritative product record.
type CartLine struct {
	Product  domain.Product
	Quantity int64
}

type CartValidation struct {
	Lines             []CartLine
	MissingProductIDs []string
	Shortages         []errs.StockShortage
}

// Err returns the classified failure, or nil when every line was accepted. Missing products
// take precedence over stock shortages.
func (v CartValidation) Err() error {
	if len(v.MissingProductIDs) > 0 {
		return &errs.MissingProductsError{ProductIDs: v.MissingProductIDs}
	}

	if len(v.Shortages) > 0 {
		return &errs.InsufficientStockError{Products: v.Shortages}
	}

	return nil
}

// canonicalProductID lowercases a well-formed ObjectID hex so it matches snapshot keys.
// Anything else is returned unchanged and will be reported missing.
func canonicalProductID(id string) string {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return id
	}

	return objectID.Hex()
}

// MergeOrderItems canonicalizes product ids and sums the quantities of repeated ones, keeping
// first-seen order. Quantities must already be positive; a sum past MaxInt64 is rejected.
func MergeOrderItems(items []dto.OrderItem) ([]dto.OrderItem, error) {
	merged := make([]dto.OrderItem, 0, len(items))
	index := make(map[string]int, len(items))

	for _, item := range items {
		item.ProductID = canonicalProductID(item.ProductID)

		if i, ok := index[item.ProductID]; ok {
			if merged[i].Quantity > math.MaxInt64-item.Quantity {
				return nil, errs.ErrInvalidQuantity
			}
			merged[i].Quantity += item.Quantity
			continue
		}

		index[item.ProductID] = len(merged)
		merged = append(merged, item)
	}

	return merged, nil
}

// ValidateCart checks merged items against the snapshot. Once a line is found missing, stock
// is no longer evaluated for the remaining lines.
func ValidateCart(items []dto.OrderItem, snapshot []domain.Product) (result CartValidation) {
	products := make(map[string]domain.Product, len(snapshot))
	for _, p := range snapshot {
		products[p.ID.Hex()] = p
	}

	for _, item := range items {
		product, ok := products[canonicalProductID(item.ProductID)]
		if !ok {
			result.MissingProductIDs = append(result.MissingProductIDs, item.ProductID)
			continue
		}

		if len(result.MissingProductIDs) > 0 {
			continue
		}

		if product.Stock < item.Quantity {
			result.Shortages = append(result.Shortages, errs.StockShortage{
				Name:      product.Name,
				Available: product.Stock,
				Requested: item.Quantity,
			})
			continue
		}

		result.Lines = append(result.Lines, CartLine{Product: product, Quantity: item.Quantity})
	}

	if len(result.MissingProductIDs) > 0 {
		result.Lines = nil
		result.Shortages = nil
	} else if len(result.Shortages) > 0 {
		result.Lines = nil
	}

	return result
}
