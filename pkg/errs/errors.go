package errs

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

const (
	ErrStatusInternalServer = http.StatusInternalServerError
	ErrStatusClient         = http.StatusBadRequest
	ErrStatusNotLoggedIn    = http.StatusUnauthorized
	ErrStatusNoPermission   = http.StatusForbidden
	ErrStatusNotFound       = http.StatusNotFound
	ErrStatusConflict       = http.StatusConflict
)

var (
	ErrInternalServer       = errors.New("Internal server error")
	ErrServiceUnavailable   = errors.New("Service unavailable")
	ErrClient               = errors.New("Bad request")
	ErrNotLoggedIn          = errors.New("Unauthorized")
	ErrForbidden            = errors.New("Unauthorized to update this order")
	ErrNotFound             = errors.New("Resource not found")
	ErrUserNotFound         = errors.New("User not found")
	ErrOrderNotFound        = errors.New("Order not found")
	ErrProductNotFound      = errors.New("Product not found")
	ErrProductIDRequired    = errors.New("Product ID is required")
	ErrInvalidPaymentMethod = errors.New("Invalid payment method")
	ErrEmptyCart            = errors.New("No items in cart")
	ErrInvalidQuantity      = errors.New("Invalid item quantity")
	ErrIncompleteAddress    = errors.New("Complete address details are required")
	ErrInvalidOrderStatus   = errors.New("Invalid order status")
	ErrOrderStatusRequired  = errors.New("Order ID and status are required")
	ErrStockConflict        = errors.New("Stock changed while placing the order")
	ErrPaymentFailed        = errors.New("Payment failed")
	ErrSellerNotFound       = errors.New("No seller found for product")
	ErrConflict             = errors.New("Conflicting record found")
)

var errorMap = map[error]int{
	ErrInternalServer:       ErrStatusInternalServer,
	ErrServiceUnavailable:   ErrStatusInternalServer,
	ErrClient:               ErrStatusClient,
	ErrNotLoggedIn:          ErrStatusNotLoggedIn,
	ErrForbidden:            ErrStatusNoPermission,
	ErrNotFound:             ErrStatusNotFound,
	ErrUserNotFound:         ErrStatusNotFound,
	ErrOrderNotFound:        ErrStatusNotFound,
	ErrProductNotFound:      ErrStatusNotFound,
	ErrProductIDRequired:    ErrStatusClient,
	ErrInvalidPaymentMethod: ErrStatusClient,
	ErrEmptyCart:            ErrStatusClient,
	ErrInvalidQuantity:      ErrStatusClient,
	ErrIncompleteAddress:    ErrStatusClient,
	ErrInvalidOrderStatus:   ErrStatusClient,
	ErrOrderStatusRequired:  ErrStatusClient,
	ErrPaymentFailed:        ErrStatusInternalServer,
	ErrSellerNotFound:       ErrStatusInternalServer,
	ErrConflict:             ErrStatusConflict,
}

// GetErrorStatusCode maps err to an HTTP status. Wrapped sentinels are matched; anything
// unknown is a 500.
func GetErrorStatusCode(err error) int {
	var missing *MissingProductsError
	if errors.As(err, &missing) {
		return ErrStatusNotFound
	}

	var insufficient *InsufficientStockError
	if errors.As(err, &insufficient) {
		return ErrStatusClient
	}

	if errStatusCode, ok := errorMap[err]; ok {
		return errStatusCode
	}

	for sentinel, errStatusCode := range errorMap {
		if errors.Is(err, sentinel) {
			return errStatusCode
		}
	}

	return errorMap[ErrInternalServer]
}

// Known reports whether err is, or wraps, one of the errors declared here.
func Known(err error) bool {
	var missing *MissingProductsError
	var insufficient *InsufficientStockError
	if errors.As(err, &missing) || errors.As(err, &insufficient) {
		return true
	}

	for sentinel := range errorMap {
		if errors.Is(err, sentinel) {
			return true
		}
	}

	return false
}

// MissingProductsError lists requested product ids that are no longer in the catalog.
type MissingProductsError struct {
	ProductIDs []string
}

func (e *MissingProductsError) Error() string {
	return "Your cart contains products that are no longer available. We've cleared your cart - please add available products and try again."
}

type StockShortage struct {
	Name      string `json:"name"`
	Available int64  `json:"available"`
	Requested int64  `json:"requested"`
}

// InsufficientStockError lists lines whose requested quantity exceeds available stock.
type InsufficientStockError struct {
	Products []StockShortage
}

func (e *InsufficientStockError) Error() string {
	return "Some products don't have enough stock available"
}

// Describe renders the shortages for logs.
func (e *InsufficientStockError) Describe() string {
	parts := make([]string, 0, len(e.Products))
	for _, p := range e.Products {
		parts = append(parts, fmt.Sprintf("%s (available %d, requested %d)", p.Name, p.Available, p.Requested))
	}

	return strings.Join(parts, ", ")
}
