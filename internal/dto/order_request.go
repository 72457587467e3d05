package dto

import "strings"

type AddressRequest struct {
	FullName    string `json:"fullName"`
	PhoneNumber string `json:"phoneNumber"`
	Zipcode     string `json:"zipcode"`
	Area        string `json:"area"`
	City        string `json:"city"`
	Province    string `json:"province"`
}

// Complete reports whether every address field carries a non-blank value.
func (a AddressRequest) Complete() bool {
	for _, v := range []string{a.FullName, a.PhoneNumber, a.Zipcode, a.Area, a.City, a.Province} {
		if strings.TrimSpace(v) == "" {
			return false
		}
	}

	return true
}

type OrderItem struct {
	ProductID string `json:"product"`
	Quantity  int64  `json:"quantity"`
}

type OrderRequest struct {
	UserID        string          `json:"-"`
	Address       *AddressRequest `json:"address"`
	Items         []OrderItem     `json:"items"`
	PaymentMethod string          `json:"paymentMethod"`
}

type OrderStatusRequest struct {
	SellerID string `json:"-"`
	OrderID  string `json:"orderId"`
	Status   string `json:"status"`
}
