package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type OrderStatus string

const (
	OrderStatusPendingPayment OrderStatus = "Pending Payment"
	OrderStatusPlaced         OrderStatus = "Order Placed"
	OrderStatusConfirmed      OrderStatus = "Confirmed"
	OrderStatusProcessing     OrderStatus = "Processing"
	OrderStatusShipped        OrderStatus = "Shipped"
	OrderStatusDelivered      OrderStatus = "Delivered"
	OrderStatusCancelled      OrderStatus = "Cancelled"
)

// fulfillmentStatuses are the values the fulfillment workflow may move an order to.
var fulfillmentStatuses = map[OrderStatus]struct{}{
	OrderStatusPlaced:     {},
	OrderStatusConfirmed:  {},
	OrderStatusProcessing: {},
	OrderStatusShipped:    {},
	OrderStatusDelivered:  {},
	OrderStatusCancelled:  {},
}

// ParseFulfillmentStatus accepts only statuses a seller may set.
func ParseFulfillmentStatus(raw string) (OrderStatus, bool) {
	status := OrderStatus(raw)
	_, ok := fulfillmentStatuses[status]
	return status, ok
}

type PaymentMethod string

const (
	PaymentMethodEsewa  PaymentMethod = "esewa"
	PaymentMethodKhalti PaymentMethod = "khalti"
)

func ParsePaymentMethod(raw string) (PaymentMethod, bool) {
	switch PaymentMethod(raw) {
	case PaymentMethodEsewa, PaymentMethodKhalti:
		return PaymentMethod(raw), true
	default:
		return "", false
	}
}

type Address struct {
	UserID      string `bson:"userId" json:"userId"`
	FullName    string `bson:"fullName" json:"fullName"`
	PhoneNumber string `bson:"phoneNumber" json:"phoneNumber"`
	Zipcode     string `bson:"zipcode" json:"zipcode"`
	Area        string `bson:"area" json:"area"`
	City        string `bson:"city" json:"city"`
	Province    string `bson:"province" json:"province"`
}

// OrderItem is snapshotted at creation; it does not follow later product edits.
type OrderItem struct {
	Product  string `bson:"product" json:"product"`
	SellerID string `bson:"sellerId" json:"sellerId"`
	Quantity int64  `bson:"quantity" json:"quantity"`
}

type Order struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	UserID        string             `bson:"userId" json:"userId"`
	Items         []OrderItem        `bson:"items" json:"items"`
	TotalAmount   int64              `bson:"totalAmount" json:"totalAmount"`
	Tax           int64              `bson:"tax" json:"tax"`
	Address       Address            `bson:"address" json:"address"`
	Status        OrderStatus        `bson:"status" json:"status"`
	Date          time.Time          `bson:"date" json:"date"`
	PaymentMethod PaymentMethod      `bson:"paymentMethod" json:"paymentMethod"`
	CreatedAt     time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// HasProductFrom reports whether any line of the order belongs to one of productIDs.
func (o Order) HasProductFrom(productIDs map[string]struct{}) bool {
	for _, item := range o.Items {
		if _, ok := productIDs[item.Product]; ok {
			return true
		}
	}

	return false
}
