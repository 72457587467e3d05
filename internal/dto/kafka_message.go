package dto

import (
	"encoding/json"

	"github.com/Mythsoul/Eshop/internal/domain"
)

const EventOrderCreated = "order/created"

type KafkaMessage struct {
	EventType string          `json:"event_type"`
	EventID   string          `json:"event_id"`
	Data      json.RawMessage `json:"data"`
}

type OrderCreatedItem struct {
	Product  string `json:"product"`
	Quantity int64  `json:"quantity"`
}

// OrderCreatedEvent carries line items as product id and quantity only.
type OrderCreatedEvent struct {
	OrderID string             `json:"orderId"`
	UserID  string             `json:"userId"`
	Items   []OrderCreatedItem `json:"items"`
	Amount  int64              `json:"amount"`
	Tax     int64              `json:"tax"`
	Address AddressRequest     `json:"address"`
	Status  domain.OrderStatus `json:"status"`
}
