package dto

import "github.com/Mythsoul/Eshop/internal/domain"

type OrderResponse struct {
	OrderID      string       `json:"orderId"`
	OrderDetails domain.Order `json:"orderDetails"`
}
