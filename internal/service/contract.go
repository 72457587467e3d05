package service

import (
	"context"

	"github.com/Mythsoul/Eshop/internal/domain"
	"github.com/Mythsoul/Eshop/internal/dto"
	pkgdto "github.com/Mythsoul/Eshop/pkg/dto"
)

type OrderService interface {
	PlaceOrder(ctx context.Context, req dto.OrderRequest) (res dto.OrderResponse, err error)
	GetOrders(ctx context.Context, userID string) (data []domain.Order, err error)
	GetSellerOrders(ctx context.Context, sellerID string) (data []domain.Order, err error)
	UpdateOrderStatus(ctx context.Context, req dto.OrderStatusRequest) (order domain.Order, err error)
}

type ProductService interface {
	GetProducts(ctx context.Context, filter pkgdto.Filter) (res dto.ProductListResponse, err error)
	GetProductByID(ctx context.Context, id string) (product domain.Product, err error)
}

type NotificationService interface {
	ConsumeEvent(ctx context.Context)
}

// EventPublisher delivers one keyed message to the event channel.
type EventPublisher interface {
	Publish(ctx context.Context, key string, value []byte) error
}

// Emitter hands committed-order events to the event channel without blocking the caller.
type Emitter interface {
	EmitOrderCreated(ctx context.Context, order domain.Order, address dto.AddressRequest)
}

type Mailer interface {
	Send(to string, subject string, body string) error
}
