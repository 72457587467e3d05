package repository

import (
	"context"

	"github.com/Mythsoul/Eshop/internal/domain"
	pkgdto "github.com/Mythsoul/Eshop/pkg/dto"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Transactor runs fn inside one atomic unit of work. Repository calls made with the ctx
// passed to fn join the transaction; fn returning an error aborts it.
type Transactor interface {
	HandleTrx(ctx context.Context, fn func(ctx context.Context) error) error
}

type ProductRepository interface {
	GetProductsByIDs(ctx context.Context, ids []string) (data []domain.Product, err error)
	GetProducts(ctx context.Context, filter pkgdto.Filter) (data []domain.Product, total int64, err error)
	GetProductByID(ctx context.Context, id string) (product domain.Product, err error)
	GetProductIDsBySeller(ctx context.Context, sellerID string) (ids []string, err error)
	DecrementProductStock(ctx context.Context, id string, quantity int64) (err error)
}

type UserRepository interface {
	GetUserByID(ctx context.Context, id string) (user domain.User, err error)
	ClearCart(ctx context.Context, userID string) (err error)
}

type OrderRepository interface {
	AddOrder(ctx context.Context, data domain.Order) (id primitive.ObjectID, err error)
	UpdateOrderStatus(ctx context.Context, id primitive.ObjectID, status domain.OrderStatus) (err error)
	GetOrderByID(ctx context.Context, id string) (order domain.Order, err error)
	GetOrdersByUser(ctx context.Context, userID string) (data []domain.Order, err error)
	GetOrdersByProducts(ctx context.Context, productIDs []string) (data []domain.Order, err error)
}

type FailedEventRepository interface {
	AddFailedEvent(ctx context.Context, data domain.FailedEvent) (err error)
	GetFailedEvents(ctx context.Context, limit int64) (data []domain.FailedEvent, err error)
	MarkFailedEventAttempt(ctx context.Context, id string, lastError string) (err error)
	DeleteFailedEvent(ctx context.Context, id string) (err error)
}

type MongoDBRepository interface {
	Transactor
	ProductRepository
	UserRepository
	OrderRepository
	FailedEventRepository
	Ping(ctx context.Context) error
	EnsureIndexes(ctx context.Context) error
}
