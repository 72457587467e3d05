package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Mythsoul/Eshop/config"
	"github.com/Mythsoul/Eshop/internal/domain"
	"github.com/Mythsoul/Eshop/internal/dto"
	"github.com/Mythsoul/Eshop/internal/infrastructure/metrics"
	paymentgateway "github.com/Mythsoul/Eshop/internal/infrastructure/payment-gateway"
	"github.com/Mythsoul/Eshop/internal/repository"
	"github.com/Mythsoul/Eshop/pkg/errs"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/Mythsoul/Eshop/internal/service"

type orderRepository interface {
	repository.Transactor
	repository.ProductRepository
	repository.UserRepository
	repository.OrderRepository
}

type OrderServiceImpl struct {
	repository     orderRepository
	paymentGateway paymentgateway.PaymentGateway
	emitter        Emitter
	metrics        *metrics.Metrics
	tracer         trace.Tracer
	config         *config.Config
}

func CreateOrderService(repository orderRepository, paymentGateway paymentgateway.PaymentGateway, emitter Emitter, m *metrics.Metrics, config *config.Config) OrderService {
	return &OrderServiceImpl{
		repository:     repository,
		paymentGateway: paymentGateway,
		emitter:        emitter,
		metrics:        m,
		tracer:         otel.Tracer(tracerName),
		config:         config,
	}
}

// PlaceOrder runs validating, pricing, reserving and paying in order. Reserving and paying share
// one transaction, so a failure there leaves stock, order and cart untouched. The order created
// event is emitted only after commit.
func (s *OrderServiceImpl) PlaceOrder(ctx context.Context, req dto.OrderRequest) (res dto.OrderResponse, err error) {
	ctx, span := s.tracer.Start(ctx, "PlaceOrder", trace.WithAttributes(attribute.String("user.id", req.UserID)))
	defer func() {
		s.metrics.OrderPlacements.WithLabelValues(placementOutcome(err)).Inc()
		endSpan(span, err)
	}()

	paymentMethod, err := validateOrderRequest(req)
	if err != nil {
		return
	}

	if s.config.OrderConfig.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.OrderConfig.Timeout)
		defer cancel()
	}

	_, err = s.repository.GetUserByID(ctx, req.UserID)
	if err != nil {
		err = storageError(ctx, err)
		return
	}

	lines, err := s.validateCart(ctx, req)
	if err != nil {
		return
	}

	totals, err := s.priceCart(ctx, lines)
	if err != nil {
		return
	}

	order, err := buildOrder(req, paymentMethod, lines, totals)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Str("component", "PlaceOrder").Msg("")
		return
	}

	var conflict *CartLine
	err = s.repository.HandleTrx(ctx, func(ctx context.Context) error {
		conflict = nil

		if err := s.reserve(ctx, order, lines, &conflict); err != nil {
			return err
		}

		return s.pay(ctx, order)
	})
	if err != nil {
		err = s.classifyAbort(ctx, err, conflict)
		return
	}

	order.Status = domain.OrderStatusPlaced
	s.emitter.EmitOrderCreated(ctx, order, *req.Address)

	log.Ctx(ctx).Info().Str("component", "PlaceOrder").Str("order_id", order.ID.Hex()).Int64("total", order.TotalAmount).Msg("order placed")

	return dto.OrderResponse{
		OrderID:      order.ID.Hex(),
		OrderDetails: order,
	}, nil
}

func validateOrderRequest(req dto.OrderRequest) (domain.PaymentMethod, error) {
	if req.UserID == "" {
		return "", errs.ErrNotLoggedIn
	}

	paymentMethod, ok := domain.ParsePaymentMethod(req.PaymentMethod)
	if !ok {
		return "", errs.ErrInvalidPaymentMethod
	}

	if len(req.Items) == 0 {
		return "", errs.ErrEmptyCart
	}

	for _, item := range req.Items {
		if item.Quantity < 1 {
			return "", errs.ErrInvalidQuantity
		}
	}

	if req.Address == nil || !req.Address.Complete() {
		return "", errs.ErrIncompleteAddress
	}

	return paymentMethod, nil
}

func (s *OrderServiceImpl) validateCart(ctx context.Context, req dto.OrderRequest) (lines []CartLine, err error) {
	ctx, span := s.tracer.Start(ctx, "validating")
	defer func() { endSpan(span, err) }()

	items, err := MergeOrderItems(req.Items)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ProductID)
	}

	snapshot, err := s.repository.GetProductsByIDs(ctx, ids)
	if err != nil {
		return nil, storageError(ctx, err)
	}

	validation := ValidateCart(items, snapshot)
	if err = validation.Err(); err != nil {
		var missing *errs.MissingProductsError
		if errors.As(err, &missing) {
			if clearErr := s.repository.ClearCart(ctx, req.UserID); clearErr != nil {
				log.Ctx(ctx).Error().Err(clearErr).Str("component", "PlaceOrder").Msg("failed to clear cart")
			}
		}

		log.Ctx(ctx).Info().Err(err).Str("component", "PlaceOrder").Msg("cart rejected")
		return nil, err
	}

	return validation.Lines, nil
}

func (s *OrderServiceImpl) priceCart(ctx context.Context, lines []CartLine) (totals Totals, err error) {
	_, span := s.tracer.Start(ctx, "pricing")
	defer func() { endSpan(span, err) }()

	totals, err = CalculateTotals(lines)
	if err != nil {
		return
	}

	span.SetAttributes(
		attribute.Int64("order.subtotal", totals.Subtotal),
		attribute.Int64("order.tax", totals.Tax),
		attribute.Int64("order.total", totals.Total),
	)

	return totals, nil
}

func buildOrder(req dto.OrderRequest, paymentMethod domain.PaymentMethod, lines []CartLine, totals Totals) (domain.Order, error) {
	items := make([]domain.OrderItem, 0, len(lines))
	for _, line := range lines {
		sellerID := line.Product.Seller()
		if sellerID == "" {
			return domain.Order{}, fmt.Errorf("%w: %s", errs.ErrSellerNotFound, line.Product.Name)
		}

		items = append(items, domain.OrderItem{
			Product:  line.Product.ID.Hex(),
			SellerID: sellerID,
			Quantity: line.Quantity,
		})
	}

	now := time.Now().UTC()

	return domain.Order{
		ID:          primitive.NewObjectID(),
		UserID:      req.UserID,
		Items:       items,
		TotalAmount: totals.Total,
		Tax:         totals.Tax,
		Address: domain.Address{
			UserID:      req.UserID,
			FullName:    req.Address.FullName,
			PhoneNumber: req.Address.PhoneNumber,
			Zipcode:     req.Address.Zipcode,
			Area:        req.Address.Area,
			City:        req.Address.City,
			Province:    req.Address.Province,
		},
		Status:        domain.OrderStatusPendingPayment,
		Date:          now,
		PaymentMethod: paymentMethod,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

// reserve inserts the pending order, decrements stock and clears the cart inside the open
// transaction. A decrement that matches nothing records the line in conflict.
func (s *OrderServiceImpl) reserve(ctx context.Context, order domain.Order, lines []CartLine, conflict **CartLine) (err error) {
	ctx, span := s.tracer.Start(ctx, "reserving")
	defer func() { endSpan(span, err) }()

	_, err = s.repository.AddOrder(ctx, order)
	if err != nil {
		return err
	}

	for i := range lines {
		err = s.repository.DecrementProductStock(ctx, lines[i].Product.ID.Hex(), lines[i].Quantity)
		if err != nil {
			if errors.Is(err, errs.ErrStockConflict) {
				*conflict = &lines[i]
			}
			return err
		}
	}

	err = s.repository.ClearCart(ctx, order.UserID)
	return err
}

func (s *OrderServiceImpl) pay(ctx context.Context, order domain.Order) (err error) {
	ctx, span := s.tracer.Start(ctx, "paying", trace.WithAttributes(attribute.String("payment.method", string(order.PaymentMethod))))
	defer func() { endSpan(span, err) }()

	result, err := s.paymentGateway.Charge(ctx, paymentgateway.ChargeRequest{
		OrderID:       order.ID.Hex(),
		UserID:        order.UserID,
		Amount:        order.TotalAmount,
		PaymentMethod: order.PaymentMethod,
	})
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		log.Ctx(ctx).Error().Err(err).Str("component", "PaymentGateway").Msg("")
		return errs.ErrPaymentFailed
	}

	if !result.Success {
		return fmt.Errorf("%w: %s", errs.ErrPaymentFailed, result.Reason)
	}

	span.SetAttributes(attribute.String("payment.transaction_id", result.TransactionID))

	return s.repository.UpdateOrderStatus(ctx, order.ID, domain.OrderStatusPlaced)
}

// classifyAbort turns an aborted transaction into the error reported to the buyer. A stock
// conflict is reported as a shortage using the stock read after the abort.
func (s *OrderServiceImpl) classifyAbort(ctx context.Context, err error, conflict *CartLine) error {
	log.Ctx(ctx).Warn().Err(err).Str("component", "PlaceOrder").Msg("order transaction aborted")

	switch {
	case errors.Is(err, errs.ErrStockConflict) && conflict != nil:
		available := conflict.Product.Stock
		fresh, readErr := s.repository.GetProductByID(context.WithoutCancel(ctx), conflict.Product.ID.Hex())
		if readErr == nil {
			available = fresh.Stock
		}

		return &errs.InsufficientStockError{Products: []errs.StockShortage{{
			Name:      conflict.Product.Name,
			Available: available,
			Requested: conflict.Quantity,
		}}}
	case errors.Is(err, errs.ErrPaymentFailed), errors.Is(err, errs.ErrUserNotFound):
		return err
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: order placement timed out", errs.ErrServiceUnavailable)
	default:
		return storageError(ctx, err)
	}
}

func (s *OrderServiceImpl) GetOrders(ctx context.Context, userID string) (data []domain.Order, err error) {
	if userID == "" {
		return nil, errs.ErrNotLoggedIn
	}

	data, err = s.repository.GetOrdersByUser(ctx, userID)
	if err != nil {
		return nil, storageError(ctx, err)
	}

	return data, nil
}

// GetSellerOrders lists the orders containing any product the seller owns, the same
// ownership UpdateOrderStatus checks.
func (s *OrderServiceImpl) GetSellerOrders(ctx context.Context, sellerID string) (data []domain.Order, err error) {
	if sellerID == "" {
		return nil, errs.ErrNotLoggedIn
	}

	productIDs, err := s.repository.GetProductIDsBySeller(ctx, sellerID)
	if err != nil {
		return nil, storageError(ctx, err)
	}

	data, err = s.repository.GetOrdersByProducts(ctx, productIDs)
	if err != nil {
		return nil, storageError(ctx, err)
	}

	return data, nil
}

func (s *OrderServiceImpl) UpdateOrderStatus(ctx context.Context, req dto.OrderStatusRequest) (order domain.Order, err error) {
	if req.SellerID == "" {
		return order, errs.ErrNotLoggedIn
	}

	if req.OrderID == "" || req.Status == "" {
		return order, errs.ErrOrderStatusRequired
	}

	status, ok := domain.ParseFulfillmentStatus(req.Status)
	if !ok {
		return order, errs.ErrInvalidOrderStatus
	}

	order, err = s.repository.GetOrderByID(ctx, req.OrderID)
	if err != nil {
		return order, storageError(ctx, err)
	}

	productIDs, err := s.repository.GetProductIDsBySeller(ctx, req.SellerID)
	if err != nil {
		return order, storageError(ctx, err)
	}

	owned := make(map[string]struct{}, len(productIDs))
	for _, id := range productIDs {
		owned[id] = struct{}{}
	}

	if !order.HasProductFrom(owned) {
		return domain.Order{}, errs.ErrForbidden
	}

	err = s.repository.UpdateOrderStatus(ctx, order.ID, status)
	if err != nil {
		return order, storageError(ctx, err)
	}

	order.Status = status
	order.UpdatedAt = time.Now().UTC()

	log.Ctx(ctx).Info().Str("component", "UpdateOrderStatus").Str("order_id", req.OrderID).Str("status", string(status)).Msg("")

	return order, nil
}

// storageError keeps classified errors as they are. Anything else is logged and reported
// as the bare ErrServiceUnavailable so driver text never reaches the buyer.
func storageError(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}

	if errs.GetErrorStatusCode(err) != errs.ErrStatusInternalServer ||
		errors.Is(err, errs.ErrPaymentFailed) || errors.Is(err, errs.ErrSellerNotFound) {
		return err
	}

	log.Ctx(ctx).Error().Err(err).Str("component", "storage").Msg("")

	return errs.ErrServiceUnavailable
}

func placementOutcome(err error) string {
	var missing *errs.MissingProductsError
	var insufficient *errs.InsufficientStockError

	switch {
	case err == nil:
		return metrics.OutcomePlaced
	case errors.As(err, &missing):
		return metrics.OutcomeMissingProducts
	case errors.As(err, &insufficient):
		return metrics.OutcomeInsufficientStock
	case errors.Is(err, errs.ErrPaymentFailed):
		return metrics.OutcomePaymentFailed
	case errs.GetErrorStatusCode(err) < errs.ErrStatusInternalServer:
		return metrics.OutcomeInvalid
	default:
		return metrics.OutcomeError
	}
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
