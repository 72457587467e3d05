package paymentgateway

import (
	"context"
	"fmt"

	"github.com/Mythsoul/Eshop/config"
	"github.com/Mythsoul/Eshop/internal/domain"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

type ChargeRequest struct {
	OrderID       string
	UserID        string
	Amount        int64
	PaymentMethod domain.PaymentMethod
}

type ChargeResult struct {
	TransactionID string
	Success       bool
	Reason        string
}

type PaymentGateway interface {
	Charge(ctx context.Context, req ChargeRequest) (ChargeResult, error)
}

// SimulatedGateway stands in for the esewa and khalti gateways. It approves every charge unless
// configured to decline.
type SimulatedGateway struct {
	decline bool
}

func CreateSimulatedGateway(config *config.Config) *SimulatedGateway {
	return &SimulatedGateway{decline: config.PaymentConfig.SimulateFailure}
}

func (g *SimulatedGateway) Charge(ctx context.Context, req ChargeRequest) (ChargeResult, error) {
	if err := ctx.Err(); err != nil {
		return ChargeResult{}, err
	}

	if req.Amount < 0 {
		return ChargeResult{}, fmt.Errorf("invalid charge amount %d", req.Amount)
	}

	if g.decline {
		log.Ctx(ctx).Warn().Str("component", "Charge").Str("order_id", req.OrderID).Str("payment_method", string(req.PaymentMethod)).Msg("payment declined")
		return ChargeResult{Success: false, Reason: fmt.Sprintf("%s declined the payment", req.PaymentMethod)}, nil
	}

	return ChargeResult{
		TransactionID: fmt.Sprintf("%s-%s", req.PaymentMethod, uuid.NewString()),
		Success:       true,
	}, nil
}
