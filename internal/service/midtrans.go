package service

import (
	"context"
	"fmt"

	"rental-marketplace-backend/internal/logger"

	"github.com/midtrans/midtrans-go"
	"github.com/midtrans/midtrans-go/coreapi"
)

// GatewayStatus is what the processor reports for an order.
type GatewayStatus struct {
	OrderID           string
	TransactionStatus string
	FraudStatus       string
	GrossAmount       string
}

// PaymentGateway asks the payment processor about an order.
type PaymentGateway interface {
	CheckTransaction(ctx context.Context, orderID string) (*GatewayStatus, error)
}

type midtransGateway struct {
	client coreapi.Client
}

func NewMidtransGateway(serverKey, environment string) PaymentGateway {
	env := midtrans.Sandbox
	if environment == "production" {
		env = midtrans.Production
	}
	var c coreapi.Client
	c.New(serverKey, env)
	return &midtransGateway{client: c}
}

func (g *midtransGateway) CheckTransaction(ctx context.Context, orderID string) (*GatewayStatus, error) {
	logger.ExternalServiceCall("midtrans", "check_transaction", "orderID", orderID)
	resp, merr := g.client.CheckTransaction(orderID)
	if merr != nil {
		err := fmt.Errorf("midtrans check transaction error: %s", merr.GetMessage())
		logger.ExternalServiceResult("midtrans", "check_transaction", err, "orderID", orderID)
		return nil, err
	}
	logger.ExternalServiceResult("midtrans", "check_transaction", nil, "orderID", orderID, "status", resp.TransactionStatus)
	return &GatewayStatus{
		OrderID:           resp.OrderID,
		TransactionStatus: resp.TransactionStatus,
		FraudStatus:       resp.FraudStatus,
		GrossAmount:       resp.GrossAmount,
	}, nil
}
