package infrastructure

import (
	"context"
	"fmt"

	"fairbook/config"
	"fairbook/domain/interfaces"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

type transferRequest struct {
	WalletAddress string          `json:"walletAddress"`
	Amount        decimal.Decimal `json:"amount"`
	Currency      string          `json:"currency"`
}

type transferResponse struct {
	TransactionID string `json:"transactionId"`
	Status        string `json:"status"`
	Error         string `json:"error,omitempty"`
}

// SettlementClient executes fund transfers through the settlement service's
// HTTP API
type SettlementClient struct {
	client *resty.Client
}

// NewSettlementClient creates a settlement client against the configured
// service URL
func NewSettlementClient() interfaces.SettlementExecutor {
	cfg := config.Get()
	client := resty.New().
		SetBaseURL(cfg.SettlementServiceURL).
		SetTimeout(cfg.SettlementTimeout).
		SetHeader("Content-Type", "application/json")

	return &SettlementClient{client: client}
}

// Transfer sends one transfer request. Transfers are not retried here; the
// caller decides whether a failed amount is retried in a later round.
func (c *SettlementClient) Transfer(ctx context.Context, walletAddress string, amount decimal.Decimal, currency string) (*interfaces.TransferReceipt, error) {
	var result transferResponse
	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(transferRequest{
			WalletAddress: walletAddress,
			Amount:        amount,
			Currency:      currency,
		}).
		SetResult(&result).
		SetError(&result).
		Post("/v1/transfers")
	if err != nil {
		return nil, fmt.Errorf("transfer request failed: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("transfer returned status %d: %s", resp.StatusCode(), result.Error)
	}

	receipt := &interfaces.TransferReceipt{
		TransactionID: result.TransactionID,
		Status:        interfaces.TransferStatus(result.Status),
	}

	log.WithFields(log.Fields{
		"transactionId": receipt.TransactionID,
		"wallet":        walletAddress,
		"amount":        amount,
		"status":        receipt.Status,
	}).Debug("Executed settlement transfer")

	return receipt, nil
}
