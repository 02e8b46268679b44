package infrastructure

import (
	"context"
	"fmt"

	"fairbook/config"
	"fairbook/domain/interfaces"

	"github.com/go-resty/resty/v2"
	log "github.com/sirupsen/logrus"
)

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      int    `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params,omitempty"`
}

type slotResponse struct {
	Result uint64    `json:"result"`
	Error  *rpcError `json:"error,omitempty"`
}

type blockhashResponse struct {
	Result struct {
		Value struct {
			Blockhash string `json:"blockhash"`
		} `json:"value"`
	} `json:"result"`
	Error *rpcError `json:"error,omitempty"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// SolanaEntropyClient sources chain entropy from a Solana-style JSON-RPC
// endpoint. Every failure surfaces as an error; there is no fallback entropy.
type SolanaEntropyClient struct {
	client *resty.Client
}

// NewSolanaEntropyClient creates an entropy client against the configured
// RPC endpoint
func NewSolanaEntropyClient() interfaces.EntropySource {
	cfg := config.Get()
	client := resty.New().
		SetBaseURL(cfg.EntropyRPCURL).
		SetTimeout(cfg.EntropyTimeout).
		SetHeader("Content-Type", "application/json").
		SetRetryCount(2)

	return &SolanaEntropyClient{client: client}
}

// GetSlot returns the current chain slot
func (c *SolanaEntropyClient) GetSlot(ctx context.Context) (uint64, error) {
	var result slotResponse
	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(rpcRequest{JSONRPC: "2.0", ID: 1, Method: "getSlot"}).
		SetResult(&result).
		Post("")
	if err != nil {
		return 0, fmt.Errorf("getSlot request failed: %w", err)
	}
	if resp.IsError() {
		return 0, fmt.Errorf("getSlot returned status %d", resp.StatusCode())
	}
	if result.Error != nil {
		return 0, fmt.Errorf("getSlot RPC error %d: %s", result.Error.Code, result.Error.Message)
	}

	log.WithField("slot", result.Result).Debug("Fetched chain slot")
	return result.Result, nil
}

// GetRecentBlockHash returns the latest chain block hash
func (c *SolanaEntropyClient) GetRecentBlockHash(ctx context.Context) ([]byte, error) {
	var result blockhashResponse
	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(rpcRequest{JSONRPC: "2.0", ID: 1, Method: "getLatestBlockhash"}).
		SetResult(&result).
		Post("")
	if err != nil {
		return nil, fmt.Errorf("getLatestBlockhash request failed: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("getLatestBlockhash returned status %d", resp.StatusCode())
	}
	if result.Error != nil {
		return nil, fmt.Errorf("getLatestBlockhash RPC error %d: %s", result.Error.Code, result.Error.Message)
	}
	if result.Result.Value.Blockhash == "" {
		return nil, fmt.Errorf("getLatestBlockhash returned an empty blockhash")
	}

	return []byte(result.Result.Value.Blockhash), nil
}
