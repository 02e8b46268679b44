package services

import (
	"context"
	"crypto/ecdsa"
	"encoding/hex"
	"fmt"
	"math/big"
	"sync"
	"time"

	"fairbook/config"
	"fairbook/domain/entities"
	"fairbook/domain/interfaces"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// cacheJanitorInterval controls how often expired results are pruned
const cacheJanitorInterval = 10 * time.Minute

type cachedResult struct {
	result    *entities.VRFResult
	expiresAt time.Time
}

type vrfEngine struct {
	privateKey *ecdsa.PrivateKey
	publicKey  []byte
	entropy    interfaces.EntropySource
	timeout    time.Duration
	resultTTL  time.Duration

	mu      sync.RWMutex
	results map[string]cachedResult
}

// NewVRFEngine creates a VRF engine backed by a secp256k1 signing key and an
// external entropy source. When no key is configured an ephemeral key is
// generated; its proofs stay verifiable only within this process lifetime.
func NewVRFEngine(entropy interfaces.EntropySource) (interfaces.VRFEngine, error) {
	cfg := config.Get()

	var key *ecdsa.PrivateKey
	var err error
	if cfg.VRFPrivateKeyHex != "" {
		key, err = crypto.HexToECDSA(cfg.VRFPrivateKeyHex)
		if err != nil {
			return nil, fmt.Errorf("failed to parse VRF private key: %w", err)
		}
	} else {
		key, err = crypto.GenerateKey()
		if err != nil {
			return nil, fmt.Errorf("failed to generate VRF private key: %w", err)
		}
		log.Warn("No VRF private key configured, generated an ephemeral key")
	}

	engine := &vrfEngine{
		privateKey: key,
		publicKey:  crypto.FromECDSAPub(&key.PublicKey),
		entropy:    entropy,
		timeout:    cfg.EntropyTimeout,
		resultTTL:  cfg.VRFResultTTL,
		results:    make(map[string]cachedResult),
	}
	go engine.janitor()

	return engine, nil
}

func (e *vrfEngine) Generate(ctx context.Context, seed string, min, max int64) (*entities.VRFResult, error) {
	if min > max {
		return nil, fmt.Errorf("%w: min %d > max %d", ErrInvalidRange, min, max)
	}

	entropyCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	slot, err := e.entropy.GetSlot(entropyCtx)
	if err != nil {
		return nil, fmt.Errorf("entropy slot lookup failed: %w", err)
	}
	blockHash, err := e.entropy.GetRecentBlockHash(entropyCtx)
	if err != nil {
		return nil, fmt.Errorf("entropy block hash lookup failed: %w", err)
	}

	now := time.Now()
	seedMaterial := fmt.Sprintf("%s|%d|%s|%d", seed, slot, hex.EncodeToString(blockHash), now.UnixNano())
	messageHash := crypto.Keccak256([]byte(seedMaterial))

	// RFC 6979 deterministic signing: the same seed material always yields
	// the same signature, so any holder of the result can re-derive the value.
	signature, err := crypto.Sign(messageHash, e.privateKey)
	if err != nil {
		return nil, fmt.Errorf("failed to sign seed material: %w", err)
	}

	result := &entities.VRFResult{
		RequestID:        uuid.New().String(),
		Value:            valueFromProof(signature, min, max),
		Min:              min,
		Max:              max,
		SeedMaterial:     seedMaterial,
		SignatureProof:   signature,
		SignerPublicKey:  e.publicKey,
		EntropySlot:      slot,
		EntropyBlockHash: blockHash,
		Timestamp:        now,
	}

	if !e.Verify(result) {
		return nil, ErrProofGeneration
	}
	result.Verified = true

	e.mu.Lock()
	e.results[result.RequestID] = cachedResult{result: result, expiresAt: now.Add(e.resultTTL)}
	e.mu.Unlock()

	log.WithFields(log.Fields{
		"requestId": result.RequestID,
		"value":     result.Value,
		"slot":      slot,
	}).Debug("Generated verified random value")

	return result, nil
}

func (e *vrfEngine) Verify(result *entities.VRFResult) bool {
	if result == nil || result.Min > result.Max {
		return false
	}
	if len(result.SignatureProof) < 64 || len(result.SignerPublicKey) == 0 {
		return false
	}

	messageHash := crypto.Keccak256([]byte(result.SeedMaterial))
	if !crypto.VerifySignature(result.SignerPublicKey, messageHash, result.SignatureProof[:64]) {
		return false
	}
	return valueFromProof(result.SignatureProof, result.Min, result.Max) == result.Value
}

func (e *vrfEngine) SelectWinner(ctx context.Context, participants []string, seed string) (*entities.WinnerDraw, error) {
	if len(participants) == 0 {
		return nil, ErrEmptyParticipants
	}

	result, err := e.Generate(ctx, seed, 0, int64(len(participants)-1))
	if err != nil {
		return nil, err
	}

	return &entities.WinnerDraw{
		Winner: participants[result.Value],
		Index:  int(result.Value),
		Proof:  result,
	}, nil
}

func (e *vrfEngine) SelectWeighted(ctx context.Context, options []string, weights []int64, seed string) (string, *entities.VRFResult, error) {
	if len(options) == 0 {
		return "", nil, ErrEmptyParticipants
	}
	if len(options) != len(weights) {
		return "", nil, ErrWeightMismatch
	}

	var total int64
	for _, w := range weights {
		if w < 0 {
			return "", nil, ErrInvalidWeights
		}
		total += w
	}
	if total <= 0 {
		return "", nil, ErrInvalidWeights
	}

	result, err := e.Generate(ctx, seed, 1, total)
	if err != nil {
		return "", nil, err
	}

	var cumulative int64
	for i, w := range weights {
		cumulative += w
		if result.Value <= cumulative {
			return options[i], result, nil
		}
	}
	// Unreachable while the cumulative sum covers [1, total]
	return options[len(options)-1], result, nil
}

func (e *vrfEngine) SelectBatch(ctx context.Context, requests []entities.RandomnessRequest) ([]*entities.VRFResult, error) {
	results := make([]*entities.VRFResult, 0, len(requests))
	for i, req := range requests {
		// Index suffix keeps repeated seeds from colliding within one batch
		result, err := e.Generate(ctx, fmt.Sprintf("%s:%d", req.Seed, i), req.Min, req.Max)
		if err != nil {
			return nil, fmt.Errorf("batch draw %d failed: %w", i, err)
		}
		results = append(results, result)
	}
	return results, nil
}

func (e *vrfEngine) GetResult(requestID string) *entities.VRFResult {
	e.mu.RLock()
	defer e.mu.RUnlock()

	cached, ok := e.results[requestID]
	if !ok || time.Now().After(cached.expiresAt) {
		return nil
	}
	return cached.result
}

func (e *vrfEngine) PublicKey() []byte {
	return e.publicKey
}

// valueFromProof reduces a signature to a value in [min, max] by hashing the
// signature and taking the hash modulo the range span.
func valueFromProof(signature []byte, min, max int64) int64 {
	proofHash := crypto.Keccak256(signature)
	span := new(big.Int).SetInt64(max - min + 1)
	offset := new(big.Int).Mod(new(big.Int).SetBytes(proofHash), span)
	return min + offset.Int64()
}

func (e *vrfEngine) janitor() {
	ticker := time.NewTicker(cacheJanitorInterval)
	defer ticker.Stop()

	for range ticker.C {
		now := time.Now()
		e.mu.Lock()
		for id, cached := range e.results {
			if now.After(cached.expiresAt) {
				delete(e.results, id)
			}
		}
		e.mu.Unlock()
	}
}
