package services

import "errors"

// Validation errors: rejected synchronously, no state mutated.
var (
	ErrNoOutcomes       = errors.New("pool must have at least one outcome")
	ErrPoolNotFound     = errors.New("pool not found")
	ErrPoolNotActive    = errors.New("pool is not active")
	ErrPoolClosed       = errors.New("pool is no longer accepting bets")
	ErrInvalidBetAmount = errors.New("bet amount must be positive")
	ErrUnknownOutcome   = errors.New("unknown outcome")
	ErrBetLimitExceeded = errors.New("bet exceeds per-user limit")
	ErrPoolSizeExceeded = errors.New("bet exceeds maximum pool size")
	ErrBetBlocked       = errors.New("bet blocked by anti-manipulation monitor")
	ErrNotRandomPool    = errors.New("pool winner selection is not random")
)

// Concurrency conflict errors: rejected, existing state untouched.
var (
	ErrAlreadySettled = errors.New("pool has already been settled")
)

// Proof errors: the randomness value must be discarded, never reused.
var (
	ErrProofGeneration   = errors.New("proof self-verification failed")
	ErrEmptyParticipants = errors.New("participants list is empty")
	ErrWeightMismatch    = errors.New("options and weights length mismatch")
	ErrInvalidWeights    = errors.New("weights must sum to a positive value")
	ErrInvalidRange      = errors.New("invalid randomness range")
)

// Reward distribution errors.
var (
	ErrRewardPoolNotFound    = errors.New("reward pool not found")
	ErrRewardPoolNotActive   = errors.New("reward pool is not active")
	ErrInvalidRewardAmount   = errors.New("reward pool amount must be positive")
	ErrRewardPoolTooLarge    = errors.New("reward pool exceeds maximum size")
	ErrIneligibleParticipant = errors.New("participant does not meet eligibility criteria")
	ErrDuplicateParticipant  = errors.New("participant already joined this pool")
	ErrNoParticipants        = errors.New("reward pool has no participants")
	ErrInvalidStrategyConfig = errors.New("strategy percentages must be positive and sum to at most 1")
	ErrOverAllocation        = errors.New("allocations exceed the remaining pool amount")
)
