package entities

import (
	"time"
)

// VRFResult is one verifiable randomness draw. Results are immutable once
// created; Verified is set exactly once by the verification routine.
type VRFResult struct {
	RequestID        string    `json:"requestId"`
	Value            int64     `json:"value"`
	Min              int64     `json:"min"`
	Max              int64     `json:"max"`
	SeedMaterial     string    `json:"seedMaterial"`
	SignatureProof   []byte    `json:"signatureProof"`
	SignerPublicKey  []byte    `json:"signerPublicKey"`
	EntropySlot      uint64    `json:"entropySlot"`
	EntropyBlockHash []byte    `json:"entropyBlockHash"`
	Timestamp        time.Time `json:"timestamp"`
	Verified         bool      `json:"verified"`
}

// RandomnessRequest describes one draw in a batch request
type RandomnessRequest struct {
	Seed string `json:"seed"`
	Min  int64  `json:"min"`
	Max  int64  `json:"max"`
}

// WinnerDraw is the outcome of a VRF-backed winner selection
type WinnerDraw struct {
	Winner string     `json:"winner"`
	Index  int        `json:"index"`
	Proof  *VRFResult `json:"proof"`
}
