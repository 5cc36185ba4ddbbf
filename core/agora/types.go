// Copyright 2024 The go-agora Authors
// This file is part of the go-agora library.
//
// The go-agora library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-agora library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-agora library. If not, see <http://www.gnu.org/licenses/>.

package agora

import (
	"crypto/sha256"
	"encoding/binary"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/agorachain/go-agora/params"
)

// ProofSize is the fixed size of a challenge proof blob. The proof is stored
// opaque and is not validated; the field is reserved for future cryptographic
// verification.
const ProofSize = 64

// AgentTier is an agent's trust level. Tiers are earnings/reputation
// milestones and only ever increase.
type AgentTier uint8

const (
	TierOpen     AgentTier = 0
	TierVerified AgentTier = 1
	TierPremium  AgentTier = 2
)

// EscrowStatus represents the current state of an escrow record.
type EscrowStatus uint8

const (
	EscrowStatusPending    EscrowStatus = 0
	EscrowStatusInProgress EscrowStatus = 1
	EscrowStatusCompleted  EscrowStatus = 2
	EscrowStatusCancelled  EscrowStatus = 3
	EscrowStatusChallenged EscrowStatus = 4
	EscrowStatusDisputed   EscrowStatus = 5 // reserved for committee adjudication
	EscrowStatusSlashed    EscrowStatus = 6
)

// String returns a human-readable status name.
func (s EscrowStatus) String() string {
	switch s {
	case EscrowStatusPending:
		return "pending"
	case EscrowStatusInProgress:
		return "inProgress"
	case EscrowStatusCompleted:
		return "completed"
	case EscrowStatusCancelled:
		return "cancelled"
	case EscrowStatusChallenged:
		return "challenged"
	case EscrowStatusDisputed:
		return "disputed"
	case EscrowStatusSlashed:
		return "slashed"
	default:
		return "unknown"
	}
}

// Agent is the identity and reputation record of a marketplace participant.
// One record exists per owner; records are never deleted.
type Agent struct {
	Owner           common.Address `json:"owner"`
	Tier            AgentTier      `json:"tier"`
	TotalEarnings   uint64         `json:"totalEarnings"`   // Cumulative executor payouts (zap)
	TotalTasks      uint64         `json:"totalTasks"`      // Cumulative settled tasks
	ReputationScore uint16         `json:"reputationScore"` // 0-10000, defaults to 5000
	StakedAmount    uint64         `json:"stakedAmount"`    // Collateral held in the agent's vault (zap)
	SlashedCount    uint8          `json:"slashedCount"`
	Active          bool           `json:"active"`
	CreatedAt       uint64         `json:"createdAt"`
}

// eligibleForVerified reports whether the agent meets the tier 0 -> 1 gate.
func (a *Agent) eligibleForVerified() bool {
	return a.Tier == TierOpen && a.TotalEarnings >= params.Tier1EarningsThreshold
}

// eligibleForPremium reports whether the agent meets the tier 1 -> 2 gate.
func (a *Agent) eligibleForPremium() bool {
	return a.Tier == TierVerified &&
		a.TotalEarnings >= params.Tier2EarningsThreshold &&
		a.ReputationScore >= params.Tier2ReputationThreshold
}

// VaultAddress returns the deterministic custody address holding the agent's
// staked collateral.
func (a *Agent) VaultAddress() common.Address {
	return custodyAddress("agora/vault", a.Owner.Bytes())
}

// Listing is a priced service record in the catalog. The marketplace core
// reads price/deprecation/author and writes back call and revenue totals on
// settlement.
type Listing struct {
	ID           common.Hash    `json:"id"`
	Author       common.Address `json:"author"`
	ContentHash  common.Hash    `json:"contentHash"`
	Price        uint64         `json:"price"` // Per-call price in zap
	TotalCalls   uint64         `json:"totalCalls"`
	TotalRevenue uint64         `json:"totalRevenue"` // Cumulative royalties (zap)
	Version      uint8          `json:"version"`
	Deprecated   bool           `json:"deprecated"`
	CreatedAt    uint64         `json:"createdAt"`
}

// ProtocolConfig is the one-time protocol parameter record.
type ProtocolConfig struct {
	Authority      common.Address `json:"authority"` // Sole reputation/dispute adjudicator
	FeeBasisPoints uint16         `json:"feeBasisPoints"`
	Treasury       common.Address `json:"treasury"`
}

// Escrow is a custody record holding a buyer's payment pending task execution
// and settlement. The executor, result digest, challenger and challenge slot
// are only set once the record reaches the corresponding state.
type Escrow struct {
	ID            common.Hash     `json:"id"`
	Buyer         common.Address  `json:"buyer"`
	Listing       common.Hash     `json:"listing"`
	Executor      *common.Address `json:"executor"`
	Amount        uint64          `json:"amount"` // Immutable once funded (zap)
	Status        EscrowStatus    `json:"status"`
	CreatedAt     uint64          `json:"createdAt"`
	ExpiresAt     uint64          `json:"expiresAt"`
	Nonce         uint64          `json:"nonce"`
	ResultHash    *common.Hash    `json:"resultHash"`
	Challenger    *common.Address `json:"challenger"`
	ChallengeSlot *uint64         `json:"challengeSlot"` // Slot the challenge window opened at
}

// CustodyAddress returns the ledger account holding the escrowed funds.
func (e *Escrow) CustodyAddress() common.Address {
	return custodyAddress("agora/escrow", e.ID.Bytes())
}

// Settlement is the receipt of a completed three-way payout.
type Settlement struct {
	EscrowID       common.Hash    `json:"escrowId"`
	Executor       common.Address `json:"executor"`
	ProtocolFee    uint64         `json:"protocolFee"`
	Royalty        uint64         `json:"royalty"`
	ExecutorPayout uint64         `json:"executorPayout"`
}

// ListingID derives the deterministic catalog key of a listing from its
// author and the first eight bytes of its content digest.
func ListingID(author common.Address, contentHash common.Hash) common.Hash {
	h := sha256.New()
	h.Write([]byte("agora/listing"))
	h.Write(author.Bytes())
	h.Write(contentHash.Bytes()[:8])
	return common.BytesToHash(h.Sum(nil))
}

// EscrowID derives the deterministic key of an escrow record. The nonce lets
// one buyer hold multiple concurrent escrows against the same listing.
func EscrowID(buyer common.Address, listing common.Hash, nonce uint64) common.Hash {
	var nonceBytes [8]byte
	binary.BigEndian.PutUint64(nonceBytes[:], nonce)

	h := sha256.New()
	h.Write([]byte("agora/escrow"))
	h.Write(buyer.Bytes())
	h.Write(listing.Bytes())
	h.Write(nonceBytes[:])
	return common.BytesToHash(h.Sum(nil))
}

// custodyAddress derives the ledger account for a protocol-owned sub-account.
// No private key exists for these addresses; funds only move through the
// documented operations.
func custodyAddress(tag string, seed []byte) common.Address {
	return common.BytesToAddress(crypto.Keccak256([]byte(tag), seed)[12:])
}
