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
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/log"

	"github.com/agorachain/go-agora/params"
)

// SplitAmount computes the three-way settlement split for a total amount at
// the given protocol fee rate. The protocol fee and royalty legs are floored
// in the buyer's favor; the executor payout absorbs the rounding remainder by
// construction (subtraction, not an independent floor).
func SplitAmount(total uint64, feeBasisPoints uint16) (protocolFee, royalty, executorPayout uint64, err error) {
	feeProduct, overflow := math.SafeMul(total, uint64(feeBasisPoints))
	if overflow {
		return 0, 0, 0, ErrOverflow
	}
	protocolFee = feeProduct / params.BasisPointsDenominator

	royaltyProduct, overflow := math.SafeMul(total, params.RoyaltyBasisPoints)
	if overflow {
		return 0, 0, 0, ErrOverflow
	}
	royalty = royaltyProduct / params.BasisPointsDenominator

	remainder, underflow := math.SafeSub(total, protocolFee)
	if underflow {
		return 0, 0, 0, ErrOverflow
	}
	executorPayout, underflow = math.SafeSub(remainder, royalty)
	if underflow {
		return 0, 0, 0, ErrOverflow
	}
	return protocolFee, royalty, executorPayout, nil
}

// CreateEscrow funds a new custody record for one call against a listing.
// The buyer pays the listing price into the escrow's custody address. The
// nonce disambiguates concurrent escrows for the same buyer/listing pair.
func (m *Market) CreateEscrow(buyer common.Address, listingID common.Hash, nonce uint64, timestamp, slot uint64) (Escrow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	listing, ok := m.listings[listingID]
	if !ok {
		return Escrow{}, ErrListingNotFound
	}
	if listing.Deprecated {
		return Escrow{}, ErrListingDeprecated
	}
	if listing.Price == 0 {
		return Escrow{}, ErrInvalidPrice
	}
	id := EscrowID(buyer, listingID, nonce)
	if _, ok := m.escrows[id]; ok {
		return Escrow{}, ErrEscrowExists
	}

	escrow := &Escrow{
		ID:        id,
		Buyer:     buyer,
		Listing:   listingID,
		Amount:    listing.Price,
		Status:    EscrowStatusPending,
		CreatedAt: timestamp,
		ExpiresAt: timestamp + params.DefaultEscrowExpiry,
		Nonce:     nonce,
	}
	if err := m.ledger.Transfer(buyer, escrow.CustodyAddress(), listing.Price); err != nil {
		return Escrow{}, err
	}
	m.escrows[id] = escrow
	escrowCreatedMeter.Mark(1)

	log.Debug("Escrow created", "id", id, "buyer", buyer, "listing", listingID,
		"amount", escrow.Amount, "nonce", nonce, "slot", slot)
	return *escrow, nil
}

// CommitResult records the executor's result digest and opens the challenge
// window at the current slot. The caller declares itself executor; any party
// may commit while the escrow is pending or in progress.
func (m *Market) CommitResult(executor common.Address, id common.Hash, resultHash common.Hash, slot uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	escrow, ok := m.escrows[id]
	if !ok {
		return ErrEscrowNotFound
	}
	if escrow.Status != EscrowStatusPending && escrow.Status != EscrowStatusInProgress {
		return ErrInvalidEscrowStatus
	}
	commitSlot := slot
	escrow.Executor = &executor
	escrow.ResultHash = &resultHash
	escrow.ChallengeSlot = &commitSlot
	escrow.Status = EscrowStatusCompleted

	log.Debug("Result committed", "id", id, "executor", executor,
		"resultHash", resultHash, "windowOpen", slot)
	return nil
}

// Challenge contests a committed result. It is only accepted while the
// escrow is in the committed state and the current slot is within the
// challenge window; a challenge at exactly windowOpen+ChallengeWindowSlots
// still succeeds. The proof blob is stored opaque and unvalidated.
func (m *Market) Challenge(challenger common.Address, id common.Hash, proof [ProofSize]byte, slot uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	escrow, ok := m.escrows[id]
	if !ok {
		return ErrEscrowNotFound
	}
	if escrow.Status != EscrowStatusCompleted {
		return ErrInvalidEscrowStatus
	}
	if escrow.ChallengeSlot == nil {
		return ErrNoChallengeMarker
	}
	if slot > *escrow.ChallengeSlot+params.ChallengeWindowSlots {
		return ErrChallengeWindowExpired
	}
	escrow.Challenger = &challenger
	escrow.Status = EscrowStatusChallenged
	escrowChallengedMeter.Mark(1)

	log.Info("Escrow challenged", "id", id, "challenger", challenger,
		"windowOpen", *escrow.ChallengeSlot, "slot", slot)
	return nil
}

// ResolveChallenge rules on an open challenge. A winning challenge moves the
// escrow to the slashed terminal state, refunds the buyer's principal from
// custody and slashes the executor's stake with a bounty to the challenger.
// A losing challenge reverts the escrow to the committed state with the
// window marker untouched.
func (m *Market) ResolveChallenge(resolver common.Address, id common.Hash, challengerWins bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.protocol == nil {
		return ErrProtocolNotInitialized
	}
	if !m.adjudicator.CanResolve(resolver) {
		return ErrNotAuthority
	}
	escrow, ok := m.escrows[id]
	if !ok {
		return ErrEscrowNotFound
	}
	if escrow.Status != EscrowStatusChallenged {
		return ErrInvalidEscrowStatus
	}

	if !challengerWins {
		escrow.Status = EscrowStatusCompleted
		log.Info("Challenge resolved for executor", "id", id)
		return nil
	}

	// Challenged escrows always carry an executor and challenger: both are
	// set on the only edges into Completed and Challenged.
	executor := *escrow.Executor
	challenger := *escrow.Challenger
	agent, ok := m.agents[executor]
	if !ok {
		return ErrAgentNotFound
	}

	snapshot := m.ledger.Snapshot()
	if err := m.ledger.Transfer(escrow.CustodyAddress(), escrow.Buyer, escrow.Amount); err != nil {
		return err
	}
	slashAmount, err := m.slash(agent, challenger)
	if err != nil {
		m.ledger.RevertToSnapshot(snapshot)
		return err
	}
	escrow.Status = EscrowStatusSlashed
	escrowSlashedMeter.Mark(1)

	log.Info("Challenge resolved for challenger", "id", id, "executor", executor,
		"refund", escrow.Amount, "slashed", slashAmount)
	return nil
}

// CompleteEscrow settles a custody record: the held amount is split between
// the protocol treasury, the listing author and the executor, and the
// executor's earnings and the listing's call statistics are updated. Any
// arithmetic overflow aborts the whole operation with no partial transfer.
func (m *Market) CompleteEscrow(buyer common.Address, id common.Hash, executorOwner common.Address) (Settlement, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.protocol == nil {
		return Settlement{}, ErrProtocolNotInitialized
	}
	escrow, ok := m.escrows[id]
	if !ok {
		return Settlement{}, ErrEscrowNotFound
	}
	if escrow.Buyer != buyer {
		return Settlement{}, ErrNotBuyer
	}
	if escrow.Status != EscrowStatusPending && escrow.Status != EscrowStatusInProgress {
		return Settlement{}, ErrInvalidEscrowStatus
	}
	listing, ok := m.listings[escrow.Listing]
	if !ok {
		return Settlement{}, ErrListingNotFound
	}
	agent, ok := m.agents[executorOwner]
	if !ok {
		return Settlement{}, ErrAgentNotFound
	}

	total := escrow.Amount
	protocolFee, royalty, executorPayout, err := SplitAmount(total, m.protocol.FeeBasisPoints)
	if err != nil {
		return Settlement{}, err
	}

	// All bookkeeping is checked up front so the transfers below cannot be
	// followed by a failing mutation.
	newEarnings, overflow := math.SafeAdd(agent.TotalEarnings, executorPayout)
	if overflow {
		return Settlement{}, ErrOverflow
	}
	newTasks, overflow := math.SafeAdd(agent.TotalTasks, 1)
	if overflow {
		return Settlement{}, ErrOverflow
	}
	newCalls, overflow := math.SafeAdd(listing.TotalCalls, 1)
	if overflow {
		return Settlement{}, ErrOverflow
	}
	newRevenue, overflow := math.SafeAdd(listing.TotalRevenue, royalty)
	if overflow {
		return Settlement{}, ErrOverflow
	}

	custody := escrow.CustodyAddress()
	snapshot := m.ledger.Snapshot()
	for _, leg := range []struct {
		to     common.Address
		amount uint64
	}{
		{m.protocol.Treasury, protocolFee},
		{listing.Author, royalty},
		{executorOwner, executorPayout},
	} {
		if leg.amount == 0 {
			continue
		}
		if err := m.ledger.Transfer(custody, leg.to, leg.amount); err != nil {
			m.ledger.RevertToSnapshot(snapshot)
			return Settlement{}, err
		}
	}

	executor := agent.Owner
	escrow.Status = EscrowStatusCompleted
	escrow.Executor = &executor
	agent.TotalEarnings = newEarnings
	agent.TotalTasks = newTasks
	listing.TotalCalls = newCalls
	listing.TotalRevenue = newRevenue
	escrowSettledMeter.Mark(1)
	settledValueCounter.Inc(int64(total))

	log.Info("Escrow settled", "id", id, "protocolFee", protocolFee,
		"royalty", royalty, "executorPayout", executorPayout, "executor", executorOwner)
	return Settlement{
		EscrowID:       id,
		Executor:       executorOwner,
		ProtocolFee:    protocolFee,
		Royalty:        royalty,
		ExecutorPayout: executorPayout,
	}, nil
}

// CancelEscrow refunds a pending escrow in full and reclaims its storage.
// This is the only destructive transition; records in any other state are
// left untouched.
func (m *Market) CancelEscrow(buyer common.Address, id common.Hash) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	escrow, ok := m.escrows[id]
	if !ok {
		return ErrEscrowNotFound
	}
	if escrow.Buyer != buyer {
		return ErrNotBuyer
	}
	if escrow.Status != EscrowStatusPending {
		return ErrCancelNotPending
	}
	if err := m.ledger.Transfer(escrow.CustodyAddress(), buyer, escrow.Amount); err != nil {
		return err
	}
	delete(m.escrows, id)
	m.destroyed = append(m.destroyed, id)
	escrowCancelledMeter.Mark(1)

	log.Debug("Escrow cancelled", "id", id, "refund", escrow.Amount, "buyer", buyer)
	return nil
}
