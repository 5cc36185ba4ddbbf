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
	"encoding/binary"
	"errors"

	mapset "github.com/deckarep/golang-set"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"
	lru "github.com/hashicorp/golang-lru"

	"github.com/agorachain/go-agora/core/ledger"
	"github.com/agorachain/go-agora/params"
)

var (
	ErrAgoraNotEnabled = errors.New("agora marketplace not enabled")
	ErrInvalidAgoraOp  = errors.New("invalid agora operation")
)

// Marketplace operation types encoded in transaction data.
const (
	OpRegisterAgent    byte = 0x01
	OpStake            byte = 0x02
	OpUnstake          byte = 0x03
	OpUpgradeTier      byte = 0x04
	OpCreateEscrow     byte = 0x10
	OpCommitResult     byte = 0x11
	OpCompleteEscrow   byte = 0x12
	OpCancelEscrow     byte = 0x13
	OpChallenge        byte = 0x14
	OpResolveChallenge byte = 0x15
)

// Manager coordinates the marketplace engine with the host environment. It
// parses marketplace transactions, tracks open escrows and keeps a cache of
// recent settlement receipts for API queries.
type Manager struct {
	config *params.AgoraConfig
	market *Market

	openEscrows mapset.Set // escrow IDs currently holding funds
	settlements *lru.Cache // escrow ID -> *Settlement
}

// NewManager creates a new marketplace manager.
func NewManager(config *params.AgoraConfig, l *ledger.Ledger) *Manager {
	if config == nil {
		defaults := params.DefaultAgoraConfig
		config = &defaults
	}
	cacheSize := config.SettlementCacheSize
	if cacheSize <= 0 {
		cacheSize = params.DefaultAgoraConfig.SettlementCacheSize
	}
	settlements, _ := lru.New(cacheSize)
	return &Manager{
		config:      config,
		market:      NewMarket(l),
		openEscrows: mapset.NewSet(),
		settlements: settlements,
	}
}

// Market returns the underlying marketplace engine for direct access.
func (mgr *Manager) Market() *Market {
	return mgr.market
}

// OpenEscrowCount returns the number of escrows currently holding funds.
func (mgr *Manager) OpenEscrowCount() int {
	return mgr.openEscrows.Cardinality()
}

// Settlement returns the cached settlement receipt for an escrow, if any.
func (mgr *Manager) Settlement(id common.Hash) (*Settlement, bool) {
	if cached, ok := mgr.settlements.Get(id); ok {
		return cached.(*Settlement), true
	}
	return nil, false
}

// RebuildIndexes repopulates the open escrow set after a state restore. An
// escrow counts as open while its custody account still holds funds. The
// settlement receipt cache is not persisted; it refills as settlements happen.
func (mgr *Manager) RebuildIndexes() {
	mgr.openEscrows.Clear()
	for _, escrow := range mgr.market.Escrows() {
		if mgr.market.Ledger().BalanceOf(escrow.CustodyAddress()) > 0 {
			mgr.openEscrows.Add(escrow.ID)
		}
	}
}

// ProcessTransaction parses and executes one marketplace transaction. The
// first data byte selects the operation; the remainder is a fixed-width
// payload. The from address is the verified signer supplied by the host.
func (mgr *Manager) ProcessTransaction(from common.Address, data []byte, timestamp, slot uint64) error {
	if !mgr.config.Enabled {
		return ErrAgoraNotEnabled
	}
	if len(data) < 1 {
		return ErrInvalidAgoraOp
	}

	switch data[0] {
	case OpRegisterAgent:
		_, err := mgr.market.RegisterAgent(from, timestamp)
		return err
	case OpStake:
		return mgr.processStake(from, data[1:], true)
	case OpUnstake:
		return mgr.processStake(from, data[1:], false)
	case OpUpgradeTier:
		_, err := mgr.market.UpgradeTier(from)
		return err
	case OpCreateEscrow:
		return mgr.processCreateEscrow(from, data[1:], timestamp, slot)
	case OpCommitResult:
		return mgr.processCommitResult(from, data[1:], slot)
	case OpCompleteEscrow:
		return mgr.processCompleteEscrow(from, data[1:])
	case OpCancelEscrow:
		return mgr.processCancelEscrow(from, data[1:])
	case OpChallenge:
		return mgr.processChallenge(from, data[1:], slot)
	case OpResolveChallenge:
		return mgr.processResolveChallenge(from, data[1:])
	default:
		return ErrInvalidAgoraOp
	}
}

// processStake decodes a stake or unstake operation.
// Data format: [amount(8)]
func (mgr *Manager) processStake(from common.Address, data []byte, stake bool) error {
	if len(data) < 8 {
		return ErrInvalidAgoraOp
	}
	amount := binary.BigEndian.Uint64(data[:8])
	if stake {
		return mgr.market.Stake(from, amount)
	}
	return mgr.market.Unstake(from, amount)
}

// processCreateEscrow decodes and executes an escrow creation.
// Data format: [listingID(32)] [nonce(8)]
func (mgr *Manager) processCreateEscrow(from common.Address, data []byte, timestamp, slot uint64) error {
	if len(data) < 40 {
		return ErrInvalidAgoraOp
	}
	listingID := common.BytesToHash(data[:32])
	nonce := binary.BigEndian.Uint64(data[32:40])

	escrow, err := mgr.market.CreateEscrow(from, listingID, nonce, timestamp, slot)
	if err != nil {
		return err
	}
	mgr.openEscrows.Add(escrow.ID)

	log.Debug("Agora escrow opened", "id", escrow.ID.Hex(), "open", mgr.openEscrows.Cardinality())
	return nil
}

// processCommitResult decodes a result commitment.
// Data format: [escrowID(32)] [resultHash(32)]
func (mgr *Manager) processCommitResult(from common.Address, data []byte, slot uint64) error {
	if len(data) < 64 {
		return ErrInvalidAgoraOp
	}
	id := common.BytesToHash(data[:32])
	resultHash := common.BytesToHash(data[32:64])
	return mgr.market.CommitResult(from, id, resultHash, slot)
}

// processCompleteEscrow decodes a settlement.
// Data format: [escrowID(32)] [executor(20)]
func (mgr *Manager) processCompleteEscrow(from common.Address, data []byte) error {
	if len(data) < 52 {
		return ErrInvalidAgoraOp
	}
	id := common.BytesToHash(data[:32])
	executor := common.BytesToAddress(data[32:52])

	settlement, err := mgr.market.CompleteEscrow(from, id, executor)
	if err != nil {
		return err
	}
	mgr.openEscrows.Remove(id)
	mgr.settlements.Add(id, &settlement)
	return nil
}

// processCancelEscrow decodes a cancellation.
// Data format: [escrowID(32)]
func (mgr *Manager) processCancelEscrow(from common.Address, data []byte) error {
	if len(data) < 32 {
		return ErrInvalidAgoraOp
	}
	id := common.BytesToHash(data[:32])
	if err := mgr.market.CancelEscrow(from, id); err != nil {
		return err
	}
	mgr.openEscrows.Remove(id)
	return nil
}

// processChallenge decodes a challenge submission.
// Data format: [escrowID(32)] [proof(64)]
func (mgr *Manager) processChallenge(from common.Address, data []byte, slot uint64) error {
	if len(data) < 32+ProofSize {
		return ErrInvalidAgoraOp
	}
	id := common.BytesToHash(data[:32])
	var proof [ProofSize]byte
	copy(proof[:], data[32:32+ProofSize])
	return mgr.market.Challenge(from, id, proof, slot)
}

// processResolveChallenge decodes a challenge resolution.
// Data format: [escrowID(32)] [challengerWins(1)]
func (mgr *Manager) processResolveChallenge(from common.Address, data []byte) error {
	if len(data) < 33 {
		return ErrInvalidAgoraOp
	}
	id := common.BytesToHash(data[:32])
	challengerWins := data[32] != 0

	if err := mgr.market.ResolveChallenge(from, id, challengerWins); err != nil {
		return err
	}
	if challengerWins {
		mgr.openEscrows.Remove(id)
	}
	return nil
}
