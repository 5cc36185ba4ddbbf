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

package rawdb

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/rlp"

	"github.com/agorachain/go-agora/agoradb"
	"github.com/agorachain/go-agora/core/agora"
)

// storedEscrow is the RLP representation of an escrow record. RLP has no
// native optional fields, so each late-bound field carries a presence flag.
type storedEscrow struct {
	ID               common.Hash
	Buyer            common.Address
	Listing          common.Hash
	Amount           uint64
	Status           uint8
	CreatedAt        uint64
	ExpiresAt        uint64
	Nonce            uint64
	HasExecutor      bool
	Executor         common.Address
	HasResultHash    bool
	ResultHash       common.Hash
	HasChallenger    bool
	Challenger       common.Address
	HasChallengeSlot bool
	ChallengeSlot    uint64
}

func toStoredEscrow(escrow *agora.Escrow) *storedEscrow {
	stored := &storedEscrow{
		ID:        escrow.ID,
		Buyer:     escrow.Buyer,
		Listing:   escrow.Listing,
		Amount:    escrow.Amount,
		Status:    uint8(escrow.Status),
		CreatedAt: escrow.CreatedAt,
		ExpiresAt: escrow.ExpiresAt,
		Nonce:     escrow.Nonce,
	}
	if escrow.Executor != nil {
		stored.HasExecutor, stored.Executor = true, *escrow.Executor
	}
	if escrow.ResultHash != nil {
		stored.HasResultHash, stored.ResultHash = true, *escrow.ResultHash
	}
	if escrow.Challenger != nil {
		stored.HasChallenger, stored.Challenger = true, *escrow.Challenger
	}
	if escrow.ChallengeSlot != nil {
		stored.HasChallengeSlot, stored.ChallengeSlot = true, *escrow.ChallengeSlot
	}
	return stored
}

func (stored *storedEscrow) toEscrow() *agora.Escrow {
	escrow := &agora.Escrow{
		ID:        stored.ID,
		Buyer:     stored.Buyer,
		Listing:   stored.Listing,
		Amount:    stored.Amount,
		Status:    agora.EscrowStatus(stored.Status),
		CreatedAt: stored.CreatedAt,
		ExpiresAt: stored.ExpiresAt,
		Nonce:     stored.Nonce,
	}
	if stored.HasExecutor {
		executor := stored.Executor
		escrow.Executor = &executor
	}
	if stored.HasResultHash {
		resultHash := stored.ResultHash
		escrow.ResultHash = &resultHash
	}
	if stored.HasChallenger {
		challenger := stored.Challenger
		escrow.Challenger = &challenger
	}
	if stored.HasChallengeSlot {
		slot := stored.ChallengeSlot
		escrow.ChallengeSlot = &slot
	}
	return escrow
}

// ReadProtocolConfig retrieves the protocol parameter record, or nil if the
// protocol was never initialized.
func ReadProtocolConfig(db agoradb.KeyValueReader) *agora.ProtocolConfig {
	data, _ := db.Get(protocolConfigKey)
	if len(data) == 0 {
		return nil
	}
	config := new(agora.ProtocolConfig)
	if err := rlp.DecodeBytes(data, config); err != nil {
		log.Error("Invalid protocol config RLP", "err", err)
		return nil
	}
	return config
}

// WriteProtocolConfig stores the protocol parameter record.
func WriteProtocolConfig(db agoradb.KeyValueWriter, config *agora.ProtocolConfig) {
	data, err := rlp.EncodeToBytes(config)
	if err != nil {
		log.Crit("Failed to RLP encode protocol config", "err", err)
	}
	if err := db.Put(protocolConfigKey, data); err != nil {
		log.Crit("Failed to store protocol config", "err", err)
	}
}

// ReadAgent retrieves the agent record of the given owner, or nil if absent.
func ReadAgent(db agoradb.KeyValueReader, owner common.Address) *agora.Agent {
	data, _ := db.Get(agentKey(owner))
	if len(data) == 0 {
		return nil
	}
	agent := new(agora.Agent)
	if err := rlp.DecodeBytes(data, agent); err != nil {
		log.Error("Invalid agent RLP", "owner", owner, "err", err)
		return nil
	}
	return agent
}

// WriteAgent stores an agent record.
func WriteAgent(db agoradb.KeyValueWriter, agent *agora.Agent) {
	data, err := rlp.EncodeToBytes(agent)
	if err != nil {
		log.Crit("Failed to RLP encode agent", "err", err)
	}
	if err := db.Put(agentKey(agent.Owner), data); err != nil {
		log.Crit("Failed to store agent", "err", err)
	}
	agentWriteCounter.Inc(1)
}

// ReadListing retrieves a listing record, or nil if absent.
func ReadListing(db agoradb.KeyValueReader, id common.Hash) *agora.Listing {
	data, _ := db.Get(listingKey(id))
	if len(data) == 0 {
		return nil
	}
	listing := new(agora.Listing)
	if err := rlp.DecodeBytes(data, listing); err != nil {
		log.Error("Invalid listing RLP", "id", id, "err", err)
		return nil
	}
	return listing
}

// WriteListing stores a listing record.
func WriteListing(db agoradb.KeyValueWriter, listing *agora.Listing) {
	data, err := rlp.EncodeToBytes(listing)
	if err != nil {
		log.Crit("Failed to RLP encode listing", "err", err)
	}
	if err := db.Put(listingKey(listing.ID), data); err != nil {
		log.Crit("Failed to store listing", "err", err)
	}
	listingWriteCounter.Inc(1)
}

// ReadEscrow retrieves an escrow record, or nil if absent.
func ReadEscrow(db agoradb.KeyValueReader, id common.Hash) *agora.Escrow {
	data, _ := db.Get(escrowKey(id))
	if len(data) == 0 {
		return nil
	}
	stored := new(storedEscrow)
	if err := rlp.DecodeBytes(data, stored); err != nil {
		log.Error("Invalid escrow RLP", "id", id, "err", err)
		return nil
	}
	return stored.toEscrow()
}

// WriteEscrow stores an escrow record.
func WriteEscrow(db agoradb.KeyValueWriter, escrow *agora.Escrow) {
	data, err := rlp.EncodeToBytes(toStoredEscrow(escrow))
	if err != nil {
		log.Crit("Failed to RLP encode escrow", "err", err)
	}
	if err := db.Put(escrowKey(escrow.ID), data); err != nil {
		log.Crit("Failed to store escrow", "err", err)
	}
	escrowWriteCounter.Inc(1)
}

// DeleteEscrow removes a reclaimed escrow record.
func DeleteEscrow(db agoradb.KeyValueWriter, id common.Hash) {
	if err := db.Delete(escrowKey(id)); err != nil {
		log.Crit("Failed to delete escrow", "err", err)
	}
}

// ReadBalance retrieves one ledger account balance, or zero if absent.
func ReadBalance(db agoradb.KeyValueReader, addr common.Address) uint64 {
	data, _ := db.Get(balanceKey(addr))
	if len(data) == 0 {
		return 0
	}
	var balance uint64
	if err := rlp.DecodeBytes(data, &balance); err != nil {
		log.Error("Invalid balance RLP", "addr", addr, "err", err)
		return 0
	}
	return balance
}

// WriteBalance stores one ledger account balance.
func WriteBalance(db agoradb.KeyValueWriter, addr common.Address, balance uint64) {
	data, err := rlp.EncodeToBytes(balance)
	if err != nil {
		log.Crit("Failed to RLP encode balance", "err", err)
	}
	if err := db.Put(balanceKey(addr), data); err != nil {
		log.Crit("Failed to store balance", "err", err)
	}
}

// CommitMarket persists a snapshot of the full marketplace state in a single
// batch write: protocol parameters, every agent, listing and live escrow, the
// ledger balances backing them, and the deletion of escrow keys reclaimed
// since the last commit. The reclaimed keys are re-queued if the write fails,
// so the deletions are retried on the next commit.
func CommitMarket(db agoradb.KeyValueStore, market *agora.Market) error {
	batch := db.NewBatch()
	if protocol, err := market.Protocol(); err == nil {
		WriteProtocolConfig(batch, &protocol)
	}
	for _, agent := range market.Agents() {
		WriteAgent(batch, &agent)
	}
	for _, listing := range market.Listings() {
		WriteListing(batch, &listing)
	}
	for _, escrow := range market.Escrows() {
		WriteEscrow(batch, &escrow)
	}
	for addr, balance := range market.Ledger().Balances() {
		WriteBalance(batch, addr, balance)
	}
	destroyed := market.Destroyed()
	for _, id := range destroyed {
		DeleteEscrow(batch, id)
	}
	if err := batch.Write(); err != nil {
		market.RequeueDestroyed(destroyed)
		return err
	}
	return nil
}

// LoadMarket restores the marketplace state from the database into the given
// market: records and the ledger balances backing them, so custody accounts
// hold exactly what the restored escrows and vaults claim. A missing protocol
// record is not an error; the market simply starts uninitialized.
func LoadMarket(db agoradb.KeyValueStore, market *agora.Market) error {
	var agents []agora.Agent
	it := db.NewIterator(agentPrefix, nil)
	for it.Next() {
		agent := new(agora.Agent)
		if err := rlp.DecodeBytes(it.Value(), agent); err != nil {
			it.Release()
			return err
		}
		agents = append(agents, *agent)
	}
	it.Release()
	if err := it.Error(); err != nil {
		return err
	}

	var listings []agora.Listing
	it = db.NewIterator(listingPrefix, nil)
	for it.Next() {
		listing := new(agora.Listing)
		if err := rlp.DecodeBytes(it.Value(), listing); err != nil {
			it.Release()
			return err
		}
		listings = append(listings, *listing)
	}
	it.Release()
	if err := it.Error(); err != nil {
		return err
	}

	var escrows []agora.Escrow
	it = db.NewIterator(escrowPrefix, nil)
	for it.Next() {
		stored := new(storedEscrow)
		if err := rlp.DecodeBytes(it.Value(), stored); err != nil {
			it.Release()
			return err
		}
		escrows = append(escrows, *stored.toEscrow())
	}
	it.Release()
	if err := it.Error(); err != nil {
		return err
	}

	balances := make(map[common.Address]uint64)
	it = db.NewIterator(balancePrefix, nil)
	for it.Next() {
		var balance uint64
		if err := rlp.DecodeBytes(it.Value(), &balance); err != nil {
			it.Release()
			return err
		}
		balances[common.BytesToAddress(it.Key()[len(balancePrefix):])] = balance
	}
	it.Release()
	if err := it.Error(); err != nil {
		return err
	}

	market.Restore(ReadProtocolConfig(db), agents, listings, escrows)
	market.Ledger().Restore(balances)
	log.Info("Loaded marketplace state", "agents", len(agents),
		"listings", len(listings), "escrows", len(escrows), "accounts", len(balances))
	return nil
}
