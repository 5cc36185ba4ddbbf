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
	"errors"
	"reflect"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"github.com/agorachain/go-agora/agoradb"
	"github.com/agorachain/go-agora/agoradb/memorydb"
	"github.com/agorachain/go-agora/core/agora"
	"github.com/agorachain/go-agora/core/ledger"
	"github.com/agorachain/go-agora/params"
)

func TestAgentStorage(t *testing.T) {
	db := memorydb.New()
	owner := common.HexToAddress("0x0000000000000000000000000000000000000011")

	if agent := ReadAgent(db, owner); agent != nil {
		t.Fatalf("non existent agent returned: %v", agent)
	}
	agent := &agora.Agent{
		Owner:           owner,
		Tier:            agora.TierVerified,
		TotalEarnings:   3 * params.Agora,
		TotalTasks:      17,
		ReputationScore: 6400,
		StakedAmount:    150_000_000,
		SlashedCount:    1,
		Active:          true,
		CreatedAt:       987654,
	}
	WriteAgent(db, agent)
	if stored := ReadAgent(db, owner); !reflect.DeepEqual(stored, agent) {
		t.Fatalf("stored agent mismatch: have %+v, want %+v", stored, agent)
	}
}

func TestListingStorage(t *testing.T) {
	db := memorydb.New()
	listing := &agora.Listing{
		ID:           common.HexToHash("0xdeadbeef"),
		Author:       common.HexToAddress("0x0000000000000000000000000000000000000022"),
		ContentHash:  common.HexToHash("0xcafebabe"),
		Price:        2 * params.Agora,
		TotalCalls:   9,
		TotalRevenue: 1_800_000_000,
		Version:      3,
		Deprecated:   true,
		CreatedAt:    42,
	}

	if stored := ReadListing(db, listing.ID); stored != nil {
		t.Fatalf("non existent listing returned: %v", stored)
	}
	WriteListing(db, listing)
	if stored := ReadListing(db, listing.ID); !reflect.DeepEqual(stored, listing) {
		t.Fatalf("stored listing mismatch: have %+v, want %+v", stored, listing)
	}
}

func TestEscrowStorage(t *testing.T) {
	db := memorydb.New()

	// A fresh escrow has none of the late-bound fields set.
	pending := &agora.Escrow{
		ID:        common.HexToHash("0x01"),
		Buyer:     common.HexToAddress("0x0000000000000000000000000000000000000033"),
		Listing:   common.HexToHash("0x02"),
		Amount:    1 * params.Agora,
		Status:    agora.EscrowStatusPending,
		CreatedAt: 100,
		ExpiresAt: 100 + params.DefaultEscrowExpiry,
		Nonce:     5,
	}
	WriteEscrow(db, pending)
	stored := ReadEscrow(db, pending.ID)
	if !reflect.DeepEqual(stored, pending) {
		t.Fatalf("stored escrow mismatch: have %+v, want %+v", stored, pending)
	}
	if stored.Executor != nil || stored.ResultHash != nil || stored.Challenger != nil || stored.ChallengeSlot != nil {
		t.Fatal("unset optional fields came back non-nil")
	}

	// A challenged escrow carries all of them.
	executor := common.HexToAddress("0x0000000000000000000000000000000000000044")
	challenger := common.HexToAddress("0x0000000000000000000000000000000000000055")
	resultHash := common.HexToHash("0x03")
	slot := uint64(1234)
	challenged := &agora.Escrow{
		ID:            common.HexToHash("0x04"),
		Buyer:         pending.Buyer,
		Listing:       pending.Listing,
		Executor:      &executor,
		Amount:        2 * params.Agora,
		Status:        agora.EscrowStatusChallenged,
		CreatedAt:     200,
		ExpiresAt:     200 + params.DefaultEscrowExpiry,
		Nonce:         6,
		ResultHash:    &resultHash,
		Challenger:    &challenger,
		ChallengeSlot: &slot,
	}
	WriteEscrow(db, challenged)
	if stored := ReadEscrow(db, challenged.ID); !reflect.DeepEqual(stored, challenged) {
		t.Fatalf("stored escrow mismatch: have %+v, want %+v", stored, challenged)
	}

	DeleteEscrow(db, pending.ID)
	if stored := ReadEscrow(db, pending.ID); stored != nil {
		t.Fatalf("deleted escrow returned: %v", stored)
	}
}

func TestProtocolConfigStorage(t *testing.T) {
	db := memorydb.New()
	if config := ReadProtocolConfig(db); config != nil {
		t.Fatalf("non existent config returned: %v", config)
	}
	config := &agora.ProtocolConfig{
		Authority:      common.HexToAddress("0x0000000000000000000000000000000000000066"),
		FeeBasisPoints: 250,
		Treasury:       common.HexToAddress("0x0000000000000000000000000000000000000077"),
	}
	WriteProtocolConfig(db, config)
	if stored := ReadProtocolConfig(db); !reflect.DeepEqual(stored, config) {
		t.Fatalf("stored config mismatch: have %+v, want %+v", stored, config)
	}
}

func TestCommitLoadMarket(t *testing.T) {
	var (
		db        = memorydb.New()
		authority = common.HexToAddress("0x00000000000000000000000000000000000000aa")
		treasury  = common.HexToAddress("0x00000000000000000000000000000000000000bb")
		buyer     = common.HexToAddress("0x00000000000000000000000000000000000000cc")
		author    = common.HexToAddress("0x00000000000000000000000000000000000000dd")
		executor  = common.HexToAddress("0x00000000000000000000000000000000000000ee")
		content   = common.HexToHash("0x05")
	)
	market := agora.NewMarket(ledger.New())
	if err := market.InitProtocol(authority, 0, treasury); err != nil {
		t.Fatalf("init protocol: %v", err)
	}
	if err := market.Ledger().Mint(buyer, 10*params.Agora); err != nil {
		t.Fatalf("mint: %v", err)
	}
	if _, err := market.RegisterAgent(executor, 1); err != nil {
		t.Fatalf("register agent: %v", err)
	}
	listing, err := market.RegisterListing(author, content, 1*params.Agora, 1)
	if err != nil {
		t.Fatalf("register listing: %v", err)
	}
	kept, err := market.CreateEscrow(buyer, listing.ID, 0, 100, 1)
	if err != nil {
		t.Fatalf("create escrow: %v", err)
	}
	cancelled, err := market.CreateEscrow(buyer, listing.ID, 1, 100, 1)
	if err != nil {
		t.Fatalf("create second escrow: %v", err)
	}

	// Persist with both escrows live, then cancel one and commit again: the
	// reclaimed key must disappear from the database.
	if err := CommitMarket(db, market); err != nil {
		t.Fatalf("first commit: %v", err)
	}
	if err := market.CancelEscrow(buyer, cancelled.ID); err != nil {
		t.Fatalf("cancel escrow: %v", err)
	}
	if err := CommitMarket(db, market); err != nil {
		t.Fatalf("second commit: %v", err)
	}
	if stored := ReadEscrow(db, cancelled.ID); stored != nil {
		t.Fatal("cancelled escrow survived the commit")
	}

	restored := agora.NewMarket(ledger.New())
	if err := LoadMarket(db, restored); err != nil {
		t.Fatalf("load market: %v", err)
	}
	protocol, err := restored.Protocol()
	if err != nil {
		t.Fatalf("restored protocol: %v", err)
	}
	if protocol.Authority != authority || protocol.Treasury != treasury {
		t.Error("protocol parameters not restored")
	}
	agent, err := restored.GetAgent(executor)
	if err != nil {
		t.Fatalf("restored agent: %v", err)
	}
	if agent.ReputationScore != params.DefaultReputation {
		t.Errorf("agent reputation: have %d, want %d", agent.ReputationScore, params.DefaultReputation)
	}
	if _, err := restored.GetListing(listing.ID); err != nil {
		t.Fatalf("restored listing: %v", err)
	}
	escrow, err := restored.GetEscrow(kept.ID)
	if err != nil {
		t.Fatalf("restored escrow: %v", err)
	}
	if !reflect.DeepEqual(escrow, kept) {
		t.Fatalf("restored escrow mismatch: have %+v, want %+v", escrow, kept)
	}
	if _, err := restored.GetEscrow(cancelled.ID); err != agora.ErrEscrowNotFound {
		t.Fatalf("cancelled escrow: have %v, want %v", err, agora.ErrEscrowNotFound)
	}

	// The ledger travels with the records: the restored custody account holds
	// exactly what the escrow claims, so it stays serviceable after restart.
	if have := restored.Ledger().BalanceOf(escrow.CustodyAddress()); have != kept.Amount {
		t.Fatalf("restored custody balance: have %d, want %d", have, kept.Amount)
	}
	if restored.Ledger().TotalSupply() != market.Ledger().TotalSupply() {
		t.Error("restore changed the total supply")
	}
	buyerBefore := restored.Ledger().BalanceOf(buyer)
	if err := restored.CancelEscrow(buyer, kept.ID); err != nil {
		t.Fatalf("cancel restored escrow: %v", err)
	}
	if have := restored.Ledger().BalanceOf(buyer); have != buyerBefore+kept.Amount {
		t.Fatalf("refund after restore: have %d, want %d", have, buyerBefore+kept.Amount)
	}
}

var errWriteFailed = errors.New("write failed")

// failingBatch accepts writes but refuses to flush them.
type failingBatch struct{ agoradb.Batch }

func (b failingBatch) Write() error { return errWriteFailed }

// failingStore hands out batches whose final write fails.
type failingStore struct{ *memorydb.Database }

func (s failingStore) NewBatch() agoradb.Batch { return failingBatch{s.Database.NewBatch()} }

func TestCommitMarketRetainsReclaimedKeys(t *testing.T) {
	var (
		db     = memorydb.New()
		buyer  = common.HexToAddress("0x00000000000000000000000000000000000000cc")
		author = common.HexToAddress("0x00000000000000000000000000000000000000dd")
	)
	market := agora.NewMarket(ledger.New())
	if err := market.Ledger().Mint(buyer, 10*params.Agora); err != nil {
		t.Fatalf("mint: %v", err)
	}
	listing, err := market.RegisterListing(author, common.HexToHash("0x06"), 1*params.Agora, 1)
	if err != nil {
		t.Fatalf("register listing: %v", err)
	}
	escrow, err := market.CreateEscrow(buyer, listing.ID, 0, 100, 1)
	if err != nil {
		t.Fatalf("create escrow: %v", err)
	}
	if err := CommitMarket(db, market); err != nil {
		t.Fatalf("initial commit: %v", err)
	}
	if err := market.CancelEscrow(buyer, escrow.ID); err != nil {
		t.Fatalf("cancel escrow: %v", err)
	}

	// A failed commit must not swallow the reclaimed key; the retry deletes it.
	if err := CommitMarket(failingStore{db}, market); err != errWriteFailed {
		t.Fatalf("failing commit: have %v, want %v", err, errWriteFailed)
	}
	if err := CommitMarket(db, market); err != nil {
		t.Fatalf("retry commit: %v", err)
	}
	if stored := ReadEscrow(db, escrow.ID); stored != nil {
		t.Fatal("cancelled escrow survived the retried commit")
	}
}
