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
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"github.com/agorachain/go-agora/core/ledger"
	"github.com/agorachain/go-agora/params"
)

// newTestManager returns a manager with initialized protocol parameters, a
// funded buyer, a registered executor and one listing priced at 1 AGO.
func newTestManager(t *testing.T) (*Manager, Listing) {
	t.Helper()
	manager := NewManager(nil, ledger.New())
	m := manager.Market()
	if err := m.InitProtocol(testAuthority, 0, testTreasury); err != nil {
		t.Fatalf("init protocol: %v", err)
	}
	fund(t, m, testBuyer, 10*params.Agora)
	if _, err := m.RegisterAgent(testExecutor, 1); err != nil {
		t.Fatalf("register executor: %v", err)
	}
	listing, err := m.RegisterListing(testAuthor, testContentHash, 1*params.Agora, 1)
	if err != nil {
		t.Fatalf("register listing: %v", err)
	}
	return manager, listing
}

func createEscrowData(listingID common.Hash, nonce uint64) []byte {
	data := make([]byte, 0, 41)
	data = append(data, OpCreateEscrow)
	data = append(data, listingID.Bytes()...)
	var nonceBytes [8]byte
	binary.BigEndian.PutUint64(nonceBytes[:], nonce)
	return append(data, nonceBytes[:]...)
}

func TestProcessTransactionDisabled(t *testing.T) {
	config := params.DefaultAgoraConfig
	config.Enabled = false
	manager := NewManager(&config, ledger.New())

	err := manager.ProcessTransaction(testBuyer, []byte{OpRegisterAgent}, 1, 1)
	if err != ErrAgoraNotEnabled {
		t.Fatalf("have %v, want %v", err, ErrAgoraNotEnabled)
	}
}

func TestProcessTransactionInvalidOp(t *testing.T) {
	manager, _ := newTestManager(t)

	if err := manager.ProcessTransaction(testBuyer, nil, 1, 1); err != ErrInvalidAgoraOp {
		t.Fatalf("empty data: have %v, want %v", err, ErrInvalidAgoraOp)
	}
	if err := manager.ProcessTransaction(testBuyer, []byte{0xff}, 1, 1); err != ErrInvalidAgoraOp {
		t.Fatalf("unknown op: have %v, want %v", err, ErrInvalidAgoraOp)
	}
	// Truncated payloads are rejected before any market call.
	if err := manager.ProcessTransaction(testBuyer, []byte{OpStake, 1, 2}, 1, 1); err != ErrInvalidAgoraOp {
		t.Fatalf("short stake: have %v, want %v", err, ErrInvalidAgoraOp)
	}
	if err := manager.ProcessTransaction(testBuyer, []byte{OpCreateEscrow}, 1, 1); err != ErrInvalidAgoraOp {
		t.Fatalf("short create: have %v, want %v", err, ErrInvalidAgoraOp)
	}
}

func TestProcessTransactionRegisterAndStake(t *testing.T) {
	manager, _ := newTestManager(t)
	m := manager.Market()
	fund(t, m, testChallenger, params.MinStakeAmount)

	if err := manager.ProcessTransaction(testChallenger, []byte{OpRegisterAgent}, 100, 1); err != nil {
		t.Fatalf("register: %v", err)
	}
	data := make([]byte, 9)
	data[0] = OpStake
	binary.BigEndian.PutUint64(data[1:], params.MinStakeAmount)
	if err := manager.ProcessTransaction(testChallenger, data, 100, 1); err != nil {
		t.Fatalf("stake: %v", err)
	}
	agent, err := m.GetAgent(testChallenger)
	if err != nil {
		t.Fatalf("get agent: %v", err)
	}
	if agent.StakedAmount != params.MinStakeAmount || !agent.Active {
		t.Errorf("stake not applied: amount %d, active %v", agent.StakedAmount, agent.Active)
	}

	data[0] = OpUnstake
	binary.BigEndian.PutUint64(data[1:], 1)
	if err := manager.ProcessTransaction(testChallenger, data, 100, 1); err != nil {
		t.Fatalf("unstake: %v", err)
	}
	agent, _ = m.GetAgent(testChallenger)
	if agent.Active {
		t.Error("agent still active below minimum stake")
	}
}

func TestProcessTransactionEscrowFlow(t *testing.T) {
	manager, listing := newTestManager(t)
	m := manager.Market()

	if err := manager.ProcessTransaction(testBuyer, createEscrowData(listing.ID, 7), 1000, 5); err != nil {
		t.Fatalf("create escrow: %v", err)
	}
	if have := manager.OpenEscrowCount(); have != 1 {
		t.Fatalf("open escrows: have %d, want 1", have)
	}
	id := EscrowID(testBuyer, listing.ID, 7)
	if _, err := m.GetEscrow(id); err != nil {
		t.Fatalf("escrow not created: %v", err)
	}

	data := make([]byte, 0, 53)
	data = append(data, OpCompleteEscrow)
	data = append(data, id.Bytes()...)
	data = append(data, testExecutor.Bytes()...)
	if err := manager.ProcessTransaction(testBuyer, data, 1001, 6); err != nil {
		t.Fatalf("complete escrow: %v", err)
	}
	if have := manager.OpenEscrowCount(); have != 0 {
		t.Fatalf("open escrows after settle: have %d, want 0", have)
	}
	settlement, ok := manager.Settlement(id)
	if !ok {
		t.Fatal("settlement receipt not cached")
	}
	if settlement.ExecutorPayout != 850_000_000 {
		t.Errorf("payout: have %d, want 850000000", settlement.ExecutorPayout)
	}
}

func TestProcessTransactionCancel(t *testing.T) {
	manager, listing := newTestManager(t)

	if err := manager.ProcessTransaction(testBuyer, createEscrowData(listing.ID, 0), 1000, 5); err != nil {
		t.Fatalf("create escrow: %v", err)
	}
	id := EscrowID(testBuyer, listing.ID, 0)

	data := append([]byte{OpCancelEscrow}, id.Bytes()...)
	if err := manager.ProcessTransaction(testBuyer, data, 1001, 6); err != nil {
		t.Fatalf("cancel escrow: %v", err)
	}
	if have := manager.OpenEscrowCount(); have != 0 {
		t.Fatalf("open escrows after cancel: have %d, want 0", have)
	}
}

func TestRebuildIndexes(t *testing.T) {
	manager, listing := newTestManager(t)
	m := manager.Market()

	// Escrows arriving behind the manager's back, as after a state restore.
	open, err := m.CreateEscrow(testBuyer, listing.ID, 0, 1000, 5)
	if err != nil {
		t.Fatalf("create escrow: %v", err)
	}
	settled, err := m.CreateEscrow(testBuyer, listing.ID, 1, 1000, 5)
	if err != nil {
		t.Fatalf("create second escrow: %v", err)
	}
	if _, err := m.CompleteEscrow(testBuyer, settled.ID, testExecutor); err != nil {
		t.Fatalf("complete escrow: %v", err)
	}
	if have := manager.OpenEscrowCount(); have != 0 {
		t.Fatalf("open escrows before rebuild: have %d, want 0", have)
	}

	manager.RebuildIndexes()
	if have := manager.OpenEscrowCount(); have != 1 {
		t.Fatalf("open escrows after rebuild: have %d, want 1", have)
	}
	// Only the still-funded escrow counts; the settled one released its funds.
	if !manager.openEscrows.Contains(open.ID) {
		t.Error("funded escrow missing from the rebuilt set")
	}
}

func TestProcessTransactionChallengeFlow(t *testing.T) {
	manager, listing := newTestManager(t)
	m := manager.Market()
	fund(t, m, testExecutor, 200_000_000)
	if err := m.Stake(testExecutor, 200_000_000); err != nil {
		t.Fatalf("stake: %v", err)
	}

	if err := manager.ProcessTransaction(testBuyer, createEscrowData(listing.ID, 0), 1000, 5); err != nil {
		t.Fatalf("create escrow: %v", err)
	}
	id := EscrowID(testBuyer, listing.ID, 0)

	data := make([]byte, 0, 65)
	data = append(data, OpCommitResult)
	data = append(data, id.Bytes()...)
	data = append(data, testResultHash.Bytes()...)
	if err := manager.ProcessTransaction(testExecutor, data, 1001, 10); err != nil {
		t.Fatalf("commit result: %v", err)
	}

	data = make([]byte, 0, 97)
	data = append(data, OpChallenge)
	data = append(data, id.Bytes()...)
	data = append(data, make([]byte, ProofSize)...)
	if err := manager.ProcessTransaction(testChallenger, data, 1002, 20); err != nil {
		t.Fatalf("challenge: %v", err)
	}

	data = append([]byte{OpResolveChallenge}, id.Bytes()...)
	data = append(data, 1)
	if err := manager.ProcessTransaction(testAuthority, data, 1003, 30); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if have := manager.OpenEscrowCount(); have != 0 {
		t.Fatalf("open escrows after slash: have %d, want 0", have)
	}
	escrow, err := m.GetEscrow(id)
	if err != nil {
		t.Fatalf("get escrow: %v", err)
	}
	if escrow.Status != EscrowStatusSlashed {
		t.Errorf("status: have %v, want %v", escrow.Status, EscrowStatusSlashed)
	}
}
