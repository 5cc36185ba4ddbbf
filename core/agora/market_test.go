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
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"github.com/agorachain/go-agora/core/ledger"
	"github.com/agorachain/go-agora/params"
)

var (
	testAuthority  = common.HexToAddress("0x00000000000000000000000000000000000000aa")
	testTreasury   = common.HexToAddress("0x00000000000000000000000000000000000000bb")
	testBuyer      = common.HexToAddress("0x00000000000000000000000000000000000000cc")
	testAuthor     = common.HexToAddress("0x00000000000000000000000000000000000000dd")
	testExecutor   = common.HexToAddress("0x00000000000000000000000000000000000000ee")
	testChallenger = common.HexToAddress("0x00000000000000000000000000000000000000ff")

	testContentHash = common.HexToHash("0x1111111111111111111111111111111111111111111111111111111111111111")
	testResultHash  = common.HexToHash("0x2222222222222222222222222222222222222222222222222222222222222222")
)

// newTestMarket returns a market with initialized protocol parameters at the
// default fee rate.
func newTestMarket(t *testing.T) *Market {
	t.Helper()
	m := NewMarket(ledger.New())
	if err := m.InitProtocol(testAuthority, 0, testTreasury); err != nil {
		t.Fatalf("init protocol: %v", err)
	}
	return m
}

// fund mints fresh balance for an account.
func fund(t *testing.T, m *Market, addr common.Address, amount uint64) {
	t.Helper()
	if err := m.Ledger().Mint(addr, amount); err != nil {
		t.Fatalf("mint %d to %x: %v", amount, addr, err)
	}
}

// newMarketWithListing returns a market with a funded buyer, a registered
// executor agent and one listing priced at 1 AGO.
func newMarketWithListing(t *testing.T) (*Market, Listing) {
	t.Helper()
	m := newTestMarket(t)
	fund(t, m, testBuyer, 10*params.Agora)
	if _, err := m.RegisterAgent(testExecutor, 1000); err != nil {
		t.Fatalf("register executor: %v", err)
	}
	listing, err := m.RegisterListing(testAuthor, testContentHash, 1*params.Agora, 1000)
	if err != nil {
		t.Fatalf("register listing: %v", err)
	}
	return m, listing
}

func balance(t *testing.T, m *Market, addr common.Address) uint64 {
	t.Helper()
	return m.Ledger().BalanceOf(addr)
}
