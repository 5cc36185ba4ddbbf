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

// Package agora implements the task marketplace core: the agent identity and
// reputation registry, the staking and slashing vault, the listing catalog
// and the escrow custody state machine with its optimistic dispute protocol.
//
// Every exported operation is a single atomic state transition. The caller
// supplies a coarse timestamp for record metadata and a monotonic logical
// slot counter for challenge-window accounting; the engine never reads a wall
// clock. Operations either fully apply or fully abort: multi-leg value moves
// run against a snapshot of the journaled ledger and are reverted wholesale
// on any failure.
package agora

import (
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"

	"github.com/agorachain/go-agora/core/ledger"
	"github.com/agorachain/go-agora/params"
)

// Adjudicator decides who may resolve an open challenge. The default
// implementation trusts the protocol authority alone; a verifier committee
// can be plugged in without touching the escrow state machine.
type Adjudicator interface {
	// CanResolve reports whether the given signer may rule on challenges.
	CanResolve(resolver common.Address) bool
}

// authorityAdjudicator accepts only the protocol authority.
type authorityAdjudicator struct {
	market *Market
}

func (a *authorityAdjudicator) CanResolve(resolver common.Address) bool {
	if a.market.protocol == nil {
		return false
	}
	return a.market.protocol.Authority == resolver
}

// Market is the marketplace state machine. It owns every record map and the
// value ledger; all mutation goes through the documented operations.
type Market struct {
	mu     sync.RWMutex
	ledger *ledger.Ledger

	protocol *ProtocolConfig
	agents   map[common.Address]*Agent
	listings map[common.Hash]*Listing
	escrows  map[common.Hash]*Escrow

	// Escrow keys destroyed by cancellation since the last Commit, so the
	// persistence layer can reclaim their storage.
	destroyed []common.Hash

	adjudicator Adjudicator
}

// NewMarket creates an empty marketplace backed by the given ledger.
func NewMarket(l *ledger.Ledger) *Market {
	m := &Market{
		ledger:   l,
		agents:   make(map[common.Address]*Agent),
		listings: make(map[common.Hash]*Listing),
		escrows:  make(map[common.Hash]*Escrow),
	}
	m.adjudicator = &authorityAdjudicator{market: m}
	return m
}

// Ledger returns the value ledger backing the market.
func (m *Market) Ledger() *ledger.Ledger {
	return m.ledger
}

// SetAdjudicator replaces the dispute adjudicator.
func (m *Market) SetAdjudicator(a Adjudicator) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.adjudicator = a
}

// InitProtocol performs the one-time protocol parameter bootstrap. A zero fee
// rate selects the default.
func (m *Market) InitProtocol(authority common.Address, feeBasisPoints uint16, treasury common.Address) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.protocol != nil {
		return ErrProtocolInitialized
	}
	if feeBasisPoints == 0 {
		feeBasisPoints = params.DefaultFeeBasisPoints
	}
	m.protocol = &ProtocolConfig{
		Authority:      authority,
		FeeBasisPoints: feeBasisPoints,
		Treasury:       treasury,
	}
	log.Info("Protocol parameters initialized", "authority", authority,
		"feeBps", feeBasisPoints, "treasury", treasury)
	return nil
}

// Protocol returns a copy of the protocol parameters.
func (m *Market) Protocol() (ProtocolConfig, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.protocol == nil {
		return ProtocolConfig{}, ErrProtocolNotInitialized
	}
	return *m.protocol, nil
}

// GetAgent returns a copy of an agent record.
func (m *Market) GetAgent(owner common.Address) (Agent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	agent, ok := m.agents[owner]
	if !ok {
		return Agent{}, ErrAgentNotFound
	}
	return *agent, nil
}

// GetListing returns a copy of a listing record.
func (m *Market) GetListing(id common.Hash) (Listing, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	listing, ok := m.listings[id]
	if !ok {
		return Listing{}, ErrListingNotFound
	}
	return *listing, nil
}

// GetEscrow returns a copy of an escrow record.
func (m *Market) GetEscrow(id common.Hash) (Escrow, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	escrow, ok := m.escrows[id]
	if !ok {
		return Escrow{}, ErrEscrowNotFound
	}
	return *escrow, nil
}

// Agents returns copies of all agent records.
func (m *Market) Agents() []Agent {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Agent, 0, len(m.agents))
	for _, agent := range m.agents {
		out = append(out, *agent)
	}
	return out
}

// Listings returns copies of all listing records.
func (m *Market) Listings() []Listing {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Listing, 0, len(m.listings))
	for _, listing := range m.listings {
		out = append(out, *listing)
	}
	return out
}

// Escrows returns copies of all live escrow records.
func (m *Market) Escrows() []Escrow {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Escrow, 0, len(m.escrows))
	for _, escrow := range m.escrows {
		out = append(out, *escrow)
	}
	return out
}

// Restore replaces the in-memory record set with a persisted snapshot. It is
// meant for the storage layer at startup, before the market serves traffic.
func (m *Market) Restore(protocol *ProtocolConfig, agents []Agent, listings []Listing, escrows []Escrow) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if protocol != nil {
		restored := *protocol
		m.protocol = &restored
	}
	m.agents = make(map[common.Address]*Agent, len(agents))
	for i := range agents {
		agent := agents[i]
		m.agents[agent.Owner] = &agent
	}
	m.listings = make(map[common.Hash]*Listing, len(listings))
	for i := range listings {
		listing := listings[i]
		m.listings[listing.ID] = &listing
	}
	m.escrows = make(map[common.Hash]*Escrow, len(escrows))
	for i := range escrows {
		escrow := escrows[i]
		m.escrows[escrow.ID] = &escrow
	}
	m.destroyed = nil
}

// Destroyed drains the list of escrow keys reclaimed since the last call.
func (m *Market) Destroyed() []common.Hash {
	m.mu.Lock()
	defer m.mu.Unlock()
	destroyed := m.destroyed
	m.destroyed = nil
	return destroyed
}

// RequeueDestroyed puts drained reclaimed keys back on the queue. The
// persistence layer calls it when a commit fails after draining, so the
// deletions are retried on the next commit.
func (m *Market) RequeueDestroyed(ids []common.Hash) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.destroyed = append(ids, m.destroyed...)
}
