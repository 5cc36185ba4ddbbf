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

// Package ledger implements the journaled balance ledger backing the agora
// marketplace. Every value transfer is an atomic debit+credit against two
// named balances; callers bracket multi-transfer operations with Snapshot and
// RevertToSnapshot to obtain all-or-nothing semantics.
package ledger

import (
	"errors"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
)

var (
	ErrInsufficientFunds = errors.New("insufficient funds for transfer")
	ErrBalanceOverflow   = errors.New("balance overflow")
	ErrZeroAmount        = errors.New("amount must be positive")
)

// Ledger tracks uint64 balances per account. All amounts are denominated in
// zap, the smallest unit of the native token.
type Ledger struct {
	mu       sync.RWMutex
	balances map[common.Address]uint64
	journal  *journal
}

// New creates an empty ledger.
func New() *Ledger {
	return &Ledger{
		balances: make(map[common.Address]uint64),
		journal:  newJournal(),
	}
}

// BalanceOf returns the current balance of an account.
func (l *Ledger) BalanceOf(addr common.Address) uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.balances[addr]
}

// TotalSupply returns the sum of all balances. Mint only bounds individual
// accounts, so the cross-account sum saturates at MaxUint64 instead of
// wrapping.
func (l *Ledger) TotalSupply() uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var total uint64
	for _, balance := range l.balances {
		sum, overflow := math.SafeAdd(total, balance)
		if overflow {
			return math.MaxUint64
		}
		total = sum
	}
	return total
}

// Balances returns a copy of every account balance. It is used by the
// persistence layer to snapshot the ledger alongside the records it backs.
func (l *Ledger) Balances() map[common.Address]uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	balances := make(map[common.Address]uint64, len(l.balances))
	for addr, balance := range l.balances {
		balances[addr] = balance
	}
	return balances
}

// Restore replaces the ledger content with a persisted balance set and resets
// the journal. It is meant for startup, before the ledger serves traffic.
func (l *Ledger) Restore(balances map[common.Address]uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.balances = make(map[common.Address]uint64, len(balances))
	for addr, balance := range balances {
		l.balances[addr] = balance
	}
	l.journal = newJournal()
}

// Mint credits an account with new funds. It stands in for the host
// environment's account funding and is journaled like any other change.
func (l *Ledger) Mint(addr common.Address, amount uint64) error {
	if amount == 0 {
		return ErrZeroAmount
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	credited, overflow := math.SafeAdd(l.balances[addr], amount)
	if overflow {
		return ErrBalanceOverflow
	}
	l.touch(addr)
	l.balances[addr] = credited
	return nil
}

// Transfer moves amount from one account to another. The debit and credit are
// applied together; a failed credit leaves the debit unapplied.
func (l *Ledger) Transfer(from, to common.Address, amount uint64) error {
	if amount == 0 {
		return ErrZeroAmount
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	fromBalance := l.balances[from]
	if fromBalance < amount {
		return ErrInsufficientFunds
	}
	if from == to {
		return nil
	}
	credited, overflow := math.SafeAdd(l.balances[to], amount)
	if overflow {
		return ErrBalanceOverflow
	}
	l.touch(from)
	l.touch(to)
	l.balances[from] = fromBalance - amount
	l.balances[to] = credited
	return nil
}

// Snapshot returns an identifier for the current ledger state. Passing it to
// RevertToSnapshot rolls back every change applied since.
func (l *Ledger) Snapshot() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.journal.length()
}

// RevertToSnapshot undoes all balance changes made since the given snapshot.
func (l *Ledger) RevertToSnapshot(snapshot int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.journal.revert(l, snapshot)
}

// touch records the prior state of an account in the journal. Callers must
// hold the write lock.
func (l *Ledger) touch(addr common.Address) {
	prev, existed := l.balances[addr]
	l.journal.append(balanceChange{account: addr, prev: prev, existed: existed})
}
