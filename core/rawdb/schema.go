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

// Package rawdb contains a collection of low level database accessors for the
// marketplace record store.
package rawdb

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/metrics"
)

// The fields below define the low level database schema prefixing.
var (
	// protocolConfigKey stores the one-time protocol parameter record.
	protocolConfigKey = []byte("AgoraProtocolConfig")

	// agentPrefix + owner address -> agent record
	agentPrefix = []byte("aga")

	// listingPrefix + listing id -> listing record
	listingPrefix = []byte("agl")

	// escrowPrefix + escrow id -> escrow record
	escrowPrefix = []byte("age")

	// balancePrefix + account address -> ledger balance
	balancePrefix = []byte("agb")
)

var (
	agentWriteCounter   = metrics.NewRegisteredCounter("rawdb/agora/agents/written", nil)
	listingWriteCounter = metrics.NewRegisteredCounter("rawdb/agora/listings/written", nil)
	escrowWriteCounter  = metrics.NewRegisteredCounter("rawdb/agora/escrows/written", nil)
)

// agentKey = agentPrefix + owner
func agentKey(owner common.Address) []byte {
	return append(agentPrefix, owner.Bytes()...)
}

// listingKey = listingPrefix + id
func listingKey(id common.Hash) []byte {
	return append(listingPrefix, id.Bytes()...)
}

// escrowKey = escrowPrefix + id
func escrowKey(id common.Hash) []byte {
	return append(escrowPrefix, id.Bytes()...)
}

// balanceKey = balancePrefix + address
func balanceKey(addr common.Address) []byte {
	return append(balancePrefix, addr.Bytes()...)
}
