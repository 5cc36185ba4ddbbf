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

package params

// AgoraConfig holds the runtime configuration of the task marketplace.
type AgoraConfig struct {
	// Enabled gates all marketplace transaction processing.
	Enabled bool

	// FeeBasisPoints is the protocol fee rate used when bootstrapping the
	// protocol parameters (500 = 5%). Zero selects DefaultFeeBasisPoints.
	FeeBasisPoints uint16

	// SettlementCacheSize is the number of recent settlement receipts kept
	// in memory for API queries.
	SettlementCacheSize int
}

// DefaultAgoraConfig contains the default marketplace settings.
var DefaultAgoraConfig = AgoraConfig{
	Enabled:             true,
	FeeBasisPoints:      DefaultFeeBasisPoints,
	SettlementCacheSize: 1024,
}
