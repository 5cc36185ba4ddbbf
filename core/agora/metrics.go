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

// Contains the metrics collected by the marketplace engine.

package agora

import (
	"github.com/ethereum/go-ethereum/metrics"
)

var (
	agentRegisteredMeter  = metrics.NewRegisteredMeter("agora/agents/registered", nil)
	escrowCreatedMeter    = metrics.NewRegisteredMeter("agora/escrows/created", nil)
	escrowSettledMeter    = metrics.NewRegisteredMeter("agora/escrows/settled", nil)
	escrowCancelledMeter  = metrics.NewRegisteredMeter("agora/escrows/cancelled", nil)
	escrowChallengedMeter = metrics.NewRegisteredMeter("agora/escrows/challenged", nil)
	escrowSlashedMeter    = metrics.NewRegisteredMeter("agora/escrows/slashed", nil)
	slashMeter            = metrics.NewRegisteredMeter("agora/staking/slashes", nil)

	settledValueCounter = metrics.NewRegisteredCounter("agora/value/settled", nil)
	stakedValueCounter  = metrics.NewRegisteredCounter("agora/value/staked", nil)
	slashedValueCounter = metrics.NewRegisteredCounter("agora/value/slashed", nil)
)
