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

// Fee parameters. All percentages are expressed in basis points with a
// denominator of 10000 (10000 bps = 100%).
const (
	BasisPointsDenominator = 10000

	// DefaultFeeBasisPoints is the protocol fee applied at settlement when the
	// bootstrap supplies a zero rate (500 = 5%).
	DefaultFeeBasisPoints = 500

	// RoyaltyBasisPoints is the fixed share of every settlement paid to the
	// listing author (1000 = 10%).
	RoyaltyBasisPoints = 1000
)

// Staking parameters.
const (
	// MinStakeAmount is the stake required before an agent becomes active
	// (0.1 AGO in zap).
	MinStakeAmount = 100_000_000

	// MaxSlashCount is the number of slashes after which an agent is
	// permanently banned from staking.
	MaxSlashCount = 3

	// SlashBasisPoints is the fraction of the remaining stake forfeited on a
	// lost challenge (5000 = 50%).
	SlashBasisPoints = 5000

	// SlashReputationPenalty is the reputation deduction applied per slash.
	SlashReputationPenalty = 1000
)

// Reputation parameters. Scores live in [0, MaxReputation].
const (
	MaxReputation     = 10000
	DefaultReputation = 5000
)

// Agent tier thresholds.
const (
	Tier1EarningsThreshold   = 1 * Agora  // 1 AGO of cumulative earnings
	Tier2EarningsThreshold   = 10 * Agora // 10 AGO of cumulative earnings
	Tier2ReputationThreshold = 8000
)

// Escrow timing parameters. Slots are the logical time units supplied by the
// execution environment; the engine never reads a wall clock.
const (
	// ChallengeWindowSlots is the number of slots after result commitment
	// during which a committed result may be challenged. A challenge at
	// exactly commitSlot+ChallengeWindowSlots is still accepted.
	ChallengeWindowSlots = 100

	// DefaultEscrowExpiry is the escrow validity period in seconds,
	// recorded on the escrow for off-protocol refund tooling.
	DefaultEscrowExpiry = 7 * 24 * 60 * 60
)
