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

import "errors"

// Validation errors. No state is mutated; the caller may retry with corrected
// input.
var (
	ErrAgentExists            = errors.New("agent already registered for owner")
	ErrListingExists          = errors.New("listing already registered")
	ErrEscrowExists           = errors.New("escrow already exists for buyer/listing/nonce")
	ErrListingDeprecated      = errors.New("listing has been deprecated")
	ErrInvalidPrice           = errors.New("listing price must be positive")
	ErrInvalidAmount          = errors.New("amount must be positive")
	ErrInvalidEscrowStatus    = errors.New("invalid escrow status for this operation")
	ErrCancelNotPending       = errors.New("only pending escrows can be cancelled")
	ErrUpgradeConditionNotMet = errors.New("tier upgrade condition not met")
)

// Authorization errors. The caller must re-issue with the correct signer.
var (
	ErrNotOwner     = errors.New("signer is not the record owner")
	ErrNotBuyer     = errors.New("signer is not the escrow buyer")
	ErrNotAuthority = errors.New("signer is not the protocol authority")
)

// Arithmetic errors abort the whole operation with no partial transfer.
var (
	ErrOverflow          = errors.New("arithmetic overflow")
	ErrInsufficientStake = errors.New("insufficient staked balance")
	ErrAgentBanned       = errors.New("agent is banned from staking after repeated slashes")
)

// Timing errors. The window for this escrow has passed; no retry is possible.
var (
	ErrChallengeWindowExpired = errors.New("challenge window has expired")
	ErrNoChallengeMarker      = errors.New("no challenge window marker recorded")
)

// Lookup errors.
var (
	ErrAgentNotFound          = errors.New("agent not found")
	ErrListingNotFound        = errors.New("listing not found")
	ErrEscrowNotFound         = errors.New("escrow not found")
	ErrProtocolNotInitialized = errors.New("protocol parameters not initialized")
	ErrProtocolInitialized    = errors.New("protocol parameters already initialized")
)
