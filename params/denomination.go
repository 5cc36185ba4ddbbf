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

// These are the multipliers for AGO token denominations. All protocol amounts
// are unsigned 64-bit integers denominated in zap, the smallest unit.
// Example: To get the zap value of an amount in whole AGO, multiply by
// params.Agora.
const (
	Zap   = 1
	GZap  = 1_000_000_000
	Agora = 1_000_000_000 // 1e9 zap = 1 AGO
)

// AGO token metadata.
const (
	TokenName     = "AGORA"
	TokenSymbol   = "AGO"
	TokenDecimals = 9
)
