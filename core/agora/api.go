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
	"context"

	"github.com/ethereum/go-ethereum/common"
)

// PublicAgoraAPI provides the public RPC API for the marketplace.
type PublicAgoraAPI struct {
	manager *Manager
}

// NewPublicAgoraAPI creates a new marketplace API.
func NewPublicAgoraAPI(manager *Manager) *PublicAgoraAPI {
	return &PublicAgoraAPI{manager: manager}
}

// GetAgent returns the identity record of a marketplace participant.
func (api *PublicAgoraAPI) GetAgent(_ context.Context, owner common.Address) (*Agent, error) {
	agent, err := api.manager.market.GetAgent(owner)
	if err != nil {
		return nil, err
	}
	return &agent, nil
}

// GetListing returns a catalog record.
func (api *PublicAgoraAPI) GetListing(_ context.Context, id common.Hash) (*Listing, error) {
	listing, err := api.manager.market.GetListing(id)
	if err != nil {
		return nil, err
	}
	return &listing, nil
}

// GetEscrow returns a custody record.
func (api *PublicAgoraAPI) GetEscrow(_ context.Context, id common.Hash) (*Escrow, error) {
	escrow, err := api.manager.market.GetEscrow(id)
	if err != nil {
		return nil, err
	}
	return &escrow, nil
}

// GetSettlement returns the cached settlement receipt for an escrow.
func (api *PublicAgoraAPI) GetSettlement(_ context.Context, id common.Hash) (*Settlement, error) {
	settlement, ok := api.manager.Settlement(id)
	if !ok {
		return nil, ErrEscrowNotFound
	}
	return settlement, nil
}

// FeeQuote is the display-only preview of a settlement split.
type FeeQuote struct {
	Listing        common.Hash `json:"listing"`
	Amount         uint64      `json:"amount"`
	FeeBasisPoints uint16      `json:"feeBasisPoints"`
	ProtocolFee    uint64      `json:"protocolFee"`
	Royalty        uint64      `json:"royalty"`
	ExecutorPayout uint64      `json:"executorPayout"`
}

// QuoteFees recomputes the three-way split for a listing's current price.
// The quote is informational; the authoritative split happens at settlement.
func (api *PublicAgoraAPI) QuoteFees(_ context.Context, listingID common.Hash) (*FeeQuote, error) {
	listing, err := api.manager.market.GetListing(listingID)
	if err != nil {
		return nil, err
	}
	protocol, err := api.manager.market.Protocol()
	if err != nil {
		return nil, err
	}
	protocolFee, royalty, executorPayout, err := SplitAmount(listing.Price, protocol.FeeBasisPoints)
	if err != nil {
		return nil, err
	}
	return &FeeQuote{
		Listing:        listingID,
		Amount:         listing.Price,
		FeeBasisPoints: protocol.FeeBasisPoints,
		ProtocolFee:    protocolFee,
		Royalty:        royalty,
		ExecutorPayout: executorPayout,
	}, nil
}
