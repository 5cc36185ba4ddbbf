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
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"
)

// RegisterListing publishes a priced service record. The listing key is
// derived from the author and content digest, so republishing the same
// content under the same author fails with ErrListingExists.
func (m *Market) RegisterListing(author common.Address, contentHash common.Hash, price uint64, timestamp uint64) (Listing, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if price == 0 {
		return Listing{}, ErrInvalidPrice
	}
	id := ListingID(author, contentHash)
	if _, ok := m.listings[id]; ok {
		return Listing{}, ErrListingExists
	}
	listing := &Listing{
		ID:          id,
		Author:      author,
		ContentHash: contentHash,
		Price:       price,
		Version:     1,
		CreatedAt:   timestamp,
	}
	m.listings[id] = listing

	log.Debug("Listing registered", "id", id, "author", author, "price", price)
	return *listing, nil
}

// UpdateListing replaces a listing's content digest and price, bumping its
// version. Only the author may update; deprecated listings are frozen.
func (m *Market) UpdateListing(author common.Address, id common.Hash, newContentHash common.Hash, newPrice uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	listing, ok := m.listings[id]
	if !ok {
		return ErrListingNotFound
	}
	if listing.Author != author {
		return ErrNotOwner
	}
	if listing.Deprecated {
		return ErrListingDeprecated
	}
	if newPrice == 0 {
		return ErrInvalidPrice
	}
	listing.ContentHash = newContentHash
	listing.Price = newPrice
	listing.Version++

	log.Debug("Listing updated", "id", id, "price", newPrice, "version", listing.Version)
	return nil
}

// DeprecateListing takes a listing off the market. Existing escrows against
// it are unaffected; new escrows are rejected.
func (m *Market) DeprecateListing(author common.Address, id common.Hash) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	listing, ok := m.listings[id]
	if !ok {
		return ErrListingNotFound
	}
	if listing.Author != author {
		return ErrNotOwner
	}
	listing.Deprecated = true

	log.Info("Listing deprecated", "id", id, "author", author)
	return nil
}
