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
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/log"

	"github.com/agorachain/go-agora/params"
)

// maxUint8 is the saturation bound for the slash counter.
const maxUint8 = ^uint8(0)

// Stake moves collateral from the owner into the agent's vault. The agent
// becomes active once its total stake reaches MinStakeAmount; smaller
// deposits are accepted but do not activate. Agents slashed MaxSlashCount
// times are permanently banned from staking.
func (m *Market) Stake(owner common.Address, amount uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if amount == 0 {
		return ErrInvalidAmount
	}
	agent, ok := m.agents[owner]
	if !ok {
		return ErrAgentNotFound
	}
	if agent.SlashedCount >= params.MaxSlashCount {
		return ErrAgentBanned
	}
	staked, overflow := math.SafeAdd(agent.StakedAmount, amount)
	if overflow {
		return ErrOverflow
	}
	if err := m.ledger.Transfer(owner, agent.VaultAddress(), amount); err != nil {
		return err
	}
	agent.StakedAmount = staked
	if agent.StakedAmount >= params.MinStakeAmount {
		agent.Active = true
	}
	stakedValueCounter.Inc(int64(amount))

	log.Debug("Agent staked", "owner", owner, "amount", amount,
		"total", agent.StakedAmount, "active", agent.Active)
	return nil
}

// Unstake returns collateral from the vault to the owner. Falling below
// MinStakeAmount deactivates the agent. The engine does not check for
// outstanding escrows; upholding that is the caller's responsibility.
func (m *Market) Unstake(owner common.Address, amount uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if amount == 0 {
		return ErrInvalidAmount
	}
	agent, ok := m.agents[owner]
	if !ok {
		return ErrAgentNotFound
	}
	if agent.StakedAmount < amount {
		return ErrInsufficientStake
	}
	if err := m.ledger.Transfer(agent.VaultAddress(), owner, amount); err != nil {
		return err
	}
	agent.StakedAmount -= amount
	if agent.StakedAmount < params.MinStakeAmount {
		agent.Active = false
		log.Debug("Agent deactivated on unstake", "owner", owner, "remaining", agent.StakedAmount)
	}

	log.Debug("Agent unstaked", "owner", owner, "amount", amount, "remaining", agent.StakedAmount)
	return nil
}

// slash forfeits half of the agent's remaining stake after a lost challenge.
// Half of the forfeited amount is paid from the vault to the challenger as a
// bounty; the other half stays stranded on the vault address, removed from
// circulation. Returns the total forfeited amount.
//
// Callers hold the market lock and bracket the ledger with a snapshot.
func (m *Market) slash(agent *Agent, challenger common.Address) (uint64, error) {
	product, overflow := math.SafeMul(agent.StakedAmount, params.SlashBasisPoints)
	if overflow {
		return 0, ErrOverflow
	}
	slashAmount := product / params.BasisPointsDenominator
	bounty := slashAmount / 2

	if bounty > 0 {
		if err := m.ledger.Transfer(agent.VaultAddress(), challenger, bounty); err != nil {
			return 0, err
		}
	}
	agent.StakedAmount -= slashAmount // slashAmount <= StakedAmount by construction
	if agent.SlashedCount < maxUint8 {
		agent.SlashedCount++
	}
	agent.ReputationScore = saturateReputation(agent.ReputationScore, -params.SlashReputationPenalty)
	if agent.StakedAmount < params.MinStakeAmount || agent.SlashedCount >= params.MaxSlashCount {
		agent.Active = false
	}
	slashMeter.Mark(1)
	slashedValueCounter.Inc(int64(slashAmount))

	log.Warn("Agent slashed", "owner", agent.Owner, "amount", slashAmount,
		"bounty", bounty, "remaining", agent.StakedAmount, "slashCount", agent.SlashedCount)
	return slashAmount, nil
}
