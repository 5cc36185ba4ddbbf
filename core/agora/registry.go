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

	"github.com/agorachain/go-agora/params"
)

// RegisterAgent creates the identity record for an owner. Anyone may register
// once; the record starts at tier 0 with the default reputation, no stake and
// no earnings.
func (m *Market) RegisterAgent(owner common.Address, timestamp uint64) (Agent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.agents[owner]; ok {
		return Agent{}, ErrAgentExists
	}
	agent := &Agent{
		Owner:           owner,
		Tier:            TierOpen,
		ReputationScore: params.DefaultReputation,
		CreatedAt:       timestamp,
	}
	m.agents[owner] = agent
	agentRegisteredMeter.Mark(1)

	log.Debug("Agent registered", "owner", owner, "reputation", agent.ReputationScore)
	return *agent, nil
}

// UpgradeTier advances an agent one tier when the earnings/reputation gate is
// met. Only the record owner may call; tiers never decrease.
func (m *Market) UpgradeTier(owner common.Address) (AgentTier, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	agent, ok := m.agents[owner]
	if !ok {
		return TierOpen, ErrAgentNotFound
	}
	oldTier := agent.Tier
	switch {
	case agent.eligibleForVerified():
		agent.Tier = TierVerified
	case agent.eligibleForPremium():
		agent.Tier = TierPremium
	default:
		return agent.Tier, ErrUpgradeConditionNotMet
	}

	log.Info("Agent tier upgraded", "owner", owner, "from", oldTier, "to", agent.Tier,
		"earnings", agent.TotalEarnings, "reputation", agent.ReputationScore)
	return agent.Tier, nil
}

// AdjustReputation moves an agent's reputation score by delta, saturating at
// the [0, 10000] bounds. Only the protocol authority may call.
func (m *Market) AdjustReputation(authority, owner common.Address, delta int16) (uint16, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.protocol == nil {
		return 0, ErrProtocolNotInitialized
	}
	if m.protocol.Authority != authority {
		return 0, ErrNotAuthority
	}
	agent, ok := m.agents[owner]
	if !ok {
		return 0, ErrAgentNotFound
	}

	oldScore := agent.ReputationScore
	agent.ReputationScore = saturateReputation(oldScore, delta)

	log.Debug("Agent reputation adjusted", "owner", owner, "from", oldScore,
		"to", agent.ReputationScore, "delta", delta)
	return agent.ReputationScore, nil
}

// saturateReputation applies a signed delta to a reputation score, clamping
// the result into [0, MaxReputation] without wrapping.
func saturateReputation(score uint16, delta int16) uint16 {
	next := int32(score) + int32(delta)
	if next > params.MaxReputation {
		return params.MaxReputation
	}
	if next < 0 {
		return 0
	}
	return uint16(next)
}
