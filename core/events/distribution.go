package events

import (
	"encoding/hex"
	"math/big"

	"curiochain/core/types"
)

const (
	// TypeRewardDistribution is emitted once per treasury sweep with the
	// per-destination amounts that were routed out of the unlocked balance.
	TypeRewardDistribution = "rewards.distribution"
)

type RewardDistribution struct {
	Treasury  [32]byte
	Stream    string
	Total     *big.Int
	Creator   *big.Int
	Holders   *big.Int
	Platform  *big.Int
	Ecosystem *big.Int
	EpochAt   int64
}

func (RewardDistribution) EventType() string { return TypeRewardDistribution }

func (e RewardDistribution) Event() *types.Event {
	return &types.Event{
		Type: TypeRewardDistribution,
		Attributes: map[string]string{
			"treasury":  hex.EncodeToString(e.Treasury[:]),
			"stream":    e.Stream,
			"total":     formatAmount(e.Total),
			"creator":   formatAmount(e.Creator),
			"holders":   formatAmount(e.Holders),
			"platform":  formatAmount(e.Platform),
			"ecosystem": formatAmount(e.Ecosystem),
			"epochAt":   intToString(e.EpochAt),
		},
	}
}
