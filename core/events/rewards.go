package events

import (
	"encoding/hex"
	"math/big"
	"strconv"

	"curiochain/core/types"
	"curiochain/crypto"
)

const (
	// TypeRewardDeposit is emitted whenever value lands in a reward pool and
	// advances its accumulator.
	TypeRewardDeposit = "rewards.deposit"
	// TypeRewardClaim is emitted when a holder settles pending rewards
	// against a pool.
	TypeRewardClaim = "rewards.claim"
	// TypePositionOpened is emitted when a newly minted token attaches its
	// weight to the reward pools.
	TypePositionOpened = "rewards.position.opened"
	// TypePositionClosed is emitted when a burned token detaches from the
	// reward pools.
	TypePositionClosed = "rewards.position.closed"
)

type RewardDeposit struct {
	Pool              [32]byte
	Amount            *big.Int
	Source            string
	NewRewardPerShare *big.Int
}

func (RewardDeposit) EventType() string { return TypeRewardDeposit }

func (e RewardDeposit) Event() *types.Event {
	return &types.Event{
		Type: TypeRewardDeposit,
		Attributes: map[string]string{
			"pool":           hex.EncodeToString(e.Pool[:]),
			"amount":         formatAmount(e.Amount),
			"source":         e.Source,
			"rewardPerShare": formatAmount(e.NewRewardPerShare),
		},
	}
}

type RewardClaim struct {
	Pool       [32]byte
	Token      [32]byte
	Claimer    [20]byte
	Amount     *big.Int
	DebtBefore *big.Int
	DebtAfter  *big.Int
}

func (RewardClaim) EventType() string { return TypeRewardClaim }

func (e RewardClaim) Event() *types.Event {
	return &types.Event{
		Type: TypeRewardClaim,
		Attributes: map[string]string{
			"pool":       hex.EncodeToString(e.Pool[:]),
			"token":      hex.EncodeToString(e.Token[:]),
			"claimer":    crypto.NewAddress(crypto.CurioPrefix, e.Claimer[:]).String(),
			"amount":     formatAmount(e.Amount),
			"debtBefore": formatAmount(e.DebtBefore),
			"debtAfter":  formatAmount(e.DebtAfter),
		},
	}
}

type PositionOpened struct {
	Token    [32]byte
	Creator  [20]byte
	Ref      [32]byte
	Bundle   bool
	Patron   bool
	Rarity   string
	Weight   uint64
	MintedAt int64
}

func (PositionOpened) EventType() string { return TypePositionOpened }

func (e PositionOpened) Event() *types.Event {
	return &types.Event{
		Type: TypePositionOpened,
		Attributes: map[string]string{
			"token":    hex.EncodeToString(e.Token[:]),
			"creator":  crypto.NewAddress(crypto.CurioPrefix, e.Creator[:]).String(),
			"ref":      hex.EncodeToString(e.Ref[:]),
			"bundle":   strconv.FormatBool(e.Bundle),
			"patron":   strconv.FormatBool(e.Patron),
			"rarity":   e.Rarity,
			"weight":   strconv.FormatUint(e.Weight, 10),
			"mintedAt": intToString(e.MintedAt),
		},
	}
}

type PositionClosed struct {
	Token    [32]byte
	Owner    [20]byte
	Weight   uint64
	ClosedAt int64
}

func (PositionClosed) EventType() string { return TypePositionClosed }

func (e PositionClosed) Event() *types.Event {
	return &types.Event{
		Type: TypePositionClosed,
		Attributes: map[string]string{
			"token":    hex.EncodeToString(e.Token[:]),
			"owner":    crypto.NewAddress(crypto.CurioPrefix, e.Owner[:]).String(),
			"weight":   strconv.FormatUint(e.Weight, 10),
			"closedAt": intToString(e.ClosedAt),
		},
	}
}
