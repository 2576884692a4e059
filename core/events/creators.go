package events

import (
	"encoding/hex"
	"strconv"

	"curiochain/core/types"
	"curiochain/crypto"
)

const (
	TypeCreatorRegistered   = "rewards.creator.registered"
	TypeCreatorShareUpdated = "rewards.creator.share.updated"
	TypeTokenTransferred    = "rewards.token.transferred"
)

type CreatorRegistered struct {
	Creator      [20]byte
	RegisteredAt int64
}

func (CreatorRegistered) EventType() string { return TypeCreatorRegistered }

func (e CreatorRegistered) Event() *types.Event {
	return &types.Event{
		Type: TypeCreatorRegistered,
		Attributes: map[string]string{
			"creator":      crypto.NewAddress(crypto.CurioPrefix, e.Creator[:]).String(),
			"registeredAt": intToString(e.RegisteredAt),
		},
	}
}

type CreatorShareUpdated struct {
	Creator [20]byte
	Member  [20]byte
	Weight  uint64
}

func (CreatorShareUpdated) EventType() string { return TypeCreatorShareUpdated }

func (e CreatorShareUpdated) Event() *types.Event {
	return &types.Event{
		Type: TypeCreatorShareUpdated,
		Attributes: map[string]string{
			"creator": crypto.NewAddress(crypto.CurioPrefix, e.Creator[:]).String(),
			"member":  crypto.NewAddress(crypto.CurioPrefix, e.Member[:]).String(),
			"weight":  strconv.FormatUint(e.Weight, 10),
		},
	}
}

type TokenTransferred struct {
	Token [32]byte
	From  [20]byte
	To    [20]byte
}

func (TokenTransferred) EventType() string { return TypeTokenTransferred }

func (e TokenTransferred) Event() *types.Event {
	return &types.Event{
		Type: TypeTokenTransferred,
		Attributes: map[string]string{
			"token": hex.EncodeToString(e.Token[:]),
			"from":  crypto.NewAddress(crypto.CurioPrefix, e.From[:]).String(),
			"to":    crypto.NewAddress(crypto.CurioPrefix, e.To[:]).String(),
		},
	}
}
