package events

import (
	"encoding/hex"
	"math/big"

	"curiochain/core/types"
	"curiochain/crypto"
)

const (
	TypeSubscriptionCreated   = "subs.created"
	TypeSubscriptionCancelled = "subs.cancelled"
	TypeSubscriptionPaid      = "subs.paid"
)

type SubscriptionCreated struct {
	ID             [32]byte
	Creator        [20]byte
	Patron         [20]byte
	AmountPerEpoch *big.Int
	CreatedAt      int64
}

func (SubscriptionCreated) EventType() string { return TypeSubscriptionCreated }

func (e SubscriptionCreated) Event() *types.Event {
	return &types.Event{
		Type: TypeSubscriptionCreated,
		Attributes: map[string]string{
			"id":        hex.EncodeToString(e.ID[:]),
			"creator":   crypto.NewAddress(crypto.CurioPrefix, e.Creator[:]).String(),
			"patron":    crypto.NewAddress(crypto.CurioPrefix, e.Patron[:]).String(),
			"amount":    formatAmount(e.AmountPerEpoch),
			"createdAt": intToString(e.CreatedAt),
		},
	}
}

type SubscriptionCancelled struct {
	ID          [32]byte
	Creator     [20]byte
	Patron      [20]byte
	CancelledAt int64
}

func (SubscriptionCancelled) EventType() string { return TypeSubscriptionCancelled }

func (e SubscriptionCancelled) Event() *types.Event {
	return &types.Event{
		Type: TypeSubscriptionCancelled,
		Attributes: map[string]string{
			"id":          hex.EncodeToString(e.ID[:]),
			"creator":     crypto.NewAddress(crypto.CurioPrefix, e.Creator[:]).String(),
			"patron":      crypto.NewAddress(crypto.CurioPrefix, e.Patron[:]).String(),
			"cancelledAt": intToString(e.CancelledAt),
		},
	}
}

type SubscriptionPaid struct {
	ID      [32]byte
	Creator [20]byte
	Patron  [20]byte
	Amount  *big.Int
	PaidAt  int64
}

func (SubscriptionPaid) EventType() string { return TypeSubscriptionPaid }

func (e SubscriptionPaid) Event() *types.Event {
	return &types.Event{
		Type: TypeSubscriptionPaid,
		Attributes: map[string]string{
			"id":      hex.EncodeToString(e.ID[:]),
			"creator": crypto.NewAddress(crypto.CurioPrefix, e.Creator[:]).String(),
			"patron":  crypto.NewAddress(crypto.CurioPrefix, e.Patron[:]).String(),
			"amount":  formatAmount(e.Amount),
			"paidAt":  intToString(e.PaidAt),
		},
	}
}
