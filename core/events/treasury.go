package events

import (
	"encoding/hex"
	"math/big"

	"curiochain/core/types"
)

const (
	// TypeTreasuryFunded is emitted when sale proceeds or subscription
	// payments land in a treasury stream and begin unlocking.
	TypeTreasuryFunded = "treasury.funded"
)

type TreasuryFunded struct {
	Treasury [32]byte
	Stream   string
	Amount   *big.Int
	FundedAt int64
}

func (TreasuryFunded) EventType() string { return TypeTreasuryFunded }

func (e TreasuryFunded) Event() *types.Event {
	return &types.Event{
		Type: TypeTreasuryFunded,
		Attributes: map[string]string{
			"treasury": hex.EncodeToString(e.Treasury[:]),
			"stream":   e.Stream,
			"amount":   formatAmount(e.Amount),
			"fundedAt": intToString(e.FundedAt),
		},
	}
}
