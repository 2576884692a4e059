package rewards

import (
	"math/big"
	"strings"
)

// Rarity grades a minted token. The grade fixes the token's pool weight for
// its whole life; re-grading after mint is not a thing.
type Rarity uint8

const (
	RarityCommon Rarity = iota
	RarityUncommon
	RarityRare
	RarityEpic
	RarityLegendary
)

func (r Rarity) Valid() bool {
	switch r {
	case RarityCommon, RarityUncommon, RarityRare, RarityEpic, RarityLegendary:
		return true
	default:
		return false
	}
}

func (r Rarity) String() string {
	switch r {
	case RarityCommon:
		return "common"
	case RarityUncommon:
		return "uncommon"
	case RarityRare:
		return "rare"
	case RarityEpic:
		return "epic"
	case RarityLegendary:
		return "legendary"
	default:
		return "unknown"
	}
}

// Weight returns the pool weight carried by tokens of this rarity.
func (r Rarity) Weight() uint64 {
	switch r {
	case RarityCommon:
		return 1
	case RarityUncommon:
		return 5
	case RarityRare:
		return 20
	case RarityEpic:
		return 60
	case RarityLegendary:
		return 120
	default:
		return 0
	}
}

func ParseRarity(s string) (Rarity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "common":
		return RarityCommon, nil
	case "uncommon":
		return RarityUncommon, nil
	case "rare":
		return RarityRare, nil
	case "epic":
		return RarityEpic, nil
	case "legendary":
		return RarityLegendary, nil
	default:
		return 0, ErrInvalidRarity
	}
}

// PoolClass names the accumulator a position debt slot tracks. A position
// carries at most one debt per class.
type PoolClass uint8

const (
	ClassContent PoolClass = iota
	ClassPatron
	ClassGlobal
)

func (c PoolClass) Valid() bool {
	switch c {
	case ClassContent, ClassPatron, ClassGlobal:
		return true
	default:
		return false
	}
}

func (c PoolClass) String() string {
	switch c {
	case ClassContent:
		return "content"
	case ClassPatron:
		return "patron"
	case ClassGlobal:
		return "global"
	default:
		return "unknown"
	}
}

func ParsePoolClass(s string) (PoolClass, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "content":
		return ClassContent, nil
	case "patron":
		return ClassPatron, nil
	case "global":
		return ClassGlobal, nil
	default:
		return 0, ErrPoolNotFound
	}
}

// DebtSlot records a position's participation in one pool. Attached
// distinguishes a genuine zero debt from a slot that was never wired to a
// pool; the amount is meaningless while Attached is false.
type DebtSlot struct {
	Attached bool     `json:"attached"`
	Amount   *big.Int `json:"amount"`
}

func (s DebtSlot) Clone() DebtSlot {
	out := DebtSlot{Attached: s.Attached, Amount: big.NewInt(0)}
	if s.Amount != nil {
		out.Amount = new(big.Int).Set(s.Amount)
	}
	return out
}

// Position is the weighted stake a minted token holds across the reward
// pools. Ownership is deliberately absent: it is resolved through the token
// registry at claim time so transfers can never leave a stale owner here.
type Position struct {
	Token    [32]byte `json:"token"`
	Creator  [20]byte `json:"creator"`
	Ref      [32]byte `json:"ref"`
	Bundle   bool     `json:"bundle"`
	Rarity   Rarity   `json:"rarity"`
	Weight   uint64   `json:"weight"`
	MintedAt int64    `json:"mintedAt"`

	ContentDebt DebtSlot `json:"contentDebt"`
	PatronDebt  DebtSlot `json:"patronDebt"`
	GlobalDebt  DebtSlot `json:"globalDebt"`
}

// Debt returns the slot tracking the given class, or nil for an invalid
// class. The pointer aliases the position so settlements write through.
func (p *Position) Debt(class PoolClass) *DebtSlot {
	if p == nil {
		return nil
	}
	switch class {
	case ClassContent:
		return &p.ContentDebt
	case ClassPatron:
		return &p.PatronDebt
	case ClassGlobal:
		return &p.GlobalDebt
	default:
		return nil
	}
}

func (p *Position) Clone() *Position {
	if p == nil {
		return nil
	}
	out := *p
	out.ContentDebt = p.ContentDebt.Clone()
	out.PatronDebt = p.PatronDebt.Clone()
	out.GlobalDebt = p.GlobalDebt.Clone()
	return &out
}
