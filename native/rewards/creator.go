package rewards

import "math/big"

// ShareBudget is the total distribution weight of a creator pool. The
// creator starts with the whole budget; collaborator grants are carved out
// of it, never added on top.
const ShareBudget uint64 = 100

// CreatorShare is one member's slice of a creator distribution pool. The
// creator themselves holds a share record with Member == Creator.
type CreatorShare struct {
	Creator [20]byte `json:"creator"`
	Member  [20]byte `json:"member"`
	Weight  uint64   `json:"weight"`
	Debt    *big.Int `json:"debt"`
}

func (s *CreatorShare) Clone() *CreatorShare {
	if s == nil {
		return nil
	}
	out := *s
	out.Debt = cloneOrZero(s.Debt)
	return &out
}

func (s *CreatorShare) normalize() *CreatorShare {
	if s == nil {
		return nil
	}
	if s.Debt == nil {
		s.Debt = big.NewInt(0)
	}
	return s
}

// CreatorPoolID derives the distribution pool identity for a creator.
func CreatorPoolID(creator [20]byte) [32]byte {
	return PoolIDFor(PoolCreatorDist, creatorScope(creator))
}

// PatronPoolID derives the patron holder pool identity for a creator.
func PatronPoolID(creator [20]byte) [32]byte {
	return PoolIDFor(PoolCreatorPatron, creatorScope(creator))
}

func creatorScope(creator [20]byte) [32]byte {
	var scope [32]byte
	copy(scope[:], creator[:])
	return scope
}
