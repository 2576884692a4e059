package rewards

import (
	"math/big"

	gethcrypto "github.com/ethereum/go-ethereum/crypto"
)

// PoolKind selects the scope a reward pool settles over.
type PoolKind uint8

const (
	// PoolContent pays holders of tokens minted against one content piece.
	PoolContent PoolKind = iota
	// PoolBundle pays holders of tokens minted against a bundle drop.
	PoolBundle
	// PoolGlobal pays every token holder on the platform from the
	// ecosystem share. Singleton.
	PoolGlobal
	// PoolCreatorDist pays a creator and their collaborators according to
	// registered distribution shares.
	PoolCreatorDist
	// PoolCreatorPatron pays patron-linked token holders of one creator.
	PoolCreatorPatron
)

func (k PoolKind) Valid() bool {
	switch k {
	case PoolContent, PoolBundle, PoolGlobal, PoolCreatorDist, PoolCreatorPatron:
		return true
	default:
		return false
	}
}

func (k PoolKind) String() string {
	switch k {
	case PoolContent:
		return "content"
	case PoolBundle:
		return "bundle"
	case PoolGlobal:
		return "global"
	case PoolCreatorDist:
		return "creator-dist"
	case PoolCreatorPatron:
		return "creator-patron"
	default:
		return "unknown"
	}
}

// PoolIDFor derives the storage identity of a pool from its kind and scope.
// Scopes narrower than 32 bytes (creator addresses) are zero-padded on the
// right; the global pool uses the all-zero scope.
func PoolIDFor(kind PoolKind, scope [32]byte) [32]byte {
	h := gethcrypto.Keccak256([]byte("curio/pool/"), []byte{byte(kind)}, scope[:])
	var id [32]byte
	copy(id[:], h)
	return id
}

// GlobalPoolID is the identity of the platform-wide holder pool.
func GlobalPoolID() [32]byte {
	return PoolIDFor(PoolGlobal, [32]byte{})
}

// Pool is a weighted reward accumulator. Every deposit advances
// RewardPerShare by amount×Precision/TotalWeight; positions settle against
// the accumulator through their recorded debts.
type Pool struct {
	ID             [32]byte `json:"id"`
	Kind           PoolKind `json:"kind"`
	Scope          [32]byte `json:"scope"`
	Creator        [20]byte `json:"creator"`
	RewardPerShare *big.Int `json:"rewardPerShare"`
	TotalWeight    *big.Int `json:"totalWeight"`
	TotalDeposited *big.Int `json:"totalDeposited"`
	TotalClaimed   *big.Int `json:"totalClaimed"`
	Positions      uint64   `json:"positions"`
}

func NewPool(kind PoolKind, scope [32]byte, creator [20]byte) *Pool {
	return &Pool{
		ID:             PoolIDFor(kind, scope),
		Kind:           kind,
		Scope:          scope,
		Creator:        creator,
		RewardPerShare: big.NewInt(0),
		TotalWeight:    big.NewInt(0),
		TotalDeposited: big.NewInt(0),
		TotalClaimed:   big.NewInt(0),
	}
}

func (p *Pool) Clone() *Pool {
	if p == nil {
		return nil
	}
	out := *p
	out.RewardPerShare = cloneOrZero(p.RewardPerShare)
	out.TotalWeight = cloneOrZero(p.TotalWeight)
	out.TotalDeposited = cloneOrZero(p.TotalDeposited)
	out.TotalClaimed = cloneOrZero(p.TotalClaimed)
	return &out
}

// normalize backfills nil big.Int fields on records decoded from storage.
func (p *Pool) normalize() *Pool {
	if p == nil {
		return nil
	}
	if p.RewardPerShare == nil {
		p.RewardPerShare = big.NewInt(0)
	}
	if p.TotalWeight == nil {
		p.TotalWeight = big.NewInt(0)
	}
	if p.TotalDeposited == nil {
		p.TotalDeposited = big.NewInt(0)
	}
	if p.TotalClaimed == nil {
		p.TotalClaimed = big.NewInt(0)
	}
	return p
}

// Accrue routes amount into the pool, advancing the accumulator. It returns
// the new RewardPerShare. A pool with zero weight rejects the deposit with
// ErrNoWeightToDistribute so the caller can park the value instead of
// stranding it on holders that do not exist.
func (p *Pool) Accrue(amount *big.Int) (*big.Int, error) {
	if p == nil {
		return nil, ErrPoolNotFound
	}
	p.normalize()
	if amount == nil || amount.Sign() <= 0 {
		return nil, ErrInvalidAmount
	}
	delta, err := AccrualDelta(amount, p.TotalWeight)
	if err != nil {
		return nil, err
	}
	next := new(big.Int).Add(p.RewardPerShare, delta)
	if !fitsAccumulator(next) {
		return nil, ErrArithmeticOverflow
	}
	deposited := new(big.Int).Add(p.TotalDeposited, amount)
	if !fitsAmount(deposited) {
		return nil, ErrArithmeticOverflow
	}
	p.RewardPerShare = next
	p.TotalDeposited = deposited
	return new(big.Int).Set(next), nil
}

// Attach adds a position's weight to the pool.
func (p *Pool) Attach(weight uint64) error {
	if p == nil {
		return ErrPoolNotFound
	}
	p.normalize()
	if weight == 0 {
		return ErrInvalidAmount
	}
	next := new(big.Int).Add(p.TotalWeight, new(big.Int).SetUint64(weight))
	if !fitsAmount(next) {
		return ErrArithmeticOverflow
	}
	p.TotalWeight = next
	p.Positions++
	return nil
}

// Reweigh moves an existing participant between weights without changing
// the membership count.
func (p *Pool) Reweigh(oldWeight, newWeight uint64) error {
	if p == nil {
		return ErrPoolNotFound
	}
	p.normalize()
	if oldWeight == newWeight {
		return nil
	}
	if newWeight > oldWeight {
		next := new(big.Int).Add(p.TotalWeight, new(big.Int).SetUint64(newWeight-oldWeight))
		if !fitsAmount(next) {
			return ErrArithmeticOverflow
		}
		p.TotalWeight = next
		return nil
	}
	w := new(big.Int).SetUint64(oldWeight - newWeight)
	if p.TotalWeight.Cmp(w) < 0 {
		return ErrStaleWeight
	}
	p.TotalWeight = new(big.Int).Sub(p.TotalWeight, w)
	return nil
}

// Detach removes a position's weight. Underflow means the pool and its
// positions have drifted apart, which is fatal.
func (p *Pool) Detach(weight uint64) error {
	if p == nil {
		return ErrPoolNotFound
	}
	p.normalize()
	if weight == 0 {
		return ErrInvalidAmount
	}
	w := new(big.Int).SetUint64(weight)
	if p.TotalWeight.Cmp(w) < 0 || p.Positions == 0 {
		return ErrStaleWeight
	}
	p.TotalWeight = new(big.Int).Sub(p.TotalWeight, w)
	p.Positions--
	return nil
}

// Settle computes the claimable value for a weight with the given recorded
// debt and returns it together with the refreshed debt. The pool itself is
// not mutated; callers persist the new debt and account for the payout.
func (p *Pool) Settle(weight uint64, debt *big.Int) (*big.Int, *big.Int, error) {
	if p == nil {
		return nil, nil, ErrPoolNotFound
	}
	p.normalize()
	entitled, err := Entitlement(weight, p.RewardPerShare)
	if err != nil {
		return nil, nil, err
	}
	pending := Pending(entitled, debt)
	return pending, entitled, nil
}

// RecordClaim books a successful settlement against the pool totals. A
// claimed total that overtakes deposits means value was paid that never
// landed.
func (p *Pool) RecordClaim(amount *big.Int) error {
	if p == nil {
		return ErrPoolNotFound
	}
	p.normalize()
	if amount == nil || amount.Sign() < 0 {
		return ErrInvalidAmount
	}
	claimed := new(big.Int).Add(p.TotalClaimed, amount)
	if claimed.Cmp(p.TotalDeposited) > 0 {
		return ErrClaimOverrun
	}
	p.TotalClaimed = claimed
	return nil
}

func cloneOrZero(v *big.Int) *big.Int {
	if v == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(v)
}
