package rewards

import (
	"math/big"

	"curiochain/core/events"
)

// RegisterCreator opens the creator's distribution pool and grants them the
// full share budget. Registering twice is a no-op returning the live share.
func (e *Engine) RegisterCreator(creator [20]byte) (*CreatorShare, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	if existing, ok, err := e.state.CreatorShareGet(creator, creator); err != nil {
		return nil, err
	} else if ok && existing != nil {
		return existing.normalize().Clone(), nil
	}
	pool, err := e.ensurePool(PoolCreatorDist, creatorScope(creator), creator)
	if err != nil {
		return nil, err
	}
	debt, err := Entitlement(ShareBudget, pool.RewardPerShare)
	if err != nil {
		return nil, err
	}
	share := &CreatorShare{Creator: creator, Member: creator, Weight: ShareBudget, Debt: debt}
	if err := pool.Attach(ShareBudget); err != nil {
		return nil, err
	}
	if err := e.state.PoolPut(pool); err != nil {
		return nil, err
	}
	if err := e.state.CreatorSharePut(share); err != nil {
		return nil, err
	}
	e.emit(events.CreatorRegistered{Creator: creator, RegisteredAt: e.now()})
	return share.Clone(), nil
}

// SetCollaboratorShare carves weight out of the creator's own share and
// grants it to a collaborator. Both parties are settled at the current
// accumulator before weights move, so past earnings stay where they were
// earned. Weight zero removes the collaborator.
func (e *Engine) SetCollaboratorShare(creator [20]byte, member [20]byte, weight uint64) (*CreatorShare, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	if member == creator {
		return nil, ErrInvalidShare
	}
	// Bounds come first: once below, settleShare pays out for real, so
	// nothing may abort after a grant has been harvested.
	if weight > ShareBudget {
		return nil, ErrInvalidShare
	}
	owner, ok, err := e.state.CreatorShareGet(creator, creator)
	if err != nil {
		return nil, err
	}
	if !ok || owner == nil {
		return nil, errCreatorUnknown
	}
	owner.normalize()

	shares, err := e.state.CreatorShareList(creator)
	if err != nil {
		return nil, err
	}
	var granted uint64
	var current *CreatorShare
	for _, s := range shares {
		if s == nil || s.Member == creator {
			continue
		}
		if s.Member == member {
			current = s.normalize()
			continue
		}
		granted += s.Weight
	}
	if granted+weight > ShareBudget {
		return nil, ErrInvalidShare
	}
	ownerWeight := ShareBudget - granted - weight

	id := CreatorPoolID(creator)
	pool, ok, err := e.state.PoolGet(id)
	if err != nil {
		return nil, err
	}
	if !ok || pool == nil {
		return nil, ErrPoolNotFound
	}
	pool.normalize()

	// Harvest both sides before any weight moves.
	if _, err := e.settleShare(pool, owner); err != nil {
		return nil, err
	}
	if current != nil {
		if _, err := e.settleShare(pool, current); err != nil {
			return nil, err
		}
	}

	switch {
	case current == nil && weight > 0:
		if err := pool.Attach(weight); err != nil {
			return nil, err
		}
		current = &CreatorShare{Creator: creator, Member: member}
	case current != nil && weight > 0:
		if err := pool.Reweigh(current.Weight, weight); err != nil {
			return nil, err
		}
	case current != nil && weight == 0:
		if err := pool.Detach(current.Weight); err != nil {
			return nil, err
		}
	default:
		return nil, ErrInvalidShare
	}

	var result *CreatorShare
	if weight == 0 {
		if err := e.state.CreatorShareDelete(creator, member); err != nil {
			return nil, err
		}
		result = &CreatorShare{Creator: creator, Member: member, Weight: 0, Debt: big.NewInt(0)}
	} else {
		current.Weight = weight
		debt, err := Entitlement(weight, pool.RewardPerShare)
		if err != nil {
			return nil, err
		}
		current.Debt = debt
		if err := e.state.CreatorSharePut(current); err != nil {
			return nil, err
		}
		result = current.Clone()
	}

	// The creator keeps whatever the budget has left, so the pool total
	// stays pinned at the budget: the member delta above and the owner
	// delta here always cancel.
	if err := pool.Reweigh(owner.Weight, ownerWeight); err != nil {
		return nil, err
	}
	owner.Weight = ownerWeight
	ownerDebt, err := Entitlement(ownerWeight, pool.RewardPerShare)
	if err != nil {
		return nil, err
	}
	owner.Debt = ownerDebt
	if err := e.state.CreatorSharePut(owner); err != nil {
		return nil, err
	}
	if err := e.state.PoolPut(pool); err != nil {
		return nil, err
	}
	e.emit(events.CreatorShareUpdated{Creator: creator, Member: member, Weight: weight})
	return result, nil
}

// ClaimCreator settles a member's distribution share and pays it out.
func (e *Engine) ClaimCreator(member [20]byte, creator [20]byte) (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	share, ok, err := e.state.CreatorShareGet(creator, member)
	if err != nil {
		return nil, err
	}
	if !ok || share == nil {
		return nil, ErrNothingToClaim
	}
	share.normalize()
	id := CreatorPoolID(creator)
	pool, ok, err := e.state.PoolGet(id)
	if err != nil {
		return nil, err
	}
	if !ok || pool == nil {
		return nil, ErrPoolNotFound
	}
	pool.normalize()
	debtBefore := cloneOrZero(share.Debt)
	pending, err := e.settleShare(pool, share)
	if err != nil {
		return nil, err
	}
	if pending.Sign() == 0 {
		return nil, ErrNothingToClaim
	}
	if err := e.state.CreatorSharePut(share); err != nil {
		return nil, err
	}
	if err := e.state.PoolPut(pool); err != nil {
		return nil, err
	}
	e.emit(events.RewardClaim{
		Pool:       pool.ID,
		Token:      creatorScope(creator),
		Claimer:    member,
		Amount:     new(big.Int).Set(pending),
		DebtBefore: debtBefore,
		DebtAfter:  cloneOrZero(share.Debt),
	})
	return pending, nil
}

// PendingCreator reports a member's claimable distribution share.
func (e *Engine) PendingCreator(member [20]byte, creator [20]byte, overrideRPS *big.Int) (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	share, ok, err := e.state.CreatorShareGet(creator, member)
	if err != nil {
		return nil, err
	}
	if !ok || share == nil {
		return big.NewInt(0), nil
	}
	share.normalize()
	pool, ok, err := e.state.PoolGet(CreatorPoolID(creator))
	if err != nil {
		return nil, err
	}
	if !ok || pool == nil {
		return nil, ErrPoolNotFound
	}
	rps := pool.normalize().RewardPerShare
	if overrideRPS != nil {
		rps = overrideRPS
	}
	entitled, err := Entitlement(share.Weight, rps)
	if err != nil {
		return nil, err
	}
	return Pending(entitled, share.Debt), nil
}

// settleShare pays a member's pending value from the vault, books it on the
// pool and refreshes their debt. Callers persist both records.
func (e *Engine) settleShare(pool *Pool, share *CreatorShare) (*big.Int, error) {
	pending, entitled, err := pool.Settle(share.Weight, share.Debt)
	if err != nil {
		return nil, err
	}
	if pending.Sign() > 0 {
		if err := e.payFromVault(share.Member, pending); err != nil {
			return nil, err
		}
		if err := pool.RecordClaim(pending); err != nil {
			return nil, err
		}
	}
	share.Debt = entitled
	return pending, nil
}
