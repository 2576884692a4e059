package rewards

import (
	"math/big"
	"time"

	"curiochain/core/events"
	"curiochain/core/types"
)

type engineState interface {
	PoolGet(id [32]byte) (*Pool, bool, error)
	PoolPut(pool *Pool) error
	PositionGet(token [32]byte) (*Position, bool, error)
	PositionPut(position *Position) error
	PositionDelete(token [32]byte) error
	PoolIndexAdd(pool [32]byte, token [32]byte) error
	PoolIndexRemove(pool [32]byte, token [32]byte) error
	PoolIndexList(pool [32]byte) ([][32]byte, error)
	TokenGet(token [32]byte) (*TokenRecord, bool, error)
	TokenPut(record *TokenRecord) error
	TokenDelete(token [32]byte) error
	CreatorShareGet(creator [20]byte, member [20]byte) (*CreatorShare, bool, error)
	CreatorSharePut(share *CreatorShare) error
	CreatorShareDelete(creator [20]byte, member [20]byte) error
	CreatorShareList(creator [20]byte) ([]*CreatorShare, error)
	GetAccount(addr []byte) (*types.Account, error)
	PutAccount(addr []byte, account *types.Account) error
}

// Engine owns positions, pools and their settlement. It never touches
// treasuries or split tables; the distributor routes value into pools and
// the engine settles positions against them.
type Engine struct {
	state        engineState
	emitter      events.Emitter
	nowFn        func() int64
	rewardsVault [20]byte
}

// NewEngine constructs a rewards engine with default dependencies.
func NewEngine() *Engine {
	return &Engine{
		emitter: events.NoopEmitter{},
		nowFn: func() int64 {
			return time.Now().Unix()
		},
	}
}

// SetState configures the state backend used by the engine.
func (e *Engine) SetState(state engineState) { e.state = state }

// SetEmitter configures the event emitter used by the engine.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

// SetNowFunc overrides the time source used for deterministic testing.
func (e *Engine) SetNowFunc(now func() int64) {
	if now == nil {
		e.nowFn = func() int64 { return time.Now().Unix() }
		return
	}
	e.nowFn = now
}

// SetRewardsVault configures the account claims are paid from.
func (e *Engine) SetRewardsVault(addr [20]byte) { e.rewardsVault = addr }

func (e *Engine) emit(evt events.Event) {
	if e == nil || e.emitter == nil {
		return
	}
	e.emitter.Emit(evt)
}

func (e *Engine) now() int64 {
	if e == nil || e.nowFn == nil {
		return time.Now().Unix()
	}
	return e.nowFn()
}

func ensureAccount(acc *types.Account) *types.Account {
	if acc == nil {
		return &types.Account{Balance: big.NewInt(0)}
	}
	if acc.Balance == nil {
		acc.Balance = big.NewInt(0)
	}
	return acc
}

func isZeroAddress(addr [20]byte) bool {
	var zero [20]byte
	return addr == zero
}

// poolIDForClass resolves the pool a position settles the given class
// against. The mapping is pure derivation; positions never store pool ids.
func poolIDForClass(p *Position, class PoolClass) ([32]byte, error) {
	if p == nil {
		return [32]byte{}, ErrPositionNotFound
	}
	switch class {
	case ClassContent:
		kind := PoolContent
		if p.Bundle {
			kind = PoolBundle
		}
		return PoolIDFor(kind, p.Ref), nil
	case ClassPatron:
		return PatronPoolID(p.Creator), nil
	case ClassGlobal:
		return GlobalPoolID(), nil
	default:
		return [32]byte{}, ErrPoolNotFound
	}
}

func (e *Engine) ensurePool(kind PoolKind, scope [32]byte, creator [20]byte) (*Pool, error) {
	id := PoolIDFor(kind, scope)
	pool, ok, err := e.state.PoolGet(id)
	if err != nil {
		return nil, err
	}
	if ok && pool != nil {
		return pool.normalize(), nil
	}
	pool = NewPool(kind, scope, creator)
	if err := e.state.PoolPut(pool); err != nil {
		return nil, err
	}
	return pool, nil
}

// payFromVault moves amount from the rewards vault to the recipient. The
// vault running short means the distributor booked pool value it never
// funded, so the transfer refuses rather than minting from thin air.
func (e *Engine) payFromVault(recipient [20]byte, amount *big.Int) error {
	if isZeroAddress(e.rewardsVault) {
		return errVaultNotSet
	}
	vaultAcc, err := e.state.GetAccount(e.rewardsVault[:])
	if err != nil {
		return err
	}
	vaultAcc = ensureAccount(vaultAcc)
	if vaultAcc.Balance.Cmp(amount) < 0 {
		return ErrVaultUnderfunded
	}
	recipientAcc, err := e.state.GetAccount(recipient[:])
	if err != nil {
		return err
	}
	recipientAcc = ensureAccount(recipientAcc)
	vaultAcc.Balance = new(big.Int).Sub(vaultAcc.Balance, amount)
	recipientAcc.Balance = new(big.Int).Add(recipientAcc.Balance, amount)
	if err := e.state.PutAccount(e.rewardsVault[:], vaultAcc); err != nil {
		return err
	}
	return e.state.PutAccount(recipient[:], recipientAcc)
}

// OpenPosition mints a position: it creates any missing pools, initializes
// the debt slots against the supplied virtual accumulators and attaches the
// rarity weight. The virtual map may omit classes; omitted classes debt
// against the pool's live accumulator.
func (e *Engine) OpenPosition(owner [20]byte, token [32]byte, creator [20]byte, ref [32]byte, bundle bool, patron bool, rarity Rarity, virtual map[PoolClass]*big.Int) (*Position, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	if !rarity.Valid() {
		return nil, ErrInvalidRarity
	}
	if _, ok, err := e.state.TokenGet(token); err != nil {
		return nil, err
	} else if ok {
		return nil, ErrPositionExists
	}

	weight := rarity.Weight()
	pos := &Position{
		Token:    token,
		Creator:  creator,
		Ref:      ref,
		Bundle:   bundle,
		Rarity:   rarity,
		Weight:   weight,
		MintedAt: e.now(),
	}

	classes := []PoolClass{ClassContent, ClassGlobal}
	if patron {
		classes = append(classes, ClassPatron)
	}

	pools := make([]*Pool, 0, len(classes))
	for _, class := range classes {
		var pool *Pool
		var err error
		switch class {
		case ClassContent:
			kind := PoolContent
			if bundle {
				kind = PoolBundle
			}
			pool, err = e.ensurePool(kind, ref, creator)
		case ClassPatron:
			pool, err = e.ensurePool(PoolCreatorPatron, creatorScope(creator), creator)
		case ClassGlobal:
			pool, err = e.ensurePool(PoolGlobal, [32]byte{}, [20]byte{})
		}
		if err != nil {
			return nil, err
		}
		rps := pool.RewardPerShare
		if override, ok := virtual[class]; ok && override != nil {
			if override.Cmp(rps) < 0 {
				// A projection can only run ahead of the live
				// accumulator, never behind it.
				return nil, errStaleProjection
			}
			rps = override
		}
		debt, err := Entitlement(weight, rps)
		if err != nil {
			return nil, err
		}
		slot := pos.Debt(class)
		slot.Attached = true
		slot.Amount = debt
		if err := pool.Attach(weight); err != nil {
			return nil, err
		}
		pools = append(pools, pool)
	}

	for _, pool := range pools {
		if err := e.state.PoolPut(pool); err != nil {
			return nil, err
		}
		if err := e.state.PoolIndexAdd(pool.ID, token); err != nil {
			return nil, err
		}
	}
	if err := e.state.TokenPut(&TokenRecord{Token: token, Owner: owner, MintedAt: pos.MintedAt}); err != nil {
		return nil, err
	}
	if err := e.state.PositionPut(pos); err != nil {
		return nil, err
	}
	e.emit(events.PositionOpened{
		Token:    token,
		Creator:  creator,
		Ref:      ref,
		Bundle:   bundle,
		Patron:   patron,
		Rarity:   rarity.String(),
		Weight:   weight,
		MintedAt: pos.MintedAt,
	})
	return pos.Clone(), nil
}

// ClosePosition burns a token: every attached weight detaches from its pool
// in the same unit of work, then the position and registry entry disappear.
// Unclaimed pending value is forfeited and stays with the pool.
func (e *Engine) ClosePosition(caller [20]byte, token [32]byte) (*Position, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	record, ok, err := e.state.TokenGet(token)
	if err != nil {
		return nil, err
	}
	if !ok || record == nil {
		return nil, ErrTokenNotFound
	}
	if record.Owner != caller {
		return nil, ErrNotOwner
	}
	pos, ok, err := e.state.PositionGet(token)
	if err != nil {
		return nil, err
	}
	if !ok || pos == nil {
		return nil, ErrPositionNotFound
	}

	for _, class := range []PoolClass{ClassContent, ClassPatron, ClassGlobal} {
		slot := pos.Debt(class)
		if slot == nil || !slot.Attached {
			continue
		}
		id, err := poolIDForClass(pos, class)
		if err != nil {
			return nil, err
		}
		pool, ok, err := e.state.PoolGet(id)
		if err != nil {
			return nil, err
		}
		if !ok || pool == nil {
			return nil, ErrStaleWeight
		}
		if err := pool.Detach(pos.Weight); err != nil {
			return nil, err
		}
		if err := e.state.PoolPut(pool); err != nil {
			return nil, err
		}
		if err := e.state.PoolIndexRemove(id, token); err != nil {
			return nil, err
		}
	}

	if err := e.state.PositionDelete(token); err != nil {
		return nil, err
	}
	if err := e.state.TokenDelete(token); err != nil {
		return nil, err
	}
	e.emit(events.PositionClosed{
		Token:    token,
		Owner:    caller,
		Weight:   pos.Weight,
		ClosedAt: e.now(),
	})
	return pos.Clone(), nil
}

// TransferToken moves registry ownership. Debts stay with the position, so
// accrued-but-unclaimed value travels to the new owner.
func (e *Engine) TransferToken(from [20]byte, to [20]byte, token [32]byte) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	record, ok, err := e.state.TokenGet(token)
	if err != nil {
		return err
	}
	if !ok || record == nil {
		return ErrTokenNotFound
	}
	if record.Owner != from {
		return ErrNotOwner
	}
	record.Owner = to
	if err := e.state.TokenPut(record); err != nil {
		return err
	}
	e.emit(events.TokenTransferred{Token: token, From: from, To: to})
	return nil
}

// OwnerOf resolves the current owner of a token.
func (e *Engine) OwnerOf(token [32]byte) ([20]byte, error) {
	if e == nil || e.state == nil {
		return [20]byte{}, errNilState
	}
	record, ok, err := e.state.TokenGet(token)
	if err != nil {
		return [20]byte{}, err
	}
	if !ok || record == nil {
		return [20]byte{}, ErrTokenNotFound
	}
	return record.Owner, nil
}

// Claim settles one debt slot of a token against its pool and pays the
// pending value out of the rewards vault. A zero-pending settlement returns
// ErrNothingToClaim and leaves every record untouched.
func (e *Engine) Claim(caller [20]byte, token [32]byte, class PoolClass) (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	if !class.Valid() {
		return nil, ErrPoolNotFound
	}
	record, ok, err := e.state.TokenGet(token)
	if err != nil {
		return nil, err
	}
	if !ok || record == nil {
		return nil, ErrTokenNotFound
	}
	if record.Owner != caller {
		return nil, ErrNotOwner
	}
	pos, ok, err := e.state.PositionGet(token)
	if err != nil {
		return nil, err
	}
	if !ok || pos == nil {
		return nil, ErrPositionNotFound
	}
	slot := pos.Debt(class)
	if slot == nil || !slot.Attached {
		return nil, ErrNothingToClaim
	}
	id, err := poolIDForClass(pos, class)
	if err != nil {
		return nil, err
	}
	pool, ok, err := e.state.PoolGet(id)
	if err != nil {
		return nil, err
	}
	if !ok || pool == nil {
		return nil, ErrPoolNotFound
	}
	pending, entitled, err := pool.Settle(pos.Weight, slot.Amount)
	if err != nil {
		return nil, err
	}
	if pending.Sign() == 0 {
		return nil, ErrNothingToClaim
	}
	if err := e.payFromVault(caller, pending); err != nil {
		return nil, err
	}
	debtBefore := cloneOrZero(slot.Amount)
	slot.Amount = entitled
	if err := e.state.PositionPut(pos); err != nil {
		return nil, err
	}
	if err := pool.RecordClaim(pending); err != nil {
		return nil, err
	}
	if err := e.state.PoolPut(pool); err != nil {
		return nil, err
	}
	e.emit(events.RewardClaim{
		Pool:       pool.ID,
		Token:      token,
		Claimer:    caller,
		Amount:     new(big.Int).Set(pending),
		DebtBefore: debtBefore,
		DebtAfter:  cloneOrZero(slot.Amount),
	})
	return pending, nil
}

// Pending reports the claimable value for one debt slot without mutating
// anything. A non-nil overrideRPS settles against that accumulator instead
// of the pool's live one, which is how callers fold in projected-but-unswept
// treasury value.
func (e *Engine) Pending(token [32]byte, class PoolClass, overrideRPS *big.Int) (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	pos, ok, err := e.state.PositionGet(token)
	if err != nil {
		return nil, err
	}
	if !ok || pos == nil {
		return nil, ErrPositionNotFound
	}
	slot := pos.Debt(class)
	if slot == nil || !slot.Attached {
		return big.NewInt(0), nil
	}
	id, err := poolIDForClass(pos, class)
	if err != nil {
		return nil, err
	}
	pool, ok, err := e.state.PoolGet(id)
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
	entitled, err := Entitlement(pos.Weight, rps)
	if err != nil {
		return nil, err
	}
	return Pending(entitled, slot.Amount), nil
}

// PoolView returns a detached copy of a pool record.
func (e *Engine) PoolView(id [32]byte) (*Pool, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	pool, ok, err := e.state.PoolGet(id)
	if err != nil {
		return nil, err
	}
	if !ok || pool == nil {
		return nil, ErrPoolNotFound
	}
	return pool.Clone(), nil
}

// PositionView returns a detached copy of a position record.
func (e *Engine) PositionView(token [32]byte) (*Position, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	pos, ok, err := e.state.PositionGet(token)
	if err != nil {
		return nil, err
	}
	if !ok || pos == nil {
		return nil, ErrPositionNotFound
	}
	return pos.Clone(), nil
}
