package treasury

import (
	"errors"
	"math/big"
	"time"

	"curiochain/core/events"
	"curiochain/core/types"
)

var (
	errNilState    = errors.New("treasury: state not configured")
	errStreamScope = errors.New("treasury: stream not accepted by scope")

	// ErrInsufficientFunds is returned when a payer cannot cover a deposit.
	ErrInsufficientFunds = errors.New("treasury: insufficient balance")
)

type engineState interface {
	TreasuryGet(id [32]byte) (*Treasury, bool, error)
	TreasuryPut(t *Treasury) error
	GetAccount(addr []byte) (*types.Account, error)
	PutAccount(addr []byte, account *types.Account) error
}

// Engine funds treasuries and answers unlock queries. Sweeping out of them
// belongs to the distributor.
type Engine struct {
	state     engineState
	emitter   events.Emitter
	nowFn     func() int64
	durations map[ScopeKind]int64
}

// NewEngine constructs a treasury engine with default dependencies.
func NewEngine() *Engine {
	return &Engine{
		emitter:   events.NoopEmitter{},
		nowFn:     func() int64 { return time.Now().Unix() },
		durations: make(map[ScopeKind]int64),
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

// SetUnlockDuration fixes the unlock curve length for treasuries of a scope.
// Applies at creation; existing treasuries keep their curve.
func (e *Engine) SetUnlockDuration(scope ScopeKind, seconds int64) {
	if e.durations == nil {
		e.durations = make(map[ScopeKind]int64)
	}
	if seconds < 0 {
		seconds = 0
	}
	e.durations[scope] = seconds
}

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

// Ensure returns the treasury for a scope, creating it with the configured
// unlock curve on first touch.
func (e *Engine) Ensure(scope ScopeKind, ref [32]byte) (*Treasury, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	if !scope.Valid() {
		return nil, ErrNotFound
	}
	id := IDFor(scope, ref)
	t, ok, err := e.state.TreasuryGet(id)
	if err != nil {
		return nil, err
	}
	if ok && t != nil {
		return t.normalize(), nil
	}
	t = New(scope, ref, e.now(), e.durations[scope])
	if err := e.state.TreasuryPut(t); err != nil {
		return nil, err
	}
	return t, nil
}

// Fund moves amount from the payer into the treasury account and books it on
// the given stream, creating the treasury on first touch.
func (e *Engine) Fund(scope ScopeKind, ref [32]byte, stream Stream, payer [20]byte, amount *big.Int) (*Treasury, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	if amount == nil || amount.Sign() <= 0 {
		return nil, ErrInvalidAmount
	}
	accepted := false
	for _, s := range StreamsFor(scope) {
		if s == stream {
			accepted = true
			break
		}
	}
	if !accepted {
		return nil, errStreamScope
	}
	t, err := e.Ensure(scope, ref)
	if err != nil {
		return nil, err
	}
	payerAcc, err := e.state.GetAccount(payer[:])
	if err != nil {
		return nil, err
	}
	payerAcc = ensureAccount(payerAcc)
	if payerAcc.Balance.Cmp(amount) < 0 {
		return nil, ErrInsufficientFunds
	}
	treasuryAcc, err := e.state.GetAccount(t.Account[:])
	if err != nil {
		return nil, err
	}
	treasuryAcc = ensureAccount(treasuryAcc)

	if err := t.Deposit(stream, amount); err != nil {
		return nil, err
	}
	payerAcc.Balance = new(big.Int).Sub(payerAcc.Balance, amount)
	treasuryAcc.Balance = new(big.Int).Add(treasuryAcc.Balance, amount)
	if err := e.state.PutAccount(payer[:], payerAcc); err != nil {
		return nil, err
	}
	if err := e.state.PutAccount(t.Account[:], treasuryAcc); err != nil {
		return nil, err
	}
	if err := e.state.TreasuryPut(t); err != nil {
		return nil, err
	}
	e.emit(events.TreasuryFunded{
		Treasury: t.ID,
		Stream:   stream.String(),
		Amount:   new(big.Int).Set(amount),
		FundedAt: e.now(),
	})
	return t.Clone(), nil
}

// Get returns a copy of the treasury for a scope.
func (e *Engine) Get(scope ScopeKind, ref [32]byte) (*Treasury, error) {
	return e.GetByID(IDFor(scope, ref))
}

// GetByID returns a copy of a treasury by storage identity.
func (e *Engine) GetByID(id [32]byte) (*Treasury, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	t, ok, err := e.state.TreasuryGet(id)
	if err != nil {
		return nil, err
	}
	if !ok || t == nil {
		return nil, ErrNotFound
	}
	return t.normalize().Clone(), nil
}
