package subscription

import (
	"errors"
	"math/big"
	"time"

	"curiochain/core/events"
)

var errNilState = errors.New("subscription: state not configured")

type engineState interface {
	SubscriptionGet(id [32]byte) (*Subscription, bool, error)
	SubscriptionPut(sub *Subscription) error
	SubscriptionList() ([][32]byte, error)
}

// Engine keeps the subscription book. It decides what is owed and when;
// actually moving the pledge into a creator treasury is the caller's job.
type Engine struct {
	state   engineState
	emitter events.Emitter
	nowFn   func() int64
}

// NewEngine constructs a subscription engine with default wiring.
func NewEngine() *Engine {
	return &Engine{
		emitter: events.NoopEmitter{},
		nowFn:   func() int64 { return time.Now().Unix() },
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

// Subscribe opens a pledge from patron to creator, or reactivates a
// cancelled one with the new terms. The first payment falls due
// immediately.
func (e *Engine) Subscribe(creator, patron [20]byte, amountPerEpoch *big.Int, epochSeconds int64) (*Subscription, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	if creator == patron {
		return nil, ErrSelfSubscribe
	}
	if amountPerEpoch == nil || amountPerEpoch.Sign() <= 0 {
		return nil, ErrInvalidAmount
	}
	if epochSeconds <= 0 {
		return nil, ErrInvalidPeriod
	}
	id := IDFor(creator, patron)
	sub, ok, err := e.state.SubscriptionGet(id)
	if err != nil {
		return nil, err
	}
	now := e.now()
	if !ok || sub == nil {
		sub = &Subscription{
			ID:        id,
			Creator:   creator,
			Patron:    patron,
			CreatedAt: now,
		}
	}
	sub.normalize()
	sub.AmountPerEpoch = new(big.Int).Set(amountPerEpoch)
	sub.EpochSeconds = epochSeconds
	sub.CancelledAt = 0
	sub.LastPaidAt = 0
	sub.Active = true
	if err := e.state.SubscriptionPut(sub); err != nil {
		return nil, err
	}
	e.emit(events.SubscriptionCreated{
		ID:             id,
		Creator:        creator,
		Patron:         patron,
		AmountPerEpoch: new(big.Int).Set(amountPerEpoch),
		CreatedAt:      now,
	})
	return sub.Clone(), nil
}

// Cancel deactivates a subscription. Either side of the pledge may cancel.
func (e *Engine) Cancel(caller [20]byte, id [32]byte) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	sub, ok, err := e.state.SubscriptionGet(id)
	if err != nil {
		return err
	}
	if !ok || sub == nil {
		return ErrNotFound
	}
	if caller != sub.Creator && caller != sub.Patron {
		return ErrUnauthorized
	}
	if !sub.Active {
		return ErrInactive
	}
	sub.Active = false
	sub.CancelledAt = e.now()
	if err := e.state.SubscriptionPut(sub); err != nil {
		return err
	}
	e.emit(events.SubscriptionCancelled{
		ID:          id,
		Creator:     sub.Creator,
		Patron:      sub.Patron,
		CancelledAt: sub.CancelledAt,
	})
	return nil
}

// PaymentDue returns what the patron owes right now. ErrNotDue means the
// current period is already covered.
func (e *Engine) PaymentDue(id [32]byte) (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	sub, ok, err := e.state.SubscriptionGet(id)
	if err != nil {
		return nil, err
	}
	if !ok || sub == nil {
		return nil, ErrNotFound
	}
	if !sub.Active {
		return nil, ErrInactive
	}
	if !sub.DueAt(e.now()) {
		return nil, ErrNotDue
	}
	sub.normalize()
	return new(big.Int).Set(sub.AmountPerEpoch), nil
}

// MarkPaid records a settled period and emits the payment event. Callers
// invoke it only after the pledge funds have actually moved.
func (e *Engine) MarkPaid(id [32]byte) (*Subscription, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	sub, ok, err := e.state.SubscriptionGet(id)
	if err != nil {
		return nil, err
	}
	if !ok || sub == nil {
		return nil, ErrNotFound
	}
	if !sub.Active {
		return nil, ErrInactive
	}
	sub.normalize()
	sub.LastPaidAt = e.now()
	if err := e.state.SubscriptionPut(sub); err != nil {
		return nil, err
	}
	e.emit(events.SubscriptionPaid{
		ID:      id,
		Creator: sub.Creator,
		Patron:  sub.Patron,
		Amount:  new(big.Int).Set(sub.AmountPerEpoch),
		PaidAt:  sub.LastPaidAt,
	})
	return sub.Clone(), nil
}

// Get returns a copy of one subscription.
func (e *Engine) Get(id [32]byte) (*Subscription, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	sub, ok, err := e.state.SubscriptionGet(id)
	if err != nil {
		return nil, err
	}
	if !ok || sub == nil {
		return nil, ErrNotFound
	}
	return sub.Clone(), nil
}

// List returns the IDs of every subscription on the book.
func (e *Engine) List() ([][32]byte, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	return e.state.SubscriptionList()
}
