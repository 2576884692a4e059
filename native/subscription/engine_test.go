package subscription

import (
	"errors"
	"math/big"
	"testing"
)

type mockState struct {
	subs  map[[32]byte]*Subscription
	index [][32]byte
}

func newMockState() *mockState {
	return &mockState{subs: make(map[[32]byte]*Subscription)}
}

func (m *mockState) SubscriptionGet(id [32]byte) (*Subscription, bool, error) {
	sub, ok := m.subs[id]
	if !ok {
		return nil, false, nil
	}
	return sub.Clone(), true, nil
}

func (m *mockState) SubscriptionPut(sub *Subscription) error {
	if _, ok := m.subs[sub.ID]; !ok {
		m.index = append(m.index, sub.ID)
	}
	m.subs[sub.ID] = sub.Clone()
	return nil
}

func (m *mockState) SubscriptionList() ([][32]byte, error) {
	out := make([][32]byte, len(m.index))
	copy(out, m.index)
	return out, nil
}

func addr(last byte) [20]byte {
	var out [20]byte
	out[19] = last
	return out
}

func newTestEngine(state *mockState, now int64) *Engine {
	e := NewEngine()
	e.SetState(state)
	e.SetNowFunc(func() int64 { return now })
	return e
}

func TestSubscribeCreatesRecord(t *testing.T) {
	state := newMockState()
	engine := newTestEngine(state, 1_000)
	creator, patron := addr(0x01), addr(0x02)

	sub, err := engine.Subscribe(creator, patron, big.NewInt(500), 86_400)
	if err != nil {
		t.Fatalf("subscribe failed: %v", err)
	}
	if sub.ID != IDFor(creator, patron) {
		t.Fatalf("subscription id not derived from the pair")
	}
	if !sub.Active || sub.CreatedAt != 1_000 || sub.LastPaidAt != 0 {
		t.Fatalf("unexpected fresh subscription: %+v", sub)
	}
	if sub.AmountPerEpoch.Cmp(big.NewInt(500)) != 0 || sub.EpochSeconds != 86_400 {
		t.Fatalf("terms not recorded: %+v", sub)
	}

	ids, err := engine.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(ids) != 1 || ids[0] != sub.ID {
		t.Fatalf("subscription missing from listing")
	}
}

func TestSubscribeValidatesTerms(t *testing.T) {
	engine := newTestEngine(newMockState(), 1_000)
	creator, patron := addr(0x01), addr(0x02)

	if _, err := engine.Subscribe(creator, creator, big.NewInt(500), 86_400); !errors.Is(err, ErrSelfSubscribe) {
		t.Fatalf("expected ErrSelfSubscribe, got %v", err)
	}
	if _, err := engine.Subscribe(creator, patron, big.NewInt(0), 86_400); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount for zero, got %v", err)
	}
	if _, err := engine.Subscribe(creator, patron, nil, 86_400); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount for nil, got %v", err)
	}
	if _, err := engine.Subscribe(creator, patron, big.NewInt(500), 0); !errors.Is(err, ErrInvalidPeriod) {
		t.Fatalf("expected ErrInvalidPeriod, got %v", err)
	}
}

func TestResubscribeReactivatesWithNewTerms(t *testing.T) {
	state := newMockState()
	engine := newTestEngine(state, 1_000)
	creator, patron := addr(0x01), addr(0x02)

	first, err := engine.Subscribe(creator, patron, big.NewInt(500), 86_400)
	if err != nil {
		t.Fatalf("subscribe failed: %v", err)
	}
	if err := engine.Cancel(patron, first.ID); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}

	engine.SetNowFunc(func() int64 { return 2_000 })
	second, err := engine.Subscribe(creator, patron, big.NewInt(900), 3_600)
	if err != nil {
		t.Fatalf("resubscribe failed: %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("resubscribe must reuse the pair id")
	}
	if !second.Active || second.CancelledAt != 0 || second.LastPaidAt != 0 {
		t.Fatalf("reactivation did not reset the record: %+v", second)
	}
	if second.AmountPerEpoch.Cmp(big.NewInt(900)) != 0 || second.EpochSeconds != 3_600 {
		t.Fatalf("new terms not applied: %+v", second)
	}

	ids, err := engine.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(ids) != 1 {
		t.Fatalf("reactivation must not duplicate the listing, got %d entries", len(ids))
	}
}

func TestCancelRequiresPartyToThePair(t *testing.T) {
	state := newMockState()
	engine := newTestEngine(state, 1_000)
	creator, patron, stranger := addr(0x01), addr(0x02), addr(0x03)

	sub, err := engine.Subscribe(creator, patron, big.NewInt(500), 86_400)
	if err != nil {
		t.Fatalf("subscribe failed: %v", err)
	}
	if err := engine.Cancel(stranger, sub.ID); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if err := engine.Cancel(creator, sub.ID); err != nil {
		t.Fatalf("creator cancel failed: %v", err)
	}
	got, err := engine.Get(sub.ID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got.Active || got.CancelledAt != 1_000 {
		t.Fatalf("cancel not recorded: %+v", got)
	}
	if err := engine.Cancel(patron, sub.ID); !errors.Is(err, ErrInactive) {
		t.Fatalf("second cancel should report ErrInactive, got %v", err)
	}
}

func TestPaymentDueLifecycle(t *testing.T) {
	state := newMockState()
	engine := newTestEngine(state, 1_000)
	creator, patron := addr(0x01), addr(0x02)

	if _, err := engine.PaymentDue([32]byte{0x01}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	sub, err := engine.Subscribe(creator, patron, big.NewInt(500), 3_600)
	if err != nil {
		t.Fatalf("subscribe failed: %v", err)
	}

	// A fresh subscription owes its first payment immediately.
	amount, err := engine.PaymentDue(sub.ID)
	if err != nil {
		t.Fatalf("payment due failed: %v", err)
	}
	if amount.Cmp(big.NewInt(500)) != 0 {
		t.Fatalf("due amount: want 500 got %s", amount)
	}

	paid, err := engine.MarkPaid(sub.ID)
	if err != nil {
		t.Fatalf("mark paid failed: %v", err)
	}
	if paid.LastPaidAt != 1_000 {
		t.Fatalf("payment timestamp not recorded: %+v", paid)
	}

	// Inside the epoch nothing further is owed.
	engine.SetNowFunc(func() int64 { return 1_000 + 3_599 })
	if _, err := engine.PaymentDue(sub.ID); !errors.Is(err, ErrNotDue) {
		t.Fatalf("expected ErrNotDue inside the epoch, got %v", err)
	}

	// One epoch after the last payment the next one is owed.
	engine.SetNowFunc(func() int64 { return 1_000 + 3_600 })
	if _, err := engine.PaymentDue(sub.ID); err != nil {
		t.Fatalf("expected a due payment at the epoch boundary: %v", err)
	}
}

func TestPaymentDueOnCancelled(t *testing.T) {
	state := newMockState()
	engine := newTestEngine(state, 1_000)
	creator, patron := addr(0x01), addr(0x02)

	sub, err := engine.Subscribe(creator, patron, big.NewInt(500), 3_600)
	if err != nil {
		t.Fatalf("subscribe failed: %v", err)
	}
	if err := engine.Cancel(patron, sub.ID); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	if _, err := engine.PaymentDue(sub.ID); !errors.Is(err, ErrInactive) {
		t.Fatalf("expected ErrInactive, got %v", err)
	}
}
