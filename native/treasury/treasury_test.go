package treasury

import (
	"errors"
	"math/big"
	"testing"
)

func TestLinearUnlockOverDuration(t *testing.T) {
	tr := New(ScopeContent, [32]byte{0x01}, 1_000, 100)
	if err := tr.Deposit(StreamPrimary, big.NewInt(10_000)); err != nil {
		t.Fatalf("deposit failed: %v", err)
	}

	cases := []struct {
		now  int64
		want int64
	}{
		{900, 0},     // before the curve starts
		{1_000, 0},   // exactly at start
		{1_025, 2_500},
		{1_050, 5_000},
		{1_099, 9_900},
		{1_100, 10_000}, // fully vested
		{2_000, 10_000}, // long after
	}
	for _, tc := range cases {
		got := tr.UnlockedAt(StreamPrimary, tc.now)
		if got.Cmp(big.NewInt(tc.want)) != 0 {
			t.Fatalf("unlocked at %d: want %d got %s", tc.now, tc.want, got)
		}
	}
}

func TestUnlockIsLazyAgainstLateDeposits(t *testing.T) {
	tr := New(ScopeContent, [32]byte{0x01}, 1_000, 100)
	if err := tr.Deposit(StreamPrimary, big.NewInt(1_000)); err != nil {
		t.Fatalf("deposit failed: %v", err)
	}
	// Half way through, another deposit lands. The curve applies to the
	// whole balance; the late deposit is half vested immediately.
	if got := tr.UnlockedAt(StreamPrimary, 1_050); got.Cmp(big.NewInt(500)) != 0 {
		t.Fatalf("pre-deposit unlock: want 500 got %s", got)
	}
	if err := tr.Deposit(StreamPrimary, big.NewInt(1_000)); err != nil {
		t.Fatalf("deposit failed: %v", err)
	}
	if got := tr.UnlockedAt(StreamPrimary, 1_050); got.Cmp(big.NewInt(1_000)) != 0 {
		t.Fatalf("post-deposit unlock: want 1000 got %s", got)
	}
}

func TestZeroDurationUnlocksImmediately(t *testing.T) {
	tr := New(ScopePlatform, [32]byte{0x02}, 1_000, 0)
	if err := tr.Deposit(StreamDirect, big.NewInt(777)); err != nil {
		t.Fatalf("deposit failed: %v", err)
	}
	if got := tr.UnlockedAt(StreamDirect, 1_000); got.Cmp(big.NewInt(777)) != 0 {
		t.Fatalf("zero-duration unlock: want 777 got %s", got)
	}
}

func TestMarkSweptTracksUnswept(t *testing.T) {
	tr := New(ScopeContent, [32]byte{0x01}, 0, 100)
	if err := tr.Deposit(StreamSecondary, big.NewInt(1_000)); err != nil {
		t.Fatalf("deposit failed: %v", err)
	}

	if got := tr.UnsweptAt(StreamSecondary, 50); got.Cmp(big.NewInt(500)) != 0 {
		t.Fatalf("unswept: want 500 got %s", got)
	}
	if err := tr.MarkSwept(StreamSecondary, big.NewInt(500), 50); err != nil {
		t.Fatalf("sweep failed: %v", err)
	}
	if got := tr.UnsweptAt(StreamSecondary, 50); got.Sign() != 0 {
		t.Fatalf("swept value still reported unswept: %s", got)
	}
	// More time vests more value.
	if got := tr.UnsweptAt(StreamSecondary, 75); got.Cmp(big.NewInt(250)) != 0 {
		t.Fatalf("later unswept: want 250 got %s", got)
	}
	// Sweeping beyond the curve is refused.
	if err := tr.MarkSwept(StreamSecondary, big.NewInt(300), 75); !errors.Is(err, ErrOversweep) {
		t.Fatalf("oversweep must refuse, got %v", err)
	}
}

func TestStreamsMatchScope(t *testing.T) {
	cases := []struct {
		scope ScopeKind
		want  []Stream
	}{
		{ScopeContent, []Stream{StreamPrimary, StreamSecondary}},
		{ScopeBundle, []Stream{StreamPrimary, StreamSecondary}},
		{ScopeCreator, []Stream{StreamSubscription}},
		{ScopePlatform, []Stream{StreamDirect}},
	}
	for _, tc := range cases {
		got := StreamsFor(tc.scope)
		if len(got) != len(tc.want) {
			t.Fatalf("streams for %s: want %v got %v", tc.scope, tc.want, got)
		}
		for i := range got {
			if got[i] != tc.want[i] {
				t.Fatalf("streams for %s: want %v got %v", tc.scope, tc.want, got)
			}
		}
	}
}

func TestDepositValidation(t *testing.T) {
	tr := New(ScopeContent, [32]byte{0x01}, 0, 100)
	if err := tr.Deposit(StreamPrimary, big.NewInt(0)); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("zero deposit must refuse, got %v", err)
	}
	if err := tr.Deposit(StreamPrimary, nil); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("nil deposit must refuse, got %v", err)
	}
	tooWide := new(big.Int).Lsh(big.NewInt(1), 64)
	if err := tr.Deposit(StreamPrimary, tooWide); !errors.Is(err, ErrOverflow) {
		t.Fatalf("oversize deposit must refuse, got %v", err)
	}
	if err := tr.Deposit(Stream(99), big.NewInt(1)); !errors.Is(err, ErrUnknownStream) {
		t.Fatalf("unknown stream must refuse, got %v", err)
	}
}

func TestTreasuryIDsArePerScopeAndRef(t *testing.T) {
	ref := [32]byte{0x01}
	if IDFor(ScopeContent, ref) == IDFor(ScopeBundle, ref) {
		t.Fatalf("scopes must derive distinct ids")
	}
	if IDFor(ScopeContent, ref) == IDFor(ScopeContent, [32]byte{0x02}) {
		t.Fatalf("refs must derive distinct ids")
	}
	first := New(ScopeContent, ref, 0, 10)
	second := New(ScopeContent, ref, 0, 10)
	if first.ID != second.ID || first.Account != second.Account {
		t.Fatalf("treasury identity must be deterministic")
	}
	var zero [20]byte
	if first.Account == zero {
		t.Fatalf("treasury module account must be derived")
	}
}
