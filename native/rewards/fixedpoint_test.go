package rewards

import (
	"errors"
	"math/big"
	"testing"
)

func TestAccrualMathMatchesReferenceScenario(t *testing.T) {
	// Two equal weights of 10, value landing before and after the second
	// attach.
	rps := big.NewInt(0)

	if _, err := AccrualDelta(big.NewInt(1_000), big.NewInt(0)); !errors.Is(err, ErrNoWeightToDistribute) {
		t.Fatalf("zero-weight accrual must refuse, got %v", err)
	}

	delta, err := AccrualDelta(big.NewInt(1_000), big.NewInt(10))
	if err != nil {
		t.Fatalf("accrual failed: %v", err)
	}
	rps.Add(rps, delta)
	want, _ := new(big.Int).SetString("100000000000000", 10) // 1e14
	if rps.Cmp(want) != 0 {
		t.Fatalf("rps after first accrual: want %s got %s", want, rps)
	}

	firstRPS := new(big.Int).Set(rps)
	entitledA, err := Entitlement(10, rps)
	if err != nil {
		t.Fatalf("entitlement failed: %v", err)
	}
	if got := Pending(entitledA, big.NewInt(0)); got.Cmp(big.NewInt(1_000)) != 0 {
		t.Fatalf("pending A: want 1000 got %s", got)
	}

	// B attaches now and is baselined at the live accumulator.
	debtB, err := Entitlement(10, rps)
	if err != nil {
		t.Fatalf("debt B failed: %v", err)
	}
	wantDebt, _ := new(big.Int).SetString("1000000000000000", 10) // 1e15
	if debtB.Cmp(wantDebt) != 0 {
		t.Fatalf("debt B: want %s got %s", wantDebt, debtB)
	}
	if got := Pending(debtB, debtB); got.Sign() != 0 {
		t.Fatalf("fresh debt should owe nothing, got %s", got)
	}

	delta, err = AccrualDelta(big.NewInt(2_000), big.NewInt(20))
	if err != nil {
		t.Fatalf("second accrual failed: %v", err)
	}
	rps.Add(rps, delta)
	want, _ = new(big.Int).SetString("200000000000000", 10) // 2e14
	if rps.Cmp(want) != 0 {
		t.Fatalf("rps after second accrual: want %s got %s", want, rps)
	}

	entitledA, _ = Entitlement(10, rps)
	entitledB, _ := Entitlement(10, rps)
	debtA, _ := Entitlement(10, firstRPS)
	if got := Pending(entitledA, debtA); got.Cmp(big.NewInt(1_000)) != 0 {
		t.Fatalf("pending A after second accrual: want 1000 got %s", got)
	}
	if got := Pending(entitledB, debtB); got.Cmp(big.NewInt(1_000)) != 0 {
		t.Fatalf("pending B after second accrual: want 1000 got %s", got)
	}
}

func TestAccrualDeltaTruncatesTowardZero(t *testing.T) {
	delta, err := AccrualDelta(big.NewInt(100), big.NewInt(3))
	if err != nil {
		t.Fatalf("accrual failed: %v", err)
	}
	// 100e12/3 truncates; the lost remainder stays in the pool balance.
	want, _ := new(big.Int).SetString("33333333333333", 10)
	if delta.Cmp(want) != 0 {
		t.Fatalf("truncation: want %s got %s", want, delta)
	}
}

func TestAccrualDeltaRejectsOversizeAmounts(t *testing.T) {
	tooWide := new(big.Int).Lsh(big.NewInt(1), 64)
	if _, err := AccrualDelta(tooWide, big.NewInt(1)); !errors.Is(err, ErrArithmeticOverflow) {
		t.Fatalf("amount beyond 64 bits must refuse, got %v", err)
	}
	if _, err := AccrualDelta(big.NewInt(-5), big.NewInt(1)); !errors.Is(err, ErrArithmeticOverflow) {
		t.Fatalf("negative amount must refuse, got %v", err)
	}
}

func TestEntitlementRejectsAccumulatorOverflow(t *testing.T) {
	nearLimit := new(big.Int).Lsh(big.NewInt(1), 127)
	if _, err := Entitlement(2, nearLimit); !errors.Is(err, ErrArithmeticOverflow) {
		t.Fatalf("128-bit overflow must refuse, got %v", err)
	}
	if _, err := Entitlement(1, nearLimit); err != nil {
		t.Fatalf("exactly 128 bits should fit, got %v", err)
	}
}

func TestPendingSaturatesAtZero(t *testing.T) {
	// Debt recorded against a fresher accumulator than the live one.
	if got := Pending(big.NewInt(500), big.NewInt(900)); got.Sign() != 0 {
		t.Fatalf("saturation: want 0 got %s", got)
	}
	if got := Pending(nil, big.NewInt(1)); got.Sign() != 0 {
		t.Fatalf("nil entitlement: want 0 got %s", got)
	}
}

func TestShareOfSplitsWithTruncation(t *testing.T) {
	if got := ShareOf(big.NewInt(1_000), 80); got.Cmp(big.NewInt(800)) != 0 {
		t.Fatalf("80%% of 1000: want 800 got %s", got)
	}
	if got := ShareOf(big.NewInt(101), 3); got.Cmp(big.NewInt(3)) != 0 {
		t.Fatalf("3%% of 101: want 3 got %s", got)
	}
	if got := ShareOf(big.NewInt(33), 0); got.Sign() != 0 {
		t.Fatalf("0%%: want 0 got %s", got)
	}
	if got := ShareOf(nil, 50); got.Sign() != 0 {
		t.Fatalf("nil amount: want 0 got %s", got)
	}
}
