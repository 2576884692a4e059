package rewards

import (
	"errors"
	"math/big"
	"testing"
)

func TestPoolIDDerivationIsStable(t *testing.T) {
	scope := tokenID(0x42)
	first := PoolIDFor(PoolContent, scope)
	second := PoolIDFor(PoolContent, scope)
	if first != second {
		t.Fatalf("same inputs derived different ids")
	}
	if PoolIDFor(PoolBundle, scope) == first {
		t.Fatalf("bundle and content pools for one scope must differ")
	}
	if PoolIDFor(PoolContent, tokenID(0x43)) == first {
		t.Fatalf("different scopes must derive different ids")
	}
	if GlobalPoolID() != PoolIDFor(PoolGlobal, [32]byte{}) {
		t.Fatalf("global pool id drifted from its derivation")
	}
}

func TestAttachDetachSymmetry(t *testing.T) {
	pool := NewPool(PoolContent, tokenID(0x01), addr(0x01))
	if err := pool.Attach(60); err != nil {
		t.Fatalf("attach failed: %v", err)
	}
	before := new(big.Int).Set(pool.TotalWeight)
	if err := pool.Attach(20); err != nil {
		t.Fatalf("attach failed: %v", err)
	}
	if err := pool.Detach(20); err != nil {
		t.Fatalf("detach failed: %v", err)
	}
	if pool.TotalWeight.Cmp(before) != 0 {
		t.Fatalf("attach/detach did not restore weight: want %s got %s", before, pool.TotalWeight)
	}
	if pool.Positions != 1 {
		t.Fatalf("attach/detach did not restore count: got %d", pool.Positions)
	}
}

func TestDetachBeyondRecordedWeightRefuses(t *testing.T) {
	pool := NewPool(PoolContent, tokenID(0x01), addr(0x01))
	if err := pool.Attach(5); err != nil {
		t.Fatalf("attach failed: %v", err)
	}
	if err := pool.Detach(6); !errors.Is(err, ErrStaleWeight) {
		t.Fatalf("detach beyond total must refuse, got %v", err)
	}
	if err := pool.Detach(5); err != nil {
		t.Fatalf("exact detach failed: %v", err)
	}
	if err := pool.Detach(1); !errors.Is(err, ErrStaleWeight) {
		t.Fatalf("detach from empty pool must refuse, got %v", err)
	}
}

func TestReweighAdjustsWeightWithoutCount(t *testing.T) {
	pool := NewPool(PoolCreatorDist, tokenID(0x01), addr(0x01))
	if err := pool.Attach(100); err != nil {
		t.Fatalf("attach failed: %v", err)
	}
	if err := pool.Reweigh(100, 70); err != nil {
		t.Fatalf("reweigh failed: %v", err)
	}
	if pool.TotalWeight.Cmp(big.NewInt(70)) != 0 {
		t.Fatalf("reweigh weight: want 70 got %s", pool.TotalWeight)
	}
	if pool.Positions != 1 {
		t.Fatalf("reweigh must not change membership count, got %d", pool.Positions)
	}
	if err := pool.Reweigh(200, 10); !errors.Is(err, ErrStaleWeight) {
		t.Fatalf("reweigh below zero must refuse, got %v", err)
	}
}

func TestAccrueBooksDepositAndAdvancesAccumulator(t *testing.T) {
	pool := NewPool(PoolContent, tokenID(0x01), addr(0x01))

	if _, err := pool.Accrue(big.NewInt(100)); !errors.Is(err, ErrNoWeightToDistribute) {
		t.Fatalf("empty pool accrual must refuse, got %v", err)
	}
	if pool.TotalDeposited.Sign() != 0 {
		t.Fatalf("refused accrual booked a deposit: %s", pool.TotalDeposited)
	}

	if err := pool.Attach(10); err != nil {
		t.Fatalf("attach failed: %v", err)
	}
	newRPS, err := pool.Accrue(big.NewInt(1_000))
	if err != nil {
		t.Fatalf("accrue failed: %v", err)
	}
	want, _ := new(big.Int).SetString("100000000000000", 10)
	if newRPS.Cmp(want) != 0 || pool.RewardPerShare.Cmp(want) != 0 {
		t.Fatalf("accumulator: want %s got %s", want, pool.RewardPerShare)
	}
	if pool.TotalDeposited.Cmp(big.NewInt(1_000)) != 0 {
		t.Fatalf("deposit not booked: %s", pool.TotalDeposited)
	}
	if _, err := pool.Accrue(big.NewInt(0)); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("zero accrual must refuse, got %v", err)
	}
}

func TestSettleDoesNotMutatePool(t *testing.T) {
	pool := NewPool(PoolContent, tokenID(0x01), addr(0x01))
	if err := pool.Attach(10); err != nil {
		t.Fatalf("attach failed: %v", err)
	}
	if _, err := pool.Accrue(big.NewInt(500)); err != nil {
		t.Fatalf("accrue failed: %v", err)
	}
	snapshot := pool.Clone()

	pending, entitled, err := pool.Settle(10, big.NewInt(0))
	if err != nil {
		t.Fatalf("settle failed: %v", err)
	}
	if pending.Cmp(big.NewInt(500)) != 0 {
		t.Fatalf("pending: want 500 got %s", pending)
	}
	wantEntitled, _ := new(big.Int).SetString("500000000000000", 10)
	if entitled.Cmp(wantEntitled) != 0 {
		t.Fatalf("entitled: want %s got %s", wantEntitled, entitled)
	}
	if pool.RewardPerShare.Cmp(snapshot.RewardPerShare) != 0 ||
		pool.TotalWeight.Cmp(snapshot.TotalWeight) != 0 ||
		pool.TotalClaimed.Cmp(snapshot.TotalClaimed) != 0 {
		t.Fatalf("settle mutated the pool")
	}
}

func TestRecordClaimEnforcesConservation(t *testing.T) {
	pool := NewPool(PoolContent, tokenID(0x01), addr(0x01))
	if err := pool.Attach(10); err != nil {
		t.Fatalf("attach failed: %v", err)
	}
	if _, err := pool.Accrue(big.NewInt(300)); err != nil {
		t.Fatalf("accrue failed: %v", err)
	}
	if err := pool.RecordClaim(big.NewInt(200)); err != nil {
		t.Fatalf("claim within deposits failed: %v", err)
	}
	if err := pool.RecordClaim(big.NewInt(101)); !errors.Is(err, ErrClaimOverrun) {
		t.Fatalf("claim beyond deposits must refuse, got %v", err)
	}
	if pool.TotalClaimed.Cmp(big.NewInt(200)) != 0 {
		t.Fatalf("refused claim mutated the book: %s", pool.TotalClaimed)
	}
}

func TestCloneIsDeep(t *testing.T) {
	pool := NewPool(PoolContent, tokenID(0x01), addr(0x01))
	if err := pool.Attach(10); err != nil {
		t.Fatalf("attach failed: %v", err)
	}
	clone := pool.Clone()
	clone.TotalWeight.SetInt64(999)
	if pool.TotalWeight.Cmp(big.NewInt(10)) != 0 {
		t.Fatalf("clone shares weight storage with original")
	}
}
