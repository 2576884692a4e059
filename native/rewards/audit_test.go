package rewards

import (
	"errors"
	"math/big"
	"testing"
)

func TestAuditPassesOnConsistentPool(t *testing.T) {
	state := newMockState()
	engine := newTestEngine(state)
	ref := tokenID(0xAA)

	if _, err := engine.OpenPosition(addr(0x01), tokenID(0x01), addr(0x0C), ref, false, false, RarityRare, nil); err != nil {
		t.Fatalf("mint failed: %v", err)
	}
	if _, err := engine.OpenPosition(addr(0x02), tokenID(0x02), addr(0x0C), ref, false, false, RarityLegendary, nil); err != nil {
		t.Fatalf("mint failed: %v", err)
	}

	report, err := engine.Audit(PoolIDFor(PoolContent, ref))
	if err != nil {
		t.Fatalf("audit failed: %v", err)
	}
	if !report.Consistent {
		t.Fatalf("expected consistent report: %+v", report)
	}
	want := new(big.Int).SetUint64(RarityRare.Weight() + RarityLegendary.Weight())
	if report.ComputedWeight.Cmp(want) != 0 {
		t.Fatalf("computed weight: want %s got %s", want, report.ComputedWeight)
	}
}

func TestAuditCatchesWeightDrift(t *testing.T) {
	state := newMockState()
	engine := newTestEngine(state)
	ref := tokenID(0xAA)

	if _, err := engine.OpenPosition(addr(0x01), tokenID(0x01), addr(0x0C), ref, false, false, RarityRare, nil); err != nil {
		t.Fatalf("mint failed: %v", err)
	}

	// A burn that skipped its detach leaves the recorded total heavier
	// than the live membership.
	id := PoolIDFor(PoolContent, ref)
	corrupted := state.pools[id]
	corrupted.TotalWeight = new(big.Int).Add(corrupted.TotalWeight, big.NewInt(20))
	corrupted.Positions++
	state.pools[id] = corrupted

	report, err := engine.Audit(id)
	if !errors.Is(err, ErrStaleWeight) {
		t.Fatalf("expected ErrStaleWeight, got %v", err)
	}
	if report == nil || report.Consistent {
		t.Fatalf("drifted pool reported consistent")
	}
	if report.RecordedWeight.Cmp(report.ComputedWeight) <= 0 {
		t.Fatalf("recorded weight should exceed recount: %s vs %s", report.RecordedWeight, report.ComputedWeight)
	}
}

func TestAuditReportsIndexedButMissingPositions(t *testing.T) {
	state := newMockState()
	engine := newTestEngine(state)
	ref := tokenID(0xAA)

	if _, err := engine.OpenPosition(addr(0x01), tokenID(0x01), addr(0x0C), ref, false, false, RarityRare, nil); err != nil {
		t.Fatalf("mint failed: %v", err)
	}
	// Simulate a partially-applied burn: the position record vanished but
	// the index entry and pool totals survived.
	delete(state.positions, tokenID(0x01))

	report, err := engine.Audit(PoolIDFor(PoolContent, ref))
	if !errors.Is(err, ErrStaleWeight) {
		t.Fatalf("expected ErrStaleWeight, got %v", err)
	}
	if len(report.Missing) != 1 || report.Missing[0] != tokenID(0x01) {
		t.Fatalf("missing list should name the orphaned token: %+v", report.Missing)
	}
}

func TestAuditCreatorPoolRecountsShares(t *testing.T) {
	state := newMockState()
	engine := newTestEngine(state)
	creator := addr(0x01)

	if _, err := engine.RegisterCreator(creator); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if _, err := engine.SetCollaboratorShare(creator, addr(0x02), 25); err != nil {
		t.Fatalf("grant failed: %v", err)
	}

	report, err := engine.Audit(CreatorPoolID(creator))
	if err != nil {
		t.Fatalf("audit failed: %v", err)
	}
	if !report.Consistent {
		t.Fatalf("expected consistent report: %+v", report)
	}
	if report.ComputedWeight.Cmp(new(big.Int).SetUint64(ShareBudget)) != 0 {
		t.Fatalf("share recount: want %d got %s", ShareBudget, report.ComputedWeight)
	}
}
