package rewards

import (
	"errors"
	"math/big"
	"testing"
)

// accrueCreator pushes amount into a creator's distribution pool and funds
// the vault, standing in for the distributor.
func accrueCreator(t *testing.T, state *mockState, vault [20]byte, creator [20]byte, amount int64) {
	t.Helper()
	pool, ok := state.pools[CreatorPoolID(creator)]
	if !ok {
		t.Fatalf("creator pool missing for accrual")
	}
	if _, err := pool.Accrue(big.NewInt(amount)); err != nil {
		t.Fatalf("accrue failed: %v", err)
	}
	state.pools[pool.ID] = pool
	acc, _ := state.GetAccount(vault[:])
	acc.Balance = new(big.Int).Add(acc.Balance, big.NewInt(amount))
	_ = state.PutAccount(vault[:], acc)
}

func TestRegisterCreatorGrantsFullBudget(t *testing.T) {
	state := newMockState()
	engine := newTestEngine(state)
	creator := addr(0x01)

	share, err := engine.RegisterCreator(creator)
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if share.Weight != ShareBudget {
		t.Fatalf("owner share: want %d got %d", ShareBudget, share.Weight)
	}
	pool := state.pools[CreatorPoolID(creator)]
	if pool.TotalWeight.Cmp(new(big.Int).SetUint64(ShareBudget)) != 0 {
		t.Fatalf("pool weight: want %d got %s", ShareBudget, pool.TotalWeight)
	}

	again, err := engine.RegisterCreator(creator)
	if err != nil {
		t.Fatalf("re-register failed: %v", err)
	}
	if again.Weight != ShareBudget {
		t.Fatalf("re-register changed the share: %d", again.Weight)
	}
	pool = state.pools[CreatorPoolID(creator)]
	if pool.TotalWeight.Cmp(new(big.Int).SetUint64(ShareBudget)) != 0 {
		t.Fatalf("re-register inflated pool weight: %s", pool.TotalWeight)
	}
}

func TestCollaboratorSplitRoutesProportionally(t *testing.T) {
	state := newMockState()
	engine := newTestEngine(state)
	vault := addr(0xFE)
	creator := addr(0x01)
	member := addr(0x02)

	if _, err := engine.RegisterCreator(creator); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if _, err := engine.SetCollaboratorShare(creator, member, 30); err != nil {
		t.Fatalf("grant failed: %v", err)
	}
	pool := state.pools[CreatorPoolID(creator)]
	if pool.TotalWeight.Cmp(new(big.Int).SetUint64(ShareBudget)) != 0 {
		t.Fatalf("pool total must stay pinned at the budget, got %s", pool.TotalWeight)
	}

	accrueCreator(t, state, vault, creator, 1_000)

	ownerTake, err := engine.ClaimCreator(creator, creator)
	if err != nil {
		t.Fatalf("owner claim failed: %v", err)
	}
	memberTake, err := engine.ClaimCreator(member, creator)
	if err != nil {
		t.Fatalf("member claim failed: %v", err)
	}
	if ownerTake.Cmp(big.NewInt(700)) != 0 || memberTake.Cmp(big.NewInt(300)) != 0 {
		t.Fatalf("split: want 700/300 got %s/%s", ownerTake, memberTake)
	}
}

func TestReweighingCollaboratorHarvestsFirst(t *testing.T) {
	state := newMockState()
	engine := newTestEngine(state)
	vault := addr(0xFE)
	creator := addr(0x01)
	member := addr(0x02)

	if _, err := engine.RegisterCreator(creator); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if _, err := engine.SetCollaboratorShare(creator, member, 30); err != nil {
		t.Fatalf("grant failed: %v", err)
	}
	accrueCreator(t, state, vault, creator, 1_000)

	// Moving the member to 50 settles the earned 300 immediately at the
	// old weight; only later value uses the new split.
	if _, err := engine.SetCollaboratorShare(creator, member, 50); err != nil {
		t.Fatalf("reweigh failed: %v", err)
	}
	if state.balance(member).Cmp(big.NewInt(300)) != 0 {
		t.Fatalf("reweigh did not harvest member, balance %s", state.balance(member))
	}
	if state.balance(creator).Cmp(big.NewInt(700)) != 0 {
		t.Fatalf("reweigh did not harvest owner, balance %s", state.balance(creator))
	}

	accrueCreator(t, state, vault, creator, 1_000)
	memberTake, err := engine.ClaimCreator(member, creator)
	if err != nil {
		t.Fatalf("member claim failed: %v", err)
	}
	if memberTake.Cmp(big.NewInt(500)) != 0 {
		t.Fatalf("post-reweigh split: want 500 got %s", memberTake)
	}
}

func TestRemovingCollaboratorReturnsWeightToOwner(t *testing.T) {
	state := newMockState()
	engine := newTestEngine(state)
	vault := addr(0xFE)
	creator := addr(0x01)
	member := addr(0x02)

	if _, err := engine.RegisterCreator(creator); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if _, err := engine.SetCollaboratorShare(creator, member, 40); err != nil {
		t.Fatalf("grant failed: %v", err)
	}
	if _, err := engine.SetCollaboratorShare(creator, member, 0); err != nil {
		t.Fatalf("removal failed: %v", err)
	}
	if _, ok := state.shares[shareKey(creator, member)]; ok {
		t.Fatalf("removed grant still stored")
	}
	pool := state.pools[CreatorPoolID(creator)]
	if pool.TotalWeight.Cmp(new(big.Int).SetUint64(ShareBudget)) != 0 {
		t.Fatalf("pool total after removal: want %d got %s", ShareBudget, pool.TotalWeight)
	}

	accrueCreator(t, state, vault, creator, 1_000)
	ownerTake, err := engine.ClaimCreator(creator, creator)
	if err != nil {
		t.Fatalf("owner claim failed: %v", err)
	}
	if ownerTake.Cmp(big.NewInt(1_000)) != 0 {
		t.Fatalf("owner should earn everything after removal, got %s", ownerTake)
	}
}

func TestShareBudgetCannotBeExceeded(t *testing.T) {
	state := newMockState()
	engine := newTestEngine(state)
	creator := addr(0x01)

	if _, err := engine.RegisterCreator(creator); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if _, err := engine.SetCollaboratorShare(creator, addr(0x02), 60); err != nil {
		t.Fatalf("first grant failed: %v", err)
	}
	if _, err := engine.SetCollaboratorShare(creator, addr(0x03), 50); !errors.Is(err, ErrInvalidShare) {
		t.Fatalf("over-budget grant must refuse, got %v", err)
	}
	if _, err := engine.SetCollaboratorShare(creator, addr(0x03), 40); err != nil {
		t.Fatalf("exact-budget grant failed: %v", err)
	}
	if _, err := engine.SetCollaboratorShare(creator, creator, 10); !errors.Is(err, ErrInvalidShare) {
		t.Fatalf("self-grant must refuse, got %v", err)
	}
}

func TestOverWideGrantRefusedBeforeSettlement(t *testing.T) {
	state := newMockState()
	engine := newTestEngine(state)
	vault := addr(0xFE)
	creator := addr(0x01)

	if _, err := engine.RegisterCreator(creator); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if _, err := engine.SetCollaboratorShare(creator, addr(0x02), 60); err != nil {
		t.Fatalf("grant failed: %v", err)
	}
	accrueCreator(t, state, vault, creator, 1_000)

	// A weight wide enough to wrap granted+weight must refuse up front,
	// before either side is harvested.
	huge := ^uint64(0) - 59
	if _, err := engine.SetCollaboratorShare(creator, addr(0x03), huge); !errors.Is(err, ErrInvalidShare) {
		t.Fatalf("over-wide grant must refuse, got %v", err)
	}
	if state.balance(creator).Sign() != 0 {
		t.Fatalf("refused grant paid the owner: %s", state.balance(creator))
	}

	// The owner's 40% of the accrual is claimable exactly once.
	take, err := engine.ClaimCreator(creator, creator)
	if err != nil {
		t.Fatalf("owner claim failed: %v", err)
	}
	if take.Cmp(big.NewInt(400)) != 0 {
		t.Fatalf("owner claim: want 400 got %s", take)
	}
	if _, err := engine.ClaimCreator(creator, creator); !errors.Is(err, ErrNothingToClaim) {
		t.Fatalf("second claim should find nothing, got %v", err)
	}
}

func TestShareOpsRequireRegistration(t *testing.T) {
	state := newMockState()
	engine := newTestEngine(state)

	if _, err := engine.SetCollaboratorShare(addr(0x01), addr(0x02), 10); !errors.Is(err, errCreatorUnknown) {
		t.Fatalf("unregistered creator must refuse, got %v", err)
	}
	if _, err := engine.ClaimCreator(addr(0x02), addr(0x01)); !errors.Is(err, ErrNothingToClaim) {
		t.Fatalf("claim without a grant should find nothing, got %v", err)
	}
}

func TestClaimCreatorIdempotent(t *testing.T) {
	state := newMockState()
	engine := newTestEngine(state)
	vault := addr(0xFE)
	creator := addr(0x01)

	if _, err := engine.RegisterCreator(creator); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	accrueCreator(t, state, vault, creator, 420)

	first, err := engine.ClaimCreator(creator, creator)
	if err != nil {
		t.Fatalf("first claim failed: %v", err)
	}
	if first.Cmp(big.NewInt(420)) != 0 {
		t.Fatalf("first claim: want 420 got %s", first)
	}
	if _, err := engine.ClaimCreator(creator, creator); !errors.Is(err, ErrNothingToClaim) {
		t.Fatalf("second claim should find nothing, got %v", err)
	}
}
