package distribution

import (
	"errors"
	"math/big"
	"testing"

	"curiochain/core/types"
	"curiochain/native/rewards"
	"curiochain/native/treasury"
)

type mockState struct {
	pools      map[[32]byte]*rewards.Pool
	treasuries map[[32]byte]*treasury.Treasury
	epochs     map[[32]byte]*EpochState
	accounts   map[string]*types.Account
}

func newMockState() *mockState {
	return &mockState{
		pools:      make(map[[32]byte]*rewards.Pool),
		treasuries: make(map[[32]byte]*treasury.Treasury),
		epochs:     make(map[[32]byte]*EpochState),
		accounts:   make(map[string]*types.Account),
	}
}

func (m *mockState) PoolGet(id [32]byte) (*rewards.Pool, bool, error) {
	pool, ok := m.pools[id]
	if !ok {
		return nil, false, nil
	}
	return pool.Clone(), true, nil
}

func (m *mockState) PoolPut(pool *rewards.Pool) error {
	m.pools[pool.ID] = pool.Clone()
	return nil
}

func (m *mockState) TreasuryGet(id [32]byte) (*treasury.Treasury, bool, error) {
	t, ok := m.treasuries[id]
	if !ok {
		return nil, false, nil
	}
	return t.Clone(), true, nil
}

func (m *mockState) TreasuryPut(t *treasury.Treasury) error {
	m.treasuries[t.ID] = t.Clone()
	return nil
}

func (m *mockState) EpochGet(tid [32]byte) (*EpochState, bool, error) {
	epoch, ok := m.epochs[tid]
	if !ok {
		return nil, false, nil
	}
	return epoch.Clone(), true, nil
}

func (m *mockState) EpochPut(state *EpochState) error {
	m.epochs[state.Treasury] = state.Clone()
	return nil
}

func (m *mockState) GetAccount(addr []byte) (*types.Account, error) {
	if acc, ok := m.accounts[string(addr)]; ok && acc != nil {
		return acc.Clone(), nil
	}
	return &types.Account{Balance: big.NewInt(0)}, nil
}

func (m *mockState) PutAccount(addr []byte, account *types.Account) error {
	m.accounts[string(addr)] = account.Clone()
	return nil
}

func (m *mockState) setBalance(addr [20]byte, amount int64) {
	m.accounts[string(addr[:])] = &types.Account{Balance: big.NewInt(amount)}
}

func (m *mockState) balance(addr [20]byte) *big.Int {
	if acc, ok := m.accounts[string(addr[:])]; ok && acc.Balance != nil {
		return new(big.Int).Set(acc.Balance)
	}
	return big.NewInt(0)
}

func addr(last byte) [20]byte {
	var out [20]byte
	out[19] = last
	return out
}

var (
	rewardsVault  = addr(0xFE)
	operatorVault = addr(0xFD)
)

func newTestDistributor(state *mockState, now int64) *Distributor {
	d := NewDistributor(DefaultConfig())
	d.SetState(state)
	d.SetNowFunc(func() int64 { return now })
	d.SetVaults(rewardsVault, operatorVault)
	return d
}

// seedPool stores a pool with the given attached weight.
func seedPool(state *mockState, kind rewards.PoolKind, scope [32]byte, creator [20]byte, weight uint64) *rewards.Pool {
	pool := rewards.NewPool(kind, scope, creator)
	if weight > 0 {
		if err := pool.Attach(weight); err != nil {
			panic(err)
		}
	}
	state.pools[pool.ID] = pool
	return pool
}

// seedTreasury creates a fully vested treasury with amount deposited on the
// given stream and the matching balance on its account.
func seedTreasury(state *mockState, scope treasury.ScopeKind, ref [32]byte, stream treasury.Stream, amount int64) *treasury.Treasury {
	tr := treasury.New(scope, ref, 0, 0)
	if err := tr.Deposit(stream, big.NewInt(amount)); err != nil {
		panic(err)
	}
	state.treasuries[tr.ID] = tr
	acc, _ := state.GetAccount(tr.Account[:])
	acc.Balance = new(big.Int).Add(acc.Balance, big.NewInt(amount))
	_ = state.PutAccount(tr.Account[:], acc)
	return tr
}

func totalHeld(state *mockState, tr *treasury.Treasury) *big.Int {
	total := state.balance(tr.Account)
	total.Add(total, state.balance(rewardsVault))
	total.Add(total, state.balance(operatorVault))
	return total
}

func TestSweepSplitsPrimaryStream(t *testing.T) {
	state := newMockState()
	creator := addr(0x01)
	var ref [32]byte
	ref[0] = 0xAA

	contentPool := seedPool(state, rewards.PoolContent, ref, creator, 40)
	creatorPool := seedPool(state, rewards.PoolCreatorDist, creatorScopeOf(creator), creator, 100)
	globalPool := seedPool(state, rewards.PoolGlobal, [32]byte{}, [20]byte{}, 200)
	tr := seedTreasury(state, treasury.ScopeContent, ref, treasury.StreamPrimary, 10_000)

	d := newTestDistributor(state, 1_000)
	receipt, err := d.Sweep(tr.ID, false)
	if err != nil {
		t.Fatalf("sweep failed: %v", err)
	}
	if receipt.Distributed.Cmp(big.NewInt(10_000)) != 0 {
		t.Fatalf("distributed: want 10000 got %s", receipt.Distributed)
	}

	// Primary splits 80/12/5/3; platform takes its 5% plus any dust.
	wantCreator := big.NewInt(8_000)
	wantHolders := big.NewInt(1_200)
	wantEco := big.NewInt(300)
	wantPlatform := big.NewInt(500)

	if got := state.pools[creatorPool.ID].TotalDeposited; got.Cmp(wantCreator) != 0 {
		t.Fatalf("creator pool: want %s got %s", wantCreator, got)
	}
	if got := state.pools[contentPool.ID].TotalDeposited; got.Cmp(wantHolders) != 0 {
		t.Fatalf("content pool: want %s got %s", wantHolders, got)
	}
	if got := state.pools[globalPool.ID].TotalDeposited; got.Cmp(wantEco) != 0 {
		t.Fatalf("global pool: want %s got %s", wantEco, got)
	}
	if got := state.balance(operatorVault); got.Cmp(wantPlatform) != 0 {
		t.Fatalf("platform vault: want %s got %s", wantPlatform, got)
	}
	if got := state.balance(rewardsVault); got.Cmp(big.NewInt(9_500)) != 0 {
		t.Fatalf("rewards vault: want 9500 got %s", got)
	}
	if got := state.balance(tr.Account); got.Sign() != 0 {
		t.Fatalf("treasury account should be drained, got %s", got)
	}
	if got := state.treasuries[tr.ID].StreamState(treasury.StreamPrimary).Swept; got.Cmp(big.NewInt(10_000)) != 0 {
		t.Fatalf("stream not marked swept: %s", got)
	}
}

func TestSweepDustGoesToPlatform(t *testing.T) {
	state := newMockState()
	creator := addr(0x01)
	var ref [32]byte
	ref[0] = 0xAB

	seedPool(state, rewards.PoolContent, ref, creator, 40)
	seedPool(state, rewards.PoolCreatorDist, creatorScopeOf(creator), creator, 100)
	seedPool(state, rewards.PoolGlobal, [32]byte{}, [20]byte{}, 200)
	// 101 splits to 80 / 12 / 3 with 6 left over (5 platform + 1 dust).
	tr := seedTreasury(state, treasury.ScopeContent, ref, treasury.StreamPrimary, 101)

	d := newTestDistributor(state, 1_000)
	before := totalHeld(state, tr)
	if _, err := d.Sweep(tr.ID, false); err != nil {
		t.Fatalf("sweep failed: %v", err)
	}
	if got := state.balance(operatorVault); got.Cmp(big.NewInt(6)) != 0 {
		t.Fatalf("platform share with dust: want 6 got %s", got)
	}
	if after := totalHeld(state, tr); before.Cmp(after) != 0 {
		t.Fatalf("sweep leaked value: before %s after %s", before, after)
	}
}

func TestSweepParksSharesForEmptyPools(t *testing.T) {
	state := newMockState()
	creator := addr(0x01)
	var ref [32]byte
	ref[0] = 0xAC

	seedPool(state, rewards.PoolContent, ref, creator, 40)
	seedPool(state, rewards.PoolCreatorDist, creatorScopeOf(creator), creator, 100)
	// Global pool exists but nobody holds weight in it.
	seedPool(state, rewards.PoolGlobal, [32]byte{}, [20]byte{}, 0)
	tr := seedTreasury(state, treasury.ScopeContent, ref, treasury.StreamPrimary, 10_000)

	d := newTestDistributor(state, 1_000)
	if _, err := d.Sweep(tr.ID, false); err != nil {
		t.Fatalf("sweep failed: %v", err)
	}

	epoch := state.epochs[tr.ID]
	if epoch.CarryEcosystem.Cmp(big.NewInt(300)) != 0 {
		t.Fatalf("ecosystem share not parked: %s", epoch.CarryEcosystem)
	}
	// Parked funds stay in the treasury account until a flush finds weight.
	if got := state.balance(tr.Account); got.Cmp(big.NewInt(300)) != 0 {
		t.Fatalf("treasury should hold the parked 300, got %s", got)
	}
	if got := state.balance(rewardsVault); got.Cmp(big.NewInt(9_200)) != 0 {
		t.Fatalf("rewards vault: want 9200 got %s", got)
	}
}

func TestCarryFlushIgnoresEpochGate(t *testing.T) {
	state := newMockState()
	creator := addr(0x01)
	var ref [32]byte
	ref[0] = 0xAD

	seedPool(state, rewards.PoolContent, ref, creator, 40)
	seedPool(state, rewards.PoolCreatorDist, creatorScopeOf(creator), creator, 100)
	globalPool := seedPool(state, rewards.PoolGlobal, [32]byte{}, [20]byte{}, 0)
	tr := seedTreasury(state, treasury.ScopeContent, ref, treasury.StreamPrimary, 10_000)

	d := newTestDistributor(state, 1_000)
	if _, err := d.Sweep(tr.ID, false); err != nil {
		t.Fatalf("first sweep failed: %v", err)
	}
	if state.epochs[tr.ID].CarryEcosystem.Sign() == 0 {
		t.Fatalf("expected parked ecosystem share")
	}

	// Weight shows up, then a sweep runs well inside the epoch interval.
	pool := state.pools[globalPool.ID]
	if err := pool.Attach(50); err != nil {
		t.Fatalf("attach failed: %v", err)
	}
	state.pools[pool.ID] = pool

	d.SetNowFunc(func() int64 { return 1_010 })
	receipt, err := d.Sweep(tr.ID, false)
	if err != nil {
		t.Fatalf("second sweep failed: %v", err)
	}
	if receipt.GateOpen {
		t.Fatalf("gate should be closed 10s after a distribution")
	}
	if receipt.CarryFlushed.Cmp(big.NewInt(300)) != 0 {
		t.Fatalf("carry flush: want 300 got %s", receipt.CarryFlushed)
	}
	if state.epochs[tr.ID].CarryEcosystem.Sign() != 0 {
		t.Fatalf("carry not cleared after flush")
	}
	if got := state.pools[globalPool.ID].TotalDeposited; got.Cmp(big.NewInt(300)) != 0 {
		t.Fatalf("flushed value not booked on pool: %s", got)
	}
	if got := state.balance(tr.Account); got.Sign() != 0 {
		t.Fatalf("treasury should be drained after flush, got %s", got)
	}
}

func TestEpochGateBlocksFreshDistribution(t *testing.T) {
	state := newMockState()
	creator := addr(0x01)
	var ref [32]byte
	ref[0] = 0xAE

	seedPool(state, rewards.PoolContent, ref, creator, 40)
	seedPool(state, rewards.PoolCreatorDist, creatorScopeOf(creator), creator, 100)
	seedPool(state, rewards.PoolGlobal, [32]byte{}, [20]byte{}, 200)
	// Vesting over 1000s so later sweeps always have fresh value.
	tr := treasury.New(treasury.ScopeContent, ref, 0, 1_000)
	if err := tr.Deposit(treasury.StreamPrimary, big.NewInt(10_000)); err != nil {
		t.Fatalf("deposit failed: %v", err)
	}
	state.treasuries[tr.ID] = tr
	state.setBalance(tr.Account, 10_000)

	d := newTestDistributor(state, 100)
	first, err := d.Sweep(tr.ID, false)
	if err != nil {
		t.Fatalf("first sweep failed: %v", err)
	}
	if first.Distributed.Cmp(big.NewInt(1_000)) != 0 {
		t.Fatalf("first sweep: want 1000 got %s", first.Distributed)
	}

	// Ten seconds later more value has vested, but the gate is closed.
	d.SetNowFunc(func() int64 { return 110 })
	second, err := d.Sweep(tr.ID, false)
	if err != nil {
		t.Fatalf("second sweep failed: %v", err)
	}
	if second.GateOpen || second.Distributed.Sign() != 0 {
		t.Fatalf("gated sweep distributed %s", second.Distributed)
	}

	// Force overrides the gate.
	third, err := d.Sweep(tr.ID, true)
	if err != nil {
		t.Fatalf("forced sweep failed: %v", err)
	}
	if third.Distributed.Cmp(big.NewInt(100)) != 0 {
		t.Fatalf("forced sweep: want 100 got %s", third.Distributed)
	}

	// Past the interval the gate opens on its own.
	d.SetNowFunc(func() int64 { return 110 + d.Config().MinEpochInterval })
	fourth, err := d.Sweep(tr.ID, false)
	if err != nil {
		t.Fatalf("fourth sweep failed: %v", err)
	}
	if !fourth.GateOpen || fourth.Distributed.Sign() == 0 {
		t.Fatalf("gate should have reopened: %+v", fourth)
	}
}

func TestSweepTwiceAtSameInstantIsIdempotent(t *testing.T) {
	state := newMockState()
	creator := addr(0x01)
	var ref [32]byte
	ref[0] = 0xAF

	seedPool(state, rewards.PoolContent, ref, creator, 40)
	seedPool(state, rewards.PoolCreatorDist, creatorScopeOf(creator), creator, 100)
	seedPool(state, rewards.PoolGlobal, [32]byte{}, [20]byte{}, 200)
	tr := seedTreasury(state, treasury.ScopeContent, ref, treasury.StreamPrimary, 10_000)

	d := newTestDistributor(state, 1_000)
	if _, err := d.Sweep(tr.ID, false); err != nil {
		t.Fatalf("first sweep failed: %v", err)
	}
	epochBefore := state.epochs[tr.ID].Clone()

	receipt, err := d.Sweep(tr.ID, true)
	if err != nil {
		t.Fatalf("repeat sweep failed: %v", err)
	}
	if receipt.Distributed.Sign() != 0 || receipt.CarryFlushed.Sign() != 0 {
		t.Fatalf("repeat sweep moved value: %+v", receipt)
	}
	if state.epochs[tr.ID].LastDistributionAt != epochBefore.LastDistributionAt {
		t.Fatalf("repeat sweep advanced the epoch book")
	}
	if state.epochs[tr.ID].Distributions != epochBefore.Distributions {
		t.Fatalf("repeat sweep counted a distribution")
	}
}

func TestSweepUnknownTreasury(t *testing.T) {
	state := newMockState()
	d := newTestDistributor(state, 1_000)
	if _, err := d.Sweep([32]byte{0x01}, false); !errors.Is(err, ErrInvalidTreasury) {
		t.Fatalf("expected ErrInvalidTreasury, got %v", err)
	}
}

func TestMintDeltaExcludesCarryAndSpreadsOverNewWeight(t *testing.T) {
	state := newMockState()
	creator := addr(0x01)
	var ref [32]byte
	ref[0] = 0xBA

	pool := seedPool(state, rewards.PoolContent, ref, creator, 30)
	tr := seedTreasury(state, treasury.ScopeContent, ref, treasury.StreamPrimary, 10_000)

	d := newTestDistributor(state, 1_000)
	epoch := NewEpochState(tr.ID)
	epoch.CarryHolders = big.NewInt(5_000)

	// Holders get 12% of 10000 = 1200, spread over 30+10 weight.
	mintDelta, err := d.MintDelta(tr, pool, DestHolders, 10, 1_000)
	if err != nil {
		t.Fatalf("mint delta failed: %v", err)
	}
	want, err := rewards.AccrualDelta(big.NewInt(1_200), big.NewInt(40))
	if err != nil {
		t.Fatalf("reference delta failed: %v", err)
	}
	if mintDelta.Cmp(want) != 0 {
		t.Fatalf("mint delta: want %s got %s", want, mintDelta)
	}

	// The view includes the parked 5000 over the live 30 weight.
	viewDelta, err := d.ViewDelta(tr, epoch, pool, DestHolders, 1_000)
	if err != nil {
		t.Fatalf("view delta failed: %v", err)
	}
	wantView, err := rewards.AccrualDelta(big.NewInt(6_200), big.NewInt(30))
	if err != nil {
		t.Fatalf("reference view delta failed: %v", err)
	}
	if viewDelta.Cmp(wantView) != 0 {
		t.Fatalf("view delta: want %s got %s", wantView, viewDelta)
	}
}

func TestViewDeltaMatchesRealizedSweep(t *testing.T) {
	state := newMockState()
	creator := addr(0x01)
	var ref [32]byte
	ref[0] = 0xBB

	pool := seedPool(state, rewards.PoolContent, ref, creator, 40)
	seedPool(state, rewards.PoolCreatorDist, creatorScopeOf(creator), creator, 100)
	seedPool(state, rewards.PoolGlobal, [32]byte{}, [20]byte{}, 200)
	tr := seedTreasury(state, treasury.ScopeContent, ref, treasury.StreamPrimary, 9_973)

	d := newTestDistributor(state, 1_000)
	projected, err := d.ViewDelta(tr, nil, pool, DestHolders, 1_000)
	if err != nil {
		t.Fatalf("view delta failed: %v", err)
	}

	if _, err := d.Sweep(tr.ID, false); err != nil {
		t.Fatalf("sweep failed: %v", err)
	}
	realized := state.pools[pool.ID].RewardPerShare
	if projected.Cmp(realized) != 0 {
		t.Fatalf("projection disagrees with sweep: projected %s realized %s", projected, realized)
	}
}

func TestViewDeltaZeroWeightPool(t *testing.T) {
	state := newMockState()
	creator := addr(0x01)
	var ref [32]byte
	ref[0] = 0xBC

	pool := seedPool(state, rewards.PoolContent, ref, creator, 0)
	tr := seedTreasury(state, treasury.ScopeContent, ref, treasury.StreamPrimary, 10_000)

	d := newTestDistributor(state, 1_000)
	delta, err := d.ViewDelta(tr, nil, pool, DestHolders, 1_000)
	if err != nil {
		t.Fatalf("view delta failed: %v", err)
	}
	if delta.Sign() != 0 {
		t.Fatalf("zero-weight view must project nothing, got %s", delta)
	}
}

// creatorScopeOf mirrors the creator-scope padding used for pool IDs.
func creatorScopeOf(creator [20]byte) [32]byte {
	var scope [32]byte
	copy(scope[:], creator[:])
	return scope
}
