package distribution

import (
	"errors"
	"math/big"
	"time"

	"curiochain/core/events"
	"curiochain/core/types"
	"curiochain/native/rewards"
	"curiochain/native/treasury"
)

var (
	errNilState        = errors.New("distribution: state not configured")
	errVaultsNotSet    = errors.New("distribution: vault accounts not configured")
	errTreasuryShort   = errors.New("distribution: treasury account underfunded")
	ErrInvalidTreasury = errors.New("distribution: treasury not found")
)

// carrySource tags accumulator advances that flush previously parked value.
const carrySource = "carry"

// EpochState is the distributor's per-treasury book: when value last went
// out, and what is parked because its destination pool had nobody in it.
// Parked value stays in the treasury account until a flush finds weight.
type EpochState struct {
	Treasury           [32]byte `json:"treasury"`
	LastDistributionAt int64    `json:"lastDistributionAt"`
	Distributions      uint64   `json:"distributions"`
	CarryCreator       *big.Int `json:"carryCreator"`
	CarryHolders       *big.Int `json:"carryHolders"`
	CarryEcosystem     *big.Int `json:"carryEcosystem"`
}

func NewEpochState(tid [32]byte) *EpochState {
	return &EpochState{
		Treasury:       tid,
		CarryCreator:   big.NewInt(0),
		CarryHolders:   big.NewInt(0),
		CarryEcosystem: big.NewInt(0),
	}
}

func (s *EpochState) normalize() *EpochState {
	if s == nil {
		return nil
	}
	if s.CarryCreator == nil {
		s.CarryCreator = big.NewInt(0)
	}
	if s.CarryHolders == nil {
		s.CarryHolders = big.NewInt(0)
	}
	if s.CarryEcosystem == nil {
		s.CarryEcosystem = big.NewInt(0)
	}
	return s
}

// Carry returns the parked amount for a destination.
func (s *EpochState) Carry(dest Destination) *big.Int {
	if s == nil {
		return big.NewInt(0)
	}
	s.normalize()
	switch dest {
	case DestCreator:
		return s.CarryCreator
	case DestHolders:
		return s.CarryHolders
	case DestEcosystem:
		return s.CarryEcosystem
	default:
		return big.NewInt(0)
	}
}

func (s *EpochState) setCarry(dest Destination, v *big.Int) {
	switch dest {
	case DestCreator:
		s.CarryCreator = v
	case DestHolders:
		s.CarryHolders = v
	case DestEcosystem:
		s.CarryEcosystem = v
	}
}

func (s *EpochState) Clone() *EpochState {
	if s == nil {
		return nil
	}
	out := *s
	out.normalize()
	out.CarryCreator = new(big.Int).Set(s.CarryCreator)
	out.CarryHolders = new(big.Int).Set(s.CarryHolders)
	out.CarryEcosystem = new(big.Int).Set(s.CarryEcosystem)
	return &out
}

type distState interface {
	PoolGet(id [32]byte) (*rewards.Pool, bool, error)
	PoolPut(pool *rewards.Pool) error
	TreasuryGet(id [32]byte) (*treasury.Treasury, bool, error)
	TreasuryPut(t *treasury.Treasury) error
	EpochGet(tid [32]byte) (*EpochState, bool, error)
	EpochPut(state *EpochState) error
	GetAccount(addr []byte) (*types.Account, error)
	PutAccount(addr []byte, account *types.Account) error
}

// Distributor sweeps unlocked treasury value into pools and vault accounts
// according to the stream split tables. It is the only component allowed to
// advance pool accumulators.
type Distributor struct {
	state         distState
	emitter       events.Emitter
	nowFn         func() int64
	config        Config
	rewardsVault  [20]byte
	operatorVault [20]byte
}

// NewDistributor constructs a distributor with the supplied routing config.
func NewDistributor(cfg Config) *Distributor {
	return &Distributor{
		emitter: events.NoopEmitter{},
		nowFn:   func() int64 { return time.Now().Unix() },
		config:  cfg,
	}
}

// SetState configures the state backend used by the distributor.
func (d *Distributor) SetState(state distState) { d.state = state }

// SetEmitter configures the event emitter used by the distributor.
func (d *Distributor) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		d.emitter = events.NoopEmitter{}
		return
	}
	d.emitter = emitter
}

// SetNowFunc overrides the time source used for deterministic testing.
func (d *Distributor) SetNowFunc(now func() int64) {
	if now == nil {
		d.nowFn = func() int64 { return time.Now().Unix() }
		return
	}
	d.nowFn = now
}

// SetVaults configures the pool payout vault and the platform fee vault.
func (d *Distributor) SetVaults(rewardsVault, operatorVault [20]byte) {
	d.rewardsVault = rewardsVault
	d.operatorVault = operatorVault
}

// Config returns the active routing config.
func (d *Distributor) Config() Config { return d.config }

func (d *Distributor) emit(evt events.Event) {
	if d == nil || d.emitter == nil {
		return
	}
	d.emitter.Emit(evt)
}

func (d *Distributor) now() int64 {
	if d == nil || d.nowFn == nil {
		return time.Now().Unix()
	}
	return d.nowFn()
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

func refCreator(ref [32]byte) [20]byte {
	var creator [20]byte
	copy(creator[:], ref[:20])
	return creator
}

// destinationPoolID resolves where a destination's share lands for the
// given treasury. ok is false when the destination is not pool-bound for
// this scope, or when the target pool cannot be resolved yet.
func (d *Distributor) destinationPoolID(t *treasury.Treasury, dest Destination) ([32]byte, bool, error) {
	switch dest {
	case DestEcosystem:
		return rewards.GlobalPoolID(), true, nil
	case DestHolders:
		switch t.Scope {
		case treasury.ScopeContent:
			return rewards.PoolIDFor(rewards.PoolContent, t.Ref), true, nil
		case treasury.ScopeBundle:
			return rewards.PoolIDFor(rewards.PoolBundle, t.Ref), true, nil
		case treasury.ScopeCreator:
			return rewards.PatronPoolID(refCreator(t.Ref)), true, nil
		default:
			return [32]byte{}, false, nil
		}
	case DestCreator:
		switch t.Scope {
		case treasury.ScopeCreator:
			return rewards.CreatorPoolID(refCreator(t.Ref)), true, nil
		case treasury.ScopeContent, treasury.ScopeBundle:
			kind := rewards.PoolContent
			if t.Scope == treasury.ScopeBundle {
				kind = rewards.PoolBundle
			}
			pool, ok, err := d.state.PoolGet(rewards.PoolIDFor(kind, t.Ref))
			if err != nil {
				return [32]byte{}, false, err
			}
			if !ok || pool == nil {
				return [32]byte{}, false, nil
			}
			return rewards.CreatorPoolID(pool.Creator), true, nil
		default:
			return [32]byte{}, false, nil
		}
	default:
		return [32]byte{}, false, nil
	}
}

// moveFunds shifts booked value between accounts. The source running short
// means the distributor's books and the ledger disagree, which is fatal.
func (d *Distributor) moveFunds(from, to [20]byte, amount *big.Int) error {
	if amount == nil || amount.Sign() == 0 {
		return nil
	}
	fromAcc, err := d.state.GetAccount(from[:])
	if err != nil {
		return err
	}
	fromAcc = ensureAccount(fromAcc)
	if fromAcc.Balance.Cmp(amount) < 0 {
		return errTreasuryShort
	}
	toAcc, err := d.state.GetAccount(to[:])
	if err != nil {
		return err
	}
	toAcc = ensureAccount(toAcc)
	fromAcc.Balance = new(big.Int).Sub(fromAcc.Balance, amount)
	toAcc.Balance = new(big.Int).Add(toAcc.Balance, amount)
	if err := d.state.PutAccount(from[:], fromAcc); err != nil {
		return err
	}
	return d.state.PutAccount(to[:], toAcc)
}

// routePoolShare accrues amount into the destination pool, moving the
// backing funds to the rewards vault. When the pool has no weight (or does
// not exist yet) the amount is parked on the epoch carry and the funds stay
// in the treasury account.
func (d *Distributor) routePoolShare(t *treasury.Treasury, epoch *EpochState, dest Destination, amount *big.Int, source string) (*big.Int, error) {
	routed := big.NewInt(0)
	if amount == nil || amount.Sign() == 0 {
		return routed, nil
	}
	park := func() {
		epoch.setCarry(dest, new(big.Int).Add(epoch.Carry(dest), amount))
	}
	id, ok, err := d.destinationPoolID(t, dest)
	if err != nil {
		return nil, err
	}
	if !ok {
		park()
		return routed, nil
	}
	pool, ok, err := d.state.PoolGet(id)
	if err != nil {
		return nil, err
	}
	if !ok || pool == nil {
		park()
		return routed, nil
	}
	newRPS, err := pool.Accrue(amount)
	if errors.Is(err, rewards.ErrNoWeightToDistribute) {
		park()
		return routed, nil
	}
	if err != nil {
		return nil, err
	}
	if err := d.moveFunds(t.Account, d.rewardsVault, amount); err != nil {
		return nil, err
	}
	if err := d.state.PoolPut(pool); err != nil {
		return nil, err
	}
	d.emit(events.RewardDeposit{
		Pool:              pool.ID,
		Amount:            new(big.Int).Set(amount),
		Source:            source,
		NewRewardPerShare: newRPS,
	})
	return amount, nil
}

// SweepReceipt summarizes one sweep attempt.
type SweepReceipt struct {
	Treasury     [32]byte `json:"treasury"`
	SweptAt      int64    `json:"sweptAt"`
	Distributed  *big.Int `json:"distributed"`
	CarryFlushed *big.Int `json:"carryFlushed"`
	GateOpen     bool     `json:"gateOpen"`
}

// Sweep distributes a treasury's unlocked value. Standing carries flush
// whenever their destination gained weight, regardless of the epoch gate;
// fresh unlocks only go out when the gate is open (or force is set).
// Sweeping twice at the same instant is a no-op: the second pass finds
// nothing unswept and nothing carried.
func (d *Distributor) Sweep(tid [32]byte, force bool) (*SweepReceipt, error) {
	if d == nil || d.state == nil {
		return nil, errNilState
	}
	if isZeroAddress(d.rewardsVault) || isZeroAddress(d.operatorVault) {
		return nil, errVaultsNotSet
	}
	t, ok, err := d.state.TreasuryGet(tid)
	if err != nil {
		return nil, err
	}
	if !ok || t == nil {
		return nil, ErrInvalidTreasury
	}
	epoch, ok, err := d.state.EpochGet(tid)
	if err != nil {
		return nil, err
	}
	if !ok || epoch == nil {
		epoch = NewEpochState(tid)
	}
	epoch.normalize()
	now := d.now()
	receipt := &SweepReceipt{
		Treasury:     tid,
		SweptAt:      now,
		Distributed:  big.NewInt(0),
		CarryFlushed: big.NewInt(0),
	}

	for _, dest := range []Destination{DestCreator, DestHolders, DestEcosystem} {
		carry := epoch.Carry(dest)
		if carry.Sign() == 0 {
			continue
		}
		flush := new(big.Int).Set(carry)
		epoch.setCarry(dest, big.NewInt(0))
		routed, err := d.routePoolShare(t, epoch, dest, flush, carrySource)
		if err != nil {
			return nil, err
		}
		receipt.CarryFlushed.Add(receipt.CarryFlushed, routed)
	}

	receipt.GateOpen = force || epoch.LastDistributionAt == 0 ||
		now-epoch.LastDistributionAt >= d.config.MinEpochInterval
	if receipt.GateOpen {
		for _, stream := range treasury.StreamsFor(t.Scope) {
			delta := t.UnsweptAt(stream, now)
			if delta.Sign() == 0 {
				continue
			}
			table := d.config.TableFor(stream)
			creatorShare := rewards.ShareOf(delta, table.Creator)
			holdersShare := rewards.ShareOf(delta, table.Holders)
			ecoShare := rewards.ShareOf(delta, table.Ecosystem)
			// Platform picks up the truncation dust so the stream
			// conserves exactly.
			platformShare := new(big.Int).Sub(delta, creatorShare)
			platformShare.Sub(platformShare, holdersShare)
			platformShare.Sub(platformShare, ecoShare)

			if _, err := d.routePoolShare(t, epoch, DestCreator, creatorShare, stream.String()); err != nil {
				return nil, err
			}
			if _, err := d.routePoolShare(t, epoch, DestHolders, holdersShare, stream.String()); err != nil {
				return nil, err
			}
			if _, err := d.routePoolShare(t, epoch, DestEcosystem, ecoShare, stream.String()); err != nil {
				return nil, err
			}
			if err := d.moveFunds(t.Account, d.operatorVault, platformShare); err != nil {
				return nil, err
			}
			if err := t.MarkSwept(stream, delta, now); err != nil {
				return nil, err
			}
			d.emit(events.RewardDistribution{
				Treasury:  tid,
				Stream:    stream.String(),
				Total:     new(big.Int).Set(delta),
				Creator:   creatorShare,
				Holders:   holdersShare,
				Platform:  platformShare,
				Ecosystem: ecoShare,
				EpochAt:   now,
			})
			receipt.Distributed.Add(receipt.Distributed, delta)
		}
		if receipt.Distributed.Sign() > 0 {
			epoch.LastDistributionAt = now
			epoch.Distributions++
		}
	}

	if err := d.state.TreasuryPut(t); err != nil {
		return nil, err
	}
	if err := d.state.EpochPut(epoch); err != nil {
		return nil, err
	}
	return receipt, nil
}

// freshShare returns the not-yet-swept slice a destination would receive
// from one stream if the treasury were swept at now. Both projections and
// the sweep itself derive their numbers from the same ShareOf/UnsweptAt
// pair, which is what keeps projected and realized accruals identical.
func (d *Distributor) freshShare(t *treasury.Treasury, stream treasury.Stream, dest Destination, now int64) *big.Int {
	return rewards.ShareOf(t.UnsweptAt(stream, now), d.config.TableFor(stream).Percent(dest))
}

// MintDelta returns the virtual accumulator advance used to seed a new
// position's debt: the treasury's unswept unlocked share, spread over the
// pool weight including the weight about to attach. Parked carry is
// excluded deliberately; value that unlocked while the pool was empty goes
// to the first holders who show up.
func (d *Distributor) MintDelta(t *treasury.Treasury, pool *rewards.Pool, dest Destination, addWeight uint64, now int64) (*big.Int, error) {
	if t == nil || addWeight == 0 {
		return big.NewInt(0), nil
	}
	total := new(big.Int).SetUint64(addWeight)
	if pool != nil && pool.TotalWeight != nil {
		total.Add(total, pool.TotalWeight)
	}
	delta := big.NewInt(0)
	for _, stream := range treasury.StreamsFor(t.Scope) {
		share := d.freshShare(t, stream, dest, now)
		if share.Sign() == 0 {
			continue
		}
		step, err := rewards.AccrualDelta(share, total)
		if err != nil {
			return nil, err
		}
		delta.Add(delta, step)
	}
	return delta, nil
}

// ViewDelta returns the virtual accumulator advance for pending-reward
// views: everything the next sweep would push into the pool, carry
// included, over the live weight.
func (d *Distributor) ViewDelta(t *treasury.Treasury, epoch *EpochState, pool *rewards.Pool, dest Destination, now int64) (*big.Int, error) {
	if t == nil || pool == nil || pool.TotalWeight == nil || pool.TotalWeight.Sign() == 0 {
		return big.NewInt(0), nil
	}
	amount := big.NewInt(0)
	for _, stream := range treasury.StreamsFor(t.Scope) {
		amount.Add(amount, d.freshShare(t, stream, dest, now))
	}
	if epoch != nil {
		amount.Add(amount, epoch.Carry(dest))
	}
	if amount.Sign() == 0 {
		return big.NewInt(0), nil
	}
	return rewards.AccrualDelta(amount, pool.TotalWeight)
}
