package core

import (
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"sync"
	"time"

	"curiochain/config"
	"curiochain/core/state"
	"curiochain/core/types"
	"curiochain/crypto"
	"curiochain/native/distribution"
	"curiochain/native/rewards"
	"curiochain/native/subscription"
	"curiochain/native/treasury"
	"curiochain/observability"
	"curiochain/storage"
	"curiochain/storage/journal"
)

// Node is the central controller, wiring the engines, state manager and
// event journal together. Every mutating operation runs under stateMu so
// the engines see one serialized view of state.
type Node struct {
	db          storage.Database
	state       *state.Manager
	journal     *journal.Journal
	operatorKey *crypto.PrivateKey
	logger      *slog.Logger

	rewards     *rewards.Engine
	treasury    *treasury.Engine
	distributor *distribution.Distributor
	subs        *subscription.Engine
	emitter     *JournalEmitter

	rewardsVault  [20]byte
	operatorVault [20]byte

	nowFn   func() int64
	stateMu sync.Mutex
}

// NewNode wires a node over an opened database and journal. The schema
// version is checked before any engine touches state.
func NewNode(db storage.Database, jnl *journal.Journal, key *crypto.PrivateKey, cfg *config.Config) (*Node, error) {
	if db == nil {
		return nil, fmt.Errorf("core: database required")
	}
	if jnl == nil {
		return nil, fmt.Errorf("core: journal required")
	}
	if cfg == nil {
		return nil, fmt.Errorf("core: config required")
	}

	manager := state.NewManager(db)
	if err := manager.CheckVersion(); err != nil {
		return nil, err
	}
	rewardsVault, operatorVault, err := cfg.VaultAddresses()
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("component", "node")
	emitter := NewJournalEmitter(jnl, logger)

	rewardsEngine := rewards.NewEngine()
	rewardsEngine.SetState(manager)
	rewardsEngine.SetEmitter(emitter)
	rewardsEngine.SetRewardsVault(rewardsVault)

	treasuryEngine := treasury.NewEngine()
	treasuryEngine.SetState(manager)
	treasuryEngine.SetEmitter(emitter)
	for _, scope := range []treasury.ScopeKind{treasury.ScopePlatform, treasury.ScopeCreator, treasury.ScopeContent, treasury.ScopeBundle} {
		treasuryEngine.SetUnlockDuration(scope, cfg.Treasury.UnlockFor(scope))
	}

	distributor := distribution.NewDistributor(cfg.Distribution)
	distributor.SetState(manager)
	distributor.SetEmitter(emitter)
	distributor.SetVaults(rewardsVault, operatorVault)

	subsEngine := subscription.NewEngine()
	subsEngine.SetState(manager)
	subsEngine.SetEmitter(emitter)

	n := &Node{
		db:            db,
		state:         manager,
		journal:       jnl,
		operatorKey:   key,
		logger:        logger,
		rewards:       rewardsEngine,
		treasury:      treasuryEngine,
		distributor:   distributor,
		subs:          subsEngine,
		emitter:       emitter,
		rewardsVault:  rewardsVault,
		operatorVault: operatorVault,
		nowFn:         func() int64 { return time.Now().Unix() },
	}
	if key != nil {
		logger.Info("node ready", "operator", key.PubKey().Address().String())
	}
	return n, nil
}

// SetNowFunc overrides the clock for the node and every engine it drives.
func (n *Node) SetNowFunc(now func() int64) {
	if now == nil {
		return
	}
	n.nowFn = now
	n.rewards.SetNowFunc(now)
	n.treasury.SetNowFunc(now)
	n.distributor.SetNowFunc(now)
	n.subs.SetNowFunc(now)
	n.emitter.SetNowFunc(now)
}

func (n *Node) now() int64 {
	return n.nowFn()
}

// OperatorAddress returns the bech32 address of the node operator key.
func (n *Node) OperatorAddress() string {
	if n.operatorKey == nil {
		return ""
	}
	return n.operatorKey.PubKey().Address().String()
}

// RewardsVault returns the account that backs every reward claim.
func (n *Node) RewardsVault() [20]byte { return n.rewardsVault }

// OperatorVault returns the account receiving platform shares.
func (n *Node) OperatorVault() [20]byte { return n.operatorVault }

// MintToken settles a primary sale and opens the buyer's reward position.
//
// The sale price lands in the content treasury on the primary stream. Value
// that predates the buyer is swept over the pre-mint weights first; whatever
// stays unswept, this sale included, is projected into virtual accumulators
// so the new position's debts already cover it. The buyer therefore never
// claims value deposited before they held weight.
func (n *Node) MintToken(buyer [20]byte, token [32]byte, creator [20]byte, ref [32]byte, bundle bool, patron bool, rarity rewards.Rarity, price *big.Int) (*rewards.Position, error) {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()

	if rarity.Weight() == 0 {
		return nil, rewards.ErrInvalidRarity
	}
	if _, err := n.rewards.PositionView(token); err == nil {
		return nil, rewards.ErrPositionExists
	} else if !errors.Is(err, rewards.ErrPositionNotFound) {
		return nil, err
	}

	scope := contentScope(bundle)
	contentT, err := n.treasury.Ensure(scope, ref)
	if err != nil {
		return nil, err
	}
	if _, err := n.distributor.Sweep(contentT.ID, false); err != nil {
		return nil, err
	}

	var patronT *treasury.Treasury
	if patron {
		patronT, err = n.treasury.Ensure(treasury.ScopeCreator, creatorRef(creator))
		if err != nil {
			return nil, err
		}
		if _, err := n.distributor.Sweep(patronT.ID, false); err != nil {
			return nil, err
		}
	}

	if price != nil && price.Sign() > 0 {
		if _, err := n.treasury.Fund(scope, ref, treasury.StreamPrimary, buyer, price); err != nil {
			return nil, err
		}
	}
	contentT, err = n.treasury.GetByID(contentT.ID)
	if err != nil {
		return nil, err
	}
	if patron {
		patronT, err = n.treasury.GetByID(patronT.ID)
		if err != nil {
			return nil, err
		}
	}

	virtual, err := n.mintProjection(contentT, patronT, creator, ref, bundle, patron, rarity.Weight())
	if err != nil {
		return nil, err
	}

	pos, err := n.rewards.OpenPosition(buyer, token, creator, ref, bundle, patron, rarity, virtual)
	if err != nil {
		return nil, err
	}
	observability.Engine().RecordMint(rarity.String())
	n.logger.Info("token minted",
		"token", shortID(token),
		"rarity", rarity.String(),
		"weight", pos.Weight,
		"patron", patron,
	)
	return pos, nil
}

// mintProjection builds the virtual accumulator overrides for a mint: for
// each pool the position will join, the accumulator it would reach once the
// relevant treasuries' unswept value lands with the minted weight attached.
// Standing carry is excluded so the first weight to arrive absorbs it.
func (n *Node) mintProjection(contentT, patronT *treasury.Treasury, creator [20]byte, ref [32]byte, bundle, patron bool, weight uint64) (map[rewards.PoolClass]*big.Int, error) {
	now := n.now()
	virtual := make(map[rewards.PoolClass]*big.Int, 3)

	contentPool, err := n.poolOrSeed(contentKind(bundle), ref, creator)
	if err != nil {
		return nil, err
	}
	delta, err := n.distributor.MintDelta(contentT, contentPool, distribution.DestHolders, weight, now)
	if err != nil {
		return nil, err
	}
	if delta.Sign() > 0 {
		virtual[rewards.ClassContent] = new(big.Int).Add(contentPool.RewardPerShare, delta)
	}

	globalPool, err := n.poolOrSeed(rewards.PoolGlobal, [32]byte{}, [20]byte{})
	if err != nil {
		return nil, err
	}
	globalDelta, err := n.distributor.MintDelta(contentT, globalPool, distribution.DestEcosystem, weight, now)
	if err != nil {
		return nil, err
	}
	// The global pool is fed by every treasury. The platform treasury and,
	// for patron mints, the creator treasury are known senders, so their
	// unswept value is projected too.
	for _, extra := range []*treasury.Treasury{patronT, n.platformTreasury()} {
		if extra == nil {
			continue
		}
		d, err := n.distributor.MintDelta(extra, globalPool, distribution.DestEcosystem, weight, now)
		if err != nil {
			return nil, err
		}
		globalDelta.Add(globalDelta, d)
	}
	if globalDelta.Sign() > 0 {
		virtual[rewards.ClassGlobal] = new(big.Int).Add(globalPool.RewardPerShare, globalDelta)
	}

	if patron && patronT != nil {
		patronPool, err := n.poolOrSeed(rewards.PoolCreatorPatron, creatorRef(creator), creator)
		if err != nil {
			return nil, err
		}
		d, err := n.distributor.MintDelta(patronT, patronPool, distribution.DestHolders, weight, now)
		if err != nil {
			return nil, err
		}
		if d.Sign() > 0 {
			virtual[rewards.ClassPatron] = new(big.Int).Add(patronPool.RewardPerShare, d)
		}
	}
	return virtual, nil
}

// BurnToken closes a position. Unclaimed rewards are forfeited.
func (n *Node) BurnToken(caller [20]byte, token [32]byte) (*rewards.Position, error) {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()

	pos, err := n.rewards.ClosePosition(caller, token)
	if err != nil {
		return nil, err
	}
	n.logger.Info("token burned", "token", shortID(token), "weight", pos.Weight)
	return pos, nil
}

// TransferToken moves ownership of a token. Debts travel with the token, so
// accrued rewards transfer to the new owner unclaimed.
func (n *Node) TransferToken(from, to [20]byte, token [32]byte) error {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()
	return n.rewards.TransferToken(from, to, token)
}

// PayRoyalty books a secondary-sale royalty against the token's content
// treasury and sweeps whatever the epoch gate allows.
func (n *Node) PayRoyalty(payer [20]byte, token [32]byte, amount *big.Int) (*distribution.SweepReceipt, error) {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()

	pos, err := n.rewards.PositionView(token)
	if err != nil {
		return nil, err
	}
	t, err := n.treasury.Fund(contentScope(pos.Bundle), pos.Ref, treasury.StreamSecondary, payer, amount)
	if err != nil {
		return nil, err
	}
	return n.sweepLocked(t, false)
}

// PayRoyaltyByRef books a royalty against a content ref directly, for sales
// the marketplace reports without a live token id. The treasury is created
// on first touch, so royalties keep landing after every minted token has
// been burned; value with no holder weight parks in carry.
func (n *Node) PayRoyaltyByRef(payer [20]byte, ref [32]byte, bundle bool, amount *big.Int) (*distribution.SweepReceipt, error) {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()

	t, err := n.treasury.Fund(contentScope(bundle), ref, treasury.StreamSecondary, payer, amount)
	if err != nil {
		return nil, err
	}
	return n.sweepLocked(t, false)
}

// FundPlatform books a direct payment against the platform treasury. Direct
// value goes mostly to the ecosystem pool, the rest to the operator.
func (n *Node) FundPlatform(payer [20]byte, amount *big.Int) (*distribution.SweepReceipt, error) {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()

	t, err := n.treasury.Fund(treasury.ScopePlatform, [32]byte{}, treasury.StreamDirect, payer, amount)
	if err != nil {
		return nil, err
	}
	return n.sweepLocked(t, false)
}

// SweepTreasury distributes a treasury's unlocked value. With force set the
// epoch gate is bypassed; standing carry flushes either way.
func (n *Node) SweepTreasury(scope treasury.ScopeKind, ref [32]byte, force bool) (*distribution.SweepReceipt, error) {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()

	t, err := n.treasury.Get(scope, ref)
	if err != nil {
		return nil, err
	}
	return n.sweepLocked(t, force)
}

func (n *Node) sweepLocked(t *treasury.Treasury, force bool) (*distribution.SweepReceipt, error) {
	receipt, err := n.distributor.Sweep(t.ID, force)
	if err != nil {
		return nil, err
	}
	moved := new(big.Int).Add(receipt.Distributed, receipt.CarryFlushed)
	if moved.Sign() > 0 {
		observability.Engine().RecordSweep(t.Scope.String(), moved)
		n.logger.Info("treasury swept",
			"scope", t.Scope.String(),
			"treasury", shortID(t.ID),
			"distributed", receipt.Distributed.String(),
			"carryFlushed", receipt.CarryFlushed.String(),
		)
	}
	if epoch, ok, err := n.state.EpochGet(t.ID); err == nil && ok && epoch != nil {
		metrics := observability.Engine()
		metrics.SetCarryParked(t.Scope.String(), "creator", epoch.CarryCreator)
		metrics.SetCarryParked(t.Scope.String(), "holders", epoch.CarryHolders)
		metrics.SetCarryParked(t.Scope.String(), "ecosystem", epoch.CarryEcosystem)
	}
	return receipt, nil
}

// ClaimRewards settles and pays a token's pending value in one pool class.
// The treasuries feeding the pool are swept first, epoch gate permitting, so
// a claim realizes the value the pending view projects without waiting for
// an unrelated deposit to trigger distribution. A claim that finds nothing
// pending succeeds with zero.
func (n *Node) ClaimRewards(caller [20]byte, token [32]byte, class rewards.PoolClass) (*big.Int, error) {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()

	pos, err := n.rewards.PositionView(token)
	if err != nil {
		return nil, err
	}
	if err := n.sweepSourcesLocked(n.claimSources(pos, class)); err != nil {
		return nil, err
	}
	amount, err := n.rewards.Claim(caller, token, class)
	if errors.Is(err, rewards.ErrNothingToClaim) {
		return big.NewInt(0), nil
	}
	if err != nil {
		return nil, err
	}
	observability.Engine().RecordClaim(class.String(), amount)
	return amount, nil
}

// ClaimCreator settles and pays a member's share of the creator
// distribution pool. The creator treasury is swept first, epoch gate
// permitting. Claims finding nothing pending succeed with zero.
func (n *Node) ClaimCreator(member, creator [20]byte) (*big.Int, error) {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()

	if t := n.treasuryOrNil(treasury.ScopeCreator, creatorRef(creator)); t != nil {
		if _, err := n.sweepLocked(t, false); err != nil {
			return nil, err
		}
	}
	amount, err := n.rewards.ClaimCreator(member, creator)
	if errors.Is(err, rewards.ErrNothingToClaim) {
		return big.NewInt(0), nil
	}
	if err != nil {
		return nil, err
	}
	observability.Engine().RecordClaim("creator", amount)
	return amount, nil
}

// RegisterCreator opens the creator's distribution pool and grants them the
// full share budget.
func (n *Node) RegisterCreator(creator [20]byte) (*rewards.CreatorShare, error) {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()
	return n.rewards.RegisterCreator(creator)
}

// SetCollaboratorShare grants weight out of the creator's budget to a
// collaborator. Weight zero removes the grant.
func (n *Node) SetCollaboratorShare(creator, member [20]byte, weight uint64) (*rewards.CreatorShare, error) {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()
	return n.rewards.SetCollaboratorShare(creator, member, weight)
}

// Subscribe opens (or reactivates) a patron's subscription to a creator.
func (n *Node) Subscribe(creator, patron [20]byte, amountPerEpoch *big.Int, epochSeconds int64) (*subscription.Subscription, error) {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()
	return n.subs.Subscribe(creator, patron, amountPerEpoch, epochSeconds)
}

// CancelSubscription deactivates a subscription. Either party may cancel.
func (n *Node) CancelSubscription(caller [20]byte, id [32]byte) error {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()
	return n.subs.Cancel(caller, id)
}

// ProcessSubscription charges one due subscription: the patron pays the
// epoch amount into the creator treasury's subscription stream.
func (n *Node) ProcessSubscription(id [32]byte) (*big.Int, error) {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()
	return n.chargeSubscriptionLocked(id)
}

func (n *Node) chargeSubscriptionLocked(id [32]byte) (*big.Int, error) {
	due, err := n.subs.PaymentDue(id)
	if err != nil {
		return nil, err
	}
	sub, err := n.subs.Get(id)
	if err != nil {
		return nil, err
	}
	t, err := n.treasury.Fund(treasury.ScopeCreator, creatorRef(sub.Creator), treasury.StreamSubscription, sub.Patron, due)
	if err != nil {
		return nil, err
	}
	if _, err := n.subs.MarkPaid(id); err != nil {
		return nil, err
	}
	if _, err := n.sweepLocked(t, false); err != nil {
		return nil, err
	}
	observability.Engine().RecordSubscriptionCharge()
	return due, nil
}

// ProcessDueSubscriptions walks every subscription and charges the due
// ones. Patrons who cannot cover the charge are skipped, not cancelled;
// the charge stays due and is retried on the next pass.
func (n *Node) ProcessDueSubscriptions() (charged, skipped int, err error) {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()

	ids, err := n.subs.List()
	if err != nil {
		return 0, 0, err
	}
	for _, id := range ids {
		_, err := n.chargeSubscriptionLocked(id)
		switch {
		case err == nil:
			charged++
		case errors.Is(err, subscription.ErrNotDue), errors.Is(err, subscription.ErrInactive):
		case errors.Is(err, treasury.ErrInsufficientFunds):
			skipped++
			n.logger.Warn("subscription charge skipped", "id", shortID(id), "err", err)
		default:
			return charged, skipped, err
		}
	}
	return charged, skipped, nil
}

// PendingRewards reports a token's claimable value in one pool class,
// including treasury value that has not been swept yet. The projection
// covers the treasuries this token is known to feed; deposits from
// elsewhere appear once they are swept.
func (n *Node) PendingRewards(token [32]byte, class rewards.PoolClass) (*big.Int, error) {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()

	pos, err := n.rewards.PositionView(token)
	if err != nil {
		return nil, err
	}
	override, err := n.viewOverride(pos, class)
	if err != nil {
		return nil, err
	}
	return n.rewards.Pending(token, class, override)
}

// PendingCreator reports a member's claimable distribution share, projecting
// the creator treasury's unswept subscription value.
func (n *Node) PendingCreator(member, creator [20]byte) (*big.Int, error) {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()

	sources := []*treasury.Treasury{n.treasuryOrNil(treasury.ScopeCreator, creatorRef(creator))}
	override, err := n.projectedRPS(rewards.CreatorPoolID(creator), distribution.DestCreator, sources)
	if err != nil {
		return nil, err
	}
	return n.rewards.PendingCreator(member, creator, override)
}

// claimSources lists the treasuries known to feed a position's pool in the
// given class. Claims sweep this set and the pending view projects it, so
// both resolve the same value.
func (n *Node) claimSources(pos *rewards.Position, class rewards.PoolClass) []*treasury.Treasury {
	switch class {
	case rewards.ClassContent:
		return []*treasury.Treasury{n.treasuryOrNil(contentScope(pos.Bundle), pos.Ref)}
	case rewards.ClassPatron:
		return []*treasury.Treasury{n.treasuryOrNil(treasury.ScopeCreator, creatorRef(pos.Creator))}
	case rewards.ClassGlobal:
		sources := []*treasury.Treasury{
			n.treasuryOrNil(contentScope(pos.Bundle), pos.Ref),
			n.platformTreasury(),
		}
		if pos.PatronDebt.Attached {
			sources = append(sources, n.treasuryOrNil(treasury.ScopeCreator, creatorRef(pos.Creator)))
		}
		return sources
	default:
		return nil
	}
}

// sweepSourcesLocked runs a gated sweep over each known source treasury.
func (n *Node) sweepSourcesLocked(sources []*treasury.Treasury) error {
	for _, t := range sources {
		if t == nil {
			continue
		}
		if _, err := n.sweepLocked(t, false); err != nil {
			return err
		}
	}
	return nil
}

// viewOverride computes the projected accumulator for a position's pool in
// the given class, or nil when nothing is unswept.
func (n *Node) viewOverride(pos *rewards.Position, class rewards.PoolClass) (*big.Int, error) {
	sources := n.claimSources(pos, class)
	switch class {
	case rewards.ClassContent:
		return n.projectedRPS(rewards.PoolIDFor(contentKind(pos.Bundle), pos.Ref), distribution.DestHolders, sources)
	case rewards.ClassPatron:
		return n.projectedRPS(rewards.PatronPoolID(pos.Creator), distribution.DestHolders, sources)
	case rewards.ClassGlobal:
		return n.projectedRPS(rewards.GlobalPoolID(), distribution.DestEcosystem, sources)
	default:
		return nil, nil
	}
}

// projectedRPS sums the view deltas the sources would contribute to a pool
// and returns the accumulator they project to. Nil means nothing pending.
func (n *Node) projectedRPS(poolID [32]byte, dest distribution.Destination, sources []*treasury.Treasury) (*big.Int, error) {
	pool, ok, err := n.state.PoolGet(poolID)
	if err != nil {
		return nil, err
	}
	if !ok || pool == nil {
		return nil, nil
	}
	now := n.now()
	total := big.NewInt(0)
	for _, t := range sources {
		if t == nil {
			continue
		}
		epoch, _, err := n.state.EpochGet(t.ID)
		if err != nil {
			return nil, err
		}
		delta, err := n.distributor.ViewDelta(t, epoch, pool, dest, now)
		if err != nil {
			return nil, err
		}
		total.Add(total, delta)
	}
	if total.Sign() == 0 {
		return nil, nil
	}
	return total.Add(total, pool.RewardPerShare), nil
}

// PoolInfo returns a snapshot of one pool.
func (n *Node) PoolInfo(id [32]byte) (*rewards.Pool, error) {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()
	return n.rewards.PoolView(id)
}

// PositionInfo returns a token's position and current owner.
func (n *Node) PositionInfo(token [32]byte) (*rewards.Position, [20]byte, error) {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()

	pos, err := n.rewards.PositionView(token)
	if err != nil {
		return nil, [20]byte{}, err
	}
	owner, err := n.rewards.OwnerOf(token)
	if err != nil {
		return nil, [20]byte{}, err
	}
	return pos, owner, nil
}

// AuditPool recomputes a pool's conservation invariants from its positions.
func (n *Node) AuditPool(id [32]byte) (*rewards.AuditReport, error) {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()
	return n.rewards.Audit(id)
}

// TreasuryStatus reports a treasury, its epoch state and the per-stream
// unswept balances at the current clock.
type TreasuryStatus struct {
	Treasury *treasury.Treasury       `json:"treasury"`
	Epoch    *distribution.EpochState `json:"epoch,omitempty"`
	Unswept  map[string]*big.Int      `json:"unswept"`
	Now      int64                    `json:"now"`
}

func (n *Node) TreasuryStatus(scope treasury.ScopeKind, ref [32]byte) (*TreasuryStatus, error) {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()

	t, err := n.treasury.Get(scope, ref)
	if err != nil {
		return nil, err
	}
	epoch, _, err := n.state.EpochGet(t.ID)
	if err != nil {
		return nil, err
	}
	now := n.now()
	unswept := make(map[string]*big.Int)
	for _, stream := range treasury.StreamsFor(scope) {
		unswept[stream.String()] = t.UnsweptAt(stream, now)
	}
	return &TreasuryStatus{Treasury: t, Epoch: epoch, Unswept: unswept, Now: now}, nil
}

// SubscriptionView returns one subscription record.
func (n *Node) SubscriptionView(id [32]byte) (*subscription.Subscription, error) {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()
	return n.subs.Get(id)
}

// ListSubscriptions returns every known subscription id.
func (n *Node) ListSubscriptions() ([][32]byte, error) {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()
	return n.subs.List()
}

// Account returns the balance record for an address.
func (n *Node) Account(addr [20]byte) (*types.Account, error) {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()
	return n.state.GetAccount(addr[:])
}

// CreatorShares lists the distribution share grants under a creator.
func (n *Node) CreatorShares(creator [20]byte) ([]*rewards.CreatorShare, error) {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()
	return n.state.CreatorShareList(creator)
}

// EventsAfter replays journal entries with sequence strictly greater than
// cursor, oldest first.
func (n *Node) EventsAfter(cursor uint64, limit int) ([]journal.Entry, error) {
	return n.journal.After(cursor, limit)
}

// EventsHead returns the journal's latest sequence and chain hash.
func (n *Node) EventsHead() (uint64, [32]byte, error) {
	return n.journal.Head()
}

// VerifyJournal replays the whole journal and checks its hash chain.
func (n *Node) VerifyJournal() error {
	return n.journal.Verify()
}

// Close releases the journal and database.
func (n *Node) Close() error {
	return errors.Join(n.journal.Close(), n.db.Close())
}

// poolOrSeed loads a pool or, when it does not exist yet, returns a fresh
// zero-weight pool with the id the engines will create it under.
func (n *Node) poolOrSeed(kind rewards.PoolKind, scope [32]byte, creator [20]byte) (*rewards.Pool, error) {
	seed := rewards.NewPool(kind, scope, creator)
	pool, ok, err := n.state.PoolGet(seed.ID)
	if err != nil {
		return nil, err
	}
	if !ok || pool == nil {
		return seed, nil
	}
	return pool, nil
}

// treasuryOrNil loads a treasury for view projections; missing means nil.
func (n *Node) treasuryOrNil(scope treasury.ScopeKind, ref [32]byte) *treasury.Treasury {
	t, err := n.treasury.Get(scope, ref)
	if err != nil {
		return nil
	}
	return t
}

func (n *Node) platformTreasury() *treasury.Treasury {
	return n.treasuryOrNil(treasury.ScopePlatform, [32]byte{})
}

func contentScope(bundle bool) treasury.ScopeKind {
	if bundle {
		return treasury.ScopeBundle
	}
	return treasury.ScopeContent
}

func contentKind(bundle bool) rewards.PoolKind {
	if bundle {
		return rewards.PoolBundle
	}
	return rewards.PoolContent
}

// creatorRef widens a creator address into the 32-byte ref keying that
// creator's treasury and pools.
func creatorRef(creator [20]byte) [32]byte {
	var ref [32]byte
	copy(ref[:], creator[:])
	return ref
}

func shortID(id [32]byte) string {
	return fmt.Sprintf("%x", id[:8])
}
