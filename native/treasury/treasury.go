package treasury

import (
	"errors"
	"math/big"

	gethcrypto "github.com/ethereum/go-ethereum/crypto"

	"curiochain/crypto"
)

var (
	ErrNotFound      = errors.New("treasury: not found")
	ErrInvalidAmount = errors.New("treasury: amount must be positive")
	ErrUnknownStream = errors.New("treasury: unknown stream")
	ErrOversweep     = errors.New("treasury: sweep exceeds unlocked balance")
	ErrOverflow      = errors.New("treasury: amount overflow")
)

// ScopeKind names what a treasury collects for.
type ScopeKind uint8

const (
	// ScopePlatform is the singleton platform treasury fed by direct fees.
	ScopePlatform ScopeKind = iota
	// ScopeCreator is one treasury per creator, fed by subscriptions.
	ScopeCreator
	// ScopeContent is one treasury per content piece, fed by its sales.
	ScopeContent
	// ScopeBundle is one treasury per bundle drop, fed by its sales.
	ScopeBundle
)

func (k ScopeKind) Valid() bool {
	switch k {
	case ScopePlatform, ScopeCreator, ScopeContent, ScopeBundle:
		return true
	default:
		return false
	}
}

func (k ScopeKind) String() string {
	switch k {
	case ScopePlatform:
		return "platform"
	case ScopeCreator:
		return "creator"
	case ScopeContent:
		return "content"
	case ScopeBundle:
		return "bundle"
	default:
		return "unknown"
	}
}

// Stream separates deposits by origin so each origin can carry its own
// split table. Streams share the treasury's unlock curve but never mix
// balances.
type Stream uint8

const (
	StreamPrimary Stream = iota
	StreamSecondary
	StreamSubscription
	StreamDirect
)

func (s Stream) Valid() bool {
	switch s {
	case StreamPrimary, StreamSecondary, StreamSubscription, StreamDirect:
		return true
	default:
		return false
	}
}

func (s Stream) String() string {
	switch s {
	case StreamPrimary:
		return "primary"
	case StreamSecondary:
		return "secondary"
	case StreamSubscription:
		return "subscription"
	case StreamDirect:
		return "direct"
	default:
		return "unknown"
	}
}

// StreamsFor returns the streams a treasury of the given scope accepts.
func StreamsFor(scope ScopeKind) []Stream {
	switch scope {
	case ScopeContent, ScopeBundle:
		return []Stream{StreamPrimary, StreamSecondary}
	case ScopeCreator:
		return []Stream{StreamSubscription}
	case ScopePlatform:
		return []Stream{StreamDirect}
	default:
		return nil
	}
}

// StreamState books one stream's lifetime deposits and how much of them has
// already been swept to destinations.
type StreamState struct {
	Deposited *big.Int `json:"deposited"`
	Swept     *big.Int `json:"swept"`
}

func (s *StreamState) normalize() *StreamState {
	if s.Deposited == nil {
		s.Deposited = big.NewInt(0)
	}
	if s.Swept == nil {
		s.Swept = big.NewInt(0)
	}
	return s
}

func (s StreamState) Clone() StreamState {
	out := StreamState{Deposited: big.NewInt(0), Swept: big.NewInt(0)}
	if s.Deposited != nil {
		out.Deposited = new(big.Int).Set(s.Deposited)
	}
	if s.Swept != nil {
		out.Swept = new(big.Int).Set(s.Swept)
	}
	return out
}

// Treasury holds sale proceeds while they unlock linearly. Value becomes
// distributable as it unlocks; nothing here polls, the curve is a pure
// function of the clock.
type Treasury struct {
	ID             [32]byte  `json:"id"`
	Scope          ScopeKind `json:"scope"`
	Ref            [32]byte  `json:"ref"`
	Account        [20]byte  `json:"account"`
	UnlockStart    int64     `json:"unlockStart"`
	UnlockDuration int64     `json:"unlockDuration"`

	Primary      StreamState `json:"primary"`
	Secondary    StreamState `json:"secondary"`
	Subscription StreamState `json:"subscription"`
	Direct       StreamState `json:"direct"`
}

// IDFor derives the storage identity of a treasury from its scope and ref.
func IDFor(scope ScopeKind, ref [32]byte) [32]byte {
	h := gethcrypto.Keccak256([]byte("curio/treasury/"), []byte{byte(scope)}, ref[:])
	var id [32]byte
	copy(id[:], h)
	return id
}

// New builds a treasury whose unlock clock starts at start.
func New(scope ScopeKind, ref [32]byte, start int64, duration int64) *Treasury {
	id := IDFor(scope, ref)
	t := &Treasury{
		ID:             id,
		Scope:          scope,
		Ref:            ref,
		Account:        crypto.DeriveModuleAddress("treasury", id[:]),
		UnlockStart:    start,
		UnlockDuration: duration,
	}
	t.normalize()
	return t
}

func (t *Treasury) normalize() *Treasury {
	if t == nil {
		return nil
	}
	t.Primary.normalize()
	t.Secondary.normalize()
	t.Subscription.normalize()
	t.Direct.normalize()
	return t
}

// StreamState returns the mutable book for one stream.
func (t *Treasury) StreamState(s Stream) *StreamState {
	if t == nil {
		return nil
	}
	t.normalize()
	switch s {
	case StreamPrimary:
		return &t.Primary
	case StreamSecondary:
		return &t.Secondary
	case StreamSubscription:
		return &t.Subscription
	case StreamDirect:
		return &t.Direct
	default:
		return nil
	}
}

// Deposit books amount into a stream. The caller is responsible for the
// matching account credit.
func (t *Treasury) Deposit(s Stream, amount *big.Int) error {
	state := t.StreamState(s)
	if state == nil {
		return ErrUnknownStream
	}
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	next := new(big.Int).Add(state.Deposited, amount)
	if !next.IsUint64() {
		return ErrOverflow
	}
	state.Deposited = next
	return nil
}

// UnlockedAt returns how much of a stream's lifetime deposits the curve has
// released by now. Zero-duration treasuries unlock immediately.
func (t *Treasury) UnlockedAt(s Stream, now int64) *big.Int {
	state := t.StreamState(s)
	if state == nil {
		return big.NewInt(0)
	}
	deposited := state.Deposited
	if deposited.Sign() == 0 {
		return big.NewInt(0)
	}
	if t.UnlockDuration <= 0 {
		return new(big.Int).Set(deposited)
	}
	elapsed := now - t.UnlockStart
	if elapsed <= 0 {
		return big.NewInt(0)
	}
	if elapsed >= t.UnlockDuration {
		return new(big.Int).Set(deposited)
	}
	unlocked := new(big.Int).Mul(deposited, big.NewInt(elapsed))
	return unlocked.Quo(unlocked, big.NewInt(t.UnlockDuration))
}

// UnsweptAt returns a stream's unlocked-but-undistributed balance.
func (t *Treasury) UnsweptAt(s Stream, now int64) *big.Int {
	state := t.StreamState(s)
	if state == nil {
		return big.NewInt(0)
	}
	unswept := t.UnlockedAt(s, now)
	unswept.Sub(unswept, state.Swept)
	if unswept.Sign() < 0 {
		return big.NewInt(0)
	}
	return unswept
}

// MarkSwept books a distribution against a stream. Sweeping more than the
// curve has unlocked is refused: it would pay out still-locked value.
func (t *Treasury) MarkSwept(s Stream, amount *big.Int, now int64) error {
	state := t.StreamState(s)
	if state == nil {
		return ErrUnknownStream
	}
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	next := new(big.Int).Add(state.Swept, amount)
	if next.Cmp(t.UnlockedAt(s, now)) > 0 {
		return ErrOversweep
	}
	state.Swept = next
	return nil
}

func (t *Treasury) Clone() *Treasury {
	if t == nil {
		return nil
	}
	out := *t
	out.Primary = t.Primary.Clone()
	out.Secondary = t.Secondary.Clone()
	out.Subscription = t.Subscription.Clone()
	out.Direct = t.Direct.Clone()
	return &out
}
