package rewards

import "errors"

var (
	// ErrArithmeticOverflow reports a value that escaped its storage width.
	// It is fatal: no reward computation may saturate or wrap.
	ErrArithmeticOverflow = errors.New("rewards: arithmetic overflow")
	// ErrNoWeightToDistribute reports a deposit against a pool with zero
	// total weight. Callers decide whether to carry or surface it.
	ErrNoWeightToDistribute = errors.New("rewards: no weight to distribute")
	// ErrNothingToClaim reports a settlement that found zero pending value.
	// State is untouched when it is returned.
	ErrNothingToClaim = errors.New("rewards: nothing to claim")
	// ErrNotOwner reports a claim attempted by someone other than the
	// token's current owner.
	ErrNotOwner = errors.New("rewards: caller does not own token")
	// ErrUnauthorized reports a privileged operation from a non-privileged
	// caller.
	ErrUnauthorized = errors.New("rewards: unauthorized caller")
	// ErrStaleWeight reports a pool whose recorded total weight no longer
	// matches the sum of its live positions. Fatal: accounting has drifted.
	ErrStaleWeight = errors.New("rewards: pool weight out of sync")
	// ErrClaimOverrun reports a claimed total that overtook deposits.
	// Fatal: value was paid out that never landed in the pool.
	ErrClaimOverrun = errors.New("rewards: claimed exceeds deposited")

	ErrPoolNotFound     = errors.New("rewards: pool not found")
	ErrPositionNotFound = errors.New("rewards: position not found")
	ErrPositionExists   = errors.New("rewards: position already exists")
	ErrTokenNotFound    = errors.New("rewards: token not found")
	ErrVaultUnderfunded = errors.New("rewards: rewards vault underfunded")
	ErrInvalidAmount    = errors.New("rewards: amount must be positive")
	ErrInvalidRarity    = errors.New("rewards: invalid rarity")
	ErrInvalidShare     = errors.New("rewards: invalid distribution share")
)

var (
	errNilState        = errors.New("rewards: state not configured")
	errVaultNotSet     = errors.New("rewards: rewards vault not configured")
	errCreatorUnknown  = errors.New("rewards: creator not registered")
	errStaleProjection = errors.New("rewards: virtual accumulator behind live pool")
)
