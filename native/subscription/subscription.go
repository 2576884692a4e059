package subscription

import (
	"errors"
	"math/big"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
)

var (
	ErrNotFound      = errors.New("subscription: not found")
	ErrInactive      = errors.New("subscription: not active")
	ErrNotDue        = errors.New("subscription: payment not due")
	ErrSelfSubscribe = errors.New("subscription: creator cannot subscribe to themselves")
	ErrInvalidAmount = errors.New("subscription: amount must be positive")
	ErrInvalidPeriod = errors.New("subscription: period must be positive")
	ErrUnauthorized  = errors.New("subscription: caller is neither creator nor patron")
)

// Subscription is a recurring patron pledge to one creator. One pair gets
// one record for its lifetime; cancelling and re-subscribing reuses it.
type Subscription struct {
	ID             [32]byte `json:"id"`
	Creator        [20]byte `json:"creator"`
	Patron         [20]byte `json:"patron"`
	AmountPerEpoch *big.Int `json:"amountPerEpoch"`
	EpochSeconds   int64    `json:"epochSeconds"`
	CreatedAt      int64    `json:"createdAt"`
	CancelledAt    int64    `json:"cancelledAt"`
	LastPaidAt     int64    `json:"lastPaidAt"`
	Active         bool     `json:"active"`
}

// IDFor derives the deterministic subscription identifier for a pair.
func IDFor(creator, patron [20]byte) [32]byte {
	var id [32]byte
	h := ethcrypto.Keccak256([]byte("curio/subs/"), creator[:], patron[:])
	copy(id[:], h)
	return id
}

func (s *Subscription) normalize() *Subscription {
	if s == nil {
		return nil
	}
	if s.AmountPerEpoch == nil {
		s.AmountPerEpoch = big.NewInt(0)
	}
	return s
}

// DueAt reports whether a payment is owed at now. A subscription that has
// never paid is due immediately.
func (s *Subscription) DueAt(now int64) bool {
	if s == nil || !s.Active {
		return false
	}
	if s.LastPaidAt == 0 {
		return true
	}
	return now-s.LastPaidAt >= s.EpochSeconds
}

func (s *Subscription) Clone() *Subscription {
	if s == nil {
		return nil
	}
	out := *s
	out.normalize()
	out.AmountPerEpoch = new(big.Int).Set(s.AmountPerEpoch)
	return &out
}
