package state

import (
	"fmt"
	"math/big"

	"curiochain/native/subscription"
)

func subscriptionStorageKey(id [32]byte) []byte {
	return prefixedKey(subscriptionPrefix, id[:])
}

type storedSubscription struct {
	ID             [32]byte
	Creator        [20]byte
	Patron         [20]byte
	AmountPerEpoch *big.Int
	EpochSeconds   *big.Int
	CreatedAt      *big.Int
	CancelledAt    *big.Int
	LastPaidAt     *big.Int
	Active         bool
}

// SubscriptionGet loads one subscription by ID.
func (m *Manager) SubscriptionGet(id [32]byte) (*subscription.Subscription, bool, error) {
	stored := new(storedSubscription)
	ok, err := m.loadRecord(subscriptionStorageKey(id), stored)
	if err != nil || !ok {
		return nil, false, err
	}
	sub := &subscription.Subscription{
		ID:             stored.ID,
		Creator:        stored.Creator,
		Patron:         stored.Patron,
		AmountPerEpoch: stored.AmountPerEpoch,
		EpochSeconds:   int64From(stored.EpochSeconds),
		CreatedAt:      int64From(stored.CreatedAt),
		CancelledAt:    int64From(stored.CancelledAt),
		LastPaidAt:     int64From(stored.LastPaidAt),
		Active:         stored.Active,
	}
	return sub.Clone(), true, nil
}

// SubscriptionPut persists one subscription and records it in the global
// index.
func (m *Manager) SubscriptionPut(sub *subscription.Subscription) error {
	if sub == nil {
		return fmt.Errorf("state: nil subscription")
	}
	clone := sub.Clone()
	stored := &storedSubscription{
		ID:             clone.ID,
		Creator:        clone.Creator,
		Patron:         clone.Patron,
		AmountPerEpoch: clone.AmountPerEpoch,
		EpochSeconds:   big.NewInt(clone.EpochSeconds),
		CreatedAt:      big.NewInt(clone.CreatedAt),
		CancelledAt:    big.NewInt(clone.CancelledAt),
		LastPaidAt:     big.NewInt(clone.LastPaidAt),
		Active:         clone.Active,
	}
	if err := m.writeRecord(subscriptionStorageKey(clone.ID), stored); err != nil {
		return err
	}
	return m.indexAppend(subscriptionIndexKey, clone.ID[:])
}

// SubscriptionList returns every subscription ID on the book in sorted
// order.
func (m *Manager) SubscriptionList() ([][32]byte, error) {
	raw, err := m.indexList(subscriptionIndexKey)
	if err != nil {
		return nil, err
	}
	ids := make([][32]byte, 0, len(raw))
	for _, entry := range raw {
		if len(entry) != 32 {
			return nil, fmt.Errorf("state: malformed subscription index entry of %d bytes", len(entry))
		}
		var id [32]byte
		copy(id[:], entry)
		ids = append(ids, id)
	}
	return ids, nil
}
