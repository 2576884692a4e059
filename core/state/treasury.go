package state

import (
	"fmt"
	"math/big"

	"curiochain/native/treasury"
)

func treasuryStorageKey(id [32]byte) []byte {
	return prefixedKey(treasuryPrefix, id[:])
}

type storedStreamState struct {
	Deposited *big.Int
	Swept     *big.Int
}

type storedTreasury struct {
	ID             [32]byte
	Scope          uint8
	Ref            [32]byte
	Account        [20]byte
	UnlockStart    *big.Int
	UnlockDuration *big.Int
	Primary        storedStreamState
	Secondary      storedStreamState
	Subscription   storedStreamState
	Direct         storedStreamState
}

func newStoredStreamState(s treasury.StreamState) storedStreamState {
	clone := s.Clone()
	return storedStreamState{Deposited: clone.Deposited, Swept: clone.Swept}
}

func (s storedStreamState) toStreamState() treasury.StreamState {
	deposited := big.NewInt(0)
	if s.Deposited != nil {
		deposited = new(big.Int).Set(s.Deposited)
	}
	swept := big.NewInt(0)
	if s.Swept != nil {
		swept = new(big.Int).Set(s.Swept)
	}
	return treasury.StreamState{Deposited: deposited, Swept: swept}
}

// TreasuryGet loads one treasury by ID.
func (m *Manager) TreasuryGet(id [32]byte) (*treasury.Treasury, bool, error) {
	stored := new(storedTreasury)
	ok, err := m.loadRecord(treasuryStorageKey(id), stored)
	if err != nil || !ok {
		return nil, false, err
	}
	scope := treasury.ScopeKind(stored.Scope)
	if !scope.Valid() {
		return nil, false, fmt.Errorf("state: invalid treasury scope %d", stored.Scope)
	}
	return &treasury.Treasury{
		ID:             stored.ID,
		Scope:          scope,
		Ref:            stored.Ref,
		Account:        stored.Account,
		UnlockStart:    int64From(stored.UnlockStart),
		UnlockDuration: int64From(stored.UnlockDuration),
		Primary:        stored.Primary.toStreamState(),
		Secondary:      stored.Secondary.toStreamState(),
		Subscription:   stored.Subscription.toStreamState(),
		Direct:         stored.Direct.toStreamState(),
	}, true, nil
}

// TreasuryPut persists one treasury.
func (m *Manager) TreasuryPut(t *treasury.Treasury) error {
	if t == nil {
		return fmt.Errorf("state: nil treasury")
	}
	clone := t.Clone()
	stored := &storedTreasury{
		ID:             clone.ID,
		Scope:          uint8(clone.Scope),
		Ref:            clone.Ref,
		Account:        clone.Account,
		UnlockStart:    big.NewInt(clone.UnlockStart),
		UnlockDuration: big.NewInt(clone.UnlockDuration),
		Primary:        newStoredStreamState(clone.Primary),
		Secondary:      newStoredStreamState(clone.Secondary),
		Subscription:   newStoredStreamState(clone.Subscription),
		Direct:         newStoredStreamState(clone.Direct),
	}
	return m.writeRecord(treasuryStorageKey(clone.ID), stored)
}
