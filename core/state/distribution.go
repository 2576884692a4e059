package state

import (
	"fmt"
	"math/big"

	"curiochain/native/distribution"
)

func epochStorageKey(tid [32]byte) []byte {
	return prefixedKey(epochPrefix, tid[:])
}

type storedEpochState struct {
	Treasury           [32]byte
	LastDistributionAt *big.Int
	Distributions      uint64
	CarryCreator       *big.Int
	CarryHolders       *big.Int
	CarryEcosystem     *big.Int
}

// EpochGet loads the distribution epoch book for a treasury.
func (m *Manager) EpochGet(tid [32]byte) (*distribution.EpochState, bool, error) {
	stored := new(storedEpochState)
	ok, err := m.loadRecord(epochStorageKey(tid), stored)
	if err != nil || !ok {
		return nil, false, err
	}
	epoch := &distribution.EpochState{
		Treasury:           stored.Treasury,
		LastDistributionAt: int64From(stored.LastDistributionAt),
		Distributions:      stored.Distributions,
		CarryCreator:       stored.CarryCreator,
		CarryHolders:       stored.CarryHolders,
		CarryEcosystem:     stored.CarryEcosystem,
	}
	return epoch.Clone(), true, nil
}

// EpochPut persists the distribution epoch book for a treasury.
func (m *Manager) EpochPut(epoch *distribution.EpochState) error {
	if epoch == nil {
		return fmt.Errorf("state: nil epoch state")
	}
	clone := epoch.Clone()
	stored := &storedEpochState{
		Treasury:           clone.Treasury,
		LastDistributionAt: big.NewInt(clone.LastDistributionAt),
		Distributions:      clone.Distributions,
		CarryCreator:       clone.CarryCreator,
		CarryHolders:       clone.CarryHolders,
		CarryEcosystem:     clone.CarryEcosystem,
	}
	return m.writeRecord(epochStorageKey(clone.Treasury), stored)
}
