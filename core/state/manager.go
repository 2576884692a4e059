package state

import (
	"bytes"
	"fmt"
	"math/big"
	"sort"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"

	"curiochain/storage"
)

// Manager is the canonical store for every engine's records. Records are
// RLP-encoded under keccak-hashed, prefix-namespaced keys; listings go
// through explicit sorted indexes because hashed keys cannot be iterated.
//
// Manager is not safe for concurrent use; callers serialize access.
type Manager struct {
	db storage.Database
}

// NewManager creates a state manager operating on the provided database.
func NewManager(db storage.Database) *Manager {
	return &Manager{db: db}
}

func prefixedKey(prefix, suffix []byte) []byte {
	buf := make([]byte, len(prefix)+len(suffix))
	copy(buf, prefix)
	copy(buf[len(prefix):], suffix)
	return ethcrypto.Keccak256(buf)
}

func (m *Manager) loadRecord(key []byte, out interface{}) (bool, error) {
	data, err := m.db.Get(key)
	if err != nil {
		return false, err
	}
	if len(data) == 0 {
		return false, nil
	}
	if err := rlp.DecodeBytes(data, out); err != nil {
		return false, err
	}
	return true, nil
}

func (m *Manager) writeRecord(key []byte, value interface{}) error {
	encoded, err := rlp.EncodeToBytes(value)
	if err != nil {
		return err
	}
	return m.db.Put(key, encoded)
}

func (m *Manager) deleteRecord(key []byte) error {
	return m.db.Delete(key)
}

func (m *Manager) indexList(key []byte) ([][]byte, error) {
	data, err := m.db.Get(key)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return [][]byte{}, nil
	}
	var list [][]byte
	if err := rlp.DecodeBytes(data, &list); err != nil {
		return nil, err
	}
	return list, nil
}

// indexAppend inserts a value into the sorted index list stored under key.
// Duplicates are ignored to keep the index deterministic.
func (m *Manager) indexAppend(key, value []byte) error {
	list, err := m.indexList(key)
	if err != nil {
		return err
	}
	for _, existing := range list {
		if bytes.Equal(existing, value) {
			return nil
		}
	}
	list = append(list, append([]byte(nil), value...))
	sort.Slice(list, func(i, j int) bool {
		return bytes.Compare(list[i], list[j]) < 0
	})
	encoded, err := rlp.EncodeToBytes(list)
	if err != nil {
		return err
	}
	return m.db.Put(key, encoded)
}

func (m *Manager) indexRemove(key, value []byte) error {
	list, err := m.indexList(key)
	if err != nil {
		return err
	}
	filtered := make([][]byte, 0, len(list))
	for _, existing := range list {
		if bytes.Equal(existing, value) {
			continue
		}
		filtered = append(filtered, existing)
	}
	if len(filtered) == len(list) {
		return nil
	}
	encoded, err := rlp.EncodeToBytes(filtered)
	if err != nil {
		return err
	}
	return m.db.Put(key, encoded)
}

func int64From(v *big.Int) int64 {
	if v == nil {
		return 0
	}
	return v.Int64()
}

// SchemaVersion identifies the current state layout. Bumped whenever a
// stored record changes shape.
const SchemaVersion uint64 = 1

// Version returns the schema version recorded in state, zero when the
// database has never been initialised.
func (m *Manager) Version() (uint64, error) {
	var stored uint64
	ok, err := m.loadRecord(versionKey, &stored)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, nil
	}
	return stored, nil
}

// WriteVersion stamps the schema version into state.
func (m *Manager) WriteVersion(version uint64) error {
	return m.writeRecord(versionKey, version)
}

// CheckVersion verifies the database matches the layout this build expects.
// A fresh database is stamped; a mismatched one is rejected.
func (m *Manager) CheckVersion() error {
	stored, err := m.Version()
	if err != nil {
		return err
	}
	if stored == 0 {
		return m.WriteVersion(SchemaVersion)
	}
	if stored != SchemaVersion {
		return fmt.Errorf("state: schema version mismatch: database has %d, build expects %d", stored, SchemaVersion)
	}
	return nil
}
