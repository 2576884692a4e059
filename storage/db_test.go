package storage

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// databases under test share one behavioural contract.
func runDatabaseContract(t *testing.T, db Database) {
	t.Helper()

	// Absent keys read back as (nil, nil).
	value, err := db.Get([]byte("missing"))
	require.NoError(t, err)
	require.Nil(t, value)

	require.NoError(t, db.Put([]byte("alpha"), []byte("one")))
	value, err = db.Get([]byte("alpha"))
	require.NoError(t, err)
	require.Equal(t, []byte("one"), value)

	// Overwrites replace the stored value.
	require.NoError(t, db.Put([]byte("alpha"), []byte("two")))
	value, err = db.Get([]byte("alpha"))
	require.NoError(t, err)
	require.Equal(t, []byte("two"), value)

	require.NoError(t, db.Delete([]byte("alpha")))
	value, err = db.Get([]byte("alpha"))
	require.NoError(t, err)
	require.Nil(t, value)

	// Deleting an absent key is not an error.
	require.NoError(t, db.Delete([]byte("alpha")))
}

func TestMemDBContract(t *testing.T) {
	db := NewMemDB()
	defer db.Close()
	runDatabaseContract(t, db)
}

func TestLevelDBContract(t *testing.T) {
	db, err := NewLevelDB(filepath.Join(t.TempDir(), "db"))
	require.NoError(t, err)
	defer db.Close()
	runDatabaseContract(t, db)
}

func TestMemDBCopiesBuffers(t *testing.T) {
	db := NewMemDB()
	defer db.Close()

	value := []byte("payload")
	require.NoError(t, db.Put([]byte("key"), value))
	value[0] = 'X'

	stored, err := db.Get([]byte("key"))
	require.NoError(t, err)
	require.Equal(t, []byte("payload"), stored)

	// Mutating a read buffer must not leak back into the store.
	stored[0] = 'Y'
	again, err := db.Get([]byte("key"))
	require.NoError(t, err)
	require.Equal(t, []byte("payload"), again)
}

func TestMemDBRefusesUseAfterClose(t *testing.T) {
	db := NewMemDB()
	require.NoError(t, db.Put([]byte("key"), []byte("value")))
	require.NoError(t, db.Close())

	require.Error(t, db.Put([]byte("key"), []byte("value")))
	_, err := db.Get([]byte("key"))
	require.Error(t, err)
	require.Error(t, db.Delete([]byte("key")))
}
