package journal

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	bolt "go.etcd.io/bbolt"

	"curiochain/core/types"
)

func newTestJournal(t *testing.T) *Journal {
	t.Helper()
	path := filepath.Join(t.TempDir(), "journal.db")
	j, err := Open(path, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = j.Close() })
	return j
}

func event(kind string, attrs map[string]string) *types.Event {
	return &types.Event{Type: kind, Attributes: attrs}
}

func TestAppendBuildsHashChain(t *testing.T) {
	j := newTestJournal(t)

	first, err := j.Append(event("rewards.claim", map[string]string{"amount": "100"}), 1_000)
	require.NoError(t, err)
	require.Equal(t, uint64(1), first.Seq)
	require.Equal(t, [32]byte{}, first.PrevHash)
	require.NotEqual(t, [32]byte{}, first.Hash)

	second, err := j.Append(event("rewards.claim", map[string]string{"amount": "200"}), 1_001)
	require.NoError(t, err)
	require.Equal(t, uint64(2), second.Seq)
	require.Equal(t, first.Hash, second.PrevHash)

	seq, hash, err := j.Head()
	require.NoError(t, err)
	require.Equal(t, uint64(2), seq)
	require.Equal(t, second.Hash, hash)

	require.NoError(t, j.Verify())
}

func TestAppendRejectsNilEvent(t *testing.T) {
	j := newTestJournal(t)
	_, err := j.Append(nil, 1_000)
	require.Error(t, err)
}

func TestAfterReplaysFromCursor(t *testing.T) {
	j := newTestJournal(t)
	for i := 0; i < 5; i++ {
		_, err := j.Append(event("treasury.deposit", nil), int64(1_000+i))
		require.NoError(t, err)
	}

	all, err := j.After(0, 10)
	require.NoError(t, err)
	require.Len(t, all, 5)
	require.Equal(t, uint64(1), all[0].Seq)
	require.Equal(t, uint64(5), all[4].Seq)

	window, err := j.After(2, 2)
	require.NoError(t, err)
	require.Len(t, window, 2)
	require.Equal(t, uint64(3), window[0].Seq)
	require.Equal(t, uint64(4), window[1].Seq)

	tail, err := j.After(5, 10)
	require.NoError(t, err)
	require.Empty(t, tail)

	none, err := j.After(0, 0)
	require.NoError(t, err)
	require.Empty(t, none)
}

func TestReopenContinuesChain(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")

	j, err := Open(path, nil)
	require.NoError(t, err)
	_, err = j.Append(event("subs.created", nil), 1_000)
	require.NoError(t, err)
	last, err := j.Append(event("subs.paid", nil), 1_001)
	require.NoError(t, err)
	require.NoError(t, j.Close())

	reopened, err := Open(path, nil)
	require.NoError(t, err)
	defer reopened.Close()

	next, err := reopened.Append(event("subs.cancelled", nil), 1_002)
	require.NoError(t, err)
	require.Equal(t, uint64(3), next.Seq)
	require.Equal(t, last.Hash, next.PrevHash)
	require.NoError(t, reopened.Verify())
}

func TestVerifyDetectsRewrittenEntry(t *testing.T) {
	j := newTestJournal(t)
	for i := 0; i < 3; i++ {
		_, err := j.Append(event("rewards.deposit", map[string]string{"amount": "100"}), int64(1_000+i))
		require.NoError(t, err)
	}
	require.NoError(t, j.Verify())

	// Rewrite the middle entry's payload without recomputing its digest.
	err := j.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(bucketEntries)
		var entry Entry
		if err := json.Unmarshal(bucket.Get(entryKey(2)), &entry); err != nil {
			return err
		}
		entry.Attributes["amount"] = "999999"
		encoded, err := json.Marshal(&entry)
		if err != nil {
			return err
		}
		return bucket.Put(entryKey(2), encoded)
	})
	require.NoError(t, err)

	require.ErrorIs(t, j.Verify(), ErrCorrupt)
}

func TestVerifyDetectsTruncatedHead(t *testing.T) {
	j := newTestJournal(t)
	for i := 0; i < 2; i++ {
		_, err := j.Append(event("rewards.deposit", nil), int64(1_000+i))
		require.NoError(t, err)
	}

	// Drop the newest entry while leaving the head pointer in place.
	err := j.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketEntries).Delete(entryKey(2))
	})
	require.NoError(t, err)

	require.ErrorIs(t, j.Verify(), ErrCorrupt)
}
