package journal

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	bolt "go.etcd.io/bbolt"
	"lukechampine.com/blake3"

	"curiochain/core/types"
)

var (
	bucketEntries = []byte("entries")
	bucketMeta    = []byte("meta")
	headKey       = []byte("head")

	// ErrCorrupt is returned when the stored chain fails verification.
	ErrCorrupt = errors.New("journal: hash chain broken")
)

// Entry is one journaled event. Hash commits to the payload and to the
// previous entry's hash, so any rewrite of history is detectable.
type Entry struct {
	Seq        uint64            `json:"seq"`
	Type       string            `json:"type"`
	Attributes map[string]string `json:"attributes,omitempty"`
	EmittedAt  int64             `json:"emittedAt"`
	PrevHash   [32]byte          `json:"prevHash"`
	Hash       [32]byte          `json:"hash"`
}

type head struct {
	Seq  uint64   `json:"seq"`
	Hash [32]byte `json:"hash"`
}

// Journal is an append-only, hash-chained event log. Appends are ordered by
// the underlying write transaction; readers replay from any cursor.
type Journal struct {
	db *bolt.DB
}

// Open initialises (and migrates) the journal at the given path.
func Open(path string, options *bolt.Options) (*Journal, error) {
	if options == nil {
		options = &bolt.Options{Timeout: time.Second}
	} else if options.Timeout == 0 {
		options.Timeout = time.Second
	}
	db, err := bolt.Open(path, 0o600, options)
	if err != nil {
		return nil, err
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{bucketEntries, bucketMeta} {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Journal{db: db}, nil
}

// Close releases the underlying database handle.
func (j *Journal) Close() error {
	if j == nil || j.db == nil {
		return nil
	}
	return j.db.Close()
}

func entryKey(seq uint64) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, seq)
	return buf
}

func writeDelimited(buf *bytes.Buffer, data []byte) {
	var length [4]byte
	binary.BigEndian.PutUint32(length[:], uint32(len(data)))
	buf.Write(length[:])
	buf.Write(data)
}

func entryHash(e *Entry) [32]byte {
	buf := bytes.NewBuffer(nil)
	buf.Write(e.PrevHash[:])
	var seq [8]byte
	binary.BigEndian.PutUint64(seq[:], e.Seq)
	buf.Write(seq[:])
	var at [8]byte
	binary.BigEndian.PutUint64(at[:], uint64(e.EmittedAt))
	buf.Write(at[:])
	writeDelimited(buf, []byte(e.Type))
	keys := make([]string, 0, len(e.Attributes))
	for key := range e.Attributes {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	var count [4]byte
	binary.BigEndian.PutUint32(count[:], uint32(len(keys)))
	buf.Write(count[:])
	for _, key := range keys {
		writeDelimited(buf, []byte(key))
		writeDelimited(buf, []byte(e.Attributes[key]))
	}
	return blake3.Sum256(buf.Bytes())
}

func loadHead(tx *bolt.Tx) (head, error) {
	var h head
	raw := tx.Bucket(bucketMeta).Get(headKey)
	if raw == nil {
		return h, nil
	}
	if err := json.Unmarshal(raw, &h); err != nil {
		return h, err
	}
	return h, nil
}

// Append journals one event at the given timestamp and returns the stored
// entry.
func (j *Journal) Append(evt *types.Event, at int64) (*Entry, error) {
	if evt == nil {
		return nil, fmt.Errorf("journal: nil event")
	}
	stored := evt.Clone()
	entry := &Entry{
		Type:       stored.Type,
		Attributes: stored.Attributes,
		EmittedAt:  at,
	}
	err := j.db.Update(func(tx *bolt.Tx) error {
		h, err := loadHead(tx)
		if err != nil {
			return err
		}
		entry.Seq = h.Seq + 1
		entry.PrevHash = h.Hash
		entry.Hash = entryHash(entry)
		encoded, err := json.Marshal(entry)
		if err != nil {
			return err
		}
		if err := tx.Bucket(bucketEntries).Put(entryKey(entry.Seq), encoded); err != nil {
			return err
		}
		newHead, err := json.Marshal(head{Seq: entry.Seq, Hash: entry.Hash})
		if err != nil {
			return err
		}
		return tx.Bucket(bucketMeta).Put(headKey, newHead)
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// Head returns the sequence number and hash of the newest entry. A fresh
// journal reports sequence zero.
func (j *Journal) Head() (uint64, [32]byte, error) {
	var h head
	err := j.db.View(func(tx *bolt.Tx) error {
		loaded, err := loadHead(tx)
		if err != nil {
			return err
		}
		h = loaded
		return nil
	})
	return h.Seq, h.Hash, err
}

// After returns up to limit entries with sequence numbers strictly greater
// than cursor, in order.
func (j *Journal) After(cursor uint64, limit int) ([]Entry, error) {
	if limit <= 0 {
		return []Entry{}, nil
	}
	entries := make([]Entry, 0, limit)
	err := j.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(bucketEntries).Cursor()
		for key, raw := c.Seek(entryKey(cursor + 1)); key != nil; key, raw = c.Next() {
			var entry Entry
			if err := json.Unmarshal(raw, &entry); err != nil {
				return err
			}
			entries = append(entries, entry)
			if len(entries) == limit {
				return nil
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// Verify walks the full chain and recomputes every hash. It returns
// ErrCorrupt on the first entry whose linkage or digest disagrees with
// what is stored.
func (j *Journal) Verify() error {
	return j.db.View(func(tx *bolt.Tx) error {
		var prev head
		c := tx.Bucket(bucketEntries).Cursor()
		for key, raw := c.First(); key != nil; key, raw = c.Next() {
			var entry Entry
			if err := json.Unmarshal(raw, &entry); err != nil {
				return err
			}
			if entry.Seq != prev.Seq+1 || entry.PrevHash != prev.Hash {
				return fmt.Errorf("%w: entry %d does not extend %d", ErrCorrupt, entry.Seq, prev.Seq)
			}
			expected := entryHash(&entry)
			if expected != entry.Hash {
				return fmt.Errorf("%w: entry %d digest mismatch", ErrCorrupt, entry.Seq)
			}
			prev = head{Seq: entry.Seq, Hash: entry.Hash}
		}
		stored, err := loadHead(tx)
		if err != nil {
			return err
		}
		if stored != prev {
			return fmt.Errorf("%w: head does not match last entry", ErrCorrupt)
		}
		return nil
	})
}
