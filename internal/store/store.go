// Package store keeps a local, append-only history of generations and posts.
package store

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/joelklabo/molt/internal/core"
)

var (
	bucketGenerations = []byte("generations")
	bucketPosts       = []byte("posts")
)

// maxEntries bounds each bucket; oldest entries are dropped first.
var maxEntries = 1000

// Entry is one history row. Exactly one of Generation or Post is set.
type Entry struct {
	At         time.Time              `json:"at"`
	Generation *core.GenerationRecord `json:"generation,omitempty"`
	Post       *core.PostingRecord    `json:"post,omitempty"`
}

// Store wraps a BoltDB instance for small, durable state.
type Store struct {
	db  *bolt.DB
	now func() time.Time
}

// New opens (or creates) the database at the given path.
func New(path string) (*Store, error) {
	if path == "" {
		return nil, errors.New("store path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, err
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, b := range [][]byte{bucketGenerations, bucketPosts} {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db, now: time.Now}, nil
}

// Close releases the underlying DB handle.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// AppendGeneration records a finished generation.
func (s *Store) AppendGeneration(rec core.GenerationRecord) error {
	at := rec.At
	if at.IsZero() {
		at = s.now().UTC()
	}
	return s.append(bucketGenerations, Entry{At: at, Generation: &rec})
}

// AppendPost records a publish attempt.
func (s *Store) AppendPost(rec core.PostingRecord) error {
	return s.append(bucketPosts, Entry{At: s.now().UTC(), Post: &rec})
}

func (s *Store) append(bucket []byte, e Entry) error {
	data, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucket)
		seq, err := b.NextSequence()
		if err != nil {
			return err
		}
		if err := b.Put(itob(seq), data); err != nil {
			return err
		}
		return trim(b, maxEntries)
	})
}

func trim(b *bolt.Bucket, max int) error {
	if max <= 0 {
		return nil
	}
	n := 0
	c := b.Cursor()
	for k, _ := c.First(); k != nil; k, _ = c.Next() {
		n++
	}
	for n > max {
		k, _ := c.First()
		if k == nil {
			break
		}
		if err := b.Delete(k); err != nil {
			return err
		}
		n--
	}
	return nil
}

// Recent returns up to n entries across both buckets, newest first.
func (s *Store) Recent(n int) ([]Entry, error) {
	if n <= 0 {
		return nil, nil
	}
	var out []Entry
	err := s.db.View(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{bucketGenerations, bucketPosts} {
			c := tx.Bucket(name).Cursor()
			i := 0
			for k, v := c.Last(); k != nil && i < n; k, v = c.Prev() {
				var e Entry
				if err := json.Unmarshal(v, &e); err != nil {
					return err
				}
				out = append(out, e)
				i++
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].At.After(out[j].At) })
	if len(out) > n {
		out = out[:n]
	}
	return out, nil
}

func itob(v uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, v)
	return b
}
