package history

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"time"

	"go.etcd.io/bbolt"

	"go.klb.dev/clipmgr/internal/clip"
	"go.klb.dev/clipmgr/internal/crypto"
)

var (
	entriesBucket = []byte("entries")
	currentBucket = []byte("current")
)

// record is the stored form of an entry. Values in entriesBucket are the
// JSON encoding of a record, sealed by the Box when one is configured.
type record struct {
	ID        uint64    `json:"id"`
	Data      []byte    `json:"data"`
	Mime      string    `json:"mime"`
	Mode      clip.Mode `json:"mode"`
	Timestamp time.Time `json:"timestamp"`
}

type boltStore struct {
	db  *bbolt.DB
	box *crypto.Box
}

func openBolt(path string, box *crypto.Box) (*boltStore, error) {
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("history: open %s: %w", path, err)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		for _, name := range [][]byte{entriesBucket, currentBucket} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return fmt.Errorf("create bucket %s: %w", name, err)
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("history: %w", err)
	}
	return &boltStore{db: db, box: box}, nil
}

func (s *boltStore) close() error { return s.db.Close() }

func idKey(id uint64) []byte {
	return binary.BigEndian.AppendUint64(nil, id)
}

func modeKey(m clip.Mode) []byte {
	return []byte(m.String())
}

func (s *boltStore) load() (map[uint64]clip.Entry, map[clip.Mode]uint64, error) {
	clips := make(map[uint64]clip.Entry)
	current := make(map[clip.Mode]uint64)
	err := s.db.View(func(tx *bbolt.Tx) error {
		err := tx.Bucket(entriesBucket).ForEach(func(k, v []byte) error {
			plain, err := s.box.Open(v)
			if err != nil {
				return fmt.Errorf("entry %x: %w", k, err)
			}
			var r record
			if err := json.Unmarshal(plain, &r); err != nil {
				return fmt.Errorf("entry %x: %w", k, err)
			}
			clips[r.ID] = clip.Entry(r)
			return nil
		})
		if err != nil {
			return err
		}
		cur := tx.Bucket(currentBucket)
		for _, m := range clip.Modes {
			v := cur.Get(modeKey(m))
			if len(v) != 8 {
				continue
			}
			id := binary.BigEndian.Uint64(v)
			if _, ok := clips[id]; ok {
				current[m] = id
			}
		}
		return nil
	})
	if err != nil {
		return nil, nil, fmt.Errorf("history: load: %w", err)
	}
	return clips, current, nil
}

// apply writes c in a single transaction.
func (s *boltStore) apply(c *change) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		entries := tx.Bucket(entriesBucket)
		for id := range c.deletes {
			if err := entries.Delete(idKey(id)); err != nil {
				return fmt.Errorf("delete %d: %w", id, err)
			}
		}
		for id, e := range c.puts {
			raw, err := json.Marshal(record(e))
			if err != nil {
				return fmt.Errorf("encode %d: %w", id, err)
			}
			sealed, err := s.box.Seal(raw)
			if err != nil {
				return fmt.Errorf("seal %d: %w", id, err)
			}
			if err := entries.Put(idKey(id), sealed); err != nil {
				return fmt.Errorf("put %d: %w", id, err)
			}
		}
		cur := tx.Bucket(currentBucket)
		for _, m := range clip.Modes {
			id, ok := c.current[m]
			var err error
			if ok {
				err = cur.Put(modeKey(m), idKey(id))
			} else {
				err = cur.Delete(modeKey(m))
			}
			if err != nil {
				return fmt.Errorf("current %s: %w", m, err)
			}
		}
		return nil
	})
}
