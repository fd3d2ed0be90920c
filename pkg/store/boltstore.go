package store

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	bolt "go.etcd.io/bbolt"

	"github.com/meridian-sci/meridian/pkg/types"
)

var (
	bucketProtocols = []byte("protocols")
	bucketRelations = []byte("relations")
)

// BoltStore implements Store on top of bbolt, one bucket per domain type,
// with bbolt's NextSequence providing the stable integer ids protocols and
// relations need.
type BoltStore struct {
	db   *bolt.DB
	path string
}

// Open opens (creating if absent) the bbolt-backed POS at
// <dataDir>/project.db.
func Open(dataDir string) (*BoltStore, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	dbPath := filepath.Join(dataDir, "project.db")

	db, err := bolt.Open(dbPath, 0o600, nil)
	if err != nil {
		return nil, fmt.Errorf("open project store: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{bucketProtocols, bucketRelations} {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return fmt.Errorf("create bucket %s: %w", bucket, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &BoltStore{db: db, path: dbPath}, nil
}

func (s *BoltStore) Close() error { return s.db.Close() }

func itobKey(id int64) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, uint64(id))
	return buf
}

// CreateProtocol assigns a new id via the bucket's sequence and persists p.
func (s *BoltStore) CreateProtocol(p *types.Protocol) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketProtocols)
		id, err := b.NextSequence()
		if err != nil {
			return err
		}
		p.ID = int64(id)
		data, err := json.Marshal(p)
		if err != nil {
			return err
		}
		return b.Put(itobKey(p.ID), data)
	})
}

// UpdateProtocol upserts p under its existing id.
func (s *BoltStore) UpdateProtocol(p *types.Protocol) error {
	if p.ID == 0 {
		return fmt.Errorf("update protocol: id must be assigned")
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketProtocols)
		data, err := json.Marshal(p)
		if err != nil {
			return err
		}
		return b.Put(itobKey(p.ID), data)
	})
}

func (s *BoltStore) GetProtocol(id int64) (*types.Protocol, error) {
	var p types.Protocol
	found := false
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketProtocols)
		data := b.Get(itobKey(id))
		if data == nil {
			return nil
		}
		found = true
		return json.Unmarshal(data, &p)
	})
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("protocol %d: %w", id, ErrNotFound)
	}
	return &p, nil
}

func (s *BoltStore) DeleteProtocol(id int64) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketProtocols).Delete(itobKey(id))
	})
}

func (s *BoltStore) ExistsProtocol(id int64) (bool, error) {
	exists := false
	err := s.db.View(func(tx *bolt.Tx) error {
		exists = tx.Bucket(bucketProtocols).Get(itobKey(id)) != nil
		return nil
	})
	return exists, err
}

func (s *BoltStore) ListProtocols() ([]*types.Protocol, error) {
	var out []*types.Protocol
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketProtocols).ForEach(func(_, v []byte) error {
			var p types.Protocol
			if err := json.Unmarshal(v, &p); err != nil {
				return err
			}
			out = append(out, &p)
			return nil
		})
	})
	return out, err
}

func (s *BoltStore) ListProtocolsByClass(className string) ([]*types.Protocol, error) {
	all, err := s.ListProtocols()
	if err != nil {
		return nil, err
	}
	var out []*types.Protocol
	for _, p := range all {
		if p.ClassName == className {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *BoltStore) InsertRelation(r *types.Relation) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketRelations)
		id, err := b.NextSequence()
		if err != nil {
			return err
		}
		r.ID = int64(id)
		data, err := json.Marshal(r)
		if err != nil {
			return err
		}
		return b.Put(itobKey(r.ID), data)
	})
}

func (s *BoltStore) allRelations() ([]*types.Relation, error) {
	var out []*types.Relation
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketRelations).ForEach(func(_, v []byte) error {
			var r types.Relation
			if err := json.Unmarshal(v, &r); err != nil {
				return err
			}
			out = append(out, &r)
			return nil
		})
	})
	return out, err
}

func (s *BoltStore) GetRelationsByName(name types.RelationName) ([]*types.Relation, error) {
	all, err := s.allRelations()
	if err != nil {
		return nil, err
	}
	var out []*types.Relation
	for _, r := range all {
		if r.Name == name {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *BoltStore) GetRelationChilds(name types.RelationName, parentID int64) ([]*types.Relation, error) {
	byName, err := s.GetRelationsByName(name)
	if err != nil {
		return nil, err
	}
	var out []*types.Relation
	for _, r := range byName {
		if r.ParentID == parentID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *BoltStore) GetRelationParents(name types.RelationName, childID int64) ([]*types.Relation, error) {
	byName, err := s.GetRelationsByName(name)
	if err != nil {
		return nil, err
	}
	var out []*types.Relation
	for _, r := range byName {
		if r.ChildID == childID {
			out = append(out, r)
		}
	}
	return out, nil
}

// DeleteRelations removes every relation owned (as parent) by ownerID, as
// required before a restart re-derives provenance.
func (s *BoltStore) DeleteRelations(ownerID int64) error {
	all, err := s.allRelations()
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketRelations)
		for _, r := range all {
			if r.ParentID == ownerID {
				if err := b.Delete(itobKey(r.ID)); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

// CopyTo duplicates the whole database file to dst. The launch algorithm
// copies the entire project store into each protocol's working directory
// rather than a filtered view, an intentional simplification over a
// per-protocol projection.
func (s *BoltStore) CopyTo(dst string) error {
	return s.db.View(func(tx *bolt.Tx) error {
		f, err := os.OpenFile(dst, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o600)
		if err != nil {
			return err
		}
		defer f.Close()
		_, err = tx.WriteTo(f)
		return err
	})
}
