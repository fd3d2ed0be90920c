package scheduler

import (
	"fmt"
	"sync"

	"github.com/meridian-sci/meridian/pkg/types"
)

// memStore is a minimal in-memory store.Store used only to exercise the
// scheduler's own logic, independent of the bbolt-backed implementation.
type memStore struct {
	mu        sync.Mutex
	nextID    int64
	protocols map[int64]*types.Protocol
	relations map[int64]*types.Relation
	nextRelID int64
	copies    map[string]string
}

func newMemStore() *memStore {
	return &memStore{
		protocols: make(map[int64]*types.Protocol),
		relations: make(map[int64]*types.Relation),
		copies:    make(map[string]string),
	}
}

func (m *memStore) CreateProtocol(p *types.Protocol) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	p.ID = m.nextID
	cp := *p
	m.protocols[p.ID] = &cp
	return nil
}

func (m *memStore) UpdateProtocol(p *types.Protocol) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.protocols[p.ID]; !ok {
		return fmt.Errorf("protocol %d not found", p.ID)
	}
	cp := *p
	m.protocols[p.ID] = &cp
	return nil
}

func (m *memStore) GetProtocol(id int64) (*types.Protocol, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.protocols[id]
	if !ok {
		return nil, fmt.Errorf("protocol %d not found", id)
	}
	cp := *p
	return &cp, nil
}

func (m *memStore) DeleteProtocol(id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.protocols, id)
	return nil
}

func (m *memStore) ExistsProtocol(id int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.protocols[id]
	return ok, nil
}

func (m *memStore) ListProtocols() ([]*types.Protocol, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*types.Protocol, 0, len(m.protocols))
	for _, p := range m.protocols {
		cp := *p
		out = append(out, &cp)
	}
	return out, nil
}

func (m *memStore) ListProtocolsByClass(className string) ([]*types.Protocol, error) {
	all, _ := m.ListProtocols()
	out := make([]*types.Protocol, 0)
	for _, p := range all {
		if p.ClassName == className {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *memStore) InsertRelation(r *types.Relation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextRelID++
	r.ID = m.nextRelID
	cp := *r
	m.relations[r.ID] = &cp
	return nil
}

func (m *memStore) GetRelationsByName(name types.RelationName) ([]*types.Relation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*types.Relation
	for _, r := range m.relations {
		if r.Name == name {
			cp := *r
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memStore) GetRelationChilds(name types.RelationName, parentID int64) ([]*types.Relation, error) {
	all, _ := m.GetRelationsByName(name)
	var out []*types.Relation
	for _, r := range all {
		if r.ParentID == parentID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memStore) GetRelationParents(name types.RelationName, childID int64) ([]*types.Relation, error) {
	all, _ := m.GetRelationsByName(name)
	var out []*types.Relation
	for _, r := range all {
		if r.ChildID == childID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memStore) DeleteRelations(ownerID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, r := range m.relations {
		if r.ParentID == ownerID {
			delete(m.relations, id)
		}
	}
	return nil
}

func (m *memStore) CopyTo(dst string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.copies[dst] = dst
	return nil
}

func (m *memStore) Close() error { return nil }
