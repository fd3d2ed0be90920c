// Package store implements the Persistent Object Store (POS): durable,
// crash-safe storage of protocols and relations with stable integer ids.
package store

import "github.com/meridian-sci/meridian/pkg/types"

// Store is the POS contract. Every other component depends on it;
// BoltStore is the only production implementation.
type Store interface {
	// CreateProtocol assigns a new stable id and persists p.
	CreateProtocol(p *types.Protocol) error
	// UpdateProtocol persists an existing protocol; it is an upsert on a
	// protocol whose id was assigned elsewhere (e.g. restored from a
	// local store copy).
	UpdateProtocol(p *types.Protocol) error
	// GetProtocol returns the protocol with the given id.
	GetProtocol(id int64) (*types.Protocol, error)
	// DeleteProtocol removes the protocol and its owned steps.
	DeleteProtocol(id int64) error
	// ExistsProtocol reports whether id is present.
	ExistsProtocol(id int64) (bool, error)
	// ListProtocols returns every protocol, in no particular order.
	ListProtocols() ([]*types.Protocol, error)
	// ListProtocolsByClass returns every protocol whose ClassName matches.
	ListProtocolsByClass(className string) ([]*types.Protocol, error)

	// InsertRelation assigns a new id and persists a provenance triple.
	InsertRelation(r *types.Relation) error
	// GetRelationsByName returns every relation with the given name.
	GetRelationsByName(name types.RelationName) ([]*types.Relation, error)
	// GetRelationChilds returns relations where parentID is the parent.
	GetRelationChilds(name types.RelationName, parentID int64) ([]*types.Relation, error)
	// GetRelationParents returns relations where childID is the child.
	GetRelationParents(name types.RelationName, childID int64) ([]*types.Relation, error)
	// DeleteRelations removes every relation owned (as parent) by ownerID.
	// Used on restart, before the protocol's steps re-derive provenance.
	DeleteRelations(ownerID int64) error

	// CopyTo duplicates the whole store file to dst: a launching protocol
	// gets a private snapshot of the project store at its own local path.
	CopyTo(dst string) error

	Close() error
}
