package scheduler

import (
	"fmt"

	"github.com/meridian-sci/meridian/pkg/graph"
	"github.com/meridian-sci/meridian/pkg/types"
)

// SourceChilds returns every relation recording objID as a SOURCE
// parent. Ported from getSourceChilds.
func (s *Scheduler) SourceChilds(objID int64) ([]*types.Relation, error) {
	return s.store.GetRelationChilds(types.RelationSource, objID)
}

// SourceParents returns every relation recording objID as a SOURCE
// child. Ported from getSourceParents.
func (s *Scheduler) SourceParents(objID int64) ([]*types.Relation, error) {
	return s.store.GetRelationParents(types.RelationSource, objID)
}

// relationGraph builds a graph from every relation of the given name,
// one node per (objectId, extendedPath) pair referenced as a parent or
// child. Ported from _getRelationGraph.
func (s *Scheduler) relationGraph(name types.RelationName) (*graph.Graph, error) {
	rels, err := s.store.GetRelationsByName(name)
	if err != nil {
		return nil, err
	}

	g := graph.New()
	for _, r := range rels {
		parentKey := pointerKey(r.ParentID, r.ParentExt)
		childKey := pointerKey(r.ChildID, r.ChildExt)

		parent := g.GetNode(parentKey)
		if parent == nil {
			parent = g.CreateNode(parentKey, parentKey)
		}
		child := g.GetNode(childKey)
		if child == nil {
			child = g.CreateNode(childKey, childKey)
		}
		g.AddChild(parent, child)
	}

	g.AttachOrphans()
	return g, nil
}

// TransformGraph returns the graph built from the TRANSFORM relation.
// Ported from getTransformGraph.
func (s *Scheduler) TransformGraph() (*graph.Graph, error) {
	return s.relationGraph(types.RelationTransform)
}

// SourceGraph returns the graph built from the SOURCE relation. Ported
// from getSourceGraph.
func (s *Scheduler) SourceGraph() (*graph.Graph, error) {
	return s.relationGraph(types.RelationSource)
}

// RelatedObjects returns the pointer keys reachable from (objID, ext) by
// walking the TRANSFORM graph, following children. Ported from
// getRelatedObjects (direction=RELATION_CHILDS is the only direction the
// original actually implements).
func (s *Scheduler) RelatedObjects(objID int64, ext string) ([]string, error) {
	g, err := s.TransformGraph()
	if err != nil {
		return nil, err
	}
	start := g.GetNode(pointerKey(objID, ext))
	if start == nil {
		return nil, nil
	}

	var out []string
	g.IterChilds(start, func(n *graph.Node) {
		if n != start {
			out = append(out, n.Key)
		}
	})
	return out, nil
}

func pointerKey(objID int64, ext string) string {
	p := types.Pointer{ObjectID: objID, ExtendedPath: ext}
	return fmt.Sprintf("ptr:%s", p.String())
}
