package scheduler

import (
	"strconv"

	"github.com/meridian-sci/meridian/pkg/graph"
	"github.com/meridian-sci/meridian/pkg/types"
)

// protoGraph pairs a graph.Graph with the protocol each non-root node
// stands for, the Go analogue of pyworkflow attaching a ".run" attribute
// to each graph node.
type protoGraph struct {
	g        *graph.Graph
	byID     map[int64]*graph.Node
	protocol map[*graph.Node]*types.Protocol
}

// RunsGraph returns the DAG of protocols derived from input-pointer
// dependencies, caching it until the next write invalidates it. Ported
// from getRunsGraph/getGraphFromRuns.
func (s *Scheduler) RunsGraph() (*protoGraph, error) {
	s.mu.RLock()
	if s.runsGraphCache != nil {
		cached := s.runsGraphCache
		s.mu.RUnlock()
		return cached, nil
	}
	s.mu.RUnlock()

	all, err := s.store.ListProtocols()
	if err != nil {
		return nil, err
	}

	pg := buildRunsGraph(all)

	s.mu.Lock()
	s.runsGraphCache = pg
	s.mu.Unlock()
	return pg, nil
}

// buildRunsGraph constructs the dependency DAG: for every protocol, each
// input pointer whose target object id matches another protocol (or one
// of its declared outputs) becomes a parent->child edge, exactly as
// outputDict/_checkInputAttr resolves it.
func buildRunsGraph(protocols []*types.Protocol) *protoGraph {
	g := graph.New()
	pg := &protoGraph{g: g, byID: make(map[int64]*graph.Node, len(protocols)), protocol: make(map[*graph.Node]*types.Protocol, len(protocols))}

	// outputOwner maps an object id (the protocol's own id, since our
	// outputs are keyed under the owning protocol rather than given
	// independent object ids) to the node that produced it.
	outputOwner := make(map[int64]*graph.Node, len(protocols))

	for _, p := range protocols {
		n := g.CreateNode(nodeKey(p.ID), p.Label)
		pg.byID[p.ID] = n
		pg.protocol[n] = p
		outputOwner[p.ID] = n
	}

	for _, p := range protocols {
		node := pg.byID[p.ID]
		for _, input := range p.Inputs {
			for _, ptr := range pointersIn(input) {
				if ptr.IsZero() {
					continue
				}
				parent, ok := outputOwner[ptr.ObjectID]
				if !ok {
					continue
				}
				if parent == node {
					continue // self-reference, logged by graph.IterChilds if ever walked
				}
				g.AddChild(parent, node)
			}
		}
	}

	g.AttachOrphans()
	return pg
}

// pointersIn normalizes a single bound input value (Pointer or
// PointerList) into a slice, so callers can range uniformly.
func pointersIn(v any) []types.Pointer {
	switch t := v.(type) {
	case types.Pointer:
		return []types.Pointer{t}
	case types.PointerList:
		return t
	default:
		return nil
	}
}

func nodeKey(id int64) string {
	return strconv.FormatInt(id, 10)
}

// Node returns the runs-graph node for a protocol id, if present.
func (pg *protoGraph) Node(id int64) (*graph.Node, bool) {
	n, ok := pg.byID[id]
	return n, ok
}

// Protocol returns the protocol a runs-graph node stands for.
func (pg *protoGraph) Protocol(n *graph.Node) *types.Protocol {
	return pg.protocol[n]
}

// Childs returns the protocols depending on p's outputs.
func (s *Scheduler) Childs(p *types.Protocol) ([]*types.Protocol, error) {
	pg, err := s.RunsGraph()
	if err != nil {
		return nil, err
	}
	n, ok := pg.Node(p.ID)
	if !ok {
		return nil, nil
	}
	out := make([]*types.Protocol, 0, len(n.Children()))
	for _, c := range n.Children() {
		out = append(out, pg.Protocol(c))
	}
	return out, nil
}
