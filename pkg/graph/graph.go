// Package graph implements the labeled DAG primitive used for both the
// scheduler's runs graph and its relation graphs: nodes keyed by a unique
// string, alias lookup, child enumeration, root discovery, and
// cycle-tolerant traversal.
package graph

import "github.com/meridian-sci/meridian/pkg/log"

// RootKey is the synthetic root every orphan node is attached under.
const RootKey = "PROJECT"

// Node is a single vertex. Payload carries whatever the caller attached
// at creation time (a *types.Protocol pointer for the runs graph, an
// output key for relation graphs).
type Node struct {
	Key     string
	Label   string
	Payload any

	children []*Node
	parents  []*Node
}

// addChild links child as a child of n, avoiding duplicate edges.
func (n *Node) addChild(child *Node) {
	for _, c := range n.children {
		if c == child {
			return
		}
	}
	n.children = append(n.children, child)
	child.parents = append(child.parents, n)
}

// Children returns n's direct children.
func (n *Node) Children() []*Node { return n.children }

// Parents returns n's direct parents.
func (n *Node) Parents() []*Node { return n.parents }

// Graph is a directed graph of Nodes keyed by string, with alias support:
// several keys may resolve to the same underlying Node.
type Graph struct {
	root  *Node
	nodes map[string]*Node
}

// New creates an empty graph with its synthetic root already present.
func New() *Graph {
	g := &Graph{nodes: make(map[string]*Node)}
	g.root = g.CreateNode(RootKey, RootKey)
	return g
}

// CreateNode creates (or returns, if it already exists) the node for key.
func (g *Graph) CreateNode(key, label string) *Node {
	if n, ok := g.nodes[key]; ok {
		return n
	}
	n := &Node{Key: key, Label: label}
	g.nodes[key] = n
	return n
}

// GetNode returns the node for key, or nil if it does not exist.
func (g *Graph) GetNode(key string) *Node {
	return g.nodes[key]
}

// AliasNode makes altKey resolve to the same node as an existing node.
func (g *Graph) AliasNode(n *Node, altKey string) {
	g.nodes[altKey] = n
}

// GetRoot returns the synthetic PROJECT root.
func (g *Graph) GetRoot() *Node {
	return g.root
}

// IsRoot reports whether n is the synthetic root.
func (g *Graph) IsRoot(n *Node) bool {
	return n == g.root
}

// AddChild links child as a child of parent.
func (g *Graph) AddChild(parent, child *Node) {
	parent.addChild(child)
}

// AttachOrphans links every node with no parents (other than the root
// itself) as a child of the root. Call after all AddChild calls for a
// build pass.
func (g *Graph) AttachOrphans() {
	for key, n := range g.nodes {
		if key == RootKey || n == g.root {
			continue
		}
		if len(n.parents) == 0 {
			g.AddChild(g.root, n)
		}
	}
}

// IterChilds performs a recursive walk from n, calling visit once per
// reachable node. Cycles are detected and logged as a warning rather than
// causing a failure, tolerating bugs in user-authored protocol graphs.
func (g *Graph) IterChilds(n *Node, visit func(*Node)) {
	seen := make(map[*Node]bool)
	var walk func(*Node)
	walk = func(cur *Node) {
		if seen[cur] {
			log.WithComponent("graph").Warn().
				Str("node", cur.Key).
				Msg("cycle detected while walking graph, skipping re-visit")
			return
		}
		seen[cur] = true
		visit(cur)
		for _, c := range cur.children {
			walk(c)
		}
	}
	for _, c := range n.children {
		walk(c)
	}
}

// HasCycle reports whether the graph reachable from n contains a cycle.
func HasCycle(n *Node) bool {
	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := make(map[*Node]int)
	var visit func(*Node) bool
	visit = func(cur *Node) bool {
		color[cur] = gray
		for _, c := range cur.children {
			switch color[c] {
			case gray:
				return true
			case white:
				if visit(c) {
					return true
				}
			}
		}
		color[cur] = black
		return false
	}
	return visit(n)
}

// Nodes returns every distinct node in the graph (aliases collapse to one
// entry), excluding the synthetic root.
func (g *Graph) Nodes() []*Node {
	seen := make(map[*Node]bool)
	var out []*Node
	for _, n := range g.nodes {
		if n == g.root || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out
}
