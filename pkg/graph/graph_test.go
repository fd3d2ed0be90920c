package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOrphansAttachToRoot(t *testing.T) {
	g := New()
	a := g.CreateNode("a", "A")
	b := g.CreateNode("b", "B")
	g.AddChild(a, b)
	c := g.CreateNode("c", "C")
	_ = c

	g.AttachOrphans()

	root := g.GetRoot()
	assert.Contains(t, root.Children(), a)
	assert.Contains(t, root.Children(), c)
	assert.NotContains(t, root.Children(), b, "b has a parent, should not also hang off root")
}

func TestAliasNodeResolvesToSameNode(t *testing.T) {
	g := New()
	n := g.CreateNode("5.outputImages", "images")
	g.AliasNode(n, "legacy-key")

	assert.Same(t, n, g.GetNode("legacy-key"))
}

func TestIterChildsTolerateCycle(t *testing.T) {
	g := New()
	a := g.CreateNode("a", "A")
	b := g.CreateNode("b", "B")
	g.AddChild(a, b)
	g.AddChild(b, a) // cycle

	var visited []string
	assert.NotPanics(t, func() {
		g.IterChilds(a, func(n *Node) { visited = append(visited, n.Key) })
	})
	assert.NotEmpty(t, visited)
}

func TestHasCycle(t *testing.T) {
	g := New()
	a := g.CreateNode("a", "A")
	b := g.CreateNode("b", "B")
	c := g.CreateNode("c", "C")
	g.AddChild(a, b)
	g.AddChild(b, c)

	assert.False(t, HasCycle(a))

	g.AddChild(c, a)
	assert.True(t, HasCycle(a))
}
