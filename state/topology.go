package state

import (
	"fmt"
	"maps"
	"slices"
)

// Edge is one direction of a Link, as seen from its owner in the adjacency list.
type Edge struct {
	To    NodeId
	Delay float64
}

// Topology is the immutable network graph handed to the routing engines.
type Topology struct {
	kinds map[NodeId]NodeKind
	links []Link
	adj   map[NodeId][]Edge
}

// NewTopology indexes the given nodes and parses every link delay. A malformed delay fails
// with a *ParseError; it never defaults to zero.
func NewTopology(terminals, relays []NodeId, links []RawLink) (*Topology, error) {
	t := &Topology{
		kinds: make(map[NodeId]NodeKind),
		adj:   make(map[NodeId][]Edge),
	}
	for _, id := range terminals {
		if _, ok := t.kinds[id]; ok {
			return nil, fmt.Errorf("duplicate node: %s", id)
		}
		t.kinds[id] = Terminal
	}
	for _, id := range relays {
		if _, ok := t.kinds[id]; ok {
			return nil, fmt.Errorf("duplicate node: %s", id)
		}
		t.kinds[id] = Relay
	}
	for _, raw := range links {
		for _, end := range []NodeId{raw.A, raw.B} {
			if _, ok := t.kinds[end]; !ok {
				return nil, fmt.Errorf("link %s-%s: node %s not defined", raw.A, raw.B, end)
			}
		}
		delay, err := ParseDelay(raw.Delay)
		if err != nil {
			return nil, fmt.Errorf("link %s-%s: %w", raw.A, raw.B, err)
		}
		l := Link{A: raw.A, B: raw.B, Delay: delay}
		t.links = append(t.links, l)
		t.adj[l.A] = append(t.adj[l.A], Edge{To: l.B, Delay: l.Delay})
		if l.A != l.B {
			t.adj[l.B] = append(t.adj[l.B], Edge{To: l.A, Delay: l.Delay})
		}
	}
	return t, nil
}

func (t *Topology) nodesOf(kind NodeKind) []NodeId {
	nodes := make([]NodeId, 0)
	for id, k := range t.kinds {
		if k == kind {
			nodes = append(nodes, id)
		}
	}
	slices.Sort(nodes)
	return nodes
}

// Terminals returns every terminal node in sorted order.
func (t *Topology) Terminals() []NodeId {
	return t.nodesOf(Terminal)
}

// Relays returns every relay node in sorted order.
func (t *Topology) Relays() []NodeId {
	return t.nodesOf(Relay)
}

func (t *Topology) Nodes() []NodeId {
	return slices.Sorted(maps.Keys(t.kinds))
}

func (t *Topology) Links() []Link {
	return slices.Clone(t.links)
}

func (t *Topology) Kind(id NodeId) (NodeKind, bool) {
	k, ok := t.kinds[id]
	return k, ok
}

func (t *Topology) IsTerminal(id NodeId) bool {
	k, ok := t.kinds[id]
	return ok && k == Terminal
}

// Adjacent lists the edges leaving id, in link declaration order.
func (t *Topology) Adjacent(id NodeId) []Edge {
	return t.adj[id]
}
