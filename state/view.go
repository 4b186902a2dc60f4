package state

import (
	mapset "github.com/deckarep/golang-set/v2"
)

// Adjacency is a weighted undirected graph keyed by node, then neighbour.
type Adjacency map[NodeId]map[NodeId]float64

func (a Adjacency) Set(x, y NodeId, cost float64) {
	if a[x] == nil {
		a[x] = make(map[NodeId]float64)
	}
	a[x][y] = cost
}

func (a Adjacency) Clone() Adjacency {
	out := make(Adjacency, len(a))
	for n, links := range a {
		cp := make(map[NodeId]float64, len(links))
		for k, v := range links {
			cp[k] = v
		}
		out[n] = cp
	}
	return out
}

// DVView compresses chains of relays into direct terminal neighbours. Exploration is
// breadth-first from self and only continues through relays; every terminal reached becomes a
// neighbour whose cost is the delay accumulated along the way (the lowest one if reached
// more than once). Relay-to-relay costs are not exposed.
func (t *Topology) DVView(self NodeId) map[NodeId]float64 {
	neighbours := make(map[NodeId]float64)
	if _, ok := t.kinds[self]; !ok {
		return neighbours
	}
	visited := mapset.NewThreadUnsafeSet[NodeId]()
	queue := []Pair[NodeId, float64]{{self, 0}}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if !visited.Add(cur.V1) {
			continue
		}
		for _, e := range t.adj[cur.V1] {
			total := cur.V2 + e.Delay
			if t.IsTerminal(e.To) {
				if e.To == self {
					continue
				}
				if old, ok := neighbours[e.To]; !ok || total < old {
					neighbours[e.To] = total
				}
			} else if !visited.Contains(e.To) {
				queue = append(queue, Pair[NodeId, float64]{e.To, total})
			}
		}
	}
	return neighbours
}

// LSView is the full weighted graph reachable from self, relays and terminals alike.
func (t *Topology) LSView(self NodeId) Adjacency {
	graph := make(Adjacency)
	if _, ok := t.kinds[self]; !ok {
		return graph
	}
	visited := mapset.NewThreadUnsafeSet[NodeId]()
	queue := []NodeId{self}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if !visited.Add(cur) {
			continue
		}
		for _, e := range t.adj[cur] {
			graph.Set(cur, e.To, e.Delay)
			graph.Set(e.To, cur, e.Delay)
			if !visited.Contains(e.To) {
				queue = append(queue, e.To)
			}
		}
	}
	// self always has an entry, even when isolated
	if graph[self] == nil {
		graph[self] = make(map[NodeId]float64)
	}
	return graph
}
