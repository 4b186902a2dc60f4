package core

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"slices"
	"strings"

	"github.com/encodeous/routesim/perf"
	"github.com/encodeous/routesim/state"
)

// DistanceVector is a Bellman-Ford router for one terminal. Neighbours are the terminals
// reachable through relays only, see state.Topology.DVView.
type DistanceVector struct {
	node
	topo       *state.Topology
	neighbours map[state.NodeId]float64
	distances  map[state.NodeId]float64
	nextHop    map[state.NodeId]state.NodeId
}

func NewDistanceVector(id state.NodeId, topo *state.Topology, registry Registry, cfg state.RunCfg, log *slog.Logger) (*DistanceVector, error) {
	if !topo.IsTerminal(id) {
		return nil, fmt.Errorf("%s is not a terminal node", id)
	}
	dv := &DistanceVector{topo: topo}
	dv.node.init(id, cfg, registry, log)
	dv.Initialize()
	return dv, nil
}

// Initialize resets the tables to self at 0 and every direct neighbour at its direct cost.
func (dv *DistanceVector) Initialize() {
	dv.mu.Lock()
	defer dv.mu.Unlock()
	dv.neighbours = dv.topo.DVView(dv.id)
	dv.distances = map[state.NodeId]float64{dv.id: 0}
	dv.nextHop = make(map[state.NodeId]state.NodeId)
	for neigh, cost := range dv.neighbours {
		dv.distances[neigh] = cost
		dv.nextHop[neigh] = neigh
	}
}

func (dv *DistanceVector) Start(ctx context.Context) {
	dv.start(ctx, dv, dv.Broadcast, dv.handle)
}

func (dv *DistanceVector) handle(msg state.Message) {
	switch pkt := msg.(type) {
	case state.UpdatePacket:
		dv.ProcessUpdate(pkt)
	default:
		dv.Event(UnknownMessage, "ignored message", "from", msg.From(), "type", fmt.Sprintf("%T", msg))
	}
}

// advertisement builds the table snapshot sent to neigh, honouring the horizon mode.
func (dv *DistanceVector) advertisement(neigh state.NodeId) state.UpdatePacket {
	distances := make(map[state.NodeId]float64, len(dv.distances))
	for dst, cost := range dv.distances {
		if dv.cfg.Horizon != state.HorizonNone && dst != neigh && dv.nextHop[dst] == neigh {
			if dv.cfg.Horizon == state.HorizonSplit {
				continue // learned from neigh, not advertised back
			}
			cost = state.INF
		}
		distances[dst] = cost
	}
	return state.UpdatePacket{Source: dv.id, Distances: distances}
}

// Broadcast sends a snapshot of the distance table to every direct neighbour that participates.
func (dv *DistanceVector) Broadcast() {
	dv.mu.Lock()
	packets := make(map[state.NodeId]state.UpdatePacket, len(dv.neighbours))
	var shared *state.UpdatePacket
	for neigh := range dv.neighbours {
		if dv.cfg.Horizon == state.HorizonNone {
			if shared == nil {
				pkt := dv.advertisement("")
				shared = &pkt
			}
			packets[neigh] = *shared
		} else {
			packets[neigh] = dv.advertisement(neigh)
		}
	}
	dv.mu.Unlock()

	sent := 0
	for neigh, pkt := range packets {
		peer, ok := dv.lookup(neigh)
		if !ok {
			continue // not a participant
		}
		if peer.Deliver(pkt) {
			sent++
		}
	}
	perf.UpdatesSent.Add(float64(sent))
	dv.Event(TableBroadcast, "sent distance vector", "peers", sent)
}

// ProcessUpdate relaxes the table against a neighbour's advertisement and reports whether
// any entry improved. Costs never increase.
func (dv *DistanceVector) ProcessUpdate(pkt state.UpdatePacket) bool {
	dv.mu.Lock()
	defer dv.mu.Unlock()

	directCost, ok := dv.neighbours[pkt.Source]
	if !ok {
		directCost = state.INF
	}
	updated := false
	for dst, cost := range pkt.Distances {
		if dst == dv.id || !dv.topo.IsTerminal(dst) {
			continue
		}
		candidate := directCost + cost
		current, ok := dv.distances[dst]
		if !ok {
			current = state.INF
		}
		if candidate < current {
			dv.distances[dst] = candidate
			dv.nextHop[dst] = pkt.Source
			updated = true
			dv.Event(RouteImproved, "route improved", "dst", dst, "via", pkt.Source, "old", current, "new", candidate)
		}
	}
	if updated {
		perf.UpdatesApplied.Add(1)
	}
	return updated
}

// Route returns [self, dst] and the table cost. The path does not expand the forwarding chain.
func (dv *DistanceVector) Route(dst state.NodeId) ([]state.NodeId, float64) {
	dv.mu.Lock()
	defer dv.mu.Unlock()
	if dst == dv.id {
		return []state.NodeId{dv.id}, 0
	}
	cost, ok := dv.distances[dst]
	if !ok || cost == state.INF {
		return nil, state.INF
	}
	return []state.NodeId{dv.id, dst}, cost
}

func (dv *DistanceVector) NextHop(dst state.NodeId) (state.NodeId, bool) {
	dv.mu.Lock()
	defer dv.mu.Unlock()
	nh, ok := dv.nextHop[dst]
	return nh, ok
}

// Neighbours returns the relay-compressed neighbour set and direct costs.
func (dv *DistanceVector) Neighbours() map[state.NodeId]float64 {
	dv.mu.Lock()
	defer dv.mu.Unlock()
	return maps.Clone(dv.neighbours)
}

func (dv *DistanceVector) Table() map[state.NodeId]float64 {
	dv.mu.Lock()
	defer dv.mu.Unlock()
	return maps.Clone(dv.distances)
}

func (dv *DistanceVector) PrintTable(w io.Writer) {
	table := dv.Table()
	sb := strings.Builder{}
	sb.WriteString(fmt.Sprintf("\nRouting table for %s:\n", dv.id))
	sb.WriteString("Destination\tTotal Delay\n")
	for _, dst := range slices.Sorted(maps.Keys(table)) {
		if dst == dv.id {
			continue
		}
		_, cost := dv.Route(dst)
		sb.WriteString(fmt.Sprintf("%s\t\t%.1fms\n", dst, cost))
	}
	_, _ = io.WriteString(w, sb.String())
}
