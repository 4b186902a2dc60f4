package core

import (
	"context"
	"fmt"
	"io"
	"maps"
	"slices"
	"sync"

	"github.com/encodeous/routesim/state"
)

type RouterEvent int

// trace events

const (
	RouteImproved RouterEvent = iota
	TableBroadcast
	LsaFlood
	LsaMerged
	PathsRecomputed
)

// warn events

const (
	MessageDropped RouterEvent = iota + 1000
	UnknownMessage
	DuplicateLsa
)

func (e RouterEvent) String() string {
	switch e {
	case RouteImproved:
		return "RouteImproved"
	case TableBroadcast:
		return "TableBroadcast"
	case LsaFlood:
		return "LsaFlood"
	case LsaMerged:
		return "LsaMerged"
	case PathsRecomputed:
		return "PathsRecomputed"
	case MessageDropped:
		return "MessageDropped"
	case UnknownMessage:
		return "UnknownMessage"
	case DuplicateLsa:
		return "DuplicateLsa"
	default:
		return fmt.Sprintf("RouterEvent(%d)", int(e))
	}
}

// Peer is the delivery handle of a participating node.
type Peer interface {
	Deliver(msg state.Message) bool
}

// Registry resolves node ids to the peers currently participating. A node without an entry
// is not a participant and deliveries to it are skipped.
type Registry interface {
	Register(id state.NodeId, peer Peer)
	Unregister(id state.NodeId)
	Lookup(id state.NodeId) (Peer, bool)
}

// Engine is the surface shared by both routing protocols.
type Engine interface {
	Peer
	Id() state.NodeId
	Start(ctx context.Context)
	Stop()
	Running() bool
	Wait()
	// Route returns the path from this node to dst and its cost, or (nil, INF) if unknown.
	Route(dst state.NodeId) ([]state.NodeId, float64)
	// Table returns the known cost to every destination, self included.
	Table() map[state.NodeId]float64
	PrintTable(w io.Writer)
}

type EngineRegistry struct {
	mu    sync.RWMutex
	peers map[state.NodeId]Peer
}

func NewEngineRegistry() *EngineRegistry {
	return &EngineRegistry{peers: make(map[state.NodeId]Peer)}
}

func (r *EngineRegistry) Register(id state.NodeId, peer Peer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.peers[id] = peer
}

func (r *EngineRegistry) Unregister(id state.NodeId) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.peers, id)
}

func (r *EngineRegistry) Lookup(id state.NodeId) (Peer, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.peers[id]
	return p, ok
}

func (r *EngineRegistry) Ids() []state.NodeId {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Sorted(maps.Keys(r.peers))
}
