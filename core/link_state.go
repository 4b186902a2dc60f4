package core

import (
	"cmp"
	"context"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"slices"
	"strings"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/emirpasic/gods/queues/priorityqueue"
	"github.com/google/uuid"
	"github.com/jellydator/ttlcache/v3"

	"github.com/encodeous/routesim/perf"
	"github.com/encodeous/routesim/state"
)

// LinkState floods its direct links to every participant and runs Dijkstra over everything
// it has learned.
type LinkState struct {
	node
	topo  *state.Topology
	db    state.Adjacency
	paths map[state.NodeId]state.PathEntry
	seqno uint64
	// Seen is only set when flood dedup is enabled
	Seen *ttlcache.Cache[state.LsaKey, struct{}]
}

func NewLinkState(id state.NodeId, topo *state.Topology, registry Registry, cfg state.RunCfg, log *slog.Logger) (*LinkState, error) {
	if !topo.IsTerminal(id) {
		return nil, fmt.Errorf("%s is not a terminal node", id)
	}
	ls := &LinkState{topo: topo}
	ls.node.init(id, cfg, registry, log)
	if ls.cfg.FloodDedup {
		ls.Seen = ttlcache.New[state.LsaKey, struct{}](
			ttlcache.WithTTL[state.LsaKey, struct{}](state.LsaDedupTTL),
			ttlcache.WithDisableTouchOnHit[state.LsaKey, struct{}](),
		)
	}
	ls.Initialize()
	return ls, nil
}

// Initialize seeds the database from the link-state view and computes the first paths.
func (ls *LinkState) Initialize() {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	ls.db = ls.topo.LSView(ls.id)
	ls.dijkstra()
}

func (ls *LinkState) Start(ctx context.Context) {
	ls.start(ctx, ls, ls.tick, ls.handle)
}

func (ls *LinkState) tick() {
	ls.FloodLsa(ls.CreateLsa())
	if ls.Seen != nil {
		ls.Seen.DeleteExpired()
	}
}

func (ls *LinkState) handle(msg state.Message) {
	switch lsa := msg.(type) {
	case state.Lsa:
		ls.ProcessLsa(lsa)
	default:
		ls.Event(UnknownMessage, "ignored message", "from", msg.From(), "type", fmt.Sprintf("%T", msg))
	}
}

type queued struct {
	node state.NodeId
	dist float64
}

func byDist(a, b interface{}) int {
	return cmp.Compare(a.(queued).dist, b.(queued).dist)
}

// Dijkstra recomputes every shortest path from scratch.
func (ls *LinkState) Dijkstra() {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	ls.dijkstra()
}

func (ls *LinkState) dijkstra() {
	start := time.Now()
	distances := map[state.NodeId]float64{ls.id: 0}
	previous := make(map[state.NodeId]state.NodeId)
	visited := make(map[state.NodeId]struct{})

	pq := priorityqueue.NewWith(byDist)
	pq.Enqueue(queued{ls.id, 0})
	for !pq.Empty() {
		v, _ := pq.Dequeue()
		cur := v.(queued)
		if _, ok := visited[cur.node]; ok {
			continue // stale entry
		}
		visited[cur.node] = struct{}{}

		for neigh, weight := range ls.db[cur.node] {
			if _, ok := visited[neigh]; ok {
				continue
			}
			dist := cur.dist + weight
			if old, ok := distances[neigh]; !ok || dist < old {
				distances[neigh] = dist
				previous[neigh] = cur.node
				pq.Enqueue(queued{neigh, dist})
			}
		}
	}

	clear(ls.paths)
	if ls.paths == nil {
		ls.paths = make(map[state.NodeId]state.PathEntry)
	}
	for dst, dist := range distances {
		if dst == ls.id || !ls.topo.IsTerminal(dst) {
			continue
		}
		path := []state.NodeId{dst}
		for cur := dst; cur != ls.id; {
			cur = previous[cur]
			path = append(path, cur)
		}
		slices.Reverse(path)
		ls.paths[dst] = state.PathEntry{Path: path, Cost: dist}
	}
	perf.DijkstraLatency.Add(float64(time.Since(start).Microseconds()))
	ls.Event(PathsRecomputed, "shortest paths recomputed", "destinations", len(ls.paths))
}

// CreateLsa snapshots the direct links under the current sequence number, then advances it.
func (ls *LinkState) CreateLsa() state.Lsa {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	lsa := state.Lsa{
		Source: ls.id,
		Seqno:  ls.seqno,
		Links:  maps.Clone(ls.db[ls.id]),
	}
	if lsa.Links == nil {
		lsa.Links = make(map[state.NodeId]float64)
	}
	ls.seqno++
	return lsa
}

// FloodLsa disseminates lsa breadth-first over the known graph, starting at this node's
// neighbours. Each node is visited at most once per pass; every visited node with a registered
// peer gets the lsa, stamped with a fresh pass id. Returns the number of deliveries.
func (ls *LinkState) FloodLsa(lsa state.Lsa) int {
	ls.mu.Lock()
	order := make([]state.NodeId, 0, len(ls.db))
	visited := mapset.NewThreadUnsafeSet[state.NodeId](ls.id)
	queue := slices.Sorted(maps.Keys(ls.db[ls.id]))
	for len(queue) > 0 {
		next := queue[0]
		queue = queue[1:]
		if !visited.Add(next) {
			continue
		}
		order = append(order, next)
		for _, n := range slices.Sorted(maps.Keys(ls.db[next])) {
			if !visited.Contains(n) {
				queue = append(queue, n)
			}
		}
	}
	ls.mu.Unlock()

	lsa.Pass = uuid.New()
	delivered := 0
	for _, n := range order {
		peer, ok := ls.lookup(n)
		if !ok {
			continue // relays and idle terminals
		}
		if peer.Deliver(lsa) {
			delivered++
		}
	}
	perf.LsaFlooded.Add(1)
	perf.LsaDelivered.Add(float64(delivered))
	ls.Event(LsaFlood, "flooded lsa", "pass", lsa.Pass, "seqno", lsa.Seqno, "visited", len(order), "delivered", delivered)
	return delivered
}

// ProcessLsa merges the advertised edges symmetrically and recomputes paths if anything changed.
func (ls *LinkState) ProcessLsa(lsa state.Lsa) bool {
	ls.mu.Lock()
	defer ls.mu.Unlock()

	if ls.Seen != nil {
		if ls.Seen.Has(lsa.Key()) {
			perf.LsaDuplicates.Add(1)
			ls.Event(DuplicateLsa, "dropped duplicate lsa", "src", lsa.Source, "seqno", lsa.Seqno)
			return false
		}
		ls.Seen.Set(lsa.Key(), struct{}{}, ttlcache.DefaultTTL)
	}

	changed := false
	for dst, cost := range lsa.Links {
		if old, ok := ls.db[lsa.Source][dst]; !ok || old != cost {
			ls.db.Set(lsa.Source, dst, cost)
			ls.db.Set(dst, lsa.Source, cost)
			changed = true
		}
	}
	if changed {
		ls.Event(LsaMerged, "merged lsa", "src", lsa.Source, "seqno", lsa.Seqno, "pass", lsa.Pass)
		ls.dijkstra()
	}
	return changed
}

func (ls *LinkState) Route(dst state.NodeId) ([]state.NodeId, float64) {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	if dst == ls.id {
		return []state.NodeId{ls.id}, 0
	}
	entry, ok := ls.paths[dst]
	if !ok {
		return nil, state.INF
	}
	return slices.Clone(entry.Path), entry.Cost
}

func (ls *LinkState) Paths() map[state.NodeId]state.PathEntry {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	out := make(map[state.NodeId]state.PathEntry, len(ls.paths))
	for dst, e := range ls.paths {
		out[dst] = state.PathEntry{Path: slices.Clone(e.Path), Cost: e.Cost}
	}
	return out
}

// Database returns a copy of the link-state database.
func (ls *LinkState) Database() state.Adjacency {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	return ls.db.Clone()
}

func (ls *LinkState) Seqno() uint64 {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	return ls.seqno
}

func (ls *LinkState) Table() map[state.NodeId]float64 {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	table := map[state.NodeId]float64{ls.id: 0}
	for dst, e := range ls.paths {
		table[dst] = e.Cost
	}
	return table
}

func (ls *LinkState) PrintTable(w io.Writer) {
	paths := ls.Paths()
	sb := strings.Builder{}
	sb.WriteString(fmt.Sprintf("\nRouting table for %s:\n", ls.id))
	sb.WriteString("Destination\tPath\t\tTotal Delay\n")
	if len(paths) == 0 {
		sb.WriteString("No paths found. Current topology:\n")
		db := ls.Database()
		for _, n := range slices.Sorted(maps.Keys(db)) {
			links := make([]string, 0)
			for _, neigh := range slices.Sorted(maps.Keys(db[n])) {
				links = append(links, fmt.Sprintf("%s: %.1f", neigh, db[n][neigh]))
			}
			sb.WriteString(fmt.Sprintf("%s: {%s}\n", n, strings.Join(links, ", ")))
		}
	}
	for _, dst := range slices.Sorted(maps.Keys(paths)) {
		e := paths[dst]
		sb.WriteString(fmt.Sprintf("%s\t\t%s\t\t%.1fms\n", dst, state.FormatPath(e.Path), e.Cost))
	}
	_, _ = io.WriteString(w, sb.String())
}
