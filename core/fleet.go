package core

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/encodeous/routesim/state"
)

// Fleet runs one engine per terminal node of a topology.
type Fleet struct {
	Cfg      state.RunCfg
	Log      *slog.Logger
	Registry *EngineRegistry
	Engines  map[state.NodeId]Engine
	Topology *state.Topology
}

func NewFleet(cfg state.RunCfg, log *slog.Logger) *Fleet {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Fleet{
		Cfg:      cfg.Defaults(),
		Log:      log,
		Registry: NewEngineRegistry(),
		Engines:  make(map[state.NodeId]Engine),
	}
}

func (f *Fleet) newEngine(id state.NodeId) (Engine, error) {
	switch f.Cfg.Algorithm {
	case state.AlgoDistanceVector:
		return NewDistanceVector(id, f.Topology, f.Registry, f.Cfg, f.Log)
	case state.AlgoLinkState:
		return NewLinkState(id, f.Topology, f.Registry, f.Cfg, f.Log)
	default:
		return nil, fmt.Errorf("unknown algorithm %q", f.Cfg.Algorithm)
	}
}

// SetupAll creates an engine for every terminal, then starts each one. Starting registers the
// engine for delivery by its peers. A fleet is set up once; use a new Fleet for another run.
func (f *Fleet) SetupAll(ctx context.Context, topo *state.Topology) error {
	if len(f.Engines) > 0 {
		return fmt.Errorf("fleet is already set up with %d engines", len(f.Engines))
	}
	err := state.RunConfigValidator(&f.Cfg)
	if err != nil {
		return err
	}
	f.Topology = topo
	f.Log.Info("setting up fleet", "algorithm", f.Cfg.Algorithm, "terminals", len(topo.Terminals()), "relays", len(topo.Relays()))
	engines := make(map[state.NodeId]Engine, len(topo.Terminals()))
	for _, id := range topo.Terminals() {
		e, err := f.newEngine(id)
		if err != nil {
			return err
		}
		engines[id] = e
	}
	f.Engines = engines
	for _, id := range f.Ids() {
		f.Engines[id].Start(ctx)
	}
	f.Log.Info("fleet started", "engines", len(f.Engines))
	return nil
}

// CleanupAll stops every engine. It does not wait for in-flight work, see Wait.
func (f *Fleet) CleanupAll() {
	for _, id := range f.Ids() {
		f.Engines[id].Stop()
	}
	f.Log.Info("fleet stopped")
}

// Wait blocks until every engine's task loop has exited.
func (f *Fleet) Wait() {
	for _, e := range f.Engines {
		e.Wait()
	}
}

func (f *Fleet) Ids() []state.NodeId {
	return slices.Sorted(maps.Keys(f.Engines))
}

func (f *Fleet) PrintAll(w io.Writer) {
	sb := strings.Builder{}
	sb.WriteString("\n" + strings.Repeat("=", 40) + "\n")
	sb.WriteString("FINAL ROUTING TABLES FOR ALL HOSTS\n")
	sb.WriteString(strings.Repeat("=", 40) + "\n")
	_, _ = io.WriteString(w, sb.String())
	for _, id := range f.Ids() {
		f.Engines[id].PrintTable(w)
		_, _ = io.WriteString(w, strings.Repeat("-", 40)+"\n")
	}
}

// Route asks src's engine for its route to dst. Unknown nodes are unreachable.
func (f *Fleet) Route(src, dst state.NodeId) ([]state.NodeId, float64) {
	e, ok := f.Engines[src]
	if !ok {
		return nil, state.INF
	}
	return e.Route(dst)
}

// Snapshot copies every engine's cost table.
func (f *Fleet) Snapshot() map[state.NodeId]map[state.NodeId]float64 {
	snap := make(map[state.NodeId]map[state.NodeId]float64, len(f.Engines))
	for id, e := range f.Engines {
		snap[id] = e.Table()
	}
	return snap
}

func snapshotsEqual(a, b map[state.NodeId]map[state.NodeId]float64) bool {
	return maps.EqualFunc(a, b, func(x, y map[state.NodeId]float64) bool {
		return maps.Equal(x, y)
	})
}

// WaitConverged polls the fleet every poll interval until stable consecutive snapshots are
// identical, and returns the time that took.
func (f *Fleet) WaitConverged(ctx context.Context, poll time.Duration, stable int) (time.Duration, error) {
	start := time.Now()
	prev := f.Snapshot()
	same := 0
	for same < stable {
		select {
		case <-ctx.Done():
			return time.Since(start), context.Cause(ctx)
		case <-time.After(poll):
		}
		cur := f.Snapshot()
		if snapshotsEqual(prev, cur) {
			same++
		} else {
			same = 0
		}
		prev = cur
	}
	elapsed := time.Since(start)
	f.Log.Info("fleet converged", "elapsed", elapsed)
	return elapsed, nil
}
