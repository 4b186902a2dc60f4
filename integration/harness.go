//go:build integration

package integration

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"time"

	"github.com/encodeous/routesim/core"
	"github.com/encodeous/routesim/state"
	"github.com/encodeous/tint"
)

type Signal chan bool

func NewSignal() Signal {
	return make(chan bool)
}
func (s Signal) Trigger() {
	select {
	case <-s:
	default:
		close(s)
	}
}
func (s Signal) Triggered() bool {
	select {
	case <-s:
		return true
	default:
		return false
	}
}
func (s Signal) Wait() {
	<-s
}

// VirtualHarness runs a whole fleet in process over a topology assembled node by node.
type VirtualHarness struct {
	Topology state.TopologyCfg
	Run      state.RunCfg
	Fleet    *core.Fleet
	Context  context.Context
	Cancel   context.CancelCauseFunc
}

func (v *VirtualHarness) NewTerminal(id state.NodeId) {
	v.Topology.Terminals = append(v.Topology.Terminals, id)
}

func (v *VirtualHarness) NewRelay(id state.NodeId) {
	v.Topology.Relays = append(v.Topology.Relays, id)
}

func (v *VirtualHarness) AddLink(a, b state.NodeId, delay time.Duration) {
	v.Topology.Links = append(v.Topology.Links, state.RawLink{
		A:     a,
		B:     b,
		Delay: state.FormatDelay(float64(delay.Microseconds()) / 1000),
	})
}

func (v *VirtualHarness) Start() error {
	topo, err := v.Topology.Build()
	if err != nil {
		return err
	}
	if v.Run.Algorithm == "" {
		v.Run.Algorithm = state.AlgoDistanceVector
	}
	if v.Run.Interval == 0 {
		v.Run.Interval = 20 * time.Millisecond
	}
	ctx, cancel := context.WithCancelCause(context.Background())
	v.Context = ctx
	v.Cancel = cancel
	log := slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:        slog.LevelInfo,
		CustomPrefix: "harness",
	}))
	v.Fleet = core.NewFleet(v.Run, log)
	return v.Fleet.SetupAll(ctx, topo)
}

// Converge blocks until every table is stable, or fails after limit.
func (v *VirtualHarness) Converge(limit time.Duration) (time.Duration, error) {
	ctx, cancel := context.WithTimeout(v.Context, limit)
	defer cancel()
	return v.Fleet.WaitConverged(ctx, 4*v.Run.Interval, state.ConvergenceStable)
}

func (v *VirtualHarness) Stop() {
	v.Cancel(errors.New("stopping harness"))
	v.Fleet.CleanupAll()
	v.Fleet.Wait()
}
