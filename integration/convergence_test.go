//go:build integration

package integration

import (
	"testing"
	"time"

	"github.com/encodeous/routesim/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestStartStop(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())
	vh := &VirtualHarness{}
	vh.NewTerminal("node1")
	vh.NewTerminal("node2")
	vh.NewTerminal("node3")
	vh.Topology.Graph = []string{
		"node1, node2, node3",
	}
	vh.Topology.GraphDelay = "5ms"
	require.NoError(t, vh.Start())
	time.Sleep(200 * time.Millisecond)
	vh.Stop()
}

func TestOptimalConvergence(t *testing.T) {
	for _, algo := range []string{state.AlgoDistanceVector, state.AlgoLinkState} {
		t.Run(algo, func(t *testing.T) {
			defer goleak.VerifyNone(t, goleak.IgnoreCurrent())
			//   a --10-- b --10-- c
			//    \______50_______/
			vh := &VirtualHarness{}
			vh.Run.Algorithm = algo
			vh.NewTerminal("a")
			vh.NewTerminal("b")
			vh.NewTerminal("c")
			vh.NewRelay("r")
			vh.AddLink("a", "b", 10*time.Millisecond)
			vh.AddLink("b", "r", 5*time.Millisecond)
			vh.AddLink("r", "c", 5*time.Millisecond)
			vh.AddLink("a", "c", 50*time.Millisecond)
			require.NoError(t, vh.Start())
			defer vh.Stop()

			elapsed, err := vh.Converge(10 * time.Second)
			require.NoError(t, err)
			t.Logf("converged in %s", elapsed)

			_, cost := vh.Fleet.Route("a", "c")
			assert.Equal(t, 20.0, cost)
			_, cost = vh.Fleet.Route("c", "a")
			assert.Equal(t, 20.0, cost)
		})
	}
}

func TestPresetConvergence(t *testing.T) {
	for _, preset := range state.Presets {
		for _, algo := range []string{state.AlgoDistanceVector, state.AlgoLinkState} {
			t.Run(preset+"/"+algo, func(t *testing.T) {
				defer goleak.VerifyNone(t, goleak.IgnoreCurrent())
				cfg, err := state.PresetTopology(preset, 11)
				require.NoError(t, err)
				vh := &VirtualHarness{Topology: *cfg}
				vh.Run.Algorithm = algo
				require.NoError(t, vh.Start())
				defer vh.Stop()

				elapsed, err := vh.Converge(state.ConvergenceLimit)
				require.NoError(t, err)
				t.Logf("%s with %s converged in %.2fs", preset, algo, elapsed.Seconds())

				ids := vh.Fleet.Ids()
				for _, src := range ids {
					for _, dst := range ids {
						path, cost := vh.Fleet.Route(src, dst)
						assert.NotNil(t, path, "%s -> %s", src, dst)
						assert.Less(t, cost, state.INF, "%s -> %s", src, dst)
					}
				}
			})
		}
	}
}
