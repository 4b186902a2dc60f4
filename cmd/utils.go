package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/encodeous/routesim/core"
	"github.com/encodeous/routesim/state"
	"github.com/spf13/cobra"
)

var (
	topologyPreset        = "line"
	topologyFile          = ""
	topologySeed   uint64 = 1
)

func loadTopology() (*state.TopologyCfg, *state.Topology, error) {
	var (
		cfg *state.TopologyCfg
		err error
	)
	if topologyFile != "" {
		cfg, err = state.LoadTopology(topologyFile)
	} else {
		cfg, err = state.PresetTopology(topologyPreset, topologySeed)
	}
	if err != nil {
		return nil, nil, err
	}
	topo, err := cfg.Build()
	if err != nil {
		return nil, nil, err
	}
	return cfg, topo, nil
}

func logLevel(cmd *cobra.Command) slog.Level {
	if ok, _ := cmd.Flags().GetBool("verbose"); ok {
		return slog.LevelDebug
	}
	return slog.LevelInfo
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancelCause(context.Background())
	c := make(chan os.Signal, 1)
	signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case <-c:
			cancel(errors.New("received shutdown signal"))
		case <-ctx.Done():
		}
		signal.Stop(c)
	}()
	return ctx, func() { cancel(context.Canceled) }
}

func serveDebug(addr string) {
	go func() {
		log.Println(http.ListenAndServe(addr, nil))
	}()
}

// runFleet starts a fleet over the selected topology and blocks until it converges or ctx ends.
func runFleet(ctx context.Context, cfg state.RunCfg, logger *slog.Logger) (*core.Fleet, error) {
	_, topo, err := loadTopology()
	if err != nil {
		return nil, err
	}
	fleet := core.NewFleet(cfg, logger)
	err = fleet.SetupAll(ctx, topo)
	if err != nil {
		fleet.CleanupAll()
		return nil, err
	}
	elapsed, err := fleet.WaitConverged(ctx, state.ConvergencePoll, state.ConvergenceStable)
	if err != nil {
		logger.Warn("fleet did not converge", "elapsed", elapsed, "err", err)
	} else {
		logger.Info(fmt.Sprintf("converged in %.2fs", elapsed.Seconds()))
	}
	return fleet, nil
}
