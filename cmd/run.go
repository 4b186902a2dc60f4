package cmd

import (
	"context"
	"os"
	"time"

	"github.com/encodeous/routesim/core"
	"github.com/encodeous/routesim/state"
	"github.com/spf13/cobra"
)

var runCfg = state.RunCfg{
	Algorithm: state.AlgoDistanceVector,
	Interval:  state.UpdateInterval,
	Horizon:   state.HorizonNone,
}

var (
	runDuration time.Duration
	runDebug    bool
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a routing fleet until it converges",
	Long: `Starts one router per terminal of the selected topology, waits until every routing table is stable, then prints them all.
With --duration the fleet runs for exactly that long instead.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		err := state.RunConfigValidator(&runCfg)
		if err != nil {
			return err
		}
		logger, closer, err := core.NewLogger(logLevel(cmd), "routesim", runCfg.LogPath)
		if err != nil {
			return err
		}
		defer closer.Close()
		if runDebug {
			serveDebug("0.0.0.0:6060")
		}

		ctx, cancel := signalContext()
		defer cancel()
		limit := state.ConvergenceLimit
		if runDuration > 0 {
			limit = runDuration
		}
		ctx, cancelTimeout := context.WithTimeout(ctx, limit)
		defer cancelTimeout()

		var fleet *core.Fleet
		if runDuration > 0 {
			_, topo, err := loadTopology()
			if err != nil {
				return err
			}
			fleet = core.NewFleet(runCfg, logger)
			err = fleet.SetupAll(ctx, topo)
			if err != nil {
				fleet.CleanupAll()
				return err
			}
			<-ctx.Done()
		} else {
			fleet, err = runFleet(ctx, runCfg, logger)
			if err != nil {
				return err
			}
		}
		fleet.CleanupAll()
		fleet.Wait()
		fleet.PrintAll(os.Stdout)
		return nil
	},
	GroupID: "sim",
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runCfg.Algorithm, "algorithm", "a", runCfg.Algorithm, "routing algorithm (distance-vector, link-state)")
	runCmd.Flags().DurationVar(&runCfg.Interval, "interval", runCfg.Interval, "update interval of every router")
	runCmd.Flags().DurationVar(&runDuration, "duration", 0, "run for a fixed time instead of until convergence")
	runCmd.Flags().StringVar((*string)(&runCfg.Horizon), "horizon", string(runCfg.Horizon), "distance-vector horizon mode (none, split, poison)")
	runCmd.Flags().BoolVar(&runCfg.FloodDedup, "dedup", false, "drop link-state advertisements that were already processed")
	runCmd.Flags().IntVar(&runCfg.InboxSize, "inbox", state.DefaultInboxSize, "per-router inbox capacity")
	runCmd.Flags().StringVar(&runCfg.LogPath, "log", "", "also write logs to this file")
	runCmd.Flags().BoolVar(&runDebug, "debug", false, "serve expvar metrics on :6060")
}
