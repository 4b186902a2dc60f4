package cmd

import (
	"context"
	"fmt"

	"github.com/encodeous/routesim/core"
	"github.com/encodeous/routesim/state"
	"github.com/spf13/cobra"
)

var routeCmd = &cobra.Command{
	Use:   "route <src> <dst>",
	Short: "Runs the fleet to convergence and prints the route from src to dst",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		err := state.RunConfigValidator(&runCfg)
		if err != nil {
			return err
		}
		logger, closer, err := core.NewLogger(logLevel(cmd), "routesim", "")
		if err != nil {
			return err
		}
		defer closer.Close()

		ctx, cancel := signalContext()
		defer cancel()
		ctx, cancelTimeout := context.WithTimeout(ctx, state.ConvergenceLimit)
		defer cancelTimeout()

		fleet, err := runFleet(ctx, runCfg, logger)
		if err != nil {
			return err
		}
		defer fleet.Wait()
		defer fleet.CleanupAll()

		src, dst := state.NodeId(args[0]), state.NodeId(args[1])
		if _, ok := fleet.Engines[src]; !ok {
			return fmt.Errorf("%s is not a terminal of this topology", src)
		}
		path, cost := fleet.Route(src, dst)
		if path == nil {
			fmt.Printf("%s cannot reach %s\n", src, dst)
			return nil
		}
		fmt.Printf("%s (%s)\n", state.FormatPath(path), state.FormatDelay(cost))
		return nil
	},
	GroupID: "sim",
}

func init() {
	rootCmd.AddCommand(routeCmd)

	routeCmd.Flags().StringVarP(&runCfg.Algorithm, "algorithm", "a", runCfg.Algorithm, "routing algorithm (distance-vector, link-state)")
	routeCmd.Flags().DurationVar(&runCfg.Interval, "interval", runCfg.Interval, "update interval of every router")
}
