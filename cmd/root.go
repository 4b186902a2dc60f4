package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "routesim",
	Short: "Routing protocol simulator",
	Long: `routesim runs a distance-vector or link-state router on every terminal of a simulated network.
Relays forward traffic but never run a router; each terminal only learns about the network through the messages its peers send.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddGroup(&cobra.Group{
		ID:    "sim",
		Title: "Simulation Commands",
	})
	rootCmd.AddGroup(&cobra.Group{
		ID:    "topo",
		Title: "Topology Commands",
	})
	rootCmd.PersistentFlags().StringVarP(&topologyPreset, "topology", "t", topologyPreset, "preset topology (line, ring, star, mesh, hybrid)")
	rootCmd.PersistentFlags().StringVarP(&topologyFile, "file", "f", "", "topology yaml file, overrides --topology")
	rootCmd.PersistentFlags().Uint64Var(&topologySeed, "seed", topologySeed, "seed for preset link delays")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Verbose output")
}
