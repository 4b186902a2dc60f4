package cmd

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/encodeous/routesim/state"
	"github.com/spf13/cobra"
)

var viewCmd = &cobra.Command{
	Use:     "view <terminal>",
	Aliases: []string{"v"},
	Short:   "Prints the distance-vector and link-state views a terminal starts with",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		_, topo, err := loadTopology()
		if err != nil {
			return err
		}
		self := state.NodeId(args[0])
		if !topo.IsTerminal(self) {
			return fmt.Errorf("%s is not a terminal of this topology", self)
		}

		sb := strings.Builder{}
		sb.WriteString(fmt.Sprintf("Distance-vector neighbours of %s:\n", self))
		dv := topo.DVView(self)
		for _, n := range slices.Sorted(maps.Keys(dv)) {
			sb.WriteString(fmt.Sprintf("  %s\t%s\n", n, state.FormatDelay(dv[n])))
		}
		sb.WriteString(fmt.Sprintf("Link-state graph known to %s:\n", self))
		ls := topo.LSView(self)
		for _, n := range slices.Sorted(maps.Keys(ls)) {
			kind, _ := topo.Kind(n)
			sb.WriteString(fmt.Sprintf("  %s (%s)\n", n, kind))
			for _, neigh := range slices.Sorted(maps.Keys(ls[n])) {
				sb.WriteString(fmt.Sprintf("    -> %s\t%s\n", neigh, state.FormatDelay(ls[n][neigh])))
			}
		}
		fmt.Print(sb.String())
		return nil
	},
	GroupID: "topo",
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Prints the selected topology as yaml",
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		cfg, _, err := loadTopology()
		if err != nil {
			return err
		}
		out, err := cfg.Marshal()
		if err != nil {
			return err
		}
		fmt.Print(string(out))
		return nil
	},
	GroupID: "topo",
}

func init() {
	rootCmd.AddCommand(viewCmd)
	rootCmd.AddCommand(exportCmd)
}
