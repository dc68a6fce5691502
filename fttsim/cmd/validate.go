package cmd

import (
	"fmt"
	"io"

	"github.com/ft4fttsim/ft4fttsim/sim"
	"github.com/ft4fttsim/ft4fttsim/topology"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check that a topology file describes a network that can be built.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		config, _ := cmd.Flags().GetString("config")

		return validateTopology(config, cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
	validateCmd.Flags().String("config", "", "Topology file")
	_ = validateCmd.MarkFlagRequired("config")
}

func validateTopology(filename string, out io.Writer) error {
	cfg, err := topology.ReadConfig(filename)
	if err != nil {
		return err
	}

	n, err := topology.Build(sim.NewSimulation(), cfg)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "%s: %d devices, %d links, routing %s\n",
		filename, len(n.DeviceNames()), len(n.Links()), cfg.Routing)

	return nil
}
