package main

import (
	"github.com/aretw0/arbor/internal/cli"
	"github.com/spf13/cobra"
)

// graphCmd represents the graph command
var graphCmd = &cobra.Command{
	Use:   "graph <species|file>",
	Short: "Export the tree as a Mermaid chart",
	Long:  `Builds the tree and outputs a Mermaid diagram (graph TD) with one node per skeleton point.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := runOptions(cmd, args[0])
		opts.Format = cli.FormatMermaid
		return cli.Execute(cmd.Context(), opts)
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)

	graphCmd.Flags().IntP("iterations", "n", -1, "Generations to grow (default: the species' own)")
}
