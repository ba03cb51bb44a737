package main

import (
	"github.com/aretw0/arbor/internal/cli"
	"github.com/spf13/cobra"
)

var evolveCmd = &cobra.Command{
	Use:   "evolve <species|file>",
	Short: "Print the rewritten symbol sequence",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := runOptions(cmd, args[0])
		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			opts.Format = cli.FormatJSON
		}
		return cli.Evolve(cmd.Context(), opts)
	},
}

func init() {
	rootCmd.AddCommand(evolveCmd)

	evolveCmd.Flags().IntP("iterations", "n", -1, "Generations to grow (default: the species' own)")
	evolveCmd.Flags().Bool("json", false, "Print the symbols as JSON")
}
