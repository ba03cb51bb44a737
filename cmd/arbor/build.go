package main

import (
	"github.com/aretw0/arbor/internal/cli"
	"github.com/spf13/cobra"
)

// buildCmd represents the build command
var buildCmd = &cobra.Command{
	Use:   "build <species|file>",
	Short: "Build a tree and print its edges",
	Long: `Evolves the species, interprets the result with the turtle and prints the
tree as edge lines (text), a JSON document or a Mermaid chart.

With --watch the species file is rebuilt every time it changes.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := runOptions(cmd, args[0])
		opts.Format, _ = cmd.Flags().GetString("format")
		opts.Watch, _ = cmd.Flags().GetBool("watch")
		return cli.Execute(cmd.Context(), opts)
	},
}

func init() {
	rootCmd.AddCommand(buildCmd)

	buildCmd.Flags().IntP("iterations", "n", -1, "Generations to grow (default: the species' own)")
	buildCmd.Flags().StringP("format", "f", cli.FormatText, "Output format: text, json or mermaid")
	buildCmd.Flags().BoolP("watch", "w", false, "Rebuild when the species file changes")
}

// runOptions reads the flags shared by build, evolve and graph.
func runOptions(cmd *cobra.Command, species string) cli.RunOptions {
	iterations, _ := cmd.Flags().GetInt("iterations")
	debug, _ := cmd.Flags().GetBool("debug")
	cache, _ := cmd.Flags().GetString("cache")
	workers, _ := cmd.Flags().GetInt("workers")

	return cli.RunOptions{
		Species:    species,
		Iterations: iterations,
		Debug:      debug,
		Cache:      cache,
		Workers:    workers,
		Out:        cmd.OutOrStdout(),
	}
}
