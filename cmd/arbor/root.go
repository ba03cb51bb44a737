package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "arbor",
	Short: "Arbor grows 3D tree skeletons from L-systems",
	Long: `Arbor rewrites parametric, context-sensitive L-systems and interprets the
result with a 3D turtle into a tree of points joined by parent/child edges.

Species are premade (see "arbor species") or described in YAML, JSON or TOML files.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().Bool("debug", false, "Log generations and timings to stderr")
	rootCmd.PersistentFlags().String("cache", "", `Tree cache: "memory", a redis:// URL or a directory`)
	rootCmd.PersistentFlags().Int("workers", 0, "Goroutines used to rewrite long sequences (0 or 1 = sequential)")
}
