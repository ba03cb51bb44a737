package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/aretw0/arbor/pkg/species"
	"github.com/spf13/cobra"
)

var speciesCmd = &cobra.Command{
	Use:   "species",
	Short: "List the premade species",
	RunE: func(cmd *cobra.Command, args []string) error {
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tITERATIONS\tRULES\tAXIOM")
		for _, name := range species.Names() {
			sp, err := species.Lookup(name)
			if err != nil {
				return err
			}
			axiom := sp.Axiom()
			fmt.Fprintf(w, "%s\t%d\t%d\t%v\n", sp.Name, sp.Iterations, len(sp.Grammar().Rules()), axiom)
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(speciesCmd)
}
