/*
Package arbor grows trees from parametric, context-sensitive L-systems.

A species couples a rule table with an axiom. Rewriting the axiom for a number
of generations yields a sequence of symbols, and a turtle walks that sequence
to lay down a skeleton of 3D points joined by parent/child edges.

# Packages

  - tree: append-only arena of nodes with stable handles and restartable edge iteration.
  - grammar: tagged symbols, alphabets and data-driven rule tables, authored in Go or in text.
  - lsys: generic simultaneous rewriting and interpretation with a push/pop state stack.
  - turtle: 3D turtle geometry over mathgl quaternions.
  - species: premade species and YAML, JSON or TOML species files.

# Usage

The Engine adds caching, metrics and logging around the core packages:

	package main

	import (
		"context"
		"fmt"
		"log"

		"github.com/aretw0/arbor"
		"github.com/aretw0/arbor/pkg/species"
	)

	func main() {
		sp, err := species.Lookup("honda")
		if err != nil {
			log.Fatal(err)
		}

		b, err := arbor.New().Build(context.Background(), sp, 4)
		if err != nil {
			log.Fatal(err)
		}

		for e := range b.Tree.Edges() {
			fmt.Println(e.Start.Position, "->", e.End.Position)
		}
	}

The core packages can be used on their own with any alphabet and node type;
see lsys.Evolve and lsys.Construct.
*/
package arbor
