/*
Package species packages complete turtle L-systems: a grammar, an axiom and a
root node.

Premade species are available by name:

	sp, err := species.Lookup("honda")
	t, err := turtle.Construct(sp, sp.Root, sp.Iterations)

Others are described in YAML, JSON or TOML files and read with Load. A file
either tunes a premade kind:

	kind: honda
	params:
	  branch_yaw_1: 40

or declares its own rules in the textual rule syntax of package grammar.
*/
package species
