/*
Package lsys implements deterministic, two-sided context-sensitive L-systems.

An L-system is driven in two phases:

 1. Evolve rewrites an axiom for N generations. Every generation is a
    simultaneous rewrite: each position is replaced using only the previous
    generation, never a partially rewritten one.
 2. Interpret walks the final sequence once, left to right, letting the
    System execute each symbol against a Context that owns the tree under
    construction, the current turtle state and a LIFO stack of saved states.

Construct combines both phases and returns the finished tree.

The package is generic over the alphabet A, the node payload N and the turtle
state S. Package grammar provides a rule-table Grammar over tagged symbols and
package turtle provides a 3D turtle for N and S.
*/
package lsys
