/*
Package ports defines the driven ports (interfaces) of the arbor engine.

These interfaces decouple tree building from external infrastructure, so the
engine can share finished trees between processes and replicas.

# Key Interfaces

  - TreeCache: stores encoded trees under a build key (e.g., in memory or Redis).
  - Locker: serializes concurrent builds of the same key across replicas.
*/
package ports
