/*
Package observability exposes Prometheus metrics for tree builds.

Metrics plugs into the generation and interpretation hooks of package lsys and
records whole builds reported by the arbor engine:

	m, err := observability.NewMetrics(prometheus.DefaultRegisterer)
	eng := arbor.New(arbor.WithMetrics(m))
*/
package observability
