// Package service orchestrates the read paths of the API: cache-aside
// wrapping of expensive computations, on-demand backfill of event-fault
// associations, cluster computation, and the durable cluster definition
// registry. Stores are consumed through narrow interfaces so handlers and
// tests can substitute fakes.
package service
