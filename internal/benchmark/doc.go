// SPDX-License-Identifier: MPL-2.0

// Package benchmark holds benchmarks for the dispatch hot paths:
//   - alias lookup in the catalog
//   - tokenizing and binding arguments
//   - end-to-end dispatch through the middleware pipeline
//   - configuration loading (CUE parse, schema validation, env overlay)
//
// They double as a PGO profile source:
//
//	go test -run '^$' -bench . -cpuprofile default.pgo ./internal/benchmark
package benchmark
