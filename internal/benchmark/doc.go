// SPDX-License-Identifier: MPL-2.0

// Package benchmark holds benchmarks over addonkit's hot paths, used to
// generate PGO profiles:
//   - Python source parsing
//   - dependency closure computation
//   - a full release (closure, copy, import rewrite)
//   - component scheduling
//
// To generate a profile, run:
//
//	go test -run '^$' -bench . -cpuprofile default.pgo ./internal/benchmark
package benchmark
