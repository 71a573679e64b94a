// SPDX-License-Identifier: MPL-2.0

// Package command defines the immutable descriptors consumed by the dispatch
// core: commands, their ordered parameters, and the modules hosting their
// handlers.
//
// Descriptors are produced once at startup (by hand or by a metadata compiler)
// through Builder, NewParameter and NewModule, and are shared read-only across
// concurrent requests afterwards. All fields are unexported; accessors never
// expose internal slices.
package command
