// SPDX-License-Identifier: MPL-2.0

// Package cmd contains all CLI commands for maricmd.
//
// The root command wires the configuration, the demo command set and the
// dispatch engine through App, then offers one-shot dispatch (run), a stdin
// loop (repl), a command listing (list), an SSH console (serve) and the
// config subcommands.
package cmd
