// SPDX-License-Identifier: MPL-2.0

// Package sshconsole serves a command Dispatcher over SSH using the Wish library.
//
// Each exec request ("ssh -p 2222 host ping") dispatches one line and maps the
// result to the exit status: 0 for success, 1 for a failed result and 2 for a
// dispatch fault. Shell sessions get a prompt and dispatch line by line until
// "exit", "quit" or EOF.
package sshconsole
