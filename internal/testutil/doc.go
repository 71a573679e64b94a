// SPDX-License-Identifier: MPL-2.0

// Package testutil provides helpers shared by package tests: a manually
// advanced clock, server cleanup (MustStop, StopOnCleanup), file fixtures
// (MustWriteFile) and polling for asynchronous effects (Eventually).
package testutil
