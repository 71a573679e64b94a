// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// Stopper is anything with a Stop method, typically a server.
type Stopper interface {
	Stop() error
}

// MustStop stops s. Shutdown errors during cleanup are logged, not fatal.
func MustStop(t testing.TB, s Stopper) {
	t.Helper()
	if err := s.Stop(); err != nil {
		t.Logf("warning: stop returned error: %v", err)
	}
}

// StopOnCleanup registers MustStop(s) with t.Cleanup.
func StopOnCleanup(t testing.TB, s Stopper) {
	t.Helper()
	t.Cleanup(func() { MustStop(t, s) })
}

// MustWriteFile writes data to path, creating parent directories.
// The test fails immediately on error.
func MustWriteFile(t testing.TB, path, data string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("failed to create directory for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
}

// Eventually polls cond every 10ms until it returns true or timeout
// elapses, failing the test with msg in the latter case.
func Eventually(t testing.TB, timeout time.Duration, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("condition not met after %s: %s", timeout, msg)
		}
		time.Sleep(10 * time.Millisecond)
	}
}
