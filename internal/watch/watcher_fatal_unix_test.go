// SPDX-License-Identifier: MPL-2.0

//go:build !windows

package watch

import (
	"fmt"
	"syscall"
	"testing"
)

func TestIsFatalFsnotifyError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err  error
		want bool
	}{
		{err: syscall.ENOSPC, want: true},
		{err: syscall.EMFILE, want: true},
		{err: fmt.Errorf("fsnotify: %w", syscall.ENFILE), want: true},
		{err: syscall.EACCES, want: false},
		{err: fmt.Errorf("something went wrong"), want: false},
	}
	for _, tt := range tests {
		if got := isFatalFsnotifyError(tt.err); got != tt.want {
			t.Errorf("isFatalFsnotifyError(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}
