// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

// ExitError signals a non-zero exit code without forcing os.Exit in RunE handlers.
type ExitError struct {
	Code int
	Err  error
}

// Error returns the error message for ExitError.
func (e *ExitError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("exit status %d", e.Code)
}

// Unwrap returns the underlying error, if any.
func (e *ExitError) Unwrap() error {
	return e.Err
}

// silenceExitError stops cobra from printing err again when the handler
// already reported it and only the exit code remains.
func silenceExitError(cmd *cobra.Command, err error) error {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		cmd.SilenceErrors = true
	}
	return err
}
