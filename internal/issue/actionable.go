// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"errors"
	"fmt"
	"strings"
)

type (
	// ActionableError is a startup or configuration error a user can fix.
	// Error() reads "failed to <operation>: <resource>: <cause>"; Format adds
	// the suggestions and, in verbose mode, the cause chain. Issue links the
	// error to a catalog entry with longer guidance.
	//
	//	return issue.NewErrorContext().
	//		WithOperation("load configuration").
	//		WithResource(path).
	//		WithIssue(issue.ConfigLoadFailedId).
	//		WithSuggestion("Check that the file contains valid CUE syntax").
	//		Wrap(err).
	//		BuildError()
	ActionableError struct {
		// Operation is a verb phrase: "load configuration", "start console".
		Operation string
		// Resource is the file, address or command involved. Optional.
		Resource string
		// Suggestions are one-line hints, printed as a bullet list.
		Suggestions []string
		// Issue is the catalog entry for this failure, or zero.
		Issue Id
		// Cause is the underlying error. Optional.
		Cause error
	}

	// ErrorContext accumulates ActionableError fields. A context can be kept
	// around and wrapped several times; each Build copies the suggestions.
	ErrorContext struct {
		proto ActionableError
	}
)

// NewErrorContext creates an empty ErrorContext.
func NewErrorContext() *ErrorContext {
	return &ErrorContext{}
}

// WrapWithContext wraps err with an operation and resource. It returns nil
// for a nil err.
func WrapWithContext(err error, operation, resource string) *ActionableError {
	if err == nil {
		return nil
	}
	return &ActionableError{Operation: operation, Resource: resource, Cause: err}
}

func (e *ActionableError) Error() string {
	parts := make([]string, 0, 3)
	parts = append(parts, "failed to "+e.Operation)
	if e.Resource != "" {
		parts = append(parts, e.Resource)
	}
	if e.Cause != nil {
		parts = append(parts, e.Cause.Error())
	}
	return strings.Join(parts, ": ")
}

func (e *ActionableError) Unwrap() error { return e.Cause }

// Format renders the error with its suggestions as a bullet list. With
// verbose set, the numbered cause chain follows.
func (e *ActionableError) Format(verbose bool) string {
	var sb strings.Builder
	sb.WriteString(e.Error())

	if len(e.Suggestions) > 0 {
		sb.WriteString("\n")
		for _, s := range e.Suggestions {
			sb.WriteString("\n  • " + s)
		}
	}

	if verbose && e.Cause != nil {
		sb.WriteString("\n\nError chain:")
		for depth, err := 1, e.Cause; err != nil; depth, err = depth+1, errors.Unwrap(err) {
			fmt.Fprintf(&sb, "\n  %d. %s", depth, err)
		}
	}
	return sb.String()
}

// HasSuggestions reports whether any hint is attached.
func (e *ActionableError) HasSuggestions() bool { return len(e.Suggestions) > 0 }

// IssueFor returns the catalog issue attached to the first ActionableError
// in err's chain that carries one.
func IssueFor(err error) (*Issue, bool) {
	for err != nil {
		var ae *ActionableError
		if !errors.As(err, &ae) {
			return nil, false
		}
		if ae.Issue != 0 {
			iss := Get(ae.Issue)
			return iss, iss != nil
		}
		err = ae.Cause
	}
	return nil, false
}

// WithOperation sets the failed operation. It is required by Build.
func (c *ErrorContext) WithOperation(op string) *ErrorContext {
	c.proto.Operation = op
	return c
}

// WithResource sets the resource involved.
func (c *ErrorContext) WithResource(res string) *ErrorContext {
	c.proto.Resource = res
	return c
}

// WithSuggestion appends a hint.
func (c *ErrorContext) WithSuggestion(sug string) *ErrorContext {
	c.proto.Suggestions = append(c.proto.Suggestions, sug)
	return c
}

// WithIssue links the error to a catalog entry.
func (c *ErrorContext) WithIssue(id Id) *ErrorContext {
	c.proto.Issue = id
	return c
}

// Wrap sets the cause, replacing any earlier one.
func (c *ErrorContext) Wrap(err error) *ErrorContext {
	c.proto.Cause = err
	return c
}

// Build returns the ActionableError, or nil when no operation was set.
func (c *ErrorContext) Build() *ActionableError {
	if c.proto.Operation == "" {
		return nil
	}
	ae := c.proto
	ae.Suggestions = append([]string(nil), c.proto.Suggestions...)
	return &ae
}

// BuildError is Build typed as error, so a missing operation yields a nil
// interface rather than a typed nil.
func (c *ErrorContext) BuildError() error {
	if ae := c.Build(); ae != nil {
		return ae
	}
	return nil
}
