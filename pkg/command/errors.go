// SPDX-License-Identifier: MPL-2.0

package command

import (
	"errors"
	"fmt"
)

const (
	// InvalidCommandSignature means the handler's inputs or outputs match no invocation shape.
	InvalidCommandSignature ConfigErrorKind = "invalid_command_signature"
	// InvalidParameterLayout means a remainder/variadic parameter is not last, or a name is reused.
	InvalidParameterLayout ConfigErrorKind = "invalid_parameter_layout"
	// InvalidDefaultValue means a default value cannot be assigned to its parameter type.
	InvalidDefaultValue ConfigErrorKind = "invalid_default_value"
	// NonNullableOptional means an optional parameter has no default and cannot hold "no value".
	NonNullableOptional ConfigErrorKind = "non_nullable_optional"
	// InvalidModule means a module type or constructor is unusable.
	InvalidModule ConfigErrorKind = "invalid_module"
	// DuplicateCommand means the same command descriptor was registered twice.
	DuplicateCommand ConfigErrorKind = "duplicate_command"
	// RegistryFrozen means a registration happened after the registry was frozen.
	RegistryFrozen ConfigErrorKind = "registry_frozen"
)

// ErrConfiguration is the sentinel wrapped by every ConfigurationError.
var ErrConfiguration = errors.New("configuration error")

type (
	// ConfigErrorKind classifies a startup-time configuration fault.
	ConfigErrorKind string

	// ConfigurationError reports a descriptor or registration mistake. It is
	// always a startup-time fault, never produced while serving a request.
	// It wraps ErrConfiguration for errors.Is() compatibility.
	ConfigurationError struct {
		Kind    ConfigErrorKind
		Subject string
		Detail  string
	}
)

// Error implements the error interface.
func (e *ConfigurationError) Error() string {
	if e.Subject == "" {
		return fmt.Sprintf("configuration error (%s): %s", e.Kind, e.Detail)
	}
	return fmt.Sprintf("configuration error (%s) in %q: %s", e.Kind, e.Subject, e.Detail)
}

// Unwrap returns ErrConfiguration for errors.Is() compatibility.
func (e *ConfigurationError) Unwrap() error { return ErrConfiguration }

// String returns the string representation of the kind.
func (k ConfigErrorKind) String() string { return string(k) }

func configErr(kind ConfigErrorKind, subject, format string, args ...any) *ConfigurationError {
	return &ConfigurationError{Kind: kind, Subject: subject, Detail: fmt.Sprintf(format, args...)}
}

// NewConfigurationError creates a ConfigurationError with a formatted detail.
func NewConfigurationError(kind ConfigErrorKind, subject, format string, args ...any) error {
	return configErr(kind, subject, format, args...)
}
