// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/MariBotOfficial/MariCommands-sub001/internal/binder"
	"github.com/MariBotOfficial/MariCommands-sub001/internal/catalog"
	"github.com/MariBotOfficial/MariCommands-sub001/pkg/command"
)

const (
	// LogLevelDebug logs every dispatch start.
	LogLevelDebug LogLevel = "debug"
	// LogLevelInfo logs completed dispatches.
	LogLevelInfo LogLevel = "info"
	// LogLevelWarn logs failed dispatches only.
	LogLevelWarn LogLevel = "warn"
	// LogLevelError logs faults only.
	LogLevelError LogLevel = "error"
)

var (
	// ErrInvalidLogLevel is returned when a LogLevel value is not recognized.
	ErrInvalidLogLevel = errors.New("invalid log level")
	// ErrInvalidSeparator is returned when the separator is empty.
	ErrInvalidSeparator = errors.New("invalid separator")
	// ErrInvalidSSHConfig is returned when the SSH listener settings are unusable.
	ErrInvalidSSHConfig = errors.New("invalid ssh config")
	// ErrInvalidConfig is the sentinel error wrapped by InvalidConfigError.
	ErrInvalidConfig = errors.New("invalid config")
)

type (
	// LogLevel is the minimum level of the dispatch logger.
	LogLevel string

	// InvalidConfigError is returned when a Config has invalid fields.
	// It wraps ErrInvalidConfig for errors.Is() compatibility and collects
	// field-level validation errors.
	InvalidConfigError struct {
		FieldErrors []error
	}

	// Config holds the dispatch configuration.
	Config struct {
		// Separator splits raw input into tokens and joins remainder tokens.
		Separator string `json:"separator" mapstructure:"separator" toml:"separator"`
		// Tokenizer selects plain separator splitting or shell-style quoting.
		Tokenizer binder.TokenizerMode `json:"tokenizer" mapstructure:"tokenizer" toml:"tokenizer"`
		// Comparison selects how command aliases are compared.
		Comparison catalog.Comparison `json:"comparison" mapstructure:"comparison" toml:"comparison"`
		// IgnoreExtraArgs drops leftover tokens instead of failing with
		// too_many_arguments. Commands may override it.
		IgnoreExtraArgs bool `json:"ignore_extra_args" mapstructure:"ignore_extra_args" toml:"ignore_extra_args"`
		// MultiMatch resolves aliases that reach several commands.
		MultiMatch catalog.MultiMatch `json:"multi_match" mapstructure:"multi_match" toml:"multi_match"`
		// TreatReferenceTypesAsNullable lets absent input bind nil to
		// interface, map, slice, func and chan parameters.
		TreatReferenceTypesAsNullable bool `json:"treat_reference_types_as_nullable" mapstructure:"treat_reference_types_as_nullable" toml:"treat_reference_types_as_nullable"`
		// ModuleLifetime applies to modules that do not declare one.
		ModuleLifetime command.Lifetime `json:"module_lifetime" mapstructure:"module_lifetime" toml:"module_lifetime"`
		// RunMode applies to commands that do not declare one.
		RunMode command.RunMode `json:"run_mode" mapstructure:"run_mode" toml:"run_mode"`
		// Log configures the dispatch logger.
		Log LogConfig `json:"log" mapstructure:"log" toml:"log"`
		// SSH configures the console listener.
		SSH SSHConfig `json:"ssh" mapstructure:"ssh" toml:"ssh"`
	}

	// LogConfig configures logging.
	LogConfig struct {
		Level LogLevel `json:"level" mapstructure:"level" toml:"level"`
	}

	// SSHConfig configures the SSH console listener.
	SSHConfig struct {
		Host string `json:"host" mapstructure:"host" toml:"host"`
		Port int    `json:"port" mapstructure:"port" toml:"port"`
	}
)

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Separator:       binder.DefaultSeparator,
		Tokenizer:       binder.ModeSeparator,
		Comparison:      catalog.Ordinal,
		IgnoreExtraArgs: true,
		MultiMatch:      catalog.MultiMatchFirst,
		ModuleLifetime:  command.LifetimeTransient,
		RunMode:         command.RunModeSequential,
		Log:             LogConfig{Level: LogLevelInfo},
		SSH:             SSHConfig{Host: "127.0.0.1", Port: 2222},
	}
}

// IsValid returns whether the LogLevel is one of the defined levels.
func (l LogLevel) IsValid() (bool, []error) {
	switch l {
	case LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError:
		return true, nil
	default:
		return false, []error{fmt.Errorf("%w: %q (valid: debug, info, warn, error)", ErrInvalidLogLevel, l)}
	}
}

// String returns the string representation of the LogLevel.
func (l LogLevel) String() string { return string(l) }

// Level converts the LogLevel to a charm log level. Unknown values map to info.
func (l LogLevel) Level() log.Level {
	lvl, err := log.ParseLevel(string(l))
	if err != nil {
		return log.InfoLevel
	}
	return lvl
}

// Address returns host:port.
func (s SSHConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// IsValid returns whether the SSHConfig has a usable host and port.
func (s SSHConfig) IsValid() (bool, []error) {
	var errs []error
	if strings.TrimSpace(s.Host) == "" {
		errs = append(errs, fmt.Errorf("%w: host must not be empty", ErrInvalidSSHConfig))
	}
	if s.Port < 1 || s.Port > 65535 {
		errs = append(errs, fmt.Errorf("%w: port %d out of range", ErrInvalidSSHConfig, s.Port))
	}
	return len(errs) == 0, errs
}

// IsValid returns whether every field holds a recognized value. Enumerations
// are checked with the validators of the packages that own them.
func (c *Config) IsValid() (bool, []error) {
	var errs []error
	if c.Separator == "" {
		errs = append(errs, fmt.Errorf("%w: must not be empty", ErrInvalidSeparator))
	}
	checks := []func() (bool, []error){
		c.Tokenizer.IsValid,
		c.Comparison.IsValid,
		c.MultiMatch.IsValid,
		c.ModuleLifetime.IsValid,
		c.RunMode.IsValid,
		c.Log.Level.IsValid,
		c.SSH.IsValid,
	}
	for _, check := range checks {
		if ok, fieldErrs := check(); !ok {
			errs = append(errs, fieldErrs...)
		}
	}
	if len(errs) > 0 {
		return false, []error{&InvalidConfigError{FieldErrors: errs}}
	}
	return true, nil
}

// Error implements the error interface for InvalidConfigError.
func (e *InvalidConfigError) Error() string {
	msgs := make([]string, len(e.FieldErrors))
	for i, err := range e.FieldErrors {
		msgs[i] = err.Error()
	}
	return fmt.Sprintf("invalid config: %s", strings.Join(msgs, "; "))
}

// Unwrap returns ErrInvalidConfig for errors.Is() compatibility.
func (e *InvalidConfigError) Unwrap() error { return ErrInvalidConfig }
