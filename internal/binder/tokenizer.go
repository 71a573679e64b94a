// SPDX-License-Identifier: MPL-2.0

package binder

import (
	"errors"
	"fmt"
	"strings"

	"mvdan.cc/sh/v3/shell"
)

const (
	// ModeSeparator splits on the configured separator string.
	ModeSeparator TokenizerMode = "separator"
	// ModeShell splits with POSIX shell quoting rules.
	ModeShell TokenizerMode = "shell"

	// DefaultSeparator is used when no separator is configured.
	DefaultSeparator = " "
)

var (
	// ErrInvalidTokenizerMode is returned when a TokenizerMode value is not recognized.
	ErrInvalidTokenizerMode = errors.New("invalid tokenizer mode")

	// ErrMalformedInput is returned when raw text cannot be tokenized.
	ErrMalformedInput = errors.New("malformed input")
)

type (
	// TokenizerMode selects a Tokenizer implementation.
	TokenizerMode string

	// Tokenizer splits raw argument text into tokens and joins a tail of
	// tokens back for remainder parameters.
	Tokenizer interface {
		Tokenize(raw string) ([]string, error)
		Join(tokens []string) string
	}

	// SeparatorTokenizer splits on a fixed separator and drops empty tokens.
	SeparatorTokenizer struct {
		Separator string
	}

	// ShellTokenizer honors single and double quotes and backslash escapes.
	// Variable references are kept literally; remainder tokens are re-joined
	// with Separator.
	ShellTokenizer struct {
		Separator string
	}
)

// IsValid returns whether the TokenizerMode is one of the defined modes.
func (m TokenizerMode) IsValid() (bool, []error) {
	switch m {
	case ModeSeparator, ModeShell:
		return true, nil
	default:
		return false, []error{fmt.Errorf("%w: %q (valid: separator, shell)", ErrInvalidTokenizerMode, m)}
	}
}

// String returns the string representation of the TokenizerMode.
func (m TokenizerMode) String() string { return string(m) }

// NewTokenizer returns the tokenizer for mode using separator.
func NewTokenizer(mode TokenizerMode, separator string) (Tokenizer, error) {
	if separator == "" {
		separator = DefaultSeparator
	}
	switch mode {
	case ModeSeparator, "":
		return SeparatorTokenizer{Separator: separator}, nil
	case ModeShell:
		return ShellTokenizer{Separator: separator}, nil
	default:
		_, errs := mode.IsValid()
		return nil, errs[0]
	}
}

// Tokenize implements Tokenizer.
func (s SeparatorTokenizer) Tokenize(raw string) ([]string, error) {
	sep := s.separator()
	parts := strings.Split(raw, sep)
	tokens := make([]string, 0, len(parts))
	for _, part := range parts {
		if part != "" {
			tokens = append(tokens, part)
		}
	}
	return tokens, nil
}

// Join implements Tokenizer.
func (s SeparatorTokenizer) Join(tokens []string) string {
	return strings.Join(tokens, s.separator())
}

func (s SeparatorTokenizer) separator() string {
	if s.Separator == "" {
		return DefaultSeparator
	}
	return s.Separator
}

// Tokenize implements Tokenizer.
func (s ShellTokenizer) Tokenize(raw string) ([]string, error) {
	tokens, err := shell.Fields(raw, func(name string) string { return "$" + name })
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedInput, err)
	}
	return tokens, nil
}

// Join implements Tokenizer.
func (s ShellTokenizer) Join(tokens []string) string {
	sep := s.Separator
	if sep == "" {
		sep = DefaultSeparator
	}
	return strings.Join(tokens, sep)
}
