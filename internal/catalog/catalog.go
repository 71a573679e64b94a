// SPDX-License-Identifier: MPL-2.0

// Package catalog indexes commands by alias.
package catalog

import (
	"errors"
	"fmt"
	"sync"

	"golang.org/x/text/cases"

	"github.com/MariBotOfficial/MariCommands-sub001/pkg/command"
)

const (
	// Ordinal compares aliases byte for byte.
	Ordinal Comparison = "ordinal"
	// IgnoreCase compares aliases after Unicode case folding.
	IgnoreCase Comparison = "ignore_case"

	// MultiMatchFirst picks the first match whose arity accepts the input.
	MultiMatchFirst MultiMatch = "first"
	// MultiMatchFail rejects an alias reaching more than one command.
	MultiMatchFail MultiMatch = "fail"
)

var (
	// ErrInvalidComparison is returned when a Comparison value is not recognized.
	ErrInvalidComparison = errors.New("invalid comparison mode")
	// ErrInvalidMultiMatch is returned when a MultiMatch value is not recognized.
	ErrInvalidMultiMatch = errors.New("invalid multi-match policy")
	// ErrAmbiguous is returned by Select under MultiMatchFail.
	ErrAmbiguous = errors.New("ambiguous command alias")
)

type (
	// Comparison selects how aliases are compared.
	Comparison string

	// MultiMatch selects how an alias reaching several commands is resolved.
	MultiMatch string

	// Match is one command reachable through an alias.
	Match struct {
		Command *command.Command
		Alias   string
	}

	// Catalog maps aliases to commands in registration order.
	// It is safe for concurrent use.
	Catalog struct {
		cmp Comparison

		mu       sync.RWMutex
		commands []*command.Command
		index    map[string][]Match
	}
)

// IsValid returns whether the Comparison is one of the defined modes.
func (c Comparison) IsValid() (bool, []error) {
	switch c {
	case Ordinal, IgnoreCase:
		return true, nil
	default:
		return false, []error{fmt.Errorf("%w: %q (valid: ordinal, ignore_case)", ErrInvalidComparison, c)}
	}
}

// String returns the string representation of the Comparison.
func (c Comparison) String() string { return string(c) }

// IsValid returns whether the MultiMatch is one of the defined policies.
func (m MultiMatch) IsValid() (bool, []error) {
	switch m {
	case MultiMatchFirst, MultiMatchFail:
		return true, nil
	default:
		return false, []error{fmt.Errorf("%w: %q (valid: first, fail)", ErrInvalidMultiMatch, m)}
	}
}

// String returns the string representation of the MultiMatch.
func (m MultiMatch) String() string { return string(m) }

// Select picks one of matches for an input of tokens tokens. Under
// MultiMatchFirst the first match whose arity accepts the count exactly wins;
// next the first one that can drop the surplus (per-command override, else
// ignoreExtra); last the first match, so binding can report the mismatch.
// Under MultiMatchFail more than one match is ErrAmbiguous. Select returns
// false when matches is empty.
func Select(matches []Match, tokens int, policy MultiMatch, ignoreExtra bool) (Match, bool, error) {
	if len(matches) == 0 {
		return Match{}, false, nil
	}
	if policy == MultiMatchFail && len(matches) > 1 {
		return Match{}, false, fmt.Errorf("%w: %q reaches %d commands", ErrAmbiguous, matches[0].Alias, len(matches))
	}
	for _, m := range matches {
		if fits(m.Command, tokens) {
			return m, true, nil
		}
	}
	for _, m := range matches {
		if dropsSurplus(m.Command, tokens, ignoreExtra) {
			return m, true, nil
		}
	}
	return matches[0], true, nil
}

func fits(cmd *command.Command, tokens int) bool {
	minTokens, maxTokens := cmd.Arity()
	return tokens >= minTokens && (maxTokens < 0 || tokens <= maxTokens)
}

func dropsSurplus(cmd *command.Command, tokens int, ignoreExtra bool) bool {
	if minTokens, _ := cmd.Arity(); tokens < minTokens {
		return false
	}
	if ignore, set := cmd.IgnoreExtraArgs(); set {
		return ignore
	}
	return ignoreExtra
}

// New creates an empty catalog. An empty comparison means Ordinal.
func New(cmp Comparison) (*Catalog, error) {
	if cmp == "" {
		cmp = Ordinal
	}
	if ok, errs := cmp.IsValid(); !ok {
		return nil, errs[0]
	}
	return &Catalog{cmp: cmp, index: make(map[string][]Match)}, nil
}

// Comparison returns the comparison mode.
func (c *Catalog) Comparison() Comparison { return c.cmp }

// Add indexes every alias of cmd. Adding the same command twice is a
// configuration error; distinct commands may share an alias.
func (c *Catalog) Add(cmd *command.Command) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, existing := range c.commands {
		if existing == cmd {
			return command.NewConfigurationError(command.DuplicateCommand, cmd.Name(), "command registered twice")
		}
	}
	c.commands = append(c.commands, cmd)
	for _, alias := range cmd.Aliases() {
		key := c.key(alias)
		c.index[key] = append(c.index[key], Match{Command: cmd, Alias: alias})
	}
	return nil
}

// Match returns every command reachable through alias, in registration order.
func (c *Catalog) Match(alias string) []Match {
	c.mu.RLock()
	defer c.mu.RUnlock()
	matches := c.index[c.key(alias)]
	out := make([]Match, len(matches))
	copy(out, matches)
	return out
}

// Commands returns the registered commands in registration order.
func (c *Catalog) Commands() []*command.Command {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]*command.Command, len(c.commands))
	copy(out, c.commands)
	return out
}

// Len returns the number of registered commands.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.commands)
}

func (c *Catalog) key(alias string) string {
	if c.cmp == IgnoreCase {
		// A Caser keeps state between calls, so each lookup gets its own.
		return cases.Fold().String(alias)
	}
	return alias
}
