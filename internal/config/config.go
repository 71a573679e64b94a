// SPDX-License-Identifier: MPL-2.0

package config

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"

	"github.com/MariBotOfficial/MariCommands-sub001/internal/binder"
	"github.com/MariBotOfficial/MariCommands-sub001/internal/catalog"
	"github.com/MariBotOfficial/MariCommands-sub001/internal/issue"
	"github.com/MariBotOfficial/MariCommands-sub001/pkg/command"
)

const (
	// AppName is the application name.
	AppName = "maricmd"
	// ConfigFileName is the name of the config file (without extension).
	ConfigFileName = "config"
	// ConfigFileExt is the config file extension.
	ConfigFileExt = "cue"
	// EnvPrefix prefixes every environment override.
	EnvPrefix = "MARICMD_"
)

//go:embed config_schema.cue
var configSchema string

// envOverlay holds the environment overrides. Unset variables leave their
// pointer nil so file and default values survive.
type envOverlay struct {
	Separator                     *string               `env:"SEPARATOR"`
	Tokenizer                     *binder.TokenizerMode `env:"TOKENIZER"`
	Comparison                    *catalog.Comparison   `env:"COMPARISON"`
	IgnoreExtraArgs               *bool                 `env:"IGNORE_EXTRA_ARGS"`
	MultiMatch                    *catalog.MultiMatch   `env:"MULTI_MATCH"`
	TreatReferenceTypesAsNullable *bool                 `env:"TREAT_REFERENCE_TYPES_AS_NULLABLE"`
	ModuleLifetime                *command.Lifetime     `env:"MODULE_LIFETIME"`
	RunMode                       *command.RunMode      `env:"RUN_MODE"`
	LogLevel                      *LogLevel             `env:"LOG_LEVEL"`
	SSHHost                       *string               `env:"SSH_HOST"`
	SSHPort                       *int                  `env:"SSH_PORT"`
}

// ConfigDir returns the maricmd configuration directory using platform-specific
// conventions: %APPDATA% on Windows, ~/Library/Application Support on macOS,
// and $XDG_CONFIG_HOME (defaulting to ~/.config) elsewhere.
//
//nolint:revive // ConfigDir is more descriptive than Dir for external callers
func ConfigDir() (string, error) {
	if configDirOverride != "" {
		return configDirOverride, nil
	}

	var configDir string
	switch runtime.GOOS {
	case "windows":
		configDir = os.Getenv("APPDATA")
		if configDir == "" {
			configDir = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		configDir = filepath.Join(home, "Library", "Application Support")
	default:
		configDir = os.Getenv("XDG_CONFIG_HOME")
		if configDir == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("failed to get home directory: %w", err)
			}
			configDir = filepath.Join(home, ".config")
		}
	}

	return filepath.Join(configDir, AppName), nil
}

// loadWithOptions layers defaults, the CUE file and environment overrides,
// then validates the result. It returns the path of the file it read, if any.
func loadWithOptions(ctx context.Context, opts LoadOptions) (*Config, string, error) {
	select {
	case <-ctx.Done():
		return nil, "", fmt.Errorf("load config canceled: %w", ctx.Err())
	default:
	}

	v := viper.New()
	setDefaults(v, DefaultConfig())

	path, err := resolveConfigPath(opts)
	if err != nil {
		return nil, "", err
	}
	if path != "" {
		if err := loadCUEIntoViper(v, path); err != nil {
			return nil, "", issue.NewErrorContext().
				WithIssue(issue.ConfigLoadFailedId).
				WithOperation("load configuration").
				WithResource(path).
				WithSuggestion("Check that the file contains valid CUE syntax").
				WithSuggestion("Verify the configuration values match the expected schema").
				WithSuggestion("Use 'maricmd config show' to see the effective configuration").
				Wrap(err).
				BuildError()
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, "", fmt.Errorf("failed to parse config: %w", err)
	}
	if err := applyEnv(&cfg, opts.Environment); err != nil {
		return nil, "", issue.NewErrorContext().
			WithIssue(issue.ConfigLoadFailedId).
			WithOperation("read environment overrides").
			WithSuggestion("Check the " + EnvPrefix + "* variables for typos and value types").
			Wrap(err).
			BuildError()
	}
	if ok, errs := cfg.IsValid(); !ok {
		return nil, "", issue.NewErrorContext().
			WithIssue(issue.ConfigLoadFailedId).
			WithOperation("validate configuration").
			WithResource(path).
			WithSuggestion("Run 'maricmd config show' to inspect the merged values").
			Wrap(errors.Join(errs...)).
			BuildError()
	}

	return &cfg, path, nil
}

// resolveConfigPath returns the file to read: the explicit path (which must
// exist), then <config dir>/config.cue, then ./config.cue. An empty result
// means defaults only.
func resolveConfigPath(opts LoadOptions) (string, error) {
	if opts.ConfigFilePath != "" {
		if !fileExists(opts.ConfigFilePath) {
			return "", issue.NewErrorContext().
				WithIssue(issue.ConfigLoadFailedId).
				WithOperation("load configuration").
				WithResource(opts.ConfigFilePath).
				WithSuggestion("Verify the file path is correct").
				WithSuggestion("Use 'maricmd config show' to see the default configuration").
				Wrap(fmt.Errorf("config file not found: %s", opts.ConfigFilePath)).
				BuildError()
		}
		return opts.ConfigFilePath, nil
	}

	cfgDir := opts.ConfigDirPath
	if cfgDir == "" {
		dir, err := ConfigDir()
		if err != nil {
			return "", err
		}
		cfgDir = dir
	}
	name := ConfigFileName + "." + ConfigFileExt
	if p := filepath.Join(cfgDir, name); fileExists(p) {
		return p, nil
	}
	if !opts.SkipWorkingDir && fileExists(name) {
		return name, nil
	}
	return "", nil
}

func setDefaults(v *viper.Viper, defaults *Config) {
	v.SetDefault("separator", defaults.Separator)
	v.SetDefault("tokenizer", string(defaults.Tokenizer))
	v.SetDefault("comparison", string(defaults.Comparison))
	v.SetDefault("ignore_extra_args", defaults.IgnoreExtraArgs)
	v.SetDefault("multi_match", string(defaults.MultiMatch))
	v.SetDefault("treat_reference_types_as_nullable", defaults.TreatReferenceTypesAsNullable)
	v.SetDefault("module_lifetime", string(defaults.ModuleLifetime))
	v.SetDefault("run_mode", string(defaults.RunMode))
	v.SetDefault("log.level", string(defaults.Log.Level))
	v.SetDefault("ssh.host", defaults.SSH.Host)
	v.SetDefault("ssh.port", defaults.SSH.Port)
}

// applyEnv overlays MARICMD_* variables onto cfg. environ replaces the
// process environment when non-nil.
func applyEnv(cfg *Config, environ map[string]string) error {
	var overlay envOverlay
	opts := env.Options{Prefix: EnvPrefix}
	if environ != nil {
		opts.Environment = environ
	}
	if err := env.ParseWithOptions(&overlay, opts); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}

	setIf(&cfg.Separator, overlay.Separator)
	setIf(&cfg.Tokenizer, overlay.Tokenizer)
	setIf(&cfg.Comparison, overlay.Comparison)
	setIf(&cfg.IgnoreExtraArgs, overlay.IgnoreExtraArgs)
	setIf(&cfg.MultiMatch, overlay.MultiMatch)
	setIf(&cfg.TreatReferenceTypesAsNullable, overlay.TreatReferenceTypesAsNullable)
	setIf(&cfg.ModuleLifetime, overlay.ModuleLifetime)
	setIf(&cfg.RunMode, overlay.RunMode)
	setIf(&cfg.Log.Level, overlay.LogLevel)
	setIf(&cfg.SSH.Host, overlay.SSHHost)
	setIf(&cfg.SSH.Port, overlay.SSHPort)
	return nil
}

func setIf[T any](dst, src *T) {
	if src != nil {
		*dst = *src
	}
}

// fileExists checks if a file exists and is not a directory
func fileExists(path string) bool {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return false
	}
	return err == nil && !info.IsDir()
}

// Save writes cfg as CUE to the config directory.
func Save(cfg *Config) error {
	cfgDir, err := ConfigDir()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(cfgDir, 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	cfgPath := filepath.Join(cfgDir, ConfigFileName+"."+ConfigFileExt)
	if err := os.WriteFile(cfgPath, []byte(GenerateCUE(cfg)), 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// GenerateCUE generates a CUE representation of the configuration
func GenerateCUE(cfg *Config) string {
	var sb strings.Builder

	sb.WriteString("// maricmd configuration file\n\n")
	fmt.Fprintf(&sb, "separator: %q\n", cfg.Separator)
	fmt.Fprintf(&sb, "tokenizer: %q\n", cfg.Tokenizer)
	fmt.Fprintf(&sb, "comparison: %q\n", cfg.Comparison)
	fmt.Fprintf(&sb, "ignore_extra_args: %v\n", cfg.IgnoreExtraArgs)
	fmt.Fprintf(&sb, "multi_match: %q\n", cfg.MultiMatch)
	fmt.Fprintf(&sb, "treat_reference_types_as_nullable: %v\n", cfg.TreatReferenceTypesAsNullable)
	fmt.Fprintf(&sb, "module_lifetime: %q\n", cfg.ModuleLifetime)
	fmt.Fprintf(&sb, "run_mode: %q\n", cfg.RunMode)

	sb.WriteString("\nlog: {\n")
	fmt.Fprintf(&sb, "\tlevel: %q\n", cfg.Log.Level)
	sb.WriteString("}\n")

	sb.WriteString("\nssh: {\n")
	fmt.Fprintf(&sb, "\thost: %q\n", cfg.SSH.Host)
	fmt.Fprintf(&sb, "\tport: %d\n", cfg.SSH.Port)
	sb.WriteString("}\n")

	return sb.String()
}

// GenerateTOML renders the configuration as TOML.
func GenerateTOML(cfg *Config) (string, error) {
	var buf bytes.Buffer
	enc := toml.NewEncoder(&buf)
	enc.SetIndentTables(true)
	if err := enc.Encode(cfg); err != nil {
		return "", fmt.Errorf("encode toml: %w", err)
	}
	return buf.String(), nil
}
