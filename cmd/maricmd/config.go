// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/MariBotOfficial/MariCommands-sub001/internal/config"
)

// newConfigCommand creates the `maricmd config` command tree.
func newConfigCommand(app *App) *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage maricmd configuration",
		Long: `Manage maricmd configuration.

Configuration is stored in:
  - Linux: ~/.config/maricmd/config.cue
  - macOS: ~/Library/Application Support/maricmd/config.cue
  - Windows: %APPDATA%\maricmd\config.cue

A ./config.cue in the working directory is used when the user file is
missing. ` + config.EnvPrefix + `* environment variables override both.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	var format string
	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return silenceExitError(cmd, app.showConfig(cmd, format))
		},
	}
	showCmd.Flags().StringVarP(&format, "format", "f", "text", "output format (text, cue, toml)")

	var force bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Create the default configuration file",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return app.initConfig(force)
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")

	cfgCmd.AddCommand(
		showCmd,
		initCmd,
		&cobra.Command{
			Use:   "path",
			Short: "Show the configuration file path",
			Args:  cobra.NoArgs,
			RunE: func(_ *cobra.Command, _ []string) error {
				return app.showConfigPath()
			},
		},
	)
	return cfgCmd
}

func (a *App) showConfig(cmd *cobra.Command, format string) error {
	cfg, err := a.loadConfig(cmd.Context())
	if err != nil {
		a.reportFault(err)
		return &ExitError{Code: 2, Err: err}
	}

	switch format {
	case "cue":
		fmt.Fprint(a.stdout, config.GenerateCUE(cfg))
		return nil
	case "toml":
		out, err := config.GenerateTOML(cfg)
		if err != nil {
			return err
		}
		fmt.Fprint(a.stdout, out)
		return nil
	case "text":
	default:
		return fmt.Errorf("unknown format %q (valid: text, cue, toml)", format)
	}

	key := func(k string) string { return CmdStyle.Render(k) }
	val := func(v any) string { return SuccessStyle.Render(fmt.Sprint(v)) }

	fmt.Fprintln(a.stdout, TitleStyle.Render("Current Configuration"))
	fmt.Fprintln(a.stdout)
	path, _ := config.Path(config.LoadOptions{ConfigFilePath: a.configPath})
	if path == "" {
		fmt.Fprintf(a.stdout, "%s: %s\n", key("Config file"), SubtitleStyle.Render("(using defaults)"))
	} else {
		fmt.Fprintf(a.stdout, "%s: %s\n", key("Config file"), path)
	}
	fmt.Fprintln(a.stdout)

	fmt.Fprintf(a.stdout, "%s: %s\n", key("separator"), val(fmt.Sprintf("%q", cfg.Separator)))
	fmt.Fprintf(a.stdout, "%s: %s\n", key("tokenizer"), val(cfg.Tokenizer))
	fmt.Fprintf(a.stdout, "%s: %s\n", key("comparison"), val(cfg.Comparison))
	fmt.Fprintf(a.stdout, "%s: %s\n", key("ignore_extra_args"), val(cfg.IgnoreExtraArgs))
	fmt.Fprintf(a.stdout, "%s: %s\n", key("multi_match"), val(cfg.MultiMatch))
	fmt.Fprintf(a.stdout, "%s: %s\n", key("treat_reference_types_as_nullable"), val(cfg.TreatReferenceTypesAsNullable))
	fmt.Fprintf(a.stdout, "%s: %s\n", key("module_lifetime"), val(cfg.ModuleLifetime))
	fmt.Fprintf(a.stdout, "%s: %s\n", key("run_mode"), val(cfg.RunMode))

	fmt.Fprintln(a.stdout)
	fmt.Fprintf(a.stdout, "%s:\n", key("log"))
	fmt.Fprintf(a.stdout, "  level: %s\n", val(cfg.Log.Level))

	fmt.Fprintln(a.stdout)
	fmt.Fprintf(a.stdout, "%s:\n", key("ssh"))
	fmt.Fprintf(a.stdout, "  host: %s\n", val(cfg.SSH.Host))
	fmt.Fprintf(a.stdout, "  port: %s\n", val(cfg.SSH.Port))
	return nil
}

func (a *App) initConfig(force bool) error {
	cfgDir, err := config.ConfigDir()
	if err != nil {
		return err
	}
	path := filepath.Join(cfgDir, config.ConfigFileName+"."+config.ConfigFileExt)
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	}

	if err := config.Save(config.DefaultConfig()); err != nil {
		return fmt.Errorf("failed to create config: %w", err)
	}
	fmt.Fprintf(a.stdout, "%s Created default configuration at %s\n", SuccessStyle.Render("✓"), path)
	return nil
}

func (a *App) showConfigPath() error {
	cfgDir, err := config.ConfigDir()
	if err != nil {
		return err
	}
	fmt.Fprintf(a.stdout, "Config directory: %s\n", cfgDir)
	fmt.Fprintf(a.stdout, "Config file: %s\n", filepath.Join(cfgDir, config.ConfigFileName+"."+config.ConfigFileExt))

	active, err := config.Path(config.LoadOptions{ConfigFilePath: a.configPath})
	switch {
	case err != nil:
		fmt.Fprintf(a.stdout, "Active file: %s\n", ErrorStyle.Render(err.Error()))
	case active == "":
		fmt.Fprintf(a.stdout, "Active file: %s\n", SubtitleStyle.Render("(none, using defaults)"))
	default:
		fmt.Fprintf(a.stdout, "Active file: %s\n", active)
	}
	return nil
}
