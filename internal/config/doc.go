// SPDX-License-Identifier: MPL-2.0

// Package config handles dispatch configuration using Viper with CUE as the file format.
//
// Values are layered: built-in defaults, then config.cue from the platform config
// directory (~/.config/maricmd on Linux) or the working directory, then MARICMD_*
// environment variables. The file is validated against an embedded CUE schema
// (config_schema.cue); the merged result is validated again in Go so environment
// overrides get the same checks.
package config
