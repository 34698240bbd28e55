// SPDX-License-Identifier: MPL-2.0

// Package config loads addonkit settings using Viper with CUE as the file
// format.
//
// A project-level addonkit.cue at the workspace root wins over the user
// config file (~/.config/addonkit/config.cue or the platform equivalent).
// Without either file the defaults apply. Every file is validated against
// the embedded schema in config_schema.cue before it is merged.
package config
