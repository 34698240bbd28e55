// SPDX-License-Identifier: MPL-2.0

// Package cmd contains all CLI commands for addonkit.
//
// This package implements the Cobra command hierarchy: the root command
// with its global flags, the addon operations (create, test, release) and
// the inspection commands (deps, order, config).
package cmd
