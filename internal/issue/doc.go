// SPDX-License-Identifier: MPL-2.0

// Package issue provides actionable errors for the CLI boundary.
//
// An ActionableError names the operation that failed, the resource it
// touched and what the user can do about it. Well-known failures also have
// an Issue: Markdown guidance rendered with glamour in verbose mode.
package issue
