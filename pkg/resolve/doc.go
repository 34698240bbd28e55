// SPDX-License-Identifier: MPL-2.0

// Package resolve maps Python import references to files inside a project
// root and computes the transitive file closure of a set of entry files.
//
// Resolution never looks outside the project root. A reference that cannot be
// mapped to a file under the root is treated as external and ignored; it is
// never an error. A file that cannot be parsed aborts the closure.
package resolve
