// SPDX-License-Identifier: MPL-2.0

// Package pysrc parses Python addon sources into the small data model the
// packager needs: import statements (with exact byte spans so they can be
// rewritten in place) and top-level class declarations.
//
// Parsing is done with tree-sitter's Python grammar. A file whose syntax tree
// contains error or missing nodes is rejected with a *ParseError naming the
// file, which aborts any dependency closure that reaches it.
package pysrc
