// SPDX-License-Identifier: MPL-2.0

// Package component computes the order in which an addon's component classes
// are registered with the host, and drives that registration.
//
// Classes are collected into an explicit Registry. BuildGraph derives the
// dependencies between them from property references, inheritance and
// declared parents, and Schedule sorts the graph into a registration order.
// Unregistration always runs the exact reverse of that order. Lifecycle ties
// the pieces together against a Host.
package component
