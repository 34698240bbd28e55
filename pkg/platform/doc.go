// SPDX-License-Identifier: MPL-2.0

// Package platform holds the operating-system specifics addonkit deals
// with: GOOS names, Windows reserved file names, and reaching the host
// system from inside a Flatpak or Snap sandbox.
package platform
