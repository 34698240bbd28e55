// SPDX-License-Identifier: MPL-2.0

package main

import cmd "github.com/addonkit/addonkit/cmd/addonkit"

func main() {
	cmd.Execute()
}
