// SPDX-License-Identifier: MPL-2.0

// Command pyenvs discovers Python interpreters and environments.
package main

import cmd "github.com/invowk/pyenvs/cmd/pyenvs"

func main() {
	cmd.Execute()
}
