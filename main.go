// SPDX-License-Identifier: MPL-2.0

// maricmd is a text command dispatcher.
package main

import "github.com/MariBotOfficial/MariCommands-sub001/cmd/maricmd"

func main() {
	cmd.Execute()
}
