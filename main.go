// SPDX-License-Identifier: MPL-2.0

package main

import cmd "github.com/customs-bench/customs/cmd/customs"

func main() {
	cmd.Execute()
}
