// Package main is the entry point of the a8xio command.
package main

import "github.com/sarchlab/a8xio/a8xio/cmd"

func main() {
	cmd.Execute()
}
