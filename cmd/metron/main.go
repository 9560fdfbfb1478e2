// cmd/metron/main.go
package main

import (
	cmd "github.com/mwiater/metron/internal/commands"
)

// main starts the metron CLI application by delegating to the
// cobra root command defined in the metron package. It does not
// take any arguments and does not return a value.
func main() {
	cmd.Execute()
}
