// Command rulehub compiles and runs sensor/actuator rule scripts against a
// Device API.
package main

import (
	"fmt"
	"os"

	"github.com/hearthbox/rulehub/internal/cli"
)

func main() {
	root := cli.NewRootCommand()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cli.GetExitCode(err))
	}
}
