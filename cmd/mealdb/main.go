// Command mealdb manages the lifecycle of the embedded Meal Database.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/mealdb/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
