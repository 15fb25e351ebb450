// Command dp2j turns dev plan markdown into tracker issues.
package main

import (
	"os"

	"github.com/hemmendinger/dp2j/internal/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
