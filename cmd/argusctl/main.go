// Command argusctl runs migrations, seeds demo data and manages users.
package main

import (
	"fmt"
	"os"

	"github.com/crm-argus/argus-api/cmd/argusctl/commands"
)

func main() {
	if err := commands.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
