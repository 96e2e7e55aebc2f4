package main

import (
	"fmt"
	"os"

	docupdater "github.com/thrawn01/doc-updater"
)

func main() {
	if err := docupdater.RunCmd(os.Args, nil); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
