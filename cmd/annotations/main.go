// Command annotations inspects and manages persisted chart annotations
// outside the GUI.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
