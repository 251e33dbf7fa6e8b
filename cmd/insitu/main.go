// Command insitu runs coupled sessions described in YAML on an in-process
// world.
package main

import (
	"os"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
