// Command interactionsctl resolves interactions from the command line, loads the
// reference files into PostgreSQL and prints data quality reports.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
