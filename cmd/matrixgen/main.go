// Command matrixgen converts Budget Estimate workbooks into an Expenditure
// Matrix from the command line, and can also run the HTTP service.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
