// Command storectl is a terminal shopper for the storefront API.
//
//	storectl [--server URL] [--state-dir DIR] <command> [flags] [args]
//
// The token and the cart are kept in the state directory between runs.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "storectl:", err)
		os.Exit(1)
	}
}
