// Package main provides the CLI entrypoint for the cascade engine.
//
// cascade moves scan-to-BIM projects through their production stages:
//   - validates prefill tables against the stage catalog
//   - previews the fields the next transition will prefill
//   - advances projects, merging prefill data without overwriting operator edits
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
