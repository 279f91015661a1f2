/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Command entitykv inspects schemas and stores.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
