// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Command hose resolves the variables declared by a hose definition file
// and prints their values.
package main

import (
	"context"
	"os"
	"os/signal"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	err := newRootCmd(os.Environ()).ExecuteContext(ctx)
	if err != nil {
		cancel()
		os.Exit(1)
	}
}
