// Command ragate gates and ranks retrieval queries from the command line.
//
//	ragate check "what is retrieval augmented generation"
//	ragate retrieve --k 3 --json "how do I rotate keys"
//	ragate serve --addr :9090
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

var Version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}
