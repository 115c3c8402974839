// Command marrakech plays local sessions and watches ledger games.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

const usage = `usage:
  marrakech local [-players n] [-bots n] [-level greedy|random] [-seed n]
  marrakech watch [-config mirror.toml]`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var err error
	switch os.Args[1] {
	case "local":
		err = runLocal(ctx, os.Args[2:], os.Stdin, os.Stdout)
	case "watch":
		err = runWatch(ctx, os.Args[2:])
	default:
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}
	if err != nil && ctx.Err() == nil {
		fmt.Fprintln(os.Stderr, "marrakech:", err)
		os.Exit(1)
	}
}
