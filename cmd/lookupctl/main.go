// Command lookupctl is the operator CLI for the lookup cache.
//
// Usage:
//
//	lookupctl lookup PHONE 0912345678
//	lookupctl explain PHONE 0912345678 --actor <uuid>
//	lookupctl invalidate BANK 00112233 --actor <uuid>
//	lookupctl audit PHONE 0912345678 -n 20
//	lookupctl stats
//	lookupctl migrate
//	lookupctl token --user <uuid> --role admin
//
// Configuration is read exactly as the server reads it.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(os.Stdout, openCore).ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "lookupctl: %v\n", err)
		os.Exit(1)
	}
}
