// Command linesort generates large files of "<number>.<phrase>" lines and
// sorts them with an external merge sort.
//
//	linesort generate --size 10GB --output input.txt
//	linesort sort --input input.txt --output sorted.txt --temp-dir chunks
//	linesort run --config linesort.yml
//	linesort verify sorted.txt
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"linesort/internal/logging"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	logging.Sync()
	if err != nil {
		os.Exit(1)
	}
}
