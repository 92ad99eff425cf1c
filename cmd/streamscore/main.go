// Command streamscore is the entry point for the stream condition assessment CLI.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/huangsam/streamscore/cmd"
	"github.com/huangsam/streamscore/internal/contract"
	"github.com/huangsam/streamscore/internal/iocache"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	cmd.SetStoreManager(iocache.Manager)
	err := cmd.ExecuteContext(ctx)

	stop()
	iocache.CloseStores()
	if perr := cmd.StopProfiling(); perr != nil {
		contract.LogWarn("Failed to stop profiling", perr)
	}
	if err != nil {
		contract.LogFatal("Command failed", err)
	}
}
