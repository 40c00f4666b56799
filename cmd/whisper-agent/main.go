// Command whisper-agent prints live transcripts of the default microphone.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/viper"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(viper.New(), run).ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
