package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/five82/statdeck/internal/app"
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "", "config path (optional, defaults to ~/.config/statdeck/config.toml)")
	pollSeconds := flag.Int("poll", 0, "resync interval in seconds (optional, overrides poll_seconds)")
	dump := flag.String("dump", "", "sync one scope key (e.g. dashboard, recordings:vinn1), print its JSON and exit")
	logLevel := flag.String("log-level", "", "log level: trace, debug, info, warn, error (optional)")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	opts := app.Options{
		ConfigPath: *configPath,
		Dump:       *dump,
		LogLevel:   *logLevel,
	}
	if poll := *pollSeconds; poll > 0 {
		opts.PollEvery = poll
	}

	if err := app.Run(ctx, opts); err != nil {
		fmt.Fprintf(os.Stderr, "statdeck: %v\n", err)
		return 1
	}
	return 0
}
