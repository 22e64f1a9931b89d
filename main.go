package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/swimform/swimform-go/cmd"
	"github.com/swimform/swimform-go/internal/buildinfo"
	"github.com/swimform/swimform-go/internal/config"
)

// Set at build time with -ldflags "-X main.version=... -X main.buildDate=...".
var (
	version   = "dev"
	buildDate = buildinfo.UnknownValue
)

func main() {
	os.Exit(run())
}

func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := config.NewContext(buildinfo.NewContext(version, buildDate))
	defer app.Close()

	rootCmd := cmd.RootCommand(app)
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}
	return 0
}
