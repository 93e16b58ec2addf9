// Package main starts the provincial indicator dashboard service.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	dashboardcmd "github.com/devatlas/devatlas/internal/cmd/dashboard"
	"github.com/devatlas/devatlas/internal/platform/config"
)

func main() {
	cfg, err := dashboardcmd.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		config.Exitf("parse flags: %v", err)
	}
	log.SetPrefix("[DASHBOARD] ")
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := dashboardcmd.Run(ctx, cfg); err != nil {
		config.Exitf("failed to serve: %v", err)
	}
}
