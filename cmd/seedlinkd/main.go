// Command seedlinkd is a SeedLink v3/v4 streaming server.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/chronologos/seedlink/internal/slconfig"
	"github.com/chronologos/seedlink/internal/sllog"
	"github.com/chronologos/seedlink/internal/slserver"
	"github.com/chronologos/seedlink/internal/version"
)

func main() {
	cfg := slconfig.ServerConfigFromEnv()

	fs := flag.NewFlagSet("seedlinkd", flag.ExitOnError)
	addr := fs.String("addr", cfg.Addr, "address to listen on")
	software := fs.String("software", cfg.Software, "software name advertised in HELLO")
	organization := fs.String("organization", cfg.Organization, "organization advertised in HELLO")
	ringCapacity := fs.Int("ring-capacity", cfg.RingCapacity, "number of records retained in the ring buffer, shared by all stations")
	logLevel := fs.String("log-level", cfg.LogLevel, "log level (debug, info, warn, error)")
	showVersion := fs.Bool("version", false, "print version and exit")
	fs.Parse(os.Args[1:])

	if *showVersion {
		fmt.Printf("seedlinkd %s (%s)\n", version.VERSION, version.Commit)
		return
	}

	sllog.Configure(sllog.Config{Level: *logLevel, Service: "seedlinkd"})
	log := sllog.WithComponent("main")

	sup := slserver.New(slserver.Config{
		Addr:         *addr,
		Software:     *software,
		Version:      "3.1",
		Organization: *organization,
		RingCapacity: *ringCapacity,
	}, sllog.WithComponent("slserver"))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		<-sup.Ready
		log.Info().Str("addr", sup.Addr().String()).Msg("listening")
	}()

	if err := sup.Run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "seedlinkd exited: %v\n", err)
		os.Exit(1)
	}
}
