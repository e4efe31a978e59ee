// Package main implements the caltz HTTP server.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/codeGROOVE-dev/calTZ/pkg/caltz"
	"github.com/codeGROOVE-dev/calTZ/pkg/profile"
	"github.com/codeGROOVE-dev/calTZ/pkg/server"
	"github.com/codeGROOVE-dev/calTZ/pkg/tzconvert"
)

var (
	port         = flag.String("port", "8080", "Port for web server (or set PORT)")
	profilesDir  = flag.String("profiles", "", "Directory of calendar_<id>.yaml profiles (or set CALTZ_PROFILES)")
	rateLimit    = flag.Float64("rate-limit", 20, "Requests per second allowed per client IP (0 disables)")
	rateBurst    = flag.Int("rate-burst", 40, "Burst size for the per-IP rate limit")
	batchWorkers = flag.Int("batch-workers", 8, "Concurrent conversions per batch request")
	verbose      = flag.Bool("verbose", false, "Enable verbose logging")
	version      = flag.Bool("version", false, "Show version")
)

func main() {
	flag.Parse()

	if *version {
		fmt.Println("calTZ Server v1.0.0")
		return
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	if p := os.Getenv("PORT"); p != "" && !isFlagSet("port") {
		*port = p
	}
	if *profilesDir == "" {
		*profilesDir = os.Getenv("CALTZ_PROFILES")
	}
	if _, err := strconv.Atoi(*port); err != nil {
		logger.Error("Invalid port", "port", *port)
		os.Exit(1)
	}

	var reg *profile.Registry
	var err error
	if *profilesDir != "" {
		reg, err = profile.LoadDir(*profilesDir)
	} else {
		reg, err = profile.Default()
	}
	if err != nil {
		logger.Error("Failed to load calendar profiles", "dir", *profilesDir, "error", err)
		os.Exit(1)
	}

	resolver := tzconvert.NewResolver()
	logger.Info("Server configuration",
		"port", *port,
		"verbose", *verbose,
		"profiles_dir", *profilesDir,
		"calendars", reg.IDs(),
		"zones", len(resolver.AvailableZones()),
		"rate_limit", *rateLimit,
		"rate_burst", *rateBurst)

	conv := caltz.New(reg, caltz.WithResolver(resolver))
	api := server.NewWithLogger(conv, logger,
		server.WithRateLimit(*rateLimit, *rateBurst),
		server.WithBatchConcurrency(*batchWorkers))

	srv := &http.Server{
		Addr:              ":" + *port,
		Handler:           api.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		logger.Info("Server starting", "port", *port)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Shutdown failed", "error", err)
	}
	logger.Info("Server stopped", "cached_zones", resolver.Cached())
}

func isFlagSet(name string) bool {
	set := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == name {
			set = true
		}
	})
	return set
}
