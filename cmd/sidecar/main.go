// Command sidecar is the control-plane process: it serves the WebSocket
// protocol (§6.2) on one port and the ops HTTP surface (§ambient) on another,
// ticking the main loop against a daw.Capability the way main_loop.rs's
// MainLoop::tick is driven by REAPER's own UI thread. This process only ever
// drives an in-memory -mock capability; a real DAW-hosted capability is a
// cgo boundary this repo does not own (§1, "the DAW's own C API").
package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/joho/godotenv"

	"github.com/tonebridge/reaper-sidecar/internal/config"
	"github.com/tonebridge/reaper-sidecar/internal/daw"
	"github.com/tonebridge/reaper-sidecar/internal/logger"
	"github.com/tonebridge/reaper-sidecar/internal/metrics"
	"github.com/tonebridge/reaper-sidecar/internal/observability"
	"github.com/tonebridge/reaper-sidecar/internal/opshttp"
	"github.com/tonebridge/reaper-sidecar/internal/sidecar"
)

const (
	sentryFlushTimeout    = 2 * time.Second
	environmentProduction = "production"
	tickInterval          = 33 * time.Millisecond // ~30Hz, per §4.4
)

// releaseVersion is set via ldflags during build.
var releaseVersion = "dev"

func main() {
	mockFlag := flag.Bool("mock", false, "drive an in-memory MockCapability instead of a DAW-hosted one")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, using environment variables")
	}

	cfg := config.Load()

	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			Environment:      cfg.Environment,
			Release:          "tonebridge-sidecar@" + releaseVersion,
			EnableTracing:    true,
			TracesSampleRate: 1.0,
			EnableLogs:       true,
			Debug:            cfg.Environment != environmentProduction,
		}); err != nil {
			log.Printf("failed to initialize sentry: %v", err)
		} else {
			log.Printf("sentry initialized (environment: %s, release: %s)", cfg.Environment, releaseVersion)
			defer sentry.Flush(sentryFlushTimeout)
		}
	} else {
		log.Println("sentry not configured (SENTRY_DSN not set)")
	}

	observability.InitializeLangfuse(context.Background(), cfg)

	var cwMetrics *metrics.Client
	if cfg.CloudWatchEnabled() {
		client, err := metrics.NewClient(context.Background(), cfg.Environment, cfg.CloudWatchNamespace)
		if err != nil {
			log.Printf("failed to initialize cloudwatch metrics: %v", err)
		} else {
			cwMetrics = client
		}
	}
	var sentryMetrics *metrics.SentryMetrics
	if cfg.SentryDSN != "" {
		sentryMetrics = metrics.NewSentryMetrics()
	}

	if !*mockFlag {
		log.Fatal("no DAW-hosted capability is built into this binary; run with -mock")
	}
	capability := daw.NewMockCapability()
	log.Println("driving an in-memory MockCapability (-mock)")

	net := sidecar.NewNetwork()
	net.SetMetrics(cwMetrics, sentryMetrics)
	net.Run()
	defer net.Shutdown()

	mainLoop := sidecar.NewMainLoop(net, sidecar.DefaultTarget, sidecar.DefaultAnchors)
	mainLoop.SetMetrics(cwMetrics, sentryMetrics)

	go func() {
		ticker := time.NewTicker(tickInterval)
		defer ticker.Stop()
		for range ticker.C {
			mainLoop.Tick(capability)
		}
	}()

	opsAddr := cfg.WSHost + ":" + strconv.Itoa(cfg.HealthPort)
	go func() {
		log.Printf("ops http surface listening on %s", opsAddr)
		if err := http.ListenAndServe(opsAddr, opshttp.NewRouter(releaseVersion, mainLoop)); err != nil {
			logger.Error("ops http server exited", err, nil)
		}
	}()

	wsAddr := cfg.WSHost + ":" + strconv.Itoa(cfg.WSPort)
	log.Printf("starting tonebridge sidecar on %s (ws control), %s (ops)", wsAddr, opsAddr)
	if err := http.ListenAndServe(wsAddr, net); err != nil {
		sentry.CaptureException(err)
		log.Fatal("failed to start ws server: ", err)
	}
}
