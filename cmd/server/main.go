package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/Netflix/go-env"
	"github.com/joho/godotenv"

	"corpchat/auth"
	"corpchat/internal"
	"corpchat/observability"
	"corpchat/repositories"
	"corpchat/runtime"
	"corpchat/runtime/workers"
	"corpchat/services"
	"corpchat/sink"
	"corpchat/transport/tcp"
)

// Exit codes to provide meaningful status to the operating system or
// service manager (e.g., systemd).
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

func main() {
	// The main function acts as a thin wrapper.
	// Its only responsibility is to call run() and handle the OS exit code.
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Server terminated with error: %v\n", err)
	}
	os.Exit(code)
}

// run initializes all components, manages the server lifecycle, and
// centralizes error reporting. This keeps every defer on the exit path and
// decouples initialization from the process entry point.
func run() (int, error) {
	// 1. Configuration & logger. A local .env is a convenience for
	// development; its absence is not an error.
	_ = godotenv.Load()

	var config internal.Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}

	logger := internal.NewLogger(config.LogLevel)

	hasher, err := auth.HasherFromScheme(config.HashScheme)
	if err != nil {
		return exitConfig, err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Durable credential store: loaded fully into memory, appended on
	// each registration.
	credentials := repositories.NewCredentialStore(logger, config.CredentialsFilepath)
	if err := credentials.Load(); err != nil {
		return exitRuntime, err
	}

	// 3. Engine wiring: one history log, one registry, one hub as the
	// single ordering point for appends and fan-out.
	stats := observability.NewServerStats()
	history := runtime.NewHistoryLog()
	registry := runtime.NewRegistry()
	hub := runtime.NewHub(logger, history, registry, stats)

	timeline := sink.NewTimeline(config.TimelineLimit)
	console := sink.NewConsole(os.Stdout, config.ColorConsole)
	hub.AddSink(timeline, console)

	tokens := auth.NewTokenIssuer(config.AuthTokenSecret, config.AuthTokenDuration)
	authService := services.NewAuthService(credentials, hasher, tokens)

	// 4. Supervised workers: the TCP binding, the operator console and
	// the telemetry reporter.
	server := tcp.NewServer(logger, net.JoinHostPort(config.Host, strconv.Itoa(config.Port)),
		hub, authService, stats, config.ConnectionBufferSize, config.MaxContentLength)
	adminConsole := workers.NewAdminConsole(logger, hub, timeline, os.Stdin, os.Stdout)
	telemetry := workers.NewTelemetryWorker(logger, stats, config.MetricInterval)

	supervisor := workers.NewSupervisor(logger, config.RestartInterval)
	supervisor.Add(server, adminConsole, telemetry)

	logger.Info("Starting corpchat server",
		"addr", fmt.Sprintf("%s:%d", config.Host, config.Port),
		"hash_scheme", config.HashScheme,
		"users", credentials.Count())

	// Blocks until the signal context cancels and all workers drain.
	supervisor.Run(ctx)

	logger.Info("Server shut down cleanly")
	return exitOK, nil
}
