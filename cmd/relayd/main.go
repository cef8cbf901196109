package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/Netflix/go-env"
	"github.com/blugelabs/bluge"
	"github.com/dgraph-io/badger/v4"
	"github.com/mama165/sdk-go/database"
	"github.com/mama165/sdk-go/logs"
	"github.com/redis/go-redis/v9"

	"floorlink/auth"
	"floorlink/domain/event"
	"floorlink/internal"
	"floorlink/moderation"
	"floorlink/pairing"
	"floorlink/runtime"
	"floorlink/runtime/workers"
	"floorlink/session"
	"floorlink/sink"
	"floorlink/store"
	"floorlink/transport"
)

// Exit codes to provide meaningful status to the operating system or service manager (e.g., systemd).
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
		fmt.Fprintf(os.Stderr, "relayd terminated with error: %v\n", err)
	}
	os.Exit(code)
}

// run initializes all components, manages the service lifecycle, and
// centralizes error reporting so every defer (database cleanup, index
// flush) executes before the process exits.
func run() (int, error) {
	// 1. Configuration & Logger
	var config internal.Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}

	charReplacement, err := internal.CharacterRune(config.CharReplacement)
	if err != nil {
		return exitConfig, err
	}

	logger := logs.GetLoggerFromString(config.LogLevel)
	ctx := context.Background()

	// 2. Storage (BadgerDB + Bluge index)
	db, err := badger.Open(buildBadgerOpts(config, logger, ctx))
	if err != nil {
		return exitRuntime, fmt.Errorf("database opening failed: %w", err)
	}
	defer func() {
		logger.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	if logger.Enabled(ctx, slog.LevelDebug) && config.DebugPort > 0 {
		endpoint := "/inspect"
		logger.Info("Debug Badger inspector available",
			"url", fmt.Sprintf("http://localhost:%d%s", config.DebugPort, endpoint))
		database.StartDebugServer(db, config.DebugPort, endpoint, relayMapper)
	}

	blugeWriter, err := bluge.OpenWriter(bluge.DefaultConfig(config.BlugeFilepath))
	if err != nil {
		return exitRuntime, fmt.Errorf("failed to open bluge writer: %w", err)
	}
	defer func() {
		logger.Info("Closing Bluge...")
		_ = blugeWriter.Close()
	}()

	// 3. Transport (Redis pub/sub)
	redisClient := redis.NewClient(&redis.Options{Addr: config.RedisAddr})
	defer func() {
		_ = redisClient.Close()
	}()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		return exitRuntime, fmt.Errorf("redis unreachable at %s: %w", config.RedisAddr, err)
	}
	redisTransport := transport.NewRedisTransport(logger, redisClient, config.ChannelPrefix)

	// 4. Core wiring
	words, err := moderation.LoadCensoredWords()
	if err != nil {
		return exitRuntime, fmt.Errorf("censored words: %w", err)
	}
	moderator, err := moderation.NewModerator(words, charReplacement)
	if err != nil {
		return exitRuntime, fmt.Errorf("moderator build failed: %w", err)
	}

	records := store.NewWorkItemRepository(db, blugeWriter, logger)
	directory := store.NewParticipantDirectory(db)
	events := make(chan event.DomainEvent, config.BufferSize)

	registry := session.NewRegistry()
	relay := session.NewRelay(logger, registry, redisTransport, directory, moderator, events)
	resolver := pairing.NewResolver(records, directory)
	engine := pairing.NewEngine(logger, resolver, registry, redisTransport, events)

	tokens := auth.NewTokenIssuer(config.TokenSecret, config.AuthTokenDuration)
	gate := auth.NewCapabilityGate(logger, directory)
	dispatcher := runtime.NewDispatcher(logger, engine, relay, tokens, gate, redisTransport)

	// 5. Context & Signals
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 6. Supervised workers
	stats := sink.NewStatsSink()
	gauges := func() map[string]any {
		totals := stats.Totals()
		totals["active_sessions"] = len(registry.Snapshot()) / 2
		return totals
	}

	supervisor := workers.NewSupervisor(logger, config.RestartInterval)
	supervisor.Add(
		workers.NewInboundWorker(logger, redisTransport.Inbound(ctx), dispatcher),
		workers.NewEventFanout(logger, events, sink.NewLogSink(logger), stats),
		workers.NewHeartbeatWorker(logger, config.HeartbeatInterval, gauges),
	)

	logger.Info("Starting relay service", "redis", config.RedisAddr)
	supervisor.Run(ctx)

	logger.Info("Program stopped cleanly")
	return exitOK, nil
}

func buildBadgerOpts(config internal.Config, logger *slog.Logger, ctx context.Context) badger.Options {
	options := badger.DefaultOptions(config.BadgerFilepath)
	if logger.Enabled(ctx, slog.LevelDebug) {
		return options.WithLoggingLevel(badger.DEBUG).WithBypassLockGuard(true)
	}
	return options.WithLoggingLevel(badger.INFO)
}

// relayMapper renders store entries in the badger inspector.
func relayMapper(key string, val []byte) database.InspectRow {
	row := database.DefaultMapper(key, val)
	switch {
	case len(key) > 5 && key[:5] == "item:":
		row.Type = "WORK_ITEM"
	case len(key) > 12 && key[:12] == "participant:":
		row.Type = "PARTICIPANT"
	}
	row.Detail = string(val)
	return row
}
