// Command hooks-demo serves a small document API whose database access runs through a dbhooks.Client.
//
// Hooks scope every query to the tenant of the inbound request and hide soft-deleted rows,
// listeners write an audit log and optionally forward after events to Kafka or Redis.
//
//	go run ./example/demo/cmd/hooks-demo -addr :8080 -kafka-brokers localhost:9092
//	curl -H 'X-Tenant-ID: acme' localhost:8080/documents
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/AntonStoeckl/dynamic-query-hooks-go/dbhooks"
	"github.com/AntonStoeckl/dynamic-query-hooks-go/dbhooks/eventsinks"
	"github.com/AntonStoeckl/dynamic-query-hooks-go/dbhooks/postgresengine"
	"github.com/AntonStoeckl/dynamic-query-hooks-go/testutil/postgresengine/config"
)

const (
	defaultAddr       = ":8080"
	defaultKafkaTopic = "db-events"
	shutdownTimeout   = 10 * time.Second
)

type Config struct {
	Addr         string
	DSN          string
	KafkaBrokers []string
	KafkaTopic   string
	RedisURL     string
	Debug        bool
}

func main() {
	cfg := parseFlags()
	logger := newLogger(cfg.Debug)

	if err := run(cfg, logger); err != nil {
		logger.Error("hooks demo failed", "error", err.Error())
		os.Exit(1)
	}
}

func run(cfg Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := config.NewPGXPool(ctx, cfg.DSN)
	if err != nil {
		return err
	}
	defer pool.Close()

	engine, err := postgresengine.NewEngineFromPGXPool(
		pool,
		postgresengine.WithTableName(modelDocument, "documents"),
		postgresengine.WithLogger(logger),
	)
	if err != nil {
		return err
	}

	client, err := dbhooks.NewClient(
		dbhooks.WithExecutor(engine),
		dbhooks.WithLogger(logger),
	)
	if err != nil {
		return err
	}

	registerHooks(client, logger)

	closeSinks, err := registerSinks(client, cfg, logger)
	if err != nil {
		return err
	}
	defer closeSinks()

	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           newRouter(client),
		ReadHeaderTimeout: 5 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("hooks demo listening", "addr", cfg.Addr)
		serveErr <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Info("received shutdown signal, disconnecting")
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	return server.Shutdown(shutdownCtx)
}

// registerSinks subscribes the configured broker sinks to all after events.
func registerSinks(client *dbhooks.Client, cfg Config, logger *slog.Logger) (func(), error) {
	var closers []func() error

	if len(cfg.KafkaBrokers) > 0 {
		writer, err := eventsinks.NewKafkaWriter(cfg.KafkaBrokers)
		if err != nil {
			return nil, err
		}

		sink, err := eventsinks.NewKafkaSink(writer, cfg.KafkaTopic)
		if err != nil {
			return nil, err
		}

		client.OnAfterHookForAll(dbhooks.AllOperations, sink.Listener(dbhooks.After))
		closers = append(closers, writer.Close)
		logger.Info("forwarding after events to kafka", "topic", cfg.KafkaTopic)
	}

	if cfg.RedisURL != "" {
		redisClient, err := eventsinks.NewRedisClient(cfg.RedisURL)
		if err != nil {
			return nil, err
		}

		sink, err := eventsinks.NewRedisSink(redisClient, eventsinks.WithChannelPrefix("hooks-demo:"))
		if err != nil {
			return nil, err
		}

		client.OnAfterHookForAll(dbhooks.AllOperations, sink.Listener(dbhooks.After))
		closers = append(closers, redisClient.Close)
		logger.Info("publishing after events to redis")
	}

	return func() {
		for _, closeSink := range closers {
			if err := closeSink(); err != nil {
				logger.Warn("failed to close event sink", "error", err.Error())
			}
		}
	}, nil
}

func parseFlags() Config {
	var (
		addr         = flag.String("addr", defaultAddr, "HTTP listen address")
		dsn          = flag.String("dsn", config.PostgresDSN(), "PostgreSQL DSN (defaults to DATABASE_URL)")
		kafkaBrokers = flag.String("kafka-brokers", "", "Comma-separated Kafka brokers, empty disables the Kafka sink")
		kafkaTopic   = flag.String("kafka-topic", defaultKafkaTopic, "Kafka topic for after events")
		redisURL     = flag.String("redis-url", "", "Redis URL or host:port, empty disables the Redis sink")
		debug        = flag.Bool("debug", false, "Log SQL statements and execution timing")
	)

	flag.Parse()

	return Config{
		Addr:         *addr,
		DSN:          *dsn,
		KafkaBrokers: splitList(*kafkaBrokers),
		KafkaTopic:   *kafkaTopic,
		RedisURL:     *redisURL,
		Debug:        *debug,
	}
}

func splitList(s string) []string {
	var items []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}

	return items
}

func newLogger(debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}

	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
}
