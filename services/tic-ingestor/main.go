package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"tic-ingestor/internal/laststate"
	"tic-ingestor/internal/serialport"
	"tic-ingestor/internal/tagconfig"
	"tic-ingestor/internal/tic"
)

// Version je verze služby, loguje se při startu a posílá ve statusu.
const Version = "1.0"

const serviceName = "tic-ingestor"

func main() {
	if err := run(); err != nil {
		slog.Error("Služba ukončena s chybou", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := LoadConfig(os.Args[1:])

	// MQTT klient musí existovat dřív než logger, protože logy jdou i do MQTT.
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientID).
		SetAutoReconnect(true)
	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return fmt.Errorf("MQTT connect %s: %w", cfg.MQTTBroker, token.Error())
	}
	defer client.Disconnect(250)

	// Logy jdou na stdout i do MQTT topicu logs/tic-ingestor.
	multi := io.MultiWriter(os.Stdout, NewMqttLogWriter(client, serviceName))
	logger := slog.New(slog.NewJSONHandler(multi, &slog.HandlerOptions{Level: parseLevel(cfg.LogLevel)}))
	slog.SetDefault(logger)

	logger.Info("Starting tic-ingestor", "version", Version, "broker", cfg.MQTTBroker)

	// Graceful shutdown: SIGINT/SIGTERM zruší ctx, pipeline zavře port a skončí.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	filter, err := loadFilter(ctx, cfg, openPool, logger)
	if err != nil {
		return err
	}

	// Čítače sdílí pipeline, Prometheus, HTTP API i status reporter.
	stats := &tic.Stats{}
	registry := prometheus.NewRegistry()
	if err := registerMetrics(registry, stats); err != nil {
		return fmt.Errorf("register metrics: %w", err)
	}

	mqttPub := NewMqttPublisher(client, logger)
	publishers := tic.MultiPublisher{mqttPub}

	// Volitelná cache posledních hodnot ve Valkey.
	var latest latestReader
	if cfg.ValkeyAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.ValkeyAddr})
		if err := rdb.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("Valkey %s není dostupný: %w", cfg.ValkeyAddr, err)
		}
		defer rdb.Close()

		store := laststate.New(rdb, cfg.TopicPrefix, cfg.LastValueTTL, logger)
		go store.Run(ctx)
		if err := registerDroppedMetric(registry, store.Dropped); err != nil {
			return fmt.Errorf("register metrics: %w", err)
		}
		publishers = append(publishers, store)
		latest = store
		logger.Info("Valkey připojen", "addr", cfg.ValkeyAddr, "ttl", cfg.LastValueTTL)
	}

	logger.Info("Opening serial device", "device", cfg.Serial.Device)
	port, err := serialport.Open(cfg.Serial)
	if err != nil {
		return err
	}
	defer port.Close()

	server := startHTTPServer(cfg.HTTPPort, NewAPIHandler(stats, latest, registry, logger), logger)
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		shutdownHTTPServer(shutdownCtx, server, logger)
	}()

	if cfg.StatusInterval > 0 {
		collector, err := NewStatusCollector(stats, logger)
		if err != nil {
			logger.Error("Status reporter vypnut", "error", err)
		} else {
			go runStatusReporter(ctx, cfg.StatusInterval, cfg.StatusTopic, collector.Collect, mqttPub, logger)
		}
	}

	// Hlavní smyčka běží v této goroutině, dokud není zrušen ctx nebo selže port.
	pipeline := tic.NewPipeline(port, publishers,
		tic.WithFilter(filter),
		tic.WithLogger(logger),
		tic.WithTopicPrefix(cfg.TopicPrefix),
		tic.WithMaxFrameLen(cfg.MaxFrameLen),
		tic.WithStats(stats),
	)

	logger.Info("Dekóduji TIC rámce", "device", cfg.Serial.Device, "topic_prefix", cfg.TopicPrefix)
	if err := pipeline.Run(ctx); err != nil {
		return fmt.Errorf("serial device %s: %w", cfg.Serial.Device, err)
	}

	logger.Info("Ukončuji službu...")
	return nil
}

// dbOpener otevře spojení na Postgres. Vrací Querier a funkci pro uzavření.
type dbOpener func(ctx context.Context, url string) (tagconfig.Querier, func(), error)

// openPool je produkční dbOpener nad pgxpool.
func openPool(ctx context.Context, url string) (tagconfig.Querier, func(), error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, nil, err
	}
	return pool, pool.Close, nil
}

// loadFilter načte povolené tagy z Postgresu (pokud je POSTGRES_URL), jinak ze souboru.
// nil = filtr není nastaven, publikuje se vše.
func loadFilter(ctx context.Context, cfg Config, openDB dbOpener, logger *slog.Logger) (*tic.TagFilter, error) {
	// DB má přednost, soubor se pak vůbec nečte.
	if cfg.PostgresURL != "" {
		db, closeDB, err := openDB(ctx, cfg.PostgresURL)
		if err != nil {
			return nil, fmt.Errorf("chyba konfigurace DB: %w", err)
		}
		defer closeDB()

		filter, err := tagconfig.LoadTable(ctx, db)
		if err != nil {
			return nil, fmt.Errorf("load tags from DB: %w", err)
		}
		logger.Info("Tags configuration loaded from DB", "tags", filter.Len())
		return filter, nil
	}

	filter, err := tagconfig.LoadFile(cfg.TagsFile)
	if err != nil {
		return nil, err
	}
	// Chybějící soubor (nebo null) = publikujeme všechny tagy.
	if filter == nil {
		logger.Info("No tags configuration found, publishing all tags", "file", cfg.TagsFile)
		return nil, nil
	}
	logger.Info("Tags configuration found", "file", cfg.TagsFile, "tags", filter.Len())
	return filter, nil
}

// startHTTPServer spustí health/metrics/API server na pozadí.
func startHTTPServer(port string, api *APIHandler, logger *slog.Logger) *http.Server {
	mux := http.NewServeMux()
	api.RegisterRoutes(mux)

	server := &http.Server{
		Addr:              ":" + port,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("HTTP server naslouchá", "address", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server spadl", "error", err)
		}
	}()
	return server
}

// shutdownHTTPServer počká na dokončení běžících požadavků, nejdéle do zrušení ctx.
func shutdownHTTPServer(ctx context.Context, server *http.Server, logger *slog.Logger) {
	if err := server.Shutdown(ctx); err != nil {
		logger.Warn("HTTP server se neukončil čistě", "error", err)
	}
}
