package main

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"tic-ingestor/internal/serialport"
	"tic-ingestor/internal/tagconfig"
	"tic-ingestor/internal/tic"
)

// Config drží konfiguraci služby. Hodnoty přichází z ENV proměnných (12-Factor App),
// jediný poziční argument programu přepíše cestu k sériovému zařízení.
type Config struct {
	// MQTT
	MQTTBroker   string
	MQTTClientID string
	TopicPrefix  string // Výstupní topic = TopicPrefix + tag
	StatusTopic  string // Kam posíláme periodický status služby

	// Sériová linka TIC
	Serial      serialport.Config
	MaxFrameLen int

	// Filtr tagů: POSTGRES_URL má přednost před souborem.
	TagsFile    string
	PostgresURL string

	// Valkey cache posledních hodnot (prázdné = vypnuto)
	ValkeyAddr   string
	LastValueTTL time.Duration

	StatusInterval time.Duration // 0 = status se neposílá
	LogLevel       string
	HTTPPort       string
}

// LoadConfig načte nastavení. Chybějící nebo neplatná hodnota = default.
// args jsou argumenty programu bez jména (os.Args[1:]).
func LoadConfig(args []string) Config {
	serial := serialport.DefaultConfig()
	serial.Device = getEnv("SERIAL_DEVICE", serial.Device)
	serial.Baud = getEnvInt("SERIAL_BAUD", serial.Baud)
	serial.DataBits = getEnvInt("SERIAL_DATA_BITS", serial.DataBits)
	serial.Parity = getEnv("SERIAL_PARITY", serial.Parity)
	serial.StopBits = getEnv("SERIAL_STOP_BITS", serial.StopBits)
	if len(args) == 1 {
		serial.Device = args[0]
	}

	clientID := getEnv("MQTT_CLIENT_ID", "tic-ingestor")

	return Config{
		MQTTBroker:   getEnv("MQTT_BROKER", "tcp://localhost:1883"),
		MQTTClientID: clientID,
		TopicPrefix:  getEnv("TOPIC_PREFIX", tic.DefaultTopicPrefix),
		StatusTopic:  getEnv("STATUS_TOPIC", "tic_status/"+clientID),

		Serial:      serial,
		MaxFrameLen: getEnvInt("MAX_FRAME_LEN", tic.DefaultMaxFrameLen),

		TagsFile:    getEnv("TAGS_FILE", tagconfig.DefaultFile),
		PostgresURL: getEnv("POSTGRES_URL", ""),

		ValkeyAddr:   getEnv("VALKEY_ADDR", ""),
		LastValueTTL: getEnvDuration("LAST_VALUE_TTL", 24*time.Hour),

		StatusInterval: getEnvDuration("STATUS_INTERVAL", 60*time.Second),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		HTTPPort:       getEnv("HTTP_PORT", "8080"),
	}
}

// getEnv vrátí hodnotu ENV proměnné, nebo fallback, pokud není nastavena.
// Prázdný řetězec je platná hodnota (např. POSTGRES_URL="" = bez DB).
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

// getEnvInt čte celé číslo, nečíselná hodnota = fallback.
func getEnvInt(key string, fallback int) int {
	v, err := strconv.Atoi(strings.TrimSpace(getEnv(key, "")))
	if err != nil {
		return fallback
	}
	return v
}

// getEnvDuration čte dobu ve formátu time.ParseDuration ("30s", "24h").
// Záporná nebo neplatná hodnota = fallback.
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(strings.TrimSpace(getEnv(key, "")))
	if err != nil || d < 0 {
		return fallback
	}
	return d
}

// parseLevel převede LOG_LEVEL na slog.Level, neznámá hodnota = info.
func parseLevel(raw string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
