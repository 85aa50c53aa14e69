// Package laststate drží v Valkey (Redis) poslední hodnotu každého TIC tagu.
//
// Nejde o historii: každý klíč se přepisuje a po TTL expiruje.
// Zápis běží ve vlastní goroutině, dekódovací smyčka jen plní frontu.
package laststate

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"

	"tic-ingestor/internal/tic"
)

// KeyPrefix je prefix klíčů v Valkey, např. "tic:last:EAST".
const KeyPrefix = "tic:last:"

const (
	DefaultTTL       = 24 * time.Hour
	DefaultQueueSize = 256
	writeTimeout     = 5 * time.Second
)

// LastValue je uložený stav jednoho tagu.
type LastValue struct {
	Tag        string    `json:"tag"`
	Data       string    `json:"data"`
	Timestamp  *string   `json:"timestamp,omitempty"`
	ReceivedAt time.Time `json:"received_at"`
}

type entry struct {
	topic   string
	payload []byte
	at      time.Time
}

// Store implementuje tic.Publisher nad Valkey.
type Store struct {
	rdb         redis.Cmdable
	ttl         time.Duration
	topicPrefix string
	logger      *slog.Logger
	queue       chan entry
	dropped     atomic.Uint64
	now         func() time.Time
}

// New vytvoří store. topicPrefix se odřízne z topicu, zbytek je tag.
func New(rdb redis.Cmdable, topicPrefix string, ttl time.Duration, logger *slog.Logger) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store{
		rdb:         rdb,
		ttl:         ttl,
		topicPrefix: topicPrefix,
		logger:      logger,
		queue:       make(chan entry, DefaultQueueSize),
		now:         time.Now,
	}
}

// Publish zařadí zprávu do fronty. Plná fronta zprávu zahodí, smyčku neblokuje.
func (s *Store) Publish(topic string, payload []byte) {
	select {
	case s.queue <- entry{topic: topic, payload: payload, at: s.now().UTC()}:
	default:
		if s.dropped.Add(1)%100 == 1 {
			s.logger.Warn("Fronta Valkey plná, zahazuji", "topic", topic, "dropped", s.dropped.Load())
		}
	}
}

// Dropped vrátí počet zpráv zahozených kvůli plné frontě.
func (s *Store) Dropped() uint64 {
	return s.dropped.Load()
}

// Run zapisuje zprávy z fronty, dokud není zrušen ctx.
func (s *Store) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case e := <-s.queue:
			if err := s.save(ctx, e); err != nil {
				s.logger.Error("Chyba update Valkey", "topic", e.topic, "error", err)
			}
		}
	}
}

// save zapíše poslední hodnotu tagu do klíče tic:last:<tag> s TTL.
func (s *Store) save(ctx context.Context, e entry) error {
	var p tic.Payload
	if err := json.Unmarshal(e.payload, &p); err != nil {
		return fmt.Errorf("decode payload: %w", err)
	}

	// Tag získáme zpět z topicu (prefix + tag).
	tag := strings.TrimPrefix(e.topic, s.topicPrefix)
	value, err := json.Marshal(LastValue{
		Tag:        tag,
		Data:       p.Data,
		Timestamp:  p.Timestamp,
		ReceivedAt: e.at,
	})
	if err != nil {
		return err
	}

	// Pomalý Valkey nesmí zdržet frontu déle než writeTimeout.
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return s.rdb.Set(ctx, KeyPrefix+tag, value, s.ttl).Err()
}

// Latest vrátí všechny neexpirované hodnoty seřazené podle tagu.
func (s *Store) Latest(ctx context.Context) ([]LastValue, error) {
	var keys []string
	var cursor uint64
	for {
		batch, next, err := s.rdb.Scan(ctx, cursor, KeyPrefix+"*", 100).Result()
		if err != nil {
			return nil, fmt.Errorf("scan %s*: %w", KeyPrefix, err)
		}
		keys = append(keys, batch...)
		if next == 0 {
			break
		}
		cursor = next
	}
	if len(keys) == 0 {
		return []LastValue{}, nil
	}

	raw, err := s.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("mget: %w", err)
	}

	values := make([]LastValue, 0, len(raw))
	for i, v := range raw {
		// Klíč mohl mezi SCAN a MGET expirovat.
		str, ok := v.(string)
		if !ok {
			continue
		}
		var lv LastValue
		if err := json.Unmarshal([]byte(str), &lv); err != nil {
			s.logger.Warn("Neplatná hodnota v Valkey", "key", keys[i], "error", err)
			continue
		}
		values = append(values, lv)
	}
	sort.Slice(values, func(i, j int) bool { return values[i].Tag < values[j].Tag })
	return values, nil
}
