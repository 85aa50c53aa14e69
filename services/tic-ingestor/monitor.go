package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"time"

	"github.com/shirou/gopsutil/v3/process"

	"tic-ingestor/internal/tic"
)

// StatusReport je snímek stavu služby posílaný do MQTT.
type StatusReport struct {
	Version       string            `json:"version"`
	UptimeSeconds float64           `json:"uptime_seconds"`
	CPUPercent    float64           `json:"cpu_percent"`
	RssMB         float64           `json:"rss_mb"`
	Decoder       tic.StatsSnapshot `json:"decoder"`
}

// StatusCollector sbírá status vlastního procesu.
type StatusCollector struct {
	proc    *process.Process
	stats   *tic.Stats
	started time.Time
	logger  *slog.Logger
}

// NewStatusCollector otevře vlastní proces přes gopsutil a připraví první měření CPU.
func NewStatusCollector(stats *tic.Stats, logger *slog.Logger) (*StatusCollector, error) {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return nil, err
	}

	// Percent(0) při prvním volání jen uloží výchozí CPU časy a vrátí 0.
	// Každé další volání pak měří vytížení od předchozího volání, ne od startu procesu.
	if _, err := proc.Percent(0); err != nil {
		return nil, err
	}
	return &StatusCollector{proc: proc, stats: stats, started: time.Now(), logger: logger}, nil
}

// Collect vrátí aktuální status. Chyby čtení CPU/RAM se jen zalogují.
// CPU je vytížení od předchozího Collect, proto ho volá jen jedna goroutina.
func (c *StatusCollector) Collect() StatusReport {
	report := StatusReport{
		Version:       Version,
		UptimeSeconds: time.Since(c.started).Seconds(),
		Decoder:       c.stats.Snapshot(),
	}

	// Vytížení CPU za poslední interval (100 % = jedno jádro).
	if cpu, err := c.proc.Percent(0); err == nil {
		report.CPUPercent = cpu
	} else {
		c.logger.Error("Chyba při čtení CPU statistik", "error", err)
	}

	// RSS = skutečně obsazená fyzická paměť procesu.
	if mem, err := c.proc.MemoryInfo(); err == nil {
		report.RssMB = float64(mem.RSS) / 1024.0 / 1024.0
	} else {
		c.logger.Error("Chyba při čtení RAM statistik", "error", err)
	}

	return report
}

// runStatusReporter posílá status hned po startu a pak každý interval, dokud není zrušen ctx.
func runStatusReporter(ctx context.Context, interval time.Duration, topic string, collect func() StatusReport, pub tic.Publisher, logger *slog.Logger) {
	publish := func() {
		payload, err := json.Marshal(collect())
		if err != nil {
			logger.Error("Serializace statusu selhala", "error", err)
			return
		}
		pub.Publish(topic, payload)
		logger.Debug("Status odeslán", "topic", topic)
	}

	publish()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			publish()
		}
	}
}
