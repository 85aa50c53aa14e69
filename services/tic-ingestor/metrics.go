package main

import (
	"github.com/prometheus/client_golang/prometheus"

	"tic-ingestor/internal/tic"
)

// registerMetrics vystaví čítače dekodéru jako tic_*_total.
func registerMetrics(reg prometheus.Registerer, stats *tic.Stats) error {
	counters := []struct {
		name  string
		help  string
		value func() uint64
	}{
		{"frames_total", "Frames read from the serial line.", stats.Frames.Load},
		{"malformed_frames_total", "Frames discarded (missing STX/ETX or too long).", stats.MalformedFrames.Load},
		{"datasets_total", "Datasets passed to the decoder.", stats.Datasets.Load},
		{"malformed_datasets_total", "Dataset candidates dropped before decoding.", stats.MalformedDatasets.Load},
		{"checksum_errors_total", "Datasets with a bad checksum.", stats.ChecksumErrors.Load},
		{"field_count_errors_total", "Datasets with neither 3 nor 4 fields.", stats.FieldCountErrors.Load},
		{"filtered_total", "Records dropped by the tag filter.", stats.Filtered.Load},
		{"emitted_total", "Messages handed to the publisher.", stats.Emitted.Load},
	}

	// CounterFunc čte atomické čítače až při scrapu, pipeline o Prometheu neví.
	for _, c := range counters {
		value := c.value
		collector := prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: "tic",
			Name:      c.name,
			Help:      c.help,
		}, func() float64 { return float64(value()) })
		if err := reg.Register(collector); err != nil {
			return err
		}
	}
	return nil
}

// registerDroppedMetric vystaví počet zpráv zahozených frontou Valkey.
func registerDroppedMetric(reg prometheus.Registerer, dropped func() uint64) error {
	return reg.Register(prometheus.NewCounterFunc(prometheus.CounterOpts{
		Namespace: "tic",
		Name:      "last_value_dropped_total",
		Help:      "Messages dropped because the Valkey queue was full.",
	}, func() float64 { return float64(dropped()) }))
}
