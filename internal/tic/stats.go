package tic

import "sync/atomic"

// Stats jsou čítače dekodéru. Zapisuje je jen smyčka Pipeline,
// číst je lze souběžně (HTTP, Prometheus, status report).
type Stats struct {
	Frames            atomic.Uint64
	MalformedFrames   atomic.Uint64
	Datasets          atomic.Uint64
	MalformedDatasets atomic.Uint64
	ChecksumErrors    atomic.Uint64
	FieldCountErrors  atomic.Uint64
	Filtered          atomic.Uint64
	Emitted           atomic.Uint64
}

// StatsSnapshot je kopie čítačů v jednom okamžiku.
type StatsSnapshot struct {
	Frames            uint64 `json:"frames"`
	MalformedFrames   uint64 `json:"malformed_frames"`
	Datasets          uint64 `json:"datasets"`
	MalformedDatasets uint64 `json:"malformed_datasets"`
	ChecksumErrors    uint64 `json:"checksum_errors"`
	FieldCountErrors  uint64 `json:"field_count_errors"`
	Filtered          uint64 `json:"filtered"`
	Emitted           uint64 `json:"emitted"`
}

// Snapshot přečte všechny čítače. Každý čítač je atomický,
// snímek jako celek ale konzistentní být nemusí.
func (s *Stats) Snapshot() StatsSnapshot {
	return StatsSnapshot{
		Frames:            s.Frames.Load(),
		MalformedFrames:   s.MalformedFrames.Load(),
		Datasets:          s.Datasets.Load(),
		MalformedDatasets: s.MalformedDatasets.Load(),
		ChecksumErrors:    s.ChecksumErrors.Load(),
		FieldCountErrors:  s.FieldCountErrors.Load(),
		Filtered:          s.Filtered.Load(),
		Emitted:           s.Emitted.Load(),
	}
}
