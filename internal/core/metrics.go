package core

import "time"

// SnapshotStats summarizes a published snapshot for metrics.
type SnapshotStats struct {
	Events        int
	Filtered      int
	Mappable      int
	IndexedSheets int
	Diagnostics   int
}

// MetricsRecorder receives observations from the graph and service.
// Implementations must be safe for concurrent use.
type MetricsRecorder interface {
	ObserveRecompute(stats SnapshotStats, d time.Duration)
	ObserveSuperseded()
	ObserveSheetLoad(sheet SheetName, rows int, d time.Duration, err error)
}

// NoopMetrics discards every observation.
type NoopMetrics struct{}

func (NoopMetrics) ObserveRecompute(SnapshotStats, time.Duration) {}
func (NoopMetrics) ObserveSuperseded() {}
func (NoopMetrics) ObserveSheetLoad(SheetName, int, time.Duration, error) {}
