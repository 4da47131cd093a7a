package app

import (
	"sync/atomic"
	"time"

	"github.com/dshills/plugswitch/internal/plugin"
	"github.com/dshills/plugswitch/internal/reconcile"
)

// Metrics counts scans and toggles over the life of an App.
type Metrics struct {
	scans        atomic.Uint64
	scanFailures atomic.Uint64
	lastScanNs   atomic.Int64
	discovered   atomic.Int64
	added        atomic.Uint64
	mismatches   atomic.Uint64

	toggles        atomic.Uint64
	toggleNoops    atomic.Uint64
	toggleFailures atomic.Uint64

	startTime time.Time
}

// NewMetrics creates a new metrics tracker.
func NewMetrics() *Metrics {
	return &Metrics{startTime: time.Now()}
}

// RecordScan records one scan pass.
func (m *Metrics) RecordScan(duration time.Duration, entries int, rep reconcile.Report, err error) {
	m.scans.Add(1)
	if err != nil {
		m.scanFailures.Add(1)
	}
	m.lastScanNs.Store(duration.Nanoseconds())
	m.discovered.Store(int64(entries))
	m.added.Add(uint64(len(rep.Added)))
	m.mismatches.Add(uint64(len(rep.Mismatches)))
}

// RecordToggle records the outcome of one enable or disable.
func (m *Metrics) RecordToggle(err error) {
	switch {
	case err == nil:
		m.toggles.Add(1)
	case plugin.IsNoop(err):
		m.toggleNoops.Add(1)
	default:
		m.toggleFailures.Add(1)
	}
}

// Snapshot returns the current counter values.
func (m *Metrics) Snapshot() MetricsSnapshot {
	return MetricsSnapshot{
		Scans:          m.scans.Load(),
		ScanFailures:   m.scanFailures.Load(),
		LastScan:       time.Duration(m.lastScanNs.Load()),
		Discovered:     int(m.discovered.Load()),
		Added:          m.added.Load(),
		Mismatches:     m.mismatches.Load(),
		Toggles:        m.toggles.Load(),
		ToggleNoops:    m.toggleNoops.Load(),
		ToggleFailures: m.toggleFailures.Load(),
		Uptime:         time.Since(m.startTime),
	}
}

// MetricsSnapshot is a point-in-time copy of Metrics.
type MetricsSnapshot struct {
	Scans          uint64
	ScanFailures   uint64
	LastScan       time.Duration
	Discovered     int // files found by the most recent scan
	Added          uint64
	Mismatches     uint64
	Toggles        uint64
	ToggleNoops    uint64
	ToggleFailures uint64
	Uptime         time.Duration
}
