// Package memguard vetoes new transfers when system memory is under pressure.
//
// Each admission check samples live system memory and compares used percent
// against a configured threshold. A veto is a terminal decision for the file
// being checked, not a pause: the caller records the file as failed and moves
// on. Sampling failures fail open so a broken metrics source never stalls a
// run that would otherwise succeed.
package memguard

import (
	"fmt"

	"github.com/shirou/gopsutil/v4/mem"

	"github.com/xinlongliu0307/cryo2ice-snow-thickness-antarctic-2020-2025/pkg/formatters"
)

// DefaultThresholdPercent is the used-memory percent above which transfers
// are vetoed.
const DefaultThresholdPercent = 90.0

// Usage is a point-in-time snapshot of system memory.
type Usage struct {
	UsedPercent float64
	Available   uint64
	Total       uint64
}

// Sampler provides system memory snapshots. Implementations must be safe for
// concurrent use.
type Sampler interface {
	Sample() (Usage, error)
}

// Decision is the outcome of one admission check.
type Decision struct {
	Admitted bool
	Usage    Usage
	// Err is the sampling error, if any. When set, Admitted is true
	// because sampling failures fail open.
	Err error
}

// Guard performs threshold-based admission checks against a Sampler.
type Guard struct {
	sampler   Sampler
	threshold float64
}

// New creates a Guard with the given sampler and threshold percent.
// A threshold of 0 or below falls back to DefaultThresholdPercent.
func New(sampler Sampler, thresholdPercent float64) *Guard {
	if thresholdPercent <= 0 {
		thresholdPercent = DefaultThresholdPercent
	}

	return &Guard{
		sampler:   sampler,
		threshold: thresholdPercent,
	}
}

// NewSystemGuard creates a Guard backed by live system memory readings.
func NewSystemGuard(thresholdPercent float64) *Guard {
	return New(NewSystemSampler(), thresholdPercent)
}

// Check samples memory and decides whether a new transfer may proceed.
func (g *Guard) Check() Decision {
	usage, err := g.sampler.Sample()
	if err != nil {
		return Decision{Admitted: true, Err: err}
	}

	return Decision{
		Admitted: usage.UsedPercent <= g.threshold,
		Usage:    usage,
	}
}

// Threshold returns the configured used-percent limit.
func (g *Guard) Threshold() float64 {
	return g.threshold
}

// Describe returns a one-line summary of current memory state for startup
// logging, e.g. "memory 34.2% used, 10.5 GB available (veto above 90%)".
func (g *Guard) Describe() string {
	usage, err := g.sampler.Sample()
	if err != nil {
		return fmt.Sprintf("memory state unavailable: %v (veto above %.0f%%)", err, g.threshold)
	}

	return fmt.Sprintf("memory %.1f%% used, %s available (veto above %.0f%%)",
		usage.UsedPercent,
		formatters.FormatBytes(int64(usage.Available)), //nolint:gosec // available bytes fit in int64
		g.threshold)
}

// NewSystemSampler creates a Sampler reading live system memory.
func NewSystemSampler() Sampler {
	return &systemSampler{}
}

// systemSampler reads system memory via the host statistics interface.
type systemSampler struct{}

// Sample returns a current system memory snapshot.
func (s *systemSampler) Sample() (Usage, error) {
	vm, err := mem.VirtualMemory()
	if err != nil {
		return Usage{}, fmt.Errorf("reading system memory: %w", err)
	}

	return Usage{
		UsedPercent: vm.UsedPercent,
		Available:   vm.Available,
		Total:       vm.Total,
	}, nil
}
