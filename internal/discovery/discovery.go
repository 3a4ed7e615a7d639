// Package discovery enumerates the date-partitioned corpus on the server and
// builds the download plan.
//
// The corpus lays out granules under base/YYYY/MM. Discovery walks every
// month in the requested range, lists each folder, and keeps the entries the
// file filter accepts. Months without a folder are reported and skipped:
// gaps in the archive are normal, not errors.
package discovery

import (
	"context"
	"fmt"

	"github.com/xinlongliu0307/cryo2ice-snow-thickness-antarctic-2020-2025/internal/fetchengine"
	"github.com/xinlongliu0307/cryo2ice-snow-thickness-antarctic-2020-2025/pkg/remote"
)

// Month is one year/month partition of the corpus.
type Month struct {
	Year int
	Mon  int
}

// String returns the partition in its on-server form, e.g. "2020/08".
func (m Month) String() string {
	return fmt.Sprintf("%04d/%02d", m.Year, m.Mon)
}

// Before reports whether m precedes other.
func (m Month) Before(other Month) bool {
	if m.Year != other.Year {
		return m.Year < other.Year
	}

	return m.Mon < other.Mon
}

// next returns the following month.
func (m Month) next() Month {
	if m.Mon == 12 {
		return Month{Year: m.Year + 1, Mon: 1}
	}

	return Month{Year: m.Year, Mon: m.Mon + 1}
}

// MonthsBetween returns every month from start through end inclusive.
// Returns nil when end precedes start.
func MonthsBetween(start, end Month) []Month {
	if end.Before(start) {
		return nil
	}

	var months []Month

	for m := start; !end.Before(m); m = m.next() {
		months = append(months, m)
	}

	return months
}

// Planner builds a download plan by listing month folders over a session.
type Planner struct {
	session remote.Session
	base    string
	filter  fetchengine.FileFilter
	emitter fetchengine.EventEmitter
}

// NewPlanner creates a planner listing under base with the given filter.
// A nil filter accepts every file.
func NewPlanner(session remote.Session, base string, filter fetchengine.FileFilter) *Planner {
	if filter == nil {
		filter = fetchengine.NewGlobFilter("")
	}

	return &Planner{
		session: session,
		base:    base,
		filter:  filter,
		emitter: nopEmitter{},
	}
}

// SetEventEmitter installs the emitter consuming discovery events.
func (p *Planner) SetEventEmitter(emitter fetchengine.EventEmitter) {
	if emitter != nil {
		p.emitter = emitter
	}
}

// Discover lists every month folder in the range and returns the files to
// download, in listing order. Months that cannot be listed are skipped.
func (p *Planner) Discover(ctx context.Context, start, end Month) ([]fetchengine.RemotePath, error) {
	months := MonthsBetween(start, end)
	if len(months) == 0 {
		return nil, fmt.Errorf("empty date range: %s through %s", start, end) //nolint:err113 // validation error with actual values
	}

	p.emitter.Emit(fetchengine.DiscoveryStarted{Months: len(months)})

	var (
		paths      []fetchengine.RemotePath
		totalBytes int64
	)

	for _, month := range months {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("discovery canceled: %w", err)
		}

		dir := p.monthDir(month)

		entries, err := p.session.List(dir)
		if err != nil {
			p.emitter.Emit(fetchengine.MonthMissing{Month: month.String(), Err: err})

			continue
		}

		matched := 0

		for _, entry := range entries {
			if entry.IsDir || !p.filter.ShouldInclude(entry.Name) {
				continue
			}

			paths = append(paths, fetchengine.RemotePath{
				Dir:    dir,
				Name:   entry.Name,
				Subdir: month.String(),
				Size:   entry.Size,
			})
			totalBytes += entry.Size
			matched++
		}

		p.emitter.Emit(fetchengine.MonthListed{Month: month.String(), Files: matched})
	}

	p.emitter.Emit(fetchengine.DiscoveryComplete{Files: len(paths), Bytes: totalBytes})

	return paths, nil
}

// monthDir returns the remote folder for a month partition.
func (p *Planner) monthDir(month Month) string {
	base := p.base
	if base == "/" {
		base = ""
	}

	return fmt.Sprintf("%s/%s", base, month)
}

type nopEmitter struct{}

func (nopEmitter) Emit(fetchengine.Event) {}
