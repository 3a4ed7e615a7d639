package discovery_test

import (
	"context"
	"sync"
	"testing"

	"github.com/onsi/gomega"

	"github.com/xinlongliu0307/cryo2ice-snow-thickness-antarctic-2020-2025/internal/discovery"
	"github.com/xinlongliu0307/cryo2ice-snow-thickness-antarctic-2020-2025/internal/fetchengine"
	"github.com/xinlongliu0307/cryo2ice-snow-thickness-antarctic-2020-2025/pkg/remote"
)

type captureEmitter struct {
	mu     sync.Mutex
	events []fetchengine.Event
}

func (c *captureEmitter) Emit(event fetchengine.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.events = append(c.events, event)
}

func (c *captureEmitter) all() []fetchengine.Event {
	c.mu.Lock()
	defer c.mu.Unlock()

	events := make([]fetchengine.Event, len(c.events))
	copy(events, c.events)

	return events
}

func dialSession(t *testing.T, server *remote.MockServer) remote.Session {
	t.Helper()

	session, err := server.Dial(context.Background())
	if err != nil {
		t.Fatalf("dialing mock server: %v", err)
	}

	return session
}

func TestMonthsBetween(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		start discovery.Month
		end   discovery.Month
		want  []string
	}{
		{
			name:  "single month",
			start: discovery.Month{Year: 2020, Mon: 8},
			end:   discovery.Month{Year: 2020, Mon: 8},
			want:  []string{"2020/08"},
		},
		{
			name:  "range within a year",
			start: discovery.Month{Year: 2020, Mon: 8},
			end:   discovery.Month{Year: 2020, Mon: 10},
			want:  []string{"2020/08", "2020/09", "2020/10"},
		},
		{
			name:  "range crossing a year boundary",
			start: discovery.Month{Year: 2020, Mon: 11},
			end:   discovery.Month{Year: 2021, Mon: 2},
			want:  []string{"2020/11", "2020/12", "2021/01", "2021/02"},
		},
		{
			name:  "end before start yields nothing",
			start: discovery.Month{Year: 2021, Mon: 1},
			end:   discovery.Month{Year: 2020, Mon: 12},
			want:  nil,
		},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			months := discovery.MonthsBetween(testCase.start, testCase.end)

			var got []string
			for _, month := range months {
				got = append(got, month.String())
			}

			g := gomega.NewWithT(t)
			g.Expect(got).To(gomega.Equal(testCase.want))
		})
	}
}

func TestPlanner_DiscoverBuildsPlan(t *testing.T) {
	t.Parallel()
	g := gomega.NewWithT(t)

	server := remote.NewMockServer()
	server.AddFile("/SIR_SAR_L2/2020/08/CS_OFFL_A.nc", make([]byte, 100))
	server.AddFile("/SIR_SAR_L2/2020/08/CS_OFFL_B.nc", make([]byte, 200))
	server.AddFile("/SIR_SAR_L2/2020/08/listing.txt", make([]byte, 10))
	server.AddFile("/SIR_SAR_L2/2020/09/CS_OFFL_C.nc", make([]byte, 300))

	planner := discovery.NewPlanner(dialSession(t, server), "/SIR_SAR_L2", fetchengine.NewSuffixFilter(".nc"))

	paths, err := planner.Discover(context.Background(),
		discovery.Month{Year: 2020, Mon: 8},
		discovery.Month{Year: 2020, Mon: 9})

	g.Expect(err).NotTo(gomega.HaveOccurred())
	g.Expect(paths).To(gomega.HaveLen(3))

	g.Expect(paths[0].Dir).To(gomega.Equal("/SIR_SAR_L2/2020/08"))
	g.Expect(paths[0].Subdir).To(gomega.Equal("2020/08"))
	g.Expect(paths[0].Name).To(gomega.Equal("CS_OFFL_A.nc"))
	g.Expect(paths[0].Size).To(gomega.Equal(int64(100)))

	g.Expect(paths[2].Subdir).To(gomega.Equal("2020/09"))
	g.Expect(paths[2].Size).To(gomega.Equal(int64(300)))
}

func TestPlanner_MissingMonthsAreSkippedNotFatal(t *testing.T) {
	t.Parallel()
	g := gomega.NewWithT(t)

	server := remote.NewMockServer()
	server.AddFile("/SIR_SAR_L2/2020/08/CS_OFFL_A.nc", make([]byte, 100))
	server.AddFile("/SIR_SAR_L2/2020/10/CS_OFFL_B.nc", make([]byte, 200))
	// 2020/09 has no folder at all

	planner := discovery.NewPlanner(dialSession(t, server), "/SIR_SAR_L2", nil)
	emitter := &captureEmitter{}
	planner.SetEventEmitter(emitter)

	paths, err := planner.Discover(context.Background(),
		discovery.Month{Year: 2020, Mon: 8},
		discovery.Month{Year: 2020, Mon: 10})

	g.Expect(err).NotTo(gomega.HaveOccurred())
	g.Expect(paths).To(gomega.HaveLen(2))

	var missing []string

	for _, event := range emitter.all() {
		if monthMissing, ok := event.(fetchengine.MonthMissing); ok {
			missing = append(missing, monthMissing.Month)
		}
	}

	g.Expect(missing).To(gomega.Equal([]string{"2020/09"}))
}

func TestPlanner_EmitsDiscoveryLifecycle(t *testing.T) {
	t.Parallel()
	g := gomega.NewWithT(t)

	server := remote.NewMockServer()
	server.AddFile("/SIR_SAR_L2/2020/08/CS_OFFL_A.nc", make([]byte, 100))

	planner := discovery.NewPlanner(dialSession(t, server), "/SIR_SAR_L2", nil)
	emitter := &captureEmitter{}
	planner.SetEventEmitter(emitter)

	_, err := planner.Discover(context.Background(),
		discovery.Month{Year: 2020, Mon: 8},
		discovery.Month{Year: 2020, Mon: 8})
	g.Expect(err).NotTo(gomega.HaveOccurred())

	events := emitter.all()
	g.Expect(events).NotTo(gomega.BeEmpty())

	started, ok := events[0].(fetchengine.DiscoveryStarted)
	g.Expect(ok).To(gomega.BeTrue())
	g.Expect(started.Months).To(gomega.Equal(1))

	complete, ok := events[len(events)-1].(fetchengine.DiscoveryComplete)
	g.Expect(ok).To(gomega.BeTrue())
	g.Expect(complete.Files).To(gomega.Equal(1))
	g.Expect(complete.Bytes).To(gomega.Equal(int64(100)))
}

func TestPlanner_EmptyRangeIsAnError(t *testing.T) {
	t.Parallel()
	g := gomega.NewWithT(t)

	planner := discovery.NewPlanner(dialSession(t, remote.NewMockServer()), "/SIR_SAR_L2", nil)

	_, err := planner.Discover(context.Background(),
		discovery.Month{Year: 2021, Mon: 1},
		discovery.Month{Year: 2020, Mon: 1})

	g.Expect(err).To(gomega.MatchError(gomega.ContainSubstring("empty date range")))
}

func TestPlanner_HonorsContextCancellation(t *testing.T) {
	t.Parallel()
	g := gomega.NewWithT(t)

	server := remote.NewMockServer()
	server.AddFile("/SIR_SAR_L2/2020/08/CS_OFFL_A.nc", make([]byte, 100))

	planner := discovery.NewPlanner(dialSession(t, server), "/SIR_SAR_L2", nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := planner.Discover(ctx,
		discovery.Month{Year: 2020, Mon: 8},
		discovery.Month{Year: 2020, Mon: 8})

	g.Expect(err).To(gomega.MatchError(gomega.ContainSubstring("canceled")))
}
