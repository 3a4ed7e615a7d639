package fetchengine_test

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/onsi/gomega"

	"github.com/xinlongliu0307/cryo2ice-snow-thickness-antarctic-2020-2025/internal/fetchengine"
)

func TestStats_SnapshotReflectsRecordedOutcomes(t *testing.T) {
	t.Parallel()
	g := gomega.NewWithT(t)

	start := time.Date(2020, 8, 1, 12, 0, 0, 0, time.UTC)
	stats := fetchengine.NewStats(5, start)

	stats.AddBytes(1000)
	stats.RecordCompleted()
	stats.RecordSkipped(500)
	stats.RecordRetry()
	stats.RecordFailed("SIR_SAR_L2/2020/08/a.nc", errors.New("connection reset"))
	stats.RecordVetoed("SIR_SAR_L2/2020/08/b.nc", errors.New("memory usage 95.0% exceeds threshold"))

	snapshot := stats.Snapshot()

	g.Expect(snapshot.TotalFiles).To(gomega.Equal(5))
	g.Expect(snapshot.Completed).To(gomega.Equal(1))
	g.Expect(snapshot.Skipped).To(gomega.Equal(1))
	g.Expect(snapshot.Failed).To(gomega.Equal(2), "vetoed files count as failed")
	g.Expect(snapshot.Vetoed).To(gomega.Equal(1))
	g.Expect(snapshot.Retries).To(gomega.Equal(1))
	g.Expect(snapshot.TransferredBytes).To(gomega.Equal(int64(1500)))
	g.Expect(snapshot.StartTime).To(gomega.Equal(start))
}

func TestStats_ProcessedSumsTerminalOutcomes(t *testing.T) {
	t.Parallel()
	g := gomega.NewWithT(t)

	stats := fetchengine.NewStats(3, time.Now())
	stats.RecordCompleted()
	stats.RecordSkipped(0)
	stats.RecordFailed("x", errors.New("boom"))

	g.Expect(stats.Snapshot().Processed()).To(gomega.Equal(3))
}

func TestStats_NegativeBytesRollBackPartialTransfers(t *testing.T) {
	t.Parallel()
	g := gomega.NewWithT(t)

	stats := fetchengine.NewStats(1, time.Now())

	stats.AddBytes(4096)
	stats.AddBytes(-4096)

	g.Expect(stats.Snapshot().TransferredBytes).To(gomega.Equal(int64(0)))
}

func TestStats_ElapsedUsesEndTimeOnceMarked(t *testing.T) {
	t.Parallel()
	g := gomega.NewWithT(t)

	start := time.Date(2020, 8, 1, 12, 0, 0, 0, time.UTC)
	stats := fetchengine.NewStats(0, start)
	stats.MarkComplete(start.Add(90 * time.Second))

	g.Expect(stats.Snapshot().Elapsed()).To(gomega.Equal(90 * time.Second))
}

func TestStats_FailuresReturnsCopy(t *testing.T) {
	t.Parallel()
	g := gomega.NewWithT(t)

	stats := fetchengine.NewStats(2, time.Now())
	stats.RecordFailed("a.nc", errors.New("timeout"))

	failures := stats.Failures()
	failures[0].Path = "mutated"

	g.Expect(stats.Failures()[0].Path).To(gomega.Equal("a.nc"))
}

func TestStats_ConcurrentRecordingIsConsistent(t *testing.T) {
	t.Parallel()
	g := gomega.NewWithT(t)

	const (
		goroutines = 8
		perWorker  = 200
	)

	stats := fetchengine.NewStats(goroutines*perWorker*3, time.Now())

	var wg sync.WaitGroup
	for range goroutines {
		wg.Go(func() {
			for range perWorker {
				stats.RecordCompleted()
				stats.RecordSkipped(10)
				stats.RecordFailed("f.nc", errors.New("boom"))
				stats.AddBytes(100)
			}
		})
	}
	wg.Wait()

	snapshot := stats.Snapshot()

	g.Expect(snapshot.Completed).To(gomega.Equal(goroutines * perWorker))
	g.Expect(snapshot.Skipped).To(gomega.Equal(goroutines * perWorker))
	g.Expect(snapshot.Failed).To(gomega.Equal(goroutines * perWorker))
	g.Expect(snapshot.TransferredBytes).To(gomega.Equal(int64(goroutines * perWorker * 110)))
	g.Expect(snapshot.Processed()).To(gomega.Equal(goroutines * perWorker * 3))
}
