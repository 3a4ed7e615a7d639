package memguard_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/onsi/gomega"

	"github.com/xinlongliu0307/cryo2ice-snow-thickness-antarctic-2020-2025/pkg/memguard"
)

// stubSampler returns a fixed usage or error.
type stubSampler struct {
	usage memguard.Usage
	err   error
}

func (s *stubSampler) Sample() (memguard.Usage, error) {
	return s.usage, s.err
}

func TestGuard_AdmitsBelowThreshold(t *testing.T) {
	t.Parallel()
	g := gomega.NewWithT(t)

	guard := memguard.New(&stubSampler{
		usage: memguard.Usage{UsedPercent: 45.0, Available: 8 << 30, Total: 16 << 30},
	}, 90.0)

	decision := guard.Check()

	g.Expect(decision.Admitted).To(gomega.BeTrue())
	g.Expect(decision.Err).NotTo(gomega.HaveOccurred())
	g.Expect(decision.Usage.UsedPercent).To(gomega.Equal(45.0))
}

func TestGuard_VetoesAboveThreshold(t *testing.T) {
	t.Parallel()
	g := gomega.NewWithT(t)

	guard := memguard.New(&stubSampler{
		usage: memguard.Usage{UsedPercent: 93.5, Available: 1 << 30, Total: 16 << 30},
	}, 90.0)

	decision := guard.Check()

	g.Expect(decision.Admitted).To(gomega.BeFalse())
	g.Expect(decision.Usage.UsedPercent).To(gomega.Equal(93.5))
}

func TestGuard_AdmitsAtExactThreshold(t *testing.T) {
	t.Parallel()
	g := gomega.NewWithT(t)

	guard := memguard.New(&stubSampler{
		usage: memguard.Usage{UsedPercent: 90.0},
	}, 90.0)

	// Only strictly-above readings are vetoed
	g.Expect(guard.Check().Admitted).To(gomega.BeTrue())
}

func TestGuard_FailsOpenOnSampleError(t *testing.T) {
	t.Parallel()
	g := gomega.NewWithT(t)

	sampleErr := errors.New("proc not mounted")
	guard := memguard.New(&stubSampler{err: sampleErr}, 90.0)

	decision := guard.Check()

	g.Expect(decision.Admitted).To(gomega.BeTrue())
	g.Expect(decision.Err).To(gomega.MatchError(sampleErr))
}

func TestGuard_ZeroThresholdUsesDefault(t *testing.T) {
	t.Parallel()
	g := gomega.NewWithT(t)

	guard := memguard.New(&stubSampler{}, 0)

	g.Expect(guard.Threshold()).To(gomega.Equal(memguard.DefaultThresholdPercent))
}

func TestGuard_DescribeIncludesUsageAndThreshold(t *testing.T) {
	t.Parallel()
	g := gomega.NewWithT(t)

	guard := memguard.New(&stubSampler{
		usage: memguard.Usage{UsedPercent: 34.2, Available: 10 << 30, Total: 16 << 30},
	}, 90.0)

	description := guard.Describe()

	g.Expect(description).To(gomega.ContainSubstring("34.2%"))
	g.Expect(description).To(gomega.ContainSubstring("90%"))
	g.Expect(strings.ToLower(description)).To(gomega.ContainSubstring("available"))
}

func TestGuard_DescribeReportsSampleFailure(t *testing.T) {
	t.Parallel()
	g := gomega.NewWithT(t)

	guard := memguard.New(&stubSampler{err: errors.New("proc not mounted")}, 90.0)

	g.Expect(guard.Describe()).To(gomega.ContainSubstring("unavailable"))
}
