// Package diskguard enforces a minimum free-space threshold on the scratch
// volume before each fetch.
//
// Recording sizes are unknown until listed and can run to many gigabytes;
// the guard prevents starting a fetch that would exhaust the volume
// mid-transfer. Under the wait policy it is the only polling loop in the
// pipeline outside the transcription call itself.
package diskguard

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sys/unix"

	"lectern/internal/logging"
	"lectern/internal/services"
)

// Policy selects the guard's behavior when space is below the minimum.
type Policy string

const (
	// PolicyWait blocks and re-samples until space recovers or MaxWait
	// elapses, then aborts the run.
	PolicyWait Policy = "wait"
	// PolicyFail aborts the run immediately.
	PolicyFail Policy = "fail"
)

// Sampler reports the free bytes available at a path.
type Sampler func(path string) (uint64, error)

// FreeBytes samples the filesystem holding path via statfs.
func FreeBytes(path string) (uint64, error) {
	var stat unix.Statfs_t
	if err := unix.Statfs(path, &stat); err != nil {
		return 0, fmt.Errorf("statfs %s: %w", path, err)
	}
	return stat.Bavail * uint64(stat.Bsize), nil
}

// Guard checks free space on the scratch volume before every fetch.
type Guard struct {
	Path          string
	MinFreeBytes  uint64
	Policy        Policy
	CheckInterval time.Duration
	MaxWait       time.Duration
	// Sample defaults to FreeBytes; tests substitute their own.
	Sample Sampler
	Logger *slog.Logger
}

// Ensure blocks until the scratch volume has at least MinFreeBytes free, per
// the configured policy. A failure is classified as disk exhaustion, which
// is fatal for the run.
func (g *Guard) Ensure(ctx context.Context) error {
	sample := g.Sample
	if sample == nil {
		sample = FreeBytes
	}
	logger := g.Logger
	if logger == nil {
		logger = logging.NewNop()
	}

	free, err := sample(g.Path)
	if err != nil {
		return services.Wrap(services.ErrDiskExhausted, "guard", "sample", "", err)
	}
	if free >= g.MinFreeBytes {
		return nil
	}

	if g.Policy != PolicyWait {
		return services.Wrap(services.ErrDiskExhausted, "guard", "",
			fmt.Sprintf("%.1f GiB free, %.1f GiB required", gib(free), gib(g.MinFreeBytes)), nil)
	}

	interval := g.CheckInterval
	if interval <= 0 {
		interval = 30 * time.Second
	}
	deadline := time.Now().Add(g.MaxWait)

	logger.Warn("insufficient disk space, waiting",
		logging.Float64("free_gib", gib(free)),
		logging.Float64("required_gib", gib(g.MinFreeBytes)),
		logging.Duration("max_wait", g.MaxWait),
	)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		free, err = sample(g.Path)
		if err != nil {
			return services.Wrap(services.ErrDiskExhausted, "guard", "sample", "", err)
		}
		if free >= g.MinFreeBytes {
			logger.Info("disk space recovered", logging.Float64("free_gib", gib(free)))
			return nil
		}
		if time.Now().After(deadline) {
			return services.Wrap(services.ErrDiskExhausted, "guard", "",
				fmt.Sprintf("still %.1f GiB free after waiting %s", gib(free), g.MaxWait), nil)
		}
	}
}

func gib(bytes uint64) float64 {
	return float64(bytes) / float64(1<<30)
}
