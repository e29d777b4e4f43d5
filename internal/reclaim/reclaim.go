// Package reclaim deletes upload files that no product references.
package reclaim

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/atinyakov/herbcatalog/internal/models"
	"github.com/atinyakov/herbcatalog/internal/upload"
)

// DefaultGrace is how old an unreferenced file must be before a sweep may delete it.
const DefaultGrace = time.Minute

// References lists the stored names currently referenced by products.
type References interface {
	ImageNames(ctx context.Context) ([]string, error)
}

// Files enumerates and removes stored files.
type Files interface {
	List() ([]upload.FileInfo, error)
	Remove(name string) (bool, error)
}

// Reclaimer runs mark-and-sweep passes over the upload root.
// At most one pass runs at a time.
type Reclaimer struct {
	refs  References
	files Files
	grace time.Duration
	log   *zap.Logger
	now   func() time.Time

	mu sync.Mutex
}

// New constructs a Reclaimer. A non-positive grace falls back to DefaultGrace.
func New(refs References, files Files, grace time.Duration, log *zap.Logger) *Reclaimer {
	if grace <= 0 {
		grace = DefaultGrace
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Reclaimer{refs: refs, files: files, grace: grace, log: log, now: time.Now}
}

// Sweep deletes every stored file that is not referenced and was last
// modified no later than the sweep start minus the grace period. It returns
// the deleted names, or models.ErrConflict when another sweep is running.
func (r *Reclaimer) Sweep(ctx context.Context) ([]string, error) {
	if !r.mu.TryLock() {
		return nil, fmt.Errorf("%w: reclaim already running", models.ErrConflict)
	}
	defer r.mu.Unlock()

	start := r.now()
	cutoff := start.Add(-r.grace)

	names, err := r.refs.ImageNames(ctx)
	if err != nil {
		return nil, err
	}
	referenced := make(map[string]struct{}, len(names))
	for _, n := range names {
		referenced[n] = struct{}{}
	}

	files, err := r.files.List()
	if err != nil {
		return nil, err
	}

	deleted := []string{}
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return deleted, err
		}
		if _, ok := referenced[f.Name]; ok {
			continue
		}
		// recent files may belong to a write that has not committed yet
		if f.ModTime.After(cutoff) {
			continue
		}
		removed, err := r.files.Remove(f.Name)
		if err != nil {
			r.log.Warn("failed to remove orphaned upload", zap.String("name", f.Name), zap.Error(err))
			continue
		}
		if removed {
			deleted = append(deleted, f.Name)
		}
	}

	r.log.Info("reclaim sweep finished",
		zap.Int("scanned", len(files)),
		zap.Int("referenced", len(referenced)),
		zap.Strings("deleted", deleted),
		zap.Duration("elapsed", r.now().Sub(start)),
	)
	return deleted, nil
}

var cronParser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// Run schedules Sweep with the cron spec in loc and blocks until ctx is
// done. Runs that would overlap a previous one are skipped.
func (r *Reclaimer) Run(ctx context.Context, spec string, loc *time.Location) error {
	if loc == nil {
		loc = time.Local
	}
	logger := cronLogger{log: r.log.Sugar()}
	c := cron.New(
		cron.WithLocation(loc),
		cron.WithParser(cronParser),
		cron.WithLogger(logger),
		cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
	)

	if _, err := c.AddFunc(spec, func() { r.scheduled(ctx) }); err != nil {
		return fmt.Errorf("schedule reclaim %q: %w", spec, err)
	}

	c.Start()
	r.log.Info("reclaim scheduled", zap.String("spec", spec), zap.String("location", loc.String()))

	<-ctx.Done()
	<-c.Stop().Done()
	return nil
}

func (r *Reclaimer) scheduled(ctx context.Context) {
	if _, err := r.Sweep(ctx); err != nil {
		if errors.Is(err, models.ErrConflict) {
			r.log.Info("reclaim skipped, sweep already running")
			return
		}
		r.log.Error("reclaim sweep failed", zap.Error(err))
	}
}

// cronLogger adapts zap to cron.Logger.
type cronLogger struct {
	log *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Errorw(msg, append(keysAndValues, "error", err)...)
}
