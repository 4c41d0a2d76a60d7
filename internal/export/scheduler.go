package export

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/erazemk/paintstock/internal/metrics"
	"github.com/erazemk/paintstock/internal/model"
)

// Source provides the data for a snapshot. *inventory.Service satisfies it.
type Source interface {
	ListItems(ctx context.Context) ([]model.Item, error)
	MinQuantity(ctx context.Context) (int, error)
}

// Scheduler writes a snapshot into a directory on a cron schedule.
type Scheduler struct {
	src    Source
	dir    string
	logger *slog.Logger
	now    func() time.Time
	cron   *cron.Cron
}

// NewScheduler validates the standard five-field cron spec and prepares a
// scheduler. Nothing runs until Start.
func NewScheduler(src Source, dir, spec string, logger *slog.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Scheduler{
		src:    src,
		dir:    dir,
		logger: logger,
		now:    time.Now,
		cron:   cron.New(),
	}
	if _, err := s.cron.AddFunc(spec, s.runScheduled); err != nil {
		return nil, fmt.Errorf("parsing export schedule %q: %w", spec, err)
	}
	return s, nil
}

// Start begins running scheduled exports in the background.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("export scheduler started", "dir", s.dir)
}

// Stop stops the scheduler and waits for a running export to finish or
// for ctx to expire.
func (s *Scheduler) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
	}
}

func (s *Scheduler) runScheduled() {
	ctx := model.WithActor(context.Background(), model.System)
	if _, err := s.Run(ctx, "scheduled"); err != nil {
		s.logger.Error("scheduled export failed", "error", err)
	}
}

// Run writes a snapshot now and returns its path. The file is written under
// a temporary name and renamed into place.
func (s *Scheduler) Run(ctx context.Context, trigger string) (path string, err error) {
	defer func() { metrics.RecordExport(trigger, err == nil) }()

	items, err := s.src.ListItems(ctx)
	if err != nil {
		return "", fmt.Errorf("listing items: %w", err)
	}
	minQty, err := s.src.MinQuantity(ctx)
	if err != nil {
		return "", fmt.Errorf("reading min quantity: %w", err)
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("creating export dir: %w", err)
	}

	path = filepath.Join(s.dir, FileName(s.now()))
	f, err := os.CreateTemp(s.dir, ".export-*.csv")
	if err != nil {
		return "", fmt.Errorf("creating export file: %w", err)
	}
	tmp := f.Name()
	defer os.Remove(tmp)

	if err := WriteCSV(f, items, minQty); err != nil {
		f.Close()
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("closing export file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return "", fmt.Errorf("moving export into place: %w", err)
	}

	s.logger.Info("inventory exported", "path", path, "items", len(items), "trigger", trigger)
	return path, nil
}
