package service

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/robfig/cron/v3"
)

var janitorRemovedTotal = promauto.NewCounter(prometheus.CounterOpts{
	Name: "issuedesk_janitor_removed_files_total",
	Help: "Stale temporary upload files removed by the janitor.",
})

// Janitor periodically deletes temporary upload files left behind by
// interrupted requests.
type Janitor struct {
	dir    string
	maxAge time.Duration
	cron   *cron.Cron
	now    func() time.Time
}

// NewJanitor schedules Sweep on a cron spec such as "@every 15m".
func NewJanitor(dir string, maxAge time.Duration, schedule string) (*Janitor, error) {
	j := &Janitor{
		dir:    dir,
		maxAge: maxAge,
		cron:   cron.New(),
		now:    time.Now,
	}
	if _, err := j.cron.AddFunc(schedule, func() {
		if _, err := j.Sweep(); err != nil {
			log.Printf("[Janitor] Sweep failed: %v", err)
		}
	}); err != nil {
		return nil, fmt.Errorf("invalid janitor schedule %q: %w", schedule, err)
	}
	return j, nil
}

func (j *Janitor) Start() {
	j.cron.Start()
	log.Printf("[Janitor] Started, removing uploads older than %v from %s", j.maxAge, j.dir)
}

// Stop halts scheduling and returns a context done once a running sweep finishes.
func (j *Janitor) Stop() context.Context {
	return j.cron.Stop()
}

// Sweep removes regular files older than maxAge and returns how many it removed.
func (j *Janitor) Sweep() (int, error) {
	entries, err := os.ReadDir(j.dir)
	if os.IsNotExist(err) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	cutoff := j.now().Add(-j.maxAge)
	removed := 0
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		info, err := e.Info()
		if err != nil || !info.ModTime().Before(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(j.dir, e.Name())); err != nil {
			log.Printf("[Janitor] Failed to remove %s: %v", e.Name(), err)
			continue
		}
		removed++
	}

	if removed > 0 {
		janitorRemovedTotal.Add(float64(removed))
		log.Printf("[Janitor] Removed %d stale uploads", removed)
	}
	return removed, nil
}
