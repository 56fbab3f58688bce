// Package digest logs the day's due list on a cron schedule.
package digest

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/lchelper/lchelper/internal/problems"
	"github.com/lchelper/lchelper/internal/spacedrep"
)

// Report is one digest run.
type Report struct {
	Day      string              `json:"day"`
	Due      []string            `json:"due"`
	Overdue  int                 `json:"overdue"`
	Today    spacedrep.DayLoad   `json:"today"`
	Upcoming []spacedrep.DayLoad `json:"upcoming"`
}

// Digest runs Report on a schedule.
type Digest struct {
	svc  *problems.Service
	spec string
	loc  *time.Location
	log  zerolog.Logger

	mu   sync.Mutex
	c    *cron.Cron
	last *Report
}

// New validates spec, a standard five-field cron expression evaluated in loc.
func New(svc *problems.Service, spec string, loc *time.Location, log zerolog.Logger) (*Digest, error) {
	if _, err := cron.ParseStandard(spec); err != nil {
		return nil, fmt.Errorf("parse digest schedule %q: %w", spec, err)
	}
	if loc == nil {
		loc = time.Local
	}
	return &Digest{
		svc:  svc,
		spec: spec,
		loc:  loc,
		log:  log.With().Str("component", "digest").Logger(),
	}, nil
}

// Run builds and logs one report.
func (d *Digest) Run(ctx context.Context) (*Report, error) {
	sched := d.svc.Scheduler()
	today := sched.Engine().Today()

	due, err := d.svc.Due(ctx, spacedrep.NoLimit)
	if err != nil {
		return nil, fmt.Errorf("list due problems: %w", err)
	}
	week, err := sched.Calendar(ctx, today, 7)
	if err != nil {
		return nil, fmt.Errorf("read calendar: %w", err)
	}

	rep := &Report{
		Day:      spacedrep.FormatDay(today),
		Due:      make([]string, 0, len(due)),
		Today:    week[0],
		Upcoming: week[1:],
	}
	for _, s := range due {
		rep.Due = append(rep.Due, s.Problem.Slug)
		if s.Status == spacedrep.ReviewOverdue {
			rep.Overdue++
		}
	}

	d.log.Info().
		Str("day", rep.Day).
		Int("due", len(rep.Due)).
		Int("overdue", rep.Overdue).
		Strs("slugs", rep.Due).
		Int("booked_today", rep.Today.Count).
		Int("capacity", rep.Today.Capacity).
		Msg("daily review digest")

	d.mu.Lock()
	d.last = rep
	d.mu.Unlock()
	return rep, nil
}

// Last returns the most recent report, or nil.
func (d *Digest) Last() *Report {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.last
}

// Start schedules Run. Runs use ctx and stop when Stop is called.
func (d *Digest) Start(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.c != nil {
		return fmt.Errorf("digest already started")
	}

	c := cron.New(
		cron.WithLocation(d.loc),
		cron.WithLogger(cronLogger{log: d.log}),
		cron.WithChain(cron.Recover(cronLogger{log: d.log}), cron.SkipIfStillRunning(cronLogger{log: d.log})),
	)
	if _, err := c.AddFunc(d.spec, func() {
		if _, err := d.Run(ctx); err != nil {
			d.log.Warn().Err(err).Msg("digest run failed")
		}
	}); err != nil {
		return fmt.Errorf("schedule digest: %w", err)
	}
	c.Start()
	d.c = c

	d.log.Info().Str("spec", d.spec).Str("tz", d.loc.String()).Msg("digest scheduled")
	return nil
}

// Stop halts the schedule and waits for a running digest to finish.
func (d *Digest) Stop() {
	d.mu.Lock()
	c := d.c
	d.c = nil
	d.mu.Unlock()

	if c != nil {
		<-c.Stop().Done()
	}
}

// Next returns the next scheduled run, or the zero time when stopped.
func (d *Digest) Next() time.Time {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.c == nil {
		return time.Time{}
	}
	entries := d.c.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Next
}

// cronLogger adapts zerolog to cron.Logger.
type cronLogger struct {
	log zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.log.Debug().Fields(keysAndValues).Msg("cron: " + msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.log.Error().Err(err).Fields(keysAndValues).Msg("cron: " + msg)
}
