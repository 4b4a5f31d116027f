package scheduler

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"golang.org/x/time/rate"

	"crossposter/internal/creds"
	"crossposter/internal/platform"
	"crossposter/internal/report"
	"crossposter/internal/store"
	logx "crossposter/pkg/logx"
)

// Service owns the poll loop and the manual operations on scheduled posts.
//
// A single Service instance drives dispatch for one storage location.
// Within a tick, due records (and the platforms of each record) are
// dispatched concurrently, but every record's state transitions go through
// the store's serialized Update, and the in-flight set guarantees at most
// one dispatch attempt per record at a time.
type Service struct {
	mu sync.Mutex

	cfg   Config
	log   logx.Logger
	store store.Store
	reg   *platform.Registry
	creds creds.Provider
	rep   report.Reporter

	// now is the injected time source; tests substitute it.
	now     func() time.Time
	limiter *rate.Limiter

	c      *cron.Cron
	stopCh chan struct{}

	imu      sync.Mutex
	inflight map[string]struct{}
}

func New(cfg Config, st store.Store, reg *platform.Registry, cp creds.Provider, rep report.Reporter, log logx.Logger) *Service {
	if log.IsZero() {
		log = logx.Nop()
	}
	if rep == nil {
		rep = report.Nop{}
	}
	s := &Service{
		log:      log,
		store:    st,
		reg:      reg,
		creds:    cp,
		rep:      rep,
		now:      time.Now,
		inflight: map[string]struct{}{},
	}
	s.applyLocked(cfg)
	return s
}

func (s *Service) Enabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg.Enabled
}

// Apply swaps runtime settings. If the poll interval or timezone changed
// while running, the trigger is restarted.
func (s *Service) Apply(cfg Config) {
	s.mu.Lock()
	defer s.mu.Unlock()
	oldInterval := s.cfg.Interval
	oldTZ := s.cfg.Timezone
	s.applyLocked(cfg)
	if s.stopCh != nil && (s.cfg.Interval != oldInterval || s.cfg.Timezone != oldTZ) {
		s.restartTriggerLocked()
	}
}

func (s *Service) applyLocked(cfg Config) {
	if cfg.Interval <= 0 {
		cfg.Interval = time.Minute
	}
	if cfg.RatePerSec <= 0 {
		cfg.RatePerSec = 5
	}
	s.cfg = cfg
	// Dispatch goroutines use the limiter without taking s.mu, so it is
	// created once and reconfigured in place, never swapped.
	if s.limiter == nil {
		s.limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSec), cfg.RatePerSec)
	} else {
		s.limiter.SetLimit(rate.Limit(cfg.RatePerSec))
		s.limiter.SetBurst(cfg.RatePerSec)
	}
}

// Start begins the poll loop. It is idempotent; a disabled scheduler
// only surfaces crash leftovers and does not tick.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopCh != nil {
		return nil
	}

	s.recoverStale(ctx)

	if !s.cfg.Enabled {
		s.log.Info("scheduler disabled; poll loop not started")
		return nil
	}

	s.stopCh = make(chan struct{})
	s.startTriggerLocked(ctx)
	s.log.Info("scheduler started",
		logx.Duration("interval", s.cfg.Interval),
		logx.Int("rate_per_sec", s.cfg.RatePerSec),
	)
	return nil
}

// Stop halts future ticks. In-flight dispatch calls are not recalled;
// Stop waits for the running cycle until ctx expires.
func (s *Service) Stop(ctx context.Context) {
	s.mu.Lock()
	if s.stopCh == nil {
		s.mu.Unlock()
		return
	}
	close(s.stopCh)
	s.stopCh = nil
	c := s.c
	s.c = nil
	s.mu.Unlock()

	if c != nil {
		stopped := c.Stop()
		select {
		case <-stopped.Done():
		case <-ctx.Done():
		}
	}
	s.log.Info("scheduler stopped")
}

func (s *Service) startTriggerLocked(ctx context.Context) {
	loc := s.loadLocationLocked()
	s.c = cron.New(cron.WithLocation(loc))
	spec := fmt.Sprintf("@every %s", s.cfg.Interval)
	_, _ = s.c.AddFunc(spec, func() { s.Tick(ctx) })
	s.c.Start()
}

func (s *Service) restartTriggerLocked() {
	if s.c != nil {
		<-s.c.Stop().Done()
		s.c = nil
	}
	// The trigger closure keeps ticking with a background context; record
	// dispatch deadlines come from the per-call contexts, not from here.
	s.startTriggerLocked(context.Background())
	s.log.Info("scheduler trigger restarted", logx.Duration("interval", s.cfg.Interval))
}

func (s *Service) loadLocationLocked() *time.Location {
	tz := strings.TrimSpace(s.cfg.Timezone)
	if tz == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		s.log.Warn("invalid timezone, falling back to Local", logx.String("tz", tz), logx.Err(err))
		return time.Local
	}
	return loc
}

// recoverStale surfaces records left processing by a crash. Their remote
// outcome is unknown, so they are never auto-resumed and never reverted;
// the operator decides between retry and delete.
func (s *Service) recoverStale(ctx context.Context) {
	posts, err := s.store.List(ctx)
	if err != nil {
		s.log.Error("startup scan failed", logx.Err(err))
		return
	}
	for _, p := range posts {
		if p.Status != store.StatusProcessing {
			continue
		}
		s.log.Warn("post left processing by a previous run; outcome unknown",
			logx.String("post_id", p.ID),
			logx.Time("scheduled", p.ScheduledTime),
		)
		s.notifyError(fmt.Sprintf("post %s was interrupted mid-dispatch; retry or delete it", p.ID))
	}
}

// ---- in-flight guard ----

func (s *Service) acquire(id string) bool {
	s.imu.Lock()
	defer s.imu.Unlock()
	if _, busy := s.inflight[id]; busy {
		return false
	}
	s.inflight[id] = struct{}{}
	return true
}

func (s *Service) release(id string) {
	s.imu.Lock()
	delete(s.inflight, id)
	s.imu.Unlock()
}

func (s *Service) isInflight(id string) bool {
	s.imu.Lock()
	defer s.imu.Unlock()
	_, busy := s.inflight[id]
	return busy
}

// ---- reporter guards ----
//
// Reporters are observational; a panicking implementation must not take
// down the dispatch loop.

func (s *Service) notifySuccess(msg string) {
	defer func() { _ = recover() }()
	s.rep.OnSuccess(msg)
}

func (s *Service) notifyError(msg string) {
	defer func() { _ = recover() }()
	s.rep.OnError(msg)
}

func (s *Service) notifyLink(url string) {
	defer func() { _ = recover() }()
	s.rep.OnLinkPrepared(url)
}
