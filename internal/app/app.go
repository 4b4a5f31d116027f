// Package app wires configuration, storage, platforms, credentials and the
// scheduler into one runnable daemon.
package app

import (
	"context"
	"fmt"
	"sync"

	"crossposter/internal/config"
	"crossposter/internal/creds"
	"crossposter/internal/platform"
	"crossposter/internal/platform/telegram"
	"crossposter/internal/report"
	"crossposter/internal/scheduler"
	"crossposter/internal/store"
	logx "crossposter/pkg/logx"
)

type App struct {
	logSvc *logx.Service
	log    logx.Logger

	cfgMgr *config.Manager
	st     store.Store
	sched  *scheduler.Service
	bus    *report.Bus

	watchCancel context.CancelFunc
	wg          sync.WaitGroup
}

func New(cfgPath string) (*App, error) {
	mgr := config.NewManager(cfgPath)
	cfg, err := mgr.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logSvc, log := logx.New(logxConfig(cfg.Logging))
	mgr.SetLogger(log.With(logx.String("comp", "config")))

	storeCfg, err := storeConfig(cfg.Storage)
	if err != nil {
		return nil, err
	}
	st, err := store.Open(storeCfg, log.With(logx.String("comp", "store")))
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	reg := platform.NewRegistry()
	if cfg.Platforms.Telegram.Enabled {
		reg.Register(platform.Telegram, telegram.New(log.With(logx.String("comp", "telegram"))))
	}

	cp := creds.NewEnv(cfg.Credentials.EnvPrefix, cfg.Credentials.EnvFile)

	bus := report.NewBus()
	rep := report.Multi{report.NewLog(log.With(logx.String("comp", "report"))), bus}

	schedCfg, err := schedulerConfig(cfg.Scheduler)
	if err != nil {
		return nil, err
	}
	sched := scheduler.New(schedCfg, st, reg, cp, rep, log.With(logx.String("comp", "scheduler")))

	return &App{
		logSvc: logSvc,
		log:    log,
		cfgMgr: mgr,
		st:     st,
		sched:  sched,
		bus:    bus,
	}, nil
}

// Scheduler exposes the manual operations surface (schedule/edit/retry/cancel).
func (a *App) Scheduler() *scheduler.Service { return a.sched }

// Events exposes the status event bus for UI subscribers.
func (a *App) Events() *report.Bus { return a.bus }

func (a *App) Start(ctx context.Context) error {
	// Hot reload: watch the config file and re-apply logging/scheduler
	// sections live. Storage and platform wiring stay fixed per process.
	wctx, cancel := context.WithCancel(ctx)
	a.watchCancel = cancel

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		_ = a.cfgMgr.Watch(wctx)
	}()

	sub := a.cfgMgr.Subscribe(4)
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		defer a.cfgMgr.Unsubscribe(sub)
		for {
			select {
			case <-wctx.Done():
				return
			case cfg, ok := <-sub:
				if !ok || cfg == nil {
					return
				}
				a.logSvc.Apply(logxConfig(cfg.Logging))
				sc, err := schedulerConfig(cfg.Scheduler)
				if err != nil {
					a.log.Warn("reloaded scheduler config rejected", logx.Err(err))
					continue
				}
				a.sched.Apply(sc)
				a.log.Info("config reloaded")
			}
		}
	}()

	return a.sched.Start(ctx)
}

func (a *App) Stop(ctx context.Context) error {
	if a.watchCancel != nil {
		a.watchCancel()
	}
	a.sched.Stop(ctx)
	a.wg.Wait()
	err := a.st.Close()
	_ = a.logSvc.Close()
	return err
}

func logxConfig(c config.LoggingConfig) logx.Config {
	return logx.Config{
		Level:   c.Level,
		Console: c.Console,
		File:    logx.FileConfig{Enabled: c.File.Enabled, Path: c.File.Path},
	}
}

func storeConfig(c config.StorageConfig) (store.Config, error) {
	busy, err := config.ParseDurationField("storage.busy_timeout", c.BusyTimeout)
	if err != nil {
		return store.Config{}, err
	}
	return store.Config{Driver: c.Driver, Path: c.Path, BusyTimeout: busy}, nil
}

func schedulerConfig(c config.SchedulerConfig) (scheduler.Config, error) {
	interval, err := config.ParseDurationField("scheduler.interval", c.Interval)
	if err != nil {
		return scheduler.Config{}, err
	}
	return scheduler.Config{
		Enabled:    c.Enabled,
		Interval:   interval,
		RatePerSec: c.RatePerSec,
		Timezone:   c.Timezone,
	}, nil
}
