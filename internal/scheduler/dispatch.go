package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"crossposter/internal/platform"
	"crossposter/internal/store"
	logx "crossposter/pkg/logx"
)

// Tick runs one dispatch cycle: every record that is scheduled and due is
// dispatched. It can be driven by the internal trigger or invoked directly
// by an external cron-style caller; Tick returns when the cycle is done.
//
// Records resting in failed are not picked up here; they only re-enter
// dispatch through an explicit Retry.
func (s *Service) Tick(ctx context.Context) {
	now := s.now()
	posts, err := s.store.List(ctx)
	if err != nil {
		// Fatal for this tick only; the collection itself is protected by
		// atomic rewrites, so we just try again next tick.
		s.log.Error("tick aborted: listing posts failed", logx.Err(err))
		s.notifyError(fmt.Sprintf("storage error, cycle skipped: %v", err))
		return
	}

	var wg sync.WaitGroup
	for _, p := range posts {
		// posted is terminal, failed waits for manual retry, processing
		// belongs to a still-running cycle (or a crash leftover, which
		// only Retry may touch).
		if p.Status != store.StatusScheduled {
			continue
		}
		if p.ScheduledTime.After(now) {
			continue
		}
		id := p.ID
		if !s.acquire(id) {
			continue
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer s.release(id)
			s.dispatch(ctx, id)
		}()
	}
	wg.Wait()
}

// dispatch runs one full cycle for one record. The caller must hold the
// record's in-flight slot. The returned error covers state and storage
// problems only; delivery failures are persisted into the record and
// surfaced via the reporter, never thrown.
func (s *Service) dispatch(ctx context.Context, id string) error {
	// Transition to processing and persist before the first external call,
	// so a crash mid-dispatch leaves the record visibly in flight.
	p, err := s.store.Update(ctx, id, func(p *store.Post) error {
		switch p.Status {
		case store.StatusScheduled, store.StatusFailed:
			p.Status = store.StatusProcessing
			return nil
		case store.StatusProcessing:
			// Crash leftover re-entered via Retry; keep the status.
			return nil
		default:
			return fmt.Errorf("%w: post is %s", ErrInvalidState, p.Status)
		}
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// Deleted between selection and dispatch.
			return nil
		}
		if errors.Is(err, ErrInvalidState) {
			return nil
		}
		s.log.Error("marking post processing failed", logx.String("post_id", id), logx.Err(err))
		s.notifyError(fmt.Sprintf("storage error on post %s: %v", id, err))
		return err
	}

	// No platform can be attempted without credentials: a provider failure
	// fails the whole cycle for this record.
	set, err := s.creds.Resolve(ctx)
	if err != nil {
		msg := err.Error()
		if !strings.HasPrefix(msg, "credentials") {
			msg = "credentials: " + msg
		}
		s.finish(ctx, id, nil, msg)
		return nil
	}

	content := platform.Content{Text: p.Text, Media: p.Media}
	results := make(map[platform.ID]store.PlatformResult, len(p.Platforms))

	// Platforms are independent: dispatch them concurrently, record each
	// outcome as it completes, and never let one failure abort a sibling.
	var (
		rmu sync.Mutex
		wg  sync.WaitGroup
	)
	for _, pid := range p.Platforms {
		wg.Add(1)
		go func(pid platform.ID) {
			defer wg.Done()
			res := s.dispatchPlatform(ctx, pid, content, set.Bundle(pid))
			rmu.Lock()
			results[pid] = res
			rmu.Unlock()
		}(pid)
	}
	wg.Wait()

	s.finish(ctx, id, results, aggregateErrors(results))
	return nil
}

// dispatchPlatform performs one platform call and normalizes the outcome.
// Dispatcher panics are contained to this platform's result.
func (s *Service) dispatchPlatform(ctx context.Context, pid platform.ID, content platform.Content, bundle platform.Bundle) (out store.PlatformResult) {
	defer func() {
		if r := recover(); r != nil {
			out = store.PlatformResult{ErrorMessage: fmt.Sprintf("dispatcher panic: %v", r)}
		}
	}()

	d, ok := s.reg.Lookup(pid)
	if !ok {
		return store.PlatformResult{ErrorMessage: "no dispatcher registered"}
	}
	if s.limiter != nil {
		_ = s.limiter.Wait(ctx)
	}

	res, err := d.Post(ctx, content, bundle)
	if err != nil {
		return store.PlatformResult{ErrorMessage: err.Error()}
	}
	pr := store.PlatformResult{
		Success:      res.Success,
		RemoteID:     res.RemoteID,
		ErrorMessage: res.ErrorMessage,
	}
	if !pr.Success && pr.ErrorMessage == "" {
		pr.ErrorMessage = "dispatch failed"
	}
	return pr
}

// finish persists the aggregated outcome and notifies the reporter.
// results may be nil when no platform was attempted (credentials failure);
// errMsg empty means every attempted platform succeeded.
func (s *Service) finish(ctx context.Context, id string, results map[platform.ID]store.PlatformResult, errMsg string) {
	posted := errMsg == "" && len(results) > 0
	final, err := s.store.Update(ctx, id, func(p *store.Post) error {
		if p.PlatformResults == nil {
			p.PlatformResults = map[platform.ID]store.PlatformResult{}
		}
		// Overwrite attempted platforms only; prior entries stay for audit.
		for k, v := range results {
			p.PlatformResults[k] = v
		}
		if posted {
			p.Status = store.StatusPosted
			p.PostedTime = s.now()
			p.ErrorMessage = ""
		} else {
			p.Status = store.StatusFailed
			p.ErrorMessage = errMsg
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// Canceled while dispatching. The remote side effect (if any)
			// already happened and cannot be recalled; just don't record it.
			s.log.Info("post canceled mid-dispatch; outcome dropped", logx.String("post_id", id))
			return
		}
		// The record stays processing; it will be surfaced as indeterminate
		// on the next startup scan.
		s.log.Error("persisting dispatch outcome failed", logx.String("post_id", id), logx.Err(err))
		s.notifyError(fmt.Sprintf("storage error on post %s: %v", id, err))
		return
	}

	if posted {
		s.log.Info("post delivered",
			logx.String("post_id", id),
			logx.Int("platforms", len(results)),
		)
		s.notifySuccess(fmt.Sprintf("post %s delivered to %d platform(s)", id, len(results)))
		for _, pid := range sortedIDs(results) {
			r := results[pid]
			if r.Success && strings.HasPrefix(r.RemoteID, "http") {
				s.notifyLink(r.RemoteID)
			}
		}
		return
	}

	s.log.Warn("post failed",
		logx.String("post_id", id),
		logx.String("err_message", final.ErrorMessage),
	)
	s.notifyError(fmt.Sprintf("post %s failed: %s", id, final.ErrorMessage))
}

// aggregateErrors builds the user-visible failure message: every failed
// platform's message, sorted by platform id and joined with "; ". The
// policy is deterministic so repeated attempts produce identical output.
func aggregateErrors(results map[platform.ID]store.PlatformResult) string {
	var parts []string
	for _, pid := range sortedIDs(results) {
		r := results[pid]
		if r.Success {
			continue
		}
		parts = append(parts, fmt.Sprintf("%s: %s", pid, r.ErrorMessage))
	}
	return strings.Join(parts, "; ")
}

func sortedIDs(results map[platform.ID]store.PlatformResult) []platform.ID {
	ids := make([]platform.ID, 0, len(results))
	for id := range results {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
