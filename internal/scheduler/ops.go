package scheduler

import (
	"context"
	"fmt"

	"crossposter/internal/store"
	logx "crossposter/pkg/logx"
)

// Schedule validates and persists a new post. It always starts scheduled;
// the poll loop picks it up once its time arrives.
func (s *Service) Schedule(ctx context.Context, d store.Draft) (*store.Post, error) {
	p, err := s.store.Create(ctx, d)
	if err != nil {
		return nil, err
	}
	s.log.Info("post scheduled",
		logx.String("post_id", p.ID),
		logx.Time("scheduled", p.ScheduledTime),
		logx.Int("platforms", len(p.Platforms)),
	)
	return p, nil
}

// Edit replaces time, platforms and/or text of a post that has not been
// dispatched yet. Any other status is rejected with ErrInvalidState.
func (s *Service) Edit(ctx context.Context, id string, patch Patch) (*store.Post, error) {
	p, err := s.store.Update(ctx, id, func(p *store.Post) error {
		if p.Status != store.StatusScheduled {
			return fmt.Errorf("%w: cannot edit a %s post", ErrInvalidState, p.Status)
		}
		if patch.ScheduledTime != nil {
			p.ScheduledTime = *patch.ScheduledTime
		}
		if patch.Platforms != nil {
			p.Platforms = store.NormalizePlatforms(patch.Platforms)
		}
		if patch.Text != nil {
			p.Text = *patch.Text
		}
		return store.ValidateDraft(store.Draft{
			Text:          p.Text,
			Media:         p.Media,
			ScheduledTime: p.ScheduledTime,
			Platforms:     p.Platforms,
		})
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("post edited", logx.String("post_id", id))
	return p, nil
}

// Retry re-enters the dispatch cycle for one record, outside the normal
// tick. Permitted for failed posts, and for processing leftovers from a
// crashed run (those are indeterminate and only move on operator action).
// All of the record's platforms are re-attempted, including ones that
// already succeeded in a partial failure; their results are overwritten.
func (s *Service) Retry(ctx context.Context, id string) error {
	p, err := s.store.Get(ctx, id)
	if err != nil {
		return err
	}
	switch p.Status {
	case store.StatusFailed:
		// retryable
	case store.StatusProcessing:
		if s.isInflight(id) {
			return fmt.Errorf("%w: post %s is currently dispatching", ErrInvalidState, id)
		}
		// Crash leftover: safe to re-attempt on explicit request.
	default:
		return fmt.Errorf("%w: cannot retry a %s post", ErrInvalidState, p.Status)
	}

	if !s.acquire(id) {
		return fmt.Errorf("%w: post %s is currently dispatching", ErrInvalidState, id)
	}
	defer s.release(id)

	s.log.Info("retrying post", logx.String("post_id", id))
	return s.dispatch(ctx, id)
}

// Cancel removes a post in any state. For a record currently dispatching
// this is best-effort: calls already issued are not recalled, but their
// outcome will not be recorded.
func (s *Service) Cancel(ctx context.Context, id string) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	s.log.Info("post canceled", logx.String("post_id", id))
	return nil
}

// List returns all posts, ordered chronologically for display.
func (s *Service) List(ctx context.Context) ([]*store.Post, error) {
	posts, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}
	store.SortByScheduledTime(posts)
	return posts, nil
}
