package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"crossposter/internal/platform"
	"crossposter/internal/store"
)

func TestEditScheduledPost(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p, err := f.svc.Schedule(ctx, store.Draft{
		Text:          "draft text",
		ScheduledTime: f.clock().Add(time.Hour),
		Platforms:     []platform.ID{platform.Telegram},
	})
	if err != nil {
		t.Fatalf("schedule: %v", err)
	}

	newText := "final text"
	got, err := f.svc.Edit(ctx, p.ID, Patch{Text: &newText})
	if err != nil {
		t.Fatalf("edit: %v", err)
	}
	if got.Text != newText {
		t.Fatalf("text not updated: %q", got.Text)
	}
	// Only the provided fields change.
	if !got.ScheduledTime.Equal(p.ScheduledTime) {
		t.Fatal("scheduledTime must be unchanged")
	}
	if len(got.Platforms) != 1 || got.Platforms[0] != platform.Telegram {
		t.Fatalf("platforms must be unchanged: %v", got.Platforms)
	}

	later := f.clock().Add(2 * time.Hour)
	got, err = f.svc.Edit(ctx, p.ID, Patch{
		ScheduledTime: &later,
		Platforms:     []platform.ID{platform.Telegram, platform.Linkedin},
	})
	if err != nil {
		t.Fatalf("edit: %v", err)
	}
	if !got.ScheduledTime.Equal(later) || len(got.Platforms) != 2 {
		t.Fatalf("patch not applied: %+v", got)
	}
}

func TestEditRejectsInvalidPatch(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p, err := f.svc.Schedule(ctx, store.Draft{
		Text:          "x",
		ScheduledTime: f.clock().Add(time.Hour),
		Platforms:     []platform.ID{platform.Telegram},
	})
	if err != nil {
		t.Fatalf("schedule: %v", err)
	}

	if _, err := f.svc.Edit(ctx, p.ID, Patch{Platforms: []platform.ID{}}); !store.IsValidation(err) {
		t.Fatalf("expected validation error for empty platforms, got %v", err)
	}
	empty := ""
	if _, err := f.svc.Edit(ctx, p.ID, Patch{Text: &empty}); !store.IsValidation(err) {
		t.Fatalf("expected validation error for empty text, got %v", err)
	}

	// A rejected edit leaves the record untouched.
	got, err := f.st.Get(ctx, p.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Text != "x" || len(got.Platforms) != 1 {
		t.Fatalf("rejected edit modified the record: %+v", got)
	}
}

func TestEditRequiresScheduledStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.scheduleDue(t)
	f.svc.Tick(ctx) // now posted

	text := "too late"
	if _, err := f.svc.Edit(ctx, p.ID, Patch{Text: &text}); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState, got %v", err)
	}

	if _, err := f.svc.Edit(ctx, "nope", Patch{Text: &text}); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRetryRequiresRetryableStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p, err := f.svc.Schedule(ctx, store.Draft{
		Text:          "x",
		ScheduledTime: f.clock().Add(time.Hour),
		Platforms:     []platform.ID{platform.Telegram},
	})
	if err != nil {
		t.Fatalf("schedule: %v", err)
	}

	if err := f.svc.Retry(ctx, p.ID); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("retry of a scheduled post must fail, got %v", err)
	}
	if err := f.svc.Retry(ctx, "nope"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	done := f.scheduleDue(t)
	f.svc.Tick(ctx) // posted
	if err := f.svc.Retry(ctx, done.ID); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("retry of a posted post must fail, got %v", err)
	}
}

func TestRetryWhileDispatchingIsRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.telegram.setFail(true)
	p := f.scheduleDue(t)
	f.svc.Tick(ctx) // failed

	// Another caller holds the record's in-flight slot.
	if !f.svc.acquire(p.ID) {
		t.Fatal("acquire failed")
	}
	defer f.svc.release(p.ID)

	if err := f.svc.Retry(ctx, p.ID); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState while dispatching, got %v", err)
	}
}

func TestCancelInAnyState(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p := f.scheduleDue(t)
	f.svc.Tick(ctx) // posted
	if err := f.svc.Cancel(ctx, p.ID); err != nil {
		t.Fatalf("cancel posted: %v", err)
	}
	// Duplicate cancel is tolerated.
	if err := f.svc.Cancel(ctx, p.ID); err != nil {
		t.Fatalf("duplicate cancel: %v", err)
	}
	if _, err := f.st.Get(ctx, p.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected record gone, got %v", err)
	}
}

func TestListIsChronological(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for _, offset := range []time.Duration{3 * time.Hour, time.Hour, 2 * time.Hour} {
		if _, err := f.svc.Schedule(ctx, store.Draft{
			Text:          "x",
			ScheduledTime: f.clock().Add(offset),
			Platforms:     []platform.ID{platform.Telegram},
		}); err != nil {
			t.Fatalf("schedule: %v", err)
		}
	}

	posts, err := f.svc.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	for i := 1; i < len(posts); i++ {
		if posts[i].ScheduledTime.Before(posts[i-1].ScheduledTime) {
			t.Fatal("list must be chronological")
		}
	}
}
