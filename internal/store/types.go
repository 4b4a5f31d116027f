package store

import (
	"errors"
	"sort"
	"time"

	"crossposter/internal/platform"
)

// ErrNotFound is returned for operations on unknown post ids.
var ErrNotFound = errors.New("post not found")

// ValidationError rejects malformed input before anything is persisted.
type ValidationError struct {
	Err error
}

func (e *ValidationError) Error() string { return "invalid post: " + e.Err.Error() }
func (e *ValidationError) Unwrap() error { return e.Err }

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// Status is the lifecycle state of a scheduled post.
//
//	scheduled -> processing -> posted
//	scheduled -> processing -> failed
//	failed    -> processing -> posted|failed   (explicit retry only)
//
// processing is transient within one dispatch cycle; a post found processing
// at startup is a crash leftover and stays visible until retried or deleted.
type Status string

const (
	StatusScheduled  Status = "scheduled"
	StatusProcessing Status = "processing"
	StatusPosted     Status = "posted"
	StatusFailed     Status = "failed"
)

// PlatformResult records the outcome of one platform's delivery attempt.
// Entries are only ever overwritten by a later attempt, never removed.
type PlatformResult struct {
	Success      bool   `json:"success"`
	RemoteID     string `json:"remoteId,omitempty"`
	ErrorMessage string `json:"errorMessage,omitempty"`
}

// Post is the persisted unit of work.
type Post struct {
	ID            string        `json:"id"`
	ScheduledTime time.Time     `json:"scheduledTime"`
	Text          string        `json:"text"`
	Media         string        `json:"media,omitempty"`
	Platforms     []platform.ID `json:"platforms"`
	Status        Status        `json:"status"`
	Created       time.Time     `json:"created"`
	PostedTime    time.Time     `json:"postedTime,omitzero"`
	ErrorMessage  string        `json:"errorMessage,omitempty"`

	PlatformResults map[platform.ID]PlatformResult `json:"platformResults,omitempty"`
}

// Clone returns a deep copy so callers can't mutate stored state.
func (p *Post) Clone() *Post {
	if p == nil {
		return nil
	}
	cp := *p
	cp.Platforms = append([]platform.ID(nil), p.Platforms...)
	if p.PlatformResults != nil {
		cp.PlatformResults = make(map[platform.ID]PlatformResult, len(p.PlatformResults))
		for k, v := range p.PlatformResults {
			cp.PlatformResults[k] = v
		}
	}
	return &cp
}

// Draft is the caller-supplied input for a new post.
type Draft struct {
	Text          string
	Media         string
	ScheduledTime time.Time
	Platforms     []platform.ID
}

// SortByScheduledTime orders posts chronologically (stable for equal times).
func SortByScheduledTime(posts []*Post) {
	sort.SliceStable(posts, func(i, j int) bool {
		return posts[i].ScheduledTime.Before(posts[j].ScheduledTime)
	})
}
