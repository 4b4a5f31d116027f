// Package creds supplies per-platform credential bundles to the scheduler.
package creds

import (
	"context"
	"fmt"

	"crossposter/internal/platform"
)

// Set maps a platform to its credential bundle.
type Set map[platform.ID]platform.Bundle

// Bundle returns the bundle for id, or an empty one.
func (s Set) Bundle(id platform.ID) platform.Bundle {
	if b, ok := s[id]; ok {
		return b
	}
	return platform.Bundle{}
}

// Provider resolves the current credential set. The scheduler calls
// Resolve once per dispatch cycle per record, so dynamic providers can
// rotate tokens between cycles.
type Provider interface {
	Resolve(ctx context.Context) (Set, error)
}

// Static always returns the same set.
type Static struct{ set Set }

func NewStatic(set Set) *Static { return &Static{set: set} }

func (p *Static) Resolve(ctx context.Context) (Set, error) {
	_ = ctx
	if p.set == nil {
		return Set{}, nil
	}
	return p.set, nil
}

// ResolveError wraps a provider failure. A record whose cycle hits one is
// marked failed without attempting any platform.
type ResolveError struct{ Err error }

func (e *ResolveError) Error() string { return fmt.Sprintf("credentials: %v", e.Err) }
func (e *ResolveError) Unwrap() error { return e.Err }
