// Package report carries scheduler outcome notifications to logging/UI
// collaborators. Reporting is purely observational: nothing here feeds
// back into scheduler state, and a misbehaving reporter must never take
// the dispatch loop down with it.
package report

import (
	logx "crossposter/pkg/logx"
)

// Reporter receives fire-and-forget status notifications.
type Reporter interface {
	OnSuccess(msg string)
	OnError(msg string)
	OnLinkPrepared(url string)
}

// Nop is a Reporter that ignores everything.
type Nop struct{}

func (Nop) OnSuccess(string)      {}
func (Nop) OnError(string)        {}
func (Nop) OnLinkPrepared(string) {}

// Log writes notifications to a structured logger.
type Log struct{ L logx.Logger }

func NewLog(l logx.Logger) *Log {
	if l.IsZero() {
		l = logx.Nop()
	}
	return &Log{L: l}
}

func (r *Log) OnSuccess(msg string)      { r.L.Info(msg) }
func (r *Log) OnError(msg string)        { r.L.Error(msg) }
func (r *Log) OnLinkPrepared(url string) { r.L.Info("post link ready", logx.String("url", url)) }

// Multi fans out to several reporters in order.
type Multi []Reporter

func (m Multi) OnSuccess(msg string) {
	for _, r := range m {
		if r != nil {
			r.OnSuccess(msg)
		}
	}
}

func (m Multi) OnError(msg string) {
	for _, r := range m {
		if r != nil {
			r.OnError(msg)
		}
	}
}

func (m Multi) OnLinkPrepared(url string) {
	for _, r := range m {
		if r != nil {
			r.OnLinkPrepared(url)
		}
	}
}
