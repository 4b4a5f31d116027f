// Package scheduler polls the post store, dispatches due posts to their
// destination platforms, and durably records each outcome.
//
// Status model per record:
//
//	scheduled -> processing -> posted
//	scheduled -> processing -> failed
//	failed    -> processing -> posted|failed   (explicit Retry only)
//
// processing is persisted before the first external call of a cycle and
// resolved to posted/failed by the end of that cycle. A record found
// processing at startup was interrupted mid-dispatch; its remote outcome
// is unknown, so it is surfaced for manual retry instead of auto-resumed.
package scheduler
