// Package logx wraps zerolog with a small Field-based API and a Service
// that can swap sinks and levels at runtime.
//
// The zero value of Logger is a safe no-op.
package logx
