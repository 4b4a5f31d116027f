// Package store persists scheduled posts.
//
// The default backend keeps the whole collection in one JSON file and
// rewrites it atomically (temp file + rename) on every mutation, so the
// file is never observed in a structurally invalid state.
package store
