// Package integration runs the posting sync service end to end against a
// Postgres container and a fake recruiting provider: triggered cycles,
// keyword status, watchlist notifications and event streams.
package integration
