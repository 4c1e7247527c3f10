// Package sqlite provides a SQLite-backed driven.ConversationStore.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that
// requires no CGO, so the pagechat binary cross-compiles cleanly.
//
// # Schema
//
// The schema is managed through versioned migrations embedded from the
// migrations/ directory. Each migration is a pair of .up.sql and .down.sql files.
//
// # Data Location
//
// By default, the database is stored at ~/.pagechat/data/pagechat.db
//
// # Concurrency
//
// Appends are optimistic. Each conversation row carries a version and an
// append only succeeds when the caller's expected version still matches,
// otherwise domain.ErrVersionConflict is returned and the caller reloads.
package sqlite
