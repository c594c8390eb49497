// Package storage persists the task list between sessions.
//
// It supports:
//   - "csv": the tasks.csv line format (default)
//   - "sqlite": a SQLite database file, schema managed by goose
//
// Both drivers can also append an operator audit log of mutating commands.
package storage
