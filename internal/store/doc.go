// Package store is the storage medium for the meal database: a directory of
// named SQLite files opened through github.com/mattn/go-sqlite3.
//
// A Medium hands out at most one Handle per Open call. The Handle is the
// ownership token for the open database; whoever holds it must Close it on
// every exit path. Medium.Stats counts opens and closes so tests can prove
// that handles are released 1:1.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//
// Errors are typed (OpenError, CloseError, DeleteError) and wrap the driver
// error, so callers can match them with errors.As.
package store
