// Package stores provides persistence layer implementations for the
// maintenance engine. It includes SQLite-based storage with WAL mode,
// connection pooling, versioned work order updates, and CRUD operations
// for history, checklist templates, machines, stop logs, line starts,
// and audit entries.
package stores
