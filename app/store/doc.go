// Package store provides local persistence for the four entity
// collections: jobs, candidates, assessments and assessment responses.
// It is backed by SQLite in WAL mode with secondary indexes on the
// fields used for filtering and sorting, and stamps createdAt/updatedAt
// automatically on insert/update.
package store
