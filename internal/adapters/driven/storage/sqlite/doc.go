// Package sqlite mirrors exported issue records into a SQLite database.
//
// The mirror is insert-only: every batch becomes new rows tagged with the
// export run ID, and earlier rows are never updated or deleted. Repeated
// runs therefore store repeated records, the same as the NDJSON archive.
//
// The pure-Go modernc.org/sqlite driver is used so the binary stays
// cgo-free.
package sqlite
