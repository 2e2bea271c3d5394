// Package transcripts persists completed transcripts in SQLite.
//
// The database holds a single transcriptions table. Its layout version is
// tracked through PRAGMA user_version so that files created by earlier
// releases, which carry the same table without a version, are adopted in
// place. Records are append-only: they are created once per successful
// pipeline run and never updated or deleted.
package transcripts
