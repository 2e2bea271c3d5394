// Package web serves the transcription pages and JSON endpoints over gin.
//
// The server renders the submission form, the repository listing, and
// individual transcripts from embedded templates, accepts pipeline runs on
// POST /process, and serves the audio, transcript, and subtitle files written
// for each title. A flock lock next to the log directory keeps a second
// server process from sharing the same transcript store.
package web
