// Package services defines shared utilities consumed by the pipeline stages
// and the external tool integrations beneath it.
//
// Key responsibilities:
//   - Context helpers that stamp request IDs, stage names, and transcript
//     record IDs for logging.
//   - Structured error markers plus the Wrap helper so every stage failure
//     carries one of the pipeline's error kinds.
//
// Subpackages wrap the external command line tools (yt-dlp, whisper) behind
// small testable services.
package services
