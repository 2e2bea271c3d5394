// Package pipeline composes fetch, transcription, subtitle formatting, and
// persistence into a single run.
//
// Process never returns an error or panics; every failure is folded into a
// Result that names the stage that failed. A transcript record is written
// only after every earlier stage has succeeded, so the store never holds a
// partial run.
package pipeline
