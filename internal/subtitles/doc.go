// Package subtitles renders timed transcript segments as SubRip (SRT) text and
// writes transcript outputs next to the fetched audio.
//
// FormatTime and Format produce the canonical HH:MM:SS,mmm cue layout.
// ParseTimestamp and CountCues read the files back for status and CLI output.
package subtitles
