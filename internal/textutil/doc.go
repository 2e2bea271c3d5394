// Package textutil provides filename sanitization for media titles.
//
// Titles arrive from remote metadata and may contain characters that are
// reserved on common filesystems. SanitizeFileName maps each reserved rune to
// an underscore and leaves every other rune untouched, so the mapping is total
// and idempotent.
package textutil
