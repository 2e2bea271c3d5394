package subtitles

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Segment is one timed piece of a transcript.
type Segment struct {
	// Index is the 1-based position within the transcript.
	Index int     `json:"index"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

const secondsPerDay = 24 * 60 * 60

// FormatTime renders seconds as an SRT timestamp. Hours wrap at 24; negative
// and non-finite input renders as zero.
func FormatTime(seconds float64) string {
	if seconds < 0 || math.IsNaN(seconds) || math.IsInf(seconds, 0) {
		seconds = 0
	}
	if seconds >= secondsPerDay {
		seconds = math.Mod(seconds, secondsPerDay)
	}
	// Nudge before flooring so values like 1.001 keep their millisecond.
	totalMillis := int64(math.Floor(seconds*1000 + 1e-6))
	millis := totalMillis % 1000
	totalSeconds := totalMillis / 1000
	hours := (totalSeconds / 3600) % 24
	minutes := (totalSeconds / 60) % 60
	secs := totalSeconds % 60
	return fmt.Sprintf("%02d:%02d:%02d,%03d", hours, minutes, secs, millis)
}

// Format renders segments as SRT text. Cues are numbered by position starting
// at 1. An empty slice yields an empty string.
func Format(segments []Segment) string {
	if len(segments) == 0 {
		return ""
	}
	var b strings.Builder
	b.Grow(len(segments) * 64)
	for i, seg := range segments {
		b.WriteString(strconv.Itoa(i + 1))
		b.WriteByte('\n')
		b.WriteString(FormatTime(seg.Start))
		b.WriteString(" --> ")
		b.WriteString(FormatTime(seg.End))
		b.WriteByte('\n')
		b.WriteString(strings.TrimSpace(seg.Text))
		b.WriteString("\n\n")
	}
	return b.String()
}
