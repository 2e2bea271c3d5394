package ytdlp

// Config captures runtime settings for yt-dlp invocations.
type Config struct {
	// Binary is the yt-dlp executable name or path.
	Binary string
	// FFmpegLocation is passed through --ffmpeg-location when set.
	FFmpegLocation string
	// Format is the yt-dlp format selector.
	Format string
	// AudioCodec is the post-processing target (mp3, m4a, ...).
	AudioCodec string
	// AudioBitrate is the --audio-quality value, e.g. "192K".
	AudioBitrate string
	// AudioChannels is forwarded to ffmpeg as -ac.
	AudioChannels int
}

// Defaults used when Config fields are empty.
const (
	DefaultBinary        = "yt-dlp"
	DefaultFormat        = "bestaudio/best"
	DefaultAudioCodec    = "mp3"
	DefaultAudioBitrate  = "192K"
	DefaultAudioChannels = 1
	OutputTemplate       = "%(id)s.%(ext)s"
	stderrTailLimit      = 2048
)
