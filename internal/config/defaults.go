package config

// Transcription engines understood by the transcriber.
const (
	EngineWhisper  = "whisper"
	EngineWhisperX = "whisperx"
)

const (
	defaultConfigPath       = "~/.config/dharma/config.toml"
	defaultDownloadsDir     = "~/.local/share/dharma/downloads"
	defaultDatabasePath     = "~/.local/share/dharma/transcriptions.db"
	defaultLogDir           = "~/.local/share/dharma/logs"
	defaultAPIBind          = "0.0.0.0:5000"
	defaultYtDlpBinary      = "yt-dlp"
	defaultFormat           = "bestaudio/best"
	defaultAudioCodec       = "mp3"
	defaultAudioBitrate     = "192K"
	defaultAudioChannels    = 1
	defaultPlaceholderTitle = "unknown_file"
	defaultEngine           = EngineWhisper
	defaultModel            = "base"
	defaultLogFormat        = "console"
	defaultLogLevel         = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DownloadsDir: defaultDownloadsDir,
			DatabasePath: defaultDatabasePath,
			LogDir:       defaultLogDir,
			APIBind:      defaultAPIBind,
		},
		Fetcher: Fetcher{
			YtDlpBinary:      defaultYtDlpBinary,
			Format:           defaultFormat,
			AudioCodec:       defaultAudioCodec,
			AudioBitrate:     defaultAudioBitrate,
			AudioChannels:    defaultAudioChannels,
			PlaceholderTitle: defaultPlaceholderTitle,
		},
		Transcriber: Transcriber{
			Engine: defaultEngine,
			Model:  defaultModel,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
