// Package ytdlp wraps the yt-dlp command line tool for audio-only downloads.
//
// The client requests the best available audio stream, asks yt-dlp to
// transcode it through ffmpeg, and reads the single JSON metadata document
// printed on stdout to recover the title and final file path. Command
// execution is injectable so callers can test without the real binary.
package ytdlp
