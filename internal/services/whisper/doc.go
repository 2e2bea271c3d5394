// Package whisper invokes a Whisper speech recognition front end and decodes
// its JSON output.
//
// Two engines are supported: the openai-whisper command line tool and
// WhisperX launched through uvx. Both write a JSON document holding the full
// text and timed segments into an output directory chosen by the caller.
// Command execution is injectable for tests.
package whisper
