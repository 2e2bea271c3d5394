// Package config loads, normalizes, and validates dharma configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// DHARMA_DOWNLOADS_DIR and FFMPEG_LOCATION. The Config type centralizes the
// knobs the server, the pipeline, and the CLI need: storage locations, the
// external tool binaries, and the speech model selection.
//
// Always obtain settings through this package so downstream code receives
// absolute paths, canonical log formats, and clear validation errors.
package config
