// Package config loads, normalizes, and validates the icloudsort TOML
// configuration.
//
// Sources and the output root are CLI inputs, not configuration; the config
// file carries the environment-specific knobs: CSV column names for the
// export's sidecar files, the exiftool binary and its invocation timeout,
// worker counts, and logging.
package config
