// SPDX-License-Identifier: MPL-2.0

// Package config loads pyenvs settings with Viper, using CUE as the file
// format.
//
// The file lives at $XDG_CONFIG_HOME/pyenvs/config.cue on Linux,
// ~/Library/Application Support/pyenvs/config.cue on macOS and
// %APPDATA%\pyenvs\config.cue on Windows. It is validated against the
// embedded config_schema.cue before being merged over the defaults, and
// PYENVS_-prefixed environment variables override both
// (PYENVS_INSPECT_WORKERS=4 sets inspect.workers).
package config
