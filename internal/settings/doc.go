// Package settings loads and validates the bot's runtime settings from the
// environment file and the process environment.
//
// Process environment values take precedence over values from the file. Empty
// values count as unset, so a freshly copied template falls back to defaults
// and reports missing required variables instead of cast failures.
package settings
