// Package config reads typed settings from a YAML file (hot reloaded) with
// environment variable overrides.
package config

import (
	"io"
	"time"
)

// TimeConfig reads integer settings as durations in the named unit.
type TimeConfig interface {
	GetSecond(key string) time.Duration
	GetMinute(key string) time.Duration
	GetHour(key string) time.Duration
	GetDay(key string) time.Duration
}

// Config is the read side of the application configuration. Missing keys
// return the zero value unless a default is registered.
type Config interface {
	io.Closer
	TimeConfig

	GetInt(key string) int
	GetInt64(key string) int64
	GetFloat64(key string) float64
	GetBool(key string) bool
	GetString(key string) string

	// GetBinary decodes a base64 value.
	GetBinary(key string) []byte

	// GetArray splits "a,b,c" (or reads a YAML list) into trimmed, non-empty elements.
	GetArray(key string) []string

	// GetMap parses "k1:v1,k2:v2".
	GetMap(key string) map[string]string
}
