// Package uid generates identifiers: snowflake numbers for database rows,
// UUIDv7 strings for references and 64-char hex opaque tokens.
package uid

// NumberID produces sortable numeric identifiers.
type NumberID interface {
	Generate() int64
}

// StringID produces string identifiers.
type StringID interface {
	Generate() string
}
