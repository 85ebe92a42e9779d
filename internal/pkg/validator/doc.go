// Package validator checks request structs before they reach a usecase.
// Failures come back as V10ValidationError, a map from snake_case field
// names to translated English messages.
package validator
