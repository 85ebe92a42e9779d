// Package stacktrace trims runtime stack dumps down to this module's frames.
package stacktrace

import (
	"bufio"
	"bytes"
	"strings"
)

// InternalPaths returns the "internal/<pkg>/<file>.go:<line>" locations found
// in a debug.Stack dump, innermost first. Frames outside internal/ are dropped.
func InternalPaths(stack []byte) []string {
	var paths []string

	sc := bufio.NewScanner(bytes.NewReader(stack))
	for sc.Scan() {
		line := sc.Text()
		// File locations are the tab-indented lines: "\t/abs/path.go:42 +0x1d".
		if !strings.HasPrefix(line, "\t") {
			continue
		}
		loc, _, _ := strings.Cut(strings.TrimSpace(line), " ")
		if !strings.Contains(loc, ".go:") {
			continue
		}
		if i := strings.Index(loc, "/internal/"); i >= 0 {
			paths = append(paths, loc[i+1:])
		}
	}

	return paths
}
