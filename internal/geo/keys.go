// Package geo joins per-sector metrics back onto census geometry.
package geo

import "strings"

// NormalizeKey aligns sector identifiers across sources before any join.
// Geometry files and event extracts disagree in three recurring ways: stray
// whitespace, identifiers exported through floating point
// ("355030805000001.0"), and a trailing letter qualifier on preliminary
// sectors ("355030805000001P"). One pure function applied to both sides of
// every join replaces per-call string surgery.
func NormalizeKey(id string) string {
	s := strings.ToUpper(strings.TrimSpace(id))
	if i := strings.IndexByte(s, '.'); i >= 0 {
		s = s[:i]
	}
	for len(s) > 0 {
		c := s[len(s)-1]
		if c < 'A' || c > 'Z' {
			break
		}
		s = s[:len(s)-1]
	}
	return s
}
