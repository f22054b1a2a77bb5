package routes

import "strings"

// pattern is a path split into segments. Parameter segments match any
// single non-empty segment.
type pattern struct {
	raw      string
	segments []segment
}

type segment struct {
	literal string
	param   bool
}

func compilePattern(path string) pattern {
	parts := splitPath(path)
	segs := make([]segment, len(parts))
	for i, p := range parts {
		if len(p) > 2 && strings.HasPrefix(p, "{") && strings.HasSuffix(p, "}") {
			segs[i] = segment{param: true}
			continue
		}
		segs[i] = segment{literal: p}
	}
	return pattern{raw: path, segments: segs}
}

func (p pattern) match(path string) bool {
	parts := splitPath(path)
	if len(parts) != len(p.segments) {
		return false
	}
	for i, seg := range p.segments {
		if seg.param {
			if parts[i] == "" {
				return false
			}
			continue
		}
		if seg.literal != parts[i] {
			return false
		}
	}
	return true
}

// splitPath returns the segments of path; "/" has none.
func splitPath(path string) []string {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "/")
}
