package trigger

import (
	"fmt"
	"strings"
)

// Pattern is a document path template such as
// "ChatRoom/{chatRoomId}/messages/{messageId}". Each {name} segment matches
// exactly one non-empty path segment.
type Pattern struct {
	raw      string
	segments []segment
}

type segment struct {
	literal string
	param   string
}

func ParsePattern(raw string) (Pattern, error) {
	trimmed := strings.Trim(raw, "/")
	if trimmed == "" {
		return Pattern{}, fmt.Errorf("empty pattern")
	}

	parts := strings.Split(trimmed, "/")
	segments := make([]segment, 0, len(parts))
	seen := make(map[string]struct{})
	for _, p := range parts {
		switch {
		case p == "":
			return Pattern{}, fmt.Errorf("pattern %q has an empty segment", raw)
		case strings.HasPrefix(p, "{") && strings.HasSuffix(p, "}"):
			name := p[1 : len(p)-1]
			if name == "" {
				return Pattern{}, fmt.Errorf("pattern %q has an unnamed wildcard", raw)
			}
			if _, dup := seen[name]; dup {
				return Pattern{}, fmt.Errorf("pattern %q repeats wildcard %q", raw, name)
			}
			seen[name] = struct{}{}
			segments = append(segments, segment{param: name})
		case strings.ContainsAny(p, "{}"):
			return Pattern{}, fmt.Errorf("pattern %q has a malformed segment %q", raw, p)
		default:
			segments = append(segments, segment{literal: p})
		}
	}

	return Pattern{raw: raw, segments: segments}, nil
}

func (p Pattern) String() string {
	return p.raw
}

// Match resolves the wildcard segments of path. ok is false when the path
// does not fit the pattern.
func (p Pattern) Match(path string) (params map[string]string, ok bool) {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) != len(p.segments) {
		return nil, false
	}

	params = make(map[string]string)
	for i, seg := range p.segments {
		part := parts[i]
		if part == "" {
			return nil, false
		}
		if seg.param != "" {
			params[seg.param] = part
			continue
		}
		if seg.literal != part {
			return nil, false
		}
	}

	return params, true
}
