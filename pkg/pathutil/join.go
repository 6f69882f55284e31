package pathutil

import (
	"fmt"
	"path/filepath"
	"strings"
)

// separators holds every character treated as a path separator when trimming.
const separators = "/" + string(filepath.Separator)

// Join joins parts with the OS path separator.
// Strings are used as-is, []string and []any are flattened recursively and
// any other value is formatted with fmt.Sprint.
func Join(parts ...any) string {
	segs := flatten(nil, parts)
	if len(segs) == 0 {
		return ""
	}

	out := make([]string, 0, len(segs))
	last := len(segs) - 1
	for i, s := range segs {
		if i > 0 {
			s = strings.TrimLeft(s, separators)
		}
		if i < last {
			s = strings.TrimRight(s, separators)
		}
		if s == "" && (i > 0 || segs[0] == "") {
			continue
		}
		out = append(out, s)
	}

	return strings.Join(out, string(filepath.Separator))
}

func flatten(dst []string, parts []any) []string {
	for _, p := range parts {
		switch v := p.(type) {
		case nil:
		case string:
			dst = append(dst, v)
		case []string:
			dst = append(dst, v...)
		case []any:
			dst = flatten(dst, v)
		case fmt.Stringer:
			dst = append(dst, v.String())
		default:
			dst = append(dst, fmt.Sprint(v))
		}
	}
	return dst
}
