package cache

import (
	"sort"
	"strings"
)

// Key builds the deterministic cache key for an operation and its
// parameters: the operation name followed by the parameter pairs rendered
// as a JSON object with alphabetically sorted keys, e.g.
// getProfile:{"userId":"abc"}. The sort makes the key independent of
// argument declaration order, which the invalidation rules rely on.
func Key(operation string, params map[string]string) string {
	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString(operation)
	b.WriteString(":{")
	for i, name := range names {
		if i > 0 {
			b.WriteByte(',')
		}
		writeJSONString(&b, name)
		b.WriteByte(':')
		writeJSONString(&b, params[name])
	}
	b.WriteByte('}')
	return b.String()
}

func writeJSONString(b *strings.Builder, s string) {
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
}
