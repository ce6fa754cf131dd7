package explore

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"tableflip.dev/diary/pkg/docs"
)

// Token renders a page cursor as an opaque string for callers that carry it
// across processes, such as the CLI and the MCP tools. A nil cursor is "".
func Token(c *docs.Cursor) string {
	if c == nil {
		return ""
	}
	ms, ok := docs.ToEpochMillis(c.Value)
	if !ok {
		return "." + c.ID
	}
	return strconv.FormatInt(ms, 10) + "." + c.ID
}

// ParseToken reverses Token. An empty token is a nil cursor.
func ParseToken(s string) (*docs.Cursor, error) {
	if s == "" {
		return nil, nil
	}
	ms, id, ok := strings.Cut(s, ".")
	if !ok || id == "" {
		return nil, fmt.Errorf("explore: malformed cursor %q", s)
	}
	if ms == "" {
		return &docs.Cursor{ID: id}, nil
	}
	n, err := strconv.ParseInt(ms, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("explore: malformed cursor %q: %w", s, err)
	}
	return &docs.Cursor{ID: id, Value: docs.TimestampOf(time.UnixMilli(n))}, nil
}
