package storage

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Cursor is the decoded position of the last item of a page.
type Cursor struct {
	CreatedAt time.Time
	ID        string
}

// EncodeCursor produces the opaque token handed to clients.
func EncodeCursor(createdAt time.Time, id string) string {
	raw := fmt.Sprintf("%d|%s", createdAt.UTC().UnixNano(), id)

	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

// DecodeCursor returns ErrInvalidCursor for anything EncodeCursor did not produce.
func DecodeCursor(token string) (Cursor, error) {
	res, err := base64.RawURLEncoding.DecodeString(strings.TrimSpace(token))
	if err != nil {
		return Cursor{}, ErrInvalidCursor
	}

	parts := strings.SplitN(string(res), "|", 2)
	if len(parts) != 2 || parts[1] == "" {
		return Cursor{}, ErrInvalidCursor
	}

	ns, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return Cursor{}, ErrInvalidCursor
	}

	return Cursor{CreatedAt: time.Unix(0, ns).UTC(), ID: parts[1]}, nil
}

// After reports whether an item at (createdAt, id) sorts strictly after c in
// createdAt DESC, id DESC order.
func (c Cursor) After(createdAt time.Time, id string) bool {
	if createdAt.Equal(c.CreatedAt) {
		return id < c.ID
	}
	return createdAt.Before(c.CreatedAt)
}
