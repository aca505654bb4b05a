package pagination

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	DefaultLimit = 25
	MaxLimit     = 100
)

// ErrInvalidCursor is returned for cursors this package did not produce.
var ErrInvalidCursor = errors.New("invalid cursor")

// Params carries a page request from the admin list endpoints.
type Params struct {
	Limit  int
	Cursor string
}

// Cursor points at the last row of the previous page. Lists are ordered
// newest first by (created_at, id), so the pair is unique and stable.
type Cursor struct {
	CreatedAt time.Time `json:"t"`
	ID        uuid.UUID `json:"id"`
}

// String encodes the cursor for use in a query string.
func (c Cursor) String() string {
	raw, _ := json.Marshal(c)
	return base64.RawURLEncoding.EncodeToString(raw)
}

// ParseCursor decodes an opaque cursor. A blank value means the first page
// and yields a nil cursor.
func ParseCursor(value string) (*Cursor, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(value)
	if err != nil {
		return nil, ErrInvalidCursor
	}
	var c Cursor
	if err := json.Unmarshal(raw, &c); err != nil || c.ID == uuid.Nil || c.CreatedAt.IsZero() {
		return nil, ErrInvalidCursor
	}
	return &c, nil
}

func clamp(limit int) int {
	switch {
	case limit <= 0:
		return DefaultLimit
	case limit > MaxLimit:
		return MaxLimit
	}
	return limit
}

// Keyset scopes a query to the rows after cursor and over-fetches by one so
// Page can tell whether another page exists.
func Keyset(cursor *Cursor, limit int) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if cursor != nil {
			db = db.Where("created_at < ? OR (created_at = ? AND id < ?)", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
		}
		return db.Order("created_at DESC, id DESC").Limit(clamp(limit) + 1)
	}
}

// Page cuts rows fetched through Keyset down to limit. The returned cursor is
// empty on the last page.
func Page[T any](rows []T, limit int, key func(T) Cursor) ([]T, string) {
	limit = clamp(limit)
	if len(rows) <= limit {
		return rows, ""
	}
	return rows[:limit], key(rows[limit-1]).String()
}
