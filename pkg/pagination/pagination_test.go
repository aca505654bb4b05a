package pagination

import (
	"encoding/base64"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func TestParseCursor(t *testing.T) {
	want := Cursor{CreatedAt: time.Date(2026, 1, 2, 3, 4, 5, 6, time.UTC), ID: uuid.New()}
	got, err := ParseCursor(want.String())
	require.NoError(t, err)
	assert.True(t, got.CreatedAt.Equal(want.CreatedAt))
	assert.Equal(t, want.ID, got.ID)
	assert.NotContains(t, want.String(), "=", "cursor must be query-string safe")

	first, err := ParseCursor("  ")
	assert.NoError(t, err)
	assert.Nil(t, first)

	for _, bad := range []string{
		"not base64!",
		base64.RawURLEncoding.EncodeToString([]byte("[]")),
		base64.RawURLEncoding.EncodeToString([]byte(`{"t":"2026-01-01T00:00:00Z"}`)),
	} {
		_, err := ParseCursor(bad)
		assert.ErrorIs(t, err, ErrInvalidCursor, bad)
	}
}

func TestClamp(t *testing.T) {
	for in, want := range map[int]int{0: DefaultLimit, -3: DefaultLimit, 10: 10, MaxLimit + 1: MaxLimit} {
		assert.Equal(t, want, clamp(in), "clamp(%d)", in)
	}
}

type entry struct {
	ID        uuid.UUID `gorm:"type:text;primaryKey"`
	CreatedAt time.Time
}

func TestKeysetWalksEveryRowOnce(t *testing.T) {
	conn, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	pool, err := conn.DB()
	require.NoError(t, err)
	pool.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = pool.Close() })
	require.NoError(t, conn.AutoMigrate(&entry{}))

	// two rows share a timestamp so the id tiebreak is exercised
	base := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	stamps := []time.Time{base, base, base.Add(time.Minute), base.Add(2 * time.Minute), base.Add(3 * time.Minute)}
	for _, at := range stamps {
		require.NoError(t, conn.Create(&entry{ID: uuid.New(), CreatedAt: at}).Error)
	}

	key := func(e entry) Cursor { return Cursor{CreatedAt: e.CreatedAt, ID: e.ID} }
	seen := map[uuid.UUID]bool{}
	var cursor *Cursor
	pages := 0
	for {
		var rows []entry
		require.NoError(t, conn.Scopes(Keyset(cursor, 2)).Find(&rows).Error)
		page, next := Page(rows, 2, key)
		pages++
		for _, row := range page {
			assert.False(t, seen[row.ID], "row returned twice")
			seen[row.ID] = true
		}
		if next == "" {
			break
		}
		cursor, err = ParseCursor(next)
		require.NoError(t, err)
	}
	assert.Len(t, seen, len(stamps))
	assert.Equal(t, 3, pages)
}

func TestPageOnLastPage(t *testing.T) {
	rows := []int{1, 2}
	page, next := Page(rows, 3, func(int) Cursor { return Cursor{} })
	assert.Equal(t, rows, page)
	assert.Empty(t, next)
}
