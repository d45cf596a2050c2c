package scan

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeSearch_RESP2(t *testing.T) {
	raw := []interface{}{
		int64(7),
		"post:1", []interface{}{"title", "Hello", "status", "open"},
		"post:2", []interface{}{"title", "World", "status", "closed"},
	}

	rows, total, err := DecodeSearch(raw)
	require.NoError(t, err)
	assert.Equal(t, int64(7), total)
	assert.Equal(t, []Row{
		{"title": "Hello", "status": "open"},
		{"title": "World", "status": "closed"},
	}, rows)
}

func TestDecodeSearch_RESP3(t *testing.T) {
	raw := map[interface{}]interface{}{
		"total_results": int64(3),
		"results": []interface{}{
			map[interface{}]interface{}{
				"id":               "post:1",
				"extra_attributes": map[interface{}]interface{}{"title": "Hello"},
			},
		},
	}

	rows, total, err := DecodeSearch(raw)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Equal(t, []Row{{"title": "Hello"}}, rows)
}

func TestDecodeAggregate_RESP2HasNoIDs(t *testing.T) {
	raw := []interface{}{
		int64(2),
		[]interface{}{"status", "open", "n", "4"},
		[]interface{}{"status", "closed", "n", "1"},
	}

	rows, err := DecodeAggregate(raw)
	require.NoError(t, err)
	assert.Equal(t, []Row{
		{"status": "open", "n": "4"},
		{"status": "closed", "n": "1"},
	}, rows)
}

func TestDecode_UnsupportedReply(t *testing.T) {
	_, _, err := DecodeSearch("nope")
	assert.ErrorContains(t, err, "unsupported reply type")
}

type post struct {
	ID     int64   `search:"@id"`
	Title  string  `search:"@title,TEXT"`
	Score  float64 `search:"@score,NUMERIC"`
	Pinned bool    `search:"@pinned"`
	Secret string
}

func TestDecodeSlice_Struct(t *testing.T) {
	got, err := DecodeSlice[post]([]Row{
		{"id": "1", "title": "Hello", "score": "2.5", "pinned": "1", "Secret": "x"},
	})
	require.NoError(t, err)
	assert.Equal(t, []post{{ID: 1, Title: "Hello", Score: 2.5, Pinned: true}}, got)
}

func TestDecodeSlice_BadNumber(t *testing.T) {
	_, err := DecodeSlice[post]([]Row{{"id": "one"}})
	assert.ErrorContains(t, err, `field "id"`)
}

func TestRows(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	created := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	mock.ExpectQuery("SELECT").WillReturnRows(
		sqlmock.NewRows([]string{"id", "title", "created_at", "deleted_at"}).
			AddRow(int64(1), []byte("Hello"), created, nil),
	)

	rs, err := db.Query("SELECT id, title, created_at, deleted_at FROM posts")
	require.NoError(t, err)

	rows, err := Rows(rs)
	require.NoError(t, err)
	assert.Equal(t, []Row{{
		"id":         "1",
		"title":      "Hello",
		"created_at": "2024-03-01T12:00:00Z",
		"deleted_at": "",
	}}, rows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

type event struct {
	Seq     uint32    `search:"@seq"`
	At      time.Time `search:"@at"`
	Created time.Time `search:"@created_ts,NUMERIC"`
	Kind    string    `search:","`
	hidden  string    `search:"@hidden"`
}

func TestDecodeSlice_TimesAndUnsigned(t *testing.T) {
	got, err := DecodeSlice[event]([]Row{{
		"seq":        "7",
		"at":         "2024-03-01T12:00:00Z",
		"created_ts": "1709294400",
		"kind":       "click",
		"hidden":     "x",
	}})
	require.NoError(t, err)

	want := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	require.Len(t, got, 1)
	assert.Equal(t, uint32(7), got[0].Seq)
	assert.True(t, want.Equal(got[0].At))
	assert.True(t, want.Equal(got[0].Created))
	assert.Equal(t, "click", got[0].Kind, "an empty tag name falls back to the snake-cased field name")
	assert.Empty(t, got[0].hidden)
}

func TestDecodeSlice_Maps(t *testing.T) {
	rows := []Row{{"a": "1"}, {"b": "2"}}
	got, err := DecodeSlice[map[string]string](rows)
	require.NoError(t, err)
	assert.Equal(t, rows, got)

	_, err = DecodeSlice[int](rows)
	assert.ErrorContains(t, err, "cannot decode into int")
}
