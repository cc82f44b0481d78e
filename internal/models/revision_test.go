package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRevision_TouchAndMarkDeleted(t *testing.T) {
	var r Revision
	t0 := time.Date(2025, 3, 1, 10, 0, 0, 123456789, time.FixedZone("X", 3600))

	r.Touch(t0)
	assert.Equal(t, int64(1), r.Version)
	assert.Equal(t, time.UTC, r.UpdatedAt.Location())
	assert.Equal(t, 123456000, r.UpdatedAt.Nanosecond())
	assert.False(t, r.IsDeleted())

	r.Touch(t0.Add(time.Second))
	assert.Equal(t, int64(2), r.Version)

	r.MarkDeleted(t0.Add(2 * time.Second))
	assert.Equal(t, int64(3), r.Version)
	require.True(t, r.IsDeleted())
	assert.Equal(t, r.UpdatedAt, *r.DeletedAt)
}

func TestFormatParseTime_RoundTrip(t *testing.T) {
	ts := Now(time.Date(2025, 1, 2, 3, 4, 5, 600000000, time.UTC))
	s := FormatTime(ts)
	assert.Equal(t, "2025-01-02T03:04:05.600000Z", s)

	back, err := ParseTime(s)
	require.NoError(t, err)
	assert.True(t, ts.Equal(back))

	_, err = ParseTime("yesterday")
	require.Error(t, err)
}

func TestFormatTime_SortsLexically(t *testing.T) {
	a := FormatTime(time.Date(2025, 1, 1, 0, 0, 5, 100000000, time.UTC))
	b := FormatTime(time.Date(2025, 1, 1, 0, 0, 5, 120000000, time.UTC))
	assert.Less(t, a, b)
}

func TestRecords_ColumnsAlignWithValues(t *testing.T) {
	for _, table := range Tables {
		rec, err := NewRecord(table)
		require.NoError(t, err)
		assert.Equal(t, table, rec.Table())
		assert.Len(t, rec.Values(), len(rec.Columns()), "table %s", table)
		assert.Equal(t, "id", rec.Columns()[0])
		assert.True(t, HasColumn(rec, table.ScopeColumn()), "table %s lacks its scope column", table)
	}
}

func TestParseStatus(t *testing.T) {
	st, err := ParseStatus("sent")
	require.NoError(t, err)
	assert.Equal(t, StatusSent, st)

	_, err = ParseStatus("archived")
	require.Error(t, err)
}
