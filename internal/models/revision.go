package models

import (
	"database/sql"
	"fmt"
	"time"
)

// TimeLayout is the fixed-width ISO-8601 form used for stored timestamps.
// Fixed width keeps lexical and chronological order identical.
const TimeLayout = "2006-01-02T15:04:05.000000Z07:00"

// Revision is the envelope shared by every mirrored record.
type Revision struct {
	ID        string     `json:"id"`
	Version   int64      `json:"version"`
	UpdatedAt time.Time  `json:"updated_at"`
	DeletedAt *time.Time `json:"deleted_at"`
}

// Rev gives generic code access to the embedded envelope.
func (r *Revision) Rev() *Revision { return r }

// Touch records one local mutation: version goes up by one (so a new row
// starts at 1) and updated_at becomes now.
func (r *Revision) Touch(now time.Time) {
	r.Version++
	r.UpdatedAt = Now(now)
}

// MarkDeleted soft-deletes the row. It counts as a mutation.
func (r *Revision) MarkDeleted(now time.Time) {
	r.Touch(now)
	ts := r.UpdatedAt
	r.DeletedAt = &ts
}

// IsDeleted reports whether the row carries a tombstone.
func (r *Revision) IsDeleted() bool { return r.DeletedAt != nil }

// Now normalizes t to UTC at microsecond precision, which is what survives
// a round trip through TimeLayout.
func Now(t time.Time) time.Time {
	return t.UTC().Truncate(time.Microsecond)
}

// FormatTime renders t in TimeLayout.
func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}

// ParseTime parses a stored timestamp. RFC 3339 with any precision is
// accepted so rows written by other tools still load.
func ParseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	return t.UTC(), nil
}

var revisionColumns = []string{"id", "version", "updated_at", "deleted_at"}

func (r *Revision) values() []any {
	var deleted any
	if r.DeletedAt != nil {
		deleted = FormatTime(*r.DeletedAt)
	}
	return []any{r.ID, r.Version, FormatTime(r.UpdatedAt), deleted}
}

// revisionScan holds the intermediate text values of a scanned envelope.
type revisionScan struct {
	r       *Revision
	updated string
	deleted sql.NullString
}

func (r *Revision) scan() *revisionScan {
	return &revisionScan{r: r}
}

func (s *revisionScan) dest() []any {
	return []any{&s.r.ID, &s.r.Version, &s.updated, &s.deleted}
}

func (s *revisionScan) finish() error {
	t, err := ParseTime(s.updated)
	if err != nil {
		return err
	}
	s.r.UpdatedAt = t
	s.r.DeletedAt = nil
	if s.deleted.Valid {
		d, err := ParseTime(s.deleted.String)
		if err != nil {
			return err
		}
		s.r.DeletedAt = &d
	}
	return nil
}

func columns(own ...string) []string {
	out := make([]string, 0, len(revisionColumns)+len(own))
	out = append(out, revisionColumns...)
	return append(out, own...)
}
