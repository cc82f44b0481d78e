package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrMalformedChange marks a queue entry that cannot be decoded. It points
// at a producer bug, not at a transient condition.
var ErrMalformedChange = errors.New("malformed change")

// Op is the remote operation a queue entry replays.
type Op string

const (
	OpInsert Op = "insert"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
)

// Valid reports whether o is a known operation.
func (o Op) Valid() bool {
	return o == OpInsert || o == OpUpdate || o == OpDelete
}

// Change is one entry of the change queue. ID is queue-local and assigned
// on enqueue. Payload is the JSON snapshot of the record at enqueue time.
type Change struct {
	ID        int64
	Table     Table
	Op        Op
	Payload   string
	CreatedAt time.Time
}

// NewChange snapshots rec for op.
func NewChange(op Op, rec Record) (*Change, error) {
	if !op.Valid() {
		return nil, fmt.Errorf("%w: unknown op %q", ErrMalformedChange, string(op))
	}
	b, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", rec.Table(), err)
	}
	return &Change{Table: rec.Table(), Op: op, Payload: string(b)}, nil
}

// Record decodes the payload into the concrete type for the entry's table.
func (c *Change) Record() (Record, error) {
	if !c.Op.Valid() {
		return nil, fmt.Errorf("%w: entry %d has unknown op %q", ErrMalformedChange, c.ID, string(c.Op))
	}
	rec, err := DecodeRecord(c.Table, []byte(c.Payload))
	if err != nil {
		return nil, fmt.Errorf("entry %d: %w", c.ID, err)
	}
	return rec, nil
}

// DecodeRecord unmarshals a JSON row of table t. The row must carry an id.
func DecodeRecord(t Table, data []byte) (Record, error) {
	rec, err := NewRecord(t)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedChange, err)
	}
	if err := json.Unmarshal(data, rec); err != nil {
		return nil, fmt.Errorf("%w: %s payload: %w", ErrMalformedChange, t, err)
	}
	if rec.Rev().ID == "" {
		return nil, fmt.Errorf("%w: %s payload without id", ErrMalformedChange, t)
	}
	return rec, nil
}
