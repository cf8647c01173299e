package line

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"

	"github.com/google/uuid"
)

// IDGenerator hands out line keys. Sessions take one as a dependency so
// tests can use a deterministic sequence.
type IDGenerator interface {
	NewKey() Key
}

type uuidGenerator struct{}

// UUIDGenerator returns random v4 keys.
func UUIDGenerator() IDGenerator { return uuidGenerator{} }

func (uuidGenerator) NewKey() Key { return Key(uuid.NewString()) }

// Sequence produces prefix-1, prefix-2, ...
type Sequence struct {
	mu     sync.Mutex
	prefix string
	next   int
}

func NewSequence(prefix string) *Sequence {
	if prefix == "" {
		prefix = "line"
	}
	return &Sequence{prefix: prefix}
}

func (s *Sequence) NewKey() Key {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next++
	return Key(fmt.Sprintf("%s-%d", s.prefix, s.next))
}

var nullLiteral = []byte("null")

// RecordID is the server-side id of a sub-record. It is kept as the raw JSON
// token so numbers and strings pass through to the submission unchanged.
type RecordID struct {
	raw json.RawMessage
}

// NumericRecordID builds a RecordID from an integer id.
func NumericRecordID(id int64) RecordID {
	return RecordID{raw: json.RawMessage(strconv.FormatInt(id, 10))}
}

func (id RecordID) IsZero() bool {
	return len(id.raw) == 0
}

func (id RecordID) Equal(other RecordID) bool {
	return bytes.Equal(id.raw, other.raw)
}

// String returns the id without JSON quoting.
func (id RecordID) String() string {
	if id.IsZero() {
		return ""
	}
	var s string
	if err := json.Unmarshal(id.raw, &s); err == nil {
		return s
	}
	return string(id.raw)
}

func (id RecordID) MarshalJSON() ([]byte, error) {
	if id.IsZero() {
		return nullLiteral, nil
	}
	return id.raw, nil
}

func (id *RecordID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, nullLiteral) {
		id.raw = nil
		return nil
	}
	if bytes.Equal(b, []byte(`""`)) {
		id.raw = nil
		return nil
	}
	switch b[0] {
	case '"', '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
	default:
		return fmt.Errorf("record id must be a string or number, got %s", b)
	}
	id.raw = append(json.RawMessage(nil), b...)
	return nil
}
