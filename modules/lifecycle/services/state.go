package services

import (
	"fmt"

	"github.com/iota-uz/hrm-lifecycle/modules/lifecycle/domain/category"
	"github.com/iota-uz/hrm-lifecycle/modules/lifecycle/domain/line"
)

// State is the edited list: lines stored by key plus a separate display
// order. Values are immutable from the outside; every mutation goes through
// the reducer and yields a new State.
type State struct {
	Mode   category.Mode
	Errors ErrorMap

	lines map[line.Key]line.Record
	order []line.Key
}

// NewState builds a state from records in display order. Positions are
// recomputed. A record without a key or a duplicated key is a defect.
func NewState(mode category.Mode, records []line.Record) State {
	st := State{
		Mode:   mode,
		Errors: ErrorMap{},
		lines:  make(map[line.Key]line.Record, len(records)),
		order:  make([]line.Key, 0, len(records)),
	}
	for _, r := range records {
		if r.Key == "" {
			panic("lifecycle: line without key")
		}
		if _, dup := st.lines[r.Key]; dup {
			panic(fmt.Sprintf("lifecycle: duplicate line key %q", r.Key))
		}
		st.lines[r.Key] = r
		st.order = append(st.order, r.Key)
	}
	st.reindex()
	return st
}

func (s State) Len() int {
	return len(s.order)
}

// Lines returns the records in display order.
func (s State) Lines() []line.Record {
	out := make([]line.Record, 0, len(s.order))
	for _, k := range s.order {
		out = append(out, s.mustGet(k))
	}
	return out
}

// Keys returns the display order.
func (s State) Keys() []line.Key {
	out := make([]line.Key, len(s.order))
	copy(out, s.order)
	return out
}

func (s State) At(pos int) (line.Record, bool) {
	if pos < 0 || pos >= len(s.order) {
		return line.Record{}, false
	}
	return s.mustGet(s.order[pos]), true
}

func (s State) Get(key line.Key) (line.Record, bool) {
	r, ok := s.lines[key]
	return r, ok
}

func (s State) PositionOf(key line.Key) (int, bool) {
	r, ok := s.lines[key]
	if !ok {
		return 0, false
	}
	return r.Position, true
}

// Last returns the line at the highest position.
func (s State) Last() (line.Record, bool) {
	return s.At(len(s.order) - 1)
}

func (s State) mustGet(key line.Key) line.Record {
	r, ok := s.lines[key]
	if !ok {
		panic(fmt.Sprintf("lifecycle: order references missing line %q", key))
	}
	return r
}

func (s State) clone() State {
	next := State{
		Mode:   s.Mode,
		Errors: s.Errors.Clone(),
		lines:  make(map[line.Key]line.Record, len(s.lines)),
		order:  make([]line.Key, len(s.order)),
	}
	for k, v := range s.lines {
		next.lines[k] = v
	}
	copy(next.order, s.order)
	return next
}

func (s *State) put(r line.Record) {
	s.lines[r.Key] = r
}

func (s *State) reindex() {
	for i, k := range s.order {
		r := s.mustGet(k)
		r.Position = i
		s.lines[k] = r
	}
}

func (s *State) appendLine(r line.Record) {
	s.lines[r.Key] = r
	s.order = append(s.order, r.Key)
	s.reindex()
}

func (s *State) removeLine(key line.Key) int {
	pos, ok := s.PositionOf(key)
	if !ok {
		panic(fmt.Sprintf("lifecycle: remove of missing line %q", key))
	}
	delete(s.lines, key)
	s.order = append(s.order[:pos], s.order[pos+1:]...)
	s.reindex()
	return pos
}
