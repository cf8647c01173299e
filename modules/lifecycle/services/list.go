package services

import (
	"github.com/iota-uz/hrm-lifecycle/modules/lifecycle/domain/category"
	"github.com/iota-uz/hrm-lifecycle/modules/lifecycle/domain/line"
)

// ListController applies the guarded append/remove rules of a rule table.
type ListController struct {
	table *category.Table
	ids   line.IDGenerator
}

func NewListController(table *category.Table, ids line.IDGenerator) *ListController {
	if ids == nil {
		ids = line.UUIDGenerator()
	}
	return &ListController{table: table, ids: ids}
}

// CanAppend returns nil when a new line may be appended to st.
func (c *ListController) CanAppend(st State) error {
	if !st.Mode.Mutable() {
		return refused(ErrAppendRefused, ErrModeReadOnly)
	}
	if c.hasTerminal(st) {
		return refused(ErrAppendRefused, ErrTerminalExists)
	}
	if c.table.MaxLines > 0 && st.Len() >= c.table.MaxLines {
		return refused(ErrAppendRefused, ErrMaxLines)
	}
	return nil
}

// Append adds an empty line at the end. A refused append returns st
// unchanged together with the reason.
func (c *ListController) Append(st State) (State, error) {
	if err := c.CanAppend(st); err != nil {
		return st, err
	}
	next := st.clone()
	next.appendLine(line.New(c.ids.NewKey()))
	return next, nil
}

// CanRemove returns nil when the line identified by key may be removed.
func (c *ListController) CanRemove(st State, key line.Key) error {
	if !st.Mode.Mutable() {
		return refused(ErrRemoveRefused, ErrModeReadOnly)
	}
	pos, ok := st.PositionOf(key)
	if !ok {
		return refused(ErrRemoveRefused, ErrUnknownLine)
	}
	if st.Len() <= 1 {
		return refused(ErrRemoveRefused, ErrLastLine)
	}
	if c.table.Removal == category.RemoveLastOnly && pos != st.Len()-1 {
		return refused(ErrRemoveRefused, ErrNotLastLine)
	}
	return nil
}

// Remove deletes the line identified by key, reindexes the remaining lines
// and shifts the error map in lockstep.
func (c *ListController) Remove(st State, key line.Key) (State, error) {
	if err := c.CanRemove(st, key); err != nil {
		return st, err
	}
	next := st.clone()
	removed := next.removeLine(key)
	next.Errors = next.Errors.ShiftAfterRemove(removed)
	return next, nil
}

// IsLineLocked reports whether editing must be disabled for the line at pos.
// View mode locks everything and create mode nothing; in edit mode only the
// terminal line and lines appended in this session stay editable.
func (c *ListController) IsLineLocked(st State, pos int, mode category.Mode) bool {
	r, ok := st.At(pos)
	if !ok {
		return true
	}
	switch mode {
	case category.ModeCreate:
		return false
	case category.ModeEdit:
		return !(r.Fresh || c.table.IsTerminal(r.Category))
	default:
		return true
	}
}

func (c *ListController) hasTerminal(st State) bool {
	for _, r := range st.Lines() {
		if c.table.IsTerminal(r.Category) {
			return true
		}
	}
	return false
}
