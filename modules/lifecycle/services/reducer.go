package services

import (
	"encoding/json"
	"time"

	"github.com/iota-uz/hrm-lifecycle/modules/lifecycle/domain/category"
	"github.com/iota-uz/hrm-lifecycle/modules/lifecycle/domain/line"
)

// Action is an explicit edit of the list.
type Action interface {
	Name() string
}

type AppendLine struct{}

type RemoveLine struct {
	Key line.Key
}

type ChangeCategory struct {
	Key      line.Key
	Category category.Category
}

type ChangeDate struct {
	Key   line.Key
	Field line.Field
	Value *time.Time
}

type SetAttachment struct {
	Key        line.Key
	Attachment json.RawMessage
}

func (AppendLine) Name() string     { return "append" }
func (RemoveLine) Name() string     { return "remove" }
func (ChangeCategory) Name() string { return "change_category" }
func (ChangeDate) Name() string     { return "change_date" }
func (SetAttachment) Name() string  { return "set_attachment" }

// Reducer is the pure (state, action) -> state' transition. All clearing and
// derivation happens here, never as a reaction to observed state.
type Reducer struct {
	lists     *ListController
	recompute *Recomputer
}

func NewReducer(lists *ListController, recompute *Recomputer) *Reducer {
	return &Reducer{lists: lists, recompute: recompute}
}

// Reduce applies a to st. A refused action returns st unchanged with the
// reason; st itself is never modified.
func (r *Reducer) Reduce(st State, a Action) (State, error) {
	switch act := a.(type) {
	case AppendLine:
		return r.lists.Append(st)
	case RemoveLine:
		return r.lists.Remove(st, act.Key)
	case ChangeCategory:
		return r.edit(st, act.Key, func(rec line.Record) (line.Record, error) {
			return r.recompute.ChangeCategory(rec, act.Category), nil
		})
	case ChangeDate:
		if !act.Field.IsDate() {
			return st, refused(ErrEditRefused, ErrFieldInactive)
		}
		return r.edit(st, act.Key, func(rec line.Record) (line.Record, error) {
			return r.recompute.ChangeDate(rec, act.Field, act.Value)
		})
	case SetAttachment:
		return r.edit(st, act.Key, func(rec line.Record) (line.Record, error) {
			rec.Attachment = append(json.RawMessage(nil), act.Attachment...)
			if len(rec.Attachment) == 0 {
				rec.Attachment = nil
			}
			return rec, nil
		})
	}
	panic("lifecycle: unhandled action " + a.Name())
}

func (r *Reducer) edit(st State, key line.Key, fn func(line.Record) (line.Record, error)) (State, error) {
	if !st.Mode.Mutable() {
		return st, refused(ErrEditRefused, ErrModeReadOnly)
	}
	rec, ok := st.Get(key)
	if !ok {
		return st, refused(ErrEditRefused, ErrUnknownLine)
	}
	updated, err := fn(rec)
	if err != nil {
		return st, err
	}
	next := st.clone()
	next.put(updated)
	return next, nil
}
