package line

import (
	"encoding/json"
	"time"

	"github.com/iota-uz/hrm-lifecycle/modules/lifecycle/domain/category"
)

// Key identifies a line for the lifetime of an edit session. It never
// depends on the line's position.
type Key string

func (k Key) String() string { return string(k) }

type Field string

const (
	FieldCategory           Field = "category"
	FieldStartDate          Field = "start_date"
	FieldEndDate            Field = "end_date"
	FieldEffectivityDate    Field = "effectivity_date"
	FieldRegularizationDate Field = "regularization_date"
	FieldAttachment         Field = "attachment"
)

// DateFields lists the temporal fields in validation order.
var DateFields = []Field{FieldStartDate, FieldEndDate, FieldEffectivityDate, FieldRegularizationDate}

// ParseField resolves a wire field name.
func ParseField(raw string) (Field, bool) {
	switch f := Field(raw); f {
	case FieldCategory, FieldStartDate, FieldEndDate, FieldEffectivityDate, FieldRegularizationDate, FieldAttachment:
		return f, true
	default:
		return "", false
	}
}

// IsDate reports whether f is one of the temporal fields.
func (f Field) IsDate() bool {
	switch f {
	case FieldStartDate, FieldEndDate, FieldEffectivityDate, FieldRegularizationDate:
		return true
	default:
		return false
	}
}

// Active reports whether f is active under p. Category and attachment are
// never governed by the profile.
func (f Field) Active(p category.Profile) bool {
	switch f {
	case FieldStartDate:
		return p.Start
	case FieldEndDate:
		return p.End
	case FieldEffectivityDate:
		return p.Effectivity
	case FieldRegularizationDate:
		return p.Regularization
	default:
		return true
	}
}

// Record is one entry of the edited list. Dates are UTC midnights; nil means
// empty.
type Record struct {
	Key                Key
	Position           int
	ServerID           RecordID
	Category           category.Category
	StartDate          *time.Time
	EndDate            *time.Time
	EffectivityDate    *time.Time
	RegularizationDate *time.Time
	Attachment         json.RawMessage

	// Fresh marks lines appended during the current session.
	Fresh bool
	// SeededRegularization keeps the regularization date the server sent so an
	// untouched committed date is not re-checked against today.
	SeededRegularization *time.Time
}

// New returns an empty line: unset category, no dates.
func New(key Key) Record {
	return Record{Key: key, Fresh: true}
}

// Date returns the value of a temporal field.
func (r Record) Date(f Field) *time.Time {
	switch f {
	case FieldStartDate:
		return r.StartDate
	case FieldEndDate:
		return r.EndDate
	case FieldEffectivityDate:
		return r.EffectivityDate
	case FieldRegularizationDate:
		return r.RegularizationDate
	default:
		return nil
	}
}

// WithDate returns a copy of r with the temporal field f set to v.
func (r Record) WithDate(f Field, v *time.Time) Record {
	if v != nil {
		d := NormalizeDay(*v)
		v = &d
	}
	switch f {
	case FieldStartDate:
		r.StartDate = v
	case FieldEndDate:
		r.EndDate = v
	case FieldEffectivityDate:
		r.EffectivityDate = v
	case FieldRegularizationDate:
		r.RegularizationDate = v
	}
	return r
}

// RegularizationChanged reports whether the regularization date differs from
// the value the line was seeded with.
func (r Record) RegularizationChanged() bool {
	return !SameDay(r.RegularizationDate, r.SeededRegularization)
}
