package services

import (
	"time"

	"github.com/iota-uz/hrm-lifecycle/modules/lifecycle/domain/category"
	"github.com/iota-uz/hrm-lifecycle/modules/lifecycle/domain/line"
)

// DefaultProbationMonths is the length of a probationary stint used to
// derive its end date.
const DefaultProbationMonths = 6

// Recomputer clears and derives fields in reaction to category and date
// changes. It works on single records and never touches the list.
type Recomputer struct {
	table           *category.Table
	probationMonths int
}

func NewRecomputer(table *category.Table, probationMonths int) *Recomputer {
	if probationMonths <= 0 {
		probationMonths = DefaultProbationMonths
	}
	return &Recomputer{table: table, probationMonths: probationMonths}
}

// ChangeCategory sets the category and nulls every field the new profile
// marks inactive. Active fields keep their values.
func (c *Recomputer) ChangeCategory(r line.Record, next category.Category) line.Record {
	r.Category = next
	r = c.Purge(r)
	if c.table.IsTerminal(next) {
		r.StartDate = nil
		r.EndDate = nil
	}
	return c.derive(r)
}

// ChangeDate sets a temporal field. Setting a field the profile marks
// inactive is refused.
func (c *Recomputer) ChangeDate(r line.Record, f line.Field, v *time.Time) (line.Record, error) {
	profile := c.table.Profile(r.Category)
	if !f.Active(profile) {
		if v == nil {
			return r, nil
		}
		return r, refused(ErrEditRefused, ErrFieldInactive)
	}
	r = r.WithDate(f, v)
	if f == line.FieldStartDate {
		r = c.derive(r)
	}
	return r, nil
}

// Purge nulls the fields that are inactive for the record's category.
func (c *Recomputer) Purge(r line.Record) line.Record {
	profile := c.table.Profile(r.Category)
	for _, f := range line.DateFields {
		if !f.Active(profile) {
			r = r.WithDate(f, nil)
		}
	}
	return r
}

// derive fills the end date of a precursor line from its start date when the
// end date is still empty. The derived value stays editable.
func (c *Recomputer) derive(r line.Record) line.Record {
	if !c.table.IsPrecursor(r.Category) || r.StartDate == nil || r.EndDate != nil {
		return r
	}
	if !line.FieldEndDate.Active(c.table.Profile(r.Category)) {
		return r
	}
	end := line.AddMonths(*r.StartDate, c.probationMonths)
	r.EndDate = &end
	return r
}
