package services

import (
	"time"

	"github.com/iota-uz/hrm-lifecycle/modules/lifecycle/domain/category"
	"github.com/iota-uz/hrm-lifecycle/modules/lifecycle/domain/line"
)

// Result is the outcome of a whole-list validation.
type Result struct {
	IsValid bool     `json:"is_valid"`
	Errors  ErrorMap `json:"errors"`
}

// Validator checks per-line required/ordering rules and the cross-line
// terminal-category invariants.
type Validator struct {
	table *category.Table
	lists *ListController
	today func() time.Time
}

func NewValidator(table *category.Table, lists *ListController, today func() time.Time) *Validator {
	if today == nil {
		today = time.Now
	}
	return &Validator{table: table, lists: lists, today: today}
}

// ValidateAll checks every field of every line.
func (v *Validator) ValidateAll(st State) Result {
	if st.Len() == 0 {
		panic("lifecycle: validating an empty list")
	}
	errs := ErrorMap{}
	for pos := 0; pos < st.Len(); pos++ {
		if viol := v.checkCategory(st, pos, false); viol != nil {
			errs.Set(pos, line.FieldCategory, *viol)
		}
		for _, f := range line.DateFields {
			if viol := v.CheckField(st, pos, f); viol != nil {
				errs.Set(pos, f, *viol)
			}
		}
	}
	return Result{IsValid: len(errs) == 0, Errors: errs}
}

// ValidateField re-checks a single field that was just edited and replaces
// that entry of st.Errors. Other entries are left as they are.
func (v *Validator) ValidateField(st State, pos int, f line.Field) (State, *Violation) {
	var viol *Violation
	if f == line.FieldCategory {
		viol = v.checkCategory(st, pos, true)
	} else {
		viol = v.CheckField(st, pos, f)
	}
	next := st
	next.Errors = st.Errors.Clone()
	if viol == nil {
		next.Errors.Clear(pos, f)
	} else {
		next.Errors.Set(pos, f, *viol)
	}
	return next, viol
}

// CheckField returns the first violation of field f on the line at pos.
func (v *Validator) CheckField(st State, pos int, f line.Field) *Violation {
	r, ok := st.At(pos)
	if !ok {
		return nil
	}
	if f == line.FieldCategory {
		return v.checkCategory(st, pos, false)
	}
	if !f.IsDate() {
		return nil
	}

	profile := v.table.Profile(r.Category)
	value := r.Date(f)
	if !f.Active(profile) {
		if value != nil {
			return newViolation(KindInvalid, CodeFieldNotApplicable, nil)
		}
		return nil
	}
	if value == nil {
		return newViolation(KindRequired, CodeRequired, nil)
	}

	switch f {
	case line.FieldEndDate, line.FieldEffectivityDate:
		if !profile.Start || r.StartDate == nil {
			return nil
		}
		if value.Before(*r.StartDate) {
			code := CodeEndBeforeStart
			if f == line.FieldEffectivityDate {
				code = CodeEffectivityBeforeStart
			}
			return newViolation(KindOrdering, code, map[string]string{
				"start_date": *line.FormatDate(r.StartDate),
			})
		}
	case line.FieldRegularizationDate:
		return v.checkRegularization(st, r)
	}
	return nil
}

// checkCategory validates the category of the line at pos. When changed is
// set the line was just edited and a terminal clash with any other line is
// reported on it; otherwise only later duplicates are flagged.
func (v *Validator) checkCategory(st State, pos int, changed bool) *Violation {
	r, ok := st.At(pos)
	if !ok {
		return nil
	}
	if r.Category.IsUnset() {
		return newViolation(KindRequired, CodeCategoryRequired, nil)
	}
	if v.table.IsTerminal(r.Category) {
		for _, other := range st.Lines() {
			if other.Key == r.Key || !v.table.IsTerminal(other.Category) {
				continue
			}
			if changed || other.Position < pos {
				return newViolation(KindListInvariant, CodeTerminalDuplicate, map[string]string{
					"category": r.Category.String(),
				})
			}
		}
		if pos != st.Len()-1 {
			return newViolation(KindListInvariant, CodeTerminalNotLast, map[string]string{
				"category": r.Category.String(),
			})
		}
	}
	if !v.lists.IsLineLocked(st, pos, st.Mode) && !v.table.IsAllowed(r.Category, st.Mode) {
		return newViolation(KindInvalid, CodeCategoryNotAllowed, map[string]string{
			"category": r.Category.String(),
		})
	}
	return nil
}

// checkRegularization bounds the regularization date by the latest start
// date of any precursor line, falling back to today when the list has none.
// A committed date the user has not touched is not compared with today.
func (v *Validator) checkRegularization(st State, r line.Record) *Violation {
	value := *r.RegularizationDate
	if bound := v.precursorStart(st, r.Key); bound != nil {
		if value.Before(*bound) {
			return newViolation(KindOrdering, CodeRegularizationBeforeProbation, map[string]string{
				"start_date": *line.FormatDate(bound),
			})
		}
	}
	if !r.Fresh && !r.RegularizationChanged() {
		return nil
	}
	today := line.NormalizeDay(v.today())
	if value.Before(today) {
		return newViolation(KindOrdering, CodeRegularizationInPast, map[string]string{
			"today": today.Format(line.WireDateLayout),
		})
	}
	return nil
}

func (v *Validator) precursorStart(st State, except line.Key) *time.Time {
	var bound *time.Time
	for _, other := range st.Lines() {
		if other.Key == except || !v.table.IsPrecursor(other.Category) || other.StartDate == nil {
			continue
		}
		if bound == nil || other.StartDate.After(*bound) {
			bound = other.StartDate
		}
	}
	return bound
}
