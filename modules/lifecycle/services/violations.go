package services

import "github.com/iota-uz/hrm-lifecycle/modules/lifecycle/domain/line"

type ViolationKind string

const (
	KindRequired      ViolationKind = "required"
	KindOrdering      ViolationKind = "ordering"
	KindListInvariant ViolationKind = "list_invariant"
	KindInvalid       ViolationKind = "invalid"
)

const (
	CodeRequired                      = "required"
	CodeCategoryRequired              = "category_required"
	CodeCategoryNotAllowed            = "category_not_allowed"
	CodeFieldNotApplicable            = "field_not_applicable"
	CodeTerminalDuplicate             = "terminal_duplicate"
	CodeTerminalNotLast               = "terminal_not_last"
	CodeEndBeforeStart                = "end_before_start"
	CodeEffectivityBeforeStart        = "effectivity_before_start"
	CodeRegularizationBeforeProbation = "regularization_before_probation"
	CodeRegularizationInPast          = "regularization_in_past"
)

var defaultMessages = map[string]string{
	CodeRequired:                      "This field is required.",
	CodeCategoryRequired:              "Select a category.",
	CodeCategoryNotAllowed:            "This category cannot be selected here.",
	CodeFieldNotApplicable:            "This field does not apply to the selected category.",
	CodeTerminalDuplicate:             "Only one line may hold this category.",
	CodeTerminalNotLast:               "No line may follow this category.",
	CodeEndBeforeStart:                "End date must be on or after the start date.",
	CodeEffectivityBeforeStart:        "Effectivity date must be on or after the start date.",
	CodeRegularizationBeforeProbation: "Regularization date must be on or after the probationary start date.",
	CodeRegularizationInPast:          "Regularization date cannot be in the past.",
}

// Violation is one failed rule on one field. Code doubles as the message id
// for localization; Params holds the template data.
type Violation struct {
	Kind    ViolationKind     `json:"kind"`
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Params  map[string]string `json:"params,omitempty"`
}

func newViolation(kind ViolationKind, code string, params map[string]string) *Violation {
	return &Violation{Kind: kind, Code: code, Message: defaultMessages[code], Params: params}
}

// Hard reports whether the violation is a user mistake worth an immediate
// notice, as opposed to a field that is simply not filled in yet.
func (v Violation) Hard() bool {
	return v.Kind == KindOrdering
}

type LineErrors map[line.Field]Violation

// ErrorMap holds violations by line position, then field.
type ErrorMap map[int]LineErrors

func (m ErrorMap) Clone() ErrorMap {
	out := make(ErrorMap, len(m))
	for pos, fields := range m {
		cp := make(LineErrors, len(fields))
		for f, v := range fields {
			cp[f] = v
		}
		out[pos] = cp
	}
	return out
}

func (m ErrorMap) Get(pos int, f line.Field) (Violation, bool) {
	v, ok := m[pos][f]
	return v, ok
}

func (m ErrorMap) Set(pos int, f line.Field, v Violation) {
	fields, ok := m[pos]
	if !ok {
		fields = LineErrors{}
		m[pos] = fields
	}
	fields[f] = v
}

func (m ErrorMap) Clear(pos int, f line.Field) {
	fields, ok := m[pos]
	if !ok {
		return
	}
	delete(fields, f)
	if len(fields) == 0 {
		delete(m, pos)
	}
}

// Count returns the number of field violations.
func (m ErrorMap) Count() int {
	n := 0
	for _, fields := range m {
		n += len(fields)
	}
	return n
}

// ShiftAfterRemove drops the errors of the removed position and moves the
// errors of every later position down by one.
func (m ErrorMap) ShiftAfterRemove(removed int) ErrorMap {
	out := make(ErrorMap, len(m))
	for pos, fields := range m {
		switch {
		case pos < removed:
			out[pos] = fields
		case pos > removed:
			out[pos-1] = fields
		}
	}
	return out
}
