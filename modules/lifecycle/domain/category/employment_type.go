package category

const (
	Probationary Category = "PROBATIONARY"
	AgencyHired  Category = "AGENCY HIRED"
	ProjectBased Category = "PROJECT BASED"
	Regular      Category = "REGULAR"
)

// EmploymentType drives the employment-type history of an employee: at most
// two stints, only the last one removable, REGULAR selectable in edit mode.
var EmploymentType = &Table{
	Kind:       "employment-types",
	Terminal:   Regular,
	Precursor:  Probationary,
	MaxLines:   2,
	Removal:    RemoveLastOnly,
	categories: []Category{Probationary, AgencyHired, ProjectBased, Regular},
	group:      employmentTypeGroup,
	allowed:    employmentTypeAllowed,
}

func employmentTypeGroup(c Category) Group {
	switch c {
	case Probationary, ProjectBased:
		return GroupTimeBoundedA
	case AgencyHired:
		return GroupTimeBoundedB
	case Regular:
		return GroupTerminal
	}
	return GroupUnrecognized
}

func employmentTypeAllowed(c Category, mode Mode) bool {
	switch c {
	case Probationary, AgencyHired, ProjectBased:
		return true
	case Regular:
		return mode == ModeEdit || mode == ModeView
	}
	return false
}
