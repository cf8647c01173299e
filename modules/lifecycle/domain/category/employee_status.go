package category

const (
	Extended           Category = "EXTENDED"
	Suspended          Category = "SUSPENDED"
	Maternity          Category = "MATERNITY"
	ReturnedToAgency   Category = "RETURNED TO AGENCY"
	Terminated         Category = "TERMINATED"
	Resigned           Category = "RESIGNED"
	AbsentWithoutLeave Category = "ABSENT WITHOUT LEAVE"
	EndOfContract      Category = "END OF CONTRACT"
	Blacklisted        Category = "BLACKLISTED"
	Dismissed          Category = "DISMISSED"
	Deceased           Category = "DECEASED"
	BackOut            Category = "BACK OUT"
)

// EmployeeStatus drives the status list of an employee. The list is
// unbounded and has no probationary precursor, so the regularization date
// is only bounded by today.
var EmployeeStatus = &Table{
	Kind:     "employee-statuses",
	Terminal: Regular,
	Removal:  RemoveAny,
	categories: []Category{
		Regular, Extended, Suspended, Maternity, ReturnedToAgency, Terminated, Resigned,
		AbsentWithoutLeave, EndOfContract, Blacklisted, Dismissed, Deceased, BackOut,
	},
	group:   employeeStatusGroup,
	allowed: employeeStatusAllowed,
}

func employeeStatusGroup(c Category) Group {
	switch c {
	case Regular:
		return GroupTerminal
	case Extended, Suspended, Maternity:
		return GroupTimeBoundedA
	case ReturnedToAgency, Terminated, Resigned, AbsentWithoutLeave,
		EndOfContract, Blacklisted, Dismissed, Deceased:
		return GroupTimeBoundedB
	case BackOut:
		return GroupMinimal
	}
	return GroupUnrecognized
}

func employeeStatusAllowed(c Category, _ Mode) bool {
	return employeeStatusGroup(c) != GroupUnrecognized
}
