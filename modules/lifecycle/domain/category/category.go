package category

import "strings"

// Category is the classification value of a line record. The empty value is
// the unset category of a freshly appended line.
type Category string

const Unset Category = ""

func (c Category) String() string {
	return string(c)
}

func (c Category) IsUnset() bool {
	return strings.TrimSpace(string(c)) == ""
}

// Normalize trims surrounding whitespace and upper-cases the label so that
// server values like "probationary " match the enumeration.
func Normalize(raw string) Category {
	return Category(strings.ToUpper(strings.TrimSpace(raw)))
}

type Mode string

const (
	ModeCreate Mode = "create"
	ModeEdit   Mode = "edit"
	ModeView   Mode = "view"
)

func ParseMode(raw string) (Mode, bool) {
	switch Mode(strings.ToLower(strings.TrimSpace(raw))) {
	case ModeCreate:
		return ModeCreate, true
	case ModeEdit:
		return ModeEdit, true
	case ModeView:
		return ModeView, true
	default:
		return "", false
	}
}

// Mutable reports whether lines may be appended or removed in this mode.
func (m Mode) Mutable() bool {
	return m == ModeCreate || m == ModeEdit
}

// Group is the lifecycle state a category puts its line in.
type Group string

const (
	GroupUnset        Group = "UNSET"
	GroupTerminal     Group = "TERMINAL"
	GroupTimeBoundedA Group = "TIME_BOUNDED_A"
	GroupTimeBoundedB Group = "TIME_BOUNDED_B"
	GroupMinimal      Group = "MINIMAL"
	GroupUnrecognized Group = "UNRECOGNIZED"
)

// Profile lists the temporal fields a category activates. Active fields are
// required; inactive fields must stay empty.
type Profile struct {
	Start          bool `json:"start"`
	End            bool `json:"end"`
	Effectivity    bool `json:"effectivity"`
	Regularization bool `json:"regularization"`
}

// ProfileOf maps a group to its field profile.
func ProfileOf(g Group) Profile {
	switch g {
	case GroupUnset, GroupMinimal:
		return Profile{}
	case GroupTerminal:
		return Profile{Regularization: true}
	case GroupTimeBoundedA:
		return Profile{Start: true, End: true}
	case GroupTimeBoundedB:
		return Profile{Effectivity: true}
	case GroupUnrecognized:
		return fallbackProfile
	}
	return fallbackProfile
}

// fallbackProfile is used for labels outside the enumeration: nothing is
// cleared and everything is asked for.
var fallbackProfile = Profile{Start: true, End: true, Effectivity: true, Regularization: true}
