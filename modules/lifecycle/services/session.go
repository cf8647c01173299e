package services

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/iota-uz/hrm-lifecycle/modules/lifecycle/domain/category"
	"github.com/iota-uz/hrm-lifecycle/modules/lifecycle/domain/line"
	"github.com/iota-uz/hrm-lifecycle/pkg/eventbus"
)

// NoticeEvent is published for hard mistakes caught on the offending edit,
// e.g. an end date before the start date. Displaying it is up to the
// subscriber.
type NoticeEvent struct {
	Kind      string
	Key       line.Key
	Position  int
	Field     line.Field
	Violation Violation
}

type SessionOptions struct {
	Table *category.Table
	Mode  category.Mode
	// ParentID is the id of the owning record; empty when it is being created.
	ParentID        line.RecordID
	IDs             line.IDGenerator
	Today           func() time.Time
	ProbationMonths int
	Publisher       eventbus.EventBus
	Logger          *logrus.Entry
}

// Session is one engine instance: it owns exactly one list for one logical
// record for the duration of an edit session. It is not safe for concurrent
// edits; only Submit guards against a second call while one is in flight.
type Session struct {
	table      *category.Table
	parentID   line.RecordID
	lists      *ListController
	reducer    *Reducer
	validator  *Validator
	reconciler *Reconciler
	publisher  eventbus.EventBus
	logger     *logrus.Entry

	state  State
	seeded []WireRecord
	flight submitGuard
}

// NewSession seeds a session from the server records (possibly none).
func NewSession(opts SessionOptions, server []WireRecord) *Session {
	if opts.Table == nil {
		panic("lifecycle: session without rule table")
	}
	ids := opts.IDs
	if ids == nil {
		ids = line.UUIDGenerator()
	}
	logger := opts.Logger
	if logger != nil {
		logger = logger.WithFields(logrus.Fields{"kind": opts.Table.Kind, "mode": string(opts.Mode)})
	}
	lists := NewListController(opts.Table, ids)
	recompute := NewRecomputer(opts.Table, opts.ProbationMonths)
	s := &Session{
		table:      opts.Table,
		parentID:   opts.ParentID,
		lists:      lists,
		reducer:    NewReducer(lists, recompute),
		validator:  NewValidator(opts.Table, lists, opts.Today),
		reconciler: NewReconciler(opts.Table, ids, recompute, logger),
		publisher:  opts.Publisher,
		logger:     logger,
	}
	s.state = s.reconciler.Seed(server, opts.Mode)
	s.seeded = server
	return s
}

// Resume restores a session from a list the client kept, e.g. a stateless
// API round trip. Lines without a key get a fresh one; a key used twice is
// rejected with ErrDuplicateKey. Entries of flagged that still fail are kept
// as the session errors, so fields flagged by an earlier full validation go
// on reporting missing values.
func Resume(opts SessionOptions, records []line.Record, flagged ErrorMap) (*Session, error) {
	s := NewSession(opts, nil)
	if len(records) == 0 {
		return s, nil
	}
	seen := make(map[line.Key]int, len(records))
	fixed := make([]line.Record, 0, len(records))
	for i, r := range records {
		if r.Key == "" {
			r.Key = s.lists.ids.NewKey()
		}
		if first, dup := seen[r.Key]; dup {
			return nil, fmt.Errorf("%w: %q at lines %d and %d", ErrDuplicateKey, r.Key, first, i)
		}
		seen[r.Key] = i
		fixed = append(fixed, s.reducer.recompute.Purge(r))
	}
	s.state = NewState(opts.Mode, fixed)
	s.restoreErrors(flagged)
	return s, nil
}

func (s *Session) restoreErrors(flagged ErrorMap) {
	errs := ErrorMap{}
	for pos, fields := range flagged {
		for f := range fields {
			if viol := s.validator.CheckField(s.state, pos, f); viol != nil {
				errs.Set(pos, f, *viol)
			}
		}
	}
	s.state.Errors = errs
}

func (s *Session) Table() *category.Table  { return s.table }
func (s *Session) Mode() category.Mode     { return s.state.Mode }
func (s *Session) State() State            { return s.state }
func (s *Session) ParentID() line.RecordID { return s.parentID }
func (s *Session) Errors() ErrorMap        { return s.state.Errors.Clone() }

// IsLocked reports whether the line at pos must not be edited.
func (s *Session) IsLocked(pos int) bool {
	return s.lists.IsLineLocked(s.state, pos, s.state.Mode)
}

func (s *Session) CanAppend() bool {
	return s.lists.CanAppend(s.state) == nil
}

func (s *Session) CanRemove(key line.Key) bool {
	return s.lists.CanRemove(s.state, key) == nil
}

// Allowed returns the categories selectable in the session's mode.
func (s *Session) Allowed() []category.Category {
	return s.table.Allowed(s.state.Mode)
}

// Append adds an empty line and returns its key.
func (s *Session) Append() (line.Key, error) {
	if _, err := s.Dispatch(AppendLine{}); err != nil {
		return "", err
	}
	last, _ := s.state.Last()
	return last.Key, nil
}

func (s *Session) Remove(key line.Key) error {
	_, err := s.Dispatch(RemoveLine{Key: key})
	return err
}

func (s *Session) SetCategory(key line.Key, c category.Category) ([]NoticeEvent, error) {
	return s.Dispatch(ChangeCategory{Key: key, Category: c})
}

func (s *Session) SetDate(key line.Key, f line.Field, v *time.Time) ([]NoticeEvent, error) {
	return s.Dispatch(ChangeDate{Key: key, Field: f, Value: v})
}

// Dispatch runs an action through the reducer, then re-validates what the
// action touched. Hard violations come back as notices and are published.
func (s *Session) Dispatch(a Action) ([]NoticeEvent, error) {
	next, err := s.reducer.Reduce(s.state, a)
	recordMutation(s.table.Kind, a.Name(), err)
	if err != nil {
		logWithFields(s.logger, logrus.DebugLevel, "lifecycle.action.refused", logrus.Fields{
			"action": a.Name(),
			"reason": err.Error(),
		})
		return nil, err
	}
	s.state = next
	notices := s.revalidate(a)
	for _, n := range notices {
		logWithFields(s.logger, logrus.InfoLevel, "lifecycle.validation.notice", logrus.Fields{
			"line_key": n.Key.String(),
			"position": n.Position,
			"field":    string(n.Field),
			"code":     n.Violation.Code,
		})
		if s.publisher != nil {
			s.publisher.Publish(&n)
		}
	}
	return notices, nil
}

type touched struct {
	key    line.Key
	fields []line.Field
}

func touchedBy(a Action) touched {
	switch act := a.(type) {
	case ChangeCategory:
		return touched{key: act.Key, fields: append([]line.Field{line.FieldCategory}, line.DateFields...)}
	case ChangeDate:
		switch act.Field {
		case line.FieldStartDate:
			return touched{key: act.Key, fields: []line.Field{line.FieldStartDate, line.FieldEndDate, line.FieldEffectivityDate}}
		default:
			return touched{key: act.Key, fields: []line.Field{act.Field}}
		}
	}
	return touched{}
}

// revalidate re-checks the fields an action touched, plus every entry that
// already carries an error so stale errors clear at once. Missing values
// are only reported once a field has been flagged before (i.e. after a full
// validation), not while the user is still filling the line in.
func (s *Session) revalidate(a Action) []NoticeEvent {
	t := touchedBy(a)
	pos := -1
	if t.key != "" {
		pos, _ = s.state.PositionOf(t.key)
	}

	var notices []NoticeEvent
	skip := map[line.Field]bool{}
	for _, f := range t.fields {
		skip[f] = true
		_, had := s.state.Errors.Get(pos, f)
		next, viol := s.validator.ValidateField(s.state, pos, f)
		if viol != nil && viol.Kind == KindRequired && !had {
			continue
		}
		s.state = next
		if viol != nil && viol.Hard() {
			notices = append(notices, NoticeEvent{
				Kind:      s.table.Kind,
				Key:       t.key,
				Position:  pos,
				Field:     f,
				Violation: *viol,
			})
		}
	}

	notices = append(notices, s.revalidateDependents(a, t.key)...)

	errs := s.state.Errors.Clone()
	for p, fields := range s.state.Errors {
		for f := range fields {
			if p == pos && skip[f] {
				continue
			}
			if viol := s.validator.CheckField(s.state, p, f); viol == nil {
				errs.Clear(p, f)
			} else {
				errs.Set(p, f, *viol)
			}
		}
	}
	s.state.Errors = errs
	return notices
}

// affectsTerminals reports whether a can change the checks of terminal lines
// other than the edited one: the precursor start bound or the set of
// terminal lines.
func (s *Session) affectsTerminals(a Action) bool {
	switch act := a.(type) {
	case ChangeCategory, RemoveLine:
		return true
	case ChangeDate:
		if act.Field != line.FieldStartDate {
			return false
		}
		r, ok := s.state.Get(act.Key)
		return ok && s.table.IsPrecursor(r.Category)
	}
	return false
}

// revalidateDependents re-checks the category and regularization date of
// every terminal line other than edited. A hard violation that was not
// reported on that entry before comes back as a notice.
func (s *Session) revalidateDependents(a Action, edited line.Key) []NoticeEvent {
	if !s.affectsTerminals(a) {
		return nil
	}
	var notices []NoticeEvent
	for _, r := range s.state.Lines() {
		if r.Key == edited || !s.table.IsTerminal(r.Category) {
			continue
		}
		for _, f := range []line.Field{line.FieldCategory, line.FieldRegularizationDate} {
			prev, had := s.state.Errors.Get(r.Position, f)
			viol := s.validator.CheckField(s.state, r.Position, f)
			if viol != nil && viol.Kind == KindRequired && !had {
				continue
			}
			errs := s.state.Errors.Clone()
			if viol == nil {
				errs.Clear(r.Position, f)
			} else {
				errs.Set(r.Position, f, *viol)
			}
			s.state.Errors = errs
			if viol == nil || !viol.Hard() || (had && prev.Code == viol.Code) {
				continue
			}
			notices = append(notices, NoticeEvent{
				Kind:      s.table.Kind,
				Key:       r.Key,
				Position:  r.Position,
				Field:     f,
				Violation: *viol,
			})
		}
	}
	return notices
}

// ValidateAll runs the full validation and replaces the session errors.
func (s *Session) ValidateAll() Result {
	res := s.validator.ValidateAll(s.state)
	s.state.Errors = res.Errors.Clone()
	recordViolations(s.table.Kind, res.Errors)
	if !res.IsValid {
		logWithFields(s.logger, logrus.DebugLevel, "lifecycle.validation.failed", logrus.Fields{
			"violations": res.Errors.Count(),
		})
	}
	return res
}

// ValidateField re-checks one field and updates only that entry.
func (s *Session) ValidateField(pos int, f line.Field) *Violation {
	next, viol := s.validator.ValidateField(s.state, pos, f)
	s.state = next
	return viol
}

// Reseed replaces the list when the server records changed materially and
// reports whether it did.
func (s *Session) Reseed(server []WireRecord) bool {
	if !s.reconciler.ShouldReseed(s.seeded, server) {
		return false
	}
	s.state = s.reconciler.Seed(server, s.state.Mode)
	s.seeded = server
	return true
}

// Submission reshapes the current list without validating it.
func (s *Session) Submission() Payload {
	return s.reconciler.ToSubmission(s.state, s.parentID)
}
