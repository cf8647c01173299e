package services

import (
	"testing"
	"time"

	"github.com/iota-uz/hrm-lifecycle/modules/lifecycle/domain/category"
	"github.com/iota-uz/hrm-lifecycle/modules/lifecycle/domain/line"
	"github.com/iota-uz/hrm-lifecycle/pkg/eventbus"
)

var fixedToday = time.Date(2026, time.October, 19, 9, 30, 0, 0, time.UTC)

func today() time.Time { return fixedToday }

func strPtr(s string) *string { return &s }

type sessionOpt func(*SessionOptions)

func withParent(id line.RecordID) sessionOpt {
	return func(o *SessionOptions) { o.ParentID = id }
}

func withPublisher(bus eventbus.EventBus) sessionOpt {
	return func(o *SessionOptions) { o.Publisher = bus }
}

func newTestSession(t *testing.T, table *category.Table, mode category.Mode, server []WireRecord, opts ...sessionOpt) *Session {
	t.Helper()
	o := SessionOptions{
		Table: table,
		Mode:  mode,
		IDs:   line.NewSequence("ln"),
		Today: today,
	}
	for _, fn := range opts {
		fn(&o)
	}
	return NewSession(o, server)
}

// scenarioB is the committed probationary stint used by several tests.
func scenarioB(t *testing.T, opts ...sessionOpt) *Session {
	t.Helper()
	return newTestSession(t, category.EmploymentType, category.ModeEdit, []WireRecord{
		{ID: line.NumericRecordID(5), Category: "PROBATIONARY", StartDate: strPtr("2024-01-10")},
	}, opts...)
}

func keyAt(t *testing.T, s *Session, pos int) line.Key {
	t.Helper()
	r, ok := s.State().At(pos)
	if !ok {
		t.Fatalf("no line at position %d", pos)
	}
	return r.Key
}
