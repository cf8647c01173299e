package services

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"github.com/iota-uz/hrm-lifecycle/modules/lifecycle/domain/line"
)

// Submitter is the API collaborator that persists a submission.
type Submitter interface {
	Submit(ctx context.Context, kind string, parentID line.RecordID, payload Payload) error
}

// SubmitterFunc adapts a function to Submitter.
type SubmitterFunc func(ctx context.Context, kind string, parentID line.RecordID, payload Payload) error

func (f SubmitterFunc) Submit(ctx context.Context, kind string, parentID line.RecordID, payload Payload) error {
	return f(ctx, kind, parentID, payload)
}

// InvalidListError is returned by Submit when validation fails.
type InvalidListError struct {
	Result Result
}

func (e *InvalidListError) Error() string {
	return fmt.Sprintf("%s: %d violation(s)", ErrInvalidList.Error(), e.Result.Errors.Count())
}

func (e *InvalidListError) Unwrap() error { return ErrInvalidList }

type submitGuard struct {
	busy atomic.Bool
}

// Submitting reports whether a submission is in flight.
func (s *Session) Submitting() bool {
	return s.flight.busy.Load()
}

// Submit validates the list and hands the payload to sub. Only one
// submission may be in flight. A failed submission is reported as-is and
// leaves the list untouched so it can be resubmitted.
func (s *Session) Submit(ctx context.Context, sub Submitter) (Payload, error) {
	if !s.flight.busy.CompareAndSwap(false, true) {
		recordSubmission(s.table.Kind, "", "in_flight")
		return Payload{}, ErrSubmissionInFlight
	}
	defer s.flight.busy.Store(false)

	if !s.state.Mode.Mutable() {
		return Payload{}, ErrModeReadOnly
	}

	res := s.ValidateAll()
	if !res.IsValid {
		recordSubmission(s.table.Kind, "", "invalid")
		return Payload{}, &InvalidListError{Result: res}
	}

	payload := s.Submission()
	if err := sub.Submit(ctx, s.table.Kind, s.parentID, payload); err != nil {
		recordSubmission(s.table.Kind, payload.Method, "failed")
		logWithFields(s.logger, logrus.ErrorLevel, "lifecycle.submission.failed", logrus.Fields{
			"method":    payload.Method,
			"parent_id": s.parentID.String(),
			"records":   len(payload.Records),
			"error":     err.Error(),
		})
		return payload, err
	}
	recordSubmission(s.table.Kind, payload.Method, "ok")
	logWithFields(s.logger, logrus.InfoLevel, "lifecycle.submission.ok", logrus.Fields{
		"method":    payload.Method,
		"parent_id": s.parentID.String(),
		"records":   len(payload.Records),
	})
	return payload, nil
}
