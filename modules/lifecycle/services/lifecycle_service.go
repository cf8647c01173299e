package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/iota-uz/hrm-lifecycle/modules/lifecycle/domain/category"
	"github.com/iota-uz/hrm-lifecycle/modules/lifecycle/domain/line"
	"github.com/iota-uz/hrm-lifecycle/pkg/composables"
	"github.com/iota-uz/hrm-lifecycle/pkg/eventbus"
)

const (
	CodeUnknownKind         = "LIFECYCLE_UNKNOWN_KIND"
	CodeActionRefused       = "LIFECYCLE_ACTION_REFUSED"
	CodeDuplicateKey        = "LIFECYCLE_DUPLICATE_KEY"
	CodeListInvalid         = "LIFECYCLE_LIST_INVALID"
	CodeReadOnly            = "LIFECYCLE_READ_ONLY"
	CodeInFlight            = "LIFECYCLE_SUBMISSION_IN_FLIGHT"
	CodeUpstreamUnavailable = "LIFECYCLE_UPSTREAM_UNAVAILABLE"
	CodeUpstreamFailed      = "LIFECYCLE_UPSTREAM_FAILED"
)

var (
	ErrUnknownKind   = errors.New("unknown line list kind")
	ErrNoSubmitter   = errors.New("no upstream records api configured")
	ErrUpstreamAbort = errors.New("upstream rejected the submission")
)

type LifecycleServiceOptions struct {
	IDs             line.IDGenerator
	Today           func() time.Time
	ProbationMonths int
	Publisher       eventbus.EventBus
	Submitter       Submitter
}

// LifecycleService opens engine sessions for the API and CLI. Sessions are
// short-lived: a stateless caller seeds once, then resumes from the list it
// kept and replays its actions on every request. Because of that the
// service, not the session, holds the in-flight submission per parent record.
type LifecycleService struct {
	opts LifecycleServiceOptions

	mu       sync.Mutex
	inflight map[string]struct{}
}

func NewLifecycleService(opts LifecycleServiceOptions) *LifecycleService {
	if opts.IDs == nil {
		opts.IDs = line.UUIDGenerator()
	}
	if opts.Today == nil {
		opts.Today = time.Now
	}
	return &LifecycleService{opts: opts, inflight: map[string]struct{}{}}
}

// HasSubmitter reports whether submissions can be forwarded upstream.
func (s *LifecycleService) HasSubmitter() bool {
	return s.opts.Submitter != nil
}

// Table resolves a kind slug to its rule table.
func (s *LifecycleService) Table(kind string) (*category.Table, error) {
	table, ok := category.Lookup(kind)
	if !ok {
		return nil, newServiceError(http.StatusNotFound, CodeUnknownKind, fmt.Sprintf("unknown kind %q", kind), ErrUnknownKind)
	}
	return table, nil
}

func (s *LifecycleService) sessionOptions(ctx context.Context, table *category.Table, mode category.Mode, parentID line.RecordID) SessionOptions {
	logger, _ := composables.TryLogger(ctx)
	return SessionOptions{
		Table:           table,
		Mode:            mode,
		ParentID:        parentID,
		IDs:             s.opts.IDs,
		Today:           s.opts.Today,
		ProbationMonths: s.opts.ProbationMonths,
		Publisher:       s.opts.Publisher,
		Logger:          logger,
	}
}

// Open seeds a session from a raw server document in any accepted shape.
func (s *LifecycleService) Open(ctx context.Context, kind string, mode category.Mode, parentID line.RecordID, raw []byte) (*Session, error) {
	table, err := s.Table(kind)
	if err != nil {
		return nil, err
	}
	opts := s.sessionOptions(ctx, table, mode, parentID)
	decoder := NewReconciler(table, opts.IDs, nil, opts.Logger)
	return NewSession(opts, decoder.DecodeServerRecords(raw)), nil
}

// ResumeInput is a list kept by a stateless caller.
type ResumeInput struct {
	Mode     category.Mode
	ParentID line.RecordID
	Records  []line.Record

	// Errors are the errors the caller last received; may be nil.
	Errors  ErrorMap
	Actions []Action
}

// Resume restores a kept list and replays actions on it in order. The first
// refused action aborts the replay.
func (s *LifecycleService) Resume(ctx context.Context, kind string, in ResumeInput) (*Session, []NoticeEvent, error) {
	table, err := s.Table(kind)
	if err != nil {
		return nil, nil, err
	}
	sess, err := Resume(s.sessionOptions(ctx, table, in.Mode, in.ParentID), in.Records, in.Errors)
	if err != nil {
		return nil, nil, newServiceError(http.StatusBadRequest, CodeDuplicateKey, "line keys must be unique", err)
	}

	var notices []NoticeEvent
	for i, a := range in.Actions {
		n, err := sess.Dispatch(a)
		if err != nil {
			return sess, notices, newServiceError(
				http.StatusConflict,
				CodeActionRefused,
				fmt.Sprintf("action %d (%s) refused", i, a.Name()),
				err,
			)
		}
		notices = append(notices, n...)
	}
	return sess, notices, nil
}

// Submit forwards a validated list upstream. An invalid list comes back as
// *InvalidListError so callers can render the per-field errors.
func (s *LifecycleService) Submit(ctx context.Context, sess *Session) (Payload, error) {
	if s.opts.Submitter == nil {
		return Payload{}, newServiceError(http.StatusServiceUnavailable, CodeUpstreamUnavailable, "submission upstream is not configured", ErrNoSubmitter)
	}
	release, ok := s.claim(sess)
	if !ok {
		recordSubmission(sess.Table().Kind, "", "in_flight")
		return Payload{}, newServiceError(http.StatusConflict, CodeInFlight, "a submission is already in flight", ErrSubmissionInFlight)
	}
	defer release()

	payload, err := sess.Submit(ctx, s.opts.Submitter)
	if err == nil {
		return payload, nil
	}

	var invalid *InvalidListError
	switch {
	case errors.As(err, &invalid):
		return payload, err
	case errors.Is(err, ErrModeReadOnly):
		return payload, newServiceError(http.StatusConflict, CodeReadOnly, "view mode does not submit", err)
	case errors.Is(err, ErrSubmissionInFlight):
		return payload, newServiceError(http.StatusConflict, CodeInFlight, "a submission is already in flight", err)
	}
	if logger, ok := composables.TryLogger(ctx); ok {
		logger.WithFields(logrus.Fields{"kind": sess.Table().Kind, "error": err.Error()}).Warn("lifecycle.submission.upstream_failed")
	}
	return payload, newServiceError(http.StatusBadGateway, CodeUpstreamFailed, "upstream rejected the submission", errors.Join(ErrUpstreamAbort, err))
}

// claim marks the parent record of sess as being submitted. Lists of a
// parent that does not exist yet are not tracked: each creates a new record.
func (s *LifecycleService) claim(sess *Session) (func(), bool) {
	if sess.ParentID().IsZero() {
		return func() {}, true
	}
	key := sess.Table().Kind + "/" + sess.ParentID().String()
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.inflight[key]; busy {
		return nil, false
	}
	s.inflight[key] = struct{}{}
	return func() {
		s.mu.Lock()
		delete(s.inflight, key)
		s.mu.Unlock()
	}, true
}
