package services

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/iota-uz/hrm-lifecycle/modules/lifecycle/domain/category"
	"github.com/iota-uz/hrm-lifecycle/modules/lifecycle/domain/line"
)

type recordingSubmitter struct {
	calls    int
	kind     string
	parentID line.RecordID
	payload  Payload
	err      error
}

func (r *recordingSubmitter) Submit(_ context.Context, kind string, parentID line.RecordID, payload Payload) error {
	r.calls++
	r.kind = kind
	r.parentID = parentID
	r.payload = payload
	return r.err
}

func validProbation(t *testing.T) *Session {
	t.Helper()
	s := newTestSession(t, category.EmploymentType, category.ModeCreate, nil)
	key := keyAt(t, s, 0)
	_, err := s.SetCategory(key, category.Probationary)
	require.NoError(t, err)
	_, err = s.SetDate(key, line.FieldStartDate, line.Day(2026, time.November, 2))
	require.NoError(t, err)
	return s
}

func TestSubmit_Success(t *testing.T) {
	s := validProbation(t)
	sub := &recordingSubmitter{}

	payload, err := s.Submit(context.Background(), sub)
	require.NoError(t, err)
	require.Equal(t, 1, sub.calls)
	require.Equal(t, "employment-types", sub.kind)
	require.True(t, sub.parentID.IsZero())
	require.Equal(t, http.MethodPost, payload.Method)
	require.Equal(t, payload, sub.payload)
	require.Equal(t, "2027-05-02", *payload.Records[0].EndDate)
	require.False(t, s.Submitting())
}

func TestSubmit_SecondCallWhileInFlight(t *testing.T) {
	s := validProbation(t)
	var inner error
	var busy bool
	sub := SubmitterFunc(func(ctx context.Context, _ string, _ line.RecordID, _ Payload) error {
		busy = s.Submitting()
		_, inner = s.Submit(ctx, &recordingSubmitter{})
		return nil
	})

	_, err := s.Submit(context.Background(), sub)
	require.NoError(t, err)
	require.True(t, busy)
	require.ErrorIs(t, inner, ErrSubmissionInFlight)
	require.False(t, s.Submitting())
}

func TestSubmit_InvalidListIsNotSent(t *testing.T) {
	s := newTestSession(t, category.EmploymentType, category.ModeCreate, nil)
	sub := &recordingSubmitter{}

	_, err := s.Submit(context.Background(), sub)
	require.ErrorIs(t, err, ErrInvalidList)
	var invalid *InvalidListError
	require.True(t, errors.As(err, &invalid))
	require.False(t, invalid.Result.IsValid)
	require.Zero(t, sub.calls)
	_, ok := s.Errors().Get(0, line.FieldCategory)
	require.True(t, ok)
}

func TestSubmit_FailureLeavesListUntouched(t *testing.T) {
	s := validProbation(t)
	before := s.State().Lines()
	boom := errors.New("gateway timeout")
	sub := &recordingSubmitter{err: boom}

	payload, err := s.Submit(context.Background(), sub)
	require.ErrorIs(t, err, boom)
	require.Len(t, payload.Records, 1)
	require.Equal(t, before, s.State().Lines())
	require.False(t, s.Submitting())

	sub.err = nil
	_, err = s.Submit(context.Background(), sub)
	require.NoError(t, err)
	require.Equal(t, 2, sub.calls)
}

func TestSubmit_ViewModeRefused(t *testing.T) {
	s := newTestSession(t, category.EmployeeStatus, category.ModeView, []WireRecord{
		{ID: line.NumericRecordID(1), Category: "BACK OUT"},
	})
	sub := &recordingSubmitter{}

	_, err := s.Submit(context.Background(), sub)
	require.ErrorIs(t, err, ErrModeReadOnly)
	require.Zero(t, sub.calls)
}
