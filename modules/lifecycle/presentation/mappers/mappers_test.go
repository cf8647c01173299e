package mappers

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/iota-uz/hrm-lifecycle/modules/lifecycle/domain/category"
	"github.com/iota-uz/hrm-lifecycle/modules/lifecycle/domain/line"
	"github.com/iota-uz/hrm-lifecycle/modules/lifecycle/presentation/controllers/dtos"
	"github.com/iota-uz/hrm-lifecycle/modules/lifecycle/services"
)

func strPtr(s string) *string { return &s }

func editSession(t *testing.T) *services.Session {
	t.Helper()
	return services.NewSession(services.SessionOptions{
		Table: category.EmploymentType,
		Mode:  category.ModeEdit,
		IDs:   line.NewSequence("ln"),
		Today: func() time.Time { return time.Date(2026, time.October, 19, 0, 0, 0, 0, time.UTC) },
	}, []services.WireRecord{
		{ID: line.NumericRecordID(5), Category: "PROBATIONARY", StartDate: strPtr("2024-01-10"), EndDate: strPtr("2024-07-10")},
	})
}

func TestLinesRoundTrip(t *testing.T) {
	sess := editSession(t)
	out := LinesToDTOs(sess)
	require.Len(t, out, 1)
	require.Equal(t, "ln-1", out[0].Key)
	require.Equal(t, "5", out[0].ID.String())
	require.Equal(t, "2024-01-10", *out[0].StartDate)
	require.True(t, out[0].Locked)
	require.False(t, out[0].Removable)
	require.False(t, out[0].Fresh)

	back, err := LinesFromDTOs(out)
	require.NoError(t, err)
	require.Equal(t, sess.State().Lines(), back)
}

func TestLinesFromDTOs_BadDate(t *testing.T) {
	_, err := LinesFromDTOs([]dtos.LineDTO{{Category: "REGULAR", RegularizationDate: strPtr("2024-02-30")}})
	require.ErrorContains(t, err, "lines[0].regularization_date")
}

func TestActionsFromDTOs(t *testing.T) {
	actions, err := ActionsFromDTOs([]dtos.ActionDTO{
		{Type: "append"},
		{Type: "change_category", Key: "ln-2", Category: " regular "},
		{Type: "change_date", Key: "ln-2", Field: "regularization_date", Value: strPtr("2026-11-02")},
		{Type: "change_date", Key: "ln-2", Field: "end_date"},
		{Type: "remove", Key: "ln-2"},
	})
	require.NoError(t, err)
	require.Equal(t, services.AppendLine{}, actions[0])
	require.Equal(t, services.ChangeCategory{Key: "ln-2", Category: category.Regular}, actions[1])
	require.Equal(t, services.ChangeDate{Key: "ln-2", Field: line.FieldRegularizationDate, Value: line.Day(2026, time.November, 2)}, actions[2])
	require.Equal(t, services.ChangeDate{Key: "ln-2", Field: line.FieldEndDate}, actions[3])
	require.Equal(t, services.RemoveLine{Key: "ln-2"}, actions[4])

	_, err = ActionsFromDTOs([]dtos.ActionDTO{{Type: "change_date", Key: "k", Field: "category"}})
	require.ErrorIs(t, err, ErrNotDateField)
	_, err = ActionsFromDTOs([]dtos.ActionDTO{{Type: "rename"}})
	require.ErrorIs(t, err, ErrUnknownAction)
}

func TestSessionToDTO_FullValidation(t *testing.T) {
	sess := editSession(t)
	_, err := sess.Append()
	require.NoError(t, err)

	res := sess.ValidateAll()
	out := SessionToDTO(context.Background(), sess, nil, &res)
	require.NotNil(t, out.IsValid)
	require.False(t, *out.IsValid)
	require.False(t, out.CanAppend)
	require.Equal(t, "category_required", out.Errors["1"]["category"].Code)
	require.Equal(t, "Select a category.", out.Errors["1"]["category"].Message)
	require.Contains(t, out.Allowed, "REGULAR")
	require.True(t, out.Lines[1].Removable)
}

func TestCategoriesToDTO(t *testing.T) {
	out := CategoriesToDTO(context.Background(), category.EmploymentType, category.ModeCreate)
	require.Equal(t, "last_only", out.Removal)
	require.Equal(t, 2, out.MaxLines)
	require.Len(t, out.Categories, 4)
	regular := out.Categories[3]
	require.Equal(t, "REGULAR", regular.Label)
	require.True(t, regular.Terminal)
	require.False(t, regular.Allowed)
	require.JSONEq(t, `{"start":false,"end":false,"effectivity":false,"regularization":true}`, string(regular.Profile))
}

func TestErrorsFromDTO(t *testing.T) {
	errs, err := ErrorsFromDTO(map[string]map[string]dtos.ViolationDTO{
		"1": {"end_date": {Kind: "required", Code: "required"}},
	})
	require.NoError(t, err)
	v, ok := errs.Get(1, line.FieldEndDate)
	require.True(t, ok)
	require.Equal(t, services.KindRequired, v.Kind)

	empty, err := ErrorsFromDTO(nil)
	require.NoError(t, err)
	require.Empty(t, empty)

	_, err = ErrorsFromDTO(map[string]map[string]dtos.ViolationDTO{"x": {"end_date": {}}})
	require.ErrorIs(t, err, ErrBadErrorKey)
	_, err = ErrorsFromDTO(map[string]map[string]dtos.ViolationDTO{"0": {"salary": {}}})
	require.ErrorIs(t, err, ErrBadErrorKey)
}
