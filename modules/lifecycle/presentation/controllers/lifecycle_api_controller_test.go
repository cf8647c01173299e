package controllers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"github.com/iota-uz/hrm-lifecycle/modules/lifecycle"
	"github.com/iota-uz/hrm-lifecycle/modules/lifecycle/domain/line"
	"github.com/iota-uz/hrm-lifecycle/modules/lifecycle/presentation/controllers/dtos"
	"github.com/iota-uz/hrm-lifecycle/modules/lifecycle/services"
	"github.com/iota-uz/hrm-lifecycle/pkg/application"
	"github.com/iota-uz/hrm-lifecycle/pkg/middleware"
)

type submitted struct {
	mu       sync.Mutex
	kind     string
	parentID string
	payload  services.Payload
	calls    int
}

func (s *submitted) Submit(_ context.Context, kind string, parentID line.RecordID, payload services.Payload) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	s.kind = kind
	s.parentID = parentID.String()
	s.payload = payload
	return nil
}

func newTestRouter(t *testing.T, sub services.Submitter) http.Handler {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	app := application.New(&application.ApplicationOptions{Logger: logger})
	module := lifecycle.NewModule(&lifecycle.ModuleOptions{
		IDs:       line.NewSequence("ln"),
		Today:     func() time.Time { return time.Date(2026, time.October, 19, 0, 0, 0, 0, time.UTC) },
		Submitter: sub,
	})
	require.NoError(t, module.Register(app))

	r := mux.NewRouter()
	r.Use(middleware.ProvideLocalizer(app, language.English))
	for _, c := range app.Controllers() {
		c.Register(r)
	}
	return r
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any, header map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var rdr io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		rdr = strings.NewReader(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		rdr = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, rdr)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func seedProbation(t *testing.T, h http.Handler) dtos.SessionDTO {
	t.Helper()
	rec := doJSON(t, h, http.MethodPost, "/lifecycle/api/employment-types/seed", map[string]any{
		"mode":      "edit",
		"parent_id": 42,
		"records": map[string]any{"records": []map[string]any{
			{"id": 5, "category": "PROBATIONARY", "start_date": "2024-01-10", "end_date": "2024-07-10"},
		}},
	}, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	return decode[dtos.SessionDTO](t, rec)
}

func listRequest(sess dtos.SessionDTO, actions ...dtos.ActionDTO) map[string]any {
	return map[string]any{
		"mode":      sess.Mode,
		"parent_id": sess.ParentID,
		"lines":     sess.Lines,
		"actions":   actions,
	}
}

func strPtr(s string) *string { return &s }

func TestLifecycleAPI_Categories(t *testing.T) {
	h := newTestRouter(t, nil)

	rec := doJSON(t, h, http.MethodGet, "/lifecycle/api/employment-types/categories?mode=edit", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	out := decode[dtos.CategoriesDTO](t, rec)
	require.Equal(t, "REGULAR", out.Terminal)
	require.Equal(t, "PROBATIONARY", out.Precursor)
	require.Len(t, out.Categories, 4)
	require.Equal(t, "Regular", out.Categories[3].Label)
	require.True(t, out.Categories[3].Allowed)

	rec = doJSON(t, h, http.MethodGet, "/lifecycle/api/employee-statuses/categories", nil, map[string]string{"Accept-Language": "zh"})
	require.Equal(t, http.StatusOK, rec.Code)
	statuses := decode[dtos.CategoriesDTO](t, rec)
	require.Equal(t, "create", statuses.Mode)
	require.Equal(t, "正式", statuses.Categories[0].Label)
	require.Equal(t, "any", statuses.Removal)

	rec = doJSON(t, h, http.MethodGet, "/lifecycle/api/employment-types/categories?mode=delete", nil, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "LIFECYCLE_INVALID_MODE", decode[dtos.APIError](t, rec).Code)
}

func TestLifecycleAPI_UnknownKind(t *testing.T) {
	h := newTestRouter(t, nil)
	rec := doJSON(t, h, http.MethodGet, "/lifecycle/api/salaries/categories", nil, map[string]string{"X-Request-Id": "req-1"})
	require.Equal(t, http.StatusNotFound, rec.Code)
	apiErr := decode[dtos.APIError](t, rec)
	require.Equal(t, "LIFECYCLE_UNKNOWN_KIND", apiErr.Code)
	require.Equal(t, "Unknown list kind.", apiErr.Message)
	require.Equal(t, "req-1", apiErr.Meta["request_id"])
}

func TestLifecycleAPI_Seed(t *testing.T) {
	h := newTestRouter(t, nil)
	sess := seedProbation(t, h)

	require.Equal(t, "employment-types", sess.Kind)
	require.Equal(t, "42", sess.ParentID.String())
	require.Len(t, sess.Lines, 1)
	require.Equal(t, "5", sess.Lines[0].ID.String())
	require.True(t, sess.Lines[0].Locked)
	require.True(t, sess.CanAppend)
	require.Nil(t, sess.IsValid)
	require.Empty(t, sess.Errors)
}

func TestLifecycleAPI_ActionsReportNoticesLocalized(t *testing.T) {
	h := newTestRouter(t, nil)
	seeded := seedProbation(t, h)

	rec := doJSON(t, h, http.MethodPost, "/lifecycle/api/employment-types/actions",
		listRequest(seeded, dtos.ActionDTO{Type: "append"}), nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	appended := decode[dtos.SessionDTO](t, rec)
	require.Len(t, appended.Lines, 2)
	require.False(t, appended.CanAppend)
	key := appended.Lines[1].Key
	require.NotEmpty(t, key)
	require.True(t, appended.Lines[1].Fresh)

	rec = doJSON(t, h, http.MethodPost, "/lifecycle/api/employment-types/actions",
		listRequest(appended,
			dtos.ActionDTO{Type: "change_category", Key: key, Category: "REGULAR"},
			dtos.ActionDTO{Type: "change_date", Key: key, Field: "regularization_date", Value: strPtr("2024-01-05")},
		), map[string]string{"Accept-Language": "zh"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	out := decode[dtos.SessionDTO](t, rec)
	require.Len(t, out.Notices, 1)
	notice := out.Notices[0]
	require.Equal(t, key, notice.Key)
	require.Equal(t, "regularization_date", notice.Field)
	require.Equal(t, "regularization_before_probation", notice.Violation.Code)
	require.Equal(t, "转正日期不能早于试用期开始日期（2024-01-10）。", notice.Violation.Message)
	require.Equal(t, "regularization_before_probation", out.Errors["1"]["regularization_date"].Code)
}

func TestLifecycleAPI_Validate(t *testing.T) {
	h := newTestRouter(t, nil)
	seeded := seedProbation(t, h)

	rec := doJSON(t, h, http.MethodPost, "/lifecycle/api/employment-types/validate",
		listRequest(seeded, dtos.ActionDTO{Type: "append"}), nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	out := decode[dtos.SessionDTO](t, rec)
	require.NotNil(t, out.IsValid)
	require.False(t, *out.IsValid)
	require.Equal(t, "category_required", out.Errors["1"]["category"].Code)
	require.Equal(t, "Select a category.", out.Errors["1"]["category"].Message)

	rec = doJSON(t, h, http.MethodPost, "/lifecycle/api/employment-types/validate", listRequest(seeded), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	out = decode[dtos.SessionDTO](t, rec)
	require.True(t, *out.IsValid)
	require.Empty(t, out.Errors)
}

func TestLifecycleAPI_EchoedErrorsKeepRequiredFields(t *testing.T) {
	h := newTestRouter(t, nil)
	lines := []map[string]any{{"key": "a", "category": "PROBATIONARY", "fresh": true}}

	rec := doJSON(t, h, http.MethodPost, "/lifecycle/api/employment-types/validate", map[string]any{
		"mode":  "create",
		"lines": lines,
	}, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	validated := decode[dtos.SessionDTO](t, rec)
	require.Equal(t, "required", validated.Errors["0"]["end_date"].Code)

	clearEnd := dtos.ActionDTO{Type: "change_date", Key: "a", Field: "end_date"}
	rec = doJSON(t, h, http.MethodPost, "/lifecycle/api/employment-types/actions", map[string]any{
		"mode":    "create",
		"lines":   validated.Lines,
		"errors":  validated.Errors,
		"actions": []dtos.ActionDTO{clearEnd},
	}, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	out := decode[dtos.SessionDTO](t, rec)
	require.Equal(t, "required", out.Errors["0"]["end_date"].Code)
	require.Equal(t, "required", out.Errors["0"]["start_date"].Code)

	rec = doJSON(t, h, http.MethodPost, "/lifecycle/api/employment-types/actions", map[string]any{
		"mode":    "create",
		"lines":   validated.Lines,
		"actions": []dtos.ActionDTO{clearEnd},
	}, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Empty(t, decode[dtos.SessionDTO](t, rec).Errors)
}

func TestLifecycleAPI_RefusedAction(t *testing.T) {
	h := newTestRouter(t, nil)
	seeded := seedProbation(t, h)

	rec := doJSON(t, h, http.MethodPost, "/lifecycle/api/employment-types/actions",
		listRequest(seeded, dtos.ActionDTO{Type: "remove", Key: seeded.Lines[0].Key}), nil)
	require.Equal(t, http.StatusConflict, rec.Code)
	apiErr := decode[dtos.APIError](t, rec)
	require.Equal(t, services.CodeActionRefused, apiErr.Code)
	require.NotNil(t, apiErr.Details)
}

func TestLifecycleAPI_BadRequests(t *testing.T) {
	h := newTestRouter(t, nil)

	rec := doJSON(t, h, http.MethodPost, "/lifecycle/api/employment-types/seed", "{", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "LIFECYCLE_INVALID_JSON", decode[dtos.APIError](t, rec).Code)

	rec = doJSON(t, h, http.MethodPost, "/lifecycle/api/employment-types/validate", map[string]any{
		"mode":  "archive",
		"lines": []map[string]any{{"category": "REGULAR", "regularization_date": "11/02/2026"}},
	}, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	var apiErr struct {
		Code    string            `json:"code"`
		Details map[string]string `json:"details"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &apiErr))
	require.Equal(t, "LIFECYCLE_VALIDATION_FAILED", apiErr.Code)
	require.Equal(t, "mode must be one of [create edit view]", apiErr.Details["mode"])
	require.Equal(t, "regularization_date does not match the 2006-01-02 format", apiErr.Details["lines[0].regularization_date"])

	rec = doJSON(t, h, http.MethodPost, "/lifecycle/api/employment-types/actions", map[string]any{
		"mode":    "edit",
		"lines":   []map[string]any{{"category": "REGULAR"}},
		"actions": []map[string]any{{"type": "change_date", "key": "k", "field": "category"}},
	}, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "LIFECYCLE_VALIDATION_FAILED", decode[dtos.APIError](t, rec).Code)
}

func TestLifecycleAPI_DuplicateLineKeys(t *testing.T) {
	h := newTestRouter(t, nil)
	lines := []map[string]any{
		{"key": "a", "category": "PROBATIONARY", "start_date": "2026-11-01"},
		{"key": "a", "category": "AGENCY HIRED", "effectivity_date": "2026-11-01"},
	}

	for _, path := range []string{"actions", "validate", "submission", "submit"} {
		rec := doJSON(t, h, http.MethodPost, "/lifecycle/api/employment-types/"+path, map[string]any{
			"mode":  "edit",
			"lines": lines,
		}, map[string]string{"Accept-Language": "zh"})
		require.Equal(t, http.StatusBadRequest, rec.Code, path)
		apiErr := decode[dtos.APIError](t, rec)
		require.Equal(t, services.CodeDuplicateKey, apiErr.Code, path)
		require.Equal(t, "每一行的标识必须唯一。", apiErr.Message, path)
		require.NotNil(t, apiErr.Details, path)
	}
}

func TestLifecycleAPI_Submission(t *testing.T) {
	h := newTestRouter(t, nil)
	seeded := seedProbation(t, h)

	rec := doJSON(t, h, http.MethodPost, "/lifecycle/api/employment-types/submission", listRequest(seeded), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"method":"PATCH","records":[{"id":5,"category":"PROBATIONARY","start_date":"2024-01-10","end_date":"2024-07-10","effectivity_date":null,"regularization_date":null}]}`, rec.Body.String())
}

func TestLifecycleAPI_Submit(t *testing.T) {
	sub := &submitted{}
	h := newTestRouter(t, sub)
	seeded := seedProbation(t, h)

	rec := doJSON(t, h, http.MethodPost, "/lifecycle/api/employment-types/actions",
		listRequest(seeded, dtos.ActionDTO{Type: "append"}), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	appended := decode[dtos.SessionDTO](t, rec)
	key := appended.Lines[1].Key

	rec = doJSON(t, h, http.MethodPost, "/lifecycle/api/employment-types/submit", listRequest(appended), nil)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	var invalid struct {
		Code    string          `json:"code"`
		Details dtos.SessionDTO `json:"details"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &invalid))
	require.Equal(t, services.CodeListInvalid, invalid.Code)
	require.Equal(t, "category_required", invalid.Details.Errors["1"]["category"].Code)
	require.Zero(t, sub.calls)

	rec = doJSON(t, h, http.MethodPost, "/lifecycle/api/employment-types/submit", listRequest(appended,
		dtos.ActionDTO{Type: "change_category", Key: key, Category: "REGULAR"},
		dtos.ActionDTO{Type: "change_date", Key: key, Field: "regularization_date", Value: strPtr("2026-11-02")},
	), nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Equal(t, 1, sub.calls)
	require.Equal(t, "employment-types", sub.kind)
	require.Equal(t, "42", sub.parentID)
	require.Equal(t, "PATCH", sub.payload.Method)
	require.Len(t, sub.payload.Records, 2)
	require.True(t, sub.payload.Records[1].ID.IsZero())
	require.Equal(t, "2026-11-02", *sub.payload.Records[1].RegularizationDate)
}

func TestLifecycleAPI_SubmitUpstream(t *testing.T) {
	h := newTestRouter(t, nil)
	seeded := seedProbation(t, h)
	rec := doJSON(t, h, http.MethodPost, "/lifecycle/api/employment-types/submit", listRequest(seeded), nil)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	require.Equal(t, services.CodeUpstreamUnavailable, decode[dtos.APIError](t, rec).Code)

	failing := services.SubmitterFunc(func(context.Context, string, line.RecordID, services.Payload) error {
		return errors.New("connection reset")
	})
	h = newTestRouter(t, failing)
	rec = doJSON(t, h, http.MethodPost, "/lifecycle/api/employment-types/submit", listRequest(seeded), nil)
	require.Equal(t, http.StatusBadGateway, rec.Code)
	require.Equal(t, services.CodeUpstreamFailed, decode[dtos.APIError](t, rec).Code)
}
