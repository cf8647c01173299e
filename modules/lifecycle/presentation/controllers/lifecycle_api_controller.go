package controllers

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/iota-uz/hrm-lifecycle/modules/lifecycle/domain/category"
	"github.com/iota-uz/hrm-lifecycle/modules/lifecycle/presentation/controllers/dtos"
	"github.com/iota-uz/hrm-lifecycle/modules/lifecycle/presentation/mappers"
	"github.com/iota-uz/hrm-lifecycle/modules/lifecycle/services"
	"github.com/iota-uz/hrm-lifecycle/pkg/application"
	"github.com/iota-uz/hrm-lifecycle/pkg/composables"
	"github.com/iota-uz/hrm-lifecycle/pkg/configuration"
	"github.com/iota-uz/hrm-lifecycle/pkg/httpapi"
	"github.com/iota-uz/hrm-lifecycle/pkg/intl"
)

const maxRequestBytes = 1 << 20

const (
	codeInvalidJSON      = "LIFECYCLE_INVALID_JSON"
	codeValidationFailed = "LIFECYCLE_VALIDATION_FAILED"
	codeInvalidMode      = "LIFECYCLE_INVALID_MODE"
	codeInternal         = "LIFECYCLE_INTERNAL"
)

type LifecycleAPIController struct {
	app       application.Application
	lifecycle *services.LifecycleService
	apiPrefix string
}

func NewLifecycleAPIController(app application.Application) application.Controller {
	return &LifecycleAPIController{
		app:       app,
		lifecycle: app.Service(services.LifecycleService{}).(*services.LifecycleService),
		apiPrefix: "/lifecycle/api",
	}
}

func (c *LifecycleAPIController) Key() string {
	return c.apiPrefix
}

func (c *LifecycleAPIController) Register(r *mux.Router) {
	api := r.PathPrefix(c.apiPrefix).Subrouter()

	api.HandleFunc("/{kind}/categories", c.GetCategories).Methods(http.MethodGet)
	api.HandleFunc("/{kind}/seed", c.Seed).Methods(http.MethodPost)
	api.HandleFunc("/{kind}/actions", c.Apply).Methods(http.MethodPost)
	api.HandleFunc("/{kind}/validate", c.Validate).Methods(http.MethodPost)
	api.HandleFunc("/{kind}/submission", c.Submission).Methods(http.MethodPost)
	api.HandleFunc("/{kind}/submit", c.Submit).Methods(http.MethodPost)
}

func (c *LifecycleAPIController) GetCategories(w http.ResponseWriter, r *http.Request) {
	requestID := ensureRequestID(r)
	table, err := c.lifecycle.Table(mux.Vars(r)["kind"])
	if err != nil {
		writeServiceError(w, r, requestID, err)
		return
	}
	query, err := composables.UseQuery(&dtos.CategoriesQuery{}, r)
	if err != nil {
		writeAPIError(w, r, http.StatusBadRequest, requestID, codeInvalidMode, err.Error())
		return
	}
	if _, ok := dtos.Ok(r.Context(), query); !ok {
		writeAPIError(w, r, http.StatusBadRequest, requestID, codeInvalidMode, "mode must be create, edit or view")
		return
	}
	mode := category.ModeCreate
	if query.Mode != "" {
		mode, _ = category.ParseMode(query.Mode)
	}
	writeJSON(w, http.StatusOK, mappers.CategoriesToDTO(r.Context(), table, mode))
}

func (c *LifecycleAPIController) Seed(w http.ResponseWriter, r *http.Request) {
	requestID := ensureRequestID(r)
	var req dtos.SeedRequest
	if !decodeRequest(w, r, requestID, &req) {
		return
	}
	mode, _ := category.ParseMode(req.Mode)
	sess, err := c.lifecycle.Open(r.Context(), mux.Vars(r)["kind"], mode, req.ParentID, req.Records)
	if err != nil {
		writeServiceError(w, r, requestID, err)
		return
	}
	writeJSON(w, http.StatusOK, mappers.SessionToDTO(r.Context(), sess, nil, nil))
}

// Apply replays the actions and reports incremental errors and notices.
func (c *LifecycleAPIController) Apply(w http.ResponseWriter, r *http.Request) {
	requestID := ensureRequestID(r)
	sess, notices, ok := c.resume(w, r, requestID)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, mappers.SessionToDTO(r.Context(), sess, notices, nil))
}

func (c *LifecycleAPIController) Validate(w http.ResponseWriter, r *http.Request) {
	requestID := ensureRequestID(r)
	sess, notices, ok := c.resume(w, r, requestID)
	if !ok {
		return
	}
	res := sess.ValidateAll()
	writeJSON(w, http.StatusOK, mappers.SessionToDTO(r.Context(), sess, notices, &res))
}

// Submission previews the payload without validating or sending it.
func (c *LifecycleAPIController) Submission(w http.ResponseWriter, r *http.Request) {
	requestID := ensureRequestID(r)
	sess, _, ok := c.resume(w, r, requestID)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, mappers.PayloadToDTO(sess.Submission()))
}

func (c *LifecycleAPIController) Submit(w http.ResponseWriter, r *http.Request) {
	requestID := ensureRequestID(r)
	sess, _, ok := c.resume(w, r, requestID)
	if !ok {
		return
	}
	payload, err := c.lifecycle.Submit(r.Context(), sess)
	if err != nil {
		var invalid *services.InvalidListError
		if errors.As(err, &invalid) {
			res := invalid.Result
			writeAPIErrorDetails(w, r, http.StatusUnprocessableEntity, requestID, services.CodeListInvalid,
				"the list has validation errors", mappers.SessionToDTO(r.Context(), sess, nil, &res))
			return
		}
		writeServiceError(w, r, requestID, err)
		return
	}
	writeJSON(w, http.StatusOK, mappers.PayloadToDTO(payload))
}

func (c *LifecycleAPIController) resume(w http.ResponseWriter, r *http.Request, requestID string) (*services.Session, []services.NoticeEvent, bool) {
	var req dtos.ListRequest
	if !decodeRequest(w, r, requestID, &req) {
		return nil, nil, false
	}
	records, err := mappers.LinesFromDTOs(req.Lines)
	if err != nil {
		writeAPIError(w, r, http.StatusBadRequest, requestID, codeValidationFailed, err.Error())
		return nil, nil, false
	}
	actions, err := mappers.ActionsFromDTOs(req.Actions)
	if err != nil {
		writeAPIError(w, r, http.StatusBadRequest, requestID, codeValidationFailed, err.Error())
		return nil, nil, false
	}
	flagged, err := mappers.ErrorsFromDTO(req.Errors)
	if err != nil {
		writeAPIError(w, r, http.StatusBadRequest, requestID, codeValidationFailed, err.Error())
		return nil, nil, false
	}
	mode, _ := category.ParseMode(req.Mode)
	sess, notices, err := c.lifecycle.Resume(r.Context(), mux.Vars(r)["kind"], services.ResumeInput{
		Mode:     mode,
		ParentID: req.ParentID,
		Records:  records,
		Errors:   flagged,
		Actions:  actions,
	})
	if err != nil {
		writeServiceError(w, r, requestID, err)
		return nil, nil, false
	}
	return sess, notices, true
}

func decodeRequest(w http.ResponseWriter, r *http.Request, requestID string, v any) bool {
	if err := httpapi.DecodeJSON(r, maxRequestBytes, v); err != nil {
		msg := "invalid json body"
		switch {
		case errors.Is(err, io.EOF):
			msg = "request body is empty"
		case errors.Is(err, httpapi.ErrBodyTooLarge):
			msg = "request body too large"
		}
		writeAPIError(w, r, http.StatusBadRequest, requestID, codeInvalidJSON, msg)
		return false
	}
	if errs, ok := dtos.Ok(r.Context(), v); !ok {
		writeAPIErrorDetails(w, r, http.StatusBadRequest, requestID, codeValidationFailed, "request validation failed", errs)
		return false
	}
	return true
}

func ensureRequestID(r *http.Request) string {
	if v, ok := composables.UseRequestID(r.Context()); ok && v != "" {
		return v
	}
	conf := configuration.Use()
	v := strings.TrimSpace(r.Header.Get(conf.RequestIDHeader))
	if v != "" {
		return v
	}
	v = uuid.NewString()
	r.Header.Set(conf.RequestIDHeader, v)
	return v
}

func writeServiceError(w http.ResponseWriter, r *http.Request, requestID string, err error) {
	var svcErr *services.ServiceError
	if errors.As(err, &svcErr) {
		if svcErr.Cause != nil && (svcErr.Status == http.StatusConflict || svcErr.Status == http.StatusBadRequest) {
			writeAPIErrorDetails(w, r, svcErr.Status, requestID, svcErr.Code, svcErr.Message, map[string]string{"reason": svcErr.Cause.Error()})
			return
		}
		writeAPIError(w, r, svcErr.Status, requestID, svcErr.Code, svcErr.Message)
		return
	}
	if logger, ok := composables.TryLogger(r.Context()); ok {
		logger.WithFields(logrus.Fields{"error": err.Error()}).Error("lifecycle.api.internal_error")
	}
	writeAPIError(w, r, http.StatusInternalServerError, requestID, codeInternal, err.Error())
}

func writeAPIError(w http.ResponseWriter, r *http.Request, status int, requestID, code, message string) {
	writeAPIErrorDetails(w, r, status, requestID, code, message, nil)
}

func writeAPIErrorDetails(w http.ResponseWriter, r *http.Request, status int, requestID, code, message string, details any) {
	meta := map[string]string{}
	if requestID != "" {
		meta["request_id"] = requestID
	}
	writeJSON(w, status, dtos.APIError{
		Code:    code,
		Message: intl.Localize(r.Context(), "Lifecycle.API."+code, nil, message),
		Meta:    meta,
		Details: details,
	})
}

func writeJSON[T any](w http.ResponseWriter, status int, payload T) {
	if err := httpapi.WriteJSON(w, status, payload); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
