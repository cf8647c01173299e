package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/iota-uz/go-i18n/v2/i18n"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"github.com/iota-uz/hrm-lifecycle/pkg/composables"
	"github.com/iota-uz/hrm-lifecycle/pkg/intl"
)

func newBufferLogger() (*logrus.Logger, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	l := logrus.New()
	l.SetOutput(buf)
	l.SetFormatter(&logrus.JSONFormatter{})
	l.SetLevel(logrus.InfoLevel)
	return l, buf
}

func TestWithLogger_PropagatesRequestID(t *testing.T) {
	logger, buf := newBufferLogger()
	var seen string
	h := WithLogger(logger, DefaultLoggerOptions())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := composables.UseRequestID(r.Context())
		require.True(t, ok)
		seen = id
		composables.UseLogger(r.Context()).Info("inside")
		w.WriteHeader(http.StatusAccepted)
	}))

	req := httptest.NewRequest(http.MethodGet, "/lifecycle/api/employment-types/categories", nil)
	req.Header.Set("X-Request-ID", "req-123")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusAccepted, rec.Code)
	require.Equal(t, "req-123", seen)
	require.Equal(t, "req-123", rec.Header().Get("X-Request-ID"))
	require.Contains(t, buf.String(), `"request-id":"req-123"`)
	require.Contains(t, buf.String(), "request completed")
}

func TestWithLogger_GeneratesRequestID(t *testing.T) {
	logger, _ := newBufferLogger()
	h := WithLogger(logger, DefaultLoggerOptions())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Len(t, rec.Header().Get("X-Request-ID"), 36)
}

func TestWithLogger_RecoversPanicAsJSON(t *testing.T) {
	logger, buf := newBufferLogger()
	opts := DefaultLoggerOptions()
	opts.APIPrefixes = []string{"/lifecycle/api"}
	h := WithLogger(logger, opts)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/lifecycle/api/employment-types/seed", nil))
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Contains(t, rec.Body.String(), `"code":"INTERNAL_SERVER_ERROR"`)
	require.Contains(t, buf.String(), "panic recovered")

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/other", nil))
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.NotContains(t, rec.Body.String(), "INTERNAL_SERVER_ERROR")
}

type stubApp struct{}

func (stubApp) Bundle() *i18n.Bundle { return intl.NewBundle(language.English) }

func (stubApp) GetSupportedLanguages() []string { return []string{"en", "zh"} }

func TestProvideLocalizer(t *testing.T) {
	var got language.Tag
	h := ProvideLocalizer(stubApp{}, language.English)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, ok := intl.UseLocalizer(r.Context())
		require.True(t, ok)
		got = intl.UseLocale(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Accept-Language", "zh-CN,zh;q=0.9,en;q=0.8")
	h.ServeHTTP(httptest.NewRecorder(), req)
	require.Equal(t, language.Chinese, got)

	req = httptest.NewRequest(http.MethodGet, "/?lang=en", nil)
	req.Header.Set("Accept-Language", "zh")
	h.ServeHTTP(httptest.NewRecorder(), req)
	require.Equal(t, language.English, got)

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, language.English, got)
}
