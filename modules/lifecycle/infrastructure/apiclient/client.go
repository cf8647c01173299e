package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	gerrors "github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/iota-uz/hrm-lifecycle/modules/lifecycle/domain/line"
	"github.com/iota-uz/hrm-lifecycle/modules/lifecycle/services"
)

// maxResponseBytes bounds upstream response bodies.
const maxResponseBytes = 8 << 20

var (
	ErrBaseURL   = gerrors.New("lifecycle api base url is invalid")
	ErrTooLarge  = gerrors.New("lifecycle api response too large")
	ErrMethod    = gerrors.New("unsupported submission method")
	ErrNoParent  = gerrors.New("parent id is required")
	ErrTransport = gerrors.New("lifecycle api unreachable")
)

// APIError is the error envelope returned by the records API.
type APIError struct {
	Status  int               `json:"-"`
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Meta    map[string]string `json:"meta,omitempty"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("lifecycle api: status=%d code=%s: %s", e.Status, e.Code, e.Message)
}

type Options struct {
	BaseURL         string
	Authorization   string
	Timeout         time.Duration
	RequestIDHeader string
	HTTPClient      *http.Client
	Logger          *logrus.Entry
}

// Client talks to the records API that owns the employee sub-records:
//
//	GET   {base}/{kind}/{parent_id}   current sub-records
//	POST  {base}/{kind}               sub-records of a parent being created
//	PATCH {base}/{kind}/{parent_id}   sub-records of an existing parent
type Client struct {
	baseURL         *url.URL
	authorization   string
	httpClient      *http.Client
	requestIDHeader string
	logger          *logrus.Entry
}

var _ services.Submitter = (*Client)(nil)

func New(opts Options) (*Client, error) {
	raw := strings.TrimSpace(opts.BaseURL)
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, gerrors.Wrapf(ErrBaseURL, "%q", raw)
	}
	hc := opts.HTTPClient
	if hc == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		hc = &http.Client{Timeout: timeout}
	}
	return &Client{
		baseURL:         u,
		authorization:   strings.TrimSpace(opts.Authorization),
		httpClient:      hc,
		requestIDHeader: strings.TrimSpace(opts.RequestIDHeader),
		logger:          opts.Logger,
	}, nil
}

// Fetch returns the raw sub-record document of parentID. The body is left
// undecoded so the reconciler can accept the shapes different endpoints use.
func (c *Client) Fetch(ctx context.Context, kind string, parentID line.RecordID) ([]byte, error) {
	if parentID.IsZero() {
		return nil, ErrNoParent
	}
	return c.do(ctx, http.MethodGet, c.path(kind, parentID), nil)
}

type submitRequest struct {
	Records []services.SubmissionRecord `json:"records"`
}

// Submit sends the payload with the method the reconciler chose.
func (c *Client) Submit(ctx context.Context, kind string, parentID line.RecordID, payload services.Payload) error {
	var path string
	switch payload.Method {
	case http.MethodPost:
		path = c.path(kind, line.RecordID{})
	case http.MethodPatch:
		if parentID.IsZero() {
			return ErrNoParent
		}
		path = c.path(kind, parentID)
	default:
		return gerrors.Wrapf(ErrMethod, "%q", payload.Method)
	}
	_, err := c.do(ctx, payload.Method, path, submitRequest{Records: payload.Records})
	return err
}

// path returns the escaped path of kind and, when set, parentID.
func (c *Client) path(kind string, parentID line.RecordID) string {
	p := "/" + url.PathEscape(kind)
	if !parentID.IsZero() {
		p += "/" + url.PathEscape(parentID.String())
	}
	return p
}

// endpoint joins an escaped path onto the base URL. Path and RawPath are
// both set so the segments are not escaped a second time.
func (c *Client) endpoint(escaped string) (*url.URL, error) {
	u := *c.baseURL
	raw := strings.TrimRight(c.baseURL.EscapedPath(), "/") + escaped
	unescaped, err := url.PathUnescape(raw)
	if err != nil {
		return nil, gerrors.Wrap(err, "endpoint path")
	}
	u.Path = unescaped
	u.RawPath = raw
	return &u, nil
}

func (c *Client) do(ctx context.Context, method, path string, reqBody any) ([]byte, error) {
	u, err := c.endpoint(path)
	if err != nil {
		return nil, err
	}

	var body io.Reader
	if reqBody != nil {
		b, err := json.Marshal(reqBody)
		if err != nil {
			return nil, gerrors.Wrap(err, "json marshal request")
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, gerrors.Wrap(err, "http request")
	}
	req.Header.Set("Accept", "application/json")
	if reqBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	requestID := ""
	if c.requestIDHeader != "" {
		requestID = uuid.NewString()
		req.Header.Set(c.requestIDHeader, requestID)
	}
	if c.authorization != "" {
		req.Header.Set("Authorization", c.authorization)
	}

	started := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, gerrors.Wrap(fmt.Errorf("%w: %w", ErrTransport, err), "http do")
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes+1))
	if err != nil {
		return nil, gerrors.Wrap(err, "http read")
	}
	if len(respBody) > maxResponseBytes {
		return nil, gerrors.Wrapf(ErrTooLarge, "%s %s", method, u.Path)
	}

	if c.logger != nil {
		c.logger.WithFields(logrus.Fields{
			"method":      method,
			"path":        u.Path,
			"status":      resp.StatusCode,
			"request_id":  requestID,
			"duration_ms": time.Since(started).Milliseconds(),
		}).Debug("lifecycle.apiclient.request")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr APIError
		if err := json.Unmarshal(respBody, &apiErr); err == nil && strings.TrimSpace(apiErr.Code) != "" {
			apiErr.Status = resp.StatusCode
			return nil, &apiErr
		}
		return nil, &APIError{
			Status:  resp.StatusCode,
			Code:    "HTTP_" + fmt.Sprint(resp.StatusCode),
			Message: strings.TrimSpace(string(respBody)),
		}
	}
	return respBody, nil
}
