package rayci

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/banshee-data/beam.report/internal/httputil"
	"github.com/banshee-data/beam.report/internal/monitoring"
)

// ErrUnavailable marks transport-level failures: the endpoint could not be
// reached, timed out, or answered with something that is not a protocol
// response.
var ErrUnavailable = errors.New("rayci endpoint unavailable")

// ErrRejected marks calls the endpoint received and explicitly refused.
var ErrRejected = errors.New("rayci call rejected")

// Fault is a protocol-level rejection raised by the endpoint.
type Fault struct {
	Method  string
	Code    int
	Message string
}

func (f *Fault) Error() string {
	return fmt.Sprintf("%s rejected by endpoint (fault %d): %s", f.Method, f.Code, f.Message)
}

func (f *Fault) Unwrap() error {
	return ErrRejected
}

// DefaultTimeout bounds each call when no custom HTTP client is supplied.
const DefaultTimeout = 10 * time.Second

// maxResponseBytes caps how much of a reply is read. Frame payloads for
// large sensors run to tens of megabytes of base64.
const maxResponseBytes = 64 << 20

// Client issues XML-RPC calls against a single endpoint URL.
type Client struct {
	endpoint string
	http     httputil.HTTPClient
	logf     func(format string, v ...interface{})
}

// NewClient builds a client for the given endpoint URL. A nil httpClient
// gets a standard client with DefaultTimeout, which also serves as the
// per-call deadline.
func NewClient(endpoint string, httpClient httputil.HTTPClient) *Client {
	if httpClient == nil {
		httpClient = httputil.NewStandardClient(&http.Client{Timeout: DefaultTimeout})
	}
	return &Client{
		endpoint: endpoint,
		http:     httpClient,
		logf:     monitoring.Prefixed("rayci"),
	}
}

// Call invokes one remote method and returns its result value. Transport
// failures wrap ErrUnavailable; endpoint faults return a *Fault wrapping
// ErrRejected.
func (c *Client) Call(ctx context.Context, method string, args ...interface{}) (Value, error) {
	payload, err := marshalCall(method, args...)
	if err != nil {
		return Value{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return Value{}, fmt.Errorf("%w: build request for %s: %v", ErrUnavailable, method, err)
	}
	req.Header.Set("Content-Type", "text/xml")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return Value{}, fmt.Errorf("%w: %s: %v", ErrUnavailable, method, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return Value{}, fmt.Errorf("%w: read response for %s: %v", ErrUnavailable, method, err)
	}
	if resp.StatusCode != http.StatusOK {
		return Value{}, fmt.Errorf("%w: %s: endpoint returned HTTP %d", ErrUnavailable, method, resp.StatusCode)
	}

	result, err := parseResponse(method, body)
	if err != nil {
		return Value{}, err
	}
	c.logf("%s completed in %s", method, time.Since(start).Round(time.Microsecond))
	return result, nil
}
