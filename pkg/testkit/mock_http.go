package testkit

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
)

// ─── MockTransport ────────────────────────────────────────────────────────────

// MockTransport implements http.RoundTripper.
// It matches outgoing inventory API requests against a list of MockSteps and
// returns synthetic responses instead of making real network calls. Every
// request is recorded, body included, for later assertions.
//
// Install it on the shared HTTP client before the test:
//
//	mt := testkit.NewMockTransport()
//	mt.On("GET", "/product/list/").Reply(200, `{"count":0,"results":[]}`)
//	http.DefaultClient.Transport = mt
//	defer http.ResetTransport()
type MockTransport struct {
	mu      sync.Mutex
	steps   []*httpMockEntry
	require bool
	calls   []RecordedCall
}

type httpMockEntry struct {
	step      MockStep
	callCount int
	reply     func(*http.Request, []byte) (int, []byte)
}

// RecordedCall is one request seen by the transport.
type RecordedCall struct {
	Method string
	URL    string
	Header http.Header
	Body   []byte
}

// NewMockTransport builds a transport from steps. Unmatched calls get a 404.
func NewMockTransport(steps ...MockStep) *MockTransport {
	mt := &MockTransport{}
	for _, s := range steps {
		mt.steps = append(mt.steps, &httpMockEntry{step: s})
	}
	return mt
}

// FromScenario builds a transport from the apiMocks of s.
func FromScenario(s *Scenario) *MockTransport {
	mt := NewMockTransport(s.APIMocks...)
	mt.require = s.IsMockRequired
	return mt
}

// Strict makes unmatched calls fail with a transport error.
func (mt *MockTransport) Strict() *MockTransport {
	mt.require = true
	return mt
}

// Stub is returned by On to attach a reply.
type Stub struct {
	mt    *MockTransport
	entry *httpMockEntry
}

// On registers a step for method and path prefix.
func (mt *MockTransport) On(method, matchPath string) *Stub {
	mt.mu.Lock()
	defer mt.mu.Unlock()
	e := &httpMockEntry{step: MockStep{Method: method, MatchPath: matchPath}}
	mt.steps = append(mt.steps, e)
	return &Stub{mt: mt, entry: e}
}

// Once consumes the step after its first match.
func (s *Stub) Once() *Stub {
	s.mt.mu.Lock()
	defer s.mt.mu.Unlock()
	s.entry.step.Once = true
	return s
}

// Reply answers with status and body. Body may be a string, []byte or any
// value that is JSON-encoded.
func (s *Stub) Reply(status int, body interface{}) *Stub {
	var raw []byte
	switch v := body.(type) {
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	case nil:
	default:
		raw, _ = json.Marshal(v)
	}
	s.mt.mu.Lock()
	defer s.mt.mu.Unlock()
	s.entry.step.ReturnData = MockReturnData{StatusCode: status, Body: raw}
	return s
}

// ReplyFunc computes the reply from the request and its body.
func (s *Stub) ReplyFunc(fn func(req *http.Request, body []byte) (int, []byte)) *Stub {
	s.mt.mu.Lock()
	defer s.mt.mu.Unlock()
	s.entry.reply = fn
	return s
}

// RoundTrip intercepts the outgoing request and returns a synthetic response.
func (mt *MockTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	var body []byte
	if req.Body != nil {
		body, _ = io.ReadAll(req.Body)
		req.Body.Close()
	}

	mt.mu.Lock()
	defer mt.mu.Unlock()

	mt.calls = append(mt.calls, RecordedCall{
		Method: req.Method,
		URL:    req.URL.String(),
		Header: req.Header.Clone(),
		Body:   body,
	})

	for _, entry := range mt.steps {
		if entry.step.Once && entry.callCount > 0 {
			continue
		}
		if !stepMatches(entry.step, req) {
			continue
		}
		entry.callCount++
		if entry.reply != nil {
			code, out := entry.reply(req, body)
			return buildHTTPResponse(req, code, out), nil
		}
		return buildHTTPResponse(req, entry.step.ReturnData.StatusCode, entry.step.ReturnData.Body), nil
	}

	if mt.require {
		return nil, fmt.Errorf("testkit: unexpected outgoing HTTP call %s %s, no matching mock step", req.Method, req.URL)
	}
	return buildHTTPResponse(req, http.StatusNotFound, []byte(`{"detail":"no mock configured"}`)), nil
}

// Calls returns every request seen so far.
func (mt *MockTransport) Calls() []RecordedCall {
	mt.mu.Lock()
	defer mt.mu.Unlock()
	return append([]RecordedCall(nil), mt.calls...)
}

// AssertAllCalled returns one error per step that was never triggered.
func (mt *MockTransport) AssertAllCalled() []error {
	mt.mu.Lock()
	defer mt.mu.Unlock()

	var errs []error
	for _, e := range mt.steps {
		if e.callCount == 0 {
			errs = append(errs, fmt.Errorf(
				"testkit: mock step %s %q was never called", e.step.Method, e.step.MatchPath,
			))
		}
	}
	return errs
}

// ─── Helpers ──────────────────────────────────────────────────────────────────

func stepMatches(step MockStep, req *http.Request) bool {
	if step.Method != "" && !strings.EqualFold(step.Method, req.Method) {
		return false
	}
	return step.MatchPath == "" || strings.HasPrefix(req.URL.Path, step.MatchPath)
}

func buildHTTPResponse(req *http.Request, code int, body []byte) *http.Response {
	if code == 0 {
		code = http.StatusOK
	}
	header := make(http.Header)
	header.Set("Content-Type", "application/json")

	return &http.Response{
		StatusCode: code,
		Status:     fmt.Sprintf("%d %s", code, http.StatusText(code)),
		Header:     header,
		Body:       io.NopCloser(bytes.NewReader(body)),
		Request:    req,
	}
}
