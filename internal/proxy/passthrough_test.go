package proxy

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestPassthroughForwardsPathAndQueryVerbatim(t *testing.T) {
	up := &queuedUpstreamClient{results: []queuedUpstreamResult{{body: `{"models":[]}`}}}
	s := newTestServer(up)

	req := httptest.NewRequest(http.MethodGet, "/v1beta/models?pageSize=5&pageToken=abc", nil)
	w := httptest.NewRecorder()
	s.handlePassthrough(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d body=%s", w.Code, w.Body.String())
	}
	call := up.calls[0]
	if call.Method != http.MethodGet {
		t.Errorf("method: got %q, want GET", call.Method)
	}
	if call.Path != "/v1beta/models?pageSize=5&pageToken=abc" {
		t.Errorf("path: got %q", call.Path)
	}
	if call.Body != nil {
		t.Errorf("body: got %q, want none", call.Body)
	}
}

func TestPassthroughHeaderAllowList(t *testing.T) {
	up := &queuedUpstreamClient{results: []queuedUpstreamResult{{body: `{}`}}}
	s := newTestServer(up)

	req := httptest.NewRequest(http.MethodGet, "/v1beta/models", nil)
	req.Header.Set("Authorization", "Bearer T")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Custom", "secret")
	req.Header.Set("User-Agent", "curl/8.0")
	w := httptest.NewRecorder()
	s.handlePassthrough(w, req)

	sent := up.calls[0].Headers
	if got := sent.Get("Authorization"); got != "Bearer T" {
		t.Errorf("Authorization: got %q", got)
	}
	if got := sent.Get("Accept"); got != "application/json" {
		t.Errorf("Accept: got %q", got)
	}
	if _, present := sent["Content-Type"]; present {
		t.Error("Content-Type must not be synthesized on the passthrough")
	}
	if sent.Get("X-Custom") != "" || sent.Get("User-Agent") != "" {
		t.Errorf("unexpected forwarded headers: %v", sent)
	}
}

func TestPassthroughForwardsJSONBody(t *testing.T) {
	up := &queuedUpstreamClient{results: []queuedUpstreamResult{{body: `{}`}}}
	s := newTestServer(up)

	body := `{"contents":[{"parts":[{"text":"count tokens"}]}]}`
	req := httptest.NewRequest(http.MethodPost, "/v1beta/models/gemini-pro:countTokens", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.handlePassthrough(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d body=%s", w.Code, w.Body.String())
	}
	if !bytes.Equal(up.calls[0].Body, []byte(body)) {
		t.Errorf("body: got %s, want %s", up.calls[0].Body, body)
	}
}

func TestPassthroughRejectsMalformedBody(t *testing.T) {
	up := &queuedUpstreamClient{results: []queuedUpstreamResult{{body: `{}`}}}
	s := newTestServer(up)

	req := httptest.NewRequest(http.MethodPost, "/v1beta/anything", strings.NewReader("not json"))
	w := httptest.NewRecorder()
	s.handlePassthrough(w, req)

	if w.Code != http.StatusBadGateway {
		t.Fatalf("status: got %d, want %d", w.Code, http.StatusBadGateway)
	}
	out := decodeErrorResponse(t, w)
	if out.Error.Type != errTypeInvalidRequest {
		t.Errorf("error type: got %q, want %q", out.Error.Type, errTypeInvalidRequest)
	}
	if up.callCount() != 0 {
		t.Errorf("upstream must not be called, got %d calls", up.callCount())
	}
}

func TestPassthroughBodilessMethodsDropBody(t *testing.T) {
	for _, method := range []string{http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodDelete} {
		t.Run(method, func(t *testing.T) {
			up := &queuedUpstreamClient{results: []queuedUpstreamResult{{body: `{}`}}}
			s := newTestServer(up)

			req := httptest.NewRequest(method, "/v1beta/cachedContents/abc", strings.NewReader(`{"ignored":true}`))
			w := httptest.NewRecorder()
			s.handlePassthrough(w, req)

			if w.Code != http.StatusOK {
				t.Fatalf("status: got %d body=%s", w.Code, w.Body.String())
			}
			if up.calls[0].Body != nil {
				t.Errorf("body: got %q, want none", up.calls[0].Body)
			}
		})
	}
}

func TestPassthroughEmptyBodySendsNone(t *testing.T) {
	up := &queuedUpstreamClient{results: []queuedUpstreamResult{{body: `{}`}}}
	s := newTestServer(up)

	req := httptest.NewRequest(http.MethodPost, "/v1beta/anything", strings.NewReader(""))
	w := httptest.NewRecorder()
	s.handlePassthrough(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d body=%s", w.Code, w.Body.String())
	}
	if up.calls[0].Body != nil {
		t.Errorf("body: got %q, want none", up.calls[0].Body)
	}
}

func TestPassthroughPropagatesUpstreamStatusVerbatim(t *testing.T) {
	notFound := `{"error":{"code":404,"message":"model not found"}}`
	headers := http.Header{}
	headers.Set("Content-Type", "application/json")
	up := &queuedUpstreamClient{results: []queuedUpstreamResult{
		{status: http.StatusNotFound, body: notFound, headers: headers},
	}}
	s := newTestServer(up)

	req := httptest.NewRequest(http.MethodGet, "/v1beta/models/not-a-model", nil)
	w := httptest.NewRecorder()
	s.handlePassthrough(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("status: got %d, want 404", w.Code)
	}
	if w.Body.String() != notFound {
		t.Errorf("body: got %q, want %q", w.Body.String(), notFound)
	}
}
