package proxy

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestUpstreamErrorDetail(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"canceled", context.Canceled, "request canceled while contacting upstream"},
		{"wrapped canceled", fmt.Errorf("upstream request failed: %w", context.Canceled), "request canceled while contacting upstream"},
		{"deadline", context.DeadlineExceeded, "timed out while contacting upstream"},
		{"generic", errors.New("dial tcp: connection refused"), "failed to reach upstream: dial tcp: connection refused"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := upstreamErrorDetail(tt.err); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestWriteUpstreamErrorEnvelope(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/v1beta/openai/chat/completions", nil)
	w := httptest.NewRecorder()

	writeUpstreamError(w, req, errors.New("no route to host"))

	if w.Code != http.StatusBadGateway {
		t.Fatalf("status: got %d, want 502", w.Code)
	}
	if got := w.Header().Get("Content-Type"); got != "application/json" {
		t.Errorf("Content-Type: got %q", got)
	}
	out := decodeErrorResponse(t, w)
	if out.Error.Type != errTypeUpstream {
		t.Errorf("error type: got %q, want %q", out.Error.Type, errTypeUpstream)
	}
	if !strings.Contains(out.Error.Message, "no route to host") {
		t.Errorf("error message: got %q", out.Error.Message)
	}
}
