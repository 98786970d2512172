package proxy

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
)

// Error kinds carried in the structured 502 envelope.
const (
	errTypeInvalidRequest = "invalid_request_error"
	errTypeUpstream       = "upstream_error"
)

// writeUpstreamError converts a failed outbound call into the fixed 502
// envelope. The detail names the failure without echoing request contents or
// credentials.
func writeUpstreamError(w http.ResponseWriter, r *http.Request, err error) {
	slog.Error("upstream call failed",
		"method", r.Method,
		"path", r.URL.Path,
		"request_id", requestIDFromContext(r.Context()),
		"error", err,
	)
	writeError(w, http.StatusBadGateway, errTypeUpstream, upstreamErrorDetail(err))
}

func upstreamErrorDetail(err error) string {
	switch {
	case errors.Is(err, context.Canceled):
		return "request canceled while contacting upstream"
	case errors.Is(err, context.DeadlineExceeded):
		return "timed out while contacting upstream"
	default:
		return "failed to reach upstream: " + err.Error()
	}
}
