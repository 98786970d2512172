package proxy

import (
	"log/slog"
	"net/http"

	"github.com/tidwall/gjson"

	"github.com/n0madic/go-geminiproxy/internal/config"
	"github.com/n0madic/go-geminiproxy/internal/transform"
	"github.com/n0madic/go-geminiproxy/internal/upstream"
)

// handleChatCompletions serves the client-facing chat completions route. SDK
// clients append their own v1 segment to the base URL, producing a path the
// provider does not accept, so the request is re-targeted at the provider's
// real chat completions path. Requests for the signature-gated model get the
// thought-signature bypass marker injected into assistant tool calls on the
// way through; every other model's body is forwarded untouched.
func (s *Server) handleChatCompletions(w http.ResponseWriter, r *http.Request) {
	body, ok := readLimitedRequestBody(w, r)
	if !ok {
		return
	}
	if !gjson.ValidBytes(body) {
		writeError(w, http.StatusBadGateway, errTypeInvalidRequest, "request body is not valid JSON")
		return
	}

	model := gjson.GetBytes(body, "model").String()
	if model == config.SignatureModel {
		body = transform.ChatRequestBody(body)
	}

	if s.Config != nil && s.Config.Verbose {
		slog.Info("chat.completions",
			"model", model,
			"signature_injection", model == config.SignatureModel,
			"stream", gjson.GetBytes(body, "stream").Bool(),
			"body_bytes", len(body),
			"request_id", requestIDFromContext(r.Context()),
		)
	}

	headers := forwardHeaders(r.Header, "Content-Type", "Authorization")
	if headers.Get("Content-Type") == "" {
		headers.Set("Content-Type", "application/json")
	}

	s.forwardUpstream(w, r, &upstream.Request{
		Method:  http.MethodPost,
		Path:    config.ChatCompletionsUpstreamPath,
		Headers: headers,
		Body:    body,
	})
}
