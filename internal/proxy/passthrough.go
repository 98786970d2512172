package proxy

import (
	"net/http"

	"github.com/tidwall/gjson"

	"github.com/n0madic/go-geminiproxy/internal/upstream"
)

// handlePassthrough relays every request the chat completions route does not
// claim. Method, path, and query go upstream unchanged; headers are reduced
// to the allow-list; bodies travel only on methods that carry one.
func (s *Server) handlePassthrough(w http.ResponseWriter, r *http.Request) {
	var body []byte
	if !bodilessMethods[r.Method] {
		read, ok := readLimitedRequestBody(w, r)
		if !ok {
			return
		}
		if len(read) > 0 {
			if !gjson.ValidBytes(read) {
				writeError(w, http.StatusBadGateway, errTypeInvalidRequest, "request body is not valid JSON")
				return
			}
			body = read
		}
	}

	s.forwardUpstream(w, r, &upstream.Request{
		Method:  r.Method,
		Path:    r.URL.RequestURI(),
		Headers: forwardHeaders(r.Header, "Authorization", "Content-Type", "Accept"),
		Body:    body,
	})
}
