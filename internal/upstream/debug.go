package upstream

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httputil"
	"os"
	"strings"
)

// redactedAuthorization stands in for the Authorization value in debug dumps
// so credentials never reach the log stream.
const redactedAuthorization = "REDACTED"

func (c *Client) dumpUpstreamRequest(req *http.Request) {
	if c == nil || !c.Debug || req == nil {
		return
	}

	authorization := req.Header.Get("Authorization")
	if authorization != "" {
		req.Header.Set("Authorization", redactedAuthorization)
	}
	dump, err := httputil.DumpRequestOut(req, true)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	if err != nil {
		slog.Error("upstream.request.dump.failed", "error", err)
		return
	}
	c.writeDebugDumpBlock("UPSTREAM REQUEST", dump)
}

func (c *Client) dumpUpstreamResponse(resp *http.Response) {
	if c == nil || !c.Debug || resp == nil {
		return
	}

	headerDump, err := httputil.DumpResponse(resp, false)
	if err != nil {
		slog.Error("upstream.response.dump.failed", "error", err)
	} else {
		c.writeDebugDumpBlock("UPSTREAM RESPONSE", headerDump)
	}

	if resp.Body != nil {
		title := fmt.Sprintf("UPSTREAM RESPONSE BODY status=%d", resp.StatusCode)
		c.writeDebugDumpBoundary(title, true)
		resp.Body = &debugDumpReadCloser{
			src:    resp.Body,
			client: c,
			title:  title,
		}
	}
}

func (c *Client) writeDebugDumpBlock(title string, data []byte) {
	c.writeDebugDumpBoundary(title, true)
	if len(data) > 0 {
		c.writeDebugDumpChunk(data)
		if data[len(data)-1] != '\n' {
			c.writeDebugDumpChunk([]byte("\n"))
		}
	}
	c.writeDebugDumpBoundary(title, false)
}

func (c *Client) writeDebugDumpBoundary(title string, begin bool) {
	if c == nil {
		return
	}
	c.dumpMu.Lock()
	defer c.dumpMu.Unlock()

	kind := "END"
	if begin {
		kind = "BEGIN"
	}
	line := "===== " + strings.TrimSpace(title) + " " + kind + " =====\n"
	if _, err := os.Stderr.WriteString(line); err != nil {
		slog.Error("upstream.dump.write.failed", "title", title, "error", err)
	}
}

func (c *Client) writeDebugDumpChunk(data []byte) {
	if c == nil || len(data) == 0 {
		return
	}
	c.dumpMu.Lock()
	defer c.dumpMu.Unlock()
	if _, err := os.Stderr.Write(data); err != nil {
		slog.Error("upstream.dump.write.failed", "error", err)
	}
}

// debugDumpReadCloser tees body bytes to the debug stream as the proxy relays
// them. Payloads are dumped raw because the proxy never interprets them.
type debugDumpReadCloser struct {
	src      io.ReadCloser
	client   *Client
	title    string
	closed   bool
	lastByte byte
	hasData  bool
}

func (d *debugDumpReadCloser) Read(p []byte) (int, error) {
	if d == nil || d.src == nil {
		return 0, io.EOF
	}
	n, err := d.src.Read(p)
	if n > 0 {
		chunk := p[:n]
		d.hasData = true
		d.lastByte = chunk[len(chunk)-1]
		if d.client != nil {
			d.client.writeDebugDumpChunk(chunk)
		}
	}
	if errors.Is(err, io.EOF) {
		d.finish()
	}
	return n, err
}

func (d *debugDumpReadCloser) Close() error {
	if d == nil || d.src == nil {
		return nil
	}
	err := d.src.Close()
	d.finish()
	return err
}

func (d *debugDumpReadCloser) finish() {
	if d == nil || d.closed {
		return
	}
	d.closed = true
	if d.client == nil {
		return
	}
	if d.hasData && d.lastByte != '\n' {
		d.client.writeDebugDumpChunk([]byte("\n"))
	}
	d.client.writeDebugDumpBoundary(d.title, false)
}
