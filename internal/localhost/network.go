package localhost

import (
	"context"
	"io"
	"net/http"
	"strings"

	"github.com/roach88/rewards/internal/host"
)

// maxBodyBytes caps how much of a response body is read.
const maxBodyBytes = 16 << 20

// LoadURL performs req and posts the response to the loop. Transport
// failures are reported as status 0.
func (h *Host) LoadURL(req host.Request, cb func(host.Response)) {
	h.async("load_url", func(ctx context.Context) func() {
		resp := h.do(ctx, req)
		h.logResponse(req, resp)
		return func() { cb(resp) }
	})
}

func (h *Host) do(ctx context.Context, req host.Request) host.Response {
	method := string(req.Method)
	if method == "" {
		method = http.MethodGet
	}
	var body io.Reader
	if req.Body != "" {
		body = strings.NewReader(req.Body)
	}
	hr, err := http.NewRequestWithContext(ctx, method, req.URL, body)
	if err != nil {
		h.log.Error("bad request", "url", req.URL, "error", err)
		return host.Response{}
	}
	for _, line := range req.Headers {
		name, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		hr.Header.Add(strings.TrimSpace(name), strings.TrimSpace(value))
	}
	if req.ContentType != "" {
		hr.Header.Set("Content-Type", req.ContentType)
	}

	res, err := h.client.Do(hr)
	if err != nil {
		h.log.Warn("request failed", "url", req.URL, "error", err)
		return host.Response{}
	}
	defer res.Body.Close()

	data, err := io.ReadAll(io.LimitReader(res.Body, maxBodyBytes))
	if err != nil {
		h.log.Warn("read response failed", "url", req.URL, "error", err)
		return host.Response{}
	}
	headers := make(map[string]string, len(res.Header))
	for name := range res.Header {
		headers[name] = res.Header.Get(name)
	}
	return host.Response{Status: res.StatusCode, Body: string(data), Headers: headers}
}

func (h *Host) logResponse(req host.Request, resp host.Response) {
	h.log.Debug("response",
		"method", req.Method,
		"url", req.URL,
		"ok", resp.OK(),
		"response", resp.String())
}

// FetchFavicon checks that url serves an image and reports it back as
// the resolved favicon.
func (h *Host) FetchFavicon(url, key string, cb func(bool, string)) {
	h.async("fetch_favicon", func(ctx context.Context) func() {
		resp := h.do(ctx, host.Request{URL: url, Method: host.MethodGet})
		ok := resp.OK() && strings.HasPrefix(resp.Header("Content-Type"), "image/")
		if !ok {
			h.log.Debug("favicon unavailable", "key", key, "url", url, "status", resp.Status)
		}
		if cb == nil {
			return nil
		}
		return func() { cb(ok, url) }
	})
}
