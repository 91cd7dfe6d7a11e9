package host

import (
	"fmt"
	"sort"
	"strings"
)

// Method is an HTTP method understood by LoadURL.
type Method string

const (
	MethodGet  Method = "GET"
	MethodPost Method = "POST"
	MethodPut  Method = "PUT"
)

// Request is a fully built HTTP request. Headers are "Name: value" lines.
type Request struct {
	URL         string
	Headers     []string
	Body        string
	ContentType string
	Method      Method
}

// Response is the host's answer to a Request. Status is zero when the
// request never reached the server.
type Response struct {
	Status  int
	Body    string
	Headers map[string]string
}

// OK reports a 2xx response.
func (r Response) OK() bool {
	return r.Status >= 200 && r.Status < 300
}

// Rejected reports a 4xx response: the server understood the request and
// will not accept it however often it is repeated.
func (r Response) Rejected() bool {
	return r.Status >= 400 && r.Status < 500
}

// Header returns the named header, matched case-insensitively.
func (r Response) Header(name string) string {
	for k, v := range r.Headers {
		if strings.EqualFold(k, name) {
			return v
		}
	}
	return ""
}

// String renders the response for debug logs, headers in sorted order.
func (r Response) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "status=%d body=%q", r.Status, r.Body)
	keys := make([]string, 0, len(r.Headers))
	for k := range r.Headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%q", k, r.Headers[k])
	}
	return b.String()
}
