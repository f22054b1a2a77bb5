package requestlog

import (
	"math"
	"net/http"
	"strings"
	"time"
)

// Record is one captured request/response exchange. Records are immutable
// once logged.
type Record struct {
	// ID is the sequence number assigned by the Store (starts at 1).
	ID int64 `json:"id"`

	// Method is the HTTP method.
	Method string `json:"method"`

	// URL is the full request URL including scheme, host and query.
	URL string `json:"url"`

	// Headers are the request headers; repeated values are joined with ", ".
	Headers map[string]string `json:"headers"`

	// StatusCode is the response status sent to the client.
	StatusCode int `json:"status_code"`

	// ResponseTimeMs is the processing time in milliseconds, rounded to two decimals.
	ResponseTimeMs float64 `json:"response_time_ms"`

	// Timestamp is when the record was produced.
	Timestamp time.Time `json:"timestamp"`

	// RequestBody is the (possibly truncated) request body, nil when absent.
	RequestBody *string `json:"request_body"`

	// ResponseBody is the (possibly truncated) response body, nil when absent.
	ResponseBody *string `json:"response_body"`
}

// MaxBodySize bounds the bodies kept on a Record.
const MaxBodySize = 10 * 1024

// Milliseconds converts d to milliseconds rounded to two decimals.
func Milliseconds(d time.Duration) float64 {
	ms := float64(d) / float64(time.Millisecond)
	return math.Round(ms*100) / 100
}

// FlattenHeaders converts multi-value headers to a single-value map.
func FlattenHeaders(h http.Header) map[string]string {
	out := make(map[string]string, len(h))
	for k, v := range h {
		out[strings.ToLower(k)] = strings.Join(v, ", ")
	}
	return out
}

// Body returns a pointer to b truncated to MaxBodySize, or nil for an empty body.
func Body(b []byte) *string {
	if len(b) == 0 {
		return nil
	}
	if len(b) > MaxBodySize {
		b = b[:MaxBodySize]
	}
	s := string(b)
	return &s
}
