package middleware

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/hoangdanh165/devplanner/internal/model"
)

const requestIDHeader = "X-Request-ID"

// Logging emits one structured line per request, tagged with a request ID
// that is echoed back to the caller for cross-referencing client reports.
// Failed responses carry the API error code and message pulled from the
// response envelope, so a 401 from token expiry and a 401 from a bad
// password are distinguishable in the log without replaying the request.
func Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(requestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}

		w.Header().Set(requestIDHeader, requestID)

		started := time.Now()
		rec := &accessRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		attrs := []any{
			"request_id", requestID,
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"bytes", rec.written,
			"duration_ms", time.Since(started).Milliseconds(),
			"client_ip", r.RemoteAddr,
		}

		if rec.status >= 400 {
			// Keep the query string for failures so they can be reproduced.
			if r.URL.RawQuery != "" {
				attrs = append(attrs, "query", r.URL.RawQuery)
			}
			if code, message := rec.apiError(); code != "" {
				attrs = append(attrs, "error_code", code, "error_message", message)
			}
		}

		switch {
		case rec.status >= 500:
			slog.Error("request", attrs...)
		case rec.status >= 400:
			slog.Warn("request", attrs...)
		case r.URL.Path == "/healthz" || r.URL.Path == "/metrics":
			// Scrape and health-check traffic would drown out real requests.
			slog.Debug("request", attrs...)
		default:
			slog.Info("request", attrs...)
		}
	})
}

// accessRecorder captures the status, the byte count, and, for failures,
// the body, which is expected to be a model.APIResponse envelope.
type accessRecorder struct {
	http.ResponseWriter
	status      int
	written     int64
	body        bytes.Buffer
	wroteHeader bool
}

func (rec *accessRecorder) WriteHeader(statusCode int) {
	if rec.wroteHeader {
		return
	}
	rec.status = statusCode
	rec.wroteHeader = true
	rec.ResponseWriter.WriteHeader(statusCode)
}

func (rec *accessRecorder) Write(b []byte) (int, error) {
	if rec.status >= 400 {
		rec.body.Write(b)
	}
	n, err := rec.ResponseWriter.Write(b)
	rec.written += int64(n)
	return n, err
}

// apiError decodes the buffered failure body as the standard envelope.
// Non-JSON bodies (proxied errors, panics caught upstream) yield empty
// strings and are simply not annotated.
func (rec *accessRecorder) apiError() (code, message string) {
	if rec.body.Len() == 0 {
		return "", ""
	}
	var envelope model.APIResponse
	if err := json.Unmarshal(rec.body.Bytes(), &envelope); err != nil || envelope.Error == nil {
		return "", ""
	}
	return envelope.Error.Code, envelope.Error.Message
}

// Hijack is required for the websocket upgrade on /ws/presence.
func (rec *accessRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := rec.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not support hijacking")
	}
	return hijacker.Hijack()
}
