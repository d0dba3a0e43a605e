package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/franz/livelog/internal/util"
)

func TestRequestLoggingCapturesStatus(t *testing.T) {
	var buf bytes.Buffer
	util.SetOutput(&buf)
	util.SetJSON(true)
	util.SetVerbose(true)
	t.Cleanup(func() {
		util.SetOutput(os.Stderr)
		util.SetJSON(false)
		util.SetLogLevel(util.LevelInfo)
	})

	var seenID string
	h := RequestLogging()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenID = RequestIDFromContext(r.Context())
		w.WriteHeader(http.StatusTeapot)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/anything", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if seenID == "" || seenID != rec.Header().Get("X-Request-ID") {
		t.Fatalf("request id not propagated: ctx=%q header=%q", seenID, rec.Header().Get("X-Request-ID"))
	}

	var line map[string]interface{}
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &line); err != nil {
		t.Fatalf("expected one JSON log line, got %q: %v", buf.String(), err)
	}
	if line["level"] != "warn" {
		t.Errorf("expected 4xx to log at warn, got %v", line["level"])
	}
	if line["status_code"] != float64(http.StatusTeapot) {
		t.Errorf("expected status_code 418, got %v", line["status_code"])
	}
	if line["request_id"] != seenID {
		t.Errorf("expected request_id %q, got %v", seenID, line["request_id"])
	}
}
