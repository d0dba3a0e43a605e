package util

import (
	"bytes"
	"encoding/json"
	"os"
	"strings"
	"testing"
)

func captureJSONLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	SetJSON(true)
	SetOutput(&buf)
	SetLogLevel(LevelInfo)
	t.Cleanup(func() {
		SetJSON(false)
		SetOutput(os.Stderr)
		SetLogLevel(LevelInfo)
	})
	return &buf
}

func TestLogLevelFiltering(t *testing.T) {
	buf := captureJSONLogs(t)

	DebugLog("hidden %d", 1)
	InfoLog("shown %d", 2)

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("debug message should be filtered at info level: %s", out)
	}
	if !strings.Contains(out, "shown 2") {
		t.Errorf("expected info message in output: %s", out)
	}
}

func TestSetQuietOnlyErrors(t *testing.T) {
	buf := captureJSONLogs(t)
	SetQuiet(true)

	WarnLog("warned")
	ErrorLog("failed: %s", "boom")

	if !IsQuiet() {
		t.Error("IsQuiet should report true after SetQuiet")
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected exactly one log line, got %d: %q", len(lines), buf.String())
	}

	var entry map[string]interface{}
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("log line is not JSON: %v", err)
	}
	if entry["level"] != "error" {
		t.Errorf("expected level error, got %v", entry["level"])
	}
	if entry["message"] != "failed: boom" {
		t.Errorf("unexpected message %v", entry["message"])
	}
}

func TestSetVerboseEnablesDebug(t *testing.T) {
	buf := captureJSONLogs(t)
	SetVerbose(true)

	DebugLog("details")

	if !strings.Contains(buf.String(), "details") {
		t.Errorf("expected debug output in verbose mode, got %q", buf.String())
	}
}

func TestSuccessLogMarksOK(t *testing.T) {
	buf := captureJSONLogs(t)

	SuccessLog("done")

	var entry map[string]interface{}
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry); err != nil {
		t.Fatalf("log line is not JSON: %v", err)
	}
	if entry["ok"] != true {
		t.Errorf("expected ok=true field, got %v", entry["ok"])
	}
}
