package obs

import (
	"bytes"
	"encoding/json"
	"testing"
)

func TestLogEvent(t *testing.T) {
	logger := Logger()
	original := logger.Writer()
	var buf bytes.Buffer
	logger.SetOutput(&buf)
	defer logger.SetOutput(original)

	LogEvent("tracking.space_created", map[string]any{
		"organization_id": 42,
		"space_code":      "S1",
		"event":           "spoofed", // reserved, must be dropped
	})

	line := buf.String()
	if line == "" {
		t.Fatal("expected log output")
	}
	var entry map[string]any
	if err := json.Unmarshal([]byte(line), &entry); err != nil {
		t.Fatalf("log not valid JSON: %v", err)
	}
	if entry["event"] != "tracking.space_created" {
		t.Fatalf("unexpected event: %v", entry["event"])
	}
	if entry["space_code"] != "S1" {
		t.Fatalf("unexpected field: %v", entry["space_code"])
	}
	if entry["ts"] == "" || entry["ts"] == nil {
		t.Fatal("expected timestamp")
	}
}
