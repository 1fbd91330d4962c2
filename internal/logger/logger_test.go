package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want logrus.Level
	}{
		{"debug", logrus.DebugLevel},
		{"WARN", logrus.WarnLevel},
		{"error", logrus.ErrorLevel},
		{"", logrus.InfoLevel},
		{"bogus", logrus.InfoLevel},
	}
	for _, tt := range tests {
		if got := parseLevel(tt.in); got != tt.want {
			t.Errorf("parseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestJSONFormatterOutsideLocal(t *testing.T) {
	var buf bytes.Buffer
	log := NewWith("production", "info", &buf)
	log.WithBatch("b-1").WithItem("a.mp3").Info("hello")

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not json: %v (%s)", err, buf.String())
	}
	if entry["batch_id"] != "b-1" || entry["item"] != "a.mp3" {
		t.Fatalf("fields = %v", entry)
	}
	if entry["msg"] != "hello" {
		t.Fatalf("msg = %v", entry["msg"])
	}
}

func TestLevelFiltersDebug(t *testing.T) {
	var buf bytes.Buffer
	log := NewWith("local", "info", &buf)
	log.Debug("hidden")
	if buf.Len() != 0 {
		t.Fatalf("debug line written at info level: %q", buf.String())
	}
}

func TestWithRequestGeneratesID(t *testing.T) {
	var buf bytes.Buffer
	log := NewWith("production", "info", &buf)
	r := httptest.NewRequest("GET", "/batch", nil)
	log.WithRequest(r).Info("req")
	if !strings.Contains(buf.String(), `"req_id":"`) {
		t.Fatalf("missing req_id: %s", buf.String())
	}

	buf.Reset()
	r.Header.Set("X-Request-ID", "fixed")
	log.WithRequest(r).Info("req")
	if !strings.Contains(buf.String(), `"req_id":"fixed"`) {
		t.Fatalf("request id not propagated: %s", buf.String())
	}
}

func TestWithErrorNil(t *testing.T) {
	log := Discard()
	if log.WithError(nil) != log.Entry {
		t.Fatal("nil error should return the base entry")
	}
	if got := log.WithError(errors.New("boom")).Data["error"]; got != "boom" {
		t.Fatalf("error field = %v", got)
	}
}
