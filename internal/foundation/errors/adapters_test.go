package errors

import (
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestCLIErrorAdapter_ExitCodeFor(t *testing.T) {
	adapter := NewCLIErrorAdapter(false, slog.Default())

	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{"nil error", nil, 0},
		{"validation", ValidationError("bad profile").Build(), 2},
		{"not found", NotFoundError("no such component").Build(), 3},
		{"config", ConfigError("bad config").Build(), 7},
		{"host", HostError("adb gone").Build(), 8},
		{"storage", StorageError("db locked").Build(), 11},
		{"daemon", DaemonError("not running").Build(), 12},
		{"unclassified", errors.New("boom"), 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := adapter.ExitCodeFor(tt.err); got != tt.expected {
				t.Errorf("ExitCodeFor() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestCLIErrorAdapter_FormatError(t *testing.T) {
	quiet := NewCLIErrorAdapter(false, nil)
	verbose := NewCLIErrorAdapter(true, nil)
	err := WrapError(errors.New("exit status 1"), CategoryHost, "force-stop failed").Build()

	if got := quiet.FormatError(err); !strings.Contains(got, "use -v") {
		t.Errorf("expected hint in quiet output, got %q", got)
	}
	if got := verbose.FormatError(err); !strings.Contains(got, "exit status 1") {
		t.Errorf("expected cause in verbose output, got %q", got)
	}
	if got := quiet.FormatError(ValidationError("unknown profile").Build()); got != "Error: unknown profile" {
		t.Errorf("unexpected validation output %q", got)
	}
}

func TestHTTPErrorAdapter(t *testing.T) {
	adapter := NewHTTPErrorAdapter(nil)

	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"validation", ValidationError("bad").Build(), http.StatusBadRequest},
		{"not found", NotFoundError("missing").Build(), http.StatusNotFound},
		{"host", HostError("adb").Build(), http.StatusBadGateway},
		{"device", DeviceError("no node").Build(), http.StatusConflict},
		{"daemon", DaemonError("stopped").Build(), http.StatusServiceUnavailable},
		{"plain", errors.New("x"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := adapter.StatusCodeFor(tt.err); got != tt.status {
				t.Errorf("StatusCodeFor() = %d, want %d", got, tt.status)
			}
		})
	}

	t.Run("writes json payload", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/profiles/x", nil)
		adapter.WriteErrorResponse(rec, req, HostError("adb offline").WithContext("serial", "abc").Build())

		if rec.Code != http.StatusBadGateway {
			t.Fatalf("expected 502, got %d", rec.Code)
		}
		body := rec.Body.String()
		if !strings.Contains(body, `"code":"host"`) || !strings.Contains(body, `"retryable":true`) {
			t.Errorf("unexpected body %s", body)
		}
	})
}
