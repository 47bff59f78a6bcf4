package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/obentoo/scanwatch/internal/common/config"
	"github.com/obentoo/scanwatch/internal/common/logger"
	"github.com/obentoo/scanwatch/internal/tracking"
)

var testCreds = config.Credentials{UserKey: "user-key", AppToken: "app-token"}

// pushoverServer records the last request body and answers with status and reply
func pushoverServer(t *testing.T, status int, reply string, got *Message) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
			t.Errorf("Content-Type = %q, want application/json", ct)
		}
		if got != nil {
			if err := json.NewDecoder(r.Body).Decode(got); err != nil {
				t.Errorf("failed to decode body: %v", err)
			}
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write([]byte(reply))
	}))
	t.Cleanup(server.Close)
	return server
}

// =============================================================================
// Property-Based Tests
// =============================================================================

// TestFormatMessageContainsEvent checks both fields appear in the body in order
func TestFormatMessageContainsEvent(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("message is 'New scan: <location> - <details>'", prop.ForAll(
		func(location, details string) bool {
			msg := FormatMessage(tracking.ScanEvent{Location: location, Details: details})
			return msg == "New scan: "+location+" - "+details
		},
		gen.AnyString(),
		gen.AnyString(),
	))

	properties.TestingRun(t)
}

// =============================================================================
// Unit Tests
// =============================================================================

func TestSendPostsMessage(t *testing.T) {
	var got Message
	server := pushoverServer(t, http.StatusOK, `{"status":1,"request":"abc"}`, &got)

	p := NewPushover(testCreds, WithEndpoint(server.URL))
	err := p.Send(context.Background(), tracking.ScanEvent{Location: "MUMBAI", Details: "Shipment Picked Up"})
	if err != nil {
		t.Fatalf("Send failed: %v", err)
	}

	want := Message{
		Token:   "app-token",
		User:    "user-key",
		Title:   "New Scan Update",
		Message: "New scan: MUMBAI - Shipment Picked Up",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("request body mismatch (-want +got):\n%s", diff)
	}
}

func TestSendUsesConfiguredTitle(t *testing.T) {
	var got Message
	server := pushoverServer(t, http.StatusOK, `{"status":1}`, &got)

	p := NewPushover(testCreds, WithEndpoint(server.URL), WithTitle("Parcel"))
	if err := p.Send(context.Background(), tracking.ScanEvent{}); err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if got.Title != "Parcel" {
		t.Errorf("Title = %q, want Parcel", got.Title)
	}
}

func TestSendRejected(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		reply   string
		wantMsg string
	}{
		{
			name:    "provider errors",
			status:  http.StatusBadRequest,
			reply:   `{"status":0,"errors":["application token is invalid"],"request":"x"}`,
			wantMsg: "application token is invalid",
		},
		{
			name:    "server error",
			status:  http.StatusInternalServerError,
			reply:   `{}`,
			wantMsg: "status 500",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := pushoverServer(t, tt.status, tt.reply, nil)

			err := NewPushover(testCreds, WithEndpoint(server.URL)).Send(context.Background(), tracking.ScanEvent{})
			if !errors.Is(err, ErrDeliveryFailed) {
				t.Fatalf("expected ErrDeliveryFailed, got %v", err)
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("error %q should mention %q", err, tt.wantMsg)
			}
		})
	}
}

func TestSendNeverRetries(t *testing.T) {
	var requests int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&requests, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	if err := NewPushover(testCreds, WithEndpoint(server.URL)).Send(context.Background(), tracking.ScanEvent{}); err == nil {
		t.Fatal("expected error")
	}
	if n := atomic.LoadInt32(&requests); n != 1 {
		t.Errorf("expected exactly one request, got %d", n)
	}
}

func TestSendTimeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	p := NewPushover(testCreds, WithEndpoint(server.URL), WithTimeout(50*time.Millisecond))
	if err := p.Send(context.Background(), tracking.ScanEvent{}); !errors.Is(err, ErrDeliveryFailed) {
		t.Errorf("expected ErrDeliveryFailed, got %v", err)
	}
}

func TestDispatchLogsOutcome(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		wantLog string
	}{
		{"accepted", http.StatusOK, "Notification sent successfully."},
		{"rejected", http.StatusBadRequest, "Error sending notification:"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := pushoverServer(t, tt.status, `{"status":1}`, nil)
			var logs bytes.Buffer

			p := NewPushover(testCreds, WithEndpoint(server.URL), WithLogger(logger.New(&logs, logger.LevelInfo)))
			p.Dispatch(context.Background(), tracking.ScanEvent{Location: "A", Details: "a"})

			if !strings.Contains(logs.String(), tt.wantLog) {
				t.Errorf("expected log %q, got:\n%s", tt.wantLog, logs.String())
			}
		})
	}
}

func TestDispatchUnreachableEndpoint(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	endpoint := server.URL
	server.Close()

	var logs bytes.Buffer
	p := NewPushover(testCreds, WithEndpoint(endpoint), WithLogger(logger.New(&logs, logger.LevelInfo)))
	p.Dispatch(context.Background(), tracking.ScanEvent{})

	if !strings.Contains(logs.String(), "Error sending notification:") {
		t.Errorf("connection failure should be logged, got:\n%s", logs.String())
	}
}

func TestNewPushoverDefaults(t *testing.T) {
	p := NewPushover(testCreds, WithEndpoint(""), WithTitle(""))

	if p.endpoint != config.DefaultNotifyEndpoint {
		t.Errorf("endpoint = %q, want default", p.endpoint)
	}
	if p.title != config.DefaultNotifyTitle {
		t.Errorf("title = %q, want default", p.title)
	}
}

func TestPushoverSatisfiesNotifier(t *testing.T) {
	var _ tracking.Notifier = NewPushover(testCreds)
}
