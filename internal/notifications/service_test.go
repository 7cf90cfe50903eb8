package notifications_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"storyreel/internal/config"
	"storyreel/internal/notifications"
	"storyreel/internal/report"
)

func newNtfyService(t *testing.T, handler http.HandlerFunc) notifications.Service {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL
	cfg.Notifications.RequestTimeout = 2
	return notifications.NewService(&cfg)
}

func TestNoopWhenUnconfigured(t *testing.T) {
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = ""
	svc := notifications.NewService(&cfg)
	if err := svc.NotifyRunStarted(context.Background(), "Test Garden"); err != nil {
		t.Fatalf("noop service must not error: %v", err)
	}
}

func TestNotifyRunCompletedSetsHeaders(t *testing.T) {
	var gotTitle, gotTags string
	svc := newNtfyService(t, func(w http.ResponseWriter, r *http.Request) {
		gotTitle = r.Header.Get("Title")
		gotTags = r.Header.Get("Tags")
		w.WriteHeader(http.StatusOK)
	})

	summary := report.Summary{Succeeded: 5, Skipped: 2}
	if err := svc.NotifyRunCompleted(context.Background(), summary); err != nil {
		t.Fatalf("NotifyRunCompleted failed: %v", err)
	}
	if gotTitle != "Storyreel - Run Complete" {
		t.Fatalf("unexpected title %q", gotTitle)
	}
	if gotTags != "storyreel,run,completed" {
		t.Fatalf("unexpected tags %q", gotTags)
	}
}

func TestNotifyRunCompletedWithFailuresNamesIdentities(t *testing.T) {
	var gotBody string
	svc := newNtfyService(t, func(w http.ResponseWriter, r *http.Request) {
		buf := make([]byte, 1024)
		n, _ := r.Body.Read(buf)
		gotBody = string(buf[:n])
		w.WriteHeader(http.StatusOK)
	})

	summary := report.Summary{Succeeded: 1, Failed: 1, FailedIdentities: []string{"scene:048"}}
	if err := svc.NotifyRunCompleted(context.Background(), summary); err != nil {
		t.Fatalf("NotifyRunCompleted failed: %v", err)
	}
	if gotBody == "" || !containsAll(gotBody, "scene:048", "1 failed") {
		t.Fatalf("unexpected body %q", gotBody)
	}
}

func TestServerErrorSurfaces(t *testing.T) {
	svc := newNtfyService(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})
	if err := svc.TestNotification(context.Background()); err == nil {
		t.Fatal("expected error on 500 response")
	}
}

func containsAll(s string, subs ...string) bool {
	for _, sub := range subs {
		if !strings.Contains(s, sub) {
			return false
		}
	}
	return true
}
