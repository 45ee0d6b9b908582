package httpserver

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"testing"
	"time"

	"rtspd/internal/logger"
	"rtspd/internal/middleware"
	"rtspd/internal/pool"
)

type fakeSessionLister []string

func (f fakeSessionLister) SessionIDs() []string { return []string(f) }

func startTestServer(t *testing.T, stats Stats) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := ln.Addr().String()
	ln.Close()

	s := New(addr, logger.New(), stats)
	ctx, cancel := context.WithCancel(context.Background())
	go s.Run(ctx)
	t.Cleanup(cancel)

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if conn, err := net.Dial("tcp", addr); err == nil {
			conn.Close()
			return addr
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("server did not start listening on %s", addr)
	return ""
}

func getJSON(t *testing.T, url string) map[string]any {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("get %s: %v", url, err)
	}
	defer resp.Body.Close()

	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode %s: %v", url, err)
	}
	return body
}

func TestHandleHealth(t *testing.T) {
	addr := startTestServer(t, Stats{})
	body := getJSON(t, "http://"+addr+"/health")
	if body["status"] != "healthy" {
		t.Fatalf("status = %v, want healthy", body["status"])
	}
}

func TestHandleAdminSessions(t *testing.T) {
	addr := startTestServer(t, Stats{Sessions: fakeSessionLister{"AABBCCDD", "11223344"}})
	body := getJSON(t, "http://"+addr+"/admin/sessions")
	if body["total"].(float64) != 2 {
		t.Fatalf("total = %v, want 2", body["total"])
	}
}

func TestHandleAdminSessionFound(t *testing.T) {
	addr := startTestServer(t, Stats{Sessions: fakeSessionLister{"AABBCCDD"}})
	resp, err := http.Get("http://" + addr + "/admin/sessions/AABBCCDD")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
}

func TestHandleAdminSessionNotFound(t *testing.T) {
	addr := startTestServer(t, Stats{Sessions: fakeSessionLister{}})
	resp, err := http.Get("http://" + addr + "/admin/sessions/DEADBEEF")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}
}

func TestHandleReadyReflectsSessionLimit(t *testing.T) {
	limiter := middleware.NewConnectionLimiter(1, 1)
	if err := limiter.Acquire("203.0.113.9"); err != nil {
		t.Fatalf("acquire: %v", err)
	}
	t.Cleanup(func() { limiter.Release("203.0.113.9") })

	addr := startTestServer(t, Stats{SessionLimit: limiter})
	resp, err := http.Get("http://" + addr + "/ready")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503 once the only slot is taken", resp.StatusCode)
	}
}

func TestHandleStatusIncludesBufferPool(t *testing.T) {
	addr := startTestServer(t, Stats{BufferPool: pool.New(4096)})
	body := getJSON(t, "http://"+addr+"/status")
	if _, ok := body["buffer_pool"]; !ok {
		t.Fatalf("status response missing buffer_pool: %v", body)
	}
}

func TestHandleStatusIncludesFrameRateAndMediaFile(t *testing.T) {
	addr := startTestServer(t, Stats{FrameRate: 30, MediaFile: "/var/media/stream.h264"})
	body := getJSON(t, "http://"+addr+"/status")
	if body["frame_rate"].(float64) != 30 {
		t.Fatalf("frame_rate = %v, want 30", body["frame_rate"])
	}
	if body["media_file"] != "/var/media/stream.h264" {
		t.Fatalf("media_file = %v, want /var/media/stream.h264", body["media_file"])
	}
}
