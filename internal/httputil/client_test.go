package httputil

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestNewUpstreamRequest(t *testing.T) {
	req, err := NewUpstreamRequest(context.Background(), "https://video.fbcdn.net/a.mp4", "bytes=0-99")
	if err != nil {
		t.Fatalf("NewUpstreamRequest() error: %v", err)
	}
	if got := req.Header.Get("Range"); got != "bytes=0-99" {
		t.Errorf("Range = %q, want bytes=0-99", got)
	}
	if req.Header.Get("User-Agent") == "" {
		t.Error("User-Agent not set")
	}

	req, err = NewUpstreamRequest(context.Background(), "https://video.fbcdn.net/a.mp4", "")
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := req.Header["Range"]; ok {
		t.Error("Range set without a range header")
	}

	if _, err := NewUpstreamRequest(context.Background(), "http://video.fbcdn.net/a.mp4", ""); err == nil {
		t.Error("expected plain HTTP to be rejected")
	}
}

func TestFetchPage(t *testing.T) {
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(strings.Repeat("x", 100)))
	}))
	defer srv.Close()

	client := srv.Client()

	body, err := FetchPage(context.Background(), client, srv.URL+"/page", 10)
	if err != nil {
		t.Fatalf("FetchPage() error: %v", err)
	}
	if len(body) != 10 {
		t.Errorf("read %d bytes, want limit 10", len(body))
	}

	if _, err := FetchPage(context.Background(), client, srv.URL+"/missing", 10); err == nil {
		t.Error("expected error for 404")
	}
}

func TestStreamingClientHasNoOverallTimeout(t *testing.T) {
	c := NewStreamingClient(5 * time.Second)
	if c.Timeout != 0 {
		t.Errorf("Timeout = %v, want 0", c.Timeout)
	}
	tr, ok := c.Transport.(*http.Transport)
	if !ok {
		t.Fatalf("Transport is %T", c.Transport)
	}
	if tr.ResponseHeaderTimeout != 5*time.Second {
		t.Errorf("ResponseHeaderTimeout = %v", tr.ResponseHeaderTimeout)
	}
	if NewClient().Timeout == 0 {
		t.Error("NewClient should carry an overall timeout")
	}
}
