package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"clipharvest/internal/httputil"
)

// forwardedHeaders are copied from the upstream response.
var forwardedHeaders = []string{
	"Content-Type",
	"Content-Length",
	"Content-Range",
	"Accept-Ranges",
	"Last-Modified",
	"ETag",
}

func (s *Server) handleProxy(w http.ResponseWriter, r *http.Request) {
	target := r.URL.Query().Get("url")
	if target == "" {
		s.metrics.RecordProxy(http.StatusBadRequest, 0)
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Missing url parameter"})
		return
	}
	if !httputil.HostAllowed(target, s.hostTokens) {
		s.metrics.RecordProxy(http.StatusBadRequest, 0)
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid video URL"})
		return
	}

	// ProxyTimeout bounds the wait for upstream headers only; the body
	// stream lives as long as the client connection.
	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	var timer *time.Timer
	if s.cfg.ProxyTimeout.Duration > 0 {
		timer = time.AfterFunc(s.cfg.ProxyTimeout.Duration, cancel)
	}

	req, err := httputil.NewUpstreamRequest(ctx, target, r.Header.Get("Range"))
	if err != nil {
		s.metrics.RecordProxy(http.StatusBadRequest, 0)
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid video URL"})
		return
	}
	if r.Method == http.MethodHead {
		req.Method = http.MethodHead
	}

	resp, err := s.proxyClient.Do(req)
	if timer != nil && !timer.Stop() && err == nil {
		resp.Body.Close()
		err = context.DeadlineExceeded
	}
	if err != nil {
		s.logger.Warn("proxy upstream failed", zap.Error(err), zap.String("request_id", requestID(r.Context())))
		s.metrics.RecordProxy(http.StatusBadGateway, 0)
		writeJSON(w, http.StatusBadGateway, errorResponse{Error: "Failed to fetch video"})
		return
	}
	defer resp.Body.Close()

	for _, h := range forwardedHeaders {
		if v := resp.Header.Get(h); v != "" {
			w.Header().Set(h, v)
		}
	}
	if r.URL.Query().Get("download") == "1" {
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", httputil.DownloadFilename(target)))
	}
	w.WriteHeader(resp.StatusCode)

	if r.Method == http.MethodHead {
		s.metrics.RecordProxy(resp.StatusCode, 0)
		return
	}

	n, err := io.Copy(w, resp.Body)
	s.metrics.RecordProxy(resp.StatusCode, n)
	if err != nil && !errors.Is(err, context.Canceled) {
		s.logger.Debug("proxy stream ended early", zap.Error(err), zap.Int64("bytes", n))
	}
}
