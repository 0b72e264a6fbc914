package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"clipharvest/internal/history"
	"clipharvest/internal/media"
	"clipharvest/internal/metrics"
)

// Messages returned to clients.
const (
	msgNoVideos      = "No matching videos found"
	msgExtractFailed = "Failed to extract videos"
	msgTooShort      = "Source code is too short to contain a page"
	msgTooLarge      = "Source code is too large"
	msgNotHTML       = "Source code does not look like an HTML document"
	msgBadJSON       = "Request body must be JSON with a sourceCode string"
)

// bodyOverhead leaves room for the JSON envelope and string escaping.
const bodyOverhead = 1 << 20

type extractRequest struct {
	SourceCode string `json:"sourceCode"`
}

type extractResponse struct {
	Success       bool          `json:"success"`
	Videos        []media.Asset `json:"videos"`
	Count         int           `json:"count"`
	Message       string        `json:"message"`
	TotalFound    int           `json:"totalFound"`
	FilteredCount int           `json:"filteredCount"`
}

type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes+bodyOverhead)

	var req extractRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.reject(w, msgTooLarge)
			return
		}
		s.reject(w, msgBadJSON)
		return
	}

	if msg := s.checkSource(req.SourceCode); msg != "" {
		s.reject(w, msg)
		return
	}

	start := time.Now()
	rs, err := s.extractor.Extract(req.SourceCode)
	elapsed := time.Since(start)
	if err != nil {
		s.logger.Error("extraction failed", zap.Error(err), zap.String("request_id", requestID(r.Context())))
		s.metrics.RecordExtraction(metrics.OutcomeError, elapsed, 0)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: msgExtractFailed})
		return
	}

	outcome := metrics.OutcomeOK
	message := fmt.Sprintf("Found %d video(s)", rs.Len())
	if rs.Len() == 0 {
		outcome = metrics.OutcomeEmpty
		message = msgNoVideos
	}
	s.metrics.RecordExtraction(outcome, elapsed, rs.Len())
	s.record(r.Context(), len(req.SourceCode), rs, elapsed)

	videos := rs.Assets
	if videos == nil {
		videos = []media.Asset{}
	}
	writeJSON(w, http.StatusOK, extractResponse{
		Success:       true,
		Videos:        videos,
		Count:         rs.Len(),
		Message:       message,
		TotalFound:    rs.TotalFound,
		FilteredCount: rs.Filtered(),
	})
}

// checkSource returns a client-facing message when src cannot be an HTML page.
func (s *Server) checkSource(src string) string {
	if len(src) < s.cfg.MinSourceBytes {
		return msgTooShort
	}
	if int64(len(src)) > s.cfg.MaxBodyBytes {
		return msgTooLarge
	}
	head := src
	if len(head) > 4096 {
		head = head[:4096]
	}
	lower := strings.ToLower(head)
	if !strings.Contains(lower, "<!doctype") && !strings.Contains(lower, "<html") {
		return msgNotHTML
	}
	return ""
}

func (s *Server) reject(w http.ResponseWriter, msg string) {
	s.metrics.RecordExtraction(metrics.OutcomeRejected, 0, 0)
	writeJSON(w, http.StatusBadRequest, errorResponse{Error: msg})
}

func (s *Server) record(ctx context.Context, inputBytes int, rs *media.ResultSet, elapsed time.Duration) {
	if s.history == nil {
		return
	}
	entry := history.Entry{
		Source:     history.SourceHTTP,
		InputBytes: inputBytes,
		TotalFound: rs.TotalFound,
		Returned:   rs.Len(),
		DurationMS: elapsed.Milliseconds(),
	}
	if rs.Len() > 0 {
		entry.TopURL = rs.Assets[0].URL
	}
	if _, err := s.history.Record(ctx, entry); err != nil {
		s.logger.Warn("recording history failed", zap.Error(err))
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}
