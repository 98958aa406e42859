package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/lazypower/engram/internal/memory"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	stats, err := s.engine.Stats()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":        "ok",
		"version":       s.version,
		"uptime_sec":    int64(time.Since(s.started).Seconds()),
		"tier1_records": stats.Tier1Records,
		"tier1_bytes":   stats.Tier1Bytes,
		"tier2_digests": stats.Tier2Digests,
		"tier2_bytes":   stats.Tier2Bytes,
	})
}

type recordRequest struct {
	ID               string  `json:"id"`
	CIID             string  `json:"ci_id"`
	SessionID        string  `json:"session_id"`
	Timestamp        int64   `json:"timestamp"`
	Type             int     `json:"type"`
	Importance       float64 `json:"importance"`
	Content          string  `json:"content"`
	Response         string  `json:"response"`
	Context          string  `json:"context"`
	Component        string  `json:"component"`
	EmotionIntensity float64 `json:"emotion_intensity"`
	MarkedImportant  bool    `json:"marked_important"`
	Forgettable      bool    `json:"marked_forgettable"`
}

func (s *Server) handleStoreRecord(w http.ResponseWriter, r *http.Request) {
	var req recordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.CIID == "" || req.Content == "" {
		writeError(w, http.StatusBadRequest, "ci_id and content required")
		return
	}

	rec := &memory.Record{
		ID:                req.ID,
		CIID:              req.CIID,
		SessionID:         req.SessionID,
		Timestamp:         req.Timestamp,
		Type:              memory.RecordType(req.Type),
		Importance:        req.Importance,
		Content:           req.Content,
		Response:          req.Response,
		Context:           req.Context,
		Component:         req.Component,
		EmotionIntensity:  req.EmotionIntensity,
		MarkedImportant:   req.MarkedImportant,
		MarkedForgettable: req.Forgettable,
	}

	lock := s.identityLock(req.CIID)
	lock.Lock()
	err := s.engine.Store(rec)
	lock.Unlock()
	if err != nil {
		if errors.Is(err, memory.ErrStorageFull) {
			writeError(w, http.StatusInsufficientStorage, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"record_id": rec.ID})
}

func (s *Server) handleQueryRecords(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := memory.Filter{
		CIID:      q.Get("ci_id"),
		StartTime: parseInt64(q.Get("start")),
		EndTime:   parseInt64(q.Get("end")),
		Type:      memory.RecordType(int(parseInt64(q.Get("type")))),
		Limit:     int(parseInt64(q.Get("limit"))),
	}
	if v := q.Get("min_importance"); v != "" {
		f.MinImportance, _ = strconv.ParseFloat(v, 64)
	}

	records, err := s.engine.Query(f)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"count":   len(records),
		"records": records,
	})
}

func (s *Server) handleArchive(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CIID       string `json:"ci_id"`
		MaxAgeDays *int   `json:"max_age_days"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.CIID == "" {
		writeError(w, http.StatusBadRequest, "ci_id required")
		return
	}
	maxAge := s.defaultMaxAgeDays
	if req.MaxAgeDays != nil {
		maxAge = *req.MaxAgeDays
	}

	lock := s.identityLock(req.CIID)
	lock.Lock()
	archived, err := s.engine.Archive(req.CIID, maxAge)
	lock.Unlock()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"archived": archived})
}

func (s *Server) handleAtRisk(w http.ResponseWriter, r *http.Request) {
	ciID := r.URL.Query().Get("ci_id")
	if ciID == "" {
		writeError(w, http.StatusBadRequest, "ci_id required")
		return
	}
	maxAge := s.defaultMaxAgeDays
	if v := r.URL.Query().Get("max_age_days"); v != "" {
		maxAge = int(parseInt64(v))
	}

	entries, err := s.engine.AtRisk(ciID, maxAge)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	out := make([]map[string]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, map[string]string{
			"record_id": e.RecordID,
			"reason":    e.Reason,
			"preview":   e.ContentPreview,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"count": len(out), "at_risk": out})
}

func (s *Server) handleDigests(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := memory.DigestFilter{
		CIID:       q.Get("ci_id"),
		StartTime:  parseInt64(q.Get("start")),
		EndTime:    parseInt64(q.Get("end")),
		PeriodType: -1,
		Type:       -1,
		Limit:      int(parseInt64(q.Get("limit"))),
	}
	if v := q.Get("period_type"); v != "" {
		f.PeriodType = memory.PeriodType(int(parseInt64(v)))
	}
	if v := q.Get("digest_type"); v != "" {
		f.Type = memory.DigestType(int(parseInt64(v)))
	}

	digests, err := s.engine.Digests(f)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"count": len(digests), "digests": digests})
}

func (s *Server) handleSearchDigests(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		writeError(w, http.StatusBadRequest, "q required")
		return
	}

	var (
		digests []*memory.Digest
		err     error
	)
	if r.URL.Query().Get("field") == "keywords" {
		digests, err = s.engine.SearchKeywords(query)
	} else {
		digests, err = s.engine.SearchConcepts(query)
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"count": len(digests), "digests": digests})
}

func (s *Server) handleRebuildIndex(w http.ResponseWriter, r *http.Request) {
	n, err := s.engine.RebuildIndex()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"indexed": n})
}

func parseInt64(s string) int64 {
	v, _ := strconv.ParseInt(s, 10, 64)
	return v
}
