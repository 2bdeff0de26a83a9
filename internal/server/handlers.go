package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/law-makers/bounty/internal/engine"
	"github.com/law-makers/bounty/internal/reqctx"
	urlutil "github.com/law-makers/bounty/internal/utils/url"
	"github.com/law-makers/bounty/pkg/models"
	"github.com/rs/zerolog/log"
)

// Client-facing error messages. Internal detail is logged, never returned.
const (
	msgURLRequired       = "URL is required"
	msgInvalidURL        = "URL must be an absolute http(s) URL"
	msgEngineUnavailable = "browser engine unavailable"
	msgScrapeFailed      = "An error occurred while scraping"
)

func (s *Server) handleScrape(w http.ResponseWriter, r *http.Request) {
	target := r.URL.Query().Get("url")
	if target == "" {
		writeError(w, http.StatusBadRequest, msgURLRequired)
		return
	}
	if err := urlutil.ValidateURL(target); err != nil {
		log.Debug().Err(err).Str("url", target).Msg("Rejected scrape url")
		writeError(w, http.StatusBadRequest, msgInvalidURL)
		return
	}

	payload, err := s.opts.Scraper.Run(r.Context(), target)
	if err != nil {
		status, msg := classifyError(err)
		log.Debug().
			Str("request_id", reqctx.GetRequestContext(r.Context()).RequestID).
			Int("status", status).
			Err(err).
			Msg("Scrape request failed")
		writeError(w, status, msg)
		return
	}

	writeJSON(w, http.StatusOK, payload)
}

// classifyError maps the error taxonomy to a status and a generic message
func classifyError(err error) (int, string) {
	switch engine.CodeOf(err) {
	case engine.ErrCodeValidation:
		if errors.Is(err, engine.ErrURLRequired) {
			return http.StatusBadRequest, msgURLRequired
		}
		return http.StatusBadRequest, msgInvalidURL
	case engine.ErrCodeEngineUnavailable:
		return http.StatusInternalServerError, msgEngineUnavailable
	default:
		return http.StatusInternalServerError, msgScrapeFailed
	}
}

func (s *Server) handlePreflight(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}

type healthResponse struct {
	Status   string `json:"status"`
	Browser  bool   `json:"browser"`
	Bounties int    `json:"bounties"`
	Uptime   string `json:"uptime"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{
		Status: "ok",
		Uptime: s.Uptime().Round(time.Second).String(),
	}
	if s.opts.Browser != nil {
		resp.Browser = s.opts.Browser.Active()
	}
	if s.opts.Store != nil {
		resp.Bounties = s.opts.Store.Len()
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn().Err(err).Msg("Failed to write response")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, models.ErrorResponse{Error: msg})
}
