package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/terra-clan/domain-lists/internal/board"
	"github.com/terra-clan/domain-lists/internal/lists"
	"github.com/terra-clan/domain-lists/internal/models"
	"github.com/terra-clan/domain-lists/internal/resolver"
)

// Response helpers

type apiResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *apiError   `json:"error,omitempty"`
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	writeResponse(w, status, apiResponse{
		Success: status >= 200 && status < 300,
		Data:    data,
	})
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondErrorWithData(w, status, code, message, nil)
}

// respondErrorWithData is used when the failure still has something to show,
// e.g. the error view of a list that could not be loaded
func respondErrorWithData(w http.ResponseWriter, status int, code, message string, data interface{}) {
	writeResponse(w, status, apiResponse{
		Success: false,
		Data:    data,
		Error: &apiError{
			Code:    code,
			Message: message,
		},
	})
}

func writeResponse(w http.ResponseWriter, status int, resp apiResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

// Health handlers

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	failures := s.health.CheckAll(r.Context())
	if len(failures) > 0 {
		for name, err := range failures {
			slog.Warn("dependency not ready", "dependency", name, "error", err)
		}
		respondError(w, http.StatusServiceUnavailable, "not_ready", "service not ready")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":   "ready",
		"checks":   s.health.List(),
		"sessions": s.hub.Count(),
	})
}

// List handlers

func (s *Server) handleOptions(w http.ResponseWriter, r *http.Request) {
	opts := s.resolver.Tables().Options()
	opts.Defaults = s.defaultSelection()
	respondJSON(w, http.StatusOK, opts)
}

func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	sel := s.selectionFromQuery(r)

	id, err := s.resolver.Resolve(sel)
	if err != nil {
		slog.Error("filter selection has no mapping",
			"error", err,
			"type", sel.Type,
			"sort", sel.Sort,
			"date", sel.Date,
		)
		respondError(w, http.StatusBadRequest, "unknown_selection", err.Error())
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"filename": id.Filename,
		"version":  id.Version,
		"url":      s.urls.URL(id),
	})
}

func (s *Server) handleGetList(w http.ResponseWriter, r *http.Request) {
	inv, err := s.invocationFromQuery(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "validation_error", err.Error())
		return
	}

	v, err := s.pipeline.Run(r.Context(), inv)
	if err != nil {
		switch {
		case errors.Is(err, resolver.ErrUnknownSelection):
			respondError(w, http.StatusBadRequest, "unknown_selection", err.Error())
		case errors.Is(err, board.ErrGated):
			respondError(w, http.StatusForbidden, "gated", "page requires user action")
		case errors.Is(err, lists.ErrResourceUnavailable):
			respondErrorWithData(w, http.StatusBadGateway, "resource_unavailable", "list could not be loaded", v)
		default:
			slog.Error("failed to build list view", "error", err)
			respondError(w, http.StatusInternalServerError, "internal_error", "failed to build list view")
		}
		return
	}

	respondJSON(w, http.StatusOK, v)
}

// Query parsing

func (s *Server) defaultSelection() models.FilterSelection {
	sel := models.DefaultSelection()
	sel.Limit = s.limits.DefaultLimit
	return sel
}

func (s *Server) selectionFromQuery(r *http.Request) models.FilterSelection {
	q := r.URL.Query()
	sel := models.FilterSelection{
		Type: models.FilterType(q.Get("type")),
		Sort: models.SortMetric(q.Get("sort")),
		Date: models.DateRange(q.Get("date")),
	}

	def := s.defaultSelection()
	if sel.Type == "" {
		sel.Type = def.Type
	}
	if sel.Sort == "" {
		sel.Sort = def.Sort
	}
	if sel.Date == "" {
		sel.Date = def.Date
	}
	sel.Limit = def.Limit
	return sel
}

func (s *Server) invocationFromQuery(r *http.Request) (models.Invocation, error) {
	sel := s.selectionFromQuery(r)
	page := 1

	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil || limit < 1 {
			return models.Invocation{}, fmt.Errorf("limit must be a positive integer")
		}
		if limit > s.limits.MaxLimit {
			return models.Invocation{}, fmt.Errorf("limit must not exceed %d", s.limits.MaxLimit)
		}
		sel.Limit = limit
	}

	if pageStr := r.URL.Query().Get("page"); pageStr != "" {
		p, err := strconv.Atoi(pageStr)
		if err != nil || p < 1 {
			return models.Invocation{}, fmt.Errorf("page must be a positive integer")
		}
		page = p
	}

	return models.Invocation{Selection: sel, Page: page}, nil
}

// validateSelection applies the same limit rules to selections arriving over
// the board websocket
func (s *Server) validateSelection(sel models.FilterSelection) (models.FilterSelection, error) {
	def := s.defaultSelection()
	if sel.Type == "" {
		sel.Type = def.Type
	}
	if sel.Sort == "" {
		sel.Sort = def.Sort
	}
	if sel.Date == "" {
		sel.Date = def.Date
	}
	if sel.Limit == 0 {
		sel.Limit = def.Limit
	}
	if sel.Limit < 1 || sel.Limit > s.limits.MaxLimit {
		return sel, fmt.Errorf("limit must be between 1 and %d", s.limits.MaxLimit)
	}
	return sel, nil
}
