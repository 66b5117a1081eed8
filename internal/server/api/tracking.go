package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/ayusman/handshelf/internal/engine"
	"github.com/ayusman/handshelf/internal/gesture"
)

// Controller starts and stops tracking and switches modes.
type Controller interface {
	StartTracking(ctx context.Context) error
	StopTracking() error
	SetMode(m gesture.Mode) error
	Status() engine.Stats
}

// TrackingHandler serves /api/tracking, /api/tracking/{start,stop} and
// /api/mode.
type TrackingHandler struct {
	ctrl Controller
}

// NewTrackingHandler creates a TrackingHandler backed by ctrl.
func NewTrackingHandler(ctrl Controller) *TrackingHandler {
	return &TrackingHandler{ctrl: ctrl}
}

type modeRequest struct {
	Mode gesture.Mode `json:"mode"`
}

type modeResponse struct {
	Mode gesture.Mode `json:"mode"`
}

// ServeHTTP routes tracking and mode requests.
func (h *TrackingHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch path := strings.TrimSuffix(r.URL.Path, "/"); path {
	case "/api/tracking":
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		writeJSON(w, http.StatusOK, h.ctrl.Status())
	case "/api/tracking/start":
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.start(w, r)
	case "/api/tracking/stop":
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.stop(w)
	case "/api/mode":
		switch r.Method {
		case http.MethodGet:
			writeJSON(w, http.StatusOK, modeResponse{Mode: h.ctrl.Status().Mode})
		case http.MethodPut:
			h.setMode(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	default:
		http.NotFound(w, r)
	}
}

// start handles POST /api/tracking/start. The session outlives the
// request, so it is not bound to the request context.
func (h *TrackingHandler) start(w http.ResponseWriter, r *http.Request) {
	ctx := context.WithoutCancel(r.Context())
	if err := h.ctrl.StartTracking(ctx); err != nil {
		writeError(w, http.StatusServiceUnavailable, "Failed to start tracking: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, h.ctrl.Status())
}

// stop handles POST /api/tracking/stop.
func (h *TrackingHandler) stop(w http.ResponseWriter) {
	if err := h.ctrl.StopTracking(); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to stop tracking: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, h.ctrl.Status())
}

// setMode handles PUT /api/mode.
func (h *TrackingHandler) setMode(w http.ResponseWriter, r *http.Request) {
	var req modeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid mode: use \"scan\" or \"browse\"")
		return
	}
	if err := h.ctrl.SetMode(req.Mode); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to set mode")
		return
	}
	writeJSON(w, http.StatusOK, modeResponse{Mode: h.ctrl.Status().Mode})
}
