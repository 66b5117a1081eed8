package api

import (
	"net/http"
	"strconv"

	"github.com/ayusman/handshelf/internal/store"
)

const (
	defaultJournalLimit = 50
	maxJournalLimit     = 500
)

// Journal lists recent gesture events.
type Journal interface {
	Recent(limit int) ([]store.Entry, error)
}

// JournalHandler serves GET /api/journal?limit=N.
type JournalHandler struct {
	journal Journal
}

// NewJournalHandler creates a JournalHandler reading from j.
func NewJournalHandler(j Journal) *JournalHandler {
	return &JournalHandler{journal: j}
}

type journalResponse struct {
	Entries []store.Entry `json:"entries"`
}

// ServeHTTP returns the newest journal entries first.
func (h *JournalHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	limit := defaultJournalLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, maxJournalLimit)
	}

	entries, err := h.journal.Recent(limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to read journal")
		return
	}

	response := journalResponse{Entries: make([]store.Entry, 0, len(entries))}
	response.Entries = append(response.Entries, entries...)
	writeJSON(w, http.StatusOK, response)
}
