package api

import (
	"net/http"
	"strconv"

	"github.com/nerrad567/gray-logic-voice/internal/audit"
)

// handleListCommands returns the command log, newest first.
//
// Query parameters:
//   - item: exact item name
//   - command: exact command token
//   - outcome: delivered or failed
//   - source: voice, api, schedule or cli
//   - limit: max results (default 50, max 200)
//   - offset: pagination offset
func (s *Server) handleListCommands(w http.ResponseWriter, r *http.Request) {
	if s.auditRepo == nil {
		writeUnavailable(w, "command log not configured")
		return
	}

	q := r.URL.Query()
	filter := audit.Filter{
		Item:    q.Get("item"),
		Command: q.Get("command"),
		Outcome: q.Get("outcome"),
		Source:  q.Get("source"),
	}
	var err error
	if filter.Limit, err = intParam(q.Get("limit")); err != nil {
		writeBadRequest(w, "invalid limit")
		return
	}
	if filter.Offset, err = intParam(q.Get("offset")); err != nil {
		writeBadRequest(w, "invalid offset")
		return
	}

	result, err := s.auditRepo.List(r.Context(), filter)
	if err != nil {
		s.logger.Error("failed to list commands", "error", err)
		writeInternalError(w, "failed to list commands")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// intParam parses an optional non-negative integer parameter.
func intParam(v string) (int, error) {
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, strconv.ErrSyntax
	}
	return n, nil
}
