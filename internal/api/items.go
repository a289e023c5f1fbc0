package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/gray-logic-voice/internal/item"
)

// currentStore returns the item graph, writing a 503 when none is loaded.
func (s *Server) currentStore(w http.ResponseWriter) *item.Store {
	store := s.store()
	if store == nil {
		writeUnavailable(w, "item graph not loaded")
	}
	return store
}

// roomParam resolves the "room" query parameter. ok is false when a 404 has
// been written.
func roomParam(w http.ResponseWriter, r *http.Request, store *item.Store) (room *item.Item, ok bool) {
	spoken := r.URL.Query().Get("room")
	if spoken == "" {
		return nil, true
	}
	if room = store.FindLocation(spoken); room == nil {
		writeNotFound(w, "unknown room: "+spoken)
		return nil, false
	}
	return room, true
}

// handleListItems returns all items, or the items matching the attribute
// filters when any is given.
//
// Query parameters:
//   - semantics: exact semantic tag (Point_Control_Switch, ...)
//   - relates_to: exact Property_* tag
//   - point_of: name of the owning equipment
//   - type: item type (Switch, Dimmer, ...)
//   - room: spoken room name
func (s *Server) handleListItems(w http.ResponseWriter, r *http.Request) {
	store := s.currentStore(w)
	if store == nil {
		return
	}
	room, ok := roomParam(w, r, store)
	if !ok {
		return
	}

	q := r.URL.Query()
	query := item.AttributeQuery{
		Semantics: q.Get("semantics"),
		RelatesTo: q.Get("relates_to"),
		PointOf:   q.Get("point_of"),
		Type:      q.Get("type"),
		Location:  room,
	}

	var items []*item.Item
	if query == (item.AttributeQuery{}) {
		items = store.Items()
	} else {
		items = store.ItemsWithAttributes(query)
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items, "count": len(items)})
}

// handleReload rebuilds the item graph from openHAB.
func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	if s.reload == nil {
		writeUnavailable(w, "reload not configured")
		return
	}
	if err := s.reload(r.Context()); err != nil {
		s.logger.Error("item graph reload failed", "error", err)
		writeError(w, http.StatusBadGateway, ErrCodeBadGateway, "reload failed: "+err.Error())
		return
	}

	resp := map[string]any{"status": "reloaded"}
	if store := s.store(); store != nil {
		resp["items"] = store.Len()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetItem(w http.ResponseWriter, r *http.Request) {
	store := s.currentStore(w)
	if store == nil {
		return
	}
	it, ok := store.Item(chi.URLParam(r, "name"))
	if !ok {
		writeNotFound(w, "item not found")
		return
	}
	writeJSON(w, http.StatusOK, it)
}

// handleGetState reads the live state from openHAB. Items without a value
// report "available": false.
func (s *Server) handleGetState(w http.ResponseWriter, r *http.Request) {
	store := s.currentStore(w)
	if store == nil {
		return
	}
	it, ok := store.Item(chi.URLParam(r, "name"))
	if !ok {
		writeNotFound(w, "item not found")
		return
	}

	state, available := store.State(r.Context(), it)
	writeJSON(w, http.StatusOK, map[string]any{
		"name":      it.Name,
		"state":     state,
		"available": available,
	})
}

// commandRequest is the body of POST /items/{name}/command.
type commandRequest struct {
	Command string `json:"command"`
}

// dispatchResponse is the JSON form of item.DispatchReport.
type dispatchResponse struct {
	Command   string            `json:"command"`
	Delivered []string          `json:"delivered"`
	Failed    map[string]string `json:"failed,omitempty"`
}

func newDispatchResponse(report item.DispatchReport) dispatchResponse {
	resp := dispatchResponse{Command: report.Command, Delivered: report.Delivered}
	if len(report.Failed) > 0 {
		resp.Failed = make(map[string]string, len(report.Failed))
		for name, err := range report.Failed {
			resp.Failed[name] = err.Error()
		}
	}
	return resp
}

// handleCommand sends a command to one item. With ?expand=switch an
// equipment group is expanded to its switch points first.
func (s *Server) handleCommand(w http.ResponseWriter, r *http.Request) {
	store := s.currentStore(w)
	if store == nil {
		return
	}
	it, ok := store.Item(chi.URLParam(r, "name"))
	if !ok {
		writeNotFound(w, "item not found")
		return
	}

	var req commandRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	req.Command = strings.TrimSpace(req.Command)
	if req.Command == "" {
		writeBadRequest(w, "command is required")
		return
	}

	targets := []*item.Item{it}
	if r.URL.Query().Get("expand") == "switch" {
		targets = store.SwitchTargets(targets)
		if len(targets) == 0 {
			writeBadRequest(w, "item has no switch points")
			return
		}
	}

	report := store.SendCommand(r.Context(), targets, req.Command)
	status := http.StatusOK
	if len(report.Delivered) == 0 {
		status = http.StatusBadGateway
	}
	writeJSON(w, status, newDispatchResponse(report))
}

// handleResolve resolves spoken phrases to items.
//
// Query parameters:
//   - q: phrase, repeatable (required)
//   - room: spoken room name
//   - type: item type filter
//   - mode: "any" (default, union) or "all" (every phrase must be a synonym)
func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	store := s.currentStore(w)
	if store == nil {
		return
	}

	phrases := r.URL.Query()["q"]
	if len(phrases) == 0 {
		writeBadRequest(w, "q is required")
		return
	}
	room, ok := roomParam(w, r, store)
	if !ok {
		return
	}
	query := item.Query{Location: room, Type: r.URL.Query().Get("type")}

	var items []*item.Item
	switch mode := r.URL.Query().Get("mode"); mode {
	case "", "any":
		items = store.ResolveAny(phrases, query)
	case "all":
		items = store.ResolveAll(phrases, query)
	default:
		writeBadRequest(w, "mode must be any or all")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items, "count": len(items)})
}

// handleLocate returns the location a spoken room name refers to.
func (s *Server) handleLocate(w http.ResponseWriter, r *http.Request) {
	store := s.currentStore(w)
	if store == nil {
		return
	}
	spoken := r.URL.Query().Get("q")
	if spoken == "" {
		writeBadRequest(w, "q is required")
		return
	}
	loc := store.FindLocation(spoken)
	if loc == nil {
		writeNotFound(w, "no location matches "+spoken)
		return
	}
	writeJSON(w, http.StatusOK, loc)
}

func (s *Server) handleVocabulary(w http.ResponseWriter, _ *http.Request) {
	store := s.currentStore(w)
	if store == nil {
		return
	}
	writeJSON(w, http.StatusOK, store.Vocabulary())
}

// decodeJSON decodes a request body into v, rejecting unknown fields.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is empty")
		}
		return errors.New("invalid JSON: " + err.Error())
	}
	return nil
}
