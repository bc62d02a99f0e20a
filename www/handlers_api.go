package www

import (
	"encoding/json"
	"net/http"

	"github.com/arpg/bobcat/store"
)

func (h *Handlers) apiState(w http.ResponseWriter, r *http.Request) {
	snap, ok := h.engine.Snapshot()
	if !ok {
		writeError(w, http.StatusServiceUnavailable, "no state yet")
		return
	}
	writeJSON(w, snap)
}

func (h *Handlers) apiMap(w http.ResponseWriter, r *http.Request) {
	snap, ok := h.engine.Snapshot()
	if !ok {
		writeError(w, http.StatusServiceUnavailable, "no state yet")
		return
	}
	data, err := mapFeatures(snap).MarshalJSON()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "application/geo+json")
	w.Write(data)
}

type taskRequest struct {
	Target string `json:"target"`
	Name   string `json:"name"`
	Value  string `json:"value"`
}

func (h *Handlers) apiTask(w http.ResponseWriter, r *http.Request) {
	var req taskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	if req.Name == "" {
		req.Name = "task"
	}
	if req.Value == "" {
		writeError(w, http.StatusBadRequest, "value is required")
		return
	}
	if err := h.engine.SubmitTask(req.Target, req.Name, req.Value, operatorFrom(r.Context())); err != nil {
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]string{"status": "queued"})
}

type loginRequest struct {
	Operator string `json:"operator"`
	Token    string `json:"token"`
}

func (h *Handlers) apiLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	if !checkToken(req.Token, h.engine.AppConfig().Web.TokenHash) {
		writeError(w, http.StatusUnauthorized, "invalid token")
		return
	}
	if req.Operator == "" {
		req.Operator = "operator"
	}
	h.sessions.setOperator(w, r, req.Operator)
	writeJSON(w, map[string]string{"operator": req.Operator})
}

func (h *Handlers) apiLogout(w http.ResponseWriter, r *http.Request) {
	h.sessions.clear(w, r)
	writeJSON(w, map[string]string{"status": "ok"})
}

func (h *Handlers) apiDeployments(w http.ResponseWriter, r *http.Request) {
	db := h.engine.DB()
	if db == nil {
		writeJSON(w, []*store.Deployment{})
		return
	}
	deps, err := db.ListDeployments(h.engine.AppConfig().AgentID(), queryLimit(r, 50, 500))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if deps == nil {
		deps = []*store.Deployment{}
	}
	writeJSON(w, deps)
}

func (h *Handlers) apiAudit(w http.ResponseWriter, r *http.Request) {
	db := h.engine.DB()
	if db == nil {
		writeJSON(w, []*store.AuditEntry{})
		return
	}
	entries, err := db.ListAuditLog(queryLimit(r, 100, 1000))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if entries == nil {
		entries = []*store.AuditEntry{}
	}
	writeJSON(w, entries)
}
