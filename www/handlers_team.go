package www

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sort"

	"github.com/go-chi/chi/v5"
)

// TeamView reads the snapshots other agents mirror into the team monitor.
type TeamView interface {
	AgentIDs(ctx context.Context) ([]string, error)
	GetStatus(ctx context.Context, agentID string) (string, error)
	GetSnapshot(ctx context.Context, agentID string) ([]byte, error)
	RemoveAgent(ctx context.Context, agentID string) error
}

type teamMember struct {
	Agent  string `json:"agent"`
	Status string `json:"status"`
	Self   bool   `json:"self,omitempty"`
}

// apiTeam lists every agent with a live snapshot. Agents whose keys have
// expired are pruned from the index as they are found.
func (h *Handlers) apiTeam(w http.ResponseWriter, r *http.Request) {
	if h.team == nil {
		writeError(w, http.StatusServiceUnavailable, "team monitor disabled")
		return
	}
	ctx := r.Context()
	ids, err := h.team.AgentIDs(ctx)
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	sort.Strings(ids)
	self := h.engine.AppConfig().AgentID()
	members := []teamMember{}
	for _, id := range ids {
		status, err := h.team.GetStatus(ctx, id)
		if err != nil {
			writeError(w, http.StatusBadGateway, err.Error())
			return
		}
		if status == "" {
			if err := h.team.RemoveAgent(ctx, id); err != nil {
				log.Printf("www: prune team agent %s: %v", id, err)
			}
			continue
		}
		members = append(members, teamMember{Agent: id, Status: status, Self: id == self})
	}
	writeJSON(w, members)
}

func (h *Handlers) apiTeamAgent(w http.ResponseWriter, r *http.Request) {
	if h.team == nil {
		writeError(w, http.StatusServiceUnavailable, "team monitor disabled")
		return
	}
	data, err := h.team.GetSnapshot(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	if data == nil {
		writeError(w, http.StatusNotFound, "no snapshot for agent")
		return
	}
	writeJSON(w, json.RawMessage(data))
}
