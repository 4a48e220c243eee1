package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"bomb-arena/internal/command"
	"bomb-arena/internal/render"
)

const (
	maxQRSize     = 1024
	defaultQRSize = 256
)

func (h *routerHandlers) handleGetState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.engine.Snapshot())
}

func (h *routerHandlers) handleGetStats(w http.ResponseWriter, r *http.Request) {
	snap := h.engine.Snapshot()
	stats := map[string]interface{}{
		"tick":        snap.TickNumber,
		"playerCount": snap.PlayerCount,
		"aliveCount":  snap.AliveCount,
		"aiCount":     snap.AICount,
		"bombCount":   len(snap.Bombs),
		"totalKills":  snap.TotalKills,
	}
	if h.commands != nil {
		stats["commandQueue"] = h.commands.Stats()
	}
	writeJSON(w, stats)
}

func (h *routerHandlers) handleGetLeaderboard(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, BuildLeaderboardView(h.engine.Leaderboard(), h.engine.Snapshot()))
}

func (h *routerHandlers) handleGetArena(w http.ResponseWriter, r *http.Request) {
	f := h.engine.Field()
	writeJSON(w, map[string]interface{}{
		"width":  f.Width(),
		"height": f.Height(),
		"rows":   f.Rows(),
	})
}

func (h *routerHandlers) handleGetArenaPNG(w http.ResponseWriter, r *http.Request) {
	data, err := h.minimap.PNG(h.engine.Snapshot())
	if err != nil {
		writeError(w, "render failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.Write(data)
}

func (h *routerHandlers) handleGetJoinQR(w http.ResponseWriter, r *http.Request) {
	if h.publicURL == "" {
		writeError(w, "public url not configured", http.StatusNotFound)
		return
	}

	size := defaultQRSize
	if s := r.URL.Query().Get("size"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 64 || n > maxQRSize {
			writeError(w, "size must be between 64 and 1024", http.StatusBadRequest)
			return
		}
		size = n
	}

	data, err := render.JoinQR(h.publicURL, size)
	if err != nil {
		writeError(w, "qr encode failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Write(data)
}

func (h *routerHandlers) handlePlayerJoin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "Invalid request", http.StatusBadRequest)
		return
	}

	if req.ID == "" {
		req.ID = uuid.NewString()
	}

	// Joins go through the queue so they are ordered with a pending leave
	done := make(chan command.JoinReply, 1)
	in := command.Inbound{
		Kind:     command.KindJoin,
		PlayerID: req.ID,
		Name:     SanitizeName(req.Name),
		Reply:    func(jr command.JoinReply) { done <- jr },
	}
	if !h.commands.Enqueue(in) {
		writeError(w, "command queue full", http.StatusServiceUnavailable)
		return
	}

	var reply command.JoinReply
	select {
	case reply = <-done:
	case <-r.Context().Done():
		return
	}

	switch reply.Result {
	case command.ArenaFull:
		writeError(w, "Player limit reached", http.StatusServiceUnavailable)
	case command.Respawning:
		writeError(w, "still respawning, try again", http.StatusConflict)
	default:
		writeJSON(w, reply.Player)
	}
}

func (h *routerHandlers) handlePlayerCommand(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID      string  `json:"id"`
		Command *string `json:"command"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "Invalid request", http.StatusBadRequest)
		return
	}
	if req.ID == "" {
		writeError(w, "id is required", http.StatusBadRequest)
		return
	}

	token := ""
	if req.Command != nil {
		token = *req.Command
	}
	if _, ok := command.Normalize(token); !ok {
		writeError(w, "unknown command", http.StatusBadRequest)
		return
	}
	if _, ok := h.engine.Player(req.ID); !ok {
		writeError(w, "player not found", http.StatusNotFound)
		return
	}

	if !h.commands.Enqueue(command.Inbound{Kind: command.KindCommand, PlayerID: req.ID, Token: token}) {
		writeError(w, "command queue full", http.StatusServiceUnavailable)
		return
	}
	writeJSONStatus(w, http.StatusAccepted, map[string]bool{"queued": true})
}

func (h *routerHandlers) handlePlayerLeave(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID string `json:"id"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ID == "" {
		writeError(w, "Invalid request", http.StatusBadRequest)
		return
	}
	if _, ok := h.engine.Player(req.ID); !ok {
		writeError(w, "player not found", http.StatusNotFound)
		return
	}

	if !h.commands.Enqueue(command.Inbound{Kind: command.KindLeave, PlayerID: req.ID}) {
		writeError(w, "command queue full", http.StatusServiceUnavailable)
		return
	}
	writeJSONStatus(w, http.StatusAccepted, map[string]bool{"queued": true})
}

func (h *routerHandlers) handleGetPlayer(w http.ResponseWriter, r *http.Request) {
	p, ok := h.engine.Player(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, "player not found", http.StatusNotFound)
		return
	}
	writeJSON(w, p)
}

// Helper functions (package-level for reuse)

func writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

func writeJSONStatus(w http.ResponseWriter, code int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, message string, code int) {
	writeJSONStatus(w, code, map[string]string{"error": message})
}
