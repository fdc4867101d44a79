package handlers

import (
	"encoding/json"
	"net/http"
	"os"

	"github.com/go-chi/chi"
	"github.com/go-chi/jwtauth"

	"github.com/ChrisAtwell27/BobbyTheBot-sub004/internal/mafiasvc/service"
)

type Handler struct {
	tokenAuth *jwtauth.JWTAuth
	games     service.GameStore
	players   service.PlayerStore
	events    service.EventStore
}

func NewHandler(games service.GameStore, players service.PlayerStore, events service.EventStore) *Handler {
	return &Handler{
		games:   games,
		players: players,
		events:  events,
	}
}

type Response struct {
	Message string      `json:"message"`
	Code    int         `json:"code"`
	Data    interface{} `json:"data"`
	Error   string      `json:"error"`
}

func (rs *Handler) CreateResponse(w http.ResponseWriter, rsp Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(rsp.Code)

	json.NewEncoder(w).Encode(rsp)
}

func (h *Handler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	rsp := Response{
		Message: "mafia service is running at port " + os.Getenv("SERVICE_PORT"),
		Code:    200,
		Data:    nil,
	}
	json.NewEncoder(w).Encode(rsp)
}

// ListGamesHandler returns every pending or active game.
func (h *Handler) ListGamesHandler(w http.ResponseWriter, r *http.Request) {
	games, err := h.games.GetAllActiveGames(r.Context())
	if err != nil {
		h.CreateResponse(w, Response{Code: http.StatusInternalServerError, Error: err.Error()})
		return
	}

	h.CreateResponse(w, Response{Message: "active games", Code: http.StatusOK, Data: games})
}

// GetGameHandler returns one game with its players and recent events.
func (h *Handler) GetGameHandler(w http.ResponseWriter, r *http.Request) {
	gameID := chi.URLParam(r, "gameID")

	game, err := h.games.GetGame(r.Context(), gameID)
	if err != nil {
		h.CreateResponse(w, Response{Code: http.StatusInternalServerError, Error: err.Error()})
		return
	}
	if game == nil {
		h.CreateResponse(w, Response{Code: http.StatusNotFound, Error: "game not found"})
		return
	}

	players, err := h.players.GetPlayers(r.Context(), gameID)
	if err != nil {
		h.CreateResponse(w, Response{Code: http.StatusInternalServerError, Error: err.Error()})
		return
	}

	events, err := h.events.GetRecentEvents(r.Context(), gameID, 20)
	if err != nil {
		h.CreateResponse(w, Response{Code: http.StatusInternalServerError, Error: err.Error()})
		return
	}

	h.CreateResponse(w, Response{
		Message: "game detail",
		Code:    http.StatusOK,
		Data: map[string]interface{}{
			"game":    game,
			"players": players,
			"events":  events,
		},
	})
}
