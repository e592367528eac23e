package mockserver

import (
	"encoding/json"
	"net/http"
	"strconv"
	"sync"

	"game-line/internal/gameserver"
)

// Seed data served by NewSeededGameServer
const (
	RoomCode      = "1234"
	RoomSessionId = "1"
	CurrentTurn   = 1
)

type Join struct {
	RoomCode string
	UserId   string
}

type session struct {
	turn     int
	commands []gameserver.Command
}

// GameServer is an in-memory Game Server speaking the same JSON API as the
// real one.
type GameServer struct {
	mu sync.Mutex

	users        map[string]*gameserver.UserStatus
	displayNames map[string]string
	rooms        map[string]bool
	sessions     map[string]*session
	joins        []Join

	mux *http.ServeMux
}

func NewGameServer() *GameServer {
	g := &GameServer{
		users:        map[string]*gameserver.UserStatus{},
		displayNames: map[string]string{},
		rooms:        map[string]bool{},
		sessions:     map[string]*session{},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/users", g.registerUser)
	mux.HandleFunc("GET /api/users/{userId}/status", g.userStatus)
	mux.HandleFunc("POST /api/users/{userId}/invalidate", g.invalidateUser)
	mux.HandleFunc("POST /api/rooms/{roomCode}/members", g.joinRoom)
	mux.HandleFunc("POST /api/sessions/{roomSessionId}/commands", g.submitCommands)
	g.mux = mux

	return g
}

// NewSeededGameServer opens RoomCode and starts RoomSessionId at CurrentTurn.
func NewSeededGameServer() *GameServer {
	g := NewGameServer()
	g.OpenRoom(RoomCode)
	g.StartSession(RoomSessionId, CurrentTurn)
	return g
}

func (g *GameServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	g.mux.ServeHTTP(w, r)
}

func (g *GameServer) AddUser(status gameserver.UserStatus, displayName string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.users[status.UserId] = &status
	g.displayNames[status.UserId] = displayName
}

func (g *GameServer) OpenRoom(roomCode string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.rooms[roomCode] = true
}

func (g *GameServer) StartSession(roomSessionId string, turn int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.sessions[roomSessionId] = &session{turn: turn}
}

func (g *GameServer) User(userId string) (gameserver.UserStatus, string, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	status, ok := g.users[userId]
	if !ok {
		return gameserver.UserStatus{}, "", false
	}
	return *status, g.displayNames[userId], true
}

func (g *GameServer) Joins() []Join {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]Join(nil), g.joins...)
}

// Commands returns the commands accepted for a session.
func (g *GameServer) Commands(roomSessionId string) []gameserver.Command {
	g.mu.Lock()
	defer g.mu.Unlock()
	s, ok := g.sessions[roomSessionId]
	if !ok {
		return nil
	}
	return append([]gameserver.Command(nil), s.commands...)
}

func (g *GameServer) registerUser(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserId      string `json:"userId"`
		DisplayName string `json:"displayName"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UserId == "" {
		writeError(w, http.StatusBadRequest, "userId is required")
		return
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	// Following again revives an invalidated user
	status, ok := g.users[req.UserId]
	if !ok {
		status = &gameserver.UserStatus{UserId: req.UserId}
		g.users[req.UserId] = status
	}
	status.InvalidateFlg = false
	g.displayNames[req.UserId] = req.DisplayName

	writeJSON(w, http.StatusCreated, status)
}

func (g *GameServer) userStatus(w http.ResponseWriter, r *http.Request) {
	g.mu.Lock()
	defer g.mu.Unlock()

	status, ok := g.users[r.PathValue("userId")]
	if !ok {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}
	writeJSON(w, http.StatusOK, status)
}

func (g *GameServer) invalidateUser(w http.ResponseWriter, r *http.Request) {
	g.mu.Lock()
	defer g.mu.Unlock()

	status, ok := g.users[r.PathValue("userId")]
	if !ok {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}
	status.InvalidateFlg = true
	status.IsParticipating = false
	writeJSON(w, http.StatusOK, status)
}

func (g *GameServer) joinRoom(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserId string `json:"userId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UserId == "" {
		writeError(w, http.StatusBadRequest, "userId is required")
		return
	}
	roomCode := r.PathValue("roomCode")

	g.mu.Lock()
	defer g.mu.Unlock()

	g.joins = append(g.joins, Join{RoomCode: roomCode, UserId: req.UserId})
	if !g.rooms[roomCode] {
		writeError(w, http.StatusNotFound, "room not found")
		return
	}
	status, ok := g.users[req.UserId]
	if !ok {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}
	status.IsParticipating = true
	w.WriteHeader(http.StatusNoContent)
}

func (g *GameServer) submitCommands(w http.ResponseWriter, r *http.Request) {
	roomSessionId, err := strconv.Atoi(r.PathValue("roomSessionId"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "roomSessionId must be numeric")
		return
	}

	var req gameserver.CommandRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid command request")
		return
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	s, ok := g.sessions[r.PathValue("roomSessionId")]
	if !ok {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}

	result := gameserver.CommandResult{RoomSessionId: roomSessionId}
	if req.Turn == s.turn {
		s.commands = append(s.commands, req.Commands...)
		result.CommandsCount = len(req.Commands)
		result.IsValid = true
	}
	writeJSON(w, http.StatusOK, result)
}

func writeJSON(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{"message": message})
}
