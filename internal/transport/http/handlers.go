package http

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/skip2/go-qrcode"

	"github.com/faru128/social-deduction-game/internal/app"
)

// Response is a standard API response
type Response struct {
	Success bool       `json:"success"`
	Data    any        `json:"data,omitempty"`
	Error   *ErrorInfo `json:"error,omitempty"`
}

// ErrorInfo contains error details
type ErrorInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// CreateRoomResponse is the response for room creation
type CreateRoomResponse struct {
	LobbyCode  string `json:"lobbyCode"`
	InviteLink string `json:"inviteLink"`
}

// GetRoomResponse is the response for getting room info
type GetRoomResponse struct {
	LobbyCode   string `json:"lobbyCode"`
	PlayerCount int    `json:"playerCount"`
	Phase       string `json:"phase"`
	CanJoin     bool   `json:"canJoin"`
}

// RoomExistsResponse is the response for checking if a room exists
type RoomExistsResponse struct {
	Exists bool `json:"exists"`
}

// HealthResponse is the response for health check
type HealthResponse struct {
	Status string `json:"status"`
}

// StatsResponse is the response for the stats endpoint
type StatsResponse struct {
	ActiveLobbies int `json:"activeLobbies"`
	TotalPlayers  int `json:"totalPlayers"`
}

// handleCreateRoom handles POST /api/rooms. It pre-creates a lobby code for
// link sharing; the first player to join over the socket becomes host.
func (s *Server) handleCreateRoom(w http.ResponseWriter, r *http.Request) {
	session, err := s.store.Create()
	if err != nil {
		s.sendError(w, http.StatusInternalServerError, "CREATION_FAILED", "Failed to create room")
		return
	}

	s.sendSuccess(w, &CreateRoomResponse{
		LobbyCode:  session.Code(),
		InviteLink: s.inviteLink(r, session.Code()),
	})
}

// handleGetRoom handles GET /api/rooms/{lobbyCode}
func (s *Server) handleGetRoom(w http.ResponseWriter, r *http.Request) {
	session, ok := s.findRoom(w, r)
	if !ok {
		return
	}

	s.sendSuccess(w, &GetRoomResponse{
		LobbyCode:   session.Code(),
		PlayerCount: session.PlayerCount(),
		Phase:       session.Phase().String(),
		CanJoin:     session.CanJoin(),
	})
}

// handleRoomExists handles GET /api/rooms/{lobbyCode}/exists
func (s *Server) handleRoomExists(w http.ResponseWriter, r *http.Request) {
	code := strings.ToUpper(r.PathValue("lobbyCode"))
	_, err := s.store.Find(code)

	s.sendSuccess(w, &RoomExistsResponse{
		Exists: err == nil,
	})
}

// handleRoomQR handles GET /api/rooms/{lobbyCode}/qr, serving a QR code of
// the invite link as a PNG
func (s *Server) handleRoomQR(w http.ResponseWriter, r *http.Request) {
	session, ok := s.findRoom(w, r)
	if !ok {
		return
	}

	png, err := qrcode.Encode(s.inviteLink(r, session.Code()), qrcode.Medium, 256)
	if err != nil {
		s.sendError(w, http.StatusInternalServerError, "QR_FAILED", "Failed to render QR code")
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Write(png)
}

// handleHealth handles GET /api/health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.sendSuccess(w, &HealthResponse{
		Status: "ok",
	})
}

// handleStats handles GET /api/stats
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	s.sendSuccess(w, &StatsResponse{
		ActiveLobbies: s.store.Count(),
		TotalPlayers:  s.store.TotalPlayerCount(),
	})
}

// findRoom resolves the lobbyCode path value, writing the error response on
// failure
func (s *Server) findRoom(w http.ResponseWriter, r *http.Request) (*app.Session, bool) {
	code := r.PathValue("lobbyCode")
	if code == "" {
		s.sendError(w, http.StatusBadRequest, "MISSING_LOBBY_CODE", "Lobby code is required")
		return nil, false
	}

	found, err := s.store.Find(strings.ToUpper(code))
	if err != nil {
		s.sendError(w, http.StatusNotFound, "LOBBY_NOT_FOUND", "Lobby not found")
		return nil, false
	}
	return found, true
}

// inviteLink builds the join link clients share for a lobby
func (s *Server) inviteLink(r *http.Request, code string) string {
	scheme := "http"
	if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
		scheme = "https"
	}
	return scheme + "://" + r.Host + "/?code=" + code
}

// sendSuccess sends a successful JSON response
func (s *Server) sendSuccess(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(&Response{
		Success: true,
		Data:    data,
	})
}

// sendError sends an error JSON response
func (s *Server) sendError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(&Response{
		Success: false,
		Error: &ErrorInfo{
			Code:    code,
			Message: message,
		},
	})
}
