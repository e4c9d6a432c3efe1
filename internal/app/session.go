package app

import (
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/faru128/social-deduction-game/internal/content"
	"github.com/faru128/social-deduction-game/internal/domain"
)

// ClientConnection is the transport channel to one connected player.
// Implementations must never block the caller; a send that cannot be
// delivered is dropped and the disconnect path is the corrective signal.
type ClientConnection interface {
	Send(event any) error
	Close() error
}

// Session wraps one lobby with concurrency control, the live connections of
// its members and the phase countdown. Every mutation of the lobby state is
// serialized through the session mutex, so clue submissions, votes,
// disconnects and timer expiries can race without double-firing a phase
// transition.
type Session struct {
	mu      sync.Mutex
	lobby   *domain.Lobby
	clients map[string]ClientConnection // identity -> live connection
	timer   *phaseTimer
	words   content.Source
	logger  *slog.Logger
	onEmpty func(code string)
	closed  bool
}

// NewSession creates a session around a lobby. onEmpty is invoked (outside
// the session lock) when the last connected member drops.
func NewSession(lobby *domain.Lobby, words content.Source, logger *slog.Logger, onEmpty func(code string)) *Session {
	return &Session{
		lobby:   lobby,
		clients: make(map[string]ClientConnection),
		words:   words,
		logger:  logger,
		onEmpty: onEmpty,
	}
}

// Code returns the lobby code
func (s *Session) Code() string {
	return s.lobby.Code
}

// CreatedAt returns when the lobby was created
func (s *Session) CreatedAt() time.Time {
	return s.lobby.CreatedAt
}

// Phase returns the current phase
func (s *Session) Phase() domain.Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lobby.Phase
}

// PlayerCount returns the roster size, connected or not
func (s *Session) PlayerCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.lobby.Players)
}

// ConnectedCount returns the number of currently connected members
func (s *Session) ConnectedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lobby.ConnectedCount()
}

// CanJoin reports whether a brand-new player could join right now
func (s *Session) CanJoin() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lobby.Phase == domain.PhaseLobby && len(s.lobby.Players) < domain.MaxPlayers
}

// Roster returns the current roster view in join order
func (s *Session) Roster() []domain.PlayerInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lobby.Roster()
}

// MemberName returns the stored display name for a member identity
func (s *Session) MemberName(id string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	player := s.lobby.FindPlayer(id)
	if player == nil {
		return "", false
	}
	return player.Name, true
}

// Join adds a player to the lobby or re-attaches a returning member.
// Reconnecting members are accepted in any phase and brought to full
// present-state parity; new players are only admitted while the lobby
// waits. The updated roster is broadcast to everyone connected.
func (s *Session) Join(id, name string, conn ClientConnection) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return domain.ErrLobbyNotFound
	}

	if player := s.lobby.FindPlayer(id); player != nil {
		player.Name = name
		player.Connected = true
		s.clients[id] = conn
		s.logger.Info("player reconnected", "lobbyCode", s.lobby.Code, "playerID", id, "name", name)
		s.broadcastLocked(domain.NewLobbyJoinedEvent(s.lobby.Code, s.lobby.Roster()))
		if s.lobby.Phase != domain.PhaseLobby {
			s.resyncLocked(player)
		}
		return nil
	}

	if s.lobby.Phase != domain.PhaseLobby {
		return domain.ErrGameInProgress
	}
	if _, err := s.lobby.AddPlayer(id, name); err != nil {
		return err
	}
	s.clients[id] = conn

	s.logger.Info("player joined", "lobbyCode", s.lobby.Code, "playerID", id, "name", name)
	s.broadcastLocked(domain.NewLobbyJoinedEvent(s.lobby.Code, s.lobby.Roster()))
	return nil
}

// Start begins a round: draws a word pair, picks the impostor uniformly at
// random, privately delivers each player their word and starts the clue
// countdown. Host only.
func (s *Session) Start(id string, clueTime, discussionTime, votingTime int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.lobby.IsHost(id) {
		return domain.ErrNotHost
	}

	pair := s.words.RandomPair()
	impostorIdx := rand.Intn(len(s.lobby.Players))
	err := s.lobby.StartRound(impostorIdx,
		pair.Normal, pair.Impostor, pair.NormalImage, pair.ImpostorImage,
		clueTime, discussionTime, votingTime)
	if err != nil {
		return err
	}

	for _, p := range s.lobby.Players {
		s.sendToLocked(p.ID, domain.NewGameStartedEvent(p.Word, p.Image))
	}

	s.logger.Info("game started",
		"lobbyCode", s.lobby.Code,
		"players", len(s.lobby.Players),
		"clueTime", s.lobby.ClueTime,
	)
	s.startTimer(domain.PhaseClue, s.lobby.ClueTime)
	return nil
}

// SubmitClue records a clue. Wrong-phase and duplicate submissions are
// silent no-ops for the submitter; they are only logged. When every
// connected player has submitted, the clue phase ends without waiting for
// the countdown.
func (s *Session) SubmitClue(id, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.lobby.SubmitClue(id, text); err != nil {
		s.logger.Debug("clue rejected", "lobbyCode", s.lobby.Code, "playerID", id, "reason", err)
		return
	}

	s.logger.Debug("clue submitted", "lobbyCode", s.lobby.Code, "playerID", id)
	if s.lobby.ClueQuorum() {
		s.endCluePhaseLocked()
	}
}

// SubmitVote records a vote; a later vote from the same player overwrites
// the earlier one. An unknown target is reported back to the voter. When
// every connected player has voted, the tally runs immediately.
func (s *Session) SubmitVote(id, targetID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.lobby.CastVote(id, targetID)
	switch err {
	case nil:
	case domain.ErrInvalidVote:
		return err
	default:
		s.logger.Debug("vote rejected", "lobbyCode", s.lobby.Code, "playerID", id, "reason", err)
		return nil
	}

	s.logger.Debug("vote submitted", "lobbyCode", s.lobby.Code, "playerID", id)
	if s.lobby.VoteQuorum() {
		s.endVotingLocked()
	}
	return nil
}

// Chat broadcasts a chat line from a member to everyone connected,
// regardless of phase
func (s *Session) Chat(id, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	player := s.lobby.FindPlayer(id)
	if player == nil {
		return
	}
	s.broadcastLocked(domain.NewChatEvent(player.Name, message))
}

// ReturnToLobby resets the session to the waiting phase. Any member may
// trigger it at any phase; the in-flight countdown is cancelled.
func (s *Session) ReturnToLobby(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.lobby.FindPlayer(id) == nil {
		return
	}

	s.stopTimerLocked()
	s.lobby.ResetToLobby()
	s.logger.Info("returned to lobby", "lobbyCode", s.lobby.Code)
	s.broadcastLocked(domain.NewLobbyJoinedEvent(s.lobby.Code, s.lobby.Roster()))
}

// Disconnect marks a member as gone while keeping their seat and round
// state. conn must be the connection being torn down: a stale socket whose
// member already reconnected on a replacement no-ops here, so only the live
// connection's exit can flip the member offline. When the last connected
// member drops the session destroys itself; otherwise the remaining members
// get a roster update and, in a quorum phase, the disconnect itself may
// complete the quorum.
func (s *Session) Disconnect(id string, conn ClientConnection) {
	s.mu.Lock()

	player := s.lobby.FindPlayer(id)
	if player == nil || s.closed || s.clients[id] != conn {
		s.mu.Unlock()
		return
	}

	player.Connected = false
	delete(s.clients, id)
	s.logger.Info("player disconnected", "lobbyCode", s.lobby.Code, "playerID", id, "name", player.Name)

	if s.lobby.AllDisconnected() {
		code := s.lobby.Code
		onEmpty := s.onEmpty
		s.closeLocked()
		s.mu.Unlock()
		if onEmpty != nil {
			onEmpty(code)
		}
		return
	}

	s.broadcastLocked(domain.NewLobbyJoinedEvent(s.lobby.Code, s.lobby.Roster()))

	switch s.lobby.Phase {
	case domain.PhaseClue:
		if s.lobby.ClueQuorum() {
			s.endCluePhaseLocked()
		}
	case domain.PhaseVoting:
		if s.lobby.VoteQuorum() {
			s.endVotingLocked()
		}
	}
	s.mu.Unlock()
}

// endCluePhaseLocked closes the clue phase: placeholders for missing clues,
// the full clue list to everyone, then on to discussion. Reached by quorum,
// by a quorum-completing disconnect or by countdown expiry, never twice.
// Caller must hold the session lock.
func (s *Session) endCluePhaseLocked() {
	s.stopTimerLocked()
	s.lobby.FillMissingClues()
	s.broadcastLocked(domain.NewCluesSubmittedEvent(s.lobby.CluesInOrder()))

	if err := s.lobby.StartDiscussion(); err != nil {
		s.logger.Error("failed to enter discussion", "lobbyCode", s.lobby.Code, "error", err)
		return
	}
	s.broadcastLocked(domain.NewDiscussionPhaseEvent(s.lobby.DiscussionTime))
	s.startTimer(domain.PhaseDiscussion, s.lobby.DiscussionTime)
}

// startVotingLocked opens the voting phase with a fresh ballot. Caller must
// hold the session lock.
func (s *Session) startVotingLocked() {
	s.stopTimerLocked()
	if err := s.lobby.StartVoting(); err != nil {
		s.logger.Error("failed to enter voting", "lobbyCode", s.lobby.Code, "error", err)
		return
	}
	s.broadcastLocked(domain.NewVotingPhaseEvent(s.lobby.Roster(), s.lobby.VotingTime))
	s.startTimer(domain.PhaseVoting, s.lobby.VotingTime)
}

// endVotingLocked tallies the ballot exactly once and reveals the outcome.
// Caller must hold the session lock.
func (s *Session) endVotingLocked() {
	s.stopTimerLocked()
	s.lobby.Tally()
	if err := s.lobby.EnterReveal(); err != nil {
		s.logger.Error("failed to enter reveal", "lobbyCode", s.lobby.Code, "error", err)
		return
	}

	s.logger.Info("round over",
		"lobbyCode", s.lobby.Code,
		"votedOut", s.lobby.VotedOut,
		"winStatus", s.lobby.Outcome(),
	)
	s.broadcastLocked(domain.NewRevealPhaseEvent(s.lobby))
}

// resyncLocked replays the events a reconnecting player needs to reach
// present-state parity with the lobby's current phase. Caller must hold the
// session lock.
func (s *Session) resyncLocked(player *domain.Player) {
	switch s.lobby.Phase {
	case domain.PhaseClue:
		s.sendToLocked(player.ID, domain.NewGameStartedEvent(player.Word, player.Image))
		s.sendToLocked(player.ID, domain.NewTimerUpdateEvent(domain.PhaseClue, s.timeLeftLocked(s.lobby.ClueTime)))
	case domain.PhaseDiscussion:
		s.sendToLocked(player.ID, domain.NewGameStartedEvent(player.Word, player.Image))
		s.sendToLocked(player.ID, domain.NewCluesSubmittedEvent(s.lobby.CluesInOrder()))
		s.sendToLocked(player.ID, domain.NewDiscussionPhaseEvent(s.lobby.DiscussionTime))
		s.sendToLocked(player.ID, domain.NewTimerUpdateEvent(domain.PhaseDiscussion, s.timeLeftLocked(s.lobby.DiscussionTime)))
	case domain.PhaseVoting:
		s.sendToLocked(player.ID, domain.NewGameStartedEvent(player.Word, player.Image))
		s.sendToLocked(player.ID, domain.NewCluesSubmittedEvent(s.lobby.CluesInOrder()))
		s.sendToLocked(player.ID, domain.NewVotingPhaseEvent(s.lobby.Roster(), s.lobby.VotingTime))
		s.sendToLocked(player.ID, domain.NewTimerUpdateEvent(domain.PhaseVoting, s.timeLeftLocked(s.lobby.VotingTime)))
	case domain.PhaseReveal:
		s.sendToLocked(player.ID, domain.NewRevealPhaseEvent(s.lobby))
	}
}

// broadcastLocked fans an event out to every connected member. Sends are
// fire-and-forget; a failed send is only logged. Caller must hold the
// session lock.
func (s *Session) broadcastLocked(event any) {
	for id, conn := range s.clients {
		if err := conn.Send(event); err != nil {
			s.logger.Debug("failed to send to client", "lobbyCode", s.lobby.Code, "playerID", id, "error", err)
		}
	}
}

// sendToLocked delivers an event to a single member, if connected. Caller
// must hold the session lock.
func (s *Session) sendToLocked(id string, event any) {
	conn, ok := s.clients[id]
	if !ok {
		return
	}
	if err := conn.Send(event); err != nil {
		s.logger.Debug("failed to send to client", "lobbyCode", s.lobby.Code, "playerID", id, "error", err)
	}
}

// Close shuts down the session: the countdown stops and every connection is
// closed. Idempotent.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closeLocked()
}

// closeLocked is Close without taking the lock. Caller must hold it.
func (s *Session) closeLocked() {
	if s.closed {
		return
	}
	s.closed = true
	s.stopTimerLocked()
	for _, conn := range s.clients {
		conn.Close()
	}
	s.clients = make(map[string]ClientConnection)
}
