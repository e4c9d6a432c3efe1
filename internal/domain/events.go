package domain

// Outbound event tags. These are the wire contract with the client; the
// per-phase timer updates carry distinct tags.
const (
	EventConnected             = "connected"
	EventLobbyCreated          = "lobbyCreated"
	EventLobbyJoined           = "lobbyJoined"
	EventError                 = "error"
	EventGameStarted           = "gameStarted"
	EventClueTimerUpdate       = "clueTimerUpdate"
	EventCluesSubmitted        = "cluesSubmitted"
	EventDiscussionPhase       = "discussionPhase"
	EventDiscussionTimerUpdate = "discussionTimerUpdate"
	EventVotingPhase           = "votingPhase"
	EventVotingTimerUpdate     = "votingTimerUpdate"
	EventRevealPhase           = "revealPhase"
	EventChat                  = "chat"
)

// ConnectedEvent acknowledges a connection and carries the resolved identity
type ConnectedEvent struct {
	Type     string `json:"type"`
	PlayerID string `json:"playerId"`
}

// NewConnectedEvent creates a connected event for the given identity
func NewConnectedEvent(playerID string) ConnectedEvent {
	return ConnectedEvent{Type: EventConnected, PlayerID: playerID}
}

// LobbyCreatedEvent is sent to the creator with the fresh lobby code
type LobbyCreatedEvent struct {
	Type      string       `json:"type"`
	LobbyCode string       `json:"lobbyCode"`
	Players   []PlayerInfo `json:"players"`
}

// NewLobbyCreatedEvent creates a lobbyCreated event
func NewLobbyCreatedEvent(code string, players []PlayerInfo) LobbyCreatedEvent {
	return LobbyCreatedEvent{Type: EventLobbyCreated, LobbyCode: code, Players: players}
}

// LobbyJoinedEvent carries the current roster; it doubles as the roster
// update broadcast on joins, disconnects and return-to-lobby resets
type LobbyJoinedEvent struct {
	Type      string       `json:"type"`
	LobbyCode string       `json:"lobbyCode"`
	Players   []PlayerInfo `json:"players"`
}

// NewLobbyJoinedEvent creates a lobbyJoined event
func NewLobbyJoinedEvent(code string, players []PlayerInfo) LobbyJoinedEvent {
	return LobbyJoinedEvent{Type: EventLobbyJoined, LobbyCode: code, Players: players}
}

// ErrorEvent reports a user-facing failure to the originating connection only
type ErrorEvent struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// NewErrorEvent creates an error event
func NewErrorEvent(message string) ErrorEvent {
	return ErrorEvent{Type: EventError, Message: message}
}

// GameStartedEvent is personalized per recipient with their secret word
type GameStartedEvent struct {
	Type  string `json:"type"`
	Word  string `json:"word"`
	Image string `json:"image"`
}

// NewGameStartedEvent creates a gameStarted event for one player
func NewGameStartedEvent(word, image string) GameStartedEvent {
	return GameStartedEvent{Type: EventGameStarted, Word: word, Image: image}
}

// TimerUpdateEvent broadcasts the remaining seconds of the active countdown
type TimerUpdateEvent struct {
	Type     string `json:"type"`
	TimeLeft int    `json:"timeLeft"`
}

// NewTimerUpdateEvent creates the timer update event for the given phase
func NewTimerUpdateEvent(phase Phase, timeLeft int) TimerUpdateEvent {
	tag := EventClueTimerUpdate
	switch phase {
	case PhaseDiscussion:
		tag = EventDiscussionTimerUpdate
	case PhaseVoting:
		tag = EventVotingTimerUpdate
	}
	return TimerUpdateEvent{Type: tag, TimeLeft: timeLeft}
}

// CluesSubmittedEvent carries every clue of the round once the clue phase ends
type CluesSubmittedEvent struct {
	Type  string `json:"type"`
	Clues []Clue `json:"clues"`
}

// NewCluesSubmittedEvent creates a cluesSubmitted event
func NewCluesSubmittedEvent(clues []Clue) CluesSubmittedEvent {
	return CluesSubmittedEvent{Type: EventCluesSubmitted, Clues: clues}
}

// DiscussionPhaseEvent announces the discussion phase and its duration
type DiscussionPhaseEvent struct {
	Type           string `json:"type"`
	DiscussionTime int    `json:"discussionTime"`
}

// NewDiscussionPhaseEvent creates a discussionPhase event
func NewDiscussionPhaseEvent(discussionTime int) DiscussionPhaseEvent {
	return DiscussionPhaseEvent{Type: EventDiscussionPhase, DiscussionTime: discussionTime}
}

// VotingPhaseEvent announces the voting phase with the candidate roster
type VotingPhaseEvent struct {
	Type       string       `json:"type"`
	Players    []PlayerInfo `json:"players"`
	VotingTime int          `json:"votingTime"`
}

// NewVotingPhaseEvent creates a votingPhase event
func NewVotingPhaseEvent(players []PlayerInfo, votingTime int) VotingPhaseEvent {
	return VotingPhaseEvent{Type: EventVotingPhase, Players: players, VotingTime: votingTime}
}

// RevealPhaseEvent carries the round outcome. VotedOut is null when nobody
// received a vote.
type RevealPhaseEvent struct {
	Type      string         `json:"type"`
	Impostor  PlayerReveal   `json:"impostor"`
	Players   []PlayerReveal `json:"players"`
	VotedOut  *string        `json:"votedOut"`
	WinStatus WinStatus      `json:"winStatus"`
}

// NewRevealPhaseEvent builds the reveal event from a tallied lobby
func NewRevealPhaseEvent(l *Lobby) RevealPhaseEvent {
	event := RevealPhaseEvent{
		Type:      EventRevealPhase,
		Players:   l.RevealRoster(),
		WinStatus: l.Outcome(),
	}
	if impostor := l.Impostor(); impostor != nil {
		event.Impostor = impostor.ToReveal()
	}
	if l.VotedOut != "" {
		votedOut := l.VotedOut
		event.VotedOut = &votedOut
	}
	return event
}

// ChatEvent broadcasts a chat line with the sender's display name
type ChatEvent struct {
	Type       string `json:"type"`
	PlayerName string `json:"playerName"`
	Message    string `json:"message"`
}

// NewChatEvent creates a chat event
func NewChatEvent(playerName, message string) ChatEvent {
	return ChatEvent{Type: EventChat, PlayerName: playerName, Message: message}
}
