package ws

// MessageType represents the type of an inbound client message
type MessageType string

// Client → Server message types
const (
	MsgReconnect     MessageType = "reconnect"
	MsgCreateLobby   MessageType = "createLobby"
	MsgJoinLobby     MessageType = "joinLobby"
	MsgStartGame     MessageType = "startGame"
	MsgSubmitClue    MessageType = "submitClue"
	MsgChat          MessageType = "chat"
	MsgSubmitVote    MessageType = "submitVote"
	MsgReturnToLobby MessageType = "returnToLobby"
)

// ClientMessage is the single inbound envelope; which fields are meaningful
// depends on Type. Unknown fields are ignored.
type ClientMessage struct {
	Type MessageType `json:"type"`

	// reconnect; PlayerID also doubles as the optional identity claim on
	// createLobby/joinLobby
	PlayerID   string `json:"playerId,omitempty"`
	PlayerName string `json:"playerName,omitempty"`

	// createLobby / joinLobby
	Name      string `json:"name,omitempty"`
	LobbyCode string `json:"lobbyCode,omitempty"`

	// startGame, seconds; zero means the server default
	ClueTime       int `json:"clueTime,omitempty"`
	DiscussionTime int `json:"discussionTime,omitempty"`
	VotingTime     int `json:"votingTime,omitempty"`

	// submitClue
	Clue string `json:"clue,omitempty"`

	// chat
	Message string `json:"message,omitempty"`

	// submitVote, target player identity
	Vote string `json:"vote,omitempty"`
}
