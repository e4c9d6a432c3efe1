package domain

import (
	"strings"
	"time"
)

const (
	// MaxPlayers is the hard capacity cap per lobby
	MaxPlayers = 15

	// MinPlayers is the minimum roster size required to start a round
	MinPlayers = 2

	// Default phase durations in seconds, applied when the host omits them
	DefaultClueTime       = 30
	DefaultDiscussionTime = 60
	DefaultVotingTime     = 30

	// NoClueText is recorded for connected players who never submitted a clue
	NoClueText = "[No clue submitted]"
)

// Clue is a single submitted clue, keyed by the submitter's identity in the lobby
type Clue struct {
	PlayerName string `json:"playerName"`
	Text       string `json:"clue"`
}

// WinStatus is the outcome of a round
type WinStatus string

const (
	WinImpostorCaught  WinStatus = "impostor_caught"
	WinImpostorEscaped WinStatus = "impostor_escaped"
)

// Lobby is the per-session game state: roster, phase, collected clues and
// votes, and the current round's word assignment. It carries no locking of
// its own; all mutation is serialized by the owning session.
type Lobby struct {
	Code           string
	Players        []*Player // insertion order = join order
	HostID         string
	Phase          Phase
	ClueTime       int
	DiscussionTime int
	VotingTime     int
	SubmittedClues map[string]Clue   // identity -> clue, at most one per round
	Votes          map[string]string // voter identity -> target identity, "" = abstained
	ImpostorID     string
	VotedOut       string // "" until a tally elects someone
	CreatedAt      time.Time
}

// NewLobby creates an empty lobby with the given code
func NewLobby(code string) *Lobby {
	return &Lobby{
		Code:           code,
		Players:        make([]*Player, 0, MaxPlayers),
		Phase:          PhaseLobby,
		SubmittedClues: make(map[string]Clue),
		Votes:          make(map[string]string),
		CreatedAt:      time.Now(),
	}
}

// AddPlayer appends a new player to the roster. The first player to join
// becomes the host.
func (l *Lobby) AddPlayer(id, name string) (*Player, error) {
	if len(l.Players) >= MaxPlayers {
		return nil, ErrLobbyFull
	}

	player := NewPlayer(id, name)
	l.Players = append(l.Players, player)

	if l.HostID == "" {
		l.HostID = id
	}

	return player, nil
}

// FindPlayer returns the player with the given identity, or nil
func (l *Lobby) FindPlayer(id string) *Player {
	for _, p := range l.Players {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// IsHost checks if the given identity is the lobby host
func (l *Lobby) IsHost(id string) bool {
	return l.HostID == id
}

// ConnectedCount returns the number of currently connected players
func (l *Lobby) ConnectedCount() int {
	count := 0
	for _, p := range l.Players {
		if p.Connected {
			count++
		}
	}
	return count
}

// AllDisconnected reports whether no member has a live connection
func (l *Lobby) AllDisconnected() bool {
	return l.ConnectedCount() == 0
}

// Roster returns the broadcastable roster view in join order
func (l *Lobby) Roster() []PlayerInfo {
	players := make([]PlayerInfo, 0, len(l.Players))
	for _, p := range l.Players {
		players = append(players, p.ToInfo())
	}
	return players
}

// transition moves to the target phase, rejecting edges outside the allowed set
func (l *Lobby) transition(target Phase) error {
	if !l.Phase.CanTransitionTo(target) {
		return ErrInvalidTransition
	}
	l.Phase = target
	return nil
}

// StartRound assigns the word pair, marks the player at impostorIdx as the
// impostor and enters the clue phase. Clue and vote state is cleared at
// phase entry.
func (l *Lobby) StartRound(impostorIdx int, normal, impostor, normalImage, impostorImage string, clueTime, discussionTime, votingTime int) error {
	if len(l.Players) < MinPlayers {
		return ErrInsufficientPlayers
	}
	if err := l.transition(PhaseClue); err != nil {
		return err
	}

	if clueTime <= 0 {
		clueTime = DefaultClueTime
	}
	if discussionTime <= 0 {
		discussionTime = DefaultDiscussionTime
	}
	if votingTime <= 0 {
		votingTime = DefaultVotingTime
	}
	l.ClueTime = clueTime
	l.DiscussionTime = discussionTime
	l.VotingTime = votingTime

	for i, p := range l.Players {
		if i == impostorIdx {
			p.Word = impostor
			p.Image = impostorImage
			p.IsImpostor = true
			l.ImpostorID = p.ID
		} else {
			p.Word = normal
			p.Image = normalImage
			p.IsImpostor = false
		}
	}

	l.SubmittedClues = make(map[string]Clue)
	l.Votes = make(map[string]string)
	l.VotedOut = ""

	return nil
}

// SubmitClue records a clue for the given identity, at most once per round
func (l *Lobby) SubmitClue(id, text string) error {
	if l.Phase != PhaseClue {
		return ErrWrongPhase
	}
	player := l.FindPlayer(id)
	if player == nil {
		return ErrPlayerNotFound
	}
	if _, ok := l.SubmittedClues[id]; ok {
		return ErrAlreadySubmitted
	}

	l.SubmittedClues[id] = Clue{
		PlayerName: player.Name,
		Text:       strings.TrimSpace(text),
	}
	return nil
}

// ClueQuorum reports whether every currently connected player has submitted.
// A disconnect can satisfy the quorum without any new submission.
func (l *Lobby) ClueQuorum() bool {
	return len(l.SubmittedClues) >= l.ConnectedCount()
}

// FillMissingClues records a placeholder for every connected player who
// never submitted, so the discussion roster is complete
func (l *Lobby) FillMissingClues() {
	for _, p := range l.Players {
		if _, ok := l.SubmittedClues[p.ID]; !ok && p.Connected {
			l.SubmittedClues[p.ID] = Clue{PlayerName: p.Name, Text: NoClueText}
		}
	}
}

// CluesInOrder returns the submitted clues in roster join order
func (l *Lobby) CluesInOrder() []Clue {
	clues := make([]Clue, 0, len(l.SubmittedClues))
	for _, p := range l.Players {
		if clue, ok := l.SubmittedClues[p.ID]; ok {
			clues = append(clues, clue)
		}
	}
	return clues
}

// StartDiscussion enters the discussion phase
func (l *Lobby) StartDiscussion() error {
	return l.transition(PhaseDiscussion)
}

// StartVoting enters the voting phase, clearing any previous votes
func (l *Lobby) StartVoting() error {
	if err := l.transition(PhaseVoting); err != nil {
		return err
	}
	l.Votes = make(map[string]string)
	l.VotedOut = ""
	return nil
}

// CastVote records a vote. A later vote from the same identity overwrites
// the earlier one.
func (l *Lobby) CastVote(voterID, targetID string) error {
	if l.Phase != PhaseVoting {
		return ErrWrongPhase
	}
	if l.FindPlayer(voterID) == nil {
		return ErrPlayerNotFound
	}
	if l.FindPlayer(targetID) == nil {
		return ErrInvalidVote
	}

	l.Votes[voterID] = targetID
	return nil
}

// VoteQuorum reports whether every currently connected player has voted
func (l *Lobby) VoteQuorum() bool {
	return len(l.Votes) >= l.ConnectedCount()
}

// Tally finalizes the vote: connected players who never voted are recorded
// as abstentions, non-abstain votes are counted per target and the strict
// maximum wins. Ties are broken in favor of the earliest-joined tied
// target. Calling Tally again on the same vote set yields the same result.
func (l *Lobby) Tally() {
	for _, p := range l.Players {
		if _, ok := l.Votes[p.ID]; !ok && p.Connected {
			l.Votes[p.ID] = ""
		}
	}

	counts := make(map[string]int)
	for _, target := range l.Votes {
		if target != "" {
			counts[target]++
		}
	}

	votedOut := ""
	maxVotes := 0
	for _, p := range l.Players {
		if counts[p.ID] > maxVotes {
			maxVotes = counts[p.ID]
			votedOut = p.ID
		}
	}

	l.VotedOut = votedOut
}

// EnterReveal enters the reveal phase
func (l *Lobby) EnterReveal() error {
	return l.transition(PhaseReveal)
}

// Outcome returns the round result after a tally: the innocents win exactly
// when the voted-out player is the impostor
func (l *Lobby) Outcome() WinStatus {
	if l.VotedOut != "" && l.VotedOut == l.ImpostorID {
		return WinImpostorCaught
	}
	return WinImpostorEscaped
}

// Impostor returns the impostor's player record, or nil before a round starts
func (l *Lobby) Impostor() *Player {
	if l.ImpostorID == "" {
		return nil
	}
	return l.FindPlayer(l.ImpostorID)
}

// RevealRoster returns every player with their assigned word, in join order
func (l *Lobby) RevealRoster() []PlayerReveal {
	players := make([]PlayerReveal, 0, len(l.Players))
	for _, p := range l.Players {
		players = append(players, p.ToReveal())
	}
	return players
}

// ResetToLobby returns the lobby to the waiting phase, clearing clues,
// votes, word assignments and the round outcome
func (l *Lobby) ResetToLobby() {
	l.Phase = PhaseLobby
	l.SubmittedClues = make(map[string]Clue)
	l.Votes = make(map[string]string)
	l.ImpostorID = ""
	l.VotedOut = ""
	for _, p := range l.Players {
		p.ClearAssignment()
	}
}
