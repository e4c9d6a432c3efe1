package domain

import "time"

// Player represents a member of a lobby. The identity survives disconnects;
// only Connected flips while the seat and any word assignment are kept.
type Player struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Connected  bool      `json:"connected"`
	Word       string    `json:"word,omitempty"`
	Image      string    `json:"image,omitempty"`
	IsImpostor bool      `json:"-"`
	JoinedAt   time.Time `json:"joinedAt"`
}

// NewPlayer creates a new connected player with the given identity and name
func NewPlayer(id, name string) *Player {
	return &Player{
		ID:        id,
		Name:      name,
		Connected: true,
		JoinedAt:  time.Now(),
	}
}

// ClearAssignment removes the word/image/impostor assignment for a fresh round
func (p *Player) ClearAssignment() {
	p.Word = ""
	p.Image = ""
	p.IsImpostor = false
}

// PlayerInfo is the roster view of a player broadcast to the whole lobby
type PlayerInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ToInfo converts a Player to its roster view
func (p *Player) ToInfo() PlayerInfo {
	return PlayerInfo{ID: p.ID, Name: p.Name}
}

// PlayerReveal is the end-of-round view of a player including their word
type PlayerReveal struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Word string `json:"word"`
}

// ToReveal converts a Player to its reveal view
func (p *Player) ToReveal() PlayerReveal {
	return PlayerReveal{ID: p.ID, Name: p.Name, Word: p.Word}
}
