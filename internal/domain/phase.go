package domain

// Phase represents the current phase of a lobby
type Phase string

const (
	PhaseLobby      Phase = "lobby"      // Waiting for players to join
	PhaseClue       Phase = "clue"       // Players submitting clues against the countdown
	PhaseDiscussion Phase = "discussion" // Open discussion of the submitted clues
	PhaseVoting     Phase = "voting"     // Everyone votes for a suspect
	PhaseReveal     Phase = "reveal"     // Show who was voted out and who the impostor was
)

// String returns the string representation of the phase
func (p Phase) String() string {
	return string(p)
}

// CanTransitionTo checks if a transition from current phase to target phase is valid.
// Returning to the lobby is allowed from every in-game phase; everything else
// moves strictly forward.
func (p Phase) CanTransitionTo(target Phase) bool {
	validTransitions := map[Phase][]Phase{
		PhaseLobby:      {PhaseClue},
		PhaseClue:       {PhaseDiscussion, PhaseLobby},
		PhaseDiscussion: {PhaseVoting, PhaseLobby},
		PhaseVoting:     {PhaseReveal, PhaseLobby},
		PhaseReveal:     {PhaseLobby},
	}

	allowed, ok := validTransitions[p]
	if !ok {
		return false
	}

	for _, phase := range allowed {
		if phase == target {
			return true
		}
	}
	return false
}
