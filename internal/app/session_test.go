package app

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/faru128/social-deduction-game/internal/domain"
)

// fakeConn is an in-memory ClientConnection capturing every event it is sent
type fakeConn struct {
	mu     sync.Mutex
	events []any
	closed bool
}

func (f *fakeConn) Send(event any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
	return nil
}

func (f *fakeConn) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeConn) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

// lastEvent returns the most recent event of type T received by the connection
func lastEvent[T any](f *fakeConn) (T, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.events) - 1; i >= 0; i-- {
		if event, ok := f.events[i].(T); ok {
			return event, true
		}
	}
	var zero T
	return zero, false
}

// countEvents returns how many events of type T the connection received
func countEvents[T any](f *fakeConn) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, event := range f.events {
		if _, ok := event.(T); ok {
			n++
		}
	}
	return n
}

// requireEvent asserts an event of type T has already been received
func requireEvent[T any](t *testing.T, f *fakeConn) T {
	t.Helper()
	event, ok := lastEvent[T](f)
	if !ok {
		var zero T
		t.Fatalf("expected a %T event, got none", zero)
	}
	return event
}

// waitForEvent polls until an event of type T arrives, for timer-driven paths
func waitForEvent[T any](t *testing.T, f *fakeConn, within time.Duration) T {
	t.Helper()
	deadline := time.Now().Add(within)
	for time.Now().Before(deadline) {
		if event, ok := lastEvent[T](f); ok {
			return event
		}
		time.Sleep(10 * time.Millisecond)
	}
	var zero T
	t.Fatalf("timed out waiting for a %T event", zero)
	return zero
}

// twoPlayerLobby creates a session with Ann (host, p1) and Bob (p2) joined
func twoPlayerLobby(t *testing.T, store *Store) (*Session, *fakeConn, *fakeConn) {
	t.Helper()
	session, err := store.Create()
	require.NoError(t, err)

	ann, bob := &fakeConn{}, &fakeConn{}
	require.NoError(t, session.Join("p1", "Ann", ann))
	require.NoError(t, session.Join("p2", "Bob", bob))
	return session, ann, bob
}

func TestSession_JoinBroadcastsRoster(t *testing.T) {
	store := newTestStore(t)
	_, ann, bob := twoPlayerLobby(t, store)

	for _, conn := range []*fakeConn{ann, bob} {
		joined := requireEvent[domain.LobbyJoinedEvent](t, conn)
		require.Len(t, joined.Players, 2)
		assert.Equal(t, "Ann", joined.Players[0].Name)
		assert.Equal(t, "Bob", joined.Players[1].Name)
	}
}

func TestSession_JoinRejectsStrangersMidGame(t *testing.T) {
	store := newTestStore(t)
	session, _, _ := twoPlayerLobby(t, store)
	require.NoError(t, session.Start("p1", 30, 60, 30))

	err := session.Join("p3", "Late", &fakeConn{})
	assert.ErrorIs(t, err, domain.ErrGameInProgress)

	// a returning member is always accepted
	assert.NoError(t, session.Join("p2", "Bob", &fakeConn{}))
}

func TestSession_StartGameValidation(t *testing.T) {
	store := newTestStore(t)
	session, _, _ := twoPlayerLobby(t, store)

	assert.ErrorIs(t, session.Start("p2", 30, 60, 30), domain.ErrNotHost)

	solo, err := store.Create()
	require.NoError(t, err)
	require.NoError(t, solo.Join("h1", "Solo", &fakeConn{}))
	assert.ErrorIs(t, solo.Start("h1", 30, 60, 30), domain.ErrInsufficientPlayers)
}

func TestSession_StartGameAssignsWordsPrivately(t *testing.T) {
	store := newTestStore(t)
	session, ann, bob := twoPlayerLobby(t, store)

	require.NoError(t, session.Start("p1", 30, 60, 30))

	annStart := requireEvent[domain.GameStartedEvent](t, ann)
	bobStart := requireEvent[domain.GameStartedEvent](t, bob)

	words := []string{annStart.Word, bobStart.Word}
	assert.ElementsMatch(t, []string{"dog", "cat"}, words,
		"one player gets the normal word, the other the impostor word")
	assert.Equal(t, domain.PhaseClue, session.Phase())
}

func TestSession_ClueQuorumAdvancesWithoutWaiting(t *testing.T) {
	store := newTestStore(t)
	session, ann, bob := twoPlayerLobby(t, store)
	require.NoError(t, session.Start("p1", 30, 60, 30))

	session.SubmitClue("p1", "barks a lot")
	assert.Equal(t, domain.PhaseClue, session.Phase())

	session.SubmitClue("p2", "has whiskers")

	// both submissions in, phase advanced immediately despite the 30s timer
	assert.Equal(t, domain.PhaseDiscussion, session.Phase())
	for _, conn := range []*fakeConn{ann, bob} {
		clues := requireEvent[domain.CluesSubmittedEvent](t, conn)
		require.Len(t, clues.Clues, 2)
		discussion := requireEvent[domain.DiscussionPhaseEvent](t, conn)
		assert.Equal(t, 60, discussion.DiscussionTime)
	}
}

func TestSession_DuplicateAndWrongPhaseCluesAreSilentNoOps(t *testing.T) {
	store := newTestStore(t)
	session, _, bob := twoPlayerLobby(t, store)

	// before the round starts
	session.SubmitClue("p1", "too early")
	assert.Equal(t, domain.PhaseLobby, session.Phase())

	require.NoError(t, session.Start("p1", 30, 60, 30))
	session.SubmitClue("p1", "first")
	session.SubmitClue("p1", "second try")

	// the duplicate neither advanced the phase nor produced an error event
	assert.Equal(t, domain.PhaseClue, session.Phase())
	_, gotErr := lastEvent[domain.ErrorEvent](bob)
	assert.False(t, gotErr)
}

func TestSession_DisconnectCompletesClueQuorum(t *testing.T) {
	store := newTestStore(t)
	session, ann, bob := twoPlayerLobby(t, store)
	require.NoError(t, session.Start("p1", 30, 60, 30))

	session.SubmitClue("p1", "barks")
	session.Disconnect("p2", bob)

	assert.Equal(t, domain.PhaseDiscussion, session.Phase())
	requireEvent[domain.CluesSubmittedEvent](t, ann)
}

func TestSession_ClueTimerExpiryFillsMissingClues(t *testing.T) {
	store := newTestStore(t)
	session, ann, _ := twoPlayerLobby(t, store)
	require.NoError(t, session.Start("p1", 1, 60, 30))

	// nobody submits; the countdown must fire the transition on its own
	clues := waitForEvent[domain.CluesSubmittedEvent](t, ann, 5*time.Second)
	require.Len(t, clues.Clues, 2)
	for _, clue := range clues.Clues {
		assert.Equal(t, domain.NoClueText, clue.Text)
	}
	assert.Equal(t, domain.PhaseDiscussion, session.Phase())
}

func TestSession_FullRound_ImpostorCaught(t *testing.T) {
	store := newTestStore(t)
	session, ann, bob := twoPlayerLobby(t, store)

	// clue quorum is immediate; the 1s discussion expires into voting
	require.NoError(t, session.Start("p1", 30, 1, 30))

	annStart := requireEvent[domain.GameStartedEvent](t, ann)
	impostorID := "p2"
	if annStart.Word == "cat" {
		impostorID = "p1"
	}

	session.SubmitClue("p1", "clue one")
	session.SubmitClue("p2", "clue two")

	voting := waitForEvent[domain.VotingPhaseEvent](t, ann, 5*time.Second)
	assert.Equal(t, 30, voting.VotingTime)
	require.Len(t, voting.Players, 2)

	require.NoError(t, session.SubmitVote("p1", impostorID))
	require.NoError(t, session.SubmitVote("p2", impostorID))

	for _, conn := range []*fakeConn{ann, bob} {
		reveal := requireEvent[domain.RevealPhaseEvent](t, conn)
		assert.Equal(t, domain.WinImpostorCaught, reveal.WinStatus)
		require.NotNil(t, reveal.VotedOut)
		assert.Equal(t, impostorID, *reveal.VotedOut)
		assert.Equal(t, impostorID, reveal.Impostor.ID)
		require.Len(t, reveal.Players, 2)
	}
	assert.Equal(t, domain.PhaseReveal, session.Phase())
}

func TestSession_InvalidVoteIsReported(t *testing.T) {
	store := newTestStore(t)
	session, ann, _ := twoPlayerLobby(t, store)
	require.NoError(t, session.Start("p1", 30, 1, 30))

	// a vote outside the voting phase is dropped without an error
	assert.NoError(t, session.SubmitVote("p1", "p2"))

	session.SubmitClue("p1", "one")
	session.SubmitClue("p2", "two")
	waitForEvent[domain.VotingPhaseEvent](t, ann, 5*time.Second)

	assert.ErrorIs(t, session.SubmitVote("p1", "nobody"), domain.ErrInvalidVote)
	assert.NoError(t, session.SubmitVote("p1", "p2"))
	assert.Equal(t, domain.PhaseVoting, session.Phase(), "one of two votes is no quorum")
}

func TestSession_DisconnectKeepsSeatWhileOthersRemain(t *testing.T) {
	store := newTestStore(t)
	session, ann, bob := twoPlayerLobby(t, store)
	code := session.Code()

	session.Disconnect("p2", bob)

	// the seat persists and the remaining member sees the roster update
	assert.Equal(t, 2, session.PlayerCount())
	assert.Equal(t, 1, session.ConnectedCount())
	joined := requireEvent[domain.LobbyJoinedEvent](t, ann)
	assert.Len(t, joined.Players, 2)

	_, err := store.Find(code)
	assert.NoError(t, err)
}

func TestSession_AllDisconnectedDestroysLobby(t *testing.T) {
	store := newTestStore(t)
	session, ann, bob := twoPlayerLobby(t, store)
	code := session.Code()

	session.Disconnect("p1", ann)
	session.Disconnect("p2", bob)

	_, err := store.Find(code)
	assert.ErrorIs(t, err, domain.ErrLobbyNotFound)
}

func TestSession_StaleConnectionCannotDisconnectReplacement(t *testing.T) {
	store := newTestStore(t)
	session, _, bob := twoPlayerLobby(t, store)

	// p2 reconnects on a fresh socket before the old one is torn down
	fresh := &fakeConn{}
	require.NoError(t, session.Join("p2", "Bob", fresh))

	// the old socket's delayed exit must not touch the replacement
	session.Disconnect("p2", bob)
	assert.Equal(t, 2, session.ConnectedCount())
	assert.False(t, fresh.isClosed())

	// the replacement's own exit still counts
	session.Disconnect("p2", fresh)
	assert.Equal(t, 1, session.ConnectedCount())
}

func TestSession_StaleDisconnectCannotDestroySoleMemberLobby(t *testing.T) {
	store := newTestStore(t)
	session, err := store.Create()
	require.NoError(t, err)
	code := session.Code()

	old := &fakeConn{}
	require.NoError(t, session.Join("p1", "Ann", old))

	fresh := &fakeConn{}
	require.NoError(t, session.Join("p1", "Ann", fresh))

	session.Disconnect("p1", old)

	found, err := store.Find(code)
	require.NoError(t, err, "lobby must survive a stale socket's exit")
	assert.Same(t, session, found)
	assert.Equal(t, 1, session.ConnectedCount())
	assert.False(t, fresh.isClosed())
}

func TestSession_ReturnToLobbyResetsRound(t *testing.T) {
	store := newTestStore(t)
	session, ann, _ := twoPlayerLobby(t, store)
	require.NoError(t, session.Start("p1", 30, 60, 30))

	session.ReturnToLobby("p2") // any member may trigger the reset

	assert.Equal(t, domain.PhaseLobby, session.Phase())
	joined := requireEvent[domain.LobbyJoinedEvent](t, ann)
	assert.Len(t, joined.Players, 2)

	// round state is gone; a stale clue is a silent no-op
	session.SubmitClue("p1", "stale")
	assert.Equal(t, domain.PhaseLobby, session.Phase())
}

func TestSession_ReconnectResyncsToCluePhase(t *testing.T) {
	store := newTestStore(t)
	session, _, bob := twoPlayerLobby(t, store)
	require.NoError(t, session.Start("p1", 30, 60, 30))

	bobStart := requireEvent[domain.GameStartedEvent](t, bob)
	session.Disconnect("p2", bob)

	rejoined := &fakeConn{}
	require.NoError(t, session.Join("p2", "Bob", rejoined))

	// full present-state parity: roster, the same word assignment and the countdown
	requireEvent[domain.LobbyJoinedEvent](t, rejoined)
	resync := requireEvent[domain.GameStartedEvent](t, rejoined)
	assert.Equal(t, bobStart.Word, resync.Word)
	assert.Equal(t, bobStart.Image, resync.Image)
	timer := requireEvent[domain.TimerUpdateEvent](t, rejoined)
	assert.LessOrEqual(t, timer.TimeLeft, 30)
}

func TestSession_ReconnectResyncsToRevealPhase(t *testing.T) {
	store := newTestStore(t)
	session, _, bob := twoPlayerLobby(t, store)
	require.NoError(t, session.Start("p1", 30, 1, 30))

	session.SubmitClue("p1", "one")
	session.SubmitClue("p2", "two")

	annAgain := &fakeConn{}
	require.NoError(t, session.Join("p1", "Ann", annAgain))
	waitForEvent[domain.VotingPhaseEvent](t, annAgain, 5*time.Second)

	require.NoError(t, session.SubmitVote("p1", "p2"))
	require.NoError(t, session.SubmitVote("p2", "p2"))

	session.Disconnect("p2", bob)
	rejoined := &fakeConn{}
	require.NoError(t, session.Join("p2", "Bob", rejoined))

	reveal := requireEvent[domain.RevealPhaseEvent](t, rejoined)
	require.NotNil(t, reveal.VotedOut)
	assert.Equal(t, "p2", *reveal.VotedOut)
}

func TestSession_ChatBroadcastsInAnyPhase(t *testing.T) {
	store := newTestStore(t)
	session, ann, bob := twoPlayerLobby(t, store)

	session.Chat("p1", "hello")
	for _, conn := range []*fakeConn{ann, bob} {
		chat := requireEvent[domain.ChatEvent](t, conn)
		assert.Equal(t, "Ann", chat.PlayerName)
		assert.Equal(t, "hello", chat.Message)
	}

	require.NoError(t, session.Start("p1", 30, 60, 30))
	session.Chat("p2", "mid-game")
	chat := requireEvent[domain.ChatEvent](t, ann)
	assert.Equal(t, "Bob", chat.PlayerName)

	session.Chat("ghost", "ignored")
	assert.Equal(t, 2, countEvents[domain.ChatEvent](ann))
}

func TestSession_ExpiryFiresAtMostOncePerPhase(t *testing.T) {
	store := newTestStore(t)
	session, ann, _ := twoPlayerLobby(t, store)
	require.NoError(t, session.Start("p1", 1, 60, 30))

	// quorum advances the phase just before the countdown would expire;
	// the stale timer must not fire a second transition
	session.SubmitClue("p1", "one")
	session.SubmitClue("p2", "two")
	require.Equal(t, domain.PhaseDiscussion, session.Phase())

	time.Sleep(2500 * time.Millisecond)
	assert.Equal(t, 1, countEvents[domain.CluesSubmittedEvent](ann))
	assert.Equal(t, domain.PhaseDiscussion, session.Phase())
}
