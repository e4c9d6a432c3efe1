package app

import (
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/faru128/social-deduction-game/internal/content"
	"github.com/faru128/social-deduction-game/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testSource() content.Source {
	return content.NewStaticSource([]content.WordPair{
		{Normal: "dog", Impostor: "cat", NormalImage: "dog.png", ImpostorImage: "cat.png"},
	})
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store := NewStore(testSource(), DefaultLobbyCodeLength, time.Hour, testLogger())
	t.Cleanup(store.Close)
	return store
}

func TestStore_CreateAndFind(t *testing.T) {
	store := newTestStore(t)

	session, err := store.Create()
	require.NoError(t, err)

	code := session.Code()
	assert.Len(t, code, DefaultLobbyCodeLength)
	for _, r := range code {
		assert.True(t, strings.ContainsRune(LobbyCodeChars, r), "unexpected code char %q", r)
	}

	found, err := store.Find(code)
	require.NoError(t, err)
	assert.Same(t, session, found, "find returns the same session until deletion")

	_, err = store.Find("ZZZZZ")
	assert.ErrorIs(t, err, domain.ErrLobbyNotFound)
}

func TestStore_RemoveIsIdempotent(t *testing.T) {
	store := newTestStore(t)

	session, err := store.Create()
	require.NoError(t, err)
	code := session.Code()

	store.Remove(code)
	_, err = store.Find(code)
	assert.ErrorIs(t, err, domain.ErrLobbyNotFound)

	store.Remove(code) // no-op
	assert.Equal(t, 0, store.Count())
}

func TestStore_FindByMember(t *testing.T) {
	store := newTestStore(t)

	session, err := store.Create()
	require.NoError(t, err)
	require.NoError(t, session.Join("p1", "Ann", &fakeConn{}))

	found, ok := store.FindByMember("p1")
	require.True(t, ok)
	assert.Same(t, session, found)

	_, ok = store.FindByMember("stranger")
	assert.False(t, ok)
}

func TestStore_Counts(t *testing.T) {
	store := newTestStore(t)

	s1, err := store.Create()
	require.NoError(t, err)
	_, err = store.Create()
	require.NoError(t, err)

	require.NoError(t, s1.Join("p1", "Ann", &fakeConn{}))
	require.NoError(t, s1.Join("p2", "Bob", &fakeConn{}))

	assert.Equal(t, 2, store.Count())
	assert.Equal(t, 2, store.TotalPlayerCount())
}
