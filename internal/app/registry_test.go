package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_ReusesIdentityOnMatchingReconnect(t *testing.T) {
	store := newTestStore(t)
	registry := NewRegistry(store, testLogger())

	session, err := store.Create()
	require.NoError(t, err)
	require.NoError(t, session.Join("p1", "Ann", &fakeConn{}))

	assert.Equal(t, "p1", registry.Resolve("p1", "Ann"))
}

func TestRegistry_MintsFreshIdentityOtherwise(t *testing.T) {
	store := newTestStore(t)
	registry := NewRegistry(store, testLogger())

	session, err := store.Create()
	require.NoError(t, err)
	require.NoError(t, session.Join("p1", "Ann", &fakeConn{}))

	cases := []struct {
		name        string
		claimedID   string
		claimedName string
	}{
		{"no claim", "", ""},
		{"unknown identity", "ghost", "Ann"},
		{"name mismatch", "p1", "Mallory"},
		{"claim without name", "p1", ""},
	}

	seen := map[string]bool{"p1": true}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			id := registry.Resolve(tc.claimedID, tc.claimedName)
			assert.NotEmpty(t, id)
			assert.False(t, seen[id], "expected a globally unique fresh identity")
			seen[id] = true
		})
	}
}
