package app

import (
	"log/slog"

	"github.com/google/uuid"
)

// Registry issues and validates player identities. An identity is reused
// only when the claimant is a member of some lobby under the same display
// name; anything else yields a fresh identity, never an error.
type Registry struct {
	store  *Store
	logger *slog.Logger
}

// NewRegistry creates an identity registry backed by the lobby store
func NewRegistry(store *Store, logger *slog.Logger) *Registry {
	return &Registry{store: store, logger: logger}
}

// Resolve returns the claimed identity if it is a valid reconnection, or a
// freshly minted one otherwise. Names are not keys; they only gate reuse of
// a claimed identity.
func (r *Registry) Resolve(claimedID, claimedName string) string {
	if claimedID != "" && claimedName != "" {
		if session, ok := r.store.FindByMember(claimedID); ok {
			if name, ok := session.MemberName(claimedID); ok && name == claimedName {
				r.logger.Debug("identity reused", "playerID", claimedID, "name", claimedName)
				return claimedID
			}
		}
	}

	id := uuid.NewString()
	r.logger.Debug("identity minted", "playerID", id)
	return id
}
