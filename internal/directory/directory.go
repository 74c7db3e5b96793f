// Package directory resolves between display names and remote identities
// over a client's live roster. Nothing is cached: every call walks the
// roster as the client currently reports it.
package directory

import (
	"iter"

	"github.com/soyeahso/imbridge/internal/domain"
	"github.com/soyeahso/imbridge/internal/remote"
)

// Friends yields the roster in the order of the client's friend index.
func Friends(f remote.Friends) iter.Seq[remote.ID] {
	return func(yield func(remote.ID) bool) {
		for i := 0; i < f.FriendCount(); i++ {
			if !yield(f.FriendByIndex(i)) {
				return
			}
		}
	}
}

// Lookup returns the first friend whose display name equals name exactly.
func Lookup(f remote.Friends, name string) (remote.ID, bool) {
	for id := range Friends(f) {
		if f.FriendPersonaName(id) == name {
			return id, true
		}
	}
	return 0, false
}

// Name returns the display name the client reports for id.
func Name(f remote.Friends, id remote.ID) string {
	return f.FriendPersonaName(id)
}

// Roster reads the full roster with resolved names.
func Roster(f remote.Friends) []domain.RosterEntry {
	entries := make([]domain.RosterEntry, 0, f.FriendCount())
	for id := range Friends(f) {
		entries = append(entries, domain.RosterEntry{ID: uint64(id), Name: f.FriendPersonaName(id)})
	}
	return entries
}
