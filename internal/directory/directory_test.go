package directory

import (
	"testing"

	"github.com/soyeahso/imbridge/internal/domain"
	"github.com/soyeahso/imbridge/internal/remote/sim"
	"github.com/stretchr/testify/assert"
)

func roster() *sim.Network {
	return sim.New(sim.WithFriends(
		sim.Friend{ID: 10, Name: "alice"},
		sim.Friend{ID: 20, Name: "bob"},
		sim.Friend{ID: 30, Name: "alice"},
	))
}

func TestFriends_IndexOrder(t *testing.T) {
	var ids []uint64
	for id := range Friends(roster().Friends()) {
		ids = append(ids, uint64(id))
	}
	assert.Equal(t, []uint64{10, 20, 30}, ids)
}

func TestFriends_StopsEarly(t *testing.T) {
	n := 0
	for range Friends(roster().Friends()) {
		n++
		break
	}
	assert.Equal(t, 1, n)
}

func TestLookup(t *testing.T) {
	f := roster().Friends()

	id, ok := Lookup(f, "bob")
	assert.True(t, ok)
	assert.EqualValues(t, 20, id)

	// first match in index order
	id, ok = Lookup(f, "alice")
	assert.True(t, ok)
	assert.EqualValues(t, 10, id)
}

func TestLookup_Miss(t *testing.T) {
	f := roster().Friends()

	_, ok := Lookup(f, "carol")
	assert.False(t, ok)

	_, ok = Lookup(f, "Bob")
	assert.False(t, ok, "lookup is case-sensitive")

	_, ok = Lookup(sim.New().Friends(), "")
	assert.False(t, ok)
}

func TestNameRoundTrip(t *testing.T) {
	f := roster().Friends()
	id, ok := Lookup(f, "bob")
	assert.True(t, ok)
	assert.Equal(t, "bob", Name(f, id))
	assert.Equal(t, "", Name(f, 999))
}

func TestLookup_NoCaching(t *testing.T) {
	net := roster()
	f := net.Friends()

	_, ok := Lookup(f, "bob")
	assert.True(t, ok)

	net.RemoveFriend(20)
	_, ok = Lookup(f, "bob")
	assert.False(t, ok)

	net.AddFriend(sim.Friend{ID: 40, Name: "dave"})
	id, ok := Lookup(f, "dave")
	assert.True(t, ok)
	assert.EqualValues(t, 40, id)
}

func TestRoster(t *testing.T) {
	assert.Equal(t, []domain.RosterEntry{
		{ID: 10, Name: "alice"},
		{ID: 20, Name: "bob"},
		{ID: 30, Name: "alice"},
	}, Roster(roster().Friends()))
	assert.Empty(t, Roster(sim.New().Friends()))
}
