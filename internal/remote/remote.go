// Package remote describes the client library of the remote chat network.
//
// The library owns transport, encryption and its own roster cache; this
// package only fixes the surface a session drives. Callbacks are queued by
// the client and stay at the head of the queue until FreeLastCallback
// acknowledges them, so a consumer that crashes mid-handling sees the same
// callback again.
package remote

import (
	"context"
	"errors"
)

// ID is an opaque remote identity, stable for the life of a session.
type ID uint64

// ErrNoCallback is returned by WaitForCallback when the wait ends without a
// queued callback.
var ErrNoCallback = errors.New("remote: no callback")

// LogOnDetails carries the credentials submitted by User.LogOn.
type LogOnDetails struct {
	Username string
	Password string
	AuthCode string
}

// Client is one connection to the remote network.
type Client interface {
	// Connect starts the transport. The outcome arrives as a ConnectedCallback.
	Connect()

	// Disconnect closes the transport.
	Disconnect()

	// WaitForCallback blocks until a callback is queued or ctx ends and
	// returns the head of the queue without removing it.
	WaitForCallback(ctx context.Context) (Callback, error)

	// GetCallback returns the head of the queue without blocking or removing it.
	GetCallback() (Callback, bool)

	// FreeLastCallback removes the head of the queue.
	FreeLastCallback()

	Friends() Friends
	User() User
}

// Friends is the roster and messaging capability of a client.
type Friends interface {
	FriendCount() int
	FriendByIndex(i int) ID
	FriendPersonaName(id ID) string
	SendChatMessage(to ID, kind ChatEntryType, message string)
}

// User is the authentication capability of a client.
type User interface {
	// LogOn submits credentials. The outcome arrives as a LogOnCallback.
	LogOn(details LogOnDetails)
	LogOff()
}
