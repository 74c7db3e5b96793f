package bridge

import "errors"

// Reasons surfaced to the host through Notifier.Error.
const (
	ReasonConnectionFailed   = "Connection failed"
	ReasonSteamGuardRequired = "Steam guard authentication needed"
	ReasonLoginFailed        = "Login failed"
)

var (
	// ErrConnectionFailed is returned by Login when the transport did not confirm.
	ErrConnectionFailed = errors.New(ReasonConnectionFailed)
	// ErrSteamGuardRequired is returned by Login when the network wants an
	// out-of-band one-time code. Retry with a new Session and the code.
	ErrSteamGuardRequired = errors.New(ReasonSteamGuardRequired)
	// ErrLoginFailed is returned by Login for every other logon failure.
	ErrLoginFailed = errors.New(ReasonLoginFailed)

	// ErrInvalidState is returned by Login on a Session that is not Idle.
	ErrInvalidState = errors.New("session is not idle")
	// ErrNotConnected is returned by SendMessage outside Connected.
	ErrNotConnected = errors.New("session is not connected")
)
