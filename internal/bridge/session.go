// Package bridge drives one remote chat account on behalf of a host
// framework. A Session logs in, reports the roster, translates incoming
// chat entries into host notifications and relays outgoing lines.
//
// Lifecycle: Idle -> Connecting -> AwaitingLoginResult -> Connected ->
// Disconnected. Disconnected is terminal; retrying needs a new Session.
package bridge

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/soyeahso/imbridge/internal/directory"
	"github.com/soyeahso/imbridge/internal/domain"
	"github.com/soyeahso/imbridge/internal/logging"
	"github.com/soyeahso/imbridge/internal/remote"
)

const (
	DefaultLoginTimeout = 30 * time.Second
	DefaultPollInterval = 100 * time.Millisecond
)

// Options tunes the blocking behaviour of a Session.
type Options struct {
	// LoginTimeout bounds each of the two waits inside Login.
	LoginTimeout time.Duration
	// PollInterval is how long Run sleeps when no callback is ready.
	PollInterval time.Duration
}

// Session bridges a single remote account. Public methods are serialized
// internally; a blocked Login holds off SendMessage, Pump and Logout until
// it returns. State, Roster and HasBuddy never wait on a login.
type Session struct {
	ic      *domain.ConnectionContext
	client  remote.Client
	friends remote.Friends
	user    remote.User
	notify  domain.Notifier
	opts    Options
	log     *logging.Logger

	mu    sync.Mutex
	state atomic.Int32
}

// New binds a Session to the host's connection context. The session takes
// exclusive ownership of client.
func New(ic *domain.ConnectionContext, client remote.Client, notify domain.Notifier, opts Options, log *logging.Logger) *Session {
	if opts.LoginTimeout <= 0 {
		opts.LoginTimeout = DefaultLoginTimeout
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}
	return &Session{
		ic:      ic,
		client:  client,
		friends: client.Friends(),
		user:    client.User(),
		notify:  notify,
		opts:    opts,
		log:     log.Sub("bridge").With("account", ic.AccountID),
	}
}

// Context returns the connection context the session reports under.
func (s *Session) Context() *domain.ConnectionContext { return s.ic }

// State returns the current lifecycle state.
func (s *Session) State() State {
	return State(s.state.Load())
}

// Roster reads the live roster. It is empty unless Connected.
func (s *Session) Roster() []domain.RosterEntry {
	if s.State() != Connected {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.State() != Connected {
		return nil
	}
	return directory.Roster(s.friends)
}

// HasBuddy reports whether the live roster has a friend shown as name.
func (s *Session) HasBuddy(name string) bool {
	if s.State() != Connected {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.State() != Connected {
		return false
	}
	_, ok := directory.Lookup(s.friends, name)
	return ok
}

// Login connects, authenticates and announces the roster. On failure the
// host has already received Error and Disconnected by the time Login
// returns, and the returned error names the failure class. Cancelling ctx
// abandons the login: the host gets Disconnected alone and Login returns
// ctx.Err().
func (s *Session) Login(ctx context.Context, username, password, authCode string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.State() != Idle {
		return ErrInvalidState
	}

	s.setState(Connecting)
	s.client.Connect()

	connected, ok := s.await(ctx, func(cb remote.Callback) bool {
		_, ok := cb.(remote.ConnectedCallback)
		return ok
	})
	if !ok && ctx.Err() != nil {
		s.abandon()
		return ctx.Err()
	}
	if !ok || connected.(remote.ConnectedCallback).Result != remote.ResultOK {
		if ok {
			s.log.Warn().Stringer("result", connected.(remote.ConnectedCallback).Result).Msg("connect rejected")
		}
		s.fatal(ReasonConnectionFailed)
		return ErrConnectionFailed
	}

	s.setState(AwaitingLoginResult)
	s.user.LogOn(remote.LogOnDetails{
		Username: username,
		Password: password,
		AuthCode: authCode,
	})

	logon, ok := s.await(ctx, func(cb remote.Callback) bool {
		_, ok := cb.(remote.LogOnCallback)
		return ok
	})
	if !ok && ctx.Err() != nil {
		s.abandon()
		return ctx.Err()
	}
	if !ok {
		s.fatal(ReasonLoginFailed)
		return ErrLoginFailed
	}

	switch result := logon.(remote.LogOnCallback).Result; result {
	case remote.ResultOK:
	case remote.ResultAccountLogonDenied, remote.ResultAccountLogonDeniedNoMailSent:
		s.log.Warn().Stringer("result", result).Msg("logon denied, guard code required")
		s.fatal(ReasonSteamGuardRequired)
		return ErrSteamGuardRequired
	default:
		s.log.Warn().Stringer("result", result).Msg("logon rejected")
		s.fatal(ReasonLoginFailed)
		return ErrLoginFailed
	}

	s.setState(Connected)
	roster := directory.Roster(s.friends)
	for _, entry := range roster {
		s.notify.BuddyAdded(s.ic, entry.Name, "")
	}
	s.notify.Connected(s.ic)
	s.log.Info().Int("buddies", len(roster)).Msg("logged on")
	return nil
}

// await blocks until the head of the callback queue satisfies want, or the
// wait times out. Callbacks of any other kind are acknowledged and skipped.
func (s *Session) await(ctx context.Context, want func(remote.Callback) bool) (remote.Callback, bool) {
	ctx, cancel := context.WithTimeout(ctx, s.opts.LoginTimeout)
	defer cancel()

	for {
		cb, err := s.client.WaitForCallback(ctx)
		if err != nil {
			s.log.Warn().Err(err).Stringer("state", s.State()).Msg("no callback before deadline")
			return nil, false
		}
		matched := want(cb)
		s.client.FreeLastCallback()
		if matched {
			return cb, true
		}
		s.log.Debug().Stringer("state", s.State()).Type("callback", cb).Msg("skipping unexpected callback")
	}
}

// Pump handles at most one queued callback and reports whether it did.
// It never blocks; outside Connected it does nothing.
func (s *Session) Pump() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.State() != Connected {
		return false
	}
	cb, ok := s.client.GetCallback()
	if !ok {
		return false
	}
	s.handle(cb)
	s.client.FreeLastCallback()
	return true
}

func (s *Session) handle(cb remote.Callback) {
	msg, ok := cb.(remote.FriendMsgCallback)
	if !ok {
		s.log.Trace().Type("callback", cb).Msg("dropping callback")
		return
	}
	switch msg.EntryType {
	case remote.ChatMsg, remote.Emote, remote.InviteGame:
		name := directory.Name(s.friends, msg.Sender)
		s.notify.MessageReceived(s.ic, name, msg.Message)
	default:
		s.log.Trace().Stringer("entry", msg.EntryType).Msg("dropping chat entry")
	}
}

// Run pumps callbacks until ctx ends or the session leaves Connected,
// sleeping PollInterval whenever the queue is empty.
func (s *Session) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.opts.PollInterval)
	defer ticker.Stop()

	for {
		for s.Pump() {
			if ctx.Err() != nil {
				return ctx.Err()
			}
		}
		if s.State() != Connected {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// SendMessage relays a chat line to the friend shown as displayName. An
// unknown name is dropped silently; rosters go stale between the host's
// view and the network's.
func (s *Session) SendMessage(displayName, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.State() != Connected {
		return ErrNotConnected
	}
	id, ok := directory.Lookup(s.friends, displayName)
	if !ok {
		s.log.Debug().Str("to", displayName).Msg("no buddy with that name, dropping message")
		return nil
	}
	s.friends.SendChatMessage(id, remote.ChatMsg, text)
	return nil
}

// Logout signs off and closes the transport. Outside Connected it does nothing.
func (s *Session) Logout() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.State() != Connected {
		return
	}
	s.user.LogOff()
	s.client.Disconnect()
	s.setState(Disconnected)
	s.notify.Disconnected(s.ic, false)
	s.log.Info().Msg("logged off")
}

// fatal ends the session: error, then disconnect, then transport close.
func (s *Session) fatal(reason string) {
	s.setState(Disconnected)
	s.log.Error().Str("reason", reason).Msg("session failed")
	s.notify.Error(s.ic, reason)
	s.notify.Disconnected(s.ic, false)
	s.client.Disconnect()
}

// abandon ends a login the caller gave up on. Nothing failed, so no Error.
func (s *Session) abandon() {
	s.setState(Disconnected)
	s.log.Info().Msg("login abandoned")
	s.notify.Disconnected(s.ic, false)
	s.client.Disconnect()
}

func (s *Session) setState(next State) {
	s.log.Debug().Stringer("from", s.State()).Stringer("to", next).Msg("state change")
	s.state.Store(int32(next))
}
