// Package sim is an in-process remote network. It implements remote.Client
// with a scripted roster, credential checks and a callback queue, and is
// what the CLI runs against when no real client library is linked in.
package sim

import (
	"context"
	"slices"
	"sync"

	"github.com/soyeahso/imbridge/internal/remote"
)

// Friend is one roster entry on the simulated network.
type Friend struct {
	ID   remote.ID `yaml:"id"`
	Name string    `yaml:"name"`
}

// Credentials are what LogOn checks against. An empty Username accepts any
// username and password; an empty GuardCode disables the guard check.
type Credentials struct {
	Username  string
	Password  string
	GuardCode string
	// GuardMail reports whether the network claims to have mailed the code.
	GuardMail bool
}

// SentMessage records a SendChatMessage call.
type SentMessage struct {
	To      remote.ID
	Kind    remote.ChatEntryType
	Message string
}

// Network is a simulated remote client. It is safe for concurrent use, so
// tests and fixture scripts can deliver events while a session consumes them.
type Network struct {
	mu       sync.Mutex
	friends  []Friend
	queue    []remote.Callback
	signal   chan struct{}
	sent     []SentMessage
	calls    []string
	creds    Credentials
	online   bool
	loggedOn bool

	connectResult remote.Result
	silentConnect bool
	logOnResult   remote.Result
	silentLogOn   bool
}

// Option configures a Network.
type Option func(*Network)

// WithFriends seeds the roster.
func WithFriends(friends ...Friend) Option {
	return func(n *Network) { n.friends = append(n.friends, friends...) }
}

// WithCredentials sets the credentials LogOn accepts.
func WithCredentials(c Credentials) Option {
	return func(n *Network) { n.creds = c }
}

// WithConnectResult makes Connect report r instead of ResultOK.
func WithConnectResult(r remote.Result) Option {
	return func(n *Network) { n.connectResult = r }
}

// WithSilentConnect makes Connect queue nothing.
func WithSilentConnect() Option {
	return func(n *Network) { n.silentConnect = true }
}

// WithLogOnResult forces the LogOn outcome, skipping credential checks.
func WithLogOnResult(r remote.Result) Option {
	return func(n *Network) { n.logOnResult = r }
}

// WithSilentLogOn makes LogOn queue nothing.
func WithSilentLogOn() Option {
	return func(n *Network) { n.silentLogOn = true }
}

// New creates a simulated network client.
func New(opts ...Option) *Network {
	n := &Network{
		signal:        make(chan struct{}, 1),
		connectResult: remote.ResultOK,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

var _ remote.Client = (*Network)(nil)

func (n *Network) Connect() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, "connect")
	if n.silentConnect {
		return
	}
	n.online = n.connectResult == remote.ResultOK
	n.pushLocked(remote.ConnectedCallback{Result: n.connectResult})
}

func (n *Network) Disconnect() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, "disconnect")
	n.online = false
	n.loggedOn = false
}

func (n *Network) WaitForCallback(ctx context.Context) (remote.Callback, error) {
	for {
		if cb, ok := n.GetCallback(); ok {
			return cb, nil
		}
		select {
		case <-n.signal:
		case <-ctx.Done():
			return nil, remote.ErrNoCallback
		}
	}
}

func (n *Network) GetCallback() (remote.Callback, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.queue) == 0 {
		return nil, false
	}
	return n.queue[0], true
}

func (n *Network) FreeLastCallback() {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.queue) > 0 {
		n.queue = n.queue[1:]
	}
}

func (n *Network) Friends() remote.Friends { return (*friends)(n) }

func (n *Network) User() remote.User { return (*user)(n) }

// Push queues an arbitrary callback.
func (n *Network) Push(cb remote.Callback) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.pushLocked(cb)
}

// Deliver queues a chat entry from a friend.
func (n *Network) Deliver(from remote.ID, kind remote.ChatEntryType, message string) {
	n.Push(remote.FriendMsgCallback{Sender: from, EntryType: kind, Message: message})
}

// AddFriend appends a friend to the roster.
func (n *Network) AddFriend(f Friend) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.friends = append(n.friends, f)
}

// RemoveFriend drops a friend from the roster.
func (n *Network) RemoveFriend(id remote.ID) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.friends = slices.DeleteFunc(n.friends, func(f Friend) bool { return f.ID == id })
}

// Rename changes a friend's display name and queues a PersonaStateCallback.
func (n *Network) Rename(id remote.ID, name string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for i := range n.friends {
		if n.friends[i].ID == id {
			n.friends[i].Name = name
			n.pushLocked(remote.PersonaStateCallback{Friend: id, Name: name})
			return
		}
	}
}

// Sent returns a copy of every message sent so far.
func (n *Network) Sent() []SentMessage {
	n.mu.Lock()
	defer n.mu.Unlock()
	return slices.Clone(n.sent)
}

// Calls returns the transport and auth operations invoked so far, in order:
// "connect", "logon", "logoff", "disconnect".
func (n *Network) Calls() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return slices.Clone(n.calls)
}

// Pending returns the number of unacknowledged callbacks.
func (n *Network) Pending() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.queue)
}

// LoggedOn reports whether a logon succeeded and has not ended.
func (n *Network) LoggedOn() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.loggedOn
}

func (n *Network) pushLocked(cb remote.Callback) {
	n.queue = append(n.queue, cb)
	select {
	case n.signal <- struct{}{}:
	default:
	}
}

func (n *Network) logOnResultLocked(d remote.LogOnDetails) remote.Result {
	if n.logOnResult != remote.ResultInvalid {
		return n.logOnResult
	}
	if !n.online {
		return remote.ResultNoConnection
	}
	c := n.creds
	if c.Username != "" && (d.Username != c.Username || d.Password != c.Password) {
		return remote.ResultInvalidPassword
	}
	if c.GuardCode != "" && d.AuthCode != c.GuardCode {
		switch {
		case d.AuthCode != "":
			return remote.ResultInvalidLoginAuthCode
		case c.GuardMail:
			return remote.ResultAccountLogonDenied
		default:
			return remote.ResultAccountLogonDeniedNoMailSent
		}
	}
	return remote.ResultOK
}

type friends Network

func (f *friends) FriendCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.friends)
}

func (f *friends) FriendByIndex(i int) remote.ID {
	f.mu.Lock()
	defer f.mu.Unlock()
	if i < 0 || i >= len(f.friends) {
		return 0
	}
	return f.friends[i].ID
}

func (f *friends) FriendPersonaName(id remote.ID) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, fr := range f.friends {
		if fr.ID == id {
			return fr.Name
		}
	}
	return ""
}

func (f *friends) SendChatMessage(to remote.ID, kind remote.ChatEntryType, message string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, SentMessage{To: to, Kind: kind, Message: message})
}

type user Network

func (u *user) LogOn(details remote.LogOnDetails) {
	n := (*Network)(u)
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, "logon")
	if n.silentLogOn {
		return
	}
	result := n.logOnResultLocked(details)
	n.loggedOn = result == remote.ResultOK
	n.pushLocked(remote.LogOnCallback{Result: result})
}

func (u *user) LogOff() {
	n := (*Network)(u)
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, "logoff")
	n.loggedOn = false
}
