// Package host provides domain.Notifier implementations that the account
// manager composes into the host side of a bridged session.
package host

import (
	"slices"
	"sync"
	"time"

	"github.com/soyeahso/imbridge/internal/domain"
)

// Recorder keeps every notification in memory, in call order.
type Recorder struct {
	mu    sync.Mutex
	items []domain.Notification
	now   func() time.Time
}

// NewRecorder creates an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{now: time.Now}
}

var _ domain.Notifier = (*Recorder)(nil)

func (r *Recorder) add(n domain.Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n.Timestamp = r.now()
	r.items = append(r.items, n)
}

func (r *Recorder) Error(ic *domain.ConnectionContext, reason string) {
	r.add(domain.Notification{Kind: domain.NotifyError, AccountID: ic.AccountID, Reason: reason})
}

func (r *Recorder) Disconnected(ic *domain.ConnectionContext, allowReconnect bool) {
	r.add(domain.Notification{Kind: domain.NotifyDisconnected, AccountID: ic.AccountID, AllowReconnect: allowReconnect})
}

func (r *Recorder) Connected(ic *domain.ConnectionContext) {
	r.add(domain.Notification{Kind: domain.NotifyConnected, AccountID: ic.AccountID})
}

func (r *Recorder) BuddyAdded(ic *domain.ConnectionContext, name, group string) {
	r.add(domain.Notification{Kind: domain.NotifyBuddyAdded, AccountID: ic.AccountID, Name: name, Group: group})
}

func (r *Recorder) BuddyRemoved(ic *domain.ConnectionContext, name, group string) {
	r.add(domain.Notification{Kind: domain.NotifyBuddyRemoved, AccountID: ic.AccountID, Name: name, Group: group})
}

func (r *Recorder) MessageReceived(ic *domain.ConnectionContext, name, message string) {
	r.add(domain.Notification{Kind: domain.NotifyMessageReceived, AccountID: ic.AccountID, Name: name, Message: message})
}

// All returns a copy of the recorded notifications.
func (r *Recorder) All() []domain.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.items)
}

// Kinds returns the kind of each recorded notification, in order.
func (r *Recorder) Kinds() []domain.NotificationKind {
	r.mu.Lock()
	defer r.mu.Unlock()
	kinds := make([]domain.NotificationKind, len(r.items))
	for i, n := range r.items {
		kinds[i] = n.Kind
	}
	return kinds
}

// Reset drops everything recorded so far.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = nil
}

// Fanout forwards every call to each notifier in order.
type Fanout []domain.Notifier

var _ domain.Notifier = Fanout(nil)

func (f Fanout) Error(ic *domain.ConnectionContext, reason string) {
	for _, n := range f {
		n.Error(ic, reason)
	}
}

func (f Fanout) Disconnected(ic *domain.ConnectionContext, allowReconnect bool) {
	for _, n := range f {
		n.Disconnected(ic, allowReconnect)
	}
}

func (f Fanout) Connected(ic *domain.ConnectionContext) {
	for _, n := range f {
		n.Connected(ic)
	}
}

func (f Fanout) BuddyAdded(ic *domain.ConnectionContext, name, group string) {
	for _, n := range f {
		n.BuddyAdded(ic, name, group)
	}
}

func (f Fanout) BuddyRemoved(ic *domain.ConnectionContext, name, group string) {
	for _, n := range f {
		n.BuddyRemoved(ic, name, group)
	}
}

func (f Fanout) MessageReceived(ic *domain.ConnectionContext, name, message string) {
	for _, n := range f {
		n.MessageReceived(ic, name, message)
	}
}
