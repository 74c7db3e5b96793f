package domain

import "time"

// Notifier is the host framework's inbound surface. Sessions call it for
// every state change and every translated remote event. Calls are
// fire-and-forget: implementations must not block for long and report
// their own failures out of band.
type Notifier interface {
	// Error surfaces a short, human-readable reason. Fatal paths always
	// follow it with Disconnected.
	Error(ic *ConnectionContext, reason string)

	// Disconnected reports that the session ended.
	Disconnected(ic *ConnectionContext, allowReconnect bool)

	// Connected reports that the session is fully established.
	Connected(ic *ConnectionContext)

	// BuddyAdded reports a contact now present in the roster view.
	// An empty group means no group.
	BuddyAdded(ic *ConnectionContext, name, group string)

	// BuddyRemoved reports a contact no longer present in the roster view.
	BuddyRemoved(ic *ConnectionContext, name, group string)

	// MessageReceived delivers an incoming chat line.
	MessageReceived(ic *ConnectionContext, name, message string)
}

// NotificationKind names a Notifier method.
type NotificationKind string

const (
	NotifyError           NotificationKind = "error"
	NotifyDisconnected    NotificationKind = "disconnected"
	NotifyConnected       NotificationKind = "connected"
	NotifyBuddyAdded      NotificationKind = "buddy_added"
	NotifyBuddyRemoved    NotificationKind = "buddy_removed"
	NotifyMessageReceived NotificationKind = "message_received"
)

// Notification is a record of a single Notifier call.
type Notification struct {
	Kind           NotificationKind `json:"kind"`
	AccountID      string           `json:"accountId"`
	Name           string           `json:"name,omitempty"`
	Group          string           `json:"group,omitempty"`
	Message        string           `json:"message,omitempty"`
	Reason         string           `json:"reason,omitempty"`
	AllowReconnect bool             `json:"allowReconnect,omitempty"`
	Timestamp      time.Time        `json:"timestamp"`
}
