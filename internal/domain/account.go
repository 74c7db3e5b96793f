package domain

// ConnectionContext identifies one local account instance inside the host.
// The host owns it; sessions hold a pointer and hand it back on every
// notification so the host can route the call to the right account.
type ConnectionContext struct {
	AccountID string `json:"accountId"`
	Protocol  string `json:"protocol"`
}

// String returns "protocol:account", or just the account when no protocol is set.
func (c *ConnectionContext) String() string {
	if c == nil {
		return ""
	}
	if c.Protocol == "" {
		return c.AccountID
	}
	return c.Protocol + ":" + c.AccountID
}

// RosterEntry pairs a remote contact's identity with its display name.
type RosterEntry struct {
	ID   uint64 `json:"id"`
	Name string `json:"name"`
}

// AccountStatus reports the runtime state of one bridged account.
type AccountStatus struct {
	AccountID string `json:"accountId"`
	Protocol  string `json:"protocol"`
	State     string `json:"state"`
	Connected bool   `json:"connected"`
	Buddies   int    `json:"buddies"`
}
