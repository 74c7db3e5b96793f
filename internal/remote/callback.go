package remote

import "fmt"

// Callback is a single event queued by the client.
type Callback interface {
	callback()
}

// ConnectedCallback reports the outcome of Client.Connect.
type ConnectedCallback struct {
	Result Result
}

// DisconnectedCallback reports that the transport closed.
type DisconnectedCallback struct{}

// LogOnCallback reports the outcome of User.LogOn.
type LogOnCallback struct {
	Result Result
}

// LoggedOffCallback reports that the server ended the logon session.
type LoggedOffCallback struct {
	Result Result
}

// FriendMsgCallback carries a chat entry from a friend.
type FriendMsgCallback struct {
	Sender    ID
	EntryType ChatEntryType
	Message   string
}

// PersonaStateCallback reports a friend's display name change.
type PersonaStateCallback struct {
	Friend ID
	Name   string
}

func (ConnectedCallback) callback()    {}
func (DisconnectedCallback) callback() {}
func (LogOnCallback) callback()        {}
func (LoggedOffCallback) callback()    {}
func (FriendMsgCallback) callback()    {}
func (PersonaStateCallback) callback() {}

// Result is a status code reported by the remote network.
type Result int

const (
	ResultInvalid                      Result = 0
	ResultOK                           Result = 1
	ResultFail                         Result = 2
	ResultNoConnection                 Result = 3
	ResultInvalidPassword              Result = 5
	ResultLoggedInElsewhere            Result = 6
	ResultTimeout                      Result = 16
	ResultServiceUnavailable           Result = 20
	ResultAccountLogonDenied           Result = 63
	ResultAccountLogonDeniedNoMailSent Result = 65
	ResultInvalidLoginAuthCode         Result = 67
)

var resultNames = map[Result]string{
	ResultInvalid:                      "Invalid",
	ResultOK:                           "OK",
	ResultFail:                         "Fail",
	ResultNoConnection:                 "NoConnection",
	ResultInvalidPassword:              "InvalidPassword",
	ResultLoggedInElsewhere:            "LoggedInElsewhere",
	ResultServiceUnavailable:           "ServiceUnavailable",
	ResultTimeout:                      "Timeout",
	ResultAccountLogonDenied:           "AccountLogonDenied",
	ResultAccountLogonDeniedNoMailSent: "AccountLogonDeniedNoMailSent",
	ResultInvalidLoginAuthCode:         "InvalidLoginAuthCode",
}

func (r Result) String() string {
	if name, ok := resultNames[r]; ok {
		return name
	}
	return fmt.Sprintf("Result(%d)", int(r))
}

// ChatEntryType classifies a chat entry.
type ChatEntryType int

const (
	ChatMsg          ChatEntryType = 1
	Typing           ChatEntryType = 2
	InviteGame       ChatEntryType = 3
	Emote            ChatEntryType = 4
	LeftConversation ChatEntryType = 6
)

func (t ChatEntryType) String() string {
	switch t {
	case ChatMsg:
		return "ChatMsg"
	case Typing:
		return "Typing"
	case InviteGame:
		return "InviteGame"
	case Emote:
		return "Emote"
	case LeftConversation:
		return "LeftConversation"
	default:
		return fmt.Sprintf("ChatEntryType(%d)", int(t))
	}
}
