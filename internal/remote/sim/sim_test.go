package sim

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/soyeahso/imbridge/internal/remote"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Network ---

func TestConnect_QueuesResult(t *testing.T) {
	n := New()
	n.Connect()

	cb, ok := n.GetCallback()
	require.True(t, ok)
	assert.Equal(t, remote.ConnectedCallback{Result: remote.ResultOK}, cb)

	// peek does not consume
	_, ok = n.GetCallback()
	assert.True(t, ok)
	n.FreeLastCallback()
	_, ok = n.GetCallback()
	assert.False(t, ok)
}

func TestConnect_Silent(t *testing.T) {
	n := New(WithSilentConnect())
	n.Connect()
	assert.Zero(t, n.Pending())
	assert.Equal(t, []string{"connect"}, n.Calls())
}

func TestWaitForCallback_Timeout(t *testing.T) {
	n := New()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := n.WaitForCallback(ctx)
	assert.ErrorIs(t, err, remote.ErrNoCallback)
}

func TestWaitForCallback_WakesOnPush(t *testing.T) {
	n := New()
	go func() {
		time.Sleep(5 * time.Millisecond)
		n.Deliver(1, remote.ChatMsg, "late")
	}()

	cb, err := n.WaitForCallback(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "late", cb.(remote.FriendMsgCallback).Message)
}

func TestFreeLastCallback_EmptyQueue(t *testing.T) {
	n := New()
	assert.NotPanics(t, n.FreeLastCallback)
}

func TestLogOn_Results(t *testing.T) {
	creds := Credentials{Username: "gordon", Password: "pw", GuardCode: "CODE1"}
	tests := []struct {
		name    string
		creds   Credentials
		details remote.LogOnDetails
		connect bool
		want    remote.Result
	}{
		{"ok", creds, remote.LogOnDetails{Username: "gordon", Password: "pw", AuthCode: "CODE1"}, true, remote.ResultOK},
		{"offline", creds, remote.LogOnDetails{Username: "gordon", Password: "pw", AuthCode: "CODE1"}, false, remote.ResultNoConnection},
		{"bad password", creds, remote.LogOnDetails{Username: "gordon", Password: "x"}, true, remote.ResultInvalidPassword},
		{"bad user", creds, remote.LogOnDetails{Username: "alyx", Password: "pw"}, true, remote.ResultInvalidPassword},
		{"no code, no mail", creds, remote.LogOnDetails{Username: "gordon", Password: "pw"}, true, remote.ResultAccountLogonDeniedNoMailSent},
		{"wrong code", creds, remote.LogOnDetails{Username: "gordon", Password: "pw", AuthCode: "nope"}, true, remote.ResultInvalidLoginAuthCode},
		{"open network", Credentials{}, remote.LogOnDetails{Username: "anyone"}, true, remote.ResultOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := New(WithCredentials(tt.creds))
			if tt.connect {
				n.Connect()
				n.FreeLastCallback()
			}
			n.User().LogOn(tt.details)

			cb, ok := n.GetCallback()
			require.True(t, ok)
			assert.Equal(t, tt.want, cb.(remote.LogOnCallback).Result)
			assert.Equal(t, tt.want == remote.ResultOK, n.LoggedOn())
		})
	}
}

func TestLogOn_GuardMail(t *testing.T) {
	n := New(WithCredentials(Credentials{GuardCode: "CODE1", GuardMail: true}))
	n.Connect()
	n.FreeLastCallback()
	n.User().LogOn(remote.LogOnDetails{Username: "u"})

	cb, _ := n.GetCallback()
	assert.Equal(t, remote.ResultAccountLogonDenied, cb.(remote.LogOnCallback).Result)
}

func TestLogOn_Forced(t *testing.T) {
	n := New(WithLogOnResult(remote.ResultLoggedInElsewhere))
	n.User().LogOn(remote.LogOnDetails{})

	cb, _ := n.GetCallback()
	assert.Equal(t, remote.ResultLoggedInElsewhere, cb.(remote.LogOnCallback).Result)
}

func TestLogOffAndDisconnect(t *testing.T) {
	n := New()
	n.Connect()
	n.User().LogOn(remote.LogOnDetails{})
	require.True(t, n.LoggedOn())

	n.User().LogOff()
	n.Disconnect()
	assert.False(t, n.LoggedOn())
	assert.Equal(t, []string{"connect", "logon", "logoff", "disconnect"}, n.Calls())
}

func TestFriends(t *testing.T) {
	n := New(WithFriends(Friend{ID: 1, Name: "alice"}, Friend{ID: 2, Name: "bob"}))
	f := n.Friends()

	assert.Equal(t, 2, f.FriendCount())
	assert.EqualValues(t, 2, f.FriendByIndex(1))
	assert.Zero(t, f.FriendByIndex(5))
	assert.Zero(t, f.FriendByIndex(-1))
	assert.Equal(t, "alice", f.FriendPersonaName(1))
	assert.Equal(t, "", f.FriendPersonaName(7))

	f.SendChatMessage(2, remote.ChatMsg, "yo")
	assert.Equal(t, []SentMessage{{To: 2, Kind: remote.ChatMsg, Message: "yo"}}, n.Sent())
}

func TestRename(t *testing.T) {
	n := New(WithFriends(Friend{ID: 1, Name: "alice"}))
	n.Rename(1, "alyx")
	n.Rename(9, "ghost")

	assert.Equal(t, "alyx", n.Friends().FriendPersonaName(1))
	assert.Equal(t, 1, n.Pending())
	cb, _ := n.GetCallback()
	assert.Equal(t, remote.PersonaStateCallback{Friend: 1, Name: "alyx"}, cb)
}

// --- Fixture ---

func TestLoadFixture(t *testing.T) {
	t.Setenv("SIM_TEST_PASSWORD", "s3cret")

	fx, err := LoadFixture(filepath.Join("testdata", "gordon.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "gordon", fx.Username)
	assert.Equal(t, "s3cret", fx.Password)
	assert.Equal(t, "F4K3C", fx.GuardCode)
	assert.True(t, fx.GuardMail)
	require.Len(t, fx.Friends, 2)
	assert.EqualValues(t, 76561197960287931, fx.Friends[1].ID)
	require.Len(t, fx.Script, 2)
	assert.Equal(t, 10*time.Millisecond, fx.Script[1].After)
}

func TestLoadFixture_Missing(t *testing.T) {
	_, err := LoadFixture(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadFixture_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"missing id", "friends:\n  - {name: alice}\n", "id is required"},
		{"duplicate id", "friends:\n  - {id: 1, name: a}\n  - {id: 1, name: b}\n", "duplicate id"},
		{"unknown sender", "friends:\n  - {id: 1, name: a}\nscript:\n  - {from: z, text: x}\n", "unknown friend"},
		{"bad kind", "friends:\n  - {id: 1, name: a}\nscript:\n  - {from: a, kind: shout, text: x}\n", "unknown kind"},
		{"negative delay", "friends:\n  - {id: 1, name: a}\nscript:\n  - {after: -1s, from: a, text: x}\n", "negative delay"},
		{"bad yaml", "friends: [", "parsing fixture"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "fx.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.body), 0o600))
			_, err := LoadFixture(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestFixtureNetwork(t *testing.T) {
	t.Setenv("SIM_TEST_PASSWORD", "s3cret")
	fx, err := LoadFixture(filepath.Join("testdata", "gordon.yaml"))
	require.NoError(t, err)

	n := fx.Network()
	n.Connect()
	n.FreeLastCallback()
	n.User().LogOn(remote.LogOnDetails{Username: "gordon", Password: "s3cret", AuthCode: "F4K3C"})
	cb, _ := n.GetCallback()
	assert.Equal(t, remote.ResultOK, cb.(remote.LogOnCallback).Result)
	assert.Equal(t, 2, n.Friends().FriendCount())
}

func TestPlay(t *testing.T) {
	n := New(WithFriends(Friend{ID: 1, Name: "alice"}, Friend{ID: 2, Name: "bob"}))
	err := n.Play(context.Background(), []ScriptedLine{
		{From: "bob", Text: "hi"},
		{After: time.Millisecond, From: "alice", Kind: "emote", Text: "waves"},
		{From: "ghost", Text: "skipped"},
	})
	require.NoError(t, err)
	require.Equal(t, 2, n.Pending())

	cb, _ := n.GetCallback()
	assert.Equal(t, remote.FriendMsgCallback{Sender: 2, EntryType: remote.ChatMsg, Message: "hi"}, cb)
	n.FreeLastCallback()
	cb, _ = n.GetCallback()
	assert.Equal(t, remote.FriendMsgCallback{Sender: 1, EntryType: remote.Emote, Message: "waves"}, cb)
}

func TestPlay_Cancelled(t *testing.T) {
	n := New(WithFriends(Friend{ID: 1, Name: "alice"}))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := n.Play(ctx, []ScriptedLine{{After: time.Hour, From: "alice", Text: "never"}})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, n.Pending())
}

func TestParseKind(t *testing.T) {
	for in, want := range map[string]remote.ChatEntryType{
		"":        remote.ChatMsg,
		"message": remote.ChatMsg,
		"emote":   remote.Emote,
		"invite":  remote.InviteGame,
		"typing":  remote.Typing,
		"left":    remote.LeftConversation,
	} {
		got, err := ParseKind(in)
		require.NoError(t, err)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseKind("shout")
	assert.Error(t, err)
}
