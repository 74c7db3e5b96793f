package host

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/soyeahso/imbridge/internal/config"
	"github.com/soyeahso/imbridge/internal/domain"
	"github.com/soyeahso/imbridge/internal/hooks"
	"github.com/soyeahso/imbridge/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var ic = &domain.ConnectionContext{AccountID: "steam-1", Protocol: "sim"}

func emitAll(n domain.Notifier) {
	n.BuddyAdded(ic, "alice", "")
	n.Connected(ic)
	n.MessageReceived(ic, "alice", "hi")
	n.BuddyRemoved(ic, "alice", "friends")
	n.Error(ic, "Login failed")
	n.Disconnected(ic, true)
}

var allKinds = []domain.NotificationKind{
	domain.NotifyBuddyAdded,
	domain.NotifyConnected,
	domain.NotifyMessageReceived,
	domain.NotifyBuddyRemoved,
	domain.NotifyError,
	domain.NotifyDisconnected,
}

func TestRecorder(t *testing.T) {
	r := NewRecorder()
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	r.now = func() time.Time { return fixed }

	emitAll(r)
	assert.Equal(t, allKinds, r.Kinds())

	all := r.All()
	assert.Equal(t, domain.Notification{
		Kind:      domain.NotifyMessageReceived,
		AccountID: "steam-1",
		Name:      "alice",
		Message:   "hi",
		Timestamp: fixed,
	}, all[2])
	assert.Equal(t, "friends", all[3].Group)
	assert.Equal(t, "Login failed", all[4].Reason)
	assert.True(t, all[5].AllowReconnect)

	r.Reset()
	assert.Empty(t, r.All())
}

func TestRecorder_AllIsCopy(t *testing.T) {
	r := NewRecorder()
	r.Connected(ic)
	all := r.All()
	all[0].AccountID = "changed"
	assert.Equal(t, "steam-1", r.All()[0].AccountID)
}

func TestFanout(t *testing.T) {
	a, b := NewRecorder(), NewRecorder()
	emitAll(Fanout{a, b})

	assert.Equal(t, allKinds, a.Kinds())
	assert.Equal(t, allKinds, b.Kinds())
}

func TestFanout_Empty(t *testing.T) {
	assert.NotPanics(t, func() { emitAll(Fanout(nil)) })
}

func TestLogNotifier(t *testing.T) {
	var buf bytes.Buffer
	n := NewLogNotifier(logging.New(&buf, "info"))

	n.MessageReceived(ic, "alice", "secret body")
	n.Error(ic, "Connection failed")

	out := buf.String()
	assert.Contains(t, out, "message received")
	assert.Contains(t, out, `"from":"alice"`)
	assert.NotContains(t, out, "secret body", "bodies only at debug")
	assert.Contains(t, out, `"reason":"Connection failed"`)
	assert.Contains(t, out, `"subsystem":"host"`)
}

func TestHookNotifier(t *testing.T) {
	m := hooks.NewManager(logging.New(nil, "silent"))

	var (
		mu  sync.Mutex
		got = map[string]hooks.Payload{}
	)
	for _, event := range hooks.AllEvents {
		m.On(event, "test", func(_ context.Context, p hooks.Payload) error {
			mu.Lock()
			defer mu.Unlock()
			got[p.Event] = p
			return nil
		})
	}

	emitAll(NewHookNotifier(context.Background(), m))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 6
	}, time.Second, 5*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, "steam-1", got[hooks.EventSessionStart].Account)
	assert.Equal(t, map[string]any{"from": "alice", "body": "hi"}, got[hooks.EventMessageReceived].Data)
	assert.Equal(t, "Login failed", got[hooks.EventBridgeError].Data["reason"])
	assert.Equal(t, true, got[hooks.EventSessionEnd].Data["allowReconnect"])
	assert.Equal(t, "friends", got[hooks.EventBuddyRemoved].Data["group"])
	assert.Equal(t, "alice", got[hooks.EventBuddyAdded].Data["name"])
}

func TestHookNotifier_SessionEndAfterShutdown(t *testing.T) {
	marker := filepath.Join(t.TempDir(), "ended")
	m := hooks.NewManager(logging.New(nil, "silent"))
	m.Load(config.HooksConfig{
		hooks.EventSessionEnd: {{Command: `touch "` + marker + `"`}},
	})

	ctx, cancel := context.WithCancel(context.Background())
	n := NewHookNotifier(ctx, m)
	cancel()

	n.Disconnected(ic, false)
	m.Wait()

	_, err := os.Stat(marker)
	assert.NoError(t, err, "session_end hook should run after the signal context is cancelled")
}
