package hooks

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/soyeahso/imbridge/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommand_ReceivesPayload(t *testing.T) {
	out := filepath.Join(t.TempDir(), "out")
	h := Command(config.HookEntry{Command: `cat > "` + out + `"; echo "$IMBRIDGE_EVENT $IMBRIDGE_ACCOUNT" >> "` + out + `.env"`})

	err := h(context.Background(), Payload{
		Event:   EventMessageReceived,
		Account: "steam-1",
		Data:    map[string]any{"from": "bob", "body": "hi"},
	})
	require.NoError(t, err)

	body, err := os.ReadFile(out)
	require.NoError(t, err)
	var p Payload
	require.NoError(t, json.Unmarshal(body, &p))
	assert.Equal(t, EventMessageReceived, p.Event)
	assert.Equal(t, "steam-1", p.Account)
	assert.Equal(t, "hi", p.Data["body"])

	env, err := os.ReadFile(out + ".env")
	require.NoError(t, err)
	assert.Equal(t, "message_received steam-1\n", string(env))
}

func TestCommand_FailureIncludesStderr(t *testing.T) {
	h := Command(config.HookEntry{Command: "echo boom >&2; exit 3"})

	err := h(context.Background(), Payload{Event: EventBridgeError})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
}

func TestCommand_Timeout(t *testing.T) {
	h := Command(config.HookEntry{Command: "sleep 5", Timeout: 20})

	err := h(context.Background(), Payload{Event: EventBridgeStop})
	assert.Error(t, err)
}

func TestLoad(t *testing.T) {
	m := testManager()
	m.Load(config.HooksConfig{
		EventSessionStart: {{Command: "true"}, {Command: "true"}},
		EventBridgeError:  {{Command: "true"}},
		"not_an_event":    {{Command: "true"}},
	})

	assert.Equal(t, 2, m.Count(EventSessionStart))
	assert.Equal(t, 1, m.Count(EventBridgeError))
	assert.Zero(t, m.Count("not_an_event"))
	assert.Equal(t, []string{EventBridgeError, EventSessionStart}, m.Events())
}
