package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnectionContextString(t *testing.T) {
	assert.Equal(t, "sim:steam-1", (&ConnectionContext{AccountID: "steam-1", Protocol: "sim"}).String())
	assert.Equal(t, "steam-1", (&ConnectionContext{AccountID: "steam-1"}).String())

	var nilCtx *ConnectionContext
	assert.Equal(t, "", nilCtx.String())
}

func TestNotificationJSON_OmitsEmpty(t *testing.T) {
	n := Notification{
		Kind:      NotifyConnected,
		AccountID: "steam-1",
		Timestamp: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	data, err := json.Marshal(n)
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, "connected", raw["kind"])
	assert.Equal(t, "steam-1", raw["accountId"])
	for _, key := range []string{"name", "group", "message", "reason", "allowReconnect"} {
		assert.NotContains(t, raw, key)
	}
}
