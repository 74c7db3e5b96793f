package remote

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResultString(t *testing.T) {
	assert.Equal(t, "OK", ResultOK.String())
	assert.Equal(t, "AccountLogonDenied", ResultAccountLogonDenied.String())
	assert.Equal(t, "Result(999)", Result(999).String())
}

func TestChatEntryTypeString(t *testing.T) {
	assert.Equal(t, "ChatMsg", ChatMsg.String())
	assert.Equal(t, "InviteGame", InviteGame.String())
	assert.Equal(t, "ChatEntryType(5)", ChatEntryType(5).String())
}
