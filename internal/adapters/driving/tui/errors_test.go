package tui

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrors_AreDistinct(t *testing.T) {
	assert.NotEqual(t, ErrMissingChatService.Error(), ErrInvalidPorts.Error())
}

func TestErrMissingChatService_Message(t *testing.T) {
	assert.Contains(t, ErrMissingChatService.Error(), "chat service")
}

func TestErrInvalidPorts_Message(t *testing.T) {
	assert.Contains(t, ErrInvalidPorts.Error(), "invalid ports")
}
