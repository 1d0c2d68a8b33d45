package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewMembershipIDFormat(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		id := NewMembershipID()
		assert.Regexp(t, `^MEM[0-9A-F]{12}$`, id)
		assert.False(t, seen[id], "membership IDs must not repeat")
		seen[id] = true
	}
}

func TestNewTicketNumberFormat(t *testing.T) {
	assert.Regexp(t, `^XKYS-[0-9A-F]{8}$`, NewTicketNumber())
}

func TestNewNullString(t *testing.T) {
	assert.Nil(t, NewNullString(""))
	s := NewNullString("hello")
	assert.NotNil(t, s)
	assert.Equal(t, "hello", *s)
}
