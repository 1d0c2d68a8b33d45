package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetenvFallback(t *testing.T) {
	assert.Equal(t, "fallback", Getenv("FITNESS_PORTAL_UNSET_VAR", "fallback"))

	t.Setenv("FITNESS_PORTAL_SET_VAR", "value")
	assert.Equal(t, "value", Getenv("FITNESS_PORTAL_SET_VAR", "fallback"))
}

func TestGetenvInt(t *testing.T) {
	assert.Equal(t, 7, GetenvInt("FITNESS_PORTAL_UNSET_INT", 7))

	t.Setenv("FITNESS_PORTAL_INT", "42")
	assert.Equal(t, 42, GetenvInt("FITNESS_PORTAL_INT", 7))

	t.Setenv("FITNESS_PORTAL_BAD_INT", "forty-two")
	assert.Equal(t, 7, GetenvInt("FITNESS_PORTAL_BAD_INT", 7))
}
