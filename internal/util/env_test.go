package util

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGetEnvHelpers(t *testing.T) {
	t.Setenv("NECRO_STR", "value")
	t.Setenv("NECRO_EMPTY", "")
	t.Setenv("NECRO_INT", "12")
	t.Setenv("NECRO_BAD_INT", "twelve")
	t.Setenv("NECRO_FLOAT", "2.5")
	t.Setenv("NECRO_BOOL", "true")
	t.Setenv("NECRO_BAD_BOOL", "yes")

	assert.Equal(t, "value", GetEnv("NECRO_STR"))
	assert.Equal(t, "", GetEnv("NECRO_MISSING"))

	assert.Equal(t, "value", GetEnvString("NECRO_STR", "def"))
	assert.Equal(t, "def", GetEnvString("NECRO_EMPTY", "def"))
	assert.Equal(t, "def", GetEnvString("NECRO_MISSING", "def"))

	assert.Equal(t, 12, GetEnvInt("NECRO_INT", 3))
	assert.Equal(t, 3, GetEnvInt("NECRO_BAD_INT", 3))
	assert.Equal(t, 3, GetEnvInt("NECRO_MISSING", 3))

	assert.Equal(t, 2.5, GetEnvNumeric("NECRO_FLOAT", 1))
	assert.Equal(t, 1.0, GetEnvNumeric("NECRO_BAD_INT", 1))

	assert.Equal(t, 2500*time.Millisecond, GetEnvSeconds("NECRO_FLOAT", time.Second))
	assert.Equal(t, time.Second, GetEnvSeconds("NECRO_BAD_INT", time.Second))

	assert.True(t, GetEnvBool("NECRO_BOOL", false))
	assert.False(t, GetEnvBool("NECRO_BAD_BOOL", false))
	assert.True(t, GetEnvBool("NECRO_MISSING", true))
}
