package env

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGetEnvPrefersLoadedFile(t *testing.T) {
	Env = map[string]string{"REVIEW_TEST_KEY": "from-file"}
	t.Cleanup(func() { Env = nil })
	t.Setenv("REVIEW_TEST_KEY", "from-os")

	assert.Equal(t, "from-file", GetEnv("REVIEW_TEST_KEY", "def"))
}

func TestGetEnvFallbacks(t *testing.T) {
	Env = map[string]string{}
	t.Cleanup(func() { Env = nil })
	t.Setenv("REVIEW_TEST_OS", "from-os")

	assert.Equal(t, "from-os", GetEnv("REVIEW_TEST_OS", "def"))
	assert.Equal(t, "def", GetEnv("REVIEW_TEST_MISSING", "def"))
}

func TestTypedGetters(t *testing.T) {
	Env = map[string]string{
		"INT_OK":  "12",
		"INT_BAD": "twelve",
		"BOOL":    "true",
		"DUR":     "45s",
		"DUR_BAD": "soon",
	}
	t.Cleanup(func() { Env = nil })

	assert.Equal(t, 12, GetInt("INT_OK", 1))
	assert.Equal(t, 1, GetInt("INT_BAD", 1))
	assert.True(t, GetBool("BOOL", false))
	assert.Equal(t, 45*time.Second, GetDuration("DUR", time.Second))
	assert.Equal(t, time.Second, GetDuration("DUR_BAD", time.Second))
	assert.Equal(t, time.Minute, GetDuration("DUR_MISSING", time.Minute))
}
