package prefixed_uuid

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAndString(t *testing.T) {
	id := New("req")

	assert.Equal(t, "req", id.Prefix)
	assert.True(t, strings.HasPrefix(id.String(), "req-"))

	// Two generated IDs never collide.
	assert.NotEqual(t, id.String(), New("req").String())
}

func TestFromStringRoundTrip(t *testing.T) {
	id := New("sess")

	parsed, err := FromString(id.String())
	require.NoError(t, err)
	assert.Equal(t, id, parsed)
}

func TestFromStringErrors(t *testing.T) {
	_, err := FromString("noprefix")
	assert.Error(t, err)

	_, err = FromString("req-not-a-uuid")
	assert.Error(t, err)
}
