package signal

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrSnakeDoc/marks/internal/domain"
)

func TestEncodeParseRoundTrip(t *testing.T) {
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	raw, err := New("user-1", at).Encode()
	require.NoError(t, err)

	env, err := Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "user-1", env.Owner)
	assert.True(t, env.EmittedAt.Equal(at))
}

func TestParseMalformed(t *testing.T) {
	_, err := Parse([]byte("{not json"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrSignalParse))
}

func TestFor(t *testing.T) {
	env := Envelope{Owner: "user-1"}
	assert.True(t, env.For("user-1"))
	assert.False(t, env.For("user-2"))
	assert.False(t, Envelope{}.For(""), "empty owner never matches")
}
