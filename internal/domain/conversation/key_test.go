package conversation_test

import (
	"errors"
	"testing"

	"github.com/janhq/knowledge-memory/internal/domain/conversation"
	"github.com/janhq/knowledge-memory/internal/utils/platformerrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseThreadKey(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want conversation.ThreadKey
	}{
		{
			name: "three components",
			raw:  "slack-C1-U1",
			want: conversation.ThreadKey{Source: "slack", Channel: "C1", User: "U1"},
		},
		{
			name: "with subthread",
			raw:  "slack-C1-U1-1712345678.000100",
			want: conversation.ThreadKey{Source: "slack", Channel: "C1", User: "U1", Subthread: "1712345678.000100"},
		},
		{
			name: "escaped dash in user",
			raw:  "cli-local-jane%2Ddoe",
			want: conversation.ThreadKey{Source: "cli", Channel: "local", User: "jane-doe"},
		},
		{
			name: "extra components fold into subthread",
			raw:  "slack-C1-U1-a-b",
			want: conversation.ThreadKey{Source: "slack", Channel: "C1", User: "U1", Subthread: "a-b"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := conversation.ParseThreadKey(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseThreadKey_Malformed(t *testing.T) {
	for _, raw := range []string{"", "slack", "slack-C1", "slack--U1", "-C1-U1", "slack-C1-U1-"} {
		t.Run(raw, func(t *testing.T) {
			_, err := conversation.ParseThreadKey(raw)
			require.Error(t, err)
			assert.True(t, errors.Is(err, conversation.ErrMalformedKey))
			assert.Equal(t, platformerrors.ErrorTypeValidation, platformerrors.TypeOf(err))
		})
	}
}

func TestThreadKey_RoundTrip(t *testing.T) {
	keys := []conversation.ThreadKey{
		{Source: "slack", Channel: "C1", User: "U1"},
		{Source: "web", Channel: "team-a", User: "user-42", Subthread: "x-y"},
		{Source: "cli", Channel: "100%", User: "me"},
	}

	for _, key := range keys {
		parsed, err := conversation.ParseThreadKey(key.String())
		require.NoError(t, err)
		assert.Equal(t, key, parsed)
	}
}

func TestThreadKey_LegacyFormatIsCanonical(t *testing.T) {
	key, err := conversation.ParseThreadKey("slack-C1-U1")
	require.NoError(t, err)
	assert.Equal(t, "slack-C1-U1", key.String())
}
