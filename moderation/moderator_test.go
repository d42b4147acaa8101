package moderation

import (
	"log/slog"
	"testing"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

const replacementChar = '*'

// The dictionary uses specific words to avoid partial collisions
// (e.g., "he" inside "The")
func TestModerator_Censor(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	dictionary := []string{"scammer", "paypal", "western union"}
	mod, err := NewModerator(dictionary, replacementChar, log)
	req.NoError(err)

	tests := []struct {
		name     string
		input    string
		expected string
		words    []string
	}{
		{
			name:     "Simple word and space preservation",
			input:    "You are a scammer friend",
			expected: "You are a ******* friend",
			words:    []string{"scammer"},
		},
		{
			name:     "Multiple occurrences",
			input:    "paypal or paypal",
			expected: "****** or ******",
			words:    []string{"paypal", "paypal"},
		},
		{
			name:     "Leet speak and internal punctuation",
			input:    "Pay me via p.4.y.p.4.l now",
			expected: "Pay me via *********** now",
			words:    []string{"paypal"},
		},
		{
			name:     "Pattern spanning a space",
			input:    "Send it by Western Union please",
			expected: "Send it by ************* please",
			words:    []string{"westernunion"},
		},
		{
			name:     "Clean message left untouched",
			input:    "Is the bike still available?",
			expected: "Is the bike still available?",
			words:    nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := require.New(t)
			censored, found := mod.Censor(tt.input)
			req.Equal(tt.expected, censored)
			req.Equal(tt.words, found)
		})
	}
}

func TestModerator_Empty_Dictionary_Is_Pass_Through(t *testing.T) {
	req := require.New(t)
	mod, err := NewModerator(nil, replacementChar, logs.GetLoggerFromLevel(slog.LevelDebug))
	req.NoError(err)

	censored, found := mod.Censor("anything goes")
	req.Equal("anything goes", censored)
	req.Empty(found)
}
