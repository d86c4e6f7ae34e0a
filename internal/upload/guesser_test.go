package upload

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGuess_AllThreeSignalsAgree(t *testing.T) {
	f := NewUploadedFile("photo.png", []byte("irrelevant"), Declared{ContentType: "image/png"})
	f.Detection.SignatureMime = "image/png"
	f.Detection.Extensions = []string{"png"}

	Guess(f)

	require.Equal(t, "image/png", f.Detection.GuessedMime)
	assert.Equal(t, 3, f.Validation.GuessingScores["image/png"])
	assert.Equal(t, 3, f.Validation.TotalPointsOverall)
}

func TestGuess_TieBreaksLexicographically(t *testing.T) {
	f := NewUploadedFile("x.bin", []byte("irrelevant"), Declared{ContentType: "audio/mpeg"})
	f.Detection.SignatureMime = "video/mp4"
	f.Detection.Extensions = []string{"png"} // -> image/png

	Guess(f)

	// audio/mpeg, video/mp4, image/png each get exactly one point; the
	// lexicographically smallest known type among the tied maxima wins.
	assert.Equal(t, 1, f.Validation.GuessingScores["audio/mpeg"])
	assert.Equal(t, 1, f.Validation.GuessingScores["video/mp4"])
	assert.Equal(t, 1, f.Validation.GuessingScores["image/png"])
	assert.Equal(t, "audio/mpeg", f.Detection.GuessedMime)
}

func TestGuess_UnknownSignalsScoreNothing(t *testing.T) {
	f := NewUploadedFile("x.unknownext", []byte("irrelevant"), Declared{ContentType: "application/x-nonsense"})
	f.Detection.SignatureMime = "application/x-nonsense"
	f.Detection.Extensions = []string{"unknownext"}

	Guess(f)

	assert.Equal(t, 3, f.Validation.TotalPointsOverall)
	for _, score := range f.Validation.GuessingScores {
		assert.Equal(t, 0, score)
	}
}
