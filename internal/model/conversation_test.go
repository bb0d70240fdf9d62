package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizePair(t *testing.T) {
	t.Run("orders participants ascending", func(t *testing.T) {
		a, b := NormalizePair(7, 3)
		assert.Equal(t, uint(3), a)
		assert.Equal(t, uint(7), b)
	})

	t.Run("keeps already ordered pair", func(t *testing.T) {
		a, b := NormalizePair(3, 7)
		assert.Equal(t, uint(3), a)
		assert.Equal(t, uint(7), b)
	})

	t.Run("both orders normalize identically", func(t *testing.T) {
		a1, b1 := NormalizePair(42, 9)
		a2, b2 := NormalizePair(9, 42)
		assert.Equal(t, a1, a2)
		assert.Equal(t, b1, b2)
	})
}

func TestConversationParticipants(t *testing.T) {
	conv := Conversation{ParticipantAID: 3, ParticipantBID: 7}

	t.Run("HasParticipant", func(t *testing.T) {
		assert.True(t, conv.HasParticipant(3))
		assert.True(t, conv.HasParticipant(7))
		assert.False(t, conv.HasParticipant(5))
	})

	t.Run("OtherParticipant", func(t *testing.T) {
		assert.Equal(t, uint(7), conv.OtherParticipant(3))
		assert.Equal(t, uint(3), conv.OtherParticipant(7))
	})
}
