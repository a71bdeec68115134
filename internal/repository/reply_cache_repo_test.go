package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFingerprintNormalizeTrims(t *testing.T) {
	fp, err := Fingerprint{
		Participant: "  jane@acme.com ",
		Topic:       " Pricing ",
		ReceivedAt:  " Mon, 11 May 2026 10:00:00 +0000 ",
	}.Normalize()

	require.NoError(t, err)
	assert.Equal(t, "jane@acme.com", fp.Participant)
	assert.Equal(t, "Pricing", fp.Topic)
	assert.Equal(t, "Mon, 11 May 2026 10:00:00 +0000", fp.ReceivedAt)
}

func TestFingerprintNormalizeRejectsPartialKeys(t *testing.T) {
	cases := []Fingerprint{
		{Participant: "", Topic: "t", ReceivedAt: "r"},
		{Participant: "p", Topic: "", ReceivedAt: "r"},
		{Participant: "p", Topic: "t", ReceivedAt: ""},
		{Participant: "   ", Topic: "t", ReceivedAt: "r"},
		{},
	}

	for _, fp := range cases {
		_, err := fp.Normalize()
		assert.ErrorIs(t, err, ErrInvalidCacheKey)
	}
}
