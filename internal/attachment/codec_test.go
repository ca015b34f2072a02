package attachment

import (
	"encoding/base64"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Minimal valid PNG header so content sniffing sees image/png.
var pngBytes = []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A, 0, 0, 0, 0}

func TestEncode(t *testing.T) {
	t.Run("sniffs image media type", func(t *testing.T) {
		att, err := Encode(pngBytes)
		require.NoError(t, err)
		assert.Equal(t, "image/png", att.MIMEType)
		assert.Equal(t, base64.StdEncoding.EncodeToString(pngBytes), att.Data)
	})

	t.Run("rejects empty input", func(t *testing.T) {
		_, err := Encode(nil)
		require.ErrorIs(t, err, ErrDecode)
	})

	t.Run("rejects non-image bytes", func(t *testing.T) {
		_, err := Encode([]byte("just some text, definitely not an image"))
		require.ErrorIs(t, err, ErrDecode)
	})
}

func TestParseDataURI(t *testing.T) {
	payload := base64.StdEncoding.EncodeToString(pngBytes)

	t.Run("extracts payload and media type", func(t *testing.T) {
		att, err := ParseDataURI("data:image/png;base64," + payload)
		require.NoError(t, err)
		assert.Equal(t, "image/png", att.MIMEType)
		assert.Equal(t, payload, att.Data)
	})

	t.Run("rejects missing prefix", func(t *testing.T) {
		_, err := ParseDataURI(payload)
		assert.True(t, errors.Is(err, ErrDecode))
	})

	t.Run("rejects invalid base64", func(t *testing.T) {
		_, err := ParseDataURI("data:image/png;base64,!!!not-base64!!!")
		assert.True(t, errors.Is(err, ErrDecode))
	})
}

func TestDataURIRoundTrip(t *testing.T) {
	att, err := Encode(pngBytes)
	require.NoError(t, err)

	parsed, err := ParseDataURI(att.DataURI())
	require.NoError(t, err)
	assert.Equal(t, att, parsed)

	raw, err := parsed.Bytes()
	require.NoError(t, err)
	assert.Equal(t, pngBytes, raw)
}

func TestIsZero(t *testing.T) {
	assert.True(t, Attachment{}.IsZero())
	assert.False(t, Attachment{Data: "eA==", MIMEType: "image/png"}.IsZero())
}
