package crypto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKey = "0123456789abcdef0123456789abcdef"

func TestEncryptor_RoundTrip(t *testing.T) {
	enc, err := NewEncryptor(testKey)
	require.NoError(t, err)

	sealed, err := enc.Seal("content-1", []byte("s3://media/content-1.mp4"))
	require.NoError(t, err)
	assert.NotContains(t, sealed, "media")

	plain, err := enc.Open("content-1", sealed)
	require.NoError(t, err)
	assert.Equal(t, "s3://media/content-1.mp4", string(plain))
}

func TestEncryptor_NonceIsRandom(t *testing.T) {
	enc, err := NewEncryptor(testKey)
	require.NoError(t, err)

	a, err := enc.Seal("c", []byte("same"))
	require.NoError(t, err)
	b, err := enc.Seal("c", []byte("same"))
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestEncryptor_Rejects(t *testing.T) {
	enc, err := NewEncryptor(testKey)
	require.NoError(t, err)
	sealed, err := enc.Seal("content-1", []byte("location"))
	require.NoError(t, err)

	_, err = enc.Open("content-2", sealed)
	assert.Error(t, err, "ciphertext must be bound to its owner")

	_, err = enc.Open("content-1", "not base64!")
	assert.Error(t, err)

	_, err = enc.Open("content-1", "c2hvcnQ=")
	assert.Error(t, err)

	other, err := NewEncryptor("fedcba9876543210fedcba9876543210")
	require.NoError(t, err)
	_, err = other.Open("content-1", sealed)
	assert.Error(t, err)
}

func TestNewEncryptor_KeyLength(t *testing.T) {
	_, err := NewEncryptor("short")
	assert.Error(t, err)
}
