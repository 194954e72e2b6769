package vault

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testKey = []byte("0123456789abcdef")

func TestNewService(t *testing.T) {
	for _, size := range []int{16, 24, 32} {
		_, err := NewService(make([]byte, size))
		assert.NoError(t, err, "key size %d", size)
	}
	for _, size := range []int{0, 8, 15, 17, 33} {
		_, err := NewService(make([]byte, size))
		assert.Error(t, err, "key size %d", size)
	}
}

func TestEncryptDecrypt(t *testing.T) {
	svc, err := NewService(testKey)
	require.NoError(t, err)

	t.Run("round trip", func(t *testing.T) {
		encrypted, err := svc.Encrypt("4242424242424242")
		require.NoError(t, err)
		assert.NotContains(t, string(encrypted), "4242424242424242")

		plaintext, err := svc.Decrypt(encrypted)
		require.NoError(t, err)
		assert.Equal(t, "4242424242424242", plaintext)
	})

	t.Run("same input encrypts differently each time", func(t *testing.T) {
		a, err := svc.Encrypt("4242424242424242")
		require.NoError(t, err)
		b, err := svc.Encrypt("4242424242424242")
		require.NoError(t, err)
		assert.NotEqual(t, a, b, "IV must be random")
	})

	t.Run("empty input is rejected", func(t *testing.T) {
		_, err := svc.Encrypt("")
		assert.Error(t, err)
	})

	t.Run("truncated ciphertext is rejected", func(t *testing.T) {
		encrypted, err := svc.Encrypt("4242424242424242")
		require.NoError(t, err)

		_, err = svc.Decrypt(encrypted[:8])
		assert.Error(t, err)
		_, err = svc.Decrypt(encrypted[:len(encrypted)-3])
		assert.Error(t, err)
	})

	t.Run("wrong key does not yield the plaintext", func(t *testing.T) {
		encrypted, err := svc.Encrypt("4242424242424242")
		require.NoError(t, err)

		other, err := NewService([]byte("fedcba9876543210"))
		require.NoError(t, err)
		plaintext, err := other.Decrypt(encrypted)
		if err == nil {
			assert.NotEqual(t, "4242424242424242", plaintext)
		}
	})
}

func TestMask(t *testing.T) {
	svc, err := NewService(testKey)
	require.NoError(t, err)

	assert.Equal(t, "**** **** **** 4242", svc.Mask("4242424242424242"))
	assert.Equal(t, "**** **** **** 6789", svc.Mask("1234567806789"))
}
