package whitepay

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestVerifySignature(t *testing.T) {
	secret := "test-secret"
	body := []byte(`{"order":{"external_order_id":"42","status":"COMPLETE"}}`)
	sig := Signature(body, secret)

	require.True(t, VerifySignature(body, secret, sig))

	t.Run("body tampered", func(t *testing.T) {
		mutated := append([]byte(nil), body...)
		mutated[10] ^= 0x01
		require.False(t, VerifySignature(mutated, secret, sig))
	})

	t.Run("signature tampered", func(t *testing.T) {
		bad := []byte(sig)
		if bad[0] == 'a' {
			bad[0] = 'b'
		} else {
			bad[0] = 'a'
		}
		require.False(t, VerifySignature(body, secret, string(bad)))
	})

	t.Run("wrong secret", func(t *testing.T) {
		require.False(t, VerifySignature(body, "other-secret", sig))
	})

	t.Run("empty signature", func(t *testing.T) {
		require.False(t, VerifySignature(body, secret, ""))
		require.False(t, VerifySignature(body, secret, "   "))
	})

	t.Run("empty secret", func(t *testing.T) {
		require.False(t, VerifySignature(body, "", Signature(body, "")))
	})

	t.Run("whitespace around header value", func(t *testing.T) {
		require.True(t, VerifySignature(body, secret, " "+sig+" "))
	})
}

func TestSignatureIsHexSHA256(t *testing.T) {
	sig := Signature([]byte("x"), "k")
	require.Len(t, sig, 64)
}
