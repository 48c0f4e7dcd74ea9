package cryptox

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncryptDecryptSecret(t *testing.T) {
	t.Setenv("DIRAUTH_MASTER_KEY", "test-master-passphrase")
	ResetMasterKeyForTesting()
	t.Cleanup(ResetMasterKeyForTesting)

	plaintext := []byte("eyJhbGciOiJSUzI1NiJ9.fake.token")

	sealed, err := EncryptSecret(plaintext)
	require.NoError(t, err)
	require.NotEqual(t, plaintext, sealed)

	opened, err := DecryptSecret(sealed)
	require.NoError(t, err)
	require.Equal(t, plaintext, opened)
}

func TestEncryptSecretUniqueNonces(t *testing.T) {
	t.Setenv("DIRAUTH_MASTER_KEY", "test-master-passphrase")
	ResetMasterKeyForTesting()
	t.Cleanup(ResetMasterKeyForTesting)

	a, err := EncryptSecret([]byte("same input"))
	require.NoError(t, err)
	b, err := EncryptSecret([]byte("same input"))
	require.NoError(t, err)

	// Random nonce per call, so identical plaintexts never seal the same.
	require.NotEqual(t, a, b)
}

func TestDecryptSecretRejectsTampering(t *testing.T) {
	t.Setenv("DIRAUTH_MASTER_KEY", "test-master-passphrase")
	ResetMasterKeyForTesting()
	t.Cleanup(ResetMasterKeyForTesting)

	sealed, err := EncryptSecret([]byte("secret"))
	require.NoError(t, err)

	sealed[len(sealed)-1] ^= 0xff
	_, err = DecryptSecret(sealed)
	require.Error(t, err)
}

func TestDecryptSecretRejectsShortCiphertext(t *testing.T) {
	t.Setenv("DIRAUTH_MASTER_KEY", "test-master-passphrase")
	ResetMasterKeyForTesting()
	t.Cleanup(ResetMasterKeyForTesting)

	_, err := DecryptSecret([]byte{0x01, 0x02})
	require.Error(t, err)
}
