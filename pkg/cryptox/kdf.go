package cryptox

import "golang.org/x/crypto/argon2"

// Argon2id parameters for key derivation. Cheaper than interactive
// password-hashing settings since this runs once per process, not per
// request, but still expensive enough to slow down offline guessing of a
// weak master passphrase.
const (
	kdfIterations  uint32 = 3
	kdfMemory      uint32 = 64 * 1024 // 64 MiB
	kdfParallelism uint8  = 2
	kdfKeyLength   uint32 = 32
)

// DeriveKey stretches arbitrary key material into a 32-byte AES-256 key
// using argon2id. The salt scopes the key to a purpose; it only needs to be
// unique, not secret.
func DeriveKey(material, salt []byte) []byte {
	return argon2.IDKey(material, salt, kdfIterations, kdfMemory, kdfParallelism, kdfKeyLength)
}
