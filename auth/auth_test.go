package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSHA256Hasher_KnownDigest(t *testing.T) {
	req := require.New(t)
	hasher := SHA256Hasher{}

	// Digest computed over the raw UTF-8 bytes, lowercase hex, no salt.
	hash, err := hasher.Hash("password")
	req.NoError(err)
	req.Equal("5e884898da28047151d0e56f8dc6292773603d0d6aabbdd62a11ef721d1542d8", hash)

	// Deterministic: same input, same encoding.
	again, err := hasher.Hash("password")
	req.NoError(err)
	req.Equal(hash, again)
}

func TestSHA256Hasher_Compare(t *testing.T) {
	req := require.New(t)
	hasher := SHA256Hasher{}

	hash, err := hasher.Hash("MonMotDePasseTr0pSûr!")
	req.NoError(err)

	match, err := hasher.Compare("MonMotDePasseTr0pSûr!", hash)
	req.NoError(err)
	req.True(match)

	match, err = hasher.Compare("wrong", hash)
	req.NoError(err)
	req.False(match)
}

func TestArgon2Hasher_HashAndCompare(t *testing.T) {
	req := require.New(t)
	hasher := Argon2Hasher{}
	password := "MonMotDePasseTr0pSûr!"

	hash, err := hasher.Hash(password)
	req.NoError(err)
	req.True(strings.HasPrefix(hash, "$argon2id$"))

	// Salted: two hashes of the same password differ.
	other, err := hasher.Hash(password)
	req.NoError(err)
	req.NotEqual(hash, other)

	match, err := hasher.Compare(password, hash)
	req.NoError(err)
	req.True(match)

	match, err = hasher.Compare("wrong", hash)
	req.NoError(err)
	req.False(match)

	_, err = hasher.Compare(password, "not-an-encoded-hash")
	req.Error(err)
}

func TestHasherFromScheme(t *testing.T) {
	req := require.New(t)

	hasher, err := HasherFromScheme("sha256")
	req.NoError(err)
	req.IsType(SHA256Hasher{}, hasher)

	hasher, err = HasherFromScheme("")
	req.NoError(err)
	req.IsType(SHA256Hasher{}, hasher)

	hasher, err = HasherFromScheme("argon2id")
	req.NoError(err)
	req.IsType(Argon2Hasher{}, hasher)

	_, err = HasherFromScheme("md5")
	req.Error(err)
}

func TestValidateRegister(t *testing.T) {
	t.Run("should accept a plain username and password", func(t *testing.T) {
		req := require.New(t)
		err := ValidateRegister(RegisterRequest{Username: "alice", Password: "pw1"})
		req.NoError(err)
	})

	t.Run("should reject an empty username", func(t *testing.T) {
		req := require.New(t)
		err := ValidateRegister(RegisterRequest{Username: "", Password: "pw1"})
		req.Error(err)
	})

	t.Run("should reject an empty password", func(t *testing.T) {
		req := require.New(t)
		err := ValidateRegister(RegisterRequest{Username: "alice", Password: ""})
		req.Error(err)
	})

	t.Run("should reject usernames carrying the record separator", func(t *testing.T) {
		req := require.New(t)
		err := ValidateRegister(RegisterRequest{Username: "ali:ce", Password: "pw1"})
		req.Error(err)
	})

	t.Run("should reject usernames with spaces or control characters", func(t *testing.T) {
		req := require.New(t)
		req.Error(ValidateRegister(RegisterRequest{Username: "al ice", Password: "pw1"}))
		req.Error(ValidateRegister(RegisterRequest{Username: "al\tice", Password: "pw1"}))
		req.Error(ValidateRegister(RegisterRequest{Username: "al\nice", Password: "pw1"}))
	})

	t.Run("should reject an oversized username", func(t *testing.T) {
		req := require.New(t)
		err := ValidateRegister(RegisterRequest{Username: strings.Repeat("a", 33), Password: "pw1"})
		req.Error(err)
	})
}
