package service

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArgon2HashService_HashAndVerify(t *testing.T) {
	svc := NewArgon2HashService()

	secret := "client-secret-8f2d"
	hash, err := svc.Hash(secret)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(hash, "$argon2id$v=19$"))
	assert.Contains(t, hash, "m=65536,t=1,p=4")

	match, err := svc.Verify(secret, hash)
	require.NoError(t, err)
	assert.True(t, match)

	match, err = svc.Verify("other-secret", hash)
	require.NoError(t, err)
	assert.False(t, match)
}

func TestArgon2HashService_UniqueSalts(t *testing.T) {
	svc := NewArgon2HashService()

	hash1, err := svc.Hash("same")
	require.NoError(t, err)
	hash2, err := svc.Hash("same")
	require.NoError(t, err)

	assert.NotEqual(t, hash1, hash2)
}

func TestArgon2HashService_LongSecret(t *testing.T) {
	svc := NewArgon2HashService()

	long := strings.Repeat("a", 1000)
	hash, err := svc.Hash(long)
	require.NoError(t, err)

	match, err := svc.Verify(long, hash)
	require.NoError(t, err)
	assert.True(t, match)
}

func TestArgon2HashService_VerifyRejectsMalformedHashes(t *testing.T) {
	svc := NewArgon2HashService()
	valid, err := svc.Hash("x")
	require.NoError(t, err)
	parts := strings.Split(valid, "$")

	tests := []struct {
		name string
		hash string
	}{
		{"not a hash", "not-a-valid-hash"},
		{"wrong algorithm", strings.Replace(valid, "argon2id", "argon2i", 1)},
		{"wrong version", strings.Replace(valid, "v=19", "v=16", 1)},
		{"zero memory", strings.Replace(valid, "m=65536", "m=0", 1)},
		{"huge memory", strings.Replace(valid, "m=65536", "m=99999999", 1)},
		{"bad salt", "$" + strings.Join([]string{parts[1], parts[2], parts[3], "!!", parts[5]}, "$")},
		{"empty hash", "$" + strings.Join([]string{parts[1], parts[2], parts[3], parts[4], ""}, "$")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Verify("x", tt.hash)
			assert.Error(t, err)
		})
	}
}
