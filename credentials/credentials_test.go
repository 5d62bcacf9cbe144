package credentials

import (
	"crypto/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testKeyProvider returns a fixed random key without touching the keyring.
type testKeyProvider struct {
	key []byte
}

func (p *testKeyProvider) GetKey() ([]byte, error) { return p.key, nil }
func (p *testKeyProvider) Description() string     { return "test key" }

func newTestStore(t *testing.T) *Store {
	t.Helper()
	key := make([]byte, keyLength)
	_, err := rand.Read(key)
	require.NoError(t, err)

	store, err := newStoreAt(t.TempDir(), &testKeyProvider{key: key})
	require.NoError(t, err)
	return store
}

func TestStore_SaveLoadRoundTrip(t *testing.T) {
	store := newTestStore(t)

	err := store.Save(&Credentials{
		TenantID:     "tenant-abc",
		ClientID:     "client-xyz",
		ClientSecret: "super-secret-value",
		RefreshToken: "refresh-token-value",
	})
	require.NoError(t, err)

	loaded, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, "tenant-abc", loaded.TenantID)
	assert.Equal(t, "client-xyz", loaded.ClientID)
	assert.Equal(t, "super-secret-value", loaded.ClientSecret)
	assert.Equal(t, "refresh-token-value", loaded.RefreshToken)
	assert.False(t, loaded.LastUpdated.IsZero())
}

func TestStore_SecretsEncryptedAtRest(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.Save(&Credentials{
		TenantID:     "tenant",
		ClientID:     "client",
		ClientSecret: "plaintext-secret",
	}))

	raw, err := os.ReadFile(filepath.Join(store.credentialsDir, DefaultCredentialsFile))
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "plaintext-secret")
	assert.Contains(t, string(raw), "tenant")
}

func TestStore_LoadMissingFile(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Load()
	assert.ErrorIs(t, err, ErrNoCredentials)
}

func TestStore_WrongKeyFailsDecryption(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Save(&Credentials{ClientSecret: "secret"}))

	otherKey := make([]byte, keyLength)
	_, err := rand.Read(otherKey)
	require.NoError(t, err)

	other, err := newStoreAt(store.credentialsDir, &testKeyProvider{key: otherKey})
	require.NoError(t, err)

	_, err = other.Load()
	assert.ErrorIs(t, err, ErrEncryptionFailed)
}

func TestStore_DeleteAndExists(t *testing.T) {
	store := newTestStore(t)
	assert.False(t, store.Exists())

	require.NoError(t, store.Save(&Credentials{TenantID: "t"}))
	assert.True(t, store.Exists())

	require.NoError(t, store.Delete())
	assert.False(t, store.Exists())

	// Deleting twice is not an error.
	assert.NoError(t, store.Delete())
}

func TestPassphraseKeyProvider_Deterministic(t *testing.T) {
	salt, err := GenerateSalt()
	require.NoError(t, err)

	p1 := NewPassphraseKeyProvider("correct horse", salt)
	p2 := NewPassphraseKeyProvider("correct horse", salt)

	k1, err := p1.GetKey()
	require.NoError(t, err)
	k2, err := p2.GetKey()
	require.NoError(t, err)
	assert.Equal(t, k1, k2)
	assert.Len(t, k1, keyLength)

	p3 := NewPassphraseKeyProvider("wrong passphrase", salt)
	k3, err := p3.GetKey()
	require.NoError(t, err)
	assert.NotEqual(t, k1, k3)
}

func TestEnvKeyProvider(t *testing.T) {
	t.Setenv("RECAP_TEST_KEY", "")
	p := NewEnvKeyProvider("RECAP_TEST_KEY")
	_, err := p.GetKey()
	assert.Error(t, err)

	t.Setenv("RECAP_TEST_KEY", "00112233445566778899aabbccddeeff00112233445566778899aabbccddeeff")
	key, err := p.GetKey()
	require.NoError(t, err)
	assert.Len(t, key, keyLength)

	t.Setenv("RECAP_TEST_KEY", "deadbeef")
	_, err = p.GetKey()
	assert.Error(t, err)
}

func TestMaskSecret(t *testing.T) {
	assert.Equal(t, "********", MaskSecret("12345678"))
	assert.Equal(t, "abcd************wxyz", MaskSecret("abcdefghijklstuvwxyz"))
	assert.Equal(t, "", MaskSecret(""))
}
