package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Setenv("MINIO_ENDPOINT", "test-endpoint:9000")
	t.Setenv("MINIO_USE_SSL", "true")
	t.Setenv("CACHE_TTL_SECONDS", "60")

	cfg := Load()

	assert.Equal(t, "test-endpoint:9000", cfg.Blob.Endpoint)
	assert.True(t, cfg.Blob.UseSSL)
	assert.Equal(t, 60, cfg.CacheTTLSeconds)
	assert.Equal(t, "8080", cfg.Port)
}

func TestBlobConfigComplete(t *testing.T) {
	cfg := BlobConfig{Endpoint: "e", AccessKey: "a", SecretKey: "s", Bucket: "b"}
	assert.True(t, cfg.Complete())

	cfg.Bucket = ""
	assert.False(t, cfg.Complete())
}

func TestGetEnv(t *testing.T) {
	key := "TEST_ENV_VAR"
	os.Setenv(key, "value")
	defer os.Unsetenv(key)

	assert.Equal(t, "value", getEnv(key, "default"))
	assert.Equal(t, "default", getEnv("NON_EXISTENT", "default"))
}

func TestGetEnvBool(t *testing.T) {
	key := "TEST_BOOL_VAR"

	os.Setenv(key, "true")
	assert.True(t, getEnvBool(key, false))

	os.Setenv(key, "false")
	assert.False(t, getEnvBool(key, true))

	os.Setenv(key, "invalid")
	assert.True(t, getEnvBool(key, true))

	os.Unsetenv(key)
	assert.True(t, getEnvBool(key, true))
}

func TestGetEnvInt(t *testing.T) {
	key := "TEST_INT_VAR"

	os.Setenv(key, "123")
	assert.Equal(t, 123, getEnvInt(key, 0))

	os.Setenv(key, "invalid")
	assert.Equal(t, 10, getEnvInt(key, 10))

	os.Unsetenv(key)
	assert.Equal(t, 10, getEnvInt(key, 10))
}

func TestFileConfigRoundTrip(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	// Missing file reads as an empty config.
	assert.Equal(t, &FileConfig{}, LoadFile())

	want := &FileConfig{
		Endpoint:  "minio.local:9000",
		AccessKey: "ak",
		SecretKey: "sk",
		Bucket:    "memoir",
		UseSSL:    true,
	}
	require.NoError(t, SaveFile(want))

	got := LoadFile()
	assert.Equal(t, want, got)
	assert.True(t, got.Blob().Complete())

	path, err := Path()
	require.NoError(t, err)
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}
