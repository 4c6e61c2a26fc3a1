package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateConfigWithTask(t *testing.T) {
	path := t.TempDir() + "/config.toml"

	err := CreateConfigWithTask(path, "default", "https://example.com", "/home/user/sync", "cloudreve:///")
	require.NoError(t, err)

	data, readErr := os.ReadFile(path)
	require.NoError(t, readErr)
	assert.Contains(t, string(data), `[task.default]`)
	assert.Contains(t, string(data), `base_url = "https://example.com"`)
}

func TestAppendTaskSection(t *testing.T) {
	path := t.TempDir() + "/config.toml"
	require.NoError(t, CreateConfigWithTask(path, "one", "https://a.example.com", "/a", "cloudreve:///"))
	require.NoError(t, AppendTaskSection(path, "two", "https://b.example.com", "/b", "cloudreve:///"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `[task.one]`)
	assert.Contains(t, string(data), `[task.two]`)
}

func TestSetTaskKey_InsertsNewKey(t *testing.T) {
	path := t.TempDir() + "/config.toml"
	require.NoError(t, CreateConfigWithTask(path, "default", "https://example.com", "/a", "cloudreve:///"))
	require.NoError(t, SetTaskKey(path, "default", "paused", "true"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "paused = true")
}

func TestSetTaskKey_ReplacesExistingKey(t *testing.T) {
	path := t.TempDir() + "/config.toml"
	require.NoError(t, CreateConfigWithTask(path, "default", "https://example.com", "/a", "cloudreve:///"))
	require.NoError(t, SetTaskKey(path, "default", "base_url", "https://changed.example.com"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `base_url = "https://changed.example.com"`)
	assert.NotContains(t, string(data), `"https://example.com"`)
}

func TestDeleteTaskKey_Idempotent(t *testing.T) {
	path := t.TempDir() + "/config.toml"
	require.NoError(t, CreateConfigWithTask(path, "default", "https://example.com", "/a", "cloudreve:///"))

	require.NoError(t, DeleteTaskKey(path, "default", "paused"))
	require.NoError(t, DeleteTaskKey(path, "default", "paused"))
}

func TestDeleteTaskSection(t *testing.T) {
	path := t.TempDir() + "/config.toml"
	require.NoError(t, CreateConfigWithTask(path, "one", "https://a.example.com", "/a", "cloudreve:///"))
	require.NoError(t, AppendTaskSection(path, "two", "https://b.example.com", "/b", "cloudreve:///"))

	require.NoError(t, DeleteTaskSection(path, "one"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), `[task.one]`)
	assert.Contains(t, string(data), `[task.two]`)
}

func TestSetTaskKey_MissingSection(t *testing.T) {
	path := t.TempDir() + "/config.toml"
	require.NoError(t, CreateConfigWithTask(path, "default", "https://example.com", "/a", "cloudreve:///"))

	err := SetTaskKey(path, "missing", "paused", "true")
	assert.Error(t, err)
}
