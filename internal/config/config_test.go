package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "missing.toml"))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 1200, cfg.RAG.ChunkMaxChars)
	assert.Equal(t, 50, cfg.RAG.EmbeddingBatchSize)
	assert.Equal(t, 8, cfg.RAG.MatchCount)
	assert.False(t, cfg.RAG.AtomicReingest)
	assert.Equal(t, "text-embedding-3-small", cfg.LLM.EmbeddingModel)
	assert.Equal(t, 1536, cfg.LLM.EmbeddingDimensions)
	assert.Equal(t, "tenant-docs", cfg.Storage.Bucket)
	assert.Equal(t, 25, cfg.Storage.MaxUploadMB)
}

func TestLoad_TOMLFileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[app]
port = 9090

[rag]
chunk_max_chars = 800
atomic_reingest = true
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("RAG_MATCH_COUNT", "12")
	t.Setenv("APP_PORT", "not-a-number")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.App.Port, "unparseable env keeps file value")
	assert.Equal(t, 800, cfg.RAG.ChunkMaxChars)
	assert.True(t, cfg.RAG.AtomicReingest)
	assert.Equal(t, 12, cfg.RAG.MatchCount)
	assert.Equal(t, "0.0.0.0:9090", cfg.HTTPAddr())
}

func TestLoad_YAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "llm:\n  model: gpt-4o-mini\n  temperature: 0.2\nstorage:\n  bucket: memo-docs\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	t.Setenv("CONFIG_FILE", path)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "gpt-4o-mini", cfg.LLM.Model)
	assert.InDelta(t, 0.2, cfg.LLM.Temperature, 1e-9)
	assert.Equal(t, "memo-docs", cfg.Storage.Bucket)
	assert.Equal(t, "text-embedding-3-small", cfg.LLM.EmbeddingModel)
}

func TestLoad_BadTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[app\nport="), 0o644))
	t.Setenv("CONFIG_FILE", path)

	_, err := Load()
	assert.Error(t, err)
}

func TestPostgresDSN(t *testing.T) {
	cfg := defaultConfig()
	assert.Equal(t,
		"host=127.0.0.1 port=5432 user=postgres password=postgres dbname=creditmemo sslmode=disable",
		cfg.PostgresDSN(),
	)
}
