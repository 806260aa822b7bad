package prompts

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const validOverride = "custom\n**Result:**\nx\n**Duration:**\ny\n**Insights:**\nz\n"

func TestDefault_CarriesFormatContract(t *testing.T) {
	s := Default()
	for _, text := range []string{s.RAG(), s.Plain()} {
		require.NoError(t, Validate(text))
	}
	assert.NotEqual(t, s.RAG(), s.Plain())
	assert.Contains(t, s.RAG(), "similar previous cases")
	assert.True(t, strings.HasSuffix(s.RAG(), "\n"), "context is appended directly after the RAG template")
}

func TestValidate_ReportsMissingMarkers(t *testing.T) {
	err := Validate("**Result:** only")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "**Duration:**")
	assert.Contains(t, err.Error(), "**Insights:**")
}

func TestLoad_EmptyDirUsesEmbedded(t *testing.T) {
	s, err := Load("", zaptest.NewLogger(t))
	require.NoError(t, err)
	assert.Equal(t, Default().RAG(), s.RAG())
}

func TestLoad_OverridesPerFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, PlainFile), []byte(validOverride), 0o600))

	s, err := Load(dir, zaptest.NewLogger(t))
	require.NoError(t, err)

	assert.Equal(t, validOverride, s.Plain())
	assert.Equal(t, Default().RAG(), s.RAG())
}

func TestLoad_RejectsInvalidOverride(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, RAGFile), []byte("no markers"), 0o600))

	_, err := Load(dir, zaptest.NewLogger(t))
	require.Error(t, err)
}

func TestReload_KeepsPreviousOnError(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, RAGFile)
	require.NoError(t, os.WriteFile(path, []byte(validOverride), 0o600))

	s, err := Load(dir, zaptest.NewLogger(t))
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(path, []byte("broken"), 0o600))
	require.Error(t, s.Reload())
	assert.Equal(t, validOverride, s.RAG())
}

func TestWatch_RequiresDir(t *testing.T) {
	require.Error(t, Default().Watch(context.Background()))
}

func TestWatch_ReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	s, err := Load(dir, zaptest.NewLogger(t))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, s.Watch(ctx))

	require.NoError(t, os.WriteFile(filepath.Join(dir, PlainFile), []byte(validOverride), 0o600))

	assert.Eventually(t, func() bool {
		return s.Plain() == validOverride
	}, 5*time.Second, 20*time.Millisecond)
}
