package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/arbor/internal/projector"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := File(t.TempDir())
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_MissingFileYieldsDefaults(t *testing.T) {
	t.Parallel()
	cfg, err := Load(File(t.TempDir()))
	require.NoError(t, err)
	assert.Equal(t, projector.Structural, cfg.Mode())
	assert.Empty(t, cfg.FilterPath())
	assert.Empty(t, cfg.JournalPath())
	assert.Empty(t, cfg.Languages)
}

func TestLoad_ParsesFields(t *testing.T) {
	t.Parallel()
	path := writeConfig(t, `
default_mode: forEachChild
languages:
  .es6: javascript
semantic_filter: filters/mine.risor
journal: /var/tmp/arbor.db
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, projector.Semantic, cfg.Mode())
	assert.Equal(t, map[string]string{".es6": "javascript"}, cfg.Languages)
	assert.Equal(t, filepath.Join(filepath.Dir(path), "filters", "mine.risor"), cfg.FilterPath())
	assert.Equal(t, "/var/tmp/arbor.db", cfg.JournalPath())
}

func TestLoad_EmptyModeDefaultsToStructural(t *testing.T) {
	t.Parallel()
	cfg, err := Load(writeConfig(t, "journal: j.db\n"))
	require.NoError(t, err)
	assert.Equal(t, projector.Structural, cfg.Mode())
}

func TestLoad_Invalid(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"bad yaml":     "default_mode: [",
		"bad mode":     "default_mode: sideways\n",
		"bad language": "languages:\n  .x: cobol\n",
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			_, err := Load(writeConfig(t, body))
			assert.Error(t, err)
		})
	}
}

func TestSave_RoundTrip(t *testing.T) {
	t.Parallel()
	path := File(t.TempDir())

	in := &Config{DefaultMode: "semantic", Languages: map[string]string{".h": "cpp"}, Journal: "journal.db"}
	require.NoError(t, Save(in, path))

	out, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "semantic", out.DefaultMode)
	assert.Equal(t, in.Languages, out.Languages)
	assert.Equal(t, filepath.Join(filepath.Dir(path), "journal.db"), out.JournalPath())

	assert.Error(t, Save(nil, path))
}
