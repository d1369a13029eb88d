package manifest

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	t.Parallel()
	m, err := Parse([]byte(`
title: Dashboard
scripts:
  - lib/model.js
  - /abs/view.js
  - name: boot
    code: |
      Grain([], function () {});
`), "/srv/page")
	require.NoError(t, err)

	assert.Equal(t, "Dashboard", m.Title)
	assert.Equal(t, ReadyAuto, m.Ready)
	require.Len(t, m.Scripts, 3)
	assert.Equal(t, Script{Src: "lib/model.js"}, m.Scripts[0])
	assert.Equal(t, "boot", m.Scripts[2].Label())
	assert.Contains(t, m.Scripts[2].Code, "Grain([]")

	assert.Equal(t, filepath.Join("/srv/page", "lib/model.js"), m.Path(m.Scripts[0]))
	assert.Equal(t, "/abs/view.js", m.Path(m.Scripts[1]))
	assert.Equal(t, "", m.Path(m.Scripts[2]))
}

func TestParse_Errors(t *testing.T) {
	t.Parallel()
	for _, tc := range []struct {
		name, data, want string
	}{
		{"empty", "  \n", "payload is empty"},
		{"unknown field", "scripts: [a.js]\nscript: b.js\n", "decode"},
		{"bad ready", "ready: later\nscripts: [a.js]\n", "ready must be"},
		{"no scripts", "title: nothing\n", "no scripts"},
		{"src and code", "scripts:\n  - src: a.js\n    code: '1'\n", "exactly one of src and code"},
		{"neither", "scripts:\n  - name: blank\n", "script 0 (blank)"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := Parse([]byte(tc.data), "")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
			assert.Equal(t, 1, strings.Count(err.Error(), "manifest:"), err.Error())
		})
	}
}

func TestLoad(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := filepath.Join(dir, "page.yaml")
	require.NoError(t, os.WriteFile(path, []byte("ready: manual\nscripts: [app.js]\n"), 0o644))

	m, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ReadyManual, m.Ready)
	assert.Equal(t, filepath.Join(dir, "app.js"), m.Path(m.Scripts[0]))

	_, err = Load(filepath.Join(dir, "missing.yaml"))
	require.Error(t, err)

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("scripts: [a.js]\nscript: b.js\n"), 0o644))
	_, err = Load(bad)
	require.Error(t, err)
	assert.True(t, strings.HasPrefix(err.Error(), "manifest: "+bad+": decode: "), err.Error())
}

func TestFromScriptsAndIsManifest(t *testing.T) {
	t.Parallel()
	m := FromScripts("a.js", "b.js")
	require.NoError(t, m.Validate())
	assert.Equal(t, []Script{{Src: "a.js"}, {Src: "b.js"}}, m.Scripts)
	assert.Equal(t, "a.js", m.Path(m.Scripts[0]))

	assert.True(t, IsManifest("page.YAML"))
	assert.True(t, IsManifest("page.yml"))
	assert.False(t, IsManifest("page.js"))
}
