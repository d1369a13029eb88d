package report

import (
	"bytes"
	"testing"

	"github.com/joeycumines/grain/internal/grain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	warning = grain.Diagnostic{Severity: grain.SeverityWarning, Kind: grain.KindDefine, ID: "view", Unresolved: []string{"missing"}}
	failure = grain.Diagnostic{Severity: grain.SeverityError, Kind: grain.KindRequire, ID: "0", Unresolved: []string{"view"}}
)

func TestParseColorMode(t *testing.T) {
	t.Parallel()
	for in, want := range map[string]ColorMode{"": ColorAuto, "AUTO": ColorAuto, "always": ColorAlways, " never ": ColorNever} {
		got, err := ParseColorMode(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseColorMode("sometimes")
	require.Error(t, err)
}

func TestSummary_Failed(t *testing.T) {
	t.Parallel()
	assert.False(t, Summary{Ready: true}.Failed())
	assert.False(t, Summary{Ready: true, Diagnostics: []grain.Diagnostic{warning}}.Failed())
	assert.True(t, Summary{Ready: true, Diagnostics: []grain.Diagnostic{warning}, Strict: true}.Failed())
	assert.True(t, Summary{Ready: true, Diagnostics: []grain.Diagnostic{failure}}.Failed())
}

func TestPrinter_Plain(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	p := NewPrinter(&buf, ColorNever)

	require.NoError(t, p.Print(Summary{
		Page:        "Dashboard",
		Ready:       true,
		Modules:     1,
		Diagnostics: []grain.Diagnostic{warning, failure},
	}))

	assert.Equal(t, `[warning][define]: "view" did fail load. (values "missing")
[error][require]: "0" did fail load. (values "view")
FAIL Dashboard: 1 module resolved, 1 warning, 1 error
`, buf.String())
}

func TestPrinter_NotReady(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	require.NoError(t, NewPrinter(&buf, ColorAuto).Print(Summary{
		Page:     "p",
		Modules:  3,
		Buffered: 2,
		Pending:  1,
	}))
	assert.Equal(t, "ok p: 3 modules resolved, not ready, 2 requires buffered, 1 operation waiting\n", buf.String())
}

func TestPrinter_Color(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	require.NoError(t, NewPrinter(&buf, ColorAlways).Diagnostic(failure))
	assert.Contains(t, buf.String(), "\x1b[")
	assert.Contains(t, buf.String(), failure.String())
}
