package report

import (
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

func newTestOutput(t *testing.T, htmlOut bool) (*Output, afero.Fs) {
	t.Helper()
	fs := afero.NewMemMapFs()
	o, err := New(fs, "Releases", "Contoso", "1.2.0", htmlOut)
	require.NoError(t, err)
	return o, fs
}

func TestNew_WritesSkeleton(t *testing.T) {
	o, _ := newTestOutput(t, false)
	require.Equal(t, "Releases/Contoso-v1.2.0.md", o.Path())

	content, err := o.Read()
	require.NoError(t, err)
	require.Contains(t, content, "# Release Notes for Contoso version v1.2.0")
	require.Contains(t, content, summaryPlaceholder)
	require.Contains(t, content, tocPlaceholder)
}

func TestNew_ReplacesPreviousFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	o, err := New(fs, "Releases", "Contoso", "1.2.0", false)
	require.NoError(t, err)
	require.NoError(t, o.Write("stale run\n"))

	o, err = New(fs, "Releases", "Contoso", "1.2.0", false)
	require.NoError(t, err)
	content, err := o.Read()
	require.NoError(t, err)
	require.NotContains(t, content, "stale run")
}

func TestOutput_WriteAppends(t *testing.T) {
	o, _ := newTestOutput(t, false)
	require.NoError(t, o.Write("## Bugs\n"))
	require.NoError(t, o.Write("- fixed login\n"))

	content, err := o.Read()
	require.NoError(t, err)
	require.Less(t, strings.Index(content, "## Bugs"), strings.Index(content, "- fixed login"))
}

func TestOutput_SetSummary(t *testing.T) {
	o, _ := newTestOutput(t, false)
	require.NoError(t, o.SetSummary("Shipped the big one."))

	content, err := o.Read()
	require.NoError(t, err)
	require.Contains(t, content, "Shipped the big one.")
	require.NotContains(t, content, summaryPlaceholder)

	// Substituting again is a no-op; the summary is not duplicated.
	require.NoError(t, o.SetSummary("Shipped the big one."))
	content, err = o.Read()
	require.NoError(t, err)
	require.Equal(t, 1, strings.Count(content, "Shipped the big one."))
}

func TestOutput_SetTOC(t *testing.T) {
	o, _ := newTestOutput(t, false)
	o.AddHeader("Bugs")
	o.AddHeader("User Stories")
	require.NoError(t, o.SetTOC())

	content, err := o.Read()
	require.NoError(t, err)
	require.Contains(t, content, "- [Bugs](#bugs)")
	require.Contains(t, content, "- [User Stories](#user-stories)")
	require.NotContains(t, content, tocPlaceholder)
}

func TestOutput_FinalizeHTML(t *testing.T) {
	o, fs := newTestOutput(t, true)
	require.NoError(t, o.SetSummary("All good."))
	require.NoError(t, o.SetTOC())
	require.NoError(t, o.Finalize())

	raw, err := afero.ReadFile(fs, "Releases/Contoso-v1.2.0.html")
	require.NoError(t, err)
	require.Contains(t, string(raw), "<h1")
	require.Contains(t, string(raw), "All good.")
}

func TestOutput_FinalizeDisabled(t *testing.T) {
	o, fs := newTestOutput(t, false)
	require.NoError(t, o.Finalize())

	exists, err := afero.Exists(fs, "Releases/Contoso-v1.2.0.html")
	require.NoError(t, err)
	require.False(t, exists)
}

func TestTableOfContents(t *testing.T) {
	require.Empty(t, TableOfContents(nil))

	got := TableOfContents([]string{"Bugs", "Pull Requests", "Other"})
	want := "- [Bugs](#bugs)\n- [Pull Requests](#pull-requests)\n- [Other](#other)\n"
	require.Equal(t, want, got)
}
