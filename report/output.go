// Package report writes the generated changelog: a Markdown file built up
// incrementally, with summary and table-of-contents placeholders substituted
// at the end, and an optional HTML rendering.
package report

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
	"github.com/spf13/afero"
)

const (
	summaryPlaceholder = "<NOTESSUMMARY>"
	tocPlaceholder     = "<TABLEOFCONTENTS>"

	appendFlags = os.O_WRONLY | os.O_APPEND
)

// Output manages the changelog file for one release.
type Output struct {
	fs      afero.Fs
	path    string
	html    bool
	headers []string
}

// New creates the output folder and the changelog file
// "<name>-v<version>.md" with its initial skeleton, replacing any previous
// file for the same release.
func New(fs afero.Fs, folder, name, version string, htmlOut bool) (*Output, error) {
	if err := fs.MkdirAll(folder, 0o755); err != nil {
		return nil, fmt.Errorf("create output folder %s: %w", folder, err)
	}

	path := filepath.Join(folder, fmt.Sprintf("%s-v%s.md", name, version))
	o := &Output{fs: fs, path: path, html: htmlOut}

	initial := fmt.Sprintf("# Release Notes for %s version v%s\n\n## Summary\n\n%s\n\n## Quick Links\n\n%s\n\n",
		name, version, summaryPlaceholder, tocPlaceholder)
	if err := afero.WriteFile(fs, path, []byte(initial), 0o644); err != nil {
		return nil, fmt.Errorf("initialize output file %s: %w", path, err)
	}
	return o, nil
}

// Path returns the Markdown file path.
func (o *Output) Path() string { return o.path }

// Write appends content to the changelog.
func (o *Output) Write(content string) error {
	f, err := o.fs.OpenFile(o.path, appendFlags, 0o644)
	if err != nil {
		return fmt.Errorf("open output file: %w", err)
	}
	defer f.Close()
	if _, err := f.WriteString(content); err != nil {
		return fmt.Errorf("write output file: %w", err)
	}
	return nil
}

// AddHeader records a section header for the table of contents.
func (o *Output) AddHeader(header string) {
	o.headers = append(o.headers, header)
}

// Read returns the current content of the changelog.
func (o *Output) Read() (string, error) {
	raw, err := afero.ReadFile(o.fs, o.path)
	if err != nil {
		return "", fmt.Errorf("read output file: %w", err)
	}
	return string(raw), nil
}

// SetSummary substitutes the release summary into the skeleton. An empty
// summary leaves a blank section rather than the placeholder.
func (o *Output) SetSummary(summary string) error {
	return o.replace(summaryPlaceholder, summary)
}

// SetTOC substitutes the table of contents built from the recorded section
// headers.
func (o *Output) SetTOC() error {
	return o.replace(tocPlaceholder, TableOfContents(o.headers))
}

func (o *Output) replace(placeholder, value string) error {
	content, err := o.Read()
	if err != nil {
		return err
	}
	content = strings.ReplaceAll(content, placeholder, value)
	if err := afero.WriteFile(o.fs, o.path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("rewrite output file: %w", err)
	}
	return nil
}

// Finalize converts the Markdown to a sibling .html file when HTML output is
// enabled.
func (o *Output) Finalize() error {
	if !o.html {
		return nil
	}
	content, err := o.Read()
	if err != nil {
		return err
	}

	p := parser.NewWithExtensions(parser.CommonExtensions | parser.AutoHeadingIDs)
	renderer := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags})
	rendered := markdown.ToHTML([]byte(content), p, renderer)

	htmlPath := strings.TrimSuffix(o.path, filepath.Ext(o.path)) + ".html"
	if err := afero.WriteFile(o.fs, htmlPath, rendered, 0o644); err != nil {
		return fmt.Errorf("write html output %s: %w", htmlPath, err)
	}
	slog.Info("wrote html output", "path", htmlPath)
	return nil
}
