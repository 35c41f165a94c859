package capture

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arran4/quotecard"
)

func TestFromHTML(t *testing.T) {
	sel, err := FromHTML(`<div class="c"><h2>Title</h2><p>Body <b>bold</b><sup class="reference">[1]</sup></p><script>x()</script></div>`, Page{Title: "Wiki"})
	require.NoError(t, err)
	assert.Equal(t, "<strong>Title</strong><p>Body <strong>bold</strong></p>", sel.HTML)
	assert.Equal(t, "TitleBody bold", sel.Text)
	assert.Equal(t, "Wiki", sel.Page.Title)
}

func TestFromHTMLEmpty(t *testing.T) {
	_, err := FromHTML(`<script>only()</script>`, Page{})
	assert.ErrorIs(t, err, ErrNoSelection)
}

func TestFromMarkdown(t *testing.T) {
	sel, err := FromMarkdown([]byte("# Heading\n\nSome *emphasis* and a [link](http://x).\n\n- one\n- two\n"), Page{})
	require.NoError(t, err)
	assert.Contains(t, sel.HTML, "<strong>Heading</strong>")
	assert.Contains(t, sel.HTML, "<em>emphasis</em>")
	assert.Contains(t, sel.HTML, "<ul>")
	assert.NotContains(t, sel.HTML, "href")
	assert.Contains(t, sel.Text, "link")
}

func TestFromText(t *testing.T) {
	sel, err := FromText("  quoted  ", Page{})
	require.NoError(t, err)
	assert.Equal(t, "quoted", sel.Text)
	assert.Empty(t, sel.HTML)

	_, err = FromText(" \n ", Page{})
	assert.ErrorIs(t, err, ErrNoSelection)
}

func TestRequest(t *testing.T) {
	sel := Selection{Text: "t", HTML: "<p>t</p>", Page: Page{Title: "T", URL: "https://example.com"}}
	off := false
	req := sel.Request("", &quotecard.SettingsOverride{IncludeAttribution: &off})
	assert.NotEmpty(t, req.ID)
	assert.Equal(t, "t", req.Text)
	assert.Equal(t, "<p>t</p>", req.HTML)
	assert.Equal(t, "T", req.SourceTitle)
	assert.Equal(t, "https://example.com", req.SourceURL)
	assert.NotZero(t, req.CreatedAt)
	assert.Equal(t, "fixed", sel.Request("fixed", nil).ID)
}

func TestFaviconFile(t *testing.T) {
	dir := t.TempDir()
	png := filepath.Join(dir, "icon.png")
	// 8-byte PNG signature is enough for content sniffing.
	require.NoError(t, os.WriteFile(png, []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), 0o644))
	uri, err := FaviconFile(png)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(uri, "data:image/png;base64,"))

	txt := filepath.Join(dir, "note.txt")
	require.NoError(t, os.WriteFile(txt, []byte("hello"), 0o644))
	_, err = FaviconFile(txt)
	assert.Error(t, err)
}
