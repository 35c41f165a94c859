// Package capture turns the inputs a caller can hand us (raw page markup,
// Markdown or plain text, plus page metadata) into render requests.
package capture

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/arran4/quotecard"
	"github.com/arran4/quotecard/sanitize"
)

// ErrNoSelection is returned when the input has no text at all.
var ErrNoSelection = errors.New("capture: nothing selected")

// Page is the metadata of the page a selection came from.
type Page struct {
	Title          string
	URL            string
	FaviconDataURI string
}

// Selection is a captured quote: plain text and, when the source had
// structure, sanitized markup.
type Selection struct {
	Text string
	HTML string
	Page Page
}

var markdown = goldmark.New(goldmark.WithExtensions(extension.GFM))

// FromHTML sanitizes raw page markup and derives the plain-text fallback
// from what survives.
func FromHTML(markup string, page Page) (Selection, error) {
	clean, err := sanitize.HTML(markup, sanitize.DefaultPolicy())
	if errors.Is(err, sanitize.ErrEmptySelection) {
		return Selection{}, ErrNoSelection
	}
	if err != nil {
		return Selection{}, fmt.Errorf("capture: %w", err)
	}
	text, err := sanitize.Text(clean)
	if err != nil {
		return Selection{}, fmt.Errorf("capture: %w", err)
	}
	if text == "" {
		return Selection{}, ErrNoSelection
	}
	return Selection{Text: text, HTML: clean, Page: page}, nil
}

// FromMarkdown converts Markdown to HTML and sanitizes the result.
func FromMarkdown(src []byte, page Page) (Selection, error) {
	var buf bytes.Buffer
	if err := markdown.Convert(src, &buf); err != nil {
		return Selection{}, fmt.Errorf("capture: markdown: %w", err)
	}
	return FromHTML(buf.String(), page)
}

// FromText wraps plain text.
func FromText(text string, page Page) (Selection, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Selection{}, ErrNoSelection
	}
	return Selection{Text: text, Page: page}, nil
}

// Request builds a render request for sel, generating an id when id is empty.
func (s Selection) Request(id string, override *quotecard.SettingsOverride) quotecard.RenderRequest {
	if id == "" {
		id = uuid.NewString()
	}
	return quotecard.RenderRequest{
		ID:               id,
		Text:             s.Text,
		HTML:             s.HTML,
		SourceTitle:      s.Page.Title,
		SourceURL:        s.Page.URL,
		FaviconDataURI:   s.Page.FaviconDataURI,
		CreatedAt:        time.Now().UnixMilli(),
		SettingsOverride: override,
	}
}

// FaviconFile reads an image file and returns it as a data URI.
func FaviconFile(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	mime := http.DetectContentType(b)
	if !strings.HasPrefix(mime, "image/") {
		return "", fmt.Errorf("capture: %s is not an image (%s)", path, mime)
	}
	return quotecard.DataURI(mime, b), nil
}
