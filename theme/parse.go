package theme

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Document is the declarative theme file.
type Document struct {
	Version int               `json:"version"`
	Themes  []json.RawMessage `json:"themes"`
}

// ParseError explains why one theme entry was skipped.
type ParseError struct {
	Index  int
	ID     string
	Reason string
}

func (e *ParseError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("theme %d (%s): %s", e.Index, e.ID, e.Reason)
	}
	return fmt.Sprintf("theme %d: %s", e.Index, e.Reason)
}

type rawTheme struct {
	ID          *string `json:"id"`
	Name        *string `json:"name"`
	Description string  `json:"description"`
	Font        *struct {
		Family   *string `json:"family"`
		Fallback string  `json:"fallback"`
		Weight   *int    `json:"weight"`
	} `json:"font"`
	Background *struct {
		Type     string  `json:"type"`
		Color    *string `json:"color"`
		Gradient *struct {
			Colors    []string `json:"colors"`
			Direction string   `json:"direction"`
		} `json:"gradient"`
		Image *struct {
			URL     *string `json:"url"`
			Overlay string  `json:"overlay"`
		} `json:"image"`
	} `json:"background"`
	Text *struct {
		Color      *string  `json:"color"`
		FontSize   *float64 `json:"fontSize"`
		LineHeight *float64 `json:"lineHeight"`
		Glow       *struct {
			Color   *string  `json:"color"`
			Radius  *float64 `json:"radius"`
			Opacity *float64 `json:"opacity"`
		} `json:"glow"`
	} `json:"text"`
	Footer *struct {
		Enabled  *bool    `json:"enabled"`
		Color    *string  `json:"color"`
		FontSize float64  `json:"fontSize"`
		Opacity  *float64 `json:"opacity"`
	} `json:"footer"`
	Layout *struct {
		Padding *float64 `json:"padding"`
	} `json:"layout"`
}

const defaultWeight = 500

// ParseDocument decodes a theme document. The returned error is non-nil only
// when the document itself is unreadable; entries that fail validation are
// reported in skipped and left out of themes.
func ParseDocument(data []byte) (themes []Theme, skipped []*ParseError, err error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, nil, fmt.Errorf("theme: decode document: %w", err)
	}
	if doc.Themes == nil {
		return nil, nil, fmt.Errorf("theme: document has no themes array")
	}
	for i, raw := range doc.Themes {
		t, perr := ParseEntry(raw)
		if perr != nil {
			perr.Index = i
			skipped = append(skipped, perr)
			continue
		}
		themes = append(themes, t)
	}
	return themes, skipped, nil
}

// ParseEntry validates one theme entry field by field. A missing required
// field rejects the whole entry; nothing is partially constructed.
func ParseEntry(data []byte) (Theme, *ParseError) {
	var r rawTheme
	if err := json.Unmarshal(data, &r); err != nil {
		return Theme{}, &ParseError{Reason: "malformed entry: " + err.Error()}
	}
	id := ""
	if r.ID != nil {
		id = *r.ID
	}
	fail := func(reason string) (Theme, *ParseError) {
		return Theme{}, &ParseError{ID: id, Reason: reason}
	}

	switch {
	case r.ID == nil || strings.TrimSpace(*r.ID) == "":
		return fail("missing id")
	case r.Name == nil:
		return fail("missing name")
	case r.Font == nil || r.Font.Family == nil:
		return fail("missing font.family")
	case r.Background == nil:
		return fail("missing background")
	case r.Text == nil || r.Text.Color == nil:
		return fail("missing text.color")
	case r.Text.FontSize == nil:
		return fail("missing text.fontSize")
	case r.Text.LineHeight == nil:
		return fail("missing text.lineHeight")
	case r.Footer == nil || r.Footer.Enabled == nil:
		return fail("missing footer.enabled")
	case r.Footer.Color == nil:
		return fail("missing footer.color")
	case r.Footer.Opacity == nil:
		return fail("missing footer.opacity")
	case r.Layout == nil || r.Layout.Padding == nil:
		return fail("missing layout.padding")
	}

	bg, ok := parseBackground(r)
	if !ok {
		return fail("background has no image, gradient or color")
	}

	weight := defaultWeight
	if r.Font.Weight != nil {
		weight = clampWeight(*r.Font.Weight)
	}

	t := Theme{
		ID:           *r.ID,
		Name:         *r.Name,
		Description:  r.Description,
		FontFamily:   SplitFamily(*r.Font.Family),
		FontFallback: r.Font.Fallback,
		FontWeight:   weight,
		Background:   bg,
		Text: TextStyle{
			Color:      *r.Text.Color,
			FontSize:   *r.Text.FontSize,
			LineHeight: *r.Text.LineHeight,
		},
		Footer: Footer{
			Enabled:  *r.Footer.Enabled,
			Color:    *r.Footer.Color,
			FontSize: r.Footer.FontSize,
			Opacity:  *r.Footer.Opacity,
		},
		Padding: *r.Layout.Padding,
	}
	if g := r.Text.Glow; g != nil && g.Color != nil && g.Radius != nil && g.Opacity != nil {
		t.Text.Glow = &Glow{Color: *g.Color, Radius: *g.Radius, Opacity: *g.Opacity}
	}
	return t, nil
}

// parseBackground tries image, then gradient, then solid.
func parseBackground(r rawTheme) (Background, bool) {
	b := r.Background
	fallback := ""
	if b.Color != nil {
		fallback = *b.Color
	}
	if b.Type == "image" && b.Image != nil && b.Image.URL != nil {
		return Image{URL: *b.Image.URL, Overlay: b.Image.Overlay, Fallback: fallback}, true
	}
	if b.Gradient != nil && b.Gradient.Colors != nil {
		return Gradient{
			Colors:    b.Gradient.Colors,
			Direction: ParseDirection(b.Gradient.Direction),
			Fallback:  fallback,
		}, true
	}
	if b.Color != nil {
		return Solid{Color: *b.Color}, true
	}
	return nil, false
}

func clampWeight(w int) int {
	switch {
	case w < 100:
		return 100
	case w > 900:
		return 900
	}
	return w
}
