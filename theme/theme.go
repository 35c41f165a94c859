// Package theme models quote card themes and the registry that holds them.
package theme

import "strings"

// Theme is a named bundle of visual styling applied uniformly to a card.
// Values are read-only once loaded; the slices they carry are shared.
type Theme struct {
	ID           string
	Name         string
	Description  string
	FontFamily   []string // ordered fallback list
	FontFallback string
	FontWeight   int // 100-900
	Background   Background
	Text         TextStyle
	Footer       Footer
	Padding      float64
}

// BaseFamily is the first entry of the font family list.
func (t Theme) BaseFamily() string {
	if len(t.FontFamily) == 0 {
		return ""
	}
	return t.FontFamily[0]
}

type TextStyle struct {
	Color      string
	FontSize   float64
	LineHeight float64
	Glow       *Glow
}

// Glow is a colored zero-offset soft shadow behind the quote text.
type Glow struct {
	Color   string
	Radius  float64
	Opacity float64
}

type Footer struct {
	Enabled  bool
	Color    string
	FontSize float64
	Opacity  float64
}

// Background is one of Solid, Gradient or Image.
type Background interface {
	isBackground()
}

// Solid paints one color.
type Solid struct {
	Color string
}

// Direction is the axis a Gradient runs along.
type Direction int

const (
	Vertical   Direction = iota // top to bottom
	Horizontal                  // left to right
)

func (d Direction) String() string {
	if d == Horizontal {
		return "horizontal"
	}
	return "vertical"
}

// ParseDirection maps "horizontal" to Horizontal and anything else to Vertical.
func ParseDirection(s string) Direction {
	if strings.EqualFold(strings.TrimSpace(s), "horizontal") {
		return Horizontal
	}
	return Vertical
}

// Gradient is a linear gradient through Colors in order. Fallback is the
// background color declared alongside it, used when no stop parses.
type Gradient struct {
	Colors    []string
	Direction Direction
	Fallback  string
}

// Image is a bundled background image, cropped to cover the canvas, with an
// optional translucent overlay. Fallback is painted when the image is missing.
type Image struct {
	URL      string
	Overlay  string
	Fallback string
}

func (Solid) isBackground()    {}
func (Gradient) isBackground() {}
func (Image) isBackground()    {}

// SplitFamily turns a CSS font-family list into bare names.
func SplitFamily(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		name := strings.Trim(strings.TrimSpace(part), `"'`)
		if name != "" {
			out = append(out, name)
		}
	}
	return out
}
