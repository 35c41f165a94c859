// Package colors parses the color literals used by quote card themes: hex
// strings (#RRGGBB, #RRGGBBAA) and CSS functional rgb()/rgba() notation.
//
// Parsers return ok=false rather than an error for input they do not
// understand; callers always have a fallback color to hand.
package colors

import (
	"image/color"
	"regexp"
	"strconv"
	"strings"
)

// Color is a straight-alpha color with every channel in the unit range.
type Color struct {
	R, G, B, A float64
}

var _ color.Color = Color{}

var (
	White = Color{1, 1, 1, 1}
	Black = Color{0, 0, 0, 1}
	Gray  = Color{0.5, 0.5, 0.5, 1}
	Clear = Color{}
)

var functionalPattern = regexp.MustCompile(`rgba?\(\s*(\d+)\s*,\s*(\d+)\s*,\s*(\d+)\s*(?:,\s*([\d.]+)\s*)?\)`)

// ParseFunctional parses rgb(r,g,b) or rgba(r,g,b,a). Channels are integers
// in 0-255; alpha defaults to 1.0 when omitted.
func ParseFunctional(s string) (Color, bool) {
	m := functionalPattern.FindStringSubmatch(s)
	if m == nil {
		return Color{}, false
	}
	var ch [3]float64
	for i := 0; i < 3; i++ {
		v, err := strconv.Atoi(m[i+1])
		if err != nil || v > 255 {
			return Color{}, false
		}
		ch[i] = float64(v) / 255
	}
	a := 1.0
	if m[4] != "" {
		v, err := strconv.ParseFloat(m[4], 64)
		if err != nil {
			return Color{}, false
		}
		a = clampUnit(v)
	}
	return Color{R: ch[0], G: ch[1], B: ch[2], A: a}, true
}

// ParseHex parses six (RRGGBB) or eight (RRGGBBAA) hex digits with an
// optional leading '#'. Any other length fails.
func ParseHex(s string) (Color, bool) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) != 6 && len(s) != 8 {
		return Color{}, false
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return Color{}, false
	}
	if len(s) == 6 {
		return Color{
			R: float64(v>>16&0xFF) / 255,
			G: float64(v>>8&0xFF) / 255,
			B: float64(v&0xFF) / 255,
			A: 1,
		}, true
	}
	return Color{
		R: float64(v>>24&0xFF) / 255,
		G: float64(v>>16&0xFF) / 255,
		B: float64(v>>8&0xFF) / 255,
		A: float64(v&0xFF) / 255,
	}, true
}

// Parse accepts either notation.
func Parse(s string) (Color, bool) {
	if c, ok := ParseHex(s); ok {
		return c, true
	}
	return ParseFunctional(s)
}

// ParseOr returns the parsed color or def when s does not parse.
func ParseOr(s string, def Color) Color {
	if c, ok := Parse(s); ok {
		return c
	}
	return def
}

// ParseGradientList maps every entry through ParseHex, dropping entries that
// fail. An empty result reports ok=false: a gradient needs at least one stop.
func ParseGradientList(hexes []string) ([]Color, bool) {
	var out []Color
	for _, h := range hexes {
		if c, ok := ParseHex(h); ok {
			out = append(out, c)
		}
	}
	if len(out) == 0 {
		return nil, false
	}
	return out, true
}

// WithOpacity multiplies the alpha channel by o.
func (c Color) WithOpacity(o float64) Color {
	c.A = clampUnit(c.A * o)
	return c
}

// RGBA implements color.Color with alpha-premultiplied 16-bit channels.
func (c Color) RGBA() (r, g, b, a uint32) {
	return c.NRGBA().RGBA()
}

// NRGBA rounds the color to 8-bit straight alpha.
func (c Color) NRGBA() color.NRGBA {
	return color.NRGBA{
		R: to8(c.R),
		G: to8(c.G),
		B: to8(c.B),
		A: to8(c.A),
	}
}

func to8(v float64) uint8 {
	return uint8(clampUnit(v)*255 + 0.5)
}

func clampUnit(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
