package quotecard

import (
	"image"
	"image/draw"
	"math"
	"strings"

	"golang.org/x/image/font"

	"github.com/arran4/quotecard/colors"
	"github.com/arran4/quotecard/richtext"
	"github.com/arran4/quotecard/theme"
)

const (
	baseFooterSize = 42.0 // footer font size at scale 1
	footerGap      = 32.0 // space between quote and footer at scale 1
	iconRatio      = 1.2  // icon edge relative to the footer font size
	iconGapRatio   = 0.4  // space after the icon relative to the footer font size
	minFooterScale = 0.5
	footerFitSteps = 10
	ellipsis       = "…"
)

// footer is the attribution line: an optional favicon then the source title.
type footer struct {
	title string
	icon  image.Image
	font  richtext.ResolvedFont
	color colors.Color
}

// newFooter returns nil when no footer should be drawn.
func newFooter(s Settings, th theme.Theme, title string, icon image.Image, f richtext.ResolvedFont) *footer {
	title = strings.Join(strings.Fields(title), " ")
	if !s.IncludeAttribution || !th.Footer.Enabled || title == "" || f.Font == nil {
		return nil
	}
	col := colors.ParseOr(th.Footer.Color, colors.Gray).WithOpacity(th.Footer.Opacity)
	return &footer{title: title, icon: icon, font: f, color: col}
}

// footerHeight is the vertical space the footer band takes at full size.
func (c *canvas) footerHeight(ft *footer) float64 {
	size := baseFooterSize * c.scale
	m := c.face(ft.font.Font, size).Metrics()
	h := float64(m.Ascent+m.Descent) / 64
	if ft.icon != nil {
		h = math.Max(h, size*iconRatio)
	}
	return h
}

// fitFooterText returns the largest size down to minFooterScale at which
// the title fits maxWidth, truncating with an ellipsis if even that fails.
func (c *canvas) fitFooterText(ft *footer, maxWidth float64) (string, float64, font.Face) {
	size := baseFooterSize * c.scale
	face := c.face(ft.font.Font, size)
	if measureWidth(face, ft.title) <= maxWidth {
		return ft.title, size, face
	}
	floor := size * minFooterScale
	step := (size - floor) / footerFitSteps
	for s := size - step; s >= floor-1e-9; s -= step {
		face = c.face(ft.font.Font, s)
		if measureWidth(face, ft.title) <= maxWidth {
			return ft.title, s, face
		}
	}
	face = c.face(ft.font.Font, floor)
	return truncate(face, ft.title, maxWidth), floor, face
}

func truncate(face font.Face, s string, maxWidth float64) string {
	runes := []rune(s)
	for n := len(runes) - 1; n > 0; n-- {
		cand := strings.TrimRight(string(runes[:n]), " ") + ellipsis
		if measureWidth(face, cand) <= maxWidth {
			return cand
		}
	}
	return ellipsis
}

// drawFooter paints ft in the band of the given height whose top-left is
// (left, top).
func (c *canvas) drawFooter(ft *footer, left, top, width, height float64) {
	size := baseFooterSize * c.scale
	x := left
	if ft.icon != nil {
		edge := int(math.Round(size * iconRatio))
		if icon := fitImage(ft.icon, edge); icon != nil {
			b := icon.Bounds()
			iy := top + (height-float64(b.Dy()))/2
			ix := x + (float64(edge)-float64(b.Dx()))/2
			at := image.Pt(int(math.Round(ix)), int(math.Round(iy)))
			draw.Draw(c.img, b.Sub(b.Min).Add(at), icon, b.Min, draw.Over)
			x += float64(edge) + size*iconGapRatio
		}
	}
	avail := left + width - x
	if avail <= 0 {
		return
	}
	text, fsize, face := c.fitFooterText(ft, avail)
	m := face.Metrics()
	asc := float64(m.Ascent) / 64
	th := float64(m.Ascent+m.Descent) / 64
	baseline := top + (height-th)/2 + asc
	c.drawString(c.img, ft.font.Font, ft.color, fsize, text, x, baseline, ft.font.SyntheticItalic)
}
