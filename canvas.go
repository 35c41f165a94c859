package quotecard

import (
	"image"
	"image/color"
	"image/draw"
	"strings"
	"unicode"

	"github.com/golang/freetype"
	"github.com/golang/freetype/truetype"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/math/f64"
	"golang.org/x/image/math/fixed"
)

// Sizes are in pixels: fonts are set up at 72 DPI so one point is one pixel.
const dpi = 72

// italicShear is the horizontal slant applied to synthetic italics.
const italicShear = 0.2

// ---- Layout primitives ----

type faceKey struct {
	font *truetype.Font
	size float64
}

// canvas is the single drawing surface of one render. It is only touched
// from the graphics worker; faces are cached per canvas since truetype
// faces are not safe for concurrent use.
type canvas struct {
	img   *image.RGBA
	dc    *freetype.Context
	w, h  int
	scale float64
	faces map[faceKey]font.Face
}

func newCanvas(width, height int, scale float64) *canvas {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	dc := freetype.NewContext()
	dc.SetDPI(dpi)
	dc.SetClip(img.Bounds())
	dc.SetDst(img)
	dc.SetHinting(font.HintingNone)
	return &canvas{
		img:   img,
		dc:    dc,
		w:     width,
		h:     height,
		scale: scale,
		faces: make(map[faceKey]font.Face),
	}
}

func (c *canvas) face(f *truetype.Font, size float64) font.Face {
	k := faceKey{f, size}
	if fc, ok := c.faces[k]; ok {
		return fc
	}
	fc := truetype.NewFace(f, &truetype.Options{Size: size, DPI: dpi, Hinting: font.HintingNone})
	c.faces[k] = fc
	return fc
}

func (c *canvas) setFace(f *truetype.Font, col color.Color, size float64, dst *image.RGBA) {
	c.dc.SetDst(dst)
	c.dc.SetClip(dst.Bounds())
	c.dc.SetFont(f)
	c.dc.SetFontSize(size)
	c.dc.SetSrc(image.NewUniform(col))
}

// drawString paints s with its baseline starting at (x, y).
func (c *canvas) drawString(dst *image.RGBA, f *truetype.Font, col color.Color, size float64, s string, x, y float64, slant bool) {
	if slant {
		c.drawSlanted(dst, f, col, size, s, x, y)
		return
	}
	c.setFace(f, col, size, dst)
	pt := fixed.Point26_6{X: fixed.Int26_6(x * 64), Y: fixed.Int26_6(y * 64)}
	_, _ = c.dc.DrawString(s, pt)
}

// drawSlanted renders s upright into a scratch layer and shears it onto dst
// around the baseline.
func (c *canvas) drawSlanted(dst *image.RGBA, f *truetype.Font, col color.Color, size float64, s string, x, y float64) {
	face := c.face(f, size)
	m := face.Metrics()
	ascent, descent := m.Ascent.Ceil(), m.Descent.Ceil()
	width := font.MeasureString(face, s).Ceil()
	pad := int(float64(ascent+descent)*italicShear) + 2
	layer := image.NewRGBA(image.Rect(0, 0, width+2*pad, ascent+descent))
	d := font.Drawer{
		Dst:  layer,
		Src:  image.NewUniform(col),
		Face: face,
		Dot:  fixed.P(pad, ascent),
	}
	d.DrawString(s)

	// dst = (sx - k*sy + tx, sy + ty), with the shear pivoting on the baseline.
	tx := x - float64(pad) + italicShear*float64(ascent)
	ty := y - float64(ascent)
	aff := f64.Aff3{
		1, -italicShear, tx,
		0, 1, ty,
	}
	xdraw.ApproxBiLinear.Transform(dst, aff, layer, layer.Bounds(), xdraw.Over, nil)
}

func measureWidth(face font.Face, s string) float64 {
	if face == nil || s == "" {
		return 0
	}
	return float64(font.MeasureString(face, s)) / 64
}

func splitTextPreserveSpaces(s string) []string {
	if s == "" {
		return nil
	}
	var parts []string
	var current strings.Builder
	lastType := 0 // 0 unknown, 1 space, 2 non-space
	for _, r := range s {
		typ := 2
		if unicode.IsSpace(r) {
			typ = 1
		}
		if lastType == 0 {
			current.WriteRune(r)
			lastType = typ
			continue
		}
		if typ == lastType {
			current.WriteRune(r)
			continue
		}
		parts = append(parts, current.String())
		current.Reset()
		current.WriteRune(r)
		lastType = typ
	}
	if current.Len() > 0 {
		parts = append(parts, current.String())
	}
	return parts
}

func breakLongToken(face font.Face, token string, maxWidth float64) []string {
	var parts []string
	var current strings.Builder
	var width float64
	for _, r := range token {
		ch := string(r)
		charWidth := measureWidth(face, ch)
		if width+charWidth > maxWidth && current.Len() > 0 {
			parts = append(parts, current.String())
			current.Reset()
			width = 0
		}
		current.WriteString(ch)
		width += charWidth
	}
	if current.Len() > 0 {
		parts = append(parts, current.String())
	}
	if len(parts) == 0 {
		parts = append(parts, token)
	}
	return parts
}

// fitImage scales img to fit inside a box of the given size, keeping its
// aspect ratio.
func fitImage(img image.Image, box int) image.Image {
	if img == nil || box <= 0 {
		return img
	}
	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return nil
	}
	scale := float64(box) / float64(max(b.Dx(), b.Dy()))
	w := max(1, int(float64(b.Dx())*scale+0.5))
	h := max(1, int(float64(b.Dy())*scale+0.5))
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), img, b, xdraw.Over, nil)
	return dst
}

// flatten composites img over opaque white.
func flatten(img *image.RGBA) *image.RGBA {
	out := image.NewRGBA(img.Bounds())
	draw.Draw(out, out.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.Draw(out, out.Bounds(), img, img.Bounds().Min, draw.Over)
	return out
}
