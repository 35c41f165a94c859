package quotecard

import (
	"image"
	"image/draw"
	"math"
	"strings"
	"unicode"

	"github.com/disintegration/imaging"
	"golang.org/x/image/font"

	"github.com/arran4/quotecard/colors"
	"github.com/arran4/quotecard/richtext"
	"github.com/arran4/quotecard/theme"
)

const (
	baseQuoteSize  = 160.0 // quote font size at scale 1
	baseLineGap    = 16.0  // extra space between lines at scale 1
	minQuoteScale  = 0.2   // text shrinks to this fraction before clipping
	indentEm       = 2.5   // list and quote indentation, in ems
	fitIterations  = 12
	emptyLineRatio = 1.2
)

type styledWord struct {
	text  string
	run   *richtext.StyledRun
	face  font.Face
	size  float64
	x     float64
	width float64
}

type textLine struct {
	words   []styledWord
	indent  float64
	ascent  float64
	advance float64
}

// textBlock is a laid out paragraph set at one fit factor.
type textBlock struct {
	lines  []textLine
	height float64
	fit    float64
}

// layoutRuns wraps runs into lines no wider than maxWidth with every run
// size multiplied by fit. Line advance is the larger of the face height and
// size*lineHeight, plus gap between lines.
func (c *canvas) layoutRuns(runs []richtext.StyledRun, fit, maxWidth, lineHeight, gap float64) textBlock {
	var (
		block     = textBlock{fit: fit}
		line      textLine
		lineWidth float64
		lineSize  float64
	)

	flush := func(force bool, size float64) {
		if len(line.words) == 0 && !force {
			return
		}
		if len(line.words) == 0 {
			line.advance = size * emptyLineRatio
			line.ascent = size
		} else {
			for _, w := range line.words {
				m := w.face.Metrics()
				asc := float64(m.Ascent) / 64
				h := float64(m.Ascent+m.Descent) / 64
				line.ascent = math.Max(line.ascent, asc)
				line.advance = math.Max(line.advance, math.Max(h, w.size*lineHeight))
			}
		}
		if len(block.lines) > 0 {
			block.height += gap
		}
		block.lines = append(block.lines, line)
		block.height += line.advance
		line = textLine{}
		lineWidth = 0
		lineSize = 0
	}

	for i := range runs {
		run := &runs[i]
		size := run.Size * fit
		if run.Break {
			flush(true, math.Max(size, lineSize))
			continue
		}
		if run.Font.Font == nil {
			continue
		}
		face := c.face(run.Font.Font, size)
		indent := float64(run.Indent) * indentEm * size
		avail := maxWidth - indent
		if avail <= size {
			avail = maxWidth
			indent = 0
		}
		for li, para := range strings.Split(run.Text, "\n") {
			if li > 0 {
				flush(true, size)
			}
			for _, seg := range splitTextPreserveSpaces(para) {
				isSpace := unicode.IsSpace([]rune(seg)[0])
				if isSpace && len(line.words) == 0 {
					continue
				}
				segWidth := measureWidth(face, seg)
				if isSpace && lineWidth+segWidth > avail {
					continue
				}
				if !isSpace && lineWidth+segWidth > avail && len(line.words) > 0 {
					flush(false, size)
				}
				pieces := []string{seg}
				if !isSpace && segWidth > avail {
					pieces = breakLongToken(face, seg, avail)
				}
				for pi, piece := range pieces {
					if pi > 0 {
						flush(false, size)
					}
					if len(line.words) == 0 {
						line.indent = indent
					}
					w := measureWidth(face, piece)
					line.words = append(line.words, styledWord{
						text:  piece,
						run:   run,
						face:  face,
						size:  size,
						x:     lineWidth,
						width: w,
					})
					lineWidth += w
					lineSize = math.Max(lineSize, size)
				}
			}
		}
	}
	flush(false, lineSize)
	return block
}

// fitText lays runs out at full size and, when they overflow maxHeight,
// searches for the largest fit factor down to minQuoteScale that does not.
// If even the floor overflows the floor layout is returned and clipped.
func (c *canvas) fitText(runs []richtext.StyledRun, maxWidth, maxHeight, lineHeight, gap float64) textBlock {
	full := c.layoutRuns(runs, 1, maxWidth, lineHeight, gap)
	if full.height <= maxHeight {
		return full
	}
	floor := c.layoutRuns(runs, minQuoteScale, maxWidth, lineHeight, gap*minQuoteScale)
	if floor.height > maxHeight {
		return floor
	}
	best := floor
	lo, hi := minQuoteScale, 1.0
	for i := 0; i < fitIterations; i++ {
		mid := (lo + hi) / 2
		b := c.layoutRuns(runs, mid, maxWidth, lineHeight, gap*mid)
		if b.height <= maxHeight {
			best, lo = b, mid
		} else {
			hi = mid
		}
	}
	return best
}

// drawBlock paints the block with its top-left corner at (left, top), never
// below bottom. When override is set every glyph uses that color.
func (c *canvas) drawBlock(dst *image.RGBA, b textBlock, left, top, bottom, gap float64, override *colors.Color) image.Rectangle {
	var painted image.Rectangle
	y := top
	for i, ln := range b.lines {
		if i > 0 {
			y += gap
		}
		if y+ln.advance > bottom+0.5 && i > 0 {
			break
		}
		baseline := y + ln.ascent
		for _, w := range ln.words {
			if strings.TrimSpace(w.text) == "" {
				continue
			}
			col := w.run.Color
			if override != nil {
				col = *override
			}
			x := left + ln.indent + w.x
			c.drawString(dst, w.run.Font.Font, col, w.size, w.text, x, baseline, w.run.Font.SyntheticItalic)
			r := image.Rect(int(x), int(y), int(math.Ceil(x+w.width)), int(math.Ceil(y+ln.advance)))
			painted = painted.Union(r)
		}
		y += ln.advance
	}
	return painted
}

// drawText paints the quote block, with the theme's glow behind it if set.
func (c *canvas) drawText(b textBlock, glow *theme.Glow, left, top, bottom, gap float64) {
	if glow != nil && glow.Radius > 0 && glow.Opacity > 0 {
		gc, ok := colors.Parse(glow.Color)
		if ok {
			gc = gc.WithOpacity(glow.Opacity)
			layer := image.NewRGBA(c.img.Bounds())
			area := c.drawBlock(layer, b, left, top, bottom, gap, &gc)
			sigma := math.Max(0.5, glow.Radius*c.scale/2)
			pad := int(math.Ceil(sigma * 3))
			area = area.Inset(-pad).Intersect(c.img.Bounds())
			if !area.Empty() {
				blurred := imaging.Blur(layer.SubImage(area), sigma)
				draw.Draw(c.img, area, blurred, image.Point{}, draw.Over)
			}
		}
	}
	c.drawBlock(c.img, b, left, top, bottom, gap, nil)
}
