// Package richtext turns sanitized quote markup into styled text runs ready
// for layout, resolving fonts against a theme.
package richtext

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/arran4/quotecard/colors"
	"github.com/arran4/quotecard/theme"
)

// StyledRun is a span of text sharing one font, weight, style and color.
// A run with Break set carries no text and ends the current line.
type StyledRun struct {
	Text   string
	Font   ResolvedFont
	Bold   bool
	Italic bool
	Weight int
	Size   float64
	Color  colors.Color
	Indent int // nesting level of lists and quotes
	Break  bool
}

// ErrNoContent is returned when markup yields no visible text.
var ErrNoContent = errors.New("richtext: markup has no text content")

// tagStyle is the typography a tag contributes to its descendants.
type tagStyle struct {
	bold   bool
	italic bool
	block  bool
	indent bool
}

var styleSheet = map[atom.Atom]tagStyle{
	atom.Strong:     {bold: true},
	atom.B:          {bold: true},
	atom.Em:         {italic: true},
	atom.I:          {italic: true},
	atom.P:          {block: true},
	atom.Li:         {block: true},
	atom.Ul:         {block: true, indent: true},
	atom.Ol:         {block: true, indent: true},
	atom.Blockquote: {block: true, indent: true},
}

const boldStep = 100

// Composer resolves runs against a font library.
type Composer struct {
	Fonts *FontLibrary
}

func NewComposer(fonts *FontLibrary) *Composer {
	return &Composer{Fonts: fonts}
}

// Compose returns the runs for markup, or a single plain-text run when markup
// is empty or cannot be composed.
func (c *Composer) Compose(markup, plain string, th theme.Theme, baseSize float64) []StyledRun {
	if strings.TrimSpace(markup) != "" {
		if runs, err := c.ComposeHTML(markup, th, baseSize); err == nil {
			return runs
		}
	}
	return c.Plain(plain, th, baseSize)
}

// Plain styles text uniformly with the theme's base font.
func (c *Composer) Plain(text string, th theme.Theme, baseSize float64) []StyledRun {
	return []StyledRun{{
		Text:   text,
		Font:   c.Fonts.Resolve(th.BaseFamily(), false, false, th.FontWeight),
		Weight: th.FontWeight,
		Size:   baseSize,
		Color:  colors.ParseOr(th.Text.Color, colors.Black),
	}}
}

// ComposeHTML parses sanitized markup into runs. Every run is painted in the
// theme text color regardless of what the markup says.
func (c *Composer) ComposeHTML(markup string, th theme.Theme, baseSize float64) (runs []StyledRun, err error) {
	defer func() {
		if r := recover(); r != nil {
			runs, err = nil, fmt.Errorf("richtext: compose: %v", r)
		}
	}()

	markup = addSpacingBeforeTags(markup, "</p>", "<br><br>")
	markup = addSpacingBeforeTags(markup, "</li>", "<br>")

	body := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(strings.NewReader(markup), body)
	if err != nil {
		return nil, fmt.Errorf("richtext: parse: %w", err)
	}

	w := &walker{
		c:      c,
		family: th.BaseFamily(),
		weight: th.FontWeight,
		size:   baseSize,
		color:  colors.ParseOr(th.Text.Color, colors.Black),
	}
	for _, n := range nodes {
		w.walk(n)
	}
	w.trimTrailingBreaks()
	if !w.hasText {
		return nil, ErrNoContent
	}
	return w.runs, nil
}

// addSpacingBeforeTags inserts spacing before every occurrence of tag except
// the last. Insertion runs back to front so recorded offsets stay valid.
func addSpacingBeforeTags(markup, tag, spacing string) string {
	var positions []int
	for start := 0; ; {
		i := strings.Index(markup[start:], tag)
		if i < 0 {
			break
		}
		positions = append(positions, start+i)
		start += i + len(tag)
	}
	for i := len(positions) - 2; i >= 0; i-- {
		p := positions[i]
		markup = markup[:p] + spacing + markup[p:]
	}
	return markup
}

type list struct {
	ordered bool
	count   int
}

type walker struct {
	c      *Composer
	family string
	weight int
	size   float64
	color  colors.Color

	bold, italic int
	indent       int
	lists        []list

	runs      []StyledRun
	lineDirty bool
	hasText   bool
}

func (w *walker) walk(n *html.Node) {
	switch n.Type {
	case html.TextNode:
		w.text(n.Data)
		return
	case html.ElementNode:
	default:
		return
	}

	if n.DataAtom == atom.Br {
		w.lineBreak()
		return
	}

	st := styleSheet[n.DataAtom]
	if st.block {
		w.endLine()
	}
	if st.bold {
		w.bold++
	}
	if st.italic {
		w.italic++
	}
	if st.indent {
		w.indent++
	}
	switch n.DataAtom {
	case atom.Ul, atom.Ol:
		w.lists = append(w.lists, list{ordered: n.DataAtom == atom.Ol})
	case atom.Li:
		w.marker()
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		w.walk(c)
	}

	switch n.DataAtom {
	case atom.Ul, atom.Ol:
		w.lists = w.lists[:len(w.lists)-1]
	}
	if st.indent {
		w.indent--
	}
	if st.italic {
		w.italic--
	}
	if st.bold {
		w.bold--
	}
	if st.block {
		w.endLine()
	}
}

func (w *walker) marker() {
	if len(w.lists) == 0 {
		return
	}
	l := &w.lists[len(w.lists)-1]
	l.count++
	m := "• "
	if l.ordered {
		m = fmt.Sprintf("%d. ", l.count)
	}
	w.runs = append(w.runs, w.run(m, false, false))
	w.lineDirty = true
}

func (w *walker) text(s string) {
	s = collapseSpace(s)
	if !w.lineDirty {
		s = strings.TrimLeft(s, " ")
	}
	if s == "" {
		return
	}
	w.runs = append(w.runs, w.run(s, w.bold > 0, w.italic > 0))
	w.lineDirty = true
	if strings.TrimSpace(s) != "" {
		w.hasText = true
	}
}

func (w *walker) run(s string, bold, italic bool) StyledRun {
	weight := w.weight
	if bold {
		weight = min(900, max(weight+boldStep, 600))
	}
	return StyledRun{
		Text:   s,
		Font:   w.c.Fonts.Resolve(w.family, bold, italic, weight),
		Bold:   bold,
		Italic: italic,
		Weight: weight,
		Size:   w.size,
		Color:  w.color,
		Indent: w.indent,
	}
}

func (w *walker) lineBreak() {
	w.runs = append(w.runs, StyledRun{Break: true, Size: w.size, Indent: w.indent})
	w.lineDirty = false
}

// endLine closes a line that has content; block edges never stack blank lines.
func (w *walker) endLine() {
	if w.lineDirty {
		w.lineBreak()
	}
}

func (w *walker) trimTrailingBreaks() {
	for len(w.runs) > 0 && w.runs[len(w.runs)-1].Break {
		w.runs = w.runs[:len(w.runs)-1]
	}
}

func collapseSpace(s string) string {
	var sb strings.Builder
	space := false
	for _, r := range s {
		if unicode.IsSpace(r) {
			if !space {
				sb.WriteByte(' ')
			}
			space = true
			continue
		}
		space = false
		sb.WriteRune(r)
	}
	return sb.String()
}
