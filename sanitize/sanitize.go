// Package sanitize reduces a DOM fragment captured from an arbitrary web page
// to the small, attribute-free tag set a quote card can render:
//
//	em strong p br ul ol li blockquote
//
// b and i are normalized to strong and em, headings are demoted to strong,
// div and span are unwrapped, and every other element collapses to its text.
//
// The node-level entry point, Nodes, works on already-parsed trees and never
// mutates its input. HTML is the string entry point used by transports that
// carry the selection as markup; it parses once and then runs the same pass.
package sanitize

import (
	"bytes"
	"errors"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// AllowedTags lists the element names that survive sanitization.
var AllowedTags = []string{"em", "strong", "p", "br", "ul", "ol", "li", "blockquote"}

// ErrEmptySelection is returned when the fragment has no content left.
var ErrEmptySelection = errors.New("sanitize: empty selection")

// keep holds the tags processNode keeps in place; b and i are kept but renamed.
var keep = map[atom.Atom]bool{
	atom.Em: true, atom.I: true,
	atom.Strong: true, atom.B: true,
	atom.P: true, atom.Br: true,
	atom.Ul: true, atom.Ol: true, atom.Li: true,
	atom.Blockquote: true,
}

// Policy configures the cruft filters applied before the structural pass.
type Policy struct {
	// Remove lists CSS selectors whose matches are dropped with their
	// subtrees. script and style are always removed.
	Remove []string
}

// DefaultPolicy drops reference superscripts and section-edit links, the two
// non-content decorations commonly caught in selections.
func DefaultPolicy() *Policy {
	return &Policy{
		Remove: []string{"sup.reference", "span.mw-editsection"},
	}
}

// guard re-checks serialized output against the allow-list.
var guard = func() *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.AllowElements(AllowedTags...)
	return p
}()

// Nodes sanitizes a fragment and returns fresh top-level nodes. The input
// nodes are cloned first and left untouched.
func Nodes(fragment []*html.Node, p *Policy) []*html.Node {
	if p == nil {
		p = DefaultPolicy()
	}
	container := &html.Node{Type: html.ElementNode, Data: "div", DataAtom: atom.Div}
	for _, n := range fragment {
		container.AppendChild(clone(n))
	}

	doc := goquery.NewDocumentFromNode(container)
	doc.Find("script, style").Remove()
	for _, sel := range p.Remove {
		doc.Find(sel).Remove()
	}
	doc.Find("h1, h2, h3, h4, h5, h6").Each(func(_ int, s *goquery.Selection) {
		for _, h := range s.Nodes {
			h.Data = "strong"
			h.DataAtom = atom.Strong
			h.Attr = nil
		}
	})

	for c := container.FirstChild; c != nil; {
		next := c.NextSibling
		processNode(c)
		c = next
	}

	var out []*html.Node
	for c := container.FirstChild; c != nil; {
		next := c.NextSibling
		container.RemoveChild(c)
		if c.Type != html.CommentNode {
			out = append(out, c)
		}
		c = next
	}
	return out
}

// processNode handles children before the node itself, so unwrapping or
// flattening a parent sees already-clean descendants.
func processNode(n *html.Node) {
	switch n.Type {
	case html.CommentNode:
		n.Parent.RemoveChild(n)
		return
	case html.ElementNode:
	default:
		return
	}

	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		processNode(c)
		c = next
	}

	parent := n.Parent
	if !keep[n.DataAtom] {
		if n.DataAtom == atom.Div || n.DataAtom == atom.Span {
			for c := n.FirstChild; c != nil; {
				next := c.NextSibling
				n.RemoveChild(c)
				parent.InsertBefore(c, n)
				c = next
			}
			parent.RemoveChild(n)
			return
		}
		text := &html.Node{Type: html.TextNode, Data: textContent(n)}
		parent.InsertBefore(text, n)
		parent.RemoveChild(n)
		return
	}

	switch n.DataAtom {
	case atom.B:
		n.Data, n.DataAtom = "strong", atom.Strong
	case atom.I:
		n.Data, n.DataAtom = "em", atom.Em
	}
	n.Attr = nil
	n.Namespace = ""
}

// HTML parses markup as a body fragment, sanitizes it with p and returns the
// serialized result trimmed of surrounding whitespace. ErrEmptySelection is
// returned when nothing but whitespace remains.
func HTML(markup string, p *Policy) (string, error) {
	body := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(strings.NewReader(markup), body)
	if err != nil {
		return "", err
	}
	out, err := Render(Nodes(nodes, p))
	if err != nil {
		return "", err
	}
	out = strings.TrimSpace(guard.Sanitize(out))
	if out == "" {
		return "", ErrEmptySelection
	}
	return out, nil
}

// Render serializes sanitized nodes.
func Render(nodes []*html.Node) (string, error) {
	var buf bytes.Buffer
	for _, n := range nodes {
		if err := html.Render(&buf, n); err != nil {
			return "", err
		}
	}
	return strings.TrimSpace(buf.String()), nil
}

// Text flattens markup to its text content, decoding entities.
func Text(markup string) (string, error) {
	body := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(strings.NewReader(markup), body)
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	for _, n := range nodes {
		sb.WriteString(textContent(n))
	}
	return strings.TrimSpace(sb.String()), nil
}

func textContent(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}

func clone(n *html.Node) *html.Node {
	c := &html.Node{
		Type:      n.Type,
		DataAtom:  n.DataAtom,
		Data:      n.Data,
		Namespace: n.Namespace,
	}
	if c.Type == html.ElementNode && c.DataAtom == 0 {
		// Hand-built nodes may carry only a name.
		if a := atom.Lookup([]byte(strings.ToLower(c.Data))); a != 0 {
			c.Data, c.DataAtom = a.String(), a
		}
	}
	if len(n.Attr) > 0 {
		c.Attr = make([]html.Attribute, len(n.Attr))
		copy(c.Attr, n.Attr)
	}
	for ch := n.FirstChild; ch != nil; ch = ch.NextSibling {
		c.AppendChild(clone(ch))
	}
	return c
}
