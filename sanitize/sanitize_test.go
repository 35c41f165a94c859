package sanitize

import (
	"strings"
	"testing"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

func TestHTML(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"heading demoted", `<h2>Title</h2>`, `<strong>Title</strong>`},
		{"div and span unwrapped", `<div><span class="x">A</span>B</div>`, `AB`},
		{"bold and italic normalized", `<b id="a">x</b> <i style="color:red">y</i>`, `<strong>x</strong> <em>y</em>`},
		{"attributes stripped", `<p class="lead" onclick="evil()">text</p>`, `<p>text</p>`},
		{"script and style removed", `<p>a<script>alert(1)</script><style>p{}</style>b</p>`, `<p>ab</p>`},
		{"unknown tags flattened", `<p>see <a href="https://x">the <em>link</em></a></p>`, `<p>see the link</p>`},
		{"reference markers removed", `<p>Fact<sup class="reference">[1]</sup>.</p>`, `<p>Fact.</p>`},
		{"edit links removed", `<strong>History<span class="mw-editsection">[edit]</span></strong>`, `<strong>History</strong>`},
		{"plain text passes", `  just words  `, `just words`},
		{"lists kept", `<ul><li class="a">one</li><li>two</li></ul>`, `<ul><li>one</li><li>two</li></ul>`},
		{"blockquote kept", `<blockquote cite="x"><p>q</p></blockquote>`, `<blockquote><p>q</p></blockquote>`},
		{"comments dropped", `a<!-- hidden -->b`, `ab`},
		{"line breaks", `one<br class="x">two`, `one<br/>two`},
		{"heading with nested bold", `<h1><b>Big</b> news</h1>`, `<strong><strong>Big</strong> news</strong>`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := HTML(tt.in, nil)
			if err != nil {
				t.Fatalf("HTML(%q): %v", tt.in, err)
			}
			if got != tt.want {
				t.Fatalf("HTML(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestHTMLEmpty(t *testing.T) {
	for _, in := range []string{"", "   ", "<script>x()</script>", "<div><span></span></div>"} {
		if _, err := HTML(in, nil); err != ErrEmptySelection {
			t.Fatalf("HTML(%q) err = %v, want ErrEmptySelection", in, err)
		}
	}
}

func TestOutputOnlyAllowedTags(t *testing.T) {
	inputs := []string{
		`<table><tr><td><b>x</b></td></tr></table>`,
		`<article><header><h3 class="t">T</h3></header><section><p>a <code>b</code> <u>c</u></p></section></article>`,
		`<svg><text>vector</text></svg><img src="x" onerror="alert(1)"><iframe src="evil"></iframe>`,
		`<ol start="3"><li><span><i data-x="1">deep</i></span></li></ol>`,
		`<form><input value="v"><button>Go</button></form>`,
	}
	allowed := map[string]bool{}
	for _, tag := range AllowedTags {
		allowed[tag] = true
	}
	for _, in := range inputs {
		out, err := HTML(in, nil)
		if err != nil {
			t.Fatalf("HTML(%q): %v", in, err)
		}
		z := html.NewTokenizer(strings.NewReader(out))
		for {
			tt := z.Next()
			if tt == html.ErrorToken {
				break
			}
			if tt != html.StartTagToken && tt != html.SelfClosingTagToken && tt != html.EndTagToken {
				continue
			}
			tok := z.Token()
			if !allowed[tok.Data] {
				t.Fatalf("HTML(%q) produced disallowed tag %q in %q", in, tok.Data, out)
			}
			if len(tok.Attr) > 0 {
				t.Fatalf("HTML(%q) produced attributes on %q in %q", in, tok.Data, out)
			}
		}
	}
}

func TestNodesDoesNotMutateInput(t *testing.T) {
	body := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(strings.NewReader(`<div class="c"><b>x</b><script>y</script></div>`), body)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	before, _ := Render(nodes)

	out := Nodes(nodes, nil)
	got, err := Render(out)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if got != "<strong>x</strong>" {
		t.Fatalf("unexpected output %q", got)
	}
	after, _ := Render(nodes)
	if before != after {
		t.Fatalf("input mutated: before %q after %q", before, after)
	}
}

func TestNodesNamedOnly(t *testing.T) {
	el := func(name string, children ...*html.Node) *html.Node {
		n := &html.Node{Type: html.ElementNode, Data: name}
		for _, c := range children {
			n.AppendChild(c)
		}
		return n
	}
	txt := func(s string) *html.Node { return &html.Node{Type: html.TextNode, Data: s} }

	in := []*html.Node{
		el("DIV",
			el("p", txt("a "), el("Em", txt("b"))),
			el("script", txt("x")),
			el("b", txt("c")),
		),
		el("custom-tag", txt("d")),
	}
	got, err := Render(Nodes(in, nil))
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if want := "<p>a <em>b</em></p><strong>c</strong>d"; got != want {
		t.Fatalf("Nodes = %q, want %q", got, want)
	}
	if in[0].Data != "DIV" || in[0].DataAtom != 0 {
		t.Fatalf("input mutated: %q %v", in[0].Data, in[0].DataAtom)
	}
}

func TestCustomPolicy(t *testing.T) {
	p := &Policy{Remove: []string{".ad"}}
	got, err := HTML(`<p>keep<span class="ad">buy now</span></p><sup class="reference">1</sup>`, p)
	if err != nil {
		t.Fatalf("HTML: %v", err)
	}
	if got != "<p>keep</p>1" {
		t.Fatalf("unexpected output %q", got)
	}
}

func TestIdempotent(t *testing.T) {
	in := `<h2>Head</h2><div><p class="x">Body <i>it</i><br>more</p><ul><li>a</li></ul></div>`
	once, err := HTML(in, nil)
	if err != nil {
		t.Fatalf("HTML: %v", err)
	}
	twice, err := HTML(once, nil)
	if err != nil {
		t.Fatalf("HTML: %v", err)
	}
	if once != twice {
		t.Fatalf("sanitizing twice changed output: %q vs %q", once, twice)
	}
}

func TestText(t *testing.T) {
	got, err := Text(`<p>Fish &amp; <b>chips</b></p>`)
	if err != nil {
		t.Fatalf("Text: %v", err)
	}
	if got != "Fish & chips" {
		t.Fatalf("Text = %q", got)
	}
}
