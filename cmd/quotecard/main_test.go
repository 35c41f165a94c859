package main

import (
	"testing"

	"github.com/arran4/quotecard"
)

func TestInputFormat(t *testing.T) {
	tests := map[[2]string]string{
		{"", "page.HTML"}:        "html",
		{"", "notes.md"}:         "markdown",
		{"", "quote.txt"}:        "text",
		{"", ""}:                 "text",
		{"Markdown", "page.htm"}: "markdown",
	}
	for in, want := range tests {
		if got := inputFormat(in[0], in[1]); got != want {
			t.Errorf("inputFormat(%q, %q) = %q, want %q", in[0], in[1], got, want)
		}
	}
}

func TestResolveOutput(t *testing.T) {
	f, out, err := resolveOutput("", "", quotecard.PNG)
	if err != nil || f != quotecard.PNG || out != "quote.png" {
		t.Fatalf("defaults = %v %q %v", f, out, err)
	}
	f, out, err = resolveOutput("", "card.JPG", quotecard.PNG)
	if err != nil || f != quotecard.JPEG || out != "card.JPG" {
		t.Fatalf("from extension = %v %q %v", f, out, err)
	}
	f, out, err = resolveOutput("jpeg", "", quotecard.PNG)
	if err != nil || f != quotecard.JPEG || out != "quote.jpg" {
		t.Fatalf("from flag = %v %q %v", f, out, err)
	}
	if _, _, err := resolveOutput("", "card.gif", quotecard.PNG); err == nil {
		t.Fatalf("expected error for .gif")
	}
}
