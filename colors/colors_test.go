package colors

import (
	"math"
	"testing"
)

func approx(a, b float64) bool { return math.Abs(a-b) < 0.005 }

func TestParseHex(t *testing.T) {
	c, ok := ParseHex("#FF0000")
	if !ok {
		t.Fatalf("expected #FF0000 to parse")
	}
	if c.R != 1 || c.G != 0 || c.B != 0 || c.A != 1 {
		t.Fatalf("unexpected red: %+v", c)
	}

	c, ok = ParseHex("#FF000080")
	if !ok {
		t.Fatalf("expected 8-digit hex to parse")
	}
	if !approx(c.A, 0.5) {
		t.Fatalf("expected alpha near 0.5, got %v", c.A)
	}

	c, ok = ParseHex("  0a141e ")
	if !ok || !approx(c.R, 10.0/255) || !approx(c.B, 30.0/255) {
		t.Fatalf("expected hex without '#' to parse, got %+v ok=%v", c, ok)
	}

	for _, bad := range []string{"bad", "", "#FFF", "#FF00000", "#GG0000", "#FF0000FF00"} {
		if _, ok := ParseHex(bad); ok {
			t.Fatalf("expected %q to fail", bad)
		}
	}
}

func TestParseFunctional(t *testing.T) {
	c, ok := ParseFunctional("rgba(10, 20, 30, 0.5)")
	if !ok {
		t.Fatalf("expected rgba to parse")
	}
	if !approx(c.R, 10.0/255) || !approx(c.G, 20.0/255) || !approx(c.B, 30.0/255) || c.A != 0.5 {
		t.Fatalf("unexpected channels: %+v", c)
	}

	c, ok = ParseFunctional("rgb(1,2,3)")
	if !ok || c.A != 1 {
		t.Fatalf("expected rgb to default alpha to 1, got %+v ok=%v", c, ok)
	}

	for _, bad := range []string{"#FF0000", "rgb(1,2)", "rgb(300,0,0)", "hsl(1,2,3)", ""} {
		if _, ok := ParseFunctional(bad); ok {
			t.Fatalf("expected %q to fail", bad)
		}
	}
}

func TestParseGradientList(t *testing.T) {
	stops, ok := ParseGradientList([]string{"#000000", "nope", "#FFFFFF"})
	if !ok || len(stops) != 2 {
		t.Fatalf("expected two stops, got %v ok=%v", stops, ok)
	}
	if stops[0] != Black || stops[1] != White {
		t.Fatalf("stop order not preserved: %+v", stops)
	}
	if _, ok := ParseGradientList([]string{"x", "y"}); ok {
		t.Fatalf("expected all-invalid list to report no value")
	}
	if _, ok := ParseGradientList(nil); ok {
		t.Fatalf("expected empty list to report no value")
	}
}

func TestNRGBAConversion(t *testing.T) {
	got := ParseOr("rgba(255, 128, 0, 0.5)", Black).NRGBA()
	if got.R != 255 || got.G != 128 || got.B != 0 || got.A != 128 {
		t.Fatalf("unexpected NRGBA: %+v", got)
	}
	if ParseOr("junk", Gray) != Gray {
		t.Fatalf("expected fallback color")
	}
}
