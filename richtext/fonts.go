package richtext

import (
	"io/fs"
	"strings"
	"time"

	"github.com/golang/freetype/truetype"
	"github.com/patrickmn/go-cache"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gobolditalic"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/gomedium"
	"golang.org/x/image/font/gofont/gomediumitalic"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/gomonobold"
	"golang.org/x/image/font/gofont/gomonobolditalic"
	"golang.org/x/image/font/gofont/gomonoitalic"
	"golang.org/x/image/font/gofont/goregular"
)

// ResolvedFont is a concrete face for a run. SyntheticItalic asks the
// renderer to slant glyphs because the face itself is upright.
type ResolvedFont struct {
	Name            string
	Font            *truetype.Font
	SyntheticItalic bool
}

// FontLibrary resolves font names to parsed TrueType fonts. The Go font
// family is always available; further fonts are read lazily from an
// optional directory of "<Name>.ttf" files and kept in a shared cache.
// A FontLibrary is safe for concurrent use.
type FontLibrary struct {
	builtin map[string]*truetype.Font
	dir     fs.FS
	cache   *cache.Cache
}

var builtinFonts = map[string][]byte{
	"Go":                 goregular.TTF,
	"Go-Regular":         goregular.TTF,
	"Go-Medium":          gomedium.TTF,
	"Go-MediumItalic":    gomediumitalic.TTF,
	"Go-Bold":            gobold.TTF,
	"Go-Italic":          goitalic.TTF,
	"Go-BoldItalic":      gobolditalic.TTF,
	"Go Mono":            gomono.TTF,
	"Go Mono-Bold":       gomonobold.TTF,
	"Go Mono-Italic":     gomonoitalic.TTF,
	"Go Mono-BoldItalic": gomonobolditalic.TTF,
}

// missing marks names already looked up without success.
type missing struct{}

// NewFontLibrary parses the bundled Go fonts. dir may be nil. Fonts loaded
// from dir stay cached for ttl; zero keeps them for the process lifetime.
func NewFontLibrary(dir fs.FS, ttl time.Duration) (*FontLibrary, error) {
	if ttl <= 0 {
		ttl = cache.NoExpiration
	}
	l := &FontLibrary{
		builtin: make(map[string]*truetype.Font, len(builtinFonts)),
		dir:     dir,
		cache:   cache.New(ttl, 10*time.Minute),
	}
	for name, data := range builtinFonts {
		f, err := truetype.Parse(data)
		if err != nil {
			return nil, err
		}
		l.builtin[name] = f
	}
	return l, nil
}

// Font returns the font registered or stored under name.
func (l *FontLibrary) Font(name string) (*truetype.Font, bool) {
	if name == "" {
		return nil, false
	}
	if f, ok := l.builtin[name]; ok {
		return f, true
	}
	if l.dir == nil {
		return nil, false
	}
	if v, ok := l.cache.Get(name); ok {
		f, isFont := v.(*truetype.Font)
		return f, isFont
	}
	for _, ext := range []string{".ttf", ".otf"} {
		data, err := fs.ReadFile(l.dir, name+ext)
		if err != nil {
			continue
		}
		f, err := truetype.Parse(data)
		if err != nil {
			continue
		}
		l.cache.SetDefault(name, f)
		return f, true
	}
	l.cache.SetDefault(name, missing{})
	return nil, false
}

// Resolve picks the face for a run of the given family and traits. The
// search order is fixed:
//
//	bold+italic: {family}-BoldItalic, then {family}-Bold slanted
//	bold:        {family}-Bold, then {family}-Semibold
//	italic:      {family}-Italic, slanted if the face is upright
//	then plain {family} upright, then the upright generic fallback.
func (l *FontLibrary) Resolve(family string, bold, italic bool, weight int) ResolvedFont {
	try := func(name string, slant bool) (ResolvedFont, bool) {
		f, ok := l.Font(name)
		if !ok {
			return ResolvedFont{}, false
		}
		return ResolvedFont{Name: name, Font: f, SyntheticItalic: slant && !isItalicFace(f)}, true
	}
	if family != "" {
		switch {
		case bold && italic:
			if rf, ok := try(family+"-BoldItalic", false); ok {
				return rf
			}
			if rf, ok := try(family+"-Bold", true); ok {
				return rf
			}
		case bold:
			if rf, ok := try(family+"-Bold", false); ok {
				return rf
			}
			if rf, ok := try(family+"-Semibold", false); ok {
				return rf
			}
		case italic:
			if rf, ok := try(family+"-Italic", true); ok {
				return rf
			}
		}
		if rf, ok := try(family, false); ok {
			return rf
		}
	}
	return l.Generic(weight)
}

// Generic returns an upright Go font approximating weight.
func (l *FontLibrary) Generic(weight int) ResolvedFont {
	name := "Go-Regular"
	switch {
	case weight >= 600:
		name = "Go-Bold"
	case weight >= 500:
		name = "Go-Medium"
	}
	return ResolvedFont{Name: name, Font: l.builtin[name]}
}

func isItalicFace(f *truetype.Font) bool {
	sub := strings.ToLower(f.Name(truetype.NameIDFontSubfamily))
	return strings.Contains(sub, "italic") || strings.Contains(sub, "oblique")
}
