package quotecard

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io/fs"
	"path"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"
	"github.com/patrickmn/go-cache"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"

	"github.com/arran4/quotecard/colors"
	"github.com/arran4/quotecard/theme"
)

// assetStore loads background images by name from an fs.FS and keeps the
// decoded images around for ttl. A failed load is remembered too.
type assetStore struct {
	dir   fs.FS
	cache *cache.Cache
}

type missingAsset struct{}

func newAssetStore(dir fs.FS, ttl time.Duration) *assetStore {
	if ttl <= 0 {
		ttl = cache.NoExpiration
	}
	return &assetStore{dir: dir, cache: cache.New(ttl, 2*ttl)}
}

// Image returns the named asset. Names without an extension also try ".jpg".
func (s *assetStore) Image(name string) (image.Image, error) {
	name = strings.TrimPrefix(path.Clean("/"+name), "/")
	if v, ok := s.cache.Get(name); ok {
		if img, ok := v.(image.Image); ok {
			return img, nil
		}
		return nil, fmt.Errorf("asset %q not found", name)
	}
	img, err := s.load(name)
	if err != nil {
		s.cache.SetDefault(name, missingAsset{})
		return nil, err
	}
	s.cache.SetDefault(name, img)
	return img, nil
}

func (s *assetStore) load(name string) (image.Image, error) {
	if s.dir == nil {
		return nil, fmt.Errorf("asset %q: no asset directory", name)
	}
	candidates := []string{name}
	if path.Ext(name) == "" {
		candidates = append(candidates, name+".jpg")
	}
	var lastErr error
	for _, c := range candidates {
		f, err := s.dir.Open(c)
		if err != nil {
			lastErr = err
			continue
		}
		img, _, err := image.Decode(f)
		_ = f.Close()
		if err != nil {
			return nil, fmt.Errorf("decode asset %q: %w", c, err)
		}
		return img, nil
	}
	return nil, lastErr
}

// paintBackground fills the whole canvas. It reports whether a fallback
// color was used in place of the declared background.
func (c *canvas) paintBackground(bg theme.Background, assets *assetStore) (fellBack bool) {
	dc := gg.NewContextForRGBA(c.img)
	w, h := float64(c.w), float64(c.h)

	solid := func(col colors.Color) {
		dc.SetColor(col)
		dc.Clear()
	}

	switch b := bg.(type) {
	case theme.Solid:
		solid(colors.ParseOr(b.Color, colors.White))

	case theme.Gradient:
		stops, ok := colors.ParseGradientList(b.Colors)
		if !ok {
			solid(colors.ParseOr(b.Fallback, colors.White))
			return true
		}
		if len(stops) == 1 {
			solid(stops[0])
			return false
		}
		var grad gg.Gradient
		if b.Direction == theme.Horizontal {
			grad = gg.NewLinearGradient(0, 0, w, 0)
		} else {
			grad = gg.NewLinearGradient(0, 0, 0, h)
		}
		for i, s := range stops {
			grad.AddColorStop(float64(i)/float64(len(stops)-1), s)
		}
		dc.SetFillStyle(grad)
		dc.DrawRectangle(0, 0, w, h)
		dc.Fill()

	case theme.Image:
		var img image.Image
		if assets != nil && b.URL != "" {
			img, _ = assets.Image(b.URL)
		}
		if img == nil {
			solid(colors.ParseOr(b.Fallback, colors.White))
			fellBack = true
		} else {
			dc.DrawImage(imaging.Fill(img, c.w, c.h, imaging.Center, imaging.Lanczos), 0, 0)
		}
		if overlay, ok := colors.ParseFunctional(b.Overlay); ok {
			dc.SetColor(overlay)
			dc.DrawRectangle(0, 0, w, h)
			dc.Fill()
		}

	default:
		solid(colors.White)
	}
	return fellBack
}
