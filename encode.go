package quotecard

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"strings"
)

// jpegQuality is the fixed quality factor for JPEG exports.
const jpegQuality = 80

// Favicons come from untrusted pages; anything larger is dropped.
const (
	maxFaviconBytes = 1 << 20
	maxFaviconEdge  = 1024
)

// encode writes img in the requested format. JPEG has no alpha, so the
// canvas is flattened over white first.
func encode(img *image.RGBA, f ExportFormat) ([]byte, error) {
	var buf bytes.Buffer
	switch f {
	case JPEG:
		if err := jpeg.Encode(&buf, flatten(img), &jpeg.Options{Quality: jpegQuality}); err != nil {
			return nil, err
		}
	case PNG:
		if err := png.Encode(&buf, img); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported export format %q", f)
	}
	return buf.Bytes(), nil
}

// DataURI wraps b as data:<mime>;base64,<payload>.
func DataURI(mime string, b []byte) string {
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(b)
}

var errNotDataURI = errors.New("not a base64 data URI")

// DecodeDataURI returns the media type and payload of a base64 data URI.
func DecodeDataURI(uri string) (string, []byte, error) {
	head, payload, ok := strings.Cut(strings.TrimSpace(uri), ",")
	if !ok || !strings.HasPrefix(head, "data:") {
		return "", nil, errNotDataURI
	}
	head = strings.TrimPrefix(head, "data:")
	mime, params, _ := strings.Cut(head, ";")
	if !strings.Contains(";"+params+";", ";base64;") {
		return "", nil, errNotDataURI
	}
	b, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("data URI payload: %w", err)
	}
	return mime, b, nil
}

// decodeFavicon turns a favicon data URI into an image. The payload size
// and the declared dimensions are checked before any pixels are decoded.
func decodeFavicon(uri string) (img image.Image, err error) {
	if len(uri) > base64.StdEncoding.EncodedLen(maxFaviconBytes)+256 {
		return nil, fmt.Errorf("favicon: data URI exceeds %d bytes", maxFaviconBytes)
	}
	_, b, err := DecodeDataURI(uri)
	if err != nil {
		return nil, err
	}
	if len(b) > maxFaviconBytes {
		return nil, fmt.Errorf("favicon: payload exceeds %d bytes", maxFaviconBytes)
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(b))
	if err != nil {
		return nil, fmt.Errorf("favicon: %w", err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || cfg.Width > maxFaviconEdge || cfg.Height > maxFaviconEdge {
		return nil, fmt.Errorf("favicon: %dx%d exceeds %dx%d", cfg.Width, cfg.Height, maxFaviconEdge, maxFaviconEdge)
	}

	defer func() {
		if r := recover(); r != nil {
			img, err = nil, fmt.Errorf("favicon: decode panic: %v", r)
		}
	}()
	img, _, err = image.Decode(bytes.NewReader(b))
	if err != nil {
		return nil, fmt.Errorf("favicon: %w", err)
	}
	return img, nil
}
