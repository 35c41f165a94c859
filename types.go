package quotecard

import (
	"fmt"
	"strings"
)

// AspectRatio selects one of the fixed canvas shapes.
type AspectRatio string

const (
	Square    AspectRatio = "square"
	Portrait  AspectRatio = "portrait"
	Landscape AspectRatio = "landscape"
)

// ExportFormat is the raster encoding of the card.
type ExportFormat string

const (
	PNG  ExportFormat = "png"
	JPEG ExportFormat = "jpeg"
)

// MIME returns the media type used in the data URI.
func (f ExportFormat) MIME() string {
	if f == JPEG {
		return "image/jpeg"
	}
	return "image/png"
}

// ParseAspectRatio accepts the three aspect names case-insensitively.
func ParseAspectRatio(s string) (AspectRatio, error) {
	switch a := AspectRatio(strings.ToLower(strings.TrimSpace(s))); a {
	case Square, Portrait, Landscape:
		return a, nil
	}
	return "", fmt.Errorf("unsupported aspect ratio %q", s)
}

// ParseExportFormat accepts png, jpeg and jpg.
func ParseExportFormat(s string) (ExportFormat, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "png":
		return PNG, nil
	case "jpeg", "jpg":
		return JPEG, nil
	}
	return "", fmt.Errorf("unsupported export format %q", s)
}

// Base canvas sizes at scale 1.
var canvasSizes = map[AspectRatio][2]int{
	Square:    {1080, 1080},
	Portrait:  {1080, 1350},
	Landscape: {1920, 1080},
}

// CanvasSize returns the pixel size for a ratio at the given scale.
func CanvasSize(a AspectRatio, scale float64) (w, h int, err error) {
	base, ok := canvasSizes[a]
	if !ok {
		return 0, 0, fmt.Errorf("unsupported aspect ratio %q", a)
	}
	if scale <= 0 {
		scale = 1
	}
	return int(float64(base[0])*scale + 0.5), int(float64(base[1])*scale + 0.5), nil
}

// Settings are the per-render choices a caller can make.
type Settings struct {
	ThemeID            string       `json:"themeId"`
	AspectRatio        AspectRatio  `json:"aspectRatio"`
	ExportFormat       ExportFormat `json:"exportFormat"`
	IncludeAttribution bool         `json:"includeAttribution"`
}

// DefaultSettings mirrors the application defaults.
func DefaultSettings() Settings {
	return Settings{
		ThemeID:            "scholarly",
		AspectRatio:        Portrait,
		ExportFormat:       PNG,
		IncludeAttribution: true,
	}
}

// Normalize returns s with its aspect ratio and export format in canonical
// form, or an error if either is not recognised.
func (s Settings) Normalize() (Settings, error) {
	a, err := ParseAspectRatio(string(s.AspectRatio))
	if err != nil {
		return s, err
	}
	f, err := ParseExportFormat(string(s.ExportFormat))
	if err != nil {
		return s, err
	}
	s.AspectRatio, s.ExportFormat = a, f
	s.ThemeID = strings.TrimSpace(s.ThemeID)
	if s.ThemeID == "" {
		return s, fmt.Errorf("missing theme id")
	}
	return s, nil
}

// SettingsOverride is a partial Settings; empty fields keep the default.
type SettingsOverride struct {
	ThemeID            string       `json:"themeId,omitempty"`
	AspectRatio        AspectRatio  `json:"aspectRatio,omitempty"`
	ExportFormat       ExportFormat `json:"exportFormat,omitempty"`
	IncludeAttribution *bool        `json:"includeAttribution,omitempty"`
}

// Merge lays o over s.
func (s Settings) Merge(o *SettingsOverride) Settings {
	if o == nil {
		return s
	}
	if o.ThemeID != "" {
		s.ThemeID = o.ThemeID
	}
	if o.AspectRatio != "" {
		s.AspectRatio = o.AspectRatio
	}
	if o.ExportFormat != "" {
		s.ExportFormat = o.ExportFormat
	}
	if o.IncludeAttribution != nil {
		s.IncludeAttribution = *o.IncludeAttribution
	}
	return s
}

// RenderRequest is one card to render. HTML, when present, must already be
// sanitized; Text is the plain-text fallback.
type RenderRequest struct {
	ID               string            `json:"id"`
	Text             string            `json:"text"`
	HTML             string            `json:"html,omitempty"`
	SourceTitle      string            `json:"sourceTitle,omitempty"`
	SourceURL        string            `json:"sourceUrl,omitempty"`
	FaviconDataURI   string            `json:"faviconDataUri,omitempty"`
	CreatedAt        int64             `json:"createdAt"`
	SettingsOverride *SettingsOverride `json:"settingsOverride,omitempty"`
}

// RenderResult echoes the request id. Success implies DataURL is set.
type RenderResult struct {
	ID           string `json:"id"`
	Success      bool   `json:"success"`
	ErrorMessage string `json:"errorMessage,omitempty"`
	DataURL      string `json:"dataUrl,omitempty"`
}

func failure(id string, err *RenderError) RenderResult {
	return RenderResult{ID: id, Success: false, ErrorMessage: err.Message}
}
