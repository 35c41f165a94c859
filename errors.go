package quotecard

import "fmt"

// ErrorKind classifies render failures and silent degradations.
type ErrorKind int

const (
	ThemeNotFound ErrorKind = iota + 1
	InvalidSettings
	NoSelection
	SanitizeFallback
	FaviconDecodeFailure
	EncodeFailure
	GraphicsContextFailure
)

var kindNames = map[ErrorKind]string{
	ThemeNotFound:          "theme_not_found",
	InvalidSettings:        "invalid_settings",
	NoSelection:            "no_selection",
	SanitizeFallback:       "sanitize_fallback",
	FaviconDecodeFailure:   "favicon_decode_failure",
	EncodeFailure:          "encode_failure",
	GraphicsContextFailure: "graphics_context_failure",
}

func (k ErrorKind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// RenderError is a per-call failure. Message is what the caller sees.
type RenderError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *RenderError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *RenderError) Unwrap() error { return e.Err }

func errThemeNotFound(id string) *RenderError {
	return &RenderError{Kind: ThemeNotFound, Message: fmt.Sprintf("Theme '%s' not found", id)}
}

func errInvalidSettings(err error) *RenderError {
	return &RenderError{Kind: InvalidSettings, Message: "Invalid settings: " + err.Error(), Err: err}
}

func errEncode(err error) *RenderError {
	return &RenderError{Kind: EncodeFailure, Message: "Failed to encode image", Err: err}
}

func errGraphics(err error) *RenderError {
	return &RenderError{Kind: GraphicsContextFailure, Message: "Rendering failed: " + err.Error(), Err: err}
}

var errNoSelection = &RenderError{Kind: NoSelection, Message: "No text to render"}
