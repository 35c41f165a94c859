// Package quotecard renders selected text as a themed quote card image.
//
// A Renderer takes a RenderRequest carrying the selected text, optional
// sanitized HTML and page metadata, and returns a RenderResult holding a
// data URI of the encoded PNG or JPEG. Settings, theme lookup and text
// composition run on the calling goroutine; drawing and encoding are
// serialized on a single graphics worker.
package quotecard

import (
	"errors"
	"image"
	"io"
	"io/fs"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/arran4/quotecard/richtext"
	"github.com/arran4/quotecard/theme"
)

// Options configure a Renderer. Zero values pick sensible defaults.
type Options struct {
	Themes    *theme.Registry
	Fonts     *richtext.FontLibrary
	Assets    fs.FS // background images referenced by themes
	Defaults  *Settings
	Scale     float64
	QueueSize int
	CacheTTL  time.Duration
	Logger    logrus.FieldLogger
	Metrics   MetricsRecorder
}

// Renderer turns render requests into encoded cards. It is safe for
// concurrent use; drawing is serialized internally.
type Renderer struct {
	themes   *theme.Registry
	fonts    *richtext.FontLibrary
	composer *richtext.Composer
	assets   *assetStore
	defaults Settings
	scale    float64
	log      logrus.FieldLogger
	metrics  MetricsRecorder
	gfx      *graphicsContext
}

// New builds a Renderer and starts its graphics worker.
func New(opts Options) (*Renderer, error) {
	log := opts.Logger
	if log == nil {
		l := logrus.New()
		l.Out = io.Discard
		log = l
	}
	if opts.Themes == nil {
		opts.Themes = theme.Bundled(log)
	}
	if opts.Fonts == nil {
		fonts, err := richtext.NewFontLibrary(nil, opts.CacheTTL)
		if err != nil {
			return nil, err
		}
		opts.Fonts = fonts
	}
	if opts.Metrics == nil {
		opts.Metrics = nopMetrics{}
	}
	defaults := DefaultSettings()
	if opts.Defaults != nil {
		defaults = *opts.Defaults
	}
	defaults, err := defaults.Normalize()
	if err != nil {
		return nil, err
	}
	if opts.Scale <= 0 {
		opts.Scale = 1
	}
	return &Renderer{
		themes:   opts.Themes,
		fonts:    opts.Fonts,
		composer: richtext.NewComposer(opts.Fonts),
		assets:   newAssetStore(opts.Assets, opts.CacheTTL),
		defaults: defaults,
		scale:    opts.Scale,
		log:      log,
		metrics:  opts.Metrics,
		gfx:      newGraphicsContext(opts.QueueSize, opts.Metrics.SetQueueDepth),
	}, nil
}

// Themes returns the registry the renderer looks themes up in.
func (r *Renderer) Themes() *theme.Registry { return r.themes }

// Close waits for queued renders to finish and stops the graphics worker.
// Render calls made afterwards fail.
func (r *Renderer) Close() { r.gfx.Close() }

// Render produces the card for req. It never returns an error: failures are
// reported as Success=false with a message, and do not affect other calls.
func (r *Renderer) Render(req RenderRequest) RenderResult {
	start := time.Now()
	log := r.log.WithField("request_id", req.ID)

	res, rerr := r.render(req, log)
	if rerr != nil {
		entry := log.WithFields(logrus.Fields{
			"kind":  rerr.Kind.String(),
			"error": rerr.Error(),
		})
		switch rerr.Kind {
		case EncodeFailure, GraphicsContextFailure:
			entry.Error("render failed")
		default:
			entry.Warn("render failed")
		}
		r.metrics.ObserveRender(OutcomeFailure, rerr.Kind.String(), time.Since(start))
		return failure(req.ID, rerr)
	}
	log.WithField("duration", time.Since(start)).Debug("render complete")
	r.metrics.ObserveRender(OutcomeSuccess, "", time.Since(start))
	return res
}

// scene is everything the graphics worker needs for one card.
type scene struct {
	width, height int
	theme         theme.Theme
	runs          []richtext.StyledRun
	footer        *footer
	format        ExportFormat
}

func (r *Renderer) render(req RenderRequest, log logrus.FieldLogger) (RenderResult, *RenderError) {
	settings, err := r.defaults.Merge(req.SettingsOverride).Normalize()
	if err != nil {
		return RenderResult{}, errInvalidSettings(err)
	}
	th, ok := r.themes.Lookup(settings.ThemeID)
	if !ok {
		return RenderResult{}, errThemeNotFound(settings.ThemeID)
	}
	w, h, err := CanvasSize(settings.AspectRatio, r.scale)
	if err != nil {
		return RenderResult{}, errInvalidSettings(err)
	}
	log = log.WithFields(logrus.Fields{
		"theme_id":     th.ID,
		"aspect_ratio": settings.AspectRatio,
		"format":       settings.ExportFormat,
	})
	log.Debug("theme resolved")

	runs, rerr := r.compose(req, th, log)
	if rerr != nil {
		return RenderResult{}, rerr
	}

	var icon image.Image
	if req.FaviconDataURI != "" {
		icon, err = decodeFavicon(req.FaviconDataURI)
		if err != nil {
			log.WithError(err).Debug("favicon ignored")
			r.metrics.IncFallback(FaviconDecodeFailure.String())
			icon = nil
		}
	}
	footerFont := r.fonts.Resolve(th.BaseFamily(), false, false, th.FontWeight)

	sc := scene{
		width:  w,
		height: h,
		theme:  th,
		runs:   runs,
		footer: newFooter(settings, th, req.SourceTitle, icon, footerFont),
		format: settings.ExportFormat,
	}

	var data []byte
	err = r.gfx.Do(func() error {
		var encErr error
		data, encErr = r.draw(sc, log)
		return encErr
	})
	if err != nil {
		var ee *encodeError
		if errors.As(err, &ee) {
			return RenderResult{}, errEncode(ee.err)
		}
		return RenderResult{}, errGraphics(err)
	}
	return RenderResult{
		ID:      req.ID,
		Success: true,
		DataURL: DataURI(settings.ExportFormat.MIME(), data),
	}, nil
}

// compose builds the styled runs for the request, degrading to plain text
// when the markup cannot be used.
func (r *Renderer) compose(req RenderRequest, th theme.Theme, log logrus.FieldLogger) ([]richtext.StyledRun, *RenderError) {
	size := baseQuoteSize * r.scale
	plain := strings.TrimSpace(req.Text)
	if strings.TrimSpace(req.HTML) != "" {
		runs, err := r.composer.ComposeHTML(req.HTML, th, size)
		if err == nil {
			return runs, nil
		}
		log.WithError(err).Debug("markup unusable, rendering plain text")
		r.metrics.IncFallback(SanitizeFallback.String())
	}
	if plain == "" {
		return nil, errNoSelection
	}
	return r.composer.Plain(plain, th, size), nil
}

type encodeError struct{ err error }

func (e *encodeError) Error() string { return "encode: " + e.err.Error() }

// draw paints the scene and encodes it. It runs on the graphics worker.
func (r *Renderer) draw(sc scene, log logrus.FieldLogger) ([]byte, error) {
	c := newCanvas(sc.width, sc.height, r.scale)
	th := sc.theme

	if c.paintBackground(th.Background, r.assets) {
		log.WithField("theme_id", th.ID).Debug("background fell back to color")
		r.metrics.IncFallback("background")
	}

	pad := th.Padding * r.scale
	left, top := pad, pad
	width := float64(sc.width) - 2*pad
	bottom := float64(sc.height) - pad

	if sc.footer != nil {
		fh := c.footerHeight(sc.footer)
		c.drawFooter(sc.footer, left, bottom-fh, width, fh)
		bottom -= fh + footerGap*r.scale
	}

	gap := baseLineGap * r.scale
	block := c.fitText(sc.runs, width, bottom-top, th.Text.LineHeight, gap)
	c.drawText(block, th.Text.Glow, left, top, bottom, gap*block.fit)

	data, err := encode(c.img, sc.format)
	if err != nil {
		return nil, &encodeError{err: err}
	}
	return data, nil
}
