package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/arran4/quotecard"
	"github.com/arran4/quotecard/internal/capture"
	"github.com/arran4/quotecard/internal/config"
	"github.com/arran4/quotecard/internal/logging"
	"github.com/arran4/quotecard/richtext"
	"github.com/arran4/quotecard/theme"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fatal(err)
	}

	in := flag.String("in", "", "Input file (default: stdin if empty)")
	format := flag.String("format", "", "Input format: html|markdown|text (default: from extension, else text)")
	out := flag.String("out", "", "Output image file (default: quote.png or quote.jpg)")
	themeID := flag.String("theme", cfg.Defaults.ThemeID, "Theme id")
	aspect := flag.String("aspect", string(cfg.Defaults.AspectRatio), "Aspect ratio: square|portrait|landscape")
	export := flag.String("export", "", "Export format: png|jpeg (default: from -out extension, else config)")
	title := flag.String("title", "", "Source title shown in the footer")
	url := flag.String("url", "", "Source URL")
	favicon := flag.String("favicon", "", "Path to a favicon image for the footer")
	noAttribution := flag.Bool("no-attribution", !cfg.Defaults.IncludeAttribution, "Omit the attribution footer")
	themesPath := flag.String("themes", cfg.ThemesPath, "Theme document (default: bundled themes)")
	fontsDir := flag.String("fonts", cfg.FontsDir, "Directory of <Family>.ttf fonts")
	assetsDir := flag.String("assets", cfg.AssetsDir, "Directory of background images")
	scale := flag.Float64("scale", cfg.Scale, "Canvas scale factor")
	listThemes := flag.Bool("list-themes", false, "List available themes and exit")
	verbose := flag.Bool("v", false, "Verbose logging")
	flag.Parse()

	level := cfg.LogLevel
	if *verbose {
		level = "debug"
	}
	log, err := logging.New(logging.Options{Level: level, Format: cfg.LogFormat, File: cfg.LogFile}, os.Stderr)
	if err != nil {
		fatal(err)
	}

	themes := theme.LoadFile(*themesPath, log)
	if *listThemes {
		for _, th := range themes.All() {
			fmt.Printf("%-12s %s\n", th.ID, th.Name)
		}
		return
	}

	var data []byte
	if *in == "" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(*in)
	}
	if err != nil {
		fatal(err)
	}

	page := capture.Page{Title: *title, URL: *url}
	if *favicon != "" {
		page.FaviconDataURI, err = capture.FaviconFile(*favicon)
		if err != nil {
			log.WithError(err).Warn("ignoring favicon")
		}
	}

	var sel capture.Selection
	switch inputFormat(*format, *in) {
	case "html":
		sel, err = capture.FromHTML(string(data), page)
	case "markdown":
		sel, err = capture.FromMarkdown(data, page)
	case "text":
		sel, err = capture.FromText(string(data), page)
	default:
		err = errors.New("unsupported input format: " + *format)
	}
	if err != nil {
		fatal(err)
	}

	exportFormat, outPath, err := resolveOutput(*export, *out, cfg.Defaults.ExportFormat)
	if err != nil {
		fatal(err)
	}

	fonts, err := richtext.NewFontLibrary(dirFS(*fontsDir), cfg.CacheTTL)
	if err != nil {
		fatal(err)
	}
	defaults := cfg.Defaults
	r, err := quotecard.New(quotecard.Options{
		Themes:    themes,
		Fonts:     fonts,
		Assets:    dirFS(*assetsDir),
		Defaults:  &defaults,
		Scale:     *scale,
		QueueSize: 1,
		CacheTTL:  cfg.CacheTTL,
		Logger:    log,
	})
	if err != nil {
		fatal(err)
	}
	defer r.Close()

	include := !*noAttribution
	res := r.Render(sel.Request("", &quotecard.SettingsOverride{
		ThemeID:            *themeID,
		AspectRatio:        quotecard.AspectRatio(*aspect),
		ExportFormat:       exportFormat,
		IncludeAttribution: &include,
	}))
	if !res.Success {
		fatal(errors.New(res.ErrorMessage))
	}
	_, img, err := quotecard.DecodeDataURI(res.DataURL)
	if err != nil {
		fatal(err)
	}
	if err := os.WriteFile(outPath, img, 0o644); err != nil {
		fatal(err)
	}
	log.WithField("path", outPath).Info("wrote quote card")
}

// inputFormat picks the declared format, else guesses from the file name.
func inputFormat(declared, path string) string {
	if declared != "" {
		return strings.ToLower(declared)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".html", ".htm":
		return "html"
	case ".md", ".markdown":
		return "markdown"
	}
	return "text"
}

// resolveOutput reconciles -export with the -out extension.
func resolveOutput(export, out string, def quotecard.ExportFormat) (quotecard.ExportFormat, string, error) {
	f := def
	switch {
	case export != "":
		p, err := quotecard.ParseExportFormat(export)
		if err != nil {
			return "", "", err
		}
		f = p
	case out != "":
		ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(out)), ".")
		p, err := quotecard.ParseExportFormat(ext)
		if err != nil {
			return "", "", errors.New("unsupported output extension: ." + ext)
		}
		f = p
	}
	if out == "" {
		out = "quote.png"
		if f == quotecard.JPEG {
			out = "quote.jpg"
		}
	}
	return f, out, nil
}

func dirFS(dir string) fs.FS {
	if dir == "" {
		return nil
	}
	return os.DirFS(dir)
}

func fatal(err error) {
	_, _ = os.Stderr.WriteString("quotecard: " + err.Error() + "\n")
	os.Exit(1)
}
