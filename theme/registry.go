package theme

import (
	_ "embed"
	"io"
	"os"
	"sort"

	"github.com/sirupsen/logrus"
)

//go:embed themes.json
var bundled []byte

// FallbackID is the id of the built-in theme used when no document loads.
const FallbackID = "soft-sand"

// Fallback returns the built-in theme the registry falls back to.
func Fallback() Theme {
	return Theme{
		ID:         FallbackID,
		Name:       "Soft Sand",
		FontFamily: []string{"Inter"},
		FontWeight: defaultWeight,
		Background: Solid{Color: "#F7F1E8"},
		Text:       TextStyle{Color: "#171615", FontSize: 40, LineHeight: 1.35},
		Footer:     Footer{Enabled: true, Color: "#6F6254", Opacity: 0.75},
		Padding:    64,
	}
}

// Registry maps theme ids to themes. It is filled once by its constructor
// and only read afterwards, so lookups need no locking.
type Registry struct {
	themes map[string]Theme
}

// NewRegistry builds a registry from a theme document. Invalid entries are
// skipped; if the document is unreadable or yields no themes the registry
// holds exactly the Fallback theme.
func NewRegistry(data []byte, log logrus.FieldLogger) *Registry {
	if log == nil {
		log = discard()
	}
	themes, skipped, err := ParseDocument(data)
	for _, s := range skipped {
		log.WithFields(logrus.Fields{
			"index":    s.Index,
			"theme_id": s.ID,
			"reason":   s.Reason,
		}).Warn("skipping theme entry")
	}
	if err != nil || len(themes) == 0 {
		if err != nil {
			log.WithError(err).Warn("failed to load themes, using fallback")
		} else {
			log.Warn("theme document has no usable themes, using fallback")
		}
		themes = []Theme{Fallback()}
	}
	r := &Registry{themes: make(map[string]Theme, len(themes))}
	for _, t := range themes {
		r.themes[t.ID] = t
	}
	log.WithField("count", len(r.themes)).Debug("themes loaded")
	return r
}

// Bundled returns a registry over the themes compiled into the binary.
func Bundled(log logrus.FieldLogger) *Registry {
	return NewRegistry(bundled, log)
}

// LoadFile reads a theme document from path. An empty path selects the
// bundled document; a read failure degrades to the fallback theme.
func LoadFile(path string, log logrus.FieldLogger) *Registry {
	if path == "" {
		return Bundled(log)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if log != nil {
			log.WithError(err).WithField("path", path).Warn("failed to read theme document")
		}
		data = nil
	}
	return NewRegistry(data, log)
}

// Lookup returns the theme with the given id.
func (r *Registry) Lookup(id string) (Theme, bool) {
	t, ok := r.themes[id]
	return t, ok
}

// All returns every theme ordered by id.
func (r *Registry) All() []Theme {
	out := make([]Theme, 0, len(r.themes))
	for _, t := range r.themes {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// IDs returns the sorted theme ids.
func (r *Registry) IDs() []string {
	ids := make([]string, 0, len(r.themes))
	for id := range r.themes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (r *Registry) Len() int { return len(r.themes) }

func discard() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}
