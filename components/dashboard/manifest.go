package dashboard

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// ManifestVersion is the only manifest format version understood.
const ManifestVersion = "1"

const defaultManifestCategory = "custom"

// WidgetManifestDocument is a YAML (or JSON) file declaring custom widget
// components. Each entry becomes selectable as CustomConfig.Component.
type WidgetManifestDocument struct {
	Version  string           `json:"version" yaml:"version"`
	Name     string           `json:"name,omitempty" yaml:"name,omitempty"`
	Package  string           `json:"package,omitempty" yaml:"package,omitempty"`
	Homepage string           `json:"homepage,omitempty" yaml:"homepage,omitempty"`
	Widgets  []ManifestWidget `json:"widgets" yaml:"widgets"`
	// Source is the file the document was read from.
	Source string `json:"-" yaml:"-"`
}

// ManifestWidget is one component of a manifest.
type ManifestWidget struct {
	Definition  WidgetDefinition `json:"definition" yaml:"definition"`
	Provider    ManifestProvider `json:"provider,omitempty" yaml:"provider,omitempty"`
	Maintainers []string         `json:"maintainers,omitempty" yaml:"maintainers,omitempty"`
	Tags        []string         `json:"tags,omitempty" yaml:"tags,omitempty"`
}

// ManifestProvider says where the Go provider for a component lives.
type ManifestProvider struct {
	Name         string   `json:"name,omitempty" yaml:"name,omitempty"`
	Summary      string   `json:"summary,omitempty" yaml:"summary,omitempty"`
	Entry        string   `json:"entry,omitempty" yaml:"entry,omitempty"`
	Package      string   `json:"package,omitempty" yaml:"package,omitempty"`
	DocsURL      string   `json:"docs_url,omitempty" yaml:"docs_url,omitempty"`
	Capabilities []string `json:"capabilities,omitempty" yaml:"capabilities,omitempty"`
	Channel      string   `json:"channel,omitempty" yaml:"channel,omitempty"`
}

func (p ManifestProvider) isZero() bool {
	return p.Name == "" && p.Summary == "" && p.Entry == "" && p.Package == "" &&
		p.DocsURL == "" && p.Channel == "" && len(p.Capabilities) == 0
}

// ManifestError lists every problem found in one manifest.
type ManifestError struct {
	Source   string
	Problems []string
}

func (e *ManifestError) Error() string {
	src := e.Source
	if src == "" {
		src = "manifest"
	}
	return fmt.Sprintf("dashboard: invalid %s: %s", src, strings.Join(e.Problems, "; "))
}

// Kind classifies manifest problems as configuration errors.
func (e *ManifestError) Kind() string { return string(KindConfiguration) }

// ReadManifest decodes the manifest at path without registering it.
func ReadManifest(path string) (*WidgetManifestDocument, error) {
	f, err := os.Open(path) //nolint:gosec
	if err != nil {
		return nil, fmt.Errorf("dashboard: open manifest %s: %w", path, err)
	}
	defer f.Close()
	doc, err := decodeManifest(f, path)
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// DecodeManifest decodes and validates a manifest. Unknown keys are rejected.
func DecodeManifest(r io.Reader) (*WidgetManifestDocument, error) {
	return decodeManifest(r, "")
}

func decodeManifest(r io.Reader, source string) (*WidgetManifestDocument, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	doc := &WidgetManifestDocument{}
	if err := dec.Decode(doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &ManifestError{Source: source, Problems: []string{"document is empty"}}
		}
		return nil, fmt.Errorf("dashboard: parse manifest %s: %w", source, err)
	}
	doc.Source = source
	if doc.Version == "" {
		doc.Version = ManifestVersion
	}
	for i := range doc.Widgets {
		if doc.Widgets[i].Definition.Category == "" {
			doc.Widgets[i].Definition.Category = defaultManifestCategory
		}
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return doc, nil
}

// Validate reports every missing field, duplicate code and built-in type a
// component tries to shadow.
func (doc *WidgetManifestDocument) Validate() error {
	var problems []string
	if doc.Version != ManifestVersion {
		problems = append(problems, fmt.Sprintf("unsupported version %q", doc.Version))
	}
	seen := make(map[string]bool, len(doc.Widgets))
	for i, w := range doc.Widgets {
		code := w.Definition.Code
		switch {
		case code == "":
			problems = append(problems, fmt.Sprintf("widgets[%d] is missing definition.code", i))
			continue
		case seen[code]:
			problems = append(problems, fmt.Sprintf("duplicates widget code %s", code))
		}
		seen[code] = true
		if w.Definition.Name == "" {
			problems = append(problems, fmt.Sprintf("%s is missing definition.name", code))
		}
		if _, err := ParseWidgetType(code); err == nil {
			problems = append(problems, fmt.Sprintf("%s shadows a built-in widget type", code))
		}
	}
	if len(problems) > 0 {
		return &ManifestError{Source: doc.Source, Problems: problems}
	}
	return nil
}

// LoadManifestFile reads the manifest at path and registers its components.
func (r *Registry) LoadManifestFile(path string) (*WidgetManifestDocument, error) {
	doc, err := ReadManifest(path)
	if err != nil {
		return nil, err
	}
	if err := r.LoadManifestDocument(doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// LoadManifestDocument registers each component definition and records its
// provider block.
func (r *Registry) LoadManifestDocument(doc *WidgetManifestDocument) error {
	if doc == nil {
		return errors.New("dashboard: manifest document is nil")
	}
	for _, w := range doc.Widgets {
		if err := r.RegisterDefinition(w.Definition); err != nil {
			return fmt.Errorf("dashboard: register %s from %s: %w", w.Definition.Code, doc.Source, err)
		}
		if !w.Provider.isZero() {
			r.setMetadata(w.Definition.Code, w.Provider)
		}
	}
	return nil
}
