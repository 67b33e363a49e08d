package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"text/template"

	"github.com/ettle/strcase"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-sensormine/components/dashboard"
)

const defaultProviderPackage = "github.com/goliatone/go-sensormine/components/dashboard"

type scaffoldCmd struct {
	Code            string   `required:"" help:"Widget code, dotted (e.g. plant.widget.flow-balance)."`
	Name            string   `required:"" help:"Display name shown in the widget palette."`
	Description     string   `required:"" help:"One-line description recorded in the manifest."`
	Category        string   `default:"custom" help:"Palette category."`
	ManifestPath    string   `name:"manifest" required:"" type:"path" help:"Widget manifest (YAML or JSON) to create or update."`
	SchemaPath      string   `name:"schema" type:"path" help:"JSON schema file for the widget configuration."`
	Tag             []string `help:"Manifest tags (repeatable)."`
	Maintainer      []string `help:"Maintainers recorded in the manifest (repeatable)."`
	Capabilities    []string `help:"Provider capability labels (html, json, ws)."`
	DocsURL         string   `name:"docs-url" help:"Provider documentation link."`
	Channel         string   `help:"Distribution channel (community, partner, internal)."`
	ProviderPackage string   `name:"provider-package" help:"Go package holding the provider factory."`
	ProviderEntry   string   `name:"provider-entry" help:"Factory recorded in the manifest (default <package>.New<Widget>Provider)."`
	ProviderOut     string   `name:"provider-out" type:"path" help:"Provider stub path (default components/dashboard/providers_<code>.go)."`
	Overwrite       bool     `help:"Replace an existing manifest entry and provider stub."`
	SkipProvider    bool     `name:"skip-provider" help:"Only update the manifest."`
}

func (cmd *scaffoldCmd) Run(_ *Globals) error {
	return cmd.scaffold(os.Stdout)
}

func (cmd *scaffoldCmd) scaffold(out io.Writer) error {
	if !strings.Contains(cmd.Code, ".") {
		return fmt.Errorf("sensorctl: widget code %q needs at least one '.' segment", cmd.Code)
	}
	manifestPath, err := filepath.Abs(cmd.ManifestPath)
	if err != nil {
		return fmt.Errorf("sensorctl: resolve manifest path: %w", err)
	}
	doc, err := openManifest(manifestPath)
	if err != nil {
		return err
	}
	schema, err := readSchema(cmd.SchemaPath)
	if err != nil {
		return err
	}

	pkg := cmd.ProviderPackage
	if pkg == "" {
		pkg = defaultProviderPackage
	}
	typeName := providerTypeName(cmd.Code)
	entryName := cmd.ProviderEntry
	if entryName == "" {
		entryName = pkg + ".New" + typeName
	}
	entry := dashboard.ManifestWidget{
		Definition: dashboard.WidgetDefinition{
			Code:        cmd.Code,
			Name:        cmd.Name,
			Description: cmd.Description,
			Category:    cmd.Category,
			Schema:      schema,
		},
		Provider: dashboard.ManifestProvider{
			Name:         cmd.Name + " Provider",
			Summary:      cmd.Description,
			Entry:        entryName,
			Package:      pkg,
			DocsURL:      cmd.DocsURL,
			Capabilities: cmd.Capabilities,
			Channel:      cmd.Channel,
		},
		Maintainers: cmd.Maintainer,
		Tags:        cmd.Tag,
	}
	if err := upsertManifestWidget(doc, entry, cmd.Overwrite); err != nil {
		return err
	}
	if err := saveManifest(manifestPath, doc); err != nil {
		return err
	}

	if cmd.SkipProvider {
		fmt.Fprintf(out, "added %s to %s (provider %s)\n", cmd.Code, manifestPath, entryName)
		return nil
	}
	stubPath := cmd.ProviderOut
	if stubPath == "" {
		stubPath = filepath.Join("components", "dashboard", "providers_"+stubFileName(cmd.Code)+".go")
	}
	if err := writeProviderStub(stubPath, typeName, cmd.Code, cmd.Overwrite); err != nil {
		return err
	}
	fmt.Fprintf(out, "added %s to %s and generated %s\n", cmd.Code, manifestPath, stubPath)
	return nil
}

// upsertManifestWidget adds entry, or replaces the widget with the same
// code when overwrite is set. Widgets stay sorted by code.
func upsertManifestWidget(doc *dashboard.WidgetManifestDocument, entry dashboard.ManifestWidget, overwrite bool) error {
	idx := slices.IndexFunc(doc.Widgets, func(w dashboard.ManifestWidget) bool {
		return w.Definition.Code == entry.Definition.Code
	})
	switch {
	case idx >= 0 && !overwrite:
		return fmt.Errorf("sensorctl: manifest already defines %s (use --overwrite)", entry.Definition.Code)
	case idx >= 0:
		doc.Widgets[idx] = entry
	default:
		doc.Widgets = append(doc.Widgets, entry)
	}
	slices.SortFunc(doc.Widgets, func(a, b dashboard.ManifestWidget) int {
		return strings.Compare(a.Definition.Code, b.Definition.Code)
	})
	return nil
}

func readSchema(path string) (map[string]any, error) {
	if path == "" {
		return map[string]any{"type": "object", "properties": map[string]any{}}, nil
	}
	data, err := os.ReadFile(path) //nolint:gosec
	if err != nil {
		return nil, fmt.Errorf("sensorctl: read schema: %w", err)
	}
	var schema map[string]any
	if err := json.Unmarshal(data, &schema); err != nil {
		return nil, fmt.Errorf("sensorctl: parse schema: %w", err)
	}
	return schema, nil
}

func openManifest(path string) (*dashboard.WidgetManifestDocument, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &dashboard.WidgetManifestDocument{Version: dashboard.ManifestVersion, Source: path}, nil
		}
		return nil, fmt.Errorf("sensorctl: stat manifest: %w", err)
	}
	return dashboard.ReadManifest(path)
}

func saveManifest(path string, doc *dashboard.WidgetManifestDocument) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("sensorctl: mkdir %s: %w", filepath.Dir(path), err)
	}
	clean := *doc
	clean.Source = ""

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(clean); err != nil {
		return fmt.Errorf("sensorctl: encode manifest: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("sensorctl: encode manifest: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil { //nolint:gosec
		return fmt.Errorf("sensorctl: write manifest: %w", err)
	}
	return nil
}

var providerStub = template.Must(template.New("provider").Parse(`package dashboard

import "context"

// {{.Type}} fetches data for {{.Code}} widgets.
type {{.Type}} struct {
	query QueryClient
}

// New{{.Type}} builds the provider. Register it under "{{.Code}}".
func New{{.Type}}(query QueryClient) Provider {
	return &{{.Type}}{query: query}
}

// Fetch loads the widget payload. meta.Config has defaults applied and the
// drill-through parameters are on ctx.
func (p *{{.Type}}) Fetch(ctx context.Context, meta WidgetContext) (WidgetData, error) {
	params := ParameterContextFrom(ctx)
	return WidgetData{
		"widgetId":  meta.Widget.ID,
		"parameter": params.ParameterID,
	}, nil
}
`))

func writeProviderStub(path, typeName, code string, overwrite bool) error {
	if _, err := os.Stat(path); err == nil && !overwrite {
		return fmt.Errorf("sensorctl: provider stub %s exists (use --overwrite or --provider-out)", path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("sensorctl: mkdir provider dir: %w", err)
	}
	var buf bytes.Buffer
	if err := providerStub.Execute(&buf, struct{ Type, Code string }{typeName, code}); err != nil {
		return fmt.Errorf("sensorctl: render provider stub: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil { //nolint:gosec
		return fmt.Errorf("sensorctl: write provider stub: %w", err)
	}
	return nil
}

// providerTypeName turns the last code segment into a Go type name,
// plant.widget.flow-balance becomes FlowBalanceProvider.
func providerTypeName(code string) string {
	slug := strings.TrimSpace(code[strings.LastIndex(code, ".")+1:])
	if slug == "" {
		slug = code
	}
	return strcase.ToGoPascal(slug) + "Provider"
}

func stubFileName(code string) string {
	return strings.ToLower(strcase.ToSnake(strings.NewReplacer(".", "_", "/", "_").Replace(code)))
}
