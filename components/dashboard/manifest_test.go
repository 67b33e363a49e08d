package dashboard

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeManifest(t *testing.T) {
	const payload = `
version: "1"
name: hydraulics-pack
widgets:
  - definition:
      code: hydraulics.pump-curve
      name: Pump Curve
      description: Head versus flow for a pump asset.
      schema:
        type: object
        properties:
          assetId:
            type: string
    provider:
      name: Pump Curve Provider
      entry: github.com/example/hydraulics.NewPumpCurveProvider
      docs_url: https://example.com/widgets/pump-curve
      capabilities: ["json"]
`
	doc, err := DecodeManifest(strings.NewReader(payload))
	require.NoError(t, err)
	require.Len(t, doc.Widgets, 1)

	w := doc.Widgets[0]
	assert.Equal(t, "hydraulics.pump-curve", w.Definition.Code)
	assert.Equal(t, "custom", w.Definition.Category)
	assert.Equal(t, []string{"json"}, w.Provider.Capabilities)
	assert.Equal(t, "https://example.com/widgets/pump-curve", w.Provider.DocsURL)
}

func TestManifestRejectsUnknownFields(t *testing.T) {
	const payload = `
widgets:
  - definition:
      code: energy.tariff
      name: Tariff
      colour: blue
`
	_, err := DecodeManifest(strings.NewReader(payload))
	require.Error(t, err)
}

func TestManifestCollectsEveryProblem(t *testing.T) {
	const payload = `
version: "2"
widgets:
  - definition:
      code: time-series
      name: Shadow
  - definition:
      code: dup.widget
      name: First
  - definition:
      code: dup.widget
  - definition:
      name: No code
`
	_, err := DecodeManifest(strings.NewReader(payload))
	var merr *ManifestError
	require.True(t, errors.As(err, &merr), "got %v", err)
	assert.Len(t, merr.Problems, 5)
	msg := err.Error()
	assert.Contains(t, msg, `unsupported version "2"`)
	assert.Contains(t, msg, "time-series shadows a built-in widget type")
	assert.Contains(t, msg, "duplicates widget code dup.widget")
	assert.Contains(t, msg, "dup.widget is missing definition.name")
	assert.Contains(t, msg, "widgets[3] is missing definition.code")
	assert.Equal(t, KindConfiguration, ClassifyError(err))
}

func TestReadManifestEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.yaml")
	require.NoError(t, os.WriteFile(path, nil, 0o600))
	_, err := ReadManifest(path)
	var merr *ManifestError
	require.True(t, errors.As(err, &merr))
	assert.Equal(t, path, merr.Source)
}

func TestRegistryLoadManifestDocument(t *testing.T) {
	doc := &WidgetManifestDocument{
		Version: ManifestVersion,
		Widgets: []ManifestWidget{
			{
				Definition: WidgetDefinition{Code: "acme.pump-curve", Name: "Pump Curve"},
				Provider: ManifestProvider{
					Name:  "Pump Curve Provider",
					Entry: "github.com/acme/widgets.NewPumpCurveProvider",
				},
			},
			{Definition: WidgetDefinition{Code: "acme.bare", Name: "Bare"}},
		},
	}
	reg := NewRegistry()
	require.NoError(t, reg.LoadManifestDocument(doc))

	def, ok := reg.Definition("acme.pump-curve")
	require.True(t, ok)
	assert.Equal(t, "Pump Curve", def.Name)

	meta, ok := reg.ProviderMetadata("acme.pump-curve")
	require.True(t, ok)
	assert.Equal(t, "github.com/acme/widgets.NewPumpCurveProvider", meta.Entry)
	_, ok = reg.ProviderMetadata("acme.bare")
	assert.False(t, ok)

	custom := reg.CustomComponents()
	require.Len(t, custom, 2)
	assert.Equal(t, "acme.bare", custom[0].Code)
}

func TestRegistryRedefinitionKeepsProvider(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.RegisterDefinition(WidgetDefinition{Code: "acme.x", Name: "X"}))
	p := ProviderFunc(func(context.Context, WidgetContext) (WidgetData, error) { return WidgetData{}, nil })
	require.NoError(t, reg.RegisterProvider("acme.x", p))
	require.NoError(t, reg.RegisterDefinition(WidgetDefinition{Code: "acme.x", Name: "X v2"}))

	_, ok := reg.Provider("acme.x")
	assert.True(t, ok)
	def, _ := reg.Definition("acme.x")
	assert.Equal(t, "X v2", def.Name)

	assert.Error(t, reg.RegisterProvider("acme.missing", p))
	assert.Error(t, reg.RegisterProvider("acme.x", nil))
	assert.ErrorIs(t, reg.RegisterDefinition(WidgetDefinition{}), errEmptyCode)
}

func TestRegistryBuiltInsHaveNoProviderUntilBound(t *testing.T) {
	reg := NewRegistry()
	_, ok := reg.Definition(string(WidgetKPI))
	require.True(t, ok)
	_, ok = reg.Provider(string(WidgetKPI))
	assert.False(t, ok)
	assert.Empty(t, reg.CustomComponents())
}

func TestDocsManifestsAreValid(t *testing.T) {
	dir := filepath.Join("..", "..", "docs", "manifests")
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)

	codes := map[string]string{}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		doc, err := ReadManifest(path)
		require.NoErrorf(t, err, "manifest %s should parse", path)
		for _, w := range doc.Widgets {
			if prev, exists := codes[w.Definition.Code]; exists {
				t.Fatalf("widget code %s defined in both %s and %s", w.Definition.Code, prev, path)
			}
			codes[w.Definition.Code] = path
		}
	}
}
