package main

import (
	"bytes"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-sensormine/components/dashboard"
)

func TestScaffoldCreatesManifestAndStub(t *testing.T) {
	dir := t.TempDir()
	manifest := filepath.Join(dir, "widgets", "manifest.yaml")
	stub := filepath.Join(dir, "providers_flow.go")

	cmd := &scaffoldCmd{
		Code:         "plant.widget.flow-balance",
		Name:         "Flow Balance",
		Description:  "Inlet vs outlet flow",
		Category:     "process",
		ManifestPath: manifest,
		ProviderOut:  stub,
		Tag:          []string{"flow"},
	}
	var out bytes.Buffer
	require.NoError(t, cmd.scaffold(&out))
	assert.Contains(t, out.String(), "plant.widget.flow-balance")

	doc, err := dashboard.ReadManifest(manifest)
	require.NoError(t, err)
	require.Len(t, doc.Widgets, 1)
	w := doc.Widgets[0]
	assert.Equal(t, "Flow Balance", w.Definition.Name)
	assert.Equal(t, "process", w.Definition.Category)
	assert.Equal(t, defaultProviderPackage+".NewFlowBalanceProvider", w.Provider.Entry)
	assert.Equal(t, []string{"flow"}, w.Tags)

	src, err := os.ReadFile(stub)
	require.NoError(t, err)
	assert.Contains(t, string(src), "type FlowBalanceProvider struct")
	assert.Contains(t, string(src), `Register it under "plant.widget.flow-balance"`)

	file, err := parser.ParseFile(token.NewFileSet(), stub, src, parser.ImportsOnly)
	if err != nil {
		t.Fatalf("generated stub does not parse: %v", err)
	}
	assert.Equal(t, "dashboard", file.Name.Name)
	require.Len(t, file.Imports, 1)
	assert.Equal(t, `"context"`, file.Imports[0].Path.Value)
}

func TestScaffoldStubIsValidGo(t *testing.T) {
	stub := filepath.Join(t.TempDir(), "stub.go")
	require.NoError(t, writeProviderStub(stub, "WindRoseProvider", "weather.wind-rose", false))
	if _, err := parser.ParseFile(token.NewFileSet(), stub, nil, parser.AllErrors); err != nil {
		t.Fatalf("generated stub does not parse: %v", err)
	}
	assert.Error(t, writeProviderStub(stub, "WindRoseProvider", "weather.wind-rose", false))
}

func TestScaffoldRefusesDuplicateWithoutOverwrite(t *testing.T) {
	dir := t.TempDir()
	manifest := filepath.Join(dir, "manifest.yaml")
	base := scaffoldCmd{
		Code:         "plant.widget.a",
		Name:         "A",
		Description:  "first",
		ManifestPath: manifest,
		SkipProvider: true,
	}
	first := base
	require.NoError(t, first.scaffold(&bytes.Buffer{}))

	dup := base
	err := dup.scaffold(&bytes.Buffer{})
	if err == nil || !strings.Contains(err.Error(), "--overwrite") {
		t.Fatalf("expected duplicate error, got %v", err)
	}

	replace := base
	replace.Description = "second"
	replace.Overwrite = true
	require.NoError(t, replace.scaffold(&bytes.Buffer{}))

	other := base
	other.Code = "plant.widget.0"
	require.NoError(t, other.scaffold(&bytes.Buffer{}))

	doc, err := dashboard.ReadManifest(manifest)
	require.NoError(t, err)
	require.Len(t, doc.Widgets, 2)
	assert.Equal(t, "plant.widget.0", doc.Widgets[0].Definition.Code)
	assert.Equal(t, "second", doc.Widgets[1].Definition.Description)
}

func TestScaffoldValidatesCode(t *testing.T) {
	cmd := &scaffoldCmd{Code: "nodots", ManifestPath: filepath.Join(t.TempDir(), "m.yaml")}
	assert.Error(t, cmd.scaffold(&bytes.Buffer{}))
}

func TestProviderTypeName(t *testing.T) {
	assert.Equal(t, "FlowBalanceProvider", providerTypeName("plant.widget.flow-balance"))
	assert.Equal(t, "plant_widget_flow_balance", stubFileName("plant.widget.flow-balance"))
}
