package dashboard

import (
	"bytes"
	"context"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTemplatesFSRootedAtTemplates(t *testing.T) {
	for _, name := range []string{"dashboard.html", "widgets/kpi.html", "widgets/asset-node.html"} {
		if _, err := fs.Stat(TemplatesFS(), name); err != nil {
			t.Fatalf("expected %s in embedded templates: %v", name, err)
		}
	}
}

func TestTemplateRendererIgnoresWorkingDirectory(t *testing.T) {
	t.Chdir(t.TempDir())

	renderer, err := NewTemplateRenderer()
	require.NoError(t, err)

	tree := Widget{ID: "t1", Type: WidgetDigitalTwinTree, Title: "Plant tree"}
	resolved := resolvedFixture()
	resolved.Widgets = append(resolved.Widgets, ResolvedWidget{
		Widget: tree,
		Layout: LayoutItem{I: "t1", W: 4, H: 3},
		Status: StatusSuccess,
		Data: WidgetData{
			"nodes": []map[string]any{
				{"ID": "site-1", "Name": "North Plant", "TypeName": "Site", "HasChildren": true},
			},
		},
	})
	controller := NewController(ControllerOptions{
		Service:  &stubResolver{resolved: resolved},
		Renderer: renderer,
	})

	var buf bytes.Buffer
	require.NoError(t, controller.RenderTemplate(context.Background(), ViewerContext{UserID: "user"}, "dash-1", &buf))
	html := buf.String()
	assert.Contains(t, html, "<title>Plant</title>")
	assert.Contains(t, html, `data-widget-id="k1"`)
	assert.Contains(t, html, "please select a field")
	assert.Contains(t, html, `data-asset-id="site-1"`)
}
