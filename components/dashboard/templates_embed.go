package dashboard

import (
	"embed"
	"fmt"
	"io/fs"

	template "github.com/goliatone/go-template"
)

//go:embed templates/*.html templates/widgets/*.html
var embeddedTemplates embed.FS

// TemplatesFS exposes the embedded templates rooted at the templates directory.
func TemplatesFS() fs.FS {
	sub, err := fs.Sub(embeddedTemplates, "templates")
	if err != nil {
		panic(fmt.Sprintf("dashboard: embedded templates: %v", err))
	}
	return sub
}

// NewTemplateRenderer creates a go-template renderer backed by the embedded
// templates. Template names are relative to the templates directory, so the
// renderer works from any working directory.
func NewTemplateRenderer() (Renderer, error) {
	return template.NewRenderer(
		template.WithFS(TemplatesFS()),
		template.WithExtension(".html"),
	)
}
