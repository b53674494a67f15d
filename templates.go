package formdoc

import (
	"io/fs"

	"github.com/goliatone/go-formdoc/pkg/renderers/html"
)

// EmbeddedTemplates exposes the built-in HTML renderer templates so callers
// can reuse or extend them without importing the renderer package directly.
func EmbeddedTemplates() fs.FS {
	return html.TemplatesFS()
}

// EmbeddedAssets exposes the default stylesheet for serving over HTTP.
func EmbeddedAssets() fs.FS {
	return html.AssetsFS()
}
