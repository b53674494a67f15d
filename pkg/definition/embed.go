package definition

import (
	"embed"
	"io/fs"
)

//go:embed forms/*
var embeddedForms embed.FS

// EmbeddedFS returns the bundled sample definitions (purchase order,
// timesheet, expense claim).
func EmbeddedFS() fs.FS {
	sub, err := fs.Sub(embeddedForms, "forms")
	if err != nil {
		panic(err)
	}
	return sub
}

// LoadEmbedded loads the bundled sample definitions.
func LoadEmbedded(opts ...Option) (*Store, error) {
	return LoadFS(EmbeddedFS(), opts...)
}
