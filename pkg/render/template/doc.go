// Package template defines the engine seam document renderers depend on.
// The gotemplate sub-package provides the pongo2-backed implementation.
package template
