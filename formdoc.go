// Package formdoc is the top-level entry point for rendering business form
// documents. It wires the definition store, the document model and the HTML
// renderer for callers that do not need the individual packages.
package formdoc

import (
	"context"
	"fmt"
	"io/fs"

	theme "github.com/goliatone/go-theme"

	"github.com/goliatone/go-formdoc/pkg/definition"
	"github.com/goliatone/go-formdoc/pkg/document"
	"github.com/goliatone/go-formdoc/pkg/form"
	"github.com/goliatone/go-formdoc/pkg/model"
	"github.com/goliatone/go-formdoc/pkg/render"
	"github.com/goliatone/go-formdoc/pkg/renderers/html"
)

// FormDefinition aliases model.FormDefinition.
type FormDefinition = model.FormDefinition

// Document aliases document.Document.
type Document = document.Document

// RenderOptions describes per-request renderer overrides.
type RenderOptions = render.RenderOptions

// ViewOptions controls how a document view is assembled.
type ViewOptions = render.ViewOptions

// LoadForms reads every JSON/YAML definition in fsys. A nil fsys loads the
// bundled sample forms.
func LoadForms(fsys fs.FS, options ...definition.Option) (*definition.Store, error) {
	if fsys == nil {
		return definition.LoadEmbedded(options...)
	}
	return definition.LoadFS(fsys, options...)
}

// NewDocument builds a document for def, optionally seeded from a FormValues
// tree such as a previous snapshot.
func NewDocument(def FormDefinition, values map[string]any, options ...document.Option) (*Document, error) {
	if values != nil {
		options = append([]document.Option{document.WithValues(values)}, options...)
	}
	return document.New(def, options...)
}

// Config groups the options accepted by GenerateHTML.
type Config struct {
	Print        bool
	Placeholder  string
	Action       string
	Standalone   bool
	HTMLOptions  []html.Option
	ThemeName    string
	ThemeVariant string
	Selector     theme.ThemeSelector
}

// Option mutates Config.
type Option func(*Config)

// WithPrint renders the frozen print variant.
func WithPrint() Option {
	return func(c *Config) { c.Print = true }
}

// WithPlaceholder overrides the print text for empty values.
func WithPlaceholder(placeholder string) Option {
	return func(c *Config) { c.Placeholder = placeholder }
}

// WithAction sets the edit form's action URL.
func WithAction(action string) Option {
	return func(c *Config) { c.Action = action }
}

// WithStandalone wraps the output in a full HTML page.
func WithStandalone() Option {
	return func(c *Config) { c.Standalone = true }
}

// WithHTMLOptions passes options through to the HTML renderer.
func WithHTMLOptions(options ...html.Option) Option {
	return func(c *Config) { c.HTMLOptions = append(c.HTMLOptions, options...) }
}

// WithThemeSelector resolves a go-theme manifest when rendering.
func WithThemeSelector(selector theme.ThemeSelector, name, variant string) Option {
	return func(c *Config) {
		c.Selector = selector
		c.ThemeName = name
		c.ThemeVariant = variant
	}
}

// GenerateHTML renders def, prefilled with values, through the HTML
// renderer with its default stylesheet.
func GenerateHTML(ctx context.Context, def FormDefinition, values map[string]any, options ...Option) ([]byte, error) {
	cfg := Config{}
	for _, opt := range options {
		if opt != nil {
			opt(&cfg)
		}
	}

	docOpts := []document.Option{document.WithMode(form.StaticMode(cfg.Print))}
	if cfg.Placeholder != "" {
		docOpts = append(docOpts, document.WithPlaceholder(cfg.Placeholder))
	}
	doc, err := NewDocument(def, values, docOpts...)
	if err != nil {
		return nil, err
	}

	htmlOpts := append([]html.Option{html.WithDefaultStyles()}, cfg.HTMLOptions...)
	if cfg.Selector != nil {
		htmlOpts = append(htmlOpts, html.WithThemeSelector(cfg.Selector, cfg.ThemeName, cfg.ThemeVariant))
	}
	renderer, err := html.New(htmlOpts...)
	if err != nil {
		return nil, fmt.Errorf("formdoc: html renderer: %w", err)
	}
	return renderer.Render(ctx, doc.View(ViewOptions{}), RenderOptions{
		Action:     cfg.Action,
		Hidden:     html.StateFields(doc),
		Standalone: cfg.Standalone,
	})
}
