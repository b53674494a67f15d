// Package html renders document views as HTML through pongo2 templates. Edit
// views become a <form> whose control names are the dotted value paths;
// print views become static markup with placeholders for empty values.
package html

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/goliatone/go-formdoc/pkg/render"
	rendertemplate "github.com/goliatone/go-formdoc/pkg/render/template"
	gotemplate "github.com/goliatone/go-formdoc/pkg/render/template/gotemplate"
	theme "github.com/goliatone/go-theme"
)

const (
	rendererName = "html"
	formTemplate = "templates/form.tmpl"
	defaultVerb  = "POST"
)

// Option configures the renderer.
type Option func(*config)

type config struct {
	templateFS       fs.FS
	templateRenderer rendertemplate.TemplateRenderer
	stylesheets      []string
	inlineDefaults   bool
	selector         theme.ThemeSelector
	themeName        string
	themeVariant     string
}

// WithTemplatesFS supplies an alternate template bundle. It must provide the
// same "templates/*.tmpl" paths as the embedded bundle.
func WithTemplatesFS(files fs.FS) Option {
	return func(cfg *config) {
		cfg.templateFS = files
	}
}

// WithTemplatesDir loads templates from a directory on disk.
func WithTemplatesDir(path string) Option {
	return func(cfg *config) {
		if path == "" {
			return
		}
		cfg.templateFS = os.DirFS(path)
	}
}

// WithTemplateRenderer injects a custom template renderer implementation.
func WithTemplateRenderer(renderer rendertemplate.TemplateRenderer) Option {
	return func(cfg *config) {
		if renderer != nil {
			cfg.templateRenderer = renderer
		}
	}
}

// WithStylesheet links an external stylesheet in standalone output.
func WithStylesheet(href string) Option {
	return func(cfg *config) {
		if href = strings.TrimSpace(href); href != "" {
			cfg.stylesheets = append(cfg.stylesheets, href)
		}
	}
}

// WithDefaultStyles inlines the embedded stylesheet in standalone output.
func WithDefaultStyles() Option {
	return func(cfg *config) {
		cfg.inlineDefaults = true
	}
}

// WithThemeSelector resolves a go-theme manifest at render time. Its tokens
// are emitted as CSS custom properties and its "html.stylesheet" asset is
// linked in standalone output.
func WithThemeSelector(selector theme.ThemeSelector, name, variant string) Option {
	return func(cfg *config) {
		cfg.selector = selector
		cfg.themeName = strings.TrimSpace(name)
		cfg.themeVariant = strings.TrimSpace(variant)
	}
}

// Renderer implements render.Renderer.
type Renderer struct {
	templates    rendertemplate.TemplateRenderer
	stylesheets  []string
	inlineStyles string
	selector     theme.ThemeSelector
	themeName    string
	themeVariant string
}

var _ render.Renderer = (*Renderer)(nil)

// New constructs the renderer applying any provided options.
func New(options ...Option) (*Renderer, error) {
	cfg := config{templateFS: TemplatesFS()}
	for _, opt := range options {
		if opt != nil {
			opt(&cfg)
		}
	}
	if cfg.templateFS == nil {
		cfg.templateFS = TemplatesFS()
	}

	renderer := cfg.templateRenderer
	if renderer == nil {
		engine, err := gotemplate.New(
			gotemplate.WithFS(cfg.templateFS),
			gotemplate.WithExtension(".tmpl"),
		)
		if err != nil {
			return nil, fmt.Errorf("html renderer: configure template renderer: %w", err)
		}
		renderer = engine
	}

	r := &Renderer{
		templates:    renderer,
		stylesheets:  append([]string(nil), cfg.stylesheets...),
		selector:     cfg.selector,
		themeName:    cfg.themeName,
		themeVariant: cfg.themeVariant,
	}
	if cfg.inlineDefaults {
		r.inlineStyles = defaultStylesheet()
	}
	return r, nil
}

func (r *Renderer) Name() string {
	return rendererName
}

func (r *Renderer) ContentType() string {
	return "text/html; charset=utf-8"
}

// Render executes the form template for view. Form-level errors from options
// are merged with those already on the view.
func (r *Renderer) Render(ctx context.Context, view render.View, options render.RenderOptions) ([]byte, error) {
	if r.templates == nil {
		return nil, fmt.Errorf("html renderer: template renderer is nil")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	themeCtx, err := r.resolveTheme()
	if err != nil {
		return nil, fmt.Errorf("html renderer: %w", err)
	}

	stylesheets := append([]string(nil), r.stylesheets...)
	if themeCtx.Stylesheet != "" {
		stylesheets = append(stylesheets, themeCtx.Stylesheet)
	}

	method := strings.ToUpper(strings.TrimSpace(options.Method))
	if method == "" {
		method = defaultVerb
	}

	result, err := r.templates.RenderTemplate(formTemplate, map[string]any{
		"view":         view,
		"action":       options.Action,
		"method":       method,
		"hidden":       render.SortedHiddenFields(options.Hidden),
		"formErrors":   render.MergeFormErrors(view.FormErrors, options.FormErrors...),
		"standalone":   options.Standalone,
		"stylesheets":  stylesheets,
		"inlineStyles": r.inlineStyles,
		"theme":        themeCtx,
		"actionField":  ActionField,
		"columnField":  ColumnField,
		"roleField":    RoleField,
	})
	if err != nil {
		return nil, fmt.Errorf("html renderer: render template: %w", err)
	}
	return []byte(result), nil
}
