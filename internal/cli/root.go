// Package cli implements the formdoc command tree.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-formdoc/internal/config"
	"github.com/goliatone/go-formdoc/internal/logging"
	"github.com/goliatone/go-formdoc/pkg/definition"
	"github.com/goliatone/go-formdoc/pkg/export/xlsx"
	"github.com/goliatone/go-formdoc/pkg/openapi"
	"github.com/goliatone/go-formdoc/pkg/render"
	"github.com/goliatone/go-formdoc/pkg/renderers/html"
	"github.com/goliatone/go-formdoc/pkg/renderers/text"
	"github.com/goliatone/go-formdoc/pkg/renderers/tui"
)

// Option customises the command tree.
type Option func(*app)

// WithPromptDriver replaces the terminal prompts used by `fill`.
func WithPromptDriver(driver tui.PromptDriver) Option {
	return func(a *app) {
		a.driver = driver
	}
}

// WithLogger skips logger construction from configuration.
func WithLogger(logger *zap.Logger) Option {
	return func(a *app) {
		a.logger = logger
	}
}

type app struct {
	configPath string
	formsDir   string
	openAPI    string
	logLevel   string

	cfg    config.Config
	logger *zap.Logger
	driver tui.PromptDriver
	store  *definition.Store
}

// NewRootCommand builds `formdoc` and its subcommands.
func NewRootCommand(opts ...Option) *cobra.Command {
	a := &app{}
	for _, opt := range opts {
		if opt != nil {
			opt(a)
		}
	}

	root := &cobra.Command{
		Use:           "formdoc",
		Short:         "Render, fill and submit business form documents",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}
	flags := root.PersistentFlags()
	flags.StringVarP(&a.configPath, "config", "c", "", "path to a formdoc YAML config")
	flags.StringVar(&a.formsDir, "forms", "", "directory of form definitions (defaults to the bundled samples)")
	flags.StringVar(&a.openAPI, "openapi", "", "OpenAPI document whose schema components are added as forms")
	flags.StringVar(&a.logLevel, "log-level", "", "log level (debug, info, warn, error)")

	root.AddCommand(
		a.listCommand(),
		a.renderCommand(),
		a.validateCommand(),
		a.fillCommand(),
		a.exportCommand(),
		a.serveCommand(),
	)
	return root
}

// Execute runs the command tree with os.Args.
func Execute(ctx context.Context) error {
	return NewRootCommand().ExecuteContext(ctx)
}

func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.formsDir != "" {
		cfg.Forms.Dir = a.formsDir
	}
	if a.openAPI != "" {
		cfg.Forms.OpenAPI = a.openAPI
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}
	a.cfg = cfg

	if a.logger == nil {
		logger, err := logging.New(cfg.Log)
		if err != nil {
			return err
		}
		a.logger = logger
	}

	store, err := a.loadStore(cmd.Context())
	if err != nil {
		return err
	}
	a.store = store
	return nil
}

func (a *app) loadStore(ctx context.Context) (*definition.Store, error) {
	var (
		store *definition.Store
		err   error
	)
	if dir := strings.TrimSpace(a.cfg.Forms.Dir); dir != "" {
		store, err = definition.LoadFS(os.DirFS(dir))
	} else {
		store, err = definition.LoadEmbedded()
	}
	if err != nil {
		return nil, err
	}

	if path := strings.TrimSpace(a.cfg.Forms.OpenAPI); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read openapi document: %w", err)
		}
		doc, err := openapi.Load(ctx, data)
		if err != nil {
			return nil, err
		}
		components := a.cfg.Forms.Components
		if len(components) == 0 {
			components = openapi.Components(doc)
		}
		for _, component := range components {
			def, err := openapi.FromDocument(ctx, doc, component)
			if err != nil {
				return nil, err
			}
			if err := store.Register(def); err != nil {
				return nil, err
			}
			a.logger.Debug("registered openapi form", zap.String("component", component), zap.String("form", def.ID))
		}
	}
	a.logger.Debug("loaded form definitions", zap.Strings("forms", store.IDs()))
	return store, nil
}

func (a *app) renderers() (*render.Registry, error) {
	opts := []html.Option{}
	if a.cfg.Render.Styles {
		opts = append(opts, html.WithDefaultStyles())
	}
	htmlRenderer, err := html.New(opts...)
	if err != nil {
		return nil, err
	}
	registry := render.NewRegistry()
	if a.cfg.Render.Format == "text" {
		registry.MustRegister(text.New())
		registry.MustRegister(htmlRenderer)
	} else {
		registry.MustRegister(htmlRenderer)
		registry.MustRegister(text.New())
	}
	registry.MustRegister(xlsx.New())
	return registry, nil
}

// readValues loads a FormValues tree from a JSON or YAML file. A blank path
// yields nil.
func readValues(path string) (map[string]any, error) {
	if strings.TrimSpace(path) == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read values: %w", err)
	}
	var tree map[string]any
	if err := json.Unmarshal(data, &tree); err == nil {
		return tree, nil
	}
	tree = nil
	if err := yaml.Unmarshal(data, &tree); err != nil {
		return nil, fmt.Errorf("parse values %s: invalid JSON or YAML", path)
	}
	return tree, nil
}

// writeOutput writes data to path, or to w when path is blank.
func writeOutput(w io.Writer, path string, data []byte) error {
	if strings.TrimSpace(path) == "" {
		_, err := w.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
