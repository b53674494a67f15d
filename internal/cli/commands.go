package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os/signal"
	"strings"
	"syscall"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/goliatone/go-formdoc/internal/server"
	"github.com/goliatone/go-formdoc/pkg/document"
	"github.com/goliatone/go-formdoc/pkg/export/xlsx"
	"github.com/goliatone/go-formdoc/pkg/form"
	"github.com/goliatone/go-formdoc/pkg/model"
	"github.com/goliatone/go-formdoc/pkg/render"
	"github.com/goliatone/go-formdoc/pkg/renderers/html"
	"github.com/goliatone/go-formdoc/pkg/renderers/text"
	"github.com/goliatone/go-formdoc/pkg/renderers/tui"
	"github.com/goliatone/go-formdoc/pkg/submit"
)

func (a *app) listCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the available form definitions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rowsData := make([][]string, 0)
			for _, def := range a.store.List() {
				tables := make([]string, 0, len(def.Tables))
				for _, t := range def.Tables {
					tables = append(tables, t.Name)
				}
				rowsData = append(rowsData, []string{def.ID, def.Title, def.Category, strings.Join(tables, ", ")})
			}
			t := table.New().
				Border(lipgloss.NormalBorder()).
				Headers("ID", "Title", "Category", "Tables").
				Rows(rowsData...)
			_, err := fmt.Fprintln(cmd.OutOrStdout(), t.String())
			return err
		},
	}
}

type renderFlags struct {
	format     string
	print      bool
	values     string
	output     string
	standalone bool
}

func (a *app) renderCommand() *cobra.Command {
	var flags renderFlags
	cmd := &cobra.Command{
		Use:   "render <form-id>",
		Short: "Render a form as HTML, text or a spreadsheet",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			def, err := a.store.Get(args[0])
			if err != nil {
				return err
			}
			prefill, err := readValues(flags.values)
			if err != nil {
				return err
			}
			doc, err := a.newDocument(def, prefill, flags.print)
			if err != nil {
				return err
			}
			registry, err := a.renderers()
			if err != nil {
				return err
			}
			renderer, err := registry.Resolve(flags.format)
			if err != nil {
				return err
			}
			body, err := renderer.Render(cmd.Context(), doc.View(render.ViewOptions{}), render.RenderOptions{
				Hidden:     html.StateFields(doc),
				Standalone: flags.standalone,
			})
			if err != nil {
				return err
			}
			a.logger.Debug("rendered form",
				zap.String("form", def.ID),
				zap.String("renderer", renderer.Name()),
				zap.Int("bytes", len(body)),
			)
			return writeOutput(cmd.OutOrStdout(), flags.output, body)
		},
	}
	cmd.Flags().StringVarP(&flags.format, "format", "f", "", "renderer name: html, text or xlsx (defaults to render.format)")
	cmd.Flags().BoolVar(&flags.print, "print", false, "render the print variant")
	cmd.Flags().StringVar(&flags.values, "values", "", "JSON or YAML file with prefilled values")
	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "write to a file instead of stdout")
	cmd.Flags().BoolVar(&flags.standalone, "standalone", false, "wrap HTML output in a full page")
	return cmd
}

func (a *app) validateCommand() *cobra.Command {
	var values string
	cmd := &cobra.Command{
		Use:   "validate <form-id>",
		Short: "Validate a values file against a form",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			def, err := a.store.Get(args[0])
			if err != nil {
				return err
			}
			prefill, err := readValues(values)
			if err != nil {
				return err
			}
			doc, err := a.newDocument(def, prefill, false)
			if err != nil {
				return err
			}
			result := doc.Validate()
			out := cmd.OutOrStdout()
			if result.Valid() {
				_, err := fmt.Fprintf(out, "%s: valid\n", def.ID)
				return err
			}
			for _, issue := range result.Issues {
				fmt.Fprintf(out, "%s: %s\n", issue.Path, issue.Message)
			}
			return result.Err()
		},
	}
	cmd.Flags().StringVar(&values, "values", "", "JSON or YAML file with the values to check")
	return cmd
}

func (a *app) fillCommand() *cobra.Command {
	var values, output string
	cmd := &cobra.Command{
		Use:   "fill <form-id>",
		Short: "Fill a form interactively in the terminal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			def, err := a.store.Get(args[0])
			if err != nil {
				return err
			}
			prefill, err := readValues(values)
			if err != nil {
				return err
			}
			doc, err := a.newDocument(def, prefill, false)
			if err != nil {
				return err
			}

			opts := []tui.Option{tui.WithLogger(a.logger)}
			if a.driver != nil {
				opts = append(opts, tui.WithPromptDriver(a.driver))
			}
			editor, err := tui.New(opts...)
			if err != nil {
				return err
			}
			result, err := editor.Edit(cmd.Context(), doc)
			if err != nil {
				return err
			}
			if !result.Valid() {
				a.logger.Warn("form saved with validation issues",
					zap.String("form", def.ID),
					zap.Strings("paths", result.Paths()),
				)
			}

			if strings.TrimSpace(output) != "" {
				data, err := json.MarshalIndent(doc.Snapshot(), "", "  ")
				if err != nil {
					return fmt.Errorf("encode values: %w", err)
				}
				if err := writeOutput(cmd.OutOrStdout(), output, append(data, '\n')); err != nil {
					return err
				}
			}
			body, err := text.New().Render(cmd.Context(), doc.View(render.ViewOptions{Print: true}), render.RenderOptions{})
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(body)
			return err
		},
	}
	cmd.Flags().StringVar(&values, "values", "", "JSON or YAML file to resume from")
	cmd.Flags().StringVarP(&output, "output", "o", "", "save the filled values as JSON")
	return cmd
}

func (a *app) exportCommand() *cobra.Command {
	var values, output string
	cmd := &cobra.Command{
		Use:   "export <form-id>",
		Short: "Export a filled form to an Excel workbook",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(output) == "" {
				return errors.New("export: --output is required")
			}
			def, err := a.store.Get(args[0])
			if err != nil {
				return err
			}
			prefill, err := readValues(values)
			if err != nil {
				return err
			}
			doc, err := a.newDocument(def, prefill, true)
			if err != nil {
				return err
			}
			body, err := xlsx.New().Render(cmd.Context(), doc.View(render.ViewOptions{}), render.RenderOptions{})
			if err != nil {
				return err
			}
			if err := writeOutput(cmd.OutOrStdout(), output, body); err != nil {
				return err
			}
			a.logger.Info("exported workbook", zap.String("form", def.ID), zap.String("path", output))
			return nil
		},
	}
	cmd.Flags().StringVar(&values, "values", "", "JSON or YAML file with the values to export")
	cmd.Flags().StringVarP(&output, "output", "o", "", "destination .xlsx path")
	return cmd
}

func (a *app) serveCommand() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve forms over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if addr != "" {
				a.cfg.Server.Addr = addr
			}
			if a.cfg.Server.Mode != "" {
				gin.SetMode(a.cfg.Server.Mode)
			}

			sink, closeSink, err := a.openSink()
			if err != nil {
				return err
			}
			defer closeSink()

			submitter, err := submit.NewSubmitter(sink, submit.WithLogger(a.logger))
			if err != nil {
				return err
			}
			registry, err := a.renderers()
			if err != nil {
				return err
			}
			srv, err := server.New(a.store, submitter,
				server.WithLogger(a.logger),
				server.WithRenderers(registry),
				server.WithPlaceholder(a.cfg.Render.Placeholder),
			)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return srv.Run(ctx, a.cfg.Server.Addr, a.cfg.Server.ReadTimeout, a.cfg.Server.ShutdownTimeout)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (defaults to server.addr)")
	return cmd
}

func (a *app) openSink() (submit.Sink, func(), error) {
	if a.cfg.Storage.Sink != "badger" {
		return submit.NewLogSink(a.logger), func() {}, nil
	}
	sink, err := submit.OpenBadgerSink(submit.BadgerConfig{
		Path:     a.cfg.Storage.Path,
		InMemory: a.cfg.Storage.InMemory,
		Logger:   a.logger,
	})
	if err != nil {
		return nil, nil, err
	}
	return sink, func() {
		if err := sink.Close(); err != nil {
			a.logger.Warn("close submission store", zap.Error(err))
		}
	}, nil
}

func (a *app) newDocument(def model.FormDefinition, prefill map[string]any, printing bool) (*document.Document, error) {
	opts := []document.Option{
		document.WithMode(form.StaticMode(printing)),
		document.WithLogger(a.logger),
	}
	if prefill != nil {
		opts = append(opts, document.WithValues(prefill))
	}
	if a.cfg.Render.Placeholder != "" {
		opts = append(opts, document.WithPlaceholder(a.cfg.Render.Placeholder))
	}
	return document.New(def, opts...)
}
