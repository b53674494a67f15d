package server

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/goliatone/go-formdoc/pkg/definition"
	"github.com/goliatone/go-formdoc/pkg/document"
	"github.com/goliatone/go-formdoc/pkg/form"
	"github.com/goliatone/go-formdoc/pkg/model"
	"github.com/goliatone/go-formdoc/pkg/render"
	"github.com/goliatone/go-formdoc/pkg/renderers/html"
	"github.com/goliatone/go-formdoc/pkg/validation"
)

const invalidFormMessage = "Please correct the highlighted fields."

type formSummary struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Subtitle string `json:"subtitle,omitempty"`
	Category string `json:"category,omitempty"`
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) listForms(c *gin.Context) {
	defs := s.store.List()
	out := make([]formSummary, 0, len(defs))
	for _, def := range defs {
		out = append(out, formSummary{ID: def.ID, Title: def.Title, Subtitle: def.Subtitle, Category: def.Category})
	}
	c.JSON(http.StatusOK, gin.H{"forms": out})
}

// showForm renders a blank document. ?mode=print renders the print variant,
// ?format selects a registered renderer.
func (s *Server) showForm(c *gin.Context) {
	def, ok := s.definition(c)
	if !ok {
		return
	}
	doc, err := s.newDocument(def, nil, form.ParseMode(c.Query("mode")))
	if err != nil {
		s.fail(c, http.StatusInternalServerError, err)
		return
	}
	s.render(c, http.StatusOK, doc, render.ViewOptions{}, nil)
}

// previewForm applies the posted values and any structural action. Plain
// submits come back as the print variant.
func (s *Server) previewForm(c *gin.Context) {
	doc, action, messages, ok := s.posted(c)
	if !ok {
		return
	}
	if action.Kind == html.ActionSubmit {
		s.render(c, http.StatusOK, doc, render.ViewOptions{Print: true}, nil)
		return
	}
	s.render(c, http.StatusOK, doc, render.ViewOptions{}, messages)
}

// submitForm validates and forwards the posted document. Structural actions
// re-render the edit form without submitting.
func (s *Server) submitForm(c *gin.Context) {
	doc, action, messages, ok := s.posted(c)
	if !ok {
		return
	}
	if action.Kind != html.ActionSubmit {
		s.render(c, http.StatusOK, doc, render.ViewOptions{}, messages)
		return
	}

	receipt, err := s.submitter.Submit(c.Request.Context(), doc)
	var invalid *validation.Error
	switch {
	case errors.As(err, &invalid):
		s.render(c, http.StatusUnprocessableEntity, doc, render.ViewOptions{Errors: invalid.Result.Errors()}, []string{invalidFormMessage})
		return
	case err != nil:
		s.fail(c, http.StatusBadGateway, err)
		return
	}

	if c.NegotiateFormat(gin.MIMEHTML, gin.MIMEJSON) == gin.MIMEJSON {
		c.JSON(http.StatusCreated, receipt)
		return
	}
	c.Header("X-Submission-ID", receipt.ID)
	s.render(c, http.StatusCreated, doc, render.ViewOptions{Print: true}, nil)
}

// posted rebuilds the document from the request body and applies the
// requested structural action.
func (s *Server) posted(c *gin.Context) (*document.Document, html.Action, []string, bool) {
	def, ok := s.definition(c)
	if !ok {
		return nil, html.Action{}, nil, false
	}
	if err := c.Request.ParseForm(); err != nil {
		s.fail(c, http.StatusBadRequest, err)
		return nil, html.Action{}, nil, false
	}
	values := c.Request.PostForm
	action, ok := html.ParseAction(values.Get(html.ActionField))
	if !ok {
		s.fail(c, http.StatusBadRequest, errors.New("unknown form action"))
		return nil, html.Action{}, nil, false
	}

	doc, err := s.decode(def, values)
	if err != nil {
		s.fail(c, http.StatusBadRequest, err)
		return nil, html.Action{}, nil, false
	}
	message, err := html.ApplyAction(doc, action, values)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, document.ErrUnknownTable) || errors.Is(err, document.ErrStaticColumns) {
			status = http.StatusBadRequest
		}
		s.fail(c, status, err)
		return nil, html.Action{}, nil, false
	}
	var messages []string
	if message != "" {
		messages = append(messages, message)
	}
	return doc, action, messages, true
}

func (s *Server) decode(def model.FormDefinition, values url.Values) (*document.Document, error) {
	tree, err := html.DecodeForm(def, values)
	if err != nil {
		return nil, err
	}
	return s.newDocument(def, tree, form.ModeEdit)
}

func (s *Server) newDocument(def model.FormDefinition, tree map[string]any, mode form.Mode) (*document.Document, error) {
	opts := []document.Option{
		document.WithMode(mode),
		document.WithColumnCascade(s.cascade),
		document.WithLogger(s.logger),
	}
	if tree != nil {
		opts = append(opts, document.WithValues(tree))
	}
	if s.placeholder != "" {
		opts = append(opts, document.WithPlaceholder(s.placeholder))
	}
	return document.New(def, opts...)
}

func (s *Server) definition(c *gin.Context) (model.FormDefinition, bool) {
	def, err := s.store.Get(c.Param("id"))
	if errors.Is(err, definition.ErrNotFound) {
		s.fail(c, http.StatusNotFound, err)
		return model.FormDefinition{}, false
	}
	if err != nil {
		s.fail(c, http.StatusInternalServerError, err)
		return model.FormDefinition{}, false
	}
	return def, true
}

func (s *Server) render(c *gin.Context, status int, doc *document.Document, viewOpts render.ViewOptions, formErrors []string) {
	renderer, err := s.renderers.Resolve(c.Query("format"))
	if err != nil {
		s.fail(c, http.StatusNotAcceptable, err)
		return
	}
	view := doc.View(viewOpts)
	opts := render.RenderOptions{
		Action:     "/forms/" + doc.Definition().ID + "/submit",
		Hidden:     html.StateFields(doc),
		FormErrors: formErrors,
		Standalone: true,
	}
	body, err := renderer.Render(c.Request.Context(), view, opts)
	if err != nil {
		s.fail(c, http.StatusInternalServerError, err)
		return
	}
	c.Data(status, renderer.ContentType(), body)
}

func (s *Server) fail(c *gin.Context, status int, err error) {
	_ = c.Error(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", zap.String("path", c.Request.URL.Path), zap.Error(err))
	}
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}
