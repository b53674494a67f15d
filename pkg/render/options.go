package render

// RenderOptions describe per-request data that renderers can use to customise
// their output without changing the view.
type RenderOptions struct {
	// Action and Method configure the HTML form element in edit mode. Method
	// defaults to POST.
	Action string
	Method string
	// Hidden inputs emitted alongside the visible fields (form id, CSRF token).
	Hidden []HiddenField
	// FormErrors are messages not tied to a single field. They are shown above
	// the first section.
	FormErrors []string
	// Standalone wraps the output in a full document (html/head/body) when the
	// renderer supports it.
	Standalone bool
}

// ViewOptions control how a document View is assembled.
type ViewOptions struct {
	// Print forces print mode regardless of the document's mode source.
	Print bool
	// Errors surfaces validation feedback keyed by dotted field path
	// ("vendor", "items.0.qty"). Edit-mode nodes carry them inline.
	Errors map[string][]string
	// Placeholder overrides the print-mode text for empty values.
	Placeholder string
	// Subset limits the view to the named sections and tables.
	Subset Subset
}
