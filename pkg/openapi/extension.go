package openapi

import (
	"encoding/json"
	"fmt"

	"github.com/goliatone/go-formdoc/pkg/model"
)

// ExtensionKey is the vendor extension read from schemas and properties.
const ExtensionKey = "x-formdoc"

type extension struct {
	ID             string                `json:"id"`
	Title          string                `json:"title"`
	Subtitle       string                `json:"subtitle"`
	Category       string                `json:"category"`
	Kind           model.FieldKind       `json:"kind"`
	Label          string                `json:"label"`
	Placeholder    string                `json:"placeholder"`
	Section        string                `json:"section"`
	Order          *int                  `json:"order"`
	AllowOther     bool                  `json:"allowOther"`
	Total          string                `json:"total"`
	Formula        *model.Formula        `json:"formula"`
	VisibleWhen    string                `json:"visibleWhen"`
	DynamicColumns bool                  `json:"dynamicColumns"`
	InitialRows    *int                  `json:"initialRows"`
	Approvals      *model.ApprovalConfig `json:"approvals"`
}

// readExtension decodes the x-formdoc entry. kin-openapi keeps extension
// values as decoded JSON (or raw messages, depending on the source), so the
// value is re-marshalled into the typed struct.
func readExtension(raw map[string]any) (extension, error) {
	var ext extension
	value, ok := raw[ExtensionKey]
	if !ok || value == nil {
		return ext, nil
	}
	var data []byte
	switch typed := value.(type) {
	case json.RawMessage:
		data = typed
	case []byte:
		data = typed
	default:
		encoded, err := json.Marshal(typed)
		if err != nil {
			return ext, fmt.Errorf("openapi: encode %s: %w", ExtensionKey, err)
		}
		data = encoded
	}
	if err := json.Unmarshal(data, &ext); err != nil {
		return ext, fmt.Errorf("openapi: decode %s: %w", ExtensionKey, err)
	}
	return ext, nil
}
