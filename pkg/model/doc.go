// Package model defines the declarative form definition consumed by the
// document, renderers and validators. A FormDefinition is data only: sections
// of Field descriptors, dynamic Tables of line items, and an optional
// approval block. Field.Kind is the tagged-variant discriminator that selects
// the input control in edit mode and the formatter in print mode, while
// ValidationRule entries carry canonical constraint identifiers
// (min/max, minLength/maxLength, pattern) with string parameters so JSON and
// YAML definitions stay stable. Decorators run after loading to fill in
// derived metadata such as default labels.
package model
