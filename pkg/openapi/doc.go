// Package openapi converts OpenAPI 3 schema components into form definitions
// using kin-openapi. Scalar properties become fields, nested objects become
// sections and arrays of objects become dynamic tables. The "x-formdoc"
// extension overrides labels, kinds, section placement, ordering, totals and
// formulas, and on the root schema carries the form id, title and approval
// block.
package openapi
