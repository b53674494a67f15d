// Package definition loads declarative form definitions from JSON or YAML
// files into a lookup Store. Each file holds either a single definition or a
// "forms" list. Definitions are decorated (default labels, text kinds) and
// checked for structural problems before they are stored, so renderers and
// documents can assume unique names and resolvable formulas.
package definition
