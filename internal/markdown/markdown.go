// Package markdown tokenizes CommonMark documents and renders them back to
// normalized markdown through overridable per-node render functions.
package markdown

import "fmt"

// Extension customizes formatting of a single document.
type Extension interface {
	// Prepare is called once per document before it is parsed.
	Prepare(p *Parser)
	// Renderers returns render functions that override the defaults,
	// keyed by node type.
	Renderers() map[string]RenderFunc
}

// Format parses src and renders it back to markdown with the given
// extensions layered over the default renderers, in order.
func Format(src []byte, exts ...Extension) (string, error) {
	p := NewParser()
	for _, ext := range exts {
		ext.Prepare(p)
	}

	root, err := NewTree(p.Parse(src))
	if err != nil {
		return "", fmt.Errorf("failed to build render tree: %w", err)
	}

	ctx := NewRenderContext()
	for _, ext := range exts {
		ctx = ctx.With(ext.Renderers())
	}
	return ctx.Render(root)
}
