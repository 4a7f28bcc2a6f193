package format

import (
	"fmt"

	"github.com/jackzampolin/mdtoc/internal/markdown"
	"github.com/jackzampolin/mdtoc/internal/toc"
)

// Outline describes the headings of a document as the table of contents
// pass sees them.
type Outline struct {
	// Directives is the number of start directives found. The table of
	// contents is only generated when there is exactly one.
	Directives int            `json:"directives" yaml:"directives"`
	Options    toc.Options    `json:"options" yaml:"options"`
	Headings   []OutlineEntry `json:"headings" yaml:"headings"`
}

// OutlineEntry is one heading of an Outline.
type OutlineEntry struct {
	Level int    `json:"level" yaml:"level"`
	Text  string `json:"text" yaml:"text"`
	Slug  string `json:"slug" yaml:"slug"`
	// Depth is the indentation level in the table of contents, or -1 when
	// the heading is outside the level window.
	Depth int  `json:"depth" yaml:"depth"`
	InTOC bool `json:"in_toc" yaml:"in_toc"`
}

// Outline reports the headings of src with their slugs. Options come from
// the start directive, or the defaults when the document has none.
func (f *Formatter) Outline(src []byte) (*Outline, error) {
	tokens := markdown.NewParser().Parse(src)

	out := &Outline{}
	var collect []*markdown.Token
	out.Options, collect, out.Directives = toc.HeadingTokens(tokens)

	headings, err := toc.CollectHeadings(collect, out.Options, f.cfg.PermalinkSymbol, markdown.NewRenderContext())
	if err != nil {
		return nil, fmt.Errorf("failed to collect headings: %w", err)
	}

	opts := out.Options
	filtered := toc.NewHeadingTree(headings).Filter(func(h toc.Heading) bool { return opts.InWindow(h.Level) })
	next := 0
	out.Headings = make([]OutlineEntry, 0, len(headings))
	for _, h := range headings {
		entry := OutlineEntry{Level: h.Level, Text: h.Text, Slug: h.Slug, Depth: -1}
		if opts.InWindow(h.Level) {
			entry.Depth = filtered.Depth(next)
			entry.InTOC = true
			next++
		}
		out.Headings = append(out.Headings, entry)
	}
	return out, nil
}
