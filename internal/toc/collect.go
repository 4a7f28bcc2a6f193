package toc

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/jackzampolin/mdtoc/internal/markdown"
	"github.com/jackzampolin/mdtoc/internal/slug"
)

var (
	// ErrMissingInline is returned when a heading has no inline child.
	ErrMissingInline = errors.New("heading has no inline content")

	// ErrHeadingOverflow is returned when the document renders more headings
	// than were collected.
	ErrHeadingOverflow = errors.New("more headings rendered than collected")
)

// CollectHeadings builds the heading records of a token stream. Every
// heading gets a slug. Headings inside the options' level window also get
// an anchor when anchors are enabled. Each heading is rendered with ctx,
// which must not carry the pass's own renderers.
func CollectHeadings(tokens []*markdown.Token, opts Options, symbol string, ctx *markdown.RenderContext) ([]Heading, error) {
	slugify, ok := slug.Lookup(opts.SlugStyle)
	if !ok {
		slugify = slug.GitHubSlug
	}
	unique := slug.Unique(slugify)

	var headings []Heading
	for i, tok := range tokens {
		if tok.Type != markdown.TypeHeadingOpen {
			continue
		}
		level := tok.HeadingLevel()

		block, err := markdown.CopyBlock(tokens, i)
		if err != nil {
			return nil, fmt.Errorf("failed to copy heading at token %d: %w", i, err)
		}
		if len(block) < 3 || block[1].Type != markdown.TypeInline {
			return nil, fmt.Errorf("%w: heading at token %d", ErrMissingInline, i)
		}
		inline := block[1]

		if opts.Anchors && opts.InWindow(level) {
			ReconcileAnchor(inline, symbol)
		}
		text := HeadingText(inline.Children)
		s := unique(text)
		ResolveAnchor(inline, s)

		tree, err := markdown.NewTree(block)
		if err != nil {
			return nil, fmt.Errorf("failed to build heading at token %d: %w", i, err)
		}
		md, err := ctx.Render(tree.Children[0])
		if err != nil {
			return nil, fmt.Errorf("failed to render heading %q: %w", text, err)
		}

		headings = append(headings, Heading{
			Level:    level,
			Text:     text,
			Slug:     s,
			Markdown: md,
		})
	}
	return headings, nil
}

// HeadingText flattens heading inline content to display text. Code spans
// keep their backticks, line breaks become spaces and trailing whitespace
// is trimmed. An injected anchor and everything after it are
// left out.
func HeadingText(children []*markdown.Token) string {
	var sb strings.Builder
	for _, c := range children {
		if c.Type == markdown.TypeAnchor || c.Type == markdown.TypeAnchorPlaceholder {
			break
		}
		sb.WriteString(c.PlainText())
	}
	return strings.TrimRightFunc(strings.ReplaceAll(sb.String(), "\n", " "), unicode.IsSpace)
}
