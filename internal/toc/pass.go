// Package toc keeps a table of contents inside a markdown document in sync
// with the document's headings.
//
// A document opts in with a start directive:
//
//	<!-- mdformat-toc start --slug=github --maxlevel=6 --minlevel=1 -->
//
// Everything from the start directive through the matching end directive is
// regenerated on every run, and headings in the level window get an anchor
// carrying their slug.
package toc

import (
	"fmt"
	"log/slog"

	"github.com/jackzampolin/mdtoc/internal/markdown"
)

// State is the phase of a Pass.
type State int

const (
	StateInit State = iota
	StateScanning
	StateInactive
	StateActive
	StateEmitting
	StateDone
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "init"
	case StateScanning:
		return "scanning"
	case StateInactive:
		return "inactive"
	case StateActive:
		return "active"
	case StateEmitting:
		return "emitting"
	case StateDone:
		return "done"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Config holds pass configuration.
type Config struct {
	// PermalinkSymbol is the visible text placed inside injected anchors.
	PermalinkSymbol string
	// Logger is the structured logger to use
	Logger *slog.Logger
}

// Pass is a markdown.Extension that regenerates the table of contents of a
// single document. The render tree is scanned once when the root is
// rendered; the start directive and headings are then replaced while the
// rest of the document renders with the defaults.
//
// A Pass holds per-document state and is not safe for concurrent use.
// Prepare resets it, so a Pass may be reused for documents formatted one
// after another.
type Pass struct {
	symbol string
	logger *slog.Logger

	state    State
	opts     Options
	headings *HeadingTree
	rendered int
}

// NewPass creates a pass.
func NewPass(cfg Config) *Pass {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Pass{
		symbol: cfg.PermalinkSymbol,
		logger: cfg.Logger,
	}
}

// Prepare resets the pass for a new document.
func (p *Pass) Prepare(*markdown.Parser) {
	p.state = StateInit
	p.opts = Options{}
	p.headings = nil
	p.rendered = 0
}

// Renderers returns the overrides for the root, directive and heading nodes.
func (p *Pass) Renderers() map[string]markdown.RenderFunc {
	return map[string]markdown.RenderFunc{
		markdown.TypeRoot:      p.renderRoot,
		markdown.TypeHTMLBlock: p.renderHTMLBlock,
		"heading":              p.renderHeading,
	}
}

// State returns the current phase.
func (p *Pass) State() State { return p.state }

// Options returns the directive options. Only meaningful once the pass has
// become active.
func (p *Pass) Options() Options { return p.opts }

// Headings returns the collected headings, or nil if the pass is inactive.
func (p *Pass) Headings() *HeadingTree { return p.headings }

func (p *Pass) renderRoot(root *markdown.Node, ctx *markdown.RenderContext) (string, error) {
	if err := p.scan(root, ctx); err != nil {
		return "", err
	}
	if p.state == StateActive {
		if err := p.excise(root); err != nil {
			return "", err
		}
		p.state = StateEmitting
	}

	out, err := ctx.RenderDefault(root)
	if err != nil {
		return "", err
	}
	if p.state == StateEmitting {
		p.state = StateDone
	}
	return out, nil
}

// scan finds the directive, parses its options and collects the headings
// outside the old table of contents.
func (p *Pass) scan(root *markdown.Node, ctx *markdown.RenderContext) error {
	p.state = StateScanning
	tokens := root.Tokens()

	opts, collect, starts := HeadingTokens(tokens)
	switch {
	case starts == 0:
		p.state = StateInactive
		return nil
	case starts > 1:
		p.logger.Warn("found more than one toc start directive, only one is supported; toc disabled",
			"count", starts)
		p.state = StateInactive
		return nil
	}
	p.opts = opts

	plain := ctx.WithDefaults(markdown.TypeRoot, markdown.TypeHTMLBlock, "heading")
	headings, err := CollectHeadings(collect, p.opts, p.symbol, plain)
	if err != nil {
		return err
	}
	p.headings = NewHeadingTree(headings)
	p.state = StateActive

	p.logger.Debug("toc directive found",
		"options", p.opts.String(),
		"headings", len(headings))
	return nil
}

// excise drops the nodes between the start directive and its end directive
// so the old table of contents is not rendered.
func (p *Pass) excise(root *markdown.Node) error {
	starts := FindStartNodes(root)
	if len(starts) != 1 {
		return fmt.Errorf("expected one toc start directive in render tree, found %d", len(starts))
	}
	start := starts[0]
	end := FindEndSibling(start)
	if end == nil {
		return nil
	}

	parent := start.Parent
	si, ei := start.Index(), end.Index()
	children := make([]*markdown.Node, 0, len(parent.Children)-(ei-si))
	children = append(children, parent.Children[:si+1]...)
	children = append(children, parent.Children[ei+1:]...)
	parent.Children = children
	return nil
}

func (p *Pass) renderHTMLBlock(n *markdown.Node, ctx *markdown.RenderContext) (string, error) {
	if p.state != StateEmitting || !IsStart(n.Token) {
		return ctx.RenderDefault(n)
	}
	return RenderBlock(p.headings, p.opts), nil
}

func (p *Pass) renderHeading(n *markdown.Node, ctx *markdown.RenderContext) (string, error) {
	if p.state != StateEmitting {
		return ctx.RenderDefault(n)
	}
	if p.rendered >= p.headings.Len() {
		return "", fmt.Errorf("%w: heading %d of %d", ErrHeadingOverflow, p.rendered+1, p.headings.Len())
	}
	h := p.headings.At(p.rendered)
	p.rendered++
	return h.Markdown, nil
}
