package markdown

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrNoRenderer is returned when no render function handles a node type.
var ErrNoRenderer = errors.New("no renderer for node type")

// RenderFunc renders a node to markdown. Implementations call back into ctx
// to render children so overrides apply throughout the tree.
type RenderFunc func(n *Node, ctx *RenderContext) (string, error)

// RenderContext dispatches node rendering to override functions, falling
// back to the defaults. Contexts are immutable; derive new ones with With
// and WithDefaults.
type RenderContext struct {
	overrides map[string]RenderFunc
}

// NewRenderContext returns a context that renders with the defaults only.
func NewRenderContext() *RenderContext {
	return &RenderContext{overrides: map[string]RenderFunc{}}
}

// With returns a derived context where funcs override existing entries.
func (c *RenderContext) With(funcs map[string]RenderFunc) *RenderContext {
	next := make(map[string]RenderFunc, len(c.overrides)+len(funcs))
	for k, fn := range c.overrides {
		next[k] = fn
	}
	for k, fn := range funcs {
		next[k] = fn
	}
	return &RenderContext{overrides: next}
}

// WithDefaults returns a derived context in which the given node types
// render with the default functions. Extensions use it to render a subtree
// without re-entering their own hooks.
func (c *RenderContext) WithDefaults(types ...string) *RenderContext {
	next := make(map[string]RenderFunc, len(c.overrides))
	for k, fn := range c.overrides {
		next[k] = fn
	}
	for _, k := range types {
		delete(next, k)
	}
	return &RenderContext{overrides: next}
}

// Render renders n.
func (c *RenderContext) Render(n *Node) (string, error) {
	fn, ok := c.overrides[n.Type]
	if !ok {
		fn, ok = defaults[n.Type]
	}
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrNoRenderer, n.Type)
	}
	return fn(n, c)
}

// RenderDefault renders n with the default function for its type,
// ignoring any override for n itself. Children still use c.
func (c *RenderContext) RenderDefault(n *Node) (string, error) {
	fn, ok := defaults[n.Type]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrNoRenderer, n.Type)
	}
	return fn(n, c)
}

// renderChildren renders each child and joins the results with sep.
func (c *RenderContext) renderChildren(n *Node, sep string) (string, error) {
	parts := make([]string, 0, len(n.Children))
	for _, child := range n.Children {
		s, err := c.Render(child)
		if err != nil {
			return "", err
		}
		parts = append(parts, s)
	}
	return strings.Join(parts, sep), nil
}

var defaults map[string]RenderFunc

func init() {
	defaults = map[string]RenderFunc{
		TypeRoot:          renderRoot,
		"heading":         renderHeading,
		"paragraph":       renderParagraph,
		"blockquote":      renderBlockquote,
		"bullet_list":     renderList,
		"ordered_list":    renderList,
		"list_item":       renderListItem,
		TypeInline:        renderInline,
		TypeHTMLBlock:     renderHTMLBlock,
		TypeFence:         renderFence,
		TypeCodeBlock:     renderCodeBlock,
		TypeHR:            renderHR,
		TypeLinkReference: renderContent,

		TypeText:              renderContent,
		TypeHTMLInline:        renderContent,
		TypeMarkup:            renderContent,
		TypeSoftbreak:         renderSoftbreak,
		TypeCodeInline:        renderCodeInline,
		TypeAnchor:            renderAnchor,
		TypeAnchorPlaceholder: renderAnchor,
	}
}

// DefaultRenderers returns a copy of the default render functions.
func DefaultRenderers() map[string]RenderFunc {
	out := make(map[string]RenderFunc, len(defaults))
	for k, fn := range defaults {
		out[k] = fn
	}
	return out
}

func renderRoot(n *Node, ctx *RenderContext) (string, error) {
	var sb strings.Builder
	for i, child := range n.Children {
		s, err := ctx.Render(child)
		if err != nil {
			return "", err
		}
		if i > 0 {
			if child.Type == TypeLinkReference && n.Children[i-1].Type == TypeLinkReference {
				sb.WriteString("\n")
			} else {
				sb.WriteString("\n\n")
			}
		}
		sb.WriteString(s)
	}
	if sb.Len() == 0 {
		return "", nil
	}
	return sb.String() + "\n", nil
}

func renderHeading(n *Node, ctx *RenderContext) (string, error) {
	text, err := ctx.renderChildren(n, "")
	if err != nil {
		return "", err
	}
	text = strings.TrimSpace(strings.ReplaceAll(text, "\n", " "))
	prefix := strings.Repeat("#", n.Token.HeadingLevel())
	if text == "" {
		return prefix, nil
	}
	return prefix + " " + text, nil
}

func renderParagraph(n *Node, ctx *RenderContext) (string, error) {
	return ctx.renderChildren(n, "")
}

func renderInline(n *Node, ctx *RenderContext) (string, error) {
	if len(n.Children) == 0 {
		return n.Content(), nil
	}
	return ctx.renderChildren(n, "")
}

func renderBlockquote(n *Node, ctx *RenderContext) (string, error) {
	body, err := ctx.renderChildren(n, "\n\n")
	if err != nil {
		return "", err
	}
	lines := strings.Split(body, "\n")
	for i, line := range lines {
		if line == "" {
			lines[i] = ">"
		} else {
			lines[i] = "> " + line
		}
	}
	return strings.Join(lines, "\n"), nil
}

func renderList(n *Node, ctx *RenderContext) (string, error) {
	sep := "\n\n"
	if n.Token.Hidden {
		sep = "\n"
	}
	return ctx.renderChildren(n, sep)
}

func renderListItem(n *Node, ctx *RenderContext) (string, error) {
	list := n.Parent
	sep := "\n\n"
	if list.Token.Hidden {
		sep = "\n"
	}
	body, err := ctx.renderChildren(n, sep)
	if err != nil {
		return "", err
	}

	marker := list.Token.Markup
	if list.Type == "ordered_list" {
		start, err := strconv.Atoi(list.Token.Info)
		if err != nil {
			start = 1
		}
		marker = strconv.Itoa(start+n.Index()) + list.Token.Markup
	}
	if body == "" {
		return marker, nil
	}

	indent := strings.Repeat(" ", len(marker)+1)
	lines := strings.Split(body, "\n")
	for i, line := range lines {
		switch {
		case i == 0:
			lines[i] = marker + " " + line
		case line != "":
			lines[i] = indent + line
		}
	}
	return strings.Join(lines, "\n"), nil
}

func renderHTMLBlock(n *Node, _ *RenderContext) (string, error) {
	return strings.TrimRight(n.Content(), "\n"), nil
}

func renderFence(n *Node, _ *RenderContext) (string, error) {
	content := n.Content()
	char := "`"
	if strings.Contains(n.Token.Info, "`") {
		char = "~"
	}
	fence := strings.Repeat(char, max(3, longestRun(content, char[0])+1))
	if content != "" && !strings.HasSuffix(content, "\n") {
		content += "\n"
	}
	return fence + n.Token.Info + "\n" + content + fence, nil
}

func renderCodeBlock(n *Node, _ *RenderContext) (string, error) {
	lines := strings.Split(strings.TrimRight(n.Content(), "\n"), "\n")
	for i, line := range lines {
		if strings.TrimSpace(line) != "" {
			lines[i] = "    " + line
		} else {
			lines[i] = ""
		}
	}
	return strings.Join(lines, "\n"), nil
}

func renderHR(*Node, *RenderContext) (string, error) {
	return "***", nil
}

func renderContent(n *Node, _ *RenderContext) (string, error) {
	return n.Content(), nil
}

func renderSoftbreak(*Node, *RenderContext) (string, error) {
	return "\n", nil
}

func renderCodeInline(n *Node, _ *RenderContext) (string, error) {
	content := n.Content()
	markup := strings.Repeat("`", longestRun(content, '`')+1)
	if n.Token.Markup != "" && len(n.Token.Markup) > len(markup) {
		markup = n.Token.Markup
	}
	pad := strings.HasPrefix(content, "`") || strings.HasSuffix(content, "`") ||
		(strings.HasPrefix(content, " ") && strings.HasSuffix(content, " ") && strings.TrimSpace(content) != "")
	if pad {
		content = " " + content + " "
	}
	return markup + content + markup, nil
}

// AnchorTag returns the opening anchor tag for slug.
func AnchorTag(slug string) string {
	return `<a name="#` + slug + `">`
}

func renderAnchor(n *Node, _ *RenderContext) (string, error) {
	return AnchorTag(n.Token.Slug), nil
}

func longestRun(s string, c byte) int {
	longest, run := 0, 0
	for i := 0; i < len(s); i++ {
		if s[i] == c {
			run++
			longest = max(longest, run)
		} else {
			run = 0
		}
	}
	return longest
}
