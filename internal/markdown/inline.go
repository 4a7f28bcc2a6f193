package markdown

import (
	"strings"

	"github.com/yuin/goldmark/ast"
)

// inlineTokens rebuilds the inline children of a block from its source.
// Text, code spans and raw HTML map to tokens with exact source spans. Any
// other inline construct is opaque: its raw source is the stretch between
// the neighbouring exact spans, and consecutive opaque nodes share one token.
func inlineTokens(block ast.Node, src []byte) []*Token {
	lines := block.Lines()
	if lines.Len() == 0 {
		return nil
	}
	b := &inlineBuilder{
		src:    src,
		cursor: lines.At(0).Start,
	}
	for c := block.FirstChild(); c != nil; c = c.NextSibling() {
		start, stop, ok := exactSpan(c, src)
		if !ok || start < b.cursor {
			b.opaque(c)
			continue
		}
		b.until(start)
		b.exact(c, start, stop)
	}
	b.until(lines.At(lines.Len() - 1).Stop)
	return b.out
}

type inlineBuilder struct {
	src    []byte
	cursor int
	out    []*Token

	pending      *Token
	pendingStart int
}

// opaque folds n into the pending markup token.
func (b *inlineBuilder) opaque(n ast.Node) {
	if b.pending == nil {
		b.pending = &Token{Type: TypeMarkup}
		b.pendingStart = b.cursor
	}
	b.pending.Text += flatText(n, b.src)
}

// until accounts for the source between the cursor and pos, either as the
// body of the pending markup token or as a gap.
func (b *inlineBuilder) until(pos int) {
	if pos < b.cursor {
		pos = b.cursor
	}
	raw := string(b.src[b.cursor:pos])
	b.cursor = pos
	if b.pending == nil {
		b.gap(raw)
		return
	}

	tok := b.pending
	b.pending = nil
	lead := len(raw) - len(strings.TrimLeft(raw, " \t\r\n"))
	if strings.Contains(raw[:lead], "\n") {
		b.softbreak()
		raw = raw[lead:]
	}
	body := strings.TrimRight(raw, " \t\r\n")
	tok.Content = body
	b.out = append(b.out, tok)
	b.gap(raw[len(body):])
}

func (b *inlineBuilder) gap(raw string) {
	if raw == "" {
		return
	}
	if strings.TrimSpace(raw) == "" && strings.Contains(raw, "\n") {
		b.softbreak()
		return
	}
	b.out = append(b.out, &Token{Type: TypeText, Content: raw})
}

func (b *inlineBuilder) softbreak() {
	if n := len(b.out); n > 0 && b.out[n-1].Type == TypeSoftbreak {
		return
	}
	b.out = append(b.out, &Token{Type: TypeSoftbreak})
}

func (b *inlineBuilder) exact(n ast.Node, start, stop int) {
	switch n := n.(type) {
	case *ast.Text:
		b.out = append(b.out, &Token{Type: TypeText, Content: string(b.src[start:stop])})
		if n.SoftLineBreak() || n.HardLineBreak() {
			b.softbreak()
		}
	case *ast.CodeSpan:
		fence := strings.Trim(string(b.src[start:stop]), " \n")
		markup := fence[:len(fence)-len(strings.TrimLeft(fence, "`"))]
		b.out = append(b.out, &Token{Type: TypeCodeInline, Markup: markup, Content: codeSpanContent(n, b.src)})
	case *ast.RawHTML:
		b.out = append(b.out, &Token{Type: TypeHTMLInline, Content: string(b.src[start:stop])})
	}
	b.cursor = stop
}

// exactSpan returns the source span of inline nodes whose position is known.
func exactSpan(n ast.Node, src []byte) (start, stop int, ok bool) {
	switch n := n.(type) {
	case *ast.Text:
		return n.Segment.Start, n.Segment.Stop, true
	case *ast.RawHTML:
		if n.Segments == nil || n.Segments.Len() == 0 {
			return 0, 0, false
		}
		return n.Segments.At(0).Start, n.Segments.At(n.Segments.Len() - 1).Stop, true
	case *ast.CodeSpan:
		first, ok := n.FirstChild().(*ast.Text)
		if !ok {
			return 0, 0, false
		}
		last, ok := n.LastChild().(*ast.Text)
		if !ok {
			return 0, 0, false
		}
		start, stop = first.Segment.Start, last.Segment.Stop
		for start > 0 && (src[start-1] == ' ' || src[start-1] == '\n') {
			start--
		}
		for start > 0 && src[start-1] == '`' {
			start--
		}
		for stop < len(src) && (src[stop] == ' ' || src[stop] == '\n') {
			stop++
		}
		for stop < len(src) && src[stop] == '`' {
			stop++
		}
		if start == first.Segment.Start || stop == last.Segment.Stop {
			return 0, 0, false
		}
		return start, stop, true
	}
	return 0, 0, false
}

func codeSpanContent(n *ast.CodeSpan, src []byte) string {
	var sb strings.Builder
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if t, ok := c.(*ast.Text); ok {
			sb.Write(t.Segment.Value(src))
		}
	}
	return strings.ReplaceAll(sb.String(), "\n", " ")
}

// flatText returns the heading-title text of an inline subtree. Image alt
// text and raw HTML are left out.
func flatText(n ast.Node, src []byte) string {
	switch n := n.(type) {
	case *ast.Text:
		s := Unescape(string(n.Segment.Value(src)))
		if n.SoftLineBreak() || n.HardLineBreak() {
			s += "\n"
		}
		return s
	case *ast.String:
		return string(n.Value)
	case *ast.CodeSpan:
		return "`" + codeSpanContent(n, src) + "`"
	case *ast.AutoLink:
		return string(n.Label(src))
	case *ast.Image, *ast.RawHTML:
		return ""
	}
	var sb strings.Builder
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		sb.WriteString(flatText(c, src))
	}
	return sb.String()
}
