package markdown

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
)

// Parser converts markdown source into a flat token stream.
type Parser struct {
	md goldmark.Markdown
}

// NewParser returns a CommonMark parser.
func NewParser() *Parser {
	return &Parser{md: goldmark.New()}
}

// Parse tokenizes src. Link reference definitions are emitted after the
// last block, sorted by label.
func (p *Parser) Parse(src []byte) []*Token {
	pc := parser.NewContext()
	doc := p.md.Parser().Parse(text.NewReader(src), parser.WithContext(pc))

	t := &tokenizer{src: src}
	for c := doc.FirstChild(); c != nil; c = c.NextSibling() {
		t.block(c, 0)
	}
	t.references(pc.References())
	return t.tokens
}

type tokenizer struct {
	src    []byte
	tokens []*Token
}

func (t *tokenizer) push(tok *Token) {
	t.tokens = append(t.tokens, tok)
}

func (t *tokenizer) block(n ast.Node, level int) {
	switch n := n.(type) {
	case *ast.Heading:
		tag := fmt.Sprintf("h%d", n.Level)
		markup := strings.Repeat("#", n.Level)
		t.push(&Token{Type: TypeHeadingOpen, Tag: tag, Nesting: 1, Level: level, Markup: markup})
		t.push(&Token{
			Type:     TypeInline,
			Level:    level + 1,
			Content:  t.lines(n),
			Children: inlineTokens(n, t.src),
		})
		t.push(&Token{Type: TypeHeadingClose, Tag: tag, Nesting: -1, Level: level, Markup: markup})

	case *ast.Paragraph, *ast.TextBlock:
		// goldmark leaves an empty paragraph behind when every line was a
		// link reference definition.
		content := strings.TrimSpace(t.lines(n))
		if content == "" {
			return
		}
		t.push(&Token{Type: TypeParagraphOpen, Tag: "p", Nesting: 1, Level: level})
		t.push(&Token{Type: TypeInline, Level: level + 1, Content: content})
		t.push(&Token{Type: TypeParagraphClose, Tag: "p", Nesting: -1, Level: level})

	case *ast.ThematicBreak:
		t.push(&Token{Type: TypeHR, Tag: "hr", Level: level})

	case *ast.CodeBlock:
		t.push(&Token{Type: TypeCodeBlock, Tag: "code", Level: level, Content: t.lines(n)})

	case *ast.FencedCodeBlock:
		var info string
		if n.Info != nil {
			info = strings.TrimSpace(string(n.Info.Segment.Value(t.src)))
		}
		t.push(&Token{Type: TypeFence, Tag: "code", Level: level, Info: info, Content: t.lines(n)})

	case *ast.HTMLBlock:
		content := t.lines(n)
		if n.HasClosure() {
			content += string(n.ClosureLine.Value(t.src))
		}
		t.push(&Token{Type: TypeHTMLBlock, Level: level, Content: content})

	case *ast.Blockquote:
		t.push(&Token{Type: TypeBlockquoteOpen, Tag: "blockquote", Nesting: 1, Level: level, Markup: ">"})
		t.children(n, level+1)
		t.push(&Token{Type: TypeBlockquoteClose, Tag: "blockquote", Nesting: -1, Level: level, Markup: ">"})

	case *ast.List:
		open := &Token{Nesting: 1, Level: level, Markup: string(n.Marker), Hidden: n.IsTight}
		closing := &Token{Nesting: -1, Level: level, Markup: string(n.Marker)}
		if n.IsOrdered() {
			open.Type, open.Tag, open.Info = TypeOrderedOpen, "ol", strconv.Itoa(n.Start)
			closing.Type, closing.Tag = TypeOrderedClose, "ol"
		} else {
			open.Type, open.Tag = TypeBulletListOpen, "ul"
			closing.Type, closing.Tag = TypeBulletListClose, "ul"
		}
		t.push(open)
		for item := n.FirstChild(); item != nil; item = item.NextSibling() {
			t.push(&Token{Type: TypeListItemOpen, Tag: "li", Nesting: 1, Level: level + 1})
			t.children(item, level+2)
			t.push(&Token{Type: TypeListItemClose, Tag: "li", Nesting: -1, Level: level + 1})
		}
		t.push(closing)

	default:
		// Blocks contributed by goldmark extensions are kept as paragraphs
		// of their raw lines.
		if n.Type() == ast.TypeBlock && n.Lines().Len() > 0 {
			t.push(&Token{Type: TypeParagraphOpen, Tag: "p", Nesting: 1, Level: level})
			t.push(&Token{Type: TypeInline, Level: level + 1, Content: strings.TrimSpace(t.lines(n))})
			t.push(&Token{Type: TypeParagraphClose, Tag: "p", Nesting: -1, Level: level})
			return
		}
		t.children(n, level)
	}
}

func (t *tokenizer) children(n ast.Node, level int) {
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		t.block(c, level)
	}
}

// lines joins the raw source lines of a block.
func (t *tokenizer) lines(n ast.Node) string {
	var sb strings.Builder
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		sb.Write(seg.Value(t.src))
	}
	return sb.String()
}

func (t *tokenizer) references(refs []parser.Reference) {
	sort.Slice(refs, func(i, j int) bool {
		return strings.ToLower(string(refs[i].Label())) < strings.ToLower(string(refs[j].Label()))
	})
	for _, ref := range refs {
		t.push(&Token{Type: TypeLinkReference, Level: 0, Content: formatReference(ref)})
	}
}

func formatReference(ref parser.Reference) string {
	dest := string(ref.Destination())
	if dest == "" || strings.ContainsAny(dest, " <>()") {
		dest = "<" + dest + ">"
	}
	s := "[" + string(ref.Label()) + "]: " + dest
	if title := ref.Title(); len(title) > 0 {
		s += ` "` + strings.ReplaceAll(string(title), `"`, `\"`) + `"`
	}
	return s
}
