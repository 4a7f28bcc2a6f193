package markdown

import (
	"errors"
	"fmt"
	"strings"

	"github.com/yuin/goldmark/util"
)

// Token types produced by the parser.
const (
	TypeHeadingOpen     = "heading_open"
	TypeHeadingClose    = "heading_close"
	TypeParagraphOpen   = "paragraph_open"
	TypeParagraphClose  = "paragraph_close"
	TypeBlockquoteOpen  = "blockquote_open"
	TypeBlockquoteClose = "blockquote_close"
	TypeBulletListOpen  = "bullet_list_open"
	TypeBulletListClose = "bullet_list_close"
	TypeOrderedOpen     = "ordered_list_open"
	TypeOrderedClose    = "ordered_list_close"
	TypeListItemOpen    = "list_item_open"
	TypeListItemClose   = "list_item_close"
	TypeInline          = "inline"
	TypeHTMLBlock       = "html_block"
	TypeFence           = "fence"
	TypeCodeBlock       = "code_block"
	TypeHR              = "hr"
	TypeLinkReference   = "link_reference"

	TypeText              = "text"
	TypeCodeInline        = "code_inline"
	TypeHTMLInline        = "html_inline"
	TypeSoftbreak         = "softbreak"
	TypeMarkup            = "markup"
	TypeAnchorPlaceholder = "anchor_placeholder"
	TypeAnchor            = "anchor"
)

var (
	// ErrNotOpening is returned when a closing token is requested for a
	// token that does not open a block.
	ErrNotOpening = errors.New("token does not open a block")

	// ErrClosingNotFound is returned when an opening token has no matching
	// closing token.
	ErrClosingNotFound = errors.New("closing token not found")
)

// Token is one element of the flat token stream. Block tokens carry nesting
// and level so matching closers and same-level siblings can be found without
// a tree; inline tokens hang off an "inline" token's Children.
type Token struct {
	Type    string
	Tag     string
	Nesting int // 1 opens, -1 closes, 0 self-contained
	Level   int

	Content string
	Markup  string
	Info    string
	// Text is the flattened text of an opaque "markup" token.
	Text string
	// Slug is the anchor value of "anchor" tokens. Empty on placeholders.
	Slug string
	// Hidden marks tight lists.
	Hidden bool

	Children []*Token
}

// Clone returns a deep copy of t.
func (t *Token) Clone() *Token {
	c := *t
	if t.Children != nil {
		c.Children = make([]*Token, len(t.Children))
		for i, child := range t.Children {
			c.Children[i] = child.Clone()
		}
	}
	return &c
}

// PlainText returns the text an inline token contributes to a heading title.
// Code spans keep their backticks; raw HTML and anchors contribute nothing.
func (t *Token) PlainText() string {
	switch t.Type {
	case TypeText:
		return Unescape(t.Content)
	case TypeCodeInline:
		return "`" + t.Content + "`"
	case TypeMarkup:
		return t.Text
	case TypeSoftbreak:
		return "\n"
	default:
		return ""
	}
}

// HeadingLevel returns the numeric level of a heading_open token.
func (t *Token) HeadingLevel() int {
	var level int
	if _, err := fmt.Sscanf(t.Tag, "h%d", &level); err != nil {
		return 0
	}
	return level
}

func (t *Token) String() string {
	return fmt.Sprintf("%s(level=%d nesting=%d %q)", t.Type, t.Level, t.Nesting, t.Content)
}

// IndexClosing returns the index of the token closing tokens[open].
func IndexClosing(tokens []*Token, open int) (int, error) {
	opening := tokens[open]
	if opening.Nesting != 1 {
		return 0, fmt.Errorf("%w: %s", ErrNotOpening, opening.Type)
	}
	for i := open + 1; i < len(tokens); i++ {
		if tokens[i].Level == opening.Level {
			return i, nil
		}
	}
	return 0, fmt.Errorf("%w: %s at index %d", ErrClosingNotFound, opening.Type, open)
}

// CopyBlock deep-copies the tokens from tokens[open] through its closing
// token so the copy can be mutated safely.
func CopyBlock(tokens []*Token, open int) ([]*Token, error) {
	closing, err := IndexClosing(tokens, open)
	if err != nil {
		return nil, err
	}
	out := make([]*Token, 0, closing-open+1)
	for _, tok := range tokens[open : closing+1] {
		out = append(out, tok.Clone())
	}
	return out, nil
}

// Unescape resolves backslash escapes and entity references in raw inline
// source.
func Unescape(s string) string {
	if !strings.ContainsAny(s, `\&`) {
		return s
	}
	b := util.ResolveEntityNames([]byte(s))
	b = util.ResolveNumericReferences(b)
	b = util.UnescapePunctuations(b)
	return string(b)
}
