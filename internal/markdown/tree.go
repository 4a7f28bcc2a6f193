package markdown

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnbalanced is returned when a token stream does not nest properly.
var ErrUnbalanced = errors.New("unbalanced token stream")

// TypeRoot is the node type of a tree's root.
const TypeRoot = "root"

// Node is an element of the render tree. Container nodes keep their opening
// and closing tokens; leaf nodes keep their only token.
type Node struct {
	Type     string
	Token    *Token
	Close    *Token
	Parent   *Node
	Children []*Node
}

// NewTree builds a render tree from a token stream.
func NewTree(tokens []*Token) (*Node, error) {
	root := &Node{Type: TypeRoot}
	stack := []*Node{root}
	for i, tok := range tokens {
		top := stack[len(stack)-1]
		switch tok.Nesting {
		case 1:
			n := &Node{Type: strings.TrimSuffix(tok.Type, "_open"), Token: tok, Parent: top}
			top.Children = append(top.Children, n)
			stack = append(stack, n)
		case -1:
			if len(stack) == 1 || top.Type != strings.TrimSuffix(tok.Type, "_close") {
				return nil, fmt.Errorf("%w: unexpected %s at index %d", ErrUnbalanced, tok.Type, i)
			}
			top.Close = tok
			stack = stack[:len(stack)-1]
		default:
			top.Children = append(top.Children, leaf(tok, top))
		}
	}
	if len(stack) != 1 {
		return nil, fmt.Errorf("%w: %s is never closed", ErrUnbalanced, stack[len(stack)-1].Type)
	}
	return root, nil
}

func leaf(tok *Token, parent *Node) *Node {
	n := &Node{Type: tok.Type, Token: tok, Parent: parent}
	for _, child := range tok.Children {
		n.Children = append(n.Children, leaf(child, n))
	}
	return n
}

// Tokens flattens the block structure under n back into a token stream.
func (n *Node) Tokens() []*Token {
	var out []*Token
	n.appendTokens(&out)
	return out
}

func (n *Node) appendTokens(out *[]*Token) {
	if n.Type != TypeRoot && n.Token != nil && n.Token.Nesting == 0 {
		*out = append(*out, n.Token)
		return
	}
	if n.Token != nil {
		*out = append(*out, n.Token)
	}
	for _, c := range n.Children {
		c.appendTokens(out)
	}
	if n.Close != nil {
		*out = append(*out, n.Close)
	}
}

// Siblings returns the children of n's parent, n included.
func (n *Node) Siblings() []*Node {
	if n.Parent == nil {
		return []*Node{n}
	}
	return n.Parent.Children
}

// Index returns n's position among its siblings.
func (n *Node) Index() int {
	for i, s := range n.Siblings() {
		if s == n {
			return i
		}
	}
	return -1
}

// NextSibling returns the node following n under the same parent, or nil.
func (n *Node) NextSibling() *Node {
	siblings := n.Siblings()
	i := n.Index()
	if i < 0 || i+1 >= len(siblings) {
		return nil
	}
	return siblings[i+1]
}

// Walk calls fn for n and every descendant in document order.
func (n *Node) Walk(fn func(*Node)) {
	fn(n)
	for _, c := range n.Children {
		c.Walk(fn)
	}
}

// Content returns the content of the node's token.
func (n *Node) Content() string {
	if n.Token == nil {
		return ""
	}
	return n.Token.Content
}
