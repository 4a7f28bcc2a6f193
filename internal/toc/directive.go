package toc

import (
	"strings"

	"github.com/jackzampolin/mdtoc/internal/markdown"
)

const (
	directiveKeyword = "mdformat-toc"
	startKeyword     = "start"
	endKeyword       = "end"
)

// Args splits the content of a directive comment into its arguments. The
// first two are the directive keywords.
func Args(content string) []string {
	s := strings.TrimRight(content, "\n")
	s = strings.TrimPrefix(s, "<!--")
	s = strings.TrimSuffix(s, "-->")
	return strings.Fields(s)
}

func isDirective(tok *markdown.Token, kind string) bool {
	if tok == nil || tok.Type != markdown.TypeHTMLBlock {
		return false
	}
	args := Args(tok.Content)
	return len(args) >= 2 &&
		strings.EqualFold(args[0], directiveKeyword) &&
		strings.EqualFold(args[1], kind)
}

// IsStart reports whether tok is a start directive.
func IsStart(tok *markdown.Token) bool { return isDirective(tok, startKeyword) }

// IsEnd reports whether tok is an end directive.
func IsEnd(tok *markdown.Token) bool { return isDirective(tok, endKeyword) }

// OptionsFromToken parses the options carried by a start directive.
func OptionsFromToken(tok *markdown.Token) Options {
	args := Args(tok.Content)
	if len(args) < 2 {
		return DefaultOptions()
	}
	return ParseOptions(args[2:])
}

// FindStart returns the index of the first start directive at or after
// from, or -1.
func FindStart(tokens []*markdown.Token, from int) int {
	for i := max(from, 0); i < len(tokens); i++ {
		if IsStart(tokens[i]) {
			return i
		}
	}
	return -1
}

// CountStarts returns the number of start directives in tokens.
func CountStarts(tokens []*markdown.Token) int {
	n := 0
	for i := FindStart(tokens, 0); i >= 0; i = FindStart(tokens, i+1) {
		n++
	}
	return n
}

// FindEnd returns the index of the end directive following tokens[start] at
// the same level, or -1. The search stops when the start directive's
// container closes.
func FindEnd(tokens []*markdown.Token, start int) int {
	level := tokens[start].Level
	for i := start + 1; i < len(tokens); i++ {
		tok := tokens[i]
		if tok.Level < level {
			return -1
		}
		if tok.Level == level && IsEnd(tok) {
			return i
		}
	}
	return -1
}

// HeadingTokens locates the start directive of a token stream and returns
// its options, the tokens headings are collected from and the number of
// start directives found. Only a single directive takes effect: with none
// or several, the options are the defaults and tokens is returned whole.
// Otherwise the old table of contents, from the start directive through
// its end directive, is left out.
func HeadingTokens(tokens []*markdown.Token) (Options, []*markdown.Token, int) {
	starts := CountStarts(tokens)
	if starts != 1 {
		return DefaultOptions(), tokens, starts
	}
	start := FindStart(tokens, 0)
	opts := OptionsFromToken(tokens[start])

	end := FindEnd(tokens, start)
	if end < 0 {
		return opts, tokens, starts
	}
	collect := make([]*markdown.Token, 0, len(tokens)-(end-start+1))
	collect = append(collect, tokens[:start]...)
	collect = append(collect, tokens[end+1:]...)
	return opts, collect, starts
}

// FindStartNodes returns every start directive node under root.
func FindStartNodes(root *markdown.Node) []*markdown.Node {
	var out []*markdown.Node
	root.Walk(func(n *markdown.Node) {
		if n.Type == markdown.TypeHTMLBlock && IsStart(n.Token) {
			out = append(out, n)
		}
	})
	return out
}

// FindEndSibling returns the first end directive among the siblings
// following n, or nil.
func FindEndSibling(n *markdown.Node) *markdown.Node {
	for s := n.NextSibling(); s != nil; s = s.NextSibling() {
		if s.Type == markdown.TypeHTMLBlock && IsEnd(s.Token) {
			return s
		}
	}
	return nil
}
