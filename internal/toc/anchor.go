package toc

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/jackzampolin/mdtoc/internal/markdown"
)

var anchorOpen = regexp.MustCompile(`^<a\s`)

// ReconcileAnchor replaces any anchor in a heading's inline content with an
// unresolved anchor placed at the end. The anchor spans from the last
// opening "<a " tag through the last "</a>" after it. Trailing whitespace of
// text left in front of a removed anchor is trimmed, as is leading
// whitespace of text that follows an anchor removed from the start.
func ReconcileAnchor(inline *markdown.Token, symbol string) {
	children := inline.Children
	start, end := -1, -1
	for i, c := range children {
		switch {
		case isAnchorOpen(c):
			start, end = i, i
		case start >= 0 && c.Type == markdown.TypeHTMLInline && c.Content == "</a>":
			end = i
		}
	}

	if start >= 0 {
		kept := make([]*markdown.Token, 0, len(children)-(end-start+1)+3)
		kept = append(kept, children[:start]...)
		kept = append(kept, children[end+1:]...)
		children = kept
		switch {
		case start > 0 && children[start-1].Type == markdown.TypeText:
			prev := children[start-1]
			prev.Content = strings.TrimRightFunc(prev.Content, unicode.IsSpace)
		case start == 0 && len(children) > 0 && children[0].Type == markdown.TypeText:
			next := children[0]
			next.Content = strings.TrimLeftFunc(next.Content, unicode.IsSpace)
		}
	}

	if n := len(children); n > 0 && children[n-1].Type == markdown.TypeText {
		last := children[n-1]
		last.Content = escapeTrailingBackslash(last.Content)
	}

	inline.Children = append(children,
		&markdown.Token{Type: markdown.TypeAnchorPlaceholder},
		&markdown.Token{Type: markdown.TypeText, Content: symbol},
		&markdown.Token{Type: markdown.TypeHTMLInline, Content: "</a>"},
	)
}

// escapeTrailingBackslash doubles a dangling backslash so it cannot escape
// the "<" of an anchor written right after it.
func escapeTrailingBackslash(s string) string {
	run := len(s) - len(strings.TrimRight(s, `\`))
	if run%2 == 1 {
		return s + `\`
	}
	return s
}

func isAnchorOpen(tok *markdown.Token) bool {
	switch tok.Type {
	case markdown.TypeAnchor, markdown.TypeAnchorPlaceholder:
		return true
	case markdown.TypeHTMLInline:
		return anchorOpen.MatchString(tok.Content)
	}
	return false
}

// ResolveAnchor turns the anchor placeholder in a heading's inline content
// into an anchor for slug. It reports whether a placeholder was found.
func ResolveAnchor(inline *markdown.Token, slug string) bool {
	for _, c := range inline.Children {
		if c.Type == markdown.TypeAnchorPlaceholder {
			c.Type = markdown.TypeAnchor
			c.Slug = slug
			return true
		}
	}
	return false
}
