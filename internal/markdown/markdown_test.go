package markdown

import (
	"errors"
	"strings"
	"testing"
)

func inlineChildren(t *testing.T, src string) []*Token {
	t.Helper()
	tokens := NewParser().Parse([]byte(src))
	for _, tok := range tokens {
		if tok.Type == TypeInline {
			return tok.Children
		}
	}
	t.Fatalf("no inline token in %q", src)
	return nil
}

func describe(tokens []*Token) string {
	parts := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		parts = append(parts, tok.Type+":"+tok.Content)
	}
	return strings.Join(parts, "|")
}

func TestParser_HeadingTokens(t *testing.T) {
	tokens := NewParser().Parse([]byte("# Same name\n\ntext\n"))
	want := []string{TypeHeadingOpen, TypeInline, TypeHeadingClose, TypeParagraphOpen, TypeInline, TypeParagraphClose}
	if len(tokens) != len(want) {
		t.Fatalf("got %d tokens, want %d: %v", len(tokens), len(want), tokens)
	}
	for i, w := range want {
		if tokens[i].Type != w {
			t.Errorf("token %d: got %s, want %s", i, tokens[i].Type, w)
		}
	}
	if tokens[0].Tag != "h1" || tokens[0].HeadingLevel() != 1 {
		t.Errorf("unexpected heading tag %q", tokens[0].Tag)
	}
	if tokens[1].Level != 1 || tokens[2].Level != 0 {
		t.Errorf("unexpected levels: inline=%d close=%d", tokens[1].Level, tokens[2].Level)
	}
}

func TestParser_HeadingInline(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{
			name: "plain text",
			src:  "# Same name\n",
			want: "text:Same name",
		},
		{
			name: "code span",
			src:  "## Use `go test` now\n",
			want: "text:Use |code_inline:go test|text: now",
		},
		{
			name: "raw html anchor",
			src:  "# Title <a name=\"#title\"></a>\n",
			want: "text:Title |html_inline:<a name=\"#title\">|html_inline:</a>",
		},
		{
			name: "emphasis is opaque",
			src:  "# Hello *world*\n",
			want: "text:Hello |markup:*world*",
		},
		{
			name: "setext heading lines",
			src:  "Foo\nbar\n===\n",
			want: "text:Foo|softbreak:|text:bar",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := describe(inlineChildren(t, tt.src))
			if got != tt.want {
				t.Errorf("got %s\nwant %s", got, tt.want)
			}
		})
	}
}

func TestToken_PlainText(t *testing.T) {
	children := inlineChildren(t, "# Hello *world* and `code`\n")
	var sb strings.Builder
	for _, c := range children {
		sb.WriteString(c.PlainText())
	}
	if got := sb.String(); got != "Hello world and `code`" {
		t.Errorf("got %q", got)
	}
}

func TestUnescape(t *testing.T) {
	if got := Unescape(`1\. Intro &amp; more`); got != "1. Intro & more" {
		t.Errorf("got %q", got)
	}
}

func TestIndexClosing(t *testing.T) {
	tokens := NewParser().Parse([]byte("> # Quoted\n\n# Top\n"))

	t.Run("finds matching closer", func(t *testing.T) {
		idx, err := IndexClosing(tokens, 0)
		if err != nil {
			t.Fatalf("IndexClosing() error = %v", err)
		}
		if tokens[idx].Type != TypeBlockquoteClose {
			t.Errorf("got %s, want blockquote_close", tokens[idx].Type)
		}
	})

	t.Run("rejects non-opening token", func(t *testing.T) {
		_, err := IndexClosing(tokens, 2)
		if !errors.Is(err, ErrNotOpening) {
			t.Errorf("expected ErrNotOpening, got %v", err)
		}
	})

	t.Run("reports missing closer", func(t *testing.T) {
		truncated := tokens[:2]
		_, err := IndexClosing(truncated, 0)
		if !errors.Is(err, ErrClosingNotFound) {
			t.Errorf("expected ErrClosingNotFound, got %v", err)
		}
	})
}

func TestCopyBlock(t *testing.T) {
	tokens := NewParser().Parse([]byte("# Title\n"))
	copied, err := CopyBlock(tokens, 0)
	if err != nil {
		t.Fatalf("CopyBlock() error = %v", err)
	}
	if len(copied) != 3 {
		t.Fatalf("got %d tokens, want 3", len(copied))
	}
	copied[1].Children[0].Content = "Changed"
	if tokens[1].Children[0].Content != "Title" {
		t.Error("mutating the copy changed the original")
	}
}

func TestNewTree(t *testing.T) {
	t.Run("builds nested nodes", func(t *testing.T) {
		root, err := NewTree(NewParser().Parse([]byte("> # Quoted\n\n<!-- a -->\n\n<!-- b -->\n")))
		if err != nil {
			t.Fatalf("NewTree() error = %v", err)
		}
		if len(root.Children) != 3 {
			t.Fatalf("got %d root children, want 3", len(root.Children))
		}
		quote := root.Children[0]
		if quote.Type != "blockquote" || quote.Children[0].Type != "heading" {
			t.Errorf("unexpected structure: %s > %s", quote.Type, quote.Children[0].Type)
		}
		if next := root.Children[1].NextSibling(); next != root.Children[2] {
			t.Error("NextSibling did not return the following html block")
		}
		if root.Children[2].NextSibling() != nil {
			t.Error("last child should have no next sibling")
		}
	})

	t.Run("round-trips tokens", func(t *testing.T) {
		tokens := NewParser().Parse([]byte("- a\n- b\n\n# H\n"))
		root, err := NewTree(tokens)
		if err != nil {
			t.Fatalf("NewTree() error = %v", err)
		}
		back := root.Tokens()
		if len(back) != len(tokens) {
			t.Fatalf("got %d tokens back, want %d", len(back), len(tokens))
		}
		for i := range tokens {
			if back[i] != tokens[i] {
				t.Errorf("token %d differs", i)
			}
		}
	})

	t.Run("rejects unbalanced stream", func(t *testing.T) {
		tokens := NewParser().Parse([]byte("# H\n"))
		_, err := NewTree(tokens[:2])
		if !errors.Is(err, ErrUnbalanced) {
			t.Errorf("expected ErrUnbalanced, got %v", err)
		}
	})
}

func TestFormat(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{
			name: "empty document",
			src:  "",
			want: "",
		},
		{
			name: "setext becomes atx",
			src:  "Title\n=====\n\nSub\n---\n",
			want: "# Title\n\n## Sub\n",
		},
		{
			name: "closing hashes dropped",
			src:  "##   Spaced ##\n",
			want: "## Spaced\n",
		},
		{
			name: "paragraph lines kept",
			src:  "Some *text* here\ncontinues.\n",
			want: "Some *text* here\ncontinues.\n",
		},
		{
			name: "tight bullet list",
			src:  "* one\n* two\n",
			want: "* one\n* two\n",
		},
		{
			name: "ordered list numbering",
			src:  "3) first\n3) second\n",
			want: "3) first\n4) second\n",
		},
		{
			name: "loose list with nested list",
			src:  "- a\n\n- b\n  - c\n",
			want: "- a\n\n- b\n\n  - c\n",
		},
		{
			name: "blockquote",
			src:  "> quote\n>\n> more\n",
			want: "> quote\n>\n> more\n",
		},
		{
			name: "indented code",
			src:  "    code\n",
			want: "    code\n",
		},
		{
			name: "fenced code",
			src:  "```go\nfmt.Println(\"hi\")\n```\n",
			want: "```go\nfmt.Println(\"hi\")\n```\n",
		},
		{
			name: "thematic break",
			src:  "a\n\n---\n\nb\n",
			want: "a\n\n***\n\nb\n",
		},
		{
			name: "html comment block",
			src:  "<!-- mdformat-toc start -->\n# H\n",
			want: "<!-- mdformat-toc start -->\n\n# H\n",
		},
		{
			name: "link reference definitions move to the end",
			src:  "[b]: http://b.example\n\nSee [a] and [b].\n\n[a]: http://a.example \"A\"\n",
			want: "See [a] and [b].\n\n[a]: http://a.example \"A\"\n[b]: http://b.example\n",
		},
		{
			name: "reference definition between blocks",
			src:  "# a\n\n[x]: http://x\n\nSee [x].\n",
			want: "# a\n\nSee [x].\n\n[x]: http://x\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Format([]byte(tt.src))
			if err != nil {
				t.Fatalf("Format() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Format() =\n%q\nwant\n%q", got, tt.want)
			}
			again, err := Format([]byte(got))
			if err != nil {
				t.Fatalf("second Format() error = %v", err)
			}
			if again != got {
				t.Errorf("not idempotent:\n%q\n%q", got, again)
			}
		})
	}
}

type upperHeadings struct {
	prepared int
}

func (u *upperHeadings) Prepare(*Parser) { u.prepared++ }

func (u *upperHeadings) Renderers() map[string]RenderFunc {
	return map[string]RenderFunc{
		"heading": func(n *Node, ctx *RenderContext) (string, error) {
			s, err := ctx.RenderDefault(n)
			return strings.ToUpper(s), err
		},
	}
}

func TestFormat_Extension(t *testing.T) {
	ext := &upperHeadings{}
	got, err := Format([]byte("# title\n\nbody\n"), ext)
	if err != nil {
		t.Fatalf("Format() error = %v", err)
	}
	if got != "# TITLE\n\nbody\n" {
		t.Errorf("got %q", got)
	}
	if ext.prepared != 1 {
		t.Errorf("Prepare called %d times, want 1", ext.prepared)
	}
}

func TestRenderContext_WithDefaults(t *testing.T) {
	ext := &upperHeadings{}
	ctx := NewRenderContext().With(ext.Renderers())
	root, err := NewTree(NewParser().Parse([]byte("# title\n")))
	if err != nil {
		t.Fatalf("NewTree() error = %v", err)
	}

	overridden, err := ctx.Render(root)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	plain, err := ctx.WithDefaults("heading").Render(root)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if overridden != "# TITLE\n" || plain != "# title\n" {
		t.Errorf("got %q and %q", overridden, plain)
	}
	// the original context keeps its override
	if again, _ := ctx.Render(root); again != overridden {
		t.Errorf("WithDefaults mutated the parent context: %q", again)
	}
}

func TestRenderCodeInline(t *testing.T) {
	tests := []struct {
		content string
		want    string
	}{
		{"plain", "`plain`"},
		{"a`b", "``a`b``"},
		{"`tick", "`` `tick ``"},
		{" both ", "`  both  `"},
	}
	for _, tt := range tests {
		n := &Node{Type: TypeCodeInline, Token: &Token{Type: TypeCodeInline, Content: tt.content}}
		got, err := renderCodeInline(n, NewRenderContext())
		if err != nil {
			t.Fatalf("renderCodeInline() error = %v", err)
		}
		if got != tt.want {
			t.Errorf("content %q: got %q, want %q", tt.content, got, tt.want)
		}
	}
}
