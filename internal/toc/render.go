package toc

import "strings"

// RenderList renders the headings inside the options' level window as a
// nested bullet list, one line per heading.
func RenderList(tree *HeadingTree, opts Options) string {
	filtered := tree.Filter(func(h Heading) bool { return opts.InWindow(h.Level) })

	var sb strings.Builder
	for i, h := range filtered.Headings() {
		sb.WriteString(strings.Repeat("  ", filtered.Depth(i)))
		sb.WriteString("- [")
		sb.WriteString(h.Text)
		sb.WriteString("](<#")
		sb.WriteString(h.Slug)
		sb.WriteString(">)\n")
	}
	return sb.String()
}

// RenderBlock renders the directive pair with the list between them.
func RenderBlock(tree *HeadingTree, opts Options) string {
	return "<!-- " + directiveKeyword + " " + startKeyword + " " + opts.String() + " -->\n\n" +
		RenderList(tree, opts) +
		"\n<!-- " + directiveKeyword + " " + endKeyword + " -->"
}
