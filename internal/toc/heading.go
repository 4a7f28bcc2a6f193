package toc

// Heading is a heading collected from a document.
type Heading struct {
	Level int
	// Text is the flattened display text, also the slug source.
	Text string
	Slug string
	// Markdown is the heading's rendered markup, anchor included.
	Markdown string
}

// HeadingTree holds headings in document order together with their parent
// links. The parent of a heading is the closest preceding heading with a
// lower level.
type HeadingTree struct {
	headings []Heading
	parents  []int
}

// NewHeadingTree builds a tree over headings.
func NewHeadingTree(headings []Heading) *HeadingTree {
	t := &HeadingTree{
		headings: headings,
		parents:  make([]int, len(headings)),
	}

	// open holds indices of headings that can still parent later ones.
	var open []int
	for i, h := range headings {
		for len(open) > 0 && headings[open[len(open)-1]].Level >= h.Level {
			open = open[:len(open)-1]
		}
		t.parents[i] = -1
		if len(open) > 0 {
			t.parents[i] = open[len(open)-1]
		}
		open = append(open, i)
	}
	return t
}

// Len returns the number of headings.
func (t *HeadingTree) Len() int { return len(t.headings) }

// At returns the i-th heading.
func (t *HeadingTree) At(i int) Heading { return t.headings[i] }

// Headings returns the headings in document order.
func (t *HeadingTree) Headings() []Heading { return t.headings }

// Parent returns the index of the i-th heading's parent, or -1.
func (t *HeadingTree) Parent(i int) int { return t.parents[i] }

// Depth returns the number of ancestors of the i-th heading.
func (t *HeadingTree) Depth(i int) int {
	depth := 0
	for p := t.parents[i]; p >= 0; p = t.parents[p] {
		depth++
	}
	return depth
}

// Filter returns a new tree with the headings keep accepts. Parents are
// recomputed over the kept headings only.
func (t *HeadingTree) Filter(keep func(Heading) bool) *HeadingTree {
	var kept []Heading
	for _, h := range t.headings {
		if keep(h) {
			kept = append(kept, h)
		}
	}
	return NewHeadingTree(kept)
}
