// Package slug turns heading text into URL fragment identifiers.
package slug

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Style names a slug algorithm.
type Style string

const (
	GitHub Style = "github"
	GitLab Style = "gitlab"
)

// Func builds the slug for a title. repetition is the number of times the
// same title was seen before in the current pass.
type Func func(title string, repetition int) string

var funcs = map[Style]Func{
	GitHub: GitHubSlug,
	GitLab: GitLabSlug,
}

// Lookup returns the slug function for a style name.
func Lookup(style string) (Func, bool) {
	fn, ok := funcs[Style(style)]
	return fn, ok
}

// Known reports whether style names a slug algorithm.
func Known(style string) bool {
	_, ok := funcs[Style(style)]
	return ok
}

var (
	hexEscape       = regexp.MustCompile(`%[A-Fa-f0-9]{2}`)
	githubBlacklist = regexp.MustCompile("[/?!:\\[\\]`.,()*\"';{}+=<>~$|#&@\\t]")
	gitlabDisallow  = regexp.MustCompile(`[^\p{L}\p{N}_\x{4e00}-\x{9fff}\-]`)
	hyphenRun       = regexp.MustCompile(`-{2,}`)
)

// GitHubSlug mimics the anchors GitHub generates for headings.
func GitHubSlug(title string, repetition int) string {
	s := normalize(title)
	s = hexEscape.ReplaceAllString(s, "")
	s = githubBlacklist.ReplaceAllString(s, "")
	return withRepetition(url.QueryEscape(s), repetition)
}

// GitLabSlug mimics the anchors GitLab generates for headings: only word
// characters, CJK ideographs and hyphens survive.
func GitLabSlug(title string, repetition int) string {
	s := normalize(title)
	s = gitlabDisallow.ReplaceAllString(s, "")
	s = hyphenRun.ReplaceAllString(s, "-")
	return withRepetition(url.QueryEscape(s), repetition)
}

func normalize(title string) string {
	s := cases.Lower(language.Und).String(strings.TrimSpace(title))
	return strings.ReplaceAll(s, " ", "-")
}

func withRepetition(s string, repetition int) string {
	if repetition > 0 {
		return s + "-" + strconv.Itoa(repetition)
	}
	return s
}

// Unique wraps fn with a counter keyed on the source title. The N-th repeat
// of an identical title gets a "-N" suffix. Titles that differ but produce
// the same slug are not deduplicated against each other.
//
// The returned function is not safe for concurrent use; create one per
// document.
func Unique(fn Func) func(title string) string {
	counts := make(map[string]int)
	return func(title string) string {
		s := fn(title, counts[title])
		counts[title]++
		return s
	}
}
