package toc

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/jackzampolin/mdtoc/internal/slug"
)

// Options configure the generated table of contents. They are read from the
// start directive and written back in canonical form.
type Options struct {
	MinLevel  int    `json:"minlevel" yaml:"minlevel"`
	MaxLevel  int    `json:"maxlevel" yaml:"maxlevel"`
	SlugStyle string `json:"slug" yaml:"slug"`
	Anchors   bool   `json:"anchors" yaml:"anchors"`
}

// DefaultOptions returns the options of a bare start directive.
func DefaultOptions() Options {
	return Options{
		MinLevel:  1,
		MaxLevel:  6,
		SlugStyle: string(slug.GitHub),
		Anchors:   true,
	}
}

// ParseOptions reads directive arguments. Unknown or malformed arguments are
// ignored and the default is kept. The last valid occurrence of an argument
// wins.
func ParseOptions(args []string) Options {
	opts := DefaultOptions()
	for _, arg := range args {
		switch {
		case strings.HasPrefix(arg, "--maxlevel="):
			if n, err := strconv.Atoi(strings.TrimPrefix(arg, "--maxlevel=")); err == nil {
				opts.MaxLevel = n
			}
		case strings.HasPrefix(arg, "--minlevel="):
			if n, err := strconv.Atoi(strings.TrimPrefix(arg, "--minlevel=")); err == nil {
				opts.MinLevel = n
			}
		case strings.HasPrefix(arg, "--slug="):
			if style := strings.TrimPrefix(arg, "--slug="); slug.Known(style) {
				opts.SlugStyle = style
			}
		case arg == "--no-anchors":
			opts.Anchors = false
		}
	}
	return opts
}

// String serializes the options in canonical order. Splitting the result on
// whitespace and passing it to ParseOptions yields equal options.
func (o Options) String() string {
	s := "--slug=" + o.SlugStyle
	if !o.Anchors {
		s += " --no-anchors"
	}
	return s + fmt.Sprintf(" --maxlevel=%d --minlevel=%d", o.MaxLevel, o.MinLevel)
}

// InWindow reports whether a heading level lies in [MinLevel, MaxLevel].
func (o Options) InWindow(level int) bool {
	return o.MinLevel <= level && level <= o.MaxLevel
}
