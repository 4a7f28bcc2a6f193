package slug

import "testing"

func TestGitHubSlug(t *testing.T) {
	tests := []struct {
		name       string
		title      string
		repetition int
		want       string
	}{
		{"lowercases and hyphenates", "Same name", 0, "same-name"},
		{"repetition suffix", "Same name", 2, "same-name-2"},
		{"strips punctuation", "What's new? (v2.0)", 0, "whats-new-v20"},
		{"keeps inline code text", "`foo` bar", 0, "foo-bar"},
		{"removes hex escapes", "100%25 done", 0, "100-done"},
		{"trims surrounding space", "  padded  ", 0, "padded"},
		{"percent-encodes non-ascii", "Ünïcode", 0, "%C3%BCn%C3%AFcode"},
		{"keeps underscores, drops tildes", "a_b~c", 0, "a_bc"},
		{"empty", "", 0, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := GitHubSlug(tt.title, tt.repetition)
			if got != tt.want {
				t.Errorf("GitHubSlug(%q, %d) = %q, want %q", tt.title, tt.repetition, got, tt.want)
			}
		})
	}
}

func TestGitLabSlug(t *testing.T) {
	tests := []struct {
		name  string
		title string
		want  string
	}{
		{"lowercases and hyphenates", "Same name", "same-name"},
		{"drops punctuation", "What's new? (v2.0)", "whats-new-v20"},
		{"collapses hyphen runs", "a - b", "a-b"},
		{"keeps cjk", "中文 标题", "%E4%B8%AD%E6%96%87-%E6%A0%87%E9%A2%98"},
		{"keeps underscores", "snake_case", "snake_case"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := GitLabSlug(tt.title, 0)
			if got != tt.want {
				t.Errorf("GitLabSlug(%q) = %q, want %q", tt.title, got, tt.want)
			}
		})
	}
}

func TestUnique(t *testing.T) {
	t.Run("counts identical titles", func(t *testing.T) {
		next := Unique(GitHubSlug)
		want := []string{"same-name", "same-name-1", "same-name-2", "same-name-3"}
		for i, w := range want {
			if got := next("Same name"); got != w {
				t.Errorf("call %d: got %q, want %q", i, got, w)
			}
		}
	})

	t.Run("different titles with same slug are not deduplicated", func(t *testing.T) {
		next := Unique(GitHubSlug)
		a := next("Hello!")
		b := next("Hello")
		if a != "hello" || b != "hello" {
			t.Errorf("got %q and %q, want both hello", a, b)
		}
	})

	t.Run("independent counters", func(t *testing.T) {
		first := Unique(GitHubSlug)
		second := Unique(GitHubSlug)
		first("x")
		if got := second("x"); got != "x" {
			t.Errorf("second counter leaked state: got %q", got)
		}
	})
}

func TestLookup(t *testing.T) {
	if _, ok := Lookup("github"); !ok {
		t.Error("expected github style")
	}
	if _, ok := Lookup("gitlab"); !ok {
		t.Error("expected gitlab style")
	}
	if Known("bitbucket") {
		t.Error("bitbucket should not be a known style")
	}
}
