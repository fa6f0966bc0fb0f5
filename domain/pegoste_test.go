package domain

import (
	"errors"
	"strings"
	"testing"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Hello World", "hello-world"},
		{"  ¡Qué pegoste más bonito!  ", "que-pegoste-mas-bonito"},
		{"already-a-slug", "already-a-slug"},
		{"under_score stays", "under_score-stays"},
		{"many   spaces -- and---hyphens", "many-spaces-and-hyphens"},
		{"Ñandú", "nandu"},
		{"日本語", ""},
		{"", ""},
	}
	for _, tt := range tests {
		if got := Slugify(tt.in); got != tt.want {
			t.Errorf("Slugify(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSlugifyTruncates(t *testing.T) {
	got := Slugify(strings.Repeat("abc ", 40))
	if len(got) > MaxSlugLength {
		t.Fatalf("len = %d, want <= %d", len(got), MaxSlugLength)
	}
	if strings.HasSuffix(got, "-") {
		t.Errorf("slug %q ends with a hyphen", got)
	}
}

func TestPegosteValidate(t *testing.T) {
	p := Pegoste{Title: " First Post ", Body: "hi"}
	if err := p.Validate(); err != nil {
		t.Fatalf("Validate() = %v", err)
	}
	if p.Slug != "first-post" {
		t.Errorf("Slug = %q, want first-post", p.Slug)
	}
	if p.Title != "First Post" {
		t.Errorf("Title = %q, want trimmed", p.Title)
	}

	bad := Pegoste{Title: "", Slug: "no spaces allowed", Body: " "}
	err := bad.Validate()
	var verrs ValidationErrors
	if !errors.As(err, &verrs) {
		t.Fatalf("Validate() = %v, want ValidationErrors", err)
	}
	for _, field := range []string{"title", "slug", "body"} {
		if verrs[field] == "" {
			t.Errorf("missing error for %s", field)
		}
	}
}

func TestPegosteURL(t *testing.T) {
	p := Pegoste{ID: 42, Author: "alice", Slug: "first"}
	if got := p.URL(); got != "/alice/pegoste/first" {
		t.Errorf("URL() = %q", got)
	}
	if strings.Contains(p.URL(), "42") {
		t.Errorf("URL() %q exposes the numeric id", p.URL())
	}
	if got := p.EditURL(); got != "/alice/pegoste/first/edit" {
		t.Errorf("EditURL() = %q", got)
	}
	if got := AuthorURL("a b"); got != "/a%20b" {
		t.Errorf("AuthorURL() = %q", got)
	}
}
