package domain

import (
	"net/url"
	"regexp"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const (
	MaxTitleLength = 200
	MaxSlugLength  = 50
)

// Pegoste is a post. It is addressed by (Author, Slug); ID is internal.
type Pegoste struct {
	ID          int64
	AuthorID    string
	Author      string
	Slug        string
	Title       string
	Body        string
	PublishDate time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// URL is the canonical address of the pegoste.
func (p Pegoste) URL() string {
	return PegosteURL(p.Author, p.Slug)
}

func (p Pegoste) EditURL() string {
	return p.URL() + "/edit"
}

func AuthorURL(username string) string {
	return "/" + url.PathEscape(username)
}

func PegosteURL(username, slug string) string {
	return AuthorURL(username) + "/pegoste/" + url.PathEscape(slug)
}

var slugRegexp = regexp.MustCompile(`^[-a-zA-Z0-9_]+$`)

// Validate checks the user editable fields. An empty slug is filled from
// the title before validation.
func (p *Pegoste) Validate() error {
	errs := ValidationErrors{}

	p.Title = strings.TrimSpace(p.Title)
	p.Slug = strings.TrimSpace(p.Slug)

	switch {
	case p.Title == "":
		errs["title"] = "This field is required."
	case utf8.RuneCountInString(p.Title) > MaxTitleLength:
		errs["title"] = "Ensure this value has at most 200 characters."
	}

	if p.Slug == "" {
		p.Slug = Slugify(p.Title)
	}
	switch {
	case p.Slug == "":
		errs["slug"] = "This field is required."
	case len(p.Slug) > MaxSlugLength:
		errs["slug"] = "Ensure this value has at most 50 characters."
	case !slugRegexp.MatchString(p.Slug):
		errs["slug"] = "Enter a valid slug consisting of letters, numbers, underscores or hyphens."
	}

	if strings.TrimSpace(p.Body) == "" {
		errs["body"] = "This field is required."
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

var (
	slugStrip   = regexp.MustCompile(`[^\w\s-]`)
	slugHyphens = regexp.MustCompile(`[-\s]+`)
)

// Slugify turns a title into a URL slug: accents are folded to ASCII,
// anything that is not a letter, digit, underscore or hyphen is dropped
// and runs of spaces or hyphens become a single hyphen.
func Slugify(s string) string {
	// transformers keep state, so the chain is built per call
	fold := transform.Chain(
		norm.NFKD,
		runes.Remove(runes.In(unicode.Mn)),
		runes.Remove(runes.Predicate(func(r rune) bool { return r > unicode.MaxASCII })),
	)
	s, _, err := transform.String(fold, s)
	if err != nil {
		return ""
	}
	s = slugStrip.ReplaceAllString(strings.ToLower(s), "")
	s = slugHyphens.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-_")
	if len(s) > MaxSlugLength {
		s = strings.TrimRight(s[:MaxSlugLength], "-_")
	}
	return s
}
