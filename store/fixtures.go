package store

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"fandango/domain"

	"gopkg.in/yaml.v3"
)

// Fixtures is the YAML layout accepted by LoadFixtures.
//
//	pegosteadores:
//	  - username: alice
//	    password: correct-horse
//	    pegostes:
//	      - title: First
//	        slug: first
//	        body: "# hello"
//	        publish_date: 2024-01-01T10:00:00Z
type Fixtures struct {
	Pegosteadores []FixtureUser `yaml:"pegosteadores"`
}

type FixtureUser struct {
	Username string           `yaml:"username"`
	Password string           `yaml:"password"`
	Active   *bool            `yaml:"active"`
	Groups   []string         `yaml:"groups"`
	Pegostes []FixturePegoste `yaml:"pegostes"`
}

type FixturePegoste struct {
	Title       string    `yaml:"title"`
	Slug        string    `yaml:"slug"`
	Body        string    `yaml:"body"`
	PublishDate time.Time `yaml:"publish_date"`
}

type FixtureSummary struct {
	Users           int
	Pegostes        int
	SkippedUsers    int
	SkippedPegostes int

	// SkippedUsernames lists the users that already existed.
	SkippedUsernames []string
}

// LoadFixtures reads a YAML document and inserts its users and pegostes.
// Existing usernames and (author, slug) pairs are skipped, so loading the
// same file twice is harmless.
func (s *Store) LoadFixtures(ctx context.Context, r io.Reader) (FixtureSummary, error) {
	var (
		fx  Fixtures
		sum FixtureSummary
	)

	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&fx); err != nil && !errors.Is(err, io.EOF) {
		return sum, fmt.Errorf("decode fixtures: %w", err)
	}

	for _, fu := range fx.Pegosteadores {
		if err := domain.ValidateUsername(fu.Username); err != nil {
			return sum, fmt.Errorf("fixture user %q: %w", fu.Username, err)
		}

		user, err := s.UserByUsername(ctx, fu.Username)
		switch {
		case err == nil:
			sum.SkippedUsers++
			sum.SkippedUsernames = append(sum.SkippedUsernames, user.Username)
		case errors.Is(err, domain.ErrNotFound):
			hash, err := domain.HashPassword(fu.Password)
			if err != nil {
				return sum, fmt.Errorf("fixture user %q: %w", fu.Username, err)
			}
			groups := fu.Groups
			if groups == nil {
				groups = []string{domain.AuthorsGroup}
			}
			user, err = s.CreateUser(ctx, fu.Username, hash, groups...)
			if err != nil {
				return sum, err
			}
			if fu.Active != nil && !*fu.Active {
				if err := s.SetUserActive(ctx, user.Username, false); err != nil {
					return sum, err
				}
			}
			sum.Users++
		default:
			return sum, err
		}

		for _, fp := range fu.Pegostes {
			p := domain.Pegoste{
				AuthorID:    user.ID,
				Author:      user.Username,
				Slug:        fp.Slug,
				Title:       fp.Title,
				Body:        fp.Body,
				PublishDate: fp.PublishDate,
			}
			if err := p.Validate(); err != nil {
				return sum, fmt.Errorf("fixture pegoste %q of %q: %w", fp.Title, fu.Username, err)
			}
			err := s.CreatePegoste(ctx, &p)
			switch {
			case err == nil:
				sum.Pegostes++
			case errors.Is(err, domain.ErrSlugTaken):
				sum.SkippedPegostes++
			default:
				return sum, err
			}
		}
	}
	return sum, nil
}
