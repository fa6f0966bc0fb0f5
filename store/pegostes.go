package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"fandango/domain"
)

const pegosteSelect = `
	SELECT p.id, p.author_id, u.username, p.slug, p.title, p.body, p.publish_date, p.created_at, p.updated_at
	FROM pegostes p
	JOIN users u ON u.id = p.author_id`

const newestFirst = " ORDER BY p.publish_date DESC, p.id DESC"

func scanPegoste(row scanner) (domain.Pegoste, error) {
	var p domain.Pegoste
	err := row.Scan(&p.ID, &p.AuthorID, &p.Author, &p.Slug, &p.Title, &p.Body, &p.PublishDate, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

func (s *Store) queryPegostes(ctx context.Context, query string, args ...any) ([]domain.Pegoste, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query pegostes: %w", err)
	}
	defer rows.Close()

	pegostes := []domain.Pegoste{}
	for rows.Next() {
		p, err := scanPegoste(rows)
		if err != nil {
			return nil, fmt.Errorf("scan pegoste: %w", err)
		}
		pegostes = append(pegostes, p)
	}
	return pegostes, rows.Err()
}

func (s *Store) queryPegoste(ctx context.Context, query string, args ...any) (domain.Pegoste, error) {
	p, err := scanPegoste(s.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = errors.Join(domain.ErrNotFound, err)
		}
		return domain.Pegoste{}, fmt.Errorf("query pegoste: %w", err)
	}
	return p, nil
}

// LastPegosteados returns the most recently published pegostes of all authors.
func (s *Store) LastPegosteados(ctx context.Context, limit int) ([]domain.Pegoste, error) {
	return s.queryPegostes(ctx, pegosteSelect+newestFirst+" LIMIT ?", limit)
}

// PegostesByAuthor returns every pegoste of username in insertion order.
// An unknown username gives an empty list.
func (s *Store) PegostesByAuthor(ctx context.Context, username string) ([]domain.Pegoste, error) {
	return s.queryPegostes(ctx, pegosteSelect+" WHERE u.username = ? ORDER BY p.id", username)
}

// RecentPegostes returns the most recently published pegostes of username.
func (s *Store) RecentPegostes(ctx context.Context, username string, limit int) ([]domain.Pegoste, error) {
	return s.queryPegostes(ctx, pegosteSelect+" WHERE u.username = ?"+newestFirst+" LIMIT ?", username, limit)
}

// PegosteBySlug looks the slug up among the pegostes of username only.
func (s *Store) PegosteBySlug(ctx context.Context, username, slug string) (domain.Pegoste, error) {
	return s.queryPegoste(ctx, pegosteSelect+" WHERE u.username = ? AND p.slug = ?", username, slug)
}

// LatestPegoste returns the pegoste of username with the newest publish
// date. ok is false when the author has none.
func (s *Store) LatestPegoste(ctx context.Context, username string) (p domain.Pegoste, ok bool, err error) {
	p, err = s.queryPegoste(ctx, pegosteSelect+" WHERE u.username = ?"+newestFirst+" LIMIT 1", username)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Pegoste{}, false, nil
		}
		return domain.Pegoste{}, false, err
	}
	return p, true, nil
}

func (s *Store) PegosteByID(ctx context.Context, id int64) (domain.Pegoste, error) {
	return s.queryPegoste(ctx, pegosteSelect+" WHERE p.id = ?", id)
}

// CreatePegoste inserts p and fills in its ID and timestamps. A zero
// PublishDate means now.
func (s *Store) CreatePegoste(ctx context.Context, p *domain.Pegoste) error {
	s.writeLock.Lock()
	defer s.writeLock.Unlock()

	now := time.Now().UTC()
	if p.PublishDate.IsZero() {
		p.PublishDate = now
	}
	p.PublishDate = p.PublishDate.UTC()
	p.CreatedAt = now
	p.UpdatedAt = now

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO pegostes (author_id, slug, title, body, publish_date, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		p.AuthorID, p.Slug, p.Title, p.Body, p.PublishDate, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			err = errors.Join(domain.ErrSlugTaken, err)
		}
		return fmt.Errorf("insert pegoste: %w", err)
	}

	p.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("insert pegoste: %w", err)
	}
	return nil
}

// UpdatePegoste overwrites the editable fields of the pegoste with p.ID.
// Concurrent updates are last write wins.
func (s *Store) UpdatePegoste(ctx context.Context, p *domain.Pegoste) error {
	s.writeLock.Lock()
	defer s.writeLock.Unlock()

	if p.PublishDate.IsZero() {
		p.PublishDate = time.Now()
	}
	p.PublishDate = p.PublishDate.UTC()
	p.UpdatedAt = time.Now().UTC()

	res, err := s.db.ExecContext(ctx,
		"UPDATE pegostes SET slug = ?, title = ?, body = ?, publish_date = ?, updated_at = ? WHERE id = ?",
		p.Slug, p.Title, p.Body, p.PublishDate, p.UpdatedAt, p.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			err = errors.Join(domain.ErrSlugTaken, err)
		}
		return fmt.Errorf("update pegoste: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update pegoste: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("pegoste %d: %w", p.ID, domain.ErrNotFound)
	}
	return nil
}
