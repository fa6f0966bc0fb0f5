package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"fandango/domain"

	"github.com/google/uuid"
)

const userColumns = "u.id, u.username, u.is_active, u.created_at, u.updated_at"

func scanUser(row scanner, extra ...any) (domain.User, error) {
	var u domain.User
	dest := append([]any{&u.ID, &u.Username, &u.IsActive, &u.CreatedAt, &u.UpdatedAt}, extra...)
	err := row.Scan(dest...)
	return u, err
}

// CreateUser inserts an active user and adds it to the given groups,
// creating groups that do not exist yet.
func (s *Store) CreateUser(ctx context.Context, username string, passwordHash []byte, groups ...string) (domain.User, error) {
	s.writeLock.Lock()
	defer s.writeLock.Unlock()

	now := time.Now().UTC()
	u := domain.User{
		ID:        uuid.NewString(),
		Username:  username,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.User{}, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		"INSERT INTO users (id, username, password, is_active, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)",
		u.ID, u.Username, passwordHash, u.IsActive, u.CreatedAt, u.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			err = errors.Join(domain.ErrUsernameTaken, err)
		}
		return domain.User{}, fmt.Errorf("insert user: %w", err)
	}

	for _, g := range groups {
		if _, err := tx.ExecContext(ctx, "INSERT INTO groups (name) VALUES (?) ON CONFLICT (name) DO NOTHING", g); err != nil {
			return domain.User{}, fmt.Errorf("insert group %q: %w", g, err)
		}
		_, err := tx.ExecContext(ctx,
			"INSERT OR IGNORE INTO user_groups (user_id, group_id) SELECT ?, id FROM groups WHERE name = ?",
			u.ID, g,
		)
		if err != nil {
			return domain.User{}, fmt.Errorf("add user to group %q: %w", g, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return domain.User{}, fmt.Errorf("commit transaction: %w", err)
	}
	return u, nil
}

// SetUserActive toggles whether the user is listed and may log in.
func (s *Store) SetUserActive(ctx context.Context, username string, active bool) error {
	s.writeLock.Lock()
	defer s.writeLock.Unlock()

	res, err := s.db.ExecContext(ctx,
		"UPDATE users SET is_active = ?, updated_at = ? WHERE username = ?",
		active, time.Now().UTC(), username,
	)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("user %q: %w", username, domain.ErrNotFound)
	}
	return nil
}

func (s *Store) UserByUsername(ctx context.Context, username string) (domain.User, error) {
	return s.userWhere(ctx, "u.username = ?", username)
}

func (s *Store) UserByID(ctx context.Context, id string) (domain.User, error) {
	return s.userWhere(ctx, "u.id = ?", id)
}

func (s *Store) userWhere(ctx context.Context, cond string, arg any) (domain.User, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users u WHERE "+cond, arg)
	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = errors.Join(domain.ErrNotFound, err)
		}
		return domain.User{}, fmt.Errorf("query user: %w", err)
	}
	return u, nil
}

// Credentials returns the user and its password hash. Unknown usernames
// are reported as domain.ErrInvalidCredentials.
func (s *Store) Credentials(ctx context.Context, username string) (domain.User, []byte, error) {
	var hash []byte
	row := s.db.QueryRowContext(ctx, "SELECT "+userColumns+", u.password FROM users u WHERE u.username = ?", username)
	u, err := scanUser(row, &hash)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.User{}, nil, domain.ErrInvalidCredentials
		}
		return domain.User{}, nil, fmt.Errorf("query credentials: %w", err)
	}
	return u, hash, nil
}

// ActivePegosteadores lists active members of the authors group. Both
// conditions are part of the same WHERE clause.
func (s *Store) ActivePegosteadores(ctx context.Context) ([]domain.User, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+userColumns+`
		FROM users u
		JOIN user_groups ug ON ug.user_id = u.id
		JOIN groups g ON g.id = ug.group_id
		WHERE u.is_active = 1 AND g.name = ?
		ORDER BY u.username`,
		domain.AuthorsGroup,
	)
	if err != nil {
		return nil, fmt.Errorf("query pegosteadores: %w", err)
	}
	defer rows.Close()

	users := []domain.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// TopPegosteadores ranks authors by number of pegostes, most first. Ties
// are ordered by username.
func (s *Store) TopPegosteadores(ctx context.Context, limit int) ([]domain.User, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+userColumns+`, COUNT(p.id) AS pub_count
		FROM pegostes p
		JOIN users u ON u.id = p.author_id
		GROUP BY u.id
		ORDER BY pub_count DESC, u.username ASC
		LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query top pegosteadores: %w", err)
	}
	defer rows.Close()

	users := []domain.User{}
	for rows.Next() {
		var count int
		u, err := scanUser(rows, &count)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		u.PegosteCount = count
		users = append(users, u)
	}
	return users, rows.Err()
}
