package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/growthcompass/server/internal/domain/users"
	"github.com/jackc/pgx/v5"
)

func (r *UserRepository) Create(ctx context.Context, user users.User) (users.User, error) {
	query := `
		INSERT INTO users (name, email, password_hash, role)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`

	err := r.pool.QueryRow(ctx, query,
		user.Name, user.Email, user.PasswordHash, user.Role,
	).Scan(&user.ID, &user.CreatedAt)
	if err != nil {
		if uniqueViolation(err, "users_email_key") {
			return users.User{}, users.ErrEmailTaken
		}
		return users.User{}, fmt.Errorf("insert user: %w", err)
	}
	return user, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*users.User, error) {
	query := `
		SELECT id, name, email, password_hash, role, created_at
		FROM users
		WHERE id = $1`

	return r.scanUser(r.pool.QueryRow(ctx, query, id))
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*users.User, error) {
	query := `
		SELECT id, name, email, password_hash, role, created_at
		FROM users
		WHERE email = $1`

	return r.scanUser(r.pool.QueryRow(ctx, query, email))
}

func (r *UserRepository) scanUser(row pgx.Row) (*users.User, error) {
	var user users.User
	err := row.Scan(&user.ID, &user.Name, &user.Email, &user.PasswordHash, &user.Role, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, users.ErrNotFound
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}
	return &user, nil
}

// ListWithSelections returns the users-to-selections left join ordered by
// registration, one row per (user, viewpoint) and a single row with null
// selection columns for users without any.
func (r *UserRepository) ListWithSelections(ctx context.Context) ([]users.MemberRow, error) {
	query := `
		SELECT u.id, u.name, u.email, u.password_hash, u.role, u.created_at,
		       s.viewpoint, s.step, s.memo
		FROM users u
		LEFT JOIN selections s ON s.user_id = u.id
		ORDER BY u.created_at, u.id, s.viewpoint`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list users with selections: %w", err)
	}
	defer rows.Close()

	var result []users.MemberRow
	for rows.Next() {
		var row users.MemberRow
		err := rows.Scan(
			&row.User.ID, &row.User.Name, &row.User.Email, &row.User.PasswordHash,
			&row.User.Role, &row.User.CreatedAt,
			&row.Viewpoint, &row.Step, &row.Memo,
		)
		if err != nil {
			return nil, fmt.Errorf("scan member row: %w", err)
		}
		result = append(result, row)
	}
	return result, rows.Err()
}

func (r *UserRepository) UpdateRole(ctx context.Context, id, role string) error {
	tag, err := r.pool.Exec(ctx, `UPDATE users SET role = $2 WHERE id = $1`, id, role)
	if err != nil {
		return fmt.Errorf("update role: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return users.ErrNotFound
	}
	return nil
}

func (r *UserRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return users.ErrNotFound
	}
	return nil
}
