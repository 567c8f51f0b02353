package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/skillswap/backend/internal/db"
	"github.com/skillswap/backend/internal/models"
)

// PostgresDirectory provides read-only lookups against the user, profile, and
// skill tables maintained elsewhere in the platform. User identifiers are
// normalized to strings at this boundary so the lifecycle logic never compares
// mixed representations.
type PostgresDirectory struct {
	pool db.Pool
}

// NewPostgresDirectory constructs a directory backed by PostgreSQL.
func NewPostgresDirectory(pool db.Pool) *PostgresDirectory {
	return &PostgresDirectory{pool: pool}
}

// FindUser fetches a user's identity and display name.
func (d *PostgresDirectory) FindUser(ctx context.Context, id string) (models.User, error) {
	conn, err := d.pool.Acquire(ctx)
	if err != nil {
		return models.User{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `
        SELECT id, display_name
        FROM users
        WHERE id = $1
    `, id)

	var user models.User
	if err := row.Scan(&user.ID, &user.DisplayName); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, ErrNotFound
		}
		return models.User{}, fmt.Errorf("select user: %w", err)
	}

	return user, nil
}

// FindProfile fetches the display profile for a user.
func (d *PostgresDirectory) FindProfile(ctx context.Context, userID string) (models.Profile, error) {
	conn, err := d.pool.Acquire(ctx)
	if err != nil {
		return models.Profile{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `
        SELECT user_id, avatar_ref
        FROM profiles
        WHERE user_id = $1
    `, userID)

	var profile models.Profile
	if err := row.Scan(&profile.UserID, &profile.AvatarRef); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Profile{}, ErrNotFound
		}
		return models.Profile{}, fmt.Errorf("select profile: %w", err)
	}

	return profile, nil
}

// ListSkills returns the skills a user has listed, in insertion order. A user
// with no skills yields an empty slice.
func (d *PostgresDirectory) ListSkills(ctx context.Context, userID string) ([]models.Skill, error) {
	conn, err := d.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT name
        FROM user_skills
        WHERE user_id = $1
        ORDER BY position
    `, userID)
	if err != nil {
		return nil, fmt.Errorf("query user skills: %w", err)
	}
	defer rows.Close()

	var skills []models.Skill
	for rows.Next() {
		var skill models.Skill
		if err := rows.Scan(&skill.Name); err != nil {
			return nil, fmt.Errorf("scan user skill: %w", err)
		}
		skills = append(skills, skill)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate user skills: %w", err)
	}

	return skills, nil
}
