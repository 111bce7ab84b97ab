package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"lensfolio/api/internal/models"
)

type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

const userColumns = `
	id, username, email, password_hash, display_name, bio, avatar_url, avatar_key,
	role, plan, status, photo_count, view_count, like_count, last_login_at,
	created_at, updated_at`

const userColumnsPrefixed = `
	u.id, u.username, u.email, u.password_hash, u.display_name, u.bio, u.avatar_url, u.avatar_key,
	u.role, u.plan, u.status, u.photo_count, u.view_count, u.like_count, u.last_login_at,
	u.created_at, u.updated_at`

func scanUser(row pgx.Row) (models.User, error) {
	var user models.User
	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.PasswordHash,
		&user.DisplayName,
		&user.Bio,
		&user.AvatarURL,
		&user.AvatarKey,
		&user.Role,
		&user.Plan,
		&user.Status,
		&user.PhotoCount,
		&user.ViewCount,
		&user.LikeCount,
		&user.LastLoginAt,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, ErrUserNotFound
		}
		return models.User{}, err
	}
	return user, nil
}

func (r *UserRepository) Create(ctx context.Context, user models.User) error {
	const query = `
		INSERT INTO users (
			id, username, email, password_hash, display_name, bio, role, plan, status,
			created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(), NOW()
		)
	`
	_, err := r.pool.Exec(ctx, query,
		user.ID,
		user.Username,
		user.Email,
		user.PasswordHash,
		user.DisplayName,
		user.Bio,
		user.Role,
		user.Plan,
		user.Status,
	)
	return translateUnique(err)
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (models.User, error) {
	query := `SELECT` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(r.pool.QueryRow(ctx, query, id))
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (models.User, error) {
	query := `SELECT` + userColumns + ` FROM users WHERE email = $1`
	return scanUser(r.pool.QueryRow(ctx, query, email))
}

func (r *UserRepository) FindByUsername(ctx context.Context, username string) (models.User, error) {
	query := `SELECT` + userColumns + ` FROM users WHERE username = $1`
	return scanUser(r.pool.QueryRow(ctx, query, username))
}

func (r *UserRepository) UpdateProfile(ctx context.Context, user models.User) error {
	const query = `
		UPDATE users
		SET display_name = $2,
		    bio = $3,
		    email = $4,
		    avatar_url = $5,
		    avatar_key = $6,
		    updated_at = NOW()
		WHERE id = $1
	`
	cmd, err := r.pool.Exec(ctx, query,
		user.ID,
		user.DisplayName,
		user.Bio,
		user.Email,
		user.AvatarURL,
		user.AvatarKey,
	)
	if err != nil {
		return translateUnique(err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) TouchLastLogin(ctx context.Context, id string) error {
	const query = `UPDATE users SET last_login_at = NOW() WHERE id = $1`
	_, err := r.pool.Exec(ctx, query, id)
	return err
}

func (r *UserRepository) UpdateRole(ctx context.Context, id string, role models.UserRole) error {
	const query = `UPDATE users SET role = $2, updated_at = NOW() WHERE id = $1`
	cmd, err := r.pool.Exec(ctx, query, id, role)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) UpdateStatus(ctx context.Context, id string, status models.UserStatus) error {
	const query = `UPDATE users SET status = $2, updated_at = NOW() WHERE id = $1`
	cmd, err := r.pool.Exec(ctx, query, id, status)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) UpdatePlan(ctx context.Context, id string, plan models.UserPlan) error {
	const query = `UPDATE users SET plan = $2, updated_at = NOW() WHERE id = $1`
	cmd, err := r.pool.Exec(ctx, query, id, plan)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) CountSuperAdmins(ctx context.Context) (int, error) {
	const query = `SELECT COUNT(*) FROM users WHERE role = 'super_admin'`
	var count int
	if err := r.pool.QueryRow(ctx, query).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

// Delete removes the user and everything the user owns in one transaction:
// photos, portfolios, follows in both directions, and sessions. Stored
// objects are the caller's responsibility.
func (r *UserRepository) Delete(ctx context.Context, id string) ([]string, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	rows, err := tx.Query(ctx, `SELECT storage_key, thumb_key FROM photos WHERE user_id = $1`, id)
	if err != nil {
		return nil, err
	}
	var keys []string
	for rows.Next() {
		var storageKey, thumbKey string
		if err := rows.Scan(&storageKey, &thumbKey); err != nil {
			rows.Close()
			return nil, err
		}
		keys = append(keys, storageKey, thumbKey)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, stmt := range []string{
		`DELETE FROM photos WHERE user_id = $1`,
		`DELETE FROM portfolios WHERE user_id = $1`,
		`DELETE FROM follows WHERE follower_id = $1 OR followee_id = $1`,
		`DELETE FROM user_sessions WHERE user_id = $1`,
	} {
		if _, err := tx.Exec(ctx, stmt, id); err != nil {
			return nil, err
		}
	}

	cmd, err := tx.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return nil, err
	}
	if cmd.RowsAffected() == 0 {
		return nil, ErrUserNotFound
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return keys, nil
}

func (r *UserRepository) Search(ctx context.Context, query string, limit, offset int) ([]models.User, int, error) {
	pattern := "%" + query + "%"

	var total int
	const countQuery = `
		SELECT COUNT(*) FROM users
		WHERE status = 'active' AND (username ILIKE $1 OR display_name ILIKE $1)
	`
	if err := r.pool.QueryRow(ctx, countQuery, pattern).Scan(&total); err != nil {
		return nil, 0, err
	}

	listQuery := `SELECT` + userColumns + `
		FROM users
		WHERE status = 'active' AND (username ILIKE $1 OR display_name ILIKE $1)
		ORDER BY photo_count DESC, username ASC
		LIMIT $2 OFFSET $3`
	rows, err := r.pool.Query(ctx, listQuery, pattern, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, 0, err
		}
		users = append(users, user)
	}
	return users, total, rows.Err()
}

func (r *UserRepository) List(ctx context.Context, limit, offset int) ([]models.User, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT` + userColumns + ` FROM users ORDER BY created_at DESC LIMIT $1 OFFSET $2`
	rows, err := r.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, 0, err
		}
		users = append(users, user)
	}
	return users, total, rows.Err()
}

func (r *UserRepository) Follow(ctx context.Context, followerID, followeeID string) error {
	const query = `
		INSERT INTO follows (follower_id, followee_id, created_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT DO NOTHING
	`
	_, err := r.pool.Exec(ctx, query, followerID, followeeID)
	return err
}

func (r *UserRepository) Unfollow(ctx context.Context, followerID, followeeID string) error {
	const query = `DELETE FROM follows WHERE follower_id = $1 AND followee_id = $2`
	_, err := r.pool.Exec(ctx, query, followerID, followeeID)
	return err
}

func (r *UserRepository) ListFollowers(ctx context.Context, userID string, limit, offset int) ([]models.User, int, error) {
	return r.listEdge(ctx, userID, "follower_id", "followee_id", limit, offset)
}

func (r *UserRepository) ListFollowing(ctx context.Context, userID string, limit, offset int) ([]models.User, int, error) {
	return r.listEdge(ctx, userID, "followee_id", "follower_id", limit, offset)
}

func (r *UserRepository) listEdge(ctx context.Context, userID, selectCol, whereCol string, limit, offset int) ([]models.User, int, error) {
	var total int
	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM follows WHERE %s = $1`, whereCol)
	if err := r.pool.QueryRow(ctx, countQuery, userID).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT` + userColumnsPrefixed + fmt.Sprintf(`
		FROM users u
		JOIN follows f ON f.%s = u.id
		WHERE f.%s = $1
		ORDER BY f.created_at DESC
		LIMIT $2 OFFSET $3`, selectCol, whereCol)
	rows, err := r.pool.Query(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, 0, err
		}
		users = append(users, user)
	}
	return users, total, rows.Err()
}

// RecomputeStats rebuilds every user's aggregate counters from ground truth.
// Idempotent; run periodically instead of mutating counters from hooks.
func (r *UserRepository) RecomputeStats(ctx context.Context) error {
	const query = `
		UPDATE users u
		SET photo_count = COALESCE(p.photos, 0),
		    view_count = COALESCE(p.views, 0),
		    like_count = COALESCE(p.likes, 0)
		FROM (
			SELECT user_id,
			       COUNT(*) AS photos,
			       SUM(view_count) AS views,
			       SUM(like_count) AS likes
			FROM photos
			GROUP BY user_id
		) p
		WHERE u.id = p.user_id
	`
	_, err := r.pool.Exec(ctx, query)
	return err
}
