package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"lensfolio/api/internal/models"
)

type PortfolioRepository struct {
	pool *pgxpool.Pool
}

func NewPortfolioRepository(pool *pgxpool.Pool) *PortfolioRepository {
	return &PortfolioRepository{pool: pool}
}

const portfolioColumns = `
	id, user_id, title, slug, description, is_public, is_default, layout, theme,
	seo_title, seo_description, cover_photo_id, view_count, unique_views,
	created_at, updated_at`

func scanPortfolio(row pgx.Row) (models.Portfolio, error) {
	var p models.Portfolio
	err := row.Scan(
		&p.ID,
		&p.UserID,
		&p.Title,
		&p.Slug,
		&p.Description,
		&p.IsPublic,
		&p.IsDefault,
		&p.Layout,
		&p.Theme,
		&p.SEOTitle,
		&p.SEODescription,
		&p.CoverPhotoID,
		&p.ViewCount,
		&p.UniqueViews,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Portfolio{}, ErrPortfolioNotFound
		}
		return models.Portfolio{}, err
	}
	return p, nil
}

func (r *PortfolioRepository) Create(ctx context.Context, p models.Portfolio) error {
	const query = `
		INSERT INTO portfolios (
			id, user_id, title, slug, description, is_public, is_default, layout, theme,
			seo_title, seo_description, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NOW(), NOW()
		)
	`
	_, err := r.pool.Exec(ctx, query,
		p.ID,
		p.UserID,
		p.Title,
		p.Slug,
		p.Description,
		p.IsPublic,
		p.IsDefault,
		p.Layout,
		p.Theme,
		p.SEOTitle,
		p.SEODescription,
	)
	return translateUnique(err)
}

func (r *PortfolioRepository) GetByID(ctx context.Context, id string) (models.Portfolio, error) {
	query := `SELECT` + portfolioColumns + ` FROM portfolios WHERE id = $1`
	return scanPortfolio(r.pool.QueryRow(ctx, query, id))
}

func (r *PortfolioRepository) GetBySlug(ctx context.Context, slug string) (models.Portfolio, error) {
	query := `SELECT` + portfolioColumns + ` FROM portfolios WHERE slug = $1`
	return scanPortfolio(r.pool.QueryRow(ctx, query, slug))
}

func (r *PortfolioRepository) SlugExists(ctx context.Context, slug string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM portfolios WHERE slug = $1)`
	var exists bool
	if err := r.pool.QueryRow(ctx, query, slug).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func (r *PortfolioRepository) ListByUser(ctx context.Context, userID string, includePrivate bool) ([]models.Portfolio, error) {
	query := `SELECT` + portfolioColumns + ` FROM portfolios WHERE user_id = $1`
	if !includePrivate {
		query += ` AND is_public`
	}
	query += ` ORDER BY is_default DESC, created_at ASC`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var portfolios []models.Portfolio
	for rows.Next() {
		p, err := scanPortfolio(rows)
		if err != nil {
			return nil, err
		}
		portfolios = append(portfolios, p)
	}
	return portfolios, rows.Err()
}

func (r *PortfolioRepository) ListPublic(ctx context.Context, limit, offset int) ([]models.Portfolio, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM portfolios WHERE is_public`).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT` + portfolioColumns + `
		FROM portfolios
		WHERE is_public
		ORDER BY view_count DESC, created_at DESC
		LIMIT $1 OFFSET $2`
	rows, err := r.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var portfolios []models.Portfolio
	for rows.Next() {
		p, err := scanPortfolio(rows)
		if err != nil {
			return nil, 0, err
		}
		portfolios = append(portfolios, p)
	}
	return portfolios, total, rows.Err()
}

func (r *PortfolioRepository) Update(ctx context.Context, p models.Portfolio) error {
	const query = `
		UPDATE portfolios
		SET title = $2,
		    slug = $3,
		    description = $4,
		    is_public = $5,
		    layout = $6,
		    theme = $7,
		    seo_title = $8,
		    seo_description = $9,
		    cover_photo_id = $10,
		    updated_at = NOW()
		WHERE id = $1
	`
	cmd, err := r.pool.Exec(ctx, query,
		p.ID,
		p.Title,
		p.Slug,
		p.Description,
		p.IsPublic,
		p.Layout,
		p.Theme,
		p.SEOTitle,
		p.SEODescription,
		p.CoverPhotoID,
	)
	if err != nil {
		return translateUnique(err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrPortfolioNotFound
	}
	return nil
}

// SetDefault flips the default flag across all of a user's portfolios in one
// statement, so concurrent calls cannot leave two defaults standing.
func (r *PortfolioRepository) SetDefault(ctx context.Context, userID, portfolioID string) error {
	const query = `
		UPDATE portfolios
		SET is_default = (id = $2),
		    updated_at = CASE WHEN is_default != (id = $2) THEN NOW() ELSE updated_at END
		WHERE user_id = $1
	`
	cmd, err := r.pool.Exec(ctx, query, userID, portfolioID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrPortfolioNotFound
	}
	return nil
}

// Delete removes the portfolio and its photos transactionally, adjusting the
// owner's photo count. Returns storage keys of the removed photos for
// best-effort object cleanup.
func (r *PortfolioRepository) Delete(ctx context.Context, id string) ([]string, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	rows, err := tx.Query(ctx, `SELECT storage_key, thumb_key FROM photos WHERE portfolio_id = $1`, id)
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

	cmd, err := tx.Exec(ctx, `DELETE FROM photos WHERE portfolio_id = $1`, id)
	if err != nil {
		return nil, err
	}
	removed := cmd.RowsAffected()

	var userID string
	err = tx.QueryRow(ctx, `DELETE FROM portfolios WHERE id = $1 RETURNING user_id`, id).Scan(&userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPortfolioNotFound
		}
		return nil, err
	}

	if removed > 0 {
		if _, err := tx.Exec(ctx, `UPDATE users SET photo_count = photo_count - $2 WHERE id = $1`, userID, removed); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return keys, nil
}

// RecordView bumps the total counter, and the unique counter when the
// caller established this visitor is new.
func (r *PortfolioRepository) RecordView(ctx context.Context, id string, unique bool) error {
	query := `UPDATE portfolios SET view_count = view_count + 1 WHERE id = $1`
	if unique {
		query = `UPDATE portfolios SET view_count = view_count + 1, unique_views = unique_views + 1 WHERE id = $1`
	}
	_, err := r.pool.Exec(ctx, query, id)
	return err
}
