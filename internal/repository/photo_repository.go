package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"lensfolio/api/internal/models"
)

type PhotoRepository struct {
	pool *pgxpool.Pool
}

func NewPhotoRepository(pool *pgxpool.Pool) *PhotoRepository {
	return &PhotoRepository{pool: pool}
}

// PhotoFilter narrows and orders photo listings. Zero values mean "no
// constraint".
type PhotoFilter struct {
	Query       string
	Category    models.PhotoCategory
	Tags        []string
	OwnerID     string
	PortfolioID string
	// VisibleOnly restricts to public, approved photos.
	VisibleOnly bool
	Moderation  models.ModerationStatus
	Sort        SortOrder
	Limit       int
	Offset      int
}

const photoColumns = `
	id, user_id, portfolio_id, title, description, storage_key, url, thumb_key, thumb_url,
	width, height, format, size_bytes, exif, tags, category, is_public,
	moderation_status, reviewed_by, reviewed_at, review_reason,
	view_count, like_count, download_count, share_count, position, palette,
	created_at, updated_at`

func scanPhoto(row pgx.Row) (models.Photo, error) {
	var (
		photo       models.Photo
		exifJSON    []byte
		paletteJSON []byte
	)
	err := row.Scan(
		&photo.ID,
		&photo.UserID,
		&photo.PortfolioID,
		&photo.Title,
		&photo.Description,
		&photo.StorageKey,
		&photo.URL,
		&photo.ThumbKey,
		&photo.ThumbURL,
		&photo.Width,
		&photo.Height,
		&photo.Format,
		&photo.SizeBytes,
		&exifJSON,
		&photo.Tags,
		&photo.Category,
		&photo.IsPublic,
		&photo.Moderation,
		&photo.ReviewedBy,
		&photo.ReviewedAt,
		&photo.ReviewReason,
		&photo.ViewCount,
		&photo.LikeCount,
		&photo.DownloadCount,
		&photo.ShareCount,
		&photo.Position,
		&paletteJSON,
		&photo.CreatedAt,
		&photo.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Photo{}, ErrPhotoNotFound
		}
		return models.Photo{}, err
	}

	if len(exifJSON) > 0 {
		var exif models.ExifMeta
		if err := json.Unmarshal(exifJSON, &exif); err != nil {
			return models.Photo{}, fmt.Errorf("decode exif: %w", err)
		}
		photo.Exif = &exif
	}
	if len(paletteJSON) > 0 {
		if err := json.Unmarshal(paletteJSON, &photo.Palette); err != nil {
			return models.Photo{}, fmt.Errorf("decode palette: %w", err)
		}
	}
	return photo, nil
}

// Create inserts the photo and bumps the owner's photo count in the same
// transaction. Position defaults to the end of the portfolio.
func (r *PhotoRepository) Create(ctx context.Context, photo models.Photo) error {
	exifJSON, paletteJSON, err := encodePhotoJSON(photo)
	if err != nil {
		return err
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	const query = `
		INSERT INTO photos (
			id, user_id, portfolio_id, title, description, storage_key, url, thumb_key, thumb_url,
			width, height, format, size_bytes, exif, tags, category, is_public,
			moderation_status, review_reason, position, palette, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9,
			$10, $11, $12, $13, $14, $15, $16, $17,
			$18, '',
			COALESCE((SELECT MAX(position) + 1 FROM photos WHERE portfolio_id = $3), 0),
			$19, NOW(), NOW()
		)
	`
	if _, err := tx.Exec(ctx, query,
		photo.ID,
		photo.UserID,
		photo.PortfolioID,
		photo.Title,
		photo.Description,
		photo.StorageKey,
		photo.URL,
		photo.ThumbKey,
		photo.ThumbURL,
		photo.Width,
		photo.Height,
		photo.Format,
		photo.SizeBytes,
		exifJSON,
		photo.Tags,
		photo.Category,
		photo.IsPublic,
		photo.Moderation,
		paletteJSON,
	); err != nil {
		return translateUnique(err)
	}

	if _, err := tx.Exec(ctx, `UPDATE users SET photo_count = photo_count + 1 WHERE id = $1`, photo.UserID); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (r *PhotoRepository) GetByID(ctx context.Context, id string) (models.Photo, error) {
	query := `SELECT` + photoColumns + ` FROM photos WHERE id = $1`
	return scanPhoto(r.pool.QueryRow(ctx, query, id))
}

func (r *PhotoRepository) Update(ctx context.Context, photo models.Photo) error {
	exifJSON, _, err := encodePhotoJSON(photo)
	if err != nil {
		return err
	}

	const query = `
		UPDATE photos
		SET title = $2,
		    description = $3,
		    tags = $4,
		    category = $5,
		    is_public = $6,
		    portfolio_id = $7,
		    position = $8,
		    exif = $9,
		    updated_at = NOW()
		WHERE id = $1
	`
	cmd, err := r.pool.Exec(ctx, query,
		photo.ID,
		photo.Title,
		photo.Description,
		photo.Tags,
		photo.Category,
		photo.IsPublic,
		photo.PortfolioID,
		photo.Position,
		exifJSON,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrPhotoNotFound
	}
	return nil
}

// Delete removes the photo and decrements the owner's photo count in one
// transaction. Object cleanup is the caller's concern.
func (r *PhotoRepository) Delete(ctx context.Context, id string) (models.Photo, error) {
	photo, err := r.GetByID(ctx, id)
	if err != nil {
		return models.Photo{}, err
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return models.Photo{}, err
	}
	defer tx.Rollback(ctx)

	cmd, err := tx.Exec(ctx, `DELETE FROM photos WHERE id = $1`, id)
	if err != nil {
		return models.Photo{}, err
	}
	if cmd.RowsAffected() == 0 {
		return models.Photo{}, ErrPhotoNotFound
	}

	if _, err := tx.Exec(ctx, `UPDATE users SET photo_count = photo_count - 1 WHERE id = $1 AND photo_count > 0`, photo.UserID); err != nil {
		return models.Photo{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return models.Photo{}, err
	}
	return photo, nil
}

func (r *PhotoRepository) List(ctx context.Context, filter PhotoFilter) ([]models.Photo, int, error) {
	where, args := buildPhotoWhere(filter)

	var total int
	countQuery := `SELECT COUNT(*) FROM photos` + where
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	query := `SELECT` + photoColumns + ` FROM photos` + where + orderClause(filter.Sort) +
		fmt.Sprintf(` LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
	args = append(args, limit, filter.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var photos []models.Photo
	for rows.Next() {
		photo, err := scanPhoto(rows)
		if err != nil {
			return nil, 0, err
		}
		photos = append(photos, photo)
	}
	return photos, total, rows.Err()
}

func buildPhotoWhere(filter PhotoFilter) (string, []any) {
	var (
		clauses []string
		args    []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.VisibleOnly {
		clauses = append(clauses, `is_public AND moderation_status = 'approved'`)
	}
	if filter.Moderation != "" {
		clauses = append(clauses, `moderation_status = `+arg(filter.Moderation))
	}
	if filter.OwnerID != "" {
		clauses = append(clauses, `user_id = `+arg(filter.OwnerID))
	}
	if filter.PortfolioID != "" {
		clauses = append(clauses, `portfolio_id = `+arg(filter.PortfolioID))
	}
	if filter.Category != "" {
		clauses = append(clauses, `category = `+arg(filter.Category))
	}
	if len(filter.Tags) > 0 {
		clauses = append(clauses, `tags && `+arg(filter.Tags))
	}
	if filter.Query != "" {
		pattern := "%" + filter.Query + "%"
		p := arg(pattern)
		clauses = append(clauses, fmt.Sprintf(
			`(title ILIKE %s OR description ILIKE %s OR EXISTS (SELECT 1 FROM unnest(tags) t WHERE t ILIKE %s))`,
			p, p, p))
	}

	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func orderClause(sort SortOrder) string {
	switch sort {
	case SortOldest:
		return ` ORDER BY created_at ASC`
	case SortPopular:
		return ` ORDER BY view_count DESC, created_at DESC`
	case SortTrending:
		// photos from the last week ranked by views; older ones sink
		return ` ORDER BY (created_at > now() - interval '7 days') DESC, view_count DESC, created_at DESC`
	default:
		return ` ORDER BY created_at DESC`
	}
}

type CounterColumn string

const (
	CounterViews     CounterColumn = "view_count"
	CounterLikes     CounterColumn = "like_count"
	CounterDownloads CounterColumn = "download_count"
	CounterShares    CounterColumn = "share_count"
)

func (r *PhotoRepository) IncrementCounter(ctx context.Context, id string, column CounterColumn) error {
	query := fmt.Sprintf(`UPDATE photos SET %s = %s + 1 WHERE id = $1`, column, column)
	cmd, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrPhotoNotFound
	}
	return nil
}

func (r *PhotoRepository) Moderate(ctx context.Context, id string, status models.ModerationStatus, reviewerID string, reason string) error {
	const query = `
		UPDATE photos
		SET moderation_status = $2,
		    reviewed_by = $3,
		    reviewed_at = NOW(),
		    review_reason = $4,
		    updated_at = NOW()
		WHERE id = $1
	`
	cmd, err := r.pool.Exec(ctx, query, id, status, reviewerID, reason)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrPhotoNotFound
	}
	return nil
}

func (r *PhotoRepository) CountByUser(ctx context.Context, userID string) (int, error) {
	const query = `SELECT COUNT(*) FROM photos WHERE user_id = $1`
	var count int
	if err := r.pool.QueryRow(ctx, query, userID).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *PhotoRepository) CountByStatus(ctx context.Context) (map[models.ModerationStatus]int, error) {
	const query = `SELECT moderation_status, COUNT(*) FROM photos GROUP BY moderation_status`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[models.ModerationStatus]int)
	for rows.Next() {
		var status models.ModerationStatus
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		counts[status] = count
	}
	return counts, rows.Err()
}

// StaleRejectedKeys returns storage keys of photos rejected more than
// retentionDays ago, for the scheduled object sweep.
func (r *PhotoRepository) StaleRejectedKeys(ctx context.Context, retentionDays int) (map[string][]string, error) {
	const query = `
		SELECT id, storage_key, thumb_key
		FROM photos
		WHERE moderation_status = 'rejected'
		  AND reviewed_at < NOW() - ($1 || ' days')::interval
	`
	rows, err := r.pool.Query(ctx, query, retentionDays)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	keys := make(map[string][]string)
	for rows.Next() {
		var id, storageKey, thumbKey string
		if err := rows.Scan(&id, &storageKey, &thumbKey); err != nil {
			return nil, err
		}
		keys[id] = []string{storageKey, thumbKey}
	}
	return keys, rows.Err()
}

// DeleteByIDs removes rows after their objects were swept, adjusting owner
// counts.
func (r *PhotoRepository) DeleteByIDs(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	const query = `
		WITH removed AS (
			DELETE FROM photos WHERE id = ANY($1) RETURNING user_id
		)
		UPDATE users u
		SET photo_count = photo_count - r.n
		FROM (SELECT user_id, COUNT(*) AS n FROM removed GROUP BY user_id) r
		WHERE u.id = r.user_id
	`
	if _, err := tx.Exec(ctx, query, ids); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func encodePhotoJSON(photo models.Photo) ([]byte, []byte, error) {
	var exifJSON []byte
	if photo.Exif != nil {
		b, err := json.Marshal(photo.Exif)
		if err != nil {
			return nil, nil, fmt.Errorf("encode exif: %w", err)
		}
		exifJSON = b
	}

	var paletteJSON []byte
	if len(photo.Palette) > 0 {
		b, err := json.Marshal(photo.Palette)
		if err != nil {
			return nil, nil, fmt.Errorf("encode palette: %w", err)
		}
		paletteJSON = b
	}
	return exifJSON, paletteJSON, nil
}
