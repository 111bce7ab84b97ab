package repository

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrSessionNotFound   = errors.New("session not found")
	ErrPortfolioNotFound = errors.New("portfolio not found")
	ErrPhotoNotFound     = errors.New("photo not found")
	ErrDuplicate         = errors.New("duplicate value")
)

const pgUniqueViolation = "23505"

// translateUnique folds Postgres unique-violation errors into ErrDuplicate
// so services can surface conflicts without knowing pg error codes.
func translateUnique(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return ErrDuplicate
	}
	return err
}

type SortOrder string

const (
	SortNewest   SortOrder = "newest"
	SortOldest   SortOrder = "oldest"
	SortPopular  SortOrder = "popular"
	SortTrending SortOrder = "trending"
)
