package models

import "time"

type PortfolioLayout string

const (
	PortfolioLayoutGrid     PortfolioLayout = "grid"
	PortfolioLayoutMasonry  PortfolioLayout = "masonry"
	PortfolioLayoutCarousel PortfolioLayout = "carousel"
)

type Portfolio struct {
	ID             string
	UserID         string
	Title          string
	Slug           string
	Description    string
	IsPublic       bool
	IsDefault      bool
	Layout         PortfolioLayout
	Theme          string
	SEOTitle       string
	SEODescription string
	CoverPhotoID   *string
	ViewCount      int64
	UniqueViews    int64
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
