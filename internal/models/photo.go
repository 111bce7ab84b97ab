package models

import "time"

type ModerationStatus string

const (
	ModerationPending  ModerationStatus = "pending"
	ModerationApproved ModerationStatus = "approved"
	ModerationRejected ModerationStatus = "rejected"
)

type PhotoCategory string

const (
	CategoryPortrait     PhotoCategory = "portrait"
	CategoryLandscape    PhotoCategory = "landscape"
	CategoryStreet       PhotoCategory = "street"
	CategoryWildlife     PhotoCategory = "wildlife"
	CategoryMacro        PhotoCategory = "macro"
	CategoryArchitecture PhotoCategory = "architecture"
	CategoryTravel       PhotoCategory = "travel"
	CategoryEvent        PhotoCategory = "event"
	CategoryOther        PhotoCategory = "other"
)

func ValidCategory(c PhotoCategory) bool {
	switch c {
	case CategoryPortrait, CategoryLandscape, CategoryStreet, CategoryWildlife,
		CategoryMacro, CategoryArchitecture, CategoryTravel, CategoryEvent, CategoryOther:
		return true
	}
	return false
}

// PaletteColor is one entry of a photo's extracted color palette. Share is
// the fraction of sampled pixels carrying this exact color.
type PaletteColor struct {
	Hex   string  `json:"hex"`
	Share float64 `json:"share"`
}

type ExifMeta struct {
	Camera       string     `json:"camera,omitempty"`
	Lens         string     `json:"lens,omitempty"`
	ISO          int        `json:"iso,omitempty"`
	Aperture     string     `json:"aperture,omitempty"`
	ShutterSpeed string     `json:"shutterSpeed,omitempty"`
	FocalLength  string     `json:"focalLength,omitempty"`
	TakenAt      *time.Time `json:"takenAt,omitempty"`
}

type Photo struct {
	ID            string
	UserID        string
	PortfolioID   string
	Title         string
	Description   string
	StorageKey    string
	URL           string
	ThumbKey      string
	ThumbURL      string
	Width         int
	Height        int
	Format        string
	SizeBytes     int64
	Exif          *ExifMeta
	Tags          []string
	Category      PhotoCategory
	IsPublic      bool
	Moderation    ModerationStatus
	ReviewedBy    *string
	ReviewedAt    *time.Time
	ReviewReason  string
	ViewCount     int64
	LikeCount     int64
	DownloadCount int64
	ShareCount    int64
	Position      int
	Palette       []PaletteColor
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// PubliclyVisible reports whether the photo may appear in public listings
// and be fetched by non-owners.
func (p Photo) PubliclyVisible() bool {
	return p.IsPublic && p.Moderation == ModerationApproved
}
