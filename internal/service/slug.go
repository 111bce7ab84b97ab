package service

import (
	"context"
	"fmt"
	"strings"
	"unicode"
)

// Slugify lowercases the title and collapses runs of non-alphanumerics into
// single hyphens.
func Slugify(title string) string {
	var b strings.Builder
	lastHyphen := true // suppress leading hyphen
	for _, r := range strings.ToLower(title) {
		switch {
		case unicode.IsLetter(r) && r < 128, unicode.IsDigit(r):
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}
	return strings.Trim(b.String(), "-")
}

// uniqueSlug appends a numeric suffix until the slug is free.
func uniqueSlug(ctx context.Context, portfolios PortfolioStore, base string) (string, error) {
	if base == "" {
		base = "portfolio"
	}

	slug := base
	for i := 2; ; i++ {
		exists, err := portfolios.SlugExists(ctx, slug)
		if err != nil {
			return "", err
		}
		if !exists {
			return slug, nil
		}
		slug = fmt.Sprintf("%s-%d", base, i)
	}
}
