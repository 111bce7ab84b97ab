package storage

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"path"
	"strings"
	"time"
)

// Object categories used as key path segments.
const (
	CategoryPhotos  = "photos"
	CategoryAvatars = "avatars"
)

// BuildKey lays out object keys as
// {environment}/{category}/{ownerID}/{timestamp}_{randomID}.{ext} so a single
// bucket can multiplex dev/staging/prod namespaces.
func BuildKey(environment, category, ownerID, ext string) string {
	ext = strings.TrimPrefix(strings.ToLower(ext), ".")
	name := fmt.Sprintf("%d_%s.%s", time.Now().UTC().Unix(), randomID(), ext)
	return path.Join(environment, category, ownerID, name)
}

// ThumbKey derives the thumbnail key for a main-image key by inserting a
// _thumb suffix before the extension.
func ThumbKey(key string) string {
	ext := path.Ext(key)
	return strings.TrimSuffix(key, ext) + "_thumb" + ext
}

func randomID() string {
	buf := make([]byte, 6)
	if _, err := rand.Read(buf); err != nil {
		return fmt.Sprintf("%x", time.Now().UnixNano())
	}
	return hex.EncodeToString(buf)
}
