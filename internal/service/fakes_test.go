package service

import (
	"bytes"
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"lensfolio/api/internal/models"
	"lensfolio/api/internal/repository"
	"lensfolio/api/internal/storage"
)

// In-memory store fakes. They implement just enough of the repository
// semantics for the services under test.

type fakeUserStore struct {
	mu      sync.Mutex
	users   map[string]models.User
	follows map[[2]string]bool
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{
		users:   make(map[string]models.User),
		follows: make(map[[2]string]bool),
	}
}

func (f *fakeUserStore) Create(_ context.Context, user models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.users {
		if existing.Username == user.Username || existing.Email == user.Email {
			return repository.ErrDuplicate
		}
	}
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	f.users[user.ID] = user
	return nil
}

func (f *fakeUserStore) GetByID(_ context.Context, id string) (models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[id]
	if !ok {
		return models.User{}, repository.ErrUserNotFound
	}
	return user, nil
}

func (f *fakeUserStore) FindByEmail(_ context.Context, email string) (models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, user := range f.users {
		if user.Email == email {
			return user, nil
		}
	}
	return models.User{}, repository.ErrUserNotFound
}

func (f *fakeUserStore) FindByUsername(_ context.Context, username string) (models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, user := range f.users {
		if user.Username == username {
			return user, nil
		}
	}
	return models.User{}, repository.ErrUserNotFound
}

func (f *fakeUserStore) UpdateProfile(_ context.Context, user models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.users[user.ID]
	if !ok {
		return repository.ErrUserNotFound
	}
	for id, other := range f.users {
		if id != user.ID && other.Email == user.Email {
			return repository.ErrDuplicate
		}
	}
	stored.Email = user.Email
	stored.DisplayName = user.DisplayName
	stored.Bio = user.Bio
	stored.AvatarURL = user.AvatarURL
	stored.AvatarKey = user.AvatarKey
	stored.UpdatedAt = time.Now()
	f.users[user.ID] = stored
	return nil
}

func (f *fakeUserStore) TouchLastLogin(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[id]
	if !ok {
		return repository.ErrUserNotFound
	}
	now := time.Now()
	user.LastLoginAt = &now
	f.users[id] = user
	return nil
}

func (f *fakeUserStore) UpdateRole(_ context.Context, id string, role models.UserRole) error {
	return f.mutate(id, func(u *models.User) { u.Role = role })
}

func (f *fakeUserStore) UpdateStatus(_ context.Context, id string, status models.UserStatus) error {
	return f.mutate(id, func(u *models.User) { u.Status = status })
}

func (f *fakeUserStore) UpdatePlan(_ context.Context, id string, plan models.UserPlan) error {
	return f.mutate(id, func(u *models.User) { u.Plan = plan })
}

func (f *fakeUserStore) mutate(id string, fn func(*models.User)) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[id]
	if !ok {
		return repository.ErrUserNotFound
	}
	fn(&user)
	f.users[id] = user
	return nil
}

func (f *fakeUserStore) CountSuperAdmins(_ context.Context) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for _, user := range f.users {
		if user.Role == models.UserRoleSuperAdmin {
			count++
		}
	}
	return count, nil
}

func (f *fakeUserStore) Delete(_ context.Context, id string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[id]; !ok {
		return nil, repository.ErrUserNotFound
	}
	delete(f.users, id)
	for edge := range f.follows {
		if edge[0] == id || edge[1] == id {
			delete(f.follows, edge)
		}
	}
	return nil, nil
}

func (f *fakeUserStore) Search(_ context.Context, query string, limit, offset int) ([]models.User, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var matched []models.User
	needle := strings.ToLower(query)
	for _, user := range f.users {
		if strings.Contains(strings.ToLower(user.Username), needle) ||
			strings.Contains(strings.ToLower(user.DisplayName), needle) {
			matched = append(matched, user)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].Username < matched[j].Username })
	return slicePage(matched, limit, offset), len(matched), nil
}

func (f *fakeUserStore) List(_ context.Context, limit, offset int) ([]models.User, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	all := make([]models.User, 0, len(f.users))
	for _, user := range f.users {
		all = append(all, user)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Username < all[j].Username })
	return slicePage(all, limit, offset), len(all), nil
}

func (f *fakeUserStore) Follow(_ context.Context, followerID, followeeID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.follows[[2]string{followerID, followeeID}] = true
	return nil
}

func (f *fakeUserStore) Unfollow(_ context.Context, followerID, followeeID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.follows, [2]string{followerID, followeeID})
	return nil
}

func (f *fakeUserStore) ListFollowers(_ context.Context, userID string, limit, offset int) ([]models.User, int, error) {
	return f.edge(userID, limit, offset, true)
}

func (f *fakeUserStore) ListFollowing(_ context.Context, userID string, limit, offset int) ([]models.User, int, error) {
	return f.edge(userID, limit, offset, false)
}

func (f *fakeUserStore) edge(userID string, limit, offset int, followers bool) ([]models.User, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var matched []models.User
	for pair := range f.follows {
		var other string
		if followers && pair[1] == userID {
			other = pair[0]
		} else if !followers && pair[0] == userID {
			other = pair[1]
		} else {
			continue
		}
		if user, ok := f.users[other]; ok {
			matched = append(matched, user)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].Username < matched[j].Username })
	return slicePage(matched, limit, offset), len(matched), nil
}

type fakeSessionStore struct {
	mu       sync.Mutex
	sessions map[string]models.Session
}

func newFakeSessionStore() *fakeSessionStore {
	return &fakeSessionStore{sessions: make(map[string]models.Session)}
}

func (f *fakeSessionStore) Create(_ context.Context, session models.Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	session.CreatedAt = time.Now()
	session.LastSeenAt = session.CreatedAt
	f.sessions[session.ID] = session
	return nil
}

func (f *fakeSessionStore) GetByID(_ context.Context, id string) (models.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	session, ok := f.sessions[id]
	if !ok {
		return models.Session{}, repository.ErrSessionNotFound
	}
	return session, nil
}

func (f *fakeSessionStore) FindByRefreshHash(_ context.Context, refreshHash []byte) (models.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, session := range f.sessions {
		if bytes.Equal(session.RefreshTokenHash, refreshHash) {
			return session, nil
		}
	}
	return models.Session{}, repository.ErrSessionNotFound
}

func (f *fakeSessionStore) Rotate(_ context.Context, id string, oldHash, newHash []byte, expiresAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	session, ok := f.sessions[id]
	if !ok || !bytes.Equal(session.RefreshTokenHash, oldHash) {
		return repository.ErrSessionNotFound
	}
	session.RefreshTokenHash = newHash
	session.ExpiresAt = expiresAt
	f.sessions[id] = session
	return nil
}

func (f *fakeSessionStore) DeleteByID(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.sessions[id]; !ok {
		return repository.ErrSessionNotFound
	}
	delete(f.sessions, id)
	return nil
}

func (f *fakeSessionStore) DeleteByUser(_ context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, session := range f.sessions {
		if session.UserID == userID {
			delete(f.sessions, id)
		}
	}
	return nil
}

func (f *fakeSessionStore) CountByUser(_ context.Context, userID string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for _, session := range f.sessions {
		if session.UserID == userID {
			count++
		}
	}
	return count, nil
}

func (f *fakeSessionStore) DeleteOldest(_ context.Context, userID string, keepLatest int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	var owned []models.Session
	for _, session := range f.sessions {
		if session.UserID == userID {
			owned = append(owned, session)
		}
	}
	if len(owned) <= keepLatest {
		return nil
	}
	sort.Slice(owned, func(i, j int) bool { return owned[i].CreatedAt.After(owned[j].CreatedAt) })
	for _, session := range owned[keepLatest:] {
		delete(f.sessions, session.ID)
	}
	return nil
}

func (f *fakeSessionStore) Touch(_ context.Context, id string, ip string, userAgent string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	session, ok := f.sessions[id]
	if !ok {
		return repository.ErrSessionNotFound
	}
	session.LastSeenAt = time.Now()
	session.IPAddress = ip
	session.UserAgent = userAgent
	f.sessions[id] = session
	return nil
}

type fakePortfolioStore struct {
	mu         sync.Mutex
	portfolios map[string]models.Portfolio
	createErr  error // returned by Create when set
}

func newFakePortfolioStore() *fakePortfolioStore {
	return &fakePortfolioStore{portfolios: make(map[string]models.Portfolio)}
}

func (f *fakePortfolioStore) Create(_ context.Context, p models.Portfolio) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	for _, existing := range f.portfolios {
		if existing.Slug == p.Slug {
			return repository.ErrDuplicate
		}
	}
	p.CreatedAt = time.Now()
	p.UpdatedAt = p.CreatedAt
	f.portfolios[p.ID] = p
	return nil
}

func (f *fakePortfolioStore) GetByID(_ context.Context, id string) (models.Portfolio, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.portfolios[id]
	if !ok {
		return models.Portfolio{}, repository.ErrPortfolioNotFound
	}
	return p, nil
}

func (f *fakePortfolioStore) GetBySlug(_ context.Context, slug string) (models.Portfolio, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.portfolios {
		if p.Slug == slug {
			return p, nil
		}
	}
	return models.Portfolio{}, repository.ErrPortfolioNotFound
}

func (f *fakePortfolioStore) SlugExists(_ context.Context, slug string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.portfolios {
		if p.Slug == slug {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakePortfolioStore) ListByUser(_ context.Context, userID string, includePrivate bool) ([]models.Portfolio, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Portfolio
	for _, p := range f.portfolios {
		if p.UserID != userID {
			continue
		}
		if !includePrivate && !p.IsPublic {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Slug < out[j].Slug })
	return out, nil
}

func (f *fakePortfolioStore) ListPublic(_ context.Context, limit, offset int) ([]models.Portfolio, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Portfolio
	for _, p := range f.portfolios {
		if p.IsPublic {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Slug < out[j].Slug })
	return slicePage(out, limit, offset), len(out), nil
}

func (f *fakePortfolioStore) Update(_ context.Context, p models.Portfolio) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.portfolios[p.ID]; !ok {
		return repository.ErrPortfolioNotFound
	}
	p.UpdatedAt = time.Now()
	f.portfolios[p.ID] = p
	return nil
}

func (f *fakePortfolioStore) SetDefault(_ context.Context, userID, portfolioID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, p := range f.portfolios {
		if p.UserID == userID {
			p.IsDefault = id == portfolioID
			f.portfolios[id] = p
		}
	}
	return nil
}

func (f *fakePortfolioStore) Delete(_ context.Context, id string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.portfolios[id]; !ok {
		return nil, repository.ErrPortfolioNotFound
	}
	delete(f.portfolios, id)
	return nil, nil
}

func (f *fakePortfolioStore) RecordView(_ context.Context, id string, unique bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.portfolios[id]
	if !ok {
		return repository.ErrPortfolioNotFound
	}
	p.ViewCount++
	if unique {
		p.UniqueViews++
	}
	f.portfolios[id] = p
	return nil
}

type fakePhotoStore struct {
	mu     sync.Mutex
	photos map[string]models.Photo
}

func newFakePhotoStore() *fakePhotoStore {
	return &fakePhotoStore{photos: make(map[string]models.Photo)}
}

func (f *fakePhotoStore) Create(_ context.Context, photo models.Photo) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	photo.CreatedAt = time.Now()
	photo.UpdatedAt = photo.CreatedAt
	f.photos[photo.ID] = photo
	return nil
}

func (f *fakePhotoStore) GetByID(_ context.Context, id string) (models.Photo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	photo, ok := f.photos[id]
	if !ok {
		return models.Photo{}, repository.ErrPhotoNotFound
	}
	return photo, nil
}

func (f *fakePhotoStore) Update(_ context.Context, photo models.Photo) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.photos[photo.ID]; !ok {
		return repository.ErrPhotoNotFound
	}
	photo.UpdatedAt = time.Now()
	f.photos[photo.ID] = photo
	return nil
}

func (f *fakePhotoStore) Delete(_ context.Context, id string) (models.Photo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	photo, ok := f.photos[id]
	if !ok {
		return models.Photo{}, repository.ErrPhotoNotFound
	}
	delete(f.photos, id)
	return photo, nil
}

func (f *fakePhotoStore) List(_ context.Context, filter repository.PhotoFilter) ([]models.Photo, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var matched []models.Photo
	for _, photo := range f.photos {
		if filter.OwnerID != "" && photo.UserID != filter.OwnerID {
			continue
		}
		if filter.PortfolioID != "" && photo.PortfolioID != filter.PortfolioID {
			continue
		}
		if filter.Category != "" && photo.Category != filter.Category {
			continue
		}
		if filter.Moderation != "" && photo.Moderation != filter.Moderation {
			continue
		}
		if filter.VisibleOnly && !photo.PubliclyVisible() {
			continue
		}
		if filter.Query != "" && !strings.Contains(strings.ToLower(photo.Title), strings.ToLower(filter.Query)) {
			continue
		}
		if len(filter.Tags) > 0 && !overlaps(photo.Tags, filter.Tags) {
			continue
		}
		matched = append(matched, photo)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID < matched[j].ID })
	return slicePage(matched, filter.Limit, filter.Offset), len(matched), nil
}

func (f *fakePhotoStore) IncrementCounter(_ context.Context, id string, column repository.CounterColumn) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	photo, ok := f.photos[id]
	if !ok {
		return repository.ErrPhotoNotFound
	}
	switch column {
	case repository.CounterViews:
		photo.ViewCount++
	case repository.CounterLikes:
		photo.LikeCount++
	case repository.CounterDownloads:
		photo.DownloadCount++
	case repository.CounterShares:
		photo.ShareCount++
	}
	f.photos[id] = photo
	return nil
}

func (f *fakePhotoStore) Moderate(_ context.Context, id string, status models.ModerationStatus, reviewerID string, reason string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	photo, ok := f.photos[id]
	if !ok {
		return repository.ErrPhotoNotFound
	}
	now := time.Now()
	photo.Moderation = status
	photo.ReviewedBy = &reviewerID
	photo.ReviewedAt = &now
	photo.ReviewReason = reason
	f.photos[id] = photo
	return nil
}

func (f *fakePhotoStore) CountByUser(_ context.Context, userID string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for _, photo := range f.photos {
		if photo.UserID == userID {
			count++
		}
	}
	return count, nil
}

func (f *fakePhotoStore) CountByStatus(_ context.Context) (map[models.ModerationStatus]int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	counts := make(map[models.ModerationStatus]int)
	for _, photo := range f.photos {
		counts[photo.Moderation]++
	}
	return counts, nil
}

// fakeObjectStore records puts and deletes; URLs are deterministic.
type fakeObjectStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	deleted []string
}

func newFakeObjectStore() *fakeObjectStore {
	return &fakeObjectStore{objects: make(map[string][]byte)}
}

func (f *fakeObjectStore) Put(_ context.Context, key string, _ string, data []byte, _ map[string]string) (storage.ObjectInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[key] = data
	return storage.ObjectInfo{Key: key, URL: "https://cdn.test/" + key, Size: int64(len(data))}, nil
}

func (f *fakeObjectStore) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, key)
	f.deleted = append(f.deleted, key)
	return nil
}

func (f *fakeObjectStore) PresignedUpload(_ context.Context, key string, _ string, _ time.Duration) (string, error) {
	return "https://cdn.test/upload/" + key, nil
}

func (f *fakeObjectStore) PresignedDownload(_ context.Context, key string, _ time.Duration) (string, error) {
	return "https://cdn.test/signed/" + key, nil
}

func (f *fakeObjectStore) PublicURL(key string) string {
	return "https://cdn.test/" + key
}

type fakeViewTracker struct {
	mu   sync.Mutex
	seen map[string]bool
}

func newFakeViewTracker() *fakeViewTracker {
	return &fakeViewTracker{seen: make(map[string]bool)}
}

func (f *fakeViewTracker) FirstSeen(_ context.Context, resourceKey, visitorKey string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := resourceKey + ":" + visitorKey
	if f.seen[key] {
		return false, nil
	}
	f.seen[key] = true
	return true, nil
}

func slicePage[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return nil
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

func overlaps(a, b []string) bool {
	set := make(map[string]struct{}, len(a))
	for _, s := range a {
		set[s] = struct{}{}
	}
	for _, s := range b {
		if _, ok := set[s]; ok {
			return true
		}
	}
	return false
}
