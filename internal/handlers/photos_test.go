package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"lensfolio/api/internal/middleware"
	"lensfolio/api/internal/models"
	"lensfolio/api/internal/repository"
	"lensfolio/api/internal/service"
)

// stubPhotoStore serves a fixed photo set; only List matters here.
type stubPhotoStore struct {
	photos []models.Photo
}

func (s *stubPhotoStore) Create(context.Context, models.Photo) error { return nil }

func (s *stubPhotoStore) GetByID(context.Context, string) (models.Photo, error) {
	return models.Photo{}, repository.ErrPhotoNotFound
}

func (s *stubPhotoStore) Update(context.Context, models.Photo) error { return nil }

func (s *stubPhotoStore) Delete(context.Context, string) (models.Photo, error) {
	return models.Photo{}, repository.ErrPhotoNotFound
}

func (s *stubPhotoStore) List(_ context.Context, filter repository.PhotoFilter) ([]models.Photo, int, error) {
	var out []models.Photo
	for _, p := range s.photos {
		if filter.OwnerID != "" && p.UserID != filter.OwnerID {
			continue
		}
		if filter.VisibleOnly && !p.PubliclyVisible() {
			continue
		}
		out = append(out, p)
	}
	return out, len(out), nil
}

func (s *stubPhotoStore) IncrementCounter(context.Context, string, repository.CounterColumn) error {
	return nil
}

func (s *stubPhotoStore) Moderate(context.Context, string, models.ModerationStatus, string, string) error {
	return nil
}

func (s *stubPhotoStore) CountByUser(context.Context, string) (int, error) { return 0, nil }

func (s *stubPhotoStore) CountByStatus(context.Context) (map[models.ModerationStatus]int, error) {
	return nil, nil
}

func listPhotosAs(t *testing.T, h HandlerSet, viewer *models.User, query string) []photoResponse {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/photos"+query, nil)
	if viewer != nil {
		c.Set(middleware.ContextUser, *viewer)
	}

	h.ListPhotos(c)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	var body struct {
		Success bool `json:"success"`
		Data    struct {
			Items []photoResponse `json:"items"`
		} `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return body.Data.Items
}

func TestListPhotosModerationVisibility(t *testing.T) {
	store := &stubPhotoStore{photos: []models.Photo{
		{ID: "p1", UserID: "u1", IsPublic: true, Moderation: models.ModerationApproved},
		{ID: "p2", UserID: "u1", IsPublic: true, Moderation: models.ModerationPending},
	}}
	h := HandlerSet{
		log:    zerolog.Nop(),
		photos: service.NewPhotoService(store, nil, nil, nil, zerolog.Nop()),
	}

	// Staff browsing another user's photos see the full set with
	// moderation state attached.
	admin := models.User{ID: "u9", Role: models.UserRoleAdmin}
	items := listPhotosAs(t, h, &admin, "?owner=u1")
	if len(items) != 2 {
		t.Fatalf("staff list has %d items, want 2", len(items))
	}
	for _, item := range items {
		if item.Moderation == "" {
			t.Errorf("photo %s missing moderation state for staff", item.ID)
		}
	}

	// The owner still sees their own moderation state.
	owner := models.User{ID: "u1", Role: models.UserRoleUser}
	items = listPhotosAs(t, h, &owner, "?owner=u1")
	if len(items) != 2 {
		t.Fatalf("owner list has %d items, want 2", len(items))
	}
	if items[0].Moderation == "" {
		t.Error("owner does not see moderation state")
	}

	// Strangers get only approved photos, stripped of moderation fields.
	stranger := models.User{ID: "u2", Role: models.UserRoleUser}
	items = listPhotosAs(t, h, &stranger, "?owner=u1")
	if len(items) != 1 || items[0].ID != "p1" {
		t.Fatalf("stranger list = %+v, want only p1", items)
	}
	if items[0].Moderation != "" {
		t.Errorf("stranger sees moderation state %q", items[0].Moderation)
	}
}
