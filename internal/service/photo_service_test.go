package service

import (
	"context"
	"testing"

	"github.com/rs/zerolog"

	"lensfolio/api/internal/apperr"
	"lensfolio/api/internal/models"
)

type photoEnv struct {
	svc    *PhotoService
	photos *fakePhotoStore
	store  *fakeObjectStore
	views  *fakeViewTracker
}

func newPhotoEnv() *photoEnv {
	photos := newFakePhotoStore()
	store := newFakeObjectStore()
	views := newFakeViewTracker()
	return &photoEnv{
		svc:    NewPhotoService(photos, views, store, testConfig(), zerolog.Nop()),
		photos: photos,
		store:  store,
		views:  views,
	}
}

func seedPhoto(t *testing.T, photos *fakePhotoStore, photo models.Photo) models.Photo {
	t.Helper()
	if photo.Category == "" {
		photo.Category = models.CategoryOther
	}
	if err := photos.Create(context.Background(), photo); err != nil {
		t.Fatalf("seed photo: %v", err)
	}
	return photo
}

func TestGetPhotoVisibility(t *testing.T) {
	env := newPhotoEnv()
	ctx := context.Background()

	owner := models.User{ID: "u1", Role: models.UserRoleUser}
	stranger := models.User{ID: "u2", Role: models.UserRoleUser}
	admin := models.User{ID: "u3", Role: models.UserRoleAdmin}

	pending := seedPhoto(t, env.photos, models.Photo{ID: "p1", UserID: "u1", IsPublic: true, Moderation: models.ModerationPending})
	private := seedPhoto(t, env.photos, models.Photo{ID: "p2", UserID: "u1", IsPublic: false, Moderation: models.ModerationApproved})
	visible := seedPhoto(t, env.photos, models.Photo{ID: "p3", UserID: "u1", IsPublic: true, Moderation: models.ModerationApproved})

	// Owner sees everything.
	for _, id := range []string{pending.ID, private.ID, visible.ID} {
		if _, err := env.svc.Get(ctx, id, &owner, ""); err != nil {
			t.Errorf("owner get %s: %v", id, err)
		}
	}

	// Strangers get not-found for anything unapproved or private, so
	// existence does not leak.
	for _, id := range []string{pending.ID, private.ID} {
		if _, err := env.svc.Get(ctx, id, &stranger, ""); !apperr.IsKind(err, apperr.KindNotFound) {
			t.Errorf("stranger get %s err = %v, want not found", id, err)
		}
	}
	if _, err := env.svc.Get(ctx, visible.ID, &stranger, ""); err != nil {
		t.Errorf("stranger get visible: %v", err)
	}

	// Anonymous viewers follow the same rule.
	if _, err := env.svc.Get(ctx, pending.ID, nil, ""); !apperr.IsKind(err, apperr.KindNotFound) {
		t.Errorf("anonymous get pending err = %v, want not found", err)
	}

	// Staff see everything.
	if _, err := env.svc.Get(ctx, private.ID, &admin, ""); err != nil {
		t.Errorf("admin get private: %v", err)
	}
}

func TestGetPhotoCountsNonOwnerViews(t *testing.T) {
	env := newPhotoEnv()
	ctx := context.Background()

	owner := models.User{ID: "u1"}
	photo := seedPhoto(t, env.photos, models.Photo{ID: "p1", UserID: "u1", IsPublic: true, Moderation: models.ModerationApproved})

	if _, err := env.svc.Get(ctx, photo.ID, nil, "visitor-a"); err != nil {
		t.Fatalf("get: %v", err)
	}
	if _, err := env.svc.Get(ctx, photo.ID, &owner, "visitor-b"); err != nil {
		t.Fatalf("owner get: %v", err)
	}

	stored, _ := env.photos.GetByID(ctx, photo.ID)
	if stored.ViewCount != 1 {
		t.Errorf("view count = %d, want 1 (owner views not counted)", stored.ViewCount)
	}
}

func TestGetPhotoDeduplicatesRepeatVisitors(t *testing.T) {
	env := newPhotoEnv()
	ctx := context.Background()

	photo := seedPhoto(t, env.photos, models.Photo{ID: "p1", UserID: "u1", IsPublic: true, Moderation: models.ModerationApproved})

	for i := 0; i < 3; i++ {
		if _, err := env.svc.Get(ctx, photo.ID, nil, "visitor-a"); err != nil {
			t.Fatalf("get %d: %v", i, err)
		}
	}
	stored, _ := env.photos.GetByID(ctx, photo.ID)
	if stored.ViewCount != 1 {
		t.Fatalf("view count after repeat fetches = %d, want 1", stored.ViewCount)
	}

	if _, err := env.svc.Get(ctx, photo.ID, nil, "visitor-b"); err != nil {
		t.Fatalf("get other visitor: %v", err)
	}
	stored, _ = env.photos.GetByID(ctx, photo.ID)
	if stored.ViewCount != 2 {
		t.Fatalf("view count after second visitor = %d, want 2", stored.ViewCount)
	}
}

func TestListPhotosAppliesVisibilityFilter(t *testing.T) {
	env := newPhotoEnv()
	ctx := context.Background()

	seedPhoto(t, env.photos, models.Photo{ID: "p1", UserID: "u1", IsPublic: true, Moderation: models.ModerationApproved})
	seedPhoto(t, env.photos, models.Photo{ID: "p2", UserID: "u1", IsPublic: true, Moderation: models.ModerationPending})
	seedPhoto(t, env.photos, models.Photo{ID: "p3", UserID: "u1", IsPublic: false, Moderation: models.ModerationApproved})

	photos, page, err := env.svc.List(ctx, nil, PhotoListInput{Limit: 10})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(photos) != 1 || photos[0].ID != "p1" {
		t.Fatalf("anonymous list = %+v, want only p1", photos)
	}
	if page.Total != 1 {
		t.Errorf("total = %d, want 1", page.Total)
	}

	owner := models.User{ID: "u1"}
	photos, _, err = env.svc.List(ctx, &owner, PhotoListInput{Owner: "u1", Limit: 10})
	if err != nil {
		t.Fatalf("owner list: %v", err)
	}
	if len(photos) != 3 {
		t.Fatalf("owner list has %d photos, want 3", len(photos))
	}
}

func TestListPhotosRejectsUnknownCategory(t *testing.T) {
	env := newPhotoEnv()
	_, _, err := env.svc.List(context.Background(), nil, PhotoListInput{Category: "selfies", Limit: 10})
	if !apperr.IsKind(err, apperr.KindValidation) {
		t.Fatalf("err = %v, want validation", err)
	}
}

func TestUpdatePhotoOwnership(t *testing.T) {
	env := newPhotoEnv()
	ctx := context.Background()

	seedPhoto(t, env.photos, models.Photo{ID: "p1", UserID: "u1", IsPublic: true, Moderation: models.ModerationApproved})

	title := "Golden hour"
	stranger := models.User{ID: "u2"}
	if _, err := env.svc.Update(ctx, stranger, "p1", PhotoUpdateInput{Title: &title}); !apperr.IsKind(err, apperr.KindForbidden) {
		t.Fatalf("stranger update err = %v, want forbidden", err)
	}

	owner := models.User{ID: "u1"}
	updated, err := env.svc.Update(ctx, owner, "p1", PhotoUpdateInput{
		Title: &title,
		Tags:  []string{"Sunset", "sunset", " beach "},
	})
	if err != nil {
		t.Fatalf("owner update: %v", err)
	}
	if updated.Title != title {
		t.Errorf("title = %q", updated.Title)
	}
	if len(updated.Tags) != 2 || updated.Tags[0] != "sunset" || updated.Tags[1] != "beach" {
		t.Errorf("tags = %v, want normalized [sunset beach]", updated.Tags)
	}
}

func TestDeletePhotoSweepsObjects(t *testing.T) {
	env := newPhotoEnv()
	ctx := context.Background()

	seedPhoto(t, env.photos, models.Photo{
		ID: "p1", UserID: "u1",
		StorageKey: "test/photos/u1/a.jpg",
		ThumbKey:   "test/photos/u1/a_thumb.jpg",
	})

	owner := models.User{ID: "u1"}
	if err := env.svc.Delete(ctx, owner, "p1"); err != nil {
		t.Fatalf("delete: %v", err)
	}

	if _, err := env.photos.GetByID(ctx, "p1"); err == nil {
		t.Fatal("photo row survived delete")
	}
	if len(env.store.deleted) != 2 {
		t.Fatalf("deleted %d objects, want 2: %v", len(env.store.deleted), env.store.deleted)
	}
}

func TestEngageCounters(t *testing.T) {
	env := newPhotoEnv()
	ctx := context.Background()

	seedPhoto(t, env.photos, models.Photo{ID: "p1", UserID: "u1", IsPublic: true, Moderation: models.ModerationApproved})

	if _, err := env.svc.Engage(ctx, "p1", nil, EngagementLike); err != nil {
		t.Fatalf("like: %v", err)
	}
	if _, err := env.svc.Engage(ctx, "p1", nil, EngagementShare); err != nil {
		t.Fatalf("share: %v", err)
	}
	if _, err := env.svc.Engage(ctx, "p1", nil, "poke"); !apperr.IsKind(err, apperr.KindValidation) {
		t.Fatal("unknown engagement kind accepted")
	}

	stored, _ := env.photos.GetByID(ctx, "p1")
	if stored.LikeCount != 1 || stored.ShareCount != 1 {
		t.Errorf("counters = likes %d shares %d, want 1/1", stored.LikeCount, stored.ShareCount)
	}
}

func TestAnalyticsRequiresOwnership(t *testing.T) {
	env := newPhotoEnv()
	ctx := context.Background()

	seedPhoto(t, env.photos, models.Photo{ID: "p1", UserID: "u1", IsPublic: true, Moderation: models.ModerationApproved, ViewCount: 7})

	if _, err := env.svc.Analytics(ctx, models.User{ID: "u2"}, "p1"); !apperr.IsKind(err, apperr.KindForbidden) {
		t.Fatalf("stranger analytics err = %v, want forbidden", err)
	}

	analytics, err := env.svc.Analytics(ctx, models.User{ID: "u1"}, "p1")
	if err != nil {
		t.Fatalf("owner analytics: %v", err)
	}
	if analytics.Views != 7 {
		t.Errorf("views = %d, want 7", analytics.Views)
	}
}
