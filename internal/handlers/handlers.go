package handlers

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"lensfolio/api/internal/cache"
	"lensfolio/api/internal/config"
	"lensfolio/api/internal/imaging"
	"lensfolio/api/internal/middleware"
	"lensfolio/api/internal/models"
	"lensfolio/api/internal/repository"
	"lensfolio/api/internal/service"
	"lensfolio/api/internal/storage"
)

type HandlerSet struct {
	log   zerolog.Logger
	cfg   *config.AppConfig
	db    *pgxpool.Pool
	cache *redis.Client

	auth       *service.AuthService
	users      *service.UserService
	portfolios *service.PortfolioService
	photos     *service.PhotoService
	uploads    *service.UploadService
	admin      *service.AdminService

	userStore    service.UserStore
	sessionStore service.SessionStore
}

func NewHandlerSet(log zerolog.Logger, db *pgxpool.Pool, redisClient *redis.Client, store storage.Store, cfg *config.AppConfig) HandlerSet {
	userRepo := repository.NewUserRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	portfolioRepo := repository.NewPortfolioRepository(db)
	photoRepo := repository.NewPhotoRepository(db)

	var views service.ViewTracker
	if redisClient != nil {
		views = cache.NewViewTracker(redisClient, 0)
	}

	processor := imaging.NewProcessor(imaging.Options{
		MaxDimension: cfg.Upload.MaxDimension,
		Quality:      cfg.Upload.Quality,
		ThumbSize:    cfg.Upload.ThumbSize,
		ThumbQuality: cfg.Upload.ThumbQuality,
		PaletteSize:  cfg.Upload.PaletteSize,
	})

	return HandlerSet{
		log:          log,
		cfg:          cfg,
		db:           db,
		cache:        redisClient,
		auth:         service.NewAuthService(userRepo, sessionRepo, portfolioRepo, cfg, log),
		users:        service.NewUserService(userRepo, store, log),
		portfolios:   service.NewPortfolioService(portfolioRepo, views, store, log),
		photos:       service.NewPhotoService(photoRepo, views, store, cfg, log),
		uploads:      service.NewUploadService(photoRepo, portfolioRepo, userRepo, store, processor, cfg, log),
		admin:        service.NewAdminService(userRepo, photoRepo, log),
		userStore:    userRepo,
		sessionStore: sessionRepo,
	}
}

func (h HandlerSet) RegisterRoutes(router *gin.Engine) {
	router.GET("/health", h.Health)

	api := router.Group("/api")

	requireAuth := middleware.Auth(h.cfg, h.userStore, h.sessionStore)
	optionalAuth := middleware.OptionalAuth(h.cfg, h.userStore, h.sessionStore)
	requireStaff := middleware.RequireRoles(models.UserRoleAdmin, models.UserRoleSuperAdmin)

	auth := api.Group("/auth")
	{
		auth.POST("/register", h.Register)
		auth.POST("/login", h.Login)
		auth.POST("/refresh", h.Refresh)
		auth.POST("/logout", requireAuth, h.Logout)
		auth.GET("/me", requireAuth, h.Me)
		auth.PUT("/me", requireAuth, h.UpdateMe)
		auth.DELETE("/me", requireAuth, h.DeleteMe)
	}

	users := api.Group("/users")
	{
		users.GET("/search", h.SearchUsers)
		users.GET("/:username", h.GetUser)
		users.GET("/:username/portfolios", optionalAuth, h.UserPortfolios)
		users.GET("/:username/photos", optionalAuth, h.UserPhotos)
		users.GET("/:username/followers", h.UserFollowers)
		users.GET("/:username/following", h.UserFollowing)
		users.POST("/:username/follow", requireAuth, h.FollowUser)
		users.DELETE("/:username/follow", requireAuth, h.UnfollowUser)
	}

	portfolios := api.Group("/portfolios")
	{
		portfolios.GET("", h.ListPortfolios)
		portfolios.POST("", requireAuth, h.CreatePortfolio)
		portfolios.GET("/:slug", optionalAuth, h.GetPortfolio)
		portfolios.PUT("/id/:id", requireAuth, h.UpdatePortfolio)
		portfolios.PUT("/id/:id/default", requireAuth, h.SetDefaultPortfolio)
		portfolios.DELETE("/id/:id", requireAuth, h.DeletePortfolio)
	}

	photos := api.Group("/photos")
	{
		photos.GET("", optionalAuth, h.ListPhotos)
		photos.POST("", requireAuth, h.RegisterPhoto)
		photos.GET("/:id", optionalAuth, h.GetPhoto)
		photos.PUT("/:id", requireAuth, h.UpdatePhoto)
		photos.DELETE("/:id", requireAuth, h.DeletePhoto)
		photos.POST("/:id/like", optionalAuth, h.LikePhoto)
		photos.POST("/:id/download", optionalAuth, h.DownloadPhoto)
		photos.POST("/:id/share", optionalAuth, h.SharePhoto)
		photos.GET("/:id/analytics", requireAuth, h.PhotoAnalytics)
	}

	upload := api.Group("/upload", requireAuth)
	{
		upload.POST("/photo", h.UploadPhoto)
		upload.POST("/photos", h.UploadPhotos)
		upload.POST("/avatar", h.UploadAvatar)
		upload.POST("/presigned-url", h.PresignedURL)
		upload.DELETE("/photo/:id", h.DeletePhoto)
	}

	admin := api.Group("/admin", requireAuth, requireStaff)
	{
		admin.GET("/photos", h.AdminListPhotos)
		admin.PUT("/photos/:id/moderate", h.ModeratePhoto)
		admin.GET("/users", h.AdminListUsers)
		admin.PUT("/users/:id/role", h.ChangeUserRole)
		admin.PUT("/users/:id/status", h.ChangeUserStatus)
		admin.PUT("/users/:id/plan", h.ChangeUserPlan)
		admin.DELETE("/users/:id", h.AdminDeleteUser)
		admin.GET("/stats", h.AdminStats)
	}
}

// visitorKey identifies a viewer for unique-view dedup without storing the
// raw address.
func visitorKey(c *gin.Context) string {
	sum := sha256.Sum256([]byte(c.ClientIP() + "|" + c.GetHeader("User-Agent")))
	return hex.EncodeToString(sum[:8])
}

func viewerOrNil(c *gin.Context) *models.User {
	if user, ok := middleware.CurrentUser(c); ok {
		return &user
	}
	return nil
}

func pagination(c *gin.Context) (limit, offset int) {
	limit = 20
	if perPage := c.Query("perPage"); perPage != "" {
		if v, err := strconv.Atoi(perPage); err == nil && v > 0 && v <= 100 {
			limit = v
		}
	}
	if page := c.Query("page"); page != "" {
		if v, err := strconv.Atoi(page); err == nil && v > 1 {
			offset = (v - 1) * limit
		}
	}
	return limit, offset
}
