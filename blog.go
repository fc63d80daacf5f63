// Package blog is a personal blogging platform built with Go, Echo, and templ.
// It provides post/category/comment/subscriber management, a JSON API, likes
// and pageview analytics, RSS, sitemap, and an admin surface out of the box.
//
// Users may provide their own templ templates via the ViewFuncs struct; the
// JSON API under /api/ works without any views, so the platform can also run
// headless behind a separate frontend.
package blog

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"

	"github.com/EmersonGarrido/blog-emersongarrido.com.br-sub000/analytics"
)

// ViewFuncs holds user-provided templ components that the platform calls
// when rendering pages. Any nil field disables the corresponding HTML route;
// NotFound and ServerError fall back to plain-text responses when nil.
type ViewFuncs struct {
	Home           func(posts []Post, activeCategory string, categories []Category, siteURL string) templ.Component
	Post           func(post Post, comments []Comment, siteURL string) templ.Component
	AdminLogin     func(showError bool, csrfToken string) templ.Component
	AdminDashboard func(posts []Post, message string, csrfToken string) templ.Component
	NotFound       func() templ.Component
	ServerError    func() templ.Component
}

// App is the central application. It wires together the store, cache,
// handlers, middleware, analytics, and user-provided templates.
type App struct {
	Config SiteConfig
	Echo   *echo.Echo
	Store  *Store
	Cache  *PostCache
	Views  ViewFuncs

	loginLimiter   *RateLimiter
	collectLimiter *RateLimiter
	analyticsStore *analytics.Store
	geo            *analytics.GeoClient
	customRoutes   []func(*App)
	staticDir      string
	stopCleanup    func()
}

// New creates a new App with the given configuration and view functions.
func New(cfg SiteConfig, views ViewFuncs, opts ...Option) *App {
	cfg.setDefaults()

	a := &App{
		Config:    cfg,
		Echo:      echo.New(),
		Views:     views,
		staticDir: "public",
	}

	for _, opt := range opts {
		opt(a)
	}

	return a
}

// Start initializes the databases, cache, middleware, routes, and starts the
// server. It blocks until the server stops.
func (a *App) Start() error {
	if err := a.init(); err != nil {
		return err
	}
	if err := a.Echo.Start(a.Config.Addr); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// init wires everything short of listening. Split out so tests can drive the
// Echo instance without a real listener.
func (a *App) init() error {
	if a.Config.AdminPassword == "" {
		return fmt.Errorf("blog: AdminPassword is required")
	}
	if a.Config.SessionSecret == "" {
		return fmt.Errorf("blog: SessionSecret is required")
	}

	store, err := NewStore(a.Config.DatabasePath)
	if err != nil {
		return fmt.Errorf("blog: init store: %w", err)
	}
	a.Store = store

	a.Cache = NewPostCache(a.Store, a.Config.PostCacheTTL)
	a.loginLimiter = NewRateLimiter(5, time.Minute)
	a.collectLimiter = NewRateLimiter(60, time.Minute)

	analyticsStore, err := analytics.NewStore(a.Config.AnalyticsDatabasePath)
	if err != nil {
		return fmt.Errorf("blog: init analytics: %w", err)
	}
	a.analyticsStore = analyticsStore
	a.geo = analytics.NewGeoClient(a.Config.GeoLookupURL)
	a.stopCleanup = analyticsStore.StartCleanupScheduler(365, 24*time.Hour)

	a.setupMiddleware()
	a.setupRoutes()

	for _, fn := range a.customRoutes {
		fn(a)
	}
	return nil
}

func (a *App) setupRoutes() {
	e := a.Echo

	// User's static assets
	e.Static("/public", a.staticDir)
	e.GET("/favicon.svg", a.handleFavicon)
	e.GET("/robots.txt", a.handleRobots)

	// Feeds and generated assets
	e.GET("/sitemap.xml", a.handleSitemap)
	e.GET("/feed.xml", a.handleFeed)
	e.GET("/api/card", a.handleSocialCard)

	// Server-rendered pages, only when the user supplied templates.
	if a.Views.Home != nil {
		e.GET("/", a.handleHome)
	}
	if a.Views.Post != nil {
		e.GET("/blog/:slug/", a.handlePost)
		e.GET("/blog", handleBlogRedirect)
	}
	if a.Views.AdminLogin != nil && a.Views.AdminDashboard != nil {
		e.GET("/admin/", a.handleAdminPage)
	}

	// Public JSON API
	api := e.Group("/api")
	api.GET("/posts", a.handleListPosts)
	api.GET("/posts/:slug", a.handleGetPost)
	api.GET("/posts/:slug/comments", a.handleListComments)
	api.POST("/posts/:slug/comments", a.handleCreateComment)
	api.GET("/posts/:slug/likes", a.handleGetLikes)
	api.POST("/posts/:slug/like", a.handleLike)
	api.DELETE("/posts/:slug/like", a.handleUnlike)
	api.POST("/comments/:id/like", a.handleCommentLike)
	api.DELETE("/comments/:id/like", a.handleCommentUnlike)
	api.POST("/posts/:slug/share", a.handleShare)
	api.POST("/pageview", a.handlePageView)
	api.POST("/newsletter", a.handleSubscribe)
	api.POST("/newsletter/unsubscribe", a.handleUnsubscribe)

	// Admin JSON API (session-gated inside requireAdmin)
	api.POST("/admin/login", a.handleAdminLogin)
	api.POST("/admin/logout", handleAdminLogout)

	admin := api.Group("/admin", a.requireAdmin)
	admin.GET("/posts", a.handleAdminListPosts)
	admin.GET("/posts/:slug", a.handleAdminGetPost)
	admin.POST("/posts", a.handleAdminCreatePost)
	admin.PUT("/posts/:slug", a.handleAdminUpdatePost)
	admin.DELETE("/posts/:slug", a.handleAdminDeletePost)
	admin.PATCH("/posts/:slug/pin", a.handleAdminPinPost)
	admin.GET("/posts/:slug/revisions", a.handleAdminListRevisions)
	admin.GET("/categories", a.handleAdminListCategories)
	admin.POST("/categories", a.handleAdminCreateCategory)
	admin.PUT("/categories/:slug", a.handleAdminUpdateCategory)
	admin.DELETE("/categories/:slug", a.handleAdminDeleteCategory)
	admin.GET("/comments", a.handleAdminListComments)
	admin.PATCH("/comments/:id", a.handleAdminModerateComment)
	admin.PUT("/comments/:id", a.handleAdminEditComment)
	admin.DELETE("/comments/:id", a.handleAdminDeleteComment)
	admin.GET("/subscribers", a.handleAdminListSubscribers)
	admin.DELETE("/subscribers/:id", a.handleAdminDeleteSubscriber)
	admin.GET("/subscribers/export", a.handleAdminExportSubscribers)
	admin.GET("/settings", a.handleAdminGetSettings)
	admin.PUT("/settings", a.handleAdminPutSettings)

	analyticsHandler := analytics.NewHandler(a.analyticsStore)
	admin.GET("/analytics", analyticsHandler.GetStats)
	admin.GET("/analytics/online", analyticsHandler.GetOnline)
	admin.GET("/analytics/posts", analyticsHandler.GetPostViews)
}

// Close cleans up resources. Call this when the app is shutting down.
func (a *App) Close() error {
	if a.stopCleanup != nil {
		a.stopCleanup()
		a.stopCleanup = nil
	}
	if a.Store != nil {
		a.Store.Close()
	}
	if a.analyticsStore != nil {
		a.analyticsStore.Close()
	}
	return nil
}

// EnvOr returns the value of the environment variable key, or fallback if empty.
func EnvOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// MustEnv returns the value of the environment variable key, or fatally exits if empty.
func MustEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		log.Fatalf("blog: required environment variable %s is not set", key)
	}
	return v
}
