package routes

import (
	"time"

	"github.com/ahmetcoskunkizilkaya/spraply-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/spraply-backend/internal/handlers"
	"github.com/ahmetcoskunkizilkaya/spraply-backend/internal/middleware"
	"github.com/ahmetcoskunkizilkaya/spraply-backend/internal/models"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/storage/redis"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Handlers struct {
	Auth         *handlers.AuthHandler
	Team         *handlers.TeamHandler
	Plan         *handlers.PlanHandler
	Subscription *handlers.SubscriptionHandler
	Job          *handlers.JobHandler
	Proxy        *handlers.ProxyHandler
	Internal     *handlers.InternalHandler
	Health       *handlers.HealthHandler
	Webhook      *handlers.WebhookHandler
}

// Guards resolve the caller. Users and Teams are usually the auth and team
// services.
type Guards struct {
	Users middleware.UserLoader
	Teams middleware.TeamResolver
}

// LimiterStorage returns Redis storage for the rate limiter when REDIS_HOST
// is set, and nil (in-memory) otherwise.
func LimiterStorage(cfg *config.Config) fiber.Storage {
	if cfg.RedisHost == "" {
		return nil
	}
	return redis.New(redis.Config{
		Host:     cfg.RedisHost,
		Port:     cfg.RedisPort,
		Password: cfg.RedisPassword,
		Database: 0,
		Reset:    false,
	})
}

func Setup(app *fiber.App, cfg *config.Config, storage fiber.Storage, h Handlers, g Guards) {
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	api := app.Group("/api")

	// General API rate limiter, per IP
	api.Use(limiter.New(limiter.Config{
		Max:               cfg.RateLimitPerMinute,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
		Storage:           storage,
	}))

	api.Get("/health", h.Health.Check)

	v1 := api.Group("/v1")
	v1.Get("/common/settings", h.Health.Settings)

	jwt := middleware.JWTProtected(cfg)
	user := middleware.UserRequired(g.Users)
	team := middleware.TeamRequired(g.Users, g.Teams)
	optionalJWT := middleware.OptionalJWT(cfg)

	// User area. Auth endpoints get a stricter limit.
	u := v1.Group("/user")
	auth := u.Group("/auth")
	auth.Use(limiter.New(limiter.Config{
		Max:               10,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
		Storage:           storage,
	}))
	auth.Post("/register", h.Auth.Register)
	auth.Post("/login", h.Auth.Login)
	auth.Post("/token/refresh", h.Auth.Refresh)
	auth.Post("/token/verify", h.Auth.VerifyToken)
	auth.Post("/logout", h.Auth.Logout)
	auth.Post("/forgot-password", h.Auth.ForgotPassword)
	auth.Get("/reset-password/:token", h.Auth.ValidateResetToken)
	auth.Post("/reset-password/:token", h.Auth.ResetPassword)
	auth.Post("/resend-verify-email", h.Auth.ResendVerifyEmail)
	auth.Get("/verify-email/:token", h.Auth.VerifyEmail)
	auth.Get("/invitation/:code", h.Auth.CheckInvitation)
	auth.Post("/invitation/:code", h.Auth.SignupWithInvitation)
	u.Post("/install", h.Auth.Install)

	u.Get("/profile", jwt, user, h.Auth.Profile)
	u.Patch("/profile", jwt, user, h.Auth.UpdateProfile)
	u.Get("/profile/invitations", jwt, user, h.Team.MyInvitations)
	u.Post("/profile/invitations/:id/accept", jwt, user, h.Team.AcceptInvitation)

	u.Get("/teams", jwt, user, h.Team.List)
	u.Post("/teams", jwt, user, h.Team.Create)
	current := u.Group("/teams/current", jwt, team)
	current.Get("/", h.Team.Current)
	current.Patch("/", h.Team.Rename)
	current.Post("/invite", h.Team.Invite)
	current.Get("/invitations", h.Team.ListInvitations)
	current.Get("/members", h.Team.ListMembers)
	current.Delete("/members/:id", h.Team.RemoveMember)
	u.Get("/teams/:id", jwt, user, h.Team.Get)

	u.Get("/api-keys", jwt, team, h.Team.ListAPIKeys)
	u.Post("/api-keys", jwt, team, h.Team.CreateAPIKey)
	u.Delete("/api-keys/:id", jwt, team, h.Team.DeleteAPIKey)

	// Core: jobs and proxies, by bearer token or API key.
	core := v1.Group("/core", optionalJWT, team)
	core.Get("/usage", h.Job.Usage)

	core.Post("/crawl-requests", h.Job.CreateCrawl)
	core.Post("/crawl-requests/batch", h.Job.CreateBatchCrawl)
	core.Get("/crawl-requests", h.Job.ListCrawls)
	core.Get("/crawl-requests/:id", h.Job.GetCrawl)
	core.Delete("/crawl-requests/:id", h.Job.Cancel(models.JobKindCrawl))
	core.Get("/crawl-requests/:id/status", h.Job.Status(models.JobKindCrawl))
	core.Get("/crawl-requests/:id/results", h.Job.ListCrawlResults)
	core.Get("/crawl-requests/:id/results/:result_id", h.Job.GetCrawlResult)

	core.Post("/search", h.Job.CreateSearch)
	core.Get("/search", h.Job.ListSearches)
	core.Get("/search/:id", h.Job.GetSearch)
	core.Delete("/search/:id", h.Job.Cancel(models.JobKindSearch))
	core.Get("/search/:id/status", h.Job.Status(models.JobKindSearch))

	core.Post("/sitemaps", h.Job.CreateSitemap)
	core.Get("/sitemaps", h.Job.ListSitemaps)
	core.Get("/sitemaps/:id", h.Job.GetSitemap)
	core.Delete("/sitemaps/:id", h.Job.Cancel(models.JobKindSitemap))
	core.Get("/sitemaps/:id/status", h.Job.Status(models.JobKindSitemap))

	core.Get("/proxy-servers/list-all", h.Proxy.ListAll)
	core.Post("/proxy-servers/test-proxy", h.Proxy.Test)
	core.Post("/proxy-servers", h.Proxy.Create)
	core.Get("/proxy-servers", h.Proxy.List)
	core.Get("/proxy-servers/:slug", h.Proxy.Get)
	core.Patch("/proxy-servers/:slug", h.Proxy.Update)
	core.Put("/proxy-servers/:slug", h.Proxy.Update)
	core.Delete("/proxy-servers/:slug", h.Proxy.Delete)

	// Plans are public. Subscriptions need a signed-in member of the team;
	// API keys cannot change billing.
	plan := v1.Group("/plan")
	plan.Get("/plans", h.Plan.List)
	plan.Get("/plans/:id", h.Plan.Get)
	plan.Post("/webhook/stripe", h.Webhook.HandleStripe)

	subs := plan.Group("/subscriptions", jwt, team)
	subs.Get("/current", h.Subscription.Current)
	subs.Post("/start", h.Subscription.Start)
	subs.Delete("/cancel", h.Subscription.Cancel)
	subs.Post("/renew", h.Subscription.Renew)
	subs.Post("/manage-subscription", h.Subscription.Manage)
	subs.Get("/", h.Subscription.List)
	subs.Get("/:id", h.Subscription.Get)

	// Admin: global proxies, for superusers or the internal token.
	admin := v1.Group("/admin", optionalJWT, middleware.SuperuserRequired(cfg, g.Users))
	admin.Post("/proxy-servers", h.Proxy.CreateGlobal)

	// Execution backend.
	internal := api.Group("/internal", middleware.InternalRequired(cfg))
	internal.Post("/jobs/:kind/:id/status", h.Internal.ReportStatus)
	internal.Post("/crawl-requests/:id/results", h.Internal.AddCrawlResult)
	internal.Post("/usage", h.Internal.RecordUsage)
	internal.Post("/proxy-servers", h.Proxy.CreateGlobal)
}
