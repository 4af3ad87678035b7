package api

import (
	"github.com/go-chi/chi/v5"
)

// setupRoutes wires the public, auth and admin route groups
func setupRoutes(r chi.Router, handlers *routeHandlers, auth authMiddleware, loginLimiter *rateLimiter) {
	r.Get("/health", handlers.healthHandler.check())

	// Auth endpoints (rate limited)
	r.Group(func(r chi.Router) {
		r.Use(loginLimiter.limit)
		r.Post("/api/auth/login", handlers.authHandler.login())
	})

	// Public blog endpoints
	r.Group(func(r chi.Router) {
		r.Use(ColoredHTTPLoggingMiddleware)

		r.Get("/api/blogs/page-data", handlers.blogHandler.getPageData())
		r.Get("/api/blogs/{slug}", handlers.blogHandler.getBySlug())
	})

	// Admin endpoints (authenticated)
	r.Group(func(r chi.Router) {
		r.Use(auth.authenticate)
		r.Use(ColoredHTTPLoggingMiddleware)

		r.Get("/api/admin/blogs", handlers.blogHandler.getAllBlogs())
		r.Get("/api/admin/blogs/{blogID}", handlers.blogHandler.getBlog())
		r.Post("/api/admin/blogs", handlers.blogHandler.createBlog())
		r.Put("/api/admin/blogs/{blogID}", handlers.blogHandler.updateBlog())
		r.Delete("/api/admin/blogs/{blogID}", handlers.blogHandler.deleteBlog())
		r.Patch("/api/admin/blogs/{blogID}/publish", handlers.blogHandler.togglePublished())
		r.Patch("/api/admin/blogs/{blogID}/featured", handlers.blogHandler.toggleFeatured())
		r.Post("/api/admin/blogs/bulk/publish", handlers.blogHandler.bulkPublish())
		r.Post("/api/admin/blogs/bulk/unpublish", handlers.blogHandler.bulkUnpublish())
		r.Post("/api/admin/blogs/bulk/delete", handlers.blogHandler.bulkDelete())
	})
}
